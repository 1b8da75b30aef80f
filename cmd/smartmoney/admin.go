package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func initDBCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init-db",
		Short: "Create the storage schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			store, err := openStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer store.Close()
			fmt.Printf("Schema ready (%s)\n", cfg.Storage.Driver)
			return nil
		},
	}
}

func checkConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check-config",
		Short: "Validate the config and print the effective values",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			out, err := yaml.Marshal(cfg)
			if err != nil {
				return err
			}
			fmt.Println("Config OK")
			fmt.Println()
			_, _ = os.Stdout.Write(out)

			fmt.Println()
			fmt.Println("Credentials:")
			masked := cfg.Secrets.Masked()
			keys := make([]string, 0, len(masked))
			for k := range masked {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Printf("  %-18s %s\n", k, masked[k])
			}
			return nil
		},
	}
}
