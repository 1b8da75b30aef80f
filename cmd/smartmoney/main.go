package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var Version = "dev"

var (
	configPath string
	envFile    string
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "smartmoney",
		Short:         "Score congressional and insider trades and alert on high-conviction ones",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "Path to the YAML or JSON config file")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "Env file with credentials (defaults to ./.env)")

	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(initDBCmd())
	rootCmd.AddCommand(checkConfigCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
