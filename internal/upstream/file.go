package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// FileFetcher serves feeds from JSON files, for offline and dry runs.
// A feed without a path is empty.
type FileFetcher struct {
	paths map[Feed]string
}

func NewFileFetcher(paths map[Feed]string) *FileFetcher {
	return &FileFetcher{paths: paths}
}

func (f *FileFetcher) Fetch(ctx context.Context, feed Feed) ([]map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := f.paths[feed]
	if path == "" {
		return []map[string]any{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s feed: %w", feed, err)
	}
	records, err := decodeRecords(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s feed: %w", feed, err)
	}
	return records, nil
}

// decodeRecords accepts a JSON array of objects or a single object. Array
// elements that are not objects are dropped.
func decodeRecords(data []byte) ([]map[string]any, error) {
	trim := bytes.TrimSpace(data)
	if len(trim) == 0 {
		return []map[string]any{}, nil
	}
	switch trim[0] {
	case '[':
		var list []any
		if err := json.Unmarshal(trim, &list); err != nil {
			return nil, err
		}
		out := make([]map[string]any, 0, len(list))
		for _, item := range list {
			if obj, ok := item.(map[string]any); ok {
				out = append(out, obj)
			}
		}
		return out, nil
	case '{':
		var obj map[string]any
		if err := json.Unmarshal(trim, &obj); err != nil {
			return nil, err
		}
		return []map[string]any{obj}, nil
	default:
		return nil, errors.New("expected a JSON array or object")
	}
}
