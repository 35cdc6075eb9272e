package eval

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// LoadQueries reads a query file. Two layouts are accepted:
//
//	{"queries": ["...", {"query": "..."}]}
//	["...", {"query": "..."}]
//
// Entries may be plain strings or objects carrying a "query" field. Blank
// entries are rejected so a typo in the file surfaces before a run starts.
func LoadQueries(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read queries file: %w", err)
	}

	var items []json.RawMessage

	var wrapper struct {
		Queries []json.RawMessage `json:"queries"`
	}
	if err := json.Unmarshal(data, &wrapper); err == nil && wrapper.Queries != nil {
		items = wrapper.Queries
	} else if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("parse queries file %s: %w", path, err)
	}

	if len(items) == 0 {
		return nil, fmt.Errorf("queries file %s: %w", path, ErrNoQueries)
	}

	queries := make([]string, 0, len(items))
	for i, item := range items {
		query, err := decodeQuery(item)
		if err != nil {
			return nil, fmt.Errorf("queries file %s entry %d: %w", path, i, err)
		}
		queries = append(queries, query)
	}
	return queries, nil
}

func decodeQuery(raw json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if strings.TrimSpace(s) == "" {
			return "", fmt.Errorf("empty query")
		}
		return s, nil
	}

	var obj struct {
		Query string `json:"query"`
	}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return "", fmt.Errorf("expected string or {\"query\": ...}: %w", err)
	}
	if strings.TrimSpace(obj.Query) == "" {
		return "", fmt.Errorf("empty query")
	}
	return obj.Query, nil
}
