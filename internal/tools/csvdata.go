package tools

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/humcp/humcp/internal/schema"
)

// csvManager maps logical names (file stems) to configured CSV files.
type csvManager struct {
	files map[string]string
}

func newCSVManager(paths []string) *csvManager {
	m := &csvManager{files: make(map[string]string, len(paths))}
	for _, p := range paths {
		if !strings.EqualFold(filepath.Ext(p), ".csv") {
			continue
		}
		if _, err := os.Stat(p); err != nil {
			continue
		}
		stem := strings.TrimSuffix(filepath.Base(p), filepath.Ext(p))
		m.files[stem] = p
	}
	return m
}

func (m *csvManager) names() []string {
	out := make([]string, 0, len(m.files))
	for name := range m.files {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func (m *csvManager) path(name string) (string, error) {
	p, ok := m.files[name]
	if !ok {
		return "", fmt.Errorf("unknown CSV file %q, available: %v", name, m.names())
	}
	return p, nil
}

// csvTools returns the csv_list, csv_preview, and csv_info descriptors over
// the configured file set.
func csvTools(paths []string) []schema.Descriptor {
	m := newCSVManager(paths)

	return []schema.Descriptor{
		{
			Name:    "csv_list",
			Summary: "List all available CSV files.",
			Params:  schema.Params{},
			Handler: func(_ context.Context, _ map[string]any) (any, error) {
				return m.names(), nil
			},
		},
		{
			Name:    "csv_preview",
			Summary: "Preview the first rows of a CSV file.",
			Params: schema.Params{
				{Name: "name", Type: schema.TypeString, Required: true,
					Description: "Logical CSV file name (file stem)"},
				{Name: "rows", Type: schema.TypeInteger, Default: int64(10),
					Description: "Number of data rows to return"},
			},
			Handler: m.preview,
		},
		{
			Name:    "csv_info",
			Summary: "Return column names and row count of a CSV file.",
			Params: schema.Params{
				{Name: "name", Type: schema.TypeString, Required: true,
					Description: "Logical CSV file name (file stem)"},
			},
			Handler: m.info,
		},
	}
}

func (m *csvManager) preview(_ context.Context, args map[string]any) (any, error) {
	name := args["name"].(string)
	limit := args["rows"].(int64)
	if limit < 1 {
		limit = 1
	}

	path, err := m.path(name)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read header of %s: %w", name, err)
	}

	var rows [][]string
	for int64(len(rows)) < limit {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		rows = append(rows, record)
	}
	return map[string]any{"name": name, "columns": header, "rows": rows}, nil
}

func (m *csvManager) info(_ context.Context, args map[string]any) (any, error) {
	name := args["name"].(string)
	path, err := m.path(name)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read header of %s: %w", name, err)
	}

	count := 0
	for {
		if _, err := r.Read(); err == io.EOF {
			break
		} else if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		count++
	}
	return map[string]any{
		"name":      name,
		"path":      path,
		"columns":   header,
		"row_count": count,
	}, nil
}
