package tools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/humcp/humcp/internal/schema"
)

// fileAccess resolves paths against the workspace and enforces the
// directory restriction when one is configured.
type fileAccess struct {
	workspace  string
	allowedDir string
}

// resolve resolves path against the workspace (if relative) and enforces
// the allowed-directory restriction when set.
func (f fileAccess) resolve(path string) (string, error) {
	p := path
	if !filepath.IsAbs(p) && f.workspace != "" {
		p = filepath.Join(f.workspace, p)
	}
	resolved, err := filepath.EvalSymlinks(p)
	if err != nil {
		// Path may not exist yet (for writes), fall back to Clean.
		resolved = filepath.Clean(p)
	}
	if f.allowedDir != "" {
		allowedResolved := filepath.Clean(f.allowedDir)
		if !strings.HasPrefix(resolved, allowedResolved) {
			return "", fmt.Errorf("path %s is outside allowed directory %s", path, f.allowedDir)
		}
	}
	return resolved, nil
}

// filesystemTools returns the read_file, write_file, and list_dir
// descriptors. allowedDir may be empty to disable the restriction.
func filesystemTools(workspace, allowedDir string) []schema.Descriptor {
	fa := fileAccess{workspace: workspace, allowedDir: allowedDir}

	return []schema.Descriptor{
		{
			Name:    "read_file",
			Summary: "Read the contents of a file at the given path.",
			Params: schema.Params{
				{Name: "path", Type: schema.TypeString, Required: true,
					Description: "The file path to read"},
			},
			Handler: fa.readFile,
		},
		{
			Name:    "write_file",
			Summary: "Write content to a file at the given path. Creates parent directories if needed.",
			Params: schema.Params{
				{Name: "path", Type: schema.TypeString, Required: true,
					Description: "The file path to write to"},
				{Name: "content", Type: schema.TypeString, Required: true,
					Description: "The content to write"},
			},
			Handler: fa.writeFile,
		},
		{
			Name:    "list_dir",
			Summary: "List the entries of a directory.",
			Params: schema.Params{
				{Name: "path", Type: schema.TypeString,
					Default: ".", Description: "The directory to list"},
			},
			Handler: fa.listDir,
		},
	}
}

func (f fileAccess) readFile(_ context.Context, args map[string]any) (any, error) {
	path := args["path"].(string)
	fp, err := f.resolve(path)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(fp)
	if err != nil {
		return nil, fmt.Errorf("file not found: %s", path)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("not a file: %s", path)
	}
	data, err := os.ReadFile(fp)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return string(data), nil
}

func (f fileAccess) writeFile(_ context.Context, args map[string]any) (any, error) {
	path := args["path"].(string)
	content := args["content"].(string)
	fp, err := f.resolve(path)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(fp), 0o755); err != nil {
		return nil, fmt.Errorf("create parent dirs for %s: %w", path, err)
	}
	if err := os.WriteFile(fp, []byte(content), 0o644); err != nil {
		return nil, fmt.Errorf("write %s: %w", path, err)
	}
	return map[string]any{"path": path, "bytes": len(content)}, nil
}

func (f fileAccess) listDir(_ context.Context, args map[string]any) (any, error) {
	path := args["path"].(string)
	fp, err := f.resolve(path)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(fp)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", path, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() {
			name += "/"
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}
