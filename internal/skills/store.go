// Package skills loads free-form per-category SKILL.md documents. Skills
// only enrich listing and introspection responses; the tool registry itself
// never depends on them.
package skills

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Skill is one parsed SKILL.md, keyed by the category directory it lives in.
type Skill struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Content     string `json:"content"`
	Category    string `json:"category"`
}

// Meta is the lightweight view of a skill used in category listings.
type Meta struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// frontmatter is the YAML header of a SKILL.md file.
type frontmatter struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

// Store caches skills discovered under a root directory. Refresh may be
// called at any time (the serve command schedules it periodically); reads
// and refreshes are safe to interleave.
type Store struct {
	dir string

	mu         sync.RWMutex
	byCategory map[string]Skill
}

// NewStore creates a Store over dir. The initial scan happens on the first
// Refresh; a missing directory simply yields no skills.
func NewStore(dir string) *Store {
	return &Store{dir: dir, byCategory: map[string]Skill{}}
}

// Refresh rescans <dir>/<category>/SKILL.md files and swaps the cache.
// A skill that fails to parse is skipped with a warning; the scan itself
// only fails on filesystem errors other than a missing root.
func (s *Store) Refresh() error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("scan skills dir %s: %w", s.dir, err)
	}

	found := make(map[string]Skill)
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		category := e.Name()
		path := filepath.Join(s.dir, category, "SKILL.md")
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		skill, err := parseSkill(string(data), category)
		if err != nil {
			slog.Warn("Skipping unparseable skill", "path", path, "error", err)
			continue
		}
		found[category] = skill
	}

	s.mu.Lock()
	s.byCategory = found
	s.mu.Unlock()
	slog.Debug("Refreshed skills", "dir", s.dir, "count", len(found))
	return nil
}

// Get returns the skill for a category.
func (s *Store) Get(category string) (Skill, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	skill, ok := s.byCategory[category]
	return skill, ok
}

// Metadata returns name/description pairs for every known category.
func (s *Store) Metadata() map[string]Meta {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]Meta, len(s.byCategory))
	for cat, skill := range s.byCategory {
		out[cat] = Meta{Name: skill.Name, Description: skill.Description}
	}
	return out
}

// parseSkill splits optional YAML frontmatter from the markdown body.
// Files without frontmatter are plain content; the skill name falls back to
// the category.
func parseSkill(text, category string) (Skill, error) {
	skill := Skill{Name: category, Category: category, Content: strings.TrimSpace(text)}

	rest, ok := strings.CutPrefix(text, "---\n")
	if !ok {
		return skill, nil
	}
	header, body, ok := strings.Cut(rest, "\n---")
	if !ok {
		return skill, nil
	}

	var fm frontmatter
	if err := yaml.Unmarshal([]byte(header), &fm); err != nil {
		return Skill{}, fmt.Errorf("parse frontmatter: %w", err)
	}
	if fm.Name != "" {
		skill.Name = fm.Name
	}
	skill.Description = fm.Description
	skill.Content = strings.TrimSpace(strings.TrimPrefix(body, "\n"))
	return skill, nil
}
