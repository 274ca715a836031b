// Package filter decides, per tool, whether it is reachable at all.
// A Rule is loaded from a declarative YAML document; Admit is a pure
// function over (name, category) so the same rule always yields the same
// decision.
package filter

import (
	"fmt"
	"path"
	"strings"

	"github.com/humcp/humcp/internal/schema"
)

// Clause is one side of a rule: categories and tool names.
// Include clauses use exact tool names; exclude clauses use glob patterns
// where `*` matches zero or more characters and `?` exactly one.
type Clause struct {
	Categories []string `yaml:"categories"`
	Tools      []string `yaml:"tools"`
}

// Empty reports whether the clause has no entries.
func (c Clause) Empty() bool {
	return len(c.Categories) == 0 && len(c.Tools) == 0
}

// Rule is the declarative filter configuration. The zero value admits
// everything.
type Rule struct {
	Include Clause `yaml:"include"`
	Exclude Clause `yaml:"exclude"`
}

// Admit decides whether the tool survives the rule. If the include clause
// is non-empty, the tool must match it by category or exact name; an
// exclude pattern match then always removes the tool, regardless of any
// include match. A tool without a category is matched as "uncategorized".
func (r Rule) Admit(name, category string) bool {
	if category == "" {
		category = "uncategorized"
	}

	if !r.Include.Empty() {
		included := containsString(r.Include.Categories, category) ||
			containsString(r.Include.Tools, name)
		if !included {
			return false
		}
	}

	// Exclude is authoritative: it wins over any include match.
	if containsString(r.Exclude.Categories, category) {
		return false
	}
	for _, pattern := range r.Exclude.Tools {
		if matchPattern(pattern, name) {
			return false
		}
	}
	return true
}

// Apply filters candidates down to the admitted subset, preserving order.
func (r Rule) Apply(candidates []schema.Descriptor) []schema.Descriptor {
	admitted := make([]schema.Descriptor, 0, len(candidates))
	for _, d := range candidates {
		if r.Admit(d.Name, d.Category) {
			admitted = append(admitted, d)
		}
	}
	return admitted
}

// Validate checks every exclude pattern for well-formedness. A malformed
// pattern is a configuration error and must abort startup; it is never
// deferred to request time.
func (r Rule) Validate() error {
	for _, pattern := range r.Exclude.Tools {
		if _, err := path.Match(pattern, ""); err != nil {
			return fmt.Errorf("exclude.tools: malformed pattern %q: %w", pattern, err)
		}
	}
	return nil
}

// ValidateAgainst checks the rule against the discovered candidates.
// Unknown include/exclude categories and unknown exact tool names are
// errors; a wildcard pattern that matches no tool is only a warning.
func (r Rule) ValidateAgainst(candidates []schema.Descriptor) (warnings []string, err error) {
	categories := make(map[string]bool)
	names := make(map[string]bool)
	for _, d := range candidates {
		c := d.Category
		if c == "" {
			c = "uncategorized"
		}
		categories[c] = true
		names[d.Name] = true
	}

	var errs []string
	for _, c := range r.Include.Categories {
		if !categories[c] {
			errs = append(errs, fmt.Sprintf("include.categories: unknown category %q", c))
		}
	}
	for _, c := range r.Exclude.Categories {
		if !categories[c] {
			errs = append(errs, fmt.Sprintf("exclude.categories: unknown category %q", c))
		}
	}
	for _, t := range r.Include.Tools {
		if !names[t] {
			errs = append(errs, fmt.Sprintf("include.tools: unknown tool %q", t))
		}
	}
	for _, pattern := range r.Exclude.Tools {
		if !isWildcard(pattern) {
			if !names[pattern] {
				errs = append(errs, fmt.Sprintf("exclude.tools: unknown tool %q", pattern))
			}
			continue
		}
		matched := false
		for n := range names {
			if matchPattern(pattern, n) {
				matched = true
				break
			}
		}
		if !matched {
			warnings = append(warnings, fmt.Sprintf("exclude.tools: pattern %q matches no tools", pattern))
		}
	}

	if len(errs) > 0 {
		return warnings, fmt.Errorf("filter config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return warnings, nil
}

// matchPattern matches name against a glob pattern, anchored and
// case-sensitive. Tool names contain no path separators, so path.Match
// gives exactly fnmatch semantics. Exact names fall through as literal
// patterns. Validate has already rejected malformed patterns.
func matchPattern(pattern, name string) bool {
	ok, err := path.Match(pattern, name)
	return err == nil && ok
}

func isWildcard(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[")
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
