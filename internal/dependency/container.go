// Package dependency wires the humcp startup pipeline using go.uber.org/dig:
// config → discovery → filter → registry → skills → server. Every step here
// is init-phase; failures abort before the process reaches serving state.
package dependency

import (
	"log/slog"

	"go.uber.org/dig"

	"github.com/humcp/humcp/internal/catalog"
	"github.com/humcp/humcp/internal/config"
	"github.com/humcp/humcp/internal/filter"
	"github.com/humcp/humcp/internal/registry"
	"github.com/humcp/humcp/internal/schema"
	"github.com/humcp/humcp/internal/server"
	"github.com/humcp/humcp/internal/skills"
	"github.com/humcp/humcp/internal/tools"
)

// Container holds the resolved startup singletons.
// Callers use the typed getters; they never need to import dig directly.
type Container struct {
	reg    *registry.Registry
	skills *skills.Store
	srv    *server.Server
}

func (c *Container) Registry() *registry.Registry { return c.reg }
func (c *Container) Skills() *skills.Store        { return c.skills }
func (c *Container) Server() *server.Server       { return c.srv }

// Candidates is the discovered, pre-filter tool list. A named type so dig
// can tell it apart from other descriptor slices.
type Candidates []schema.Descriptor

// New builds and wires the whole startup pipeline from cfg.
func New(cfg *config.Config) (*Container, error) {
	d := dig.New()

	if err := d.Provide(func() *config.Config { return cfg }); err != nil {
		return nil, err
	}
	if err := d.Provide(discoverCandidates); err != nil {
		return nil, err
	}
	if err := d.Provide(loadRule); err != nil {
		return nil, err
	}
	if err := d.Provide(buildRegistry); err != nil {
		return nil, err
	}
	if err := d.Provide(newSkillsStore); err != nil {
		return nil, err
	}
	if err := d.Provide(newServer); err != nil {
		return nil, err
	}

	var result *Container
	err := d.Invoke(func(reg *registry.Registry, sk *skills.Store, srv *server.Server) {
		result = &Container{reg: reg, skills: sk, srv: srv}
	})
	return result, err
}

func discoverCandidates(cfg *config.Config) (Candidates, error) {
	ds, err := catalog.Discover(tools.BuiltinSources(cfg))
	return Candidates(ds), err
}

func loadRule(cfg *config.Config) (filter.Rule, error) {
	return filter.Load(cfg.FilterPath)
}

// buildRegistry validates the rule against the discovered candidates,
// applies it, and registers the admitted subset. Any duplicate name or
// unknown filter entry is fatal here, before anything is served.
func buildRegistry(candidates Candidates, rule filter.Rule) (*registry.Registry, error) {
	warnings, err := rule.ValidateAgainst(candidates)
	if err != nil {
		return nil, err
	}
	for _, warning := range warnings {
		slog.Warn("Filter config warning", "detail", warning)
	}

	admitted := rule.Apply(candidates)
	slog.Info("Filtered tools", "admitted", len(admitted), "discovered", len(candidates))

	b := registry.NewBuilder()
	for _, d := range admitted {
		if err := b.Register(d); err != nil {
			return nil, err
		}
	}
	return b.Build(), nil
}

func newSkillsStore(cfg *config.Config) (*skills.Store, error) {
	store := skills.NewStore(cfg.SkillsDir)
	if err := store.Refresh(); err != nil {
		return nil, err
	}
	return store, nil
}

func newServer(cfg *config.Config, reg *registry.Registry, sk *skills.Store) *server.Server {
	return server.New(cfg.Server.Port, cfg.Server.Token, reg, sk)
}
