package experiment

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/san-kum/ssasim/internal/config"
	"github.com/san-kum/ssasim/internal/storage"
)

// Opener builds a store from its config section.
type Opener func(ctx context.Context, cfg config.StorageConfig) (storage.Store, error)

type Registry struct {
	backends map[string]Opener
}

func NewRegistry() *Registry {
	r := &Registry{backends: make(map[string]Opener)}

	r.backends["fs"] = func(ctx context.Context, cfg config.StorageConfig) (storage.Store, error) {
		s := storage.NewFS(dataDir(cfg))
		if err := s.Init(); err != nil {
			return nil, err
		}
		return s, nil
	}
	r.backends["sqlite"] = func(ctx context.Context, cfg config.StorageConfig) (storage.Store, error) {
		path := cfg.DSN
		if path == "" {
			path = filepath.Join(dataDir(cfg), "ssasim.db")
			if err := storage.NewFS(dataDir(cfg)).Init(); err != nil {
				return nil, err
			}
		}
		return storage.OpenSQLite(ctx, path)
	}
	r.backends["postgres"] = func(ctx context.Context, cfg config.StorageConfig) (storage.Store, error) {
		return storage.OpenPostgres(ctx, cfg.DSN)
	}
	r.backends["none"] = func(ctx context.Context, cfg config.StorageConfig) (storage.Store, error) {
		return nil, nil
	}

	return r
}

func dataDir(cfg config.StorageConfig) string {
	if cfg.Dir == "" {
		return config.DefaultDataDir
	}
	return cfg.Dir
}

func (r *Registry) Register(name string, open Opener) {
	r.backends[name] = open
}

// OpenStore returns the configured backend. The "none" backend yields a nil
// store.
func (r *Registry) OpenStore(ctx context.Context, cfg config.StorageConfig) (storage.Store, error) {
	name := cfg.Backend
	if name == "" {
		name = config.DefaultBackend
	}
	open, ok := r.backends[name]
	if !ok {
		return nil, fmt.Errorf("unknown storage backend: %s", name)
	}
	return open(ctx, cfg)
}

func (r *Registry) ListBackends() []string {
	names := make([]string, 0, len(r.backends))
	for name := range r.backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
