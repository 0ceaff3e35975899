package profiles

import (
	"context"
	"fmt"

	"github.com/spf13/viper"
)

type seedFile struct {
	Profiles []Profile `mapstructure:"profiles"`
}

// LoadSeed reads a YAML or JSON file with a top-level "profiles" list and
// inserts every entry into the store. It returns the number of profiles added.
func LoadSeed(ctx context.Context, store Store, path string) (int, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return 0, fmt.Errorf("read seed: %w", err)
	}

	var seed seedFile
	if err := v.Unmarshal(&seed); err != nil {
		return 0, fmt.Errorf("unmarshal seed: %w", err)
	}

	for i, p := range seed.Profiles {
		if _, err := store.Create(ctx, p); err != nil {
			return i, fmt.Errorf("seed profile %d (%s): %w", i, p.Name, err)
		}
	}
	return len(seed.Profiles), nil
}

// OpenStore returns an in-memory store, seeded from path when it is set.
func OpenStore(ctx context.Context, path string) (*MemoryStore, int, error) {
	store := NewMemoryStore()
	if path == "" {
		return store, 0, nil
	}
	n, err := LoadSeed(ctx, store, path)
	if err != nil {
		return nil, 0, err
	}
	return store, n, nil
}
