package settings

import (
	"context"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SeedFile is the optional YAML document applied on first boot:
//
//	settings:
//	  Shiny-DungeonHunt: true
//	  Shiny-PreferredDungeon: Mt. Moon
type SeedFile struct {
	Settings map[string]yaml.Node `yaml:"settings"`
}

// LoadSeedFile reads the seed document at path into raw string values.
func LoadSeedFile(path string) (map[string]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc SeedFile
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	out := make(map[string]string, len(doc.Settings))
	var errs []error
	for k, n := range doc.Settings {
		if _, err := lookup(k); err != nil {
			errs = append(errs, err)
			continue
		}
		if n.Kind != yaml.ScalarNode {
			errs = append(errs, fmt.Errorf("%s: want a scalar value", k))
			continue
		}
		out[k] = n.Value
	}
	return out, errors.Join(errs...)
}

// Bootstrap seeds defaults into st. On first boot the values from seedPath,
// when set, are written first. Seed problems are returned but the store is
// always left fully seeded.
func Bootstrap(ctx context.Context, st Store, seedPath string) (firstBoot bool, err error) {
	values, err := st.List(ctx)
	if err != nil {
		return false, err
	}
	var seedErr error
	if len(values) == 0 && seedPath != "" {
		seed, err := LoadSeedFile(seedPath)
		seedErr = err
		for _, k := range sortedKeys(seed) {
			if err := Validate(k, seed[k], nil); err != nil {
				seedErr = errors.Join(seedErr, err)
				continue
			}
			if err := st.Set(ctx, k, seed[k]); err != nil {
				return false, err
			}
		}
	}
	if _, err := Seed(ctx, st); err != nil {
		return false, err
	}
	return len(values) == 0, seedErr
}
