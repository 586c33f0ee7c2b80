// Package config provides the narrow Config.Get(key) lookup the resolver
// consults for tunables like max_bubble_length, plus two implementations:
// a static map for tests and embedding code that already has the values,
// and a viper-backed one for loading them from a file on disk.
package config

import (
	"log"

	"github.com/spf13/viper"
)

// MaxBubbleLengthKey is the only key the resolver currently recognizes.
const MaxBubbleLengthKey = "max_bubble_length"

const defaultMaxBubbleLength = 500

// Config is the lookup interface the resolver depends on.
type Config interface {
	Get(key string) int
}

// Static is a map-backed Config, handy for tests and for callers that
// already have their tunables in memory.
type Static map[string]int

// Get returns the configured value, or 0 if key is unset.
func (s Static) Get(key string) int {
	return s[key]
}

// DefaultStatic returns a Static pre-seeded with the resolver's documented
// defaults.
func DefaultStatic() Static {
	return Static{MaxBubbleLengthKey: defaultMaxBubbleLength}
}

// Viper wraps a *viper.Viper so resolver config can live in the same
// YAML/TOML/JSON/env-var file as the rest of a host application's
// settings, in the style jjti-repp's config package loads repp.yaml.
type Viper struct {
	v *viper.Viper
}

// NewViper loads path (if non-empty) into a fresh viper instance and
// seeds defaults for every key the resolver recognizes.
func NewViper(path string) *Viper {
	v := viper.New()
	v.SetDefault(MaxBubbleLengthKey, defaultMaxBubbleLength)
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			log.Printf("[config] could not read %s, using defaults: %v", path, err)
		}
	}
	v.SetEnvPrefix("HETRESOLVE")
	v.AutomaticEnv()
	return &Viper{v: v}
}

// Get returns the configured int value for key.
func (c *Viper) Get(key string) int {
	return c.v.GetInt(key)
}
