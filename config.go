package domainpool

import (
	"os"

	"gopkg.in/yaml.v2"
)

// Config is the loadable form of the choice of how many workers to spawn.
// It generalizes a SetNumShards-style setter into something a deployment
// can supply as a file instead of hardcoding.
type Config struct {
	// NumDomains is the requested roster size; zero means "use the
	// recommended count," the same as calling PrepareOptional with nil.
	NumDomains int `yaml:"num_domains"`

	// RecommendedCount, if set, supplies the requested count in place of
	// recommendedCount()'s GOMAXPROCS-based default when NumDomains is
	// zero. PrepareOptional still clamps its result into
	// [1, recommendedCount()], so it cannot raise the roster size above
	// GOMAXPROCS. Not loadable from
	// YAML; set by code that wants its own policy for "how many workers"
	// without hardcoding a count.
	RecommendedCount func() int `yaml:"-"`
}

// LoadConfig reads and parses a YAML config file.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Apply calls PrepareOptional with cfg.NumDomains, treating zero as "no
// preference": RecommendedCount is consulted if set, otherwise
// PrepareOptional falls back to its own GOMAXPROCS-based default.
func (cfg Config) Apply(p *Pool) {
	if cfg.NumDomains <= 0 {
		if cfg.RecommendedCount == nil {
			p.PrepareOptional(nil)
			return
		}
		n := cfg.RecommendedCount()
		p.PrepareOptional(&n)
		return
	}
	n := cfg.NumDomains
	p.PrepareOptional(&n)
}
