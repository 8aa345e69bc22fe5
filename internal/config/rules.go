package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"mext-feed/internal/usecase/filter"
	"mext-feed/internal/usecase/tagger"
)

// Rules bundles the keyword policy for one run.
type Rules struct {
	Filter filter.Rules `yaml:"filter"`
	Tagger tagger.Rules `yaml:"tagger"`
}

// DefaultRules returns the built-in filter and tagger policy.
func DefaultRules() Rules {
	return Rules{
		Filter: filter.DefaultRules(),
		Tagger: tagger.DefaultRules(),
	}
}

// LoadRules reads a rules override file. An empty path returns the defaults.
// Keys present in the file replace the default value; omitted keys keep it.
//
// Example:
//
//	filter:
//	  hard_exclude: ["採用のお知らせ"]
//	  allow_category: AI
//	  threshold: 3
//	  groups:
//	    - weight: 4
//	      keywords: ["生成AI", "GIGA"]
//	tagger:
//	  table:
//	    - tag: GIGA
//	      keywords: ["GIGA"]
func LoadRules(path string) (Rules, error) {
	rules := DefaultRules()
	if path == "" {
		return rules, nil
	}

	// #nosec G304 -- path is provided by trusted source (CLI flag)
	data, err := os.ReadFile(path)
	if err != nil {
		return Rules{}, fmt.Errorf("%w: read rules %s: %v", ErrConfigLoad, path, err)
	}

	if err := yaml.Unmarshal(data, &rules); err != nil {
		return Rules{}, fmt.Errorf("%w: parse rules %s: %v", ErrConfigLoad, path, err)
	}
	return rules, nil
}
