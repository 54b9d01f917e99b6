package classify

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
)

// Rules holds the tunable parts of the rule set. The tracker list is
// intentionally small and extensible, not a complete taxonomy.
type Rules struct {
	TrackerPatterns []string `yaml:"tracker_patterns"`
}

// DefaultRules returns the compiled-in rule set.
func DefaultRules() *Rules {
	return &Rules{
		TrackerPatterns: []string{
			"doubleclick",
			"google-analytics",
			"googletagmanager",
			"googlesyndication",
			"facebook.com/tr",
			"adservice",
			"adsystem",
			"scorecardresearch",
			"hotjar",
			"mixpanel",
			"segment.io",
			"amplitude",
			"quantserve",
			"outbrain",
			"taboola",
			"criteo",
			"/pixel",
			"/track",
			"/beacon",
			"/collect",
		},
	}
}

// LoadRules reads a rule override file. An empty path selects the defaults;
// a present but unreadable or malformed file is an error so a typo in the
// override never silently reverts to defaults.
func LoadRules(path string) (*Rules, error) {
	if path == "" {
		return DefaultRules(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}
	var rules Rules
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("failed to parse rules file: %w", err)
	}
	if len(rules.TrackerPatterns) == 0 {
		rules.TrackerPatterns = DefaultRules().TrackerPatterns
	}
	return &rules, nil
}
