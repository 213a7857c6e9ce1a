package mastery

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// policyFile is the on-disk shape of a policy table:
//
//	[[rule]]
//	level = "practicing"
//	min_best_score = 60
//	min_sessions = 1
type policyFile struct {
	Rules []Rule `toml:"rule"`
}

// LoadPolicy reads a policy table from a TOML file. An empty path or a
// missing file yields the default policy.
func LoadPolicy(path string) (*Policy, error) {
	if path == "" {
		return DefaultPolicy(), nil
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return DefaultPolicy(), nil
		}
		return nil, fmt.Errorf("failed to stat mastery policy: %w", err)
	}

	var f policyFile
	if _, err := toml.DecodeFile(path, &f); err != nil {
		return nil, fmt.Errorf("failed to decode mastery policy: %w", err)
	}
	if len(f.Rules) == 0 {
		return nil, fmt.Errorf("%w: policy file %s has no rules", ErrInvalidRule, path)
	}
	return NewPolicy(f.Rules)
}
