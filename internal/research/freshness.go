package research

import (
	"math"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/rfp-intel/internal/model"
)

// CategoryDecay controls how fast confidence decays for one source category.
type CategoryDecay struct {
	HalfLifeDays float64 `yaml:"half_life_days"`
	Floor        float64 `yaml:"floor"`
}

// FreshnessPolicy maps source categories to decay curves. The cap for a
// document is floor + (1-floor) * 0.5^(ageDays/halfLife); an undated document
// gets its category floor.
type FreshnessPolicy struct {
	Categories map[string]CategoryDecay `yaml:"categories"`
}

// DefaultFreshnessPolicy returns the built-in decay schedule.
func DefaultFreshnessPolicy() FreshnessPolicy {
	return FreshnessPolicy{
		Categories: map[string]CategoryDecay{
			model.CategoryOfficial: {HalfLifeDays: 1095, Floor: 0.35},
			model.CategoryNews:     {HalfLifeDays: 180, Floor: 0.15},
			model.CategoryGeneric:  {HalfLifeDays: 365, Floor: 0.25},
		},
	}
}

// LoadFreshnessPolicy reads a policy override from a YAML file. Missing
// categories fall back to the defaults.
func LoadFreshnessPolicy(path string) (FreshnessPolicy, error) {
	policy := DefaultFreshnessPolicy()

	data, err := os.ReadFile(path)
	if err != nil {
		return policy, eris.Wrapf(err, "reading freshness policy %s", path)
	}

	var override FreshnessPolicy
	if err := yaml.Unmarshal(data, &override); err != nil {
		return policy, eris.Wrapf(err, "parsing freshness policy %s", path)
	}
	for cat, decay := range override.Categories {
		if decay.HalfLifeDays <= 0 {
			return policy, eris.Errorf("freshness policy: category %q has non-positive half-life", cat)
		}
		if decay.Floor < 0 || decay.Floor > 1 {
			return policy, eris.Errorf("freshness policy: category %q floor out of range", cat)
		}
		policy.Categories[cat] = decay
	}
	return policy, nil
}

// Cap computes the freshness ceiling for a document of the given category
// observed at now. A nil sourceDate yields the category floor.
func (p FreshnessPolicy) Cap(category string, sourceDate *time.Time, now time.Time) float64 {
	decay, ok := p.Categories[category]
	if !ok {
		decay = p.Categories[model.CategoryGeneric]
		if decay.HalfLifeDays <= 0 {
			decay = CategoryDecay{HalfLifeDays: 365, Floor: 0.25}
		}
	}
	if sourceDate == nil {
		return decay.Floor
	}

	ageDays := now.Sub(*sourceDate).Hours() / 24
	if ageDays < 0 {
		ageDays = 0
	}
	ceiling := decay.Floor + (1-decay.Floor)*math.Pow(0.5, ageDays/decay.HalfLifeDays)
	return clamp01(ceiling)
}

// TierConfidence maps a source tier to its base confidence.
func TierConfidence(tier int) float64 {
	switch tier {
	case 1:
		return 0.95
	case 2:
		return 0.80
	case 3:
		return 0.60
	default:
		return 0.40
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
