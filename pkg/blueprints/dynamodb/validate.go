package dynamodb

import (
	"errors"
	"fmt"

	"github.com/mhahn/stacker-blueprints/pkg/blueprint"
)

// DefaultThroughputRatio is the share of a table's read capacity an export uses when unset.
const DefaultThroughputRatio = "0.25"

var requiredSnapshotKeys = []string{"TableName", "S3Output"}

// SnapshotConfigError names the snapshot config that failed validation.
type SnapshotConfigError struct {
	Index  int
	Key    string
	Config map[string]any
	Err    error
}

func (e *SnapshotConfigError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("snapshot config %d: %v", e.Index, e.Err)
	}
	return fmt.Sprintf("snapshot config %d: missing required key %q from config: %v", e.Index, e.Key, e.Config)
}

func (e *SnapshotConfigError) Unwrap() error {
	return e.Err
}

// ValidateSnapshotConfig checks that config has every required key and returns a copy with
// ThroughputRatio defaulted.
func ValidateSnapshotConfig(config map[string]any) (map[string]any, error) {
	for _, key := range requiredSnapshotKeys {
		if _, ok := config[key]; !ok {
			return nil, &SnapshotConfigError{Key: key, Config: config, Err: blueprint.ErrMissingRequired}
		}
	}
	validated := make(map[string]any, len(config)+1)
	for k, v := range config {
		validated[k] = v
	}
	if _, ok := validated["ThroughputRatio"]; !ok {
		validated["ThroughputRatio"] = DefaultThroughputRatio
	}
	return validated, nil
}

// ValidateSnapshotConfigs validates each config in order, stopping at the first invalid one.
// It is the validator of the SnapshotConfigs variable.
func ValidateSnapshotConfigs(value any) (any, error) {
	configs, ok := value.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: snapshot configs must be a list, got %T", blueprint.ErrWrongType, value)
	}
	validated := make([]any, 0, len(configs))
	for i, c := range configs {
		config, ok := c.(map[string]any)
		if !ok {
			return nil, &SnapshotConfigError{
				Index: i,
				Err:   fmt.Errorf("%w: expected a mapping, got %T", blueprint.ErrWrongType, c),
			}
		}
		v, err := ValidateSnapshotConfig(config)
		if err != nil {
			var cfgErr *SnapshotConfigError
			if errors.As(err, &cfgErr) {
				cfgErr.Index = i
			}
			return nil, err
		}
		validated = append(validated, v)
	}
	return validated, nil
}
