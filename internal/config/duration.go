package config

import (
	"fmt"
	"time"
)

// Duration wraps time.Duration so YAML files can use "1s" or plain seconds.
type Duration struct {
	time.Duration
}

// DurationFrom creates a Duration from a standard time.Duration.
func DurationFrom(d time.Duration) Duration {
	return Duration{Duration: d}
}

func (d Duration) String() string {
	return d.Duration.String()
}

// MarshalYAML emits durations as strings.
func (d Duration) MarshalYAML() (any, error) {
	return d.Duration.String(), nil
}

// UnmarshalYAML accepts either a string duration or numeric seconds.
func (d *Duration) UnmarshalYAML(value func(any) error) error {
	var raw any
	if err := value(&raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case nil:
		d.Duration = 0
	case string:
		if v == "" {
			d.Duration = 0
			return nil
		}
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", v, err)
		}
		d.Duration = parsed
	case int:
		d.Duration = time.Duration(v) * time.Second
	case float64:
		d.Duration = time.Duration(v * float64(time.Second))
	default:
		return fmt.Errorf("unsupported duration type %T", raw)
	}
	return nil
}
