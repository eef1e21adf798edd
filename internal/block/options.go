package block

import (
	"fmt"

	"github.com/spf13/cast"
)

// intOption reads an integer option, falling back to def when absent.
func intOption(cfg Config, name string, def int) (int, error) {
	v, ok := cfg[name]
	if !ok || v == nil {
		return def, nil
	}
	n, err := cast.ToIntE(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%v", ErrBadOption, name, v)
	}
	return n, nil
}

// requiredIntOption is intOption without a default.
func requiredIntOption(cfg Config, name string) (int, error) {
	if v, ok := cfg[name]; !ok || v == nil {
		return 0, fmt.Errorf("%w: %s", ErrMissingOption, name)
	}
	return intOption(cfg, name, 0)
}

func floatOption(cfg Config, name string, def float64) (float64, error) {
	v, ok := cfg[name]
	if !ok || v == nil {
		return def, nil
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%v", ErrBadOption, name, v)
	}
	return f, nil
}

func stringOption(cfg Config, name, def string) (string, error) {
	v, ok := cfg[name]
	if !ok || v == nil {
		return def, nil
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return "", fmt.Errorf("%w: %s=%v", ErrBadOption, name, v)
	}
	return s, nil
}
