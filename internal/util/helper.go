package util

import (
	"fmt"
	"strconv"
)

// ParseFloats converts a slice of decimal strings, as extracted from a device
// response, into float64 values.
func ParseFloats(values []string) ([]float64, error) {
	out := make([]float64, len(values))
	for i, s := range values {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("value %d %q is not a float: %w", i, s, err)
		}
		out[i] = v
	}

	return out, nil
}
