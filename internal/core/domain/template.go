package domain

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrCorruptTemplate indicates the stored template form cannot be parsed back
// into a flat numeric vector.
var ErrCorruptTemplate = errors.New("corrupt face template")

// EncodeTemplate serializes a descriptor into its persisted form. The JSON
// number encoding uses the shortest representation that round-trips each
// float64 exactly, so DecodeTemplate(EncodeTemplate(v)) reproduces v
// bit-for-bit on every coordinate.
func EncodeTemplate(template Descriptor) (string, error) {
	if len(template) == 0 {
		return "", fmt.Errorf("encode template: descriptor is empty")
	}

	encoded, err := json.Marshal([]float64(template))
	if err != nil {
		return "", fmt.Errorf("encode template: %w", err)
	}

	return string(encoded), nil
}

// DecodeTemplate parses the persisted form back into a descriptor.
func DecodeTemplate(stored string) (Descriptor, error) {
	if stored == "" {
		return nil, fmt.Errorf("%w: stored form is empty", ErrCorruptTemplate)
	}

	var values []float64
	if err := json.Unmarshal([]byte(stored), &values); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptTemplate, err)
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("%w: decoded vector is empty", ErrCorruptTemplate)
	}

	return Descriptor(values), nil
}
