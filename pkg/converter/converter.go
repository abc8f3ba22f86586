// Package converter provides the type-conversion collaborator used by the
// diagnostics layer to turn arbitrary header and body values into text.
package converter

import (
	"fmt"
	"io"

	"github.com/spf13/cast"
)

// TypeConverter turns arbitrary values into the handful of scalar forms the
// diagnostics layer needs. A failed conversion is an ordinary error; callers
// treat it as "no conversion available" and fall back to a default form, so
// implementations must never panic.
type TypeConverter interface {
	ToString(v any) (string, error)
	ToBool(v any) (bool, error)
	ToInt(v any) (int, error)
}

// CastConverter is the default TypeConverter, backed by spf13/cast for scalar
// values. Reader backed values are drained; the caller is responsible for
// resetting any stream cache it handed in.
type CastConverter struct{}

// NewCastConverter creates the default converter.
func NewCastConverter() *CastConverter {
	return &CastConverter{}
}

// ToString converts v to its textual form. Byte slices and readers yield
// their content, everything else goes through cast.
func (c *CastConverter) ToString(v any) (string, error) {
	switch t := v.(type) {
	case nil:
		return "", nil
	case string:
		return t, nil
	case []byte:
		return string(t), nil
	case io.Reader:
		b, err := io.ReadAll(t)
		if err != nil {
			return "", fmt.Errorf("failed to read stream body: %w", err)
		}
		return string(b), nil
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return "", fmt.Errorf("no string conversion for %T: %w", v, err)
	}
	return s, nil
}

// ToBool converts v to a bool.
func (c *CastConverter) ToBool(v any) (bool, error) {
	b, err := cast.ToBoolE(v)
	if err != nil {
		return false, fmt.Errorf("no bool conversion for %T: %w", v, err)
	}
	return b, nil
}

// ToInt converts v to an int.
func (c *CastConverter) ToInt(v any) (int, error) {
	i, err := cast.ToIntE(v)
	if err != nil {
		return 0, fmt.Errorf("no int conversion for %T: %w", v, err)
	}
	return i, nil
}
