package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// DimensionUnit tells whether a dimension is absolute or relative to the container.
type DimensionUnit string

const (
	UnitPixels  DimensionUnit = "px"
	UnitPercent DimensionUnit = "%"
)

const maxPercent = 100

// Dimension is a width or height. A nil *Dimension means "fill the container".
type Dimension struct {
	Value int           `json:"value"`
	Unit  DimensionUnit `json:"unit"`
}

// Pixels returns an absolute dimension.
func Pixels(n int) Dimension {
	return Dimension{Value: n, Unit: UnitPixels}
}

// Percent returns a dimension relative to the container width.
func Percent(n int) Dimension {
	return Dimension{Value: n, Unit: UnitPercent}
}

// Validate reports ErrInvalidDimension for zero, negative or out of range values.
func (d Dimension) Validate() error {
	switch d.Unit {
	case UnitPixels:
		if d.Value <= 0 {
			return fmt.Errorf("%w: pixel value must be positive, got %d", ErrInvalidDimension, d.Value)
		}
	case UnitPercent:
		if d.Value <= 0 || d.Value > maxPercent {
			return fmt.Errorf("%w: percentage must be within 1..100, got %d", ErrInvalidDimension, d.Value)
		}
	default:
		return fmt.Errorf("%w: unknown unit %q", ErrInvalidDimension, d.Unit)
	}
	return nil
}

// IsRelative reports whether the dimension is a percentage of the container.
func (d Dimension) IsRelative() bool {
	return d.Unit == UnitPercent
}

// Resolve converts the dimension to pixels against the given container size.
func (d Dimension) Resolve(container int) int {
	if d.Unit == UnitPercent {
		return container * d.Value / maxPercent
	}
	return d.Value
}

func (d Dimension) String() string {
	if d.Unit == UnitPercent {
		return strconv.Itoa(d.Value) + "%"
	}
	return strconv.Itoa(d.Value) + "px"
}

// ParseDimension accepts "800", "800px" and "50%".
// An empty string is rejected, absence must be expressed with a nil pointer.
func ParseDimension(s string) (Dimension, error) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return Dimension{}, fmt.Errorf("%w: empty value", ErrInvalidDimension)
	}

	unit := UnitPixels
	switch {
	case strings.HasSuffix(raw, "%"):
		unit = UnitPercent
		raw = strings.TrimSpace(strings.TrimSuffix(raw, "%"))
	case strings.HasSuffix(strings.ToLower(raw), "px"):
		raw = strings.TrimSpace(raw[:len(raw)-2])
	}

	n, err := strconv.Atoi(raw)
	if err != nil {
		return Dimension{}, fmt.Errorf("%w: %q is not a number", ErrInvalidDimension, s)
	}

	d := Dimension{Value: n, Unit: unit}
	if err := d.Validate(); err != nil {
		return Dimension{}, err
	}
	return d, nil
}

// MarshalJSON writes pixels as a bare number and percentages as "50%".
func (d Dimension) MarshalJSON() ([]byte, error) {
	if d.Unit == UnitPercent {
		return json.Marshal(d.String())
	}
	return json.Marshal(d.Value)
}

// UnmarshalJSON accepts a number of pixels or a string understood by ParseDimension.
// JSON null never reaches this method for *Dimension fields, which stay nil.
func (d *Dimension) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return fmt.Errorf("%w: empty value", ErrInvalidDimension)
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidDimension, err)
		}
		parsed, err := ParseDimension(s)
		if err != nil {
			return err
		}
		*d = parsed
		return nil
	}

	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("%w: %s is not an integer", ErrInvalidDimension, string(data))
	}
	parsed := Pixels(n)
	if err := parsed.Validate(); err != nil {
		return err
	}
	*d = parsed
	return nil
}

// DimensionPtr is a convenience for optional fields.
func DimensionPtr(d Dimension) *Dimension {
	return &d
}
