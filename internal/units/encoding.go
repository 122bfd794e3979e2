package units

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

type quantityFields struct {
	Value float64 `json:"value" yaml:"value"`
	Unit  string  `json:"unit" yaml:"unit"`
}

// MarshalYAML writes "2000 K"; dimensionless values are written as
// plain numbers.
func (q Quantity) MarshalYAML() (interface{}, error) {
	if q.Unit.Dimension == Dimensionless {
		return q.Value, nil
	}
	return q.String(), nil
}

// UnmarshalYAML accepts a bare number, a "value unit" string or a
// {value, unit} mapping. Bare numbers decode as dimensionless.
func (q *Quantity) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		if node.Tag == "!!int" || node.Tag == "!!float" {
			var v float64
			if err := node.Decode(&v); err != nil {
				return err
			}
			*q = Quantity{Value: v, Unit: One}
			return nil
		}
		parsed, err := Parse(node.Value)
		if err != nil {
			return fmt.Errorf("line %d: %w", node.Line, err)
		}
		*q = parsed
		return nil
	case yaml.MappingNode:
		var f quantityFields
		if err := node.Decode(&f); err != nil {
			return err
		}
		u, err := Lookup(f.Unit)
		if err != nil {
			return fmt.Errorf("line %d: %w", node.Line, err)
		}
		*q = Quantity{Value: f.Value, Unit: u}
		return nil
	default:
		return fmt.Errorf("line %d: %w: expected scalar or mapping", node.Line, ErrMalformed)
	}
}

func (q Quantity) MarshalJSON() ([]byte, error) {
	return json.Marshal(quantityFields{Value: q.Value, Unit: q.Unit.Symbol})
}

func (q *Quantity) UnmarshalJSON(data []byte) error {
	var v float64
	if err := json.Unmarshal(data, &v); err == nil {
		*q = Quantity{Value: v, Unit: One}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		parsed, err := Parse(s)
		if err != nil {
			return err
		}
		*q = parsed
		return nil
	}
	var f quantityFields
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("%w: %s", ErrMalformed, data)
	}
	u, err := Lookup(f.Unit)
	if err != nil {
		return err
	}
	*q = Quantity{Value: f.Value, Unit: u}
	return nil
}
