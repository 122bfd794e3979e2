package codec

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/san-kum/tecsim/internal/tec"
)

// JSONCodec writes quantities as {"value", "unit"} objects.
type JSONCodec struct{}

func NewJSONCodec() *JSONCodec {
	return &JSONCodec{}
}

func (c *JSONCodec) Format() string {
	return "json"
}

func (c *JSONCodec) Parse(r io.Reader) (*tec.DeviceFields, error) {
	var f tec.DeviceFields
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}
	return &f, nil
}

func (c *JSONCodec) Export(fields *tec.DeviceFields, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(fields); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}
