package codec

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/tecsim/internal/tec"
)

// YAMLCodec writes quantities as "value unit" strings.
type YAMLCodec struct{}

func NewYAMLCodec() *YAMLCodec {
	return &YAMLCodec{}
}

func (c *YAMLCodec) Format() string {
	return "yaml"
}

func (c *YAMLCodec) Parse(r io.Reader) (*tec.DeviceFields, error) {
	var f tec.DeviceFields
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return &f, nil
}

func (c *YAMLCodec) Export(fields *tec.DeviceFields, w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(fields); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}
	return enc.Close()
}
