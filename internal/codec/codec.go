package codec

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/san-kum/tecsim/internal/tec"
)

var ErrUnknownFormat = errors.New("codec: unknown format")

// Importer reads device descriptions.
type Importer interface {
	Parse(r io.Reader) (*tec.DeviceFields, error)
	Format() string
}

// Exporter writes device descriptions.
type Exporter interface {
	Export(fields *tec.DeviceFields, w io.Writer) error
	Format() string
}

type Codec interface {
	Importer
	Exporter
}

var codecs = map[string]func() Codec{
	"json": func() Codec { return NewJSONCodec() },
	"yaml": func() Codec { return NewYAMLCodec() },
}

// ForFormat returns the codec for "json" or "yaml" ("yml" is accepted).
func ForFormat(name string) (Codec, error) {
	name = strings.ToLower(strings.TrimPrefix(name, "."))
	if name == "yml" {
		name = "yaml"
	}
	factory, ok := codecs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, name)
	}
	return factory(), nil
}

// ForPath picks the codec from the file extension.
func ForPath(path string) (Codec, error) {
	return ForFormat(filepath.Ext(path))
}

func Formats() []string {
	names := make([]string, 0, len(codecs))
	for name := range codecs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ReadDevice parses and validates a device.
func ReadDevice(imp Importer, r io.Reader, opts ...tec.Option) (*tec.Device, error) {
	f, err := imp.Parse(r)
	if err != nil {
		return nil, err
	}
	return tec.DeviceFromFields(*f, opts...)
}

func WriteDevice(exp Exporter, d *tec.Device, w io.Writer) error {
	f := d.Fields()
	return exp.Export(&f, w)
}
