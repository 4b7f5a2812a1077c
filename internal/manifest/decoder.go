package manifest

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

// Format is the encoding of raw manifest bytes.
type Format int

const (
	FormatUnknown Format = iota
	FormatBinaryXML
	FormatTextXML
	FormatTree
)

func (f Format) String() string {
	switch f {
	case FormatBinaryXML:
		return "binary-xml"
	case FormatTextXML:
		return "text-xml"
	case FormatTree:
		return "json-tree"
	default:
		return "unknown"
	}
}

// ParseFormat maps a config name to a Format.
func ParseFormat(s string) (Format, error) {
	for _, f := range []Format{FormatBinaryXML, FormatTextXML, FormatTree} {
		if f.String() == s {
			return f, nil
		}
	}
	return FormatUnknown, fmt.Errorf("unknown manifest format %q", s)
}

// DetectFormat sniffs the encoding from the leading bytes.
func DetectFormat(raw []byte) Format {
	if len(raw) >= 4 && binary.LittleEndian.Uint16(raw) == 0x0003 {
		return FormatBinaryXML
	}
	trimmed := bytes.TrimPrefix(raw, []byte("\xef\xbb\xbf"))
	trimmed = bytes.TrimLeft(trimmed, " \t\r\n")
	if len(trimmed) == 0 {
		return FormatUnknown
	}
	switch trimmed[0] {
	case '<':
		return FormatTextXML
	case '{':
		return FormatTree
	}
	return FormatUnknown
}

// ErrUnsupported matches any UnsupportedError via errors.Is.
var ErrUnsupported = errors.New("manifest decoding unsupported")

// UnsupportedError reports that no usable provider exists for a format.
// It means the environment cannot decode, not that the bytes are bad.
type UnsupportedError struct {
	Format   Format
	Provider string
}

func (e *UnsupportedError) Error() string {
	if e.Provider != "" {
		return fmt.Sprintf("%s decoding unsupported: provider %s unavailable", e.Format, e.Provider)
	}
	return fmt.Sprintf("%s decoding unsupported: no provider configured", e.Format)
}

func (e *UnsupportedError) Is(target error) bool {
	return target == ErrUnsupported
}

// DecodeError reports bytes that could not be parsed as a manifest.
type DecodeError struct {
	Format Format
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s manifest: %v", e.Format, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Provider decodes one manifest encoding.
type Provider interface {
	Name() string
	Format() Format
	// Supported reports whether this provider can run here.
	Supported() bool
	Decode(raw []byte) (*Manifest, error)
}

// Decoder dispatches raw manifest bytes to the provider for their format.
// The provider set is fixed at construction.
type Decoder struct {
	providers map[Format]Provider
}

// NewDecoder returns a decoder backed by providers. A later provider for
// the same format replaces an earlier one.
func NewDecoder(providers ...Provider) *Decoder {
	d := &Decoder{providers: make(map[Format]Provider)}
	for _, p := range providers {
		d.providers[p.Format()] = p
	}
	return d
}

// DefaultProviders returns every built-in provider.
func DefaultProviders() []Provider {
	return []Provider{BinaryXMLProvider{}, TextXMLProvider{}, TreeProvider{}}
}

// ProvidersFor returns the built-in providers for the named formats.
func ProvidersFor(names []string) ([]Provider, error) {
	byFormat := make(map[Format]Provider)
	for _, p := range DefaultProviders() {
		byFormat[p.Format()] = p
	}
	var out []Provider
	for _, n := range names {
		f, err := ParseFormat(n)
		if err != nil {
			return nil, err
		}
		out = append(out, byFormat[f])
	}
	return out, nil
}

// Supported reports whether a usable provider exists for f.
func (d *Decoder) Supported(f Format) bool {
	p, ok := d.providers[f]
	return ok && p.Supported()
}

// Decode parses raw into a Manifest. It returns *DecodeError for empty,
// unrecognized or corrupt input and *UnsupportedError when the format is
// recognized but no supported provider handles it.
func (d *Decoder) Decode(raw []byte) (*Manifest, error) {
	if len(raw) == 0 {
		return nil, &DecodeError{Format: FormatUnknown, Err: errors.New("empty manifest")}
	}

	format := DetectFormat(raw)
	if format == FormatUnknown {
		return nil, &DecodeError{Format: format, Err: errors.New("unrecognized encoding")}
	}

	p, ok := d.providers[format]
	if !ok {
		return nil, &UnsupportedError{Format: format}
	}
	if !p.Supported() {
		return nil, &UnsupportedError{Format: format, Provider: p.Name()}
	}

	m, err := p.Decode(raw)
	if err != nil {
		var de *DecodeError
		if errors.As(err, &de) || errors.Is(err, ErrUnsupported) {
			return nil, err
		}
		return nil, &DecodeError{Format: format, Err: err}
	}
	m.normalize()
	return m, nil
}
