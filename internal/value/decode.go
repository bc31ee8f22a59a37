package value

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/tidwall/pretty"
)

// Struct types that reference data by URL.
const (
	TypeFile      = "File"
	TypeDirectory = "Directory"
)

var (
	// ErrMalformedValue means a value lacks a field its variant or struct type requires.
	ErrMalformedValue = errors.New("malformed value")
	// ErrUnknownVariant means the `v` tag is outside the known set.
	ErrUnknownVariant = errors.New("unknown variant")
)

// Decode reduces a tagged value to its display string. It never fails:
// malformed values and unknown variants render as a structural dump of their
// content.
func Decode(v Value) string {
	out, err := DecodeStrict(v)
	if err != nil {
		return Dump(v)
	}
	return out
}

// DecodeStrict is Decode without the fallback. It reports ErrMalformedValue
// or ErrUnknownVariant (possibly wrapped) where Decode would fall back.
func DecodeStrict(v Value) (string, error) {
	switch c := v.Content.(type) {
	case Boolean:
		return strconv.FormatBool(bool(c)), nil
	case Integer:
		return strconv.FormatInt(int64(c), 10), nil
	case Real:
		return formatReal(float64(c)), nil
	case Unicode:
		return string(c), nil
	case *Struct:
		return decodeStruct(c)
	default:
		switch {
		case v.Variant.Primitive(), v.Variant == VariantStruct:
			return "", fmt.Errorf("%w: %s content does not match its variant", ErrMalformedValue, v.Variant)
		case !v.Variant.Known():
			return "", fmt.Errorf("%w: %q", ErrUnknownVariant, string(v.Variant))
		}
		return dumpContent(v.Content), nil
	}
}

// formatReal prints the shortest round-trip form. Magnitudes in
// [1e-6, 1e21) use plain notation; outside that range the exponent has no
// leading zeros ("1e-7", "1.5e+21").
func formatReal(f float64) string {
	if f == 0 {
		return "0"
	}
	if abs := math.Abs(f); abs >= 1e-6 && abs < 1e21 {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	out := strconv.FormatFloat(f, 'e', -1, 64)
	mant, exp, ok := strings.Cut(out, "e")
	if !ok {
		return out
	}
	sign := exp[:1]
	digits := strings.TrimLeft(exp[1:], "0")
	if digits == "" {
		digits = "0"
	}
	return mant + "e" + sign + digits
}

func decodeStruct(s *Struct) (string, error) {
	switch s.Type {
	case TypeFile, TypeDirectory:
		url, ok := s.Properties["url"]
		if !ok {
			return "", fmt.Errorf("%w: %s without properties.url", ErrMalformedValue, s.Type)
		}
		out, err := DecodeStrict(url)
		if err != nil {
			return "", fmt.Errorf("%s.url: %w", s.Type, err)
		}
		return out, nil
	default:
		return dumpContent(s), nil
	}
}

// Dump renders the content of v as single-line JSON. It is the one fallback
// shape used for unknown struct types, unknown variants and malformed values.
func Dump(v Value) string {
	return dumpContent(v.Content)
}

func dumpContent(c Content) string {
	switch c := c.(type) {
	case Opaque:
		if len(c) == 0 {
			return "null"
		}
		return string(bytes.TrimSpace(pretty.Ugly(c)))
	case nil:
		return "null"
	default:
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		if err := enc.Encode(c); err != nil {
			return fmt.Sprintf("%v", c)
		}
		return string(bytes.TrimSpace(buf.Bytes()))
	}
}
