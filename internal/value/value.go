package value

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
)

// Variant is the `v` tag of a tagged value. The set is open: producers may
// send tags this package has never heard of.
type Variant string

const (
	VariantBoolean     Variant = "boolean"
	VariantInteger     Variant = "integer"
	VariantReal        Variant = "real"
	VariantUnicode     Variant = "unicode"
	VariantStruct      Variant = "struct"
	VariantArray       Variant = "array"
	VariantUnit        Variant = "unit"
	VariantPointer     Variant = "pointer"
	VariantClass       Variant = "class"
	VariantFunction    Variant = "function"
	VariantFunctionExt Variant = "functionExt"
)

// Known reports whether the variant belongs to the set produced by the Brane VM.
func (v Variant) Known() bool {
	switch v {
	case VariantBoolean, VariantInteger, VariantReal, VariantUnicode,
		VariantStruct, VariantArray, VariantUnit, VariantPointer,
		VariantClass, VariantFunction, VariantFunctionExt:
		return true
	default:
		return false
	}
}

// Primitive reports whether the content of this variant is a bare scalar.
func (v Variant) Primitive() bool {
	switch v {
	case VariantBoolean, VariantInteger, VariantReal, VariantUnicode:
		return true
	default:
		return false
	}
}

// Content is the `c` payload. The concrete type is one of Boolean, Integer,
// Real, Unicode, *Struct or Opaque; anything that cannot be interpreted is
// kept as Opaque.
type Content interface {
	isContent()
}

type (
	Boolean bool
	Integer int64
	Real    float64
	Unicode string
	// Opaque holds content verbatim. A nil Opaque means `c` was absent.
	Opaque json.RawMessage
)

// Struct is the content of a struct variant.
type Struct struct {
	Type       string           `json:"type"`
	Properties map[string]Value `json:"properties"`
}

func (Boolean) isContent() {}
func (Integer) isContent() {}
func (Real) isContent()    {}
func (Unicode) isContent() {}
func (*Struct) isContent() {}
func (Opaque) isContent()  {}

// Value is a tagged value: `{"v": <variant>, "c": <content>}`.
type Value struct {
	Variant Variant
	Content Content
}

func NewBoolean(b bool) Value   { return Value{Variant: VariantBoolean, Content: Boolean(b)} }
func NewInteger(i int64) Value  { return Value{Variant: VariantInteger, Content: Integer(i)} }
func NewReal(f float64) Value   { return Value{Variant: VariantReal, Content: Real(f)} }
func NewUnicode(s string) Value { return Value{Variant: VariantUnicode, Content: Unicode(s)} }
func NewUnit() Value            { return Value{Variant: VariantUnit} }

// NewStruct builds a struct value of the given type.
func NewStruct(typ string, properties map[string]Value) Value {
	if properties == nil {
		properties = map[string]Value{}
	}
	return Value{Variant: VariantStruct, Content: &Struct{Type: typ, Properties: properties}}
}

// NewFile builds the File struct Brane uses for data references.
func NewFile(url string) Value {
	return NewStruct(TypeFile, map[string]Value{"url": NewUnicode(url)})
}

type envelope struct {
	V Variant         `json:"v"`
	C json.RawMessage `json:"c,omitempty"`
}

var errNotObject = errors.New("tagged value must be a JSON object")

// UnmarshalJSON decodes the v/c envelope. Content that does not match the
// shape its variant implies is kept as Opaque instead of failing, so that a
// single odd field never rejects the surrounding record.
func (v *Value) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return errNotObject
	}
	var env envelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return err
	}
	v.Variant = env.V
	v.Content = parseContent(env.V, env.C)
	return nil
}

func parseContent(variant Variant, raw json.RawMessage) Content {
	if len(raw) == 0 {
		return Opaque(nil)
	}
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return Opaque(append([]byte(nil), raw...))
	}
	switch variant {
	case VariantBoolean:
		var b bool
		if json.Unmarshal(raw, &b) == nil {
			return Boolean(b)
		}
	case VariantInteger:
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.UseNumber()
		var x any
		if dec.Decode(&x) == nil {
			if n, ok := x.(json.Number); ok {
				if i, err := strconv.ParseInt(n.String(), 10, 64); err == nil {
					return Integer(i)
				}
			}
		}
	case VariantReal:
		var f float64
		if json.Unmarshal(raw, &f) == nil {
			return Real(f)
		}
	case VariantUnicode:
		var s string
		if json.Unmarshal(raw, &s) == nil {
			return Unicode(s)
		}
	case VariantStruct:
		var st Struct
		if json.Unmarshal(raw, &st) == nil && st.Type != "" {
			if st.Properties == nil {
				st.Properties = map[string]Value{}
			}
			return &st
		}
	}
	return Opaque(append([]byte(nil), raw...))
}

// MarshalJSON writes the value back in its v/c wire form.
func (v Value) MarshalJSON() ([]byte, error) {
	env := envelope{V: v.Variant}
	raw, err := marshalContent(v.Content)
	if err != nil {
		return nil, err
	}
	env.C = raw
	return json.Marshal(env)
}

func marshalContent(c Content) (json.RawMessage, error) {
	switch c := c.(type) {
	case nil:
		return nil, nil
	case Opaque:
		if len(c) == 0 {
			return nil, nil
		}
		return json.RawMessage(c), nil
	default:
		return json.Marshal(c)
	}
}
