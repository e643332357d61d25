package signature

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Fields is an insertion-ordered set of key/value pairs that serializes to a
// compact JSON object. Sender and verifier must build the same key order to
// produce byte-identical payloads; the serialized form is the signing
// contract, so the order fields are added in is part of that contract.
type Fields struct {
	pairs []fieldPair
}

type fieldPair struct {
	key   string
	value any
}

func NewFields() *Fields {
	return &Fields{}
}

// Set appends the key or, when the key is already present, replaces its value
// in place without changing its position.
func (f *Fields) Set(key string, value any) *Fields {
	if f == nil {
		return nil
	}
	for i := range f.pairs {
		if f.pairs[i].key == key {
			f.pairs[i].value = value
			return f
		}
	}
	f.pairs = append(f.pairs, fieldPair{key: key, value: value})
	return f
}

func (f *Fields) Len() int {
	if f == nil {
		return 0
	}
	return len(f.pairs)
}

// Keys returns the keys in serialization order.
func (f *Fields) Keys() []string {
	if f == nil {
		return []string{}
	}
	keys := make([]string, 0, len(f.pairs))
	for _, pair := range f.pairs {
		keys = append(keys, pair.key)
	}
	return keys
}

// Serialize encodes the fields as a JSON object with no inserted whitespace.
// Supported values are strings, booleans, integer and float numbers, string
// slices, and nested *Fields. An empty Fields serializes to "{}".
func (f *Fields) Serialize() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	if f != nil {
		for i, pair := range f.pairs {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := encodeJSON(&buf, pair.key); err != nil {
				return nil, fmt.Errorf("signature: encode key %q: %w", pair.key, err)
			}
			buf.WriteByte(':')
			if err := encodeValue(&buf, pair.key, pair.value); err != nil {
				return nil, err
			}
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func encodeValue(buf *bytes.Buffer, key string, value any) error {
	switch typed := value.(type) {
	case nil:
		buf.WriteString("null")
		return nil
	case *Fields:
		nested, err := typed.Serialize()
		if err != nil {
			return err
		}
		buf.Write(nested)
		return nil
	case string, bool,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64,
		json.Number,
		[]string:
		if err := encodeJSON(buf, typed); err != nil {
			return fmt.Errorf("signature: encode value for key %q: %w", key, err)
		}
		return nil
	default:
		return fmt.Errorf("signature: unsupported value type %T for key %q", value, key)
	}
}

// encodeJSON writes value without HTML escaping. The sender serializes with
// JavaScript's JSON.stringify, which leaves &, <, and > as-is; escaping them
// here would change the signed bytes and break digest verification.
func encodeJSON(buf *bytes.Buffer, value any) error {
	encoder := json.NewEncoder(buf)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(value); err != nil {
		return err
	}
	// Encode appends a newline that is not part of the payload.
	buf.Truncate(buf.Len() - 1)
	return nil
}

// FieldsFromPairs builds Fields from alternating key/value arguments. It
// exists so callers can state the wire order in one expression.
func FieldsFromPairs(pairs ...any) (*Fields, error) {
	if len(pairs)%2 != 0 {
		return nil, fmt.Errorf("signature: pairs must be key/value alternating, got %d items", len(pairs))
	}
	fields := NewFields()
	for i := 0; i < len(pairs); i += 2 {
		key, ok := pairs[i].(string)
		if !ok {
			return nil, fmt.Errorf("signature: pair key at index %d is %T, want string", i, pairs[i])
		}
		if strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("signature: pair key at index %d is empty", i)
		}
		fields.Set(key, pairs[i+1])
	}
	return fields, nil
}
