package registry

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
)

// ValueType enumerates Windows registry value types
type ValueType uint32

const (
	REG_NONE                       ValueType = 0
	REG_SZ                         ValueType = 1
	REG_EXPAND_SZ                  ValueType = 2
	REG_BINARY                     ValueType = 3
	REG_DWORD                      ValueType = 4
	REG_DWORD_BIG_ENDIAN           ValueType = 5
	REG_LINK                       ValueType = 6
	REG_MULTI_SZ                   ValueType = 7
	REG_RESOURCE_LIST              ValueType = 8
	REG_FULL_RESOURCE_DESCRIPTOR   ValueType = 9
	REG_RESOURCE_REQUIREMENTS_LIST ValueType = 10
	REG_QWORD                      ValueType = 11
)

var valueTypeNames = map[ValueType]string{
	REG_NONE:                       "REG_NONE",
	REG_SZ:                         "REG_SZ",
	REG_EXPAND_SZ:                  "REG_EXPAND_SZ",
	REG_BINARY:                     "REG_BINARY",
	REG_DWORD:                      "REG_DWORD",
	REG_DWORD_BIG_ENDIAN:           "REG_DWORD_BIG_ENDIAN",
	REG_LINK:                       "REG_LINK",
	REG_MULTI_SZ:                   "REG_MULTI_SZ",
	REG_RESOURCE_LIST:              "REG_RESOURCE_LIST",
	REG_FULL_RESOURCE_DESCRIPTOR:   "REG_FULL_RESOURCE_DESCRIPTOR",
	REG_RESOURCE_REQUIREMENTS_LIST: "REG_RESOURCE_REQUIREMENTS_LIST",
	REG_QWORD:                      "REG_QWORD",
}

// String implements fmt.Stringer
func (t ValueType) String() string {
	if name, ok := valueTypeNames[t]; ok {
		return name
	}

	return fmt.Sprintf("REG_UNKNOWN(%d)", uint32(t))
}

// ParseValueType parses a type name such as "REG_SZ", "sz" or "dword"
func ParseValueType(s string) (ValueType, error) {
	name := strings.ToUpper(strings.TrimSpace(s))

	if !strings.HasPrefix(name, "REG_") {
		name = "REG_" + name
	}

	for t, n := range valueTypeNames {
		if n == name {
			return t, nil
		}
	}

	return REG_NONE, fmt.Errorf("unknown value type %q: %w", s, ErrInvalidArgument)
}

// Value is a named, typed datum attached to a key. Data holds
// the raw bytes exactly as stored.
type Value struct {
	Name string
	Type ValueType
	Data []byte
}

func utf16le() encoding.Encoding {
	return unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)
}

func encodeUTF16(s string) ([]byte, error) {
	encoded, err := utf16le().NewEncoder().String(s)

	if err != nil {
		return nil, fmt.Errorf("could not encode %q as UTF-16: %s: %w", s, err, ErrInvalidArgument)
	}

	return []byte(encoded), nil
}

func decodeUTF16(data []byte) (string, error) {
	if len(data)%2 != 0 {
		return "", fmt.Errorf("UTF-16 data has odd length %d: %w", len(data), ErrCorrupt)
	}

	decoded, err := utf16le().NewDecoder().Bytes(data)

	if err != nil {
		return "", fmt.Errorf("could not decode UTF-16 data: %s: %w", err, ErrCorrupt)
	}

	return string(decoded), nil
}

// StringValue builds a REG_SZ value stored as NUL terminated UTF-16LE
func StringValue(name string, s string) (Value, error) {
	return stringValue(name, REG_SZ, s)
}

// ExpandStringValue builds a REG_EXPAND_SZ value
func ExpandStringValue(name string, s string) (Value, error) {
	return stringValue(name, REG_EXPAND_SZ, s)
}

func stringValue(name string, t ValueType, s string) (Value, error) {
	if strings.IndexByte(s, 0) >= 0 {
		return Value{}, fmt.Errorf("string data for %q contains NUL: %w", name, ErrInvalidArgument)
	}

	data, err := encodeUTF16(s + "\x00")

	if err != nil {
		return Value{}, err
	}

	return Value{Name: name, Type: t, Data: data}, nil
}

// MultiStringValue builds a REG_MULTI_SZ value: every string is
// NUL terminated and the list ends with an extra NUL
func MultiStringValue(name string, strs []string) (Value, error) {
	var b strings.Builder

	for _, s := range strs {
		if strings.IndexByte(s, 0) >= 0 {
			return Value{}, fmt.Errorf("string data for %q contains NUL: %w", name, ErrInvalidArgument)
		}

		b.WriteString(s)
		b.WriteByte(0)
	}

	b.WriteByte(0)

	data, err := encodeUTF16(b.String())

	if err != nil {
		return Value{}, err
	}

	return Value{Name: name, Type: REG_MULTI_SZ, Data: data}, nil
}

// DwordValue builds a little-endian REG_DWORD value
func DwordValue(name string, n uint32) Value {
	data := make([]byte, 4)
	binary.LittleEndian.PutUint32(data, n)

	return Value{Name: name, Type: REG_DWORD, Data: data}
}

// QwordValue builds a little-endian REG_QWORD value
func QwordValue(name string, n uint64) Value {
	data := make([]byte, 8)
	binary.LittleEndian.PutUint64(data, n)

	return Value{Name: name, Type: REG_QWORD, Data: data}
}

// BinaryValue builds a REG_BINARY value
func BinaryValue(name string, data []byte) Value {
	return Value{Name: name, Type: REG_BINARY, Data: append([]byte{}, data...)}
}

// AsString decodes a REG_SZ, REG_EXPAND_SZ or REG_LINK value.
// Trailing NULs are dropped.
func (v Value) AsString() (string, error) {
	switch v.Type {
	case REG_SZ, REG_EXPAND_SZ, REG_LINK:
	default:
		return "", v.typeMismatch("a string")
	}

	s, err := decodeUTF16(v.Data)

	if err != nil {
		return "", err
	}

	return strings.TrimRight(s, "\x00"), nil
}

// AsStrings decodes a REG_MULTI_SZ value
func (v Value) AsStrings() ([]string, error) {
	if v.Type != REG_MULTI_SZ {
		return nil, v.typeMismatch("a string list")
	}

	s, err := decodeUTF16(v.Data)

	if err != nil {
		return nil, err
	}

	s = strings.TrimRight(s, "\x00")

	if s == "" {
		return []string{}, nil
	}

	return strings.Split(s, "\x00"), nil
}

// AsDword decodes a REG_DWORD or REG_DWORD_BIG_ENDIAN value
func (v Value) AsDword() (uint32, error) {
	if v.Type != REG_DWORD && v.Type != REG_DWORD_BIG_ENDIAN {
		return 0, v.typeMismatch("a dword")
	}

	if len(v.Data) != 4 {
		return 0, fmt.Errorf("dword %q has %d bytes: %w", v.Name, len(v.Data), ErrCorrupt)
	}

	if v.Type == REG_DWORD_BIG_ENDIAN {
		return binary.BigEndian.Uint32(v.Data), nil
	}

	return binary.LittleEndian.Uint32(v.Data), nil
}

// AsQword decodes a REG_QWORD value
func (v Value) AsQword() (uint64, error) {
	if v.Type != REG_QWORD {
		return 0, v.typeMismatch("a qword")
	}

	if len(v.Data) != 8 {
		return 0, fmt.Errorf("qword %q has %d bytes: %w", v.Name, len(v.Data), ErrCorrupt)
	}

	return binary.LittleEndian.Uint64(v.Data), nil
}

// Display renders the value as text the way configuration tools
// display it
func (v Value) Display() string {
	switch v.Type {
	case REG_DWORD, REG_DWORD_BIG_ENDIAN:
		if n, err := v.AsDword(); err == nil {
			return strconv.FormatUint(uint64(n), 10)
		}
	case REG_QWORD:
		if n, err := v.AsQword(); err == nil {
			return strconv.FormatUint(n, 10)
		}
	case REG_SZ, REG_EXPAND_SZ:
		if s, err := v.AsString(); err == nil {
			return s
		}
	case REG_MULTI_SZ:
		if strs, err := v.AsStrings(); err == nil {
			quoted := make([]string, len(strs))

			for i, s := range strs {
				quoted[i] = strconv.Quote(s)
			}

			return strings.Join(quoted, " ")
		}
	case REG_BINARY:
		return fmt.Sprintf("binary (%d bytes)", len(v.Data))
	}

	return "<unprintable>"
}

func (v Value) typeMismatch(want string) error {
	return fmt.Errorf("value %q of type %s is not %s: %w", v.Name, v.Type, want, ErrInvalidArgument)
}
