package registry

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Record layout. All integers are little-endian uint32.
//
//	subkey record: count, count * name
//	value record:  count, count * (name, type, length, length bytes)
//
// A name is NUL terminated and occupies at most NameCapacity bytes
// including the terminator.

// PackSubkeys encodes an ordered list of child names
func PackSubkeys(names []string) ([]byte, error) {
	size := 4

	for _, name := range names {
		if err := ValidateName(name); err != nil {
			return nil, err
		}

		size += len(name) + 1
	}

	buf := make([]byte, 0, size)
	buf = appendUint32(buf, uint32(len(names)))

	for _, name := range names {
		buf = appendName(buf, name)
	}

	return buf, nil
}

// UnpackSubkeys decodes a subkey record. It fails with ErrCorrupt
// instead of returning a truncated list.
func UnpackSubkeys(buf []byte) ([]string, error) {
	d := decoder{buf: buf}
	count, err := d.uint32()

	if err != nil {
		return nil, err
	}

	// every name takes at least two bytes
	if uint64(count)*2 > uint64(d.remaining()) {
		return nil, d.corrupt("%d subkeys cannot fit in %d bytes", count, d.remaining())
	}

	names := make([]string, 0, count)

	for i := uint32(0); i < count; i++ {
		name, err := d.name()

		if err != nil {
			return nil, err
		}

		names = append(names, name)
	}

	if err := d.end(); err != nil {
		return nil, err
	}

	return names, nil
}

// PackValues encodes a list of values
func PackValues(values []Value) ([]byte, error) {
	size := 4

	for _, value := range values {
		if err := validateValueName(value.Name); err != nil {
			return nil, err
		}

		size += len(value.Name) + 1 + 8 + len(value.Data)
	}

	buf := make([]byte, 0, size)
	buf = appendUint32(buf, uint32(len(values)))

	for _, value := range values {
		buf = appendName(buf, value.Name)
		buf = appendUint32(buf, uint32(value.Type))
		buf = appendUint32(buf, uint32(len(value.Data)))
		buf = append(buf, value.Data...)
	}

	return buf, nil
}

// UnpackValues decodes a value record. It fails with ErrCorrupt
// if any length would read past the end of buf.
func UnpackValues(buf []byte) ([]Value, error) {
	d := decoder{buf: buf}
	count, err := d.uint32()

	if err != nil {
		return nil, err
	}

	// every value takes at least nine bytes
	if uint64(count)*9 > uint64(d.remaining()) {
		return nil, d.corrupt("%d values cannot fit in %d bytes", count, d.remaining())
	}

	values := make([]Value, 0, count)

	for i := uint32(0); i < count; i++ {
		var value Value

		if value.Name, err = d.name(); err != nil {
			return nil, err
		}

		valueType, err := d.uint32()

		if err != nil {
			return nil, err
		}

		value.Type = ValueType(valueType)

		if value.Data, err = d.bytes(); err != nil {
			return nil, err
		}

		values = append(values, value)
	}

	if err := d.end(); err != nil {
		return nil, err
	}

	return values, nil
}

// PackVersion encodes the schema version record
func PackVersion(version uint32) []byte {
	return appendUint32(nil, version)
}

// UnpackVersion decodes the schema version record
func UnpackVersion(buf []byte) (uint32, error) {
	if len(buf) != 4 {
		return 0, fmt.Errorf("version record has %d bytes: %w", len(buf), ErrCorrupt)
	}

	return binary.LittleEndian.Uint32(buf), nil
}

func validateValueName(name string) error {
	if len(name) >= NameCapacity {
		return fmt.Errorf("value name %q is longer than %d bytes: %w", name, NameCapacity-1, ErrInvalidArgument)
	}

	if bytes.IndexByte([]byte(name), 0) >= 0 {
		return fmt.Errorf("value name %q contains NUL: %w", name, ErrInvalidArgument)
	}

	return nil
}

func appendUint32(buf []byte, n uint32) []byte {
	var b [4]byte

	binary.LittleEndian.PutUint32(b[:], n)

	return append(buf, b[:]...)
}

func appendName(buf []byte, name string) []byte {
	buf = append(buf, name...)

	return append(buf, 0)
}

type decoder struct {
	buf []byte
	off int
}

func (d *decoder) remaining() int {
	return len(d.buf) - d.off
}

func (d *decoder) corrupt(format string, args ...interface{}) error {
	return fmt.Errorf("offset %d: %s: %w", d.off, fmt.Sprintf(format, args...), ErrCorrupt)
}

func (d *decoder) uint32() (uint32, error) {
	if d.remaining() < 4 {
		return 0, d.corrupt("need 4 bytes, have %d", d.remaining())
	}

	n := binary.LittleEndian.Uint32(d.buf[d.off:])
	d.off += 4

	return n, nil
}

func (d *decoder) name() (string, error) {
	field := d.buf[d.off:]

	if len(field) > NameCapacity {
		field = field[:NameCapacity]
	}

	end := bytes.IndexByte(field, 0)

	if end < 0 {
		return "", d.corrupt("unterminated name")
	}

	name := string(field[:end])
	d.off += end + 1

	return name, nil
}

func (d *decoder) bytes() ([]byte, error) {
	length, err := d.uint32()

	if err != nil {
		return nil, err
	}

	if uint64(length) > uint64(d.remaining()) {
		return nil, d.corrupt("length %d exceeds the %d bytes left", length, d.remaining())
	}

	data := make([]byte, length)
	copy(data, d.buf[d.off:])
	d.off += int(length)

	return data, nil
}

func (d *decoder) end() error {
	if d.remaining() != 0 {
		return d.corrupt("%d trailing bytes", d.remaining())
	}

	return nil
}
