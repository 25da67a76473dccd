package registry

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	// Separator separates the components of a registry path
	Separator = `\`
	// KeySeparator separates the components of a canonical key
	KeySeparator = "/"
	// ValuePrefix prefixes the physical keys of value records
	ValuePrefix = "REG_VALUES"
	// SecDescPrefix prefixes the physical keys of security
	// descriptor records
	SecDescPrefix = "REG_SECDESC"
	// InfoPrefix prefixes bookkeeping records
	InfoPrefix = "INFO"
	// VersionKey holds the schema version of the store
	VersionKey = InfoPrefix + KeySeparator + "version"
	// NameCapacity is the fixed capacity of a name field in a
	// record, including the terminating NUL
	NameCapacity = 256
)

var reservedRoots = map[string]bool{
	ValuePrefix:   true,
	SecDescPrefix: true,
	InfoPrefix:    true,
}

// Fold returns the case-folded form of a path component used
// for comparisons and physical keys
func Fold(name string) string {
	// A Caser holds state and must not be shared between goroutines
	return cases.Upper(language.Und).String(name)
}

// Split breaks path into its components. Both '\' and '/' are
// accepted as separators and leading or trailing separators are
// ignored. It returns ErrInvalidArgument for an empty path or a path
// with an empty component.
func Split(path string) ([]string, error) {
	trimmed := strings.Trim(strings.ReplaceAll(path, Separator, KeySeparator), KeySeparator)

	if trimmed == "" {
		return nil, fmt.Errorf("empty path %q: %w", path, ErrInvalidArgument)
	}

	components := strings.Split(trimmed, KeySeparator)

	for _, component := range components {
		if component == "" {
			return nil, fmt.Errorf("path %q has an empty component: %w", path, ErrInvalidArgument)
		}
	}

	return components, nil
}

// Canonicalize normalizes path into the physical key of its
// subkey record. Paths that differ only by case or separator
// style produce the same key, and Canonicalize(Canonicalize(p))
// equals Canonicalize(p).
func Canonicalize(path string) (string, error) {
	components, err := Split(path)

	if err != nil {
		return "", err
	}

	for i, component := range components {
		components[i] = Fold(component)
	}

	if reservedRoots[components[0]] {
		return "", fmt.Errorf("path %q uses the reserved root %s: %w", path, components[0], ErrInvalidArgument)
	}

	return strings.Join(components, KeySeparator), nil
}

// ValueKey returns the physical key of the value record for path
func ValueKey(path string) (string, error) {
	return prefixed(ValuePrefix, path)
}

// SecDescKey returns the physical key of the security
// descriptor record for path
func SecDescKey(path string) (string, error) {
	return prefixed(SecDescPrefix, path)
}

func prefixed(prefix string, path string) (string, error) {
	key, err := Canonicalize(path)

	if err != nil {
		return "", err
	}

	return prefix + KeySeparator + key, nil
}

// Join appends child to parent
func Join(parent string, child string) string {
	return strings.TrimRight(parent, `\/`) + Separator + child
}

// Parent splits path into its parent path and leaf name.
// A root key such as HKLM has no parent and returns ErrInvalidArgument.
func Parent(path string) (string, string, error) {
	components, err := Split(path)

	if err != nil {
		return "", "", err
	}

	if len(components) == 1 {
		return "", "", fmt.Errorf("root key %q has no parent: %w", path, ErrInvalidArgument)
	}

	return strings.Join(components[:len(components)-1], Separator), components[len(components)-1], nil
}

// ValidateName checks that name can be used as a subkey name:
// it must be non-empty, must not contain a separator or NUL and
// must fit a name field.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("empty key name: %w", ErrInvalidArgument)
	}

	if strings.ContainsAny(name, `\/`+"\x00") {
		return fmt.Errorf("key name %q contains a separator or NUL: %w", name, ErrInvalidArgument)
	}

	if len(name) >= NameCapacity {
		return fmt.Errorf("key name %q is longer than %d bytes: %w", name, NameCapacity-1, ErrInvalidArgument)
	}

	return nil
}
