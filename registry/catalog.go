package registry

import (
	"fmt"
)

// SubkeyCatalog is the ordered list of immediate child names of
// one key, stamped with the sequence number observed when it was
// fetched.
type SubkeyCatalog struct {
	Names []string
	Seq   uint64
}

// Len returns the number of subkeys
func (catalog *SubkeyCatalog) Len() int {
	return len(catalog.Names)
}

// Index returns the position of name compared case-insensitively,
// or -1
func (catalog *SubkeyCatalog) Index(name string) int {
	folded := Fold(name)

	for i, n := range catalog.Names {
		if Fold(n) == folded {
			return i
		}
	}

	return -1
}

// Contains reports whether name is a subkey
func (catalog *SubkeyCatalog) Contains(name string) bool {
	return catalog.Index(name) >= 0
}

// Add appends name unless it is already present. It reports
// whether the catalog changed.
func (catalog *SubkeyCatalog) Add(name string) (bool, error) {
	if err := ValidateName(name); err != nil {
		return false, err
	}

	if catalog.Contains(name) {
		return false, nil
	}

	catalog.Names = append(catalog.Names, name)

	return true, nil
}

// Remove removes name. It reports whether the catalog changed.
func (catalog *SubkeyCatalog) Remove(name string) bool {
	i := catalog.Index(name)

	if i < 0 {
		return false
	}

	names := make([]string, 0, len(catalog.Names)-1)
	names = append(names, catalog.Names[:i]...)
	catalog.Names = append(names, catalog.Names[i+1:]...)

	return true
}

// Equal reports whether names has exactly the same names in
// the same order
func (catalog *SubkeyCatalog) Equal(names []string) bool {
	if len(catalog.Names) != len(names) {
		return false
	}

	for i := range names {
		if catalog.Names[i] != names[i] {
			return false
		}
	}

	return true
}

// CheckSubkeys validates a list of subkey names: each must be a
// valid name and no two may be equal ignoring case
func CheckSubkeys(names []string) error {
	seen := make(map[string]bool, len(names))

	for _, name := range names {
		if err := ValidateName(name); err != nil {
			return err
		}

		folded := Fold(name)

		if seen[folded] {
			return fmt.Errorf("duplicate subkey %q: %w", name, ErrInvalidArgument)
		}

		seen[folded] = true
	}

	return nil
}

// ValueCatalog is the list of values of one key, stamped with
// the sequence number observed when it was fetched.
type ValueCatalog struct {
	Values []Value
	Seq    uint64
}

// Len returns the number of values
func (catalog *ValueCatalog) Len() int {
	return len(catalog.Values)
}

// Index returns the position of the value called name compared
// case-insensitively, or -1
func (catalog *ValueCatalog) Index(name string) int {
	folded := Fold(name)

	for i, v := range catalog.Values {
		if Fold(v.Name) == folded {
			return i
		}
	}

	return -1
}

// Contains reports whether a value called name exists
func (catalog *ValueCatalog) Contains(name string) bool {
	return catalog.Index(name) >= 0
}

// Get returns the value called name
func (catalog *ValueCatalog) Get(name string) (Value, bool) {
	i := catalog.Index(name)

	if i < 0 {
		return Value{}, false
	}

	return catalog.Values[i], true
}

// Set replaces the value with the same name or appends value
func (catalog *ValueCatalog) Set(value Value) error {
	if err := validateValueName(value.Name); err != nil {
		return err
	}

	if i := catalog.Index(value.Name); i >= 0 {
		catalog.Values[i] = value

		return nil
	}

	catalog.Values = append(catalog.Values, value)

	return nil
}

// Delete removes the value called name. It reports whether the
// catalog changed.
func (catalog *ValueCatalog) Delete(name string) bool {
	i := catalog.Index(name)

	if i < 0 {
		return false
	}

	values := make([]Value, 0, len(catalog.Values)-1)
	values = append(values, catalog.Values[:i]...)
	catalog.Values = append(values, catalog.Values[i+1:]...)

	return true
}

// CheckValues validates a list of values: every name must fit a
// name field and no two may be equal ignoring case
func CheckValues(values []Value) error {
	seen := make(map[string]bool, len(values))

	for _, value := range values {
		if err := validateValueName(value.Name); err != nil {
			return err
		}

		folded := Fold(value.Name)

		if seen[folded] {
			return fmt.Errorf("duplicate value %q: %w", value.Name, ErrInvalidArgument)
		}

		seen[folded] = true
	}

	return nil
}
