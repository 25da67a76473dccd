package registry_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/jrife/regdb/registry"
)

func TestSubkeyCatalog(t *testing.T) {
	catalog := registry.SubkeyCatalog{Names: []string{"SOFTWARE", "System"}}

	if !catalog.Contains("software") {
		t.Fatal("expected case-insensitive match for software")
	}

	changed, err := catalog.Add("SYSTEM")

	if err != nil {
		t.Fatalf("expected err to be nil, got %#v", err)
	}

	if changed {
		t.Fatal("expected Add of an existing name to leave the catalog unchanged")
	}

	if changed, err = catalog.Add("Hardware"); err != nil || !changed {
		t.Fatalf("expected Add to append Hardware, got %v (%v)", changed, err)
	}

	if _, err := catalog.Add(`a\b`); !errors.Is(err, registry.ErrInvalidArgument) {
		t.Fatalf("expected err to be ErrInvalidArgument, got %#v", err)
	}

	if !catalog.Remove("system") {
		t.Fatal("expected Remove to remove System")
	}

	if catalog.Remove("system") {
		t.Fatal("expected a second Remove to have no effect")
	}

	if diff := cmp.Diff([]string{"SOFTWARE", "Hardware"}, catalog.Names); diff != "" {
		t.Fatal(diff)
	}

	if !catalog.Equal([]string{"SOFTWARE", "Hardware"}) {
		t.Fatal("expected catalog to equal its own names")
	}

	if catalog.Equal([]string{"Hardware", "SOFTWARE"}) {
		t.Fatal("expected order to matter")
	}
}

func TestCheckSubkeys(t *testing.T) {
	testCases := map[string]struct {
		names []string
		err   error
	}{
		"empty":     {names: nil},
		"distinct":  {names: []string{"a", "b"}},
		"duplicate": {names: []string{"Samba", "SAMBA"}, err: registry.ErrInvalidArgument},
		"invalid":   {names: []string{""}, err: registry.ErrInvalidArgument},
	}

	for name, testCase := range testCases {
		t.Run(name, func(t *testing.T) {
			if err := registry.CheckSubkeys(testCase.names); !errors.Is(err, testCase.err) {
				t.Fatalf("expected err to be %#v, got %#v", testCase.err, err)
			}
		})
	}
}

func TestValueCatalog(t *testing.T) {
	catalog := registry.ValueCatalog{}

	if err := catalog.Set(registry.DwordValue("ErrorControl", 1)); err != nil {
		t.Fatalf("expected err to be nil, got %#v", err)
	}

	if err := catalog.Set(registry.DwordValue("errorcontrol", 2)); err != nil {
		t.Fatalf("expected err to be nil, got %#v", err)
	}

	if catalog.Len() != 1 {
		t.Fatalf("expected 1 value, got %d", catalog.Len())
	}

	value, ok := catalog.Get("ERRORCONTROL")

	if !ok {
		t.Fatal("expected ERRORCONTROL to be found")
	}

	if n, _ := value.AsDword(); n != 2 {
		t.Fatalf("expected 2, got %d", n)
	}

	if !catalog.Delete("ErrorControl") || catalog.Delete("ErrorControl") {
		t.Fatal("expected exactly one successful delete")
	}

	if _, ok := catalog.Get("ErrorControl"); ok {
		t.Fatal("expected ErrorControl to be gone")
	}
}
