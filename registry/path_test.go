package registry_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/jrife/regdb/registry"
)

func TestCanonicalize(t *testing.T) {
	testCases := map[string]struct {
		path   string
		result string
		err    error
	}{
		"root": {
			path:   "HKLM",
			result: "HKLM",
		},
		"mixed-case": {
			path:   `hklm\Software\Samba`,
			result: "HKLM/SOFTWARE/SAMBA",
		},
		"forward-slashes": {
			path:   "HKLM/Software/Samba",
			result: "HKLM/SOFTWARE/SAMBA",
		},
		"surrounding-separators": {
			path:   `\HKLM\Software\`,
			result: "HKLM/SOFTWARE",
		},
		"spaces-kept": {
			path:   `HKLM\SOFTWARE\Microsoft\Windows NT`,
			result: "HKLM/SOFTWARE/MICROSOFT/WINDOWS NT",
		},
		"empty": {
			path: "",
			err:  registry.ErrInvalidArgument,
		},
		"only-separators": {
			path: `\\`,
			err:  registry.ErrInvalidArgument,
		},
		"empty-component": {
			path: `HKLM\\SOFTWARE`,
			err:  registry.ErrInvalidArgument,
		},
		"reserved-values-root": {
			path: `REG_VALUES\HKLM`,
			err:  registry.ErrInvalidArgument,
		},
		"reserved-secdesc-root": {
			path: `reg_secdesc\HKLM`,
			err:  registry.ErrInvalidArgument,
		},
		"reserved-info-root": {
			path: `INFO\version`,
			err:  registry.ErrInvalidArgument,
		},
	}

	for name, testCase := range testCases {
		t.Run(name, func(t *testing.T) {
			result, err := registry.Canonicalize(testCase.path)

			if !errors.Is(err, testCase.err) {
				t.Fatalf("expected err to be %#v, got %#v", testCase.err, err)
			}

			if diff := cmp.Diff(testCase.result, result); diff != "" {
				t.Fatal(diff)
			}

			if err != nil {
				return
			}

			again, err := registry.Canonicalize(result)

			if err != nil {
				t.Fatalf("expected err to be nil, got %#v", err)
			}

			if diff := cmp.Diff(result, again); diff != "" {
				t.Fatal(diff)
			}
		})
	}
}

func TestRecordKeys(t *testing.T) {
	valueKey, err := registry.ValueKey(`HKLM\Software`)

	if err != nil {
		t.Fatalf("expected err to be nil, got %#v", err)
	}

	if diff := cmp.Diff("REG_VALUES/HKLM/SOFTWARE", valueKey); diff != "" {
		t.Fatal(diff)
	}

	secDescKey, err := registry.SecDescKey(`hklm/software`)

	if err != nil {
		t.Fatalf("expected err to be nil, got %#v", err)
	}

	if diff := cmp.Diff("REG_SECDESC/HKLM/SOFTWARE", secDescKey); diff != "" {
		t.Fatal(diff)
	}

	if _, err := registry.ValueKey(""); !errors.Is(err, registry.ErrInvalidArgument) {
		t.Fatalf("expected err to be ErrInvalidArgument, got %#v", err)
	}
}

func TestParent(t *testing.T) {
	testCases := map[string]struct {
		path   string
		parent string
		leaf   string
		err    error
	}{
		"nested": {
			path:   `HKLM\SOFTWARE\Samba`,
			parent: `HKLM\SOFTWARE`,
			leaf:   "Samba",
		},
		"forward-slashes": {
			path:   "HKLM/SOFTWARE",
			parent: "HKLM",
			leaf:   "SOFTWARE",
		},
		"root": {
			path: "HKLM",
			err:  registry.ErrInvalidArgument,
		},
		"empty": {
			path: "",
			err:  registry.ErrInvalidArgument,
		},
	}

	for name, testCase := range testCases {
		t.Run(name, func(t *testing.T) {
			parent, leaf, err := registry.Parent(testCase.path)

			if !errors.Is(err, testCase.err) {
				t.Fatalf("expected err to be %#v, got %#v", testCase.err, err)
			}

			if diff := cmp.Diff([]string{testCase.parent, testCase.leaf}, []string{parent, leaf}); diff != "" {
				t.Fatal(diff)
			}
		})
	}
}

func TestJoin(t *testing.T) {
	if diff := cmp.Diff(`HKLM\SOFTWARE`, registry.Join(`HKLM\`, "SOFTWARE")); diff != "" {
		t.Fatal(diff)
	}
}

func TestValidateName(t *testing.T) {
	long := make([]byte, registry.NameCapacity)

	for i := range long {
		long[i] = 'a'
	}

	testCases := map[string]struct {
		name string
		err  error
	}{
		"ok":            {name: "Samba"},
		"longest":       {name: string(long[:registry.NameCapacity-1])},
		"empty":         {name: "", err: registry.ErrInvalidArgument},
		"backslash":     {name: `a\b`, err: registry.ErrInvalidArgument},
		"slash":         {name: "a/b", err: registry.ErrInvalidArgument},
		"nul":           {name: "a\x00b", err: registry.ErrInvalidArgument},
		"over-capacity": {name: string(long), err: registry.ErrInvalidArgument},
	}

	for name, testCase := range testCases {
		t.Run(name, func(t *testing.T) {
			if err := registry.ValidateName(testCase.name); !errors.Is(err, testCase.err) {
				t.Fatalf("expected err to be %#v, got %#v", testCase.err, err)
			}
		})
	}
}
