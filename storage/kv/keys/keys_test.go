package keys_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/jrife/regdb/storage/kv/keys"
)

func TestPrefixEnd(t *testing.T) {
	testCases := map[string]struct {
		prefix keys.Key
		end    keys.Key
	}{
		"simple": {
			prefix: keys.Key("HKLM/"),
			end:    keys.Key("HKLM0"),
		},
		"trailing-ff": {
			prefix: keys.Key{0x04, 0xff},
			end:    keys.Key{0x05},
		},
		"all-ff": {
			prefix: keys.Key{0xff, 0xff},
			end:    nil,
		},
	}

	for name, testCase := range testCases {
		t.Run(name, func(t *testing.T) {
			original := append(keys.Key{}, testCase.prefix...)
			end := keys.PrefixEnd(testCase.prefix)

			if diff := cmp.Diff(testCase.end, end); diff != "" {
				t.Fatal(diff)
			}

			if diff := cmp.Diff(original, testCase.prefix); diff != "" {
				t.Fatalf("PrefixEnd modified its input: %s", diff)
			}
		})
	}
}

func TestRangeContains(t *testing.T) {
	testCases := map[string]struct {
		r        keys.Range
		key      []byte
		contains bool
	}{
		"all": {
			r:        keys.All(),
			key:      []byte("anything"),
			contains: true,
		},
		"prefix-child": {
			r:        keys.All().Prefix([]byte("HKLM/SOFTWARE/")),
			key:      []byte("HKLM/SOFTWARE/SAMBA/SMBCONF"),
			contains: true,
		},
		"prefix-excludes-self": {
			r:        keys.All().Prefix([]byte("HKLM/SOFTWARE/")),
			key:      []byte("HKLM/SOFTWARE/"),
			contains: false,
		},
		"prefix-sibling": {
			r:        keys.All().Prefix([]byte("HKLM/SOFTWARE/")),
			key:      []byte("HKLM/SOFTWAREX"),
			contains: false,
		},
		"prefix-after-ff": {
			r:        keys.All().Prefix([]byte{'a', 0xff}),
			key:      []byte("b"),
			contains: false,
		},
		"nested-prefix": {
			r:        keys.All().Prefix([]byte("HKLM/")).Prefix([]byte("HKLM/SOFTWARE/")),
			key:      []byte("HKLM/SYSTEM"),
			contains: false,
		},
	}

	for name, testCase := range testCases {
		t.Run(name, func(t *testing.T) {
			if contains := testCase.r.Contains(testCase.key); contains != testCase.contains {
				t.Fatalf("expected contains to be %v, got %v", testCase.contains, contains)
			}
		})
	}
}
