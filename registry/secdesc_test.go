package registry_test

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/jrife/regdb/registry"
)

func TestParseSID(t *testing.T) {
	testCases := map[string]struct {
		s   string
		sid registry.SID
		err error
	}{
		"world": {
			s:   "S-1-1-0",
			sid: registry.SIDWorld,
		},
		"administrators": {
			s:   "S-1-5-32-544",
			sid: registry.SIDBuiltinAdministrators,
		},
		"lowercase": {
			s:   "s-1-5-18",
			sid: registry.SIDLocalSystem,
		},
		"no-sub-authorities": {
			s:   "S-1-5",
			sid: registry.SID{Revision: 1, IdentifierAuthority: 5, SubAuthorities: []uint32{}},
		},
		"not-a-sid": {
			s:   "X-1-5-18",
			err: registry.ErrInvalidArgument,
		},
		"too-short": {
			s:   "S-1",
			err: registry.ErrInvalidArgument,
		},
		"bad-sub-authority": {
			s:   "S-1-5-abc",
			err: registry.ErrInvalidArgument,
		},
	}

	for name, testCase := range testCases {
		t.Run(name, func(t *testing.T) {
			sid, err := registry.ParseSID(testCase.s)

			if !errors.Is(err, testCase.err) {
				t.Fatalf("expected err to be %#v, got %#v", testCase.err, err)
			}

			if err != nil {
				return
			}

			if diff := cmp.Diff(testCase.sid, sid); diff != "" {
				t.Fatal(diff)
			}
		})
	}
}

func TestSIDString(t *testing.T) {
	if diff := cmp.Diff("S-1-5-32-544", registry.SIDBuiltinAdministrators.String()); diff != "" {
		t.Fatal(diff)
	}
}

func TestSecurityDescriptorRoundTrip(t *testing.T) {
	sd := registry.DefaultSecurityDescriptor()

	buf, err := sd.MarshalBinary()

	if err != nil {
		t.Fatalf("expected err to be nil, got %#v", err)
	}

	if buf[0] != 1 {
		t.Fatalf("expected revision 1, got %d", buf[0])
	}

	control := binary.LittleEndian.Uint16(buf[2:])

	if control&registry.SE_SELF_RELATIVE == 0 || control&registry.SE_DACL_PRESENT == 0 {
		t.Fatalf("unexpected control flags %#04x", control)
	}

	var decoded registry.SecurityDescriptor

	if err := decoded.UnmarshalBinary(buf); err != nil {
		t.Fatalf("expected err to be nil, got %#v", err)
	}

	sd.Control |= registry.SE_SELF_RELATIVE

	if diff := cmp.Diff(sd, &decoded); diff != "" {
		t.Fatal(diff)
	}

	if diff := cmp.Diff("O:S-1-5-32-544G:S-1-5-18D:(A;0x00;0x00020019;;;S-1-1-0)(A;0x00;0x000f003f;;;S-1-5-32-544)(A;0x00;0x000f003f;;;S-1-5-18)", decoded.String()); diff != "" {
		t.Fatal(diff)
	}
}

func TestSecurityDescriptorEmpty(t *testing.T) {
	sd := &registry.SecurityDescriptor{}

	buf, err := sd.MarshalBinary()

	if err != nil {
		t.Fatalf("expected err to be nil, got %#v", err)
	}

	if len(buf) != 20 {
		t.Fatalf("expected a bare 20 byte header, got %d bytes", len(buf))
	}

	var decoded registry.SecurityDescriptor

	if err := decoded.UnmarshalBinary(buf); err != nil {
		t.Fatalf("expected err to be nil, got %#v", err)
	}

	if decoded.Owner != nil || decoded.Group != nil || decoded.DACL != nil || decoded.SACL != nil {
		t.Fatalf("expected an empty descriptor, got %s", decoded.String())
	}
}

func TestSecurityDescriptorCorrupt(t *testing.T) {
	valid, err := registry.DefaultSecurityDescriptor().MarshalBinary()

	if err != nil {
		t.Fatalf("expected err to be nil, got %#v", err)
	}

	corrupt := func(mutate func(buf []byte) []byte) []byte {
		return mutate(append([]byte{}, valid...))
	}

	testCases := map[string][]byte{
		"short-header": valid[:12],
		"not-self-relative": corrupt(func(buf []byte) []byte {
			binary.LittleEndian.PutUint16(buf[2:], registry.SE_DACL_PRESENT)
			return buf
		}),
		"owner-out-of-bounds": corrupt(func(buf []byte) []byte {
			binary.LittleEndian.PutUint32(buf[4:], uint32(len(buf)+10))
			return buf
		}),
		"owner-in-header": corrupt(func(buf []byte) []byte {
			binary.LittleEndian.PutUint32(buf[4:], 4)
			return buf
		}),
		"truncated": valid[:len(valid)-2],
		"acl-size-overrun": corrupt(func(buf []byte) []byte {
			dacl := binary.LittleEndian.Uint32(buf[16:])
			binary.LittleEndian.PutUint16(buf[dacl+2:], 0xfff0)
			return buf
		}),
	}

	for name, buf := range testCases {
		t.Run(name, func(t *testing.T) {
			var sd registry.SecurityDescriptor

			if err := sd.UnmarshalBinary(buf); !errors.Is(err, registry.ErrCorrupt) {
				t.Fatalf("expected err to be ErrCorrupt, got %#v", err)
			}
		})
	}
}
