package registry

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
)

// Security descriptor control flags
const (
	SE_OWNER_DEFAULTED = 0x0001
	SE_GROUP_DEFAULTED = 0x0002
	SE_DACL_PRESENT    = 0x0004
	SE_DACL_DEFAULTED  = 0x0008
	SE_SACL_PRESENT    = 0x0010
	SE_SACL_DEFAULTED  = 0x0020
	SE_DACL_PROTECTED  = 0x1000
	SE_SACL_PROTECTED  = 0x2000
	SE_SELF_RELATIVE   = 0x8000
)

// ACE types
const (
	ACCESS_ALLOWED_ACE_TYPE = 0
	ACCESS_DENIED_ACE_TYPE  = 1
	SYSTEM_AUDIT_ACE_TYPE   = 2
)

// ACE flags
const (
	OBJECT_INHERIT_ACE    = 0x01
	CONTAINER_INHERIT_ACE = 0x02
	INHERIT_ONLY_ACE      = 0x08
)

// Registry key access rights
const (
	KEY_QUERY_VALUE        = 0x00001
	KEY_SET_VALUE          = 0x00002
	KEY_CREATE_SUB_KEY     = 0x00004
	KEY_ENUMERATE_SUB_KEYS = 0x00008
	KEY_NOTIFY             = 0x00010
	KEY_CREATE_LINK        = 0x00020
	KEY_READ               = 0x20019
	KEY_WRITE              = 0x20006
	KEY_ALL_ACCESS         = 0xF003F
)

const (
	securityDescriptorRevision = 1
	aclRevision                = 2
	sidRevision                = 1
	sdHeaderSize               = 20
	aclHeaderSize              = 8
	aceHeaderSize              = 8
	maxSubAuthorities          = 15
)

// SID is a security identifier
type SID struct {
	Revision            uint8
	IdentifierAuthority uint64
	SubAuthorities      []uint32
}

// Well-known SIDs
var (
	SIDWorld                 = SID{Revision: 1, IdentifierAuthority: 1, SubAuthorities: []uint32{0}}
	SIDLocalSystem           = SID{Revision: 1, IdentifierAuthority: 5, SubAuthorities: []uint32{18}}
	SIDBuiltinAdministrators = SID{Revision: 1, IdentifierAuthority: 5, SubAuthorities: []uint32{32, 544}}
	SIDBuiltinUsers          = SID{Revision: 1, IdentifierAuthority: 5, SubAuthorities: []uint32{32, 545}}
)

// ParseSID parses the S-R-I-S-S... string form
func ParseSID(s string) (SID, error) {
	parts := strings.Split(s, "-")

	if len(parts) < 3 || !strings.EqualFold(parts[0], "S") {
		return SID{}, fmt.Errorf("malformed SID %q: %w", s, ErrInvalidArgument)
	}

	revision, err := strconv.ParseUint(parts[1], 10, 8)

	if err != nil {
		return SID{}, fmt.Errorf("malformed SID revision in %q: %w", s, ErrInvalidArgument)
	}

	authority, err := strconv.ParseUint(parts[2], 0, 48)

	if err != nil {
		return SID{}, fmt.Errorf("malformed SID authority in %q: %w", s, ErrInvalidArgument)
	}

	if len(parts)-3 > maxSubAuthorities {
		return SID{}, fmt.Errorf("SID %q has too many sub-authorities: %w", s, ErrInvalidArgument)
	}

	sid := SID{Revision: uint8(revision), IdentifierAuthority: authority, SubAuthorities: []uint32{}}

	for _, part := range parts[3:] {
		sub, err := strconv.ParseUint(part, 10, 32)

		if err != nil {
			return SID{}, fmt.Errorf("malformed SID sub-authority in %q: %w", s, ErrInvalidArgument)
		}

		sid.SubAuthorities = append(sid.SubAuthorities, uint32(sub))
	}

	return sid, nil
}

// String formats the SID as S-R-I-S-S...
func (sid SID) String() string {
	var b strings.Builder

	fmt.Fprintf(&b, "S-%d-", sid.Revision)

	if sid.IdentifierAuthority >= 1<<32 {
		fmt.Fprintf(&b, "0x%012x", sid.IdentifierAuthority)
	} else {
		fmt.Fprintf(&b, "%d", sid.IdentifierAuthority)
	}

	for _, sub := range sid.SubAuthorities {
		fmt.Fprintf(&b, "-%d", sub)
	}

	return b.String()
}

func (sid SID) size() int {
	return 8 + 4*len(sid.SubAuthorities)
}

func (sid SID) marshal(buf []byte) []byte {
	var authority [8]byte

	buf = append(buf, sid.Revision, uint8(len(sid.SubAuthorities)))
	binary.BigEndian.PutUint64(authority[:], sid.IdentifierAuthority)
	buf = append(buf, authority[2:]...)

	for _, sub := range sid.SubAuthorities {
		buf = appendUint32(buf, sub)
	}

	return buf
}

func unmarshalSID(buf []byte) (SID, int, error) {
	if len(buf) < 8 {
		return SID{}, 0, fmt.Errorf("SID needs 8 bytes, have %d: %w", len(buf), ErrCorrupt)
	}

	count := int(buf[1])

	if count > maxSubAuthorities {
		return SID{}, 0, fmt.Errorf("SID has %d sub-authorities: %w", count, ErrCorrupt)
	}

	size := 8 + 4*count

	if len(buf) < size {
		return SID{}, 0, fmt.Errorf("SID needs %d bytes, have %d: %w", size, len(buf), ErrCorrupt)
	}

	var authority [8]byte

	copy(authority[2:], buf[2:8])

	sid := SID{
		Revision:            buf[0],
		IdentifierAuthority: binary.BigEndian.Uint64(authority[:]),
		SubAuthorities:      make([]uint32, count),
	}

	for i := 0; i < count; i++ {
		sid.SubAuthorities[i] = binary.LittleEndian.Uint32(buf[8+4*i:])
	}

	return sid, size, nil
}

// ACE is an access control entry
type ACE struct {
	Type  uint8
	Flags uint8
	Mask  uint32
	SID   SID
}

func (ace ACE) size() int {
	return aceHeaderSize + ace.SID.size()
}

// ACL is an access control list
type ACL struct {
	Revision uint8
	ACEs     []ACE
}

func (acl *ACL) size() int {
	size := aclHeaderSize

	for _, ace := range acl.ACEs {
		size += ace.size()
	}

	return size
}

func (acl *ACL) marshal(buf []byte) []byte {
	var header [aclHeaderSize]byte

	revision := acl.Revision

	if revision == 0 {
		revision = aclRevision
	}

	header[0] = revision
	binary.LittleEndian.PutUint16(header[2:], uint16(acl.size()))
	binary.LittleEndian.PutUint16(header[4:], uint16(len(acl.ACEs)))
	buf = append(buf, header[:]...)

	for _, ace := range acl.ACEs {
		var aceHeader [aceHeaderSize]byte

		aceHeader[0] = ace.Type
		aceHeader[1] = ace.Flags
		binary.LittleEndian.PutUint16(aceHeader[2:], uint16(ace.size()))
		binary.LittleEndian.PutUint32(aceHeader[4:], ace.Mask)
		buf = append(buf, aceHeader[:]...)
		buf = ace.SID.marshal(buf)
	}

	return buf
}

func unmarshalACL(buf []byte) (*ACL, error) {
	if len(buf) < aclHeaderSize {
		return nil, fmt.Errorf("ACL needs %d bytes, have %d: %w", aclHeaderSize, len(buf), ErrCorrupt)
	}

	size := int(binary.LittleEndian.Uint16(buf[2:]))
	count := int(binary.LittleEndian.Uint16(buf[4:]))

	if size < aclHeaderSize || size > len(buf) {
		return nil, fmt.Errorf("ACL size %d out of bounds: %w", size, ErrCorrupt)
	}

	acl := &ACL{Revision: buf[0], ACEs: make([]ACE, 0, count)}
	off := aclHeaderSize

	for i := 0; i < count; i++ {
		if size-off < aceHeaderSize {
			return nil, fmt.Errorf("ACE %d header out of bounds: %w", i, ErrCorrupt)
		}

		aceSize := int(binary.LittleEndian.Uint16(buf[off+2:]))

		if aceSize < aceHeaderSize+8 || off+aceSize > size {
			return nil, fmt.Errorf("ACE %d size %d out of bounds: %w", i, aceSize, ErrCorrupt)
		}

		sid, _, err := unmarshalSID(buf[off+aceHeaderSize : off+aceSize])

		if err != nil {
			return nil, err
		}

		acl.ACEs = append(acl.ACEs, ACE{
			Type:  buf[off],
			Flags: buf[off+1],
			Mask:  binary.LittleEndian.Uint32(buf[off+4:]),
			SID:   sid,
		})

		off += aceSize
	}

	return acl, nil
}

// SecurityDescriptor governs access to a key. Nil Owner, Group,
// SACL or DACL means the part is absent.
type SecurityDescriptor struct {
	Revision uint8
	Control  uint16
	Owner    *SID
	Group    *SID
	SACL     *ACL
	DACL     *ACL
}

// DefaultSecurityDescriptor returns the descriptor applied to
// registry keys that have none: everyone may read, administrators
// and the local system have full control.
func DefaultSecurityDescriptor() *SecurityDescriptor {
	admins := SIDBuiltinAdministrators
	system := SIDLocalSystem

	return &SecurityDescriptor{
		Revision: securityDescriptorRevision,
		Control:  SE_DACL_PRESENT,
		Owner:    &admins,
		Group:    &system,
		DACL: &ACL{
			Revision: aclRevision,
			ACEs: []ACE{
				{Type: ACCESS_ALLOWED_ACE_TYPE, Mask: KEY_READ, SID: SIDWorld},
				{Type: ACCESS_ALLOWED_ACE_TYPE, Mask: KEY_ALL_ACCESS, SID: SIDBuiltinAdministrators},
				{Type: ACCESS_ALLOWED_ACE_TYPE, Mask: KEY_ALL_ACCESS, SID: SIDLocalSystem},
			},
		},
	}
}

// MarshalBinary encodes the descriptor in self-relative form
func (sd *SecurityDescriptor) MarshalBinary() ([]byte, error) {
	for _, sid := range []*SID{sd.Owner, sd.Group} {
		if sid != nil && len(sid.SubAuthorities) > maxSubAuthorities {
			return nil, fmt.Errorf("SID %s has too many sub-authorities: %w", sid, ErrInvalidArgument)
		}
	}

	for _, acl := range []*ACL{sd.SACL, sd.DACL} {
		if acl == nil {
			continue
		}

		if acl.size() > 0xffff || len(acl.ACEs) > 0xffff {
			return nil, fmt.Errorf("ACL is too large: %w", ErrInvalidArgument)
		}

		for _, ace := range acl.ACEs {
			if len(ace.SID.SubAuthorities) > maxSubAuthorities {
				return nil, fmt.Errorf("SID %s has too many sub-authorities: %w", ace.SID, ErrInvalidArgument)
			}
		}
	}

	revision := sd.Revision

	if revision == 0 {
		revision = securityDescriptorRevision
	}

	control := sd.Control | SE_SELF_RELATIVE
	control &^= SE_SACL_PRESENT | SE_DACL_PRESENT

	if sd.SACL != nil {
		control |= SE_SACL_PRESENT
	}

	if sd.DACL != nil {
		control |= SE_DACL_PRESENT
	}

	buf := make([]byte, sdHeaderSize)
	buf[0] = revision
	binary.LittleEndian.PutUint16(buf[2:], control)

	if sd.SACL != nil {
		binary.LittleEndian.PutUint32(buf[12:], uint32(len(buf)))
		buf = sd.SACL.marshal(buf)
	}

	if sd.DACL != nil {
		binary.LittleEndian.PutUint32(buf[16:], uint32(len(buf)))
		buf = sd.DACL.marshal(buf)
	}

	if sd.Owner != nil {
		binary.LittleEndian.PutUint32(buf[4:], uint32(len(buf)))
		buf = sd.Owner.marshal(buf)
	}

	if sd.Group != nil {
		binary.LittleEndian.PutUint32(buf[8:], uint32(len(buf)))
		buf = sd.Group.marshal(buf)
	}

	return buf, nil
}

// UnmarshalBinary decodes a self-relative descriptor. Offsets or
// sizes pointing outside buf are ErrCorrupt.
func (sd *SecurityDescriptor) UnmarshalBinary(buf []byte) error {
	if len(buf) < sdHeaderSize {
		return fmt.Errorf("security descriptor needs %d bytes, have %d: %w", sdHeaderSize, len(buf), ErrCorrupt)
	}

	control := binary.LittleEndian.Uint16(buf[2:])

	if control&SE_SELF_RELATIVE == 0 {
		return fmt.Errorf("security descriptor is not self-relative: %w", ErrCorrupt)
	}

	offset := func(at int) (int, error) {
		off := int(binary.LittleEndian.Uint32(buf[at:]))

		if off != 0 && (off < sdHeaderSize || off >= len(buf)) {
			return 0, fmt.Errorf("offset %d out of bounds: %w", off, ErrCorrupt)
		}

		return off, nil
	}

	var decoded SecurityDescriptor

	decoded.Revision = buf[0]
	decoded.Control = control

	for i, target := range []**SID{&decoded.Owner, &decoded.Group} {
		off, err := offset(4 + 4*i)

		if err != nil {
			return err
		}

		if off == 0 {
			continue
		}

		sid, _, err := unmarshalSID(buf[off:])

		if err != nil {
			return err
		}

		*target = &sid
	}

	for i, target := range []**ACL{&decoded.SACL, &decoded.DACL} {
		present := []uint16{SE_SACL_PRESENT, SE_DACL_PRESENT}[i]
		off, err := offset(12 + 4*i)

		if err != nil {
			return err
		}

		if off == 0 || control&present == 0 {
			continue
		}

		acl, err := unmarshalACL(buf[off:])

		if err != nil {
			return err
		}

		*target = acl
	}

	*sd = decoded

	return nil
}

// String renders the descriptor in an SDDL-like notation
func (sd *SecurityDescriptor) String() string {
	var b strings.Builder

	if sd.Owner != nil {
		fmt.Fprintf(&b, "O:%s", sd.Owner)
	}

	if sd.Group != nil {
		fmt.Fprintf(&b, "G:%s", sd.Group)
	}

	if sd.DACL != nil {
		b.WriteString("D:")
		writeACEs(&b, sd.DACL)
	}

	if sd.SACL != nil {
		b.WriteString("S:")
		writeACEs(&b, sd.SACL)
	}

	return b.String()
}

func writeACEs(b *strings.Builder, acl *ACL) {
	for _, ace := range acl.ACEs {
		kind := "?"

		switch ace.Type {
		case ACCESS_ALLOWED_ACE_TYPE:
			kind = "A"
		case ACCESS_DENIED_ACE_TYPE:
			kind = "D"
		case SYSTEM_AUDIT_ACE_TYPE:
			kind = "AU"
		}

		fmt.Fprintf(b, "(%s;0x%02x;0x%08x;;;%s)", kind, ace.Flags, ace.Mask, ace.SID)
	}
}
