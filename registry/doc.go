// Package registry holds the storage-independent parts of a
// Windows-registry-style namespace: canonical physical keys for
// hierarchical paths, the binary record formats for subkey and
// value lists, typed values, security descriptors and the error
// taxonomy shared by every layer above.
//
// A key at path P is persisted as up to three records in one flat
// key space:
//
//	CANON(P)                subkey record: ordered child names
//	REG_VALUES/CANON(P)     value record: (name, type, data) tuples
//	REG_SECDESC/CANON(P)    self-relative security descriptor
//
// where CANON upper-cases P and translates '\' to '/'. Package
// regdb implements the transactional operations on top of a
// kv.Store.
package registry
