// Package regdb stores a registry namespace in a kv.Store.
//
// Every key is kept as up to three records in one flat key space:
// its subkey list at the canonical path, its values under
// REG_VALUES/ and its security descriptor under REG_SECDESC/.
// Multi-record edits such as removing a subtree happen inside a
// single store transaction so readers never observe half of a
// cascade. Each fetched catalog is stamped with the store's
// sequence number so callers can tell when a cached copy is stale.
package regdb
