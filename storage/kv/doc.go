// Package kv defines the contract regdb requires from a
// transactional key-value engine and the drivers that satisfy it.
//
// A store is one flat, sorted key space. All access happens
// through transactions: read-only transactions observe a
// consistent snapshot and never block writers, writable
// transactions are serialized so there is at most one writer
// at a time. A transaction either fully commits or fully rolls
// back.
//
// Every store owns a monotonic sequence counter. A writable
// transaction that performed at least one Put or Delete
// increments the counter exactly once when it commits. Readers
// can observe the counter from inside their snapshot, which lets
// upper layers stamp what they read with the sequence number of
// the state they saw.
//
//  - Store
//    - Transaction (read-only, many at once)
//    - Transaction (writable, one at a time)
//      - Put / Get / Delete / Keys
//      - Sequence
//
// Drivers are provided as plugins (see package plugins) so tests
// can run the same suite against every implementation.
package kv
