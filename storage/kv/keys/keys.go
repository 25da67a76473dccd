package keys

import (
	"bytes"
)

// Key is a single key
type Key []byte

// Compare orders keys bytewise
func Compare(a, b Key) int {
	return bytes.Compare(a, b)
}

// PrefixEnd returns the first key after every key that starts
// with prefix, or nil if no such key exists because prefix is
// all 0xff. prefix is not modified.
func PrefixEnd(prefix Key) Key {
	for i := len(prefix) - 1; i >= 0; i-- {
		if prefix[i] < 0xff {
			end := make(Key, i+1)
			copy(end, prefix)
			end[i]++

			return end
		}
	}

	return nil
}

// Next returns the smallest key greater than key
func Next(key Key) Key {
	next := make(Key, len(key)+1)

	copy(next, key)

	return next
}
