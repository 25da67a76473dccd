package keys

// All returns the range of every key
func All() Range {
	return Range{}
}

// Range is every key k with Min <= k < Max. A nil Min starts at
// the first key and a nil Max runs past the last one.
type Range struct {
	Min []byte
	Max []byte
}

// Prefix narrows r to the keys that start with prefix. prefix
// itself is not part of the range.
func (r Range) Prefix(prefix []byte) Range {
	return r.narrow(Next(prefix), PrefixEnd(prefix))
}

// Contains reports whether k lies inside the range
func (r Range) Contains(k []byte) bool {
	if r.Min != nil && Compare(k, r.Min) < 0 {
		return false
	}

	return r.Max == nil || Compare(k, r.Max) < 0
}

func (r Range) narrow(min []byte, max []byte) Range {
	if r.Min == nil || Compare(min, r.Min) > 0 {
		r.Min = min
	}

	if max != nil && (r.Max == nil || Compare(max, r.Max) < 0) {
		r.Max = max
	}

	return r
}
