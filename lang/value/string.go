package value

// String is an immutable byte sequence. Every String reachable from the VM
// is interned (see lang/table.Strings): equality of two String values
// reduces to pointer identity, which is why Obj equality (spec.md §3 Value
// Equality) doesn't need a special case for strings.
type String struct {
	Header
	bytes []byte
	hash  uint32
}

var _ Obj = (*String)(nil)

// NewString constructs a String object from its bytes and precomputed hash.
// Callers (lang/table.Strings) are responsible for interning: NewString
// itself performs no canonicalization.
func NewString(b []byte, hash uint32) *String {
	return &String{bytes: b, hash: hash}
}

func (s *String) String() string { return string(s.bytes) }
func (*String) Type() string     { return "string" }

// Bytes returns the string's raw bytes. Callers must not mutate the
// returned slice: strings are immutable once allocated.
func (s *String) Bytes() []byte { return s.bytes }

// Hash returns the string's precomputed FNV-1a-style hash, used by the
// interning table and by any user-level hashing of string keys.
func (s *String) Hash() uint32 { return s.hash }

// Len returns the number of bytes in the string.
func (s *String) Len() int { return len(s.bytes) }

// HashBytes computes the FNV-1a-style 32-bit hash spec.md §3 mandates for
// String objects, over raw bytes so that hashing never depends on encoding
// assumptions (spec.md §1 Non-goals: no Unicode-aware semantics).
func HashBytes(b []byte) uint32 {
	var hash uint32 = 2166136261
	for _, c := range b {
		hash ^= uint32(c)
		hash *= 16777619
	}
	return hash
}
