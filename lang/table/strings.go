package table

import "github.com/drdynamic/piscript/lang/value"

// Strings is the VM's intern set: the single source of truth for string
// identity, so that value.Equal's reference-equality shortcut for
// strings is actually correct (spec.md §3 "every String reachable from
// the VM is interned").
type Strings struct {
	table Table[bool]
}

// Intern returns the canonical *value.String for the given bytes,
// allocating and registering a new one only if no equal string has been
// interned yet. copyBytes controls whether b is copied into a fresh
// backing array first (true, when b aliases memory the caller may
// reuse or mutate) or retained as the new String's backing array as is
// (false, when the caller hands over a buffer it owns). isNew reports
// whether a new String was allocated, so callers that track heap size
// (lang/vm's GC heuristic) know whether to charge for it.
func (s *Strings) Intern(b []byte, copyBytes bool) (str *value.String, isNew bool) {
	hash := value.HashBytes(b)
	if existing := s.table.FindString(b, hash); existing != nil {
		return existing, false
	}
	owned := b
	if copyBytes {
		owned = make([]byte, len(b))
		copy(owned, b)
	}
	newStr := value.NewString(owned, hash)
	s.table.Set(newStr, true)
	return newStr, true
}

// RemoveWhite drops every unmarked string from the intern set; the VM's
// collector calls this right before sweeping so a freed string can never
// be returned again by Intern (spec.md §4.7).
func (s *Strings) RemoveWhite() { s.table.RemoveWhite() }

// Count reports how many strings are currently interned.
func (s *Strings) Count() int { return s.table.Count() }
