package song

import "strings"

// Role is the first byte of a section identifier.
type Role byte

const (
	RoleVerse  Role = 'v'
	RoleChorus Role = 'c'
	RoleIntro  Role = 'i'
	RoleTab    Role = 's'
)

// Known reports whether r is one of the four roles the renderers handle.
func (r Role) Known() bool {
	switch r {
	case RoleVerse, RoleChorus, RoleIntro, RoleTab:
		return true
	}
	return false
}

// SectionID is a section identifier split into role and tie-breaker.
type SectionID struct {
	Role   Role
	Suffix string
}

// ParseSectionID splits id. The empty id has a zero Role.
func ParseSectionID(id string) SectionID {
	if id == "" {
		return SectionID{}
	}
	return SectionID{Role: Role(id[0]), Suffix: id[1:]}
}

func (s SectionID) String() string {
	if s.Role == 0 {
		return s.Suffix
	}
	return string([]byte{byte(s.Role)}) + s.Suffix
}

// Base is the identifier whose lyrics and chords a numbered copy inherits.
func (s SectionID) Base() SectionID {
	return SectionID{Role: s.Role, Suffix: strings.TrimRight(s.Suffix, digits)}
}

const digits = "0123456789"

// Base strips trailing digits from a stored identifier: "vb2" -> "vb".
func Base(id string) string {
	return strings.TrimRight(id, digits)
}
