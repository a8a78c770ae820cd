package sections

import (
	"slices"
	"strconv"
	"strings"

	"github.com/sukalov/chordbook/internal/song"
)

// section is the working record of one block while the auto pipeline runs.
type section struct {
	label   string
	content []string
	lyrics  []string
	chords  []string
	role    song.Role
	id      string
}

// ParseAuto builds a document from one pasted block of lyrics and chords
// (in.Lyrics). It never fails: text without markers is cut into sections
// at runs of blank lines, and anything that is not a chord line is lyrics.
func ParseAuto(id int, in song.Input) *song.Document {
	secs := splitIntoSections(in.Lyrics)
	secs = redefineSections(secs)
	nameSections(secs)
	deleteRepetitions(secs)

	doc := song.New(id, in)
	for _, s := range secs {
		doc.Content = append(doc.Content, s.id)
		doc.Lyrics[s.id] = s.lyrics
		doc.Chords[s.id] = s.chords
	}
	return doc
}

// splitIntoSections cuts text at [label] lines. Only the first character of
// the label is kept; it is the role hint.
func splitIntoSections(text string) []*section {
	if !strings.Contains(text, "[") || !strings.Contains(text, "]") {
		text = blankRun.ReplaceAllString(text, "\n[]\n")
	}

	var secs []*section
	for _, line := range splitLines(text) {
		if strings.TrimSpace(line) == "" {
			continue
		}
		line = collapse(line)

		if sectionMarker.MatchString(line) {
			label := strings.TrimSpace(line[1:len(line)-1]) + " "
			secs = append(secs, &section{label: label[:1]})
			continue
		}

		if len(secs) == 0 {
			secs = append(secs, &section{label: " "})
		}
		last := secs[len(secs)-1]
		last.content = append(last.content, line)
	}

	return slices.DeleteFunc(secs, func(s *section) bool {
		return len(s.content) == 0
	})
}

// redefineSections sorts each raw line into chords or lyrics. Chords are
// padded with empty lines so a chord line sits at the index of the lyric
// line it precedes. A section made only of chord lines is an instrumental
// part and keeps them as lyrics.
func redefineSections(secs []*section) []*section {
	for _, s := range secs {
		s.chords = []string{}
		s.lyrics = []string{}

		for _, line := range s.content {
			if IsChordLine(line) {
				for len(s.chords) < len(s.lyrics) {
					s.chords = append(s.chords, "")
				}
				s.chords = append(s.chords, line)
			} else {
				s.lyrics = append(s.lyrics, line)
			}
		}

		if len(s.lyrics) == 0 {
			s.lyrics, s.chords = s.chords, []string{}
		}
	}

	return slices.DeleteFunc(secs, func(s *section) bool {
		return len(s.lyrics) == 0 && len(s.chords) == 0
	})
}

// seenSection is what earlier sections contribute to naming later ones.
type seenSection struct {
	lyrics []string
	chords []string
	id     string
	role   song.Role
}

// nameSections gives every section its final identifier.
//
// Roles come from the label hint, or are guessed: no chords means an
// intro. A section identical to an earlier one (lyrics and chords) makes
// both of them choruses and reuses the earlier identifier. A section that
// only shares the chords of an earlier one becomes a numbered copy of it
// (v -> v2, v3, ...), so renderers can fall back to the base chords.
// Sections without chords are numbered only after an earlier chordless
// section of the same role, so a tab never turns into an intro. Any other
// section gets the first free identifier of its role:
// v, va, vb, ..., vz, vaa, vab, ...
func nameSections(secs []*section) {
	for i, s := range secs {
		s.role = song.Role(strings.ToLower(s.label)[0])
		if !s.role.Known() {
			if len(s.chords) == 0 {
				s.role = song.RoleIntro
			} else {
				s.role = song.RoleVerse
			}
		}

		for _, prev := range secs[:i] {
			if sameSection(s, prev.lyrics, prev.chords) {
				prev.role = song.RoleChorus
				s.role = song.RoleChorus
				break
			}
		}
	}

	used := make(map[string]int)
	seen := make([]seenSection, 0, len(secs))

	for _, s := range secs {
		if p := findSeen(seen, func(prev seenSection) bool { return sameSection(s, prev.lyrics, prev.chords) }); p != nil {
			s.id = p.id
		} else if p := findSeen(seen, func(prev seenSection) bool { return sharesChords(s, prev) }); p != nil {
			base := song.ParseSectionID(p.id).Base().String()
			used[base]++
			s.id = base + strconv.Itoa(used[base])
		} else {
			s.id = freeID(s.role, used)
			used[s.id] = 1
		}

		seen = append(seen, seenSection{lyrics: s.lyrics, chords: s.chords, id: s.id, role: s.role})
	}
}

func sharesChords(s *section, prev seenSection) bool {
	if !slices.Equal(s.chords, prev.chords) {
		return false
	}
	return len(s.chords) > 0 || s.role == prev.role
}

func sameSection(s *section, lyrics, chords []string) bool {
	return slices.Equal(s.lyrics, lyrics) && slices.Equal(s.chords, chords)
}

func findSeen(seen []seenSection, match func(seenSection) bool) *seenSection {
	for i := range seen {
		if match(seen[i]) {
			return &seen[i]
		}
	}
	return nil
}

// freeID returns the first identifier of role not in used.
func freeID(role song.Role, used map[string]int) string {
	prefix := song.SectionID{Role: role}.String()
	for n := 0; ; n++ {
		id := prefix + suffix(n)
		if _, taken := used[id]; !taken {
			return id
		}
	}
}

// suffix maps 0, 1, 2, ... to "", "a", "b", ..., "z", "aa", "ab", ...
func suffix(n int) string {
	var b []byte
	for n > 0 {
		n--
		b = append(b, byte('a'+n%26))
		n /= 26
	}
	slices.Reverse(b)
	return string(b)
}

// deleteRepetitions drops trailing chord lines that repeat the one before.
func deleteRepetitions(secs []*section) {
	for _, s := range secs {
		for len(s.chords) > 1 && s.chords[len(s.chords)-1] == s.chords[len(s.chords)-2] {
			s.chords = s.chords[:len(s.chords)-1]
		}
	}
}
