package amdm

import (
	"regexp"
	"strings"

	"github.com/sukalov/chordbook/internal/lyrics/keys"
	"github.com/sukalov/chordbook/internal/lyrics/sections"
)

var (
	excessiveBreaks = regexp.MustCompile(`\n{4,}`)
	firstChord      = regexp.MustCompile(`^([A-H](?:#|b)?)(m(?:[^a]|$))?`)
)

// finalCleanup allows at most three consecutive line breaks.
func finalCleanup(lyrics string) string {
	lyrics = excessiveBreaks.ReplaceAllString(lyrics, "\n\n\n")
	return strings.TrimSpace(lyrics)
}

// GuessKey takes the first chord of the first chord line as the key of the
// song: "Am7 F" gives "Am". The German H is read as B. Text without a usable
// chord gives "".
func GuessKey(text string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.Join(strings.Fields(line), " ")
		if line == "" || !sections.IsChordLine(line) {
			continue
		}

		m := firstChord.FindStringSubmatch(line)
		if m == nil {
			return ""
		}
		key := m[1]
		if key[0] == 'H' {
			key = "B" + key[1:]
		}
		if m[2] != "" {
			key += "m"
		}
		if _, err := keys.Interval(key); err != nil {
			return ""
		}
		return key
	}
	return ""
}
