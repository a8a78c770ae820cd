// Package sections turns pasted lyrics-and-chords text into song documents.
//
// Two entry points exist. ParseAuto takes one combined block, as pasted when
// a song is created, and works out section roles and repeats from the
// content. ParseExplicit takes separate lyrics and chords texts, as produced
// by the renderers and edited by hand, and trusts the [label] markers.
package sections

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	// sectionMarker only needs to match at the start of a line.
	sectionMarker = regexp.MustCompile(`^\[[A-Za-z0-9 ]*\]`)

	// chordLine recognises a line made of bare chord tokens. It must stay
	// in step with stored songs, so it is kept exactly as written, including
	// the [maj|sus|dim] character class.
	chordLine = regexp.MustCompile(`^((\s?)*[CDEFGAHB](#|b)?(m?)([maj|sus|dim]?([1-9]?)*(\/[CDEFGAHB](#|b)?(m?))?)*(\s?)*)*$`)

	// blankRun is three or more line breaks, used as an implicit section
	// boundary when the text has no markers at all.
	blankRun = regexp.MustCompile(`(\n\s*){3,}`)

	whitespace = regexp.MustCompile(`[\s\v\p{Z}\x{85}]+`)
)

const digits = "0123456789"

// IsChordLine reports whether line consists only of chord tokens.
func IsChordLine(line string) bool {
	return chordLine.MatchString(line)
}

// splitLines breaks text on every line boundary Unicode knows about and,
// like the usual "splitlines", yields no trailing empty line.
func splitLines(text string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(text); {
		r, size := rune(text[i]), 1
		if r >= 0x80 {
			r, size = utf8.DecodeRuneInString(text[i:])
		}
		if isLineBreak(r) {
			lines = append(lines, text[start:i])
			i += size
			if r == '\r' && i < len(text) && text[i] == '\n' {
				i++
			}
			start = i
			continue
		}
		i += size
	}
	if start < len(text) {
		lines = append(lines, text[start:])
	}
	return lines
}

func isLineBreak(r rune) bool {
	switch r {
	case '\n', '\r', '\v', '\f', 0x1c, 0x1d, 0x1e, 0x85, 0x2028, 0x2029:
		return true
	}
	return false
}

// collapse squeezes every whitespace run to one space and trims the ends.
func collapse(line string) string {
	return strings.TrimSpace(whitespace.ReplaceAllString(line, " "))
}

func isMarker(line string) bool {
	return len(line) >= 2 && line[0] == '[' && line[len(line)-1] == ']'
}
