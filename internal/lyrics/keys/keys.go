// Package keys transposes chord symbols between musical keys.
package keys

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ErrUnknownKey is returned when a key name has no entry in the interval table.
var ErrUnknownKey = errors.New("unknown key")

// intervals maps every accepted root spelling to its pitch class, C = 0.
var intervals = map[string]int{
	"C": 0, "C#": 1, "Db": 1, "D": 2, "D#": 3, "Eb": 3,
	"E": 4, "Fb": 4, "E#": 5, "F": 5, "F#": 6, "Gb": 6,
	"G": 7, "G#": 8, "Ab": 8, "A": 9, "A#": 10, "Bb": 10,
	"B": 11, "Cb": 11, "B#": 0,
}

var (
	sharpScale = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}
	flatScale  = [12]string{"C", "Db", "D", "Eb", "E", "F", "Gb", "G", "Ab", "A", "Bb", "B"}
)

var (
	sharpKeys = setOf(
		"C", "G", "D", "A", "E", "B", "F#", "C#",
		"Am", "Em", "Bm", "F#m", "C#m", "G#m", "D#m", "A#m",
	)
	flatKeys = setOf(
		"F", "Bb", "Eb", "Ab", "Db", "Gb", "Cb",
		"Dm", "Gm", "Cm", "Fm", "Bbm", "Ebm", "Abm",
	)
)

// chordRoot matches a root letter with optional accidental (group 1) and
// the rest of the token (group 2), which is carried over untouched.
var chordRoot = regexp.MustCompile(`\b([A-G](?:#|b)?)([^ \n]*)`)

func setOf(names ...string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return set
}

// KeyTable returns the chromatic scale spelled the way key prefers.
// Keys outside both whitelists get sharps.
func KeyTable(key string) [12]string {
	switch {
	case sharpKeys[key]:
		return sharpScale
	case flatKeys[key]:
		return flatScale
	}
	return sharpScale
}

// Interval returns the pitch class of a key's tonic. A trailing "m" is
// ignored and the empty key means C.
func Interval(key string) (int, error) {
	if key == "" {
		key = "C"
	}
	i, ok := intervals[strings.TrimRight(key, "m")]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
	return i, nil
}

// Transpose shifts every chord root in line by n semitones and respells it
// with the table of key. The key only selects the spelling table; the new
// pitch is (pitch + n) mod 12. Text that is not a chord root is left alone.
func Transpose(line, key string, n int) (string, error) {
	if key == "" {
		key = "C"
	}
	if _, err := Interval(key); err != nil {
		return "", err
	}

	shift := ((n % 12) + 12) % 12
	if shift == 0 {
		return line, nil
	}
	table := KeyTable(key)

	matches := chordRoot.FindAllStringSubmatchIndex(line, -1)
	if len(matches) == 0 {
		return line, nil
	}

	var b strings.Builder
	b.Grow(len(line) + len(matches))
	last := 0
	for _, m := range matches {
		root := line[m[2]:m[3]]
		pitch := intervals[root]
		b.WriteString(line[last:m[2]])
		b.WriteString(table[(pitch+shift)%12])
		b.WriteString(line[m[4]:m[5]])
		last = m[1]
	}
	b.WriteString(line[last:])

	return b.String(), nil
}

// ObjectiveKey is the sounding key of a song played in key with a capo on
// fret capo. A missing key gives "-"; a capo that is not a number counts as 0.
func ObjectiveKey(key, capo string) (string, error) {
	if key == "" {
		return "-", nil
	}
	frets, err := strconv.Atoi(strings.TrimSpace(capo))
	if err != nil {
		frets = 0
	}
	return Transpose(key, key, frets)
}
