package sections

import (
	"slices"
	"strconv"
	"strings"

	"github.com/sukalov/chordbook/internal/song"
)

// ParseExplicit builds a document from separately edited lyrics (in.Lyrics)
// and chords (in.Chords) texts. Both are cut at [label] lines; a line
// starting with "/" is a deliberate empty line, truly blank lines are
// ignored, and text before the first marker is dropped.
//
// Lyrics labels lose trailing digits and repeats are numbered (Verse,
// Verse2, ...), except for the chorus labels "c" and "C", which repeat
// under the same name. Chords labels are taken as written. A section left
// without chords or lyrics inherits them from its base section.
func ParseExplicit(id int, in song.Input) *song.Document {
	doc := song.New(id, in)

	parseLyrics(doc, in.Lyrics)
	parseChords(doc, in.Chords)

	for _, label := range doc.Content {
		base := song.Base(label)
		if _, ok := doc.Chords[label]; !ok {
			if chords, ok := doc.Chords[base]; ok {
				doc.Chords[label] = slices.Clone(chords)
			}
		}
		if len(doc.Lyrics[label]) == 0 {
			if lyrics, ok := doc.Lyrics[base]; ok {
				doc.Lyrics[label] = slices.Clone(lyrics)
			}
		}
	}

	return doc
}

func parseLyrics(doc *song.Document, text string) {
	counts := make(map[string]int)
	// A repeated chorus keeps its earlier lines until the new occurrence
	// brings lines of its own.
	stale := make(map[string]bool)
	current, open := "", false

	for _, line := range splitLines(text) {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if isMarker(line) {
			current, open = lyricsLabel(line, counts), true
			if _, ok := doc.Lyrics[current]; ok {
				stale[current] = true
			} else {
				doc.Lyrics[current] = []string{}
			}
			doc.Content = append(doc.Content, current)
			continue
		}
		if !open {
			continue
		}

		if stale[current] {
			doc.Lyrics[current] = []string{}
			delete(stale, current)
		}
		if line[0] == '/' {
			line = ""
		}
		doc.Lyrics[current] = append(doc.Lyrics[current], line)
	}
}

func lyricsLabel(line string, counts map[string]int) string {
	raw := strings.TrimSpace(line[1 : len(line)-1])
	if raw == "c" || raw == "C" {
		if _, ok := counts[raw]; !ok {
			counts[raw] = 1
		}
		return raw
	}

	label := strings.TrimSpace(strings.TrimRight(raw, digits))
	n, seen := counts[label]
	if !seen {
		counts[label] = 1
		return label
	}
	counts[label] = n + 1
	return label + strconv.Itoa(n+1)
}

func parseChords(doc *song.Document, text string) {
	current, open := "", false

	for _, line := range splitLines(text) {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if isMarker(line) {
			current, open = strings.TrimSpace(line[1:len(line)-1]), true
			doc.Chords[current] = []string{}
			continue
		}
		if !open {
			continue
		}

		if line[0] == '/' {
			line = ""
		}
		doc.Chords[current] = append(doc.Chords[current], line)
	}
}
