// Package display renders stored song documents as text for reading and
// playing: lyrics only, chords only, two aligned columns, or HTML markup
// with chords placed over the lyrics.
package display

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/sukalov/chordbook/internal/lyrics/keys"
	"github.com/sukalov/chordbook/internal/song"
)

// ErrMissingSection matches every *SectionError.
var ErrMissingSection = errors.New("section missing from lyrics")

// SectionError reports a content entry that has no lyrics section.
type SectionError struct {
	SongID  int
	Section string
}

func (e *SectionError) Error() string {
	return fmt.Sprintf("song %d: section %q missing from lyrics", e.SongID, e.Section)
}

func (e *SectionError) Is(target error) bool {
	return target == ErrMissingSection
}

// View names one of the renderings.
type View string

const (
	ViewLyrics  View = "lyrics"
	ViewChords  View = "chords"
	ViewColumns View = "columns"
	ViewHTML    View = "html"
)

// ParseView accepts a view name as typed by a user.
func ParseView(s string) (View, error) {
	switch v := View(strings.ToLower(strings.TrimSpace(s))); v {
	case ViewLyrics, ViewChords, ViewColumns, ViewHTML:
		return v, nil
	case "":
		return ViewLyrics, nil
	}
	return "", fmt.Errorf("unknown view %q", s)
}

// chorusCapo is the shift applied to chorus chords in the columns view.
const chorusCapo = 3

var (
	chordToken = regexp.MustCompile(`([^\s]+)`)
	number     = regexp.MustCompile(`\d+`)
)

// Renderer resolves songs through a store and renders them.
type Renderer struct {
	store song.Getter
}

func NewRenderer(store song.Getter) *Renderer {
	return &Renderer{store: store}
}

func (r *Renderer) Lyrics(ctx context.Context, id, n int) (string, error) {
	doc, err := r.get(ctx, id)
	if err != nil {
		return "", err
	}
	return RenderLyrics(doc, n)
}

func (r *Renderer) Chords(ctx context.Context, id, n int) (string, error) {
	doc, err := r.get(ctx, id)
	if err != nil {
		return "", err
	}
	return RenderChords(doc, n)
}

func (r *Renderer) Columns(ctx context.Context, id int) ([2]string, error) {
	doc, err := r.get(ctx, id)
	if err != nil {
		return [2]string{}, err
	}
	return RenderColumns(doc)
}

func (r *Renderer) HTML(ctx context.Context, id, n int) (string, error) {
	doc, err := r.get(ctx, id)
	if err != nil {
		return "", err
	}
	return RenderHTML(doc, n)
}

func (r *Renderer) get(ctx context.Context, id int) (*song.Document, error) {
	doc, err := r.store.GetSong(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get song %d: %w", id, err)
	}
	return doc, nil
}

// Render produces view for doc. Columns yields two strings, every other view
// one.
func Render(doc *song.Document, view View, n int) ([]string, error) {
	switch view {
	case ViewLyrics:
		out, err := RenderLyrics(doc, n)
		return []string{out}, err
	case ViewChords:
		out, err := RenderChords(doc, n)
		return []string{out}, err
	case ViewColumns:
		cols, err := RenderColumns(doc)
		return cols[:], err
	case ViewHTML:
		out, err := RenderHTML(doc, n)
		return []string{out}, err
	}
	return nil, fmt.Errorf("unknown view %q", view)
}

func checkSections(doc *song.Document) error {
	for _, id := range doc.Content {
		if _, ok := doc.Lyrics[id]; !ok {
			return &SectionError{SongID: doc.ID, Section: id}
		}
	}
	return nil
}

func roleOf(id string) song.Role {
	return song.ParseSectionID(id).Role
}

// RenderLyrics prints every section header with its lyric lines. A section
// whose lyrics repeat its base section, or a base section already printed,
// keeps only the header. Intro lines are transposed by n.
func RenderLyrics(doc *song.Document, n int) (string, error) {
	if err := checkSections(doc); err != nil {
		return "", err
	}

	var b strings.Builder
	for i, id := range doc.Content {
		b.WriteString("[" + id + "]")

		lines := doc.Lyrics[id]
		base := song.Base(id)
		if baseLines, ok := doc.Lyrics[base]; ok && slices.Equal(lines, baseLines) &&
			(id != base || slices.Contains(doc.Content[:i], base)) {
			b.WriteString("\n\n")
			continue
		}

		for _, line := range lines {
			if roleOf(id) == song.RoleIntro {
				var err error
				if line, err = keys.Transpose(line, doc.Key, n); err != nil {
					return "", err
				}
			}
			b.WriteString("\n" + line)
			if line == "" {
				b.WriteString("\n")
			}
		}
		b.WriteString("\n\n")
	}

	return strings.TrimSpace(b.String()), nil
}

// RenderChords prints the chord lines of every verse and chorus, transposed
// by n. Numbered copies that repeat their base chords are left out.
func RenderChords(doc *song.Document, n int) (string, error) {
	if err := checkSections(doc); err != nil {
		return "", err
	}

	var b strings.Builder
	for _, id := range doc.Content {
		if role := roleOf(id); id == "" || role == song.RoleIntro || role == song.RoleTab {
			continue
		}
		chords, ok := doc.Chords[id]
		if !ok {
			continue
		}
		base := song.Base(id)
		if baseChords, ok := doc.Chords[base]; ok && id != base && slices.Equal(chords, baseChords) {
			continue
		}

		b.WriteString("[" + id + "]")
		for _, line := range chords {
			line, err := keys.Transpose(line, doc.Key, n)
			if err != nil {
				return "", err
			}
			b.WriteString("\n" + line)
		}
		b.WriteString("\n\n")
	}

	return strings.TrimSpace(b.String()), nil
}

// RenderColumns returns lyrics and chords as two texts with matching line
// numbers. Each lyric line takes the next chord line of its section, wrapping
// to the first one when the section runs out. Empty and "!" lines get no
// chords. Chorus lines are indented and their chords moved up three
// semitones.
func RenderColumns(doc *song.Document) ([2]string, error) {
	if err := checkSections(doc); err != nil {
		return [2]string{}, err
	}

	var lyrics, chords []string
	for i, id := range doc.Content {
		if i > 0 {
			lyrics = append(lyrics, "")
			chords = append(chords, "")
		}

		role := roleOf(id)
		if role != song.RoleVerse && role != song.RoleChorus {
			for _, line := range doc.Lyrics[id] {
				lyrics = append(lyrics, line)
				chords = append(chords, "")
			}
			continue
		}

		sectionChords := doc.Chords[id]
		counter := 0
		for _, line := range doc.Lyrics[id] {
			cleaned := strings.NewReplacer("|", "", "!", "").Replace(line)
			if role == song.RoleChorus {
				cleaned = "\t" + cleaned
			}
			lyrics = append(lyrics, cleaned)

			if len(sectionChords) == 0 || line == "" || line[0] == '!' {
				chords = append(chords, "")
				continue
			}
			if counter > len(sectionChords)-1 {
				counter = 0
			}
			chord := sectionChords[counter]
			counter++
			if role == song.RoleChorus {
				var err error
				if chord, err = keys.Transpose(chord, doc.Key, chorusCapo); err != nil {
					return [2]string{}, err
				}
			}
			chords = append(chords, chord)
		}
	}

	return [2]string{
		strings.TrimSpace(strings.Join(lyrics, "\n")),
		strings.TrimRight(strings.Join(chords, "\n"), " \t\n\r\v\f"),
	}, nil
}

// RenderHTML returns the song as markup: intro lines in <b>, tab sections
// as an <img> of the tab, and verse and chorus lines under a <b> line of
// <code> chords, placed at the "|" marks of the lyric line. Within a section
// each lyric line takes the next chord line until the last one, which then
// repeats. Lines starting with "(" are a second voice and get no chords.
func RenderHTML(doc *song.Document, n int) (string, error) {
	if err := checkSections(doc); err != nil {
		return "", err
	}

	var b strings.Builder
	for _, id := range doc.Content {
		switch role := roleOf(id); role {
		case song.RoleIntro:
			for _, line := range doc.Lyrics[id] {
				line, err := keys.Transpose(line, doc.Key, n)
				if err != nil {
					return "", err
				}
				b.WriteString("\n<b>" + line + "</b>")
			}

		case song.RoleTab:
			fmt.Fprintf(&b, "\n<img src=\"%s\" alt=\"missing tab\">", TabImage(doc.Title, id))

		case song.RoleVerse, song.RoleChorus:
			indent := ""
			if role == song.RoleChorus {
				indent = "\t"
			}
			chordsID := id
			if _, ok := doc.Chords[chordsID]; !ok {
				chordsID = song.Base(id)
			}
			sectionChords := doc.Chords[chordsID]
			counter := -1

			for _, line := range doc.Lyrics[id] {
				switch {
				case line == "" || line[0] == '!':
					b.WriteString("\n")
				case line[0] == '(':
					b.WriteString("\n<i>" + strings.ReplaceAll(line, "|", "") + "</i>")
				default:
					if len(sectionChords) > 0 {
						if counter < len(sectionChords)-1 {
							counter++
						}
						chord, err := keys.Transpose(sectionChords[counter], doc.Key, n)
						if err != nil {
							return "", err
						}
						chord = chordToken.ReplaceAllString(ChordsToScheme(chord, line), "<code>${1}</code>")
						b.WriteString("\n<b>" + indent + chord + "</b>")
					}
					b.WriteString("\n" + indent + strings.ReplaceAll(line, "|", ""))
				}
			}
		}
		b.WriteString("\n")
	}

	return strings.TrimSpace(b.String()), nil
}

// TabImage is the path of the tab picture for section id of a song titled
// title: static/tab/<title_slug>_<number>.svg.
func TabImage(title, id string) string {
	num := number.FindString(id)
	if num == "" {
		num = "0"
	}
	return fmt.Sprintf("static/tab/%s_%s.svg", strings.ReplaceAll(strings.ToLower(title), " ", "_"), num)
}

// ChordsToScheme spreads the space-separated chords of chordLine over the
// "|" marks of lyricsLine, so each chord starts above its mark. Marks beyond
// the chords reuse them from the start; chords beyond the marks are appended.
// Without marks chordLine is returned unchanged.
func ChordsToScheme(chordLine, lyricsLine string) string {
	if !strings.Contains(lyricsLine, "|") {
		return chordLine
	}

	split := strings.Split(chordLine, " ")
	var b strings.Builder
	tooRight, counter := 0, 0

	for _, r := range lyricsLine {
		if r != '|' {
			if tooRight > 0 {
				tooRight--
			} else {
				b.WriteByte(' ')
			}
			continue
		}
		chord := split[counter%len(split)]
		b.WriteString(chord + " ")
		tooRight += len([]rune(chord)) + 1
		counter++
	}

	for ; counter < len(split); counter++ {
		b.WriteString(split[counter] + " ")
	}

	return b.String()
}

// SideBySide lays the two column texts next to each other, padding lyrics
// to the widest line plus gap spaces.
func SideBySide(cols [2]string, gap int) string {
	left := strings.Split(cols[0], "\n")
	right := strings.Split(cols[1], "\n")

	width := 0
	for _, l := range left {
		width = max(width, len([]rune(expandTabs(l))))
	}

	lines := make([]string, max(len(left), len(right)))
	for i := range lines {
		var l, r string
		if i < len(left) {
			l = expandTabs(left[i])
		}
		if i < len(right) {
			r = right[i]
		}
		if r == "" {
			lines[i] = strings.TrimRight(l, " ")
			continue
		}
		lines[i] = l + strings.Repeat(" ", width-len([]rune(l))+gap) + r
	}
	return strings.Join(lines, "\n")
}

func expandTabs(s string) string {
	return strings.ReplaceAll(s, "\t", "    ")
}
