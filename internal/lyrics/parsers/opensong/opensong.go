// Package opensong reads OpenSong song files.
package opensong

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"
	"github.com/sukalov/chordbook/internal/song"
)

// ErrNotOpenSong is returned for XML without a <song> root.
var ErrNotOpenSong = errors.New("not an OpenSong file")

var songRoot = xpath.MustCompile("/song")

// fields maps OpenSong elements onto editor input.
var fields = []struct {
	expr *xpath.Expr
	set  func(*song.Input, string)
}{
	{xpath.MustCompile("title"), func(in *song.Input, v string) { in.Title = v }},
	{xpath.MustCompile("author"), func(in *song.Input, v string) { in.Artist = v }},
	{xpath.MustCompile("key"), func(in *song.Input, v string) { in.Key = v }},
	{xpath.MustCompile("capo"), func(in *song.Input, v string) { in.Capo = v }},
	{xpath.MustCompile("tempo"), func(in *song.Input, v string) { in.BPM = v }},
	{xpath.MustCompile("time_sig"), func(in *song.Input, v string) { in.TimeSignature = v }},
	{xpath.MustCompile("theme"), func(in *song.Input, v string) { in.Tags = v }},
	{xpath.MustCompile("lyrics"), func(in *song.Input, v string) { in.Lyrics = ConvertLyrics(v) }},
}

// Parse reads one OpenSong file into input for the auto-detect pipeline.
func Parse(r io.Reader) (song.Input, error) {
	doc, err := xmlquery.Parse(r)
	if err != nil {
		return song.Input{}, fmt.Errorf("failed to parse xml: %w", err)
	}

	root := xmlquery.QuerySelector(doc, songRoot)
	if root == nil {
		return song.Input{}, ErrNotOpenSong
	}

	var in song.Input
	for _, f := range fields {
		if node := xmlquery.QuerySelector(root, f.expr); node != nil {
			f.set(&in, strings.TrimSpace(node.InnerText()))
		}
	}
	return in, nil
}

// ConvertLyrics rewrites an OpenSong lyrics block in the pasted-text form:
// "[V1]" markers stay, "." chord lines lose the dot, lyric lines lose the
// leading space, verse digit and the "_" and "|" joiners, and ";" comments
// and blank lines are dropped.
func ConvertLyrics(text string) string {
	var out []string
	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		line = strings.TrimRight(line, " \t\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		switch line[0] {
		case ';':
			continue
		case '[':
			out = append(out, strings.TrimSpace(line))
		case '.':
			out = append(out, strings.TrimSpace(line[1:]))
		default:
			if line[0] >= '1' && line[0] <= '9' {
				line = line[1:]
			}
			line = strings.NewReplacer("_", "", "|", "").Replace(line)
			if line = strings.Join(strings.Fields(line), " "); line != "" {
				out = append(out, line)
			}
		}
	}
	return strings.Join(out, "\n")
}
