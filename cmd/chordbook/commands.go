package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"

	"github.com/sukalov/chordbook/internal/logger"
	"github.com/sukalov/chordbook/internal/lyrics"
	"github.com/sukalov/chordbook/internal/lyrics/display"
	"github.com/sukalov/chordbook/internal/song"
	"github.com/sukalov/chordbook/internal/songbook"
	"github.com/sukalov/chordbook/internal/store"
)

// columnsGap separates the lyrics and chords columns of "show --view columns".
const columnsGap = 4

// app is bound into every command.
type app struct {
	ctx     context.Context
	out     io.Writer
	in      io.Reader
	handle  *store.Handle
	service *lyrics.Service
}

func newApp(ctx context.Context, g Globals, out io.Writer) (*app, error) {
	level := zerolog.InfoLevel
	if g.Debug {
		level = zerolog.DebugLevel
	}
	logger.SetLocal(zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.DateTime}).
		Level(level).With().Timestamp().Logger())

	handle, err := store.Open(ctx, g.Store, g.AuthToken)
	if err != nil {
		return nil, fmt.Errorf("failed to open store %s: %w", g.Store, err)
	}

	return &app{
		ctx:     ctx,
		out:     out,
		in:      os.Stdin,
		handle:  handle,
		service: lyrics.NewService(handle, nil, 0),
	}, nil
}

func (a *app) Close() error {
	return a.handle.Close()
}

// readText reads path, or standard input for "-".
func (a *app) readText(path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(a.in)
		return string(data), err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return string(data), nil
}

// MetaFlags set song metadata. Lists are semicolon-separated.
type MetaFlags struct {
	Title         string `help:"Song title"`
	Artist        string `help:"Performer"`
	Group         string `help:"Band, when there is no single performer"`
	LyricsBy      string `name:"lyrics-by" help:"Lyricists"`
	MusicBy       string `name:"music-by" help:"Composers"`
	Key           string `help:"Key as written, e.g. Am or F#"`
	BPM           string `name:"bpm" help:"Tempo"`
	TimeSignature string `name:"time-signature" help:"Time signature, e.g. 3/4"`
	Tuning        string `help:"Guitar tuning"`
	Capo          string `help:"Capo fret"`
	Language      string `help:"Language of the lyrics"`
	Tags          string `help:"Tags"`
}

// apply copies every flag that was set onto in.
func (m MetaFlags) apply(in *song.Input) {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&in.Title, m.Title)
	set(&in.Artist, m.Artist)
	set(&in.Group, m.Group)
	set(&in.LyricsBy, m.LyricsBy)
	set(&in.MusicBy, m.MusicBy)
	set(&in.Key, m.Key)
	set(&in.BPM, m.BPM)
	set(&in.TimeSignature, m.TimeSignature)
	set(&in.Tuning, m.Tuning)
	set(&in.Capo, m.Capo)
	set(&in.Language, m.Language)
	set(&in.Tags, m.Tags)
}

// NewCmd creates a song from one pasted block.
type NewCmd struct {
	File string    `arg:"" optional:"" help:"Text file with lyrics and chord lines, - for stdin" default:"-"`
	ID   int       `help:"Song id; the next free one when 0"`
	Meta MetaFlags `embed:""`
}

func (c *NewCmd) Run(a *app) error {
	text, err := a.readText(c.File)
	if err != nil {
		return err
	}

	in := song.Input{Lyrics: text}
	c.Meta.apply(&in)

	doc, err := a.service.CreateSong(a.ctx, c.ID, in)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "created song %d: %s (%s)\n", doc.ID, songbook.FormatSongName(doc), strings.Join(doc.Content, " "))
	return nil
}

// EditCmd replaces a song from separate lyrics and chords texts. Without
// texts it prints them, ready to edit.
type EditCmd struct {
	ID     int       `arg:"" help:"Song id"`
	Lyrics string    `help:"Lyrics text with [label] markers" type:"existingfile"`
	Chords string    `help:"Chords text with [label] markers" type:"existingfile"`
	Meta   MetaFlags `embed:""`
}

func (c *EditCmd) Run(a *app) error {
	in, err := a.service.EditorInput(a.ctx, c.ID)
	if err != nil {
		return err
	}

	if c.Lyrics == "" && c.Chords == "" {
		fmt.Fprintf(a.out, "%s\n\n---\n\n%s\n", in.Lyrics, in.Chords)
		return nil
	}

	if c.Lyrics != "" {
		if in.Lyrics, err = a.readText(c.Lyrics); err != nil {
			return err
		}
	}
	if c.Chords != "" {
		if in.Chords, err = a.readText(c.Chords); err != nil {
			return err
		}
	}
	c.Meta.apply(&in)

	doc, err := a.service.EditSong(a.ctx, c.ID, in)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "saved song %d: %s (%s)\n", doc.ID, songbook.FormatSongName(doc), strings.Join(doc.Content, " "))
	return nil
}

// ShowCmd prints a song.
type ShowCmd struct {
	ID        int    `arg:"" help:"Song id"`
	View      string `short:"v" help:"lyrics, chords, columns or html" enum:"lyrics,chords,columns,html" default:"lyrics"`
	Transpose int    `short:"t" help:"Semitones to transpose by"`
}

func (c *ShowCmd) Run(a *app) error {
	view, err := display.ParseView(c.View)
	if err != nil {
		return err
	}

	parts, err := a.service.Display(a.ctx, c.ID, view, c.Transpose)
	if err != nil {
		return err
	}

	if view == display.ViewColumns {
		fmt.Fprintln(a.out, display.SideBySide([2]string{parts[0], parts[1]}, columnsGap))
		return nil
	}
	fmt.Fprintln(a.out, parts[0])
	return nil
}

// KeyCmd prints the sounding key.
type KeyCmd struct {
	ID int `arg:"" help:"Song id"`
}

func (c *KeyCmd) Run(a *app) error {
	key, err := a.service.ObjectiveKey(a.ctx, c.ID)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, key)
	return nil
}

// ListCmd prints matching songs, one per line.
type ListCmd struct {
	Search   string   `short:"s" help:"Text to find in title, artist or group"`
	Tag      []string `help:"Only songs with any of these tags"`
	Language string   `help:"Only songs in this language"`
	Sort     string   `help:"title, artist, group, language or id" default:"title"`
	Desc     bool     `help:"Reverse order"`
}

func (c *ListCmd) Run(a *app) error {
	songs, err := a.service.ListSongs(a.ctx, songbook.Query{
		Search:   c.Search,
		Language: c.Language,
		Tags:     c.Tag,
		SortBy:   c.Sort,
		Desc:     c.Desc,
	})
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	for _, doc := range songs {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", doc.ID, songbook.FormatSongName(doc), doc.Key, strings.Join(doc.Tags, ", "))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s songs\n", humanize.Comma(int64(len(songs))))
	return nil
}

// TagsCmd prints every tag.
type TagsCmd struct{}

func (c *TagsCmd) Run(a *app) error {
	tags, err := a.service.Tags(a.ctx)
	if err != nil {
		return err
	}
	for _, tag := range tags {
		fmt.Fprintln(a.out, tag)
	}
	return nil
}

// DeleteCmd deletes a song.
type DeleteCmd struct {
	ID int `arg:"" help:"Song id"`
}

func (c *DeleteCmd) Run(a *app) error {
	if err := a.service.DeleteSong(a.ctx, c.ID); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "deleted song %d\n", c.ID)
	return nil
}

// ImportAmdmCmd imports song pages.
type ImportAmdmCmd struct {
	URLs []string `arg:"" name:"url" help:"Song page URLs"`
}

func (c *ImportAmdmCmd) Run(a *app) error {
	for _, url := range c.URLs {
		doc, err := a.service.Import(a.ctx, url)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "imported song %d: %s\n", doc.ID, songbook.FormatSongName(doc))
	}
	return nil
}

// ImportOpenSongCmd imports OpenSong files.
type ImportOpenSongCmd struct {
	Files []string `arg:"" name:"file" help:"OpenSong XML files" type:"existingfile"`
}

func (c *ImportOpenSongCmd) Run(a *app) error {
	for _, path := range c.Files {
		doc, err := c.importFile(a, path)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "imported song %d: %s\n", doc.ID, songbook.FormatSongName(doc))
	}
	return nil
}

func (c *ImportOpenSongCmd) importFile(a *app, path string) (*song.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	doc, err := a.service.ImportOpenSong(a.ctx, f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// ImportCollectionCmd copies a whole collection into the store.
type ImportCollectionCmd struct {
	File    string `arg:"" help:"songs.json or songs.json.xz" type:"existingfile"`
	Replace bool   `help:"Drop every stored song first"`
}

func (c *ImportCollectionCmd) Run(a *app) error {
	songs, err := songbook.ReadFile(c.File)
	if err != nil {
		return err
	}

	importFn := a.service.ImportCollection
	if c.Replace {
		importFn = a.service.ReplaceCollection
	}
	n, err := importFn(a.ctx, songs)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "imported %s songs from %s\n", humanize.Comma(int64(n)), c.File)
	return nil
}

// ExportCmd writes the songbook to a collection file.
type ExportCmd struct {
	Out string `arg:"" help:"Output path; .xz compresses" type:"path"`
}

func (c *ExportCmd) Run(a *app) error {
	songs, err := a.service.ListSongs(a.ctx, songbook.Query{SortBy: songbook.SortID})
	if err != nil {
		return err
	}
	if err := songbook.WriteFile(c.Out, songs); err != nil {
		return err
	}

	info, err := os.Stat(c.Out)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "exported %s songs to %s (%s)\n",
		humanize.Comma(int64(len(songs))), c.Out, humanize.Bytes(uint64(info.Size())))
	return nil
}
