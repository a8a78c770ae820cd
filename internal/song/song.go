// Package song holds the song document shared by the parser, the renderer
// and the stores, together with the store contract.
package song

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"maps"
	"slices"
	"strings"

	"github.com/zeebo/blake3"
)

// ErrNotFound is returned by stores for an unknown song id.
var ErrNotFound = errors.New("song not found")

// Document is the canonical song structure. Field names match songs.json.
type Document struct {
	ID            int                 `json:"id"`
	Title         string              `json:"title"`
	Artist        string              `json:"artist"`
	Group         string              `json:"group"`
	LyricsBy      []string            `json:"lyricsby"`
	MusicBy       []string            `json:"musicby"`
	Key           string              `json:"key"`
	BPM           string              `json:"bpm"`
	TimeSignature string              `json:"timeSignature"`
	Tuning        string              `json:"tuning"`
	Capo          string              `json:"capo"`
	Language      string              `json:"language"`
	Tags          []string            `json:"tags"`
	Content       []string            `json:"content"`
	Lyrics        map[string][]string `json:"lyrics"`
	Chords        map[string][]string `json:"chords"`
}

// Input is what an editor hands to the parser. List fields are
// semicolon-delimited. For the auto-detect pipeline Lyrics carries the whole
// pasted block and Chords is ignored.
type Input struct {
	Title         string
	Artist        string
	Group         string
	LyricsBy      string
	MusicBy       string
	Key           string
	BPM           string
	TimeSignature string
	Tuning        string
	Capo          string
	Language      string
	Tags          string
	Lyrics        string
	Chords        string
}

// New returns an empty document with metadata copied from in.
func New(id int, in Input) *Document {
	return &Document{
		ID:            id,
		Title:         in.Title,
		Artist:        in.Artist,
		Group:         in.Group,
		LyricsBy:      SplitList(in.LyricsBy),
		MusicBy:       SplitList(in.MusicBy),
		Key:           in.Key,
		BPM:           in.BPM,
		TimeSignature: in.TimeSignature,
		Tuning:        in.Tuning,
		Capo:          in.Capo,
		Language:      in.Language,
		Tags:          SplitList(in.Tags),
		Content:       []string{},
		Lyrics:        map[string][]string{},
		Chords:        map[string][]string{},
	}
}

// SplitList turns "a; b;c" into [a b c]. Items are only trimmed, so
// "a;;b" keeps an empty middle item.
func SplitList(s string) []string {
	if s == "" {
		return []string{}
	}
	out := strings.Split(s, ";")
	for i, item := range out {
		out[i] = strings.TrimSpace(item)
	}
	return out
}

// JoinList is the inverse of SplitList.
func JoinList(items []string) string {
	return strings.Join(items, "; ")
}

// Clone returns a deep copy of d.
func (d *Document) Clone() *Document {
	c := *d
	c.LyricsBy = slices.Clone(d.LyricsBy)
	c.MusicBy = slices.Clone(d.MusicBy)
	c.Tags = slices.Clone(d.Tags)
	c.Content = slices.Clone(d.Content)
	c.Lyrics = cloneSections(d.Lyrics)
	c.Chords = cloneSections(d.Chords)
	return &c
}

func cloneSections(m map[string][]string) map[string][]string {
	if m == nil {
		return nil
	}
	out := maps.Clone(m)
	for k, v := range out {
		out[k] = slices.Clone(v)
	}
	return out
}

// Fingerprint is the blake3 hex digest of the JSON form of d. Two documents
// with equal content always share a fingerprint.
func (d *Document) Fingerprint() string {
	// encoding/json sorts map keys, so the encoding is stable.
	data, err := json.Marshal(d)
	if err != nil {
		return ""
	}
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Input reconstructs editor input from d. Lyrics and Chords are left empty;
// renderers produce those.
func (d *Document) Input() Input {
	return Input{
		Title:         d.Title,
		Artist:        d.Artist,
		Group:         d.Group,
		LyricsBy:      JoinList(d.LyricsBy),
		MusicBy:       JoinList(d.MusicBy),
		Key:           d.Key,
		BPM:           d.BPM,
		TimeSignature: d.TimeSignature,
		Tuning:        d.Tuning,
		Capo:          d.Capo,
		Language:      d.Language,
		Tags:          JoinList(d.Tags),
	}
}

// Getter is the read side the renderer needs.
type Getter interface {
	GetSong(ctx context.Context, id int) (*Document, error)
}

// Store is a full song collection.
type Store interface {
	Getter
	ListSongs(ctx context.Context) ([]*Document, error)
	// SaveSong inserts doc or overwrites the song with its id.
	SaveSong(ctx context.Context, doc *Document) error
	// AddSong stores doc under the next free id and returns that id. Id
	// allocation and the write happen together, so concurrent calls never
	// share an id.
	AddSong(ctx context.Context, doc *Document) (int, error)
	DeleteSong(ctx context.Context, id int) error
	// ReplaceAll swaps the whole collection for songs.
	ReplaceAll(ctx context.Context, songs []*Document) error
}
