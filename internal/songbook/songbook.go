package songbook

import (
	"slices"
	"strings"

	"github.com/sukalov/chordbook/internal/song"
)

// Query narrows and orders a song list. Zero fields do not filter.
type Query struct {
	Search   string
	Language string
	Tags     []string
	SortBy   string
	Desc     bool
}

// Sort fields accepted by Query.SortBy.
const (
	SortTitle    = "title"
	SortArtist   = "artist"
	SortGroup    = "group"
	SortLanguage = "language"
	SortID       = "id"
)

// Filter returns the songs matching q, in the order q asks for. Search looks
// at title, artist and group; every match is case-insensitive and a song
// needs only one of the requested tags. An unknown sort field keeps the
// input order.
func Filter(songs []*song.Document, q Query) []*song.Document {
	out := make([]*song.Document, 0, len(songs))

	search := strings.ToLower(q.Search)
	language := strings.ToLower(q.Language)
	tags := make([]string, len(q.Tags))
	for i, t := range q.Tags {
		tags[i] = strings.ToLower(t)
	}

	for _, s := range songs {
		if s == nil {
			continue
		}
		if search != "" && !containsFold(search, s.Title, s.Artist, s.Group) {
			continue
		}
		if language != "" && !strings.Contains(strings.ToLower(s.Language), language) {
			continue
		}
		if len(tags) > 0 && !hasAnyTag(s, tags) {
			continue
		}
		out = append(out, s)
	}

	sortBy := q.SortBy
	if sortBy == "" {
		sortBy = SortTitle
	}
	if sortBy == SortID {
		slices.SortStableFunc(out, func(a, b *song.Document) int { return a.ID - b.ID })
	} else if field := sortField(sortBy); field != nil {
		slices.SortStableFunc(out, func(a, b *song.Document) int {
			return strings.Compare(strings.ToLower(field(a)), strings.ToLower(field(b)))
		})
	}

	if q.Desc {
		slices.Reverse(out)
	}
	return out
}

func sortField(name string) func(*song.Document) string {
	switch name {
	case SortTitle:
		return func(d *song.Document) string { return d.Title }
	case SortArtist:
		return func(d *song.Document) string { return d.Artist }
	case SortGroup:
		return func(d *song.Document) string { return d.Group }
	case SortLanguage:
		return func(d *song.Document) string { return d.Language }
	}
	return nil
}

func containsFold(term string, fields ...string) bool {
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), term) {
			return true
		}
	}
	return false
}

func hasAnyTag(s *song.Document, tags []string) bool {
	for _, t := range s.Tags {
		if slices.Contains(tags, strings.ToLower(t)) {
			return true
		}
	}
	return false
}

// Tags lists every tag used in songs, lowercased and sorted.
func Tags(songs []*song.Document) []string {
	seen := make(map[string]bool)
	var tags []string
	for _, s := range songs {
		if s == nil {
			continue
		}
		for _, t := range s.Tags {
			t = strings.ToLower(t)
			if t != "" && !seen[t] {
				seen[t] = true
				tags = append(tags, t)
			}
		}
	}
	slices.Sort(tags)
	return tags
}

// FindSongByID looks id up in songs.
func FindSongByID(songs []*song.Document, id int) (*song.Document, bool) {
	for _, s := range songs {
		if s != nil && s.ID == id {
			return s, true
		}
	}
	return nil, false
}

// SongsByIDs keeps the songs whose id is in ids, in collection order.
func SongsByIDs(songs []*song.Document, ids []int) []*song.Document {
	var out []*song.Document
	for _, s := range songs {
		if s != nil && slices.Contains(ids, s.ID) {
			out = append(out, s)
		}
	}
	return out
}

// NextID is one past the largest id in songs, or 1 for none.
func NextID(songs []*song.Document) int {
	next := 1
	for _, s := range songs {
		if s != nil && s.ID >= next {
			next = s.ID + 1
		}
	}
	return next
}

func FormatSongName(s *song.Document) string {
	var parts []string
	if s.Artist != "" {
		parts = append(parts, s.Artist+" - ")
	} else if s.Group != "" {
		parts = append(parts, s.Group+" - ")
	}
	parts = append(parts, s.Title)

	return strings.TrimSpace(strings.Join(parts, ""))
}
