package lyrics

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/sukalov/chordbook/internal/logger"
	"github.com/sukalov/chordbook/internal/lyrics/display"
	"github.com/sukalov/chordbook/internal/lyrics/parsers/amdm"
	"github.com/sukalov/chordbook/internal/song"
	"github.com/sukalov/chordbook/internal/songbook"
)

const twoVerses = "[Verse]\nC G\nfirst verse\n\n[Verse]\nC G\nsecond verse\n"

func TestMain(m *testing.M) {
	logger.SetLocal(zerolog.Nop())
	os.Exit(m.Run())
}

type memCache struct {
	entries map[string][]string
	sets    int
}

func (c *memCache) GetRender(_ context.Context, key string) ([]string, bool, error) {
	parts, ok := c.entries[key]
	return parts, ok, nil
}

func (c *memCache) SetRender(_ context.Context, key string, parts []string, _ time.Duration) error {
	c.entries[key] = parts
	c.sets++
	return nil
}

type fakeExtractor struct {
	urls []string
	in   song.Input
}

func (f *fakeExtractor) ExtractSong(_ context.Context, url string) (*amdm.Result, error) {
	f.urls = append(f.urls, url)
	return &amdm.Result{URL: url, Input: f.in}, nil
}

func newTestService(t *testing.T, cache Cache) *Service {
	t.Helper()
	store, err := songbook.OpenFile(filepath.Join(t.TempDir(), "songs.json"))
	if err != nil {
		t.Fatal(err)
	}
	return NewService(store, cache, time.Hour)
}

func TestCreateSongAllocatesIDs(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t, nil)

	first, err := s.CreateSong(ctx, 0, song.Input{Title: "One", Lyrics: twoVerses})
	if err != nil {
		t.Fatal(err)
	}
	second, err := s.CreateSong(ctx, 0, song.Input{Title: "Two", Lyrics: twoVerses})
	if err != nil {
		t.Fatal(err)
	}
	if first.ID != 1 || second.ID != 2 {
		t.Fatalf("ids = %d, %d, want 1, 2", first.ID, second.ID)
	}
	if !reflect.DeepEqual(first.Content, []string{"v", "v2"}) {
		t.Errorf("content = %q", first.Content)
	}

	replaced, err := s.CreateSong(ctx, 1, song.Input{Title: "One again", Lyrics: "[Chorus]\nAm\nla la\n"})
	if err != nil {
		t.Fatal(err)
	}
	got, err := s.GetSong(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if got.Title != "One again" || !reflect.DeepEqual(got.Content, replaced.Content) {
		t.Errorf("stored song = %+v", got)
	}
}

func TestEditSongRequiresExistingSong(t *testing.T) {
	s := newTestService(t, nil)

	_, err := s.EditSong(context.Background(), 7, song.Input{Lyrics: "[v]\nla"})
	if !errors.Is(err, song.ErrNotFound) {
		t.Errorf("EditSong() error = %v, want ErrNotFound", err)
	}
}

func TestEditorInputRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t, nil)

	created, err := s.CreateSong(ctx, 0, song.Input{Title: "Round", Key: "C", Tags: "rock; live", Lyrics: twoVerses})
	if err != nil {
		t.Fatal(err)
	}

	in, err := s.EditorInput(ctx, created.ID)
	if err != nil {
		t.Fatal(err)
	}
	if in.Lyrics != "[v]\nfirst verse\n\n[v2]\nsecond verse" {
		t.Errorf("lyrics = %q", in.Lyrics)
	}
	if in.Chords != "[v]\nC G" {
		t.Errorf("chords = %q", in.Chords)
	}
	if in.Tags != "rock; live" {
		t.Errorf("tags = %q", in.Tags)
	}

	edited, err := s.EditSong(ctx, created.ID, in)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(edited.Content, created.Content) ||
		!reflect.DeepEqual(edited.Lyrics, created.Lyrics) ||
		!reflect.DeepEqual(edited.Chords, created.Chords) {
		t.Errorf("edited = %+v\ncreated = %+v", edited, created)
	}
}

func TestDisplayUsesCache(t *testing.T) {
	ctx := context.Background()
	cache := &memCache{entries: map[string][]string{}}
	s := newTestService(t, cache)

	doc, err := s.CreateSong(ctx, 0, song.Input{Key: "C", Lyrics: twoVerses})
	if err != nil {
		t.Fatal(err)
	}

	parts, err := s.Display(ctx, doc.ID, display.ViewChords, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(parts) != 1 || parts[0] != "[v]\nD A" {
		t.Errorf("Display() = %q", parts)
	}
	if cache.sets != 1 {
		t.Fatalf("cache sets = %d, want 1", cache.sets)
	}

	for key := range cache.entries {
		cache.entries[key] = []string{"cached"}
	}
	parts, err = s.Display(ctx, doc.ID, display.ViewChords, 2)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(parts, []string{"cached"}) {
		t.Errorf("second Display() = %q, want cached value", parts)
	}

	cols, err := s.Display(ctx, doc.ID, display.ViewColumns, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(cols) != 2 || cache.sets != 2 {
		t.Errorf("columns = %q, sets = %d", cols, cache.sets)
	}
}

func TestDisplayWithoutCache(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t, nil)

	doc, err := s.CreateSong(ctx, 0, song.Input{Key: "C", Lyrics: twoVerses})
	if err != nil {
		t.Fatal(err)
	}

	for _, view := range []display.View{display.ViewLyrics, display.ViewChords, display.ViewColumns, display.ViewHTML} {
		got, err := s.Display(ctx, doc.ID, view, 0)
		if err != nil {
			t.Fatalf("Display(%s) error = %v", view, err)
		}
		want, err := display.Render(doc, view, 0)
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("Display(%s) = %q, want %q", view, got, want)
		}
	}

	if _, err := s.Display(ctx, 99, display.ViewLyrics, 0); !errors.Is(err, song.ErrNotFound) {
		t.Errorf("Display(missing) error = %v", err)
	}
}

func TestObjectiveKey(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t, nil)

	doc, err := s.CreateSong(ctx, 0, song.Input{Key: "Am", Capo: "2", Lyrics: twoVerses})
	if err != nil {
		t.Fatal(err)
	}
	key, err := s.ObjectiveKey(ctx, doc.ID)
	if err != nil {
		t.Fatal(err)
	}
	if key != "Bm" {
		t.Errorf("ObjectiveKey() = %q, want Bm", key)
	}
}

func TestImport(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t, nil)
	extractor := &fakeExtractor{in: song.Input{Title: "Группа крови", Artist: "Кино", Lyrics: twoVerses}}
	s.amdmParser = extractor

	doc, err := s.Import(ctx, "https://amdm.ru/akkordi/kino/1/gruppa_krovi/")
	if err != nil {
		t.Fatal(err)
	}
	if doc.ID != 1 || doc.Artist != "Кино" || len(extractor.urls) != 1 {
		t.Errorf("imported %+v via %q", doc, extractor.urls)
	}

	if _, err := s.Import(ctx, "https://example.com/song"); !errors.Is(err, ErrUnsupportedSource) {
		t.Errorf("Import(other) error = %v, want ErrUnsupportedSource", err)
	}
	if len(extractor.urls) != 1 {
		t.Errorf("extractor called for unsupported URL")
	}
}

func TestImportOpenSong(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t, nil)

	xml := `<song><title>Hymn</title><key>G</key><lyrics>[V]
.G  D
 one line</lyrics></song>`
	doc, err := s.ImportOpenSong(ctx, strings.NewReader(xml))
	if err != nil {
		t.Fatal(err)
	}
	if doc.Title != "Hymn" || doc.Key != "G" || len(doc.Content) != 1 {
		t.Errorf("doc = %+v", doc)
	}
}

func TestListAndDelete(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t, nil)

	for _, in := range []song.Input{
		{Title: "Beta", Tags: "rock", Lyrics: twoVerses},
		{Title: "Alpha", Tags: "folk; rock", Lyrics: twoVerses},
	} {
		if _, err := s.CreateSong(ctx, 0, in); err != nil {
			t.Fatal(err)
		}
	}

	songs, err := s.ListSongs(ctx, songbook.Query{Tags: []string{"rock"}})
	if err != nil {
		t.Fatal(err)
	}
	if len(songs) != 2 || songs[0].Title != "Alpha" {
		t.Errorf("ListSongs() = %v", songs)
	}

	tags, err := s.Tags(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(tags, []string{"folk", "rock"}) {
		t.Errorf("Tags() = %q", tags)
	}

	if err := s.DeleteSong(ctx, 1); err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteSong(ctx, 1); !errors.Is(err, song.ErrNotFound) {
		t.Errorf("second DeleteSong() error = %v", err)
	}
}

func TestImportCollection(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t, nil)

	n, err := s.ImportCollection(ctx, []*song.Document{
		song.New(5, song.Input{Title: "Five"}),
		nil,
		song.New(9, song.Input{Title: "Nine"}),
	})
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("saved = %d, want 2", n)
	}
	if _, err := s.GetSong(ctx, 9); err != nil {
		t.Errorf("GetSong(9) error = %v", err)
	}
}

func TestCreateSongConcurrentIDsAreUnique(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t, nil)

	const n = 20
	var wg sync.WaitGroup
	ids := make([]int, n)
	errs := make([]error, n)
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			doc, err := s.CreateSong(ctx, 0, song.Input{Title: fmt.Sprintf("Song %d", i), Lyrics: twoVerses})
			if err == nil {
				ids[i] = doc.ID
			}
			errs[i] = err
		}()
	}
	wg.Wait()

	seen := make(map[int]bool)
	for i, err := range errs {
		if err != nil {
			t.Fatalf("CreateSong() #%d error = %v", i, err)
		}
		if seen[ids[i]] {
			t.Errorf("id %d handed out twice", ids[i])
		}
		seen[ids[i]] = true
	}

	stored, err := s.ListSongs(ctx, songbook.Query{})
	if err != nil {
		t.Fatal(err)
	}
	if len(stored) != n {
		t.Errorf("stored %d songs, want %d", len(stored), n)
	}
}

func TestReplaceCollection(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t, nil)

	if _, err := s.CreateSong(ctx, 0, song.Input{Title: "Old", Lyrics: twoVerses}); err != nil {
		t.Fatal(err)
	}

	n, err := s.ReplaceCollection(ctx, []*song.Document{song.New(7, song.Input{Title: "Seven"}), nil})
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("kept = %d, want 1", n)
	}
	if _, err := s.GetSong(ctx, 1); !errors.Is(err, song.ErrNotFound) {
		t.Errorf("GetSong(1) error = %v, want ErrNotFound", err)
	}
	if doc, err := s.GetSong(ctx, 7); err != nil || doc.Title != "Seven" {
		t.Errorf("GetSong(7) = %+v, %v", doc, err)
	}
}
