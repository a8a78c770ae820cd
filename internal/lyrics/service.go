package lyrics

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/sukalov/chordbook/internal/logger"
	"github.com/sukalov/chordbook/internal/lyrics/display"
	"github.com/sukalov/chordbook/internal/lyrics/keys"
	"github.com/sukalov/chordbook/internal/lyrics/parsers/amdm"
	"github.com/sukalov/chordbook/internal/lyrics/parsers/opensong"
	"github.com/sukalov/chordbook/internal/lyrics/sections"
	"github.com/sukalov/chordbook/internal/redis"
	"github.com/sukalov/chordbook/internal/song"
	"github.com/sukalov/chordbook/internal/songbook"
)

// ErrUnsupportedSource is returned by Import for URLs no importer handles.
var ErrUnsupportedSource = errors.New("unsupported URL source")

// Cache keeps finished renderings. *redis.DBManager implements it.
type Cache interface {
	GetRender(ctx context.Context, key string) ([]string, bool, error)
	SetRender(ctx context.Context, key string, parts []string, ttl time.Duration) error
}

type songExtractor interface {
	ExtractSong(ctx context.Context, url string) (*amdm.Result, error)
}

// Service ties the parser, the renderer and a song store together.
type Service struct {
	store      song.Store
	renderer   *display.Renderer
	cache      Cache
	ttl        time.Duration
	amdmParser songExtractor
}

// NewService creates a service over store. cache may be nil.
func NewService(store song.Store, cache Cache, ttl time.Duration) *Service {
	return &Service{
		store:      store,
		renderer:   display.NewRenderer(store),
		cache:      cache,
		ttl:        ttl,
		amdmParser: amdm.NewParser(),
	}
}

// CreateSong parses one pasted block into song id, replacing any earlier
// version. Zero id stores it under a newly allocated one.
func (s *Service) CreateSong(ctx context.Context, id int, in song.Input) (*song.Document, error) {
	doc := sections.ParseAuto(id, in)

	if id == 0 {
		added, err := s.store.AddSong(ctx, doc)
		if err != nil {
			return nil, logger.LogWithErr("failed to add song", err)
		}
		doc.ID = added
	} else if err := s.store.SaveSong(ctx, doc); err != nil {
		return nil, logger.LogWithErr(fmt.Sprintf("failed to save song %d", id), err)
	}

	logger.Success(fmt.Sprintf("song %d saved: %s (%d sections)", doc.ID, songbook.FormatSongName(doc), len(doc.Content)))
	return doc, nil
}

// EditSong replaces an existing song with separately edited lyrics and
// chords texts.
func (s *Service) EditSong(ctx context.Context, id int, in song.Input) (*song.Document, error) {
	if _, err := s.store.GetSong(ctx, id); err != nil {
		return nil, err
	}

	doc := sections.ParseExplicit(id, in)
	if err := s.store.SaveSong(ctx, doc); err != nil {
		return nil, logger.LogWithErr(fmt.Sprintf("failed to save song %d", id), err)
	}

	logger.Success(fmt.Sprintf("song %d edited: %s", id, songbook.FormatSongName(doc)))
	return doc, nil
}

// EditorInput returns song id as editable input: its metadata plus the
// lyrics and chords views, which EditSong reads back.
func (s *Service) EditorInput(ctx context.Context, id int) (song.Input, error) {
	doc, err := s.store.GetSong(ctx, id)
	if err != nil {
		return song.Input{}, err
	}

	in := doc.Input()
	if in.Lyrics, err = display.RenderLyrics(doc, 0); err != nil {
		return song.Input{}, err
	}
	if in.Chords, err = display.RenderChords(doc, 0); err != nil {
		return song.Input{}, err
	}
	return in, nil
}

func (s *Service) GetSong(ctx context.Context, id int) (*song.Document, error) {
	return s.store.GetSong(ctx, id)
}

// ListSongs returns the songs matching q.
func (s *Service) ListSongs(ctx context.Context, q songbook.Query) ([]*song.Document, error) {
	songs, err := s.store.ListSongs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list songs: %w", err)
	}
	return songbook.Filter(songs, q), nil
}

func (s *Service) Tags(ctx context.Context) ([]string, error) {
	songs, err := s.store.ListSongs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list songs: %w", err)
	}
	return songbook.Tags(songs), nil
}

func (s *Service) DeleteSong(ctx context.Context, id int) error {
	if err := s.store.DeleteSong(ctx, id); err != nil {
		return err
	}
	logger.Info(fmt.Sprintf("song %d deleted", id))
	return nil
}

// Display renders song id in view, transposed by n. Columns yields two
// parts, every other view one. With a cache, renderings are looked up by
// the fingerprint of the song, so an edit never serves a stale one.
func (s *Service) Display(ctx context.Context, id int, view display.View, n int) ([]string, error) {
	if s.cache == nil {
		return s.render(ctx, id, view, n)
	}

	doc, err := s.store.GetSong(ctx, id)
	if err != nil {
		return nil, err
	}

	key := redis.RenderKey(doc.Fingerprint(), string(view), n)
	if parts, ok, err := s.cache.GetRender(ctx, key); err != nil {
		logger.Error(fmt.Sprintf("render cache lookup failed for %s: %v", key, err))
	} else if ok {
		return parts, nil
	}

	parts, err := display.Render(doc, view, n)
	if err != nil {
		return nil, err
	}
	if err := s.cache.SetRender(ctx, key, parts, s.ttl); err != nil {
		logger.Error(fmt.Sprintf("render cache store failed for %s: %v", key, err))
	}
	return parts, nil
}

func (s *Service) render(ctx context.Context, id int, view display.View, n int) ([]string, error) {
	switch view {
	case display.ViewLyrics:
		out, err := s.renderer.Lyrics(ctx, id, n)
		return []string{out}, err
	case display.ViewChords:
		out, err := s.renderer.Chords(ctx, id, n)
		return []string{out}, err
	case display.ViewColumns:
		cols, err := s.renderer.Columns(ctx, id)
		return cols[:], err
	case display.ViewHTML:
		out, err := s.renderer.HTML(ctx, id, n)
		return []string{out}, err
	}
	return nil, fmt.Errorf("unknown view %q", view)
}

// ObjectiveKey is the key the song sounds in once the capo is applied, or
// "-" when the song has no key.
func (s *Service) ObjectiveKey(ctx context.Context, id int) (string, error) {
	doc, err := s.store.GetSong(ctx, id)
	if err != nil {
		return "", err
	}
	return keys.ObjectiveKey(doc.Key, doc.Capo)
}

// Import fetches a song page and stores it as a new song.
func (s *Service) Import(ctx context.Context, url string) (*song.Document, error) {
	logger.Debug(fmt.Sprintf("Import called with URL: %s", url))

	if !strings.Contains(url, "amdm.ru") {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedSource, url)
	}

	result, err := s.amdmParser.ExtractSong(ctx, url)
	if err != nil {
		return nil, logger.LogWithErr(fmt.Sprintf("failed to import %s", url), err)
	}
	return s.CreateSong(ctx, 0, result.Input)
}

// ImportOpenSong stores an OpenSong file as a new song.
func (s *Service) ImportOpenSong(ctx context.Context, r io.Reader) (*song.Document, error) {
	in, err := opensong.Parse(r)
	if err != nil {
		return nil, err
	}
	return s.CreateSong(ctx, 0, in)
}

// ImportCollection saves whole documents under their own ids.
func (s *Service) ImportCollection(ctx context.Context, songs []*song.Document) (int, error) {
	saved := 0
	for _, doc := range songs {
		if doc == nil {
			continue
		}
		if err := s.store.SaveSong(ctx, doc); err != nil {
			return saved, fmt.Errorf("failed to save song %d: %w", doc.ID, err)
		}
		saved++
	}
	logger.Info(fmt.Sprintf("imported %d songs", saved))
	return saved, nil
}

// ReplaceCollection drops every stored song and keeps songs instead.
func (s *Service) ReplaceCollection(ctx context.Context, songs []*song.Document) (int, error) {
	kept := make([]*song.Document, 0, len(songs))
	for _, doc := range songs {
		if doc != nil {
			kept = append(kept, doc)
		}
	}
	if err := s.store.ReplaceAll(ctx, kept); err != nil {
		return 0, logger.LogWithErr("failed to replace songbook", err)
	}
	logger.Info(fmt.Sprintf("songbook replaced with %d songs", len(kept)))
	return len(kept), nil
}
