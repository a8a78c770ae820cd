package amdm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/sukalov/chordbook/internal/logger"
	"github.com/sukalov/chordbook/internal/song"
)

// ErrNoChords means the page has no chords block.
var ErrNoChords = errors.New("target element not found")

const chordsBlock = `pre[itemprop="chordsBlock"]`

// Parser handles the HTML parsing and song extraction
type Parser struct {
	client *Client
}

// NewParser creates a new AmDm parser
func NewParser() *Parser {
	return &Parser{client: NewClient()}
}

// ExtractSong downloads an amdm.ru song page and converts it.
func (p *Parser) ExtractSong(ctx context.Context, url string) (*Result, error) {
	logger.Debug(fmt.Sprintf("ExtractSong: Fetching page %s", url))

	html, err := p.client.FetchPage(ctx, url)
	if err != nil {
		return nil, err
	}

	in, err := ConvertHTML(html)
	if err != nil {
		logger.Error(fmt.Sprintf("ExtractSong: Failed to convert %s\nError: %v", url, err))
		return nil, err
	}

	logger.Debug(fmt.Sprintf("ExtractSong: Converted %s (%d chars of lyrics)", url, len(in.Lyrics)))

	return &Result{
		URL:       url,
		Input:     in,
		FetchedAt: time.Now(),
	}, nil
}

// ConvertHTML turns a song page into input for the auto-detect pipeline:
// title and artist from the heading, chord and lyric lines from the chords
// block with English section markers, and a key guessed from the first
// chord.
func ConvertHTML(html string) (song.Input, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return song.Input{}, fmt.Errorf("failed to parse HTML: %w", err)
	}

	selection := doc.Find(chordsBlock).First()
	if selection.Length() == 0 {
		return song.Input{}, ErrNoChords
	}

	blockHTML, err := selection.Html()
	if err != nil {
		return song.Input{}, fmt.Errorf("failed to read chords block: %w", err)
	}

	text, err := processHTMLContent(blockHTML)
	if err != nil {
		return song.Input{}, err
	}

	title, artist := pageTitle(doc)
	return song.Input{
		Title:  title,
		Artist: artist,
		Key:    GuessKey(text),
		Lyrics: text,
	}, nil
}

// pageTitle reads "Artist - Title" from the page heading.
func pageTitle(doc *goquery.Document) (title, artist string) {
	h1 := doc.Find("h1").First()
	artist = strings.TrimSpace(h1.Find(`[itemprop="byArtist"]`).Text())
	title = strings.TrimSpace(h1.Find(`[itemprop="name"]`).Text())
	if title != "" {
		return title, artist
	}

	heading := strings.TrimSpace(h1.Text())
	for _, sep := range []string{" - ", " — ", " – "} {
		if a, t, ok := strings.Cut(heading, sep); ok {
			return strings.TrimSpace(t), strings.TrimSpace(a)
		}
	}
	return heading, artist
}
