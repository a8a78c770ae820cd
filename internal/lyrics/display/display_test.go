package display

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/sukalov/chordbook/internal/lyrics/keys"
	"github.com/sukalov/chordbook/internal/song"
)

type mapStore map[int]*song.Document

func (m mapStore) GetSong(_ context.Context, id int) (*song.Document, error) {
	doc, ok := m[id]
	if !ok {
		return nil, song.ErrNotFound
	}
	return doc, nil
}

func basicSong() *song.Document {
	return &song.Document{
		ID:      1,
		Title:   "Test Song",
		Key:     "C",
		Content: []string{"v", "c", "v1"},
		Lyrics: map[string][]string{
			"v":  {"Pierwsza zwrotka", "druga linia"},
			"c":  {"Refren pierwszy", "refren drugi"},
			"v1": {"Druga zwrotka", "inna linia"},
		},
		Chords: map[string][]string{
			"v": {"C G Am", "F C G"},
			"c": {"Am F C", "G Am F"},
		},
	}
}

func TestRenderLyrics(t *testing.T) {
	tests := []struct {
		name string
		doc  *song.Document
		n    int
		want string
	}{
		{
			name: "basic",
			doc:  basicSong(),
			want: "[v]\nPierwsza zwrotka\ndruga linia\n\n[c]\nRefren pierwszy\nrefren drugi\n\n[v1]\nDruga zwrotka\ninna linia",
		},
		{
			name: "repeated section printed once",
			doc: &song.Document{
				Content: []string{"v", "v", "c"},
				Lyrics:  map[string][]string{"v": {"Same verse"}, "c": {"Chorus"}},
			},
			want: "[v]\nSame verse\n\n[v]\n\n[c]\nChorus",
		},
		{
			name: "numbered copy with base lyrics",
			doc: &song.Document{
				Content: []string{"c", "c2"},
				Lyrics:  map[string][]string{"c": {"la"}, "c2": {"la"}},
			},
			want: "[c]\nla\n\n[c2]",
		},
		{
			name: "empty line doubled",
			doc: &song.Document{
				Content: []string{"v"},
				Lyrics:  map[string][]string{"v": {"Line one", "", "Line three"}},
			},
			want: "[v]\nLine one\n\n\nLine three",
		},
		{
			name: "intro transposed",
			doc: &song.Document{
				Key:     "C",
				Content: []string{"i", "v"},
				Lyrics:  map[string][]string{"i": {"C", "G Am"}, "v": {"C stays"}},
			},
			n:    2,
			want: "[i]\nD\nA Bm\n\n[v]\nC stays",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := RenderLyrics(tt.doc, tt.n)
			if err != nil {
				t.Fatalf("RenderLyrics() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("RenderLyrics() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRenderChords(t *testing.T) {
	tests := []struct {
		name string
		doc  *song.Document
		n    int
		want string
	}{
		{
			name: "basic",
			doc:  basicSong(),
			want: "[v]\nC G Am\nF C G\n\n[c]\nAm F C\nG Am F",
		},
		{
			name: "transposed",
			doc:  basicSong(),
			n:    2,
			want: "[v]\nD A Bm\nG D A\n\n[c]\nBm G D\nA Bm G",
		},
		{
			name: "intro and tab skipped",
			doc: &song.Document{
				Content: []string{"i", "s1", "v"},
				Lyrics:  map[string][]string{"i": {"C G"}, "s1": {}, "v": {"Verse"}},
				Chords:  map[string][]string{"i": {"C"}, "s1": {"E"}, "v": {"C G"}},
			},
			want: "[v]\nC G",
		},
		{
			name: "copy with base chords skipped",
			doc: &song.Document{
				Content: []string{"v", "v2", "v3"},
				Lyrics:  map[string][]string{"v": {"a"}, "v2": {"b"}, "v3": {"c"}},
				Chords:  map[string][]string{"v": {"C G"}, "v2": {"C G"}, "v3": {"F"}},
			},
			want: "[v]\nC G\n\n[v3]\nF",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := RenderChords(tt.doc, tt.n)
			if err != nil {
				t.Fatalf("RenderChords() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("RenderChords() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRenderColumns(t *testing.T) {
	doc := &song.Document{
		Content: []string{"v", "c"},
		Lyrics: map[string][]string{
			"v": {"Line one", "", "Line three"},
			"c": {"!hidden line", "visible line"},
		},
		Chords: map[string][]string{
			"v": {"C", "D", "E"},
			"c": {"F"},
		},
	}

	got, err := RenderColumns(doc)
	if err != nil {
		t.Fatalf("RenderColumns() error = %v", err)
	}

	wantLyrics := "Line one\n\nLine three\n\n\thidden line\n\tvisible line"
	wantChords := "C\n\nD\n\n\nG#"
	if got[0] != wantLyrics {
		t.Errorf("lyrics = %q, want %q", got[0], wantLyrics)
	}
	if got[1] != wantChords {
		t.Errorf("chords = %q, want %q", got[1], wantChords)
	}
}

func TestRenderColumnsWrapsChords(t *testing.T) {
	doc := &song.Document{
		Content: []string{"i", "v"},
		Lyrics:  map[string][]string{"i": {"Am"}, "v": {"a|b", "c", "d"}},
		Chords:  map[string][]string{"v": {"C", "D"}},
	}

	got, err := RenderColumns(doc)
	if err != nil {
		t.Fatal(err)
	}
	if got[0] != "Am\n\nab\nc\nd" {
		t.Errorf("lyrics = %q", got[0])
	}
	if got[1] != "\n\nC\nD\nC" {
		t.Errorf("chords = %q", got[1])
	}
}

func TestRenderHTML(t *testing.T) {
	tests := []struct {
		name string
		doc  *song.Document
		want string
	}{
		{
			name: "chord line repeats when exhausted",
			doc: &song.Document{
				Content: []string{"v"},
				Lyrics:  map[string][]string{"v": {"a", "b", "c"}},
				Chords:  map[string][]string{"v": {"C", "D"}},
			},
			want: "<b><code>C</code></b>\na\n<b><code>D</code></b>\nb\n<b><code>D</code></b>\nc",
		},
		{
			name: "chorus falls back to base chords",
			doc: &song.Document{
				Content: []string{"c2"},
				Lyrics:  map[string][]string{"c2": {"x"}},
				Chords:  map[string][]string{"c": {"Am"}},
			},
			want: "<b>\t<code>Am</code></b>\n\tx",
		},
		{
			name: "intro bold",
			doc: &song.Document{
				Content: []string{"i"},
				Lyrics:  map[string][]string{"i": {"C", "G Am"}},
			},
			want: "<b>C</b>\n<b>G Am</b>",
		},
		{
			name: "tab image",
			doc: &song.Document{
				Title:   "Test Song",
				Content: []string{"s1", "v"},
				Lyrics:  map[string][]string{"s1": {}, "v": {"Verse"}},
				Chords:  map[string][]string{"v": {"C"}},
			},
			want: "<img src=\"static/tab/test_song_1.svg\" alt=\"missing tab\">\n\n<b><code>C</code></b>\nVerse",
		},
		{
			name: "hidden and empty lines",
			doc: &song.Document{
				Content: []string{"v"},
				Lyrics:  map[string][]string{"v": {"one", "!two", "", "three"}},
				Chords:  map[string][]string{"v": {"C", "G"}},
			},
			want: "<b><code>C</code></b>\none\n\n\n<b><code>G</code></b>\nthree",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := RenderHTML(tt.doc, 0)
			if err != nil {
				t.Fatalf("RenderHTML() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("RenderHTML() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRenderHTMLMarkers(t *testing.T) {
	doc := &song.Document{
		Key:     "C",
		Content: []string{"v"},
		Lyrics:  map[string][]string{"v": {"|Marker line|", "(second |voice)", "normal line"}},
		Chords:  map[string][]string{"v": {"C G Am"}},
	}

	got, err := RenderHTML(doc, 0)
	if err != nil {
		t.Fatal(err)
	}

	for _, want := range []string{
		"<b><code>C</code>          <code>G</code> <code>Am</code> </b>\nMarker line\n",
		"\n<i>(second voice)</i>\n",
		"<b><code>C</code> <code>G</code> <code>Am</code></b>\nnormal line",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("RenderHTML() = %q, missing %q", got, want)
		}
	}
}

func TestMissingSection(t *testing.T) {
	doc := &song.Document{
		ID:      7,
		Content: []string{"v", "c"},
		Lyrics:  map[string][]string{"v": {"a"}},
		Chords:  map[string][]string{},
	}

	for _, view := range []View{ViewLyrics, ViewChords, ViewColumns, ViewHTML} {
		_, err := Render(doc, view, 0)
		if !errors.Is(err, ErrMissingSection) {
			t.Errorf("%s: error = %v, want ErrMissingSection", view, err)
			continue
		}
		var se *SectionError
		if !errors.As(err, &se) || se.Section != "c" || se.SongID != 7 {
			t.Errorf("%s: error = %#v", view, err)
		}
	}
}

func TestUnknownKey(t *testing.T) {
	doc := basicSong()
	doc.Key = "H"

	if _, err := RenderChords(doc, 1); !errors.Is(err, keys.ErrUnknownKey) {
		t.Errorf("RenderChords() error = %v, want ErrUnknownKey", err)
	}
	if _, err := RenderColumns(doc); !errors.Is(err, keys.ErrUnknownKey) {
		t.Errorf("RenderColumns() error = %v, want ErrUnknownKey", err)
	}
}

func TestChordsToScheme(t *testing.T) {
	tests := []struct {
		chords, lyrics, want string
	}{
		{"C G", "Some|thing|here", "    C    G   "},
		{"C G Am", "Simple lyrics line", "C G Am"},
		{"C G", "|one |two |three |four", "C   G   C     G   "},
		{"C G Am F", "|one |two", "C   G  Am F "},
		{"Fis", "żółć|x", "    Fis "},
	}

	for _, tt := range tests {
		t.Run(tt.lyrics, func(t *testing.T) {
			if got := ChordsToScheme(tt.chords, tt.lyrics); got != tt.want {
				t.Errorf("ChordsToScheme(%q, %q) = %q, want %q", tt.chords, tt.lyrics, got, tt.want)
			}
		})
	}
}

func TestTabImage(t *testing.T) {
	tests := []struct {
		title, id, want string
	}{
		{"Test Song", "s1", "static/tab/test_song_1.svg"},
		{"", "s", "static/tab/_0.svg"},
		{"Big Solo", "sa12b3", "static/tab/big_solo_12.svg"},
	}

	for _, tt := range tests {
		if got := TabImage(tt.title, tt.id); got != tt.want {
			t.Errorf("TabImage(%q, %q) = %q, want %q", tt.title, tt.id, got, tt.want)
		}
	}
}

func TestRendererResolvesSongs(t *testing.T) {
	r := NewRenderer(mapStore{1: basicSong()})
	ctx := context.Background()

	if _, err := r.Lyrics(ctx, 2, 0); !errors.Is(err, song.ErrNotFound) {
		t.Errorf("Lyrics(missing) error = %v, want ErrNotFound", err)
	}

	got, err := r.Chords(ctx, 1, 0)
	if err != nil {
		t.Fatal(err)
	}
	want, _ := RenderChords(basicSong(), 0)
	if got != want {
		t.Errorf("Chords() = %q, want %q", got, want)
	}

	cols, err := r.Columns(ctx, 1)
	if err != nil || cols[0] == "" || cols[1] == "" {
		t.Errorf("Columns() = %q, %v", cols, err)
	}
	if html, err := r.HTML(ctx, 1, 0); err != nil || !strings.Contains(html, "<code>") {
		t.Errorf("HTML() = %q, %v", html, err)
	}
}

func TestParseView(t *testing.T) {
	tests := []struct {
		in      string
		want    View
		wantErr bool
	}{
		{"lyrics", ViewLyrics, false},
		{" HTML ", ViewHTML, false},
		{"", ViewLyrics, false},
		{"columns", ViewColumns, false},
		{"poster", "", true},
	}

	for _, tt := range tests {
		got, err := ParseView(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseView(%q) = %q, %v", tt.in, got, err)
		}
	}
}

func TestSideBySide(t *testing.T) {
	got := SideBySide([2]string{"a\n\tbb\nc", "C\nG"}, 2)
	want := "a       C\n    bb  G\nc"
	if got != want {
		t.Errorf("SideBySide() = %q, want %q", got, want)
	}
}
