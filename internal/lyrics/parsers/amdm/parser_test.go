package amdm

import (
	"errors"
	"testing"
)

const songPage = `<html><head><title>Кино - Группа крови</title></head><body>
<h1 class="b-title"><span itemprop="byArtist">Кино</span> - <span itemprop="name">Группа крови</span></h1>
<pre itemprop="chordsBlock" class="field__podbor_new podbor__text"><div class="podbor__keyword">[Вступление]:</div> <div class="podbor__chord" data-chord="Am"><span>Am</span></div> <div class="podbor__chord" data-chord="C"><span>C</span></div>

<div class="podbor__keyword">[Куплет 1]:</div>
<div class="podbor__chord" data-chord="Am"><span>Am</span></div>     <div class="podbor__chord" data-chord="C"><span>C</span></div>
Тёплое место, но улицы ждут
<span class="podbor__author-comment">/* играть тихо */</span>
<div class="podbor__chord" data-chord="Dm"><span>Dm</span></div>   <div class="podbor__chord" data-chord="G/H"><span>G/H</span></div>
Отпечатков наших ног

<div class="podbor__keyword">[Припев]:</div>
<div class="podbor__chord">F</div> <div class="podbor__chord">G</div>
Группа крови / на рукаве
</pre>
</body></html>`

func TestConvertHTML(t *testing.T) {
	in, err := ConvertHTML(songPage)
	if err != nil {
		t.Fatalf("ConvertHTML() error = %v", err)
	}

	if in.Title != "Группа крови" || in.Artist != "Кино" {
		t.Errorf("title %q artist %q", in.Title, in.Artist)
	}
	if in.Key != "Am" {
		t.Errorf("key = %q, want Am", in.Key)
	}

	want := "[Intro]\nAm C\n\n\n" +
		"[Verse]\nAm     C\nТёплое место, но улицы ждут\n\n\nDm   G/H\nОтпечатков наших ног\n\n\n" +
		"[Chorus]\nF G\nГруппа крови на рукаве"
	if in.Lyrics != want {
		t.Errorf("lyrics =\n%q\nwant\n%q", in.Lyrics, want)
	}
}

func TestConvertHTMLWithoutBlock(t *testing.T) {
	_, err := ConvertHTML(`<html><body><p>nothing here</p></body></html>`)
	if !errors.Is(err, ErrNoChords) {
		t.Errorf("ConvertHTML() error = %v, want ErrNoChords", err)
	}
}

func TestPageTitleFallback(t *testing.T) {
	page := `<html><body><h1>Ария - Беспечный ангел</h1><pre itemprop="chordsBlock">Em
текст</pre></body></html>`

	in, err := ConvertHTML(page)
	if err != nil {
		t.Fatal(err)
	}
	if in.Title != "Беспечный ангел" || in.Artist != "Ария" {
		t.Errorf("title %q artist %q", in.Title, in.Artist)
	}
	if in.Lyrics != "Em\nтекст" || in.Key != "Em" {
		t.Errorf("lyrics %q key %q", in.Lyrics, in.Key)
	}
}

func TestHandleSectionMarker(t *testing.T) {
	tests := []struct {
		line, marker, rest string
		ok                 bool
	}{
		{"[Куплет]:", "[Verse]", "", true},
		{"[припев 2]:", "[Chorus]", "", true},
		{"[Проигрыш]: Am G", "[Intro]", "Am G", true},
		{"[Кода]", "[Outro]", "", true},
		{"[Переход]:", "[Bridge]", "", true},
		{"[Соло]:", "[Соло]", "", true},
		{"просто строка", "", "", false},
	}

	for _, tt := range tests {
		marker, rest, ok := handleSectionMarker(tt.line)
		if marker != tt.marker || rest != tt.rest || ok != tt.ok {
			t.Errorf("handleSectionMarker(%q) = %q, %q, %v", tt.line, marker, rest, ok)
		}
	}
}

func TestProcessTextLinesSplitsStanzas(t *testing.T) {
	got := processTextLines("C G\nfirst line\n\n\n\nAm F\nsecond */ line\n|  |\n")
	want := "C G\nfirst line\n\n\nAm F\nsecond line"
	if got != want {
		t.Errorf("processTextLines() = %q, want %q", got, want)
	}
}

func TestGuessKey(t *testing.T) {
	tests := []struct {
		text, want string
	}{
		{"[Verse]\nAm7 F\nla", "Am"},
		{"Amaj7 D\nla", "A"},
		{"intro words\nHm G\nla", "Bm"},
		{"F#m A\n", "F#m"},
		{"no chords at all", ""},
		{"", ""},
	}

	for _, tt := range tests {
		if got := GuessKey(tt.text); got != tt.want {
			t.Errorf("GuessKey(%q) = %q, want %q", tt.text, got, tt.want)
		}
	}
}
