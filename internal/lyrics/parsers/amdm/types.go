package amdm

import (
	"time"

	"github.com/sukalov/chordbook/internal/song"
)

// Result is a song page turned into editor input.
type Result struct {
	URL       string     `json:"url"`
	Input     song.Input `json:"input"`
	FetchedAt time.Time  `json:"fetched_at"`
}

// SectionType is a section name as amdm.ru writes it.
type SectionType string

const (
	SectionVerse  SectionType = "Куплет"
	SectionChorus SectionType = "Припев"
	SectionBridge SectionType = "Переход"
	SectionIntro  SectionType = "Вступление"
	SectionSolo   SectionType = "Проигрыш"
	SectionOutro  SectionType = "Кода"
)

// markers maps amdm.ru section names to the labels the section parser
// understands. Bridges and outros have no role of their own and are sorted
// out by content.
var markers = map[SectionType]string{
	SectionVerse:  "[Verse]",
	SectionChorus: "[Chorus]",
	SectionBridge: "[Bridge]",
	SectionIntro:  "[Intro]",
	SectionSolo:   "[Intro]",
	SectionOutro:  "[Outro]",
}
