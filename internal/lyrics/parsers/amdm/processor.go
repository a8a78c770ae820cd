package amdm

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	authorComment = regexp.MustCompile(`(?s)<span[^>]*class="podbor__author-comment"[^>]*>.*?</span>`)
	blockComment  = regexp.MustCompile(`(?s)/\*.*?\*/`)
	openComment   = regexp.MustCompile(`(?m)/\*.*$`)
	keyword       = regexp.MustCompile(`(?s)<div[^>]*class="podbor__keyword"[^>]*>(.*?)</div>`)
	lineBreakTag  = regexp.MustCompile(`(?i)<br\s*/?>`)
)

// processHTMLContent strips the chords block down to text. Chord elements
// keep their text, so chord lines survive above the lyric lines; author
// comments go away and section keywords get a line of their own.
func processHTMLContent(blockHTML string) (string, error) {
	processed := authorComment.ReplaceAllString(blockHTML, "")
	processed = blockComment.ReplaceAllString(processed, "")
	processed = openComment.ReplaceAllString(processed, "")
	processed = keyword.ReplaceAllString(processed, "\n${1}\n")
	processed = lineBreakTag.ReplaceAllString(processed, "\n")

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(processed))
	if err != nil {
		return "", fmt.Errorf("failed to parse chords block: %w", err)
	}

	return processTextLines(doc.Text()), nil
}
