package amdm

import (
	"regexp"
	"strings"

	"github.com/sukalov/chordbook/internal/lyrics/sections"
)

var (
	sectionLine    = regexp.MustCompile(`^\[([^\]]+)\]:?\s*(.*)$`)
	chordSeparator = regexp.MustCompile(`^[\s|]*$`)
	commentTail    = regexp.MustCompile(`/\*[^*]*\*?`)
)

// processTextLines tidies the page text line by line. Section keywords
// become [Verse]-style markers, and a gap between stanzas becomes two blank
// lines so that text without any keywords still splits into sections.
func processTextLines(cleanText string) string {
	var processedLines []string
	blank := func() {
		if n := len(processedLines); n > 0 && processedLines[n-1] != "" && !strings.HasPrefix(processedLines[n-1], "[") {
			processedLines = append(processedLines, "", "")
		}
	}

	for _, line := range strings.Split(cleanText, "\n") {
		trimmedLine := strings.TrimSpace(line)

		if trimmedLine == "" {
			blank()
			continue
		}

		if marker, rest, ok := handleSectionMarker(trimmedLine); ok {
			blank()
			processedLines = append(processedLines, marker)
			trimmedLine = rest
			if trimmedLine == "" {
				continue
			}
		}

		if chordSeparator.MatchString(trimmedLine) {
			continue
		}

		cleanLine := commentTail.ReplaceAllString(trimmedLine, "")
		cleanLine = strings.ReplaceAll(cleanLine, "*", "")
		if !sections.IsChordLine(strings.Join(strings.Fields(cleanLine), " ")) {
			cleanLine = strings.Join(strings.Fields(strings.ReplaceAll(cleanLine, "/", "")), " ")
		}
		cleanLine = strings.TrimSpace(cleanLine)

		if cleanLine != "" {
			processedLines = append(processedLines, cleanLine)
		}
	}

	return finalCleanup(strings.Join(processedLines, "\n"))
}

// handleSectionMarker recognises "[Куплет 2]: text". It returns the marker
// to write and whatever followed it on the line.
func handleSectionMarker(trimmedLine string) (marker, rest string, ok bool) {
	match := sectionLine.FindStringSubmatch(trimmedLine)
	if match == nil {
		return "", "", false
	}

	name := strings.TrimSpace(match[1])
	if fields := strings.Fields(name); len(fields) > 0 {
		if m, known := markers[SectionType(normalizeName(fields[0]))]; known {
			return m, strings.TrimSpace(match[2]), true
		}
	}
	return "[" + name + "]", strings.TrimSpace(match[2]), true
}

// normalizeName capitalises the first letter: "припев" -> "Припев".
func normalizeName(s string) string {
	s = strings.TrimRight(s, ":.0123456789")
	if s == "" {
		return s
	}
	r := []rune(strings.ToLower(s))
	r[0] = []rune(strings.ToUpper(string(r[0])))[0]
	return string(r)
}
