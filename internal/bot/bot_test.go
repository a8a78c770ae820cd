package bot

import (
	"reflect"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSplitMessage(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		limit int
		want  []string
	}{
		{"empty", "", 10, nil},
		{"short", "abc", 10, []string{"abc"}},
		{"at newline", "aaaa\nbbbb\ncc", 10, []string{"aaaa\nbbbb", "cc"}},
		{"no newline", "abcdefghij", 4, []string{"abcd", "efgh", "ij"}},
		{"cyrillic counts runes", "ааааа", 2, []string{"аа", "аа", "а"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SplitMessage(tt.text, tt.limit); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SplitMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSplitMessageKeepsLimit(t *testing.T) {
	text := strings.Repeat("Группа крови на рукаве\n", 400)
	parts := SplitMessage(text, MaxMessageLength)
	if len(parts) < 2 {
		t.Fatalf("got %d parts", len(parts))
	}
	for i, p := range parts {
		if n := utf8.RuneCountInString(p); n > MaxMessageLength {
			t.Errorf("part %d has %d characters", i, n)
		}
		if i < len(parts)-1 && strings.HasSuffix(p, "\n") {
			t.Errorf("part %d ends with a newline", i)
		}
	}
	if got := strings.Join(parts, "\n"); got != text {
		t.Errorf("parts do not join back to the text")
	}
}

func TestParseCallback(t *testing.T) {
	tests := []struct {
		data, action, payload string
	}{
		{"song:12", "song", "12"},
		{"confirm_delete:3", "confirm_delete", "3"},
		{"plain", "plain", ""},
		{"a:b:c", "a", "b:c"},
	}

	for _, tt := range tests {
		action, payload := ParseCallback(tt.data)
		if action != tt.action || payload != tt.payload {
			t.Errorf("ParseCallback(%q) = %q, %q", tt.data, action, payload)
		}
	}
}

func TestEscapeHTML(t *testing.T) {
	if got := EscapeHTML("<b>C & G</b>"); got != "&lt;b&gt;C &amp; G&lt;/b&gt;" {
		t.Errorf("EscapeHTML() = %q", got)
	}
}

func TestSplitEscapedKeepsEntities(t *testing.T) {
	const limit = MaxMessageLength - len("<pre></pre>")
	escaped := EscapeHTML(strings.Repeat("<C> & <G>", 1000))

	parts := SplitEscaped(escaped, limit)
	if len(parts) < 2 {
		t.Fatalf("expected several parts, got %d", len(parts))
	}
	if got := strings.Join(parts, ""); got != escaped {
		t.Errorf("parts do not add up to the escaped text")
	}
	for i, part := range parts {
		if n := utf8.RuneCountInString(part); n > limit {
			t.Errorf("part %d has %d characters, limit %d", i, n, limit)
		}
		if strings.Count(part, "&") != strings.Count(part, ";") {
			t.Errorf("part %d cuts an entity: ...%q", i, part[len(part)-8:])
		}
	}
}
