package forum

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestFormatBodyShortInputUnchanged(t *testing.T) {
	f := NewFormatter()

	result := f.FormatBody("hello world")
	if result != "hello world" {
		t.Errorf("Expected 'hello world', got: %s", result)
	}
}

func TestFormatBodyConvertsHTML(t *testing.T) {
	f := NewFormatter()

	result := f.FormatBody("<p>hello <strong>world</strong></p>")
	if !strings.Contains(result, "**world**") {
		t.Errorf("Expected bold markdown, got: %s", result)
	}
	if strings.Contains(result, "<") {
		t.Errorf("Expected no remaining tags, got: %s", result)
	}
}

func TestFormatBodyStripsScripts(t *testing.T) {
	f := NewFormatter()

	result := f.FormatBody("<script>alert(1)</script>hi")
	if strings.Contains(result, "alert") {
		t.Errorf("Expected script content to be stripped, got: %s", result)
	}
	if !strings.Contains(result, "hi") {
		t.Errorf("Expected surviving text, got: %s", result)
	}
}

func TestFormatBodyTruncatesLongInput(t *testing.T) {
	f := NewFormatter()

	result := f.FormatBody(strings.Repeat("a", 2000))
	if utf8.RuneCountInString(result) != MaxBodyLength {
		t.Errorf("Expected exactly %d runes, got: %d", MaxBodyLength, utf8.RuneCountInString(result))
	}
	if !strings.HasSuffix(result, "...") {
		t.Errorf("Expected ellipsis suffix, got: %s", result[len(result)-10:])
	}
}

func TestFormatBodyBoundaryNotTruncated(t *testing.T) {
	f := NewFormatter()

	input := strings.Repeat("a", 1021)
	result := f.FormatBody(input)
	if result != input {
		t.Errorf("Expected input of 1021 runes to pass through unchanged, got %d runes", utf8.RuneCountInString(result))
	}
}

func TestFormatBodyIdempotent(t *testing.T) {
	f := NewFormatter()

	once := f.FormatBody(strings.Repeat("a", 5000))
	twice := f.FormatBody(once)
	if once != twice {
		t.Error("Expected reformatting already-bounded text to be a no-op")
	}
}
