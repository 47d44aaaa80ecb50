package forum

import (
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/microcosm-cc/bluemonday"
)

const (
	// MaxBodyLength is the hard cap on a formatted body, ellipsis included.
	MaxBodyLength = 1024

	truncateAt = 1021
	ellipsis   = "..."
)

// Formatter converts rich forum markup into a bounded-length markdown
// rendering suitable for a chat embed.
type Formatter struct {
	policy    *bluemonday.Policy
	converter *converter.Converter
}

func NewFormatter() *Formatter {
	return &Formatter{
		policy: bluemonday.UGCPolicy(),
		converter: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
			),
		),
	}
}

// FormatBody sanitizes raw markup, converts it to markdown and truncates the
// result to MaxBodyLength runes. Malformed markup degrades to best-effort
// text; this operation never fails.
func (f *Formatter) FormatBody(raw string) string {
	sanitized := f.policy.Sanitize(raw)

	text, err := f.converter.ConvertString(sanitized)
	if err != nil {
		text = sanitized
	}
	text = strings.TrimSpace(text)

	return truncate(text)
}

func truncate(text string) string {
	runes := []rune(text)
	if len(runes) <= truncateAt {
		return text
	}
	return string(runes[:truncateAt]) + ellipsis
}
