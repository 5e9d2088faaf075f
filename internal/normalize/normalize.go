package normalize

import (
	"regexp"
	"strings"

	"ccr-registry-scraper/internal/config"
)

var spaces = regexp.MustCompile(`\s+`)

type Normalizer struct {
	cfg *config.Config
}

func NewNormalizer(cfg *config.Config) *Normalizer {
	return &Normalizer{cfg: cfg}
}

// CellText cleans the text of one table cell.
func (n *Normalizer) CellText(text string) string {
	if n.cfg.Normalize.TrimNBSP {
		text = strings.ReplaceAll(text, "\u00a0", " ")
	}

	// ADF pads some cells with bidi control marks
	text = strings.Map(func(r rune) rune {
		switch r {
		case '\u200e', '\u200f', '\u202a', '\u202b', '\u202c':
			return -1
		}
		return r
	}, text)

	if n.cfg.Normalize.CollapseSpaces {
		text = spaces.ReplaceAllString(text, " ")
	}

	return strings.TrimSpace(text)
}

// Truncate shortens text to at most max runes, ending with an ellipsis.
func Truncate(text string, max int) string {
	runes := []rune(text)
	if max <= 0 || len(runes) <= max {
		return text
	}

	truncated := string(runes[:max-1])
	if lastSpace := strings.LastIndex(truncated, " "); lastSpace > 0 {
		truncated = truncated[:lastSpace]
	}

	return truncated + "…"
}
