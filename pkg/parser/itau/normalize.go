package itau

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	structuralNoise = regexp.MustCompile(`[()\[\]|]`)
	// thousandsDot matches "1.234,56"; applied until nothing changes so that
	// "1.234.567,89" collapses fully.
	thousandsDot    = regexp.MustCompile(`(\d+)\.(\d+,\d{2})`)
	dateThenSymbol  = regexp.MustCompile(`(\d{2}/\d{2}/\d{4})[^\p{L}\p{N}_\s]`)
	trailingSymbols = regexp.MustCompile(`[^\p{L}\p{N}_]+$`)
	whitespace      = regexp.MustCompile(`\s+`)
)

// Normalize cleans every line and keeps the window from the opening balance
// line to the closing balance line, inclusive. Without an opening line every
// line is kept; without a closing line the window runs to the end.
func (b *Bank) Normalize(raw string) string {
	raw = norm.NFC.String(raw)

	var lines []string
	for _, line := range strings.Split(raw, "\n") {
		if cleaned := cleanLine(line); cleaned != "" {
			lines = append(lines, cleaned)
		}
	}

	start := indexContaining(lines, b.cfg.Opening, 0)
	if start < 0 {
		return strings.Join(lines, "\n")
	}

	end := indexContaining(lines, b.cfg.Closing, start)
	if end < 0 {
		end = len(lines) - 1
	}

	return strings.Join(lines[start:end+1], "\n")
}

func cleanLine(line string) string {
	line = structuralNoise.ReplaceAllString(line, " ")

	for {
		next := thousandsDot.ReplaceAllString(line, "$1$2")
		if next == line {
			break
		}
		line = next
	}

	line = dateThenSymbol.ReplaceAllString(line, "$1 ")
	line = trailingSymbols.ReplaceAllString(line, "")
	line = whitespace.ReplaceAllString(line, " ")
	return strings.TrimSpace(line)
}

func indexContaining(lines []string, label string, from int) int {
	if label == "" {
		return -1
	}
	for i := from; i < len(lines); i++ {
		if strings.Contains(lines[i], label) {
			return i
		}
	}
	return -1
}
