package chromeriver

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Normalize joins OCR-wrapped rows into one line per expense and cuts the
// report after its total line. Output blocks are separated by a single blank
// line.
//
// A block is a run of non-blank lines; a line starting with a date also opens
// a new block, as does the total line. When a joined block carries several
// amounts only the last one is kept, since the earlier figures are wrapped
// running totals.
func (r *Report) Normalize(raw string) string {
	raw = norm.NFC.String(raw)

	var (
		blocks  []string
		current []string
	)
	flush := func() {
		if len(current) > 0 {
			blocks = append(blocks, joinBlock(current))
			current = nil
		}
	}

	for _, line := range strings.Split(raw, "\n") {
		line = collapse(line)

		switch {
		case line == "":
			flush()
		case isTotalLine(line):
			flush()
			blocks = append(blocks, collapse(stripThousands(line)))
			return strings.Join(blocks, "\n\n")
		case leadingDate.MatchString(line):
			flush()
			current = append(current, line)
		default:
			current = append(current, line)
		}
	}
	flush()

	return strings.Join(blocks, "\n\n")
}

func joinBlock(lines []string) string {
	s := stripThousands(strings.Join(lines, " "))
	return collapse(keepLastAmount(s))
}

func keepLastAmount(s string) string {
	locs := amountToken.FindAllStringIndex(s, -1)
	if len(locs) < 2 {
		return s
	}

	var b strings.Builder
	prev := 0
	for _, loc := range locs[:len(locs)-1] {
		b.WriteString(s[prev:loc[0]])
		b.WriteByte(' ')
		prev = loc[1]
	}
	b.WriteString(s[prev:])
	return b.String()
}

func stripThousands(s string) string {
	return commaAmount.ReplaceAllStringFunc(s, func(m string) string {
		return strings.ReplaceAll(m, ",", "")
	})
}

func collapse(s string) string {
	return strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
}
