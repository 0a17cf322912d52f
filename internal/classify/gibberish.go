package classify

import (
	"strings"
	"unicode"
)

const (
	minMeaningfulRunes = 10
	minASCIIRatio      = 0.6
	minLetterRatio     = 0.5
	maxSymbolRatio     = 0.3
)

// IsGibberish reports whether text looks like transcription noise. Rules are
// evaluated on the trimmed text, first match wins; every ratio uses the total
// rune count as denominator.
func IsGibberish(text string) bool {
	trimmed := strings.TrimSpace(text)
	var total, ascii, letters, symbols int
	for _, r := range trimmed {
		total++
		if r < 128 {
			ascii++
		}
		if unicode.IsLetter(r) {
			letters++
		}
		if !unicode.IsLetter(r) && !unicode.IsNumber(r) && !unicode.IsSpace(r) {
			symbols++
		}
	}
	if total < minMeaningfulRunes {
		return true
	}
	n := float64(total)
	if float64(ascii)/n < minASCIIRatio {
		return true
	}
	if float64(letters)/n < minLetterRatio {
		return true
	}
	return float64(symbols)/n > maxSymbolRatio
}
