package model

import (
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var usd = message.NewPrinter(language.English)

// FormatCurrency renders a loosely formatted deal value as whole US dollars.
// Everything except digits and dots is dropped first; empty or unparseable
// values render as "$0".
func FormatCurrency(val string) string {
	var b strings.Builder
	seenDot := false
scan:
	for _, r := range val {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.':
			// Anything after a second dot is not part of the number.
			if seenDot {
				break scan
			}
			seenDot = true
			b.WriteRune(r)
		}
	}
	num, err := strconv.ParseFloat(b.String(), 64)
	if err != nil || math.IsNaN(num) || math.IsInf(num, 0) {
		return "$0"
	}
	return usd.Sprintf("$%d", int64(math.Round(num)))
}

// ConfidenceBand buckets a confidence score for display.
func ConfidenceBand(score int) string {
	switch {
	case score > 80:
		return "high"
	case score > 50:
		return "medium"
	default:
		return "low"
	}
}
