package parser

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/IshaanNene/shelfwatch/internal/config"
)

// numberRe matches a price-like numeric run: digits with optional
// thousands separators and decimal part.
var numberRe = regexp.MustCompile(`[\d,]+(?:\.\d+)?`)

// ParsePrice extracts the numeric price from raw price text. It strips
// the profile's known prefixes ("Starting at:" ranges and the like),
// locates the first currency symbol, and parses the numeric run that
// follows it. Text without a currency symbol, or with an empty numeric
// portion, yields 0.
func ParsePrice(text string, profile config.SiteProfile) float64 {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0
	}

	for _, prefix := range profile.PricePrefixes {
		if prefix != "" && strings.HasPrefix(text, prefix) {
			text = strings.TrimSpace(strings.TrimPrefix(text, prefix))
			break
		}
	}

	idx, symLen := -1, 0
	for _, sym := range profile.CurrencySymbols {
		if sym == "" {
			continue
		}
		if i := strings.Index(text, sym); i >= 0 && (idx == -1 || i < idx) {
			idx, symLen = i, len(sym)
		}
	}
	if idx < 0 {
		return 0
	}

	numeric := numberRe.FindString(text[idx+symLen:])
	if numeric == "" {
		return 0
	}

	price, err := strconv.ParseFloat(strings.ReplaceAll(numeric, ",", ""), 64)
	if err != nil {
		return 0
	}
	return price
}
