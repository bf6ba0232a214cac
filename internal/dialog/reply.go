package dialog

import (
	"math"
	"strconv"
	"strings"
	"unicode"
)

// Reply is the normalized meaning of a follow-up response.
type Reply int

// Reply values.
const (
	ReplyNone Reply = iota
	ReplyYes
	ReplyUpdateQuantity
	ReplyWrongFood
	ReplyAmount
	ReplyUnknown
)

func (r Reply) String() string {
	switch r {
	case ReplyNone:
		return "none"
	case ReplyYes:
		return "yes"
	case ReplyUpdateQuantity:
		return "update quantity"
	case ReplyWrongFood:
		return "wrong food"
	case ReplyAmount:
		return "amount"
	default:
		return "unknown"
	}
}

var replyPhrases = map[string]Reply{
	"yes":                 ReplyYes,
	"yeah":                ReplyYes,
	"yep":                 ReplyYes,
	"yup":                 ReplyYes,
	"sure":                ReplyYes,
	"ok":                  ReplyYes,
	"okay":                ReplyYes,
	"correct":             ReplyYes,
	"right":               ReplyYes,
	"yes please":          ReplyYes,
	"log it":              ReplyYes,
	"that's right":        ReplyYes,
	"update quantity":     ReplyUpdateQuantity,
	"update the quantity": ReplyUpdateQuantity,
	"change quantity":     ReplyUpdateQuantity,
	"change the quantity": ReplyUpdateQuantity,
	"quantity":            ReplyUpdateQuantity,
	"update amount":       ReplyUpdateQuantity,
	"change amount":       ReplyUpdateQuantity,
	"change the amount":   ReplyUpdateQuantity,
	"wrong food":          ReplyWrongFood,
	"wrong":               ReplyWrongFood,
	"wrong item":          ReplyWrongFood,
	"no":                  ReplyWrongFood,
	"nope":                ReplyWrongFood,
	"next":                ReplyWrongFood,
	"not that":            ReplyWrongFood,
	"something else":      ReplyWrongFood,
	"different food":      ReplyWrongFood,
}

var amountWords = map[string]float64{
	"half":           0.5,
	"a half":         0.5,
	"one half":       0.5,
	"one":            1,
	"one and a half": 1.5,
	"two":            2,
	"three":          3,
	"four":           4,
	"five":           5,
	"six":            6,
	"seven":          7,
	"eight":          8,
	"nine":           9,
	"ten":            10,
	"eleven":         11,
	"twelve":         12,
}

// ParseReply classifies a free-text follow-up. ReplyAmount comes with the
// parsed positive amount.
func ParseReply(response string) (Reply, float64) {
	text := normalize(response)
	if text == "" {
		return ReplyNone, 0
	}
	if r, ok := replyPhrases[text]; ok {
		return r, 0
	}
	if amount, ok := parseAmount(text); ok {
		return ReplyAmount, amount
	}
	return ReplyUnknown, 0
}

// parseAmount accepts "2", "1.5", "two", "two servings", "a half".
func parseAmount(text string) (float64, bool) {
	if v, ok := amountWords[text]; ok {
		return v, true
	}
	fields := strings.Fields(text)
	if v, err := strconv.ParseFloat(fields[0], 64); err == nil {
		if !loggable(v) {
			return 0, false
		}
		return math.Round(v*100) / 100, true
	}
	if v, ok := amountWords[fields[0]]; ok {
		return v, true
	}
	return 0, false
}

// loggable reports whether v survives the two-decimal amount Fitbit takes.
func loggable(v float64) bool {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return false
	}
	return math.Round(v*100) > 0
}

// normalize lowercases, drops punctuation except apostrophes and decimal
// points, and collapses whitespace.
func normalize(s string) string {
	s = strings.ToLower(s)
	s = strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '\'', r == '.':
			return r
		case unicode.IsSpace(r), r == '-':
			return ' '
		default:
			return -1
		}
	}, s)
	s = strings.Trim(s, ". ")
	return strings.Join(strings.Fields(s), " ")
}
