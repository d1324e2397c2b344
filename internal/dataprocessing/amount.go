package dataprocessing

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// placeholders spelled into amount cells by hand; "nill" must be tried before "nil"
var nilWord = regexp.MustCompile(`(?i)nill|nil`)

// NormalizeAmount turns an amount cell into a number. It never fails:
// anything it cannot read is 0.
func NormalizeAmount(v any) float64 {
	switch n := v.(type) {
	case nil:
		return 0
	case float64:
		return finite(n)
	case float32:
		return finite(float64(n))
	case int:
		return float64(n)
	case int8:
		return float64(n)
	case int16:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case uint:
		return float64(n)
	case uint8:
		return float64(n)
	case uint16:
		return float64(n)
	case uint32:
		return float64(n)
	case uint64:
		return float64(n)
	case string:
		return parseAmountText(n)
	case []byte:
		return parseAmountText(string(n))
	case fmt.Stringer:
		return parseAmountText(n.String())
	default:
		return parseAmountText(fmt.Sprint(n))
	}
}

func parseAmountText(s string) float64 {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ",", "")
	s = nilWord.ReplaceAllString(s, "0")
	s = strings.ReplaceAll(s, "-", "0")

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return finite(f)
}

func finite(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}
