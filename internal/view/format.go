package view

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// PnL classes. There is no neutral class: zero counts as positive.
const (
	ClassPositive = "positive"
	ClassNegative = "negative"
)

// Symbol placeholder inside the exchange URL template.
const SymbolPlaceholder = "{symbol}"

var dayNames = [7]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

// PnLClass classifies a profit/loss value.
func PnLClass(p decimal.Decimal) string {
	if p.IsNegative() {
		return ClassNegative
	}
	return ClassPositive
}

// PnLClassFloat is PnLClass for plain float figures such as ROI.
func PnLClassFloat(p float64) string {
	if p < 0 {
		return ClassNegative
	}
	return ClassPositive
}

// FormatCurrency renders a USD amount as "$1,234.56" or "-$5.00".
func FormatCurrency(d decimal.Decimal) string {
	f, _ := d.Round(2).Float64()
	sign := ""
	if f < 0 {
		sign = "-"
		f = -f
	}
	return sign + "$" + humanize.FormatFloat("#,###.##", f)
}

// FormatSignedCurrency prefixes non-negative amounts with "+".
func FormatSignedCurrency(d decimal.Decimal) string {
	if d.IsNegative() {
		return FormatCurrency(d)
	}
	return "+" + FormatCurrency(d)
}

// FormatPercent renders "+1.23%" / "-4.50%".
func FormatPercent(v float64) string {
	sign := ""
	if v >= 0 {
		sign = "+"
	}
	return fmt.Sprintf("%s%.2f%%", sign, v)
}

// FormatPercentDecimal is FormatPercent for decimal inputs.
func FormatPercentDecimal(d decimal.Decimal) string {
	f, _ := d.Float64()
	return FormatPercent(f)
}

// FormatPrice renders a price with a dollar sign and fixed decimals.
func FormatPrice(d decimal.Decimal, decimals int32) string {
	return "$" + d.StringFixed(decimals)
}

// FormatLeverage renders 10 as "10x" and 2.5 as "2.5x".
func FormatLeverage(l float64) string {
	return strconv.FormatFloat(l, 'f', -1, 64) + "x"
}

// FormatNumber renders a float without trailing zeros.
func FormatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// OpenDuration buckets the time elapsed since opened: whole minutes under
// an hour, hours with one decimal under a day, days with one decimal
// otherwise.
func OpenDuration(opened, now time.Time) string {
	if opened.IsZero() {
		return "-"
	}
	hours := now.Sub(opened).Hours()
	switch {
	case hours < 1:
		return fmt.Sprintf("%dmin", int(math.Floor(hours*60)))
	case hours < 24:
		return fmt.Sprintf("%.1fh", hours)
	default:
		return fmt.Sprintf("%.1fd", hours/24)
	}
}

// ClosedDuration renders a closed trade's duration, "-" when unknown.
func ClosedDuration(hours float64) string {
	if hours == 0 {
		return "-"
	}
	return fmt.Sprintf("%.1fh", hours)
}

// FormatTimestamp renders a local date and time, "-" when unset.
func FormatTimestamp(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}

// ExchangeLink builds the outbound link for a pair. Only the first "/" of
// the symbol is removed.
func ExchangeLink(template, symbol string) string {
	clean := strings.Replace(symbol, "/", "", 1)
	return strings.ReplaceAll(template, SymbolPlaceholder, clean)
}

// CloseReasonIcon maps a close reason to its marker.
func CloseReasonIcon(reason string) string {
	switch reason {
	case "TP_HIT":
		return "🎯"
	case "SL_HIT":
		return "🛑"
	case "LIQUIDATED":
		return "💀"
	default:
		return "✓"
	}
}

// YesNo renders a flag.
func YesNo(b bool) string {
	if b {
		return "✓ Yes"
	}
	return "✗ No"
}

// DayNames maps 0=Monday .. 6=Sunday indexes to short names. Out of range
// indexes render as "?".
func DayNames(days []int) string {
	names := make([]string, 0, len(days))
	for _, d := range days {
		if d < 0 || d >= len(dayNames) {
			names = append(names, "?")
			continue
		}
		names = append(names, dayNames[d])
	}
	return strings.Join(names, ", ")
}
