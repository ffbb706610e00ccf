// Package types provides display helpers shared across settle.
package types

import (
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Locale describes how amounts are rendered for display.
//
// Examples with LocaleES:
//   - 1234567   -> "1.234.567"
//   - 1234.5    -> "1.234,50"
//   - -98765.43 -> "-98.765,43"
type Locale struct {
	Name    string `json:"name" yaml:"name"`
	Symbol  string `json:"symbol" yaml:"symbol"`   // Currency symbol prefix, e.g. "$"
	Group   string `json:"group" yaml:"group"`     // Thousands separator
	Decimal string `json:"decimal" yaml:"decimal"` // Integer/fraction separator
}

// Built-in locales.
var (
	LocaleES = Locale{Name: "es", Symbol: "$", Group: ".", Decimal: ","}
	LocaleEN = Locale{Name: "en", Symbol: "$", Group: ",", Decimal: "."}
)

// DefaultLocale is used by FormatAmount and FormatCurrency.
var DefaultLocale = LocaleES

// LookupLocale returns the built-in locale with the given name.
func LookupLocale(name string) (Locale, bool) {
	switch strings.ToLower(name) {
	case LocaleES.Name:
		return LocaleES, true
	case LocaleEN.Name:
		return LocaleEN, true
	default:
		return Locale{}, false
	}
}

// FormatAmount renders v with DefaultLocale.
func FormatAmount(v float64) string { return DefaultLocale.Format(v) }

// FormatCurrency renders v with DefaultLocale, prefixed by its symbol.
func FormatCurrency(v float64) string { return DefaultLocale.FormatCurrency(v) }

// Format rounds v to two decimals and renders it without decimals when the
// rounded value is a whole number and with two decimals otherwise, grouping the integer part every three digits.
// Non-finite values are rendered verbatim ("NaN", "+Inf", "-Inf").
func (l Locale) Format(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}

	d := decimal.NewFromFloat(v).Round(2)
	decimals := int32(2)
	if d.IsInteger() {
		decimals = 0
	}

	fixed := d.StringFixed(decimals)

	negative := strings.HasPrefix(fixed, "-")
	fixed = strings.TrimPrefix(fixed, "-")

	intPart, fracPart, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	if negative {
		b.WriteByte('-')
	}
	b.WriteString(groupDigits(intPart, l.Group))
	if fracPart != "" {
		b.WriteString(l.Decimal)
		b.WriteString(fracPart)
	}
	return b.String()
}

// FormatCurrency returns Format(v) prefixed with the locale symbol.
// The minus sign, if any, precedes the symbol: "-$1.234,50".
func (l Locale) FormatCurrency(v float64) string {
	s := l.Format(v)
	if rest, ok := strings.CutPrefix(s, "-"); ok {
		return "-" + l.Symbol + rest
	}
	return l.Symbol + s
}

// groupDigits inserts sep every three digits from the right.
func groupDigits(digits, sep string) string {
	if len(digits) <= 3 || sep == "" {
		return digits
	}

	lead := len(digits) % 3
	if lead == 0 {
		lead = 3
	}

	var b strings.Builder
	b.Grow(len(digits) + (len(digits)-1)/3*len(sep))
	b.WriteString(digits[:lead])
	for i := lead; i < len(digits); i += 3 {
		b.WriteString(sep)
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
