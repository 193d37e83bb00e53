package templates

import (
	"math"
	"strconv"
	"text/template"

	"github.com/dustin/go-humanize"
)

// FuncMap returns the helpers available inside prompt templates.
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"rupees": Rupees,
		"number": Number,
	}
}

// Rupees formats an amount as whole rupees with thousands separators, e.g. ₹35,000.
func Rupees(amount float64) string {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return "₹0"
	}
	return "₹" + humanize.Comma(int64(math.Round(amount)))
}

// Number prints a float without trailing zeros (24 stays 24, 2.5 stays 2.5).
func Number(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
