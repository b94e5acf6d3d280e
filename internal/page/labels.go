// Package page implements the market page surface the float queue reads and
// writes: per-listing float containers, their buttons and message areas.
package page

import (
	"math"
	"strconv"
	"strings"

	"github.com/z32nissan/CSGOFloat-Extension/internal/interfaces"
)

const (
	LabelGetFloat     = "Get Float"
	LabelFetching     = "Fetching"
	LabelGetAllFloats = "Get All Floats"
	UnknownError      = "Unknown Error"
)

// FloatDivID is the element id of a listing's float container
func FloatDivID(listingID string) string {
	return "item_" + listingID + "_floatdiv"
}

func FloatText(info interfaces.ItemInfo) string {
	return "Float: " + formatNumber(info.FloatValue)
}

// formatNumber prints v the way a browser stringifies a number: plain
// decimals, with exponent notation below 1e-6 and from 1e21 up.
func formatNumber(v float64) string {
	abs := math.Abs(v)
	if abs == 0 || (abs >= 1e-6 && abs < 1e21) {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}

	s := strconv.FormatFloat(v, 'e', -1, 64)
	mantissa, exp, _ := strings.Cut(s, "e")
	sign := exp[0]
	exp = strings.TrimLeft(exp[1:], "0")
	return mantissa + "e" + string(sign) + exp
}

func SeedText(info interfaces.ItemInfo) string {
	return "Paint Seed: " + strconv.Itoa(info.PaintSeed)
}
