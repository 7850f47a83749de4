package utils

import (
	"log"
	"math"
	"strconv"
)

// Round2 rounds a money value to 2 decimal places. All amount comparisons
// in the engines happen at this precision.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// ParseQty parses a user-supplied quantity, falling back to 1 on garbage
// or non-positive input. Data entry at the counter stays forgiving; the
// fallback is logged so silently-corrected input is still visible.
func ParseQty(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		if s != "" && s != "1" {
			log.Printf("lenient parse: qty %q -> 1", s)
		}
		return 1
	}
	return n
}

// ParseAmount parses a user-supplied money amount, falling back to 0.
func ParseAmount(s string) float64 {
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		log.Printf("lenient parse: amount %q -> 0", s)
		return 0
	}
	return v
}
