package usecase

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/productadvisor/backend/internal/domain"
)

// Confidence bands used to colour match scores
const (
	BandHigh   = "high"
	BandMedium = "medium"
	BandLow    = "low"
)

// FormatPriceINR formats a price in rupees with Indian digit grouping, rounded to whole rupees.
// e.g. 123456 -> "₹1,23,456"
func FormatPriceINR(price float64) string {
	rounded := int64(math.Round(price))
	sign := ""
	if rounded < 0 {
		sign = "-"
		rounded = -rounded
	}
	return sign + "₹" + groupIndian(strconv.FormatInt(rounded, 10))
}

// groupIndian inserts separators after the last three digits, then every two.
func groupIndian(digits string) string {
	if len(digits) <= 3 {
		return digits
	}

	head, tail := digits[:len(digits)-3], digits[len(digits)-3:]
	var parts []string
	for len(head) > 2 {
		parts = append([]string{head[len(head)-2:]}, parts...)
		head = head[:len(head)-2]
	}
	if head != "" {
		parts = append([]string{head}, parts...)
	}
	return strings.Join(append(parts, tail), ",")
}

// ConfidencePercent converts a [0,1] confidence to a rounded percentage
func ConfidencePercent(confidence float64) int {
	return int(math.Round(confidence * 100))
}

// ConfidenceBand buckets a confidence: >= 0.8 high, >= 0.6 medium, otherwise low
func ConfidenceBand(confidence float64) string {
	switch {
	case confidence >= 0.8:
		return BandHigh
	case confidence >= 0.6:
		return BandMedium
	default:
		return BandLow
	}
}

// FormatProductDetails renders the detail text shown for a product
func FormatProductDetails(p domain.Product) string {
	return fmt.Sprintf("%s\n\nPrice: %s\nBrand: %s", p.Description, FormatPriceINR(p.Price), p.Brand)
}
