package domain

import "math"

type MarkupType string

const (
	MarkupPercentage MarkupType = "percentage"
	MarkupFixed      MarkupType = "fixed"
)

// MarkupConfig is a customer's pricing policy. Read-only input to markup
// computation; owned by the customer account record.
type MarkupConfig struct {
	Type  MarkupType `json:"type"`
	Value float64    `json:"value"`
}

// PricingResult is a customer-facing price derived from a carrier base cost.
// Each field is independently rounded to 2 decimal places.
type PricingResult struct {
	BaseCost     float64 `json:"baseCost"`
	MarkupAmount float64 `json:"markupAmount"`
	TotalCost    float64 `json:"totalCost"`
}

// ApplyMarkup converts a carrier base cost into a customer-facing price.
// Pure function: no I/O, deterministic for identical inputs.
func ApplyMarkup(baseCost float64, config MarkupConfig) PricingResult {
	var markupAmount float64

	switch config.Type {
	case MarkupPercentage:
		markupAmount = baseCost * (config.Value / 100)
	case MarkupFixed:
		markupAmount = config.Value
	}

	totalCost := baseCost + markupAmount

	return PricingResult{
		BaseCost:     round2(baseCost),
		MarkupAmount: round2(markupAmount),
		TotalCost:    round2(totalCost),
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
