package domain

import "testing"

func TestApplyMarkupPercentage(t *testing.T) {
	result := ApplyMarkup(100, MarkupConfig{Type: MarkupPercentage, Value: 15})

	if result.BaseCost != 100 {
		t.Errorf("Expected base cost 100, got %v", result.BaseCost)
	}
	if result.MarkupAmount != 15 {
		t.Errorf("Expected markup 15, got %v", result.MarkupAmount)
	}
	if result.TotalCost != 115 {
		t.Errorf("Expected total 115, got %v", result.TotalCost)
	}
}

func TestApplyMarkupFixed(t *testing.T) {
	result := ApplyMarkup(80.50, MarkupConfig{Type: MarkupFixed, Value: 10})

	if result.MarkupAmount != 10 {
		t.Errorf("Expected markup 10, got %v", result.MarkupAmount)
	}
	if result.TotalCost != 90.50 {
		t.Errorf("Expected total 90.50, got %v", result.TotalCost)
	}
}

func TestApplyMarkupRounding(t *testing.T) {
	// 33.335% of 10.01 produces repeating decimals; each field rounds
	// independently to 2 places.
	result := ApplyMarkup(10.01, MarkupConfig{Type: MarkupPercentage, Value: 33.335})

	if result.MarkupAmount != 3.34 {
		t.Errorf("Expected markup 3.34, got %v", result.MarkupAmount)
	}
	if result.TotalCost != 13.35 {
		t.Errorf("Expected total 13.35, got %v", result.TotalCost)
	}
}

func TestApplyMarkupUnknownType(t *testing.T) {
	result := ApplyMarkup(100, MarkupConfig{Type: "bogus", Value: 50})

	if result.MarkupAmount != 0 {
		t.Errorf("Expected no markup for unknown type, got %v", result.MarkupAmount)
	}
	if result.TotalCost != 100 {
		t.Errorf("Expected total 100, got %v", result.TotalCost)
	}
}

func TestApplyMarkupZeroBase(t *testing.T) {
	result := ApplyMarkup(0, MarkupConfig{Type: MarkupPercentage, Value: 20})

	if result.TotalCost != 0 {
		t.Errorf("Expected total 0, got %v", result.TotalCost)
	}
}
