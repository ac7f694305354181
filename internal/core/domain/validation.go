package domain

import (
	"fmt"
	"strings"
)

// ValidationError describes a request with missing or malformed required
// fields. Missing lists the field paths so callers can return a
// self-documenting error body.
type ValidationError struct {
	Message string
	Missing []string
}

func (e *ValidationError) Error() string {
	if len(e.Missing) == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Message, strings.Join(e.Missing, ", "))
}

// ValidateParty checks a normalized party's address and contact fields.
// State is mandatory for both addresses (carrier requirement).
func ValidateParty(party Party, role string) error {
	var missing []string
	if party.Address.Line1 == "" {
		missing = append(missing, "address.line1")
	}
	if party.Address.City == "" {
		missing = append(missing, "address.city")
	}
	if party.Address.State == "" {
		missing = append(missing, "address.state")
	}
	if party.Address.PostCode == "" {
		missing = append(missing, "address.postCode")
	}
	if len(missing) > 0 {
		return &ValidationError{
			Message: fmt.Sprintf("Missing required %s address fields", role),
			Missing: missing,
		}
	}

	if party.Contact.Name == "" {
		missing = append(missing, "contact.name")
	}
	if party.Contact.Phone == "" {
		missing = append(missing, "contact.phone")
	}
	if party.Contact.Email == "" {
		missing = append(missing, "contact.email")
	}
	if len(missing) > 0 {
		return &ValidationError{
			Message: fmt.Sprintf("Missing required %s contact fields", role),
			Missing: missing,
		}
	}

	return nil
}

// ValidateItems checks that every item carries a positive weight and full
// dimensions.
func ValidateItems(items []Item) error {
	for _, item := range items {
		if item.Weight <= 0 || item.Length <= 0 || item.Width <= 0 || item.Height <= 0 {
			return &ValidationError{
				Message: "Missing required item fields",
				Missing: []string{"weight", "length", "width", "height"},
			}
		}
	}
	return nil
}
