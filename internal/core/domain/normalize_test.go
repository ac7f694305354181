package domain

import (
	"encoding/json"
	"testing"
)

func TestNormalizePartyFlat(t *testing.T) {
	payload := `{
		"name": "Jane Smith",
		"address": "10 Collins St",
		"city": "Melbourne",
		"state": "VIC",
		"postcode": "3000",
		"phone": "0400000000",
		"email": "jane@example.com"
	}`

	var p PartyPayload
	if err := json.Unmarshal([]byte(payload), &p); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	party, err := p.Normalize()
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}

	if party.Address.Line1 != "10 Collins St" {
		t.Errorf("Expected line1 '10 Collins St', got %q", party.Address.Line1)
	}
	if party.Address.PostCode != "3000" {
		t.Errorf("Expected postCode 3000, got %q", party.Address.PostCode)
	}
	if party.Address.CountryCode != "AU" {
		t.Errorf("Expected default country AU, got %q", party.Address.CountryCode)
	}
	if party.Contact.Name != "Jane Smith" {
		t.Errorf("Expected contact name, got %q", party.Contact.Name)
	}
}

func TestNormalizePartyNested(t *testing.T) {
	payload := `{
		"address": {"line1": "1 George St", "city": "Sydney", "state": "NSW", "postCode": "2000", "countryCode": "NZ"},
		"contact": {"name": "Bob", "phone": "02", "email": "bob@example.com"}
	}`

	var p PartyPayload
	if err := json.Unmarshal([]byte(payload), &p); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	party, err := p.Normalize()
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}

	if party.Address.City != "Sydney" {
		t.Errorf("Expected city Sydney, got %q", party.Address.City)
	}
	// Explicit country must survive normalization.
	if party.Address.CountryCode != "NZ" {
		t.Errorf("Expected country NZ, got %q", party.Address.CountryCode)
	}
	if party.Contact.Email != "bob@example.com" {
		t.Errorf("Expected contact email, got %q", party.Contact.Email)
	}
}

func TestNormalizePartyNestedDefaultsCountry(t *testing.T) {
	payload := `{
		"address": {"line1": "1 George St", "city": "Sydney", "state": "NSW", "postCode": "2000"},
		"contact": {"name": "Bob", "phone": "02", "email": "bob@example.com"}
	}`

	var p PartyPayload
	if err := json.Unmarshal([]byte(payload), &p); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	party, err := p.Normalize()
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if party.Address.CountryCode != "AU" {
		t.Errorf("Expected default country AU, got %q", party.Address.CountryCode)
	}
}

func TestNormalizePartyPostCodeAlias(t *testing.T) {
	var p PartyPayload
	if err := json.Unmarshal([]byte(`{"name":"A","address":"1 St","city":"X","state":"Y","postCode":"4000","phone":"1","email":"a@b.c"}`), &p); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	party, err := p.Normalize()
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if party.Address.PostCode != "4000" {
		t.Errorf("Expected postCode alias to map, got %q", party.Address.PostCode)
	}
}

func TestNormalizeItemFlat(t *testing.T) {
	var i ItemPayload
	if err := json.Unmarshal([]byte(`{"weight": 5, "length": 30, "width": 20, "height": 10}`), &i); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	item := i.Normalize()

	if item.Weight != 5 || item.Length != 30 || item.Width != 20 || item.Height != 10 {
		t.Errorf("Unexpected dimensions: %+v", item)
	}
	if item.Quantity != 1 {
		t.Errorf("Expected default quantity 1, got %d", item.Quantity)
	}
	if item.Description != "General Goods" {
		t.Errorf("Expected default description, got %q", item.Description)
	}
}

func TestNormalizeItemNested(t *testing.T) {
	payload := `{
		"weight": {"value": 2.5, "unit": "Kg"},
		"dimensions": {"length": 40, "width": 30, "height": 20, "unit": "Cm"},
		"length": 1, "width": 1, "height": 1,
		"quantity": 3,
		"description": "Books"
	}`

	var i ItemPayload
	if err := json.Unmarshal([]byte(payload), &i); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	item := i.Normalize()

	if item.Weight != 2.5 {
		t.Errorf("Expected weight 2.5, got %v", item.Weight)
	}
	// Nested dimensions win over flat ones.
	if item.Length != 40 || item.Width != 30 || item.Height != 20 {
		t.Errorf("Expected nested dimensions, got %+v", item)
	}
	if item.Quantity != 3 {
		t.Errorf("Expected quantity 3, got %d", item.Quantity)
	}
	if item.Description != "Books" {
		t.Errorf("Expected description Books, got %q", item.Description)
	}
}

func TestNormalizeItemStringNumbers(t *testing.T) {
	var i ItemPayload
	if err := json.Unmarshal([]byte(`{"weight": "5.5", "length": "30", "width": "20", "height": "10", "quantity": "2"}`), &i); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	item := i.Normalize()

	if item.Weight != 5.5 {
		t.Errorf("Expected weight 5.5, got %v", item.Weight)
	}
	if item.Quantity != 2 {
		t.Errorf("Expected quantity 2, got %d", item.Quantity)
	}
}
