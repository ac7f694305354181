package domain

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// DefaultCountryCode is applied when a party omits its country.
const DefaultCountryCode = "AU"

// PartyPayload accepts either the flat shipper/consignee shape
// ({name, address, city, state, postcode, phone, email}) or the nested shape
// ({address: {...}, contact: {...}}). Normalize converts both to a Party.
type PartyPayload struct {
	Address json.RawMessage `json:"address"`
	Contact *Contact        `json:"contact"`

	// Flat-shape fields.
	Name        string `json:"name"`
	City        string `json:"city"`
	State       string `json:"state"`
	Postcode    string `json:"postcode"`
	PostCode    string `json:"postCode"`
	Phone       string `json:"phone"`
	Email       string `json:"email"`
	CountryCode string `json:"countryCode"`
}

// isNested reports whether the payload arrived in the nested shape: the
// address field is a JSON object and a contact object is present.
func (p *PartyPayload) isNested() bool {
	return p.Contact != nil && len(p.Address) > 0 && bytes.HasPrefix(bytes.TrimSpace(p.Address), []byte("{"))
}

// Normalize converts the payload to the canonical nested Party. Normalizing an
// already-nested payload returns its content unchanged apart from the country
// code default.
func (p *PartyPayload) Normalize() (Party, error) {
	if p.isNested() {
		var addr Address
		if err := json.Unmarshal(p.Address, &addr); err != nil {
			return Party{}, err
		}
		if addr.CountryCode == "" {
			addr.CountryCode = DefaultCountryCode
		}
		return Party{Address: addr, Contact: *p.Contact}, nil
	}

	var line1 string
	if len(p.Address) > 0 {
		if err := json.Unmarshal(p.Address, &line1); err != nil {
			return Party{}, err
		}
	}

	postCode := p.Postcode
	if postCode == "" {
		postCode = p.PostCode
	}
	countryCode := p.CountryCode
	if countryCode == "" {
		countryCode = DefaultCountryCode
	}

	return Party{
		Address: Address{
			Line1:       line1,
			City:        p.City,
			State:       p.State,
			PostCode:    postCode,
			CountryCode: countryCode,
		},
		Contact: Contact{
			Name:  p.Name,
			Phone: p.Phone,
			Email: p.Email,
		},
	}, nil
}

// ItemPayload accepts either flat weight/length/width/height numbers or the
// nested {weight: {value, unit}, dimensions: {length, width, height, unit}}
// shape.
type ItemPayload struct {
	Weight     flexFloat `json:"weight"`
	Dimensions *struct {
		Length float64 `json:"length"`
		Width  float64 `json:"width"`
		Height float64 `json:"height"`
		Unit   string  `json:"unit"`
	} `json:"dimensions"`

	Length flexFloat `json:"length"`
	Width  flexFloat `json:"width"`
	Height flexFloat `json:"height"`

	Quantity    flexInt `json:"quantity"`
	Description string  `json:"description"`
}

// Normalize converts the payload to a canonical Item. Nested fields win when
// both shapes are present.
func (i *ItemPayload) Normalize() Item {
	item := Item{
		Weight:      float64(i.Weight),
		Length:      float64(i.Length),
		Width:       float64(i.Width),
		Height:      float64(i.Height),
		Quantity:    int(i.Quantity),
		Description: i.Description,
	}
	if i.Dimensions != nil {
		item.Length = i.Dimensions.Length
		item.Width = i.Dimensions.Width
		item.Height = i.Dimensions.Height
	}
	if item.Quantity <= 0 {
		item.Quantity = 1
	}
	if item.Description == "" {
		item.Description = "General Goods"
	}
	return item
}

// flexFloat decodes a JSON number, a numeric string, or a {value, unit}
// object into a float64.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] == '{' {
		var obj struct {
			Value float64 `json:"value"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return err
		}
		*f = flexFloat(obj.Value)
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return err
		}
		*f = flexFloat(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = flexFloat(v)
	return nil
}

// flexInt decodes a JSON number or numeric string into an int.
type flexInt int

func (f *flexInt) UnmarshalJSON(data []byte) error {
	var v flexFloat
	if err := v.UnmarshalJSON(data); err != nil {
		return err
	}
	*f = flexInt(v)
	return nil
}
