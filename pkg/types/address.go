package types

import (
	"database/sql/driver"
	"fmt"
	"strings"
)

// Address mirrors the shipping_address_t composite Postgres type.
type Address struct {
	Line1      string  `json:"line1"`
	Line2      *string `json:"line2,omitempty"`
	City       string  `json:"city"`
	District   string  `json:"district"`
	PostalCode string  `json:"postal_code"`
	Country    string  `json:"country"`
	Phone      string  `json:"phone"`
}

// Value marshals Address into a Postgres composite literal. A zero
// Address stores as NULL; a partially filled one is an error.
func (a Address) Value() (driver.Value, error) {
	if a == (Address{}) {
		return nil, nil
	}
	if strings.TrimSpace(a.Line1) == "" {
		return nil, fmt.Errorf("address: missing line1")
	}
	if strings.TrimSpace(a.City) == "" {
		return nil, fmt.Errorf("address: missing city")
	}
	if strings.TrimSpace(a.PostalCode) == "" {
		return nil, fmt.Errorf("address: missing postal_code")
	}
	if strings.TrimSpace(a.Phone) == "" {
		return nil, fmt.Errorf("address: missing phone")
	}

	country := strings.TrimSpace(a.Country)
	if country == "" {
		country = "BD"
	}

	parts := []string{
		quoteCompositeString(a.Line1),
		quoteCompositeNullable(a.Line2),
		quoteCompositeString(a.City),
		quoteCompositeString(a.District),
		quoteCompositeString(a.PostalCode),
		quoteCompositeString(country),
		quoteCompositeString(a.Phone),
	}

	return "(" + strings.Join(parts, ",") + ")", nil
}

// Scan decodes the Postgres composite literal.
func (a *Address) Scan(value interface{}) error {
	if value == nil {
		*a = Address{}
		return nil
	}

	raw, ok := toString(value)
	if !ok {
		return fmt.Errorf("address: unsupported scan type %T", value)
	}

	fields, err := parseComposite(raw, 7)
	if err != nil {
		return err
	}

	a.Line1 = fields[0]
	a.Line2 = newCompositeNullable(fields[1])
	a.City = fields[2]
	a.District = fields[3]
	a.PostalCode = fields[4]
	a.Country = fields[5]
	a.Phone = fields[6]
	return nil
}
