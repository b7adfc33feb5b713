package models

import "regexp"

var courierPattern = regexp.MustCompile(`^[a-z]+(:[a-z]+)*$`)

// ValidCourier reports whether s is a courier code list such as "jne" or
// "jne:pos:tiki".
func ValidCourier(s string) bool {
	return courierPattern.MatchString(s)
}

// Province, City and District form the destination hierarchy used for
// courier quotes.
type Province struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type City struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	ZipCode string `json:"zip_code,omitempty"`
}

type District struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	ZipCode string `json:"zip_code,omitempty"`
}

// ShippingQuote is one courier service offer. It is never persisted.
type ShippingQuote struct {
	Courier     string `json:"code"`
	CourierName string `json:"name"`
	Service     string `json:"service"`
	Description string `json:"description"`
	Cost        int64  `json:"cost"`
	ETD         string `json:"etd"`
}

// ShippingCostRequest is the payload of POST /shipping/cost. Origin defaults
// to the configured warehouse district.
type ShippingCostRequest struct {
	Origin      int64  `json:"origin"`
	Destination int64  `json:"destination" binding:"required,gt=0"`
	Weight      int    `json:"weight" binding:"required,gt=0"`
	Courier     string `json:"courier" binding:"required,courier"`
}
