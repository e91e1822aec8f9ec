package model

import "time"

// CartItem is a pending, unconfirmed booking selection.  The cart store
// keeps one mapping of these mirrored from the server.
type CartItem struct {
	ID       string    `json:"_id"`
	Villa    VillaRef  `json:"villa"`
	CheckIn  time.Time `json:"checkIn"`
	CheckOut time.Time `json:"checkOut"`
	Guests   int       `json:"guests"`
	Price    float64   `json:"price"`
}

// AddToCart is the body posted when a guest adds a stay.  On creation only
// the villa id travels; the server answers with the full populated cart.
type AddToCart struct {
	VillaID  string    `json:"villa" validate:"required"`
	CheckIn  time.Time `json:"checkIn" validate:"required"`
	CheckOut time.Time `json:"checkOut" validate:"required"`
	Guests   int       `json:"guests" validate:"required,min=1"`
	Price    float64   `json:"price"`
}
