package models

// Product represents a marketplace listing as stored in the backend.
// Prices are integer cents; Stock is nil for unlimited listings.
type Product struct {
	ID         string   `json:"_id"`
	Name       string   `json:"name"`
	Category   string   `json:"category,omitempty"`
	Price      int64    `json:"price"`
	Stock      *int64   `json:"stock,omitempty"`
	IsActive   bool     `json:"isActive"`
	IsArchived bool     `json:"isArchived"`
	SellerID   string   `json:"sellerId,omitempty"`
	Rating     *float64 `json:"rating,omitempty"`
}

// InStock reports whether the product can still be bought: either the
// listing is unlimited (no stock tracking) or at least one unit remains.
func (p Product) InStock() bool {
	return p.Stock == nil || *p.Stock > 0
}
