// Package market holds purchase rules shared by the verifier and the
// backend's simulated buyers.
package market

import "github.com/mktsim/tickops/go/internal/models"

// MaxBotPrice is the highest unit price (in cents) a simulated buyer
// will pay for a product during a tick.
const MaxBotPrice int64 = 5_000_000

// Eligible reports whether a product can be picked up by a bot purchase:
// it must be active, not archived, priced in (0, MaxBotPrice], and either
// untracked or in stock.
func Eligible(p models.Product) bool {
	if !p.IsActive || p.IsArchived {
		return false
	}
	if p.Price <= 0 || p.Price > MaxBotPrice {
		return false
	}
	return p.InStock()
}

// FilterEligible returns the subset of products that bots may purchase.
func FilterEligible(products []models.Product) []models.Product {
	eligible := make([]models.Product, 0, len(products))
	for _, p := range products {
		if Eligible(p) {
			eligible = append(eligible, p)
		}
	}
	return eligible
}
