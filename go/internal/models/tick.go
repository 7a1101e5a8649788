package models

import "time"

// Tick records one execution of the backend's periodic market routine:
// price updates, stock refills and automated bot purchases.
type Tick struct {
	ID           string        `json:"_id,omitempty"`
	TickNumber   int64         `json:"tickNumber"`
	Timestamp    int64         `json:"timestamp"` // ms since epoch
	BotPurchases []BotPurchase `json:"botPurchases,omitempty"`
	PriceUpdates int           `json:"priceUpdates"`
	StockUpdates int           `json:"stockUpdates"`
}

// Time converts the tick's millisecond timestamp to a time.Time.
func (t Tick) Time() time.Time {
	return time.UnixMilli(t.Timestamp)
}

// BotPurchase is one automated, budget-constrained purchase made by a
// simulated buyer during a tick.
type BotPurchase struct {
	BotName     string `json:"botName"`
	ProductID   string `json:"productId"`
	ProductName string `json:"productName,omitempty"`
	Quantity    int64  `json:"quantity"`
	TotalSpent  int64  `json:"totalSpent"`
}

// LatestTick picks the tick with the highest tick number. History is
// served newest first, but scanning for the max keeps the result correct
// if the backend ever changes the ordering.
func LatestTick(ticks []Tick) *Tick {
	var latest *Tick
	for i := range ticks {
		if latest == nil || ticks[i].TickNumber > latest.TickNumber {
			latest = &ticks[i]
		}
	}
	return latest
}

// TickResult is the return value of the tick:manualTick mutation.
type TickResult struct {
	TickNumber    int64 `json:"tickNumber"`
	BotPurchases  int   `json:"botPurchases"`
	StockUpdates  int   `json:"stockUpdates"`
	CryptoUpdates int   `json:"cryptoUpdates"`
}
