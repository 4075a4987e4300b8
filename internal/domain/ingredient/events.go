package ingredient

import "time"

// StockChangedEvent is emitted after a stock-determining write and its
// synchronous availability reconciliation have both completed. Subscribers
// observe it for alerting only; derived state is never computed from it.
type StockChangedEvent struct {
	ShopID       string
	IngredientID string
	Name         string
	Stock        float64
	Unit         Unit
	Available    bool
	LowStock     bool
	OccurredAt   time.Time
}

func (StockChangedEvent) EventName() string { return "ingredient.stock_changed" }

func NewStockChangedEvent(i *Ingredient) StockChangedEvent {
	return StockChangedEvent{
		ShopID:       i.ShopID,
		IngredientID: i.ID,
		Name:         i.Name,
		Stock:        i.Stock,
		Unit:         i.Unit,
		Available:    i.Available,
		LowStock:     i.LowStock(),
		OccurredAt:   time.Now().UTC(),
	}
}
