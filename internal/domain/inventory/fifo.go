package inventory

import (
	"sort"

	"github.com/erp/inventory/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LotConsumption records how much an exit took from a single lot
type LotConsumption struct {
	LotID     uuid.UUID       `json:"lot_id"`
	LotNumber string          `json:"lot_number"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitCost  decimal.Decimal `json:"unit_cost"`
	TotalCost decimal.Decimal `json:"total_cost"`
}

// ExitPlan is the computed result of a FIFO exit across lots
type ExitPlan struct {
	Consumptions        []LotConsumption // Per-lot breakdown, oldest first
	TotalConsumed       decimal.Decimal  // Total quantity taken from lots
	TotalCost           decimal.Decimal  // Sum of per-lot costs
	WeightedAverageCost decimal.Decimal  // TotalCost / TotalConsumed
	Shortfall           decimal.Decimal  // Quantity the lots could not cover
	FullyFulfilled      bool
	DepletedLots        []uuid.UUID // Lots fully consumed by this plan
}

// SortLotsFIFO orders lots by ingress date ascending, lot number as tiebreak
func SortLotsFIFO(lots []Lot) {
	sort.Slice(lots, func(i, j int) bool {
		if !lots[i].IngressDate.Equal(lots[j].IngressDate) {
			return lots[i].IngressDate.Before(lots[j].IngressDate)
		}
		return lots[i].LotNumber < lots[j].LotNumber
	})
}

// PlanFIFOExit computes which lots an exit should consume and at what cost.
// Lots that are not consumable (gated quality, deactivated, empty) are skipped.
// The plan does not mutate the lots; use ApplyExitPlan to commit it.
func PlanFIFOExit(requestedQuantity decimal.Decimal, lots []Lot) (*ExitPlan, error) {
	if requestedQuantity.LessThanOrEqual(decimal.Zero) {
		return nil, shared.ErrInvalidQuantity
	}

	consumable := make([]Lot, 0, len(lots))
	for _, lot := range lots {
		if lot.IsConsumable() {
			consumable = append(consumable, lot)
		}
	}
	SortLotsFIFO(consumable)

	consumptions := make([]LotConsumption, 0)
	depleted := make([]uuid.UUID, 0)
	remaining := requestedQuantity
	totalConsumed := decimal.Zero
	totalCost := decimal.Zero

	for _, lot := range consumable {
		if remaining.IsZero() {
			break
		}

		take := decimal.Min(remaining, lot.CurrentQuantity)
		cost := take.Mul(lot.UnitCost)

		consumptions = append(consumptions, LotConsumption{
			LotID:     lot.ID,
			LotNumber: lot.LotNumber,
			Quantity:  take,
			UnitCost:  lot.UnitCost,
			TotalCost: cost,
		})

		totalConsumed = totalConsumed.Add(take)
		totalCost = totalCost.Add(cost)
		remaining = remaining.Sub(take)

		if take.Equal(lot.CurrentQuantity) {
			depleted = append(depleted, lot.ID)
		}
	}

	var weightedAvgCost decimal.Decimal
	if totalConsumed.GreaterThan(decimal.Zero) {
		weightedAvgCost = totalCost.Div(totalConsumed).Round(4)
	}

	return &ExitPlan{
		Consumptions:        consumptions,
		TotalConsumed:       totalConsumed,
		TotalCost:           totalCost,
		WeightedAverageCost: weightedAvgCost,
		Shortfall:           remaining,
		FullyFulfilled:      remaining.IsZero(),
		DepletedLots:        depleted,
	}, nil
}

// ApplyExitPlan commits a plan against the lot entities
func ApplyExitPlan(lots []*Lot, plan *ExitPlan) error {
	if plan == nil {
		return shared.NewDomainError("INVALID_PLAN", "Exit plan cannot be nil")
	}

	lotMap := make(map[uuid.UUID]*Lot, len(lots))
	for _, lot := range lots {
		lotMap[lot.ID] = lot
	}

	for _, c := range plan.Consumptions {
		lot, ok := lotMap[c.LotID]
		if !ok {
			return shared.NewDomainErrorf("LOT_UNAVAILABLE", "Lot not found: %s", c.LotID)
		}
		consumed, err := lot.Consume(c.Quantity, false)
		if err != nil {
			return err
		}
		if !consumed.Equal(c.Quantity) {
			return shared.NewDomainErrorf("LOT_UNAVAILABLE",
				"Lot %s changed concurrently: planned %s, consumed %s",
				lot.LotNumber, c.Quantity.String(), consumed.String())
		}
	}

	return nil
}

// TotalConsumableQuantity sums the remaining quantity across consumable lots
func TotalConsumableQuantity(lots []Lot) decimal.Decimal {
	total := decimal.Zero
	for _, lot := range lots {
		if lot.IsConsumable() {
			total = total.Add(lot.CurrentQuantity)
		}
	}
	return total
}
