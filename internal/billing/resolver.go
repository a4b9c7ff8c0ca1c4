// Package billing holds the maintenance billing engine: the monthly amount
// resolver, the pro-rata period schedule and the idempotent ledger generator.
package billing

import (
	"math"

	"github.com/community-billing-ledger/internal/domain/community"
	"github.com/community-billing-ledger/internal/domain/shared"
	"github.com/community-billing-ledger/internal/domain/unit"
)

// ComputeMonthlyAmount derives a unit's nominal monthly charge in minor units
// from its community's billing policy. Missing rate or floor area yields 0;
// callers treat zero as "nothing to bill", not a failure.
func ComputeMonthlyAmount(c *community.Community, u *unit.Unit) int64 {
	if c == nil || u == nil {
		return 0
	}

	switch c.BillingMode {
	case shared.BillingModeFixedAmount:
		if c.FixedAmount <= 0 {
			return 0
		}
		return c.FixedAmount
	default:
		if c.RatePerArea <= 0 || u.FloorArea <= 0 {
			return 0
		}
		return int64(math.Round(float64(c.RatePerArea) * u.FloorArea))
	}
}
