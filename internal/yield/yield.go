package yield

import (
	"time"

	"github.com/shopspring/decimal"

	"yieldapp/internal/model"
)

// AccruedROI computes the withdrawable return on an investment: the plan's
// weekly percent applied per full elapsed week, plus admin adjustments, minus
// what was already withdrawn. Decimal arithmetic keeps cent-scale amounts
// exact; the result is rounded to two places.
func AccruedROI(inv *model.Investment, plan model.InvestmentPlanConfig, now time.Time) float64 {
	created := time.Unix(inv.CreatedAt, 0)
	weeks := int64(now.Sub(created).Hours() / (24 * 7))
	if weeks < 0 {
		weeks = 0
	}

	amount := decimal.NewFromFloat(inv.Amount)
	pct := decimal.NewFromFloat(plan.WeeklyPercent).Div(decimal.NewFromInt(100))
	accrued := amount.Mul(pct).Mul(decimal.NewFromInt(weeks))

	accrued = accrued.Add(decimal.NewFromFloat(inv.AdjustedGain))
	accrued = accrued.Sub(decimal.NewFromFloat(inv.ROIWithdrawn))

	f, _ := accrued.Round(2).Float64()
	return f
}

// Locked reports whether the investment is still inside its plan lock period.
func Locked(inv *model.Investment, plan model.InvestmentPlanConfig, now time.Time) bool {
	if plan.LockPeriod <= 0 {
		return false
	}
	unlock := time.Unix(inv.CreatedAt, 0).AddDate(0, 0, plan.LockPeriod)
	return now.Before(unlock)
}

// NetworkFeeQuote prices the network fee for a withdrawal amount: a percent
// of the amount with a floor, rounded to two places.
func NetworkFeeQuote(amount float64, sched model.FeeScheduleConfig) float64 {
	a := decimal.NewFromFloat(amount)
	pct := decimal.NewFromFloat(sched.NetworkPercent).Div(decimal.NewFromInt(100))
	fee := a.Mul(pct).Round(2)

	min := decimal.NewFromFloat(sched.NetworkMinimum)
	if fee.LessThan(min) {
		fee = min
	}
	f, _ := fee.Float64()
	return f
}
