package incentive

import "github.com/shopspring/decimal"

// =============================================================================
// POINTS CALCULATOR - Pure amount-to-points conversion
// =============================================================================

// ComputePoints converts a sale amount into reward points using the active
// incentive rule for the product.
//
// A nil rule, an inactive rule, or a rule with a non-positive unit amount all
// yield (0.000, 0.00). Absence of a rule is a valid "unconfigured product"
// state, not an error; callers that want observability log it themselves.
//
// The incentive amount is currently defined as numerically equal to the
// points value. A future currency conversion would replace that identity.
func ComputePoints(amount decimal.Decimal, rule *IncentiveRule) (points, incentiveAmount decimal.Decimal) {
	if rule == nil || !rule.Active || !rule.UnitAmount.IsPositive() {
		return decimal.Zero.Round(PointsPlaces), decimal.Zero.Round(MoneyPlaces)
	}
	points = amount.Div(rule.UnitAmount).Mul(rule.PointsPerUnit).Round(PointsPlaces)
	incentiveAmount = points.Round(MoneyPlaces)
	return points, incentiveAmount
}

// Reprice recomputes the derived fields on a sale in place. It must be
// called every time Amount or Product changes, before the sale is persisted:
// every aggregate consumer reads Points and IncentiveAmount straight off the
// sale row.
func Reprice(s *Sale, rule *IncentiveRule) {
	s.Amount = RoundMoney(s.Amount)
	if s.CoverAmount != nil {
		rounded := RoundMoney(*s.CoverAmount)
		s.CoverAmount = &rounded
	}
	s.Points, s.IncentiveAmount = ComputePoints(s.Amount, rule)
}
