package incentive_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/warp/incentive-engine/incentive"
)

func dec(s string) decimal.Decimal {
	return incentive.MustParseDecimal(s)
}

func sipRule() *incentive.IncentiveRule {
	return &incentive.IncentiveRule{
		ID:            "rule-sip",
		Product:       incentive.ProductSIP,
		UnitAmount:    dec("1000"),
		PointsPerUnit: dec("5"),
		Active:        true,
	}
}

// =============================================================================
// POINTS CALCULATION TESTS
// =============================================================================

func TestComputePoints_BasicConversion(t *testing.T) {
	// GIVEN: SIP rule awarding 5 points per 1000
	// WHEN: Computing points for a 10000 sale
	// THEN: 50 points and an equal incentive amount

	points, amount := incentive.ComputePoints(dec("10000"), sipRule())

	assert.True(t, points.Equal(dec("50")), "expected 50 points, got %s", points)
	assert.True(t, amount.Equal(dec("50")), "expected incentive 50, got %s", amount)
}

func TestComputePoints_FractionalResultIsRounded(t *testing.T) {
	// GIVEN: A rule of 5 points per 1000
	// WHEN: The amount does not divide evenly
	// THEN: Points carry 3 decimal places, incentive amount 2

	points, amount := incentive.ComputePoints(dec("1234.56"), sipRule())

	// 1234.56 / 1000 * 5 = 6.1728
	assert.True(t, points.Equal(dec("6.173")), "expected 6.173 points, got %s", points)
	assert.True(t, amount.Equal(dec("6.17")), "expected incentive 6.17, got %s", amount)
}

func TestComputePoints_NoRule_YieldsZero(t *testing.T) {
	// GIVEN: No incentive rule configured for the product
	// WHEN: Computing points
	// THEN: Zero points, zero incentive, no error

	points, amount := incentive.ComputePoints(dec("10000"), nil)

	assert.True(t, points.IsZero())
	assert.True(t, amount.IsZero())
}

func TestComputePoints_InactiveRule_YieldsZero(t *testing.T) {
	rule := sipRule()
	rule.Active = false

	points, _ := incentive.ComputePoints(dec("10000"), rule)
	assert.True(t, points.IsZero(), "inactive rule must not award points")
}

func TestComputePoints_ZeroUnitAmount_GuardedDivision(t *testing.T) {
	// GIVEN: A misconfigured rule with unit amount 0
	// WHEN: Computing points
	// THEN: Zero, never a division panic

	rule := sipRule()
	rule.UnitAmount = decimal.Zero

	points, amount := incentive.ComputePoints(dec("10000"), rule)
	assert.True(t, points.IsZero())
	assert.True(t, amount.IsZero())
}

func TestReprice_NormalizesAmountsAndDerivesPoints(t *testing.T) {
	// GIVEN: A sale with over-precise amounts
	// WHEN: Repricing against the SIP rule
	// THEN: Amounts land on 2dp and points are derived from the rounded amount

	cover := dec("500000.999")
	sale := &incentive.Sale{
		Product:     incentive.ProductSIP,
		Amount:      dec("10000.005"),
		CoverAmount: &cover,
	}

	incentive.Reprice(sale, sipRule())

	assert.True(t, sale.Amount.Equal(dec("10000.01")), "amount rounded, got %s", sale.Amount)
	assert.True(t, sale.CoverAmount.Equal(dec("500001")), "cover rounded, got %s", sale.CoverAmount)
	assert.True(t, sale.Points.Equal(dec("50.00005").Round(3)), "got %s", sale.Points)
}

func TestAggregateBasis_InsuranceUsesCover(t *testing.T) {
	cover := dec("500000")
	s := &incentive.Sale{Product: incentive.ProductLifeInsurance, Amount: dec("25000"), CoverAmount: &cover}
	assert.True(t, s.AggregateBasis().Equal(cover))

	// Without a recorded cover the premium amount is the fallback.
	s.CoverAmount = nil
	assert.True(t, s.AggregateBasis().Equal(dec("25000")))

	// Non-insurance products always use the transaction amount.
	pms := &incentive.Sale{Product: incentive.ProductPMS, Amount: dec("300000"), CoverAmount: &cover}
	assert.True(t, pms.AggregateBasis().Equal(dec("300000")))
}
