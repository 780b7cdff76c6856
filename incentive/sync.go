package incentive

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// CLIENT AGGREGATE SYNCHRONIZER
// =============================================================================

// Synchronizer owns the denormalized aggregate fields on clients. It always
// recomputes from scratch by summing the client's full approved sale history,
// never by applying deltas - that keeps it correct under edits and deletes
// without tracking prior values, and makes Resync idempotent.
//
// The Workflow invokes Resync inside the same store transaction as the sale
// write, so the ledger and the cached aggregates can never be observed out
// of sync.
type Synchronizer struct{}

// Resync recomputes every aggregate field on the client from its approved
// sales. The store passed in is typically a transactional view.
func (Synchronizer) Resync(ctx context.Context, store Store, clientID string) error {
	sales, err := store.ListSales(ctx, SaleFilter{ClientID: clientID, Status: StatusApproved})
	if err != nil {
		return fmt.Errorf("failed to load sales for client %s: %w", clientID, err)
	}

	var agg ClientAggregates
	agg.SIPAmount = decimal.Zero
	agg.LifeCover = decimal.Zero
	agg.HealthCover = decimal.Zero
	agg.MotorInsuredValue = decimal.Zero
	agg.PMSAmount = decimal.Zero

	for i := range sales {
		s := &sales[i]
		basis := s.AggregateBasis()
		switch s.Product {
		case ProductSIP:
			agg.SIPAmount = agg.SIPAmount.Add(basis)
		case ProductLifeInsurance:
			agg.LifeCover = agg.LifeCover.Add(basis)
		case ProductHealthInsurance:
			agg.HealthCover = agg.HealthCover.Add(basis)
		case ProductMotorInsurance:
			agg.MotorInsuredValue = agg.MotorInsuredValue.Add(basis)
		case ProductPMS:
			agg.PMSAmount = agg.PMSAmount.Add(basis)
		}
		// Lumsum has no denormalized aggregate on the client.
	}

	agg.SIPAmount = RoundMoney(agg.SIPAmount)
	agg.LifeCover = RoundMoney(agg.LifeCover)
	agg.HealthCover = RoundMoney(agg.HealthCover)
	agg.MotorInsuredValue = RoundMoney(agg.MotorInsuredValue)
	agg.PMSAmount = RoundMoney(agg.PMSAmount)

	agg.SIPStatus = agg.SIPAmount.IsPositive()
	agg.LifeStatus = agg.LifeCover.IsPositive()
	agg.HealthStatus = agg.HealthCover.IsPositive()
	agg.MotorStatus = agg.MotorInsuredValue.IsPositive()
	agg.PMSStatus = agg.PMSAmount.IsPositive()

	if err := store.UpdateClientAggregates(ctx, clientID, agg); err != nil {
		return fmt.Errorf("failed to update aggregates for client %s: %w", clientID, err)
	}
	return nil
}

// ResyncClient runs a standalone resync in its own transaction. Use this
// when rebuilding aggregates outside a sale mutation (e.g. after a bulk
// recalculation).
func ResyncClient(ctx context.Context, store TxStore, clientID string) error {
	var sync Synchronizer
	return store.WithTx(ctx, func(tx Store) error {
		return sync.Resync(ctx, tx, clientID)
	})
}
