/*
workflow.go - Sale lifecycle state machine

PURPOSE:
  Governs the only real state machine in the engine:

    pending -> approved
    pending -> rejected
    rejected -> approved   (resubmission after an edit)

  Only approved sales feed aggregates, targets and snapshots. That single
  invariant is what this file protects: a bug here silently under- or
  over-counts business performance.

COMPUTE-THEN-SAVE:
  Every mutation reprices the sale from the current incentive rule before
  persisting, then resyncs the affected client inside the same store
  transaction. Callers never see a sale with stale points or a client with
  stale aggregates.

ROLES:
  Sales created by an admin are approved immediately with the creator as
  approver. Everyone else starts at pending. Admins and managers may
  approve or reject; a sale's owning employee may edit or delete it.
*/
package incentive

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"
)

// SaleInput carries the caller-controlled fields of a sale. Points and
// incentive amount are deliberately absent: they are always derived.
type SaleInput struct {
	ClientID    string
	EmployeeID  string
	Product     Product
	Amount      decimal.Decimal
	CoverAmount *decimal.Decimal
	Date        time.Time
}

// Workflow executes sale mutations against a transactional store.
type Workflow struct {
	Store TxStore
	Sync  Synchronizer

	// Clock is injectable for tests; defaults to time.Now.
	Clock func() time.Time
}

// NewWorkflow creates a workflow over the given store.
func NewWorkflow(store TxStore) *Workflow {
	return &Workflow{Store: store, Clock: time.Now}
}

func (w *Workflow) now() time.Time {
	if w.Clock != nil {
		return w.Clock().UTC()
	}
	return time.Now().UTC()
}

// =============================================================================
// CREATE / UPDATE / DELETE
// =============================================================================

// CreateSale validates input, derives points, assigns the initial status
// from the actor's role and persists the sale together with a client resync.
func (w *Workflow) CreateSale(ctx context.Context, id string, in SaleInput, actor Actor) (*Sale, error) {
	if !in.Product.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidProduct, in.Product)
	}

	client, err := w.Store.GetClient(ctx, in.ClientID)
	if err != nil {
		return nil, err
	}
	if client == nil {
		return nil, fmt.Errorf("%w: %s", ErrClientNotFound, in.ClientID)
	}
	emp, err := w.Store.GetEmployee(ctx, in.EmployeeID)
	if err != nil {
		return nil, err
	}
	if emp == nil {
		return nil, fmt.Errorf("%w: %s", ErrEmployeeNotFound, in.EmployeeID)
	}

	now := w.now()
	sale := &Sale{
		ID:          id,
		ClientID:    in.ClientID,
		EmployeeID:  in.EmployeeID,
		Product:     in.Product,
		Amount:      in.Amount,
		CoverAmount: in.CoverAmount,
		Date:        DateOnly(in.Date),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := w.reprice(ctx, sale); err != nil {
		return nil, err
	}

	// Admin-created sales count immediately; everyone else awaits approval.
	if actor.Role == RoleAdmin {
		sale.Status = StatusApproved
		sale.ApprovedBy = actor.ID
		sale.ApprovedAt = &now
	} else {
		sale.Status = StatusPending
	}

	if err := w.saveAndResync(ctx, sale, ""); err != nil {
		return nil, err
	}
	return sale, nil
}

// UpdateSale applies new caller-controlled fields to an existing sale,
// reprices it and resyncs the affected client(s). The approval status is
// preserved: editing a rejected sale leaves it rejected until re-approved.
func (w *Workflow) UpdateSale(ctx context.Context, id string, in SaleInput, actor Actor) (*Sale, error) {
	sale, err := w.Store.GetSale(ctx, id)
	if err != nil {
		return nil, err
	}
	if sale == nil {
		return nil, fmt.Errorf("%w: %s", ErrSaleNotFound, id)
	}
	if err := w.checkOwnership(sale, actor, "edit sale"); err != nil {
		return nil, err
	}
	if !in.Product.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidProduct, in.Product)
	}

	previousClient := ""
	if in.ClientID != "" && in.ClientID != sale.ClientID {
		moved, err := w.Store.GetClient(ctx, in.ClientID)
		if err != nil {
			return nil, err
		}
		if moved == nil {
			return nil, fmt.Errorf("%w: %s", ErrClientNotFound, in.ClientID)
		}
		previousClient = sale.ClientID
		sale.ClientID = in.ClientID
	}
	if in.EmployeeID != "" {
		sale.EmployeeID = in.EmployeeID
	}

	sale.Product = in.Product
	sale.Amount = in.Amount
	sale.CoverAmount = in.CoverAmount
	if !in.Date.IsZero() {
		sale.Date = DateOnly(in.Date)
	}
	sale.UpdatedAt = w.now()

	if err := w.reprice(ctx, sale); err != nil {
		return nil, err
	}
	if err := w.saveAndResync(ctx, sale, previousClient); err != nil {
		return nil, err
	}
	return sale, nil
}

// DeleteSale removes a sale and resyncs its client in one transaction.
func (w *Workflow) DeleteSale(ctx context.Context, id string, actor Actor) error {
	sale, err := w.Store.GetSale(ctx, id)
	if err != nil {
		return err
	}
	if sale == nil {
		return fmt.Errorf("%w: %s", ErrSaleNotFound, id)
	}
	if err := w.checkOwnership(sale, actor, "delete sale"); err != nil {
		return err
	}

	return w.Store.WithTx(ctx, func(tx Store) error {
		if err := tx.DeleteSale(ctx, id); err != nil {
			return err
		}
		return w.Sync.Resync(ctx, tx, sale.ClientID)
	})
}

// =============================================================================
// APPROVE / REJECT
// =============================================================================

// Approve transitions a sale to approved. Re-approving an already approved
// sale is a tolerated no-op, logged and returned unchanged.
func (w *Workflow) Approve(ctx context.Context, id string, actor Actor) (*Sale, error) {
	sale, err := w.loadForDecision(ctx, id, actor, "approve sale")
	if err != nil {
		return nil, err
	}
	if sale.Status == StatusApproved {
		log.Printf("[Workflow] approve sale %s: already approved, no-op", id)
		return sale, nil
	}

	now := w.now()
	sale.Status = StatusApproved
	sale.ApprovedBy = actor.ID
	sale.ApprovedAt = &now
	sale.RejectionReason = ""
	sale.UpdatedAt = now

	if err := w.saveAndResync(ctx, sale, ""); err != nil {
		return nil, err
	}
	return sale, nil
}

// Reject transitions a sale to rejected with a free-text reason. Re-rejecting
// an already rejected sale updates the reason but is otherwise a no-op.
func (w *Workflow) Reject(ctx context.Context, id string, actor Actor, reason string) (*Sale, error) {
	sale, err := w.loadForDecision(ctx, id, actor, "reject sale")
	if err != nil {
		return nil, err
	}
	if sale.Status == StatusRejected && sale.RejectionReason == reason {
		log.Printf("[Workflow] reject sale %s: already rejected, no-op", id)
		return sale, nil
	}

	now := w.now()
	sale.Status = StatusRejected
	sale.ApprovedBy = actor.ID
	sale.ApprovedAt = &now
	sale.RejectionReason = reason
	sale.UpdatedAt = now

	if err := w.saveAndResync(ctx, sale, ""); err != nil {
		return nil, err
	}
	return sale, nil
}

// =============================================================================
// BULK RECALCULATION
// =============================================================================

// RecalculateAll reprices every sale from the current rules and resyncs
// every affected client. Used after incentive rules change. Returns the
// number of repriced sales.
func (w *Workflow) RecalculateAll(ctx context.Context, actor Actor) (int, error) {
	if actor.Role != RoleAdmin {
		return 0, &PermissionError{ActorID: actor.ID, Role: actor.Role, Action: "recalculate points"}
	}

	sales, err := w.Store.ListSales(ctx, SaleFilter{})
	if err != nil {
		return 0, err
	}

	clients := make(map[string]bool)
	count := 0
	for i := range sales {
		sale := &sales[i]
		if err := w.reprice(ctx, sale); err != nil {
			return count, err
		}
		sale.UpdatedAt = w.now()
		if err := w.Store.SaveSale(ctx, sale); err != nil {
			return count, err
		}
		clients[sale.ClientID] = true
		count++
	}

	for clientID := range clients {
		if err := ResyncClient(ctx, w.Store, clientID); err != nil {
			return count, err
		}
	}
	return count, nil
}

// =============================================================================
// INTERNALS
// =============================================================================

func (w *Workflow) reprice(ctx context.Context, sale *Sale) error {
	rule, err := w.Store.ActiveRule(ctx, sale.Product)
	if err != nil {
		return err
	}
	if rule == nil {
		// Unconfigured product: valid zero-points state, but worth a trace.
		log.Printf("[Workflow] no active incentive rule for %s; sale %s gets zero points", sale.Product, sale.ID)
	}
	Reprice(sale, rule)
	return nil
}

// saveAndResync persists the sale and rewrites the affected client
// aggregates in one transaction. previousClient is resynced too when a sale
// moved between clients.
func (w *Workflow) saveAndResync(ctx context.Context, sale *Sale, previousClient string) error {
	return w.Store.WithTx(ctx, func(tx Store) error {
		if err := tx.SaveSale(ctx, sale); err != nil {
			return err
		}
		if err := w.Sync.Resync(ctx, tx, sale.ClientID); err != nil {
			return err
		}
		if previousClient != "" && previousClient != sale.ClientID {
			return w.Sync.Resync(ctx, tx, previousClient)
		}
		return nil
	})
}

func (w *Workflow) loadForDecision(ctx context.Context, id string, actor Actor, action string) (*Sale, error) {
	if !actor.Role.CanApprove() {
		return nil, &PermissionError{ActorID: actor.ID, Role: actor.Role, Action: action}
	}
	sale, err := w.Store.GetSale(ctx, id)
	if err != nil {
		return nil, err
	}
	if sale == nil {
		return nil, fmt.Errorf("%w: %s", ErrSaleNotFound, id)
	}
	return sale, nil
}

func (w *Workflow) checkOwnership(sale *Sale, actor Actor, action string) error {
	if actor.Role == RoleAdmin || actor.Role == RoleManager {
		return nil
	}
	if actor.ID == sale.EmployeeID {
		return nil
	}
	return &PermissionError{ActorID: actor.ID, Role: actor.Role, Action: action}
}
