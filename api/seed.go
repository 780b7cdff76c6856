/*
seed.go - Demo data loader

PURPOSE:
  Seeds the database with a small, self-consistent book of business so the
  API can be exercised immediately: advisors, clients, incentive rules,
  targets, and a mix of approved and pending sales.

  All sales are created through the Workflow, so points, statuses and
  client aggregates come out exactly as they would in production.

USAGE:
  POST /api/admin/seed

SEE ALSO:
  - handlers.go: Route registration
*/
package api

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/incentive-engine/incentive"
)

// LoadDemoData resets the database and seeds it with demo records.
func (h *Handler) LoadDemoData(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.Store.Reset(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	if err := h.seed(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to seed demo data", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "seeded"})
}

func (h *Handler) seed(ctx context.Context) error {
	employees := []incentive.Employee{
		{ID: "emp-admin", Name: "Asha Rao", Email: "asha@example.com", Role: incentive.RoleAdmin, Active: true},
		{ID: "emp-manager", Name: "Vikram Shah", Email: "vikram@example.com", Role: incentive.RoleManager, Active: true},
		{ID: "emp-ravi", Name: "Ravi Kumar", Email: "ravi@example.com", Role: incentive.RoleEmployee, Active: true},
		{ID: "emp-meera", Name: "Meera Joshi", Email: "meera@example.com", Role: incentive.RoleEmployee, Active: true},
	}
	for i := range employees {
		if err := h.Store.SaveEmployee(ctx, &employees[i]); err != nil {
			return fmt.Errorf("seed employee: %w", err)
		}
	}

	clients := []incentive.Client{
		{ID: "cli-sharma", Name: "Sharma Family", Phone: "98200 00001", EmployeeID: "emp-ravi"},
		{ID: "cli-gupta", Name: "Gupta Holdings", Phone: "98200 00002", EmployeeID: "emp-ravi"},
		{ID: "cli-iyer", Name: "Iyer Trust", Phone: "98200 00003", EmployeeID: "emp-meera"},
	}
	for i := range clients {
		if err := h.Store.SaveClient(ctx, &clients[i]); err != nil {
			return fmt.Errorf("seed client: %w", err)
		}
	}

	rules := []incentive.IncentiveRule{
		{ID: "rule-sip", Product: incentive.ProductSIP, UnitAmount: dec("1000"), PointsPerUnit: dec("5"), Active: true},
		{ID: "rule-lumsum", Product: incentive.ProductLumsum, UnitAmount: dec("100000"), PointsPerUnit: dec("100"), Active: true},
		{ID: "rule-life", Product: incentive.ProductLifeInsurance, UnitAmount: dec("10000"), PointsPerUnit: dec("150"), Active: true},
		{ID: "rule-health", Product: incentive.ProductHealthInsurance, UnitAmount: dec("10000"), PointsPerUnit: dec("100"), Active: true},
		{ID: "rule-pms", Product: incentive.ProductPMS, UnitAmount: dec("100000"), PointsPerUnit: dec("200"), Active: true},
	}
	for i := range rules {
		if err := h.Store.SaveRule(ctx, &rules[i]); err != nil {
			return fmt.Errorf("seed rule: %w", err)
		}
	}

	targets := []incentive.Target{
		{ID: "tgt-sip-daily", Product: incentive.ProductSIP, Type: incentive.TargetDaily, Value: dec("25000")},
		{ID: "tgt-sip-monthly", Product: incentive.ProductSIP, Type: incentive.TargetMonthly, Value: dec("500000")},
		{ID: "tgt-life-monthly", Product: incentive.ProductLifeInsurance, Type: incentive.TargetMonthly, Value: dec("200000")},
	}
	for i := range targets {
		if err := h.Store.CreateTarget(ctx, &targets[i]); err != nil {
			return fmt.Errorf("seed target: %w", err)
		}
	}

	admin := incentive.Actor{ID: "emp-admin", Role: incentive.RoleAdmin}
	employee := incentive.Actor{ID: "emp-ravi", Role: incentive.RoleEmployee}
	today := time.Now().UTC()
	cover := dec("500000")

	// Admin-created sales are approved immediately and feed aggregates.
	sales := []struct {
		id    string
		in    incentive.SaleInput
		actor incentive.Actor
	}{
		{"sale-demo-1", incentive.SaleInput{
			ClientID: "cli-sharma", EmployeeID: "emp-ravi",
			Product: incentive.ProductSIP, Amount: dec("10000"), Date: today,
		}, admin},
		{"sale-demo-2", incentive.SaleInput{
			ClientID: "cli-gupta", EmployeeID: "emp-ravi",
			Product: incentive.ProductLifeInsurance, Amount: dec("25000"), CoverAmount: &cover, Date: today,
		}, admin},
		{"sale-demo-3", incentive.SaleInput{
			ClientID: "cli-iyer", EmployeeID: "emp-meera",
			Product: incentive.ProductPMS, Amount: dec("300000"), Date: today,
		}, admin},
		// Left pending: visible in the approval queue, excluded everywhere else.
		{"sale-demo-4", incentive.SaleInput{
			ClientID: "cli-sharma", EmployeeID: "emp-ravi",
			Product: incentive.ProductSIP, Amount: dec("5000"), Date: today,
		}, employee},
	}
	for _, s := range sales {
		if _, err := h.Workflow.CreateSale(ctx, s.id, s.in, s.actor); err != nil {
			return fmt.Errorf("seed sale %s: %w", s.id, err)
		}
	}

	log.Printf("[Seed] Loaded demo data: %d employees, %d clients, %d rules, %d targets, %d sales",
		len(employees), len(clients), len(rules), len(targets), len(sales))
	return nil
}

func dec(s string) decimal.Decimal {
	return incentive.MustParseDecimal(s)
}
