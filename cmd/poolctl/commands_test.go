package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/vaidashi/pool-dealer-portal/internal/api"
	"github.com/vaidashi/pool-dealer-portal/internal/session"
	"github.com/vaidashi/pool-dealer-portal/internal/testutil"
	"github.com/vaidashi/pool-dealer-portal/pkg/logger"
)

func setup(t *testing.T) (api.Services, *testutil.Fixtures, func(string, ...interface{})) {
	t.Helper()
	db := testutil.NewDB(t)
	fx := testutil.Seed(t, db)
	svc := api.BuildServices(db, nil, session.NewMemoryStore(time.Hour), logger.NewNop())
	exec := func(query string, args ...interface{}) {
		testutil.MustExec(t, db, query, args...)
	}
	return svc, fx, exec
}

func runCmd(t *testing.T, svc api.Services, name string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := run(context.Background(), svc, &out, name, args)
	return out.String(), err
}

func TestStockPrintsEveryFactory(t *testing.T) {
	svc, fx, exec := setup(t)
	now := time.Now().UTC()
	exec(`INSERT INTO pool_stock (id, factory_id, pool_model_id, color_id, status, quantity, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`, "pst_1", fx.FactoryID, fx.PoolModelID, fx.ColorID, "READY", 7, now)
	exec(`INSERT INTO pool_stock (id, factory_id, pool_model_id, color_id, status, quantity, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`, "pst_2", fx.FactoryID, fx.PoolModelID, "", "DAMAGED", 2, now)

	out, err := runCmd(t, svc, "stock")
	if err != nil {
		t.Fatalf("stock: %v", err)
	}
	for _, want := range []string{"Main Plant", "South Plant", "7", "9"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestDealerMetricsRequiresDealer(t *testing.T) {
	svc, fx, _ := setup(t)

	if _, err := runCmd(t, svc, "dealer-metrics"); err == nil {
		t.Fatal("expected an error without -dealer")
	}

	out, err := runCmd(t, svc, "dealer-metrics", "-dealer", fx.DealerID)
	if err != nil {
		t.Fatalf("dealer-metrics: %v", err)
	}
	if !strings.Contains(out, "PENDING_PAYMENT_APPROVAL") {
		t.Errorf("status table missing:\n%s", out)
	}
	if !strings.Contains(out, time.Now().UTC().Format("2006-01")) {
		t.Errorf("monthly series missing the current month:\n%s", out)
	}

	if _, err := runCmd(t, svc, "dealer-metrics", "-dealer", "dlr_missing"); err == nil {
		t.Fatal("expected an error for an unknown dealer")
	}
}

func TestBootstrapAdminIsIdempotent(t *testing.T) {
	svc, _, _ := setup(t)

	out, err := runCmd(t, svc, "bootstrap-admin", "-email", "other@pools.test", "-password", "longenough")
	if err != nil {
		t.Fatalf("bootstrap-admin: %v", err)
	}
	if !strings.Contains(out, "already exists") {
		t.Errorf("output = %q, the seeded superadmin should win", out)
	}
}

func TestLowStockAndOutbox(t *testing.T) {
	svc, _, _ := setup(t)

	out, err := runCmd(t, svc, "low-stock")
	if err != nil {
		t.Fatalf("low-stock: %v", err)
	}
	if !strings.Contains(out, "no items below minimum") {
		t.Errorf("output = %q", out)
	}

	out, err = runCmd(t, svc, "outbox-requeue")
	if err != nil {
		t.Fatalf("outbox-requeue: %v", err)
	}
	if out != "requeued 0 failed messages\n" {
		t.Errorf("output = %q", out)
	}

	if _, err := runCmd(t, svc, "outbox"); err != nil {
		t.Fatalf("outbox: %v", err)
	}
}

func TestUnknownCommand(t *testing.T) {
	svc, _, _ := setup(t)
	if _, err := runCmd(t, svc, "explode"); err == nil {
		t.Fatal("expected an error")
	}
}
