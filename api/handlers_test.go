/*
handlers_test.go - Unit tests for API handlers

Tests for:
- Balance projection over HTTP
- Reconciliation link/clear over HTTP
*/
package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/warp/resource-engine/engine"
	"github.com/warp/resource-engine/store/memory"
)

func date(y int, m time.Month, d int) engine.Date { return engine.NewDate(y, m, d) }

func TestGetBalances_ReturnsProjectedSeries(t *testing.T) {
	// GIVEN: an account with a manual anchor
	mem := memory.New()
	account := engine.Account{ID: "checking", Kind: engine.AccountReal, IncludeInStatistics: true}
	mem.Seed(
		[]engine.Account{account},
		nil, nil, nil, nil,
		[]engine.ManualAccountState{{ID: "a1", AccountID: "checking", Date: date(2024, time.January, 1), Amount: engine.NewAmount(1000)}},
		nil, nil, nil,
	)
	router := NewRouter(NewHandler(mem))

	// WHEN: requesting the balance series over HTTP
	req := httptest.NewRequest(http.MethodGet, "/api/accounts/checking/balances?start=2024-01-01&end=2024-01-05", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	// THEN: the response carries the projected series
	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var points []BalancePointDTO
	if err := json.Unmarshal(rec.Body.Bytes(), &points); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(points) != 5 {
		t.Fatalf("got %d points, want 5", len(points))
	}
	if points[0].Balance != "1000.0000" {
		t.Errorf("balance(1/1) = %s, want 1000.0000", points[0].Balance)
	}
}

func TestReconcileImport_LinksAndClears(t *testing.T) {
	// GIVEN: an imported transaction awaiting reconciliation
	mem := memory.New()
	account := engine.Account{ID: "checking"}
	imp := engine.ImportedTransaction{ID: "imp1", AccountID: "checking", Date: date(2024, time.March, 1), Amount: engine.NewAmount(-42)}
	mem.Seed([]engine.Account{account}, nil, nil, nil, nil, nil, []engine.ImportedTransaction{imp}, nil, nil)
	router := NewRouter(NewHandler(mem))

	// WHEN: linking it to a one-off over HTTP
	body := `{"kind":"OneOff","target_id":"oo1"}`
	req := httptest.NewRequest(http.MethodPost, "/api/imports/imp1/reconcile", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	// THEN: the request succeeds
	if rec.Code != http.StatusNoContent {
		t.Fatalf("got status %d, want 204: %s", rec.Code, rec.Body.String())
	}

	// WHEN: clearing it
	req = httptest.NewRequest(http.MethodDelete, "/api/imports/imp1/reconcile", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("got status %d, want 204: %s", rec.Code, rec.Body.String())
	}
}

func TestReconcileImport_UnknownImportReturns404(t *testing.T) {
	mem := memory.New()
	router := NewRouter(NewHandler(mem))

	body := `{"kind":"OneOff","target_id":"oo1"}`
	req := httptest.NewRequest(http.MethodPost, "/api/imports/missing/reconcile", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("got status %d, want 404: %s", rec.Code, rec.Body.String())
	}
}
