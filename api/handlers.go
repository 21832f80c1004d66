/*
handlers.go - HTTP API handlers for the forecasting engine

PURPOSE:
  Exposes the projection/reconciliation engine via a small REST API.
  Handles HTTP request/response and JSON serialization, and delegates
  everything else to package finance, except the account list, which
  ListAccounts reads straight from the store.

ENDPOINTS:
  Accounts:
    GET    /api/accounts                    List accounts
    GET    /api/accounts/{id}/balances       Daily balance series
    GET    /api/accounts/{id}/stats          Min/max/averages over a sub-window
    GET    /api/accounts/{id}/goal           First date a target is reached

  Reconciliation:
    POST   /api/imports/{id}/reconcile       Link an import to a target row
    DELETE /api/imports/{id}/reconcile       Clear an import's link

  Scenarios:
    POST   /api/scenarios/{id}/apply         Promote a scenario's rows to real

  Instances:
    POST   /api/instances/paid               Mark a recurring instance paid

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: validation errors, invalid input
  - 404: resource not found (engine.NotFoundError)
  - 409: invariant violation (engine.InvariantError)
  - 500: internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/warp/resource-engine/engine"
	"github.com/warp/resource-engine/finance"
	"github.com/warp/resource-engine/store"
)

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store      store.Store
	Projector  *finance.Projector
	Reconciler *finance.Reconciler
	Scenarios  *finance.ScenarioApplier
	Instances  *finance.InstanceManager
}

// NewHandler creates a new handler wired against s.
func NewHandler(s store.Store) *Handler {
	return &Handler{
		Store:      s,
		Projector:  finance.NewProjector(s),
		Reconciler: finance.NewReconciler(s),
		Scenarios:  finance.NewScenarioApplier(s),
		Instances:  finance.NewInstanceManager(s),
	}
}

// =============================================================================
// ACCOUNTS
// =============================================================================

func (h *Handler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.Store.LoadAccounts(r.Context(), store.Scope{})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load accounts", err)
		return
	}
	dtos := make([]AccountDTO, len(accounts))
	for i, a := range accounts {
		dtos[i] = toAccountDTO(a)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) GetBalances(w http.ResponseWriter, r *http.Request) {
	accountID := engine.AccountID(chi.URLParam(r, "id"))

	win, err := windowFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid window", err)
		return
	}
	today, view := todayAndViewFromQuery(r)

	scope := store.Scope{AccountIDs: []engine.AccountID{accountID}}
	series, err := h.Projector.Balances(r.Context(), scope, win, today, view)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to compute balances", err)
		return
	}
	writeJSON(w, http.StatusOK, toBalancePointDTOs(series[accountID]))
}

func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	accountID := engine.AccountID(chi.URLParam(r, "id"))

	win, err := windowFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid window", err)
		return
	}
	subWindow, err := subWindowFromQuery(r, win)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid sub_window", err)
		return
	}
	today, view := todayAndViewFromQuery(r)

	scope := store.Scope{AccountIDs: []engine.AccountID{accountID}}
	stats, err := h.Projector.Stats(r.Context(), scope, accountID, win, subWindow, today, view)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to compute stats", err)
		return
	}
	writeJSON(w, http.StatusOK, toStatsDTO(stats))
}

func (h *Handler) GetGoal(w http.ResponseWriter, r *http.Request) {
	accountID := engine.AccountID(chi.URLParam(r, "id"))

	win, err := windowFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid window", err)
		return
	}
	today, view := todayAndViewFromQuery(r)

	target, err := engine.ParseAmount(r.URL.Query().Get("target"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid target amount", err)
		return
	}

	scope := store.Scope{AccountIDs: []engine.AccountID{accountID}}
	reached, err := h.Projector.GoalDate(r.Context(), scope, accountID, win, today, target, view)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to compute goal date", err)
		return
	}
	dto := GoalDTO{AccountID: string(accountID), Target: target.String()}
	if reached != nil {
		s := reached.Time().Format("2006-01-02")
		dto.ReachedOn = &s
	}
	writeJSON(w, http.StatusOK, dto)
}

// =============================================================================
// RECONCILIATION
// =============================================================================

func (h *Handler) ReconcileImport(w http.ResponseWriter, r *http.Request) {
	importID := engine.ImportID(chi.URLParam(r, "id"))

	var req ReconcileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	err := h.Reconciler.Link(r.Context(), store.Scope{}, importID, engine.ReconciledKind(req.Kind), req.TargetID)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ClearReconciliation(w http.ResponseWriter, r *http.Request) {
	importID := engine.ImportID(chi.URLParam(r, "id"))
	if err := h.Reconciler.Clear(r.Context(), store.Scope{}, importID); err != nil {
		writeEngineError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// SCENARIOS
// =============================================================================

func (h *Handler) ApplyScenario(w http.ResponseWriter, r *http.Request) {
	scenarioID := engine.ScenarioID(chi.URLParam(r, "id"))
	if err := h.Scenarios.Apply(r.Context(), store.Scope{}, scenarioID); err != nil {
		writeEngineError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// INSTANCES
// =============================================================================

type markPaidInstanceRequest struct {
	ID             string `json:"id"`
	ScheduleID     string `json:"schedule_id"`
	DueDate        string `json:"due_date"`
	ExpectedAmount string `json:"expected_amount"`
	MarkPaidRequest
}

func (h *Handler) MarkInstancePaid(w http.ResponseWriter, r *http.Request) {
	var req markPaidInstanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	dueDate, err := time.Parse("2006-01-02", req.DueDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid due_date", err)
		return
	}
	expected, err := engine.ParseAmount(req.ExpectedAmount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid expected_amount", err)
		return
	}
	paidDate, err := time.Parse("2006-01-02", req.PaidDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid paid_date", err)
		return
	}
	paidAmount, err := engine.ParseAmount(req.PaidAmount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid paid_amount", err)
		return
	}

	instance := engine.RecurringInstance{
		ID:             engine.InstanceID(req.ID),
		ScheduleID:     engine.ScheduleID(req.ScheduleID),
		Status:         engine.InstancePending,
		DueDate:        engine.DateFromTime(dueDate),
		ExpectedAmount: expected,
	}

	paid, err := h.Instances.MarkPaid(r.Context(), instance, engine.DateFromTime(paidDate), paidAmount)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, paid)
}

// =============================================================================
// HELPERS
// =============================================================================

func windowFromQuery(r *http.Request) (engine.Window, error) {
	start, err := parseDateParam(r, "start")
	if err != nil {
		return engine.Window{}, err
	}
	end, err := parseDateParam(r, "end")
	if err != nil {
		return engine.Window{}, err
	}
	return engine.Window{Start: start, End: end}, nil
}

func subWindowFromQuery(r *http.Request, fallback engine.Window) (engine.Window, error) {
	if r.URL.Query().Get("sub_start") == "" {
		return fallback, nil
	}
	start, err := parseDateParam(r, "sub_start")
	if err != nil {
		return engine.Window{}, err
	}
	end, err := parseDateParam(r, "sub_end")
	if err != nil {
		return engine.Window{}, err
	}
	return engine.Window{Start: start, End: end}, nil
}

func todayAndViewFromQuery(r *http.Request) (engine.Date, engine.ScenarioView) {
	today := engine.Today()
	if s := r.URL.Query().Get("today"); s != "" {
		if t, err := time.Parse("2006-01-02", s); err == nil {
			today = engine.DateFromTime(t)
		}
	}
	view := engine.RealOnlyView()
	if s := r.URL.Query().Get("scenario"); s != "" {
		view = engine.ScenarioViewFor(engine.ScenarioID(s))
	}
	return today, view
}

func parseDateParam(r *http.Request, name string) (engine.Date, error) {
	t, err := time.Parse("2006-01-02", r.URL.Query().Get(name))
	if err != nil {
		return engine.Date{}, err
	}
	return engine.DateFromTime(t), nil
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeEngineError maps engine sentinel error kinds to HTTP status codes.
func writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case engine.IsNotFound(err):
		writeError(w, http.StatusNotFound, "not found", err)
	case engine.IsInvariant(err):
		writeError(w, http.StatusConflict, "invariant violation", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal error", err)
	}
}
