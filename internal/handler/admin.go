package handler

import (
	"net/http"

	openapi_types "github.com/oapi-codegen/runtime/types"
)

type reconcileResponse struct {
	Today          openapi_types.Date   `json:"today"`
	CompletedCount int                  `json:"completed_count"`
	CompletedIDs   []openapi_types.UUID `json:"completed_ids"`
}

type summaryResponse struct {
	From        openapi_types.Date `json:"from"`
	To          openapi_types.Date `json:"to"`
	ByStatus    map[string]int     `json:"by_status"`
	Billed      string             `json:"billed"`
	Collected   string             `json:"collected"`
	Outstanding string             `json:"outstanding"`
}

// RunReconcile handles POST /admin/reconcile.
// An optional ?today= back-fills a missed run; it defaults to the current
// business date. A partial failure still reports what was completed.
func (s *Server) RunReconcile(w http.ResponseWriter, r *http.Request) {
	var today *openapi_types.Date
	if !queryParam(w, r, "today", false, &today) {
		return
	}
	day := s.reconciler.Today()
	if today != nil {
		day = today.Time
	}

	res, err := s.reconciler.Reconcile(r.Context(), day)
	if err != nil {
		s.log.ErrorContext(r.Context(), "manual reconcile failed",
			"completed_so_far", res.CompletedCount, "error", err)
		s.writeServiceError(w, r, err)
		return
	}
	ids := make([]openapi_types.UUID, len(res.CompletedIDs))
	copy(ids, res.CompletedIDs)
	writeJSON(w, http.StatusOK, reconcileResponse{
		Today:          openapi_types.Date{Time: res.Today},
		CompletedCount: res.CompletedCount,
		CompletedIDs:   ids,
	})
}

// GetSummaryReport handles GET /admin/reports/summary?from=&to=.
func (s *Server) GetSummaryReport(w http.ResponseWriter, r *http.Request) {
	var from, to openapi_types.Date
	if !queryParam(w, r, "from", true, &from) || !queryParam(w, r, "to", true, &to) {
		return
	}

	sum, err := s.reports.Summary(r.Context(), from.Time, to.Time)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	byStatus := make(map[string]int, len(sum.ByStatus))
	for st, n := range sum.ByStatus {
		byStatus[string(st)] = n
	}
	writeJSON(w, http.StatusOK, summaryResponse{
		From:        openapi_types.Date{Time: sum.From},
		To:          openapi_types.Date{Time: sum.To},
		ByStatus:    byStatus,
		Billed:      money(sum.Billed),
		Collected:   money(sum.Collected),
		Outstanding: money(sum.Outstanding),
	})
}
