package http

import (
	"net/http"

	"conti/internal/core"
)

func (h *handlers) monthlySummary(w http.ResponseWriter, r *http.Request) {
	bookID, err := uuidParam(r, "bookID")
	if err != nil {
		respondError(w, r, err)
		return
	}
	year, err := requiredQueryInt(r, "year")
	if err != nil {
		respondError(w, r, err)
		return
	}
	month, err := requiredQueryInt(r, "month")
	if err != nil {
		respondError(w, r, err)
		return
	}
	rep, err := h.reports.MonthlySummary(r.Context(), bookID, year, month)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newSummaryResponse(rep))
}

func (h *handlers) yearlySummary(w http.ResponseWriter, r *http.Request) {
	bookID, err := uuidParam(r, "bookID")
	if err != nil {
		respondError(w, r, err)
		return
	}
	year, err := requiredQueryInt(r, "year")
	if err != nil {
		respondError(w, r, err)
		return
	}
	rep, err := h.reports.YearlySummary(r.Context(), bookID, year)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newSummaryResponse(rep))
}

// categoryDistribution covers ?month= of ?year= when month is given, else
// the whole year.
func (h *handlers) categoryDistribution(w http.ResponseWriter, r *http.Request) {
	bookID, err := uuidParam(r, "bookID")
	if err != nil {
		respondError(w, r, err)
		return
	}
	year, err := requiredQueryInt(r, "year")
	if err != nil {
		respondError(w, r, err)
		return
	}
	m, hasMonth, err := queryInt(r, "month")
	if err != nil {
		respondError(w, r, err)
		return
	}
	var month *int
	if hasMonth {
		month = &m
	}
	catType, err := core.ParseCategoryType(r.URL.Query().Get("type"))
	if err != nil {
		respondError(w, r, badRequest("type must be Income or Expense."))
		return
	}

	dist, err := h.reports.CategoryDistribution(r.Context(), bookID, year, month, catType)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newDistributionResponse(dist))
}
