package http

import (
	"net/http"

	"conti/internal/services"
)

func (h *handlers) createTransaction(w http.ResponseWriter, r *http.Request) {
	bookID, err := uuidParam(r, "bookID")
	if err != nil {
		respondError(w, r, err)
		return
	}
	var req transactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	in, err := req.toInput()
	if err != nil {
		respondError(w, r, err)
		return
	}
	tx, err := h.ledger.RecordTransaction(r.Context(), bookID, in)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newTransactionResponse(tx))
}

func (h *handlers) updateTransaction(w http.ResponseWriter, r *http.Request) {
	bookID, err := uuidParam(r, "bookID")
	if err != nil {
		respondError(w, r, err)
		return
	}
	txID, err := uuidParam(r, "txID")
	if err != nil {
		respondError(w, r, err)
		return
	}
	var req transactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	in, err := req.toInput()
	if err != nil {
		respondError(w, r, err)
		return
	}
	tx, err := h.ledger.UpdateTransaction(r.Context(), bookID, txID, in)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newTransactionResponse(tx))
}

func (h *handlers) getTransaction(w http.ResponseWriter, r *http.Request) {
	bookID, err := uuidParam(r, "bookID")
	if err != nil {
		respondError(w, r, err)
		return
	}
	txID, err := uuidParam(r, "txID")
	if err != nil {
		respondError(w, r, err)
		return
	}
	tx, err := h.ledger.GetTransaction(r.Context(), bookID, txID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newTransactionResponse(tx))
}

func (h *handlers) listTransactions(w http.ResponseWriter, r *http.Request) {
	bookID, err := uuidParam(r, "bookID")
	if err != nil {
		respondError(w, r, err)
		return
	}
	txs, err := h.ledger.ListTransactions(r.Context(), bookID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(txs, newTransactionResponse))
}

func (h *handlers) createRate(w http.ResponseWriter, r *http.Request) {
	var req createRateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	effective, err := parseDate("effectiveDateUtc", req.EffectiveDate)
	if err != nil {
		respondError(w, r, err)
		return
	}
	rate, err := h.ledger.RecordRate(r.Context(), services.RateInput{
		Base:          req.BaseCurrency,
		Quote:         req.QuoteCurrency,
		Rate:          req.Rate,
		EffectiveDate: effective,
		Source:        req.Source,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newRateResponse(rate))
}

// listRates filters by ?base= and ?quote=, either optional.
func (h *handlers) listRates(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	rates, err := h.ledger.ListRates(r.Context(), q.Get("base"), q.Get("quote"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(rates, newRateResponse))
}
