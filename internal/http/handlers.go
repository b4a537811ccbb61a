package http

import (
	"net/http"

	"conti/internal/core"
	"conti/internal/services"
)

type handlers struct {
	ledger  *services.LedgerService
	reports *services.ReportService
}

func (h *handlers) createBook(w http.ResponseWriter, r *http.Request) {
	var req createBookRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	book, err := h.ledger.CreateBook(r.Context(), req.Name, req.BaseCurrency)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newBookResponse(book))
}

func (h *handlers) getBook(w http.ResponseWriter, r *http.Request) {
	bookID, err := uuidParam(r, "bookID")
	if err != nil {
		respondError(w, r, err)
		return
	}
	book, err := h.ledger.GetBook(r.Context(), bookID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newBookResponse(book))
}

func (h *handlers) createAccount(w http.ResponseWriter, r *http.Request) {
	bookID, err := uuidParam(r, "bookID")
	if err != nil {
		respondError(w, r, err)
		return
	}
	var req createAccountRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	acc, err := h.ledger.CreateAccount(r.Context(), bookID, services.AccountInput{
		Name:     req.Name,
		Type:     core.AccountType(req.Type),
		Currency: req.Currency,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newAccountResponse(acc))
}

func (h *handlers) listAccounts(w http.ResponseWriter, r *http.Request) {
	bookID, err := uuidParam(r, "bookID")
	if err != nil {
		respondError(w, r, err)
		return
	}
	accounts, err := h.ledger.ListAccounts(r.Context(), bookID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(accounts, newAccountResponse))
}

func (h *handlers) createCategory(w http.ResponseWriter, r *http.Request) {
	bookID, err := uuidParam(r, "bookID")
	if err != nil {
		respondError(w, r, err)
		return
	}
	var req createCategoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	catType, err := core.ParseCategoryType(req.Type)
	if err != nil {
		respondError(w, r, badRequest("Category type must be Income or Expense."))
		return
	}
	cat, err := h.ledger.CreateCategory(r.Context(), bookID, services.CategoryInput{
		Name:     req.Name,
		Type:     catType,
		ParentID: req.ParentID,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newCategoryResponse(cat))
}

func (h *handlers) listCategories(w http.ResponseWriter, r *http.Request) {
	bookID, err := uuidParam(r, "bookID")
	if err != nil {
		respondError(w, r, err)
		return
	}
	cats, err := h.ledger.ListCategories(r.Context(), bookID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(cats, newCategoryResponse))
}
