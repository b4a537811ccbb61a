package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"conti/internal/core"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const maxBodyBytes = 1 << 20

// badRequestError is a malformed request: unparsable JSON, path or query.
type badRequestError struct {
	msg string
}

func (e *badRequestError) Error() string { return e.msg }

func badRequest(format string, args ...any) error {
	return &badRequestError{msg: fmt.Sprintf(format, args...)}
}

type (
	createBookRequest struct {
		Name         string `json:"name"`
		BaseCurrency string `json:"baseCurrency"`
	}

	createAccountRequest struct {
		Name     string `json:"name"`
		Type     string `json:"type"`
		Currency string `json:"currency"`
	}

	createCategoryRequest struct {
		Name     string     `json:"name"`
		Type     string     `json:"type"`
		ParentID *uuid.UUID `json:"parentId"`
	}

	// transactionRequest serves both create and update. An update without
	// accountId keeps the stored account.
	transactionRequest struct {
		Type        string          `json:"type"`
		DateUTC     string          `json:"dateUtc"`
		Amount      decimal.Decimal `json:"amount"`
		Currency    string          `json:"currency"`
		AccountID   *uuid.UUID      `json:"accountId"`
		ToAccountID *uuid.UUID      `json:"toAccountId"`
		CategoryID  *uuid.UUID      `json:"categoryId"`
		MemberID    *uuid.UUID      `json:"memberId"`
		Note        string          `json:"note"`
		IsRefund    bool            `json:"isRefund"`
	}

	createRateRequest struct {
		BaseCurrency  string          `json:"baseCurrency"`
		QuoteCurrency string          `json:"quoteCurrency"`
		Rate          decimal.Decimal `json:"rate"`
		EffectiveDate string          `json:"effectiveDateUtc"`
		Source        string          `json:"source"`
	}
)

// decodeJSON reads a single JSON object from the body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return badRequest("Request body is required.")
		case errors.As(err, &maxErr):
			return badRequest("Request body is too large.")
		default:
			return badRequest("Invalid JSON body: %v", err)
		}
	}
	if dec.More() {
		return badRequest("Request body must hold a single JSON object.")
	}
	return nil
}

func uuidParam(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, badRequest("Invalid %s.", name)
	}
	return id, nil
}

// parseDate accepts a calendar date (2006-01-02) or an RFC 3339 timestamp.
func parseDate(field, s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, badRequest("%s is required.", field)
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, badRequest("%s must be YYYY-MM-DD or RFC 3339.", field)
	}
	return t.UTC(), nil
}

func queryInt(r *http.Request, name string) (int, bool, error) {
	v := strings.TrimSpace(r.URL.Query().Get(name))
	if v == "" {
		return 0, false, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false, badRequest("%s must be an integer.", name)
	}
	return n, true, nil
}

func requiredQueryInt(r *http.Request, name string) (int, error) {
	n, ok, err := queryInt(r, name)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, badRequest("%s is required.", name)
	}
	return n, nil
}

func (req transactionRequest) toInput() (core.TransactionInput, error) {
	typ, err := core.ParseTransactionType(req.Type)
	if err != nil {
		return core.TransactionInput{}, badRequest("Unknown transaction type %q.", req.Type)
	}
	date, err := parseDate("dateUtc", req.DateUTC)
	if err != nil {
		return core.TransactionInput{}, err
	}
	in := core.TransactionInput{
		Type:        typ,
		Date:        date,
		Amount:      req.Amount,
		Currency:    req.Currency,
		ToAccountID: req.ToAccountID,
		CategoryID:  req.CategoryID,
		MemberID:    req.MemberID,
		Note:        strings.TrimSpace(req.Note),
		IsRefund:    req.IsRefund,
	}
	if req.AccountID != nil {
		in.AccountID = *req.AccountID
	}
	return in, nil
}
