package http

import (
	"time"

	"conti/internal/core"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Decimals marshal as JSON strings, keeping every fractional digit.
type (
	bookResponse struct {
		ID           uuid.UUID `json:"id"`
		Name         string    `json:"name"`
		BaseCurrency string    `json:"baseCurrency"`
		CreatedAtUTC time.Time `json:"createdAtUtc"`
	}

	accountResponse struct {
		ID       uuid.UUID `json:"id"`
		BookID   uuid.UUID `json:"bookId"`
		Name     string    `json:"name"`
		Type     string    `json:"type"`
		Currency string    `json:"currency"`
	}

	categoryResponse struct {
		ID       uuid.UUID  `json:"id"`
		BookID   uuid.UUID  `json:"bookId"`
		ParentID *uuid.UUID `json:"parentId"`
		Name     string     `json:"name"`
		Type     string     `json:"type"`
	}

	transactionResponse struct {
		ID           uuid.UUID       `json:"id"`
		BookID       uuid.UUID       `json:"bookId"`
		Type         string          `json:"type"`
		DateUTC      time.Time       `json:"dateUtc"`
		Amount       decimal.Decimal `json:"amount"`
		Currency     string          `json:"currency"`
		AccountID    uuid.UUID       `json:"accountId"`
		ToAccountID  *uuid.UUID      `json:"toAccountId"`
		CategoryID   *uuid.UUID      `json:"categoryId"`
		MemberID     *uuid.UUID      `json:"memberId"`
		Note         string          `json:"note,omitempty"`
		IsRefund     bool            `json:"isRefund"`
		Version      int64           `json:"version"`
		CreatedAtUTC time.Time       `json:"createdAtUtc"`
	}

	rateResponse struct {
		ID               uuid.UUID       `json:"id"`
		BaseCurrency     string          `json:"baseCurrency"`
		QuoteCurrency    string          `json:"quoteCurrency"`
		Rate             decimal.Decimal `json:"rate"`
		EffectiveDateUTC time.Time       `json:"effectiveDateUtc"`
		Source           string          `json:"source"`
	}

	summaryResponse struct {
		BaseCurrency          string          `json:"baseCurrency"`
		PeriodStartUTC        time.Time       `json:"periodStartUtc"`
		PeriodEndExclusiveUTC time.Time       `json:"periodEndExclusiveUtc"`
		IncomeTotal           decimal.Decimal `json:"incomeTotal"`
		ExpenseTotal          decimal.Decimal `json:"expenseTotal"`
		NetTotal              decimal.Decimal `json:"netTotal"`
	}

	distributionResponse struct {
		BaseCurrency          string             `json:"baseCurrency"`
		PeriodStartUTC        time.Time          `json:"periodStartUtc"`
		PeriodEndExclusiveUTC time.Time          `json:"periodEndExclusiveUtc"`
		Type                  string             `json:"type"`
		Items                 []distributionItem `json:"items"`
	}

	distributionItem struct {
		CategoryID      uuid.UUID       `json:"categoryId"`
		CategoryName    string          `json:"categoryName"`
		TotalBaseAmount decimal.Decimal `json:"totalBaseAmount"`
	}
)

func newBookResponse(b core.Book) bookResponse {
	return bookResponse{ID: b.ID, Name: b.Name, BaseCurrency: b.BaseCurrency, CreatedAtUTC: b.CreatedAt.UTC()}
}

func newAccountResponse(a core.Account) accountResponse {
	return accountResponse{ID: a.ID, BookID: a.BookID, Name: a.Name, Type: string(a.Type), Currency: a.Currency}
}

func newCategoryResponse(c core.Category) categoryResponse {
	return categoryResponse{ID: c.ID, BookID: c.BookID, ParentID: c.ParentID, Name: c.Name, Type: string(c.Type)}
}

func newTransactionResponse(t core.Transaction) transactionResponse {
	return transactionResponse{
		ID:           t.ID,
		BookID:       t.BookID,
		Type:         string(t.Type),
		DateUTC:      t.Date.UTC(),
		Amount:       t.Amount.Round(core.AmountScale),
		Currency:     t.Currency,
		AccountID:    t.AccountID,
		ToAccountID:  t.ToAccountID,
		CategoryID:   t.CategoryID,
		MemberID:     t.MemberID,
		Note:         t.Note,
		IsRefund:     t.IsRefund,
		Version:      t.Version,
		CreatedAtUTC: t.CreatedAt.UTC(),
	}
}

func newRateResponse(r core.ExchangeRate) rateResponse {
	return rateResponse{
		ID:               r.ID,
		BaseCurrency:     r.Base,
		QuoteCurrency:    r.Quote,
		Rate:             r.Rate,
		EffectiveDateUTC: r.EffectiveDate.UTC(),
		Source:           r.Source,
	}
}

// Report totals are rounded to the amount scale for display only.
func newSummaryResponse(s core.SummaryReport) summaryResponse {
	return summaryResponse{
		BaseCurrency:          s.BaseCurrency,
		PeriodStartUTC:        s.Period.Start,
		PeriodEndExclusiveUTC: s.Period.End,
		IncomeTotal:           core.RoundAmount(s.IncomeTotal),
		ExpenseTotal:          core.RoundAmount(s.ExpenseTotal),
		NetTotal:              core.RoundAmount(s.NetTotal),
	}
}

func newDistributionResponse(d core.CategoryDistribution) distributionResponse {
	items := make([]distributionItem, 0, len(d.Items))
	for _, it := range d.Items {
		items = append(items, distributionItem{
			CategoryID:      it.CategoryID,
			CategoryName:    it.CategoryName,
			TotalBaseAmount: core.RoundAmount(it.Total),
		})
	}
	return distributionResponse{
		BaseCurrency:          d.BaseCurrency,
		PeriodStartUTC:        d.Period.Start,
		PeriodEndExclusiveUTC: d.Period.End,
		Type:                  string(d.Type),
		Items:                 items,
	}
}

func mapSlice[T, R any](in []T, fn func(T) R) []R {
	out := make([]R, 0, len(in))
	for _, v := range in {
		out = append(out, fn(v))
	}
	return out
}
