// Package google appends ledger transactions to a Google Sheet.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"conti/internal/core"
	"conti/internal/ports"

	"github.com/google/uuid"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

var _ ports.TransactionExporter = (*Exporter)(nil)

// Header is the column layout of exported rows.
var Header = []any{"Date", "Type", "Amount", "Currency", "Account", "To account", "Category", "Member", "Note", "Refund", "Transaction", "Version", "Book"}

type Exporter struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

// NewExporter builds an exporter authenticated with service account
// credentials from the environment. Extra options are appended, so tests
// can point the client at a fake endpoint.
func NewExporter(ctx context.Context, spreadsheetID, sheetName string, opts ...goption.ClientOption) (*Exporter, error) {
	spreadsheetID = strings.TrimSpace(spreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	sheetName = strings.TrimSpace(sheetName)
	if sheetName == "" {
		sheetName = "Transactions"
	}

	if len(opts) == 0 {
		creds, err := credentialsFromEnv(ctx)
		if err != nil {
			return nil, err
		}
		opts = []goption.ClientOption{
			goption.WithCredentialsJSON(creds),
			goption.WithScopes(gsheet.SpreadsheetsScope),
		}
	}

	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return &Exporter{svc: svc, spreadsheetID: spreadsheetID, sheetName: sheetName}, nil
}

// credentialsFromEnv reads GOOGLE_SERVICE_ACCOUNT_JSON, then
// GOOGLE_SERVICE_ACCOUNT_FILE, then GOOGLE_APPLICATION_CREDENTIALS.
func credentialsFromEnv(ctx context.Context) ([]byte, error) {
	if inline := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON")); inline != "" {
		slog.DebugContext(ctx, "Using inline service account credentials")
		return []byte(inline), nil
	}
	path := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if path == "" {
		path = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}
	if path == "" {
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
	creds, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read service account file: %w", err)
	}
	slog.DebugContext(ctx, "Read service account credentials", "path", path)
	return creds, nil
}

// ExportTransaction appends t as one row and returns the updated range.
func (e *Exporter) ExportTransaction(ctx context.Context, t core.Transaction) (string, error) {
	if e.svc == nil {
		return "", errors.New("sheets service not initialized")
	}

	rng := fmt.Sprintf("%s!A:M", e.sheetName)
	vr := &gsheet.ValueRange{Values: [][]any{Row(t)}}
	resp, err := e.svc.Spreadsheets.Values.Append(e.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("append to sheet %s: %w", e.sheetName, err)
	}
	if resp.Updates != nil && resp.Updates.UpdatedRange != "" {
		return resp.Updates.UpdatedRange, nil
	}
	return rng, nil
}

// Row renders t in Header order. Amounts keep their exact decimal text.
func Row(t core.Transaction) []any {
	refund := "no"
	if t.IsRefund {
		refund = "yes"
	}
	return []any{
		t.Date.UTC().Format(time.DateOnly),
		string(t.Type),
		t.Amount.StringFixed(core.AmountScale),
		t.Currency,
		t.AccountID.String(),
		optionalID(t.ToAccountID),
		optionalID(t.CategoryID),
		optionalID(t.MemberID),
		t.Note,
		refund,
		t.ID.String(),
		t.Version,
		t.BookID.String(),
	}
}

func optionalID(id *uuid.UUID) string {
	if id == nil {
		return ""
	}
	return id.String()
}
