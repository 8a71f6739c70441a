// Package google mirrors the fixed cost table into a Google Sheet using a
// service account.
package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"costeapp/internal/log"
	ports "costeapp/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// mirrorColumns bounds the cleared area; snapshotValues never writes past D.
const mirrorColumns = "A:D"

// Options selects the target sheet and how to authenticate.
type Options struct {
	SpreadsheetID string
	SheetName     string

	// Service account credentials, inline JSON first, then a file path.
	CredentialsJSON string
	CredentialsFile string

	// ClientOptions replaces credential lookup entirely when set.
	ClientOptions []goption.ClientOption
}

// Mirror overwrites one sheet with the latest snapshot.
type Mirror struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
	logger        *log.Logger
}

var _ ports.SnapshotWriter = (*Mirror)(nil)

// New creates a Mirror. Missing ids or credentials are reported before any
// network call is made.
func New(ctx context.Context, opts Options, logger *log.Logger) (*Mirror, error) {
	if strings.TrimSpace(opts.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	if strings.TrimSpace(opts.SheetName) == "" {
		return nil, errors.New("missing sheet name")
	}
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentSheets)

	clientOpts := opts.ClientOptions
	if len(clientOpts) == 0 {
		creds, err := credentials(opts)
		if err != nil {
			return nil, err
		}
		clientOpts = []goption.ClientOption{
			goption.WithCredentialsJSON(creds),
			goption.WithScopes(gsheet.SpreadsheetsScope),
		}
	}

	svc, err := gsheet.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	logger.InfoContext(ctx, "Google Sheets mirror ready",
		"spreadsheet_id", opts.SpreadsheetID,
		"sheet", opts.SheetName)

	return &Mirror{
		svc:           svc,
		spreadsheetID: opts.SpreadsheetID,
		sheetName:     opts.SheetName,
		logger:        logger,
	}, nil
}

func credentials(opts Options) ([]byte, error) {
	inline := strings.TrimSpace(opts.CredentialsJSON)
	file := strings.TrimSpace(opts.CredentialsFile)
	if inline == "" && file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	switch {
	case inline != "":
		return []byte(inline), nil
	case file != "":
		b, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
}

// WriteSnapshot clears the mirrored columns, then writes the snapshot from
// A1. Values are USER_ENTERED so amounts land as numbers.
func (m *Mirror) WriteSnapshot(ctx context.Context, snap ports.Snapshot) error {
	if m.svc == nil {
		return errors.New("sheets service not initialized")
	}

	_, err := m.svc.Spreadsheets.Values.
		Clear(m.spreadsheetID, a1Range(m.sheetName, mirrorColumns), &gsheet.ClearValuesRequest{}).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("clear sheet %q: %w", m.sheetName, err)
	}

	values := snapshotValues(snap)
	_, err = m.svc.Spreadsheets.Values.
		Update(m.spreadsheetID, a1Range(m.sheetName, "A1"), &gsheet.ValueRange{Values: values}).
		ValueInputOption("USER_ENTERED").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("write sheet %q: %w", m.sheetName, err)
	}

	m.logger.InfoContext(ctx, "Snapshot mirrored to Google Sheets",
		log.FieldOperation, log.OpSync,
		log.FieldBatchSize, len(snap.FixedCosts),
		"total", snap.Total.String())
	return nil
}
