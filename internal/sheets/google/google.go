package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"bujit/internal/log"
	ports "bujit/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// Config selects the spreadsheet and the service account used to reach it.
type Config struct {
	SpreadsheetID      string
	SheetName          string
	ServiceAccountJSON string
	ServiceAccountFile string
	// Options are appended after the credential options; tests use them to
	// point the client at a local endpoint.
	Options []goption.ClientOption
}

// Client appends ledger rows to one sheet of a Google spreadsheet.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheet         string
	logger        *log.Logger

	mu          sync.Mutex
	headerReady bool
}

var _ ports.TransactionExporter = (*Client)(nil)

func New(ctx context.Context, cfg Config) (*Client, error) {
	spreadsheetID := strings.TrimSpace(cfg.SpreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	sheet := strings.TrimSpace(cfg.SheetName)
	if sheet == "" {
		sheet = "Ledger"
	}

	opts, err := credentialOptions(ctx, cfg)
	if err != nil {
		return nil, err
	}
	svc, err := gsheet.NewService(ctx, append(opts, cfg.Options...)...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheet:         sheet,
		logger:        log.ForComponent(log.ComponentSheets),
	}, nil
}

// credentialOptions resolves service account credentials: inline JSON, then
// a key file, then GOOGLE_APPLICATION_CREDENTIALS. When cfg.Options is set
// and nothing else is, no credentials are added.
func credentialOptions(ctx context.Context, cfg Config) ([]goption.ClientOption, error) {
	inline := strings.TrimSpace(cfg.ServiceAccountJSON)
	file := strings.TrimSpace(cfg.ServiceAccountFile)
	if inline == "" && file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentials []byte
	switch {
	case inline != "":
		credentials = []byte(inline)
	case file != "":
		b, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentials = b
	case len(cfg.Options) > 0:
		return nil, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	log.ForComponent(log.ComponentSheets).DebugContext(ctx, "Using service account credentials",
		"inline", inline != "",
		"credentials_size", len(credentials))
	return []goption.ClientOption{
		goption.WithCredentialsJSON(credentials),
		goption.WithScopes(gsheet.SpreadsheetsScope),
	}, nil
}

// AppendRows writes rows below the last filled row of the sheet, adding the
// header first if the sheet is empty.
func (c *Client) AppendRows(ctx context.Context, rows []ports.Row) (string, error) {
	if len(rows) == 0 {
		return "", nil
	}
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}
	if err := c.ensureHeader(ctx); err != nil {
		return "", err
	}

	values := make([][]any, 0, len(rows))
	for _, r := range rows {
		values = append(values, r.Values())
	}

	resp, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, c.columns(), &gsheet.ValueRange{Values: values}).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("append rows: %w", err)
	}

	ref := ""
	if resp.Updates != nil {
		ref = resp.Updates.UpdatedRange
	}
	c.logger.InfoContext(ctx, "Appended ledger rows", "rows", len(rows), "range", ref)
	return ref, nil
}

func (c *Client) columns() string {
	return fmt.Sprintf("%s!A:H", quoteSheet(c.sheet))
}

// ensureHeader writes Header into row 1 if it is empty. A failed check is
// retried on the next append.
func (c *Client) ensureHeader(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.headerReady {
		return nil
	}

	rng := fmt.Sprintf("%s!A1:H1", quoteSheet(c.sheet))
	got, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read header: %w", err)
	}
	if len(got.Values) == 0 || len(got.Values[0]) == 0 {
		_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, &gsheet.ValueRange{Values: [][]any{ports.Header}}).
			ValueInputOption("RAW").
			Context(ctx).
			Do()
		if err != nil {
			return fmt.Errorf("write header: %w", err)
		}
		c.logger.InfoContext(ctx, "Wrote sheet header", "sheet", c.sheet)
	}
	c.headerReady = true
	return nil
}

// quoteSheet wraps names containing spaces or punctuation in single quotes
// for A1 notation.
func quoteSheet(name string) string {
	if strings.IndexFunc(name, func(r rune) bool {
		return !(r == '_' || r >= '0' && r <= '9' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z')
	}) < 0 {
		return name
	}
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}
