// Package sheets reads and appends directory rows in a Google spreadsheet.
package sheets

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/zhouzirui/peoplemap/backend/internal/config"
	"github.com/zhouzirui/peoplemap/backend/internal/model/person"
)

// Source implements person.Source on top of the Sheets values API.
type Source struct {
	values        *sheetsapi.SpreadsheetsValuesService
	spreadsheetID string
	readRange     string
	sheetName     string
	firstRow      int
	timeout       time.Duration
	logger        *zap.Logger
}

// New authenticates against the Sheets API and returns a Source for cfg.
func New(ctx context.Context, cfg config.SheetsConfig, logger *zap.Logger) (*Source, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	sheetName, firstRow, err := parseRange(cfg.Range)
	if err != nil {
		return nil, err
	}

	clientOpt, err := clientOption(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	svc, err := sheetsapi.NewService(ctx, clientOpt)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return &Source{
		values:        svc.Spreadsheets.Values,
		spreadsheetID: cfg.SpreadsheetID,
		readRange:     cfg.Range,
		sheetName:     sheetName,
		firstRow:      firstRow,
		timeout:       cfg.Timeout,
		logger:        logger,
	}, nil
}

// clientOption prefers a service account key and falls back to an authorized
// user token file.
func clientOption(ctx context.Context, cfg config.SheetsConfig, logger *zap.Logger) (option.ClientOption, error) {
	if data, err := os.ReadFile(cfg.CredentialsFile); err == nil {
		creds, err := serviceAccountCredentials(ctx, data)
		if err != nil {
			return nil, err
		}
		logger.Info("sheets using service account credentials", zap.String("file", cfg.CredentialsFile))
		return option.WithCredentials(creds), nil
	}

	if data, err := os.ReadFile(cfg.TokenFile); err == nil {
		ts, err := userTokenSource(ctx, data)
		if err != nil {
			return nil, err
		}
		logger.Info("sheets using oauth user token", zap.String("file", cfg.TokenFile))
		return option.WithTokenSource(ts), nil
	}

	return nil, fmt.Errorf("no sheets credentials found: looked for %s and %s", cfg.CredentialsFile, cfg.TokenFile)
}

func (s *Source) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

func (s *Source) readValues(ctx context.Context) ([][]interface{}, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	resp, err := s.values.Get(s.spreadsheetID, s.readRange).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.readRange, err)
	}
	return resp.Values, nil
}

// Fetch reads the whole directory. Rows that cannot be mapped are skipped.
func (s *Source) Fetch(ctx context.Context) ([]person.Person, error) {
	values, err := s.readValues(ctx)
	if err != nil {
		return nil, err
	}

	people := make([]person.Person, 0, len(values))
	for i, row := range toRows(values) {
		p, err := person.FromRow(row)
		if err != nil {
			s.logger.Debug("skipping malformed directory row", zap.Int("row", s.firstRow+i), zap.Error(err))
			continue
		}
		people = append(people, p)
	}

	s.logger.Debug("sheets rows fetched", zap.Int("rows", len(values)), zap.Int("people", len(people)))
	return people, nil
}

// Count returns the number of data rows currently in the sheet.
func (s *Source) Count(ctx context.Context) (int, error) {
	values, err := s.readValues(ctx)
	if err != nil {
		return 0, err
	}
	return len(values), nil
}

// Append writes row after the current last row.
func (s *Source) Append(ctx context.Context, row person.Row) error {
	count, err := s.Count(ctx)
	if err != nil {
		return err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	target := appendRange(s.sheetName, s.firstRow, count)
	body := &sheetsapi.ValueRange{Values: [][]interface{}{toCells(row)}}
	_, err = s.values.Append(s.spreadsheetID, target, body).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("append %s: %w", target, err)
	}

	s.logger.Info("sheets row appended", zap.String("range", target))
	return nil
}

// parseRange splits "Sheet1!A2:I" into the sheet name and first data row.
func parseRange(rng string) (string, int, error) {
	sheetName, cells, ok := strings.Cut(rng, "!")
	if !ok || sheetName == "" {
		return "", 0, fmt.Errorf("invalid sheets range %q: missing sheet name", rng)
	}

	start, _, _ := strings.Cut(cells, ":")
	digits := strings.TrimLeftFunc(start, func(r rune) bool {
		return r < '0' || r > '9'
	})
	if digits == "" {
		return sheetName, 1, nil
	}

	row, err := strconv.Atoi(digits)
	if err != nil || row < 1 {
		return "", 0, fmt.Errorf("invalid sheets range %q: bad start row", rng)
	}
	return sheetName, row, nil
}

func appendRange(sheetName string, firstRow, count int) string {
	return fmt.Sprintf("%s!A%d", sheetName, firstRow+count)
}

func toRows(values [][]interface{}) []person.Row {
	rows := make([]person.Row, 0, len(values))
	for _, raw := range values {
		row := make(person.Row, len(raw))
		for i, cell := range raw {
			if cell == nil {
				continue
			}
			row[i] = fmt.Sprint(cell)
		}
		rows = append(rows, row)
	}
	return rows
}

func toCells(row person.Row) []interface{} {
	cells := make([]interface{}, len(row))
	for i, v := range row {
		cells[i] = v
	}
	return cells
}
