package output

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/TOTskillconnect/tikscrap/config"
	"github.com/TOTskillconnect/tikscrap/parser"
)

// SheetsExporter pushes results to a Google Sheet using the OAuth installed
// app flow. The token is cached on disk; the first run prompts for an auth
// code on stdin.
type SheetsExporter struct {
	cfg config.SheetsConfig
	log *zap.SugaredLogger
}

func NewSheetsExporter(cfg config.SheetsConfig, log *zap.SugaredLogger) *SheetsExporter {
	return &SheetsExporter{cfg: cfg, log: log}
}

// Export overwrites the configured range with a header row plus one row per
// video.
func (e *SheetsExporter) Export(ctx context.Context, videos []parser.Video) error {
	if len(videos) == 0 {
		e.log.Warnw("no videos to export to sheets")
		return nil
	}
	if e.cfg.SpreadsheetID == "" {
		return fmt.Errorf("spreadsheet id not configured")
	}

	client, err := e.client(ctx)
	if err != nil {
		return err
	}

	srv, err := sheets.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return fmt.Errorf("create sheets service: %w", err)
	}

	values := make([][]interface{}, 0, len(videos)+1)
	header := make([]interface{}, len(csvColumns))
	for i, c := range csvColumns {
		header[i] = c
	}
	values = append(values, header)
	for _, v := range videos {
		row := csvRow(v)
		cells := make([]interface{}, len(row))
		for i, c := range row {
			cells[i] = c
		}
		values = append(values, cells)
	}

	rng := e.cfg.Range
	if rng == "" {
		rng = "A1"
	}

	resp, err := srv.Spreadsheets.Values.
		Update(e.cfg.SpreadsheetID, rng, &sheets.ValueRange{Values: values}).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("update sheet: %w", err)
	}

	e.log.Infow("google sheets updated", "updatedCells", resp.UpdatedCells)
	return nil
}

func (e *SheetsExporter) client(ctx context.Context) (*http.Client, error) {
	raw, err := os.ReadFile(e.cfg.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("read credentials file: %w", err)
	}

	oc, err := google.ConfigFromJSON(raw, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}

	tok, err := tokenFromFile(e.cfg.TokenFile)
	if err != nil {
		tok, err = e.tokenFromPrompt(ctx, oc)
		if err != nil {
			return nil, err
		}
		if err := saveToken(e.cfg.TokenFile, tok); err != nil {
			e.log.Warnw("token cache write failed", "error", err)
		}
	}

	return oc.Client(ctx, tok), nil
}

func (e *SheetsExporter) tokenFromPrompt(ctx context.Context, oc *oauth2.Config) (*oauth2.Token, error) {
	url := oc.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
	fmt.Printf("Open the following link in your browser, then paste the authorization code:\n%v\n", url)

	var code string
	if _, err := fmt.Scan(&code); err != nil {
		return nil, fmt.Errorf("read authorization code: %w", err)
	}
	code = strings.TrimSpace(code)

	tok, err := oc.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange authorization code: %w", err)
	}
	return tok, nil
}

func tokenFromFile(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	tok := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(tok); err != nil {
		return nil, fmt.Errorf("decode cached token: %w", err)
	}
	return tok, nil
}

func saveToken(path string, tok *oauth2.Token) error {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(tok)
}
