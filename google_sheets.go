package main

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

type GoogleSheetsSource struct {
	service *sheets.Service
}

func NewGoogleSheetsSource(ctx context.Context, client *http.Client) (*GoogleSheetsSource, error) {
	return newGoogleSheetsSource(ctx, option.WithHTTPClient(client))
}

func newGoogleSheetsSource(ctx context.Context, opts ...option.ClientOption) (*GoogleSheetsSource, error) {
	service, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}
	return &GoogleSheetsSource{service: service}, nil
}

// FetchRows reads the formatted values of a whole sheet.
func (g *GoogleSheetsSource) FetchRows(ctx context.Context, spreadsheetID, sheetTitle string) ([][]string, error) {
	resp, err := g.service.Spreadsheets.Values.Get(spreadsheetID, quoteSheetTitle(sheetTitle)).
		ValueRenderOption("FORMATTED_VALUE").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheetTitle, err)
	}

	rows := make([][]string, 0, len(resp.Values))
	for _, line := range resp.Values {
		cells := make([]string, len(line))
		for i, v := range line {
			if v != nil {
				cells[i] = fmt.Sprint(v)
			}
		}
		rows = append(rows, cells)
	}
	return rows, nil
}

// quoteSheetTitle turns a sheet title into an A1 range covering the whole sheet.
func quoteSheetTitle(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}
