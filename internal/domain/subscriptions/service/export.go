package service

import (
	"fmt"
	"io"

	"github.com/gocarina/gocsv"
	"github.com/xuri/excelize/v2"

	"github.com/FACorreiaa/subscription-finder/internal/domain/subscriptions/repository"
	"github.com/FACorreiaa/subscription-finder/pkg/money"
)

const exportSheet = "Subscriptions"

// ExportRow is one subscription as written to CSV and XLSX exports.
type ExportRow struct {
	Name            string  `csv:"name"`
	Amount          string  `csv:"amount"`
	Currency        string  `csv:"currency"`
	BillingCycle    string  `csv:"billing_cycle"`
	Category        string  `csv:"category"`
	NextBillingDate string  `csv:"next_billing_date"`
	IsActive        bool    `csv:"is_active"`
	DetectedFrom    string  `csv:"detected_from"`
	Confidence      float64 `csv:"confidence"`
}

var exportHeaders = []interface{}{
	"name", "amount", "currency", "billing_cycle", "category",
	"next_billing_date", "is_active", "detected_from", "confidence",
}

// ExportRows flattens subscriptions for export. Amounts are written at the
// precision of their currency.
func ExportRows(subs []*repository.Subscription) []*ExportRow {
	rows := make([]*ExportRow, 0, len(subs))
	for _, sub := range subs {
		amount := money.New(sub.AmountMinor, sub.CurrencyCode)
		row := &ExportRow{
			Name:         sub.Name,
			Amount:       amount.String(),
			Currency:     amount.Currency(),
			BillingCycle: sub.BillingCycle,
			Category:     sub.Category,
			IsActive:     sub.IsActive,
			DetectedFrom: string(sub.DetectedFrom),
			Confidence:   sub.Confidence,
		}
		if sub.NextBillingDate != nil {
			row.NextBillingDate = sub.NextBillingDate.Format("2006-01-02")
		}
		rows = append(rows, row)
	}
	return rows
}

// WriteCSV writes subs as CSV with a header row.
func WriteCSV(w io.Writer, subs []*repository.Subscription) error {
	if err := gocsv.Marshal(ExportRows(subs), w); err != nil {
		return fmt.Errorf("failed to write csv: %w", err)
	}
	return nil
}

// WriteXLSX writes subs to a single-sheet workbook.
func WriteXLSX(w io.Writer, subs []*repository.Subscription) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	headers := exportHeaders
	if err := f.SetSheetRow(exportSheet, "A1", &headers); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, row := range ExportRows(subs) {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		amount := money.New(subs[i].AmountMinor, subs[i].CurrencyCode).ToFloat64()
		values := []interface{}{
			row.Name, amount, row.Currency, row.BillingCycle, row.Category,
			row.NextBillingDate, row.IsActive, row.DetectedFrom, row.Confidence,
		}
		if err := f.SetSheetRow(exportSheet, cell, &values); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write xlsx: %w", err)
	}
	return nil
}
