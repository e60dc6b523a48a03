// Package ingest reads and writes the normalized transaction CSV schema.
//
// The schema is the output of the upstream export parsers, one row per
// event: timestamp, type, asset, quantity, institution, plus optional
// tx_hash and cost_basis columns detected by name. Parsing raw exchange
// exports into this schema is not this package's job.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/cryptofolio/backend/internal/domain/ledger"
)

// ErrMissingColumn is returned when a required column is absent.
var ErrMissingColumn = errors.New("missing required column")

// Required columns of the normalized schema.
var requiredColumns = []string{"timestamp", "type", "asset", "quantity", "institution"}

// Optional column names, detected case-insensitively.
const (
	columnTxHash    = "tx_hash"
	columnCostBasis = "cost_basis"
)

// Timestamp formats accepted, tried in order.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ReadBatch parses a normalized transaction CSV into a batch.
// Column order is free; a header row is required. Malformed rows are a
// validation failure, not something to repair.
func ReadBatch(r io.Reader) (*ledger.Batch, error) {
	reader := csv.NewReader(r)

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("empty input: header row required")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, name := range requiredColumns {
		if _, ok := columns[name]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, name)
		}
	}

	hashCol, hasHash := columns[columnTxHash]
	basisCol, hasBasis := columns[columnCostBasis]

	batch := &ledger.Batch{HasTxHash: hasHash}
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		timestamp, err := parseTimestamp(record[columns["timestamp"]])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		quantity, err := strconv.ParseFloat(strings.TrimSpace(record[columns["quantity"]]), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid quantity %q", line, record[columns["quantity"]])
		}

		row := &ledger.Transaction{
			Timestamp:   timestamp,
			Type:        ledger.ParseType(record[columns["type"]]),
			Asset:       strings.TrimSpace(record[columns["asset"]]),
			Quantity:    quantity,
			Institution: strings.TrimSpace(record[columns["institution"]]),
		}

		if hasHash {
			row.TxHash = strings.TrimSpace(record[hashCol])
		}
		if hasBasis {
			raw := strings.TrimSpace(record[basisCol])
			if raw != "" {
				basis, err := strconv.ParseFloat(raw, 64)
				if err != nil {
					return nil, fmt.Errorf("line %d: invalid cost_basis %q", line, raw)
				}
				row.CostBasis = basis
			}
		}

		batch.Rows = append(batch.Rows, row)
	}

	return batch, nil
}

// WriteBatch emits the augmented schema, including the fields populated by
// the reconciler. Rows come out in batch order.
func WriteBatch(w io.Writer, batch *ledger.Batch) error {
	writer := csv.NewWriter(w)

	header := []string{
		"timestamp", "type", "asset", "quantity", "institution",
		"tx_hash", "cost_basis",
		"transfer_id", "matching_institution", "matching_date", "cost_basis_per_unit",
	}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, row := range batch.Rows {
		record := []string{
			row.Timestamp.Format(time.RFC3339),
			string(row.Type),
			row.Asset,
			formatFloat(row.Quantity),
			row.Institution,
			row.TxHash,
			formatFloat(row.CostBasis),
			row.TransferID,
			row.MatchingInstitution,
			row.MatchingDate,
			formatFloat(row.CostBasisPerUnit),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

func parseTimestamp(raw string) (time.Time, error) {
	trimmed := strings.TrimSpace(raw)
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, trimmed); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", raw)
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
