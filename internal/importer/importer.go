package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"storefront-catalog/internal/domain"
)

type InteractionWriter interface {
	RecordInteraction(ctx context.Context, in domain.Interaction) error
}

var requiredColumns = []string{"user_id", "product_id", "interaction_type"}

// CSVImporter loads historical storefront interactions from a CSV export.
type CSVImporter struct {
	reader *csv.Reader
	writer InteractionWriter
}

func NewCSVImporter(r io.Reader, writer InteractionWriter) *CSVImporter {
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1 // rows may have trailing commas
	csvr.TrimLeadingSpace = true
	return &CSVImporter{reader: csvr, writer: writer}
}

// Run reads every row and records it. Blank rows are skipped; the first
// invalid row stops the import.
func (i *CSVImporter) Run(ctx context.Context) (int, error) {
	headers, err := i.reader.Read()
	if err != nil {
		return 0, fmt.Errorf("read headers: %w", err)
	}
	index := headerIndex(headers)
	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			return 0, fmt.Errorf("missing column %q", col)
		}
	}

	imported := 0
	line := 1
	for {
		record, err := i.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return imported, fmt.Errorf("read row %d: %w", line, err)
		}
		if blank(record) {
			continue
		}

		in, err := parseRow(record, index)
		if err != nil {
			return imported, fmt.Errorf("row %d: %w", line, err)
		}
		if err := i.writer.RecordInteraction(ctx, in); err != nil {
			return imported, fmt.Errorf("record row %d: %w", line, err)
		}
		imported++
	}
	return imported, nil
}

func headerIndex(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return idx
}

func parseRow(record []string, index map[string]int) (domain.Interaction, error) {
	in := domain.Interaction{
		UserID:          pick(record, index, "user_id"),
		InteractionType: strings.ToLower(pick(record, index, "interaction_type")),
		Category:        pick(record, index, "category"),
	}
	if in.UserID == "" {
		return in, errors.New("user_id required")
	}
	productID, err := strconv.Atoi(pick(record, index, "product_id"))
	if err != nil || productID <= 0 {
		return in, fmt.Errorf("invalid product_id %q", pick(record, index, "product_id"))
	}
	in.ProductID = productID
	if !domain.ValidInteractionType(in.InteractionType) {
		return in, fmt.Errorf("unknown interaction_type %q", in.InteractionType)
	}
	if raw := pick(record, index, "created_at"); raw != "" {
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return in, fmt.Errorf("invalid created_at %q: %w", raw, err)
		}
		in.CreatedAt = ts.UTC()
	}
	return in, nil
}

func blank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func pick(record []string, index map[string]int, key string) string {
	pos, ok := index[key]
	if !ok || pos >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[pos])
}
