package receipt

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/zombor/receipt-processor/internal/metrics"
	"github.com/zombor/receipt-processor/internal/scanning"
)

// ErrScanningDisabled is returned by ScanReceipt when no scanner is configured
var ErrScanningDisabled = errors.New("receipt scanning is not configured")

// Service handles receipt operations
type Service struct {
	store   Store
	scanner scanning.Scanner
	storage Storage
}

// NewService creates a new Service that accepts JSON receipts only
func NewService(store Store) *Service {
	return NewServiceWithDeps(store, nil, nil)
}

// NewServiceWithDeps creates a new Service with optional scanning and upload archiving.
// scanner and storage may be nil.
func NewServiceWithDeps(store Store, scanner scanning.Scanner, storage Storage) *Service {
	return &Service{
		store:   store,
		scanner: scanner,
		storage: storage,
	}
}

// ScanningEnabled reports whether a scanner is configured
func (s *Service) ScanningEnabled() bool {
	return s.scanner != nil
}

// ProcessReceipt validates an untyped receipt payload, scores it and records the score.
// Validation failures are returned as *ValidationError.
func (s *Service) ProcessReceipt(raw any) (*ScoreRecord, error) {
	record, _, err := s.process(raw)
	return record, err
}

func (s *Service) process(raw any) (*ScoreRecord, *Receipt, error) {
	r, err := Validate(raw)
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			metrics.RecordRejected(string(verr.Reason))
		}
		return nil, nil, err
	}

	rules := Breakdown(r)
	record, err := s.store.Put(sumRules(rules), rules)
	if err != nil {
		return nil, nil, fmt.Errorf("saving score: %w", err)
	}
	metrics.RecordAccepted(record.Points)

	return record, r, nil
}

// GetPoints returns the points recorded for id
func (s *Service) GetPoints(id string) (int, error) {
	record, err := s.GetScore(id)
	if err != nil {
		return 0, err
	}
	return record.Points, nil
}

// GetScore returns the full score record, including the per-rule breakdown
func (s *Service) GetScore(id string) (*ScoreRecord, error) {
	record, err := s.store.Get(id)
	metrics.RecordLookup(err == nil)
	if err != nil {
		return nil, fmt.Errorf("getting score: %w", err)
	}
	return record, nil
}

// ScanReceipt extracts a receipt from an uploaded image or PDF and processes it
// exactly like a submitted JSON receipt.
func (s *Service) ScanReceipt(ctx context.Context, filename string, data []byte, contentType string) (*ScoreRecord, *Receipt, error) {
	if s.scanner == nil {
		return nil, nil, ErrScanningDisabled
	}

	scanned, err := s.scanner.ScanReceipt(ctx, data, contentType)
	if err != nil {
		slog.Error("Failed to scan receipt",
			"filename", filename,
			"content_type", contentType,
			"file_size", len(data),
			"error", err,
		)
		return nil, nil, fmt.Errorf("scanning receipt: %w", err)
	}

	record, r, err := s.process(scannedPayload(scanned))
	if err != nil {
		return nil, nil, err
	}

	if s.storage != nil {
		name := fmt.Sprintf("%s_%s", record.ID, sanitizeFilename(filename))
		if _, err := s.storage.Save(name, data); err != nil {
			// The score is already recorded; a missing archive copy is not fatal
			slog.Warn("Failed to archive upload", "id", record.ID, "filename", name, "error", err)
		}
	}

	return record, r, nil
}

// scannedPayload converts scanner output into the untyped shape Validate expects
func scannedPayload(d *scanning.ReceiptData) map[string]any {
	items := make([]any, 0, len(d.Items))
	for _, item := range d.Items {
		items = append(items, map[string]any{
			"shortDescription": item.ShortDescription,
			"price":            item.Price,
		})
	}
	return map[string]any{
		"retailer":     d.Retailer,
		"purchaseDate": d.PurchaseDate,
		"purchaseTime": d.PurchaseTime,
		"items":        items,
		"total":        d.Total,
	}
}

func sumRules(rules []RuleScore) int {
	points := 0
	for _, rule := range rules {
		points += rule.Points
	}
	return points
}
