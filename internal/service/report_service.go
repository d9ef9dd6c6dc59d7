package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"equipment-requests-api-server/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ReportService exports the request list for admins.
type ReportService struct {
	stores   StoreFactory
	uploader Uploader
	logger   *zap.Logger
	now      func() time.Time
}

// NewReportService creates a report service. A nil uploader disables export.
func NewReportService(stores StoreFactory, uploader Uploader, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{stores: stores, uploader: uploader, logger: logger, now: time.Now}
}

// ExportRequests uploads every request as CSV and returns the object URL.
func (s *ReportService) ExportRequests(ctx context.Context, sess models.SessionContext) (string, error) {
	if s.uploader == nil {
		return "", ErrExportDisabled
	}
	requests, err := s.stores(sess).FetchRequests(ctx, false)
	if err != nil {
		return "", err
	}

	body, err := encodeRequestsCSV(requests)
	if err != nil {
		return "", err
	}

	key := fmt.Sprintf("reports/requests-%s-%s.csv", s.now().UTC().Format("20060102-150405"), uuid.New().String()[:8])
	url, err := s.uploader.UploadFile(ctx, bytes.NewReader(body), key, "text/csv; charset=utf-8")
	if err != nil {
		return "", err
	}
	s.logger.Info("requests report exported", zap.String("key", key), zap.Int("rows", len(requests)))
	return url, nil
}

// encodeRequestsCSV writes a BOM first so spreadsheet tools read the Hebrew
// and other non-ASCII reasons as UTF-8.
func encodeRequestsCSV(requests []models.Request) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("\ufeff")
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"id", "reason", "status", "author", "created"}); err != nil {
		return nil, err
	}
	for _, r := range requests {
		row := []string{
			strconv.Itoa(r.ID),
			r.Reason,
			string(r.Status),
			r.AuthorName,
			r.Created.UTC().Format(time.RFC3339),
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("encode report: %w", err)
	}
	return buf.Bytes(), nil
}
