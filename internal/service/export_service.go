package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"expense-tracker/internal/repository"
	"expense-tracker/internal/storage"
)

// ExportConfig locates where exports are written.
type ExportConfig struct {
	Bucket    string
	KeyPrefix string
	URLTTL    time.Duration
}

// Export describes one uploaded CSV file.
type Export struct {
	Key          string
	Location     string
	URL          string
	Rows         int
	Size         int64
	LastModified *time.Time
}

// ExportService writes a user's expenses to object storage as CSV.
type ExportService interface {
	Export(ctx context.Context, userID int64) (*Export, error)
	ListExports(ctx context.Context, userID int64) ([]Export, error)
}

type exportService struct {
	expenses repository.ExpenseRepository
	storage  storage.Service
	cfg      ExportConfig
}

// NewExportService returns a service that reports ErrExportDisabled when
// store is nil or no bucket is configured.
func NewExportService(expenses repository.ExpenseRepository, store storage.Service, cfg ExportConfig) ExportService {
	if cfg.URLTTL <= 0 {
		cfg.URLTTL = 15 * time.Minute
	}
	cfg.KeyPrefix = strings.Trim(cfg.KeyPrefix, "/")
	return &exportService{
		expenses: expenses,
		storage:  store,
		cfg:      cfg,
	}
}

func (s *exportService) enabled() bool {
	return s.storage != nil && s.cfg.Bucket != ""
}

func (s *exportService) userPrefix(userID int64) string {
	p := fmt.Sprintf("user-%d/", userID)
	if s.cfg.KeyPrefix != "" {
		p = s.cfg.KeyPrefix + "/" + p
	}
	return p
}

func (s *exportService) Export(ctx context.Context, userID int64) (*Export, error) {
	if !s.enabled() {
		return nil, ErrExportDisabled
	}
	if userID <= 0 {
		return nil, invalid("Invalid user ID")
	}

	expenses, err := s.expenses.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"id", "date", "category", "amount", "description"}); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	for _, e := range expenses {
		record := []string{
			strconv.FormatInt(e.ID, 10),
			e.Date.UTC().Format(time.RFC3339),
			e.Category,
			strconv.FormatFloat(e.Amount, 'f', 2, 64),
			e.Description,
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}

	size := int64(buf.Len())
	key := s.userPrefix(userID) + uuid.NewString() + ".csv"
	location, err := s.storage.Upload(ctx, storage.Object{
		Bucket:      s.cfg.Bucket,
		Key:         key,
		ContentType: "text/csv",
		Body:        &buf,
	})
	if err != nil {
		return nil, err
	}

	url, err := s.storage.GetObjectURL(ctx, s.cfg.Bucket, key, s.cfg.URLTTL)
	if err != nil {
		return nil, err
	}

	return &Export{
		Key:      key,
		Location: location,
		URL:      url,
		Rows:     len(expenses),
		Size:     size,
	}, nil
}

func (s *exportService) ListExports(ctx context.Context, userID int64) ([]Export, error) {
	if !s.enabled() {
		return nil, ErrExportDisabled
	}
	if userID <= 0 {
		return nil, invalid("Invalid user ID")
	}

	objects, err := s.storage.ListObjects(ctx, s.cfg.Bucket, s.userPrefix(userID))
	if err != nil {
		return nil, err
	}

	exports := make([]Export, 0, len(objects))
	for _, obj := range objects {
		url, err := s.storage.GetObjectURL(ctx, s.cfg.Bucket, obj.Key, s.cfg.URLTTL)
		if err != nil {
			return nil, err
		}
		exports = append(exports, Export{
			Key:          obj.Key,
			Location:     fmt.Sprintf("s3://%s/%s", s.cfg.Bucket, obj.Key),
			URL:          url,
			Size:         obj.Size,
			LastModified: obj.LastModified,
		})
	}
	return exports, nil
}
