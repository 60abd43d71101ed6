package sqlite

import (
	"context"
	"fmt"

	"adspotly/internal/domain"
	"adspotly/internal/repository"
)

// ScanEventRepo implements repository.ScanEventRepository
type ScanEventRepo struct {
	db *DB
}

func NewScanEventRepo(db *DB) repository.ScanEventRepository {
	return &ScanEventRepo{db: db}
}

func (r *ScanEventRepo) ListByQrCodeID(ctx context.Context, qrCodeID string, limit int) ([]domain.ScanEvent, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	var events []domain.ScanEvent
	err := r.db.SelectContext(ctx, &events,
		`SELECT * FROM scan_events WHERE qr_code_id = ? ORDER BY created_at DESC LIMIT ?`,
		qrCodeID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list scan events: %w", err)
	}
	return events, nil
}

func (r *ScanEventRepo) CountByQrCodeID(ctx context.Context, qrCodeID string) (int64, error) {
	var count int64
	err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM scan_events WHERE qr_code_id = ?`, qrCodeID)
	if err != nil {
		return 0, fmt.Errorf("failed to count scan events: %w", err)
	}
	return count, nil
}
