package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"adspotly/internal/domain"
	"adspotly/internal/repository"
)

// QrCodeRepo implements repository.QrCodeRepository
type QrCodeRepo struct {
	db *DB
}

func NewQrCodeRepo(db *DB) repository.QrCodeRepository {
	return &QrCodeRepo{db: db}
}

func (r *QrCodeRepo) Create(ctx context.Context, qr *domain.QrCode) error {
	query := `INSERT INTO qr_codes (id, user_id, url, ad_space_id) VALUES (?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query, qr.ID, qr.UserID, qr.URL, qr.AdSpaceID)
	if err != nil {
		return fmt.Errorf("failed to create qr code: %w", err)
	}
	return nil
}

func (r *QrCodeRepo) GetByID(ctx context.Context, id string) (*domain.QrCode, error) {
	qr := &domain.QrCode{}
	err := r.db.GetContext(ctx, qr, `SELECT * FROM qr_codes WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get qr code: %w", err)
	}
	return qr, nil
}

func (r *QrCodeRepo) ListByUserID(ctx context.Context, userID string) ([]domain.QrCode, error) {
	var codes []domain.QrCode
	err := r.db.SelectContext(ctx, &codes,
		`SELECT * FROM qr_codes WHERE user_id = ? ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list qr codes: %w", err)
	}
	return codes, nil
}

func (r *QrCodeRepo) Update(ctx context.Context, qr *domain.QrCode) error {
	query := `UPDATE qr_codes SET url = ?, ad_space_id = ? WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query, qr.URL, qr.AdSpaceID, qr.ID)
	return err
}

func (r *QrCodeRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM qr_codes WHERE id = ?`, id)
	return err
}

// IncrementScans bumps the scan counter and appends the scan event row in
// one transaction. Callers treat the whole call as at-least-once.
func (r *QrCodeRepo) IncrementScans(ctx context.Context, event *domain.ScanEvent) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin scan increment: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`UPDATE qr_codes SET scans = scans + 1 WHERE id = ?`, event.QrCodeID); err != nil {
		return fmt.Errorf("failed to increment scans: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO scan_events (qr_code_id, ad_space_id, ip, user_agent, location) VALUES (?, ?, ?, ?, ?)`,
		event.QrCodeID, event.AdSpaceID, event.IP, event.UserAgent, event.Location); err != nil {
		return fmt.Errorf("failed to record scan event: %w", err)
	}

	return tx.Commit()
}
