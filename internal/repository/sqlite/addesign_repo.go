package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"adspotly/internal/domain"
	"adspotly/internal/repository"
)

// AdDesignRepo implements repository.AdDesignRepository
type AdDesignRepo struct {
	db *DB
}

func NewAdDesignRepo(db *DB) repository.AdDesignRepository {
	return &AdDesignRepo{db: db}
}

type adDesignRow struct {
	ID          string    `db:"id"`
	UserID      string    `db:"user_id"`
	AdSpaceID   *string   `db:"ad_space_id"`
	ImageURL    string    `db:"image_url"`
	VideoURL    string    `db:"video_url"`
	ContentJSON string    `db:"content_json"`
	CreatedAt   time.Time `db:"created_at"`
}

func (row *adDesignRow) toDomain() *domain.AdDesign {
	return &domain.AdDesign{
		ID:        row.ID,
		UserID:    row.UserID,
		AdSpaceID: row.AdSpaceID,
		ImageURL:  row.ImageURL,
		VideoURL:  row.VideoURL,
		Content:   domain.ParseDesignContent(row.ContentJSON),
		CreatedAt: row.CreatedAt,
	}
}

func (r *AdDesignRepo) Create(ctx context.Context, design *domain.AdDesign) error {
	query := `INSERT INTO ad_designs (id, user_id, ad_space_id, image_url, video_url, content_json)
		VALUES (?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query, design.ID, design.UserID, design.AdSpaceID,
		design.ImageURL, design.VideoURL, domain.EncodeJSON(design.Content))
	if err != nil {
		return fmt.Errorf("failed to create ad design: %w", err)
	}
	return nil
}

func (r *AdDesignRepo) GetByID(ctx context.Context, id string) (*domain.AdDesign, error) {
	return r.getOne(ctx, `SELECT * FROM ad_designs WHERE id = ?`, id)
}

func (r *AdDesignRepo) GetLatestByAdSpaceID(ctx context.Context, adSpaceID string) (*domain.AdDesign, error) {
	return r.getOne(ctx,
		`SELECT * FROM ad_designs WHERE ad_space_id = ? ORDER BY created_at DESC LIMIT 1`, adSpaceID)
}

func (r *AdDesignRepo) GetLatestByUserID(ctx context.Context, userID string) (*domain.AdDesign, error) {
	return r.getOne(ctx,
		`SELECT * FROM ad_designs WHERE user_id = ? ORDER BY created_at DESC LIMIT 1`, userID)
}

func (r *AdDesignRepo) getOne(ctx context.Context, query string, args ...any) (*domain.AdDesign, error) {
	row := &adDesignRow{}
	err := r.db.GetContext(ctx, row, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get ad design: %w", err)
	}
	return row.toDomain(), nil
}

func (r *AdDesignRepo) ListByUserID(ctx context.Context, userID string) ([]domain.AdDesign, error) {
	var rows []adDesignRow
	err := r.db.SelectContext(ctx, &rows,
		`SELECT * FROM ad_designs WHERE user_id = ? ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list ad designs: %w", err)
	}

	designs := make([]domain.AdDesign, 0, len(rows))
	for i := range rows {
		designs = append(designs, *rows[i].toDomain())
	}
	return designs, nil
}

func (r *AdDesignRepo) Update(ctx context.Context, design *domain.AdDesign) error {
	query := `UPDATE ad_designs SET ad_space_id = ?, image_url = ?, video_url = ?, content_json = ? WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query, design.AdSpaceID, design.ImageURL, design.VideoURL,
		domain.EncodeJSON(design.Content), design.ID)
	return err
}

func (r *AdDesignRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM ad_designs WHERE id = ?`, id)
	return err
}

// AttachAdSpace sets a design's ad space link. Used by the resolution
// repair path when a design was found by a speculative lookup.
func (r *AdDesignRepo) AttachAdSpace(ctx context.Context, designID, adSpaceID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE ad_designs SET ad_space_id = ? WHERE id = ?`, adSpaceID, designID)
	return err
}
