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

// AdSpaceRepo implements repository.AdSpaceRepository
type AdSpaceRepo struct {
	db *DB
}

func NewAdSpaceRepo(db *DB) repository.AdSpaceRepository {
	return &AdSpaceRepo{db: db}
}

// adSpaceRow is the raw table shape; content and theme are stored as
// JSON blobs and decoded into typed values at this boundary.
type adSpaceRow struct {
	ID          string    `db:"id"`
	UserID      string    `db:"user_id"`
	Title       string    `db:"title"`
	Description string    `db:"description"`
	ContentJSON string    `db:"content_json"`
	ThemeJSON   string    `db:"theme_json"`
	Views       int64     `db:"views"`
	CreatedAt   time.Time `db:"created_at"`
}

func (row *adSpaceRow) toDomain() *domain.AdSpace {
	return &domain.AdSpace{
		ID:          row.ID,
		UserID:      row.UserID,
		Title:       row.Title,
		Description: row.Description,
		Content:     domain.ParseSpaceContent(row.ContentJSON),
		Theme:       domain.ParseTheme(row.ThemeJSON),
		Views:       row.Views,
		CreatedAt:   row.CreatedAt,
	}
}

func (r *AdSpaceRepo) Create(ctx context.Context, space *domain.AdSpace) error {
	query := `INSERT INTO ad_spaces (id, user_id, title, description, content_json, theme_json)
		VALUES (?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query, space.ID, space.UserID, space.Title, space.Description,
		domain.EncodeJSON(space.Content), domain.EncodeJSON(space.Theme))
	if err != nil {
		return fmt.Errorf("failed to create ad space: %w", err)
	}
	return nil
}

func (r *AdSpaceRepo) GetByID(ctx context.Context, id string) (*domain.AdSpace, error) {
	row := &adSpaceRow{}
	err := r.db.GetContext(ctx, row, `SELECT * FROM ad_spaces WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get ad space: %w", err)
	}
	return row.toDomain(), nil
}

func (r *AdSpaceRepo) ListByUserID(ctx context.Context, userID string) ([]domain.AdSpace, error) {
	var rows []adSpaceRow
	err := r.db.SelectContext(ctx, &rows,
		`SELECT * FROM ad_spaces WHERE user_id = ? ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list ad spaces: %w", err)
	}

	spaces := make([]domain.AdSpace, 0, len(rows))
	for i := range rows {
		spaces = append(spaces, *rows[i].toDomain())
	}
	return spaces, nil
}

func (r *AdSpaceRepo) Update(ctx context.Context, space *domain.AdSpace) error {
	query := `UPDATE ad_spaces SET title = ?, description = ?, content_json = ?, theme_json = ? WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query, space.Title, space.Description,
		domain.EncodeJSON(space.Content), domain.EncodeJSON(space.Theme), space.ID)
	return err
}

func (r *AdSpaceRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM ad_spaces WHERE id = ?`, id)
	return err
}

func (r *AdSpaceRepo) IncrementViews(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE ad_spaces SET views = views + 1 WHERE id = ?`, id)
	return err
}
