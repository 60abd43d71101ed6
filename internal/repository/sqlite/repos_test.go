package sqlite

import (
	"context"
	"fmt"
	"testing"

	"adspotly/internal/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Migrate())
	return db
}

func seedUser(t *testing.T, db *DB) *domain.User {
	t.Helper()
	user := &domain.User{
		ID:           uuid.New().String(),
		Email:        uuid.New().String() + "@example.com",
		PasswordHash: "hash",
		Name:         "Tester",
		Role:         domain.RoleMember,
	}
	require.NoError(t, NewUserRepo(db).Create(context.Background(), user))
	return user
}

// backdate pushes a row's created_at into the past so ordering tests
// do not depend on sub-second insert timing.
func backdate(t *testing.T, db *DB, table, id string, hours int) {
	t.Helper()
	_, err := db.Exec(
		"UPDATE "+table+" SET created_at = datetime('now', ?) WHERE id = ?",
		fmt.Sprintf("-%d hours", hours), id)
	require.NoError(t, err)
}

func TestUserRepoRoundTrip(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := NewUserRepo(db)

	user := seedUser(t, db)

	got, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, user.Email, got.Email)

	got, err = repo.GetByEmail(ctx, user.Email)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, user.ID, got.ID)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestUserRepoMissingRowsReturnNil(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := NewUserRepo(db)

	got, err := repo.GetByID(ctx, uuid.New().String())
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = repo.GetByEmail(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestQrCodeRepoIncrementScans(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	user := seedUser(t, db)
	repo := NewQrCodeRepo(db)

	qr := &domain.QrCode{ID: uuid.New().String(), UserID: user.ID, URL: "https://dest.example"}
	require.NoError(t, repo.Create(ctx, qr))

	spaceID := uuid.New().String()
	event := &domain.ScanEvent{
		QrCodeID:  qr.ID,
		AdSpaceID: &spaceID,
		IP:        "203.0.113.9",
		UserAgent: "test-agent",
		Location:  "AR",
	}
	require.NoError(t, repo.IncrementScans(ctx, event))
	require.NoError(t, repo.IncrementScans(ctx, event))

	got, err := repo.GetByID(ctx, qr.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, int64(2), got.Scans)

	scans := NewScanEventRepo(db)
	count, err := scans.CountByQrCodeID(ctx, qr.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	events, err := scans.ListByQrCodeID(ctx, qr.ID, 10)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "203.0.113.9", events[0].IP)
	require.NotNil(t, events[0].AdSpaceID)
	assert.Equal(t, spaceID, *events[0].AdSpaceID)
}

func TestQrCodeRepoUpdateAndDelete(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	user := seedUser(t, db)
	repo := NewQrCodeRepo(db)

	qr := &domain.QrCode{ID: uuid.New().String(), UserID: user.ID, URL: "https://a.example"}
	require.NoError(t, repo.Create(ctx, qr))

	spaceID := uuid.New().String()
	qr.URL = "https://b.example"
	qr.AdSpaceID = &spaceID
	require.NoError(t, repo.Update(ctx, qr))

	got, err := repo.GetByID(ctx, qr.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "https://b.example", got.URL)
	require.NotNil(t, got.AdSpaceID)
	assert.Equal(t, spaceID, *got.AdSpaceID)

	require.NoError(t, repo.Delete(ctx, qr.ID))
	got, err = repo.GetByID(ctx, qr.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestAdSpaceRepoContentRoundTrip(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	user := seedUser(t, db)
	repo := NewAdSpaceRepo(db)

	space := &domain.AdSpace{
		ID:     uuid.New().String(),
		UserID: user.ID,
		Title:  "Spring Sale",
		Content: domain.SpaceContent{
			URL:         "https://shop.example/sale",
			Headline:    "Everything must go",
			Subheadline: "Up to 50% off",
		},
		Theme: domain.Theme{Primary: "#ff5500", Background: "#ffffff", Text: "#111111"},
	}
	require.NoError(t, repo.Create(ctx, space))

	got, err := repo.GetByID(ctx, space.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, space.Content, got.Content)
	assert.Equal(t, space.Theme, got.Theme)

	require.NoError(t, repo.IncrementViews(ctx, space.ID))
	got, err = repo.GetByID(ctx, space.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Views)
}

func TestAdDesignRepoLookupVariants(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	user := seedUser(t, db)
	repo := NewAdDesignRepo(db)

	spaceID := uuid.New().String()
	older := &domain.AdDesign{
		ID: uuid.New().String(), UserID: user.ID, AdSpaceID: &spaceID,
		ImageURL: "https://cdn.example/old.png",
	}
	require.NoError(t, repo.Create(ctx, older))
	backdate(t, db, "ad_designs", older.ID, 2)

	newer := &domain.AdDesign{
		ID: uuid.New().String(), UserID: user.ID, AdSpaceID: &spaceID,
		VideoURL: "https://cdn.example/new.mp4",
		Content:  domain.DesignContent{RedirectURL: "https://shop.example", MediaType: domain.MediaTypeVideo},
	}
	require.NoError(t, repo.Create(ctx, newer))

	got, err := repo.GetLatestByAdSpaceID(ctx, spaceID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, newer.ID, got.ID)
	assert.Equal(t, newer.Content, got.Content)

	got, err = repo.GetLatestByUserID(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, newer.ID, got.ID)

	got, err = repo.GetByID(ctx, older.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "https://cdn.example/old.png", got.ImageURL)
}

func TestAdDesignRepoAttachAdSpace(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	user := seedUser(t, db)
	repo := NewAdDesignRepo(db)

	design := &domain.AdDesign{ID: uuid.New().String(), UserID: user.ID, ImageURL: "https://cdn.example/a.png"}
	require.NoError(t, repo.Create(ctx, design))

	got, err := repo.GetLatestByAdSpaceID(ctx, "space-1")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, repo.AttachAdSpace(ctx, design.ID, "space-1"))

	got, err = repo.GetLatestByAdSpaceID(ctx, "space-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, design.ID, got.ID)
}

func TestScanEventRepoLimitClamp(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	user := seedUser(t, db)
	qrRepo := NewQrCodeRepo(db)

	qr := &domain.QrCode{ID: uuid.New().String(), UserID: user.ID, URL: "https://dest.example"}
	require.NoError(t, qrRepo.Create(ctx, qr))

	for i := 0; i < 5; i++ {
		require.NoError(t, qrRepo.IncrementScans(ctx, &domain.ScanEvent{QrCodeID: qr.ID, IP: "198.51.100.1"}))
	}

	scans := NewScanEventRepo(db)
	events, err := scans.ListByQrCodeID(ctx, qr.ID, 3)
	require.NoError(t, err)
	assert.Len(t, events, 3)

	// Non-positive limits fall back to the default page size.
	events, err = scans.ListByQrCodeID(ctx, qr.ID, 0)
	require.NoError(t, err)
	assert.Len(t, events, 5)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("s3cret!")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret!", hash)
	assert.True(t, CheckPasswordHash("s3cret!", hash))
	assert.False(t, CheckPasswordHash("wrong", hash))
}
