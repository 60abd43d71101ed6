// Package repository defines interfaces for data persistence
package repository

import (
	"context"

	"adspotly/internal/domain"
)

// UserRepository defines the interface for user data operations
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Count(ctx context.Context) (int, error)
}

// QrCodeRepository defines the interface for QR code data operations.
// IncrementScans is the counter procedure: it bumps the scan counter and
// appends the scan event row in one call, mirroring the datastore-side
// increment procedure it replaces.
type QrCodeRepository interface {
	Create(ctx context.Context, qr *domain.QrCode) error
	GetByID(ctx context.Context, id string) (*domain.QrCode, error)
	ListByUserID(ctx context.Context, userID string) ([]domain.QrCode, error)
	Update(ctx context.Context, qr *domain.QrCode) error
	Delete(ctx context.Context, id string) error
	IncrementScans(ctx context.Context, event *domain.ScanEvent) error
}

// AdSpaceRepository defines the interface for ad space data operations
type AdSpaceRepository interface {
	Create(ctx context.Context, space *domain.AdSpace) error
	GetByID(ctx context.Context, id string) (*domain.AdSpace, error)
	ListByUserID(ctx context.Context, userID string) ([]domain.AdSpace, error)
	Update(ctx context.Context, space *domain.AdSpace) error
	Delete(ctx context.Context, id string) error
	IncrementViews(ctx context.Context, id string) error
}

// AdDesignRepository defines the interface for ad design data operations.
// The three lookup variants back the resolution fallback chain;
// AttachAdSpace is the repair write that fixes a stale or missing link.
type AdDesignRepository interface {
	Create(ctx context.Context, design *domain.AdDesign) error
	GetByID(ctx context.Context, id string) (*domain.AdDesign, error)
	GetLatestByAdSpaceID(ctx context.Context, adSpaceID string) (*domain.AdDesign, error)
	GetLatestByUserID(ctx context.Context, userID string) (*domain.AdDesign, error)
	ListByUserID(ctx context.Context, userID string) ([]domain.AdDesign, error)
	Update(ctx context.Context, design *domain.AdDesign) error
	Delete(ctx context.Context, id string) error
	AttachAdSpace(ctx context.Context, designID, adSpaceID string) error
}

// ScanEventRepository defines read access to recorded scan events
type ScanEventRepository interface {
	ListByQrCodeID(ctx context.Context, qrCodeID string, limit int) ([]domain.ScanEvent, error)
	CountByQrCodeID(ctx context.Context, qrCodeID string) (int64, error)
}

// Repositories bundles all repository interfaces
type Repositories struct {
	Users      UserRepository
	QrCodes    QrCodeRepository
	AdSpaces   AdSpaceRepository
	AdDesigns  AdDesignRepository
	ScanEvents ScanEventRepository
}
