// Package domain defines core business entities
package domain

import (
	"time"
)

// User represents an account that owns QR codes, ad spaces and designs
type User struct {
	ID           string    `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Name         string    `json:"name" db:"name"`
	Role         string    `json:"role" db:"role"` // member, admin
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
}

// QrCode maps a scannable identifier to a destination URL and an
// optional ad space
type QrCode struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"userId" db:"user_id"`
	URL       string    `json:"url" db:"url"`
	AdSpaceID *string   `json:"adSpaceId,omitempty" db:"ad_space_id"`
	Scans     int64     `json:"scans" db:"scans"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// AdSpace is a public landing record with theme and content, owned by
// exactly one user
type AdSpace struct {
	ID          string       `json:"id" db:"id"`
	UserID      string       `json:"userId" db:"user_id"`
	Title       string       `json:"title" db:"title"`
	Description string       `json:"description" db:"description"`
	Content     SpaceContent `json:"content" db:"-"`
	Theme       Theme        `json:"theme" db:"-"`
	Views       int64        `json:"views" db:"views"`
	CreatedAt   time.Time    `json:"createdAt" db:"created_at"`
}

// AdDesign is a creative asset record loosely linked to an ad space.
// AdSpaceID can be null, stale, or not yet written (the builder creates
// the space first and the design second), which is why resolution never
// treats it as a strict foreign key.
type AdDesign struct {
	ID        string        `json:"id" db:"id"`
	UserID    string        `json:"userId" db:"user_id"`
	AdSpaceID *string       `json:"adSpaceId,omitempty" db:"ad_space_id"`
	ImageURL  string        `json:"imageUrl,omitempty" db:"image_url"`
	VideoURL  string        `json:"videoUrl,omitempty" db:"video_url"`
	Content   DesignContent `json:"content" db:"-"`
	CreatedAt time.Time     `json:"createdAt" db:"created_at"`
}

// ScanEvent records a single QR scan with requester metadata
type ScanEvent struct {
	ID        int64     `json:"id" db:"id"`
	QrCodeID  string    `json:"qrCodeId" db:"qr_code_id"`
	AdSpaceID *string   `json:"adSpaceId,omitempty" db:"ad_space_id"`
	IP        string    `json:"ip" db:"ip"`
	UserAgent string    `json:"userAgent" db:"user_agent"`
	Location  string    `json:"location,omitempty" db:"location"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// User roles
const (
	RoleMember = "member"
	RoleAdmin  = "admin"
)
