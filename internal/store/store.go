package store

import (
	"context"
	"time"

	"github.com/storyloom/collab/internal/permissions"
)

type InviteStatus string

const (
	StatusPending   InviteStatus = "pending"
	StatusAccepted  InviteStatus = "accepted"
	StatusDeclined  InviteStatus = "declined"
	StatusCancelled InviteStatus = "cancelled"
	StatusExpired   InviteStatus = "expired"
)

// Terminal reports whether s ends an invitation cycle.
func (s InviteStatus) Terminal() bool {
	return s != StatusPending
}

const NotificationTypeCoAuthorInvite = "coauthor_invite"

// Grants are the permissions an invitation confers when accepted.
type Grants struct {
	CanManageMedia     bool `json:"canManageMedia"`
	CanInviteCoAuthors bool `json:"canInviteCoAuthors"`
}

// InviteRecord is keyed by InviteKey(BookID, InviteeUID).
type InviteRecord struct {
	ID                 string       `json:"id"`
	BookID             string       `json:"bookId"`
	OwnerID            string       `json:"ownerId"`
	InvitedBy          string       `json:"invitedBy"`
	InviteeUID         string       `json:"inviteeUid"`
	InviteeEmail       string       `json:"inviteeEmail"`
	OwnerName          string       `json:"ownerName"`
	BookTitle          string       `json:"bookTitle"`
	GrantedPermissions Grants       `json:"grantedPermissions"`
	Status             InviteStatus `json:"status"`
	CreatedAt          time.Time    `json:"createdAt"`
	UpdatedAt          time.Time    `json:"updatedAt"`
	ExpiresAt          time.Time    `json:"expiresAt"`
	RespondedAt        *time.Time   `json:"respondedAt,omitempty"`
	ResentAt           *time.Time   `json:"resentAt,omitempty"`
}

// Expired reports whether a pending invitation is past its deadline at now.
func (r *InviteRecord) Expired(now time.Time) bool {
	return r.Status == StatusPending && !r.ExpiresAt.After(now)
}

// NotificationRecord lives under its recipient and shares its id with the
// invitation it projects.
type NotificationRecord struct {
	ID           string    `json:"id"`
	RecipientUID string    `json:"recipientUid"`
	Type         string    `json:"type"`
	InviteID     string    `json:"inviteId"`
	BookID       string    `json:"bookId"`
	BookTitle    string    `json:"bookTitle"`
	FromUID      string    `json:"fromUid"`
	FromName     string    `json:"fromName"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

type BookRef struct {
	BookID     string `json:"bookId"`
	Title      string `json:"title"`
	CoverImage string `json:"coverImage,omitempty"`
}

type AlbumRef struct {
	ID         string    `json:"id"`
	CoverImage string    `json:"coverImage,omitempty"`
	Type       string    `json:"type"`
	Name       string    `json:"name"`
	MediaCount int       `json:"mediaCount"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Profile is the per-user record the collaboration core maintains.
type Profile struct {
	UID               string     `json:"uid"`
	DisplayName       string     `json:"displayName,omitempty"`
	Email             string     `json:"email,omitempty"`
	EmailVerified     bool       `json:"emailVerified"`
	UnreadCount       int        `json:"unreadCount"`
	AccessibleBookIDs []BookRef  `json:"accessibleBookIds"`
	AccessibleAlbums  []AlbumRef `json:"accessibleAlbums"`
}

type BookRecord struct {
	ID          string                       `json:"id"`
	Title       string                       `json:"title"`
	CoverImage  string                       `json:"coverImage,omitempty"`
	OwnerID     string                       `json:"ownerId"`
	AlbumID     string                       `json:"albumId,omitempty"`
	Members     map[string]permissions.Role  `json:"members"`
	Permissions map[string]permissions.Patch `json:"permissions"`
	CreatedAt   time.Time                    `json:"createdAt"`
	UpdatedAt   time.Time                    `json:"updatedAt"`
}

// Membership returns the resolver view of the book.
func (b *BookRecord) Membership() permissions.Membership {
	return permissions.Membership{
		OwnerID:     b.OwnerID,
		Members:     b.Members,
		Permissions: b.Permissions,
	}
}

// AlbumKey is the album shared with the book's media managers.
func (b *BookRecord) AlbumKey() string {
	if b.AlbumID != "" {
		return b.AlbumID
	}
	return b.ID
}

type AlbumRecord struct {
	ID            string    `json:"id"`
	BookID        string    `json:"bookId"`
	Name          string    `json:"name"`
	Type          string    `json:"type"`
	CoverImage    string    `json:"coverImage,omitempty"`
	MediaCount    int       `json:"mediaCount"`
	UpdatedAt     time.Time `json:"updatedAt"`
	AccessUserIDs []string  `json:"accessUserIds"`
}

// IdentityRecord is the identity provider's view of a user.
type IdentityRecord struct {
	UID           string `json:"uid"`
	Email         string `json:"email"`
	DisplayName   string `json:"displayName"`
	EmailVerified bool   `json:"emailVerified"`
}

// Catalog is the set of externally-owned records loaded by operators.
type Catalog struct {
	Books      map[string]BookRecord     `json:"books"`
	Albums     map[string]AlbumRecord    `json:"albums"`
	Identities map[string]IdentityRecord `json:"identities"`
}

// CollabStore runs functions inside consistent transactions.
type CollabStore interface {
	Update(ctx context.Context, fn func(tx *Tx) error) error
	View(ctx context.Context, fn func(tx *Tx) error) error
	Close() error
}
