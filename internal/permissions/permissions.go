// Package permissions resolves a caller's role and capabilities on a book.
package permissions

import (
	"github.com/storyloom/collab/internal/apperrors"
)

type Role string

const (
	RoleOwner    Role = "Owner"
	RoleCoAuthor Role = "Co-author"
)

type Flag string

const (
	FlagManageMedia         Flag = "canManageMedia"
	FlagInviteCoAuthors     Flag = "canInviteCoAuthors"
	FlagManagePendingInvite Flag = "canManagePendingInvites"
	FlagRemoveCoAuthors     Flag = "canRemoveCoAuthors"
)

// Permissions is the fully-populated four-flag capability set.
type Permissions struct {
	CanManageMedia          bool `json:"canManageMedia"`
	CanInviteCoAuthors      bool `json:"canInviteCoAuthors"`
	CanManagePendingInvites bool `json:"canManagePendingInvites"`
	CanRemoveCoAuthors      bool `json:"canRemoveCoAuthors"`
}

// Patch is a partially-specified permission set as received from callers or
// read from older documents. Nil fields fall back to Defaults.
type Patch struct {
	CanManageMedia          *bool `json:"canManageMedia,omitempty"`
	CanInviteCoAuthors      *bool `json:"canInviteCoAuthors,omitempty"`
	CanManagePendingInvites *bool `json:"canManagePendingInvites,omitempty"`
	CanRemoveCoAuthors      *bool `json:"canRemoveCoAuthors,omitempty"`
}

// Defaults apply to any flag a co-author record leaves unset.
var Defaults = Permissions{
	CanManageMedia: true,
}

// Full is the owner's capability set.
func Full() Permissions {
	return Permissions{
		CanManageMedia:          true,
		CanInviteCoAuthors:      true,
		CanManagePendingInvites: true,
		CanRemoveCoAuthors:      true,
	}
}

// Sanitize resolves every flag of p, using Defaults for missing ones.
func Sanitize(p Patch) Permissions {
	return Permissions{
		CanManageMedia:          orDefault(p.CanManageMedia, Defaults.CanManageMedia),
		CanInviteCoAuthors:      orDefault(p.CanInviteCoAuthors, Defaults.CanInviteCoAuthors),
		CanManagePendingInvites: orDefault(p.CanManagePendingInvites, Defaults.CanManagePendingInvites),
		CanRemoveCoAuthors:      orDefault(p.CanRemoveCoAuthors, Defaults.CanRemoveCoAuthors),
	}
}

// Patch returns p with every field set, the form persisted on book records.
func (p Permissions) Patch() Patch {
	return Patch{
		CanManageMedia:          boolPtr(p.CanManageMedia),
		CanInviteCoAuthors:      boolPtr(p.CanInviteCoAuthors),
		CanManagePendingInvites: boolPtr(p.CanManagePendingInvites),
		CanRemoveCoAuthors:      boolPtr(p.CanRemoveCoAuthors),
	}
}

func (p Permissions) Has(flag Flag) bool {
	switch flag {
	case FlagManageMedia:
		return p.CanManageMedia
	case FlagInviteCoAuthors:
		return p.CanInviteCoAuthors
	case FlagManagePendingInvite:
		return p.CanManagePendingInvites
	case FlagRemoveCoAuthors:
		return p.CanRemoveCoAuthors
	default:
		return false
	}
}

func orDefault(v *bool, fallback bool) bool {
	if v == nil {
		return fallback
	}
	return *v
}

func boolPtr(v bool) *bool {
	return &v
}

// Membership is the slice of a book record the resolver needs.
type Membership struct {
	OwnerID     string
	Members     map[string]Role
	Permissions map[string]Patch
}

// Access is a caller's resolved standing on one book.
type Access struct {
	OwnerID     string
	IsOwner     bool
	IsCoAuthor  bool
	Permissions Permissions
}

// Resolve computes callerID's role and effective permissions.
func Resolve(m Membership, callerID string) Access {
	a := Access{OwnerID: m.OwnerID}
	if callerID == "" {
		return a
	}
	if callerID == m.OwnerID {
		a.IsOwner = true
		a.Permissions = Full()
		return a
	}
	if m.Members[callerID] == RoleCoAuthor {
		a.IsCoAuthor = true
		a.Permissions = Sanitize(m.Permissions[callerID])
	}
	return a
}

// RequireMember fails unless the caller is the owner or a co-author.
func (a Access) RequireMember() error {
	if a.IsOwner || a.IsCoAuthor {
		return nil
	}
	return apperrors.New(apperrors.CodeNotBookMember, "you are not a member of this book")
}

// RequireFlag fails unless the caller is the owner or a co-author holding flag.
func (a Access) RequireFlag(flag Flag) error {
	if err := a.RequireMember(); err != nil {
		return err
	}
	if a.IsOwner || a.Permissions.Has(flag) {
		return nil
	}
	return apperrors.WithMetadata(apperrors.CodeMissingPermission,
		"you do not have permission to perform this action",
		map[string]string{"permission": string(flag)})
}

func (a Access) RequireOwner() error {
	if a.IsOwner {
		return nil
	}
	return apperrors.New(apperrors.CodeOwnerOnly, "only the book owner can perform this action")
}
