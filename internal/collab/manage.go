package collab

import (
	"context"
	"strings"
	"time"

	"github.com/storyloom/collab/internal/apperrors"
	"github.com/storyloom/collab/internal/permissions"
	"github.com/storyloom/collab/internal/store"
)

const (
	ActionResend = "resend"
	ActionCancel = "cancel"
)

type ManageRequest struct {
	InviteID string
	Action   string
}

type ManageResult struct {
	Status store.InviteStatus
	// ExpiresAt is set on resend only.
	ExpiresAt *time.Time
}

// Manage resends or cancels a pending invitation on behalf of the book.
func (s *Service) Manage(ctx context.Context, caller Caller, req ManageRequest) (*ManageResult, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	inviteID := strings.TrimSpace(req.InviteID)
	if inviteID == "" {
		return nil, apperrors.New(apperrors.CodeInvalidRequest, "inviteId is required")
	}
	if req.Action != ActionResend && req.Action != ActionCancel {
		return nil, apperrors.Newf(apperrors.CodeInvalidAction, "action must be %q or %q", ActionResend, ActionCancel)
	}
	if err := s.requireVerified(ctx, caller); err != nil {
		return nil, err
	}

	current, err := s.loadInvite(ctx, inviteID)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, apperrors.Newf(apperrors.CodeInviteNotFound, "invitation %s not found", inviteID)
	}
	book, err := s.loadBook(ctx, current.BookID)
	if err != nil {
		return nil, err
	}
	access := permissions.Resolve(book.Membership(), caller.UID)
	if err := access.RequireFlag(permissions.FlagManagePendingInvite); err != nil {
		return nil, err
	}

	s.sweepBook(ctx, book.ID)

	now := s.now()
	var result *ManageResult
	err = s.store.Update(ctx, func(tx *store.Tx) error {
		inv, err := tx.GetInvite(inviteID)
		if err != nil {
			return err
		}
		if inv == nil {
			return apperrors.Newf(apperrors.CodeInviteNotFound, "invitation %s not found", inviteID)
		}
		if inv.Status != store.StatusPending {
			return apperrors.WithMetadata(apperrors.CodeInviteNotPending,
				"invitation is no longer pending",
				map[string]string{"status": string(inv.Status)})
		}
		if inv.Expired(now) {
			return apperrors.New(apperrors.CodeInviteExpired, "invitation has expired")
		}

		if req.Action == ActionCancel {
			inv.Status = store.StatusCancelled
			inv.UpdatedAt = now
			if err := tx.PutInvite(inv); err != nil {
				return err
			}
			result = &ManageResult{Status: store.StatusCancelled}
			return clearNotification(tx, inv.InviteeUID, inv.ID)
		}

		if err := s.resendLocked(tx, inv, now); err != nil {
			return err
		}
		expiresAt := inv.ExpiresAt
		result = &ManageResult{Status: InviteResent, ExpiresAt: &expiresAt}
		return nil
	})
	if err != nil {
		return nil, storageErr("managing invitation", err)
	}

	s.log.WithField("invite_id", inviteID).WithField("action", req.Action).Info("invitation managed")
	return result, nil
}

type RemoveCoAuthorRequest struct {
	BookID      string
	CoAuthorUID string
}

// RemoveCoAuthor revokes a co-author's membership and every access it granted.
func (s *Service) RemoveCoAuthor(ctx context.Context, caller Caller, req RemoveCoAuthorRequest) error {
	if err := requireCaller(caller); err != nil {
		return err
	}
	bookID := strings.TrimSpace(req.BookID)
	target := strings.TrimSpace(req.CoAuthorUID)
	if bookID == "" || target == "" {
		return apperrors.New(apperrors.CodeInvalidRequest, "bookId and coAuthorUid are required")
	}

	book, err := s.loadBook(ctx, bookID)
	if err != nil {
		return err
	}
	access := permissions.Resolve(book.Membership(), caller.UID)
	if err := access.RequireFlag(permissions.FlagRemoveCoAuthors); err != nil {
		return err
	}
	if target == book.OwnerID {
		return apperrors.New(apperrors.CodeOwnerNotRemovable, "the book owner cannot be removed")
	}

	s.sweepBook(ctx, bookID)

	now := s.now()
	err = s.store.Update(ctx, func(tx *store.Tx) error {
		book, err := txBook(tx, bookID)
		if err != nil {
			return err
		}
		if book.Members[target] != permissions.RoleCoAuthor {
			return apperrors.Newf(apperrors.CodeCoAuthorNotFound, "user %s is not a co-author of this book", target)
		}
		if err := revokeMembership(tx, book, target, now); err != nil {
			return err
		}

		key := store.InviteKey(bookID, target)
		inv, err := tx.GetInvite(key)
		if err != nil {
			return err
		}
		if inv != nil && inv.Status == store.StatusPending {
			inv.Status = store.StatusCancelled
			inv.UpdatedAt = now
			if err := tx.PutInvite(inv); err != nil {
				return err
			}
		}
		return clearNotification(tx, target, key)
	})
	if err != nil {
		return storageErr("removing co-author", err)
	}

	s.log.WithField("book_id", bookID).WithField("uid", target).Info("co-author removed")
	return nil
}

type SetPermissionsRequest struct {
	BookID      string
	TargetUID   string
	Permissions permissions.Patch
}

// SetCoAuthorPermissions replaces a co-author's flags with their sanitized
// form and mirrors a canManageMedia toggle onto album access.
func (s *Service) SetCoAuthorPermissions(ctx context.Context, caller Caller, req SetPermissionsRequest) (permissions.Permissions, error) {
	if err := requireCaller(caller); err != nil {
		return permissions.Permissions{}, err
	}
	bookID := strings.TrimSpace(req.BookID)
	target := strings.TrimSpace(req.TargetUID)
	if bookID == "" || target == "" {
		return permissions.Permissions{}, apperrors.New(apperrors.CodeInvalidRequest, "bookId and targetUid are required")
	}

	book, err := s.loadBook(ctx, bookID)
	if err != nil {
		return permissions.Permissions{}, err
	}
	access := permissions.Resolve(book.Membership(), caller.UID)
	if err := access.RequireOwner(); err != nil {
		return permissions.Permissions{}, err
	}
	if target == book.OwnerID {
		return permissions.Permissions{}, apperrors.New(apperrors.CodeOwnerTarget, "the owner's permissions cannot be changed")
	}

	next := permissions.Sanitize(req.Permissions)
	now := s.now()
	err = s.store.Update(ctx, func(tx *store.Tx) error {
		book, err := txBook(tx, bookID)
		if err != nil {
			return err
		}
		if book.Members[target] != permissions.RoleCoAuthor {
			return apperrors.Newf(apperrors.CodeCoAuthorNotFound, "user %s is not a co-author of this book", target)
		}

		prev := permissions.Sanitize(book.Permissions[target])
		if book.Permissions == nil {
			book.Permissions = map[string]permissions.Patch{}
		}
		book.Permissions[target] = next.Patch()
		book.UpdatedAt = now
		if err := tx.PutBook(book); err != nil {
			return err
		}
		return setMediaAccess(tx, book, target, prev.CanManageMedia, next.CanManageMedia, now)
	})
	if err != nil {
		return permissions.Permissions{}, storageErr("updating co-author permissions", err)
	}

	s.log.WithField("book_id", bookID).WithField("uid", target).Info("co-author permissions updated")
	return next, nil
}
