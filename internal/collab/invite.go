package collab

import (
	"context"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/storyloom/collab/internal/apperrors"
	"github.com/storyloom/collab/internal/permissions"
	"github.com/storyloom/collab/internal/store"
)

const (
	InviteCreated = "created"
	InviteResent  = "resent"
)

type InviteRequest struct {
	BookID             string
	InviteeUID         string
	CanManageMedia     *bool
	CanInviteCoAuthors *bool
}

type InviteResult struct {
	InviteID  string
	Status    string
	ExpiresAt time.Time
}

// Invite starts a new invitation cycle for (book, invitee), or resends the
// pending one when it is still live.
func (s *Service) Invite(ctx context.Context, caller Caller, req InviteRequest) (*InviteResult, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	bookID := strings.TrimSpace(req.BookID)
	uid := strings.TrimSpace(req.InviteeUID)
	if bookID == "" || uid == "" {
		return nil, apperrors.New(apperrors.CodeInvalidRequest, "bookId and uid are required")
	}
	if uid == caller.UID {
		return nil, apperrors.New(apperrors.CodeSelfInvite, "you cannot invite yourself")
	}
	if err := s.requireVerified(ctx, caller); err != nil {
		return nil, err
	}

	book, err := s.loadBook(ctx, bookID)
	if err != nil {
		return nil, err
	}
	access := permissions.Resolve(book.Membership(), caller.UID)
	if err := access.RequireFlag(permissions.FlagInviteCoAuthors); err != nil {
		return nil, err
	}
	if err := requireOutsider(book, uid); err != nil {
		return nil, err
	}

	invitee, err := s.lookupInvitee(ctx, uid)
	if err != nil {
		return nil, err
	}
	inviterName := s.displayName(ctx, caller)

	s.sweepBook(ctx, bookID)
	s.sweepRecipient(ctx, uid)

	now := s.now()
	key := store.InviteKey(bookID, uid)
	current, err := s.loadInvite(ctx, key)
	if err != nil {
		return nil, err
	}
	if !live(current, now) {
		if err := s.checkCapacity(ctx, book, uid, now); err != nil {
			return nil, err
		}
	}

	grants := permissions.Sanitize(permissions.Patch{
		CanManageMedia:     req.CanManageMedia,
		CanInviteCoAuthors: req.CanInviteCoAuthors,
	})

	var result *InviteResult
	err = s.store.Update(ctx, func(tx *store.Tx) error {
		book, err := txBook(tx, bookID)
		if err != nil {
			return err
		}
		if err := requireOutsider(book, uid); err != nil {
			return err
		}

		inv, err := tx.GetInvite(key)
		if err != nil {
			return err
		}
		if live(inv, now) {
			if err := s.resendLocked(tx, inv, now); err != nil {
				return err
			}
			result = &InviteResult{InviteID: inv.ID, Status: InviteResent, ExpiresAt: inv.ExpiresAt}
			return nil
		}
		if inv != nil && inv.Expired(now) {
			if err := expireLocked(tx, inv, now); err != nil {
				return err
			}
		}
		// a notification left behind by an earlier cycle is replaced, not double-counted
		if err := clearNotification(tx, uid, key); err != nil {
			return err
		}

		inv = &store.InviteRecord{
			ID:           key,
			BookID:       book.ID,
			OwnerID:      book.OwnerID,
			InvitedBy:    caller.UID,
			InviteeUID:   uid,
			InviteeEmail: invitee.Email,
			OwnerName:    inviterName,
			BookTitle:    book.Title,
			GrantedPermissions: store.Grants{
				CanManageMedia:     grants.CanManageMedia,
				CanInviteCoAuthors: grants.CanInviteCoAuthors,
			},
			Status:    store.StatusPending,
			CreatedAt: now,
			UpdatedAt: now,
			ExpiresAt: now.Add(s.policy.InviteTTL),
		}
		if err := tx.PutInvite(inv); err != nil {
			return err
		}
		if err := putNotification(tx, inv, now); err != nil {
			return err
		}
		result = &InviteResult{InviteID: inv.ID, Status: InviteCreated, ExpiresAt: inv.ExpiresAt}
		return nil
	})
	if err != nil {
		return nil, storageErr("saving invitation", err)
	}

	s.log.WithField("invite_id", result.InviteID).WithField("status", result.Status).Info("invitation sent")
	return result, nil
}

// live reports whether inv holds an unexpired pending slot at now.
func live(inv *store.InviteRecord, now time.Time) bool {
	return inv != nil && inv.Status == store.StatusPending && !inv.Expired(now)
}

func requireOutsider(book *store.BookRecord, uid string) error {
	if uid == book.OwnerID {
		return apperrors.New(apperrors.CodeAlreadyMember, "the book owner is already a member")
	}
	if _, ok := book.Members[uid]; ok {
		return apperrors.Newf(apperrors.CodeAlreadyMember, "user %s is already a member of this book", uid)
	}
	return nil
}

// checkCapacity admits a fresh invitation cycle. It reads outside the
// mutating transaction, so concurrent invites near a cap may overshoot it.
func (s *Service) checkCapacity(ctx context.Context, book *store.BookRecord, uid string, now time.Time) error {
	var recipientPending, bookPending int
	err := s.store.View(ctx, func(tx *store.Tx) error {
		byInvitee, err := tx.ListInvitesByInvitee(uid)
		if err != nil {
			return err
		}
		for i := range byInvitee {
			if live(&byInvitee[i], now) {
				recipientPending++
			}
		}

		byBook, err := tx.ListInvitesByBook(book.ID)
		if err != nil {
			return err
		}
		for i := range byBook {
			if live(&byBook[i], now) {
				bookPending++
			}
		}
		return nil
	})
	if err != nil {
		return storageErr("counting pending invitations", err)
	}

	if recipientPending >= s.policy.MaxPendingPerRecipient {
		return apperrors.WithMetadata(apperrors.CodeRecipientPendingLimit,
			"this user has too many pending invitations",
			map[string]string{"limit": strconv.Itoa(s.policy.MaxPendingPerRecipient)})
	}
	if activeCoAuthors(book)+bookPending >= s.policy.MaxCoAuthorsPerBook {
		return apperrors.WithMetadata(apperrors.CodeCoAuthorSlotsExhausted,
			"all co-author slots for this book are taken",
			map[string]string{"limit": strconv.Itoa(s.policy.MaxCoAuthorsPerBook)})
	}
	if bookPending >= s.policy.MaxPendingPerBook {
		return apperrors.WithMetadata(apperrors.CodeBookPendingLimit,
			"this book has too many pending invitations",
			map[string]string{"limit": strconv.Itoa(s.policy.MaxPendingPerBook)})
	}
	return nil
}

func activeCoAuthors(book *store.BookRecord) int {
	n := 0
	for uid, role := range book.Members {
		if role == permissions.RoleCoAuthor && uid != book.OwnerID {
			n++
		}
	}
	return n
}

// resendLocked refreshes a live invitation once the cooldown has elapsed.
// The granted permissions and inviter of the cycle are kept.
func (s *Service) resendLocked(tx *store.Tx, inv *store.InviteRecord, now time.Time) error {
	if err := s.checkCooldown(inv, now); err != nil {
		return err
	}
	resentAt := now
	inv.ResentAt = &resentAt
	inv.UpdatedAt = now
	inv.ExpiresAt = now.Add(s.policy.InviteTTL)
	if err := tx.PutInvite(inv); err != nil {
		return err
	}
	return putNotification(tx, inv, now)
}

func (s *Service) checkCooldown(inv *store.InviteRecord, now time.Time) error {
	last := inv.CreatedAt
	if inv.UpdatedAt.After(last) {
		last = inv.UpdatedAt
	}
	if inv.ResentAt != nil && inv.ResentAt.After(last) {
		last = *inv.ResentAt
	}

	wait := s.policy.ResendCooldown - now.Sub(last)
	if wait <= 0 {
		return nil
	}
	minutes := int(math.Ceil(wait.Minutes()))
	return apperrors.WithMetadata(apperrors.CodeInviteResendCooldown,
		"please wait "+strconv.Itoa(minutes)+" minute(s) before resending this invitation",
		map[string]string{"retryAfterMinutes": strconv.Itoa(minutes)})
}
