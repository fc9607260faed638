package collab

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"time"

	"github.com/storyloom/collab/internal/apperrors"
	"github.com/storyloom/collab/internal/permissions"
	"github.com/storyloom/collab/internal/store"
)

type ListNotificationsRequest struct {
	PageSize int
	CursorID string
	Type     string
	BookID   string
}

type ListNotificationsResult struct {
	Notifications []store.NotificationRecord
	NextCursor    string
	PendingCount  int
}

// ListNotifications returns the caller's inbox newest first, after expiring
// anything overdue addressed to them.
func (s *Service) ListNotifications(ctx context.Context, caller Caller, req ListNotificationsRequest) (*ListNotificationsResult, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	s.sweepRecipient(ctx, caller.UID)

	var (
		items  []store.NotificationRecord
		stored int
		after  = pageCursor{ID: req.CursorID}
	)
	err := s.store.View(ctx, func(tx *store.Tx) error {
		all, err := tx.ListNotifications(caller.UID)
		if err != nil {
			return err
		}
		for _, n := range all {
			if n.ID == after.ID {
				after.CreatedAt = n.CreatedAt
			}
			if req.Type != "" && n.Type != req.Type {
				continue
			}
			if req.BookID != "" && n.BookID != req.BookID {
				continue
			}
			items = append(items, n)
		}
		if after.ID != "" && after.CreatedAt.IsZero() {
			if after, err = invitePosition(tx, after.ID, func(inv *store.InviteRecord) bool {
				return inv.InviteeUID == caller.UID
			}); err != nil {
				return err
			}
		}
		p, err := tx.GetProfile(caller.UID)
		if err != nil {
			return err
		}
		if p != nil {
			stored = p.UnreadCount
		}
		return nil
	})
	if err != nil {
		return nil, storageErr("listing notifications", err)
	}

	position := func(n store.NotificationRecord) pageCursor { return pageCursor{ID: n.ID, CreatedAt: n.CreatedAt} }
	slices.SortFunc(items, func(a, b store.NotificationRecord) int { return newestFirst(position(a), position(b)) })
	page, next := paginate(items, position, after, s.pageSize(req.PageSize))

	if stored < 0 {
		s.healCounter(ctx, caller.UID, stored)
		stored = 0
	}
	return &ListNotificationsResult{
		Notifications: page,
		NextCursor:    next,
		PendingCount:  stored,
	}, nil
}

// healCounter resets a negative unread counter. The caller still gets zero
// when the write fails.
func (s *Service) healCounter(ctx context.Context, uid string, observed int) {
	err := s.store.Update(ctx, func(tx *store.Tx) error {
		p, err := tx.Profile(uid)
		if err != nil {
			return err
		}
		if p.UnreadCount >= 0 {
			return nil
		}
		p.UnreadCount = 0
		return tx.PutProfile(p)
	})
	logger := s.log.WithField("uid", uid).WithField("observed", observed)
	if err != nil {
		logger.WithError(err).Error("resetting negative unread counter failed")
		return
	}
	s.negativeCounter.Add(ctx, 1)
	logger.Warn("unread counter was negative, reset to zero")
}

type ListPendingInvitesRequest struct {
	BookID   string
	PageSize int
	CursorID string
}

type ListPendingInvitesResult struct {
	Invites    []store.InviteRecord
	NextCursor string
}

// ListPendingInvites returns a book's live invitations newest first.
func (s *Service) ListPendingInvites(ctx context.Context, caller Caller, req ListPendingInvitesRequest) (*ListPendingInvitesResult, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	bookID := strings.TrimSpace(req.BookID)
	if bookID == "" {
		return nil, apperrors.New(apperrors.CodeInvalidRequest, "bookId is required")
	}
	book, err := s.loadBook(ctx, bookID)
	if err != nil {
		return nil, err
	}
	if err := permissions.Resolve(book.Membership(), caller.UID).RequireMember(); err != nil {
		return nil, err
	}

	s.sweepBook(ctx, bookID)

	now := s.now()
	var pending []store.InviteRecord
	after := pageCursor{ID: req.CursorID}
	err = s.store.View(ctx, func(tx *store.Tx) error {
		all, err := tx.ListInvitesByBook(bookID)
		if err != nil {
			return err
		}
		for i := range all {
			if live(&all[i], now) {
				pending = append(pending, all[i])
			}
		}
		if after.ID != "" {
			after, err = invitePosition(tx, after.ID, func(inv *store.InviteRecord) bool {
				return inv.BookID == bookID
			})
		}
		return err
	})
	if err != nil {
		return nil, storageErr("listing pending invitations", err)
	}

	position := func(r store.InviteRecord) pageCursor { return pageCursor{ID: r.ID, CreatedAt: r.CreatedAt} }
	slices.SortFunc(pending, func(a, b store.InviteRecord) int { return newestFirst(position(a), position(b)) })
	page, next := paginate(pending, position, after, s.pageSize(req.PageSize))
	return &ListPendingInvitesResult{Invites: page, NextCursor: next}, nil
}

// SyncAuthFlags reports whether the caller's email is verified and mirrors
// the answer onto their profile in the background.
func (s *Service) SyncAuthFlags(ctx context.Context, caller Caller) (bool, error) {
	if err := requireCaller(caller); err != nil {
		return false, err
	}
	ident, err := s.dir.LookupIdentity(ctx, caller.UID)
	if err != nil {
		return false, apperrors.Wrap(apperrors.CodeIdentityLookupFailed, "looking up caller identity", err)
	}
	if ident == nil {
		ident = &store.IdentityRecord{UID: caller.UID, Email: caller.Email, DisplayName: caller.Name}
	}
	verified := caller.EmailVerified || ident.EmailVerified
	s.mirrorProfile(caller.UID, ident, verified)
	return verified, nil
}

func (s *Service) pageSize(requested int) int {
	if requested <= 0 {
		return s.policy.NotificationPageSize
	}
	return min(requested, s.policy.NotificationMaxPageSize)
}

// pageCursor is a position in a newest-first listing. A zero CreatedAt means
// the position is unknown.
type pageCursor struct {
	ID        string
	CreatedAt time.Time
}

func newestFirst(a, b pageCursor) int {
	if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
		return c
	}
	return cmp.Compare(b.ID, a.ID)
}

// invitePosition recovers where a cursor sorted from its invitation, which
// outlives the notification or pending state it was listed for. Invitations
// that fail belongs leave the position unknown.
func invitePosition(tx *store.Tx, id string, belongs func(*store.InviteRecord) bool) (pageCursor, error) {
	inv, err := tx.GetInvite(id)
	if err != nil {
		return pageCursor{}, err
	}
	if inv == nil || !belongs(inv) {
		return pageCursor{ID: id}, nil
	}
	return pageCursor{ID: id, CreatedAt: inv.CreatedAt}, nil
}

// paginate returns the page after cursor. A cursor no longer in items resumes
// after its recorded position; one with no known position restarts from the
// first item.
func paginate[T any](items []T, position func(T) pageCursor, cursor pageCursor, size int) ([]T, string) {
	start := 0
	if cursor.ID != "" {
		if i := slices.IndexFunc(items, func(it T) bool { return position(it).ID == cursor.ID }); i >= 0 {
			start = i + 1
		} else if !cursor.CreatedAt.IsZero() {
			start = len(items)
			if i := slices.IndexFunc(items, func(it T) bool { return newestFirst(cursor, position(it)) < 0 }); i >= 0 {
				start = i
			}
		}
	}
	end := min(start+size, len(items))
	page := items[start:end]

	next := ""
	if end < len(items) && len(page) > 0 {
		next = position(page[len(page)-1]).ID
	}
	return page, next
}
