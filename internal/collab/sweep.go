package collab

import (
	"context"
	"errors"
	"time"

	"github.com/storyloom/collab/internal/store"
)

// expireLocked closes an overdue pending invitation and drops its
// notification with the matching counter debit.
func expireLocked(tx *store.Tx, inv *store.InviteRecord, now time.Time) error {
	inv.Status = store.StatusExpired
	inv.UpdatedAt = now
	if err := tx.PutInvite(inv); err != nil {
		return err
	}
	return clearNotification(tx, inv.InviteeUID, inv.ID)
}

// expireOne re-reads the invitation so a concurrent or repeated sweep is a no-op.
func (s *Service) expireOne(ctx context.Context, id string) (bool, error) {
	expired := false
	err := s.store.Update(ctx, func(tx *store.Tx) error {
		inv, err := tx.GetInvite(id)
		if err != nil || inv == nil {
			return err
		}
		now := s.now()
		if !inv.Expired(now) {
			return nil
		}
		expired = true
		return expireLocked(tx, inv, now)
	})
	return expired, err
}

// sweep expires every overdue invitation selected by list, one transaction
// per invitation.
func (s *Service) sweep(ctx context.Context, list func(tx *store.Tx) ([]store.InviteRecord, error)) (int, error) {
	var ids []string
	err := s.store.View(ctx, func(tx *store.Tx) error {
		invites, err := list(tx)
		if err != nil {
			return err
		}
		now := s.now()
		for i := range invites {
			if invites[i].Expired(now) {
				ids = append(ids, invites[i].ID)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	var errs []error
	count := 0
	for _, id := range ids {
		expired, err := s.expireOne(ctx, id)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if expired {
			count++
		}
	}
	return count, errors.Join(errs...)
}

func (s *Service) sweepBook(ctx context.Context, bookID string) {
	n, err := s.sweep(ctx, func(tx *store.Tx) ([]store.InviteRecord, error) {
		return tx.ListInvitesByBook(bookID)
	})
	if err != nil {
		s.log.WithError(err).WithField("book_id", bookID).Warn("lazy expiry sweep failed")
		return
	}
	if n > 0 {
		s.log.WithField("book_id", bookID).WithField("expired", n).Debug("expired stale invitations")
	}
}

func (s *Service) sweepRecipient(ctx context.Context, uid string) {
	n, err := s.sweep(ctx, func(tx *store.Tx) ([]store.InviteRecord, error) {
		return tx.ListInvitesByInvitee(uid)
	})
	if err != nil {
		s.log.WithError(err).WithField("uid", uid).Warn("lazy expiry sweep failed")
		return
	}
	if n > 0 {
		s.log.WithField("uid", uid).WithField("expired", n).Debug("expired stale invitations")
	}
}

// SweepExpired expires every overdue invitation in the store and reports how
// many changed state.
func (s *Service) SweepExpired(ctx context.Context) (int, error) {
	n, err := s.sweep(ctx, func(tx *store.Tx) ([]store.InviteRecord, error) {
		return tx.ListPendingInvites()
	})
	if err != nil {
		return n, storageErr("sweeping expired invitations", err)
	}
	return n, nil
}
