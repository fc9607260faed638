package collab

import (
	"context"
	"strings"

	"github.com/storyloom/collab/internal/apperrors"
	"github.com/storyloom/collab/internal/store"
)

const (
	ActionAccept  = "accept"
	ActionDecline = "decline"
)

type RespondRequest struct {
	InviteID string
	Action   string
}

type RespondResult struct {
	Status store.InviteStatus
}

// Respond lets the invitee accept or decline. Responding to an invitation
// that already left the pending state reports its current status.
func (s *Service) Respond(ctx context.Context, caller Caller, req RespondRequest) (*RespondResult, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	inviteID := strings.TrimSpace(req.InviteID)
	if inviteID == "" {
		return nil, apperrors.New(apperrors.CodeInvalidRequest, "inviteId is required")
	}
	if req.Action != ActionAccept && req.Action != ActionDecline {
		return nil, apperrors.Newf(apperrors.CodeInvalidAction, "action must be %q or %q", ActionAccept, ActionDecline)
	}
	if req.Action == ActionAccept {
		if err := s.requireVerified(ctx, caller); err != nil {
			return nil, err
		}
	}

	now := s.now()
	var result *RespondResult
	err := s.store.Update(ctx, func(tx *store.Tx) error {
		inv, err := tx.GetInvite(inviteID)
		if err != nil {
			return err
		}
		if inv == nil {
			return apperrors.Newf(apperrors.CodeInviteNotFound, "invitation %s not found", inviteID)
		}
		if inv.InviteeUID != caller.UID {
			return apperrors.New(apperrors.CodeNotInvitee, "only the invitee can respond to this invitation")
		}

		if inv.Status.Terminal() {
			result = &RespondResult{Status: inv.Status}
			return clearNotification(tx, inv.InviteeUID, inv.ID)
		}
		if inv.Expired(now) {
			result = &RespondResult{Status: store.StatusExpired}
			return expireLocked(tx, inv, now)
		}

		if req.Action == ActionAccept {
			book, err := txBook(tx, inv.BookID)
			if err != nil {
				return err
			}
			if _, err := grantMembership(tx, book, inv.InviteeUID, inv.GrantedPermissions, now); err != nil {
				return err
			}
			inv.Status = store.StatusAccepted
		} else {
			inv.Status = store.StatusDeclined
		}
		respondedAt := now
		inv.RespondedAt = &respondedAt
		inv.UpdatedAt = now
		if err := tx.PutInvite(inv); err != nil {
			return err
		}
		result = &RespondResult{Status: inv.Status}
		return clearNotification(tx, inv.InviteeUID, inv.ID)
	})
	if err != nil {
		return nil, storageErr("responding to invitation", err)
	}

	s.log.WithField("invite_id", inviteID).WithField("status", result.Status).Info("invitation answered")
	return result, nil
}
