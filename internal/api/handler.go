//go:generate go run github.com/oapi-codegen/oapi-codegen/v2/cmd/oapi-codegen@v2.4.1 -config cfg.yaml openapi.yaml

package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/storyloom/collab/internal/apperrors"
	"github.com/storyloom/collab/internal/auth"
	"github.com/storyloom/collab/internal/collab"
	"github.com/storyloom/collab/internal/permissions"
	"github.com/storyloom/collab/internal/store"
)

// Handler implements ServerInterface on top of the collaboration service.
type Handler struct {
	svc *collab.Service
}

func NewHandler(svc *collab.Service) *Handler {
	return &Handler{svc: svc}
}

var _ ServerInterface = (*Handler)(nil)

// Secured adapts mw so it only runs on operations that declare bearerAuth.
func Secured(mw gin.HandlerFunc) MiddlewareFunc {
	return func(c *gin.Context) {
		if _, ok := c.Get(BearerAuthScopes); !ok {
			return
		}
		mw(c)
	}
}

func (h *Handler) GetHealth(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

func (h *Handler) Invite(c *gin.Context) {
	var body InviteRequest
	if !bindBody(c, &body) {
		return
	}

	res, err := h.svc.Invite(c.Request.Context(), callerOf(c), collab.InviteRequest{
		BookID:             body.BookId,
		InviteeUID:         body.Uid,
		CanManageMedia:     body.CanManageMedia,
		CanInviteCoAuthors: body.CanInviteCoAuthors,
	})
	if err != nil {
		apperrors.Abort(c, err)
		return
	}

	c.JSON(http.StatusOK, InviteResponse{
		InviteId:  res.InviteID,
		Status:    InviteResponseStatus(res.Status),
		ExpiresAt: res.ExpiresAt,
	})
}

func (h *Handler) Respond(c *gin.Context) {
	var body RespondRequest
	if !bindBody(c, &body) {
		return
	}

	res, err := h.svc.Respond(c.Request.Context(), callerOf(c), collab.RespondRequest{
		InviteID: body.InviteId,
		Action:   string(body.Action),
	})
	if err != nil {
		apperrors.Abort(c, err)
		return
	}

	c.JSON(http.StatusOK, StatusResponse{Status: string(res.Status)})
}

func (h *Handler) Manage(c *gin.Context) {
	var body ManageRequest
	if !bindBody(c, &body) {
		return
	}

	res, err := h.svc.Manage(c.Request.Context(), callerOf(c), collab.ManageRequest{
		InviteID: body.InviteId,
		Action:   string(body.Action),
	})
	if err != nil {
		apperrors.Abort(c, err)
		return
	}

	c.JSON(http.StatusOK, ManageResponse{Status: ManageResponseStatus(res.Status), ExpiresAt: res.ExpiresAt})
}

func (h *Handler) RemoveCoAuthor(c *gin.Context) {
	var body RemoveCoAuthorRequest
	if !bindBody(c, &body) {
		return
	}

	err := h.svc.RemoveCoAuthor(c.Request.Context(), callerOf(c), collab.RemoveCoAuthorRequest{
		BookID:      body.BookId,
		CoAuthorUID: body.CoAuthorUid,
	})
	if err != nil {
		apperrors.Abort(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Success: true})
}

func (h *Handler) SetCoAuthorPermissions(c *gin.Context) {
	var body SetCoAuthorPermissionsRequest
	if !bindBody(c, &body) {
		return
	}

	perms, err := h.svc.SetCoAuthorPermissions(c.Request.Context(), callerOf(c), collab.SetPermissionsRequest{
		BookID:      body.BookId,
		TargetUID:   body.TargetUid,
		Permissions: toPatch(body.Permissions),
	})
	if err != nil {
		apperrors.Abort(c, err)
		return
	}

	c.JSON(http.StatusOK, PermissionsResponse{Permissions: fromPermissions(perms)})
}

func (h *Handler) ListNotifications(c *gin.Context) {
	var body ListNotificationsRequest
	if !bindBody(c, &body) {
		return
	}

	res, err := h.svc.ListNotifications(c.Request.Context(), callerOf(c), collab.ListNotificationsRequest{
		PageSize: deref(body.PageSize),
		CursorID: deref(body.CursorId),
		Type:     deref(body.Type),
		BookID:   deref(body.BookId),
	})
	if err != nil {
		apperrors.Abort(c, err)
		return
	}

	out := ListNotificationsResponse{
		Notifications: make([]Notification, 0, len(res.Notifications)),
		NextCursor:    cursor(res.NextCursor),
		PendingCount:  res.PendingCount,
	}
	for _, n := range res.Notifications {
		out.Notifications = append(out.Notifications, recordToNotification(n))
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) ListPendingInvites(c *gin.Context) {
	var body ListPendingInvitesRequest
	if !bindBody(c, &body) {
		return
	}

	res, err := h.svc.ListPendingInvites(c.Request.Context(), callerOf(c), collab.ListPendingInvitesRequest{
		BookID:   body.BookId,
		PageSize: deref(body.PageSize),
		CursorID: deref(body.CursorId),
	})
	if err != nil {
		apperrors.Abort(c, err)
		return
	}

	out := ListPendingInvitesResponse{
		Invites:    make([]PendingInvite, 0, len(res.Invites)),
		NextCursor: cursor(res.NextCursor),
	}
	for _, r := range res.Invites {
		out.Invites = append(out.Invites, recordToPendingInvite(r))
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) SyncAuthFlags(c *gin.Context) {
	caller := callerOf(c)
	verified, err := h.svc.SyncAuthFlags(c.Request.Context(), caller)
	if err != nil {
		apperrors.Abort(c, err)
		return
	}

	log.WithField("uid", caller.UID).WithField("email_verified", verified).Debug("auth flags synced")
	c.JSON(http.StatusOK, SyncAuthFlagsResponse{EmailVerified: verified})
}

func callerOf(c *gin.Context) collab.Caller {
	caller, _ := auth.CallerFromContext(c)
	return caller
}

// bindBody decodes an optional JSON body. An empty body leaves v zeroed.
func bindBody(c *gin.Context, v any) bool {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return true
	}
	if err := c.ShouldBindJSON(v); err != nil && !errors.Is(err, io.EOF) {
		apperrors.Abort(c, apperrors.Wrap(apperrors.CodeInvalidRequest, "invalid request body", err))
		return false
	}
	return true
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

func cursor(id string) *string {
	if id == "" {
		return nil
	}
	return &id
}

func toPatch(p PermissionPatch) permissions.Patch {
	return permissions.Patch{
		CanManageMedia:          p.CanManageMedia,
		CanInviteCoAuthors:      p.CanInviteCoAuthors,
		CanManagePendingInvites: p.CanManagePendingInvites,
		CanRemoveCoAuthors:      p.CanRemoveCoAuthors,
	}
}

func fromPermissions(p permissions.Permissions) Permissions {
	return Permissions{
		CanManageMedia:          p.CanManageMedia,
		CanInviteCoAuthors:      p.CanInviteCoAuthors,
		CanManagePendingInvites: p.CanManagePendingInvites,
		CanRemoveCoAuthors:      p.CanRemoveCoAuthors,
	}
}

func recordToNotification(r store.NotificationRecord) Notification {
	return Notification{
		Id:        r.ID,
		Type:      r.Type,
		InviteId:  r.InviteID,
		BookId:    r.BookID,
		BookTitle: r.BookTitle,
		FromUid:   r.FromUID,
		FromName:  r.FromName,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
		ExpiresAt: r.ExpiresAt,
	}
}

func recordToPendingInvite(r store.InviteRecord) PendingInvite {
	return PendingInvite{
		InviteId:           r.ID,
		BookId:             r.BookID,
		InviteeUid:         r.InviteeUID,
		InviteeEmail:       r.InviteeEmail,
		InvitedBy:          r.InvitedBy,
		GrantedPermissions: Grants{
			CanManageMedia:     r.GrantedPermissions.CanManageMedia,
			CanInviteCoAuthors: r.GrantedPermissions.CanInviteCoAuthors,
		},
		CreatedAt:          r.CreatedAt,
		ExpiresAt:          r.ExpiresAt,
		ResentAt:           r.ResentAt,
	}
}
