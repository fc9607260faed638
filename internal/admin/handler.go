package admin

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/storyloom/collab/internal/store"
)

// AdminStore defines the store operations needed by the admin handler.
type AdminStore interface {
	GetAllInvites(ctx context.Context) (map[string]store.InviteRecord, error)
	GetAllBooks(ctx context.Context) (map[string]store.BookRecord, error)
	UpsertCatalog(ctx context.Context, c store.Catalog) error
}

// Sweeper expires overdue invitations.
type Sweeper interface {
	SweepExpired(ctx context.Context) (int, error)
}

type Handler struct {
	store   AdminStore
	sweeper Sweeper
}

func NewHandler(s AdminStore, sw Sweeper) *Handler {
	return &Handler{store: s, sweeper: sw}
}

var _ ServerInterface = (*Handler)(nil)

func (h *Handler) GetAdminInvites(c *gin.Context) {
	invites, err := h.store.GetAllInvites(c.Request.Context())
	if err != nil {
		log.WithError(err).Error("failed to get all invites")
		c.JSON(http.StatusInternalServerError, Error{Message: "internal error"})
		return
	}

	c.JSON(http.StatusOK, invites)
}

func (h *Handler) GetAdminBooks(c *gin.Context) {
	books, err := h.store.GetAllBooks(c.Request.Context())
	if err != nil {
		log.WithError(err).Error("failed to get all books")
		c.JSON(http.StatusInternalServerError, Error{Message: "internal error"})
		return
	}

	c.JSON(http.StatusOK, books)
}

func (h *Handler) PutAdminCatalog(c *gin.Context) {
	var catalog store.Catalog
	if err := c.ShouldBindJSON(&catalog); err != nil {
		c.JSON(http.StatusBadRequest, Error{Message: "invalid request body"})
		return
	}

	if err := h.store.UpsertCatalog(c.Request.Context(), catalog); err != nil {
		log.WithError(err).Error("failed to upsert catalog")
		c.JSON(http.StatusInternalServerError, Error{Message: "internal error"})
		return
	}

	log.WithFields(log.Fields{
		"books":      len(catalog.Books),
		"albums":     len(catalog.Albums),
		"identities": len(catalog.Identities),
	}).Info("catalog upserted")
	c.JSON(http.StatusOK, catalog)
}

func (h *Handler) PostAdminSweep(c *gin.Context) {
	n, err := h.sweeper.SweepExpired(c.Request.Context())
	if err != nil {
		log.WithError(err).WithField("expired", n).Error("sweep failed")
		c.JSON(http.StatusInternalServerError, Error{Message: "internal error"})
		return
	}

	c.JSON(http.StatusOK, SweepResponse{Expired: n})
}
