package admin

import (
	"github.com/gin-gonic/gin"
)

// Error is the admin API error body.
type Error struct {
	Message string `json:"message"`
}

// SweepResponse reports how many invitations a sweep expired.
type SweepResponse struct {
	Expired int `json:"expired"`
}

// ServerInterface lists the operator endpoints.
type ServerInterface interface {
	// (GET /admin/invites)
	GetAdminInvites(c *gin.Context)
	// (GET /admin/books)
	GetAdminBooks(c *gin.Context)
	// (PUT /admin/catalog)
	PutAdminCatalog(c *gin.Context)
	// (POST /admin/sweep)
	PostAdminSweep(c *gin.Context)
}

func RegisterHandlers(router gin.IRouter, si ServerInterface) {
	router.GET("/admin/invites", si.GetAdminInvites)
	router.GET("/admin/books", si.GetAdminBooks)
	router.PUT("/admin/catalog", si.PutAdminCatalog)
	router.POST("/admin/sweep", si.PostAdminSweep)
}
