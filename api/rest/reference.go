package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/filmorate/service"
	"go.uber.org/zap"
)

// ReferenceHandler serves the read-only /genres and /mpa tables.
type ReferenceHandler struct {
	svc    *service.ReferenceService
	logger *zap.Logger
}

func NewReferenceHandler(svc *service.ReferenceService, logger *zap.Logger) *ReferenceHandler {
	return &ReferenceHandler{svc: svc, logger: logger}
}

// Register mounts /genres and /mpa on r.
func (h *ReferenceHandler) Register(r gin.IRouter) {
	r.GET("/genres", h.Genres)
	r.GET("/genres/:id", h.Genre)
	r.GET("/mpa", h.MpaList)
	r.GET("/mpa/:id", h.Mpa)
}

func (h *ReferenceHandler) Genres(c *gin.Context) {
	out, err := h.svc.Genres(c.Request.Context())
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *ReferenceHandler) Genre(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	out, err := h.svc.Genre(c.Request.Context(), id)
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *ReferenceHandler) MpaList(c *gin.Context) {
	out, err := h.svc.MpaList(c.Request.Context())
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *ReferenceHandler) Mpa(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	out, err := h.svc.Mpa(c.Request.Context(), id)
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, out)
}
