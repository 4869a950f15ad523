package rest

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/filmorate/model"
	"github.com/kasuganosora/filmorate/service"
	"go.uber.org/zap"
)

// FilmHandler serves /films.
type FilmHandler struct {
	svc    *service.FilmService
	logger *zap.Logger
}

// NewFilmHandler creates a FilmHandler.
func NewFilmHandler(svc *service.FilmService, logger *zap.Logger) *FilmHandler {
	return &FilmHandler{svc: svc, logger: logger}
}

// Register mounts the film routes on r.
func (h *FilmHandler) Register(r gin.IRouter) {
	g := r.Group("/films")
	g.POST("", h.Create)
	g.PUT("", h.Update)
	g.GET("", h.List)
	g.GET("/popular", h.Popular)
	g.GET("/:id", h.Get)
	g.PUT("/:id/like/:userId", h.AddLike)
	g.DELETE("/:id/like/:userId", h.RemoveLike)
}

// Create handles POST /films.
func (h *FilmHandler) Create(c *gin.Context) {
	var f model.Film
	if !bindJSON(c, &f) {
		return
	}
	out, err := h.svc.Create(c.Request.Context(), &f)
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, out)
}

// Update handles PUT /films.
func (h *FilmHandler) Update(c *gin.Context) {
	var f model.Film
	if !bindJSON(c, &f) {
		return
	}
	out, err := h.svc.Update(c.Request.Context(), &f)
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// List handles GET /films.
func (h *FilmHandler) List(c *gin.Context) {
	films, err := h.svc.List(c.Request.Context())
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, films)
}

// Get handles GET /films/:id.
func (h *FilmHandler) Get(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	f, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, f)
}

// AddLike handles PUT /films/:id/like/:userId.
func (h *FilmHandler) AddLike(c *gin.Context) {
	filmID, ok := idParam(c, "id")
	if !ok {
		return
	}
	userID, ok := idParam(c, "userId")
	if !ok {
		return
	}
	if err := h.svc.AddLike(c.Request.Context(), filmID, userID); err != nil {
		fail(c, h.logger, err)
		return
	}
	c.Status(http.StatusOK)
}

// RemoveLike handles DELETE /films/:id/like/:userId.
func (h *FilmHandler) RemoveLike(c *gin.Context) {
	filmID, ok := idParam(c, "id")
	if !ok {
		return
	}
	userID, ok := idParam(c, "userId")
	if !ok {
		return
	}
	if err := h.svc.RemoveLike(c.Request.Context(), filmID, userID); err != nil {
		fail(c, h.logger, err)
		return
	}
	c.Status(http.StatusOK)
}

// Popular handles GET /films/popular?count=N.
func (h *FilmHandler) Popular(c *gin.Context) {
	count := h.svc.PopularDefault()
	if raw, present := c.GetQuery("count"); present {
		n, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "count must be an integer"})
			return
		}
		count = n
	}
	films, err := h.svc.Popular(c.Request.Context(), count)
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, films)
}
