package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/filmorate/model"
	"github.com/kasuganosora/filmorate/service"
	"go.uber.org/zap"
)

// UserHandler serves /users and the friendship routes.
type UserHandler struct {
	svc    *service.UserService
	logger *zap.Logger
}

// NewUserHandler creates a UserHandler.
func NewUserHandler(svc *service.UserService, logger *zap.Logger) *UserHandler {
	return &UserHandler{svc: svc, logger: logger}
}

// Register mounts the user routes on r.
func (h *UserHandler) Register(r gin.IRouter) {
	g := r.Group("/users")
	g.POST("", h.Create)
	g.PUT("", h.Update)
	g.GET("", h.List)
	g.GET("/:id", h.Get)
	g.GET("/:id/friends", h.Friends)
	g.GET("/:id/friends/common/:otherId", h.CommonFriends)
	g.PUT("/:id/friends/:friendId", h.AddFriend)
	g.DELETE("/:id/friends/:friendId", h.DeleteFriend)
}

// Create handles POST /users.
func (h *UserHandler) Create(c *gin.Context) {
	var u model.User
	if !bindJSON(c, &u) {
		return
	}
	out, err := h.svc.Create(c.Request.Context(), &u)
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, out)
}

// Update handles PUT /users.
func (h *UserHandler) Update(c *gin.Context) {
	var u model.User
	if !bindJSON(c, &u) {
		return
	}
	out, err := h.svc.Update(c.Request.Context(), &u)
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// List handles GET /users.
func (h *UserHandler) List(c *gin.Context) {
	users, err := h.svc.List(c.Request.Context())
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

// Get handles GET /users/:id.
func (h *UserHandler) Get(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	u, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

// AddFriend handles PUT /users/:id/friends/:friendId.
func (h *UserHandler) AddFriend(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	friendID, ok := idParam(c, "friendId")
	if !ok {
		return
	}
	if err := h.svc.AddFriend(c.Request.Context(), id, friendID); err != nil {
		fail(c, h.logger, err)
		return
	}
	c.Status(http.StatusOK)
}

// DeleteFriend handles DELETE /users/:id/friends/:friendId.
func (h *UserHandler) DeleteFriend(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	friendID, ok := idParam(c, "friendId")
	if !ok {
		return
	}
	if err := h.svc.DeleteFriend(c.Request.Context(), id, friendID); err != nil {
		fail(c, h.logger, err)
		return
	}
	c.Status(http.StatusOK)
}

// Friends handles GET /users/:id/friends.
func (h *UserHandler) Friends(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	users, err := h.svc.Friends(c.Request.Context(), id)
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

// CommonFriends handles GET /users/:id/friends/common/:otherId.
func (h *UserHandler) CommonFriends(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	otherID, ok := idParam(c, "otherId")
	if !ok {
		return
	}
	users, err := h.svc.CommonFriends(c.Request.Context(), id, otherID)
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, users)
}
