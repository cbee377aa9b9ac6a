package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nimburion/storefront/pkg/access"
	"github.com/nimburion/storefront/pkg/apperror"
	"github.com/nimburion/storefront/pkg/controller"
	"github.com/nimburion/storefront/pkg/model"
	"github.com/nimburion/storefront/pkg/service"
)

type userHandlers struct {
	svc    *service.UserService
	tokens TokenIssuer
	gate   *access.Gate
}

// loginResponse carries the bearer token and the account it was issued for.
type loginResponse struct {
	Token     string      `json:"token"`
	TokenType string      `json:"tokenType"`
	ExpiresAt time.Time   `json:"expiresAt"`
	User      *model.User `json:"user"`
}

func (h *userHandlers) register(c *gin.Context) {
	var in model.Registration
	if !bindJSON(c, &in) {
		return
	}
	user, err := h.svc.Register(c.Request.Context(), in)
	if err != nil {
		controller.Error(c, err)
		return
	}
	controller.Created(c, user)
}

func (h *userHandlers) login(c *gin.Context) {
	var in model.Credentials
	if !bindJSON(c, &in) {
		return
	}
	user, err := h.svc.Login(c.Request.Context(), in.Email, in.Password)
	if err != nil {
		controller.Error(c, err)
		return
	}
	token, err := h.tokens.Issue(user)
	if err != nil {
		controller.Error(c, apperror.InternalServerError("Failed to issue token", err))
		return
	}
	controller.Success(c, loginResponse{
		Token:     token.AccessToken,
		TokenType: token.TokenType,
		ExpiresAt: token.ExpiresAt,
		User:      user,
	})
}

func (h *userHandlers) list(c *gin.Context) {
	opts, ok := bindQuery(c)
	if !ok {
		return
	}
	users, err := h.svc.Get(c.Request.Context(), opts)
	if err != nil {
		controller.Error(c, err)
		return
	}
	controller.Success(c, users)
}

func (h *userHandlers) me(c *gin.Context) {
	s, ok := subject(c)
	if !ok {
		return
	}
	h.respondWithUser(c, s, s.ID)
}

func (h *userHandlers) get(c *gin.Context) {
	s, ok := subject(c)
	if !ok {
		return
	}
	h.respondWithUser(c, s, c.Param("id"))
}

func (h *userHandlers) respondWithUser(c *gin.Context, s access.Subject, id string) {
	if err := h.gate.AuthorizeOwned(s, access.ReadOwn, access.ResourceUsers, id); err != nil {
		controller.Error(c, err)
		return
	}
	user, err := h.svc.GetByID(c.Request.Context(), id)
	if err != nil {
		controller.Error(c, err)
		return
	}
	controller.Success(c, user)
}

func (h *userHandlers) update(c *gin.Context) {
	s, ok := subject(c)
	if !ok {
		return
	}
	var patch model.UserPatch
	if !bindJSON(c, &patch) {
		return
	}
	updated, err := h.svc.UpdateAs(c.Request.Context(), s, h.gate, c.Param("id"), patch.Updates())
	if err != nil {
		controller.Error(c, err)
		return
	}
	controller.Success(c, updated)
}

func (h *userHandlers) delete(c *gin.Context) {
	s, ok := subject(c)
	if !ok {
		return
	}
	id := c.Param("id")
	if err := h.gate.AuthorizeOwned(s, access.DeleteOwn, access.ResourceUsers, id); err != nil {
		controller.Error(c, err)
		return
	}
	removed, err := h.svc.Delete(c.Request.Context(), id)
	if err != nil {
		controller.Error(c, err)
		return
	}
	controller.Success(c, removed)
}
