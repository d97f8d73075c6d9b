package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"referral_wallet/internal/auth"
)

type AuthHandler struct {
	svc    AuthService
	logger zerolog.Logger
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req auth.RegisterInput
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, h.logger, ErrBadRequest.Wrap(err))
		return
	}

	res, err := h.svc.Register(c.Request.Context(), req, c.ClientIP(), c.GetHeader("Origin"))
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusCreated, res)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req auth.LoginInput
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, h.logger, ErrBadRequest.Wrap(err))
		return
	}

	res, err := h.svc.Login(c.Request.Context(), req)
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, res)
}
