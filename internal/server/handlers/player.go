package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type PlayerHandler struct {
	svc    PlayerService
	logger zerolog.Logger
}

func (h *PlayerHandler) Profile(c *gin.Context) {
	profile, err := h.svc.GetProfile(c.Request.Context(), playerID(c))
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"profile": profile})
}
