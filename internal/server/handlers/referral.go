package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type ReferralHandler struct {
	svc     ReferralService
	baseURL string
	logger  zerolog.Logger
}

func (h *ReferralHandler) Link(c *gin.Context) {
	link, err := h.svc.GenerateReferralLink(c.Request.Context(), playerID(c), h.requestBaseURL(c))
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"referralLink": link})
}

func (h *ReferralHandler) Players(c *gin.Context) {
	referred, err := h.svc.GetReferredPlayers(c.Request.Context(), playerID(c))
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, gin.H{
		"referredPlayers": referred,
		"count":           len(referred),
	})
}

func (h *ReferralHandler) Stats(c *gin.Context) {
	stats, err := h.svc.GetReferralStats(c.Request.Context(), playerID(c))
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"stats": stats})
}

func (h *ReferralHandler) requestBaseURL(c *gin.Context) string {
	if h.baseURL != "" {
		return h.baseURL
	}
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if proto := c.GetHeader("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	return scheme + "://" + c.Request.Host
}
