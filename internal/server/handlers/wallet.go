package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type amountRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

type WalletHandler struct {
	svc    WalletService
	logger zerolog.Logger
}

func (h *WalletHandler) Get(c *gin.Context) {
	w, err := h.svc.GetWallet(c.Request.Context(), playerID(c))
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"wallet": w})
}

// Deposit reports a failed referral bonus as bonusWarning; the deposit
// itself has been committed at that point.
func (h *WalletHandler) Deposit(c *gin.Context) {
	var req amountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, h.logger, ErrBadRequest.Wrap(err))
		return
	}

	res, err := h.svc.Deposit(c.Request.Context(), playerID(c), req.Amount)
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}

	data := gin.H{
		"wallet":  res.Wallet,
		"message": "Successfully deposited " + req.Amount.String() + " units",
	}
	if res.BonusErr != nil {
		h.logger.Warn().Err(res.BonusErr).Str("transaction_id", res.TransactionID).Msg("deposit committed without referral bonus")
		data["bonusWarning"] = "Referral bonus could not be credited yet and will be retried"
	}
	respond(c, http.StatusOK, data)
}

func (h *WalletHandler) Withdraw(c *gin.Context) {
	var req amountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, h.logger, ErrBadRequest.Wrap(err))
		return
	}

	w, err := h.svc.Withdraw(c.Request.Context(), playerID(c), req.Amount)
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, gin.H{
		"wallet":  w,
		"message": "Successfully withdrawn " + req.Amount.String() + " units",
	})
}

func (h *WalletHandler) Transactions(c *gin.Context) {
	txs, err := h.svc.GetHistory(c.Request.Context(), playerID(c))
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"transactions": txs})
}
