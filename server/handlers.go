package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/velora-social/boostd/boost"
	"github.com/velora-social/boostd/common"
	"github.com/velora-social/boostd/model"
	"github.com/velora-social/boostd/payments"
	"github.com/velora-social/boostd/supermind"
)

type handlers struct {
	boosts     BoostService
	superminds SupermindService
	rates      RatesService
	admins     AdminChecker
}

func writeError(c *gin.Context, err error) {
	var vErr *common.ValidationError
	switch {
	case errors.As(err, &vErr):
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": vErr.Error()})
	case errors.Is(err, common.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"status": "error", "message": "Forbidden"})
	case errors.Is(err, common.ErrBoostNotFound),
		errors.Is(err, common.ErrSupermindNotFound),
		errors.Is(err, common.ErrEntityNotFound):
		c.JSON(http.StatusNotFound, gin.H{"status": "error", "message": "Not found"})
	case errors.Is(err, common.ErrIncorrectBoostStatus):
		c.JSON(http.StatusConflict, gin.H{"status": "error", "message": err.Error()})
	case errors.Is(err, common.ErrInsufficientFunds):
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "Insufficient funds"})
	case errors.Is(err, common.ErrPaymentIntentFailed),
		errors.Is(err, common.ErrPaymentFailed):
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "Payment failed"})
	case errors.Is(err, common.ErrLockFailed):
		c.JSON(http.StatusConflict, gin.H{"status": "error", "message": "Operation already in progress"})
	case errors.Is(err, common.ErrMethodNotSupported):
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "Payment method not supported"})
	default:
		log.Errorw("request failed", "path", c.FullPath(), "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "Internal error"})
	}
}

func callerGuid(c *gin.Context) (uint64, bool) {
	guid, err := strconv.ParseUint(c.GetHeader("X-User-Guid"), 10, 64)
	if err != nil || guid == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"status": "error", "message": "Unauthorized"})
		return 0, false
	}
	return guid, true
}

func pathGuid(c *gin.Context) (uint64, bool) {
	guid, err := strconv.ParseUint(c.Param("guid"), 10, 64)
	if err != nil || guid == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "Invalid guid"})
		return 0, false
	}
	return guid, true
}

func (h *handlers) requireAdmin(c *gin.Context) (uint64, bool) {
	actor, ok := callerGuid(c)
	if !ok {
		return 0, false
	}
	user, err := h.admins.GetUserByGuid(c.Request.Context(), actor)
	if err != nil {
		writeError(c, err)
		return 0, false
	}
	if !user.Admin {
		c.JSON(http.StatusForbidden, gin.H{"status": "error", "message": "Forbidden"})
		return 0, false
	}
	return actor, true
}

func (h *handlers) getRates(c *gin.Context) {
	snap := h.rates.Snapshot(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"status":     "success",
		"usdRate":    snap.USDRate,
		"tokensRate": snap.TokensRate,
		"min":        snap.Min,
		"max":        snap.Max,
		"priority":   snap.Priority,
	})
}

type createBoostRequest struct {
	Impressions       int64    `json:"impressions"`
	BidType           string   `json:"bidType"`
	PaymentMethod     string   `json:"paymentMethod"`
	PaymentMethodID   string   `json:"paymentMethodId"`
	Address           string   `json:"address"`
	TxHash            string   `json:"txHash"`
	Categories        []string `json:"categories"`
	Priority          bool     `json:"priority"`
	Guid              string   `json:"guid"`
	Checksum          string   `json:"checksum"`
	TargetLocation    int      `json:"targetLocation"`
	TargetSuitability int      `json:"targetSuitability"`
}

func (h *handlers) createBoost(c *gin.Context) {
	actor, ok := callerGuid(c)
	if !ok {
		return
	}
	entityGuid, ok := pathGuid(c)
	if !ok {
		return
	}

	var req createBoostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "Invalid request body"})
		return
	}

	var preGuid uint64
	if req.Guid != "" {
		var err error
		preGuid, err = strconv.ParseUint(req.Guid, 10, 64)
		if err != nil || preGuid < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "Provided GUID is invalid"})
			return
		}
	}

	location := common.TargetLocation(req.TargetLocation)
	if location == 0 {
		location = common.TargetLocationNewsfeed
	}
	suitability := common.TargetSuitability(req.TargetSuitability)
	if suitability == 0 {
		suitability = common.TargetSuitabilitySafe
	}

	b, err := h.boosts.Add(c.Request.Context(), boost.CreateArgs{
		Type:        common.BoostType(c.Param("type")),
		EntityGuid:  entityGuid,
		OwnerGuid:   actor,
		Impressions: req.Impressions,
		BidType:     common.BidType(req.BidType),
		Payment: payments.Details{
			Method:          common.PaymentMethod(req.PaymentMethod),
			PaymentMethodID: req.PaymentMethodID,
			Address:         req.Address,
			TxHash:          req.TxHash,
		},
		Categories:        req.Categories,
		Priority:          req.Priority,
		Guid:              preGuid,
		Checksum:          req.Checksum,
		TargetLocation:    location,
		TargetSuitability: suitability,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "boost": boostView(b)})
}

const listLimit = 100

func (h *handlers) listOwnBoosts(c *gin.Context) {
	actor, ok := callerGuid(c)
	if !ok {
		return
	}

	boosts, err := h.boosts.ListByOwner(c.Request.Context(), actor, listLimit)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "boosts": boostViews(boosts)})
}

func (h *handlers) listReviewQueue(c *gin.Context) {
	if _, ok := h.requireAdmin(c); !ok {
		return
	}

	boosts, err := h.boosts.ReviewQueue(c.Request.Context(), listLimit)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "boosts": boostViews(boosts)})
}

func (h *handlers) getBoost(c *gin.Context) {
	guid, ok := pathGuid(c)
	if !ok {
		return
	}

	b, err := h.boosts.GetBoostByGuid(c.Request.Context(), guid)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "boost": boostView(b)})
}

func (h *handlers) revokeBoost(c *gin.Context) {
	actor, ok := callerGuid(c)
	if !ok {
		return
	}
	guid, ok := pathGuid(c)
	if !ok {
		return
	}

	if err := h.boosts.Revoke(c.Request.Context(), guid, actor); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

func (h *handlers) approveBoost(c *gin.Context) {
	if _, ok := h.requireAdmin(c); !ok {
		return
	}
	guid, ok := pathGuid(c)
	if !ok {
		return
	}

	if err := h.boosts.Approve(c.Request.Context(), guid); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

func (h *handlers) rejectBoost(c *gin.Context) {
	if _, ok := h.requireAdmin(c); !ok {
		return
	}
	guid, ok := pathGuid(c)
	if !ok {
		return
	}

	if err := h.boosts.Reject(c.Request.Context(), guid); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

func boostViews(boosts []*model.Boost) []gin.H {
	views := make([]gin.H, 0, len(boosts))
	for _, b := range boosts {
		views = append(views, boostView(b))
	}
	return views
}

func boostView(b *model.Boost) gin.H {
	return gin.H{
		"guid":           strconv.FormatUint(b.Guid, 10),
		"entityGuid":     strconv.FormatUint(b.EntityGuid, 10),
		"ownerGuid":      strconv.FormatUint(b.OwnerGuid, 10),
		"bid":            b.Bid,
		"bidType":        b.BidType,
		"paymentMethod":  b.PaymentMethod,
		"impressions":    b.Impressions,
		"impressionsMet": b.ImpressionsMet,
		"type":           b.Type,
		"priority":       b.Priority,
		"status":         common.BoostStatus(b.Status).String(),
		"checksum":       b.Checksum,
		"createdAt":      b.CreatedTimestamp,
	}
}

type createSupermindRequest struct {
	ReceiverGuid    string `json:"receiverGuid"`
	ActivityGuid    string `json:"activityGuid"`
	Amount          string `json:"amount"`
	PaymentMethod   string `json:"paymentMethod"`
	PaymentMethodID string `json:"paymentMethodId"`
}

func (h *handlers) createSupermind(c *gin.Context) {
	actor, ok := callerGuid(c)
	if !ok {
		return
	}

	var req createSupermindRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "Invalid request body"})
		return
	}

	receiverGuid, err := strconv.ParseUint(req.ReceiverGuid, 10, 64)
	if err != nil || receiverGuid == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "Invalid receiver guid"})
		return
	}
	activityGuid, _ := strconv.ParseUint(req.ActivityGuid, 10, 64)

	amount, err := decimalFromJSON(req.Amount)
	if err != nil {
		writeError(c, err)
		return
	}

	r, createErr := h.superminds.Create(c.Request.Context(), supermind.CreateArgs{
		SenderGuid:      actor,
		ReceiverGuid:    receiverGuid,
		ActivityGuid:    activityGuid,
		Amount:          amount,
		PaymentMethod:   common.PaymentMethod(req.PaymentMethod),
		PaymentMethodID: req.PaymentMethodID,
	})
	if createErr != nil {
		writeError(c, createErr)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "request": supermindView(r)})
}

func (h *handlers) getSupermind(c *gin.Context) {
	guid, ok := pathGuid(c)
	if !ok {
		return
	}

	r, err := h.superminds.GetRequest(c.Request.Context(), guid)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "request": supermindView(r)})
}

func (h *handlers) acceptSupermind(c *gin.Context) {
	h.supermindAction(c, h.superminds.Accept)
}

func (h *handlers) rejectSupermind(c *gin.Context) {
	h.supermindAction(c, h.superminds.Reject)
}

func (h *handlers) revokeSupermind(c *gin.Context) {
	h.supermindAction(c, h.superminds.Revoke)
}

func (h *handlers) supermindAction(c *gin.Context, action func(ctx context.Context, guid, actorGuid uint64) error) {
	actor, ok := callerGuid(c)
	if !ok {
		return
	}
	guid, ok := pathGuid(c)
	if !ok {
		return
	}

	if err := action(c.Request.Context(), guid, actor); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

func supermindView(r *model.SupermindRequest) gin.H {
	return gin.H{
		"guid":          strconv.FormatUint(r.Guid, 10),
		"senderGuid":    strconv.FormatUint(r.SenderGuid, 10),
		"receiverGuid":  strconv.FormatUint(r.ReceiverGuid, 10),
		"activityGuid":  strconv.FormatUint(r.ActivityGuid, 10),
		"amount":        r.Amount,
		"paymentMethod": r.PaymentMethod,
		"status":        r.Status,
		"createdAt":     r.CreatedTimestamp,
	}
}
