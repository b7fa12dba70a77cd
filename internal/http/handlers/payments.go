package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sbag9697/marketgrow-sub001/internal/http/validation"
	"github.com/sbag9697/marketgrow-sub001/internal/modules/lifecycle"
	"github.com/sbag9697/marketgrow-sub001/internal/modules/payments"
	"github.com/sbag9697/marketgrow-sub001/internal/shared/apperr"
	"github.com/sbag9697/marketgrow-sub001/pkg/view"
)

type PaymentHandler struct {
	Coordinator *lifecycle.Coordinator
}

func NewPaymentHandler(co *lifecycle.Coordinator) *PaymentHandler {
	return &PaymentHandler{Coordinator: co}
}

type createPaymentInput struct {
	AmountCents int    `json:"amount_cents" binding:"required,gt=0"`
	Method      string `json:"method" binding:"required,oneof=card bank_transfer ewallet virtual_account"`
	ReturnURL   string `json:"return_url" binding:"omitempty,url,max=512"`
	CancelURL   string `json:"cancel_url" binding:"omitempty,url,max=512"`
}

// POST /api/orders/:number/payment
func (h *PaymentHandler) Create(c *gin.Context) {
	var in createPaymentInput
	if err := c.ShouldBindJSON(&in); err != nil {
		fields := validation.FromBindError(err, &in)
		fail(c, apperr.InvalidErr("Payment input is invalid.", fields))
		return
	}

	res, err := h.Coordinator.CreatePayment(c.Request.Context(), lifecycle.CreatePaymentInput{
		OrderNumber: c.Param("number"),
		AmountCents: in.AmountCents,
		Method:      payments.Method(in.Method),
		ReturnURL:   in.ReturnURL,
		CancelURL:   in.CancelURL,
	})
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"order":   view.FromOrder(res.Order),
		"payment": view.FromPayment(*res.Payment),
	})
}

type requestRefundInput struct {
	Reason      string `json:"reason" binding:"omitempty,max=255"`
	AmountCents int    `json:"amount_cents" binding:"omitempty,gt=0"`
}

// POST /api/orders/:number/refund-request
func (h *PaymentHandler) RequestRefund(c *gin.Context) {
	var in requestRefundInput
	if err := c.ShouldBindJSON(&in); err != nil {
		fields := validation.FromBindError(err, &in)
		fail(c, apperr.InvalidErr("Refund input is invalid.", fields))
		return
	}

	res, err := h.Coordinator.RequestRefund(c.Request.Context(), lifecycle.RequestRefundInput{
		OrderNumber: c.Param("number"),
		Reason:      in.Reason,
		AmountCents: in.AmountCents,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": view.FromOrder(res.Order)})
}

// DELETE /api/orders/:number/refund-request
func (h *PaymentHandler) WithdrawRefund(c *gin.Context) {
	res, err := h.Coordinator.WithdrawRefund(c.Request.Context(), c.Param("number"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": view.FromOrder(res.Order)})
}

type processRefundInput struct {
	Decision string `json:"decision" binding:"required,oneof=approved rejected processed"`
	Actor    string `json:"actor" binding:"required,max=64"`
	RefundID string `json:"refund_id" binding:"omitempty,max=128"`
}

// POST /api/orders/:number/refund-process
func (h *PaymentHandler) ProcessRefund(c *gin.Context) {
	var in processRefundInput
	if err := c.ShouldBindJSON(&in); err != nil {
		fields := validation.FromBindError(err, &in)
		fail(c, apperr.InvalidErr("Refund decision is invalid.", fields))
		return
	}

	res, err := h.Coordinator.ProcessRefund(c.Request.Context(), lifecycle.ProcessRefundInput{
		OrderNumber: c.Param("number"),
		Decision:    lifecycle.RefundDecision(in.Decision),
		Actor:       in.Actor,
		RefundID:    in.RefundID,
	})
	if err != nil {
		fail(c, err)
		return
	}

	out := gin.H{"order": view.FromOrder(res.Order)}
	if res.Payment != nil {
		out["payment"] = view.FromPayment(*res.Payment)
	}
	c.JSON(http.StatusOK, out)
}
