package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sbag9697/marketgrow-sub001/internal/http/validation"
	"github.com/sbag9697/marketgrow-sub001/internal/modules/lifecycle"
	"github.com/sbag9697/marketgrow-sub001/internal/modules/orders"
	"github.com/sbag9697/marketgrow-sub001/internal/shared/apperr"
	"github.com/sbag9697/marketgrow-sub001/pkg/view"
)

type OrderHandler struct {
	Coordinator *lifecycle.Coordinator
	Repo        *orders.Repo
}

func NewOrderHandler(co *lifecycle.Coordinator, repo *orders.Repo) *OrderHandler {
	return &OrderHandler{Coordinator: co, Repo: repo}
}

type createOrderInput struct {
	ServiceID     string `json:"service_id" binding:"required,max=64"`
	Quantity      int    `json:"quantity" binding:"required,gt=0"`
	TargetURL     string `json:"target_url" binding:"required,url,max=512"`
	CustomerEmail string `json:"customer_email" binding:"required,email,max=255"`
	CustomerName  string `json:"customer_name" binding:"omitempty,max=255"`
}

// POST /api/orders
func (h *OrderHandler) Create(c *gin.Context) {
	var in createOrderInput
	if err := c.ShouldBindJSON(&in); err != nil {
		fields := validation.FromBindError(err, &in)
		fail(c, apperr.InvalidErr("Order input is invalid.", fields))
		return
	}

	res, err := h.Coordinator.CreateOrder(c.Request.Context(), lifecycle.CreateOrderInput{
		ServiceID: in.ServiceID,
		Quantity:  in.Quantity,
		TargetURL: in.TargetURL,
		Customer:  orders.Customer{Email: in.CustomerEmail, Name: in.CustomerName},
	})
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"order": view.FromOrder(res.Order)})
}

// GET /api/orders/:number
func (h *OrderHandler) Get(c *gin.Context) {
	ord, events, err := h.Repo.GetByNumber(c.Request.Context(), c.Param("number"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"order":   view.FromOrder(ord),
		"history": view.FromOrderEvents(events),
	})
}

type listOrdersInput struct {
	Email    string `form:"email" binding:"omitempty,email"`
	Status   string `form:"status" binding:"omitempty,max=32"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// GET /api/orders
func (h *OrderHandler) List(c *gin.Context) {
	var in listOrdersInput
	if err := c.ShouldBindQuery(&in); err != nil {
		fields := validation.FromBindError(err, &in)
		fail(c, apperr.InvalidErr("Query is invalid.", fields))
		return
	}

	res, err := h.Repo.List(c.Request.Context(), orders.ListParams{
		CustomerEmail: in.Email,
		Status:        in.Status,
		Page:          in.Page,
		PageSize:      in.PageSize,
	})
	if err != nil {
		fail(c, err)
		return
	}

	items := make([]view.Order, len(res.Items))
	for i, o := range res.Items {
		items[i] = view.FromOrder(o)
	}
	c.JSON(http.StatusOK, gin.H{"orders": items, "total": res.Total})
}

type updateProgressInput struct {
	Current int    `json:"current" binding:"min=0"`
	Note    string `json:"note" binding:"omitempty,max=255"`
}

// POST /api/orders/:number/progress
func (h *OrderHandler) UpdateProgress(c *gin.Context) {
	var in updateProgressInput
	if err := c.ShouldBindJSON(&in); err != nil {
		fields := validation.FromBindError(err, &in)
		fail(c, apperr.InvalidErr("Progress input is invalid.", fields))
		return
	}

	res, err := h.Coordinator.UpdateOrderProgress(c.Request.Context(), c.Param("number"), in.Current, in.Note)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": view.FromOrder(res.Order)})
}

type updateStatusInput struct {
	Status string `json:"status" binding:"required,max=32"`
	Note   string `json:"note" binding:"omitempty,max=255"`
	Actor  string `json:"actor" binding:"required,max=64"`
}

// POST /api/orders/:number/status
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	var in updateStatusInput
	if err := c.ShouldBindJSON(&in); err != nil {
		fields := validation.FromBindError(err, &in)
		fail(c, apperr.InvalidErr("Status input is invalid.", fields))
		return
	}

	res, err := h.Coordinator.UpdateOrderStatus(c.Request.Context(), c.Param("number"), orders.Status(in.Status), in.Note, in.Actor)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": view.FromOrder(res.Order)})
}
