package api

import (
	"github.com/gin-gonic/gin"
	"github.com/nimburion/storefront/pkg/access"
	"github.com/nimburion/storefront/pkg/controller"
	"github.com/nimburion/storefront/pkg/model"
	"github.com/nimburion/storefront/pkg/service"
)

type orderHandlers struct {
	svc  *service.OrderService
	gate *access.Gate
}

// list returns every order to roles holding read:any and only the caller's
// own orders otherwise.
func (h *orderHandlers) list(c *gin.Context) {
	s, ok := subject(c)
	if !ok {
		return
	}
	opts, ok := bindQuery(c)
	if !ok {
		return
	}
	if !h.gate.Granted(s.Role, access.ReadAny, access.ResourceOrders) {
		if opts.Filter == nil {
			opts.Filter = map[string]interface{}{}
		}
		opts.Filter["userId"] = s.ID
	}
	orders, err := h.svc.Get(c.Request.Context(), opts)
	if err != nil {
		controller.Error(c, err)
		return
	}
	controller.Success(c, orders)
}

func (h *orderHandlers) get(c *gin.Context) {
	s, ok := subject(c)
	if !ok {
		return
	}
	order, err := h.svc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		controller.Error(c, err)
		return
	}
	if err := h.gate.AuthorizeOwned(s, access.ReadOwn, access.ResourceOrders, order.UserID); err != nil {
		controller.Error(c, err)
		return
	}
	controller.Success(c, order)
}

// create places an order for the caller. The owner is always the
// authenticated subject.
func (h *orderHandlers) create(c *gin.Context) {
	s, ok := subject(c)
	if !ok {
		return
	}
	var in model.NewOrder
	if !bindJSON(c, &in) {
		return
	}
	in.UserID = s.ID
	order, err := h.svc.Add(c.Request.Context(), in)
	if err != nil {
		controller.Error(c, err)
		return
	}
	controller.Created(c, order)
}

func (h *orderHandlers) delete(c *gin.Context) {
	s, ok := subject(c)
	if !ok {
		return
	}
	removed, err := h.svc.DeleteAs(c.Request.Context(), c.Param("id"), s)
	if err != nil {
		controller.Error(c, err)
		return
	}
	controller.Success(c, removed)
}
