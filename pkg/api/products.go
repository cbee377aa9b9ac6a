package api

import (
	"github.com/gin-gonic/gin"
	"github.com/nimburion/storefront/pkg/controller"
	"github.com/nimburion/storefront/pkg/model"
	"github.com/nimburion/storefront/pkg/service"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type productHandlers struct {
	svc    *service.ProductService
	orders *service.OrderService
}

func (h *productHandlers) list(c *gin.Context) {
	opts, ok := bindQuery(c)
	if !ok {
		return
	}
	products, err := h.svc.Get(c.Request.Context(), opts)
	if err != nil {
		controller.Error(c, err)
		return
	}
	controller.Success(c, products)
}

func (h *productHandlers) get(c *gin.Context) {
	product, err := h.svc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		controller.Error(c, err)
		return
	}
	controller.Success(c, product)
}

func (h *productHandlers) bestseller(c *gin.Context) {
	ranked, err := h.orders.MostOrderedProduct(c.Request.Context())
	if err != nil {
		controller.Error(c, err)
		return
	}
	controller.Success(c, ranked)
}

func (h *productHandlers) create(c *gin.Context) {
	var in model.Product
	if !bindJSON(c, &in) {
		return
	}
	in.ID = primitive.NilObjectID
	in.Category = nil
	stored, err := h.svc.Add(c.Request.Context(), &in)
	if err != nil {
		controller.Error(c, err)
		return
	}
	controller.Created(c, stored)
}

func (h *productHandlers) update(c *gin.Context) {
	var patch model.ProductPatch
	if !bindJSON(c, &patch) {
		return
	}
	updated, err := h.svc.Update(c.Request.Context(), c.Param("id"), patch.Updates())
	if err != nil {
		controller.Error(c, err)
		return
	}
	controller.Success(c, updated)
}

func (h *productHandlers) delete(c *gin.Context) {
	removed, err := h.svc.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		controller.Error(c, err)
		return
	}
	controller.Success(c, removed)
}
