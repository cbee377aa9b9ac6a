package api

import (
	"github.com/gin-gonic/gin"
	"github.com/nimburion/storefront/pkg/controller"
	"github.com/nimburion/storefront/pkg/model"
	"github.com/nimburion/storefront/pkg/service"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type categoryHandlers struct {
	svc *service.Resource[model.Category]
}

func (h *categoryHandlers) list(c *gin.Context) {
	opts, ok := bindQuery(c)
	if !ok {
		return
	}
	categories, err := h.svc.Get(c.Request.Context(), opts)
	if err != nil {
		controller.Error(c, err)
		return
	}
	controller.Success(c, categories)
}

func (h *categoryHandlers) get(c *gin.Context) {
	category, err := h.svc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		controller.Error(c, err)
		return
	}
	controller.Success(c, category)
}

func (h *categoryHandlers) create(c *gin.Context) {
	var in model.Category
	if !bindJSON(c, &in) {
		return
	}
	in.ID = primitive.NilObjectID
	stored, err := h.svc.Add(c.Request.Context(), &in)
	if err != nil {
		controller.Error(c, err)
		return
	}
	controller.Created(c, stored)
}

func (h *categoryHandlers) update(c *gin.Context) {
	var patch model.CategoryPatch
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

func (h *categoryHandlers) delete(c *gin.Context) {
	removed, err := h.svc.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		controller.Error(c, err)
		return
	}
	controller.Success(c, removed)
}
