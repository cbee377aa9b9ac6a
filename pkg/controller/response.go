package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Success writes data with 200 OK.
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

// Created writes data with 201 Created.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, data)
}

// Error writes err through MapError and stops the handler chain.
func Error(c *gin.Context, err error) {
	status, body := MapError(c.Request.Context(), err)
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, body)
}

// BadRequest rejects a malformed request body or query.
func BadRequest(c *gin.Context, err error) {
	_ = c.Error(err)
	c.AbortWithStatusJSON(http.StatusBadRequest, boundaryError(c.Request.Context(), http.StatusBadRequest, MessageValidationFailed, err.Error()))
}

// Unauthorized rejects a request without a valid bearer token.
func Unauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, boundaryError(c.Request.Context(), http.StatusUnauthorized, MessageUnauthorized, message))
}
