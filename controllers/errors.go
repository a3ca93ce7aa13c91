package controllers

import (
	"errors"
	"net/http"

	"bengkel-backend/config"
	"bengkel-backend/services"
	"bengkel-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// respondServiceError maps the service error kinds onto HTTP statuses.
// Store failures are logged and reported without their cause.
func respondServiceError(c *gin.Context, funcName string, err error) {
	var (
		validation *services.ValidationError
		conflict   *services.ConflictError
		notFound   *services.NotFoundError
	)
	switch {
	case errors.As(err, &validation):
		utils.RespondWithError(c, http.StatusBadRequest, err.Error())
	case errors.As(err, &conflict):
		utils.RespondWithError(c, http.StatusConflict, err.Error())
	case errors.As(err, &notFound):
		utils.RespondWithError(c, http.StatusNotFound, err.Error())
	default:
		config.LogError(config.GetLogger(), "controllers", funcName, c.Request.Method+" "+c.FullPath(), nil, err)
		utils.RespondWithError(c, http.StatusInternalServerError, "Internal server error")
	}
}

// paramID parses the :name path parameter, writing a 400 when it is not a UUID.
func paramID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

// queryID parses an optional UUID query parameter.
func queryID(c *gin.Context, name string) (*uuid.UUID, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid "+name)
		return nil, false
	}
	return &id, true
}
