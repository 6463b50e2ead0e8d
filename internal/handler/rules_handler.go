package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/admitguard-api/internal/rules"
	"github.com/noah-isme/admitguard-api/pkg/response"
)

// RulesHandler exposes the rules configuration model.
type RulesHandler struct{}

// NewRulesHandler constructs the handler.
func NewRulesHandler() *RulesHandler {
	return &RulesHandler{}
}

// Default godoc
// @Summary Default rules configuration
// @Description Returns the configuration applied to batches created without rules_config
// @Tags Rules
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /rules/default [get]
func (h *RulesHandler) Default(c *gin.Context) {
	response.JSON(c, http.StatusOK, rules.Default(), nil)
}
