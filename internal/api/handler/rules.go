package handler

import (
	"encoding/json"
	"net/http"

	"github.com/scorewire/telecast/internal/api/respond"
	"github.com/scorewire/telecast/internal/automation"
)

// CreateRule validates and persists a new automation rule.
// @Summary Create automation rule
// @Description Validates the rule synchronously and persists it. Invalid configuration is rejected with 422.
// @Tags rules
// @Accept json
// @Produce json
// @Param rule body automation.Rule true "Rule"
// @Success 201 {object} automation.Rule
// @Failure 400 {object} respond.ErrorResponse
// @Failure 422 {object} respond.ErrorResponse
// @Failure 500 {object} respond.ErrorResponse
// @Router /api/v1/rules [post]
func (h *Handler) CreateRule(w http.ResponseWriter, r *http.Request) {
	var rule automation.Rule
	if err := json.NewDecoder(r.Body).Decode(&rule); err != nil {
		respond.WriteError(w, http.StatusBadRequest, "INVALID_BODY", "Request body must be a JSON rule")
		return
	}

	if err := automation.Validate(&rule); err != nil {
		respond.WriteErrorDetail(w, http.StatusUnprocessableEntity, "INVALID_RULE", "Rule validation failed", err.Error())
		return
	}

	id, err := h.rules.Insert(r.Context(), &rule)
	if err != nil {
		respond.WriteErrorDetail(w, http.StatusInternalServerError, "STORE_FAILED", "Failed to persist rule", err.Error())
		return
	}
	rule.ID = id
	respond.WriteJSONObject(w, http.StatusCreated, rule)
}

// ListRules returns all enabled automation rules.
// @Summary List automation rules
// @Description Returns all enabled rules in id order.
// @Tags rules
// @Produce json
// @Success 200 {array} automation.Rule
// @Failure 500 {object} respond.ErrorResponse
// @Router /api/v1/rules [get]
func (h *Handler) ListRules(w http.ResponseWriter, r *http.Request) {
	rules, err := h.rules.EnabledRules(r.Context())
	if err != nil {
		respond.WriteErrorDetail(w, http.StatusInternalServerError, "STORE_FAILED", "Failed to read rules", err.Error())
		return
	}
	if rules == nil {
		rules = []automation.Rule{}
	}
	respond.WriteJSONObject(w, http.StatusOK, rules)
}
