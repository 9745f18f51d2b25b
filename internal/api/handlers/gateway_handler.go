// Package handlers contains HTTP handlers for the API.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"norelock.dev/tunegate/backend/internal/models"
	"norelock.dev/tunegate/backend/internal/services/dispatch"
	"norelock.dev/tunegate/backend/internal/utils"
)

// GatewayHandler exposes the dispatcher over HTTP for the delivery layer.
type GatewayHandler struct {
	dispatcher *dispatch.Dispatcher
	logger     *utils.Logger
}

// NewGatewayHandler creates a new gateway handler.
func NewGatewayHandler(dispatcher *dispatch.Dispatcher, logger *utils.Logger) *GatewayHandler {
	return &GatewayHandler{
		dispatcher: dispatcher,
		logger:     logger.Named("gateway_handler"),
	}
}

type registerRequest struct {
	ChatID      int64  `json:"chatId" validate:"required"`
	Username    string `json:"username" validate:"omitempty,max=64"`
	DisplayName string `json:"displayName" validate:"omitempty,max=128"`
}

type messageRequest struct {
	UserID int64  `json:"userId" validate:"required"`
	Text   string `json:"text" validate:"required,max=2048"`
}

type choiceRequest struct {
	UserID int64  `json:"userId" validate:"required"`
	Choice string `json:"choice" validate:"required,max=64"`
}

// PostUser handles first-contact registration.
func (h *GatewayHandler) PostUser(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	user, err := h.dispatcher.HandleStart(r.Context(), req.ChatID, req.Username, req.DisplayName)
	if err != nil {
		h.respondDomainError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.APIResponse{Success: true, Data: user})
}

// PostMessage handles one inbound text message.
func (h *GatewayHandler) PostMessage(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	outcome, err := h.dispatcher.HandleMessage(r.Context(), req.UserID, req.Text)
	if err != nil {
		h.respondDomainError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.APIResponse{Success: true, Data: outcome})
}

// PostChoice handles one disambiguation choice.
func (h *GatewayHandler) PostChoice(w http.ResponseWriter, r *http.Request) {
	var req choiceRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	outcome, err := h.dispatcher.HandleChoice(r.Context(), req.UserID, req.Choice)
	if err != nil {
		h.respondDomainError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.APIResponse{Success: true, Data: outcome})
}

// Search handles inline search requests.
func (h *GatewayHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Query parameter 'q' is required")
		return
	}

	amount := 0
	if amountStr := r.URL.Query().Get("amount"); amountStr != "" {
		var err error
		amount, err = strconv.Atoi(amountStr)
		if err != nil || amount < 1 || amount > 50 {
			utils.RespondWithError(w, http.StatusBadRequest, "Invalid amount parameter")
			return
		}
	}

	items, err := h.dispatcher.SearchInline(r.Context(), query, amount)
	if err != nil {
		h.respondDomainError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.APIResponse{Success: true, Data: items})
}

// decodeAndValidate decodes the JSON body into dest and validates it. It
// writes the error response itself and reports whether the request is usable.
func (h *GatewayHandler) decodeAndValidate(w http.ResponseWriter, r *http.Request, dest any) bool {
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	if err := utils.Validate(dest); err != nil {
		utils.RespondWithValidationError(w, err)
		return false
	}
	return true
}

// respondDomainError maps domain errors onto HTTP status codes. Friendly
// outcomes keep their sentinel message; operational failures are masked with a
// generic one.
func (h *GatewayHandler) respondDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrMediaNotFound), errors.Is(err, models.ErrUserNotFound):
		utils.RespondWithError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, models.ErrMediaTooLong), errors.Is(err, models.ErrUnknownSource):
		utils.RespondWithError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, models.ErrNoSession), errors.Is(err, models.ErrInvalidChoice),
		errors.Is(err, models.ErrUserAlreadyExists):
		utils.RespondWithError(w, http.StatusConflict, err.Error())
	case errors.Is(err, models.ErrStoreUnavailable):
		utils.RespondWithError(w, http.StatusServiceUnavailable, "Store unavailable")
	default:
		var providerErr *models.ProviderError
		if errors.As(err, &providerErr) {
			utils.RespondWithError(w, http.StatusBadGateway, "Upstream source failed")
			return
		}
		h.logger.Error("Unhandled gateway error", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
	}
}
