package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/docquery/document-query-api/internal/models"
	"github.com/docquery/document-query-api/internal/services"
	"github.com/docquery/document-query-api/internal/utils"
)

type QueryHandler struct {
	service services.QueryService
	logger  *utils.Logger
}

func NewQueryHandler(service services.QueryService, logger *utils.Logger) *QueryHandler {
	return &QueryHandler{
		service: service,
		logger:  logger,
	}
}

func (h *QueryHandler) Query(w http.ResponseWriter, r *http.Request) {
	var req models.QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, h.logger, utils.NewBadRequestError("Invalid JSON body"))
		return
	}

	resp, err := h.service.Query(r.Context(), &req)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	respondJSON(w, h.logger, http.StatusOK, resp)
}

func (h *QueryHandler) ListHistory(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service.ListHistory(r.Context())
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	if entries == nil {
		entries = []models.QueryHistoryEntry{}
	}
	respondJSON(w, h.logger, http.StatusOK, entries)
}

func (h *QueryHandler) DeleteHistoryEntry(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id := vars["id"]

	if id == "" {
		respondError(w, h.logger, utils.NewBadRequestError("History entry ID is required"))
		return
	}

	if err := h.service.DeleteHistoryEntry(r.Context(), id); err != nil {
		respondError(w, h.logger, err)
		return
	}

	respondJSON(w, h.logger, http.StatusOK, map[string]string{"message": "History entry deleted"})
}

func (h *QueryHandler) ClearHistory(w http.ResponseWriter, r *http.Request) {
	if err := h.service.ClearHistory(r.Context()); err != nil {
		respondError(w, h.logger, err)
		return
	}

	respondJSON(w, h.logger, http.StatusOK, map[string]string{"message": "Query history cleared"})
}

func (h *QueryHandler) GetModels(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, h.logger, http.StatusOK, h.service.Models(r.Context()))
}

func (h *QueryHandler) SetModel(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Model string `json:"model"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, h.logger, utils.NewBadRequestError("Invalid JSON body"))
		return
	}

	if err := h.service.SetActiveModel(r.Context(), req.Model); err != nil {
		respondError(w, h.logger, err)
		return
	}

	respondJSON(w, h.logger, http.StatusOK, h.service.Models(r.Context()))
}
