package router

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/docquery/document-query-api/internal/handlers"
	"github.com/docquery/document-query-api/internal/middleware"
	"github.com/docquery/document-query-api/internal/services"
	"github.com/docquery/document-query-api/internal/utils"
)

func New(docService services.DocumentService, queryService services.QueryService, logger *utils.Logger) http.Handler {
	r := mux.NewRouter()

	// Middlewares
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS())
	r.Use(middleware.Recovery(logger))

	docHandler := handlers.NewDocumentHandler(docService, logger)
	queryHandler := handlers.NewQueryHandler(queryService, logger)

	api := r.PathPrefix("/api/v1").Subrouter()

	// Health check
	api.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	}).Methods(http.MethodGet)

	// Document endpoints
	api.HandleFunc("/documents/upload", docHandler.UploadDocument).Methods(http.MethodPost)
	api.HandleFunc("/documents", docHandler.ListDocuments).Methods(http.MethodGet)
	api.HandleFunc("/documents", docHandler.RemoveAllDocuments).Methods(http.MethodDelete)
	api.HandleFunc("/documents/{fingerprint}", docHandler.RemoveDocument).Methods(http.MethodDelete)

	// Query and history endpoints
	api.HandleFunc("/query", queryHandler.Query).Methods(http.MethodPost)
	api.HandleFunc("/history", queryHandler.ListHistory).Methods(http.MethodGet)
	api.HandleFunc("/history", queryHandler.ClearHistory).Methods(http.MethodDelete)
	api.HandleFunc("/history/{id}", queryHandler.DeleteHistoryEntry).Methods(http.MethodDelete)

	// Model configuration
	api.HandleFunc("/models", queryHandler.GetModels).Methods(http.MethodGet)
	api.HandleFunc("/models", queryHandler.SetModel).Methods(http.MethodPut)

	return r
}
