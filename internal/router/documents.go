package router

import (
	"net/http"

	"github.com/BerylCAtieno/document-scanner-api/internal/auth"
	"github.com/BerylCAtieno/document-scanner-api/internal/config"
	"github.com/BerylCAtieno/document-scanner-api/internal/handlers"
	"github.com/BerylCAtieno/document-scanner-api/internal/metrics"
	"github.com/BerylCAtieno/document-scanner-api/internal/middleware"
	"github.com/BerylCAtieno/document-scanner-api/internal/services"
	"github.com/BerylCAtieno/document-scanner-api/internal/utils"

	"github.com/gorilla/mux"
)

func NewRouter(docService services.DocumentService, tokens *auth.TokenService, cfg *config.Config, logger *utils.Logger) http.Handler {
	r := mux.NewRouter()

	// Middlewares
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Authenticate(tokens, logger))

	// Document handler
	docHandler := handlers.NewDocumentHandler(docService, cfg, logger)

	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	// Routes
	api := r.PathPrefix("/api/v1").Subrouter()

	// Health check
	api.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	}).Methods(http.MethodGet)

	// Document endpoints
	api.HandleFunc("/documents/scan", docHandler.ScanDocument).Methods(http.MethodPost)
	api.HandleFunc("/documents", docHandler.ListDocuments).Methods(http.MethodGet)
	api.HandleFunc("/documents/export", docHandler.ExportDocuments).Methods(http.MethodGet)
	api.HandleFunc("/documents/{id}", docHandler.GetDocument).Methods(http.MethodGet)
	api.HandleFunc("/documents/{id}/content", docHandler.GetDocumentContent).Methods(http.MethodGet)

	// CORS wraps the router so preflight requests, which match no route, are
	// answered too.
	return middleware.CORS(cfg.CORSAllowedOrigins)(r)
}
