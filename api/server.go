package api

import (
	"net/http"
	"strconv"

	"webrag/ingest"
	"webrag/query"
	"webrag/repository"

	"go.uber.org/zap"
)

// Server exposes the ingestion and query endpoints.
type Server struct {
	docs       repository.DocumentRepo
	dispatcher ingest.Dispatcher
	querySvc   *query.Service
	logger     *zap.Logger
	port       int
}

func NewServer(docs repository.DocumentRepo, dispatcher ingest.Dispatcher,
	querySvc *query.Service, logger *zap.Logger, port int) *Server {
	return &Server{
		docs:       docs,
		dispatcher: dispatcher,
		querySvc:   querySvc,
		logger:     logger,
		port:       port,
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /ingest-url", s.IngestURLHandler)
	mux.HandleFunc("GET /status/{document_id}", s.StatusHandler)
	mux.HandleFunc("POST /query", s.QueryHandler)

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	return mux
}

// Start starts the API server and blocks.
func (s *Server) Start() error {
	s.logger.Info("starting API server", zap.Int("port", s.port))
	return http.ListenAndServe(":"+strconv.Itoa(s.port), s.Handler())
}
