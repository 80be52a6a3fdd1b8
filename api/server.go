// Package api exposes the statement engine over HTTP. It is a capability
// module: the CLI enables it via `resumen serve`, and programs can mount
// Handler() inside their own http.Server.
package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/nahuelc/resumen/extractor"
	"github.com/nahuelc/resumen/extractor/common"
	"github.com/nahuelc/resumen/extractor/pdftext"
)

// Config holds the API server configuration.
type Config struct {
	Port   string
	Logger *logrus.Logger
}

// DefaultConfig returns the default API configuration.
func DefaultConfig() Config {
	return Config{Port: ":8080"}
}

// Server is the HTTP front for the extraction engine.
type Server struct {
	config Config
	log    *logrus.Logger
	mux    *http.ServeMux
}

// New creates a server with its routes registered.
func New(cfg Config) *Server {
	log := cfg.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	s := &Server{config: cfg, log: log, mux: http.NewServeMux()}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/parse", s.handleParse)
	s.mux.HandleFunc("/health", s.handleHealth)
}

// Handler returns the http.Handler for the server so callers can wrap it
// with their own middleware or http.Server settings.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start listens on the configured port. Blocking.
func (s *Server) Start() error {
	s.log.WithField("port", s.config.Port).Info("starting API server")
	return http.ListenAndServe(s.config.Port, s.mux)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// handleParse accepts a multipart upload ("file") and responds with the
// parse result as JSON. Optional form/query fields: "kind" to force a
// statement variant, "text_only" to return the raw page text instead.
func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		s.log.WithError(err).Warn("bad multipart form")
		http.Error(w, "could not parse multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}

	file, handler, err := r.FormFile("file")
	if err != nil {
		s.log.WithError(err).Warn("missing file field")
		http.Error(w, "could not get uploaded file: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	fileBytes, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, "could not read file: "+err.Error(), http.StatusInternalServerError)
		return
	}
	reader := bytes.NewReader(fileBytes)

	s.log.WithFields(logrus.Fields{
		"remote": r.RemoteAddr,
		"file":   handler.Filename,
		"bytes":  len(fileBytes),
	}).Info("parse request")

	if formOrQuery(r, "text_only") == "true" {
		s.handleTextOnly(w, reader, handler.Filename)
		return
	}

	kind := formOrQuery(r, "kind")
	result, err := extractor.ProcessReader(reader, handler.Filename, kind, common.Options{Logger: s.log})
	if err != nil {
		s.log.WithError(err).Error("parse failed")
		http.Error(w, "could not parse statement: "+err.Error(), http.StatusUnprocessableEntity)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

func (s *Server) handleTextOnly(w http.ResponseWriter, reader *bytes.Reader, filename string) {
	pages, err := pdftext.PagesFromReader(reader)
	if err != nil {
		http.Error(w, "could not extract text from file: "+err.Error(), http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"filename": filename,
		"text":     strings.Join(pages, "\n\n"),
	})
}

func formOrQuery(r *http.Request, key string) string {
	if v := r.FormValue(key); v != "" {
		return v
	}
	return r.URL.Query().Get(key)
}
