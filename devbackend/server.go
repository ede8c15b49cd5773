// Package devbackend is a local stand-in for the document-processing service.
// It accepts the same multipart request and answers with a formatted summary
// of what it received.
package devbackend

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"docchat/backend"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const (
	maxUploadBytes = 32 << 20
	previewLines   = 3
)

// Server serves /health and /process
type Server struct {
	HTTPServer *http.Server
	token      string
	logger     *slog.Logger
}

// New creates a server listening on addr. When token is not empty every
// /process request must carry it as a bearer token.
func New(addr, token string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{token: token, logger: logger}
	s.HTTPServer = &http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/process", s.handleProcess)

	return r
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.HTTPServer.Handler
}

func (s *Server) ListenAndServe() error {
	s.logger.Info("stub backend listening", "addr", s.HTTPServer.Addr, "auth", s.token != "")
	err := s.HTTPServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.HTTPServer.Shutdown(ctx)
}

type processResponse struct {
	Response struct {
		Query  string `json:"query"`
		Result string `json:"result"`
	} `json:"response"`
}

type receivedFile struct {
	name        string
	size        int64
	contentType string
	preview     []string
}

func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	if s.token != "" && r.Header.Get("Authorization") != "Bearer "+s.token {
		http.Error(w, "invalid or missing token", http.StatusUnauthorized)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		http.Error(w, "failed to parse multipart form", http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	query := strings.TrimSpace(r.FormValue("query"))
	if query == "" {
		http.Error(w, "query is required", http.StatusBadRequest)
		return
	}

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		http.Error(w, "at least one file is required", http.StatusBadRequest)
		return
	}

	var files []receivedFile
	for _, h := range headers {
		f, err := h.Open()
		if err != nil {
			http.Error(w, "failed to read uploaded file", http.StatusBadRequest)
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			http.Error(w, "failed to read uploaded file", http.StatusBadRequest)
			return
		}

		rf := receivedFile{
			name:        h.Filename,
			size:        int64(len(data)),
			contentType: h.Header.Get("Content-Type"),
		}
		if strings.HasPrefix(http.DetectContentType(data), "text/") {
			rf.preview = firstLines(data, previewLines)
		}
		files = append(files, rf)
	}

	s.logger.Info("processed request",
		"request_id", middleware.GetReqID(r.Context()),
		"files", len(files),
		"query_length", len(query))

	var resp processResponse
	resp.Response.Query = query
	resp.Response.Result = summarize(files, query)
	writeJSON(w, http.StatusOK, resp)
}

// summarize builds the markdown answer for a request
func summarize(files []receivedFile, query string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "**Received %d document", len(files))
	if len(files) != 1 {
		b.WriteString("s")
	}
	b.WriteString("**\n\n")

	for i, f := range files {
		fmt.Fprintf(&b, "%d. %s (%s", i+1, f.name, backend.FormatSize(f.size))
		if f.contentType != "" {
			fmt.Fprintf(&b, ", %s", f.contentType)
		}
		b.WriteString(")\n")
	}

	fmt.Fprintf(&b, "\nYou asked: %s\n", query)

	for _, f := range files {
		if len(f.preview) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\nThe first lines of **%s**:\n```text\n%s\n```\n", f.name, strings.Join(f.preview, "\n"))
		break
	}

	b.WriteString("\nThis is a stub answer. A sample formula renders inline as $E = mc^2$ and as a block:\n")
	b.WriteString("$$\\sum_{i=1}^{n} i = \\frac{n(n+1)}{2}$$")

	return b.String()
}

func firstLines(data []byte, n int) []string {
	var lines []string
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() && len(lines) < n {
		lines = append(lines, sc.Text())
	}
	return lines
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
