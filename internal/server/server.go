// Package server exposes the article store as a JSON API for the reader
// frontend.
package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/Colmmm/xuexinwen/internal/article"
	"github.com/Colmmm/xuexinwen/internal/database"
	"github.com/Colmmm/xuexinwen/internal/fetch"
	"github.com/Colmmm/xuexinwen/internal/levels"
	"github.com/Colmmm/xuexinwen/internal/pipeline"
)

// Server is the HTTP API over the article database.
type Server struct {
	db       *database.DB
	fetcher  *fetch.Fetcher
	pipeline *pipeline.Pipeline
	mux      *http.ServeMux
}

// New creates a new Server. The fetcher and pipeline may be nil, in which
// case the fetch and reprocess endpoints return 503.
func New(db *database.DB, fetcher *fetch.Fetcher, p *pipeline.Pipeline) *Server {
	s := &Server{db: db, fetcher: fetcher, pipeline: p, mux: http.NewServeMux()}
	s.routes()
	return s
}

// Handler returns the HTTP handler with CORS applied.
func (s *Server) Handler() http.Handler {
	return corsMiddleware(s.mux)
}

func (s *Server) routes() {
	s.mux.HandleFunc("/api/articles", s.handleArticles)
	s.mux.HandleFunc("/api/articles/", s.handleArticle)
	s.mux.HandleFunc("/health", s.handleHealth)
}

// articleDetail is the full article payload, matching what the reader
// frontend consumes.
type articleDetail struct {
	ID               string                  `json:"article_id"`
	URL              string                  `json:"url"`
	Date             string                  `json:"date"`
	Source           string                  `json:"source"`
	Authors          []string                `json:"authors"`
	ImageURL         string                  `json:"image_url,omitempty"`
	MandarinTitle    string                  `json:"mandarin_title"`
	EnglishTitle     string                  `json:"english_title"`
	MandarinContent  string                  `json:"mandarin_content"`
	EnglishContent   string                  `json:"english_content"`
	MandarinSections []article.Span          `json:"mandarin_sections"`
	EnglishSections  []article.Span          `json:"english_sections"`
	GradedContent    map[levels.Level]string `json:"graded_content"`
	Metadata         map[string]string       `json:"metadata"`
	Results          *database.Results       `json:"results,omitempty"`
}

func detailFrom(a *article.Article, results *database.Results) *articleDetail {
	return &articleDetail{
		ID:               a.ID,
		URL:              a.URL,
		Date:             a.Date,
		Source:           a.Source,
		Authors:          a.Authors,
		ImageURL:         a.ImageURL,
		MandarinTitle:    a.MandarinTitle,
		EnglishTitle:     a.EnglishTitle,
		MandarinContent:  a.MandarinContent,
		EnglishContent:   a.EnglishContent,
		MandarinSections: a.MandarinSections,
		EnglishSections:  a.EnglishSections,
		GradedContent:    a.GradedContent,
		Metadata:         a.Metadata,
		Results:          results,
	}
}

// handleArticles serves GET /api/articles and POST /api/articles/fetch is
// routed through handleArticle.
func (s *Server) handleArticles(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	source := r.URL.Query().Get("source")
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	summaries, err := s.db.ListArticles(source, limit)
	if err != nil {
		log.Printf("Listing articles: %v", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if summaries == nil {
		summaries = []database.Summary{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"articles": summaries})
}

// handleArticle dispatches /api/articles/{id}[...] paths.
func (s *Server) handleArticle(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/articles/")
	parts := strings.Split(strings.Trim(path, "/"), "/")

	switch {
	case len(parts) == 1 && parts[0] == "fetch":
		s.handleFetch(w, r)
	case len(parts) == 1:
		s.handleGetArticle(w, r, parts[0])
	case len(parts) == 2 && parts[1] == "reprocess":
		s.handleReprocess(w, r, parts[0])
	case len(parts) == 3 && parts[1] == "grade":
		s.handleGrade(w, r, parts[0], parts[2])
	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

func (s *Server) handleGetArticle(w http.ResponseWriter, r *http.Request, articleID string) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	a, err := s.db.GetArticle(articleID)
	if errors.Is(err, sql.ErrNoRows) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("article %s not found", articleID))
		return
	}
	if err != nil {
		log.Printf("Loading article %s: %v", articleID, err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	results, err := s.db.GetResults(articleID)
	if err != nil {
		log.Printf("Loading results for %s: %v", articleID, err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, detailFrom(a, results))
}

func (s *Server) handleGrade(w http.ResponseWriter, r *http.Request, articleID, rawLevel string) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	level := levels.Parse(strings.ToUpper(rawLevel))
	if level == levels.Unknown {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid level %q", rawLevel))
		return
	}

	a, err := s.db.GetArticle(articleID)
	if errors.Is(err, sql.ErrNoRows) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("article %s not found", articleID))
		return
	}
	if err != nil {
		log.Printf("Loading article %s: %v", articleID, err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	content, ok := a.Graded(level)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("no %s version for article %s", level, articleID))
		return
	}

	results, err := s.db.GetResults(articleID)
	if err != nil {
		log.Printf("Loading results for %s: %v", articleID, err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"article_id": articleID,
		"level":      level,
		"content":    content,
		"sections":   article.SplitSections(content),
		"annotation": results.Annotations[strings.ToLower(string(level))],
	})
}

func (s *Server) handleFetch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.fetcher == nil || s.pipeline == nil {
		writeError(w, http.StatusServiceUnavailable, "fetching not configured")
		return
	}

	var req struct {
		Source string `json:"source"`
	}
	if r.Body != nil {
		json.NewDecoder(r.Body).Decode(&req)
	}
	if req.Source == "" {
		req.Source = "nyt"
	}

	// Fetching and processing take minutes; run in the background and
	// report acceptance immediately, like the original frontend expects.
	go func() {
		ctx := context.Background()
		articles, result, err := s.fetcher.Fetch(ctx, req.Source)
		if err != nil {
			log.Printf("Background fetch failed: %v", err)
			return
		}
		for _, a := range articles {
			if err := s.db.UpsertArticle(a); err != nil {
				log.Printf("Storing %s: %v", a.ID, err)
			}
		}
		log.Printf("Fetched %d articles (%d failed), processing...", result.Fetched, result.Failed)
		if _, err := s.pipeline.ProcessBatch(ctx); err != nil {
			log.Printf("Background processing failed: %v", err)
		}
	}()

	writeJSON(w, http.StatusAccepted, map[string]any{
		"status": "fetching",
		"source": req.Source,
	})
}

func (s *Server) handleReprocess(w http.ResponseWriter, r *http.Request, articleID string) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.pipeline == nil {
		writeError(w, http.StatusServiceUnavailable, "processing not configured")
		return
	}

	a, err := s.db.GetArticle(articleID)
	if errors.Is(err, sql.ErrNoRows) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("article %s not found", articleID))
		return
	}
	if err != nil {
		log.Printf("Loading article %s: %v", articleID, err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	go func() {
		if _, err := s.pipeline.ProcessArticle(context.Background(), a); err != nil {
			log.Printf("Reprocessing %s failed: %v", articleID, err)
		}
	}()

	writeJSON(w, http.StatusAccepted, map[string]any{
		"status":     "processing",
		"article_id": articleID,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Encoding response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// corsMiddleware allows the frontend dev server to call the API from
// another origin.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Serve starts the HTTP server on the given port.
func Serve(db *database.DB, fetcher *fetch.Fetcher, p *pipeline.Pipeline, port int) error {
	srv := New(db, fetcher, p)
	addr := fmt.Sprintf("127.0.0.1:%d", port)
	log.Printf("API listening on http://%s", addr)
	return http.ListenAndServe(addr, srv.Handler())
}
