package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Colmmm/xuexinwen/internal/article"
	"github.com/Colmmm/xuexinwen/internal/database"
	"github.com/Colmmm/xuexinwen/internal/entity"
	"github.com/Colmmm/xuexinwen/internal/levels"
)

func openTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func seedArticle(t *testing.T, db *database.DB) *article.Article {
	t.Helper()
	a, err := article.New(article.MakeID("https://example.com/one"), "https://example.com/one",
		[]string{"中文第一段。", "中文第二段。"},
		[]string{"First paragraph.", "Second paragraph."})
	if err != nil {
		t.Fatal(err)
	}
	a.Source = "nyt"
	a.MandarinTitle = "中文標題"
	a.EnglishTitle = "English Title"
	if err := db.UpsertArticle(a); err != nil {
		t.Fatal(err)
	}
	return a
}

func seedResults(t *testing.T, db *database.DB, articleID string) {
	t.Helper()
	results := &database.Results{
		Entities:   entity.NewTable(),
		WordLevels: map[string]levels.Level{"學習": levels.B1},
		Graded: map[levels.Level]string{
			levels.A2: "簡單一\n\n簡單二",
		},
		Annotations: map[string]string{
			"native": `<span class="word-b1">學習</span>`,
			"a2":     `<span class="word-a0">好</span>`,
		},
	}
	if err := db.SaveResults(articleID, results); err != nil {
		t.Fatal(err)
	}
}

func doRequest(t *testing.T, srv *Server, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestListArticles(t *testing.T) {
	db := openTestDB(t)
	seedArticle(t, db)
	srv := New(db, nil, nil)

	rec := doRequest(t, srv, http.MethodGet, "/api/articles")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var body struct {
		Articles []database.Summary `json:"articles"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if len(body.Articles) != 1 {
		t.Fatalf("expected 1 article, got %d", len(body.Articles))
	}
	if body.Articles[0].MandarinTitle != "中文標題" {
		t.Errorf("title = %q", body.Articles[0].MandarinTitle)
	}
}

func TestListArticlesSourceFilter(t *testing.T) {
	db := openTestDB(t)
	seedArticle(t, db)
	srv := New(db, nil, nil)

	rec := doRequest(t, srv, http.MethodGet, "/api/articles?source=bbc")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"articles":[]`) {
		t.Errorf("expected empty list, got %s", rec.Body.String())
	}
}

func TestGetArticle(t *testing.T) {
	db := openTestDB(t)
	a := seedArticle(t, db)
	seedResults(t, db, a.ID)
	srv := New(db, nil, nil)

	rec := doRequest(t, srv, http.MethodGet, "/api/articles/"+a.ID)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	var detail articleDetail
	if err := json.Unmarshal(rec.Body.Bytes(), &detail); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if detail.ID != a.ID || detail.MandarinContent == "" {
		t.Errorf("detail = %+v", detail)
	}
	if len(detail.MandarinSections) != 2 {
		t.Errorf("sections = %v", detail.MandarinSections)
	}
	if detail.Results == nil || detail.Results.WordLevels["學習"] != levels.B1 {
		t.Errorf("results missing: %+v", detail.Results)
	}
}

func TestGetArticleNotFound(t *testing.T) {
	db := openTestDB(t)
	srv := New(db, nil, nil)

	rec := doRequest(t, srv, http.MethodGet, "/api/articles/missing")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestGetGradedLevel(t *testing.T) {
	db := openTestDB(t)
	a := seedArticle(t, db)
	seedResults(t, db, a.ID)
	srv := New(db, nil, nil)

	rec := doRequest(t, srv, http.MethodGet, "/api/articles/"+a.ID+"/grade/a2")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	var body struct {
		Level      string   `json:"level"`
		Content    string   `json:"content"`
		Sections   []string `json:"sections"`
		Annotation string   `json:"annotation"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if body.Level != "A2" || body.Content == "" {
		t.Errorf("body = %+v", body)
	}
	if len(body.Sections) != 2 {
		t.Errorf("sections = %v", body.Sections)
	}
	if body.Annotation == "" {
		t.Error("annotation missing")
	}
}

func TestGetGradedLevelMissingTier(t *testing.T) {
	db := openTestDB(t)
	a := seedArticle(t, db)
	srv := New(db, nil, nil)

	rec := doRequest(t, srv, http.MethodGet, "/api/articles/"+a.ID+"/grade/b2")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestGetGradedLevelInvalid(t *testing.T) {
	db := openTestDB(t)
	a := seedArticle(t, db)
	srv := New(db, nil, nil)

	rec := doRequest(t, srv, http.MethodGet, "/api/articles/"+a.ID+"/grade/hsk4")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestFetchUnconfigured(t *testing.T) {
	db := openTestDB(t)
	srv := New(db, nil, nil)

	rec := doRequest(t, srv, http.MethodPost, "/api/articles/fetch")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestReprocessUnconfigured(t *testing.T) {
	db := openTestDB(t)
	a := seedArticle(t, db)
	srv := New(db, nil, nil)

	rec := doRequest(t, srv, http.MethodPost, "/api/articles/"+a.ID+"/reprocess")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	db := openTestDB(t)
	srv := New(db, nil, nil)

	rec := doRequest(t, srv, http.MethodDelete, "/api/articles")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestCORSHeaders(t *testing.T) {
	db := openTestDB(t)
	srv := New(db, nil, nil)

	rec := doRequest(t, srv, http.MethodOptions, "/api/articles")
	if rec.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("missing CORS origin header")
	}

	rec = doRequest(t, srv, http.MethodGet, "/api/articles")
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("missing CORS header on normal response")
	}
}

func TestHealth(t *testing.T) {
	db := openTestDB(t)
	srv := New(db, nil, nil)

	rec := doRequest(t, srv, http.MethodGet, "/health")
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}
}
