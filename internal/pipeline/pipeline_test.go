package pipeline

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Colmmm/xuexinwen/internal/article"
	"github.com/Colmmm/xuexinwen/internal/database"
	"github.com/Colmmm/xuexinwen/internal/dict"
	"github.com/Colmmm/xuexinwen/internal/entity"
	"github.com/Colmmm/xuexinwen/internal/levels"
	"github.com/Colmmm/xuexinwen/internal/segment"
	"github.com/Colmmm/xuexinwen/internal/simplify"
)

// scriptedProvider answers each stage's request by prompt content.
type scriptedProvider struct {
	entities string
	rewrites string
	words    string
}

func (p *scriptedProvider) Generate(_ context.Context, prompt string, _ int) (string, error) {
	switch {
	case strings.Contains(prompt, "extract named entities"):
		return p.entities, nil
	case strings.Contains(prompt, "simplifying a Chinese news article"):
		return p.rewrites, nil
	default:
		return p.words, nil
	}
}

func (p *scriptedProvider) IsConfigured() bool { return true }

func openTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func newTestPipeline(t *testing.T, db *database.DB, provider *scriptedProvider) *Pipeline {
	t.Helper()
	store, err := dict.Load(strings.NewReader("學習,学习,B1\n喜歡,喜欢,A1\n我,我,A0\n"))
	if err != nil {
		t.Fatal(err)
	}
	segmenter, err := segment.New(store.Words())
	if err != nil {
		t.Fatal(err)
	}
	return &Pipeline{
		db:         db,
		provider:   provider,
		store:      store,
		segmenter:  segmenter,
		classifier: levels.NewClassifier(store, levels.NewLLMClassifier(provider)),
		extractor:  entity.NewExtractor(provider),
		simplifier: simplify.New(provider, []levels.Level{levels.A2}),
	}
}

func testArticle(t *testing.T) *article.Article {
	t.Helper()
	a, err := article.New(article.MakeID("https://example.com/one"), "https://example.com/one",
		[]string{"我喜歡學習。", "馬斯克也喜歡學習。"},
		[]string{"I like studying.", "Musk also likes studying."})
	if err != nil {
		t.Fatal(err)
	}
	return a
}

func TestProcessArticle(t *testing.T) {
	db := openTestDB(t)
	a := testArticle(t)
	if err := db.UpsertArticle(a); err != nil {
		t.Fatal(err)
	}

	provider := &scriptedProvider{
		entities: `[{"word": "馬斯克", "type": "person", "english": "Elon Musk"}]`,
		rewrites: `{"A2": ["我喜歡學習。", "他也喜歡學習。"]}`,
		words:    `{"馬斯克": "C1"}`,
	}
	pipe := newTestPipeline(t, db, provider)

	results, err := pipe.ProcessArticle(context.Background(), a)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if results.Entities[entity.CategoryNames]["馬斯克"] != "Elon Musk" {
		t.Errorf("entities = %v", results.Entities)
	}
	if results.WordLevels["學習"] != levels.B1 {
		t.Errorf("expected 學習 from dictionary at B1, got %v", results.WordLevels["學習"])
	}
	if results.WordLevels["馬斯克"] != levels.C1 {
		t.Errorf("expected fallback level for 馬斯克, got %v", results.WordLevels["馬斯克"])
	}
	if _, ok := results.Graded[levels.A2]; !ok {
		t.Errorf("expected A2 rewrite stored, got %v", results.Graded)
	}

	native := results.Annotations["native"]
	if !strings.Contains(native, `data-definition="Elon Musk"`) {
		t.Errorf("native annotation missing entity gloss: %s", native)
	}
	if !strings.Contains(native, `<span class="word-b1">學習</span>`) {
		t.Errorf("native annotation missing B1 span: %s", native)
	}
	if _, ok := results.Annotations["a2"]; !ok {
		t.Errorf("expected annotation for graded tier, got %v", results.Annotations)
	}

	// Entity names stay whole even though they are outside the lexicon.
	if strings.Contains(native, `>馬<`) {
		t.Errorf("entity name was split: %s", native)
	}

	processed, err := db.IsProcessed(a.ID)
	if err != nil || !processed {
		t.Errorf("expected article marked processed, got %v %v", processed, err)
	}
}

func TestProcessArticleDegradedLLM(t *testing.T) {
	db := openTestDB(t)
	a := testArticle(t)
	if err := db.UpsertArticle(a); err != nil {
		t.Fatal(err)
	}

	// Model replies with junk at every stage: processing still completes.
	provider := &scriptedProvider{entities: "no json", rewrites: "no json", words: "no json"}
	pipe := newTestPipeline(t, db, provider)

	results, err := pipe.ProcessArticle(context.Background(), a)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if results.Entities.Count() != 0 {
		t.Errorf("expected no entities, got %v", results.Entities)
	}
	if len(results.Graded) != 0 {
		t.Errorf("expected no graded tiers, got %v", results.Graded)
	}
	if results.WordLevels["馬"] != levels.Unknown {
		t.Errorf("expected unresolved word at unknown, got %v", results.WordLevels["馬"])
	}
	if results.Annotations["native"] == "" {
		t.Error("native annotation should still be produced")
	}
}

func TestProcessBatch(t *testing.T) {
	db := openTestDB(t)
	a := testArticle(t)
	if err := db.UpsertArticle(a); err != nil {
		t.Fatal(err)
	}

	provider := &scriptedProvider{
		entities: `[]`,
		rewrites: `{"A2": ["我喜歡學習。", "他也喜歡學習。"]}`,
		words:    `{}`,
	}
	pipe := newTestPipeline(t, db, provider)

	result, err := pipe.ProcessBatch(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Processed != 1 || result.Failed != 0 {
		t.Errorf("result = %+v", result)
	}

	pending, err := db.GetUnprocessed()
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 0 {
		t.Errorf("expected nothing pending, got %d", len(pending))
	}
}
