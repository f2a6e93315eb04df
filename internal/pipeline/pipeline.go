// Package pipeline orchestrates article processing: entity extraction,
// graded rewrites, segmentation, level tagging, and HTML annotation.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/Colmmm/xuexinwen/internal/article"
	"github.com/Colmmm/xuexinwen/internal/config"
	"github.com/Colmmm/xuexinwen/internal/database"
	"github.com/Colmmm/xuexinwen/internal/dict"
	"github.com/Colmmm/xuexinwen/internal/entity"
	"github.com/Colmmm/xuexinwen/internal/levels"
	"github.com/Colmmm/xuexinwen/internal/llm"
	"github.com/Colmmm/xuexinwen/internal/markup"
	"github.com/Colmmm/xuexinwen/internal/segment"
	"github.com/Colmmm/xuexinwen/internal/simplify"
)

// BatchResult summarizes a multi-article processing run.
type BatchResult struct {
	Processed int
	Failed    int
}

// Pipeline runs the full annotation flow for one article at a time.
type Pipeline struct {
	cfg        *config.Config
	db         *database.DB
	provider   llm.Provider
	store      *dict.Store
	segmenter  *segment.Segmenter
	classifier *levels.Classifier
	extractor  *entity.Extractor
	simplifier *simplify.Simplifier
}

// New wires up the pipeline from config: dictionary, segmenter, classifier
// with LLM fallback, entity extractor, and simplifier.
func New(cfg *config.Config, db *database.DB) (*Pipeline, error) {
	store, err := dict.LoadFile(cfg.Dictionary.Path)
	if err != nil {
		return nil, fmt.Errorf("loading dictionary: %w", err)
	}

	segmenter, err := segment.New(store.Words())
	if err != nil {
		return nil, fmt.Errorf("building segmenter: %w", err)
	}

	provider := llm.CreateProvider(
		cfg.LLM.Provider,
		cfg.LLM.Model,
		cfg.LLM.OllamaURL,
		cfg.LLM.OpenRouterModel,
		cfg.LLM.APIKeyEnv,
		cfg.LLM.Referer,
	)

	simplifier := simplify.New(provider, cfg.TargetLevels())
	if cfg.LLM.MaxTokens > 0 {
		simplifier.MaxTokens = cfg.LLM.MaxTokens
	}

	return &Pipeline{
		cfg:        cfg,
		db:         db,
		provider:   provider,
		store:      store,
		segmenter:  segmenter,
		classifier: levels.NewClassifier(store, levels.NewLLMClassifier(provider)),
		extractor:  entity.NewExtractor(provider),
		simplifier: simplifier,
	}, nil
}

// ProcessArticle runs the full flow for one article and persists the results.
func (p *Pipeline) ProcessArticle(ctx context.Context, a *article.Article) (*database.Results, error) {
	log.Printf("Processing article %s (%s)", a.ID, a.MandarinTitle)

	// Step 1: named entities, shared by every variant.
	entities := p.extractor.Extract(ctx, a.MandarinContent, a.EnglishContent)
	extra := entities.Flatten()
	log.Printf("  extracted %d entities", entities.Count())

	// Step 2: graded rewrites for the configured tiers.
	simp := p.simplifier.Simplify(ctx, a)
	if simp.TiersDropped > 0 {
		log.Printf("  dropped %d tiers with mismatched sections", simp.TiersDropped)
	}
	log.Printf("  simplified into %d tiers", simp.TiersAdded)

	// Step 3: segment, classify, and annotate each variant.
	results := &database.Results{
		Entities:    entities,
		WordLevels:  make(map[string]levels.Level),
		Graded:      make(map[levels.Level]string),
		Annotations: make(map[string]string),
	}

	p.annotateVariant(ctx, results, markup.VariantNative, a.MandarinContent, extra, entities)
	for tier, content := range a.GradedContent {
		results.Graded[tier] = content
		p.annotateVariant(ctx, results, strings.ToLower(string(tier)), content, extra, entities)
	}

	if err := p.db.SaveResults(a.ID, results); err != nil {
		return nil, fmt.Errorf("saving results for %s: %w", a.ID, err)
	}
	return results, nil
}

// ProcessBatch processes every unprocessed article in the database. A failure
// on one article does not stop the rest.
func (p *Pipeline) ProcessBatch(ctx context.Context) (*BatchResult, error) {
	articles, err := p.db.GetUnprocessed()
	if err != nil {
		return nil, fmt.Errorf("listing unprocessed articles: %w", err)
	}

	result := &BatchResult{}
	for _, a := range articles {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		if _, err := p.ProcessArticle(ctx, a); err != nil {
			log.Printf("Failed to process %s: %v", a.ID, err)
			result.Failed++
			continue
		}
		result.Processed++
	}
	return result, nil
}

func (p *Pipeline) annotateVariant(ctx context.Context, results *database.Results, variant, content string, extra []string, entities entity.Table) {
	tokens := p.segmenter.Segment(content, extra)
	levelMap, _ := p.classifier.Classify(ctx, tokens)
	for word, level := range levelMap {
		if _, seen := results.WordLevels[word]; !seen {
			results.WordLevels[word] = level
		}
	}
	results.Annotations[variant] = markup.Annotate(tokens, levelMap, entities)
}
