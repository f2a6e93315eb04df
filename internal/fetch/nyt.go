package fetch

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"github.com/Colmmm/xuexinwen/internal/article"
)

const (
	nytHomeURL = "https://cn.nytimes.com/"
	nytFeedURL = "https://cn.nytimes.com/rss/"

	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
)

// NYTSource scrapes the NYT Chinese dual-language edition. Articles without
// a full parallel paragraph pairing are skipped.
type NYTSource struct {
	HomeURL     string
	FeedURL     string
	MaxArticles int
	Delay       time.Duration

	client *http.Client
}

// NewNYTSource creates the source with sane crawl defaults.
func NewNYTSource(maxArticles int) *NYTSource {
	if maxArticles <= 0 {
		maxArticles = 5
	}
	return &NYTSource{
		HomeURL:     nytHomeURL,
		FeedURL:     nytFeedURL,
		MaxArticles: maxArticles,
		Delay:       12 * time.Second,
		client:      &http.Client{Timeout: 15 * time.Second},
	}
}

// Name implements Source.
func (s *NYTSource) Name() string { return "nyt" }

// Fetch discovers article URLs (RSS first, homepage scrape as fallback),
// then scrapes each dual-language page. Per-article failures are logged and
// skipped.
func (s *NYTSource) Fetch(ctx context.Context) ([]*article.Article, error) {
	urls := s.discover(ctx)
	if len(urls) == 0 {
		return nil, fmt.Errorf("no article URLs discovered")
	}

	var articles []*article.Article
	for i, u := range urls {
		if len(articles) >= s.MaxArticles {
			break
		}
		if i > 0 && s.Delay > 0 {
			select {
			case <-ctx.Done():
				return articles, ctx.Err()
			case <-time.After(s.Delay):
			}
		}

		a, err := s.scrapeArticle(ctx, u)
		if err != nil {
			log.Printf("Skipping %s: %v", u, err)
			continue
		}
		articles = append(articles, a)
	}
	return articles, nil
}

// discover lists candidate dual-page URLs, newest first.
func (s *NYTSource) discover(ctx context.Context) []string {
	urls := s.discoverFeed(ctx)
	if len(urls) > 0 {
		return urls
	}
	log.Println("Feed discovery empty, scraping homepage...")
	return s.discoverHomepage(ctx)
}

func (s *NYTSource) discoverFeed(ctx context.Context) []string {
	parser := gofeed.NewParser()
	parser.UserAgent = userAgent

	feed, err := parser.ParseURLWithContext(s.FeedURL, ctx)
	if err != nil {
		log.Printf("Failed to parse feed %s: %v", s.FeedURL, err)
		return nil
	}

	var urls []string
	for _, item := range feed.Items {
		if item.Link == "" {
			continue
		}
		urls = append(urls, DualURL(item.Link))
	}
	return urls
}

func (s *NYTSource) discoverHomepage(ctx context.Context) []string {
	doc, err := s.get(ctx, s.HomeURL)
	if err != nil {
		log.Printf("Failed to fetch homepage: %v", err)
		return nil
	}

	var urls []string
	doc.Find(".regularSummaryHeadline a").Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok || href == "" {
			return
		}
		if strings.HasPrefix(href, "/") {
			href = strings.TrimSuffix(s.HomeURL, "/") + href
		}
		urls = append(urls, DualURL(href))
	})
	return urls
}

// DualURL canonicalizes an article URL to its dual-language variant.
func DualURL(u string) string {
	if !strings.HasSuffix(u, "/") {
		u += "/"
	}
	if !strings.HasSuffix(u, "dual/") {
		u += "dual/"
	}
	return u
}

func (s *NYTSource) scrapeArticle(ctx context.Context, articleURL string) (*article.Article, error) {
	doc, err := s.get(ctx, articleURL)
	if err != nil {
		return nil, err
	}
	return ParseDualPage(doc, articleURL)
}

// ParseDualPage extracts a bilingual article from a parsed dual-language
// page. Split out from scraping for testability against HTML fixtures.
func ParseDualPage(doc *goquery.Document, articleURL string) (*article.Article, error) {
	mandarinTitle := strings.TrimSpace(doc.Find("header h1:not([class])").First().Text())
	englishTitle := strings.TrimSpace(doc.Find("header h1.en-title").First().Text())
	if mandarinTitle == "" || englishTitle == "" {
		return nil, fmt.Errorf("missing bilingual titles")
	}

	var mandarin, english []string
	doc.Find("div.row.article-dual-body-item").Each(func(_ int, row *goquery.Selection) {
		cols := row.Find("div.col-lg-6")
		if cols.Length() != 2 {
			return
		}
		eng := strings.TrimSpace(cols.Eq(0).Find("div.article-paragraph").Text())
		mand := strings.TrimSpace(cols.Eq(1).Find("div.article-paragraph").Text())
		if eng != "" && mand != "" {
			english = append(english, eng)
			mandarin = append(mandarin, mand)
		}
	})
	if len(mandarin) == 0 {
		return nil, fmt.Errorf("no parallel paragraphs found")
	}

	a, err := article.New(article.MakeID(articleURL), articleURL, mandarin, english)
	if err != nil {
		return nil, err
	}

	a.Source = "nyt"
	a.MandarinTitle = mandarinTitle
	a.EnglishTitle = englishTitle
	a.Authors = parseAuthors(doc.Find("div.byline address").First().Text())

	if date, ok := doc.Find("time[datetime]").First().Attr("datetime"); ok {
		a.Date = date
	} else {
		a.Date = time.Now().Format(time.RFC3339)
	}
	if img, ok := doc.Find("figure.article-span-photo img").First().Attr("src"); ok {
		a.ImageURL = img
	}
	return a, nil
}

// parseAuthors splits a byline into author names.
func parseAuthors(byline string) []string {
	byline = strings.TrimSpace(byline)
	if byline == "" || byline == "No authors found" {
		return nil
	}
	byline = strings.ReplaceAll(byline, " and ", ", ")
	var authors []string
	for _, part := range strings.Split(byline, ",") {
		if name := strings.TrimSpace(part); name != "" {
			authors = append(authors, name)
		}
	}
	return authors
}

func (s *NYTSource) get(ctx context.Context, u string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	return goquery.NewDocumentFromReader(resp.Body)
}
