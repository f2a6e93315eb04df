package fetch

import (
	"reflect"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

const dualPageHTML = `<!DOCTYPE html>
<html>
<body>
<header>
  <h1>中文標題</h1>
  <h1 class="en-title">English Title</h1>
  <div class="byline"><address>张三 and 李四</address></div>
  <time datetime="2024-06-01T08:00:00Z">June 1, 2024</time>
</header>
<figure class="article-span-photo"><img src="https://static.example.com/photo.jpg"></figure>
<div class="row article-dual-body-item">
  <div class="col-lg-6"><div class="article-paragraph">First paragraph in English.</div></div>
  <div class="col-lg-6"><div class="article-paragraph">中文第一段。</div></div>
</div>
<div class="row article-dual-body-item">
  <div class="col-lg-6"><div class="article-paragraph">Second paragraph in English.</div></div>
  <div class="col-lg-6"><div class="article-paragraph">中文第二段。</div></div>
</div>
<div class="row article-dual-body-item">
  <div class="col-lg-6"><div class="article-paragraph"></div></div>
  <div class="col-lg-6"><div class="article-paragraph">沒有譯文的段落。</div></div>
</div>
</body>
</html>`

func parseFixture(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("parsing fixture: %v", err)
	}
	return doc
}

func TestParseDualPage(t *testing.T) {
	doc := parseFixture(t, dualPageHTML)
	a, err := ParseDualPage(doc, "https://cn.nytimes.com/world/20240601/test/dual/")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if a.MandarinTitle != "中文標題" || a.EnglishTitle != "English Title" {
		t.Errorf("titles = %q %q", a.MandarinTitle, a.EnglishTitle)
	}
	if a.Source != "nyt" {
		t.Errorf("source = %q", a.Source)
	}

	// Rows missing either side are dropped; parity holds.
	if a.SectionCount() != 2 {
		t.Fatalf("expected 2 aligned sections, got %d", a.SectionCount())
	}
	mand, eng, err := a.Section(0)
	if err != nil {
		t.Fatal(err)
	}
	if mand != "中文第一段。" || eng != "First paragraph in English." {
		t.Errorf("Section(0) = %q %q", mand, eng)
	}

	if !reflect.DeepEqual(a.Authors, []string{"张三", "李四"}) {
		t.Errorf("authors = %v", a.Authors)
	}
	if a.Date != "2024-06-01T08:00:00Z" {
		t.Errorf("date = %q", a.Date)
	}
	if a.ImageURL != "https://static.example.com/photo.jpg" {
		t.Errorf("image = %q", a.ImageURL)
	}
	if a.ID == "" || a.ID[0] != 'a' {
		t.Errorf("unexpected ID %q", a.ID)
	}
}

func TestParseDualPageMissingTitles(t *testing.T) {
	doc := parseFixture(t, "<html><body><header><h1>只有中文</h1></header></body></html>")
	if _, err := ParseDualPage(doc, "https://example.com/"); err == nil {
		t.Error("expected error for missing English title")
	}
}

func TestParseDualPageNoParagraphs(t *testing.T) {
	doc := parseFixture(t, `<html><body><header>
		<h1>中文標題</h1><h1 class="en-title">English Title</h1>
	</header></body></html>`)
	if _, err := ParseDualPage(doc, "https://example.com/"); err == nil {
		t.Error("expected error without parallel paragraphs")
	}
}

func TestDualURL(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"https://cn.nytimes.com/world/20240601/test", "https://cn.nytimes.com/world/20240601/test/dual/"},
		{"https://cn.nytimes.com/world/20240601/test/", "https://cn.nytimes.com/world/20240601/test/dual/"},
		{"https://cn.nytimes.com/world/20240601/test/dual/", "https://cn.nytimes.com/world/20240601/test/dual/"},
	}
	for _, c := range cases {
		if got := DualURL(c.in); got != c.want {
			t.Errorf("DualURL(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestParseAuthors(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"张三 and 李四", []string{"张三", "李四"}},
		{"张三, 李四, 王五", []string{"张三", "李四", "王五"}},
		{"张三", []string{"张三"}},
		{"", nil},
		{"No authors found", nil},
	}
	for _, c := range cases {
		if got := parseAuthors(c.in); !reflect.DeepEqual(got, c.want) {
			t.Errorf("parseAuthors(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}
