package segment

import (
	"reflect"
	"testing"
)

func newTestSegmenter(t *testing.T, lexicon []string) *Segmenter {
	t.Helper()
	s, err := New(lexicon)
	if err != nil {
		t.Fatalf("building segmenter: %v", err)
	}
	return s
}

func TestSegmentLongestMatch(t *testing.T) {
	s := newTestSegmenter(t, []string{"音", "樂", "音樂", "應用", "程序", "應用程序"})

	got := s.Segment("音樂應用程序", nil)
	want := []string{"音樂", "應用程序"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Segment = %v, want %v", got, want)
	}
}

func TestSegmentExtraVocabularyTakesPriority(t *testing.T) {
	s := newTestSegmenter(t, []string{"音樂", "應用", "程序"})

	got := s.Segment("音樂應用程序很好用", []string{"音樂應用程序"})
	if got[0] != "音樂應用程序" {
		t.Errorf("expected extra vocabulary kept whole, got %v", got)
	}
}

func TestSegmentExtraVocabularyDoesNotLeak(t *testing.T) {
	s := newTestSegmenter(t, []string{"音樂", "應用", "程序"})

	s.Segment("音樂應用程序", []string{"音樂應用程序"})
	got := s.Segment("音樂應用程序", nil)
	want := []string{"音樂", "應用", "程序"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("extra vocabulary leaked into later call: %v, want %v", got, want)
	}
}

func TestSegmentFallbackPerRune(t *testing.T) {
	s := newTestSegmenter(t, []string{"學習"})

	got := s.Segment("學習斡旋", nil)
	want := []string{"學習", "斡", "旋"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Segment = %v, want %v", got, want)
	}
}

func TestSegmentLatinAndDigitRunsStayWhole(t *testing.T) {
	s := newTestSegmenter(t, []string{"公司"})

	got := s.Segment("OpenAI公司2024年", nil)
	want := []string{"OpenAI", "公司", "2024", "年"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Segment = %v, want %v", got, want)
	}
}

func TestSegmentDropsPunctuation(t *testing.T) {
	s := newTestSegmenter(t, []string{"你好"})

	got := s.Segment("你好，世界！", nil)
	want := []string{"你好", "世", "界"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Segment = %v, want %v", got, want)
	}
}

func TestSegmentEmptyText(t *testing.T) {
	s := newTestSegmenter(t, []string{"你好"})
	if got := s.Segment("", nil); got != nil {
		t.Errorf("expected nil for empty text, got %v", got)
	}
}

func TestSegmentEmptyLexicon(t *testing.T) {
	s := newTestSegmenter(t, nil)
	got := s.Segment("你好", nil)
	want := []string{"你", "好"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Segment = %v, want %v", got, want)
	}
}
