package main

import (
	"testing"

	"github.com/Colmmm/xuexinwen/internal/config"
)

func TestNewFetcherHonorsSourceEnabled(t *testing.T) {
	orig := cfg
	t.Cleanup(func() { cfg = orig })

	cfg = &config.Config{}
	cfg.Sources.NYT.MaxArticles = 3

	if names := newFetcher().Names(); len(names) != 0 {
		t.Errorf("disabled source still registered: %v", names)
	}

	cfg.Sources.NYT.Enabled = true
	names := newFetcher().Names()
	if len(names) != 1 || names[0] != "nyt" {
		t.Errorf("sources = %v, want [nyt]", names)
	}
}
