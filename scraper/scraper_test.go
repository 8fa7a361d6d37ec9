package scraper

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/go-rod/rod/lib/proto"
	"github.com/use-agent/notemedia/config"
	"github.com/use-agent/notemedia/models"
)

func TestIsTrackerDomain(t *testing.T) {
	tests := []struct {
		host string
		want bool
	}{
		{"hm.baidu.com", true},
		{"www.google-analytics.com", true},
		{"APM-FE.xiaohongshu.com", true},
		{"www.xiaohongshu.com", false},
		{"sns-webpic-qc.xhscdn.com", false},
		{"baidu.com", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := isTrackerDomain(tt.host); got != tt.want {
			t.Errorf("isTrackerDomain(%q) = %v, want %v", tt.host, got, tt.want)
		}
	}
}

func TestBlockedSet(t *testing.T) {
	got := blockedSet([]string{"Image", "Font", "Bogus"})
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if _, ok := got[proto.NetworkResourceTypeImage]; !ok {
		t.Error("Image missing")
	}
	if _, ok := got[proto.NetworkResourceTypeMedia]; ok {
		t.Error("Media must not be blocked unless configured")
	}
}

func TestCategorizeError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code string
	}{
		{"deadline", fmt.Errorf("wrap: %w", context.DeadlineExceeded), models.ErrCodeTimeout},
		{"canceled", context.Canceled, models.ErrCodeTimeout},
		{"other", errors.New("net::ERR_NAME_NOT_RESOLVED"), models.ErrCodeNavigation},
		{"typed", fmt.Errorf("rod: %w", models.NewMediaError(models.ErrCodeBrowserCrash, "gone", nil)), models.ErrCodeBrowserCrash},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := categorizeError(tt.err, "msg"); got.Code != tt.code {
				t.Errorf("code = %s, want %s", got.Code, tt.code)
			}
		})
	}
}

func TestClampTimeout(t *testing.T) {
	s := &Scraper{scraperCfg: config.ScraperConfig{DefaultTimeout: 30 * time.Second, MaxTimeout: 60 * time.Second}}
	tests := map[int]time.Duration{
		0:   30 * time.Second,
		10:  10 * time.Second,
		120: 60 * time.Second,
	}
	for in, want := range tests {
		if got := s.clampTimeout(in); got != want {
			t.Errorf("clampTimeout(%d) = %v, want %v", in, got, want)
		}
	}
}
