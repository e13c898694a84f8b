package store

import (
	"path/filepath"
	"testing"

	"github.com/dup0630/param-ext-mcgill-phac/internal/adapter/docint"
	"github.com/dup0630/param-ext-mcgill-phac/internal/domain"
)

func testLayout() *domain.Layout {
	return &domain.Layout{
		Text:       "page text\n",
		Tables:     []string{`[{"0":"a"}]`},
		Paragraphs: []string{"first", "second"},
		Sections:   []domain.Section{{Elements: []string{"/paragraphs/0", "/paragraphs/1"}}},
	}
}

func TestLayoutCacheRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "layouts.db")
	hash := ComputeConfigHash("2024-11-30")

	c, err := NewLayoutCache(path, hash)
	if err != nil {
		t.Fatalf("NewLayoutCache: %v", err)
	}
	defer c.Close()

	if _, hit, err := c.Get("75.pdf"); err != nil || hit {
		t.Fatalf("expected clean miss, hit=%v err=%v", hit, err)
	}

	if err := c.Put("75.pdf", testLayout()); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, hit, err := c.Get("75.pdf")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !hit {
		t.Fatal("expected hit after Put")
	}
	if got.Text != "page text\n" || len(got.Paragraphs) != 2 || len(got.Sections) != 1 {
		t.Errorf("layout mangled: %+v", got)
	}

	n, err := c.Count()
	if err != nil || n != 1 {
		t.Errorf("Count = %d, err %v", n, err)
	}
}

func TestLayoutCacheDropsOnConfigChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "layouts.db")

	c, err := NewLayoutCache(path, ComputeConfigHash("2024-11-30"))
	if err != nil {
		t.Fatalf("NewLayoutCache: %v", err)
	}
	if err := c.Put("75.pdf", testLayout()); err != nil {
		t.Fatalf("Put: %v", err)
	}
	c.Close()

	// Reopen under a different analysis API version.
	c, err = NewLayoutCache(path, ComputeConfigHash("2099-01-01"))
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer c.Close()

	if _, hit, err := c.Get("75.pdf"); err != nil || hit {
		t.Errorf("expected stale layout dropped, hit=%v err=%v", hit, err)
	}
}

func TestLayoutCacheSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "layouts.db")
	hash := ComputeConfigHash("2024-11-30")

	c, err := NewLayoutCache(path, hash)
	if err != nil {
		t.Fatalf("NewLayoutCache: %v", err)
	}
	if err := c.Put("88.pdf", testLayout()); err != nil {
		t.Fatalf("Put: %v", err)
	}
	c.Close()

	c, err = NewLayoutCache(path, hash)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer c.Close()

	if _, hit, err := c.Get("88.pdf"); err != nil || !hit {
		t.Errorf("expected layout to survive reopen, hit=%v err=%v", hit, err)
	}
}

func TestCachingAnalyzerCallsInnerOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "layouts.db")
	c, err := NewLayoutCache(path, ComputeConfigHash("2024-11-30"))
	if err != nil {
		t.Fatalf("NewLayoutCache: %v", err)
	}
	defer c.Close()

	mock := &docint.MockAnalyzer{Layouts: map[string]*domain.Layout{"75.pdf": testLayout()}}
	analyzer := NewCachingAnalyzer(mock, c)

	for i := 0; i < 3; i++ {
		layout, err := analyzer.Analyze("75.pdf", []byte("%PDF-"))
		if err != nil {
			t.Fatalf("Analyze %d: %v", i, err)
		}
		if layout.Text != "page text\n" {
			t.Errorf("layout text = %q", layout.Text)
		}
	}

	if mock.Calls != 1 {
		t.Errorf("inner analyzer called %d times, want 1", mock.Calls)
	}
}
