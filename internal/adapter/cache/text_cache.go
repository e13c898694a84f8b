package cache

import (
	"fmt"
	"os"
	"path/filepath"
)

// TextCache persists extracted document text as {dir}/{paperID}.txt.
// Presence of the file is the hit signal; there is no expiry, since a
// paper's text never changes and re-analysis costs money.
type TextCache struct {
	dir string
}

func NewTextCache(dir string) (*TextCache, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory %s: %w", dir, err)
	}
	return &TextCache{dir: dir}, nil
}

func (c *TextCache) Path(paperID string) string {
	return filepath.Join(c.dir, paperID+".txt")
}

func (c *TextCache) Get(paperID string) (string, bool, error) {
	data, err := os.ReadFile(c.Path(paperID))
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to read cached text for %s: %w", paperID, err)
	}
	return string(data), true, nil
}

func (c *TextCache) Put(paperID, text string) error {
	if err := os.WriteFile(c.Path(paperID), []byte(text), 0644); err != nil {
		return fmt.Errorf("failed to cache text for %s: %w", paperID, err)
	}
	return nil
}
