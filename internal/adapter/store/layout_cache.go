package store

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/dup0630/param-ext-mcgill-phac/internal/domain"
	"github.com/dup0630/param-ext-mcgill-phac/internal/port"
)

// CurrentSchemaVersion is the stored layout format version.
// Increment this when making breaking changes to the storage format.
const CurrentSchemaVersion = 1

var (
	bucketLayouts    = []byte("layouts")
	bucketMeta       = []byte("meta")
	keySchemaVersion = []byte("schema_version")
	keyConfigHash    = []byte("config_hash")
)

// LayoutCache stores document-analysis results keyed by paper id so that
// re-indexing a corpus does not repeat paid analysis calls. A schema
// version or analysis-config mismatch drops the whole bucket: stale
// layouts are worse than re-analysis.
type LayoutCache struct {
	db *bbolt.DB
}

// ComputeConfigHash fingerprints the analysis configuration. A layout
// produced under a different API version is not reused.
func ComputeConfigHash(apiVersion string) string {
	relevant := struct {
		Model      string `json:"model"`
		APIVersion string `json:"api_version"`
	}{
		Model:      "prebuilt-layout",
		APIVersion: apiVersion,
	}

	data, _ := json.Marshal(relevant)
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:8])
}

func NewLayoutCache(path, configHash string) (*LayoutCache, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open layout cache: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		meta, err := tx.CreateBucketIfNotExists(bucketMeta)
		if err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", bucketMeta, err)
		}

		storedVersion := 0
		if data := meta.Get(keySchemaVersion); data != nil {
			if err := json.Unmarshal(data, &storedVersion); err != nil {
				storedVersion = 0
			}
		}
		storedHash := string(meta.Get(keyConfigHash))

		if storedVersion != CurrentSchemaVersion || storedHash != configHash {
			if tx.Bucket(bucketLayouts) != nil {
				if err := tx.DeleteBucket(bucketLayouts); err != nil {
					return fmt.Errorf("failed to drop stale layouts: %w", err)
				}
			}
			versionData, err := json.Marshal(CurrentSchemaVersion)
			if err != nil {
				return err
			}
			if err := meta.Put(keySchemaVersion, versionData); err != nil {
				return err
			}
			if err := meta.Put(keyConfigHash, []byte(configHash)); err != nil {
				return err
			}
		}

		if _, err := tx.CreateBucketIfNotExists(bucketLayouts); err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", bucketLayouts, err)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &LayoutCache{db: db}, nil
}

func (s *LayoutCache) Get(paperID string) (*domain.Layout, bool, error) {
	var layout *domain.Layout
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketLayouts).Get([]byte(paperID))
		if data == nil {
			return nil
		}
		var l domain.Layout
		if err := json.Unmarshal(data, &l); err != nil {
			return fmt.Errorf("failed to decode cached layout for %s: %w", paperID, err)
		}
		layout = &l
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return layout, layout != nil, nil
}

func (s *LayoutCache) Put(paperID string, layout *domain.Layout) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		data, err := json.Marshal(layout)
		if err != nil {
			return fmt.Errorf("failed to encode layout for %s: %w", paperID, err)
		}
		return tx.Bucket(bucketLayouts).Put([]byte(paperID), data)
	})
}

func (s *LayoutCache) Count() (int, error) {
	count := 0
	err := s.db.View(func(tx *bbolt.Tx) error {
		count = tx.Bucket(bucketLayouts).Stats().KeyN
		return nil
	})
	return count, err
}

func (s *LayoutCache) Close() error {
	return s.db.Close()
}

// CachingAnalyzer serves layouts from the cache and delegates misses to
// the wrapped analyzer.
type CachingAnalyzer struct {
	inner port.Analyzer
	cache *LayoutCache
}

func NewCachingAnalyzer(inner port.Analyzer, cache *LayoutCache) *CachingAnalyzer {
	return &CachingAnalyzer{inner: inner, cache: cache}
}

func (a *CachingAnalyzer) Analyze(paperID string, pdf []byte) (*domain.Layout, error) {
	layout, hit, err := a.cache.Get(paperID)
	if err != nil {
		return nil, err
	}
	if hit {
		return layout, nil
	}

	layout, err = a.inner.Analyze(paperID, pdf)
	if err != nil {
		return nil, err
	}
	if err := a.cache.Put(paperID, layout); err != nil {
		return nil, err
	}
	return layout, nil
}
