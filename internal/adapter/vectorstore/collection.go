package vectorstore

import (
	"context"
	"fmt"

	"github.com/hupe1980/vecgo"
	"github.com/hupe1980/vecgo/metadata"

	"github.com/dup0630/param-ext-mcgill-phac/internal/adapter/cache"
	"github.com/dup0630/param-ext-mcgill-phac/internal/domain"
	"github.com/dup0630/param-ext-mcgill-phac/internal/port"
)

const metadataPaperID = "paper_id"

// ChunkData is the payload stored with every vector.
type ChunkData struct {
	ChunkID string `json:"chunk_id"`
	PaperID string `json:"paper_id"`
	Index   int    `json:"index"`
	Text    string `json:"text"`
}

// Collection is an embedded exact-search vector index over document
// section chunks, scoped by paper id metadata. It is built empty by Reset
// and lives for one corpus run; snapshots can be reopened read-only.
type Collection struct {
	embedder   port.Embedder
	queryCache *cache.EmbedCache
	vg         *vecgo.Vecgo[ChunkData]
	ids        map[string]uint64 // chunk id -> vector id
	perPaper   map[string]int
	metric     domain.Distance
	readOnly   bool
}

func New(embedder port.Embedder) *Collection {
	return &Collection{
		embedder:   embedder,
		queryCache: cache.NewEmbedCache(256),
	}
}

// OpenSnapshot loads a saved index for querying. The mapping from chunk
// ids to vector ids is not persisted, so a reopened collection rejects
// inserts.
func OpenSnapshot(embedder port.Embedder, path string) (*Collection, error) {
	vg, err := vecgo.NewFromFile[ChunkData](path)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot %s: %w", path, err)
	}
	return &Collection{
		embedder:   embedder,
		queryCache: cache.NewEmbedCache(256),
		vg:         vg,
		ids:        make(map[string]uint64),
		perPaper:   make(map[string]int),
		readOnly:   true,
	}, nil
}

// Reset destroys the collection and recreates it empty. The distance
// metric is fixed until the next Reset.
func (c *Collection) Reset(metric domain.Distance) error {
	builder := vecgo.Flat[ChunkData](c.embedder.Dimension())
	switch metric {
	case domain.DistanceL2:
		builder = builder.SquaredL2()
	case domain.DistanceDot:
		builder = builder.DotProduct()
	default:
		builder = builder.Cosine()
		metric = domain.DistanceCosine
	}

	vg, err := builder.Build()
	if err != nil {
		return fmt.Errorf("failed to build index: %w", err)
	}

	c.vg = vg
	c.ids = make(map[string]uint64)
	c.perPaper = make(map[string]int)
	c.metric = metric
	c.readOnly = false
	return nil
}

// Insert embeds the chunks and stores them under ids derived from
// (paperID, index). Re-inserting an existing id updates the stored vector
// and text instead of duplicating them.
func (c *Collection) Insert(paperID string, chunks []string, indices []int) error {
	if c.vg == nil {
		return fmt.Errorf("collection not initialized: call Reset first")
	}
	if c.readOnly {
		return fmt.Errorf("snapshot collections are read-only")
	}
	if len(chunks) == 0 {
		return nil
	}
	if indices == nil {
		indices = make([]int, len(chunks))
		for i := range chunks {
			indices[i] = i
		}
	}
	if len(indices) != len(chunks) {
		return fmt.Errorf("got %d indices for %d chunks", len(indices), len(chunks))
	}

	vectors, err := c.embedder.Embed(chunks)
	if err != nil {
		return fmt.Errorf("failed to embed chunks for %s: %w", paperID, err)
	}
	if len(vectors) != len(chunks) {
		return fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), len(chunks))
	}

	ctx := context.Background()
	for i, chunk := range chunks {
		chunkID := domain.ChunkID(paperID, indices[i])
		item := vecgo.VectorWithData[ChunkData]{
			Vector: vectors[i],
			Data: ChunkData{
				ChunkID: chunkID,
				PaperID: paperID,
				Index:   indices[i],
				Text:    chunk,
			},
			Metadata: metadata.Metadata{
				metadataPaperID: metadata.String(paperID),
			},
		}

		if id, exists := c.ids[chunkID]; exists {
			if err := c.vg.Update(ctx, id, item); err != nil {
				return fmt.Errorf("failed to update %s: %w", chunkID, err)
			}
			continue
		}

		id, err := c.vg.Insert(ctx, item)
		if err != nil {
			return fmt.Errorf("failed to insert %s: %w", chunkID, err)
		}
		c.ids[chunkID] = id
		c.perPaper[paperID]++
	}

	return nil
}

// Query returns, for each query text independently, the k nearest chunks
// restricted to the given paper. Papers with fewer than k chunks yield
// all of them; papers with none yield an empty slice.
func (c *Collection) Query(queryTexts []string, paperID string, k int) ([][]domain.Hit, error) {
	if c.vg == nil {
		return nil, fmt.Errorf("collection not initialized: call Reset first")
	}
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive, got %d", k)
	}

	vectors, err := c.embedQueries(queryTexts)
	if err != nil {
		return nil, err
	}

	// The filtered search path requires EF >= k and defaults to a value
	// that small k would violate.
	ef := k
	if ef < 64 {
		ef = 64
	}

	filter := metadata.NewFilterSet(metadata.Filter{
		Key:      metadataPaperID,
		Operator: metadata.OpEqual,
		Value:    metadata.String(paperID),
	})

	ctx := context.Background()
	results := make([][]domain.Hit, len(queryTexts))
	for i, vector := range vectors {
		found, err := c.vg.Search(vector).
			KNN(k).
			EF(ef).
			WithMetadata(filter).
			Execute(ctx)
		if err != nil {
			return nil, fmt.Errorf("search failed for %q: %w", queryTexts[i], err)
		}

		hits := make([]domain.Hit, 0, len(found))
		for _, r := range found {
			hits = append(hits, domain.Hit{
				Chunk: domain.Chunk{
					ID:      r.Data.ChunkID,
					PaperID: r.Data.PaperID,
					Index:   r.Data.Index,
					Text:    r.Data.Text,
				},
				Score: r.Distance,
			})
		}
		results[i] = hits
	}

	return results, nil
}

func (c *Collection) embedQueries(texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	var missing []string
	var missingIdx []int

	for i, text := range texts {
		if v, ok := c.queryCache.Get(text); ok {
			vectors[i] = v
			continue
		}
		missing = append(missing, text)
		missingIdx = append(missingIdx, i)
	}

	if len(missing) > 0 {
		embedded, err := c.embedder.Embed(missing)
		if err != nil {
			return nil, fmt.Errorf("failed to embed queries: %w", err)
		}
		if len(embedded) != len(missing) {
			return nil, fmt.Errorf("embedder returned %d vectors for %d queries", len(embedded), len(missing))
		}
		for j, v := range embedded {
			vectors[missingIdx[j]] = v
			c.queryCache.Put(missing[j], v)
		}
	}

	return vectors, nil
}

// Count returns the number of stored chunks.
func (c *Collection) Count() int {
	return len(c.ids)
}

// CountPaper returns the number of stored chunks for one paper.
func (c *Collection) CountPaper(paperID string) int {
	return c.perPaper[paperID]
}

// SaveToFile snapshots the index for the query command.
func (c *Collection) SaveToFile(path string) error {
	if c.vg == nil {
		return fmt.Errorf("collection not initialized: call Reset first")
	}
	if err := c.vg.SaveToFile(path); err != nil {
		return fmt.Errorf("failed to save snapshot %s: %w", path, err)
	}
	return nil
}
