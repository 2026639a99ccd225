package milvus

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/milvus-io/milvus-sdk-go/v2/entity"

	"github.com/tunogya/soicau/pkg/model"
)

const (
	// DefaultCollectionName is the default collection name for run pair profiles
	DefaultCollectionName = "pair_profiles"

	fieldRunID        = "run_id"
	fieldEmbedding    = "embedding"
	fieldTableName    = "table_name"
	fieldCreatedAt    = "created_at"
	fieldPatternCount = "pattern_count"
	fieldExactMatch   = "exact_match"
)

// CollectionConfig holds configuration for creating a collection
type CollectionConfig struct {
	Name      string
	Dimension int
	Shards    int
	NList     int // IVF cluster count
	NProbe    int // clusters visited per search
}

// DefaultCollectionConfig returns default collection configuration
func DefaultCollectionConfig() CollectionConfig {
	return CollectionConfig{
		Name:      DefaultCollectionName,
		Dimension: model.ProfileDim,
		Shards:    2,
		NList:     64,
		NProbe:    16,
	}
}

// CreateCollection creates the pair profile collection if it does not exist
func (c *Client) CreateCollection(ctx context.Context, cfg CollectionConfig) error {
	exists, err := c.HasCollection(ctx, cfg.Name)
	if err != nil {
		return fmt.Errorf("failed to check collection: %w", err)
	}
	if exists {
		return nil
	}

	schema := &entity.Schema{
		CollectionName: cfg.Name,
		Description:    "Pair profiles of analysis runs",
		Fields: []*entity.Field{
			{
				Name:       fieldRunID,
				DataType:   entity.FieldTypeVarChar,
				PrimaryKey: true,
				AutoID:     false,
				TypeParams: map[string]string{
					"max_length": "64",
				},
			},
			{
				Name:     fieldEmbedding,
				DataType: entity.FieldTypeFloatVector,
				TypeParams: map[string]string{
					"dim": strconv.Itoa(cfg.Dimension),
				},
			},
			{
				Name:     fieldTableName,
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": "128",
				},
			},
			{
				Name:     fieldCreatedAt,
				DataType: entity.FieldTypeInt64,
			},
			{
				Name:     fieldPatternCount,
				DataType: entity.FieldTypeInt32,
			},
			{
				Name:     fieldExactMatch,
				DataType: entity.FieldTypeInt32,
			},
		},
	}

	if err := c.conn.CreateCollection(ctx, schema, int32(cfg.Shards)); err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}
	return nil
}

// EnsureCollection creates, indexes and loads the collection
func (c *Client) EnsureCollection(ctx context.Context, cfg CollectionConfig) error {
	if err := c.CreateCollection(ctx, cfg); err != nil {
		return err
	}
	if err := c.CreateIndex(ctx, cfg.Name, fieldEmbedding, cfg.NList); err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}
	if err := c.LoadCollection(ctx, cfg.Name); err != nil {
		return fmt.Errorf("failed to load collection: %w", err)
	}
	return nil
}

// ProfileData holds one run profile for insertion
type ProfileData struct {
	RunID        string
	Embedding    model.ProfileVector
	TableName    string
	CreatedAt    time.Time
	PatternCount int32
	ExactMatch   bool
}

// Insert upserts a single run profile
func (c *Client) Insert(ctx context.Context, collectionName string, data *ProfileData) error {
	return c.InsertBatch(ctx, collectionName, []*ProfileData{data})
}

// InsertBatch upserts run profiles. Run IDs are deterministic, so a re-indexed
// run replaces its previous row.
func (c *Client) InsertBatch(ctx context.Context, collectionName string, dataList []*ProfileData) error {
	if len(dataList) == 0 {
		return nil
	}

	runIDs := make([]string, len(dataList))
	embeddings := make([][]float32, len(dataList))
	tableNames := make([]string, len(dataList))
	createdAts := make([]int64, len(dataList))
	patternCounts := make([]int32, len(dataList))
	exactMatches := make([]int32, len(dataList))

	for i, d := range dataList {
		if d.Embedding.Dim() != model.ProfileDim {
			return fmt.Errorf("profile %s has dimension %d, want %d", d.RunID, d.Embedding.Dim(), model.ProfileDim)
		}
		runIDs[i] = d.RunID
		embeddings[i] = d.Embedding
		tableNames[i] = d.TableName
		createdAts[i] = d.CreatedAt.Unix()
		patternCounts[i] = d.PatternCount
		if d.ExactMatch {
			exactMatches[i] = 1
		}
	}

	columns := []entity.Column{
		entity.NewColumnVarChar(fieldRunID, runIDs),
		entity.NewColumnFloatVector(fieldEmbedding, model.ProfileDim, embeddings),
		entity.NewColumnVarChar(fieldTableName, tableNames),
		entity.NewColumnInt64(fieldCreatedAt, createdAts),
		entity.NewColumnInt32(fieldPatternCount, patternCounts),
		entity.NewColumnInt32(fieldExactMatch, exactMatches),
	}

	if _, err := c.conn.Upsert(ctx, collectionName, "", columns...); err != nil {
		return fmt.Errorf("failed to upsert: %w", err)
	}
	return nil
}

// SearchResult represents a single search result
type SearchResult struct {
	RunID        string
	Score        float32
	TableName    string
	CreatedAt    time.Time
	PatternCount int32
	ExactMatch   bool
}

// Search performs a TopK similarity search
func (c *Client) Search(ctx context.Context, collectionName string, embedding model.ProfileVector, filter string, topK, nprobe int) ([]SearchResult, error) {
	vectors := []entity.Vector{entity.FloatVector(embedding)}

	sp, err := entity.NewIndexIvfFlatSearchParam(nprobe)
	if err != nil {
		return nil, fmt.Errorf("failed to create search param: %w", err)
	}

	outputFields := []string{fieldRunID, fieldTableName, fieldCreatedAt, fieldPatternCount, fieldExactMatch}

	results, err := c.conn.Search(
		ctx,
		collectionName,
		nil,
		filter,
		outputFields,
		vectors,
		fieldEmbedding,
		entity.COSINE,
		topK,
		sp,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}

	if len(results) == 0 {
		return nil, nil
	}

	hits := make([]SearchResult, 0, results[0].ResultCount)
	for i := 0; i < results[0].ResultCount; i++ {
		hit := SearchResult{
			Score: results[0].Scores[i],
		}

		for _, field := range results[0].Fields {
			switch col := field.(type) {
			case *entity.ColumnVarChar:
				val, _ := col.ValueByIdx(i)
				switch col.Name() {
				case fieldRunID:
					hit.RunID = val
				case fieldTableName:
					hit.TableName = val
				}
			case *entity.ColumnInt64:
				if col.Name() == fieldCreatedAt {
					val, _ := col.ValueByIdx(i)
					hit.CreatedAt = time.Unix(val, 0)
				}
			case *entity.ColumnInt32:
				val, _ := col.ValueByIdx(i)
				switch col.Name() {
				case fieldPatternCount:
					hit.PatternCount = val
				case fieldExactMatch:
					hit.ExactMatch = val != 0
				}
			}
		}

		hits = append(hits, hit)
	}

	return hits, nil
}

// Flush flushes the collection to ensure data persistence
func (c *Client) Flush(ctx context.Context, collectionName string) error {
	return c.conn.Flush(ctx, collectionName, false)
}

// TableFilter builds a boolean expression restricting hits to one table
func TableFilter(tableName string) string {
	if tableName == "" {
		return ""
	}
	return fmt.Sprintf("%s == %s", fieldTableName, strconv.Quote(tableName))
}

// ExcludeRunFilter builds an expression dropping one run, optionally AND-ed with base
func ExcludeRunFilter(base, runID string) string {
	expr := fmt.Sprintf("%s != %s", fieldRunID, strconv.Quote(runID))
	if base == "" {
		return expr
	}
	return "(" + base + ") && " + expr
}
