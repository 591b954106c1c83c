package vecstore

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/milvus-io/milvus/client/v2/column"
	"github.com/milvus-io/milvus/client/v2/entity"
	"github.com/milvus-io/milvus/client/v2/index"
	"github.com/milvus-io/milvus/client/v2/milvusclient"

	"github.com/studioverse/tutormind/internal/chunk"
	"github.com/studioverse/tutormind/internal/logger"
)

// Field names for the chunk collection
const (
	FieldID         = "id"
	FieldCourseID   = "course_id"
	FieldLessonID   = "lesson_id"
	FieldSourceID   = "source_id"
	FieldChunkIndex = "chunk_index"
	FieldText       = "text"
	FieldCreatedAt  = "created_at"
	FieldVector     = "vector"
)

const (
	idMaxLength   = "100"
	textMaxLength = "65535"
)

// MilvusStore is the persistence-backed chunk/embedding store.
type MilvusStore struct {
	client     *milvusclient.Client
	collection string
	dim        int
}

// NewMilvusStore connects to Milvus and ensures the chunk collection exists.
func NewMilvusStore(ctx context.Context, addr, collection string, dim int) (*MilvusStore, error) {
	logger.Info("Connecting to Milvus at %s (collection %s, dim %d)", addr, collection, dim)

	c, err := milvusclient.New(ctx, &milvusclient.ClientConfig{
		Address: addr,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Milvus: %w", err)
	}

	s := &MilvusStore{client: c, collection: collection, dim: dim}
	if err := s.ensureCollection(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// ensureCollection creates the chunk collection, its vector index and loads
// it into memory when it does not exist yet.
func (s *MilvusStore) ensureCollection(ctx context.Context) error {
	exists, err := s.client.HasCollection(ctx, milvusclient.NewHasCollectionOption(s.collection))
	if err != nil {
		return fmt.Errorf("failed to check if collection exists: %w", err)
	}

	if !exists {
		schema := &entity.Schema{
			CollectionName: s.collection,
			Description:    "Lesson chunk vectors for tutoring retrieval",
			Fields: []*entity.Field{
				{
					Name:       FieldID,
					DataType:   entity.FieldTypeVarChar,
					PrimaryKey: true,
					AutoID:     false,
					TypeParams: map[string]string{"max_length": idMaxLength},
				},
				{
					Name:       FieldCourseID,
					DataType:   entity.FieldTypeVarChar,
					TypeParams: map[string]string{"max_length": idMaxLength},
				},
				{
					Name:       FieldLessonID,
					DataType:   entity.FieldTypeVarChar,
					TypeParams: map[string]string{"max_length": idMaxLength},
				},
				{
					Name:       FieldSourceID,
					DataType:   entity.FieldTypeVarChar,
					TypeParams: map[string]string{"max_length": idMaxLength},
				},
				{
					Name:     FieldChunkIndex,
					DataType: entity.FieldTypeInt64,
				},
				{
					Name:       FieldText,
					DataType:   entity.FieldTypeVarChar,
					TypeParams: map[string]string{"max_length": textMaxLength},
				},
				{
					Name:     FieldCreatedAt,
					DataType: entity.FieldTypeInt64,
				},
				{
					Name:     FieldVector,
					DataType: entity.FieldTypeFloatVector,
					TypeParams: map[string]string{
						"dim": fmt.Sprintf("%d", s.dim),
					},
				},
			},
		}

		createOpt := milvusclient.NewCreateCollectionOption(s.collection, schema)
		if err := s.client.CreateCollection(ctx, createOpt); err != nil {
			return fmt.Errorf("failed to create collection: %w", err)
		}

		// L2 distance so smaller scores mean more similar.
		idx := index.NewHNSWIndex(entity.L2, 16, 200)
		indexOpt := milvusclient.NewCreateIndexOption(s.collection, FieldVector, idx)
		if _, err := s.client.CreateIndex(ctx, indexOpt); err != nil {
			return fmt.Errorf("failed to create index on vector field: %w", err)
		}

		logger.Info("Created collection: %s", s.collection)
	}

	loadOpt := milvusclient.NewLoadCollectionOption(s.collection)
	if _, err := s.client.LoadCollection(ctx, loadOpt); err != nil {
		return fmt.Errorf("failed to load collection %s: %w", s.collection, err)
	}
	return nil
}

// Persist stores one chunk and its embedding under the given scope.
func (s *MilvusStore) Persist(ctx context.Context, c chunk.Chunk, scope Scope, vector []float32) (string, error) {
	if scope.IsZero() {
		return "", fmt.Errorf("refusing to persist chunk without a course scope")
	}
	if len(vector) != s.dim {
		return "", fmt.Errorf("vector dimension %d, want %d", len(vector), s.dim)
	}

	id := uuid.NewString()
	cols := []column.Column{
		column.NewColumnVarChar(FieldID, []string{id}),
		column.NewColumnVarChar(FieldCourseID, []string{scope.CourseID}),
		column.NewColumnVarChar(FieldLessonID, []string{scope.LessonID}),
		column.NewColumnVarChar(FieldSourceID, []string{c.SourceID}),
		column.NewColumnInt64(FieldChunkIndex, []int64{int64(c.Index)}),
		column.NewColumnVarChar(FieldText, []string{c.Text}),
		column.NewColumnInt64(FieldCreatedAt, []int64{time.Now().Unix()}),
		column.NewColumnFloatVector(FieldVector, s.dim, [][]float32{vector}),
	}

	insertOpt := milvusclient.NewColumnBasedInsertOption(s.collection, cols...)
	if _, err := s.client.Insert(ctx, insertOpt); err != nil {
		return "", fmt.Errorf("failed to insert chunk: %w", err)
	}
	return id, nil
}

// Query returns the texts of the k most similar chunks inside scope, most
// similar first.
func (s *MilvusStore) Query(ctx context.Context, scope Scope, vector []float32, k int) ([]string, error) {
	if scope.IsZero() {
		return nil, fmt.Errorf("refusing to query without a course scope")
	}
	if k <= 0 {
		k = 5
	}

	searchOpt := milvusclient.NewSearchOption(s.collection, k, []entity.Vector{entity.FloatVector(vector)}).
		WithANNSField(FieldVector).
		WithFilter(scope.Expr()).
		WithOutputFields(FieldText)

	results, err := s.client.Search(ctx, searchOpt)
	if err != nil {
		return nil, fmt.Errorf("failed to execute search: %w", err)
	}
	if len(results) == 0 {
		return nil, nil
	}

	rs := results[0]
	textCol := rs.GetColumn(FieldText)
	if textCol == nil {
		logger.Warn("text column missing in search result for collection %s", s.collection)
		return nil, nil
	}

	texts := make([]string, 0, textCol.Len())
	for i := 0; i < textCol.Len(); i++ {
		text, err := textCol.GetAsString(i)
		if err != nil {
			logger.Warn("Error reading text from search result at %d: %v", i, err)
			continue
		}
		texts = append(texts, text)
	}
	return texts, nil
}

// DeleteSource removes all chunks persisted for one source document, used
// before re-indexing updated lesson content.
func (s *MilvusStore) DeleteSource(ctx context.Context, scope Scope, sourceID string) error {
	if scope.IsZero() {
		return fmt.Errorf("refusing to delete without a course scope")
	}
	expr := fmt.Sprintf(`%s && %s == "%s"`, scope.Expr(), FieldSourceID, escapeExpr(sourceID))
	deleteOpt := milvusclient.NewDeleteOption(s.collection).WithExpr(expr)
	if _, err := s.client.Delete(ctx, deleteOpt); err != nil {
		return fmt.Errorf("failed to delete chunks for source %s: %w", sourceID, err)
	}
	return nil
}

// Close closes the connection to Milvus.
func (s *MilvusStore) Close(ctx context.Context) error {
	return s.client.Close(ctx)
}

// Dimension returns the embedding dimension of the collection.
func (s *MilvusStore) Dimension() int {
	return s.dim
}
