package index

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	qdrantclient "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// qdrantIndex stores chunk vectors in a Qdrant collection over gRPC.
// The collection is created lazily on first upsert, when the vector
// dimension is known.
type qdrantIndex struct {
	conn        *grpc.ClientConn
	collections qdrantclient.CollectionsClient
	points      qdrantclient.PointsClient
	collection  string

	mu      sync.Mutex
	ensured bool
}

func NewQdrantIndex(host string, port int, collection string) (Index, error) {
	conn, err := grpc.Dial(
		fmt.Sprintf("%s:%d", host, port),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Qdrant: %w", err)
	}

	return &qdrantIndex{
		conn:        conn,
		collections: qdrantclient.NewCollectionsClient(conn),
		points:      qdrantclient.NewPointsClient(conn),
		collection:  collection,
	}, nil
}

func (q *qdrantIndex) ensureCollection(ctx context.Context, vectorSize int) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.ensured {
		return nil
	}

	collections, err := q.collections.List(ctx, &qdrantclient.ListCollectionsRequest{})
	if err != nil {
		return fmt.Errorf("failed to list collections: %w", err)
	}

	for _, col := range collections.GetCollections() {
		if col.GetName() == q.collection {
			q.ensured = true
			return nil
		}
	}

	createReq := &qdrantclient.CreateCollection{
		CollectionName: q.collection,
		VectorsConfig: &qdrantclient.VectorsConfig{
			Config: &qdrantclient.VectorsConfig_Params{
				Params: &qdrantclient.VectorParams{
					Size:     uint64(vectorSize),
					Distance: qdrantclient.Distance_Cosine,
				},
			},
		},
	}
	if _, err := q.collections.Create(ctx, createReq); err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	q.ensured = true
	return nil
}

func (q *qdrantIndex) Upsert(ctx context.Context, fingerprint string, chunks []string, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("chunks and vectors length mismatch: %d vs %d", len(chunks), len(vectors))
	}
	if len(chunks) == 0 {
		return nil
	}

	if err := q.ensureCollection(ctx, len(vectors[0])); err != nil {
		return err
	}

	// Replace any chunks from a previous indexing of this document
	if err := q.Remove(ctx, fingerprint); err != nil {
		return err
	}

	points := make([]*qdrantclient.PointStruct, 0, len(chunks))
	for i, chunk := range chunks {
		points = append(points, &qdrantclient.PointStruct{
			Id: &qdrantclient.PointId{
				PointIdOptions: &qdrantclient.PointId_Uuid{
					Uuid: uuid.NewString(),
				},
			},
			Vectors: &qdrantclient.Vectors{
				VectorsOptions: &qdrantclient.Vectors_Vector{
					Vector: &qdrantclient.Vector{
						Data: vectors[i],
					},
				},
			},
			Payload: map[string]*qdrantclient.Value{
				"text":        {Kind: &qdrantclient.Value_StringValue{StringValue: chunk}},
				"fingerprint": {Kind: &qdrantclient.Value_StringValue{StringValue: fingerprint}},
			},
		})
	}

	upsertReq := &qdrantclient.UpsertPoints{
		CollectionName: q.collection,
		Points:         points,
	}
	if _, err := q.points.Upsert(ctx, upsertReq); err != nil {
		return fmt.Errorf("failed to upsert points: %w", err)
	}

	return nil
}

func (q *qdrantIndex) Remove(ctx context.Context, fingerprint string) error {
	deleteReq := &qdrantclient.DeletePoints{
		CollectionName: q.collection,
		Points: &qdrantclient.PointsSelector{
			PointsSelectorOneOf: &qdrantclient.PointsSelector_Filter{
				Filter: &qdrantclient.Filter{
					Must: []*qdrantclient.Condition{
						{
							ConditionOneOf: &qdrantclient.Condition_Field{
								Field: &qdrantclient.FieldCondition{
									Key: "fingerprint",
									Match: &qdrantclient.Match{
										MatchValue: &qdrantclient.Match_Keyword{Keyword: fingerprint},
									},
								},
							},
						},
					},
				},
			},
		},
	}
	if _, err := q.points.Delete(ctx, deleteReq); err != nil {
		return fmt.Errorf("failed to delete points: %w", err)
	}
	return nil
}

func (q *qdrantIndex) RemoveAll(ctx context.Context) error {
	_, err := q.collections.Delete(ctx, &qdrantclient.DeleteCollection{
		CollectionName: q.collection,
	})
	if err != nil {
		return fmt.Errorf("failed to delete collection: %w", err)
	}

	q.mu.Lock()
	q.ensured = false
	q.mu.Unlock()
	return nil
}

func (q *qdrantIndex) Search(ctx context.Context, vector []float32, limit int) ([]Hit, error) {
	searchReq := &qdrantclient.SearchPoints{
		CollectionName: q.collection,
		Vector:         vector,
		Limit:          uint64(limit),
		WithPayload: &qdrantclient.WithPayloadSelector{
			SelectorOptions: &qdrantclient.WithPayloadSelector_Include{
				Include: &qdrantclient.PayloadIncludeSelector{
					Fields: []string{"text", "fingerprint"},
				},
			},
		},
	}

	searchResp, err := q.points.Search(ctx, searchReq)
	if err != nil {
		return nil, fmt.Errorf("failed to search in Qdrant: %w", err)
	}

	hits := make([]Hit, 0, len(searchResp.Result))
	for _, point := range searchResp.Result {
		hit := Hit{Score: point.GetScore()}
		if v, ok := point.Payload["text"]; ok {
			hit.Text = v.GetStringValue()
		}
		if v, ok := point.Payload["fingerprint"]; ok {
			hit.Fingerprint = v.GetStringValue()
		}
		hits = append(hits, hit)
	}

	return hits, nil
}

func (q *qdrantIndex) Close() error {
	return q.conn.Close()
}
