package index

import (
	"context"
	"fmt"
	"sync"
	"unicode/utf8"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/xhad/relay/internal/models"
	"github.com/xhad/relay/internal/types"
)

type IndexConfig struct {
	ConnString     string
	TableName      string
	VectorDim      int
	BatchSize      int
	EmbedRateLimit float64 // embedding requests per second
}

// Index stores one embedding-indexed chunk collection per agent. Rows are
// durable: every mutation commits before returning, so a crash loses at
// most the in-flight call and ingestion is re-runnable.
//
// Similarity is cosine, reported as 1 - distance so scores land in [0,1]
// and compare naturally against thresholds. Add and Search share one
// embedder, keeping stored and query vectors in the same space.
type Index struct {
	config   IndexConfig
	pool     *pgxpool.Pool
	embedder types.Embedder
	limiter  *rate.Limiter
	logger   *zap.Logger

	mu    sync.Mutex
	locks map[models.Agent]*sync.RWMutex
}

func NewWithConfig(config IndexConfig, embedder types.Embedder, logger *zap.Logger) (*Index, error) {
	if config.TableName == "" {
		config.TableName = "agent_chunks"
	}
	if config.VectorDim == 0 {
		config.VectorDim = 768
	}
	if config.BatchSize == 0 {
		config.BatchSize = 100
	}
	if config.EmbedRateLimit == 0 {
		config.EmbedRateLimit = 10
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	pool, err := pgxpool.New(context.Background(), config.ConnString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %v", err)
	}

	idx := &Index{
		config:   config,
		pool:     pool,
		embedder: embedder,
		limiter:  rate.NewLimiter(rate.Limit(config.EmbedRateLimit), 1),
		logger:   logger,
		locks:    make(map[models.Agent]*sync.RWMutex),
	}

	if err := idx.initialize(); err != nil {
		pool.Close()
		return nil, err
	}

	return idx, nil
}

func (idx *Index) initialize() error {
	ctx := context.Background()

	// Enable pgvector extension
	_, err := idx.pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector")
	if err != nil {
		return fmt.Errorf("failed to create vector extension: %v", err)
	}

	createTable := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			agent TEXT NOT NULL,
			source TEXT NOT NULL,
			filename TEXT NOT NULL,
			file_type TEXT,
			chunk_index INTEGER,
			total_chunks INTEGER,
			content TEXT,
			embedding vector(%d)
		)`, idx.config.TableName, idx.config.VectorDim)

	_, err = idx.pool.Exec(ctx, createTable)
	if err != nil {
		return fmt.Errorf("failed to create table: %v", err)
	}

	createIndex := fmt.Sprintf(`
		CREATE INDEX IF NOT EXISTS %s_embedding_idx
		ON %s
		USING ivfflat (embedding vector_cosine_ops)
		WITH (lists = 100)`,
		idx.config.TableName, idx.config.TableName)

	_, err = idx.pool.Exec(ctx, createIndex)
	if err != nil {
		return fmt.Errorf("failed to create index: %v", err)
	}

	createAgentIndex := fmt.Sprintf(`
		CREATE INDEX IF NOT EXISTS %s_agent_idx ON %s (agent)`,
		idx.config.TableName, idx.config.TableName)

	_, err = idx.pool.Exec(ctx, createAgentIndex)
	if err != nil {
		return fmt.Errorf("failed to create agent index: %v", err)
	}

	return nil
}

// Add embeds the chunks and inserts them in one transaction. Embedding
// happens before the transaction opens: a failing embedding service fails
// the whole call and leaves the stored index untouched.
func (idx *Index) Add(ctx context.Context, agent models.Agent, chunks []models.Chunk) (int, error) {
	if len(chunks) == 0 {
		return 0, nil
	}

	vectors, err := idx.embedChunks(ctx, chunks)
	if err != nil {
		return 0, err
	}

	lock := idx.agentLock(agent)
	lock.Lock()
	defer lock.Unlock()

	tx, err := idx.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %v", err)
	}
	defer tx.Rollback(ctx)

	stmt := fmt.Sprintf(`
		INSERT INTO %s (id, agent, source, filename, file_type, chunk_index, total_chunks, content, embedding)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			content = EXCLUDED.content,
			total_chunks = EXCLUDED.total_chunks,
			embedding = EXCLUDED.embedding`,
		idx.config.TableName)

	for i, chunk := range chunks {
		id := fmt.Sprintf("%s:%s:%d", agent, chunk.Filename, chunk.ChunkIndex)

		_, err = tx.Exec(ctx, stmt,
			id,
			string(agent),
			chunk.Source,
			chunk.Filename,
			chunk.FileType,
			chunk.ChunkIndex,
			chunk.TotalChunks,
			sanitizeUTF8(chunk.Text),
			pgvector.NewVector(vectors[i]),
		)
		if err != nil {
			return 0, fmt.Errorf("failed to insert chunk: %v", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %v", err)
	}

	idx.logger.Info("indexed chunks",
		zap.String("agent", string(agent)),
		zap.Int("count", len(chunks)))

	return len(chunks), nil
}

// Search returns up to k chunks for the agent, best first, each scoring at
// or above threshold. An agent with nothing indexed yields an empty result,
// not an error.
func (idx *Index) Search(ctx context.Context, agent models.Agent, query string, k int, threshold float32) ([]models.Retrieved, error) {
	if k <= 0 {
		k = 5
	}

	if err := idx.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	embeddings, err := idx.embedder.CreateEmbedding(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(embeddings) == 0 {
		return nil, fmt.Errorf("embedder returned no vector for query")
	}

	lock := idx.agentLock(agent)
	lock.RLock()
	defer lock.RUnlock()

	sql := fmt.Sprintf(`
		SELECT source, filename, file_type, chunk_index, total_chunks, content,
			1 - (embedding <=> $1) AS score
		FROM %s
		WHERE agent = $2
		ORDER BY embedding <=> $1
		LIMIT $3`,
		idx.config.TableName)

	rows, err := idx.pool.Query(ctx, sql, pgvector.NewVector(embeddings[0]), string(agent), k)
	if err != nil {
		return nil, fmt.Errorf("failed to query chunks: %v", err)
	}
	defer rows.Close()

	results := make([]models.Retrieved, 0, k)
	for rows.Next() {
		var r models.Retrieved
		err := rows.Scan(
			&r.Chunk.Source,
			&r.Chunk.Filename,
			&r.Chunk.FileType,
			&r.Chunk.ChunkIndex,
			&r.Chunk.TotalChunks,
			&r.Chunk.Text,
			&r.Score,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %v", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read rows: %v", err)
	}

	return FilterByThreshold(results, threshold), nil
}

// Clear removes everything indexed for the agent. Subsequent searches
// behave as "no index".
func (idx *Index) Clear(ctx context.Context, agent models.Agent) error {
	lock := idx.agentLock(agent)
	lock.Lock()
	defer lock.Unlock()

	sql := fmt.Sprintf("DELETE FROM %s WHERE agent = $1", idx.config.TableName)
	if _, err := idx.pool.Exec(ctx, sql, string(agent)); err != nil {
		return fmt.Errorf("failed to clear index: %v", err)
	}

	idx.logger.Info("cleared index", zap.String("agent", string(agent)))
	return nil
}

// RemoveDocument deletes one source document's chunks. Rows support point
// deletion here, so no rebuild is needed.
func (idx *Index) RemoveDocument(ctx context.Context, agent models.Agent, filename string) (int, error) {
	lock := idx.agentLock(agent)
	lock.Lock()
	defer lock.Unlock()

	sql := fmt.Sprintf("DELETE FROM %s WHERE agent = $1 AND filename = $2", idx.config.TableName)
	tag, err := idx.pool.Exec(ctx, sql, string(agent), filename)
	if err != nil {
		return 0, fmt.Errorf("failed to remove document: %v", err)
	}

	idx.logger.Info("removed document",
		zap.String("agent", string(agent)),
		zap.String("filename", filename),
		zap.Int64("chunks", tag.RowsAffected()))

	return int(tag.RowsAffected()), nil
}

// DocumentInfo summarizes one indexed source document.
type DocumentInfo struct {
	Filename string `json:"filename"`
	Chunks   int    `json:"chunks"`
}

// ListDocuments reports the source documents indexed for an agent.
func (idx *Index) ListDocuments(ctx context.Context, agent models.Agent) ([]DocumentInfo, error) {
	lock := idx.agentLock(agent)
	lock.RLock()
	defer lock.RUnlock()

	sql := fmt.Sprintf(`
		SELECT filename, COUNT(*)
		FROM %s
		WHERE agent = $1
		GROUP BY filename
		ORDER BY filename`,
		idx.config.TableName)

	rows, err := idx.pool.Query(ctx, sql, string(agent))
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %v", err)
	}
	defer rows.Close()

	var docs []DocumentInfo
	for rows.Next() {
		var d DocumentInfo
		if err := rows.Scan(&d.Filename, &d.Chunks); err != nil {
			return nil, fmt.Errorf("failed to scan row: %v", err)
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// ChunkCount reports the number of chunks indexed for an agent.
func (idx *Index) ChunkCount(ctx context.Context, agent models.Agent) (int, error) {
	sql := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE agent = $1", idx.config.TableName)

	var count int
	if err := idx.pool.QueryRow(ctx, sql, string(agent)).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count chunks: %v", err)
	}
	return count, nil
}

func (idx *Index) Close() {
	if idx.pool != nil {
		idx.pool.Close()
	}
}

// embedChunks runs the embedding service over chunk texts in rate-limited
// batches. Any failure aborts the whole call.
func (idx *Index) embedChunks(ctx context.Context, chunks []models.Chunk) ([][]float32, error) {
	vectors := make([][]float32, 0, len(chunks))

	for start := 0; start < len(chunks); start += idx.config.BatchSize {
		end := start + idx.config.BatchSize
		if end > len(chunks) {
			end = len(chunks)
		}

		texts := make([]string, 0, end-start)
		for _, chunk := range chunks[start:end] {
			texts = append(texts, sanitizeUTF8(chunk.Text))
		}

		if err := idx.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("failed to create embeddings: %w", err)
		}

		batch, err := idx.embedder.CreateEmbedding(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("failed to create embeddings: %w", err)
		}
		if len(batch) != len(texts) {
			return nil, fmt.Errorf("embedder returned %d vectors for %d texts", len(batch), len(texts))
		}

		vectors = append(vectors, batch...)
	}

	return vectors, nil
}

func (idx *Index) agentLock(agent models.Agent) *sync.RWMutex {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	lock, ok := idx.locks[agent]
	if !ok {
		lock = &sync.RWMutex{}
		idx.locks[agent] = lock
	}
	return lock
}

// FilterByThreshold drops results scoring below the threshold, preserving
// order. Results arrive best-first from the store.
func FilterByThreshold(results []models.Retrieved, threshold float32) []models.Retrieved {
	filtered := make([]models.Retrieved, 0, len(results))
	for _, r := range results {
		if r.Score >= threshold {
			filtered = append(filtered, r)
		}
	}
	return filtered
}

func sanitizeUTF8(s string) string {
	if !utf8.ValidString(s) {
		v := make([]rune, 0, len(s))
		for i, r := range s {
			if r == utf8.RuneError {
				_, size := utf8.DecodeRuneInString(s[i:])
				if size == 1 {
					continue
				}
			}
			v = append(v, r)
		}
		return string(v)
	}
	return s
}
