// Package vectorstore keeps one embedded company snapshot per prospect in a
// local SQLite file and answers cosine-similarity lookups over it.
package vectorstore

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"
)

func init() {
	vec.Auto()
}

// Record is what gets stored for a prospect.
type Record struct {
	ProspectID int
	OwnerID    int
	Company    string
	Text       string
	Embedding  []float32
}

// Match is a search hit. Similarity is 1 - cosine distance.
type Match struct {
	ProspectID int
	Company    string
	Text       string
	Similarity float64
}

// VectorStore is the storage contract the rag package depends on.
type VectorStore interface {
	Upsert(ctx context.Context, rec Record) error
	Search(ctx context.Context, ownerID int, company string, query []float32, topK int) ([]Match, error)
	DeleteByProspect(ctx context.Context, ownerID, prospectID int) error
	Close() error
}

type SQLiteStore struct {
	mu         sync.RWMutex
	db         *sql.DB
	dim        int
	vecEnabled bool
}

var _ VectorStore = (*SQLiteStore)(nil)

// VectorID is the stable key of a prospect's snapshot.
func VectorID(prospectID int) string {
	return fmt.Sprintf("prospect_%d", prospectID)
}

func Open(path string, dim int) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open vector db: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS company_vectors (
			id          TEXT PRIMARY KEY,
			prospect_id INTEGER NOT NULL,
			owner_id    INTEGER NOT NULL,
			company     TEXT NOT NULL,
			text        TEXT NOT NULL,
			embedding   BLOB NOT NULL,
			updated_at  DATETIME NOT NULL
		)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create company_vectors: %w", err)
	}
	if _, err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_company_vectors_owner ON company_vectors(owner_id, company)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create index: %w", err)
	}

	s := &SQLiteStore{db: db, dim: dim}
	s.vecEnabled = s.detectVec()
	if !s.vecEnabled {
		log.Warn().Msg("⚠️ sqlite-vec not available, using in-process cosine scan")
	}
	return s, nil
}

func (s *SQLiteStore) detectVec() bool {
	var version string
	return s.db.QueryRow(`SELECT vec_version()`).Scan(&version) == nil
}

func (s *SQLiteStore) Upsert(ctx context.Context, rec Record) error {
	if s.dim > 0 && len(rec.Embedding) != s.dim {
		return fmt.Errorf("embedding has %d dimensions, want %d", len(rec.Embedding), s.dim)
	}
	blob, err := vec.SerializeFloat32(rec.Embedding)
	if err != nil {
		return fmt.Errorf("serialize embedding: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO company_vectors (id, prospect_id, owner_id, company, text, embedding, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			owner_id = excluded.owner_id,
			company = excluded.company,
			text = excluded.text,
			embedding = excluded.embedding,
			updated_at = excluded.updated_at`,
		VectorID(rec.ProspectID), rec.ProspectID, rec.OwnerID, rec.Company, rec.Text, blob, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("upsert vector: %w", err)
	}
	return nil
}

// Search only considers rows of ownerID whose company matches exactly.
func (s *SQLiteStore) Search(ctx context.Context, ownerID int, company string, query []float32, topK int) ([]Match, error) {
	if topK <= 0 {
		topK = 1
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.vecEnabled {
		return s.searchVec(ctx, ownerID, company, query, topK)
	}
	return s.searchScan(ctx, ownerID, company, query, topK)
}

func (s *SQLiteStore) searchVec(ctx context.Context, ownerID int, company string, query []float32, topK int) ([]Match, error) {
	blob, err := vec.SerializeFloat32(query)
	if err != nil {
		return nil, fmt.Errorf("serialize query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT prospect_id, company, text, vec_distance_cosine(embedding, ?) AS distance
		FROM company_vectors
		WHERE owner_id = ? AND company = ?
		ORDER BY distance ASC
		LIMIT ?`,
		blob, ownerID, company, topK,
	)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	defer rows.Close()

	var matches []Match
	for rows.Next() {
		var m Match
		var distance float64
		if err := rows.Scan(&m.ProspectID, &m.Company, &m.Text, &distance); err != nil {
			return nil, err
		}
		m.Similarity = 1.0 - distance
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

func (s *SQLiteStore) searchScan(ctx context.Context, ownerID int, company string, query []float32, topK int) ([]Match, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT prospect_id, company, text, embedding
		FROM company_vectors
		WHERE owner_id = ? AND company = ?`,
		ownerID, company,
	)
	if err != nil {
		return nil, fmt.Errorf("vector scan: %w", err)
	}
	defer rows.Close()

	var matches []Match
	for rows.Next() {
		var m Match
		var blob []byte
		if err := rows.Scan(&m.ProspectID, &m.Company, &m.Text, &blob); err != nil {
			return nil, err
		}
		m.Similarity = cosineSimilarity(query, decodeFloat32(blob))
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Similarity > matches[j].Similarity })
	if len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

func (s *SQLiteStore) DeleteByProspect(ctx context.Context, ownerID, prospectID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`DELETE FROM company_vectors WHERE id = ? AND owner_id = ?`,
		VectorID(prospectID), ownerID,
	)
	if err != nil {
		return fmt.Errorf("delete vector: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// decodeFloat32 reverses vec.SerializeFloat32 (little-endian float32).
func decodeFloat32(b []byte) []float32 {
	out := make([]float32, len(b)/4)
	for i := range out {
		bits := uint32(b[i*4]) | uint32(b[i*4+1])<<8 | uint32(b[i*4+2])<<16 | uint32(b[i*4+3])<<24
		out[i] = math.Float32frombits(bits)
	}
	return out
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
