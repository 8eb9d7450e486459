package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"ragmail/internal/domain"
	"ragmail/internal/vectorstore/memory"
)

const formatVersion = "1"

const schemaSQL = `
CREATE TABLE meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
CREATE TABLE chunks (
	position  INTEGER PRIMARY KEY,
	content   TEXT NOT NULL,
	embedding BLOB NOT NULL
);`

// Config locates the persisted index.
type Config struct {
	Path string
	// Embedder names the embedder that produced the vectors. When set, loading an index built by
	// a different embedder fails instead of returning meaningless similarities.
	Embedder string
}

// Meta describes a persisted index.
type Meta struct {
	Dimension int
	Count     int
	Embedder  string
	BuiltAt   time.Time
}

// Storage persists the index as a SQLite file at a fixed path. Every Replace writes a fresh
// database next to the old one and renames it into place. Searches run on an in-memory copy
// loaded on first use.
type Storage struct {
	path     string
	embedder string

	mu     sync.Mutex
	loaded *memory.Storage
}

func NewStorage(cfg Config) *Storage {
	return &Storage{path: cfg.Path, embedder: cfg.Embedder}
}

func (s *Storage) Path() string { return s.path }

func (s *Storage) Replace(ctx context.Context, chunks []domain.Chunk, vectors [][]float64) error {
	if len(chunks) != len(vectors) {
		return errors.New("chunks and vectors length mismatch")
	}
	dimension := 0
	if len(vectors) > 0 {
		dimension = len(vectors[0])
	}
	for _, v := range vectors {
		if len(v) != dimension {
			return errors.New("vector dimension mismatch")
		}
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create index dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp index: %w", err)
	}
	tmpPath := tmp.Name()
	_ = tmp.Close()
	defer os.Remove(tmpPath)

	if err := writeIndex(ctx, tmpPath, s.embedder, dimension, chunks, vectors); err != nil {
		return err
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("replace index: %w", err)
	}

	mem := memory.NewStorage()
	if err := mem.Replace(ctx, chunks, vectors); err != nil {
		return err
	}
	s.mu.Lock()
	s.loaded = mem
	s.mu.Unlock()
	return nil
}

func writeIndex(ctx context.Context, path, embedder string, dimension int, chunks []domain.Chunk, vectors [][]float64) (err error) {
	conn, err := sql.Open("sqlite3", dsn(path, "rwc"))
	if err != nil {
		return fmt.Errorf("open sqlite: %w", err)
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close sqlite: %w", cerr)
		}
	}()
	if _, err := conn.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	meta := map[string]string{
		"format_version": formatVersion,
		"dimension":      strconv.Itoa(dimension),
		"count":          strconv.Itoa(len(chunks)),
		"embedder":       embedder,
		"built_at":       time.Now().UTC().Format(time.RFC3339Nano),
	}
	for k, v := range meta {
		if _, err = tx.ExecContext(ctx, `INSERT INTO meta (key, value) VALUES (?, ?)`, k, v); err != nil {
			return fmt.Errorf("insert meta %s: %w", k, err)
		}
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO chunks (position, content, embedding) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()
	for i, ch := range chunks {
		if _, err = stmt.ExecContext(ctx, i, ch.Content, encodeVector(vectors[i])); err != nil {
			return fmt.Errorf("insert chunk %d: %w", i, err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *Storage) Search(ctx context.Context, vector []float64, topK int) ([]domain.SearchResult, error) {
	mem, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return mem.Search(ctx, vector, topK)
}

func (s *Storage) load(ctx context.Context) (*memory.Storage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loaded != nil {
		return s.loaded, nil
	}
	meta, chunks, vectors, err := s.read(ctx)
	if err != nil {
		return nil, err
	}
	if s.embedder != "" && meta.Embedder != s.embedder {
		return nil, fmt.Errorf("index %s was built with embedder %q, configured %q", s.path, meta.Embedder, s.embedder)
	}
	mem := memory.NewStorage()
	if err := mem.Replace(ctx, chunks, vectors); err != nil {
		return nil, err
	}
	s.loaded = mem
	return mem, nil
}

// Exists loads the persisted index if needed and reports whether it holds any chunks.
func (s *Storage) Exists(ctx context.Context) (bool, error) {
	mem, err := s.load(ctx)
	if errors.Is(err, domain.ErrIndexNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return mem.Len() > 0, nil
}

// Stat reads the metadata of the persisted index.
func (s *Storage) Stat(ctx context.Context) (Meta, error) {
	meta, _, _, err := s.read(ctx)
	return meta, err
}

func (s *Storage) read(ctx context.Context) (meta Meta, chunks []domain.Chunk, vectors [][]float64, err error) {
	if _, err := os.Stat(s.path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Meta{}, nil, nil, fmt.Errorf("%w: %s", domain.ErrIndexNotFound, s.path)
		}
		return Meta{}, nil, nil, err
	}
	conn, err := sql.Open("sqlite3", dsn(s.path, "ro"))
	if err != nil {
		return Meta{}, nil, nil, fmt.Errorf("open sqlite: %w", err)
	}
	defer conn.Close()

	values := map[string]string{}
	rows, err := conn.QueryContext(ctx, `SELECT key, value FROM meta`)
	if err != nil {
		return Meta{}, nil, nil, fmt.Errorf("invalid index %s: %w", s.path, err)
	}
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			rows.Close()
			return Meta{}, nil, nil, err
		}
		values[k] = v
	}
	rows.Close()
	if values["format_version"] != formatVersion {
		return Meta{}, nil, nil, fmt.Errorf("invalid index %s: unsupported format version %q", s.path, values["format_version"])
	}
	meta.Embedder = values["embedder"]
	if meta.Dimension, err = strconv.Atoi(values["dimension"]); err != nil || meta.Dimension < 0 {
		return Meta{}, nil, nil, fmt.Errorf("invalid index %s: bad dimension %q", s.path, values["dimension"])
	}
	if meta.Count, err = strconv.Atoi(values["count"]); err != nil {
		return Meta{}, nil, nil, fmt.Errorf("invalid index %s: bad count %q", s.path, values["count"])
	}
	meta.BuiltAt, _ = time.Parse(time.RFC3339Nano, values["built_at"])

	rows, err = conn.QueryContext(ctx, `SELECT position, content, embedding FROM chunks ORDER BY position`)
	if err != nil {
		return Meta{}, nil, nil, fmt.Errorf("invalid index %s: %w", s.path, err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			pos     int
			content string
			blob    []byte
		)
		if err := rows.Scan(&pos, &content, &blob); err != nil {
			return Meta{}, nil, nil, err
		}
		vec, err := decodeVector(blob, meta.Dimension)
		if err != nil {
			return Meta{}, nil, nil, fmt.Errorf("invalid index %s: chunk %d: %w", s.path, pos, err)
		}
		chunks = append(chunks, domain.Chunk{Index: pos, Content: content})
		vectors = append(vectors, vec)
	}
	if err := rows.Err(); err != nil {
		return Meta{}, nil, nil, err
	}
	if len(chunks) != meta.Count {
		return Meta{}, nil, nil, fmt.Errorf("invalid index %s: %d chunks, meta says %d", s.path, len(chunks), meta.Count)
	}
	return meta, chunks, vectors, nil
}

func (s *Storage) Close() error { return nil }

var uriEscaper = strings.NewReplacer("%", "%25", "?", "%3f", "#", "%23")

// dsn builds a SQLite URI filename for path. Characters that delimit the query or fragment of a
// URI are percent-encoded so any file name opens as-is.
func dsn(path, mode string) string {
	return "file:" + uriEscaper.Replace(path) + "?mode=" + mode
}

func encodeVector(v []float64) []byte {
	buf := make([]byte, 8*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(f))
	}
	return buf
}

func decodeVector(b []byte, dimension int) ([]float64, error) {
	if len(b) != 8*dimension {
		return nil, fmt.Errorf("embedding is %d bytes, want %d", len(b), 8*dimension)
	}
	v := make([]float64, dimension)
	for i := range v {
		v[i] = math.Float64frombits(binary.LittleEndian.Uint64(b[i*8:]))
	}
	return v, nil
}
