// Package sqlite persists collections in a SQLite file under a data directory.
// Search is brute-force cosine distance computed in Go.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/siherrmann/ragengine/helper"
	"github.com/siherrmann/ragengine/model"
	"github.com/siherrmann/ragengine/provider"
	"github.com/siherrmann/ragengine/store"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// FileName is the database file created inside the persist directory.
const FileName = "ragengine.sqlite3"

var (
	_ store.Client     = (*Client)(nil)
	_ store.Collection = (*Collection)(nil)
)

// Client is a SQLite backed collection client.
type Client struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

// NewClient opens (or creates) the database in dataDir.
func NewClient(dataDir string, logger *slog.Logger) (*Client, error) {
	if dataDir == "" {
		return nil, helper.NewError("open sqlite", fmt.Errorf("persist path is empty"))
	}

	err := os.MkdirAll(dataDir, 0700)
	if err != nil {
		return nil, helper.NewError("create data directory", err)
	}

	dbPath := filepath.Join(dataDir, FileName)
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, helper.NewError("open sqlite", err)
	}

	_, err = db.Exec(schemaSQL)
	if err != nil {
		db.Close()
		return nil, helper.NewError("create schema", err)
	}

	logger.Info("Opened sqlite store", slog.String("path", dbPath))

	return &Client{
		db:     db,
		path:   dbPath,
		logger: logger,
	}, nil
}

// Path returns the database file path.
func (c *Client) Path() string {
	return c.path
}

func (c *Client) GetOrCreateCollection(ctx context.Context, name string, embedder provider.Embedder) (store.Collection, error) {
	if name == "" {
		return nil, helper.NewError("get or create collection", fmt.Errorf("collection name is empty"))
	}

	_, err := c.db.ExecContext(
		ctx,
		`INSERT INTO collections (name, rid, metric, created_at) VALUES (?, ?, ?, ?) ON CONFLICT (name) DO NOTHING`,
		name,
		uuid.NewString(),
		model.MetricCosine,
		time.Now().UnixMilli(),
	)
	if err != nil {
		return nil, helper.NewError("insert collection", err)
	}

	record := &model.Collection{}
	var rid string
	var createdAt int64
	err = c.db.QueryRowContext(
		ctx,
		`SELECT name, rid, metric, metadata, created_at FROM collections WHERE name = ?`,
		name,
	).Scan(&record.Name, &rid, &record.Metric, &record.Metadata, &createdAt)
	if err != nil {
		return nil, helper.NewError("select collection", err)
	}
	record.RID, err = uuid.Parse(rid)
	if err != nil {
		return nil, helper.NewError("parse collection rid", err)
	}
	record.CreatedAt = time.UnixMilli(createdAt)

	return &Collection{
		client:   c,
		record:   record,
		embedder: embedder,
	}, nil
}

func (c *Client) DeleteCollection(ctx context.Context, name string) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return helper.NewError("begin", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `DELETE FROM documents WHERE collection = ?`, name)
	if err != nil {
		return helper.NewError("delete documents", err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM collections WHERE name = ?`, name)
	if err != nil {
		return helper.NewError("delete collection", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return helper.NewError("delete collection", fmt.Errorf("collection %s does not exist", name))
	}

	return tx.Commit()
}

func (c *Client) ListCollections(ctx context.Context) ([]string, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT name FROM collections ORDER BY name`)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		err := rows.Scan(&name)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}
		names = append(names, name)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return names, nil
}

func (c *Client) Close() error {
	return c.db.Close()
}

// Collection is a collection stored in the documents table.
type Collection struct {
	client   *Client
	record   *model.Collection
	embedder provider.Embedder
}

func (c *Collection) Name() string {
	return c.record.Name
}

// Record returns the persisted collection record.
func (c *Collection) Record() *model.Collection {
	return c.record
}

func (c *Collection) Add(ctx context.Context, documents []*model.Document) error {
	return c.write(ctx, documents, false)
}

func (c *Collection) Upsert(ctx context.Context, documents []*model.Document) error {
	return c.write(ctx, documents, true)
}

func (c *Collection) write(ctx context.Context, documents []*model.Document, upsert bool) error {
	if len(documents) == 0 {
		return nil
	}

	err := store.PrepareDocuments(ctx, c.embedder, documents, !upsert)
	if err != nil {
		return helper.NewError("prepare documents", err)
	}
	documents = store.LastWins(documents)

	tx, err := c.client.db.BeginTx(ctx, nil)
	if err != nil {
		return helper.NewError("begin", err)
	}
	defer tx.Rollback()

	dim := len(documents[0].Embedding)
	var storedDim int
	err = tx.QueryRowContext(ctx, `SELECT dimension FROM documents WHERE collection = ? LIMIT 1`, c.record.Name).Scan(&storedDim)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return helper.NewError("select dimension", err)
	}
	if err == nil && storedDim != dim {
		return helper.NewError("write documents", fmt.Errorf("%w: collection has %d, got %d", store.ErrDimensionMismatch, storedDim, dim))
	}

	query := `INSERT INTO documents (collection, id, content, embedding, dimension, metadata, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	if upsert {
		query += ` ON CONFLICT (collection, id) DO UPDATE SET
			content = excluded.content,
			embedding = excluded.embedding,
			dimension = excluded.dimension,
			metadata = excluded.metadata,
			updated_at = excluded.updated_at`
	}

	now := time.Now().UnixMilli()
	for _, d := range documents {
		if !upsert {
			var exists bool
			err := tx.QueryRowContext(
				ctx,
				`SELECT EXISTS(SELECT 1 FROM documents WHERE collection = ? AND id = ?)`,
				c.record.Name,
				d.ID,
			).Scan(&exists)
			if err != nil {
				return helper.NewError("check id", err)
			}
			if exists {
				return helper.NewError("add documents", fmt.Errorf("%w: %s", store.ErrDuplicateID, d.ID))
			}
		}

		metadata, err := d.Metadata.Marshal()
		if err != nil {
			return helper.NewError("marshal metadata", err)
		}

		_, err = tx.ExecContext(ctx, query,
			c.record.Name,
			d.ID,
			d.Content,
			encodeEmbedding(d.Embedding),
			len(d.Embedding),
			string(metadata),
			now,
			now,
		)
		if err != nil {
			return helper.NewError("insert document", err)
		}
	}

	err = tx.Commit()
	if err != nil {
		return helper.NewError("commit", err)
	}

	c.client.logger.Debug("Wrote documents", slog.String("collection", c.record.Name), slog.Int("count", len(documents)), slog.Bool("upsert", upsert))

	return nil
}

func (c *Collection) Get(ctx context.Context) (*model.GetResult, error) {
	documents, err := c.selectAll(ctx, false)
	if err != nil {
		return nil, err
	}
	return model.NewGetResult(documents), nil
}

func (c *Collection) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	tx, err := c.client.db.BeginTx(ctx, nil)
	if err != nil {
		return helper.NewError("begin", err)
	}
	defer tx.Rollback()

	for _, id := range ids {
		_, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE collection = ? AND id = ?`, c.record.Name, id)
		if err != nil {
			return helper.NewError("delete document", err)
		}
	}

	return tx.Commit()
}

func (c *Collection) Query(ctx context.Context, queryTexts []string, nResults int) ([]*model.QueryResult, error) {
	if nResults <= 0 {
		return nil, helper.NewError("query", fmt.Errorf("n results must be positive, got %d", nResults))
	}

	queryEmbeddings, err := store.EmbedQueries(ctx, c.embedder, queryTexts)
	if err != nil {
		return nil, helper.NewError("embed queries", err)
	}

	documents, err := c.selectAll(ctx, true)
	if err != nil {
		return nil, err
	}

	results, err := store.BruteForceQuery(queryEmbeddings, documents, nResults)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	return results, nil
}

func (c *Collection) Count(ctx context.Context) (int, error) {
	var count int
	err := c.client.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents WHERE collection = ?`, c.record.Name).Scan(&count)
	if err != nil {
		return 0, helper.NewError("count", err)
	}
	return count, nil
}

// selectAll returns all documents ordered by id, with embeddings if requested.
func (c *Collection) selectAll(ctx context.Context, withEmbeddings bool) ([]*model.Document, error) {
	rows, err := c.client.db.QueryContext(
		ctx,
		`SELECT id, content, embedding, metadata, created_at, updated_at FROM documents WHERE collection = ? ORDER BY id`,
		c.record.Name,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	documents := []*model.Document{}
	for rows.Next() {
		d := &model.Document{}
		var embedding []byte
		var createdAt, updatedAt int64
		err := rows.Scan(&d.ID, &d.Content, &embedding, &d.Metadata, &createdAt, &updatedAt)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}
		if withEmbeddings {
			d.Embedding, err = decodeEmbedding(embedding)
			if err != nil {
				return nil, helper.NewError("decode embedding", err)
			}
		}
		d.CreatedAt = time.UnixMilli(createdAt)
		d.UpdatedAt = time.UnixMilli(updatedAt)
		documents = append(documents, d)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return documents, nil
}

// encodeEmbedding stores float32 values little endian.
func encodeEmbedding(embedding []float32) []byte {
	buf := make([]byte, 4*len(embedding))
	for i, v := range embedding {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

func decodeEmbedding(buf []byte) ([]float32, error) {
	if len(buf)%4 != 0 {
		return nil, fmt.Errorf("invalid embedding length %d", len(buf))
	}
	embedding := make([]float32, len(buf)/4)
	for i := range embedding {
		embedding[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return embedding, nil
}
