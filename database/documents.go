package database

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
	"github.com/siherrmann/ragengine/helper"
	"github.com/siherrmann/ragengine/model"
	"github.com/siherrmann/ragengine/sql"
)

// ErrUniqueViolation is returned when an insert hits an existing document id.
var ErrUniqueViolation = errors.New("unique violation")

const uniqueViolationCode = "23505"

// DocumentsDBHandlerFunctions defines the interface for Documents database operations.
type DocumentsDBHandlerFunctions interface {
	InsertDocuments(ctx context.Context, collectionID int64, documents []*model.Document, upsert bool) error
	SelectDocuments(ctx context.Context, collectionID int64) ([]*model.Document, error)
	SelectDocumentsByDistance(ctx context.Context, collectionID int64, embedding []float32, limit int) ([]*model.Document, error)
	DeleteDocuments(ctx context.Context, collectionID int64, ids []string) (int, error)
	CountDocuments(ctx context.Context, collectionID int64) (int, error)
}

// DocumentsDBHandler handles document-related database operations
type DocumentsDBHandler struct {
	db           *helper.Database
	embeddingDim int
}

// NewDocumentsDBHandler creates a new documents database handler.
// It initializes the database connection and loads document-related SQL functions.
// The collections table has to exist, documents reference it.
// If force is true, it will reload the SQL functions even if they already exist.
func NewDocumentsDBHandler(db *helper.Database, embeddingDim int, force bool) (*DocumentsDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}
	if embeddingDim <= 0 {
		return nil, helper.NewError("embedding dimension validation", fmt.Errorf("embedding dimension must be positive, got %d", embeddingDim))
	}

	documentsDbHandler := &DocumentsDBHandler{
		db:           db,
		embeddingDim: embeddingDim,
	}

	err := sql.LoadDocumentsSql(documentsDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load documents sql", err)
	}

	err = documentsDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized DocumentsDBHandler")

	return documentsDbHandler, nil
}

// CreateTable creates the 'documents' table in the database.
// If the table already exists, it does not create it again.
// It also creates the cosine vector index.
func (h *DocumentsDBHandler) CreateTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_documents($1);`, h.embeddingDim)
	if err != nil {
		log.Panicf("error initializing documents table: %#v", err)
	}

	h.db.Logger.Info("Checked/created table documents")

	return nil
}

// EmbeddingDim returns the dimension of the embedding column.
func (h *DocumentsDBHandler) EmbeddingDim() int {
	return h.embeddingDim
}

// InsertDocuments writes all documents in one transaction.
// Without upsert an existing id aborts the transaction with ErrUniqueViolation.
func (h *DocumentsDBHandler) InsertDocuments(ctx context.Context, collectionID int64, documents []*model.Document, upsert bool) error {
	tx, err := h.db.Instance.BeginTx(ctx, nil)
	if err != nil {
		return helper.NewError("begin", err)
	}
	defer tx.Rollback()

	query := `SELECT insert_document($1, $2, $3, $4, $5)`
	if upsert {
		query = `SELECT upsert_document($1, $2, $3, $4, $5)`
	}

	for _, d := range documents {
		_, err := tx.ExecContext(
			ctx,
			query,
			collectionID,
			d.ID,
			d.Content,
			pgvector.NewVector(d.Embedding),
			d.Metadata,
		)
		if err != nil {
			var pqErr *pq.Error
			if errors.As(err, &pqErr) && pqErr.Code == uniqueViolationCode {
				return helper.NewError("insert document", fmt.Errorf("%w: %s", ErrUniqueViolation, d.ID))
			}
			return helper.NewError("insert document", err)
		}
	}

	err = tx.Commit()
	if err != nil {
		return helper.NewError("commit", err)
	}

	return nil
}

// SelectDocuments retrieves all documents of a collection ordered by id
func (h *DocumentsDBHandler) SelectDocuments(ctx context.Context, collectionID int64) ([]*model.Document, error) {
	rows, err := h.db.Instance.QueryContext(
		ctx,
		`SELECT * FROM select_documents($1)`,
		collectionID,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	documents := []*model.Document{}
	for rows.Next() {
		d := &model.Document{}
		err := rows.Scan(
			&d.ID,
			&d.Content,
			&d.Metadata,
			&d.CreatedAt,
			&d.UpdatedAt,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		documents = append(documents, d)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return documents, nil
}

// SelectDocumentsByDistance performs a cosine distance search ordered by ascending distance
func (h *DocumentsDBHandler) SelectDocumentsByDistance(ctx context.Context, collectionID int64, embedding []float32, limit int) ([]*model.Document, error) {
	rows, err := h.db.Instance.QueryContext(
		ctx,
		`SELECT * FROM select_documents_by_distance($1, $2, $3)`,
		collectionID,
		pgvector.NewVector(embedding),
		limit,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	documents := []*model.Document{}
	for rows.Next() {
		d := &model.Document{}
		err := rows.Scan(
			&d.ID,
			&d.Content,
			&d.Metadata,
			&d.CreatedAt,
			&d.UpdatedAt,
			&d.Distance,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		documents = append(documents, d)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return documents, nil
}

// DeleteDocuments deletes documents by id and returns the number of deleted rows
func (h *DocumentsDBHandler) DeleteDocuments(ctx context.Context, collectionID int64, ids []string) (int, error) {
	var deleted int
	err := h.db.Instance.QueryRowContext(
		ctx,
		`SELECT delete_documents($1, $2)`,
		collectionID,
		pq.Array(ids),
	).Scan(&deleted)
	if err != nil {
		return 0, helper.NewError("exec", err)
	}
	return deleted, nil
}

// CountDocuments returns the number of documents in a collection
func (h *DocumentsDBHandler) CountDocuments(ctx context.Context, collectionID int64) (int, error) {
	var count int
	err := h.db.Instance.QueryRowContext(
		ctx,
		`SELECT count_documents($1)`,
		collectionID,
	).Scan(&count)
	if err != nil {
		return 0, helper.NewError("scan", err)
	}
	return count, nil
}
