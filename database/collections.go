package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/siherrmann/ragengine/helper"
	"github.com/siherrmann/ragengine/model"
	loadSql "github.com/siherrmann/ragengine/sql"
)

// CollectionsDBHandlerFunctions defines the interface for Collections database operations.
type CollectionsDBHandlerFunctions interface {
	GetOrCreateCollection(ctx context.Context, name string) (*model.Collection, error)
	SelectAllCollections(ctx context.Context) ([]*model.Collection, error)
	DeleteCollection(ctx context.Context, name string) (int, error)
}

// CollectionsDBHandler handles collection-related database operations
type CollectionsDBHandler struct {
	db *helper.Database
}

// NewCollectionsDBHandler creates a new collections database handler.
// It loads the collection-related SQL functions and creates the table.
// If force is true, it will reload the SQL functions even if they already exist.
func NewCollectionsDBHandler(db *helper.Database, force bool) (*CollectionsDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	collectionsDbHandler := &CollectionsDBHandler{
		db: db,
	}

	err := loadSql.LoadCollectionsSql(collectionsDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load collections sql", err)
	}

	err = collectionsDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized CollectionsDBHandler")

	return collectionsDbHandler, nil
}

// CreateTable creates the 'collections' table in the database.
// If the table already exists, it does not create it again.
func (h *CollectionsDBHandler) CreateTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_collections();`)
	if err != nil {
		log.Panicf("error initializing collections table: %#v", err)
	}

	h.db.Logger.Info("Checked/created table collections")

	return nil
}

// GetOrCreateCollection returns the collection with the given name, creating it if needed
func (h *CollectionsDBHandler) GetOrCreateCollection(ctx context.Context, name string) (*model.Collection, error) {
	collection := &model.Collection{}
	row := h.db.Instance.QueryRowContext(
		ctx,
		`SELECT * FROM get_or_create_collection($1)`,
		name,
	)

	err := row.Scan(
		&collection.ID,
		&collection.RID,
		&collection.Name,
		&collection.Metric,
		&collection.Metadata,
		&collection.CreatedAt,
	)
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return collection, nil
}

// SelectAllCollections retrieves all collections ordered by name
func (h *CollectionsDBHandler) SelectAllCollections(ctx context.Context) ([]*model.Collection, error) {
	rows, err := h.db.Instance.QueryContext(ctx, `SELECT * FROM select_all_collections()`)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	collections := []*model.Collection{}
	for rows.Next() {
		collection := &model.Collection{}
		err := rows.Scan(
			&collection.ID,
			&collection.RID,
			&collection.Name,
			&collection.Metric,
			&collection.Metadata,
			&collection.CreatedAt,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		collections = append(collections, collection)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return collections, nil
}

// DeleteCollection deletes a collection and its documents, returning the number of deleted collections
func (h *CollectionsDBHandler) DeleteCollection(ctx context.Context, name string) (int, error) {
	var deleted int
	err := h.db.Instance.QueryRowContext(
		ctx,
		`SELECT delete_collection($1)`,
		name,
	).Scan(&deleted)
	if err != nil {
		return 0, helper.NewError("exec", err)
	}
	return deleted, nil
}
