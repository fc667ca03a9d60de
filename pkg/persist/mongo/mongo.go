// Package mongo syncs board state to MongoDB.
//
// Blocks and sections live in collections keyed by their refboard ids.
// Freeform positions are keyed by section_id and block_id together, since a
// block keeps its canvas position per section. Only the position keys
// written by the engine are touched; other fields of a block document are
// left alone.
package mongo

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/refboard/pkg/board"
	"github.com/matzehuels/refboard/pkg/errors"
	"github.com/matzehuels/refboard/pkg/persist"
)

// Collection names.
const (
	BlocksCollection    = "blocks"
	PositionsCollection = "positions"
	SectionsCollection  = "sections"
)

const connectTimeout = 10 * time.Second

var _ persist.Store = (*Store)(nil)

// Store implements persist.Store on a MongoDB database.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

// Connect opens a client for uri and pings it.
func Connect(ctx context.Context, uri, database string) (*Store, error) {
	if database == "" {
		database = "refboard"
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodePersistence, err, "connect mongo")
	}
	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, errors.Wrap(errors.ErrCodePersistence, err, "ping mongo")
	}
	return &Store{client: client, db: client.Database(database)}, nil
}

// Close disconnects the client.
func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// SyncColumnOrder updates the position keys of every block in the snapshot
// and the section's column count.
func (s *Store) SyncColumnOrder(ctx context.Context, order persist.SectionOrder) error {
	if _, err := s.db.Collection(SectionsCollection).UpdateOne(ctx,
		bson.M{"_id": order.SectionID},
		bson.M{"$set": bson.M{"columns": order.Columns}},
		options.Update().SetUpsert(true),
	); err != nil {
		return fmt.Errorf("update section %s: %w", order.SectionID, err)
	}

	models := columnWrites(order)
	if len(models) == 0 {
		return nil
	}
	if _, err := s.db.Collection(BlocksCollection).BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false)); err != nil {
		return fmt.Errorf("write blocks of %s: %w", order.SectionID, err)
	}
	return nil
}

// SyncFreeformPositions replaces the stored positions of a section.
func (s *Store) SyncFreeformPositions(ctx context.Context, sectionID string, positions map[string]board.FreeformPosition) error {
	models := positionWrites(sectionID, positions)
	if _, err := s.db.Collection(PositionsCollection).BulkWrite(ctx, models); err != nil {
		return fmt.Errorf("write positions of %s: %w", sectionID, err)
	}
	return nil
}

// SetDeleted sets the soft-delete flag of the given blocks.
func (s *Store) SetDeleted(ctx context.Context, ids []string, deleted bool) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := s.db.Collection(BlocksCollection).UpdateMany(ctx,
		bson.M{"_id": bson.M{"$in": ids}},
		bson.M{"$set": bson.M{"deleted": deleted, "updated_at": time.Now()}},
	)
	if err != nil {
		return fmt.Errorf("set deleted: %w", err)
	}
	return nil
}

func columnWrites(order persist.SectionOrder) []mongo.WriteModel {
	models := make([]mongo.WriteModel, 0, len(order.Blocks))
	for _, bo := range order.Blocks {
		models = append(models, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"_id": bo.ID}).
			SetUpdate(bson.M{"$set": bson.M{
				"section_id":  order.SectionID,
				"col_index":   bo.Col,
				"row_index":   bo.Row,
				"order_index": bo.Order,
			}}).
			SetUpsert(true))
	}
	return models
}

// positionWrites removes positions of the section that are no longer
// present, then upserts the rest in block id order. Documents of other
// sections are never matched.
func positionWrites(sectionID string, positions map[string]board.FreeformPosition) []mongo.WriteModel {
	ids := slices.Sorted(maps.Keys(positions))
	if ids == nil {
		ids = []string{}
	}
	models := []mongo.WriteModel{
		mongo.NewDeleteManyModel().SetFilter(bson.M{
			"section_id": sectionID,
			"block_id":   bson.M{"$nin": ids},
		}),
	}
	for _, id := range ids {
		p := positions[id]
		models = append(models, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"section_id": sectionID, "block_id": id}).
			SetUpdate(bson.M{"$set": bson.M{
				"x":     p.X,
				"y":     p.Y,
				"z":     p.Z,
				"scale": p.Scale,
			}}).
			SetUpsert(true))
	}
	return models
}
