package mongostore

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/dmitrymomot/formqc/pkg/datastore"
	"github.com/dmitrymomot/formqc/pkg/value"
)

// Collection names used by the store.
const (
	visitsCollection  = "visits"
	rxnormCollection  = "rxnorm_codes"
	centersCollection = "centers"
)

// Store is a MongoDB-backed datastore: one document per visit in the
// visits collection, reference codes in their own collections.
type Store struct {
	db      *mongo.Database
	pkField string
	orderBy string
}

// Connect establishes a client and returns a Store over cfg.Database.
func Connect(ctx context.Context, cfg Config, pkField, orderBy string) (*Store, error) {
	for range cfg.RetryAttempts {
		client, err := mongo.Connect(
			options.Client().
				ApplyURI(cfg.ConnectionURL).
				SetConnectTimeout(cfg.ConnectTimeout),
		)
		if err == nil {
			if err := client.Ping(ctx, nil); err == nil {
				return New(client.Database(cfg.Database), pkField, orderBy), nil
			}
		}
		time.Sleep(cfg.RetryInterval)
	}
	return nil, ErrFailedToConnect
}

// New builds a Store over an established database handle.
func New(db *mongo.Database, pkField, orderBy string) *Store {
	return &Store{db: db, pkField: pkField, orderBy: orderBy}
}

// SaveRecord inserts a visit record document.
func (s *Store) SaveRecord(ctx context.Context, rec datastore.Record) error {
	pk, ok := rec[s.pkField]
	if !ok || pk.IsNull() {
		return datastore.ErrNoPrimaryKey
	}
	doc := bson.M{"participant": pk.String(), "record": toAnyMap(rec)}
	if _, err := s.db.Collection(visitsCollection).InsertOne(ctx, doc); err != nil {
		return errors.Join(ErrQueryFailed, err)
	}
	return nil
}

// GetPreviousRecord fetches the participant's visit documents and selects
// the most recent one strictly before the current record on the order
// field, using the engine's value comparison.
func (s *Store) GetPreviousRecord(ctx context.Context, orderBy string, current datastore.Record, ignoreEmpty []string) (datastore.Record, error) {
	if orderBy == "" {
		orderBy = s.orderBy
	}
	pk, ok := current[s.pkField]
	if !ok || pk.IsNull() {
		return nil, datastore.ErrNoPrimaryKey
	}

	cursor, err := s.db.Collection(visitsCollection).Find(ctx, bson.M{"participant": pk.String()})
	if err != nil {
		return nil, errors.Join(ErrQueryFailed, err)
	}
	defer cursor.Close(ctx)

	var candidates []datastore.Record
	for cursor.Next(ctx) {
		var doc struct {
			Record map[string]any `bson:"record"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, errors.Join(ErrQueryFailed, err)
		}
		candidates = append(candidates, fromAnyMap(doc.Record))
	}
	if err := cursor.Err(); err != nil {
		return nil, errors.Join(ErrQueryFailed, err)
	}

	return datastore.SelectPrevious(candidates, orderBy, current, ignoreEmpty), nil
}

func (s *Store) IsValidRxcui(ctx context.Context, code int64) (bool, error) {
	n, err := s.db.Collection(rxnormCollection).CountDocuments(ctx, bson.M{"code": code})
	if err != nil {
		return false, errors.Join(ErrQueryFailed, err)
	}
	return n > 0, nil
}

func (s *Store) IsValidADCID(ctx context.Context, adcid int64, own bool) (bool, error) {
	filter := bson.M{"adcid": adcid}
	if own {
		filter["is_own"] = true
	}
	n, err := s.db.Collection(centersCollection).CountDocuments(ctx, filter)
	if err != nil {
		return false, errors.Join(ErrQueryFailed, err)
	}
	return n > 0, nil
}

func toAnyMap(rec datastore.Record) map[string]any {
	out := make(map[string]any, len(rec))
	for k, v := range rec {
		out[k] = v.Any()
	}
	return out
}

func fromAnyMap(raw map[string]any) datastore.Record {
	rec := make(datastore.Record, len(raw))
	for k, v := range raw {
		rec[k] = value.FromAny(v)
	}
	return rec
}
