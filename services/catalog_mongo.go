package services

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"tour-server/models"
)

const (
	poiCollection = "pois"
	adCollection  = "ads"
)

type poiDocument struct {
	Order      int `bson:"order"`
	models.POI `bson:",inline"`
}

type adDocument struct {
	Order                int `bson:"order"`
	models.Advertisement `bson:",inline"`
}

// catalogCollection is the part of *mongo.Collection the catalog source uses.
type catalogCollection interface {
	CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error)
	InsertMany(ctx context.Context, documents []interface{}, opts ...*options.InsertManyOptions) (*mongo.InsertManyResult, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) (*mongo.Cursor, error)
}

// MongoCatalogSource keeps the catalog in MongoDB. Each empty collection is
// seeded from the file catalog; afterwards the database is authoritative for
// POIs and ads.
type MongoCatalogSource struct {
	client *mongo.Client
	pois   catalogCollection
	ads    catalogCollection
	log    *zap.Logger
}

func NewMongoCatalogSource(ctx context.Context, uri, database string, log *zap.Logger) (*MongoCatalogSource, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongodb connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongodb ping: %w", err)
	}
	log.Info("connected to MongoDB", zap.String("database", database))
	db := client.Database(database)
	return &MongoCatalogSource{
		client: client,
		pois:   db.Collection(poiCollection),
		ads:    db.Collection(adCollection),
		log:    log,
	}, nil
}

// Load returns the stored catalog, seeding each empty collection from seed.
// Languages and route always come from seed.
func (s *MongoCatalogSource) Load(ctx context.Context, seed *models.Catalog) (*models.Catalog, error) {
	if err := s.seedIfEmpty(ctx, poiCollection, s.pois, toPOIDocuments(seed.POIs)); err != nil {
		return nil, err
	}
	if err := s.seedIfEmpty(ctx, adCollection, s.ads, toAdDocuments(seed.Ads)); err != nil {
		return nil, err
	}

	byOrder := options.Find().SetSort(bson.D{{Key: "order", Value: 1}})

	cursor, err := s.pois.Find(ctx, bson.M{}, byOrder)
	if err != nil {
		return nil, fmt.Errorf("find pois: %w", err)
	}
	var poiDocs []poiDocument
	if err := cursor.All(ctx, &poiDocs); err != nil {
		return nil, fmt.Errorf("decode pois: %w", err)
	}

	cursor, err = s.ads.Find(ctx, bson.M{}, byOrder)
	if err != nil {
		return nil, fmt.Errorf("find ads: %w", err)
	}
	var adDocs []adDocument
	if err := cursor.All(ctx, &adDocs); err != nil {
		return nil, fmt.Errorf("decode ads: %w", err)
	}

	catalog := &models.Catalog{
		Languages: seed.Languages,
		Route:     seed.Route,
		POIs:      fromPOIDocuments(poiDocs),
		Ads:       fromAdDocuments(adDocs),
	}
	if err := ValidateCatalog(catalog); err != nil {
		return nil, fmt.Errorf("stored catalog: %w", err)
	}
	s.log.Info("catalog loaded from MongoDB", zap.Int("pois", len(catalog.POIs)), zap.Int("ads", len(catalog.Ads)))
	return catalog, nil
}

func (s *MongoCatalogSource) seedIfEmpty(ctx context.Context, name string, coll catalogCollection, docs []interface{}) error {
	count, err := coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return fmt.Errorf("count %s: %w", name, err)
	}
	if count > 0 || len(docs) == 0 {
		return nil
	}
	s.log.Info("seeding MongoDB collection from catalog file", zap.String("collection", name), zap.Int("documents", len(docs)))
	if _, err := coll.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("seed %s: %w", name, err)
	}
	return nil
}

func (s *MongoCatalogSource) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func toPOIDocuments(pois []models.POI) []interface{} {
	docs := make([]interface{}, 0, len(pois))
	for i, p := range pois {
		docs = append(docs, poiDocument{Order: i, POI: p})
	}
	return docs
}

func fromPOIDocuments(docs []poiDocument) []models.POI {
	out := make([]models.POI, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.POI)
	}
	return out
}

func toAdDocuments(ads []models.Advertisement) []interface{} {
	docs := make([]interface{}, 0, len(ads))
	for i, a := range ads {
		docs = append(docs, adDocument{Order: i, Advertisement: a})
	}
	return docs
}

func fromAdDocuments(docs []adDocument) []models.Advertisement {
	out := make([]models.Advertisement, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.Advertisement)
	}
	return out
}
