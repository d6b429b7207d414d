package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/SamBailey6194/boutique-ado-v1/internal/domain"
)

type mongoCatalog struct {
	collection *mongo.Collection
}

// productDoc is the stored shape. Price is kept as a string so decimal
// values round-trip exactly.
type productDoc struct {
	ID       string `bson:"_id"`
	Name     string `bson:"name"`
	Price    string `bson:"price"`
	HasSizes bool   `bson:"has_sizes"`
}

func NewMongoCatalog(db *mongo.Database) Catalog {
	return &mongoCatalog{
		collection: db.Collection("products"),
	}
}

func (c *mongoCatalog) Get(ctx context.Context, productID string) (*domain.Product, error) {
	var doc productDoc

	filter := bson.M{"_id": productID}
	err := c.collection.FindOne(ctx, filter).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	price, err := decimal.NewFromString(doc.Price)
	if err != nil {
		return nil, fmt.Errorf("invalid price for product %s: %w", doc.ID, err)
	}

	return &domain.Product{
		ID:       doc.ID,
		Name:     doc.Name,
		Price:    price,
		HasSizes: doc.HasSizes,
	}, nil
}

func ConnectMongoDB(ctx context.Context, uri, database string) (*mongo.Database, error) {
	clientOpts := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(10 * time.Second).
		SetServerSelectionTimeout(5 * time.Second).
		SetMaxPoolSize(100).
		SetMinPoolSize(10)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return client.Database(database), nil
}
