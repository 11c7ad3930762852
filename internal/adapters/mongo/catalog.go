package mongo

import (
	"context"
	"time"

	"github.com/robertarktes/stay-reservations/internal/domain"
	"github.com/robertarktes/stay-reservations/internal/observability"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// CatalogRepository reads the property catalog. Properties are owned by the
// listing side of the system; the booking core only checks existence and pulls
// display fields.
type CatalogRepository struct {
	coll   *mongo.Collection
	logger observability.Logger
}

func NewCatalogRepository(db *mongo.Database, logger observability.Logger) *CatalogRepository {
	return &CatalogRepository{
		coll:   db.Collection("properties"),
		logger: logger,
	}
}

type PropertyDoc struct {
	ID            int64     `bson:"_id"`
	HostID        int64     `bson:"host_id"`
	Title         string    `bson:"title"`
	Description   string    `bson:"description"`
	Type          string    `bson:"type"`
	PricePerNight float64   `bson:"price_per_night"`
	Location      string    `bson:"location"`
	City          string    `bson:"city"`
	Images        []string  `bson:"images"`
	CreatedAt     time.Time `bson:"created_at"`
	UpdatedAt     time.Time `bson:"updated_at"`
}

func (d PropertyDoc) view() *domain.Property {
	return &domain.Property{
		ID:       d.ID,
		Title:    d.Title,
		Location: d.Location,
		City:     d.City,
		Images:   d.Images,
	}
}

// GetProperty returns domain.ErrNotFound for unknown ids so callers can reject
// bookings against properties that do not exist.
func (c *CatalogRepository) GetProperty(ctx context.Context, id int64) (*domain.Property, error) {
	var doc PropertyDoc
	err := c.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		c.logger.Error("failed to get property", err)
		return nil, err
	}
	return doc.view(), nil
}

func (c *CatalogRepository) CountProperties(ctx context.Context) (int64, error) {
	return c.coll.CountDocuments(ctx, bson.M{})
}

func (c *CatalogRepository) CreateProperty(ctx context.Context, doc PropertyDoc) error {
	doc.CreatedAt = time.Now()
	doc.UpdatedAt = time.Now()
	_, err := c.coll.InsertOne(ctx, doc)
	if err != nil {
		c.logger.Error("failed to create property", err)
		return err
	}
	return nil
}
