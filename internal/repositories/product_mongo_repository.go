package repositories

import (
	"context"
	"regexp"

	"marketplace/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoProductRepository stores products in a MongoDB collection.
type MongoProductRepository struct {
	coll *mongo.Collection
}

// NewMongoProductRepository creates a new instance of MongoProductRepository.
func NewMongoProductRepository(db *mongo.Database) *MongoProductRepository {
	return &MongoProductRepository{coll: db.Collection(productsCollection)}
}

func (r *MongoProductRepository) Create(ctx context.Context, product *models.Product) error {
	if product.ID == "" {
		product.ID = newID()
	}
	product.EnsureCollections()
	product.CreatedAt = now()
	product.UpdatedAt = product.CreatedAt
	if _, err := r.coll.InsertOne(ctx, product); err != nil {
		return storeErr("create product", err)
	}
	return nil
}

func (r *MongoProductRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	var product models.Product
	if err := findOne(ctx, r.coll, "product", id, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

// productQuery translates a ProductFilter into a Mongo query document.
func productQuery(filter ProductFilter) bson.M {
	q := bson.M{}
	if filter.IDs != nil {
		q["_id"] = bson.M{"$in": filter.IDs}
	}
	if filter.SellerID != "" {
		q["sellerId"] = filter.SellerID
	}
	if len(filter.Categories) > 0 {
		q["categories"] = bson.M{"$in": filter.Categories}
	}
	if len(filter.Colors) > 0 {
		q["colors"] = bson.M{"$in": filter.Colors}
	}
	price := bson.M{}
	if filter.MinPrice != nil {
		price["$gte"] = *filter.MinPrice
	}
	if filter.MaxPrice != nil {
		price["$lte"] = *filter.MaxPrice
	}
	if len(price) > 0 {
		q["price"] = price
	}
	if filter.Keyword != "" {
		pattern := bson.M{"$regex": regexp.QuoteMeta(filter.Keyword), "$options": "i"}
		q["$or"] = bson.A{bson.M{"name": pattern}, bson.M{"description": pattern}}
	}
	return q
}

func (r *MongoProductRepository) Find(ctx context.Context, filter ProductFilter) ([]models.Product, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := r.coll.Find(ctx, productQuery(filter), opts)
	if err != nil {
		return nil, storeErr("find products", err)
	}
	return decodeAll[models.Product](ctx, cur, "find products")
}

func (r *MongoProductRepository) Update(ctx context.Context, product *models.Product) error {
	product.EnsureCollections()
	product.UpdatedAt = now()
	return replaceOne(ctx, r.coll, "product", product.ID, product)
}

func (r *MongoProductRepository) Delete(ctx context.Context, id string) error {
	return deleteOne(ctx, r.coll, "product", id)
}

func (r *MongoProductRepository) AddRating(ctx context.Context, productID string, rating models.Rating) (*models.Product, error) {
	product, err := r.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	filter, update := ratingPush(productID, product.Ratings, rating)
	ok, err := updateOne(ctx, r.coll, "product", filter, update)
	if err != nil {
		return nil, err
	}
	if !ok {
		latest, getErr := r.GetByID(ctx, productID)
		var ratings models.Ratings
		if latest != nil {
			ratings = latest.Ratings
		}
		return nil, ratingMiss(ratings, rating.RaterID, getErr)
	}
	return r.GetByID(ctx, productID)
}
