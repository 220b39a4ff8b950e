package repositories

import (
	"context"
	"errors"

	"marketplace/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoOrderRepository stores orders in a MongoDB collection.
type MongoOrderRepository struct {
	coll *mongo.Collection
}

// NewMongoOrderRepository creates a new instance of MongoOrderRepository.
func NewMongoOrderRepository(db *mongo.Database) *MongoOrderRepository {
	return &MongoOrderRepository{coll: db.Collection(ordersCollection)}
}

func (r *MongoOrderRepository) Create(ctx context.Context, order *models.Order) error {
	if order.ID == "" {
		order.ID = newID()
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now()
	}
	order.UpdatedAt = now()
	if _, err := r.coll.InsertOne(ctx, order); err != nil {
		return storeErr("create order", err)
	}
	return nil
}

func (r *MongoOrderRepository) GetByID(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	if err := findOne(ctx, r.coll, "order", id, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *MongoOrderRepository) Find(ctx context.Context, filter OrderFilter) ([]models.Order, error) {
	q := bson.M{}
	if filter.IDs != nil {
		q["_id"] = bson.M{"$in": filter.IDs}
	}
	if filter.State != "" {
		q["state"] = filter.State
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: 1}})
	cur, err := r.coll.Find(ctx, q, opts)
	if err != nil {
		return nil, storeErr("find orders", err)
	}
	return decodeAll[models.Order](ctx, cur, "find orders")
}

func (r *MongoOrderRepository) Update(ctx context.Context, order *models.Order) error {
	order.UpdatedAt = now()
	return replaceOne(ctx, r.coll, "order", order.ID, order)
}

func (r *MongoOrderRepository) UpdateState(ctx context.Context, id string, state string) (*models.Order, error) {
	if !validID(id) {
		return nil, models.NotFound("order", id)
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var order models.Order
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": id},
		bson.M{"$set": bson.M{"state": state, "updatedAt": now()}}, opts).Decode(&order)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, models.NotFound("order", id)
	}
	if err != nil {
		return nil, storeErr("update order state", err)
	}
	return &order, nil
}

func (r *MongoOrderRepository) Delete(ctx context.Context, id string) error {
	return deleteOne(ctx, r.coll, "order", id)
}
