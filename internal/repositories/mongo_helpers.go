package repositories

import (
	"context"
	"errors"

	"marketplace/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection names used by the Mongo store.
const (
	usersCollection    = "users"
	productsCollection = "products"
	ordersCollection   = "orders"
)

// ensureMongoIndexes creates the unique indexes the user store relies on.
func ensureMongoIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(usersCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true).SetName("username_unique")},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true).SetName("email_unique")},
	})
	if err != nil {
		return storeErr("create user indexes", err)
	}
	_, err = db.Collection(ordersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "createdAt", Value: -1}},
	})
	if err != nil {
		return storeErr("create order indexes", err)
	}
	return nil
}

// findOne decodes a single document by _id into out.
func findOne(ctx context.Context, coll *mongo.Collection, entity, id string, out any) error {
	if !validID(id) {
		return models.NotFound(entity, id)
	}
	err := coll.FindOne(ctx, bson.M{"_id": id}).Decode(out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.NotFound(entity, id)
	}
	if err != nil {
		return storeErr("get "+entity, err)
	}
	return nil
}

func replaceOne(ctx context.Context, coll *mongo.Collection, entity, id string, doc any) error {
	res, err := coll.ReplaceOne(ctx, bson.M{"_id": id}, doc)
	if err != nil {
		return storeErr("update "+entity, err)
	}
	if res.MatchedCount == 0 {
		return models.NotFound(entity, id)
	}
	return nil
}

func deleteOne(ctx context.Context, coll *mongo.Collection, entity, id string) error {
	if !validID(id) {
		return models.NotFound(entity, id)
	}
	res, err := coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return storeErr("delete "+entity, err)
	}
	if res.DeletedCount == 0 {
		return models.NotFound(entity, id)
	}
	return nil
}

// updateOne applies update to the document matching filter and reports
// whether it matched.
func updateOne(ctx context.Context, coll *mongo.Collection, entity string, filter, update bson.M) (bool, error) {
	res, err := coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, storeErr("update "+entity, err)
	}
	return res.MatchedCount > 0, nil
}

// ratingPush appends rating to the document's ratings only if the rater is
// not already present and the array still has the length the caller read.
// That makes the recomputed average consistent with the pushed array.
func ratingPush(id string, current []models.Rating, rating models.Rating) (bson.M, bson.M) {
	next := append(append([]models.Rating{}, current...), rating)
	filter := bson.M{
		"_id":            id,
		"ratings.userId": bson.M{"$ne": rating.RaterID},
		"ratings":        bson.M{"$size": len(current)},
	}
	update := bson.M{
		"$push": bson.M{"ratings": rating},
		"$set":  bson.M{"averageRating": models.AverageRating(next), "updatedAt": now()},
	}
	return filter, update
}

// ratingMiss explains why a guarded rating push matched nothing.
func ratingMiss(ratings models.Ratings, raterID string, getErr error) error {
	if getErr != nil {
		return getErr
	}
	if ratings.HasRater(raterID) {
		return models.ErrDuplicateRating
	}
	return models.ErrConflict
}

func decodeAll[T any](ctx context.Context, cur *mongo.Cursor, op string) ([]T, error) {
	defer cur.Close(ctx)
	out := []T{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, storeErr(op, err)
	}
	return out, nil
}
