package repositories

import (
	"context"
	"errors"

	"marketplace/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoUserRepository stores users in a MongoDB collection.
type MongoUserRepository struct {
	coll *mongo.Collection
}

// NewMongoUserRepository creates a new instance of MongoUserRepository.
func NewMongoUserRepository(db *mongo.Database) *MongoUserRepository {
	return &MongoUserRepository{coll: db.Collection(usersCollection)}
}

func (r *MongoUserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = newID()
	}
	user.EnsureCollections()
	user.CreatedAt = now()
	user.UpdatedAt = user.CreatedAt
	if _, err := r.coll.InsertOne(ctx, user); err != nil {
		return storeErr("create user", err)
	}
	return nil
}

func (r *MongoUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := findOne(ctx, r.coll, "user", id, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *MongoUserRepository) getBy(ctx context.Context, field, value string) (*models.User, error) {
	var user models.User
	err := r.coll.FindOne(ctx, bson.M{field: value}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, models.NotFound("user", value)
	}
	if err != nil {
		return nil, storeErr("get user by "+field, err)
	}
	return &user, nil
}

func (r *MongoUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.getBy(ctx, "username", username)
}

func (r *MongoUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getBy(ctx, "email", email)
}

func (r *MongoUserRepository) Find(ctx context.Context, filter UserFilter) ([]models.User, error) {
	q := bson.M{}
	if filter.Role != "" {
		q["role"] = filter.Role
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := r.coll.Find(ctx, q, opts)
	if err != nil {
		return nil, storeErr("find users", err)
	}
	return decodeAll[models.User](ctx, cur, "find users")
}

func (r *MongoUserRepository) Update(ctx context.Context, user *models.User) error {
	user.EnsureCollections()
	user.UpdatedAt = now()
	return replaceOne(ctx, r.coll, "user", user.ID, user)
}

func (r *MongoUserRepository) Delete(ctx context.Context, id string) error {
	return deleteOne(ctx, r.coll, "user", id)
}

// ToggleLike swaps the liked array only if it still equals the one read, so
// two concurrent toggles can never both apply to the same starting list.
func (r *MongoUserRepository) ToggleLike(ctx context.Context, userID, productID string) (bool, error) {
	user, err := r.GetByID(ctx, userID)
	if err != nil {
		return false, err
	}
	next, liked := user.Liked.Toggle(productID)
	ok, err := updateOne(ctx, r.coll, "user",
		bson.M{"_id": userID, "liked": []string(user.Liked)},
		bson.M{"$set": bson.M{"liked": []string(next), "updatedAt": now()}})
	if err != nil {
		return false, err
	}
	if !ok {
		return false, models.ErrConflict
	}
	return liked, nil
}

func (r *MongoUserRepository) PushOrder(ctx context.Context, userID, orderID string) error {
	if !validID(userID) {
		return models.NotFound("user", userID)
	}
	ok, err := updateOne(ctx, r.coll, "user", bson.M{"_id": userID},
		bson.M{"$push": bson.M{"orders": orderID}, "$set": bson.M{"updatedAt": now()}})
	if err != nil {
		return err
	}
	if !ok {
		return models.NotFound("user", userID)
	}
	return nil
}

func (r *MongoUserRepository) PullOrder(ctx context.Context, userID, orderID string) error {
	if !validID(userID) {
		return models.NotFound("user", userID)
	}
	ok, err := updateOne(ctx, r.coll, "user", bson.M{"_id": userID},
		bson.M{"$pull": bson.M{"orders": orderID}, "$set": bson.M{"updatedAt": now()}})
	if err != nil {
		return err
	}
	if !ok {
		return models.NotFound("user", userID)
	}
	return nil
}

func (r *MongoUserRepository) AddRating(ctx context.Context, userID string, rating models.Rating) (*models.User, error) {
	user, err := r.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	filter, update := ratingPush(userID, user.Ratings, rating)
	ok, err := updateOne(ctx, r.coll, "user", filter, update)
	if err != nil {
		return nil, err
	}
	if !ok {
		latest, getErr := r.GetByID(ctx, userID)
		var ratings models.Ratings
		if latest != nil {
			ratings = latest.Ratings
		}
		return nil, ratingMiss(ratings, rating.RaterID, getErr)
	}
	return r.GetByID(ctx, userID)
}
