package repositories_test

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"marketplace/internal/config"
	"marketplace/internal/models"
	"marketplace/internal/repositories"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type storeFactory struct {
	name string
	open func(t *testing.T) *repositories.Store
}

func openSQLite(t *testing.T) *repositories.Store {
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := repositories.OpenGORM(config.DriverSQLite, dsn)
	require.NoError(t, err)
	store, err := repositories.NewGORMStore(db)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close(context.Background()) })
	return store
}

func openMongo(t *testing.T) *repositories.Store {
	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		t.Skip("MONGO_URI not set")
	}
	ctx := context.Background()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	require.NoError(t, err)
	db := client.Database("marketplace_test_" + uuid.NewString()[:8])
	store, err := repositories.NewMongoStore(ctx, db)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Drop(ctx)
		_ = store.Close(ctx)
	})
	return store
}

// stores lists every backend the contract runs against.
func stores() []storeFactory {
	return []storeFactory{
		{name: "memory", open: func(*testing.T) *repositories.Store { return repositories.NewMemoryStore() }},
		{name: "sqlite", open: openSQLite},
		{name: "mongo", open: openMongo},
	}
}

func forEachStore(t *testing.T, fn func(t *testing.T, store *repositories.Store)) {
	for _, f := range stores() {
		t.Run(f.name, func(t *testing.T) {
			fn(t, f.open(t))
		})
	}
}

func newUser(name string) *models.User {
	return &models.User{Username: name, Email: name + "@example.com", Password: "hash"}
}

func TestUserStore_CreateAndLookup(t *testing.T) {
	forEachStore(t, func(t *testing.T, store *repositories.Store) {
		ctx := context.Background()
		u := newUser("alice")
		require.NoError(t, store.Users.Create(ctx, u))
		assert.NotEmpty(t, u.ID)

		got, err := store.Users.GetByID(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, "alice", got.Username)
		assert.NotNil(t, got.Liked)
		assert.NotNil(t, got.Orders)
		assert.Empty(t, got.Ratings)

		byName, err := store.Users.GetByUsername(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, u.ID, byName.ID)

		byEmail, err := store.Users.GetByEmail(ctx, "alice@example.com")
		require.NoError(t, err)
		assert.Equal(t, u.ID, byEmail.ID)
	})
}

func TestUserStore_UniqueFields(t *testing.T) {
	forEachStore(t, func(t *testing.T, store *repositories.Store) {
		ctx := context.Background()
		require.NoError(t, store.Users.Create(ctx, newUser("bob")))

		sameName := &models.User{Username: "bob", Email: "other@example.com"}
		err := store.Users.Create(ctx, sameName)
		var dup *models.DuplicateKeyError
		require.ErrorAs(t, err, &dup)
		assert.Equal(t, "username", dup.Field)

		sameEmail := &models.User{Username: "robert", Email: "bob@example.com"}
		err = store.Users.Create(ctx, sameEmail)
		require.ErrorAs(t, err, &dup)
		assert.Equal(t, "email", dup.Field)
	})
}

func TestUserStore_NotFound(t *testing.T) {
	forEachStore(t, func(t *testing.T, store *repositories.Store) {
		ctx := context.Background()
		for _, id := range []string{uuid.NewString(), "not-an-id"} {
			_, err := store.Users.GetByID(ctx, id)
			assert.True(t, models.IsNotFound(err), "GetByID(%q): %v", id, err)

			_, err = store.Users.ToggleLike(ctx, id, uuid.NewString())
			assert.True(t, models.IsNotFound(err))

			assert.True(t, models.IsNotFound(store.Users.PushOrder(ctx, id, uuid.NewString())))
			assert.True(t, models.IsNotFound(store.Users.PullOrder(ctx, id, uuid.NewString())))
			assert.True(t, models.IsNotFound(store.Users.Delete(ctx, id)))
		}
	})
}

func TestUserStore_ToggleLike(t *testing.T) {
	forEachStore(t, func(t *testing.T, store *repositories.Store) {
		ctx := context.Background()
		u := newUser("carol")
		require.NoError(t, store.Users.Create(ctx, u))
		productID := uuid.NewString()

		liked, err := store.Users.ToggleLike(ctx, u.ID, productID)
		require.NoError(t, err)
		assert.True(t, liked)
		got, _ := store.Users.GetByID(ctx, u.ID)
		assert.Equal(t, models.IDList{productID}, got.Liked)

		liked, err = store.Users.ToggleLike(ctx, u.ID, productID)
		require.NoError(t, err)
		assert.False(t, liked)
		got, _ = store.Users.GetByID(ctx, u.ID)
		assert.Empty(t, got.Liked)
	})
}

func TestUserStore_PushPullOrder(t *testing.T) {
	forEachStore(t, func(t *testing.T, store *repositories.Store) {
		ctx := context.Background()
		u := newUser("dave")
		require.NoError(t, store.Users.Create(ctx, u))
		a, b := uuid.NewString(), uuid.NewString()

		require.NoError(t, store.Users.PushOrder(ctx, u.ID, a))
		require.NoError(t, store.Users.PushOrder(ctx, u.ID, b))
		require.NoError(t, store.Users.PushOrder(ctx, u.ID, a))
		require.NoError(t, store.Users.PullOrder(ctx, u.ID, a))
		// pulling an absent id is not an error
		require.NoError(t, store.Users.PullOrder(ctx, u.ID, uuid.NewString()))

		got, err := store.Users.GetByID(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, models.IDList{b}, got.Orders)
	})
}

func TestUserStore_AddRating(t *testing.T) {
	forEachStore(t, func(t *testing.T, store *repositories.Store) {
		ctx := context.Background()
		seller := newUser("erin")
		require.NoError(t, store.Users.Create(ctx, seller))
		rater1, rater2 := uuid.NewString(), uuid.NewString()

		got, err := store.Users.AddRating(ctx, seller.ID, models.Rating{RaterID: rater1, Score: 4, Timestamp: time.Now().UTC()})
		require.NoError(t, err)
		assert.Len(t, got.Ratings, 1)
		assert.InDelta(t, 4.0, got.AverageRating, 1e-9)

		got, err = store.Users.AddRating(ctx, seller.ID, models.Rating{RaterID: rater2, Score: 5, Timestamp: time.Now().UTC()})
		require.NoError(t, err)
		assert.InDelta(t, 4.5, got.AverageRating, 1e-9)

		_, err = store.Users.AddRating(ctx, seller.ID, models.Rating{RaterID: rater1, Score: 1})
		assert.ErrorIs(t, err, models.ErrDuplicateRating)

		got, err = store.Users.GetByID(ctx, seller.ID)
		require.NoError(t, err)
		assert.Len(t, got.Ratings, 2)
		assert.InDelta(t, 4.5, got.AverageRating, 1e-9)
	})
}

func TestUserStore_FindByRole(t *testing.T) {
	forEachStore(t, func(t *testing.T, store *repositories.Store) {
		ctx := context.Background()
		seller := newUser("frank")
		seller.Role = models.RoleSeller
		require.NoError(t, store.Users.Create(ctx, seller))
		require.NoError(t, store.Users.Create(ctx, newUser("gina")))

		all, err := store.Users.Find(ctx, repositories.UserFilter{})
		require.NoError(t, err)
		assert.Len(t, all, 2)

		sellers, err := store.Users.Find(ctx, repositories.UserFilter{Role: models.RoleSeller})
		require.NoError(t, err)
		require.Len(t, sellers, 1)
		assert.Equal(t, seller.ID, sellers[0].ID)
	})
}

func TestProductStore_Find(t *testing.T) {
	forEachStore(t, func(t *testing.T, store *repositories.Store) {
		ctx := context.Background()
		sellerID := uuid.NewString()
		shirt := &models.Product{SellerID: sellerID, Name: "Linen Shirt", Description: "Breathable", Price: 30,
			Colors: models.StringList{"white", "blue"}, Categories: models.StringList{"tops"}}
		boots := &models.Product{SellerID: uuid.NewString(), Name: "Boots", Description: "Leather boots for hiking", Price: 120,
			Colors: models.StringList{"brown"}, Categories: models.StringList{"shoes"}}
		require.NoError(t, store.Products.Create(ctx, shirt))
		require.NoError(t, store.Products.Create(ctx, boots))

		ids := func(ps []models.Product) []string {
			out := []string{}
			for _, p := range ps {
				out = append(out, p.ID)
			}
			return out
		}
		minP, maxP := 50.0, 200.0

		cases := []struct {
			name   string
			filter repositories.ProductFilter
			want   []string
		}{
			{"all", repositories.ProductFilter{}, []string{shirt.ID, boots.ID}},
			{"seller", repositories.ProductFilter{SellerID: sellerID}, []string{shirt.ID}},
			{"category", repositories.ProductFilter{Categories: []string{"shoes", "hats"}}, []string{boots.ID}},
			{"color", repositories.ProductFilter{Colors: []string{"blue"}}, []string{shirt.ID}},
			{"price", repositories.ProductFilter{MinPrice: &minP, MaxPrice: &maxP}, []string{boots.ID}},
			{"keyword", repositories.ProductFilter{Keyword: "HIKING"}, []string{boots.ID}},
			{"ids", repositories.ProductFilter{IDs: []string{shirt.ID}}, []string{shirt.ID}},
			{"empty ids", repositories.ProductFilter{IDs: []string{}}, []string{}},
		}
		for _, tc := range cases {
			got, err := store.Products.Find(ctx, tc.filter)
			require.NoError(t, err, tc.name)
			assert.ElementsMatch(t, tc.want, ids(got), tc.name)
		}
	})
}

func TestProductStore_UpdateDelete(t *testing.T) {
	forEachStore(t, func(t *testing.T, store *repositories.Store) {
		ctx := context.Background()
		p := &models.Product{SellerID: uuid.NewString(), Name: "Mug", Description: "Ceramic", Price: 8}
		require.NoError(t, store.Products.Create(ctx, p))

		p.Price = 9.5
		require.NoError(t, store.Products.Update(ctx, p))
		got, err := store.Products.GetByID(ctx, p.ID)
		require.NoError(t, err)
		assert.InDelta(t, 9.5, got.Price, 1e-9)

		require.NoError(t, store.Products.Delete(ctx, p.ID))
		_, err = store.Products.GetByID(ctx, p.ID)
		assert.True(t, models.IsNotFound(err))
		assert.True(t, models.IsNotFound(store.Products.Update(ctx, p)))
	})
}

func TestOrderStore_Lifecycle(t *testing.T) {
	forEachStore(t, func(t *testing.T, store *repositories.Store) {
		ctx := context.Background()
		base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
		older := &models.Order{UserID: uuid.NewString(), ProductID: uuid.NewString(), Quantity: 1, Total: 10,
			State: models.OrderStatePending, CreatedAt: base}
		newer := &models.Order{UserID: uuid.NewString(), ProductID: uuid.NewString(), Quantity: 2, Total: 20,
			State: models.OrderStateShipped, CreatedAt: base.Add(time.Hour)}
		require.NoError(t, store.Orders.Create(ctx, older))
		require.NoError(t, store.Orders.Create(ctx, newer))

		all, err := store.Orders.Find(ctx, repositories.OrderFilter{IDs: []string{older.ID, newer.ID}})
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, newer.ID, all[0].ID)
		assert.Equal(t, older.ID, all[1].ID)

		pending, err := store.Orders.Find(ctx, repositories.OrderFilter{State: models.OrderStatePending})
		require.NoError(t, err)
		require.Len(t, pending, 1)
		assert.Equal(t, older.ID, pending[0].ID)

		none, err := store.Orders.Find(ctx, repositories.OrderFilter{IDs: []string{}})
		require.NoError(t, err)
		assert.Empty(t, none)

		updated, err := store.Orders.UpdateState(ctx, older.ID, "returned")
		require.NoError(t, err)
		assert.Equal(t, "returned", updated.State)

		_, err = store.Orders.UpdateState(ctx, uuid.NewString(), models.OrderStateCompleted)
		assert.True(t, models.IsNotFound(err))

		require.NoError(t, store.Orders.Delete(ctx, older.ID))
		assert.True(t, models.IsNotFound(store.Orders.Delete(ctx, older.ID)))
	})
}

func TestUserStore_ConcurrentRatingsFromOneRater(t *testing.T) {
	forEachStore(t, func(t *testing.T, store *repositories.Store) {
		ctx := context.Background()
		seller := newUser("hank")
		require.NoError(t, store.Users.Create(ctx, seller))
		rater := uuid.NewString()

		const n = 16
		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			successes int
		)
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := store.Users.AddRating(ctx, seller.ID, models.Rating{RaterID: rater, Score: 3})
				if err == nil {
					mu.Lock()
					successes++
					mu.Unlock()
					return
				}
				if !errors.Is(err, models.ErrDuplicateRating) && !errors.Is(err, models.ErrConflict) {
					t.Errorf("unexpected error: %v", err)
				}
			}()
		}
		wg.Wait()

		got, err := store.Users.GetByID(ctx, seller.ID)
		require.NoError(t, err)
		assert.Len(t, got.Ratings, 1)
		assert.Equal(t, 1, successes)
	})
}

func TestUserStore_ConcurrentToggles(t *testing.T) {
	forEachStore(t, func(t *testing.T, store *repositories.Store) {
		ctx := context.Background()
		u := newUser("ivy")
		require.NoError(t, store.Users.Create(ctx, u))
		productID := uuid.NewString()

		const n = 11
		var (
			wg      sync.WaitGroup
			mu      sync.Mutex
			applied int
		)
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := store.Users.ToggleLike(ctx, u.ID, productID)
				if errors.Is(err, models.ErrConflict) {
					return
				}
				if err != nil {
					t.Errorf("unexpected error: %v", err)
					return
				}
				mu.Lock()
				applied++
				mu.Unlock()
			}()
		}
		wg.Wait()

		got, err := store.Users.GetByID(ctx, u.ID)
		require.NoError(t, err)
		if applied%2 == 1 {
			assert.Equal(t, models.IDList{productID}, got.Liked)
		} else {
			assert.Empty(t, got.Liked)
		}
	})
}
