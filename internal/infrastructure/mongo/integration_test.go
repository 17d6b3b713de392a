//go:build integration

package mongo

import (
	"context"
	"fmt"
	"os/exec"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sngm3741/bean-beacon-services/api/internal/apperror"
	"github.com/sngm3741/bean-beacon-services/api/internal/public/domain"
)

// Usage:
//   go test -tags integration ./internal/infrastructure/mongo/...

func skipIfNoDocker(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if exec.CommandContext(ctx, "docker", "info").Run() != nil {
		t.Skip("Skipping test: Docker not available")
	}
}

func startMongo(t *testing.T, ctx context.Context) *mongo.Database {
	t.Helper()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "mongo:7",
			ExposedPorts: []string{"27017/tcp"},
			WaitingFor:   wait.ForListeningPort("27017/tcp").WithStartupTimeout(90 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("start mongo container: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("Warning: failed to terminate container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("container host: %v", err)
	}
	port, err := container.MappedPort(ctx, "27017/tcp")
	if err != nil {
		t.Fatalf("container port: %v", err)
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(fmt.Sprintf("mongodb://%s:%s", host, port.Port())))
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { _ = client.Disconnect(context.Background()) })

	db := client.Database("bean_beacon_test")
	if err := EnsureIndexes(ctx, db, Collections{Cafes: "cafes", Ratings: "ratings", Favorites: "favorites", Users: "users"}); err != nil {
		t.Fatalf("EnsureIndexes: %v", err)
	}
	return db
}

func TestRepositories_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	skipIfNoDocker(t)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	db := startMongo(t, ctx)

	cafes := NewCafeRepository(db, "cafes")
	ratings := NewRatingRepository(db, "ratings")
	favorites := NewFavoriteRepository(db, "favorites")

	near := domain.Cafe{
		OSMID: "n1", Name: "Joe's", Address: "Address not available",
		Location: domain.GeoPoint{Latitude: 40.001, Longitude: -73.001},
		Category: domain.CategoryCoffeeShop,
	}
	far := near
	far.OSMID, far.Name = "n2", "Far Beans"
	far.Location = domain.GeoPoint{Latitude: 40.03, Longitude: -73.0}

	first, err := cafes.UpsertFromExternal(ctx, near)
	if err != nil {
		t.Fatalf("UpsertFromExternal: %v", err)
	}
	renamed := near
	renamed.Name = "Renamed"
	again, err := cafes.UpsertFromExternal(ctx, renamed)
	if err != nil {
		t.Fatalf("second UpsertFromExternal: %v", err)
	}
	if again.ID != first.ID || again.Name != "Joe's" {
		t.Errorf("re-ingest = %+v, want untouched %s", again, first.ID)
	}
	if _, err := cafes.UpsertFromExternal(ctx, far); err != nil {
		t.Fatalf("UpsertFromExternal far: %v", err)
	}

	origin := domain.GeoPoint{Latitude: 40, Longitude: -73}
	found, err := cafes.FindNear(ctx, origin, 5, 50)
	if err != nil {
		t.Fatalf("FindNear: %v", err)
	}
	if len(found) != 2 || found[0].OSMID != "n1" {
		t.Errorf("FindNear = %+v, want n1 first of 2", found)
	}
	if found, _ := cafes.FindNear(ctx, origin, 1, 50); len(found) != 1 {
		t.Errorf("FindNear radius 1 = %d cafes, want 1", len(found))
	}

	hits, err := cafes.Search(ctx, "far", &origin, 50)
	if err != nil || len(hits) != 1 || hits[0].OSMID != "n2" {
		t.Errorf("Search = %+v, %v", hits, err)
	}

	user := primitive.NewObjectID().Hex()
	now := time.Now().UTC()
	rating := &domain.Rating{UserID: user, CafeID: first.ID, Value: 4, CreatedAt: now, UpdatedAt: now}
	if err := ratings.Insert(ctx, rating); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	dup := &domain.Rating{UserID: user, CafeID: first.ID, Value: 2, CreatedAt: now, UpdatedAt: now}
	if err := ratings.Insert(ctx, dup); !apperror.Is(err, apperror.KindConflict) {
		t.Errorf("duplicate Insert error = %v, want conflict", err)
	}
	if sum, count, err := ratings.Summarize(ctx, first.ID); err != nil || sum != 4 || count != 1 {
		t.Errorf("Summarize = %d, %d, %v", sum, count, err)
	}
	if err := cafes.UpdateAggregates(ctx, first.ID, 4, 1); err != nil {
		t.Fatalf("UpdateAggregates: %v", err)
	}
	stored, err := cafes.FindByID(ctx, first.ID)
	if err != nil || stored.UserRating != 4 || stored.ReviewCount != 1 || stored.Name != "Joe's" {
		t.Errorf("FindByID = %+v, %v", stored, err)
	}

	if created, err := favorites.Add(ctx, user, first.ID); err != nil || !created {
		t.Errorf("Add = %v, %v", created, err)
	}
	if created, err := favorites.Add(ctx, user, first.ID); err != nil || created {
		t.Errorf("second Add = %v, %v", created, err)
	}
	if ok, err := favorites.Exists(ctx, user, first.ID); err != nil || !ok {
		t.Errorf("Exists = %v, %v", ok, err)
	}
	if removed, err := favorites.Remove(ctx, user, first.ID); err != nil || !removed {
		t.Errorf("Remove = %v, %v", removed, err)
	}
}
