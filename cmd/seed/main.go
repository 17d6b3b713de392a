package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"math/rand"
	"os"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"

	accountdomain "github.com/sngm3741/bean-beacon-services/api/internal/account/domain"
	"github.com/sngm3741/bean-beacon-services/api/internal/config"
	mongostore "github.com/sngm3741/bean-beacon-services/api/internal/infrastructure/mongo"
	"github.com/sngm3741/bean-beacon-services/api/internal/logging"
	publicapp "github.com/sngm3741/bean-beacon-services/api/internal/public/application"
	"github.com/sngm3741/bean-beacon-services/api/internal/public/domain"
)

type seedOptions struct {
	cafeCount       int
	userCount       int
	ratingCount     int
	dropCollections bool
	randomSeed      int64
	latitude        float64
	longitude       float64
	radiusKm        float64
}

var (
	cafeNames = []string{"Blue Bottle", "Little Nap", "Fuglen", "Onibus", "Glitch", "Koffee Mameya", "Leaves", "Streamer", "Bear Pond", "Switch"}
	streets   = []string{"Omotesando", "Aoyama-dori", "Meiji-dori", "Kotto-dori", "Cat Street"}
	reviews   = []string{"Great pour over.", "Quiet in the morning.", "Plenty of outlets.", "Crowded on weekends.", "Friendly staff.", ""}
)

const seedSecret = "seed-only-secret"

func main() {
	opts := parseFlags()

	// seed はトークンを発行しないため、未設定なら仮の値で設定検証を通す。
	if os.Getenv("AUTH_JWT_SECRET") == "" {
		_ = os.Setenv("AUTH_JWT_SECRET", seedSecret)
	}
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("設定の読み込みに失敗しました")
	}
	logging.Init(logging.Config{Level: cfg.Logging.Level, Format: "console"})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	client, err := mongostore.Connect(ctx, cfg.Mongo.URI, cfg.Mongo.ConnectTimeout)
	if err != nil {
		logging.Fatal().Err(err).Msg("MongoDB 接続に失敗しました")
	}
	defer func() {
		_ = client.Disconnect(context.Background())
	}()

	db := client.Database(cfg.Mongo.Database)
	names := mongostore.Collections{
		Cafes:     cfg.Mongo.Collections.Cafes,
		Ratings:   cfg.Mongo.Collections.Ratings,
		Favorites: cfg.Mongo.Collections.Favorites,
		Users:     cfg.Mongo.Collections.Users,
	}

	if opts.dropCollections {
		dropCollections(ctx, db, names)
		logging.Info().Msg("既存コレクションを削除しました")
	}
	if err := mongostore.EnsureIndexes(ctx, db, names); err != nil {
		logging.Fatal().Err(err).Msg("インデックス作成に失敗しました")
	}

	rng := rand.New(rand.NewSource(opts.randomSeed))
	cafeRepo := mongostore.NewCafeRepository(db, names.Cafes)
	userRepo := mongostore.NewUserRepository(db, names.Users)
	ratings := publicapp.NewRatingService(mongostore.NewRatingRepository(db, names.Ratings), cafeRepo)

	cafes := make([]*domain.Cafe, 0, opts.cafeCount)
	for i := 0; i < opts.cafeCount; i++ {
		stored, err := cafeRepo.UpsertFromExternal(ctx, publicapp.CafeFromCandidate(generateCandidate(rng, opts, i)))
		if err != nil {
			logging.Fatal().Err(err).Msg("カフェデータの挿入に失敗しました")
		}
		cafes = append(cafes, stored)
	}

	users, err := createUsers(ctx, userRepo, opts.userCount)
	if err != nil {
		logging.Fatal().Err(err).Msg("ユーザーデータの挿入に失敗しました")
	}

	submitted := 0
	for i := 0; i < opts.ratingCount && len(users) > 0; i++ {
		cmd := publicapp.SubmitRatingCommand{
			UserID: users[rng.Intn(len(users))].ID,
			CafeID: cafes[rng.Intn(len(cafes))].ID,
			Value:  1 + rng.Intn(5),
			Review: reviews[rng.Intn(len(reviews))],
		}
		if _, err := ratings.Submit(ctx, cmd); err != nil {
			logging.Fatal().Err(err).Msg("評価データの投入に失敗しました")
		}
		submitted++
	}

	logging.Info().
		Int("cafes", len(cafes)).
		Int("users", len(users)).
		Int("ratings", submitted).
		Str("database", cfg.Mongo.Database).
		Msg("Seed 完了")
}

func parseFlags() seedOptions {
	var opts seedOptions
	flag.IntVar(&opts.cafeCount, "cafes", 20, "生成するカフェ数")
	flag.IntVar(&opts.userCount, "users", 5, "生成するユーザー数 (パスワードは password)")
	flag.IntVar(&opts.ratingCount, "ratings", 60, "投入する評価数 (同じユーザーとカフェの組は上書き)")
	flag.BoolVar(&opts.dropCollections, "drop", true, "既存コレクションを削除してから投入する")
	flag.Int64Var(&opts.randomSeed, "seed", time.Now().UnixNano(), "乱数シード（再現用）")
	flag.Float64Var(&opts.latitude, "lat", 35.6654, "生成範囲の中心緯度")
	flag.Float64Var(&opts.longitude, "lon", 139.7126, "生成範囲の中心経度")
	flag.Float64Var(&opts.radiusKm, "radius", 3, "生成範囲の半径 (km)")
	flag.Parse()

	if opts.cafeCount <= 0 {
		logging.Fatal().Msg("cafes は 1 以上を指定してください")
	}
	if opts.userCount < 0 {
		opts.userCount = 0
	}
	if opts.ratingCount < 0 {
		opts.ratingCount = 0
	}
	if opts.radiusKm <= 0 {
		opts.radiusKm = 1
	}
	return opts
}

func dropCollections(ctx context.Context, db *mongo.Database, names mongostore.Collections) {
	for _, name := range []string{names.Cafes, names.Ratings, names.Favorites, names.Users} {
		if err := db.Collection(name).Drop(ctx); err != nil {
			logging.Warn().Err(err).Str("collection", name).Msg("コレクションの削除に失敗")
		}
	}
}

// generateCandidate は中心から半径内に一様分布する地点へ、Overpass と同じ形のタグを持つ候補を作る。
func generateCandidate(rng *rand.Rand, opts seedOptions, i int) domain.ExternalCandidate {
	distance := opts.radiusKm * math.Sqrt(rng.Float64())
	bearing := rng.Float64() * 2 * math.Pi
	lat := opts.latitude + distance*math.Cos(bearing)/111
	lon := opts.longitude + distance*math.Sin(bearing)/(111*math.Cos(opts.latitude*math.Pi/180))

	tags := map[string]string{
		"name":             fmt.Sprintf("%s %d", cafeNames[rng.Intn(len(cafeNames))], i+1),
		"addr:housenumber": fmt.Sprintf("%d", 1+rng.Intn(30)),
		"addr:street":      streets[rng.Intn(len(streets))],
		"addr:city":        "Tokyo",
		"opening_hours":    "Mo-Su 08:00-19:00",
	}
	if rng.Intn(2) == 0 {
		tags["amenity"] = "cafe"
	} else {
		tags["amenity"] = "coffee"
	}
	if rng.Intn(3) > 0 {
		tags["wifi"] = "yes"
	}
	if rng.Intn(2) == 0 {
		tags["power_supply:socket"] = "yes"
	}

	return domain.ExternalCandidate{
		ExternalID: fmt.Sprintf("n%d", 9000000000+i),
		Latitude:   lat,
		Longitude:  lon,
		Tags:       tags,
	}
}

func createUsers(ctx context.Context, repo *mongostore.UserRepository, count int) ([]accountdomain.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	users := make([]accountdomain.User, 0, count)
	for i := 0; i < count; i++ {
		user := &accountdomain.User{
			Email:        fmt.Sprintf("seed%d@example.com", i+1),
			Name:         fmt.Sprintf("Seed User %d", i+1),
			PasswordHash: string(hash),
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := repo.Create(ctx, user); err != nil {
			return nil, err
		}
		users = append(users, *user)
	}
	return users, nil
}
