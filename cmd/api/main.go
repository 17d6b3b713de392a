package main

import (
	"context"

	"github.com/sngm3741/bean-beacon-services/api/internal/config"
	mongostore "github.com/sngm3741/bean-beacon-services/api/internal/infrastructure/mongo"
	"github.com/sngm3741/bean-beacon-services/api/internal/logging"
	"github.com/sngm3741/bean-beacon-services/api/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("設定の読み込みに失敗しました")
	}
	logging.Init(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})

	ctx := context.Background()
	client, err := mongostore.Connect(ctx, cfg.Mongo.URI, cfg.Mongo.ConnectTimeout)
	if err != nil {
		logging.Fatal().Err(err).Msg("MongoDB 接続に失敗しました")
	}

	indexCtx, cancel := context.WithTimeout(ctx, cfg.Mongo.ConnectTimeout)
	err = mongostore.EnsureIndexes(indexCtx, client.Database(cfg.Mongo.Database), collectionNames(cfg))
	cancel()
	if err != nil {
		logging.Fatal().Err(err).Msg("インデックス作成に失敗しました")
	}

	app, err := server.New(cfg, client)
	if err != nil {
		logging.Fatal().Err(err).Msg("サーバー初期化に失敗しました")
	}
	if err := app.Run(); err != nil {
		logging.Fatal().Err(err).Msg("サーバー起動に失敗")
	}
}

func collectionNames(cfg config.Config) mongostore.Collections {
	names := cfg.Mongo.Collections
	return mongostore.Collections{
		Cafes:     names.Cafes,
		Ratings:   names.Ratings,
		Favorites: names.Favorites,
		Users:     names.Users,
	}
}
