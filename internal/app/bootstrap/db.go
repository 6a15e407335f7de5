// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"

	adminstore "github.com/ufarent/ufarent/internal/app/store/admins"
	auditstore "github.com/ufarent/ufarent/internal/app/store/audit"
	listingstore "github.com/ufarent/ufarent/internal/app/store/listings"
	oauthstatestore "github.com/ufarent/ufarent/internal/app/store/oauthstate"
	profilestore "github.com/ufarent/ufarent/internal/app/store/profiles"
	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/pantry/storage"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// ConnectDB opens the MongoDB connection and builds the media storage
// backend. The returned DBDeps is passed to every later lifecycle hook.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	opts := options.Client().
		ApplyURI(appCfg.MongoURI).
		SetMaxPoolSize(appCfg.MongoMaxPoolSize).
		SetMinPoolSize(appCfg.MongoMinPoolSize)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return DBDeps{}, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return DBDeps{}, fmt.Errorf("mongo ping: %w", err)
	}

	logger.Info("connected to MongoDB",
		zap.String("database", appCfg.MongoDatabase))

	media, err := buildStorage(ctx, appCfg)
	if err != nil {
		return DBDeps{}, err
	}

	return DBDeps{
		MongoClient:   client,
		MongoDatabase: client.Database(appCfg.MongoDatabase),
		MediaStorage:  media,
	}, nil
}

// buildStorage constructs the media storage backend from config.
func buildStorage(ctx context.Context, appCfg AppConfig) (storage.Store, error) {
	switch appCfg.StorageType {
	case "local":
		return storage.NewLocal(storage.LocalConfig{
			BasePath: appCfg.StorageLocalPath,
			BaseURL:  appCfg.StorageLocalURL,
		})
	case "s3":
		return storage.NewS3(ctx, storage.S3Config{
			Region: appCfg.StorageS3Region,
			Bucket: appCfg.StorageS3Bucket,
			Prefix: appCfg.StorageS3Prefix,
		})
	default:
		return nil, fmt.Errorf("unknown storage_type %q", appCfg.StorageType)
	}
}

// EnsureSchema creates the MongoDB indexes every store depends on. Index
// creation is idempotent, so this runs on every startup.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	db := deps.MongoDatabase

	steps := []struct {
		name string
		run  func(context.Context) error
	}{
		{"profiles", profilestore.New(db).EnsureIndexes},
		{"admins", adminstore.New(db).EnsureIndexes},
		{"listings", listingstore.New(db).EnsureIndexes},
		{"audit", auditstore.New(db).EnsureIndexes},
		{"oauth_state", oauthstatestore.New(db).EnsureIndexes},
	}

	for _, step := range steps {
		if err := step.run(ctx); err != nil {
			return fmt.Errorf("ensure %s indexes: %w", step.name, err)
		}
		logger.Debug("indexes ensured", zap.String("collection", step.name))
	}
	return nil
}
