package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/valkey-io/valkey-go"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/yanqian/pdf-summarizer/internal/bootstrap"
	"github.com/yanqian/pdf-summarizer/internal/domain/auth"
	"github.com/yanqian/pdf-summarizer/internal/domain/history"
	"github.com/yanqian/pdf-summarizer/internal/domain/summarizer"
	"github.com/yanqian/pdf-summarizer/internal/infra/archive"
	"github.com/yanqian/pdf-summarizer/internal/infra/config"
	"github.com/yanqian/pdf-summarizer/internal/infra/database"
	"github.com/yanqian/pdf-summarizer/internal/infra/historyqueue"
	"github.com/yanqian/pdf-summarizer/internal/infra/historyrepo"
	"github.com/yanqian/pdf-summarizer/internal/infra/keywordstore"
	"github.com/yanqian/pdf-summarizer/internal/infra/llm/chatgpt"
	"github.com/yanqian/pdf-summarizer/internal/infra/llm/huggingface"
	"github.com/yanqian/pdf-summarizer/internal/infra/llm/ollama"
	"github.com/yanqian/pdf-summarizer/internal/infra/pdftext"
	"github.com/yanqian/pdf-summarizer/internal/infra/userrepo"
	httpiface "github.com/yanqian/pdf-summarizer/internal/interface/http"
	"github.com/yanqian/pdf-summarizer/pkg/logger"
	"github.com/yanqian/pdf-summarizer/pkg/metrics"
)

const connectTimeout = 5 * time.Second

func provideLogger(cfg *config.Config) *slog.Logger {
	return logger.NewWithLevel(cfg.Log.Level)
}

func provideMetrics(cfg *config.Config) *metrics.Pipeline {
	if !cfg.Metrics.Enabled {
		return nil
	}
	return metrics.NewPipeline(metrics.DefaultConfig())
}

func provideSummaryConfig(cfg *config.Config) summarizer.Config {
	return summarizer.Config{
		MaxKeywords:      cfg.Summary.MaxKeywords,
		MaxPDFSizeMB:     cfg.Summary.MaxPDFSizeMB,
		ModelDescription: cfg.Summary.ModelDescription,
		Generation: summarizer.GenerationParams{
			Model:           generationModel(cfg),
			MaxOutputLength: cfg.Generation.MaxOutputLength,
			MinOutputLength: cfg.Generation.MinOutputLength,
			Temperature:     cfg.Generation.Temperature,
		},
	}
}

func provideAuthConfig(cfg *config.Config) auth.Config {
	return auth.Config{
		Secret:          cfg.Auth.Secret,
		TokenTTL:        cfg.Auth.TokenTTL,
		RefreshTokenTTL: cfg.Auth.RefreshTokenTTL,
	}
}

func provideHistoryConfig(cfg *config.Config) history.Config {
	return history.Config{
		WriteTimeout: cfg.History.WriteTimeout,
		ErrorBuffer:  cfg.History.ErrorBuffer,
	}
}

func provideExtractor(logger *slog.Logger) summarizer.TextExtractor {
	return pdftext.NewExtractor(logger)
}

// provideGenerator builds the configured backend. Token usage only flows through the chat backend.
func provideGenerator(cfg *config.Config, pipeline *metrics.Pipeline, logger *slog.Logger) (summarizer.Generator, error) {
	gen := cfg.Generation
	switch gen.Backend {
	case config.BackendHuggingFace:
		client, err := huggingface.NewClient(huggingface.Config{
			BaseURL:       gen.BaseURL,
			APIKey:        gen.APIKey,
			Model:         gen.Model,
			MaxLength:     gen.MaxOutputLength,
			MinLength:     gen.MinOutputLength,
			MaxInputChars: gen.MaxInputChars,
			Timeout:       gen.Timeout,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("huggingface backend: %w", err)
		}
		return client, nil
	case config.BackendOpenAI:
		client, err := chatgpt.NewClient(gen.APIKey, gen.BaseURL, gen.Timeout)
		if err != nil {
			return nil, fmt.Errorf("openai backend: %w", err)
		}
		var observer chatgpt.TokenObserver
		if pipeline != nil {
			observer = pipeline
		}
		return chatgpt.NewGenerator(client, chatgpt.GeneratorConfig{
			Model:          gen.Model,
			Temperature:    gen.Temperature,
			MaxTokens:      gen.MaxTokens,
			MaxInputTokens: gen.MaxInputTokens,
			MaxInputChars:  gen.MaxInputChars,
		}, observer, logger), nil
	default:
		return ollama.NewClient(ollama.Config{
			BaseURL:       gen.BaseURL,
			Model:         gen.Model,
			Temperature:   gen.Temperature,
			MaxTokens:     gen.MaxTokens,
			Timeout:       gen.Timeout,
			HealthTimeout: gen.HealthTimeout,
			MaxInputChars: gen.MaxInputChars,
		}, logger), nil
	}
}

func generationModel(cfg *config.Config) string {
	if model := strings.TrimSpace(cfg.Generation.Model); model != "" {
		return model
	}
	switch cfg.Generation.Backend {
	case config.BackendHuggingFace:
		return huggingface.DefaultModel
	case config.BackendOpenAI:
		return chatgpt.DefaultModel
	default:
		return ollama.DefaultModel
	}
}

// provideArchive returns nil when archiving is disabled or the bucket client cannot be built.
func provideArchive(cfg *config.Config, logger *slog.Logger) summarizer.Archive {
	if !cfg.Storage.Enabled {
		return nil
	}
	if cfg.Storage.Driver == config.StorageMemory {
		logger.Info("upload archive kept in memory")
		return archive.NewMemoryArchive()
	}
	store, err := archive.NewR2Archive(archive.R2Config{
		Endpoint:  cfg.Storage.Endpoint,
		AccessKey: cfg.Storage.AccessKey,
		SecretKey: cfg.Storage.SecretKey,
		Bucket:    cfg.Storage.Bucket,
		Region:    cfg.Storage.Region,
	}, logger)
	if err != nil {
		logger.Error("failed to initialize upload archive, uploads will not be archived", "error", err)
		return nil
	}
	logger.Info("upload archive enabled", "bucket", cfg.Storage.Bucket)
	return store
}

// providePostgresPool returns a nil pool when no DSN is set or the database is unreachable.
func providePostgresPool(cfg *config.Config, logger *slog.Logger) (*pgxpool.Pool, func(), error) {
	dsn := strings.TrimSpace(cfg.Postgres.DSN)
	if dsn == "" {
		logger.Info("postgres dsn not set, using memory repositories")
		return nil, func() {}, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	pool, err := database.NewPostgresPool(ctx, database.PoolConfig{
		DSN:      dsn,
		MaxConns: cfg.Postgres.MaxConns,
		MinConns: cfg.Postgres.MinConns,
	})
	if err != nil {
		if cfg.History.Store == config.StorePostgres {
			return nil, nil, err
		}
		logger.Error("postgres unavailable, using memory repositories", "error", err)
		return nil, func() {}, nil
	}
	if cfg.Postgres.Migrate {
		migrateCtx, cancelMigrate := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancelMigrate()
		if err := database.RunMigrations(migrateCtx, pool, logger); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("postgres migrations: %w", err)
		}
	}
	logger.Info("postgres enabled")
	return pool, pool.Close, nil
}

// provideMongoClient returns a nil client when no URI is set or the server is unreachable.
func provideMongoClient(cfg *config.Config, logger *slog.Logger) (*mongo.Client, func(), error) {
	uri := strings.TrimSpace(cfg.Mongo.URI)
	if uri == "" || cfg.History.Store == config.StorePostgres || cfg.History.Store == config.StoreMemory {
		return nil, func() {}, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err == nil {
		err = client.Ping(ctx, readpref.Primary())
		if err != nil {
			_ = client.Disconnect(context.Background())
		}
	}
	if err != nil {
		if cfg.History.Store == config.StoreMongo {
			return nil, nil, fmt.Errorf("mongo: %w", err)
		}
		logger.Error("mongo unavailable, skipping document store", "error", err)
		return nil, func() {}, nil
	}
	logger.Info("mongo enabled", "database", cfg.Mongo.Database)
	cleanup := func() {
		disconnectCtx, cancelDisconnect := context.WithTimeout(context.Background(), connectTimeout)
		defer cancelDisconnect()
		_ = client.Disconnect(disconnectCtx)
	}
	return client, cleanup, nil
}

// provideValkeyClient returns nil when valkey is disabled or does not answer PING.
func provideValkeyClient(cfg *config.Config, logger *slog.Logger) (valkey.Client, func(), error) {
	if !cfg.Valkey.Enabled {
		return nil, func() {}, nil
	}
	opt, err := buildValkeyOptions(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid valkey configuration: %w", err)
	}
	client, err := valkey.NewClient(opt)
	if err != nil {
		if cfg.History.Queue == config.QueueValkey {
			return nil, nil, fmt.Errorf("valkey client: %w", err)
		}
		logger.Error("failed to create valkey client, falling back to memory stores", "error", err)
		return nil, func() {}, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		client.Close()
		if cfg.History.Queue == config.QueueValkey {
			return nil, nil, fmt.Errorf("valkey ping: %w", err)
		}
		logger.Error("valkey ping failed, falling back to memory stores", "error", err)
		return nil, func() {}, nil
	}
	logger.Info("valkey enabled", "addr", cfg.Valkey.Addr)
	return client, client.Close, nil
}

func buildValkeyOptions(cfg *config.Config) (valkey.ClientOption, error) {
	var (
		opt valkey.ClientOption
		err error
	)
	if strings.Contains(cfg.Valkey.Addr, "://") {
		opt, err = valkey.ParseURL(cfg.Valkey.Addr)
	} else {
		opt = valkey.ClientOption{InitAddress: []string{cfg.Valkey.Addr}}
	}
	if err != nil {
		return valkey.ClientOption{}, err
	}
	return opt, nil
}

func provideUserRepository(pool *pgxpool.Pool) auth.Repository {
	if pool == nil {
		return userrepo.NewMemoryRepository()
	}
	return userrepo.NewPostgresRepository(pool)
}

// provideHistoryRepository prefers postgres, then mongo, then memory unless a store is pinned in config.
func provideHistoryRepository(cfg *config.Config, pool *pgxpool.Pool, mongoClient *mongo.Client, logger *slog.Logger) (history.Repository, error) {
	usePostgres := pool != nil && (cfg.History.Store == config.StoreAuto || cfg.History.Store == config.StorePostgres)
	useMongo := mongoClient != nil && (cfg.History.Store == config.StoreAuto || cfg.History.Store == config.StoreMongo)
	switch {
	case usePostgres:
		logger.Info("history stored in postgres")
		return historyrepo.NewPostgresRepository(pool), nil
	case useMongo:
		repo := historyrepo.NewMongoRepository(mongoClient, cfg.Mongo.Database, cfg.Mongo.Collection)
		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		defer cancel()
		if err := repo.EnsureIndexes(ctx); err != nil {
			return nil, fmt.Errorf("mongo history indexes: %w", err)
		}
		logger.Info("history stored in mongo", "collection", cfg.Mongo.Collection)
		return repo, nil
	default:
		logger.Info("history stored in memory")
		return historyrepo.NewMemoryRepository(), nil
	}
}

func provideKeywordStore(cfg *config.Config, client valkey.Client) history.KeywordStore {
	if client == nil {
		return keywordstore.NewMemoryStore()
	}
	return keywordstore.NewValkeyStore(client, cfg.Valkey.Prefix)
}

func provideHistoryQueue(cfg *config.Config, client valkey.Client, logger *slog.Logger) history.Queue {
	if cfg.History.Queue == config.QueueValkey && client != nil {
		return historyqueue.NewValkeyQueue(client, cfg.History.QueueKey, logger)
	}
	return historyqueue.NewImmediateQueue()
}

func provideHistoryObserver(pipeline *metrics.Pipeline) history.Observer {
	if pipeline == nil {
		return nil
	}
	return pipeline
}

func provideSummaryObserver(pipeline *metrics.Pipeline) summarizer.Observer {
	if pipeline == nil {
		return nil
	}
	return pipeline
}

func provideHistoryRecorder(svc history.Service) summarizer.HistoryRecorder {
	return svc
}

func provideActivity(svc history.Service) auth.Activity {
	return svc
}

func provideDrainer(svc history.Service) bootstrap.Drainer {
	return svc
}

func provideHandler(cfg *config.Config, summarySvc summarizer.Service, historySvc history.Service, logger *slog.Logger) *httpiface.Handler {
	return httpiface.NewHandler(summarySvc, historySvc, cfg.Summary.MaxPDFSizeMB, logger)
}

func provideAuthHandler(cfg *config.Config, svc auth.Service, logger *slog.Logger) *httpiface.AuthHandler {
	return httpiface.NewAuthHandler(svc, cfg.Auth, logger)
}
