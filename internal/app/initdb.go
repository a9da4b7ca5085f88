package app

import (
	"context"
	"fmt"
	"log/slog"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/IT-Nick/question-bank/internal/infra/config"
	"github.com/IT-Nick/question-bank/internal/infra/queue"
)

const schema = `
CREATE TABLE IF NOT EXISTS counters (
	key   TEXT PRIMARY KEY,
	value BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS questions (
	id                   TEXT PRIMARY KEY,
	question_number      BIGINT NOT NULL UNIQUE,
	subject              TEXT NOT NULL,
	for_class            TEXT NOT NULL,
	topic                TEXT NOT NULL,
	difficulty           TEXT NOT NULL,
	origin               TEXT NOT NULL,
	test_info            JSONB,
	question_text        TEXT NOT NULL,
	question_attachments JSONB NOT NULL DEFAULT '[]',
	answer_metadata      JSONB NOT NULL,
	tags                 JSONB NOT NULL DEFAULT '[]',
	created_by           TEXT NOT NULL,
	answer_attachments   JSONB NOT NULL DEFAULT '{}',
	created_at           TIMESTAMPTZ NOT NULL,
	updated_at           TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS answers (
	id                 TEXT PRIMARY KEY,
	question_id        TEXT NOT NULL,
	user_id            TEXT NOT NULL,
	question_type      TEXT NOT NULL,
	solved_during_test JSONB,
	time_taken         INTEGER NOT NULL,
	answer             JSONB NOT NULL,
	verdict            TEXT NOT NULL,
	analysis_sheet_id  TEXT NOT NULL DEFAULT '',
	submitted_at       TIMESTAMPTZ NOT NULL,
	created_at         TIMESTAMPTZ NOT NULL,
	updated_at         TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS answers_question_id_idx ON answers (question_id);
CREATE INDEX IF NOT EXISTS answers_user_id_idx ON answers (user_id);
`

// InitDatabase connects to PostgreSQL and creates the tables.
func InitDatabase(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	const op = "app.InitDatabase"

	connConfig, err := pgxpool.ParseConfig(cfg.PostgresDSN())
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse database config: %w", op, err)
	}
	if cfg.Database.MaxConns > 0 {
		connConfig.MaxConns = cfg.Database.MaxConns
	}

	db, err := pgxpool.NewWithConfig(ctx, connConfig)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create database pool: %w", op, err)
	}

	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%s: failed to ping database: %w", op, err)
	}

	if _, err := db.Exec(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("%s: failed to apply schema: %w", op, err)
	}

	slog.Info("database connected", "driver", config.DriverPostgres, "host", cfg.Database.Host)
	return db, nil
}

// InitMongo connects to MongoDB and ensures the counter document exists.
func InitMongo(ctx context.Context, cfg *config.Config) (*mongo.Client, error) {
	const op = "app.InitMongo"

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Database.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("%s: failed to connect: %w", op, err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("%s: failed to ping: %w", op, err)
	}

	slog.Info("database connected", "driver", config.DriverMongo, "database", cfg.Database.MongoDatabase)
	return client, nil
}

// InitQueue builds the configured queue. It returns nil for the "none" driver.
func InitQueue(ctx context.Context, cfg *config.Config) (queue.Queue, error) {
	const op = "app.InitQueue"

	switch cfg.Queue.Driver {
	case config.QueueMemory:
		return queue.NewMemory(cfg.Queue.MemorySize), nil

	case config.QueueSQS:
		var opts []func(*awsconfig.LoadOptions) error
		if cfg.Queue.SQS.Region != "" {
			opts = append(opts, awsconfig.WithRegion(cfg.Queue.SQS.Region))
		}
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to load aws config: %w", op, err)
		}
		client := sqs.NewFromConfig(awsCfg)

		queueURL := cfg.Queue.SQS.QueueURL
		if queueURL == "" {
			if queueURL, err = queue.ResolveQueueURL(ctx, client, cfg.Queue.SQS.QueueName); err != nil {
				return nil, fmt.Errorf("%s: %w", op, err)
			}
		}
		slog.Info("queue connected", "driver", config.QueueSQS, "url", queueURL)
		return queue.NewSQS(client, queueURL, queue.SQSOptions{WaitTime: cfg.Queue.SQS.WaitTime}), nil

	case config.QueueRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Queue.Redis.Addr,
			Password: cfg.Queue.Redis.Password,
			DB:       cfg.Queue.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("%s: failed to ping redis: %w", op, err)
		}
		q, err := queue.NewRedis(client, queue.RedisOptions{
			Stream:   cfg.Queue.Redis.Stream,
			Group:    cfg.Queue.Redis.Group,
			Consumer: cfg.Queue.Redis.Consumer,
			Block:    cfg.Queue.Redis.Block,
			Reclaim:  cfg.Queue.Redis.Reclaim,
		})
		if err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		slog.Info("queue connected", "driver", config.QueueRedis, "stream", cfg.Queue.Redis.Stream)
		return q, nil
	}

	return nil, nil
}
