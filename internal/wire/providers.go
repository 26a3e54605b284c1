// Package wire 提供依赖注入配置
package wire

import (
	"context"
	"fmt"
	"os"

	"screen-dev-assistant/internal/application/codegen"
	"screen-dev-assistant/internal/application/screen"
	"screen-dev-assistant/internal/config"
	domain "screen-dev-assistant/internal/domain/codegen"
	"screen-dev-assistant/internal/domain/repository"
	"screen-dev-assistant/internal/infrastructure/figma"
	"screen-dev-assistant/internal/infrastructure/llm"
	"screen-dev-assistant/internal/infrastructure/messaging"
	"screen-dev-assistant/internal/infrastructure/persistence/postgres"
	"screen-dev-assistant/internal/infrastructure/persistence/redis"
	"screen-dev-assistant/internal/interfaces/http/router"
	"screen-dev-assistant/pkg/logger"
)

// App API 网关依赖容器
type App struct {
	Router  *router.Router
	Codegen *codegen.Service
}

// Worker 代码生成消费者依赖容器
type Worker struct {
	Consumer *messaging.Consumer
	Codegen  *codegen.Service
}

// PostgresOnlyDataLayer 仅包含 PostgreSQL 的数据层（用于 bootstrap）
type PostgresOnlyDataLayer struct {
	PgClient        *postgres.Client
	TxManager       *postgres.TxManager
	ScreenRepo      *postgres.ScreenRepository
	RequirementRepo *postgres.RequirementRepository
	JobRepo         *postgres.JobRepository
	TestRunRepo     *postgres.TestRunRepository
}

// ProvidePostgresClient 提供 PostgreSQL 客户端
func ProvidePostgresClient(cfg *config.Config) (*postgres.Client, func(), error) {
	client, err := postgres.NewClient(&cfg.Database.Postgres)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		client.Close()
	}
	return client, cleanup, nil
}

// ProvideRedisClient 提供 Redis 客户端
func ProvideRedisClient(cfg *config.Config) (*redis.Client, func(), error) {
	client, err := redis.NewClient(&cfg.Cache.Redis)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		client.Close()
	}
	return client, cleanup, nil
}

// ProvideMessagingProducer 提供消息生产者
func ProvideMessagingProducer(redisClient *redis.Client, cfg *config.Config) *messaging.Producer {
	maxLen := cfg.Messaging.RedisStream.MaxLen
	if maxLen <= 0 {
		maxLen = 100000
	}
	return messaging.NewProducer(redisClient.Redis(), int64(maxLen))
}

// ProvideFigmaClient 提供设计稿渲染客户端
func ProvideFigmaClient(cfg *config.Config) *figma.Client {
	return figma.NewClient(cfg.Figma)
}

// ProvideEinoFactory 提供 eino 模型工厂
func ProvideEinoFactory(cfg *config.Config) *llm.EinoFactory {
	return llm.NewEinoFactory(cfg.LLM)
}

// ProvideCodeGenerator 按 generation.provider 选择生成后端
func ProvideCodeGenerator(cfg *config.Config, factory *llm.EinoFactory) (domain.CodeGenerator, error) {
	return llm.NewCodeGenerator(cfg.Generation, factory)
}

// ProvideSessions 每个屏幕一个编排器，共享抓图与生成后端
func ProvideSessions(cfg *config.Config, fetcher domain.ImageFetcher, generator domain.CodeGenerator) *codegen.Sessions {
	fetchTimeout := cfg.Codegen.FetchTimeout
	generateTimeout := cfg.Codegen.GenerateTimeout
	return codegen.NewSessions(func() *codegen.Orchestrator {
		return codegen.NewOrchestrator(fetcher, generator, codegen.WithTimeouts(fetchTimeout, generateTimeout))
	})
}

// ProvideScreenService 提供屏幕服务
func ProvideScreenService(
	cfg *config.Config,
	screens repository.ScreenRepository,
	requirements repository.RequirementRepository,
	tx repository.Transactor,
	cache screen.Cache,
) *screen.Service {
	return screen.NewService(screens, requirements, tx, cache, cfg.Cache)
}

// ProvideReviewService 测试回顾复用详情缓存的 TTL
func ProvideReviewService(
	cfg *config.Config,
	screens repository.ScreenRepository,
	runs repository.TestRunRepository,
	cache screen.Cache,
) *screen.ReviewService {
	return screen.NewReviewService(screens, runs, cache, cfg.Cache.DetailTTL)
}

// ProvideCodegenConsumer 创建代码生成消费者并注册任务处理器
func ProvideCodegenConsumer(cfg *config.Config, redisClient *redis.Client, svc *codegen.Service) *messaging.Consumer {
	streamCfg := cfg.Messaging.RedisStream
	consumer := messaging.NewConsumer(redisClient.Redis(), messaging.ConsumerConfig{
		Stream:        messaging.StreamCodegen,
		Group:         messaging.GroupName(streamCfg.ConsumerGroupPrefix, messaging.ConsumerGroupCodegenWorker),
		ConsumerName:  hostnameConsumerName(),
		BlockTimeout:  streamCfg.BlockTimeout,
		ClaimInterval: streamCfg.ClaimInterval,
		RetryLimit:    streamCfg.RetryLimit,
		Backoff:       messaging.BackoffFromConfig(streamCfg.RetryBackoff),
	})

	consumer.RegisterHandler(messaging.MessageTypeCodegen, func(ctx context.Context, msg *messaging.Message) error {
		var payload messaging.CodegenJobMessage
		if err := msg.UnmarshalPayload(&payload); err != nil {
			return messaging.Permanent(fmt.Errorf("decode codegen job: %w", err))
		}
		ctx = logger.WithContext(ctx, logger.ScreenIDKey, payload.ScreenID)
		return svc.RunJob(ctx, payload.JobID)
	})
	return consumer
}

func hostnameConsumerName() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "worker"
	}
	return fmt.Sprintf("%s-%d", host, os.Getpid())
}
