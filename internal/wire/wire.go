//go:build wireinject
// +build wireinject

package wire

import (
	"context"

	"github.com/google/wire"

	"screen-dev-assistant/internal/application/codegen"
	"screen-dev-assistant/internal/application/screen"
	"screen-dev-assistant/internal/config"
	domain "screen-dev-assistant/internal/domain/codegen"
	"screen-dev-assistant/internal/domain/repository"
	"screen-dev-assistant/internal/infrastructure/figma"
	"screen-dev-assistant/internal/infrastructure/messaging"
	"screen-dev-assistant/internal/infrastructure/persistence/postgres"
	"screen-dev-assistant/internal/infrastructure/persistence/redis"
	"screen-dev-assistant/internal/interfaces/http/handler"
	"screen-dev-assistant/internal/interfaces/http/middleware"
	"screen-dev-assistant/internal/interfaces/http/router"
)

// InitializePostgresOnly 仅初始化 PostgreSQL 数据层（用于 bootstrap）
func InitializePostgresOnly(ctx context.Context, cfg *config.Config) (*PostgresOnlyDataLayer, func(), error) {
	wire.Build(
		PostgresSet,
		wire.Struct(new(PostgresOnlyDataLayer), "*"),
	)
	return nil, nil, nil
}

// InitializeApp 初始化整个应用（带路由器）
func InitializeApp(ctx context.Context, cfg *config.Config) (*App, func(), error) {
	wire.Build(
		RepoSet,
		RedisSet,
		MessagingSet,
		CodegenSet,
		ServiceSet,
		RouterSet,
		wire.Struct(new(App), "*"),
	)
	return nil, nil, nil
}

// InitializeWorker 初始化代码生成消费者
func InitializeWorker(ctx context.Context, cfg *config.Config) (*Worker, func(), error) {
	wire.Build(
		RepoSet,
		ProvideRedisClient,
		MessagingSet,
		CodegenSet,
		ProvideCodegenConsumer,
		wire.Struct(new(Worker), "*"),
	)
	return nil, nil, nil
}

// PostgresSet PostgreSQL 提供者集合
var PostgresSet = wire.NewSet(
	ProvidePostgresClient,
	postgres.NewTxManager,
	postgres.NewScreenRepository,
	postgres.NewRequirementRepository,
	postgres.NewJobRepository,
	postgres.NewTestRunRepository,
)

// RepoSet 整合了具体实现与接口绑定的集合
var RepoSet = wire.NewSet(
	PostgresSet,
	wire.Bind(new(repository.Transactor), new(*postgres.TxManager)),
	wire.Bind(new(repository.ScreenRepository), new(*postgres.ScreenRepository)),
	wire.Bind(new(repository.RequirementRepository), new(*postgres.RequirementRepository)),
	wire.Bind(new(repository.JobRepository), new(*postgres.JobRepository)),
	wire.Bind(new(repository.TestRunRepository), new(*postgres.TestRunRepository)),
)

// RedisSet Redis 提供者集合
var RedisSet = wire.NewSet(
	ProvideRedisClient,
	redis.NewCache,
	redis.NewRateLimiter,
	wire.Bind(new(screen.Cache), new(*redis.Cache)),
	wire.Bind(new(middleware.RateLimiter), new(*redis.RateLimiter)),
)

// MessagingSet 消息队列提供者集合
var MessagingSet = wire.NewSet(
	ProvideMessagingProducer,
	wire.Bind(new(codegen.JobQueue), new(*messaging.Producer)),
)

// CodegenSet 设计稿抓取与代码生成
var CodegenSet = wire.NewSet(
	ProvideFigmaClient,
	wire.Bind(new(domain.ImageFetcher), new(*figma.Client)),
	ProvideEinoFactory,
	ProvideCodeGenerator,
	ProvideSessions,
	codegen.NewService,
)

// ServiceSet 应用服务集合
var ServiceSet = wire.NewSet(
	ProvideScreenService,
	screen.NewRequirementService,
	ProvideReviewService,
	wire.Bind(new(domain.DesignSource), new(*figma.Client)),
	codegen.NewDesignService,
)

// RouterSet 路由器提供者集合
var RouterSet = wire.NewSet(
	wire.Bind(new(handler.ScreenService), new(*screen.Service)),
	wire.Bind(new(handler.RequirementService), new(*screen.RequirementService)),
	wire.Bind(new(handler.ReviewService), new(*screen.ReviewService)),
	wire.Bind(new(handler.CodegenService), new(*codegen.Service)),
	wire.Bind(new(handler.DesignService), new(*codegen.DesignService)),
	handler.NewHealthHandler,
	handler.NewScreenHandler,
	handler.NewRequirementHandler,
	handler.NewCodegenHandler,
	handler.NewJobHandler,
	handler.NewReviewHandler,
	handler.NewRelayHandler,
	wire.Struct(new(router.RouterHandlers), "*"),
	router.NewWithDeps,
)
