// Package postgres 提供 PostgreSQL 数据库访问层实现
package postgres

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/otel"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"screen-dev-assistant/internal/config"
	"screen-dev-assistant/pkg/logger"
)

var tracer = otel.Tracer("postgres")

const (
	applicationName = "screen-dev-assistant"
	connectTimeout  = 5 * time.Second
	slowThreshold   = 500 * time.Millisecond
)

// Client PostgreSQL 客户端（GORM 版本）
type Client struct {
	db *gorm.DB
}

// dsn 生成 URL 形式的连接串，用户名与密码中的特殊字符会被转义
func dsn(cfg *config.PostgresConfig) string {
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	q := url.Values{}
	q.Set("sslmode", sslMode)
	q.Set("application_name", applicationName)
	q.Set("connect_timeout", strconv.Itoa(int(connectTimeout.Seconds())))

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Path:     "/" + cfg.Database,
		RawQuery: q.Encode(),
	}
	return u.String()
}

// gormWriter 把 GORM 的慢查询与错误日志转到应用日志
type gormWriter struct{}

func (gormWriter) Printf(format string, args ...any) {
	logger.Default().Warn(strings.TrimSpace(fmt.Sprintf(format, args...)), "component", "gorm")
}

// NewClient 创建 PostgreSQL 客户端，确认连通并注册连接池指标
func NewClient(cfg *config.PostgresConfig) (*Client, error) {
	gormLog := gormlogger.New(gormWriter{}, gormlogger.Config{
		SlowThreshold:             slowThreshold,
		LogLevel:                  gormLogLevel(cfg.LogLevel),
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})

	db, err := gorm.Open(postgres.Open(dsn(cfg)), &gorm.Config{
		Logger:         gormLog,
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres %s/%s: %w", cfg.Host, cfg.Database, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping postgres %s/%s: %w", cfg.Host, cfg.Database, err)
	}

	// bootstrap 与服务进程各自只创建一个客户端，重复注册时沿用已有的
	err = prometheus.Register(collectors.NewDBStatsCollector(sqlDB, cfg.Database))
	var are prometheus.AlreadyRegisteredError
	if err != nil && !errors.As(err, &are) {
		logger.Default().Warn("failed to register db stats collector", "error", err.Error())
	}

	return &Client{db: db}, nil
}

func gormLogLevel(level string) gormlogger.LogLevel {
	switch strings.ToLower(level) {
	case "silent":
		return gormlogger.Silent
	case "error":
		return gormlogger.Error
	case "info", "debug":
		return gormlogger.Info
	default:
		return gormlogger.Warn
	}
}

// DB 获取 GORM DB 实例
func (c *Client) DB() *gorm.DB {
	return c.db
}

// Close 关闭数据库连接
func (c *Client) Close() error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// HealthCheck 就绪探针使用
func (c *Client) HealthCheck(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "postgres.HealthCheck")
	defer span.End()

	sqlDB, err := c.db.DB()
	if err == nil {
		err = sqlDB.PingContext(ctx)
	}
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("postgres health check: %w", err)
	}
	return nil
}
