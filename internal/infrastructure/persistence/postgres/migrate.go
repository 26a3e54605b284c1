package postgres

import (
	"context"
	"fmt"

	"screen-dev-assistant/internal/domain/entity"
)

// Models 需要迁移的全部模型
func Models() []any {
	return []any{
		&entity.Screen{},
		&entity.Requirement{},
		&entity.ScreenRequirement{},
		&entity.GenerationJob{},
		&entity.TestRun{},
	}
}

// AutoMigrate 同步表结构
func (c *Client) AutoMigrate(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "postgres.AutoMigrate")
	defer span.End()

	if err := c.db.WithContext(ctx).Exec(`CREATE EXTENSION IF NOT EXISTS "pgcrypto"`).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to enable pgcrypto: %w", err)
	}
	if err := c.db.WithContext(ctx).AutoMigrate(Models()...); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to migrate: %w", err)
	}
	return nil
}
