package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"screen-dev-assistant/internal/config"
	domain "screen-dev-assistant/internal/domain/codegen"
	"screen-dev-assistant/internal/domain/entity"
	"screen-dev-assistant/internal/wire"
)

const defaultSeedFile = "configs/seed.yaml"

// seedFile 初始数据文件结构
type seedFile struct {
	Requirements []struct {
		Code     string `yaml:"code"`
		Overview string `yaml:"overview"`
		Context  string `yaml:"context"`
	} `yaml:"requirements"`
	Screens []struct {
		Code         string   `yaml:"code"`
		Name         string   `yaml:"name"`
		Description  string   `yaml:"description"`
		FigmaURL     string   `yaml:"figma_url"`
		Requirements []string `yaml:"requirements"`
	} `yaml:"screens"`
}

func main() {
	_ = godotenv.Load()

	fmt.Println("Starting system bootstrap...")

	// 1. 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx := context.Background()

	// 2. 初始化数据层（仅 PostgreSQL）
	dataLayer, cleanup, err := wire.InitializePostgresOnly(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to initialize data layer: %v", err)
	}
	defer cleanup()

	// 3. 同步表结构
	if err := dataLayer.PgClient.AutoMigrate(ctx); err != nil {
		log.Fatalf("failed to migrate schema: %v", err)
	}
	fmt.Println("Schema migrated.")

	// 4. 导入初始数据（可选）
	path := os.Getenv("BOOTSTRAP_SEED_FILE")
	if path == "" {
		path = defaultSeedFile
	}
	seed, err := readSeed(path)
	if err != nil {
		log.Fatalf("failed to read seed file: %v", err)
	}
	if seed == nil {
		fmt.Printf("No seed file at %s, skipping.\n", path)
	} else if err := applySeed(ctx, dataLayer, seed); err != nil {
		log.Fatalf("failed to apply seed: %v", err)
	}

	fmt.Println("Bootstrap completed successfully.")
}

func readSeed(path string) (*seedFile, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var seed seedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &seed, nil
}

// applySeed 已存在的编号会被跳过，可重复执行
func applySeed(ctx context.Context, dl *wire.PostgresOnlyDataLayer, seed *seedFile) error {
	return dl.TxManager.WithTransaction(ctx, func(txCtx context.Context) error {
		reqIDs := make(map[string]string, len(seed.Requirements))
		for _, r := range seed.Requirements {
			existing, err := dl.RequirementRepo.GetByCode(txCtx, r.Code)
			if err != nil {
				return err
			}
			if existing != nil {
				reqIDs[r.Code] = existing.ID
				fmt.Printf("Requirement %s already exists.\n", r.Code)
				continue
			}
			req := &entity.Requirement{RequirementCode: r.Code, Overview: r.Overview, Context: r.Context}
			if err := dl.RequirementRepo.Create(txCtx, req); err != nil {
				return err
			}
			reqIDs[r.Code] = req.ID
			fmt.Printf("Requirement %s created.\n", r.Code)
		}

		for _, s := range seed.Screens {
			existing, err := dl.ScreenRepo.GetByCode(txCtx, s.Code)
			if err != nil {
				return err
			}
			if existing != nil {
				fmt.Printf("Screen %s already exists.\n", s.Code)
				continue
			}

			screen := entity.NewScreen(s.Code, s.Name)
			screen.Description = s.Description
			if s.FigmaURL != "" {
				ref, err := domain.ParseDesignURL(s.FigmaURL)
				if err != nil {
					return fmt.Errorf("screen %s: %w", s.Code, err)
				}
				screen.SetDesign(ref)
			}
			if err := dl.ScreenRepo.Create(txCtx, screen); err != nil {
				return err
			}

			ids := make([]string, 0, len(s.Requirements))
			for _, code := range s.Requirements {
				id, ok := reqIDs[code]
				if !ok {
					return fmt.Errorf("screen %s references unknown requirement %s", s.Code, code)
				}
				ids = append(ids, id)
			}
			if len(ids) > 0 {
				if err := dl.ScreenRepo.SetRequirements(txCtx, screen.ID, ids); err != nil {
					return err
				}
			}
			fmt.Printf("Screen %s created.\n", s.Code)
		}
		return nil
	})
}
