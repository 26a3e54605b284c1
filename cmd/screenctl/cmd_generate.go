package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"screen-dev-assistant/internal/application/codegen"
	domain "screen-dev-assistant/internal/domain/codegen"
	"screen-dev-assistant/internal/infrastructure/figma"
	"screen-dev-assistant/internal/infrastructure/llm"
)

var generateFlags struct {
	designFlags
	screen       string
	requirements string
	out          string
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Fetch a design node and generate screen code once",
	RunE:  runGenerate,
}

func init() {
	f := generateCmd.Flags()
	generateFlags.designFlags.register(f)
	f.StringVar(&generateFlags.screen, "screen", "", "Screen name used in the prompt (required)")
	f.StringVar(&generateFlags.requirements, "requirements", "", "YAML file listing requirements")
	f.StringVarP(&generateFlags.out, "out", "o", "", "Write generated code to this file instead of stdout")

	_ = generateCmd.MarkFlagRequired("screen")
}

// requirementsFile requirements YAML 文件结构
type requirementsFile struct {
	Requirements []struct {
		Overview string `yaml:"overview"`
		Context  string `yaml:"context"`
	} `yaml:"requirements"`
}

// loadRequirements 按文件顺序读取需求摘要，path 为空时返回空列表
func loadRequirements(path string) ([]domain.Requirement, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read requirements: %w", err)
	}
	var file requirementsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse requirements: %w", err)
	}
	out := make([]domain.Requirement, 0, len(file.Requirements))
	for i, r := range file.Requirements {
		if r.Overview == "" {
			return nil, fmt.Errorf("requirement %d has no overview", i+1)
		}
		out = append(out, domain.Requirement{Overview: r.Overview, Context: r.Context})
	}
	return out, nil
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	ref, err := generateFlags.reference()
	if err != nil {
		return err
	}
	reqs, err := loadRequirements(generateFlags.requirements)
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	generator, err := llm.NewCodeGenerator(cfg.Generation, llm.NewEinoFactory(cfg.LLM))
	if err != nil {
		return err
	}
	orch := codegen.NewOrchestrator(
		figma.NewClient(cfg.Figma),
		generator,
		codegen.WithTimeouts(cfg.Codegen.FetchTimeout, cfg.Codegen.GenerateTimeout),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	progress := cmd.ErrOrStderr()
	result, err := orch.Run(ctx, codegen.Input{
		Reference:    ref,
		ScreenName:   generateFlags.screen,
		Requirements: reqs,
	}, func(tr codegen.Transition) {
		fmt.Fprintf(progress, "[%d] %s -> %s\n", tr.Attempt, tr.From, tr.To)
	})
	if err != nil {
		return err
	}
	if !result.Succeeded() {
		return fmt.Errorf("generation failed (%s): %s", result.Kind, result.Reason)
	}

	return writeOutput(cmd.OutOrStdout(), generateFlags.out, []byte(result.Code))
}

// writeOutput 写入文件，path 为空时写到 w
func writeOutput(w io.Writer, path string, data []byte) error {
	if path == "" {
		_, err := w.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	fmt.Fprintf(os.Stderr, "Wrote %s (%d bytes)\n", path, len(data))
	return nil
}
