// screenctl 在终端里对单个设计稿节点执行一次抓图与代码生成。
//
// Usage:
//
//	screenctl generate --file <id> --node <id> --screen <name> [--requirements reqs.yaml] [--out file]
//	screenctl render --file <id> --node <id> --out img.png
//	screenctl parse-url <figma-url>
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"screen-dev-assistant/internal/config"
	"screen-dev-assistant/pkg/logger"
)

// version 构建时通过 -ldflags 注入
var version = "dev"

var rootFlags struct {
	configDir string
	verbose   bool
}

var rootCmd = &cobra.Command{
	Use:   "screenctl",
	Short: "Render design nodes and generate screen code from the terminal",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootFlags.configDir, "config-dir", config.DefaultDir, "Directory containing config.yaml")
	rootCmd.PersistentFlags().BoolVarP(&rootFlags.verbose, "verbose", "v", false, "Log at debug level")

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(parseURLCmd)
	rootCmd.Version = version
}

// loadConfig 读取 .env 与配置文件，日志输出到 stderr 以免污染生成结果
func loadConfig() (*config.Config, error) {
	_ = godotenv.Load()

	cfg, err := config.LoadFrom(rootFlags.configDir)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger.InitWithWriter(os.Stderr, cfg.Observability.Logging.Level, "text")
	if rootFlags.verbose {
		logger.SetLevel("debug")
	}
	return cfg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
