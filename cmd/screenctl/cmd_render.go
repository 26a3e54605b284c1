package main

import (
	"encoding/base64"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	domain "screen-dev-assistant/internal/domain/codegen"
	"screen-dev-assistant/internal/infrastructure/figma"
)

// designFlags 设计稿引用：--url 或 --file 加 --node
type designFlags struct {
	url  string
	file string
	node string
}

func (d *designFlags) register(f *pflag.FlagSet) {
	f.StringVar(&d.url, "url", "", "Figma link containing the file id and node-id")
	f.StringVar(&d.file, "file", "", "Design file id")
	f.StringVar(&d.node, "node", "", "Design node id, e.g. 117:336")
}

func (d *designFlags) reference() (domain.DesignReference, error) {
	if d.url != "" {
		return domain.ParseDesignURL(d.url)
	}
	ref := domain.DesignReference{FileID: d.file, NodeID: d.node}
	if ref.FileID == "" || ref.NodeID == "" {
		return ref, fmt.Errorf("either --url or both --file and --node are required")
	}
	return ref, nil
}

var renderFlags struct {
	designFlags
	out string
}

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Download the rendered image of a design node",
	RunE:  runRender,
}

func init() {
	f := renderCmd.Flags()
	renderFlags.designFlags.register(f)
	f.StringVarP(&renderFlags.out, "out", "o", "", "Output image path (required)")

	_ = renderCmd.MarkFlagRequired("out")
}

func runRender(cmd *cobra.Command, _ []string) error {
	ref, err := renderFlags.reference()
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	image, err := figma.NewClient(cfg.Figma).FetchRenderedImage(cmd.Context(), ref)
	if err != nil {
		return err
	}
	data, err := base64.StdEncoding.DecodeString(image.Data)
	if err != nil {
		return fmt.Errorf("decode image: %w", err)
	}
	return writeOutput(cmd.OutOrStdout(), renderFlags.out, data)
}
