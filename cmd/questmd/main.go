// Package main provides the questmd command-line interface.
//
// Usage:
//
//	questmd reconstruct <prova.pdf> <labels-dir> <document> [-o prova.md] [--report report.yaml]
//	questmd version
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/alecthomas/kong"

	"github.com/tsouza/questmd"
)

const version = "0.1.0"

// CLI defines the command-line interface for questmd.
var CLI struct {
	Reconstruct ReconstructCmd `cmd:"" help:"Reconstruct a Markdown document from a PDF and its detection labels"`
	Version     VersionCmd     `cmd:"" help:"Print the version"`
}

// ReconstructCmd runs the full detection-to-Markdown pipeline.
type ReconstructCmd struct {
	PDF      string `arg:"" help:"Source PDF file" type:"existingfile"`
	Labels   string `arg:"" help:"Directory of YOLO label files" type:"existingdir"`
	Document string `arg:"" help:"Document name; label files are <year>_<document>_page_<n>.txt"`

	Output string `short:"o" default:"-" help:"Markdown output path (- for stdout)"`
	Report string `help:"Write the YAML validation report to this path"`
	Assets string `default:"assets" help:"Directory to write image crops to"`
	Config string `help:"YAML options file" type:"existingfile"`
}

func (c *ReconstructCmd) Run() error {
	opts := questmd.DefaultOptions()
	if c.Config != "" {
		loaded, err := questmd.LoadOptions(c.Config)
		if err != nil {
			return err
		}
		opts = loaded
	}
	opts.AssetOutputDir = c.Assets
	opts.AssetDir = filepath.Base(c.Assets)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	result, err := questmd.Open(c.PDF).
		Labels(c.Labels, c.Document).
		WithOptions(opts).
		Reconstruct(ctx)
	if err != nil {
		if result == nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "partial result: %v (%d pages skipped)\n", err, len(result.SkippedPages))
	}

	if c.Output == "-" {
		fmt.Print(result.Markdown)
	} else if err := os.WriteFile(c.Output, []byte(result.Markdown), 0644); err != nil {
		return fmt.Errorf("write markdown: %w", err)
	}

	if c.Report != "" {
		f, err := os.Create(c.Report)
		if err != nil {
			return fmt.Errorf("create report: %w", err)
		}
		defer f.Close()
		if err := result.WriteReport(f); err != nil {
			return err
		}
	}

	fmt.Fprintf(os.Stderr, "%d questions, %d issues\n", result.Questions(), len(result.Tree.Issues))
	if result.Tree.HasFatal() {
		fmt.Fprintln(os.Stderr, "some questions could not be reconstructed; see the report")
	}
	return nil
}

// VersionCmd prints the version.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Printf("questmd %s\n", version)
	return nil
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("questmd"),
		kong.Description("Reconstructs structured Markdown exam documents from object-detection output over a PDF."),
		kong.UsageOnError(),
	)
	if err := ctx.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "questmd: %v\n", err)
		os.Exit(1)
	}
}
