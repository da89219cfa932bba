package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/feichai0017/meeting-ingest/config"
	"github.com/feichai0017/meeting-ingest/internal/models"
	"github.com/feichai0017/meeting-ingest/internal/service/transcript"
	"github.com/feichai0017/meeting-ingest/pkg/logger"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// runner carries the service built in Before to the command actions.
type runner struct {
	log     logger.Logger
	service transcript.TranscriptService
	close   func() error
}

func newApp() *cli.App {
	r := &runner{}

	return &cli.App{
		Name:  "ingest",
		Usage: "Turn meeting recordings and documents into transcripts",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a YAML config file",
				EnvVars: []string{"CONFIG_PATH"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "warn",
			},
		},
		Before: r.setup,
		After:  r.teardown,
		Commands: []*cli.Command{
			{
				Name:      "file",
				Usage:     "Ingest a local file and print the transcript document",
				ArgsUsage: "<path>",
				Action:    r.fileCommand,
			},
			{
				Name:   "object",
				Usage:  "Ingest an object from S3 or MinIO",
				Action: r.objectCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "source",
						Aliases:  []string{"s"},
						Usage:    "Object store to read from (s3, minio)",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "key",
						Aliases:  []string{"k"},
						Usage:    "Object key",
						Required: true,
					},
				},
			},
			{
				Name:      "summarize",
				Usage:     "Summarize a transcript file with Gemini",
				ArgsUsage: "<transcript path>",
				Action:    r.summarizeCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "instruction",
						Aliases: []string{"i"},
						Usage:   "Instruction applied to the transcript",
					},
					&cli.StringFlag{
						Name:  "docx",
						Usage: "Write the summary as a Word document to this path",
					},
				},
			},
		},
	}
}

func (r *runner) setup(c *cli.Context) error {
	// Bare invocation only prints help.
	if c.Args().Len() == 0 {
		return nil
	}

	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}

	r.log, err = logger.NewLogger(
		logger.FromConfig(cfg.Logging),
		logger.WithLevel(c.String("log-level")),
		logger.WithOutputPaths([]string{"stderr"}),
		logger.WithEncoding("console"),
	)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	r.service, r.close, err = transcript.GetService(c.Context, r.log, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize service: %w", err)
	}
	return nil
}

func (r *runner) teardown(*cli.Context) error {
	if r.close != nil {
		return r.close()
	}
	return nil
}

func (r *runner) fileCommand(c *cli.Context) error {
	path := c.Args().First()
	if path == "" {
		return fmt.Errorf("a file path is required")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	artifact := models.NewUploadArtifact(filepath.Base(path), data, int64(len(data)), "")
	doc, err := r.service.Ingest(ctx(c), artifact)
	if err != nil {
		return err
	}
	return writeJSON(c, doc)
}

func (r *runner) objectCommand(c *cli.Context) error {
	doc, err := r.service.IngestObject(ctx(c), c.String("source"), c.String("key"))
	if err != nil {
		return err
	}
	return writeJSON(c, doc)
}

func (r *runner) summarizeCommand(c *cli.Context) error {
	path := c.Args().First()
	if path == "" {
		return fmt.Errorf("a transcript path is required")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	if out := c.String("docx"); out != "" {
		docx, err := r.service.SummarizeDOCX(ctx(c), string(data), c.String("instruction"))
		if err != nil {
			return err
		}
		if err := os.WriteFile(out, docx, 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", out, err)
		}
		fmt.Fprintf(c.App.ErrWriter, "Summary written to %s\n", out)
		return nil
	}

	summary, err := r.service.Summarize(ctx(c), string(data), c.String("instruction"))
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, summary)
	return nil
}

func ctx(c *cli.Context) context.Context {
	return logger.ContextWithRequestID(c.Context, "cli")
}

func writeJSON(c *cli.Context, v any) error {
	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
