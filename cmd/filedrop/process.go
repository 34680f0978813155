package main

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ysakai/filedrop/internal/classify"
	"github.com/ysakai/filedrop/internal/cli"
	"github.com/ysakai/filedrop/internal/common"
	"github.com/ysakai/filedrop/internal/config"
)

func processCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "process <file>",
		Short: "Classify and file a single file now",
		Long: `Run the classify, plan, and move steps for one file synchronously.

By default the file's provenance decides the ticket; supply --label to file
it under folders you name yourself, bypassing classification entirely.

Examples:
  filedrop process ~/Downloads/report.pdf
  filedrop process ~/Downloads/report.pdf --label "[Acme][P100]Door sensor"`,
		Args: cobra.ExactArgs(1),
		RunE: runProcess,
	}

	cmd.Flags().String("label", "", "bracketed label to file under, e.g. \"[Acme][P100]rest\"")
	_ = viper.BindPFlag("process.label", cmd.Flags().Lookup("label"))

	return cmd
}

func runProcess(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	path := config.ExpandPath(args[0])
	label := viper.GetString("process.label")

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	journal, err := openJournal(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := journal.Close(); closeErr != nil {
			slog.Error("Failed to close journal", "error", closeErr)
		}
	}()

	eng, err := buildEngine(ctx, cfg, journal)
	if err != nil {
		return err
	}

	var target string
	if label != "" {
		labels := classify.ParseTitle(label)
		if labels == nil {
			return common.NewUserError(fmt.Sprintf("label %q does not match the [a][b]rest form", label), common.ErrUnrecognizedLabel)
		}
		target, err = eng.ProcessWithLabels(ctx, path, *labels)
	} else {
		target, err = eng.ProcessOne(ctx, path)
	}
	if err != nil {
		return err
	}

	fmt.Printf("%s %s %s\n",
		cli.SuccessStyle.Render("✓"),
		filepath.Base(path),
		cli.SubtleStyle.Render("→ "+target))
	return nil
}
