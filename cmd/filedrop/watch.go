package main

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ysakai/filedrop/internal/cli"
	"github.com/ysakai/filedrop/internal/config"
)

func watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Watch the downloads folder and file arrivals automatically",
		Long: `Watch the downloads folder for new tracker files and move each one into
the destination tree derived from its ticket title. Runs until interrupted.

Files already present at startup are ignored.`,
		RunE: runWatch,
	}
}

func runWatch(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

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

	if err := eng.StartWatching(ctx, cfg.WatchFolder); err != nil {
		return fmt.Errorf("failed to start watching: %w", err)
	}
	defer eng.StopWatching()

	fmt.Println(cli.TitleStyle.Render("filedrop is watching ") + cli.SubtleStyle.Render(cfg.WatchFolder))

	for {
		select {
		case <-ctx.Done():
			return nil
		case res := <-eng.Results():
			name := filepath.Base(res.Path)
			if res.Err != nil {
				fmt.Printf("%s %s: %v\n", cli.ErrorStyle.Render("✗"), name, res.Err)
				continue
			}
			fmt.Printf("%s %s %s\n",
				cli.SuccessStyle.Render("✓"),
				name,
				cli.SubtleStyle.Render("→ "+filepath.Dir(res.Target)))
		}
	}
}
