package main

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ysakai/filedrop/internal/cli"
	"github.com/ysakai/filedrop/internal/config"
)

func historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List past moves from the journal",
		RunE:  runHistory,
	}

	cmd.Flags().IntP("limit", "n", 20, "number of moves to show (0 = all)")
	_ = viper.BindPFlag("history.limit", cmd.Flags().Lookup("limit"))

	return cmd
}

func runHistory(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	limit := viper.GetInt("history.limit")

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

	records, err := journal.ListMoves(ctx, limit)
	if err != nil {
		return err
	}

	if len(records) == 0 {
		fmt.Println(cli.SubtleStyle.Render("No moves recorded yet."))
		return nil
	}

	for _, rec := range records {
		issue := ""
		if rec.Issue != "" {
			issue = cli.BoldStyle.Render("#"+rec.Issue) + " "
		}
		fmt.Printf("%s %s%s %s\n",
			cli.SubtleStyle.Render(rec.MovedAt.Format("2006-01-02 15:04")),
			issue,
			filepath.Base(rec.Source),
			cli.SubtleStyle.Render("→ "+filepath.Dir(rec.Target)))
	}
	return nil
}
