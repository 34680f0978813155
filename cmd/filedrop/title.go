package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ysakai/filedrop/internal/classify"
	"github.com/ysakai/filedrop/internal/cli"
	"github.com/ysakai/filedrop/internal/common"
	"github.com/ysakai/filedrop/internal/config"
)

func titleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "title <issue>",
		Short: "Fetch a ticket title and show how it would be filed",
		Args:  cobra.ExactArgs(1),
		RunE:  runTitle,
	}
}

func runTitle(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	issue := args[0]

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	titles, err := newTitleLookup(ctx, cfg)
	if err != nil {
		return err
	}
	if titles == nil {
		return common.NewUserError("no tracker host configured", common.ErrMissingConfig)
	}
	if !titles.IsLoggedIn() {
		return common.NewUserError("tracker login required for title lookup", common.ErrNotLoggedIn)
	}

	title, err := titles.FetchTitle(ctx, issue)
	if err != nil {
		return err
	}

	fmt.Printf("%s %s\n", cli.BoldStyle.Render("#"+issue), title)

	if labels := classify.ParseTitle(title); labels != nil {
		fmt.Println(cli.SubtleStyle.Render("files under: " + cfg.BaseRoot + "/" + joinSegments(labels.Segments)))
	} else {
		fmt.Println(cli.ErrorStyle.Render("title does not match the [a][b]rest form; manual filing required"))
	}
	return nil
}

func joinSegments(segments []string) string {
	out := ""
	for i, s := range segments {
		if i > 0 {
			out += "/"
		}
		out += s
	}
	return out
}
