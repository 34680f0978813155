package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/ysakai/filedrop/internal/classify"
	"github.com/ysakai/filedrop/internal/cli"
	"github.com/ysakai/filedrop/internal/config"
	"github.com/ysakai/filedrop/internal/provenance"
)

func scanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scan",
		Short: "List tracker files currently in the watch folder",
		Long: `Scan the watch folder and list the files whose provenance identifies them
as tracker downloads, newest first. Nothing is moved.`,
		RunE: runScan,
	}
}

type scanHit struct {
	modTime int64
	path    string
	issue   string
}

func runScan(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	entries, err := os.ReadDir(cfg.WatchFolder)
	if err != nil {
		return fmt.Errorf("failed to list %s: %w", cfg.WatchFolder, err)
	}

	classifier := classify.New(provenance.NewZoneReader(), cfg.TrustedHost)

	bar := progressbar.Default(int64(len(entries)), "scanning")
	var hits []scanHit
	for _, entry := range entries {
		_ = bar.Add(1)
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(cfg.WatchFolder, entry.Name())
		cl := classifier.Classify(ctx, path)
		if !cl.Identified() {
			continue
		}
		hit := scanHit{path: path, issue: cl.IssueNumber}
		if info, infoErr := entry.Info(); infoErr == nil {
			hit.modTime = info.ModTime().Unix()
		}
		hits = append(hits, hit)
	}
	_ = bar.Finish()

	sort.Slice(hits, func(i, j int) bool { return hits[i].modTime > hits[j].modTime })

	if len(hits) == 0 {
		fmt.Println(cli.SubtleStyle.Render("No tracker files found."))
		return nil
	}

	fmt.Println(cli.TitleStyle.Render(fmt.Sprintf("%d tracker file(s) in %s", len(hits), cfg.WatchFolder)))
	for _, hit := range hits {
		issue := "unknown"
		if hit.issue != "" {
			issue = "#" + hit.issue
		}
		fmt.Printf("  %s %s\n", cli.BoldStyle.Render(issue), filepath.Base(hit.path))
	}
	return nil
}
