package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/ternarybob/menuscout/internal/models"
	"gopkg.in/yaml.v3"
)

// runView is the printable shape of a collection run
type runView struct {
	ID               string `json:"id" yaml:"id"`
	StartedAt        string `json:"started_at" yaml:"started_at"`
	Duration         string `json:"duration" yaml:"duration"`
	Status           string `json:"status" yaml:"status"`
	Keyword          string `json:"keyword" yaml:"keyword"`
	Requested        int    `json:"requested" yaml:"requested"`
	Collected        int    `json:"collected" yaml:"collected"`
	SkippedPlaces    int    `json:"skipped_places" yaml:"skipped_places"`
	PhotosDownloaded int    `json:"photos_downloaded" yaml:"photos_downloaded"`
	PhotosSkipped    int    `json:"photos_skipped" yaml:"photos_skipped"`
	OutputPath       string `json:"output_path,omitempty" yaml:"output_path,omitempty"`
	Error            string `json:"error,omitempty" yaml:"error,omitempty"`
}

func toRunViews(runs []*models.CollectionRun) []runView {
	views := make([]runView, 0, len(runs))
	for _, run := range runs {
		views = append(views, runView{
			ID:               run.ID,
			StartedAt:        run.StartedAt.Format(time.RFC3339),
			Duration:         run.Duration().Round(time.Millisecond).String(),
			Status:           string(run.Status),
			Keyword:          run.Keyword,
			Requested:        run.Requested,
			Collected:        run.Collected,
			SkippedPlaces:    run.SkippedPlaces,
			PhotosDownloaded: run.PhotosDownloaded,
			PhotosSkipped:    run.PhotosSkipped,
			OutputPath:       run.OutputPath,
			Error:            run.Error,
		})
	}
	return views
}

// printRuns writes runs to w as a table, JSON or YAML
func printRuns(w io.Writer, runs []*models.CollectionRun, format string) error {
	views := toRunViews(runs)

	switch format {
	case "json":
		encoder := json.NewEncoder(w)
		encoder.SetEscapeHTML(false)
		encoder.SetIndent("", "  ")
		return encoder.Encode(views)

	case "yaml":
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(views); err != nil {
			return err
		}
		return encoder.Close()

	case "table", "":
		if len(views) == 0 {
			_, err := fmt.Fprintln(w, "No collection runs recorded")
			return err
		}
		fmt.Fprintf(w, "%-25s  %-13s  %9s  %7s  %6s  %s\n", "STARTED", "STATUS", "COLLECTED", "SKIPPED", "PHOTOS", "ID")
		for _, v := range views {
			fmt.Fprintf(w, "%-25s  %-13s  %4d/%-4d  %7d  %6d  %s\n",
				v.StartedAt, v.Status, v.Collected, v.Requested, v.SkippedPlaces, v.PhotosDownloaded, v.ID)
		}
		return nil

	default:
		return fmt.Errorf("unknown format %q (want table, json or yaml)", format)
	}
}
