// Package output persists scrape results: timestamped JSON and CSV files plus
// an optional Google Sheets export.
package output

import (
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/TOTskillconnect/tikscrap/config"
	"github.com/TOTskillconnect/tikscrap/parser"
)

// Writer fans results out to the configured formats.
type Writer struct {
	cfg config.OutputConfig
	log *zap.SugaredLogger
}

func NewWriter(cfg config.OutputConfig, log *zap.SugaredLogger) *Writer {
	return &Writer{cfg: cfg, log: log}
}

// WriteAll writes videos in every configured file format and returns the paths
// written. The google_sheets format is handled separately by the Sheets
// exporter; it is skipped here.
func (w *Writer) WriteAll(videos []parser.Video, now time.Time) ([]string, error) {
	if len(videos) == 0 {
		w.log.Warnw("no videos to write")
		return nil, nil
	}

	if err := os.MkdirAll(w.cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	var paths []string
	for _, format := range w.cfg.Formats {
		switch format {
		case "json":
			path, err := w.writeJSON(videos, now)
			if err != nil {
				return paths, err
			}
			w.log.Infow("saved trending videos", "format", "json", "path", path)
			paths = append(paths, path)
		case "csv":
			path, err := w.writeCSV(videos, now)
			if err != nil {
				return paths, err
			}
			w.log.Infow("saved trending videos", "format", "csv", "path", path)
			paths = append(paths, path)
		case "google_sheets":
			// Exported by the Sheets client, not the file writer.
		default:
			w.log.Warnw("unknown output format", "format", format)
		}
	}
	return paths, nil
}

func (w *Writer) filename(ext string, now time.Time) string {
	return fmt.Sprintf("%s/trending_videos_%s.%s", strings.TrimRight(w.cfg.Dir, "/"), now.Format("20060102_150405"), ext)
}
