package output

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/TOTskillconnect/tikscrap/parser"
)

// Column order: the metrics an analyst scans first, then the flattened
// statistics, then everything else.
var csvColumns = []string{
	"url", "author", "keyword", "performance_score", "engagement_rate",
	"scrape_date", "scrape_time", "timestamp",
	"stats_views", "stats_likes", "stats_comments", "stats_shares", "stats_favorites",
	"id", "description", "author_id", "author_name", "author_verified",
	"author_follower_count", "music", "music_author", "hashtags", "hook", "duration",
}

func (w *Writer) writeCSV(videos []parser.Video, now time.Time) (string, error) {
	path := w.filename("csv", now)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create csv output: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if err := cw.Write(csvColumns); err != nil {
		return "", fmt.Errorf("write csv header: %w", err)
	}
	for _, v := range videos {
		if err := cw.Write(csvRow(v)); err != nil {
			return "", fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return "", fmt.Errorf("flush csv output: %w", err)
	}
	return path, nil
}

func csvRow(v parser.Video) []string {
	return []string{
		v.URL,
		v.Author,
		v.Keyword,
		formatFloat(v.PerformanceScore),
		formatFloat(v.EngagementRate),
		v.ScrapeDate,
		v.ScrapeTime,
		v.Timestamp,
		strconv.Itoa(v.Statistics.Views),
		strconv.Itoa(v.Statistics.Likes),
		strconv.Itoa(v.Statistics.Comments),
		strconv.Itoa(v.Statistics.Shares),
		strconv.Itoa(v.Statistics.Favorites),
		v.ID,
		v.Description,
		v.AuthorID,
		v.AuthorName,
		strconv.FormatBool(v.AuthorVerified),
		strconv.Itoa(v.AuthorFollowers),
		v.Music,
		v.MusicAuthor,
		strings.Join(v.Hashtags, ", "),
		v.Hook,
		strconv.Itoa(v.DurationSec),
	}
}

// Two decimals, matching the precision the metrics are stored with.
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}
