package parser

import (
	"math"
	"sort"
)

// EngagementRate is total interactions per view. Zero views counts as one, so
// a record with interactions but no play count still gets a nonzero rate
// instead of a division blowup.
func EngagementRate(s Statistics) float64 {
	views := s.Views
	if views <= 0 {
		views = 1
	}
	return float64(s.Likes+s.Comments+s.Shares) / float64(views)
}

// PerformanceScore blends reach with weighted engagement. Comments and shares
// count more than likes because they cost the viewer more.
func PerformanceScore(s Statistics) float64 {
	rate := EngagementRate(s)
	weighted := float64(s.Likes) + 2*float64(s.Comments) + 3*float64(s.Shares)
	return float64(s.Views)*0.4 + weighted*0.5 + rate*10000*0.1
}

// TrendingCriteria gates which videos count as trending.
type TrendingCriteria struct {
	MinViews          int
	MinEngagementRate float64
}

// IsTrending reports whether a video clears both trending thresholds. A video
// with no recorded views never trends, whatever its rate.
func (c TrendingCriteria) IsTrending(v Video) bool {
	if v.Statistics.Views <= 0 {
		return false
	}
	return v.Statistics.Views >= c.MinViews &&
		EngagementRate(v.Statistics) >= c.MinEngagementRate
}

// Score stamps the derived metrics onto each video in place. The stored
// engagement rate is a percentage; both stamped values are rounded to two
// decimals for output.
func Score(videos []Video) {
	for i := range videos {
		videos[i].EngagementRate = round2(EngagementRate(videos[i].Statistics) * 100)
		videos[i].PerformanceScore = round2(PerformanceScore(videos[i].Statistics))
	}
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}

// FilterTrending scores the videos, keeps those that clear the criteria, and
// optionally sorts by performance. maxVideos <= 0 means no cap.
func FilterTrending(videos []Video, c TrendingCriteria, sortByPerformance bool, maxVideos int) []Video {
	Score(videos)

	kept := make([]Video, 0, len(videos))
	for _, v := range videos {
		if c.IsTrending(v) {
			kept = append(kept, v)
		}
	}

	if sortByPerformance {
		SortByPerformance(kept)
	}
	if maxVideos > 0 && len(kept) > maxVideos {
		kept = kept[:maxVideos]
	}
	return kept
}

// SortByPerformance orders videos best first.
func SortByPerformance(videos []Video) {
	sort.SliceStable(videos, func(i, j int) bool {
		return videos[i].PerformanceScore > videos[j].PerformanceScore
	})
}
