// Package scrape orchestrates keyword scrape runs end to end: stealth session
// per keyword, content discovery, parsing, trending filtering.
package scrape

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/TOTskillconnect/tikscrap/config"
	"github.com/TOTskillconnect/tikscrap/discovery"
	"github.com/TOTskillconnect/tikscrap/parser"
	"github.com/TOTskillconnect/tikscrap/stealth"
)

// Runner executes scrape runs for the configured keywords.
type Runner struct {
	cfg  *config.Config
	log  *zap.SugaredLogger
	seed func() int64

	mu   sync.Mutex
	seen map[string]bool
}

func NewRunner(cfg *config.Config, log *zap.SugaredLogger) *Runner {
	return &Runner{
		cfg:  cfg,
		log:  log,
		seed: func() int64 { return time.Now().UnixNano() },
		seen: map[string]bool{},
	}
}

// Run scrapes every configured keyword in batches of ConcurrentKeywords,
// pausing between batches. Videos seen in earlier runs of this Runner are
// dropped; the survivors are sorted across keywords and capped to the run
// total.
func (r *Runner) Run(ctx context.Context) ([]parser.Video, error) {
	keywords := r.cfg.Scraper.Keywords
	batchSize := r.cfg.Scraper.ConcurrentKeywords
	if batchSize < 1 {
		batchSize = 1
	}

	r.log.Infow("starting scrape run", "keywords", len(keywords), "batchSize", batchSize)
	started := time.Now()

	var mu sync.Mutex
	var all []parser.Video
	var successful, failed []string

	for start := 0; start < len(keywords); start += batchSize {
		if err := ctx.Err(); err != nil {
			return all, err
		}

		end := start + batchSize
		if end > len(keywords) {
			end = len(keywords)
		}

		g, gctx := errgroup.WithContext(ctx)
		for _, kw := range keywords[start:end] {
			kw := kw
			// Each keyword gets its own rand source; *rand.Rand is not safe
			// for concurrent use.
			rng := rand.New(rand.NewSource(r.seed()))
			g.Go(func() error {
				videos, err := r.ScrapeKeyword(gctx, kw, rng)
				if err != nil {
					r.log.Errorw("keyword scrape failed", "keyword", kw, "error", err)
				}
				mu.Lock()
				defer mu.Unlock()
				all = append(all, videos...)
				if len(videos) >= r.cfg.Scraper.MinVideosRequired {
					successful = append(successful, kw)
				} else {
					failed = append(failed, kw)
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return all, err
		}

		if end < len(keywords) {
			pause := stealth.RandomDelay(rand.New(rand.NewSource(r.seed())), 5000, 15000)
			r.log.Debugw("pausing between keyword batches", "pause", pause)
			select {
			case <-time.After(pause):
			case <-ctx.Done():
				return all, ctx.Err()
			}
		}
	}

	// Per-keyword filtering already happened; this is the run-level cut.
	result := r.dropSeen(all)
	if r.cfg.Trending.SortByPerformance {
		parser.SortByPerformance(result)
	}
	if max := r.cfg.Trending.MaxTotalVideos; max > 0 && len(result) > max {
		result = result[:max]
	}

	r.log.Infow("scrape run finished",
		"scraped", len(all),
		"kept", len(result),
		"successfulKeywords", strings.Join(successful, ", "),
		"failedKeywords", strings.Join(failed, ", "),
		"elapsed", time.Since(started),
	)

	return result, nil
}

// ScrapeKeyword runs one keyword through a dedicated stealth session.
func (r *Runner) ScrapeKeyword(ctx context.Context, keyword string, rng *rand.Rand) ([]parser.Video, error) {
	// Stagger most launches so concurrent keywords do not hit the site in
	// lockstep.
	if rng.Float64() < 0.7 {
		select {
		case <-time.After(stealth.RandomDelay(rng, 1000, 5000)):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	r.log.Infow("scraping keyword", "keyword", keyword)

	session, err := stealth.NewLauncher(r.cfg.Browser, r.cfg.Timing, rng, r.log).Launch(nil)
	if err != nil {
		return nil, fmt.Errorf("keyword %q: %w", keyword, err)
	}
	defer session.Close()

	page := session.NewPage()
	if page == nil {
		return nil, fmt.Errorf("keyword %q: open page failed", keyword)
	}
	session.Pause()

	d := discovery.New(keyword, rng, r.log)
	html, err := d.BestApproach(page, r.cfg.Scraper.MaxVideosPerKeyword, discovery.ParseMethods(r.cfg.Scraper.DiscoveryMethods))
	if err != nil {
		return nil, fmt.Errorf("keyword %q: %w", keyword, err)
	}

	videos, err := parser.New(r.log).ParsePage(html)
	if err != nil {
		return nil, fmt.Errorf("keyword %q: %w", keyword, err)
	}

	now := time.Now()
	for i := range videos {
		videos[i].Keyword = keyword
		videos[i].ScrapeDate = now.Format("2006-01-02")
		videos[i].ScrapeTime = now.Format("15:04:05")
	}

	perKeywordMax := r.cfg.Scraper.MaxVideosPerKeyword
	if r.cfg.Trending.Enabled {
		videos = parser.FilterTrending(videos, parser.TrendingCriteria{
			MinViews:          r.cfg.Trending.MinViews,
			MinEngagementRate: r.cfg.Trending.MinEngagementRate,
		}, r.cfg.Trending.SortByPerformance, perKeywordMax)
	} else {
		parser.Score(videos)
		if perKeywordMax > 0 && len(videos) > perKeywordMax {
			videos = videos[:perKeywordMax]
		}
	}

	// Idle like a person before tearing the session down.
	session.SimulateHumanBehavior(page)

	r.log.Infow("keyword scraped", "keyword", keyword, "videos", len(videos))
	return videos, nil
}

// dropSeen filters out videos whose URL was already produced by an earlier
// run, and records the survivors.
func (r *Runner) dropSeen(videos []parser.Video) []parser.Video {
	r.mu.Lock()
	defer r.mu.Unlock()

	fresh := make([]parser.Video, 0, len(videos))
	for _, v := range videos {
		if v.URL == "" || r.seen[v.URL] {
			continue
		}
		r.seen[v.URL] = true
		fresh = append(fresh, v)
	}
	return fresh
}

// MarkSeen preloads the duplicate filter, typically from persisted state.
func (r *Runner) MarkSeen(urls []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range urls {
		r.seen[u] = true
	}
}

// SeenURLs snapshots the duplicate filter for persistence.
func (r *Runner) SeenURLs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	urls := make([]string, 0, len(r.seen))
	for u := range r.seen {
		urls = append(urls, u)
	}
	return urls
}
