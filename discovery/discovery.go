// Package discovery navigates TikTok surfaces to load video content for a
// keyword. It returns harvested page HTML; extraction belongs to the parser.
package discovery

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"

	"github.com/TOTskillconnect/tikscrap/stealth"
)

// ErrNoContent means every attempted surface came back without video links.
var ErrNoContent = errors.New("no video content discovered")

const navigateTimeout = 60 * time.Second

// Method names a discovery surface.
type Method string

const (
	MethodSearch  Method = "search"
	MethodHashtag Method = "hashtag"
	MethodUser    Method = "user_profile"
	MethodExplore Method = "explore"
)

// ParseMethods maps config strings onto known Methods, dropping unknowns.
func ParseMethods(names []string) []Method {
	var out []Method
	for _, n := range names {
		switch m := Method(strings.ToLower(strings.TrimSpace(n))); m {
		case MethodSearch, MethodHashtag, MethodUser, MethodExplore:
			out = append(out, m)
		}
	}
	if len(out) == 0 {
		out = []Method{MethodSearch, MethodHashtag, MethodUser, MethodExplore}
	}
	return out
}

// NormalizeKeyword strips hashtag markers and URL-encodes spaces so the
// keyword can sit in a query string.
func NormalizeKeyword(keyword string) string {
	return strings.ReplaceAll(strings.ReplaceAll(keyword, "#", ""), " ", "%20")
}

// Discoverer drives one keyword's content discovery on a live page.
type Discoverer struct {
	keyword string
	clean   string
	rng     *rand.Rand
	log     *zap.SugaredLogger
}

func New(keyword string, rng *rand.Rand, log *zap.SugaredLogger) *Discoverer {
	return &Discoverer{
		keyword: keyword,
		clean:   NormalizeKeyword(keyword),
		rng:     rng,
		log:     log,
	}
}

// BestApproach tries the given surfaces in a shuffled order and keeps the HTML
// with the most video links. It stops early once a surface yields at least
// half of maxVideos.
func (d *Discoverer) BestApproach(page *rod.Page, maxVideos int, methods []Method) (string, error) {
	shuffled := make([]Method, len(methods))
	copy(shuffled, methods)
	d.rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	var bestHTML string
	var bestCount int
	var bestMethod Method

	for _, m := range shuffled {
		d.log.Infow("trying discovery approach", "method", string(m), "keyword", d.keyword)

		html, err := d.Discover(page, m, maxVideos)
		if err != nil {
			d.log.Warnw("discovery approach failed", "method", string(m), "error", err)
			continue
		}

		count := CountVideoLinks(html)
		if count > bestCount {
			bestHTML, bestCount, bestMethod = html, count, m
			if bestCount >= maxVideos/2 {
				break
			}
		}
	}

	if bestCount == 0 {
		return "", fmt.Errorf("%w: keyword %q", ErrNoContent, d.keyword)
	}

	d.log.Infow("best discovery approach",
		"keyword", d.keyword,
		"method", string(bestMethod),
		"videoLinks", bestCount,
	)
	return bestHTML, nil
}

// Discover runs a single surface and returns the loaded page HTML.
func (d *Discoverer) Discover(page *rod.Page, method Method, maxVideos int) (string, error) {
	switch method {
	case MethodSearch:
		return d.viaSearch(page, maxVideos)
	case MethodHashtag:
		return d.viaHashtag(page, maxVideos)
	case MethodUser:
		return d.viaUserProfile(page, maxVideos)
	case MethodExplore:
		return d.viaExplore(page, maxVideos)
	default:
		return "", fmt.Errorf("unknown discovery method %q", method)
	}
}

func (d *Discoverer) viaSearch(page *rod.Page, maxVideos int) (string, error) {
	url := "https://www.tiktok.com/search?q=" + d.clean
	if err := d.navigate(page, url); err != nil {
		return "", err
	}
	d.scrollForContent(page, maxVideos/4)
	return page.HTML()
}

func (d *Discoverer) viaHashtag(page *rod.Page, maxVideos int) (string, error) {
	tag := strings.ReplaceAll(d.clean, "%20", "")
	url := "https://www.tiktok.com/tag/" + tag
	if err := d.navigate(page, url); err != nil {
		return "", err
	}
	d.scrollForContent(page, maxVideos/4)
	return page.HTML()
}

// viaExplore lands on the trending feed first, pokes around, then searches
// through the in-page search box so the session looks like an organic visit.
func (d *Discoverer) viaExplore(page *rod.Page, maxVideos int) (string, error) {
	if err := d.navigate(page, "https://www.tiktok.com/explore"); err != nil {
		return "", err
	}

	d.randomInteractions(page)

	err := rod.Try(func() {
		box := page.Timeout(10 * time.Second).
			MustElement(`input[type="search"], [placeholder*="Search"], [data-e2e="search-box"]`)
		box.MustInput(d.keyword)
		time.Sleep(stealth.RandomDelay(d.rng, 500, 1500))
		box.MustType(input.Enter)
	})
	if err != nil {
		return "", fmt.Errorf("explore search input: %w", err)
	}

	time.Sleep(3 * time.Second)
	d.scrollForContent(page, maxVideos/4)
	return page.HTML()
}

// viaUserProfile searches for creators matching the keyword and harvests a
// random top profile's feed.
func (d *Discoverer) viaUserProfile(page *rod.Page, maxVideos int) (string, error) {
	url := "https://www.tiktok.com/search/user?q=" + d.clean
	if err := d.navigate(page, url); err != nil {
		return "", err
	}

	links, err := page.Timeout(10 * time.Second).Elements(`a[href*="/@"]`)
	if err != nil || len(links) == 0 {
		return "", fmt.Errorf("no creator links for %q", d.keyword)
	}

	pick := d.rng.Intn(min(5, len(links)))
	href, err := links[pick].Attribute("href")
	if err != nil || href == nil || *href == "" {
		return "", fmt.Errorf("creator link missing href")
	}

	profile := *href
	if !strings.HasPrefix(profile, "http") {
		profile = "https://www.tiktok.com" + profile
	}
	d.log.Infow("visiting creator profile", "url", profile)

	if err := d.navigate(page, profile); err != nil {
		return "", err
	}
	d.scrollForContent(page, maxVideos/4)
	return page.HTML()
}

func (d *Discoverer) navigate(page *rod.Page, url string) error {
	err := rod.Try(func() {
		page.Timeout(navigateTimeout).MustNavigate(url).MustWaitDOMStable()
	})
	if err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	return nil
}

// scrollForContent loads more items below the fold. Mostly smooth incremental
// scrolling with occasional jumps, pointer wiggles, and hovers, mirroring the
// cadence of a person skimming a feed.
func (d *Discoverer) scrollForContent(page *rod.Page, scrolls int) {
	if scrolls < 1 {
		scrolls = 1
	}
	d.log.Debugw("scrolling for content", "scrolls", scrolls)

	for i := 0; i < scrolls; i++ {
		amount := 300 + d.rng.Intn(700)

		if d.rng.Float64() < 0.7 {
			increment := amount / (3 + d.rng.Intn(5))
			for done := 0; done < amount; done += increment {
				d.scrollBy(page, increment)
				time.Sleep(stealth.RandomDelay(d.rng, 50, 200))
			}
		} else {
			d.scrollBy(page, amount)
		}

		time.Sleep(stealth.RandomDelay(d.rng, 700, 3000))

		if d.rng.Float64() < 0.4 {
			d.wigglePointer(page)
		}
		if d.rng.Float64() < 0.3 {
			d.hoverRandomElement(page)
		}
	}
}

func (d *Discoverer) scrollBy(page *rod.Page, amount int) {
	if _, err := page.Eval(`(y) => window.scrollBy(0, y)`, amount); err != nil {
		d.log.Debugw("scroll failed", "error", err)
	}
}

func (d *Discoverer) wigglePointer(page *rod.Page) {
	err := page.Mouse.MoveTo(proto.Point{
		X: float64(100 + d.rng.Intn(900)),
		Y: float64(100 + d.rng.Intn(600)),
	})
	if err != nil {
		d.log.Debugw("pointer wiggle failed", "error", err)
	}
}

func (d *Discoverer) hoverRandomElement(page *rod.Page) {
	err := rod.Try(func() {
		els := page.Timeout(3 * time.Second).
			MustElements(`div[class*="Div"], a, img, video`)
		if len(els) == 0 {
			return
		}
		els[d.rng.Intn(len(els))].MustHover()
		time.Sleep(stealth.RandomDelay(d.rng, 300, 1200))
	})
	if err != nil {
		d.log.Debugw("hover failed", "error", err)
	}
}

// randomInteractions clicks one or two harmless elements, skipping anything
// that smells like a login or app-install prompt, and usually navigates back.
func (d *Discoverer) randomInteractions(page *rod.Page) {
	skipWords := []string{"login", "sign", "download", "install", "get app"}

	err := rod.Try(func() {
		time.Sleep(stealth.RandomDelay(d.rng, 1000, 3000))

		els := page.Timeout(5 * time.Second).
			MustElements(`a, button, div[role="button"]`)
		if len(els) == 0 {
			return
		}

		clicks := 1 + d.rng.Intn(2)
		for i := 0; i < clicks; i++ {
			el := els[d.rng.Intn(len(els))]

			text, err := el.Text()
			if err != nil {
				continue
			}
			lower := strings.ToLower(text)
			skip := false
			for _, w := range skipWords {
				if strings.Contains(lower, w) {
					skip = true
					break
				}
			}
			if skip {
				continue
			}

			time.Sleep(stealth.RandomDelay(d.rng, 500, 1500))
			if rod.Try(func() {
				el.MustHover()
				time.Sleep(stealth.RandomDelay(d.rng, 200, 800))
				el.MustClick()
			}) != nil {
				continue
			}
			time.Sleep(stealth.RandomDelay(d.rng, 1000, 3000))

			if d.rng.Float64() < 0.8 {
				_ = rod.Try(func() { page.MustNavigateBack() })
				time.Sleep(stealth.RandomDelay(d.rng, 1000, 2000))
			}
		}
	})
	if err != nil {
		d.log.Debugw("random interactions failed", "error", err)
	}
}

// CountVideoLinks counts distinct /video/ anchors in a page's HTML.
func CountVideoLinks(html string) int {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return 0
	}
	seen := map[string]bool{}
	doc.Find(`a[href*="/video/"]`).Each(func(_ int, sel *goquery.Selection) {
		if href, ok := sel.Attr("href"); ok {
			seen[href] = true
		}
	})
	return len(seen)
}
