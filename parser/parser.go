// Package parser turns raw TikTok page content into structured video records.
package parser

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

// Statistics holds the engagement counters of one video.
type Statistics struct {
	Views     int `json:"views"`
	Likes     int `json:"likes"`
	Comments  int `json:"comments"`
	Shares    int `json:"shares"`
	Favorites int `json:"favorites"`
}

// Video is one structured scrape record.
type Video struct {
	URL             string     `json:"url"`
	ID              string     `json:"id"`
	Description     string     `json:"description"`
	Author          string     `json:"author"`
	AuthorID        string     `json:"author_id"`
	AuthorName      string     `json:"author_name,omitempty"`
	AuthorVerified  bool       `json:"author_verified"`
	AuthorFollowers int        `json:"author_follower_count"`
	Timestamp       string     `json:"timestamp"`
	Music           string     `json:"music"`
	MusicAuthor     string     `json:"music_author,omitempty"`
	Hashtags        []string   `json:"hashtags"`
	Hook            string     `json:"hook"`
	DurationSec     int        `json:"duration"`
	Statistics      Statistics `json:"statistics"`

	Keyword          string  `json:"keyword"`
	ScrapeDate       string  `json:"scrape_date"`
	ScrapeTime       string  `json:"scrape_time"`
	PerformanceScore float64 `json:"performance_score"`
	EngagementRate   float64 `json:"engagement_rate"`
}

var hashtagRe = regexp.MustCompile(`#(\w+)`)

// ExtractHashtags returns the hashtags in text, without the # symbol.
func ExtractHashtags(text string) []string {
	if text == "" {
		return nil
	}
	matches := hashtagRe.FindAllStringSubmatch(text, -1)
	tags := make([]string, 0, len(matches))
	for _, m := range matches {
		tags = append(tags, m[1])
	}
	return tags
}

var firstSentenceRe = regexp.MustCompile(`^(.*?[.!?])\s`)

// ExtractHook returns the attention-grabber of a description: the first
// sentence, or the first maxWords words when no sentence boundary exists.
func ExtractHook(description string, maxWords int) string {
	cleaned := strings.TrimSpace(description)
	if cleaned == "" {
		return ""
	}
	if m := firstSentenceRe.FindStringSubmatch(cleaned); m != nil {
		return m[1]
	}
	words := strings.Fields(cleaned)
	if len(words) > maxWords {
		words = words[:maxWords]
	}
	return strings.Join(words, " ")
}

// flexCount tolerates the count encodings TikTok pages mix: plain numbers,
// numeric strings, and abbreviated strings like "1.2M".
type flexCount int

func (f *flexCount) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*f = 0
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		n, err := ParseCount(s)
		if err != nil {
			*f = 0
			return nil
		}
		*f = flexCount(n)
		return nil
	}
	var n float64
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexCount(n)
	return nil
}

// ParseCount parses a human-abbreviated count ("1.2M", "3400", "12.5K").
func ParseCount(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty count")
	}
	mult := 1.0
	switch s[len(s)-1] {
	case 'K', 'k':
		mult, s = 1e3, s[:len(s)-1]
	case 'M', 'm':
		mult, s = 1e6, s[:len(s)-1]
	case 'B', 'b':
		mult, s = 1e9, s[:len(s)-1]
	}
	n, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return 0, fmt.Errorf("parse count %q: %w", s, err)
	}
	return int(n * mult), nil
}

// rawStats covers the several key spellings observed across page layouts.
type rawStats struct {
	PlayCount     flexCount `json:"playCount"`
	ViewCount     flexCount `json:"viewCount"`
	DiggCount     flexCount `json:"diggCount"`
	LikeCount     flexCount `json:"likeCount"`
	CommentCount  flexCount `json:"commentCount"`
	ShareCount    flexCount `json:"shareCount"`
	CollectCount  flexCount `json:"collectCount"`
	FavoriteCount flexCount `json:"favoriteCount"`
}

type rawAuthor struct {
	UniqueID      string    `json:"uniqueId"`
	ID            string    `json:"id"`
	Nickname      string    `json:"nickname"`
	Verified      bool      `json:"verified"`
	FollowerCount flexCount `json:"followerCount"`
}

type rawItem struct {
	ID         string          `json:"id"`
	Desc       string          `json:"desc"`
	CreateTime flexCount       `json:"createTime"`
	Author     json.RawMessage `json:"author"`
	AuthorID   string          `json:"authorId"`
	Nickname   string          `json:"nickname"`
	Music      struct {
		Title      string `json:"title"`
		AuthorName string `json:"authorName"`
	} `json:"music"`
	Video struct {
		Duration flexCount `json:"duration"`
	} `json:"video"`
	Stats       rawStats `json:"stats"`
	AuthorStats struct {
		FollowerCount flexCount `json:"followerCount"`
	} `json:"authorStats"`
}

// author is either an object or, in the item-module layout, a bare username.
func (r *rawItem) author() rawAuthor {
	var a rawAuthor
	if len(r.Author) == 0 {
		return a
	}
	if r.Author[0] == '"' {
		_ = json.Unmarshal(r.Author, &a.UniqueID)
		a.ID = r.AuthorID
		a.Nickname = r.Nickname
		a.FollowerCount = r.AuthorStats.FollowerCount
		return a
	}
	_ = json.Unmarshal(r.Author, &a)
	return a
}

func (r rawStats) toStatistics() Statistics {
	views := int(r.PlayCount)
	if views == 0 {
		views = int(r.ViewCount)
	}
	likes := int(r.DiggCount)
	if likes == 0 {
		likes = int(r.LikeCount)
	}
	favs := int(r.CollectCount)
	if favs == 0 {
		favs = int(r.FavoriteCount)
	}
	return Statistics{
		Views:     views,
		Likes:     likes,
		Comments:  int(r.CommentCount),
		Shares:    int(r.ShareCount),
		Favorites: favs,
	}
}

// FormatTimestamp renders a unix timestamp (seconds or milliseconds) in the
// output's "2006-01-02 15:04:05" form. Zero falls back to the current time.
func FormatTimestamp(unix int64) string {
	if unix > 1_000_000_000_000 {
		unix /= 1000
	}
	t := time.Unix(unix, 0)
	if unix == 0 {
		t = time.Now()
	}
	return t.Format("2006-01-02 15:04:05")
}

// Parser extracts Video records from page HTML.
type Parser struct {
	log *zap.SugaredLogger
}

func New(log *zap.SugaredLogger) *Parser {
	return &Parser{log: log}
}

// ParsePage extracts videos from a harvested page. The embedded application
// state JSON is authoritative; when it is missing (markup shifts constantly)
// the video anchors in the DOM give a degraded record with just URL and
// author.
func (p *Parser) ParsePage(html string) ([]Video, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	videos := p.fromEmbeddedState(doc)
	if len(videos) > 0 {
		p.log.Debugw("parsed videos from embedded state", "count", len(videos))
		return videos, nil
	}

	videos = p.fromAnchors(doc)
	p.log.Debugw("parsed videos from anchors", "count", len(videos))
	return videos, nil
}

// Markers that flag a script as carrying embedded application state,
// regardless of how the page wraps it.
var stateMarkers = []string{"SIGI_STATE", "itemList", "__UNIVERSAL_DATA_FOR_REHYDRATION__"}

var embeddedObjectRe = regexp.MustCompile(`(?s)\{.+\}`)

func (p *Parser) fromEmbeddedState(doc *goquery.Document) []Video {
	if videos := p.itemModuleVideos(doc.Find("script#SIGI_STATE").Text()); len(videos) > 0 {
		return videos
	}

	// The id-tagged script is only one layout; the state also ships as an
	// inline assignment (window['SIGI_STATE']={...}) in an unmarked script.
	var videos []Video
	doc.Find("script").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		text := sel.Text()
		if !hasStateMarker(text) {
			return true
		}
		obj := embeddedObjectRe.FindString(text)
		if obj == "" {
			return true
		}
		if found := p.itemModuleVideos(obj); len(found) > 0 {
			videos = found
			return false
		}
		return true
	})
	return videos
}

func hasStateMarker(text string) bool {
	for _, m := range stateMarkers {
		if strings.Contains(text, m) {
			return true
		}
	}
	return false
}

func (p *Parser) itemModuleVideos(raw string) []Video {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	var state struct {
		ItemModule map[string]rawItem `json:"ItemModule"`
	}
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		p.log.Debugw("embedded state parse failed", "error", err)
		return nil
	}

	videos := make([]Video, 0, len(state.ItemModule))
	for id, item := range state.ItemModule {
		if item.ID == "" {
			item.ID = id
		}
		videos = append(videos, p.fromItem(item))
	}
	return videos
}

func (p *Parser) fromItem(item rawItem) Video {
	a := item.author()
	return Video{
		URL:             fmt.Sprintf("https://www.tiktok.com/@%s/video/%s", a.UniqueID, item.ID),
		ID:              item.ID,
		Description:     item.Desc,
		Author:          a.UniqueID,
		AuthorID:        a.ID,
		AuthorName:      a.Nickname,
		AuthorVerified:  a.Verified,
		AuthorFollowers: int(a.FollowerCount),
		Timestamp:       FormatTimestamp(int64(item.CreateTime)),
		Music:           item.Music.Title,
		MusicAuthor:     item.Music.AuthorName,
		Hashtags:        ExtractHashtags(item.Desc),
		Hook:            ExtractHook(item.Desc, 15),
		DurationSec:     int(item.Video.Duration),
		Statistics:      item.Stats.toStatistics(),
	}
}

var videoPathRe = regexp.MustCompile(`/@([^/]+)/video/(\d+)`)

func (p *Parser) fromAnchors(doc *goquery.Document) []Video {
	seen := map[string]bool{}
	var videos []Video

	doc.Find(`a[href*="/video/"]`).Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok {
			return
		}
		if !strings.HasPrefix(href, "http") {
			href = "https://www.tiktok.com" + href
		}
		if seen[href] {
			return
		}
		seen[href] = true

		v := Video{URL: href}
		if m := videoPathRe.FindStringSubmatch(href); m != nil {
			v.Author = m[1]
			v.ID = m[2]
		}
		if desc := strings.TrimSpace(sel.Text()); desc != "" {
			v.Description = desc
			v.Hashtags = ExtractHashtags(desc)
			v.Hook = ExtractHook(desc, 15)
		}
		videos = append(videos, v)
	})

	return videos
}
