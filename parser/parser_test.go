package parser

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestExtractHashtags(t *testing.T) {
	assert.Equal(t, []string{"budgeting", "finance"},
		ExtractHashtags("How I budget my salary #budgeting #finance"))
	assert.Empty(t, ExtractHashtags("no tags here"))
	assert.Empty(t, ExtractHashtags(""))
	assert.Equal(t, []string{"fyp"}, ExtractHashtags("#fyp"))
}

func TestExtractHook(t *testing.T) {
	t.Run("first sentence wins", func(t *testing.T) {
		hook := ExtractHook("Stop doing this! It ruins your budget every time.", 15)
		assert.Equal(t, "Stop doing this!", hook)
	})

	t.Run("word cap without sentence boundary", func(t *testing.T) {
		hook := ExtractHook("one two three four five six seven eight nine ten eleven twelve thirteen fourteen fifteen sixteen", 15)
		assert.Equal(t, "one two three four five six seven eight nine ten eleven twelve thirteen fourteen fifteen", hook)
	})

	t.Run("short text returned whole", func(t *testing.T) {
		assert.Equal(t, "just a caption", ExtractHook("  just a caption  ", 15))
	})

	t.Run("empty", func(t *testing.T) {
		assert.Equal(t, "", ExtractHook("", 15))
	})
}

func TestParseCount(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{"3400", 3400},
		{"1.2K", 1200},
		{"12.5k", 12500},
		{"1.2M", 1200000},
		{"2B", 2000000000},
		{"1,234", 1234},
	}
	for _, c := range cases {
		got, err := ParseCount(c.in)
		require.NoError(t, err, c.in)
		assert.Equal(t, c.want, got, c.in)
	}

	_, err := ParseCount("")
	assert.Error(t, err)
	_, err = ParseCount("abc")
	assert.Error(t, err)
}

func TestFlexCountUnmarshal(t *testing.T) {
	var s rawStats
	raw := `{"playCount": 1000, "diggCount": "2.5K", "commentCount": "140", "shareCount": null}`
	require.NoError(t, json.Unmarshal([]byte(raw), &s))

	assert.Equal(t, 1000, int(s.PlayCount))
	assert.Equal(t, 2500, int(s.DiggCount))
	assert.Equal(t, 140, int(s.CommentCount))
	assert.Equal(t, 0, int(s.ShareCount))
}

func TestRawStatsToStatistics(t *testing.T) {
	t.Run("primary key spellings", func(t *testing.T) {
		s := rawStats{PlayCount: 100, DiggCount: 10, CommentCount: 5, ShareCount: 2, CollectCount: 1}
		assert.Equal(t, Statistics{Views: 100, Likes: 10, Comments: 5, Shares: 2, Favorites: 1}, s.toStatistics())
	})

	t.Run("alternate key spellings", func(t *testing.T) {
		s := rawStats{ViewCount: 100, LikeCount: 10, FavoriteCount: 3}
		got := s.toStatistics()
		assert.Equal(t, 100, got.Views)
		assert.Equal(t, 10, got.Likes)
		assert.Equal(t, 3, got.Favorites)
	})
}

func TestFormatTimestamp(t *testing.T) {
	// Seconds and milliseconds should render identically.
	sec := FormatTimestamp(1700000000)
	ms := FormatTimestamp(1700000000000)
	assert.Equal(t, sec, ms)
	assert.Regexp(t, `^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}$`, sec)
	assert.Regexp(t, `^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}$`, FormatTimestamp(0))
}

func sigiPage(items string) string {
	return fmt.Sprintf(`<html><head>
		<script id="SIGI_STATE" type="application/json">{"ItemModule": %s}</script>
	</head><body></body></html>`, items)
}

func TestParsePageFromEmbeddedState(t *testing.T) {
	p := New(zap.NewNop().Sugar())

	html := sigiPage(`{
		"7300000000000000001": {
			"id": "7300000000000000001",
			"desc": "Save money fast! #savings #moneytips",
			"createTime": "1700000000",
			"author": "budgetqueen",
			"authorId": "123",
			"nickname": "Budget Queen",
			"music": {"title": "original sound", "authorName": "budgetqueen"},
			"video": {"duration": 31},
			"stats": {"playCount": 150000, "diggCount": "12.5K", "commentCount": 300, "shareCount": 120},
			"authorStats": {"followerCount": 54000}
		}
	}`)

	videos, err := p.ParsePage(html)
	require.NoError(t, err)
	require.Len(t, videos, 1)

	v := videos[0]
	assert.Equal(t, "https://www.tiktok.com/@budgetqueen/video/7300000000000000001", v.URL)
	assert.Equal(t, "budgetqueen", v.Author)
	assert.Equal(t, "123", v.AuthorID)
	assert.Equal(t, "Budget Queen", v.AuthorName)
	assert.Equal(t, 54000, v.AuthorFollowers)
	assert.Equal(t, "Save money fast! #savings #moneytips", v.Description)
	assert.Equal(t, "Save money fast!", v.Hook)
	assert.Equal(t, []string{"savings", "moneytips"}, v.Hashtags)
	assert.Equal(t, 31, v.DurationSec)
	assert.Equal(t, "original sound", v.Music)
	assert.Equal(t, Statistics{Views: 150000, Likes: 12500, Comments: 300, Shares: 120}, v.Statistics)
}

func TestParsePageAuthorObjectLayout(t *testing.T) {
	p := New(zap.NewNop().Sugar())

	html := sigiPage(`{
		"7300000000000000002": {
			"desc": "hustle tips",
			"author": {"uniqueId": "hustler", "id": "456", "nickname": "The Hustler", "verified": true, "followerCount": "1.1M"},
			"stats": {"playCount": 5000}
		}
	}`)

	videos, err := p.ParsePage(html)
	require.NoError(t, err)
	require.Len(t, videos, 1)

	v := videos[0]
	assert.Equal(t, "7300000000000000002", v.ID)
	assert.Equal(t, "hustler", v.Author)
	assert.True(t, v.AuthorVerified)
	assert.Equal(t, 1100000, v.AuthorFollowers)
}

func TestParsePageInlineStateAssignment(t *testing.T) {
	p := New(zap.NewNop().Sugar())

	html := `<html><head>
		<script>window['SIGI_STATE']={"ItemModule":{"789":{
			"desc": "inline layout #test",
			"author": "someuser",
			"stats": {"playCount": 1000, "diggCount": 50, "commentCount": 5, "shareCount": 2}
		}}};</script>
	</head><body></body></html>`

	videos, err := p.ParsePage(html)
	require.NoError(t, err)
	require.Len(t, videos, 1)

	v := videos[0]
	assert.Equal(t, "789", v.ID)
	assert.Equal(t, "someuser", v.Author)
	assert.Equal(t, "https://www.tiktok.com/@someuser/video/789", v.URL)
	assert.Equal(t, []string{"test"}, v.Hashtags)
	assert.Equal(t, Statistics{Views: 1000, Likes: 50, Comments: 5, Shares: 2}, v.Statistics)
}

func TestParsePageStateMarkerWithoutItemsFallsBack(t *testing.T) {
	p := New(zap.NewNop().Sugar())

	html := `<html><head>
		<script>window.__UNIVERSAL_DATA_FOR_REHYDRATION__={"__DEFAULT_SCOPE__":{}};</script>
	</head><body>
		<a href="/@creator/video/1">fallback</a>
	</body></html>`

	videos, err := p.ParsePage(html)
	require.NoError(t, err)
	require.Len(t, videos, 1)
	assert.Equal(t, "https://www.tiktok.com/@creator/video/1", videos[0].URL)
}

func TestParsePageAnchorFallback(t *testing.T) {
	p := New(zap.NewNop().Sugar())

	html := `<html><body>
		<a href="/@creator1/video/111">Great tips #fyp</a>
		<a href="/@creator1/video/111">duplicate</a>
		<a href="https://www.tiktok.com/@creator2/video/222"></a>
		<a href="/about">not a video</a>
	</body></html>`

	videos, err := p.ParsePage(html)
	require.NoError(t, err)
	require.Len(t, videos, 2)

	assert.Equal(t, "https://www.tiktok.com/@creator1/video/111", videos[0].URL)
	assert.Equal(t, "creator1", videos[0].Author)
	assert.Equal(t, "111", videos[0].ID)
	assert.Equal(t, []string{"fyp"}, videos[0].Hashtags)

	assert.Equal(t, "creator2", videos[1].Author)
	assert.Equal(t, "222", videos[1].ID)
}

func TestParsePageEmptyDocument(t *testing.T) {
	p := New(zap.NewNop().Sugar())
	videos, err := p.ParsePage("<html><body><p>nothing here</p></body></html>")
	require.NoError(t, err)
	assert.Empty(t, videos)
}
