package discovery

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeKeyword(t *testing.T) {
	assert.Equal(t, "budgeting", NormalizeKeyword("budgeting"))
	assert.Equal(t, "budgeting", NormalizeKeyword("#budgeting"))
	assert.Equal(t, "personal%20finance", NormalizeKeyword("personal finance"))
	assert.Equal(t, "side%20hustle", NormalizeKeyword("#side hustle"))
}

func TestParseMethods(t *testing.T) {
	t.Run("known names pass through", func(t *testing.T) {
		got := ParseMethods([]string{"search", "HASHTAG", " explore "})
		assert.Equal(t, []Method{MethodSearch, MethodHashtag, MethodExplore}, got)
	})

	t.Run("unknown names dropped", func(t *testing.T) {
		got := ParseMethods([]string{"search", "carrier_pigeon"})
		assert.Equal(t, []Method{MethodSearch}, got)
	})

	t.Run("empty input falls back to all methods", func(t *testing.T) {
		got := ParseMethods(nil)
		assert.Equal(t, []Method{MethodSearch, MethodHashtag, MethodUser, MethodExplore}, got)

		got = ParseMethods([]string{"bogus"})
		assert.Len(t, got, 4)
	})
}

func TestCountVideoLinks(t *testing.T) {
	html := `<html><body>
		<a href="/@a/video/1">one</a>
		<a href="/@a/video/1">same link twice</a>
		<a href="/@b/video/2">two</a>
		<a href="/profile">not a video</a>
	</body></html>`

	assert.Equal(t, 2, CountVideoLinks(html))
	assert.Equal(t, 0, CountVideoLinks("<html><body>nothing</body></html>"))
	assert.Equal(t, 0, CountVideoLinks(""))
}
