package stealth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testUA = "Mozilla/5.0 (test) Chrome/120.0.0.0"

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelLow, ParseLevel("low"))
	assert.Equal(t, LevelMedium, ParseLevel("MEDIUM"))
	assert.Equal(t, LevelHigh, ParseLevel("high"))

	// Anything unrecognized lands on the most protective tier.
	assert.Equal(t, LevelHigh, ParseLevel(""))
	assert.Equal(t, LevelHigh, ParseLevel("paranoid"))
}

func TestFlagsForTiersAreSupersets(t *testing.T) {
	low := FlagsFor(LevelLow, testUA)
	medium := FlagsFor(LevelMedium, testUA)
	high := FlagsFor(LevelHigh, testUA)

	require.Less(t, len(low), len(medium))
	require.Less(t, len(medium), len(high))

	for _, f := range low {
		assert.Contains(t, medium, f)
		assert.Contains(t, high, f)
	}
	for _, f := range medium {
		assert.Contains(t, high, f)
	}
}

func TestFlagsForContent(t *testing.T) {
	t.Run("user agent embedded at every tier", func(t *testing.T) {
		for _, level := range []Level{LevelLow, LevelMedium, LevelHigh} {
			assert.Contains(t, FlagsFor(level, testUA), "--user-agent="+testUA)
		}
	})

	t.Run("automation control disabled at every tier", func(t *testing.T) {
		for _, level := range []Level{LevelLow, LevelMedium, LevelHigh} {
			assert.Contains(t, FlagsFor(level, testUA), "--disable-blink-features=AutomationControlled")
		}
	})

	t.Run("phishing detection flag only at high", func(t *testing.T) {
		const flag = "--disable-client-side-phishing-detection"
		assert.NotContains(t, FlagsFor(LevelLow, testUA), flag)
		assert.NotContains(t, FlagsFor(LevelMedium, testUA), flag)
		assert.Contains(t, FlagsFor(LevelHigh, testUA), flag)
	})
}

func TestFlagsForDeterministic(t *testing.T) {
	assert.Equal(t, FlagsFor(LevelHigh, testUA), FlagsFor(LevelHigh, testUA))
}
