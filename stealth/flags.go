package stealth

import (
	"fmt"
	"strings"

	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
)

// Level is the configured stealth aggressiveness tier. Each tier's launch
// arguments are a strict superset of the tier below it.
type Level string

const (
	LevelLow    Level = "low"
	LevelMedium Level = "medium"
	LevelHigh   Level = "high"
)

// ParseLevel maps a config string to a Level, defaulting to high for any
// unrecognized value so misconfiguration errs on the protective side.
func ParseLevel(s string) Level {
	switch Level(strings.ToLower(s)) {
	case LevelLow:
		return LevelLow
	case LevelMedium:
		return LevelMedium
	default:
		return LevelHigh
	}
}

// FlagsFor returns the launch arguments for a stealth level with the session
// user agent embedded. Pure and deterministic given its inputs.
func FlagsFor(level Level, userAgent string) []string {
	low := []string{
		"--disable-blink-features=AutomationControlled",
		"--no-sandbox",
		"--disable-setuid-sandbox",
		fmt.Sprintf("--user-agent=%s", userAgent),
	}

	medium := append(append([]string{}, low...),
		"--disable-infobars",
		"--disable-dev-shm-usage",
		"--disable-accelerated-2d-canvas",
		"--no-first-run",
		"--no-default-browser-check",
		"--disable-extensions",
	)

	high := append(append([]string{}, medium...),
		"--disable-features=IsolateOrigins,site-per-process",
		"--disable-site-isolation-trials",
		"--disable-web-security",
		"--disable-background-networking",
		"--disable-background-timer-throttling",
		"--disable-backing-store-limit",
		"--disable-breakpad",
		"--disable-client-side-phishing-detection",
		"--disable-component-extensions-with-background-pages",
		"--disable-default-apps",
		"--disable-domain-reliability",
		"--disable-hang-monitor",
		"--disable-popup-blocking",
		"--disable-prompt-on-repost",
		"--disable-sync",
		"--disable-translate",
		"--metrics-recording-only",
		"--no-pings",
		"--password-store=basic",
	)

	switch level {
	case LevelLow:
		return low
	case LevelMedium:
		return medium
	default:
		return high
	}
}

// applyFlags feeds the computed argument list into a rod launcher.
func applyFlags(l *launcher.Launcher, args []string) {
	for _, arg := range args {
		name, value, hasValue := strings.Cut(strings.TrimPrefix(arg, "--"), "=")
		if hasValue {
			l.Set(flags.Flag(name), value)
		} else {
			l.Set(flags.Flag(name))
		}
	}
}
