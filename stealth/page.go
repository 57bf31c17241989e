package stealth

import (
	"fmt"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/ysmood/gson"
)

// interactionListenersJS installs passive listeners whose timestamps act as an
// in-page liveness signal. Nothing reads them from Go; detection heuristics
// sample them in-page.
const interactionListenersJS = `() => {
	window._customMouseMove = true;
	window._lastMouseTime = Date.now();

	document.addEventListener('mousemove', function(e) {
		window._lastMouseTime = Date.now();
	});

	document.addEventListener('scroll', function(e) {
		window._lastScrollTime = Date.now();
	});

	document.addEventListener('keydown', function(e) {
		window._lastKeyTime = Date.now();
	});
}`

// configurePage applies the per-page settings that cannot be expressed at the
// context level: the JS-visible user agent, the fixed header bundle, and the
// passive interaction listeners.
func (s *Session) configurePage(page *rod.Page) {
	// Some engines still expose the true UA through JS introspection even when
	// the launch flag overrides the header; pin the property too.
	uaJS := fmt.Sprintf(
		`() => Object.defineProperty(navigator, "userAgent", { get: () => %q })`,
		s.fp.UserAgent,
	)
	if _, err := page.Eval(uaJS); err != nil {
		s.log.Warnw("user agent override failed", "error", err)
	}

	if err := s.setHeaders(page); err != nil {
		s.log.Warnw("extra header setup failed", "error", err)
	}

	if _, err := page.Eval(interactionListenersJS); err != nil {
		s.log.Warnw("interaction listener setup failed", "error", err)
	}
}

// setHeaders pins the header bundle for top-level navigations. The sec-ch-ua
// token is a fixed Chromium literal regardless of the fingerprint's engine
// choice; only the platform hint derives from the fingerprint.
func (s *Session) setHeaders(page *rod.Page) error {
	if err := (proto.NetworkEnable{}).Call(page); err != nil {
		return fmt.Errorf("enable network domain: %w", err)
	}

	headers := proto.NetworkHeaders{
		"Accept-Language":           gson.New("en-US,en;q=0.9"),
		"Accept":                    gson.New("text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8"),
		"Accept-Encoding":           gson.New("gzip, deflate, br"),
		"Upgrade-Insecure-Requests": gson.New("1"),
		"Sec-Fetch-Dest":            gson.New("document"),
		"Sec-Fetch-Mode":            gson.New("navigate"),
		"Sec-Fetch-Site":            gson.New("none"),
		"Sec-Fetch-User":            gson.New("?1"),
		"sec-ch-ua":                 gson.New(`"Chromium";v="110", "Not A(Brand";v="24", "Google Chrome";v="110"`),
		"sec-ch-ua-mobile":          gson.New("?0"),
		"sec-ch-ua-platform":        gson.New(fmt.Sprintf("%q", s.fp.Platform)),
	}

	if err := (proto.NetworkSetExtraHTTPHeaders{Headers: headers}).Call(page); err != nil {
		return fmt.Errorf("set extra headers: %w", err)
	}
	return nil
}
