package stealth

import (
	"fmt"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// surfacePatchJS patches the observable automation surfaces before any page
// script runs: webdriver flag, plugin enumeration, permissions API, the
// window.chrome namespace, language list, connection info, and the canvas and
// WebGL export paths. The canvas/WebGL wrappers are deliberate pass-throughs;
// they exist as hook points for fingerprint randomization and currently return
// the unmodified result.
const surfacePatchJS = `(() => {
	Object.defineProperty(navigator, 'webdriver', {
		get: () => false
	});

	Object.defineProperty(navigator, 'plugins', {
		get: () => {
			const plugins = {
				length: 3,
				0: {
					description: "Chrome PDF Plugin",
					filename: "internal-pdf-viewer",
					name: "Chrome PDF Plugin",
					length: 1,
				},
				1: {
					description: "Chrome PDF Viewer",
					filename: "mhjfbmdgcfjbbpaeojofohoefgiehjai",
					name: "Chrome PDF Viewer",
					length: 1,
				},
				2: {
					description: "Native Client",
					filename: "internal-nacl-plugin",
					name: "Native Client",
					length: 2,
				}
			};

			plugins[Symbol.iterator] = function* () {
				for (let i = 0; i < this.length; i++)
					yield this[i];
			};

			return plugins;
		}
	});

	if (window.navigator.permissions) {
		const originalQuery = window.navigator.permissions.query;
		window.navigator.permissions.query = (parameters) => (
			parameters.name === 'notifications' ||
			parameters.name === 'clipboard-read' ||
			parameters.name === 'clipboard-write' ?
			Promise.resolve({ state: Notification.permission }) :
			originalQuery(parameters)
		);
	}

	window.chrome = window.chrome || {};
	window.chrome.runtime = window.chrome.runtime || {};

	Object.defineProperty(navigator, 'languages', {
		get: () => ['en-US', 'en', 'es'],
	});

	Object.defineProperty(navigator, 'connection', {
		get: () => {
			return {
				effectiveType: '4g',
				rtt: 50,
				downlink: 10.0,
				saveData: false
			};
		}
	});

	const originalToDataURL = HTMLCanvasElement.prototype.toDataURL;
	HTMLCanvasElement.prototype.toDataURL = function(type) {
		return originalToDataURL.apply(this, arguments);
	};

	const getParameterProxyHandler = {
		apply: function(target, ctx, args) {
			return target.apply(ctx, args);
		}
	};
	if (WebGLRenderingContext.prototype.getParameter) {
		WebGLRenderingContext.prototype.getParameter =
			new Proxy(WebGLRenderingContext.prototype.getParameter, getParameterProxyHandler);
	}
})();`

// timingConsistencyJS wraps the audio-buffer, timezone-offset, and
// high-resolution-timer retrieval paths. All three are pass-throughs kept as
// hook points for future jitter injection; behavior is identical to the
// unpatched APIs.
const timingConsistencyJS = `(() => {
	const audioContext = window.AudioContext || window.webkitAudioContext;
	if (audioContext) {
		const originalGetChannelData = AudioBuffer.prototype.getChannelData;
		AudioBuffer.prototype.getChannelData = function() {
			return originalGetChannelData.apply(this, arguments);
		};
	}

	const originalGetTimezoneOffset = Date.prototype.getTimezoneOffset;
	Date.prototype.getTimezoneOffset = function() {
		return originalGetTimezoneOffset.apply(this, arguments);
	};

	if (window.performance && window.performance.now) {
		const originalNow = window.performance.now;
		window.performance.now = function() {
			return originalNow.apply(this, arguments);
		};
	}
})();`

// Injector registers the anti-detection init scripts against a Session's
// browsing context. Scripts run in every new page's global scope before any
// page-supplied script, in registration order.
type Injector struct {
	scripts []string
}

func NewInjector() *Injector {
	return &Injector{scripts: []string{surfacePatchJS, timingConsistencyJS}}
}

// Attach binds the injector to a launched Session. Calling it on a Session
// whose context is absent is a programming error, not an environment fault.
func (in *Injector) Attach(s *Session) error {
	if s == nil || s.context == nil {
		return fmt.Errorf("attach injector: %w", ErrNotLaunched)
	}
	s.injector = in
	in.watchPopups(s)
	return nil
}

// watchPopups adopts pages the site spawns itself (window.open, target
// _blank). Those never pass through Session.NewPage, so the init scripts would
// otherwise be missing there. The listener goroutine ends when the browser
// connection closes.
func (in *Injector) watchPopups(s *Session) {
	go s.context.EachEvent(func(e *proto.TargetTargetCreated) bool {
		info := e.TargetInfo
		if info.Type != "page" || info.OpenerID == "" {
			return false
		}
		if info.BrowserContextID != s.context.BrowserContextID {
			return false
		}
		page, err := s.context.PageFromTarget(info.TargetID)
		if err != nil {
			s.log.Debugw("popup adoption failed", "error", err)
			return false
		}
		if err := in.apply(page); err != nil {
			s.log.Debugw("popup init script registration failed", "error", err)
		}
		return false
	})()
}

// apply registers every init script on a freshly created page, before any
// navigation, so they execute ahead of the page's own scripts.
func (in *Injector) apply(page *rod.Page) error {
	for i, js := range in.scripts {
		if _, err := page.EvalOnNewDocument(js); err != nil {
			return fmt.Errorf("register init script %d: %w", i+1, err)
		}
	}
	return nil
}
