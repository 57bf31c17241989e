package stealth

import (
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// Selector for elements that are safe to click during idle interaction:
// anything that is not a link, button, or form control.
const safeClickSelector = "div:not(a):not(button):not(input)"

// SimulateHumanBehavior drives randomized pointer movement, scrolling, and
// occasional element interaction on a live page. Best effort: every failure is
// swallowed and logged, the caller is never failed. Intended to run between
// content-loading steps.
func (s *Session) SimulateHumanBehavior(page *rod.Page) {
	if page == nil {
		s.log.Debugw("behavior simulation skipped: nil page")
		return
	}

	if err := rod.Try(func() { s.simulate(page) }); err != nil {
		s.log.Debugw("behavior simulation error", "error", err)
	}
}

func (s *Session) simulate(page *rod.Page) {
	// Pointer wander across the viewport. 10 intermediate steps per move
	// approximates continuous motion instead of a teleporting cursor.
	moves := 3 + s.rng.Intn(12)
	for i := 0; i < moves; i++ {
		target := proto.Point{
			X: float64(s.rng.Intn(s.fp.Viewport.Width)),
			Y: float64(s.rng.Intn(s.fp.Viewport.Height)),
		}
		if err := page.Mouse.MoveLinear(target, 10); err != nil {
			s.log.Debugw("pointer move failed", "error", err)
		}
		time.Sleep(RandomDelay(s.rng, 500, 2500))
	}

	// One scroll of random magnitude, then a reading pause.
	scroll := 200 + s.rng.Intn(600)
	if err := page.Mouse.Scroll(0, float64(scroll), 1); err != nil {
		s.log.Debugw("scroll failed", "error", err)
	}
	time.Sleep(RandomDelay(s.rng, 1000, 3000))

	// Occasionally click a harmless element's visual center. DOM mutation
	// between query and click is expected; any failure here is tolerated.
	if s.rng.Float64() < 0.3 {
		s.clickRandomElement(page)
	}
}

func (s *Session) clickRandomElement(page *rod.Page) {
	err := rod.Try(func() {
		els, err := page.Timeout(5 * time.Second).Elements(safeClickSelector)
		if err != nil || len(els) == 0 {
			return
		}

		el := els[s.rng.Intn(len(els))]
		shape, err := el.Shape()
		if err != nil || len(shape.Quads) == 0 {
			return
		}
		center, ok := quadCenter(shape.Quads[0])
		if !ok {
			return
		}
		if err := page.Mouse.MoveLinear(center, 10); err != nil {
			return
		}
		if err := page.Mouse.Click(proto.InputMouseButtonLeft, 1); err != nil {
			return
		}
		time.Sleep(RandomDelay(s.rng, 500, 2000))
	})
	if err != nil {
		s.log.Debugw("random element interaction failed", "error", err)
	}
}

// quadCenter averages a content quad's corners. A quad holds [x1,y1 .. x4,y4];
// fewer values means the element has no usable geometry.
func quadCenter(quad proto.DOMQuad) (proto.Point, bool) {
	if len(quad) < 8 {
		return proto.Point{}, false
	}
	return proto.Point{
		X: (quad[0] + quad[2] + quad[4] + quad[6]) / 4,
		Y: (quad[1] + quad[3] + quad[5] + quad[7]) / 4,
	}, true
}
