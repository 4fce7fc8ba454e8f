package rates

// Window is a fixed tick window counter.
type Window struct {
	Start uint64
	Count int
}

// Allow counts one event at nowTick. When more than max events land in the
// same window it reports false and the ticks left until the window resets.
// A zero window or non-positive max disables limiting.
func (w *Window) Allow(nowTick uint64, window uint64, max int) (ok bool, cooldownTicks uint64) {
	if window == 0 || max <= 0 {
		return true, 0
	}
	if nowTick-w.Start >= window {
		w.Start = nowTick
		w.Count = 0
	}
	w.Count++
	if w.Count <= max {
		return true, 0
	}
	return false, (w.Start + window) - nowTick
}
