package timing

import "time"

// TickerLimiter uses time.Ticker for simple, consistent frame timing.
type TickerLimiter struct {
	ticker *time.Ticker
	speed  int
	ch     <-chan time.Time
}

// NewTickerLimiter creates a limiter paced at the given speed level.
func NewTickerLimiter(speed int) *TickerLimiter {
	ticker := time.NewTicker(FrameDuration(speed))
	return &TickerLimiter{
		ticker: ticker,
		speed:  speed,
		ch:     ticker.C,
	}
}

func (t *TickerLimiter) WaitForNextFrame() {
	<-t.ch
}

func (t *TickerLimiter) Reset() {
	t.ticker.Reset(FrameDuration(t.speed))
}

func (t *TickerLimiter) Stop() {
	t.ticker.Stop()
}
