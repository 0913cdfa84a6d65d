package payments

import "fmt"

// Breaker stops a batch once enough requests were made and too many failed.
type Breaker struct {
	MinRequests    int
	MaxFailureRate float64

	requests int
	failures int
}

// NewBreaker returns the receipt breaker: at least 10 requests, more than 20% failures.
func NewBreaker() *Breaker {
	return &Breaker{MinRequests: 10, MaxFailureRate: 0.2}
}

// Record counts one request outcome.
func (b *Breaker) Record(ok bool) {
	b.requests++
	if !ok {
		b.failures++
	}
}

// Tripped reports whether the batch should stop.
func (b *Breaker) Tripped() bool {
	if b.requests < b.MinRequests || b.requests == 0 {
		return false
	}
	return float64(b.failures)/float64(b.requests) > b.MaxFailureRate
}

// Reason describes why the breaker tripped.
func (b *Breaker) Reason() string {
	return fmt.Sprintf("failure rate %d/%d exceeds %.0f%%", b.failures, b.requests, b.MaxFailureRate*100)
}
