// Package resilience provides the reliability patterns wrapped around
// every external call: circuit breakers and retry with exponential
// backoff and jitter.
//
// The package covers:
//   - Circuit breakers for the market data, macro, AI, feed, and
//     messaging providers
//   - Retry logic with per-provider presets
//
// Usage:
//
//	cb := circuitbreaker.New(circuitbreaker.MarketDataConfig("finnhub"))
//	result, err := cb.Execute(func() (interface{}, error) {
//	    return callProvider()
//	})
//
//	err := retry.WithBackoff(ctx, retry.DefaultConfig(), func() error {
//	    return performOperation()
//	})
package resilience
