package ratelimit

import "context"

// RateLimiter bounds outbound SMTP throughput per sender account. Most
// providers throttle or block accounts that burst, so the worker waits
// for a slot before every send.
type RateLimiter interface {
	Allow(ctx context.Context, senderID string) (bool, error)
	Wait(ctx context.Context, senderID string) error
}
