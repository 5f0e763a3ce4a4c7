// Package ratelimit paces outbound platform requests.
//
// # Overview
//
// Each platform client owns one Queue. Tasks submitted to a queue run
// strictly one at a time, in submission order, with at least
// Config.Interval() between the start of consecutive tasks:
//
//	q, _ := ratelimit.New("tiktok", ratelimit.Config{RequestsPerWindow: 600, WindowSeconds: 60})
//	defer q.Close()
//
//	body, err := ratelimit.Submit(q, func() ([]byte, error) {
//	    return fetch(ctx, url)
//	})
//
// # Adaptive Backoff
//
// When a response indicates the caller is close to the provider quota, the
// client calls Queue.Delay. The delay runs before any pending task, so the
// whole backlog shifts uniformly and nothing is dropped or reordered.
//
// # Failure Isolation
//
// A task that returns an error or panics resolves only its own Future. The
// drain loop keeps going with the next task.
package ratelimit
