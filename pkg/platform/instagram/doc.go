// Package instagram implements the Instagram Graph API adapter.
//
// # Endpoints
//
//   - GET /me?fields=id,username resolves the business account (memoized)
//   - GET /{media-id}/insights?metric=plays,likes,comments,shares
//   - GET /{media-id}?fields=timestamp
//   - GET /{ig-user-id}?fields=followers_count,follows_count,media_count
//
// # Rate Limiting
//
// Every Graph response carries X-App-Usage, a JSON object of three usage
// percentages:
//
//	X-App-Usage: {"call_count":28,"total_time":25,"total_cputime":25}
//
// The highest of the three is compared against the configured threshold
// (80% by default). Above it the adapter defers its queue by the configured
// backoff delay. The returned snapshot reports it as Limit 100 and
// Remaining 100-peak.
//
// # Views
//
// Image posts report no plays metric. Views is then 0 and the engagement
// rate divides by 1.
package instagram
