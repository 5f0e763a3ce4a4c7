package instagram

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/altmunch/SocialSchedule-sub011/pkg/platform"
)

// Graph API timestamps use a numeric zone without a colon.
const graphTimeLayout = "2006-01-02T15:04:05-0700"

// appUsage is the decoded X-App-Usage header. Values are percentages.
type appUsage struct {
	CallCount    float64 `json:"call_count"`
	TotalCPUTime float64 `json:"total_cputime"`
	TotalTime    float64 `json:"total_time"`
}

func (u appUsage) peak() float64 {
	return max(u.CallCount, u.TotalCPUTime, u.TotalTime)
}

func parseAppUsage(raw string) (appUsage, error) {
	var u appUsage
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		return appUsage{}, err
	}
	return u, nil
}

// account is the /me response.
type account struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// insightsResponse is the /{media-id}/insights response.
type insightsResponse struct {
	Data []struct {
		Name   string `json:"name"`
		Values []struct {
			Value int64 `json:"value"`
		} `json:"values"`
	} `json:"data"`
}

// value returns the first value of the named metric, or 0 when the metric is
// absent (plays is not reported for image posts).
func (r insightsResponse) value(name string) int64 {
	for _, m := range r.Data {
		if m.Name == name && len(m.Values) > 0 {
			return m.Values[0].Value
		}
	}
	return 0
}

// mediaResponse is the /{media-id}?fields=timestamp response.
type mediaResponse struct {
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"`
}

// userResponse is the /{ig-user-id} response.
type userResponse struct {
	FollowersCount int64 `json:"followers_count"`
	FollowsCount   int64 `json:"follows_count"`
	MediaCount     int64 `json:"media_count"`
}

func transformPostMetrics(name, postID string, insights insightsResponse, media mediaResponse) (platform.PostMetrics, *platform.Failure) {
	ts, err := parseGraphTime(media.Timestamp)
	if err != nil {
		return platform.PostMetrics{}, platform.ParseFailure(name, err, []byte(media.Timestamp))
	}

	return platform.NewPostMetrics(
		postID,
		insights.value("plays"),
		insights.value("likes"),
		insights.value("comments"),
		insights.value("shares"),
		ts,
	), nil
}

func parseGraphTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(graphTimeLayout, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", s)
}
