package youtube

import (
	"fmt"
	"strconv"
	"time"

	"github.com/altmunch/SocialSchedule-sub011/pkg/platform"
)

// The Data API encodes counts as decimal strings. Counts the owner hid are
// omitted.

type videoListResponse struct {
	Items []videoItem `json:"items"`
}

type videoItem struct {
	ID      string `json:"id"`
	Snippet struct {
		PublishedAt string `json:"publishedAt"`
	} `json:"snippet"`
	Statistics struct {
		ViewCount    string `json:"viewCount"`
		LikeCount    string `json:"likeCount"`
		CommentCount string `json:"commentCount"`
	} `json:"statistics"`
}

type channelListResponse struct {
	Items []channelItem `json:"items"`
}

type channelItem struct {
	ID         string `json:"id"`
	Statistics struct {
		SubscriberCount       string `json:"subscriberCount"`
		VideoCount            string `json:"videoCount"`
		HiddenSubscriberCount bool   `json:"hiddenSubscriberCount"`
	} `json:"statistics"`
}

func transformVideo(name string, v videoItem) (platform.PostMetrics, *platform.Failure) {
	var (
		counts [3]int64
		err    error
	)
	for i, raw := range []string{v.Statistics.ViewCount, v.Statistics.LikeCount, v.Statistics.CommentCount} {
		if counts[i], err = parseCount(raw); err != nil {
			return platform.PostMetrics{}, platform.ParseFailure(name, err, []byte(raw))
		}
	}

	var published time.Time
	if v.Snippet.PublishedAt != "" {
		published, err = time.Parse(time.RFC3339, v.Snippet.PublishedAt)
		if err != nil {
			return platform.PostMetrics{}, platform.ParseFailure(name, err, []byte(v.Snippet.PublishedAt))
		}
	}

	// Shares are not exposed by the Data API.
	return platform.NewPostMetrics(v.ID, counts[0], counts[1], counts[2], 0, published), nil
}

func transformChannel(name string, c channelItem, now time.Time) (platform.UserActivity, *platform.Failure) {
	subscribers, err := parseCount(c.Statistics.SubscriberCount)
	if err != nil {
		return platform.UserActivity{}, platform.ParseFailure(name, err, []byte(c.Statistics.SubscriberCount))
	}
	videos, err := parseCount(c.Statistics.VideoCount)
	if err != nil {
		return platform.UserActivity{}, platform.ParseFailure(name, err, []byte(c.Statistics.VideoCount))
	}

	// Channels do not follow anyone.
	return platform.UserActivity{
		FollowerCount:  subscribers,
		FollowingCount: 0,
		PostCount:      videos,
		LastUpdated:    now,
	}, nil
}

func parseCount(s string) (int64, error) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid count %q: %w", s, err)
	}
	return n, nil
}
