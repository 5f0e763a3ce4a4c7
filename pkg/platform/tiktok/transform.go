package tiktok

import (
	"net/http"
	"time"

	"github.com/altmunch/SocialSchedule-sub011/pkg/platform"
)

// apiError is the error envelope present on every Display API response.
// Code is "ok" on success.
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	LogID   string `json:"log_id"`
}

// failure maps an API-level error inside a 2xx body to a 400 rejection.
func (e apiError) failure(name string) *platform.Failure {
	if e.Code == "" || e.Code == "ok" {
		return nil
	}
	message := e.Message
	if message == "" {
		message = e.Code
	}
	return platform.RejectionFailure(name, http.StatusBadRequest, message, e)
}

type videoQuery struct {
	Filters struct {
		VideoIDs []string `json:"video_ids"`
	} `json:"filters"`
}

type video struct {
	ID           string `json:"id"`
	CreateTime   int64  `json:"create_time"`
	ViewCount    int64  `json:"view_count"`
	LikeCount    int64  `json:"like_count"`
	CommentCount int64  `json:"comment_count"`
	ShareCount   int64  `json:"share_count"`
}

func (v video) metrics() platform.PostMetrics {
	var ts time.Time
	if v.CreateTime > 0 {
		ts = time.Unix(v.CreateTime, 0).UTC()
	}
	return platform.NewPostMetrics(v.ID, v.ViewCount, v.LikeCount, v.CommentCount, v.ShareCount, ts)
}

type videoQueryResponse struct {
	Data struct {
		Videos  []video `json:"videos"`
		Cursor  int64   `json:"cursor"`
		HasMore bool    `json:"has_more"`
	} `json:"data"`
	Error apiError `json:"error"`
}

type userInfoResponse struct {
	Data struct {
		User struct {
			FollowerCount  int64 `json:"follower_count"`
			FollowingCount int64 `json:"following_count"`
			VideoCount     int64 `json:"video_count"`
		} `json:"user"`
	} `json:"data"`
	Error apiError `json:"error"`
}
