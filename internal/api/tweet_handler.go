package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/shaiso/Stepwall/internal/domain"
)

// PostTweet добавляет сообщение на стену.
// POST /api/v1/tweets
func (h *Handler) PostTweet(w http.ResponseWriter, r *http.Request) {
	if h.tweets == nil {
		Unavailable(w, "tweet ingestion is not configured")
		return
	}

	var req PostTweetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	text := strings.TrimSpace(req.Text)
	if text == "" {
		BadRequest(w, "text is required")
		return
	}

	tweet := domain.Tweet{
		ID:        req.ID,
		Text:      text,
		User:      req.User,
		CreatedAt: h.clock(),
		MediaURLs: req.MediaURLs,
	}
	if tweet.ID == "" {
		tweet.ID = uuid.NewString()
	}

	if err := h.tweets.PublishTweet(r.Context(), tweet); err != nil {
		InternalError(w, h.logger, err)
		return
	}

	Accepted(w, tweet)
}
