package api

import (
	"github.com/shaiso/Stepwall/internal/domain"
	"github.com/shaiso/Stepwall/internal/engine"
	"github.com/shaiso/Stepwall/internal/steps"
)

// EngineResponse — состояние engine и последний показанный кадр.
type EngineResponse struct {
	Status engine.Status `json:"status"`
	Frame  *steps.Frame  `json:"frame,omitempty"`
}

// PostTweetRequest — сообщение, добавляемое на стену вручную.
type PostTweetRequest struct {
	ID        string      `json:"id,omitempty"`
	Text      string      `json:"text"`
	User      domain.User `json:"user"`
	MediaURLs []string    `json:"media_urls,omitempty"`
}

// FavoritesRequest — новое значение счётчика избранного.
type FavoritesRequest struct {
	Favorites int `json:"favorites"`
}
