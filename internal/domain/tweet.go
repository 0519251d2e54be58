package domain

import "time"

// Tweet — сообщение для показа на стене.
type Tweet struct {
	// ID — идентификатор сообщения в источнике.
	ID string `json:"id"`

	// Text — текст сообщения.
	Text string `json:"text"`

	// User — автор.
	User User `json:"user"`

	// CreatedAt — время публикации.
	CreatedAt time.Time `json:"created_at"`

	// MediaURLs — ссылки на прикреплённые изображения.
	MediaURLs []string `json:"media_urls,omitempty"`

	// Retweeted — исходное сообщение, если это ретвит.
	Retweeted *Tweet `json:"retweeted,omitempty"`
}

// User — автор сообщения.
type User struct {
	Name            string `json:"name"`
	ScreenName      string `json:"screen_name"`
	ProfileImageURL string `json:"profile_image_url,omitempty"`
}

// Origin возвращает исходное сообщение (для ретвитов) или само сообщение.
func (t *Tweet) Origin() *Tweet {
	if t.Retweeted != nil {
		return t.Retweeted
	}
	return t
}
