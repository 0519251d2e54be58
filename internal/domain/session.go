package domain

import (
	"sort"
	"time"
)

// endingSoonMargin — слот, заканчивающийся раньше now+margin, уже не показываем.
const endingSoonMargin = 10 * time.Minute

// ScheduleSlot — слот расписания конференции.
//
// Слот может не содержать доклада (перерыв, обед) — тогда Talk == nil.
type ScheduleSlot struct {
	ID        string    `json:"id"`
	Room      string    `json:"room"`
	BeginsAt  time.Time `json:"begins_at"`
	EndsAt    time.Time `json:"ends_at"`
	Favorites int       `json:"favorites"`
	Talk      *Talk     `json:"talk,omitempty"`
}

// Talk — доклад в слоте расписания.
type Talk struct {
	Title         string   `json:"title"`
	Speakers      []string `json:"speakers"`
	Favorites     int      `json:"favorites"`
	TrackImageURL string   `json:"track_image_url,omitempty"`
	Tags          []string `json:"tags,omitempty"`
}

// Session — доклад, подготовленный для показа.
type Session struct {
	Room          string    `json:"room"`
	Title         string    `json:"title"`
	Speakers      []string  `json:"speakers"`
	BeginsAt      time.Time `json:"begins_at"`
	EndsAt        time.Time `json:"ends_at"`
	Favorites     int       `json:"favorites"`
	TrackImageURL string    `json:"track_image_url,omitempty"`
	Tags          []string  `json:"tags,omitempty"`
}

// NewSession создаёт Session из слота с докладом.
func NewSession(slot ScheduleSlot) Session {
	talk := slot.Talk

	// Счётчик избранного может быть и у слота, и у доклада — берём первый положительный
	favorites := 0
	for _, n := range []int{slot.Favorites, talk.Favorites} {
		if n > 0 {
			favorites = n
			break
		}
	}

	return Session{
		Room:          slot.Room,
		Title:         talk.Title,
		Speakers:      append([]string(nil), talk.Speakers...),
		BeginsAt:      slot.BeginsAt,
		EndsAt:        slot.EndsAt,
		Favorites:     favorites,
		TrackImageURL: talk.TrackImageURL,
		Tags:          append([]string(nil), talk.Tags...),
	}
}

// UpcomingSessions выбирает ближайшие доклады для показа.
//
// Правила:
//   - только слоты с докладом
//   - доклад заканчивается позже now+10m
//   - доклад начинается раньше now+startsWithin
//   - по одному (первому в исходном порядке) докладу на зал
//   - сортировка по времени начала, затем по залу
func UpcomingSessions(slots []ScheduleSlot, now time.Time, startsWithin time.Duration) []Session {
	endAfter := now.Add(endingSoonMargin)
	startBefore := now.Add(startsWithin)

	seen := make(map[string]bool)
	sessions := make([]Session, 0)

	for i := range slots {
		slot := &slots[i]

		if slot.Talk == nil {
			continue
		}
		if !slot.EndsAt.After(endAfter) || !slot.BeginsAt.Before(startBefore) {
			continue
		}
		if seen[slot.Room] {
			continue
		}
		seen[slot.Room] = true

		sessions = append(sessions, NewSession(*slot))
	}

	sort.SliceStable(sessions, func(i, j int) bool {
		if !sessions[i].BeginsAt.Equal(sessions[j].BeginsAt) {
			return sessions[i].BeginsAt.Before(sessions[j].BeginsAt)
		}
		return sessions[i].Room < sessions[j].Room
	})

	return sessions
}
