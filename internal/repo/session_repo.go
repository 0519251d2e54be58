package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shaiso/Stepwall/internal/domain"
)

// SessionRepo — репозиторий расписания конференции.
//
// Схема:
//
//	schedule_slots(id, room, begins_at, ends_at, favorites, talk_id)
//	talks(id, title, speakers text[], favorites, track_image_url, tags text[])
//
// Слот без talk_id — перерыв.
type SessionRepo struct {
	pool *pgxpool.Pool
}

// NewSessionRepo создаёт новый SessionRepo.
func NewSessionRepo(pool *pgxpool.Pool) *SessionRepo {
	return &SessionRepo{pool: pool}
}

// SlotsEndingAfter возвращает слоты, которые заканчиваются позже t,
// в порядке начала.
func (r *SessionRepo) SlotsEndingAfter(ctx context.Context, t time.Time) ([]domain.ScheduleSlot, error) {
	query := `
		SELECT s.id, s.room, s.begins_at, s.ends_at, s.favorites,
		       t.title, t.speakers, t.favorites, t.track_image_url, t.tags
		FROM schedule_slots s
		LEFT JOIN talks t ON t.id = s.talk_id
		WHERE s.ends_at > $1
		ORDER BY s.begins_at ASC, s.room ASC
	`
	rows, err := r.pool.Query(ctx, query, t)
	if err != nil {
		return nil, fmt.Errorf("list schedule slots: %w", err)
	}
	defer rows.Close()

	var slots []domain.ScheduleSlot
	for rows.Next() {
		slot, err := scanSlot(rows)
		if err != nil {
			return nil, err
		}
		slots = append(slots, *slot)
	}
	return slots, rows.Err()
}

// GetSlot возвращает слот по ID.
func (r *SessionRepo) GetSlot(ctx context.Context, id string) (*domain.ScheduleSlot, error) {
	query := `
		SELECT s.id, s.room, s.begins_at, s.ends_at, s.favorites,
		       t.title, t.speakers, t.favorites, t.track_image_url, t.tags
		FROM schedule_slots s
		LEFT JOIN talks t ON t.id = s.talk_id
		WHERE s.id = $1
	`
	slot, err := scanSlot(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return slot, err
}

// UpdateFavorites обновляет счётчик избранного слота.
func (r *SessionRepo) UpdateFavorites(ctx context.Context, id string, favorites int) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE schedule_slots SET favorites = $2 WHERE id = $1`,
		id, favorites,
	)
	if err != nil {
		return fmt.Errorf("update favorites: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SaveSlot вставляет или обновляет слот вместе с докладом.
func (r *SessionRepo) SaveSlot(ctx context.Context, slot domain.ScheduleSlot) error {
	if slot.ID == "" || slot.Room == "" || !slot.EndsAt.After(slot.BeginsAt) {
		return fmt.Errorf("%w: %q", ErrInvalidSlot, slot.ID)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var talkID *string
	if slot.Talk != nil {
		id := slot.ID
		talkID = &id

		_, err = tx.Exec(ctx, `
			INSERT INTO talks (id, title, speakers, favorites, track_image_url, tags)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (id) DO UPDATE
			SET title = EXCLUDED.title, speakers = EXCLUDED.speakers,
			    favorites = EXCLUDED.favorites, track_image_url = EXCLUDED.track_image_url,
			    tags = EXCLUDED.tags
		`,
			id,
			slot.Talk.Title,
			slot.Talk.Speakers,
			slot.Talk.Favorites,
			nullString(slot.Talk.TrackImageURL),
			slot.Talk.Tags,
		)
		if err != nil {
			return fmt.Errorf("upsert talk: %w", err)
		}
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO schedule_slots (id, room, begins_at, ends_at, favorites, talk_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE
		SET room = EXCLUDED.room, begins_at = EXCLUDED.begins_at, ends_at = EXCLUDED.ends_at,
		    favorites = EXCLUDED.favorites, talk_id = EXCLUDED.talk_id
	`,
		slot.ID,
		slot.Room,
		slot.BeginsAt,
		slot.EndsAt,
		slot.Favorites,
		talkID,
	)
	if err != nil {
		return fmt.Errorf("upsert slot: %w", err)
	}

	return tx.Commit(ctx)
}

// scanSlot сканирует слот из pgx.Row.
func scanSlot(row pgx.Row) (*domain.ScheduleSlot, error) {
	var (
		slot          domain.ScheduleSlot
		title         *string
		speakers      []string
		talkFavorites *int
		trackImage    *string
		tags          []string
	)

	err := row.Scan(
		&slot.ID,
		&slot.Room,
		&slot.BeginsAt,
		&slot.EndsAt,
		&slot.Favorites,
		&title,
		&speakers,
		&talkFavorites,
		&trackImage,
		&tags,
	)
	if err != nil {
		return nil, fmt.Errorf("scan schedule slot: %w", err)
	}

	if title != nil {
		slot.Talk = &domain.Talk{
			Title:         *title,
			Speakers:      speakers,
			Favorites:     derefInt(talkFavorites),
			TrackImageURL: derefString(trackImage),
			Tags:          tags,
		}
	}

	return &slot, nil
}

// nullString возвращает nil для пустой строки (для NULL в БД).
func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefInt(n *int) int {
	if n == nil {
		return 0
	}
	return *n
}
