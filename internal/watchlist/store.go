package watchlist

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

type Item struct {
	ID        string    `json:"id"`
	ProfileID string    `json:"profile_id"`
	Symbol    string    `json:"symbol"`
	SortOrder int       `json:"sort_order"`
	AddedAt   time.Time `json:"added_at"`
}

var ErrAlreadyWatched = errors.New("symbol already in watchlist")

func (s *Store) List(ctx context.Context, profileID string) ([]Item, error) {
	rows, err := s.pool.Query(ctx, `
		select id, profile_id, symbol, sort_order, added_at
		from watchlist_items
		where profile_id = $1
		order by sort_order, added_at desc
	`, profileID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.ProfileID, &it.Symbol, &it.SortOrder, &it.AddedAt); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (s *Store) Add(ctx context.Context, profileID, symbol string) (Item, error) {
	var it Item
	err := s.pool.QueryRow(ctx, `
		insert into watchlist_items (profile_id, symbol, sort_order)
		values ($1, $2, coalesce((select max(sort_order) + 1 from watchlist_items where profile_id = $1), 0))
		on conflict (profile_id, symbol) do nothing
		returning id, profile_id, symbol, sort_order, added_at
	`, profileID, symbol).Scan(&it.ID, &it.ProfileID, &it.Symbol, &it.SortOrder, &it.AddedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return it, ErrAlreadyWatched
	}
	return it, err
}

func (s *Store) Remove(ctx context.Context, profileID, symbol string) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		delete from watchlist_items where profile_id = $1 and symbol = $2
	`, profileID, symbol)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// Reorder rewrites sort_order to match the given symbol sequence.
// Symbols not in the list are ignored; unlisted items keep their
// relative order after the reordered ones.
func (s *Store) Reorder(ctx context.Context, profileID string, symbols []string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)
	for i, symbol := range symbols {
		if _, err := tx.Exec(ctx, `
			update watchlist_items set sort_order = $3
			where profile_id = $1 and symbol = $2
		`, profileID, symbol, i); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}
