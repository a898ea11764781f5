package profiles

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"crypto-monitor/internal/types"
)

type Service struct {
	pool *pgxpool.Pool
}

func NewService(pool *pgxpool.Pool) *Service {
	return &Service{pool: pool}
}

type Profile struct {
	ID               string                 `json:"id"`
	UserID           string                 `json:"user_id"`
	ProfileType      types.ProfileType      `json:"profile_type"`
	MarketPreference types.MarketPreference `json:"market_preference"`
	CreatedAt        time.Time              `json:"created_at"`
	UpdatedAt        time.Time              `json:"updated_at"`
}

// Ensure returns the user's profile, creating the default one on first
// access. The unique constraint on user_id makes concurrent first
// accesses converge on a single row.
func (s *Service) Ensure(ctx context.Context, userID string) (Profile, error) {
	if userID == "" {
		return Profile{}, errors.New("user_id is required")
	}
	_, err := s.pool.Exec(ctx, `
		insert into user_profiles (user_id) values ($1)
		on conflict (user_id) do nothing
	`, userID)
	if err != nil {
		return Profile{}, err
	}
	return s.getByUserID(ctx, userID)
}

func (s *Service) getByUserID(ctx context.Context, userID string) (Profile, error) {
	var p Profile
	var pt, mp string
	err := s.pool.QueryRow(ctx, `
		select id, user_id, profile_type, market_preference, created_at, updated_at
		from user_profiles where user_id = $1
	`, userID).Scan(&p.ID, &p.UserID, &pt, &mp, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return p, errors.New("profile not found")
	}
	if err != nil {
		return p, err
	}
	p.ProfileType = types.ProfileType(pt)
	p.MarketPreference = types.MarketPreference(mp)
	return p, nil
}

func (s *Service) Update(ctx context.Context, userID string, profileType types.ProfileType, marketPreference types.MarketPreference) (Profile, error) {
	if !types.ValidProfileType(profileType) {
		return Profile{}, fmt.Errorf("invalid profile_type %q", profileType)
	}
	if !types.ValidMarketPreference(marketPreference) {
		return Profile{}, fmt.Errorf("invalid market_preference %q", marketPreference)
	}
	if _, err := s.Ensure(ctx, userID); err != nil {
		return Profile{}, err
	}
	_, err := s.pool.Exec(ctx, `
		update user_profiles
		set profile_type = $2, market_preference = $3, updated_at = now()
		where user_id = $1
	`, userID, string(profileType), string(marketPreference))
	if err != nil {
		return Profile{}, err
	}
	return s.getByUserID(ctx, userID)
}
