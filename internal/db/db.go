package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

func NewPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

// Migrate applies the schema. Statements are idempotent so a restart
// against an already-initialized database is a no-op.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

var schema = []string{
	`create extension if not exists pgcrypto`,
	`create table if not exists users (
		id uuid primary key default gen_random_uuid(),
		email text not null unique,
		created_at timestamptz not null default now()
	)`,
	`create table if not exists user_credentials (
		user_id uuid primary key references users(id) on delete cascade,
		password_hash text not null
	)`,
	`create table if not exists user_profiles (
		id uuid primary key default gen_random_uuid(),
		user_id uuid not null unique references users(id) on delete cascade,
		profile_type text not null default 'beginner',
		market_preference text not null default 'crypto',
		created_at timestamptz not null default now(),
		updated_at timestamptz not null default now()
	)`,
	`create table if not exists trading_accounts (
		id uuid primary key default gen_random_uuid(),
		profile_id uuid not null references user_profiles(id) on delete cascade,
		account_type text not null,
		balance numeric(20,8) not null,
		initial_balance numeric(20,8) not null,
		borrowed_amount numeric(20,8) not null default 0,
		max_leverage integer not null default 5,
		created_at timestamptz not null default now(),
		updated_at timestamptz not null default now(),
		unique (profile_id, account_type),
		check (balance >= 0),
		check (borrowed_amount >= 0)
	)`,
	`create table if not exists positions (
		id uuid primary key default gen_random_uuid(),
		account_id uuid not null references trading_accounts(id) on delete cascade,
		symbol text not null,
		quantity numeric(20,8) not null,
		avg_entry_price numeric(20,8) not null,
		opened_at timestamptz not null default now(),
		updated_at timestamptz not null default now(),
		unique (account_id, symbol),
		check (quantity > 0)
	)`,
	`create table if not exists trades (
		id uuid primary key default gen_random_uuid(),
		sequence bigint generated always as identity,
		account_id uuid not null references trading_accounts(id) on delete cascade,
		symbol text not null,
		side text not null,
		order_type text not null default 'market',
		quantity numeric(20,8) not null,
		price numeric(20,8) not null,
		total numeric(20,8) not null,
		fee_rate numeric(10,6) not null,
		related_trade_id uuid references trades(id),
		profit_loss numeric(20,8),
		profit_loss_percent numeric(20,8),
		notes text not null default '',
		executed_at timestamptz not null default now(),
		check (quantity > 0),
		check (price > 0)
	)`,
	`create index if not exists idx_trades_account_executed on trades (account_id, executed_at)`,
	`create index if not exists idx_trades_symbol_executed on trades (symbol, executed_at)`,
	`create index if not exists idx_trades_related on trades (related_trade_id) where related_trade_id is not null`,
	`create table if not exists wallet_history (
		id uuid primary key default gen_random_uuid(),
		account_id uuid not null references trading_accounts(id) on delete cascade,
		balance numeric(20,8) not null,
		recorded_at timestamptz not null default now()
	)`,
	`create index if not exists idx_wallet_history_account_time on wallet_history (account_id, recorded_at)`,
	`create table if not exists watchlist_items (
		id uuid primary key default gen_random_uuid(),
		profile_id uuid not null references user_profiles(id) on delete cascade,
		symbol text not null,
		sort_order integer not null default 0,
		added_at timestamptz not null default now(),
		unique (profile_id, symbol)
	)`,
}
