// Package postgres persists shops, ingredients, menu items, and orders in
// PostgreSQL. The menu_item_ingredients junction table doubles as the
// persisted reverse index, so dependent-lookup and the ingredient delete
// guard are single queries.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

// Open connects and verifies the connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	return db, nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS shops (
		id         TEXT PRIMARY KEY,
		name       TEXT NOT NULL,
		email      TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS ingredients (
		id                  TEXT NOT NULL,
		shop_id             TEXT NOT NULL,
		name                TEXT NOT NULL,
		stock               DOUBLE PRECISION NOT NULL CHECK (stock >= 0),
		unit                TEXT NOT NULL,
		low_stock_threshold DOUBLE PRECISION NOT NULL CHECK (low_stock_threshold >= 0),
		available           BOOLEAN NOT NULL,
		created_at          TIMESTAMPTZ NOT NULL,
		updated_at          TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (shop_id, id)
	)`,
	`CREATE TABLE IF NOT EXISTS menu_items (
		id                 TEXT NOT NULL,
		shop_id            TEXT NOT NULL,
		name               TEXT NOT NULL,
		price              DOUBLE PRECISION NOT NULL CHECK (price > 0),
		category           TEXT NOT NULL,
		description        TEXT NOT NULL DEFAULT '',
		available          BOOLEAN NOT NULL,
		unavailable_reason TEXT NOT NULL DEFAULT '',
		created_at         TIMESTAMPTZ NOT NULL,
		updated_at         TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (shop_id, id)
	)`,
	`CREATE TABLE IF NOT EXISTS menu_item_ingredients (
		shop_id       TEXT NOT NULL,
		menu_item_id  TEXT NOT NULL,
		ingredient_id TEXT NOT NULL,
		position      INT  NOT NULL,
		PRIMARY KEY (shop_id, menu_item_id, ingredient_id),
		FOREIGN KEY (shop_id, menu_item_id) REFERENCES menu_items (shop_id, id) ON DELETE CASCADE,
		FOREIGN KEY (shop_id, ingredient_id) REFERENCES ingredients (shop_id, id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_menu_item_ingredients_ingredient
		ON menu_item_ingredients (shop_id, ingredient_id)`,
	`CREATE TABLE IF NOT EXISTS orders (
		id               TEXT PRIMARY KEY,
		shop_id          TEXT NOT NULL,
		subtotal         DOUBLE PRECISION NOT NULL,
		delivery_fee     DOUBLE PRECISION NOT NULL,
		total            DOUBLE PRECISION NOT NULL,
		status           TEXT NOT NULL,
		payment_status   TEXT NOT NULL,
		delivery_address TEXT NOT NULL DEFAULT '',
		payment_method   TEXT NOT NULL DEFAULT '',
		notes            TEXT NOT NULL DEFAULT '',
		created_at       TIMESTAMPTZ NOT NULL,
		updated_at       TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_shop ON orders (shop_id, created_at)`,
	`CREATE TABLE IF NOT EXISTS order_lines (
		order_id     TEXT NOT NULL REFERENCES orders (id) ON DELETE CASCADE,
		position     INT  NOT NULL,
		menu_item_id TEXT NOT NULL,
		name         TEXT NOT NULL,
		price        DOUBLE PRECISION NOT NULL,
		quantity     INT  NOT NULL CHECK (quantity > 0),
		line_total   DOUBLE PRECISION NOT NULL,
		PRIMARY KEY (order_id, position)
	)`,
}

// EnsureSchema creates the tables if they do not exist yet.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("postgres: ensure schema: %w", err)
		}
	}
	return nil
}
