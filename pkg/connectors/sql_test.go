// Copyright 2026 © The Tradewind Authors
// SPDX-License-Identifier: Apache-2.0

package connectors

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"
)

func newPortfolioDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "portfolio.db"))
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	schema := `
		CREATE TABLE positions (
			symbol TEXT PRIMARY KEY,
			quantity INTEGER NOT NULL,
			avg_price REAL NOT NULL
		);
		CREATE TABLE orders (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			symbol TEXT NOT NULL,
			side TEXT NOT NULL,
			quantity INTEGER NOT NULL,
			status TEXT NOT NULL DEFAULT 'open'
		);
		INSERT INTO positions (symbol, quantity, avg_price) VALUES
			('AAPL', 100, 171.50),
			('MSFT', 40, 398.25);
		INSERT INTO orders (symbol, side, quantity) VALUES ('AAPL', 'buy', 10);
	`
	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("create schema: %v", err)
	}
	return db
}

func TestSQLConnectorIntrospection(t *testing.T) {
	db := newPortfolioDB(t)
	connector, err := NewSQLConnector(context.Background(), db, "sqlite")
	if err != nil {
		t.Fatalf("NewSQLConnector failed: %v", err)
	}

	tables := connector.Tables()
	if len(tables) != 2 {
		t.Fatalf("table count = %d, want 2", len(tables))
	}
	positions, ok := tables["positions"]
	if !ok {
		t.Fatal("positions table not discovered")
	}
	if len(positions.PrimaryKey) != 1 || positions.PrimaryKey[0] != "symbol" {
		t.Errorf("positions primary key = %v", positions.PrimaryKey)
	}
	if len(positions.Columns) != 3 {
		t.Errorf("positions column count = %d", len(positions.Columns))
	}
}

func TestSQLToolGeneration(t *testing.T) {
	tables := map[string]*SQLTable{
		"orders": {
			Name:       "orders",
			PrimaryKey: []string{"id"},
			Columns: []SQLColumn{
				{Name: "id", Type: "INTEGER", IsPrimary: true, HasDefault: true},
				{Name: "symbol", Type: "TEXT"},
				{Name: "quantity", Type: "INTEGER"},
			},
		},
	}

	connector := NewSQLConnectorFromTables(nil, tables)
	names := make(map[string]bool)
	for _, tool := range connector.Tools() {
		names[tool.Name()] = true
	}
	for _, want := range []string{"list_orders", "get_orders", "create_orders", "update_orders", "delete_orders"} {
		if !names[want] {
			t.Errorf("tool %s not generated, have %v", want, names)
		}
	}

	readOnly := NewSQLConnectorFromTables(nil, tables, WithSQLReadOnly())
	if got := len(readOnly.Tools()); got != 2 {
		t.Errorf("read-only tool count = %d, want 2", got)
	}
}

func TestSQLToolPrefix(t *testing.T) {
	db := newPortfolioDB(t)
	connector, err := NewSQLConnector(context.Background(), db, "sqlite",
		WithSQLToolPrefix("portfolio"), WithSQLReadOnly())
	if err != nil {
		t.Fatalf("NewSQLConnector failed: %v", err)
	}

	found := false
	for _, tool := range connector.Tools() {
		if tool.Name() == "portfolio_list_positions" {
			found = true
		}
	}
	if !found {
		t.Fatal("prefixed tool portfolio_list_positions not generated")
	}

	result, err := connector.Execute(context.Background(), "portfolio_get_positions",
		map[string]any{"symbol": "AAPL"})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if result.(map[string]any)["quantity"] != int64(100) {
		t.Errorf("result = %v", result)
	}
}

func TestSQLExecuteList(t *testing.T) {
	db := newPortfolioDB(t)
	connector, err := NewSQLConnector(context.Background(), db, "sqlite")
	if err != nil {
		t.Fatalf("NewSQLConnector failed: %v", err)
	}

	result, err := connector.Execute(context.Background(), "list_positions", map[string]any{
		"order_by":   "symbol",
		"order_desc": true,
	})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	rows := result.([]map[string]any)
	if len(rows) != 2 {
		t.Fatalf("row count = %d", len(rows))
	}
	if rows[0]["symbol"] != "MSFT" {
		t.Errorf("first row = %v", rows[0])
	}

	result, err = connector.Execute(context.Background(), "list_positions", map[string]any{
		"filters": map[string]any{"symbol": "AAPL"},
	})
	if err != nil {
		t.Fatalf("Execute with filter failed: %v", err)
	}
	rows = result.([]map[string]any)
	if len(rows) != 1 || rows[0]["symbol"] != "AAPL" {
		t.Errorf("filtered rows = %v", rows)
	}

	if _, err := connector.Execute(context.Background(), "list_positions", map[string]any{
		"filters": map[string]any{"symbol); DROP TABLE positions; --": "x"},
	}); err == nil {
		t.Error("expected error for unknown filter column")
	}
}

func TestSQLExecuteWrites(t *testing.T) {
	db := newPortfolioDB(t)
	connector, err := NewSQLConnector(context.Background(), db, "sqlite")
	if err != nil {
		t.Fatalf("NewSQLConnector failed: %v", err)
	}
	ctx := context.Background()

	created, err := connector.Execute(ctx, "create_orders", map[string]any{
		"symbol": "MSFT", "side": "sell", "quantity": 5, "status": "open",
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	orderID := created.(map[string]any)["last_insert_id"].(int64)

	updated, err := connector.Execute(ctx, "update_orders", map[string]any{
		"id": orderID, "status": "filled",
	})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.(map[string]any)["rows_affected"] != int64(1) {
		t.Errorf("update result = %v", updated)
	}

	row, err := connector.Execute(ctx, "get_orders", map[string]any{"id": orderID})
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if row.(map[string]any)["status"] != "filled" {
		t.Errorf("row = %v", row)
	}

	if _, err := connector.Execute(ctx, "delete_orders", map[string]any{"id": orderID}); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := connector.Execute(ctx, "get_orders", map[string]any{"id": orderID}); err == nil {
		t.Error("expected not-found error after delete")
	}
}

func TestSQLReadOnlyRejectsWrites(t *testing.T) {
	db := newPortfolioDB(t)
	connector, err := NewSQLConnector(context.Background(), db, "sqlite", WithSQLReadOnly())
	if err != nil {
		t.Fatalf("NewSQLConnector failed: %v", err)
	}

	if _, err := connector.Execute(context.Background(), "create_orders", map[string]any{
		"symbol": "AAPL", "side": "buy", "quantity": 1,
	}); err == nil {
		t.Error("expected read-only rejection")
	}
}

func TestNormalizeToolArgs(t *testing.T) {
	cases := []struct {
		name  string
		input any
		want  string
	}{
		{"nil", nil, ""},
		{"map", map[string]any{"symbol": "AAPL"}, "AAPL"},
		{"json string", `{"symbol": "AAPL"}`, "AAPL"},
		{"raw bytes", []byte(`{"symbol": "AAPL"}`), "AAPL"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			args, err := normalizeToolArgs(tc.input)
			if err != nil {
				t.Fatalf("normalizeToolArgs failed: %v", err)
			}
			if tc.want == "" {
				if len(args) != 0 {
					t.Errorf("args = %v", args)
				}
				return
			}
			if args["symbol"] != tc.want {
				t.Errorf("symbol = %v, want %s", args["symbol"], tc.want)
			}
		})
	}

	args, err := normalizeToolArgs("plain instruction")
	if err != nil {
		t.Fatalf("normalizeToolArgs failed: %v", err)
	}
	if args["input"] != "plain instruction" {
		t.Errorf("args = %v", args)
	}
}
