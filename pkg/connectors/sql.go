// Copyright 2026 © The Tradewind Authors
// SPDX-License-Identifier: Apache-2.0

package connectors

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"unicode"

	"github.com/tradewind-ai/tradewind/pkg/core"
	"github.com/tradewind-ai/tradewind/pkg/llm"
)

// maxSQLRows caps list results regardless of the requested limit. Tool
// output feeds straight into model context.
const maxSQLRows = 500

// SQLTable describes one discovered table.
type SQLTable struct {
	Name       string
	Columns    []SQLColumn
	PrimaryKey []string
}

type SQLColumn struct {
	Name       string
	Type       string
	Nullable   bool
	IsPrimary  bool
	HasDefault bool
}

// SQLConnector exposes database tables as agent tools. Pointed at a
// portfolio database it gives the executor and knowledge agents
// list/get tools per table, plus write tools unless read-only.
type SQLConnector struct {
	db         *sql.DB
	driver     string
	tables     map[string]*SQLTable
	toolPrefix string
	readOnly   bool
}

type SQLOption func(*SQLConnector)

// WithSQLToolPrefix prepends a prefix to every generated tool name.
func WithSQLToolPrefix(prefix string) SQLOption {
	return func(c *SQLConnector) { c.toolPrefix = prefix }
}

// WithSQLReadOnly generates only list and get tools.
func WithSQLReadOnly() SQLOption {
	return func(c *SQLConnector) { c.readOnly = true }
}

// NewSQLConnector introspects the database schema and builds tools for
// every discovered table. Supported drivers: sqlite, postgres, mysql.
func NewSQLConnector(ctx context.Context, db *sql.DB, driver string, opts ...SQLOption) (*SQLConnector, error) {
	c := &SQLConnector{db: db, driver: driver, tables: make(map[string]*SQLTable)}
	for _, opt := range opts {
		opt(c)
	}
	if err := c.introspect(ctx); err != nil {
		return nil, fmt.Errorf("sql connector: introspect: %w", err)
	}
	if len(c.tables) == 0 {
		return nil, fmt.Errorf("sql connector: no tables found")
	}
	return c, nil
}

// NewSQLConnectorFromTables builds a connector from a known schema,
// skipping introspection.
func NewSQLConnectorFromTables(db *sql.DB, tables map[string]*SQLTable, opts ...SQLOption) *SQLConnector {
	c := &SQLConnector{db: db, driver: "sqlite", tables: tables}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Tables returns the discovered schema.
func (c *SQLConnector) Tables() map[string]*SQLTable { return c.tables }

// Close closes the underlying database handle.
func (c *SQLConnector) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

func (c *SQLConnector) introspect(ctx context.Context) error {
	if c.driver == "sqlite" || c.driver == "sqlite3" {
		return c.introspectSQLite(ctx)
	}
	return c.introspectInformationSchema(ctx)
}

func (c *SQLConnector) introspectSQLite(ctx context.Context) error {
	rows, err := c.db.QueryContext(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`)
	if err != nil {
		return err
	}
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			rows.Close()
			return err
		}
		names = append(names, name)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for _, name := range names {
		table := &SQLTable{Name: name}
		cols, err := c.db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", c.quote(name)))
		if err != nil {
			return err
		}
		for cols.Next() {
			var cid, notNull, pk int
			var colName, colType string
			var dflt sql.NullString
			if err := cols.Scan(&cid, &colName, &colType, &notNull, &dflt, &pk); err != nil {
				cols.Close()
				return err
			}
			table.Columns = append(table.Columns, SQLColumn{
				Name:       colName,
				Type:       colType,
				Nullable:   notNull == 0,
				IsPrimary:  pk > 0,
				HasDefault: dflt.Valid,
			})
			if pk > 0 {
				table.PrimaryKey = append(table.PrimaryKey, colName)
			}
		}
		cols.Close()
		if err := cols.Err(); err != nil {
			return err
		}
		c.tables[name] = table
	}
	return nil
}

func (c *SQLConnector) introspectInformationSchema(ctx context.Context) error {
	var colQuery, pkQuery string
	switch c.driver {
	case "postgres", "postgresql", "pgx":
		colQuery = `SELECT table_name, column_name, data_type, is_nullable, column_default IS NOT NULL
			FROM information_schema.columns WHERE table_schema = 'public'
			ORDER BY table_name, ordinal_position`
		pkQuery = `SELECT kcu.table_name, kcu.column_name
			FROM information_schema.table_constraints tc
			JOIN information_schema.key_column_usage kcu ON tc.constraint_name = kcu.constraint_name
			WHERE tc.constraint_type = 'PRIMARY KEY' AND tc.table_schema = 'public'`
	case "mysql":
		colQuery = `SELECT table_name, column_name, data_type, is_nullable, column_default IS NOT NULL
			FROM information_schema.columns WHERE table_schema = DATABASE()
			ORDER BY table_name, ordinal_position`
		pkQuery = `SELECT table_name, column_name FROM information_schema.key_column_usage
			WHERE constraint_name = 'PRIMARY' AND table_schema = DATABASE()`
	default:
		return fmt.Errorf("unsupported driver %q", c.driver)
	}

	rows, err := c.db.QueryContext(ctx, colQuery)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var tableName, colName, colType, nullable string
		var hasDefault bool
		if err := rows.Scan(&tableName, &colName, &colType, &nullable, &hasDefault); err != nil {
			return err
		}
		table, ok := c.tables[tableName]
		if !ok {
			table = &SQLTable{Name: tableName}
			c.tables[tableName] = table
		}
		table.Columns = append(table.Columns, SQLColumn{
			Name:       colName,
			Type:       colType,
			Nullable:   strings.EqualFold(nullable, "YES"),
			HasDefault: hasDefault,
		})
	}
	if err := rows.Err(); err != nil {
		return err
	}

	pks, err := c.db.QueryContext(ctx, pkQuery)
	if err != nil {
		return err
	}
	defer pks.Close()
	for pks.Next() {
		var tableName, colName string
		if err := pks.Scan(&tableName, &colName); err != nil {
			return err
		}
		table, ok := c.tables[tableName]
		if !ok {
			continue
		}
		table.PrimaryKey = append(table.PrimaryKey, colName)
		for i := range table.Columns {
			if table.Columns[i].Name == colName {
				table.Columns[i].IsPrimary = true
			}
		}
	}
	return pks.Err()
}

// Tools generates tools from the discovered tables.
func (c *SQLConnector) Tools() []core.Tool {
	var defs []llm.Tool
	for _, table := range c.tables {
		defs = append(defs, c.listTool(table), c.getTool(table))
		if !c.readOnly {
			defs = append(defs, c.createTool(table), c.updateTool(table), c.deleteTool(table))
		}
	}
	return coreToolsFromDefinitions(defs, c)
}

func (c *SQLConnector) toolName(op string, table *SQLTable) string {
	name := op + "_" + toSnakeCase(table.Name)
	if c.toolPrefix != "" {
		name = c.toolPrefix + "_" + name
	}
	return name
}

func (c *SQLConnector) listTool(table *SQLTable) llm.Tool {
	filterProps := make(map[string]any, len(table.Columns))
	for _, col := range table.Columns {
		filterProps[col.Name] = columnSchema(col)
	}
	return functionTool(c.toolName("list", table),
		fmt.Sprintf("List rows from %s with optional equality filters", table.Name),
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"filters": map[string]any{
					"type":        "object",
					"description": "Filter conditions (column: value)",
					"properties":  filterProps,
				},
				"limit":      map[string]any{"type": "integer", "default": 100},
				"offset":     map[string]any{"type": "integer", "default": 0},
				"order_by":   map[string]any{"type": "string", "description": "Column to order by"},
				"order_desc": map[string]any{"type": "boolean", "default": false},
			},
		})
}

func (c *SQLConnector) getTool(table *SQLTable) llm.Tool {
	props, required := primaryKeyParams(table)
	return functionTool(c.toolName("get", table),
		fmt.Sprintf("Get one row from %s by primary key", table.Name),
		map[string]any{"type": "object", "properties": props, "required": required})
}

func (c *SQLConnector) createTool(table *SQLTable) llm.Tool {
	props := make(map[string]any)
	var required []string
	for _, col := range table.Columns {
		if col.IsPrimary && col.HasDefault {
			continue
		}
		props[col.Name] = columnSchema(col)
		if !col.Nullable && !col.HasDefault && !col.IsPrimary {
			required = append(required, col.Name)
		}
	}
	params := map[string]any{"type": "object", "properties": props}
	if len(required) > 0 {
		params["required"] = required
	}
	return functionTool(c.toolName("create", table),
		fmt.Sprintf("Insert a row into %s", table.Name), params)
}

func (c *SQLConnector) updateTool(table *SQLTable) llm.Tool {
	props, required := primaryKeyParams(table)
	for _, col := range table.Columns {
		if !col.IsPrimary {
			props[col.Name] = columnSchema(col)
		}
	}
	return functionTool(c.toolName("update", table),
		fmt.Sprintf("Update a row in %s by primary key", table.Name),
		map[string]any{"type": "object", "properties": props, "required": required})
}

func (c *SQLConnector) deleteTool(table *SQLTable) llm.Tool {
	props, required := primaryKeyParams(table)
	return functionTool(c.toolName("delete", table),
		fmt.Sprintf("Delete a row from %s by primary key", table.Name),
		map[string]any{"type": "object", "properties": props, "required": required})
}

func functionTool(name, description string, params map[string]any) llm.Tool {
	return llm.Tool{
		Type: llm.ToolTypeFunction,
		Function: llm.FunctionDef{
			Name:        name,
			Description: description,
			Parameters:  params,
		},
	}
}

func primaryKeyParams(table *SQLTable) (map[string]any, []string) {
	props := make(map[string]any)
	var required []string
	for _, pk := range table.PrimaryKey {
		for _, col := range table.Columns {
			if col.Name == pk {
				props[pk] = columnSchema(col)
				required = append(required, pk)
				break
			}
		}
	}
	if len(required) == 0 {
		props["id"] = map[string]any{"type": "string", "description": "Row ID"}
		required = append(required, "id")
	}
	return props, required
}

func columnSchema(col SQLColumn) map[string]any {
	sqlType := strings.ToUpper(col.Type)
	schema := map[string]any{"type": "string"}
	switch {
	case strings.Contains(sqlType, "INT"):
		schema["type"] = "integer"
	case strings.Contains(sqlType, "REAL"), strings.Contains(sqlType, "FLOAT"),
		strings.Contains(sqlType, "DOUBLE"), strings.Contains(sqlType, "DECIMAL"),
		strings.Contains(sqlType, "NUMERIC"):
		schema["type"] = "number"
	case strings.Contains(sqlType, "BOOL"):
		schema["type"] = "boolean"
	case strings.Contains(sqlType, "DATE"), strings.Contains(sqlType, "TIME"):
		schema["format"] = "date-time"
	case strings.Contains(sqlType, "JSON"):
		schema["type"] = "object"
	}
	return schema
}

// Execute dispatches a generated tool call to the database.
func (c *SQLConnector) Execute(ctx context.Context, toolName string, args map[string]any) (any, error) {
	if c.db == nil {
		return nil, fmt.Errorf("sql connector: no database handle")
	}
	name := toolName
	if c.toolPrefix != "" {
		name = strings.TrimPrefix(name, c.toolPrefix+"_")
	}
	op, rest, ok := strings.Cut(name, "_")
	if !ok {
		return nil, fmt.Errorf("sql connector: malformed tool name %q", toolName)
	}
	var table *SQLTable
	for _, t := range c.tables {
		if toSnakeCase(t.Name) == rest {
			table = t
			break
		}
	}
	if table == nil {
		return nil, fmt.Errorf("sql connector: unknown table in tool %q", toolName)
	}
	if c.readOnly && op != "list" && op != "get" {
		return nil, fmt.Errorf("sql connector: connector is read-only")
	}

	switch op {
	case "list":
		return c.execList(ctx, table, args)
	case "get":
		return c.execGet(ctx, table, args)
	case "create":
		return c.execCreate(ctx, table, args)
	case "update":
		return c.execUpdate(ctx, table, args)
	case "delete":
		return c.execDelete(ctx, table, args)
	default:
		return nil, fmt.Errorf("sql connector: unknown operation %q", op)
	}
}

func (c *SQLConnector) execList(ctx context.Context, table *SQLTable, args map[string]any) (any, error) {
	query := "SELECT * FROM " + c.quote(table.Name)
	var queryArgs []any

	if filters, ok := args["filters"].(map[string]any); ok && len(filters) > 0 {
		var conditions []string
		for col, val := range filters {
			if !c.hasColumn(table, col) {
				return nil, fmt.Errorf("sql connector: unknown filter column %q", col)
			}
			conditions = append(conditions, c.quote(col)+" = ?")
			queryArgs = append(queryArgs, val)
		}
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	if orderBy, ok := args["order_by"].(string); ok && orderBy != "" {
		if !c.hasColumn(table, orderBy) {
			return nil, fmt.Errorf("sql connector: unknown order column %q", orderBy)
		}
		query += " ORDER BY " + c.quote(orderBy)
		if desc, ok := args["order_desc"].(bool); ok && desc {
			query += " DESC"
		}
	}

	limit := 100
	if l, ok := args["limit"].(float64); ok && l > 0 {
		limit = int(l)
	}
	if limit > maxSQLRows {
		limit = maxSQLRows
	}
	query += fmt.Sprintf(" LIMIT %d", limit)
	if offset, ok := args["offset"].(float64); ok && offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", int(offset))
	}

	rows, err := c.db.QueryContext(ctx, query, queryArgs...)
	if err != nil {
		return nil, fmt.Errorf("sql connector: query %s: %w", table.Name, err)
	}
	defer rows.Close()
	return rowsToMaps(rows)
}

func (c *SQLConnector) execGet(ctx context.Context, table *SQLTable, args map[string]any) (any, error) {
	conditions, values, err := c.primaryKeyWhere(table, args)
	if err != nil {
		return nil, err
	}
	query := "SELECT * FROM " + c.quote(table.Name) + " WHERE " + conditions + " LIMIT 1"
	rows, err := c.db.QueryContext(ctx, query, values...)
	if err != nil {
		return nil, fmt.Errorf("sql connector: query %s: %w", table.Name, err)
	}
	defer rows.Close()
	results, err := rowsToMaps(rows)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("sql connector: %s: row not found", table.Name)
	}
	return results[0], nil
}

func (c *SQLConnector) execCreate(ctx context.Context, table *SQLTable, args map[string]any) (any, error) {
	var columns, placeholders []string
	var values []any
	for col, val := range args {
		if !c.hasColumn(table, col) {
			return nil, fmt.Errorf("sql connector: unknown column %q", col)
		}
		columns = append(columns, c.quote(col))
		placeholders = append(placeholders, "?")
		values = append(values, val)
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("sql connector: no columns to insert")
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		c.quote(table.Name), strings.Join(columns, ", "), strings.Join(placeholders, ", "))
	result, err := c.db.ExecContext(ctx, query, values...)
	if err != nil {
		return nil, fmt.Errorf("sql connector: insert %s: %w", table.Name, err)
	}
	lastID, _ := result.LastInsertId()
	affected, _ := result.RowsAffected()
	return map[string]any{"last_insert_id": lastID, "rows_affected": affected}, nil
}

func (c *SQLConnector) execUpdate(ctx context.Context, table *SQLTable, args map[string]any) (any, error) {
	pkSet := make(map[string]bool, len(table.PrimaryKey))
	for _, pk := range table.PrimaryKey {
		pkSet[pk] = true
	}
	var setClauses, whereClauses []string
	var setValues, whereValues []any
	for col, val := range args {
		if !c.hasColumn(table, col) {
			return nil, fmt.Errorf("sql connector: unknown column %q", col)
		}
		if pkSet[col] {
			whereClauses = append(whereClauses, c.quote(col)+" = ?")
			whereValues = append(whereValues, val)
		} else {
			setClauses = append(setClauses, c.quote(col)+" = ?")
			setValues = append(setValues, val)
		}
	}
	if len(whereClauses) == 0 {
		return nil, fmt.Errorf("sql connector: update %s: missing primary key", table.Name)
	}
	if len(setClauses) == 0 {
		return nil, fmt.Errorf("sql connector: update %s: no fields to set", table.Name)
	}
	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s",
		c.quote(table.Name), strings.Join(setClauses, ", "), strings.Join(whereClauses, " AND "))
	result, err := c.db.ExecContext(ctx, query, append(setValues, whereValues...)...)
	if err != nil {
		return nil, fmt.Errorf("sql connector: update %s: %w", table.Name, err)
	}
	affected, _ := result.RowsAffected()
	return map[string]any{"rows_affected": affected}, nil
}

func (c *SQLConnector) execDelete(ctx context.Context, table *SQLTable, args map[string]any) (any, error) {
	conditions, values, err := c.primaryKeyWhere(table, args)
	if err != nil {
		return nil, err
	}
	query := "DELETE FROM " + c.quote(table.Name) + " WHERE " + conditions
	result, err := c.db.ExecContext(ctx, query, values...)
	if err != nil {
		return nil, fmt.Errorf("sql connector: delete %s: %w", table.Name, err)
	}
	affected, _ := result.RowsAffected()
	return map[string]any{"rows_affected": affected}, nil
}

func (c *SQLConnector) primaryKeyWhere(table *SQLTable, args map[string]any) (string, []any, error) {
	pkCols := table.PrimaryKey
	if len(pkCols) == 0 {
		pkCols = []string{"id"}
	}
	var conditions []string
	var values []any
	for _, pk := range pkCols {
		val, ok := args[pk]
		if !ok {
			return "", nil, fmt.Errorf("sql connector: %s: missing primary key %q", table.Name, pk)
		}
		conditions = append(conditions, c.quote(pk)+" = ?")
		values = append(values, val)
	}
	return strings.Join(conditions, " AND "), values, nil
}

func (c *SQLConnector) hasColumn(table *SQLTable, name string) bool {
	for _, col := range table.Columns {
		if col.Name == name {
			return true
		}
	}
	return false
}

func (c *SQLConnector) quote(name string) string {
	if c.driver == "mysql" {
		return "`" + name + "`"
	}
	return `"` + name + `"`
}

func rowsToMaps(rows *sql.Rows) ([]map[string]any, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	results := []map[string]any{}
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(map[string]any, len(columns))
		for i, col := range columns {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
			} else {
				row[col] = values[i]
			}
		}
		results = append(results, row)
	}
	return results, rows.Err()
}

func toSnakeCase(s string) string {
	var b strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}
