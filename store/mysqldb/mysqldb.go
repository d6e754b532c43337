// Package mysqldb provides a MySQL storage backend for Recipe App
package mysqldb

import (
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/labstack/gommon/log"
	"github.com/rs/xid"

	"github.com/recipeapp/recipe-app/model"
	"github.com/recipeapp/recipe-app/store"
)

//go:embed schema.sql
var schema string

// String to split each item in array
var arrayDelimiter = "\n"

// MySQLDB - Representation of MySQL database backend
type MySQLDB struct {
	conn   *sql.DB
	schema string
	dbName string
}

// New returns pointer to MySQL database
func New(uname string, pwd string, host string, port int, database string, tls string) (*MySQLDB, error) {
	// Set connection config
	config := mysql.NewConfig()
	config.User = uname
	config.Passwd = pwd
	config.Net = "tcp"
	config.Addr = fmt.Sprintf("%s:%d", host, port)
	config.DBName = database
	config.MultiStatements = true
	config.ParseTime = true
	config.TLSConfig = tls

	// Open connection pool
	conn, err := sql.Open("mysql", config.FormatDSN())
	if err != nil {
		return nil, err
	}
	conn.SetConnMaxLifetime(time.Minute * 3)
	conn.SetMaxOpenConns(10)
	conn.SetMaxIdleConns(10)

	// Test the connection
	if err := conn.Ping(); err != nil {
		return nil, err
	}

	return NewWithConn(conn, database), nil
}

// NewWithConn wraps an open connection pool
func NewWithConn(conn *sql.DB, database string) *MySQLDB {
	return &MySQLDB{
		conn:   conn,
		schema: schema,
		dbName: database,
	}
}

// Init creates the schema and the default recipe catalog on an empty database
func (o *MySQLDB) Init() error {
	// Check if database is empty
	var tableCount int
	err := o.conn.QueryRow(
		"SELECT COUNT(DISTINCT `table_name`) FROM `information_schema`.`columns` WHERE `table_schema` = ?",
		o.dbName,
	).Scan(&tableCount)
	if err != nil {
		return err
	}

	if tableCount > 0 {
		return nil
	}

	log.Infof("Initializing database %s", o.dbName)
	if _, err := o.conn.Exec(o.schema); err != nil {
		return err
	}
	for _, recipe := range store.DefaultRecipes() {
		if err := o.SaveRecipe(recipe); err != nil {
			return fmt.Errorf("cannot seed recipe %s: %w", recipe.Slug, err)
		}
	}
	return nil
}

// Close releases the connection pool
func (o *MySQLDB) Close() error {
	return o.conn.Close()
}

// Origin returns the storage namespace of one browser scope
func (o *MySQLDB) Origin(scope string) (store.Storage, error) {
	if _, err := xid.FromString(scope); err != nil {
		return nil, fmt.Errorf("%w: %q", store.ErrInvalidScope, scope)
	}
	return &originStorage{conn: o.conn, scope: scope}, nil
}

// GetRecipes returns every stored recipe ordered by title
func (o *MySQLDB) GetRecipes() ([]model.Recipe, error) {
	var recipes []model.Recipe

	rows, err := o.conn.Query("SELECT slug, title, summary, minutes, servings, ingredients, steps, tags FROM recipes ORDER BY title;")
	if err != nil {
		return recipes, err
	}
	defer rows.Close()

	for rows.Next() {
		recipe, err := scanRecipe(rows)
		if err != nil {
			return recipes, err
		}
		recipes = append(recipes, recipe)
	}
	return recipes, rows.Err()
}

// GetRecipeBySlug reads a single recipe
func (o *MySQLDB) GetRecipeBySlug(slug string) (model.Recipe, error) {
	resourceName, err := model.Recipe{Slug: slug}.ResolveResourceName()
	if err != nil {
		return model.Recipe{Slug: slug}, fmt.Errorf("%w: %v", store.ErrRecipeNotFound, err)
	}

	row := o.conn.QueryRow("SELECT slug, title, summary, minutes, servings, ingredients, steps, tags FROM recipes WHERE slug = ?;", resourceName)
	recipe, err := scanRecipe(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Recipe{Slug: slug}, fmt.Errorf("%w: %s", store.ErrRecipeNotFound, slug)
	}
	return recipe, err
}

// SaveRecipe inserts or replaces a recipe under its slug
func (o *MySQLDB) SaveRecipe(recipe model.Recipe) error {
	resourceName, err := recipe.ResolveResourceName()
	if err != nil {
		return err
	}

	_, err = o.conn.Exec(
		"INSERT INTO recipes (slug, title, summary, minutes, servings, ingredients, steps, tags, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?) "+
			"ON DUPLICATE KEY UPDATE title = VALUES(title), summary = VALUES(summary), minutes = VALUES(minutes), servings = VALUES(servings), "+
			"ingredients = VALUES(ingredients), steps = VALUES(steps), tags = VALUES(tags), updated_at = VALUES(updated_at);",
		resourceName,
		recipe.Title,
		recipe.Summary,
		recipe.Minutes,
		recipe.Servings,
		strings.Join(recipe.Ingredients, arrayDelimiter),
		strings.Join(recipe.Steps, arrayDelimiter),
		strings.Join(recipe.Tags, arrayDelimiter),
		time.Now().UTC(),
	)
	return err
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRecipe(row scanner) (model.Recipe, error) {
	recipe := model.Recipe{}
	var ingredients, steps, tags string
	if err := row.Scan(
		&recipe.Slug,
		&recipe.Title,
		&recipe.Summary,
		&recipe.Minutes,
		&recipe.Servings,
		&ingredients,
		&steps,
		&tags,
	); err != nil {
		return recipe, err
	}
	recipe.Ingredients = splitArray(ingredients)
	recipe.Steps = splitArray(steps)
	recipe.Tags = splitArray(tags)
	return recipe, nil
}

func splitArray(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, arrayDelimiter)
}

// originStorage keeps the items of a namespace as rows keyed by (scope, key)
type originStorage struct {
	conn  *sql.DB
	scope string
}

func (s *originStorage) GetItem(key string) (string, bool, error) {
	if key == "" {
		return "", false, errors.New("empty storage key")
	}

	var value string
	err := s.conn.QueryRow("SELECT item_value FROM origin_items WHERE scope = ? AND item_key = ?;", s.scope, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("cannot read %s: %w", key, err)
	}
	return value, true, nil
}

func (s *originStorage) SetItem(key, value string) error {
	if key == "" {
		return errors.New("empty storage key")
	}
	_, err := s.conn.Exec(
		"INSERT INTO origin_items (scope, item_key, item_value, updated_at) VALUES (?, ?, ?, ?) "+
			"ON DUPLICATE KEY UPDATE item_value = VALUES(item_value), updated_at = VALUES(updated_at);",
		s.scope, key, value, time.Now().UTC(),
	)
	return err
}

func (s *originStorage) RemoveItem(key string) error {
	if key == "" {
		return errors.New("empty storage key")
	}
	_, err := s.conn.Exec("DELETE FROM origin_items WHERE scope = ? AND item_key = ?;", s.scope, key)
	return err
}
