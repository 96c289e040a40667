package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"

	"github.com/sw33tLie/applinks/pkg/applink"
	"github.com/tidwall/gjson"
	_ "modernc.org/sqlite"
)

type DB struct {
	sql *sql.DB
}

func Open(path string) (*DB, error) {
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	// Ensure schema exists for convenience.
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS applink_cache (
  key           TEXT PRIMARY KEY,
  source_url    TEXT,
  web_url       TEXT,
  is_back       INTEGER NOT NULL DEFAULT 0 CHECK (is_back IN (0,1)),
  targets       TEXT NOT NULL DEFAULT '[]',
  resolved_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE IF NOT EXISTS navigation_events (
  id            INTEGER PRIMARY KEY,
  event_id      TEXT NOT NULL UNIQUE,
  occurred_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
  name          TEXT NOT NULL,
  type          TEXT,
  success       INTEGER NOT NULL DEFAULT 0 CHECK (success IN (0,1)),
  source_url    TEXT,
  source_host   TEXT,
  source_domain TEXT,
  output_url    TEXT,
  error         TEXT
);
CREATE INDEX IF NOT EXISTS idx_events_time ON navigation_events(occurred_at);
CREATE INDEX IF NOT EXISTS idx_events_domain ON navigation_events(source_domain, occurred_at);
    `); err != nil {
		return nil, err
	}
	return &DB{sql: db}, nil
}

func (d *DB) Close() error {
	if d == nil || d.sql == nil {
		return nil
	}
	return d.sql.Close()
}

type storedTarget struct {
	URL        string `json:"url,omitempty"`
	AppStoreID string `json:"app_store_id,omitempty"`
	AppName    string `json:"app_name,omitempty"`
}

// Get returns the cached link for key, or nil when there is none.
func (d *DB) Get(ctx context.Context, key string) (*applink.AppLink, error) {
	row := d.sql.QueryRowContext(ctx, "SELECT source_url, web_url, is_back, targets FROM applink_cache WHERE key = ?", NormalizeKey(key))

	var (
		src, web sql.NullString
		isBack   int
		targets  string
	)
	if err := row.Scan(&src, &web, &isBack, &targets); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return decodeAppLink(src.String, web.String, isBack == 1, targets), nil
}

// Put stores link under key, replacing any previous entry.
func (d *DB) Put(ctx context.Context, key string, link *applink.AppLink) error {
	if link == nil {
		return fmt.Errorf("refusing to cache a nil app link for %s", key)
	}

	var stored []storedTarget
	for _, t := range link.Targets() {
		stored = append(stored, storedTarget{URL: urlString(t.URL), AppStoreID: t.AppStoreID, AppName: t.AppName})
	}
	if stored == nil {
		stored = []storedTarget{}
	}
	targets, err := json.Marshal(stored)
	if err != nil {
		return err
	}

	_, err = d.sql.ExecContext(ctx, `INSERT INTO applink_cache(key, source_url, web_url, is_back, targets, resolved_at) VALUES(?,?,?,?,?,CURRENT_TIMESTAMP)
ON CONFLICT(key) DO UPDATE SET source_url = excluded.source_url, web_url = excluded.web_url, is_back = excluded.is_back, targets = excluded.targets, resolved_at = CURRENT_TIMESTAMP`,
		NormalizeKey(key), nullIfEmpty(urlString(link.SourceURL())), nullIfEmpty(urlString(link.WebURL())), boolToInt(link.IsBackToReferrer()), string(targets))
	return err
}

// ListCached returns every cached link, most recently resolved first.
func (d *DB) ListCached(ctx context.Context) ([]CachedLink, error) {
	rows, err := d.sql.QueryContext(ctx, "SELECT key, source_url, web_url, is_back, targets, resolved_at FROM applink_cache ORDER BY resolved_at DESC, key")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CachedLink
	for rows.Next() {
		var (
			c          CachedLink
			src, web   sql.NullString
			isBack     int
			targets    string
			resolvedAt string
		)
		if err := rows.Scan(&c.Key, &src, &web, &isBack, &targets, &resolvedAt); err != nil {
			return nil, err
		}
		c.ResolvedAt = parseTimestamp(resolvedAt)
		c.Link = decodeAppLink(src.String, web.String, isBack == 1, targets)
		out = append(out, c)
	}
	return out, rows.Err()
}

// ClearCache drops every cached link and reports how many were removed.
func (d *DB) ClearCache(ctx context.Context) (int64, error) {
	res, err := d.sql.ExecContext(ctx, "DELETE FROM applink_cache")
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func decodeAppLink(src, web string, isBack bool, targets string) *applink.AppLink {
	var ts []applink.Target
	gjson.Parse(targets).ForEach(func(_, t gjson.Result) bool {
		ts = append(ts, applink.Target{
			URL:        applink.ParseURL(t.Get("url").String()),
			AppStoreID: t.Get("app_store_id").String(),
			AppName:    t.Get("app_name").String(),
		})
		return true
	})

	if isBack {
		return applink.NewBackToReferrer(applink.ParseURL(src), ts, applink.ParseURL(web))
	}
	return applink.New(applink.ParseURL(src), ts, applink.ParseURL(web))
}

func urlString(u *url.URL) string {
	if u == nil {
		return ""
	}
	return u.String()
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
