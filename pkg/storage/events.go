package storage

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// InsertEvent records e. Missing ID and OccurredAt are filled in, and
// SourceDomain is derived from SourceHost.
func (d *DB) InsertEvent(ctx context.Context, e Event) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now()
	}
	if e.SourceDomain == "" && e.SourceHost != "" {
		e.SourceDomain, _ = ExtractRootDomain(e.SourceHost)
	}

	_, err := d.sql.ExecContext(ctx, `INSERT INTO navigation_events(event_id, occurred_at, name, type, success, source_url, source_host, source_domain, output_url, error) VALUES(?,?,?,?,?,?,?,?,?,?)`,
		e.ID, e.OccurredAt.UTC().Format(timestampLayout), e.Name, nullIfEmpty(e.Type), boolToInt(e.Success),
		nullIfEmpty(e.SourceURL), nullIfEmpty(e.SourceHost), nullIfEmpty(e.SourceDomain), nullIfEmpty(e.OutputURL), nullIfEmpty(e.Error))
	return err
}

// ListEvents returns recorded events matching opts, newest first.
func (d *DB) ListEvents(ctx context.Context, opts EventListOptions) ([]Event, error) {
	where := "WHERE 1=1"
	args := []interface{}{}
	if !opts.Since.IsZero() {
		where += " AND occurred_at >= ?"
		args = append(args, opts.Since.UTC().Format(timestampLayout))
	}
	if opts.Domain != "" {
		domain := opts.Domain
		if root, ok := ExtractRootDomain(domain); ok {
			domain = root
		}
		where += " AND source_domain = ?"
		args = append(args, domain)
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	args = append(args, limit)

	q := "SELECT event_id, occurred_at, name, type, success, source_url, source_host, source_domain, output_url, error FROM navigation_events " + where + " ORDER BY occurred_at DESC, id DESC LIMIT ?"
	rows, err := d.sql.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := []Event{}
	for rows.Next() {
		var (
			e                               Event
			occurredAt                      string
			success                         int
			typ, srcURL, srcHost, srcDomain sql.NullString
			outputURL, errText              sql.NullString
		)
		if err := rows.Scan(&e.ID, &occurredAt, &e.Name, &typ, &success, &srcURL, &srcHost, &srcDomain, &outputURL, &errText); err != nil {
			return nil, err
		}
		e.OccurredAt = parseTimestamp(occurredAt)
		e.Success = success == 1
		e.Type = typ.String
		e.SourceURL = srcURL.String
		e.SourceHost = srcHost.String
		e.SourceDomain = srcDomain.String
		e.OutputURL = outputURL.String
		e.Error = errText.String
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}
