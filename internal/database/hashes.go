package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"media-archive/internal/query"
)

// InsertHash registers a content hash in repo. Registering a hash that
// already exists returns the existing item unchanged.
func (d *Database) InsertHash(ctx context.Context, hash []byte, repo query.RepositoryType) (item *HashItem, err error) {
	done := observeQuery("insert_hash")
	defer func() { done(err) }()

	if len(hash) == 0 {
		return nil, errors.New("hash cannot be empty")
	}
	if repo == 0 {
		repo = query.RepositoryInbox
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	result, err := d.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO hashes (hash, repository_id) VALUES (?, ?)",
		hash, int(repo),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert hash: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows > 0 {
		recordRowsAffected("insert_hash", rows)
	}

	return scanHash(d.db.QueryRowContext(ctx,
		"SELECT id, hash, repository_id, deleted_at FROM hashes WHERE hash = ?", hash))
}

// GetHash returns a hash item by id, or ErrNotFound.
func (d *Database) GetHash(ctx context.Context, id int64) (*HashItem, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	item, err := scanHash(d.db.QueryRowContext(ctx,
		"SELECT id, hash, repository_id, deleted_at FROM hashes WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("hash %d: %w", id, ErrNotFound)
	}
	return item, err
}

// SetRepository moves a hash into repo. It returns ErrNotFound when the hash
// does not exist.
func (d *Database) SetRepository(ctx context.Context, hashID int64, repo query.RepositoryType) (err error) {
	done := observeQuery("set_repository")
	defer func() { done(ignoreNotFound(err)) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	result, err := d.db.ExecContext(ctx,
		"UPDATE hashes SET repository_id = ? WHERE id = ?",
		int(repo), hashID,
	)
	if err != nil {
		return fmt.Errorf("failed to move hash %d: %w", hashID, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("hash %d: %w", hashID, ErrNotFound)
	}
	return nil
}

// SearchHashes returns the hashes matching f, ordered by ascending id, with
// f.Offset and f.Limit applied.
func (d *Database) SearchHashes(ctx context.Context, f HashFilter) (items []HashItem, err error) {
	done := observeQuery("search_hashes")
	defer func() { done(err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	where, args := buildHashFilter(f)
	limit := f.Limit
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}
	stmt := `SELECT h.id, h.hash, h.repository_id, h.deleted_at FROM hashes h WHERE ` + where +
		` ORDER BY h.id LIMIT ? OFFSET ?`
	args = append(args, limit, max(f.Offset, 0))

	rows, err := d.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows)

	items = []HashItem{}
	for rows.Next() {
		item, err := scanHash(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// CountHashes returns the number of hashes matching f, ignoring pagination.
func (d *Database) CountHashes(ctx context.Context, f HashFilter) (count int, err error) {
	done := observeQuery("count_hashes")
	defer func() { done(err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	where, args := buildHashFilter(f)
	err = d.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM hashes h WHERE `+where, args...).Scan(&count)
	return count, err
}

// buildHashFilter renders f as a WHERE clause over hashes aliased "h".
func buildHashFilter(f HashFilter) (string, []interface{}) {
	var conds []string
	var args []interface{}

	if len(f.Repositories) == 0 {
		conds = append(conds, "h.repository_id != ?")
		args = append(args, int(query.RepositoryTrash))
	} else {
		repoArgs := make([]interface{}, len(f.Repositories))
		for i, r := range f.Repositories {
			repoArgs[i] = int(r)
		}
		conds = append(conds, "h.repository_id IN ("+placeholders(len(repoArgs))+")")
		args = append(args, repoArgs...)
	}

	for _, group := range f.RequireAll {
		if len(group) == 0 {
			conds = append(conds, "0")
			continue
		}
		conds = append(conds, "h.id IN ("+mappedTo(len(group))+")")
		args = append(args, int64Args(group)...)
	}

	if len(f.Forbid) > 0 {
		conds = append(conds, "h.id NOT IN ("+mappedTo(len(f.Forbid))+")")
		args = append(args, int64Args(f.Forbid)...)
	}

	for _, alt := range f.RequireAnyOf {
		var parts []string
		if len(alt.TagIDs) > 0 {
			parts = append(parts, "h.id IN ("+mappedTo(len(alt.TagIDs))+")")
			args = append(args, int64Args(alt.TagIDs)...)
		}
		if len(alt.Patterns) > 0 {
			sub, patternArgs := matchingPattern(alt.Patterns)
			parts = append(parts, "h.id IN ("+sub+")")
			args = append(args, patternArgs...)
		}
		if len(parts) == 0 {
			conds = append(conds, "0")
			continue
		}
		conds = append(conds, "("+strings.Join(parts, " OR ")+")")
	}

	if len(f.RequireAnyPattern) > 0 {
		sub, patternArgs := matchingPattern(f.RequireAnyPattern)
		conds = append(conds, "h.id IN ("+sub+")")
		args = append(args, patternArgs...)
	}

	if len(f.ForbidPattern) > 0 {
		sub, patternArgs := matchingPattern(f.ForbidPattern)
		conds = append(conds, "h.id NOT IN ("+sub+")")
		args = append(args, patternArgs...)
	}

	return strings.Join(conds, " AND "), args
}

// mappedTo selects the ids of hashes mapped to any of n tag ids.
func mappedTo(n int) string {
	return "SELECT m.hash_id FROM mappings m WHERE m.tag_id IN (" + placeholders(n) + ")"
}

// matchingPattern selects the ids of hashes carrying a tag that matches any
// of patterns.
func matchingPattern(patterns []TagPattern) (string, []interface{}) {
	var alts []string
	var args []interface{}
	for _, p := range patterns {
		nsCond, nsArgs := matchCondition("n.value", p.Namespace)
		subCond, subArgs := matchCondition("s.value", p.Subtag)
		alts = append(alts, "("+nsCond+" AND "+subCond+")")
		args = append(args, nsArgs...)
		args = append(args, subArgs...)
	}

	return `SELECT m.hash_id FROM mappings m
		INNER JOIN tags t ON t.id = m.tag_id
		INNER JOIN namespaces n ON n.id = t.namespace_id
		INNER JOIN subtags s ON s.id = t.subtag_id
		WHERE ` + strings.Join(alts, " OR "), args
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanHash(row rowScanner) (*HashItem, error) {
	var item HashItem
	var repo int
	var deletedAt sql.NullInt64
	if err := row.Scan(&item.ID, &item.Hash, &repo, &deletedAt); err != nil {
		return nil, err
	}
	item.Repository = query.RepositoryType(repo)
	if deletedAt.Valid {
		t := time.Unix(deletedAt.Int64, 0)
		item.DeletedAt = &t
	}
	return &item, nil
}
