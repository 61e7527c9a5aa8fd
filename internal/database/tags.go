package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"media-archive/internal/query"
)

const tagColumns = `t.id, t.namespace_id, t.subtag_id, n.value, s.value`

const tagJoins = `
	FROM tags t
	INNER JOIN namespaces n ON n.id = t.namespace_id
	INNER JOIN subtags s ON s.id = t.subtag_id`

// GetOrCreateTag returns the tag with the given namespace and subtag,
// creating the tag and either half on first use.
func (d *Database) GetOrCreateTag(ctx context.Context, key query.TagKey) (*Tag, error) {
	var tag *Tag
	err := d.WithTx(ctx, "get_or_create_tag", func(tx *Tx) error {
		var err error
		tag, err = tx.GetOrCreateTag(key)
		return err
	})
	return tag, err
}

// FindTag looks a tag up by natural key. It returns ErrNotFound when the tag
// does not exist.
func (d *Database) FindTag(ctx context.Context, key query.TagKey) (tag *Tag, err error) {
	done := observeQuery("find_tag")
	defer func() { done(ignoreNotFound(err)) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	return findTag(ctx, d.db, key)
}

// FindTags looks up several tags at once. Keys with no matching tag are
// absent from the returned map.
func (d *Database) FindTags(ctx context.Context, keys []query.TagKey) (found map[query.TagKey]Tag, err error) {
	done := observeQuery("find_tags")
	defer func() { done(err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	found = make(map[query.TagKey]Tag, len(keys))
	for _, key := range keys {
		tag, err := findTag(ctx, d.db, key)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		found[key] = *tag
	}
	return found, nil
}

// GetTagsByIDs returns the tags with the given ids, ordered by id. Unknown
// ids are skipped.
func (d *Database) GetTagsByIDs(ctx context.Context, ids []int64) ([]Tag, error) {
	if len(ids) == 0 {
		return []Tag{}, nil
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	return queryTags(ctx, d.db,
		`SELECT `+tagColumns+tagJoins+` WHERE t.id IN (`+placeholders(len(ids))+`) ORDER BY t.id`,
		int64Args(ids)...)
}

// FindNamespaceIDs returns the ids of every namespace whose value satisfies
// m, ordered by id.
func (d *Database) FindNamespaceIDs(ctx context.Context, m TextMatch) (ids []int64, err error) {
	done := observeQuery("find_namespaces")
	defer func() { done(err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cond, args := matchCondition("value", m)
	rows, err := d.db.QueryContext(ctx, `SELECT id FROM namespaces WHERE `+cond+` ORDER BY id`, args...)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows)

	ids = []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// FindTagsInNamespaces returns tags whose subtag satisfies subtag, restricted
// to namespaceIDs. A nil namespaceIDs searches every namespace; an empty
// non-nil slice matches nothing. Results are ordered by id.
func (d *Database) FindTagsInNamespaces(ctx context.Context, namespaceIDs []int64, subtag TextMatch) (tags []Tag, err error) {
	done := observeQuery("find_tags")
	defer func() { done(err) }()

	if namespaceIDs != nil && len(namespaceIDs) == 0 {
		return []Tag{}, nil
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cond, args := matchCondition("s.value", subtag)
	stmt := `SELECT ` + tagColumns + tagJoins + ` WHERE ` + cond
	if namespaceIDs != nil {
		stmt += ` AND t.namespace_id IN (` + placeholders(len(namespaceIDs)) + `)`
		args = append(args, int64Args(namespaceIDs)...)
	}
	stmt += ` ORDER BY t.id`

	return queryTags(ctx, d.db, stmt, args...)
}

// GetTagsForHash returns every tag mapped to a hash, ordered by namespace
// then subtag. It returns ErrNotFound when the hash does not exist.
func (d *Database) GetTagsForHash(ctx context.Context, hashID int64) (tags []Tag, err error) {
	done := observeQuery("get_tags_for_hash")
	defer func() { done(ignoreNotFound(err)) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	exists, err := hashExists(ctx, d.db, hashID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("hash %d: %w", hashID, ErrNotFound)
	}

	return queryTags(ctx, d.db, `
		SELECT `+tagColumns+tagJoins+`
		INNER JOIN mappings m ON m.tag_id = t.id
		WHERE m.hash_id = ?
		ORDER BY n.value, s.value
	`, hashID)
}

// UpdateTags adds and removes tag mappings for a hash in one transaction.
// Tags to add are created on first use; removing an unmapped tag is a no-op.
func (d *Database) UpdateTags(ctx context.Context, hashID int64, add, remove []query.TagKey) error {
	return d.WithTx(ctx, "update_tags", func(tx *Tx) error {
		exists, err := hashExists(tx.ctx, tx.tx, hashID)
		if err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("hash %d: %w", hashID, ErrNotFound)
		}

		for _, key := range add {
			tag, err := tx.GetOrCreateTag(key)
			if err != nil {
				return err
			}
			if _, err := tx.tx.ExecContext(tx.ctx,
				"INSERT OR IGNORE INTO mappings (hash_id, tag_id) VALUES (?, ?)",
				hashID, tag.ID,
			); err != nil {
				return fmt.Errorf("failed to map %s: %w", key, err)
			}
		}

		for _, key := range remove {
			tag, err := tx.FindTag(key)
			if errors.Is(err, ErrNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			if _, err := tx.tx.ExecContext(tx.ctx,
				"DELETE FROM mappings WHERE hash_id = ? AND tag_id = ?",
				hashID, tag.ID,
			); err != nil {
				return fmt.Errorf("failed to unmap %s: %w", key, err)
			}
		}
		return nil
	})
}

func findTag(ctx context.Context, q querier, key query.TagKey) (*Tag, error) {
	var tag Tag
	err := q.QueryRowContext(ctx,
		`SELECT `+tagColumns+tagJoins+` WHERE n.value = ? AND s.value = ?`,
		key.Namespace, key.Subtag,
	).Scan(&tag.ID, &tag.NamespaceID, &tag.SubtagID, &tag.Namespace, &tag.Subtag)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("tag %s: %w", key, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &tag, nil
}

func getOrCreateTag(ctx context.Context, q querier, key query.TagKey) (*Tag, error) {
	if strings.TrimSpace(key.Subtag) == "" {
		return nil, errors.New("tag subtag cannot be empty")
	}

	namespaceID, err := getOrCreateValue(ctx, q, "namespaces", key.Namespace)
	if err != nil {
		return nil, err
	}
	subtagID, err := getOrCreateValue(ctx, q, "subtags", key.Subtag)
	if err != nil {
		return nil, err
	}

	if _, err := q.ExecContext(ctx,
		"INSERT OR IGNORE INTO tags (namespace_id, subtag_id) VALUES (?, ?)",
		namespaceID, subtagID,
	); err != nil {
		return nil, fmt.Errorf("failed to create tag %s: %w", key, err)
	}

	tag := Tag{NamespaceID: namespaceID, SubtagID: subtagID, Namespace: key.Namespace, Subtag: key.Subtag}
	err = q.QueryRowContext(ctx,
		"SELECT id FROM tags WHERE namespace_id = ? AND subtag_id = ?",
		namespaceID, subtagID,
	).Scan(&tag.ID)
	if err != nil {
		return nil, err
	}
	return &tag, nil
}

// getOrCreateValue returns the id of value in a namespaces/subtags table.
func getOrCreateValue(ctx context.Context, q querier, table, value string) (int64, error) {
	if _, err := q.ExecContext(ctx,
		"INSERT OR IGNORE INTO "+table+" (value) VALUES (?)",
		value,
	); err != nil {
		return 0, fmt.Errorf("failed to insert into %s: %w", table, err)
	}

	var id int64
	err := q.QueryRowContext(ctx, "SELECT id FROM "+table+" WHERE value = ?", value).Scan(&id)
	return id, err
}

func queryTags(ctx context.Context, q querier, stmt string, args ...interface{}) ([]Tag, error) {
	rows, err := q.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows)

	tags := []Tag{}
	for rows.Next() {
		var tag Tag
		if err := rows.Scan(&tag.ID, &tag.NamespaceID, &tag.SubtagID, &tag.Namespace, &tag.Subtag); err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}
	return tags, rows.Err()
}

// matchCondition renders m as a SQL condition on column. Substring matches
// use instr, never LIKE: '%' and '_' in user text are literal.
func matchCondition(column string, m TextMatch) (string, []interface{}) {
	switch m.Mode {
	case MatchExact:
		return column + " = ?", []interface{}{m.Text}
	case MatchSubstring:
		return "instr(" + column + ", ?) > 0", []interface{}{m.Text}
	default:
		return "1", nil
	}
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?,", n-1) + "?"
}

func int64Args(ids []int64) []interface{} {
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}

// ignoreNotFound keeps expected misses out of the error metrics.
func ignoreNotFound(err error) error {
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	return err
}
