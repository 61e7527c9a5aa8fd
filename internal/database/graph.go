package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"media-archive/internal/query"
)

// Tx is a write transaction opened by Database.WithTx. It is only valid
// inside the callback it was passed to.
type Tx struct {
	ctx context.Context
	tx  *sql.Tx
}

// GetOrCreateTag returns the tag for key, creating it on first use.
func (t *Tx) GetOrCreateTag(key query.TagKey) (*Tag, error) {
	return getOrCreateTag(t.ctx, t.tx, key)
}

// FindTag looks a tag up by natural key, returning ErrNotFound when absent.
func (t *Tx) FindTag(key query.TagKey) (*Tag, error) {
	return findTag(t.ctx, t.tx, key)
}

// ParentEdges returns every parent edge as seen by this transaction.
func (t *Tx) ParentEdges() ([]TagEdge, error) {
	return parentEdges(t.ctx, t.tx)
}

// InsertParent records that child implies parent. It reports whether a new
// edge was written; an existing edge is left untouched.
func (t *Tx) InsertParent(childID, parentID int64) (bool, error) {
	result, err := t.tx.ExecContext(t.ctx,
		"INSERT OR IGNORE INTO tag_parents (child_id, parent_id) VALUES (?, ?)",
		childID, parentID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert parent edge %d->%d: %w", childID, parentID, err)
	}
	return rowsChanged(result, "add_parent")
}

// DeleteParent removes the child->parent edge, reporting whether it existed.
func (t *Tx) DeleteParent(childID, parentID int64) (bool, error) {
	result, err := t.tx.ExecContext(t.ctx,
		"DELETE FROM tag_parents WHERE child_id = ? AND parent_id = ?",
		childID, parentID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to delete parent edge %d->%d: %w", childID, parentID, err)
	}
	return rowsChanged(result, "remove_parent")
}

// SetSibling points nonIdeal at ideal, replacing any previous ideal.
func (t *Tx) SetSibling(nonIdealID, idealID int64) error {
	result, err := t.tx.ExecContext(t.ctx, `
		INSERT INTO tag_siblings (non_ideal_id, ideal_id) VALUES (?, ?)
		ON CONFLICT(non_ideal_id) DO UPDATE SET ideal_id = excluded.ideal_id
	`, nonIdealID, idealID)
	if err != nil {
		return fmt.Errorf("failed to set sibling %d->%d: %w", nonIdealID, idealID, err)
	}
	_, err = rowsChanged(result, "add_sibling")
	return err
}

// DeleteSibling removes the nonIdeal->ideal alias, reporting whether it
// existed.
func (t *Tx) DeleteSibling(nonIdealID, idealID int64) (bool, error) {
	result, err := t.tx.ExecContext(t.ctx,
		"DELETE FROM tag_siblings WHERE non_ideal_id = ? AND ideal_id = ?",
		nonIdealID, idealID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to delete sibling %d->%d: %w", nonIdealID, idealID, err)
	}
	return rowsChanged(result, "remove_sibling")
}

// ParentEdges returns every parent edge in the store.
func (d *Database) ParentEdges(ctx context.Context) (edges []TagEdge, err error) {
	done := observeQuery("list_parent_edges")
	defer func() { done(err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	return parentEdges(ctx, d.db)
}

// IdealTags maps each of tagIDs that has a sibling alias to its ideal tag id.
// Tags without an alias are absent from the result.
func (d *Database) IdealTags(ctx context.Context, tagIDs []int64) (ideals map[int64]int64, err error) {
	done := observeQuery("list_siblings")
	defer func() { done(err) }()

	ideals = make(map[int64]int64)
	if len(tagIDs) == 0 {
		return ideals, nil
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := d.db.QueryContext(ctx,
		`SELECT non_ideal_id, ideal_id FROM tag_siblings WHERE non_ideal_id IN (`+placeholders(len(tagIDs))+`)`,
		int64Args(tagIDs)...,
	)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows)

	for rows.Next() {
		var nonIdeal, ideal int64
		if err := rows.Scan(&nonIdeal, &ideal); err != nil {
			return nil, err
		}
		ideals[nonIdeal] = ideal
	}
	return ideals, rows.Err()
}

func parentEdges(ctx context.Context, q querier) ([]TagEdge, error) {
	rows, err := q.QueryContext(ctx, "SELECT child_id, parent_id FROM tag_parents ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer closeRows(rows)

	edges := []TagEdge{}
	for rows.Next() {
		var e TagEdge
		if err := rows.Scan(&e.ChildID, &e.ParentID); err != nil {
			return nil, err
		}
		edges = append(edges, e)
	}
	return edges, rows.Err()
}

func rowsChanged(result sql.Result, operation string) (bool, error) {
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	recordRowsAffected(operation, rows)
	return rows > 0, nil
}

func hashExists(ctx context.Context, q querier, hashID int64) (bool, error) {
	var id int64
	err := q.QueryRowContext(ctx, "SELECT id FROM hashes WHERE id = ?", hashID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
