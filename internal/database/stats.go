package database

import (
	"context"
	"fmt"

	"media-archive/internal/metrics"
	"media-archive/internal/query"
)

// LibraryStats counts the rows of every library table. It implements
// metrics.StatsProvider.
func (d *Database) LibraryStats(ctx context.Context) (stats metrics.Stats, err error) {
	done := observeQuery("library_stats")
	defer func() { done(err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	counts := []struct {
		table string
		dest  *int
	}{
		{"tags", &stats.Tags},
		{"namespaces", &stats.Namespaces},
		{"mappings", &stats.Mappings},
		{"tag_parents", &stats.ParentEdges},
		{"tag_siblings", &stats.SiblingEdges},
	}
	for _, c := range counts {
		if err = d.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+c.table).Scan(c.dest); err != nil {
			return metrics.Stats{}, fmt.Errorf("failed to count %s: %w", c.table, err)
		}
	}

	rows, err := d.db.QueryContext(ctx, "SELECT repository_id, COUNT(*) FROM hashes GROUP BY repository_id")
	if err != nil {
		return metrics.Stats{}, err
	}
	defer closeRows(rows)

	stats.HashesByRepository = make(map[string]int)
	for rows.Next() {
		var repo, count int
		if err = rows.Scan(&repo, &count); err != nil {
			return metrics.Stats{}, err
		}
		stats.HashesByRepository[query.RepositoryType(repo).String()] = count
	}
	if err = rows.Err(); err != nil {
		return metrics.Stats{}, err
	}
	return stats, nil
}
