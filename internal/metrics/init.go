package metrics

// Repository label values, matching the seeded repository rows.
var repositoryLabels = []string{"inbox", "archive", "trash"}

// InitializeMetrics pre-populates all expected label combinations so that
// every metric is exported from the first Prometheus scrape.
// Call this once at startup after metric registration.
func InitializeMetrics() {
	// --- Database file sizes ---
	for _, file := range []string{"main", "wal", "shm"} {
		DBSizeBytes.WithLabelValues(file)
	}

	// --- DB query operations ---
	for _, op := range []string{"initialize_schema", "get_or_create_tag", "find_tag", "find_tags",
		"find_namespaces", "list_parent_edges", "list_siblings", "add_parent", "remove_parent",
		"add_sibling", "remove_sibling", "update_tags", "get_tags_for_hash", "insert_hash",
		"set_repository", "search_hashes", "count_hashes", "library_stats", "vacuum"} {
		DBQueryTotal.WithLabelValues(op, "success")
		DBQueryTotal.WithLabelValues(op, "error")
		DBQueryDuration.WithLabelValues(op)
	}

	for _, outcome := range []string{"commit", "rollback"} {
		DBTransactionDuration.WithLabelValues(outcome)
	}

	// --- Query engine ---
	for _, status := range []string{"success", "syntax_error"} {
		QueryParseTotal.WithLabelValues(status)
	}
	for _, result := range []string{"hit", "miss"} {
		PlanCacheLookups.WithLabelValues(result)
	}
	for _, op := range []string{"search", "count"} {
		SearchDuration.WithLabelValues(op)
	}

	// --- Tag graph ---
	for _, op := range []string{"add_parent", "remove_parent", "add_sibling", "remove_sibling"} {
		TagGraphMutationsTotal.WithLabelValues(op, "success")
		TagGraphMutationsTotal.WithLabelValues(op, "error")
	}

	for _, mode := range []string{"exact", "partial"} {
		SuggestionsTotal.WithLabelValues(mode)
	}

	for _, repo := range repositoryLabels {
		LibraryHashesTotal.WithLabelValues(repo)
	}
}
