package metrics

import (
	"context"
	"os"
	"time"

	"media-archive/internal/logging"
)

// StatsProvider supplies library totals for the collector.
type StatsProvider interface {
	LibraryStats(ctx context.Context) (Stats, error)
}

// ConnectionReporter is implemented by stores that can export their
// connection pool metrics.
type ConnectionReporter interface {
	UpdateDBMetrics()
}

// Stats holds the current library totals
type Stats struct {
	HashesByRepository map[string]int
	Tags               int
	Namespaces         int
	Mappings           int
	ParentEdges        int
	SiblingEdges       int
}

// Collector periodically collects and updates metrics
type Collector struct {
	statsProvider StatsProvider
	dbPath        string
	interval      time.Duration
	stopChan      chan struct{}
}

// NewCollector creates a new metrics collector. dbPath is the SQLite database
// file whose size (and WAL/SHM sidecars) is exported; empty disables that.
func NewCollector(provider StatsProvider, dbPath string, interval time.Duration) *Collector {
	return &Collector{
		statsProvider: provider,
		dbPath:        dbPath,
		interval:      interval,
		stopChan:      make(chan struct{}),
	}
}

// Start begins the metrics collection loop
func (c *Collector) Start() {
	go c.collectLoop()
}

// Stop stops the metrics collection
func (c *Collector) Stop() {
	close(c.stopChan)
}

func (c *Collector) collectLoop() {
	// Collect immediately on start
	c.collect()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.collect()
		case <-c.stopChan:
			return
		}
	}
}

func (c *Collector) collect() {
	c.collectDBSize()

	if c.statsProvider == nil {
		return
	}

	if reporter, ok := c.statsProvider.(ConnectionReporter); ok {
		reporter.UpdateDBMetrics()
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.interval)
	defer cancel()

	stats, err := c.statsProvider.LibraryStats(ctx)
	if err != nil {
		logging.Warn("Metrics collection failed: %v", err)
		return
	}

	for _, repo := range repositoryLabels {
		LibraryHashesTotal.WithLabelValues(repo).Set(float64(stats.HashesByRepository[repo]))
	}
	LibraryTagsTotal.Set(float64(stats.Tags))
	LibraryNamespacesTotal.Set(float64(stats.Namespaces))
	LibraryMappingsTotal.Set(float64(stats.Mappings))
	LibraryParentEdgesTotal.Set(float64(stats.ParentEdges))
	LibrarySiblingEdgesTotal.Set(float64(stats.SiblingEdges))

	logging.Debug("Metrics collected: tags=%d, mappings=%d, parents=%d, siblings=%d",
		stats.Tags, stats.Mappings, stats.ParentEdges, stats.SiblingEdges)
}

func (c *Collector) collectDBSize() {
	if c.dbPath == "" {
		return
	}

	files := map[string]string{
		"main": c.dbPath,
		"wal":  c.dbPath + "-wal",
		"shm":  c.dbPath + "-shm",
	}
	for label, path := range files {
		info, err := os.Stat(path)
		if err != nil {
			DBSizeBytes.WithLabelValues(label).Set(0)
			continue
		}
		DBSizeBytes.WithLabelValues(label).Set(float64(info.Size()))
	}
}
