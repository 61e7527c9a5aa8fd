package handlers

import (
	"time"

	"media-archive/internal/database"
	"media-archive/internal/search"
	"media-archive/internal/startup"
	"media-archive/internal/taggraph"
)

type Handlers struct {
	db        *database.Database
	graph     *taggraph.Graph
	service   *search.Service
	suggester *search.SuggestionFinder

	defaultLimit int
	maxLimit     int
	startTime    time.Time
}

func New(db *database.Database, graph *taggraph.Graph, service *search.Service, suggester *search.SuggestionFinder, config *startup.Config) *Handlers {
	return &Handlers{
		db:           db,
		graph:        graph,
		service:      service,
		suggester:    suggester,
		defaultLimit: config.QueryDefaultLimit,
		maxLimit:     config.QueryMaxLimit,
		startTime:    time.Now(),
	}
}
