package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"media-archive/internal/database"
	"media-archive/internal/search"
	"media-archive/internal/startup"
	"media-archive/internal/taggraph"
)

// defaultDatabaseDir is used when neither --db nor DATABASE_DIR is set.
const defaultDatabaseDir = "/database"

// app carries the open database and the engine components built on it for
// the lifetime of one command.
type app struct {
	dbPath string
	format string
	out    io.Writer

	db        *database.Database
	graph     *taggraph.Graph
	service   *search.Service
	suggester *search.SuggestionFinder
}

func newApp(out io.Writer) *app {
	return &app{out: out}
}

func defaultDBPath() string {
	dir := os.Getenv("DATABASE_DIR")
	if dir == "" {
		dir = defaultDatabaseDir
	}
	return filepath.Join(dir, startup.DatabaseFile)
}

// open connects to the database. Every command runs once, so plans are not
// cached.
func (a *app) open(ctx context.Context) error {
	db, err := database.New(ctx, a.dbPath, nil)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", a.dbPath, err)
	}
	a.db = db
	a.graph = taggraph.New(db)
	a.service = search.NewService(search.NewSearcher(db, a.graph), nil)
	a.suggester = search.NewSuggestionFinder(db)
	return nil
}

func (a *app) close() error {
	if a.db == nil {
		return nil
	}
	err := a.db.Close()
	a.db = nil
	return err
}

func (a *app) printer() (*printer, error) {
	return newPrinter(a.out, a.format)
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "tagctl",
		Short: "Query and maintain a tag archive",
		Long: `tagctl runs tag queries against an archive database and edits the
tag graph: parent implications, sibling aliases and tag assignments.

Queries take one clause per argument, for example:

  tagctl query "character:samus" "-meta:sketch" "series:*"`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := a.printer(); err != nil {
				return err
			}
			return a.open(cmd.Context())
		},
	}

	root.PersistentFlags().StringVar(&a.dbPath, "db", defaultDBPath(), "path to the archive database")
	root.PersistentFlags().StringVar(&a.format, "format", formatAuto, "output format (auto, json, text)")

	root.AddCommand(
		newQueryCmd(a),
		newCountCmd(a),
		newSuggestCmd(a),
		newParentCmd(a),
		newDescendantsCmd(a),
		newSiblingCmd(a),
		newResolveCmd(a),
		newHashCmd(a),
		newTagCmd(a),
		newVacuumCmd(a),
	)
	return root
}

// execute runs the command tree with args and closes the database afterwards,
// whether or not the command succeeded.
func execute(ctx context.Context, a *app, args []string) (err error) {
	defer func() {
		if closeErr := a.close(); err == nil {
			err = closeErr
		}
	}()

	cmd := newRootCmd(a)
	cmd.SetArgs(args)
	cmd.SetOut(a.out)
	return cmd.ExecuteContext(ctx)
}
