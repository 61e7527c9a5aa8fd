package main

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"media-archive/internal/database"
	"media-archive/internal/query"
	"media-archive/internal/search"
)

// hashRow is the JSON and table form of a matching hash.
type hashRow struct {
	ID         int64  `json:"id"`
	Hash       string `json:"hash"`
	Repository string `json:"repository"`
}

// tagRow is the JSON and table form of a tag.
type tagRow struct {
	ID  int64  `json:"id"`
	Tag string `json:"tag"`
}

type statusResult struct {
	Status string `json:"status"`
}

func tagRows(tags []database.Tag) ([]tagRow, [][]string) {
	out := make([]tagRow, len(tags))
	rows := make([][]string, len(tags))
	for i, tag := range tags {
		out[i] = tagRow{ID: tag.ID, Tag: tag.Key().String()}
		rows[i] = []string{strconv.FormatInt(tag.ID, 10), out[i].Tag}
	}
	return out, rows
}

func parseKeys(args []string) ([]query.TagKey, error) {
	keys := make([]query.TagKey, len(args))
	for i, arg := range args {
		key, err := query.ParseTagKey(arg)
		if err != nil {
			return nil, err
		}
		keys[i] = key
	}
	return keys, nil
}

func parseHashID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid hash id %q", arg)
	}
	return id, nil
}

// searchFlags are the pagination and repository flags shared by query and
// count.
type searchFlags struct {
	limit        int
	offset       int
	repositories []string
}

func (f *searchFlags) register(cmd *cobra.Command, paginate bool) {
	if paginate {
		cmd.Flags().IntVar(&f.limit, "limit", 0, "maximum number of hashes to return (0 for all)")
		cmd.Flags().IntVar(&f.offset, "offset", 0, "number of matching hashes to skip")
	}
	cmd.Flags().StringSliceVar(&f.repositories, "repository", nil, "repositories to search (inbox, archive, trash); default excludes trash")
}

func (f *searchFlags) request(clauses []string) (search.Request, error) {
	if f.limit < 0 || f.offset < 0 {
		return search.Request{}, fmt.Errorf("limit and offset must not be negative")
	}
	req := search.Request{Clauses: clauses, Limit: f.limit, Offset: f.offset}
	for _, name := range f.repositories {
		repo, err := query.ParseRepositoryType(name)
		if err != nil {
			return search.Request{}, err
		}
		req.Repositories = append(req.Repositories, repo)
	}
	return req, nil
}

func newQueryCmd(a *app) *cobra.Command {
	var flags searchFlags
	cmd := &cobra.Command{
		Use:   "query [clause]...",
		Short: "List hashes matching a tag query",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := flags.request(args)
			if err != nil {
				return err
			}
			items, err := a.service.Query(cmd.Context(), req)
			if err != nil {
				return err
			}

			out := make([]hashRow, len(items))
			rows := make([][]string, len(items))
			for i, item := range items {
				out[i] = hashRow{ID: item.ID, Hash: hex.EncodeToString(item.Hash), Repository: item.Repository.String()}
				rows[i] = []string{strconv.FormatInt(item.ID, 10), out[i].Hash, out[i].Repository}
			}

			p, err := a.printer()
			if err != nil {
				return err
			}
			return p.table(out, []string{"ID", "Hash", "Repository"}, rows)
		},
	}
	flags.register(cmd, true)
	return cmd
}

func newCountCmd(a *app) *cobra.Command {
	var flags searchFlags
	cmd := &cobra.Command{
		Use:   "count [clause]...",
		Short: "Count hashes matching a tag query",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := flags.request(args)
			if err != nil {
				return err
			}
			count, err := a.service.Count(cmd.Context(), req)
			if err != nil {
				return err
			}

			p, err := a.printer()
			if err != nil {
				return err
			}
			return p.value(map[string]int{"count": count}, strconv.Itoa(count))
		},
	}
	flags.register(cmd, false)
	return cmd
}

func newSuggestCmd(a *app) *cobra.Command {
	var exact bool
	cmd := &cobra.Command{
		Use:   "suggest <term>",
		Short: "Suggest tags for a partially typed term",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tags, err := a.suggester.GetAutocompleteTagIDs(cmd.Context(), args[0], exact)
			if err != nil {
				return err
			}
			out, rows := tagRows(tags)

			p, err := a.printer()
			if err != nil {
				return err
			}
			return p.table(out, []string{"ID", "Tag"}, rows)
		},
	}
	cmd.Flags().BoolVar(&exact, "exact", false, "disable wildcard matching")
	return cmd
}

// pairCmd builds a subcommand taking two tags and applying fn to them.
func pairCmd(a *app, use, short string, fn func(cmd *cobra.Command, first, second query.TagKey) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			keys, err := parseKeys(args)
			if err != nil {
				return err
			}
			if err := fn(cmd, keys[0], keys[1]); err != nil {
				return err
			}

			p, err := a.printer()
			if err != nil {
				return err
			}
			return p.value(statusResult{Status: "ok"}, "ok")
		},
	}
}

func newParentCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parent",
		Short: "Manage parent implications",
	}
	cmd.AddCommand(
		pairCmd(a, "add <child> <parent>", "Make child imply parent",
			func(cmd *cobra.Command, child, parent query.TagKey) error {
				return a.graph.AddParent(cmd.Context(), child, parent)
			}),
		pairCmd(a, "remove <child> <parent>", "Remove a parent implication",
			func(cmd *cobra.Command, child, parent query.TagKey) error {
				return a.graph.RemoveParent(cmd.Context(), child, parent)
			}),
	)
	return cmd
}

func newSiblingCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sibling",
		Short: "Manage sibling aliases",
	}
	cmd.AddCommand(
		pairCmd(a, "add <non-ideal> <ideal>", "Display non-ideal as ideal",
			func(cmd *cobra.Command, nonIdeal, ideal query.TagKey) error {
				return a.graph.AddSibling(cmd.Context(), nonIdeal, ideal)
			}),
		pairCmd(a, "remove <non-ideal> <ideal>", "Remove a sibling alias",
			func(cmd *cobra.Command, nonIdeal, ideal query.TagKey) error {
				return a.graph.RemoveSibling(cmd.Context(), nonIdeal, ideal)
			}),
	)
	return cmd
}

func newDescendantsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "descendants <tag>",
		Short: "List every tag that implies a tag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := query.ParseTagKey(args[0])
			if err != nil {
				return err
			}
			tags, err := a.graph.DescendantTags(cmd.Context(), key)
			if err != nil {
				return err
			}
			out, rows := tagRows(tags)

			p, err := a.printer()
			if err != nil {
				return err
			}
			return p.table(out, []string{"ID", "Tag"}, rows)
		},
	}
}

func newResolveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <tag>...",
		Short: "Show the ideal form of each tag",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			keys, err := parseKeys(args)
			if err != nil {
				return err
			}
			resolved, err := a.graph.ResolveSiblings(cmd.Context(), keys)
			if err != nil {
				return err
			}

			type resolvedRow struct {
				Tag   string `json:"tag"`
				Ideal string `json:"ideal"`
			}
			out := make([]resolvedRow, len(keys))
			rows := make([][]string, len(keys))
			for i, key := range keys {
				out[i] = resolvedRow{Tag: key.String(), Ideal: resolved[key].String()}
				rows[i] = []string{out[i].Tag, out[i].Ideal}
			}

			p, err := a.printer()
			if err != nil {
				return err
			}
			return p.table(out, []string{"Tag", "Ideal"}, rows)
		},
	}
}

func newHashCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hash",
		Short: "Register hashes and move them between repositories",
	}

	var repository string
	add := &cobra.Command{
		Use:   "add <hex>",
		Short: "Register a hash",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := hex.DecodeString(args[0])
			if err != nil || len(raw) == 0 {
				return fmt.Errorf("invalid hex hash %q", args[0])
			}
			repo, err := query.ParseRepositoryType(repository)
			if err != nil {
				return err
			}
			item, err := a.db.InsertHash(cmd.Context(), raw, repo)
			if err != nil {
				return err
			}

			p, err := a.printer()
			if err != nil {
				return err
			}
			return p.value(hashRow{ID: item.ID, Hash: args[0], Repository: repo.String()}, strconv.FormatInt(item.ID, 10))
		},
	}
	add.Flags().StringVar(&repository, "repository", "inbox", "repository for the new hash")

	move := &cobra.Command{
		Use:   "move <hash-id> <repository>",
		Short: "Move a hash to another repository",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseHashID(args[0])
			if err != nil {
				return err
			}
			repo, err := query.ParseRepositoryType(args[1])
			if err != nil {
				return err
			}
			if err := a.db.SetRepository(cmd.Context(), id, repo); err != nil {
				return err
			}

			p, err := a.printer()
			if err != nil {
				return err
			}
			return p.value(statusResult{Status: "ok"}, "ok")
		},
	}

	cmd.AddCommand(add, move)
	return cmd
}

func newTagCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tag",
		Short: "Assign tags to hashes",
	}

	update := func(use, short string, adding bool) *cobra.Command {
		return &cobra.Command{
			Use:   use,
			Short: short,
			Args:  cobra.MinimumNArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := parseHashID(args[0])
				if err != nil {
					return err
				}
				keys, err := parseKeys(args[1:])
				if err != nil {
					return err
				}
				if adding {
					err = a.db.UpdateTags(cmd.Context(), id, keys, nil)
				} else {
					err = a.db.UpdateTags(cmd.Context(), id, nil, keys)
				}
				if err != nil {
					return err
				}

				p, err := a.printer()
				if err != nil {
					return err
				}
				return p.value(statusResult{Status: "ok"}, "ok")
			},
		}
	}

	list := &cobra.Command{
		Use:   "list <hash-id>",
		Short: "List the tags of a hash",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseHashID(args[0])
			if err != nil {
				return err
			}
			if _, err := a.db.GetHash(cmd.Context(), id); err != nil {
				return err
			}
			tags, err := a.db.GetTagsForHash(cmd.Context(), id)
			if err != nil {
				return err
			}
			out, rows := tagRows(tags)

			p, err := a.printer()
			if err != nil {
				return err
			}
			return p.table(out, []string{"ID", "Tag"}, rows)
		},
	}

	cmd.AddCommand(
		update("add <hash-id> <tag>...", "Add tags to a hash", true),
		update("remove <hash-id> <tag>...", "Remove tags from a hash", false),
		list,
	)
	return cmd
}

// lastVacuumKey is the metadata key recording when the archive was last
// vacuumed.
const lastVacuumKey = "last_vacuum"

type vacuumResult struct {
	Status   string `json:"status"`
	Finished string `json:"finished"`
	Duration string `json:"duration"`
}

func newVacuumCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "vacuum",
		Short: "Rebuild the database file to reclaim free space",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			start := time.Now()
			if err := a.db.Vacuum(cmd.Context()); err != nil {
				return err
			}

			res := vacuumResult{
				Status:   "ok",
				Finished: time.Now().UTC().Format(time.RFC3339),
				Duration: time.Since(start).Round(time.Millisecond).String(),
			}
			if err := a.db.SetMetadata(cmd.Context(), lastVacuumKey, res.Finished); err != nil {
				return err
			}

			p, err := a.printer()
			if err != nil {
				return err
			}
			return p.value(res, fmt.Sprintf("vacuumed in %s", res.Duration))
		},
	}
}
