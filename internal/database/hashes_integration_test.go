package database

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"media-archive/internal/query"
)

func TestInsertHashIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	db, _ := setupTestDB(t)
	ctx := context.Background()

	item, err := db.InsertHash(ctx, []byte{0xde, 0xad, 0xbe, 0xef}, 0)
	if err != nil {
		t.Fatalf("InsertHash failed: %v", err)
	}
	if item.ID == 0 {
		t.Error("Expected non-zero hash ID")
	}
	if item.Repository != query.RepositoryInbox {
		t.Errorf("default repository = %v, want inbox", item.Repository)
	}
	if item.DeletedAt != nil {
		t.Errorf("DeletedAt = %v, want nil", item.DeletedAt)
	}

	// Registering again returns the existing row, repository untouched
	again, err := db.InsertHash(ctx, []byte{0xde, 0xad, 0xbe, 0xef}, query.RepositoryArchive)
	if err != nil {
		t.Fatalf("second InsertHash failed: %v", err)
	}
	if again.ID != item.ID || again.Repository != query.RepositoryInbox {
		t.Errorf("second InsertHash = %+v, want %+v", again, item)
	}

	if _, err := db.InsertHash(ctx, nil, query.RepositoryInbox); err == nil {
		t.Error("InsertHash should reject an empty hash")
	}

	got, err := db.GetHash(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetHash failed: %v", err)
	}
	if !bytes.Equal(got.Hash, item.Hash) {
		t.Errorf("GetHash hash = %x, want %x", got.Hash, item.Hash)
	}

	if _, err := db.GetHash(ctx, 9999); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetHash(missing) error = %v, want ErrNotFound", err)
	}
}

func TestSetRepositoryIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	db, _ := setupTestDB(t)
	ctx := context.Background()

	item := mustHash(t, db, "move-me", query.RepositoryInbox)

	if err := db.SetRepository(ctx, item.ID, query.RepositoryTrash); err != nil {
		t.Fatalf("SetRepository failed: %v", err)
	}
	got, err := db.GetHash(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetHash failed: %v", err)
	}
	if got.Repository != query.RepositoryTrash {
		t.Errorf("repository = %v, want trash", got.Repository)
	}

	if err := db.SetRepository(ctx, 9999, query.RepositoryArchive); !errors.Is(err, ErrNotFound) {
		t.Errorf("SetRepository(missing) error = %v, want ErrNotFound", err)
	}
}

// searchFixture builds a small library:
//
//	1 character:mario, series:mario bros      (inbox)
//	2 character:luigi, series:mario bros      (inbox)
//	3 character:mario                          (archive)
//	4 character:peach, creator:nintendo        (trash)
//	5 landscape                                (inbox)
func searchFixture(t *testing.T) (*Database, map[string]Tag, []HashItem) {
	t.Helper()
	db, _ := setupTestDB(t)

	keys := map[string]query.TagKey{
		"mario":     {Namespace: "character", Subtag: "mario"},
		"luigi":     {Namespace: "character", Subtag: "luigi"},
		"peach":     {Namespace: "character", Subtag: "peach"},
		"bros":      {Namespace: "series", Subtag: "mario bros"},
		"nintendo":  {Namespace: "creator", Subtag: "nintendo"},
		"landscape": {Subtag: "landscape"},
	}
	items := []HashItem{
		*mustHash(t, db, "h1", query.RepositoryInbox, keys["mario"], keys["bros"]),
		*mustHash(t, db, "h2", query.RepositoryInbox, keys["luigi"], keys["bros"]),
		*mustHash(t, db, "h3", query.RepositoryArchive, keys["mario"]),
		*mustHash(t, db, "h4", query.RepositoryTrash, keys["peach"], keys["nintendo"]),
		*mustHash(t, db, "h5", query.RepositoryInbox, keys["landscape"]),
	}

	found, err := db.FindTags(context.Background(), []query.TagKey{
		keys["mario"], keys["luigi"], keys["peach"], keys["bros"], keys["nintendo"], keys["landscape"],
	})
	if err != nil {
		t.Fatalf("FindTags failed: %v", err)
	}
	tags := make(map[string]Tag, len(keys))
	for name, key := range keys {
		tags[name] = found[key]
	}
	return db, tags, items
}

func hashIDs(items []HashItem) []int64 {
	ids := make([]int64, len(items))
	for i, item := range items {
		ids[i] = item.ID
	}
	return ids
}

func TestSearchHashesIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	db, tags, items := searchFixture(t)
	ctx := context.Background()
	id := func(i int) int64 { return items[i-1].ID }

	tests := []struct {
		name   string
		filter HashFilter
		want   []int64
	}{
		{
			name:   "empty filter excludes trash",
			filter: HashFilter{},
			want:   []int64{id(1), id(2), id(3), id(5)},
		},
		{
			name:   "explicit trash",
			filter: HashFilter{Repositories: []query.RepositoryType{query.RepositoryTrash}},
			want:   []int64{id(4)},
		},
		{
			name:   "single tag",
			filter: HashFilter{RequireAll: [][]int64{{tags["mario"].ID}}},
			want:   []int64{id(1), id(3)},
		},
		{
			name:   "and across groups",
			filter: HashFilter{RequireAll: [][]int64{{tags["mario"].ID}, {tags["bros"].ID}}},
			want:   []int64{id(1)},
		},
		{
			name:   "or within group",
			filter: HashFilter{RequireAll: [][]int64{{tags["mario"].ID, tags["luigi"].ID}}},
			want:   []int64{id(1), id(2), id(3)},
		},
		{
			name:   "hash mapped to two ids of one group is returned once",
			filter: HashFilter{RequireAll: [][]int64{{tags["mario"].ID, tags["bros"].ID}}},
			want:   []int64{id(1), id(2), id(3)},
		},
		{
			name: "alternatives mix ids and patterns",
			filter: HashFilter{RequireAnyOf: []TagAlternatives{{
				TagIDs:   []int64{tags["luigi"].ID},
				Patterns: []TagPattern{{Namespace: Any(), Subtag: Exact("landscape")}},
			}}},
			want: []int64{id(2), id(5)},
		},
		{
			name: "alternative groups are anded",
			filter: HashFilter{RequireAnyOf: []TagAlternatives{
				{TagIDs: []int64{tags["mario"].ID, tags["luigi"].ID}},
				{TagIDs: []int64{tags["bros"].ID}, Patterns: []TagPattern{{Namespace: Exact("creator"), Subtag: Any()}}},
			}},
			want: []int64{id(1), id(2)},
		},
		{
			name:   "empty alternatives match nothing",
			filter: HashFilter{RequireAnyOf: []TagAlternatives{{}}},
			want:   []int64{},
		},
		{
			name:   "empty group matches nothing",
			filter: HashFilter{RequireAll: [][]int64{{}}},
			want:   []int64{},
		},
		{
			name:   "forbid",
			filter: HashFilter{Forbid: []int64{tags["bros"].ID}},
			want:   []int64{id(3), id(5)},
		},
		{
			name: "namespace substring pattern",
			filter: HashFilter{RequireAnyPattern: []TagPattern{
				{Namespace: Contains("ser"), Subtag: Any()},
			}},
			want: []int64{id(1), id(2)},
		},
		{
			name: "subtag substring pattern in any namespace",
			filter: HashFilter{RequireAnyPattern: []TagPattern{
				{Namespace: Any(), Subtag: Contains("ari")},
			}},
			want: []int64{id(1), id(2), id(3)},
		},
		{
			name: "exact namespace substring subtag",
			filter: HashFilter{RequireAnyPattern: []TagPattern{
				{Namespace: Exact("character"), Subtag: Contains("ari")},
			}},
			want: []int64{id(1), id(3)},
		},
		{
			name: "hash with several matching tags is returned once",
			filter: HashFilter{RequireAnyPattern: []TagPattern{
				{Namespace: Any(), Subtag: Any()},
			}},
			want: []int64{id(1), id(2), id(3), id(5)},
		},
		{
			name: "forbid pattern",
			filter: HashFilter{ForbidPattern: []TagPattern{
				{Namespace: Exact("character"), Subtag: Any()},
			}},
			want: []int64{id(5)},
		},
		{
			name:   "pagination",
			filter: HashFilter{Limit: 2, Offset: 1},
			want:   []int64{id(2), id(3)},
		},
		{
			name:   "offset past end",
			filter: HashFilter{Offset: 10},
			want:   []int64{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := db.SearchHashes(ctx, tt.filter)
			if err != nil {
				t.Fatalf("SearchHashes failed: %v", err)
			}
			ids := hashIDs(got)
			if len(ids) != len(tt.want) {
				t.Fatalf("SearchHashes = %v, want %v", ids, tt.want)
			}
			for i := range ids {
				if ids[i] != tt.want[i] {
					t.Fatalf("SearchHashes = %v, want %v", ids, tt.want)
				}
			}

			count, err := db.CountHashes(ctx, tt.filter)
			if err != nil {
				t.Fatalf("CountHashes failed: %v", err)
			}
			if tt.filter.Limit == 0 && tt.filter.Offset == 0 && count != len(tt.want) {
				t.Errorf("CountHashes = %d, want %d", count, len(tt.want))
			}
		})
	}
}

func TestCountHashesIgnoresPagination(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	db, _, _ := searchFixture(t)

	count, err := db.CountHashes(context.Background(), HashFilter{Limit: 1, Offset: 2})
	if err != nil {
		t.Fatalf("CountHashes failed: %v", err)
	}
	if count != 4 {
		t.Errorf("CountHashes = %d, want 4", count)
	}
}

func TestSearchHashesLiteralPercent(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	db, _ := setupTestDB(t)
	ctx := context.Background()

	mustHash(t, db, "p1", query.RepositoryInbox, query.TagKey{Subtag: "100% orange"})
	mustHash(t, db, "p2", query.RepositoryInbox, query.TagKey{Subtag: "100 oranges"})

	got, err := db.SearchHashes(ctx, HashFilter{RequireAnyPattern: []TagPattern{
		{Namespace: Any(), Subtag: Contains("0%")},
	}})
	if err != nil {
		t.Fatalf("SearchHashes failed: %v", err)
	}
	if len(got) != 1 || string(got[0].Hash) != "p1" {
		t.Errorf("SearchHashes = %+v, want only p1", got)
	}
}
