package database

import (
	"context"
	"errors"
	"testing"

	"media-archive/internal/query"
)

func TestGetOrCreateTagIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	db, _ := setupTestDB(t)
	ctx := context.Background()

	tag := mustTag(t, db, "character", "mario")
	if tag.ID == 0 {
		t.Error("Expected non-zero tag ID")
	}
	if tag.Namespace != "character" || tag.Subtag != "mario" {
		t.Errorf("tag = %+v", tag)
	}

	again := mustTag(t, db, "character", "mario")
	if again.ID != tag.ID {
		t.Errorf("Expected same tag ID %d, got %d", tag.ID, again.ID)
	}

	// Same subtag in a different namespace is a different tag sharing the subtag row
	series := mustTag(t, db, "series", "mario")
	if series.ID == tag.ID {
		t.Error("tags in different namespaces must have different ids")
	}
	if series.SubtagID != tag.SubtagID {
		t.Errorf("subtag ids differ: %d vs %d", series.SubtagID, tag.SubtagID)
	}

	if _, err := db.GetOrCreateTag(ctx, query.TagKey{Namespace: "character", Subtag: "  "}); err == nil {
		t.Error("GetOrCreateTag should reject an empty subtag")
	}
}

func TestFindTagIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	db, _ := setupTestDB(t)
	ctx := context.Background()

	created := mustTag(t, db, "", "landscape")

	found, err := db.FindTag(ctx, query.TagKey{Subtag: "landscape"})
	if err != nil {
		t.Fatalf("FindTag failed: %v", err)
	}
	if found.ID != created.ID {
		t.Errorf("FindTag id = %d, want %d", found.ID, created.ID)
	}

	_, err = db.FindTag(ctx, query.TagKey{Namespace: "character", Subtag: "landscape"})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("FindTag(missing) error = %v, want ErrNotFound", err)
	}
}

func TestFindTagsIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	db, _ := setupTestDB(t)
	ctx := context.Background()

	mario := mustTag(t, db, "character", "mario")
	luigi := mustTag(t, db, "character", "luigi")

	found, err := db.FindTags(ctx, []query.TagKey{mario.Key(), luigi.Key(), {Namespace: "character", Subtag: "wario"}})
	if err != nil {
		t.Fatalf("FindTags failed: %v", err)
	}
	if len(found) != 2 {
		t.Fatalf("FindTags returned %d tags, want 2", len(found))
	}
	if found[mario.Key()].ID != mario.ID || found[luigi.Key()].ID != luigi.ID {
		t.Errorf("FindTags = %+v", found)
	}
}

func TestGetTagsByIDsIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	db, _ := setupTestDB(t)
	ctx := context.Background()

	a := mustTag(t, db, "", "a")
	b := mustTag(t, db, "", "b")

	tags, err := db.GetTagsByIDs(ctx, []int64{b.ID, a.ID, 9999})
	if err != nil {
		t.Fatalf("GetTagsByIDs failed: %v", err)
	}
	if len(tags) != 2 || tags[0].ID != a.ID || tags[1].ID != b.ID {
		t.Errorf("GetTagsByIDs = %+v, want [a b]", tags)
	}

	empty, err := db.GetTagsByIDs(ctx, nil)
	if err != nil || len(empty) != 0 {
		t.Errorf("GetTagsByIDs(nil) = %v, %v", empty, err)
	}
}

func TestFindNamespaceIDsIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	db, _ := setupTestDB(t)
	ctx := context.Background()

	mustTag(t, db, "character", "mario")
	mustTag(t, db, "creator", "nintendo")
	mustTag(t, db, "series", "zelda")

	tests := []struct {
		name  string
		match TextMatch
		want  int
	}{
		{"any includes empty namespace", Any(), 4},
		{"exact", Exact("series"), 1},
		{"exact missing", Exact("ser"), 0},
		{"substring", Contains("c"), 2},
		{"substring none", Contains("zzz"), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ids, err := db.FindNamespaceIDs(ctx, tt.match)
			if err != nil {
				t.Fatalf("FindNamespaceIDs failed: %v", err)
			}
			if len(ids) != tt.want {
				t.Errorf("FindNamespaceIDs = %v, want %d ids", ids, tt.want)
			}
		})
	}
}

func TestFindTagsInNamespacesIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	db, _ := setupTestDB(t)
	ctx := context.Background()

	mario := mustTag(t, db, "character", "mario")
	seriesMario := mustTag(t, db, "series", "mario")
	mustTag(t, db, "character", "luigi")

	nsIDs, err := db.FindNamespaceIDs(ctx, Exact("character"))
	if err != nil {
		t.Fatalf("FindNamespaceIDs failed: %v", err)
	}

	scoped, err := db.FindTagsInNamespaces(ctx, nsIDs, Contains("mar"))
	if err != nil {
		t.Fatalf("FindTagsInNamespaces failed: %v", err)
	}
	if len(scoped) != 1 || scoped[0].ID != mario.ID {
		t.Errorf("scoped search = %+v, want character:mario", scoped)
	}

	global, err := db.FindTagsInNamespaces(ctx, nil, Contains("mar"))
	if err != nil {
		t.Fatalf("FindTagsInNamespaces(global) failed: %v", err)
	}
	if len(global) != 2 || global[0].ID != mario.ID || global[1].ID != seriesMario.ID {
		t.Errorf("global search = %+v, want both marios", global)
	}

	all, err := db.FindTagsInNamespaces(ctx, nsIDs, Any())
	if err != nil {
		t.Fatalf("FindTagsInNamespaces(any) failed: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("every character tag = %+v, want 2", all)
	}

	none, err := db.FindTagsInNamespaces(ctx, []int64{}, Any())
	if err != nil {
		t.Fatalf("FindTagsInNamespaces(empty scope) failed: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("empty scope = %+v, want none", none)
	}
}

func TestUpdateTagsIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	db, _ := setupTestDB(t)
	ctx := context.Background()

	mario := query.TagKey{Namespace: "character", Subtag: "mario"}
	luigi := query.TagKey{Namespace: "character", Subtag: "luigi"}
	item := mustHash(t, db, "hash-1", query.RepositoryInbox, mario, luigi)

	tags, err := db.GetTagsForHash(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetTagsForHash failed: %v", err)
	}
	if len(tags) != 2 || tags[0].Subtag != "luigi" || tags[1].Subtag != "mario" {
		t.Errorf("GetTagsForHash = %+v, want [luigi mario]", tags)
	}

	// Re-adding is a no-op, removing an unknown tag is a no-op
	unknown := query.TagKey{Subtag: "never-created"}
	if err := db.UpdateTags(ctx, item.ID, []query.TagKey{mario}, []query.TagKey{luigi, unknown}); err != nil {
		t.Fatalf("UpdateTags failed: %v", err)
	}

	tags, err = db.GetTagsForHash(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetTagsForHash failed: %v", err)
	}
	if len(tags) != 1 || tags[0].Key() != mario {
		t.Errorf("GetTagsForHash = %+v, want [mario]", tags)
	}

	if _, err := db.FindTag(ctx, unknown); !errors.Is(err, ErrNotFound) {
		t.Errorf("removing an unknown tag must not create it, err = %v", err)
	}
}

func TestUpdateTagsMissingHash(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	db, _ := setupTestDB(t)
	ctx := context.Background()

	err := db.UpdateTags(ctx, 4242, []query.TagKey{{Subtag: "orphan"}}, nil)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("UpdateTags(missing hash) error = %v, want ErrNotFound", err)
	}
	if _, err := db.FindTag(ctx, query.TagKey{Subtag: "orphan"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("failed update must roll back tag creation, err = %v", err)
	}

	if _, err := db.GetTagsForHash(ctx, 4242); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetTagsForHash(missing) error = %v, want ErrNotFound", err)
	}
}
