package database

import (
	"context"
	"testing"
)

func TestParentEdgesIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	db, _ := setupTestDB(t)
	ctx := context.Background()

	mario := mustTag(t, db, "character", "mario")
	series := mustTag(t, db, "series", "mario bros")

	var inserted, duplicate bool
	err := db.WithTx(ctx, "add_parent", func(tx *Tx) error {
		var err error
		if inserted, err = tx.InsertParent(mario.ID, series.ID); err != nil {
			return err
		}
		duplicate, err = tx.InsertParent(mario.ID, series.ID)
		return err
	})
	if err != nil {
		t.Fatalf("WithTx failed: %v", err)
	}
	if !inserted || duplicate {
		t.Errorf("inserted = %v, duplicate = %v; want true, false", inserted, duplicate)
	}

	edges, err := db.ParentEdges(ctx)
	if err != nil {
		t.Fatalf("ParentEdges failed: %v", err)
	}
	if len(edges) != 1 || edges[0] != (TagEdge{ChildID: mario.ID, ParentID: series.ID}) {
		t.Errorf("ParentEdges = %+v", edges)
	}

	var removed, removedAgain bool
	err = db.WithTx(ctx, "remove_parent", func(tx *Tx) error {
		var err error
		if removed, err = tx.DeleteParent(mario.ID, series.ID); err != nil {
			return err
		}
		removedAgain, err = tx.DeleteParent(mario.ID, series.ID)
		return err
	})
	if err != nil {
		t.Fatalf("WithTx failed: %v", err)
	}
	if !removed || removedAgain {
		t.Errorf("removed = %v, removedAgain = %v; want true, false", removed, removedAgain)
	}
}

func TestSelfParentRejectedBySchema(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	db, _ := setupTestDB(t)

	tag := mustTag(t, db, "", "loop")
	err := db.WithTx(context.Background(), "add_parent", func(tx *Tx) error {
		_, err := tx.InsertParent(tag.ID, tag.ID)
		return err
	})
	if err == nil {
		t.Error("schema should reject a self-parent edge")
	}
}

func TestSiblingsIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	db, _ := setupTestDB(t)
	ctx := context.Background()

	lotr := mustTag(t, db, "series", "lotr")
	full := mustTag(t, db, "series", "lord of the rings")
	other := mustTag(t, db, "series", "the lord of the rings")

	setSibling := func(nonIdeal, ideal int64) {
		t.Helper()
		if err := db.WithTx(ctx, "add_sibling", func(tx *Tx) error {
			return tx.SetSibling(nonIdeal, ideal)
		}); err != nil {
			t.Fatalf("SetSibling failed: %v", err)
		}
	}

	setSibling(lotr.ID, full.ID)
	ideals, err := db.IdealTags(ctx, []int64{lotr.ID, full.ID})
	if err != nil {
		t.Fatalf("IdealTags failed: %v", err)
	}
	if len(ideals) != 1 || ideals[lotr.ID] != full.ID {
		t.Errorf("IdealTags = %v, want {%d: %d}", ideals, lotr.ID, full.ID)
	}

	// A non-ideal tag has one ideal; setting another replaces it
	setSibling(lotr.ID, other.ID)
	ideals, err = db.IdealTags(ctx, []int64{lotr.ID})
	if err != nil {
		t.Fatalf("IdealTags failed: %v", err)
	}
	if ideals[lotr.ID] != other.ID {
		t.Errorf("IdealTags after replace = %v, want %d", ideals, other.ID)
	}

	var removed bool
	if err := db.WithTx(ctx, "remove_sibling", func(tx *Tx) error {
		var err error
		removed, err = tx.DeleteSibling(lotr.ID, other.ID)
		return err
	}); err != nil {
		t.Fatalf("DeleteSibling failed: %v", err)
	}
	if !removed {
		t.Error("DeleteSibling should report the removed alias")
	}

	ideals, err = db.IdealTags(ctx, []int64{lotr.ID})
	if err != nil {
		t.Fatalf("IdealTags failed: %v", err)
	}
	if len(ideals) != 0 {
		t.Errorf("IdealTags after delete = %v, want empty", ideals)
	}
}
