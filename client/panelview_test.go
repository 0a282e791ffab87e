package client

import (
	"reflect"
	"testing"

	"github.com/padlink/padlink/proto"
)

func snapshotFixture() []proto.Panel {
	return []proto.Panel{
		{ID: "panel-1", Title: "Drums", Code: "s(\"bd\")", Playing: true},
		{ID: "panel-2", Title: "Bass", Code: "", Playing: false},
		{ID: "panel-3", Title: "Lead", Code: "note(\"c e g\")", Playing: false, Stale: true},
	}
}

func TestRebuildIsIdempotent(t *testing.T) {
	view := NewPanelView()
	snapshot := snapshotFixture()

	view.Rebuild(snapshot)
	once := view.Panels()

	view.Rebuild(snapshot)
	twice := view.Panels()

	if !reflect.DeepEqual(once, twice) {
		t.Errorf("Applying the same snapshot twice diverged:\n once:  %+v\n twice: %+v", once, twice)
	}
	if !reflect.DeepEqual(twice, snapshot) {
		t.Errorf("View does not match snapshot:\n view:     %+v\n snapshot: %+v", twice, snapshot)
	}
}

func TestRebuildRemovesCreatesAndUpdates(t *testing.T) {
	view := NewPanelView()
	view.Rebuild(snapshotFixture())

	next := []proto.Panel{
		{ID: "panel-2", Title: "Sub Bass", Playing: true}, // updated
		{ID: "panel-4", Title: "Pads"},                    // created
		// panel-1 and panel-3 removed
	}
	view.Rebuild(next)

	if !reflect.DeepEqual(view.Panels(), next) {
		t.Errorf("Expected %+v, got %+v", next, view.Panels())
	}
	if _, ok := view.Get("panel-1"); ok {
		t.Error("Removed panel still present")
	}
}

func TestConvergenceAfterEventInterleaving(t *testing.T) {
	// Any interleaving of partial events followed by one snapshot must land
	// on the snapshot.
	view := NewPanelView()
	view.Add(proto.Panel{ID: "panel-old", Title: "Stale"})
	view.Add(proto.Panel{ID: "panel-1", Title: "Old Name"})
	view.Remove("panel-old")
	view.Rename("panel-1", "Renamed")
	view.Add(proto.Panel{ID: "panel-9", Title: "Ghost"})

	snapshot := snapshotFixture()
	view.Rebuild(snapshot)

	if !reflect.DeepEqual(view.Panels(), snapshot) {
		t.Errorf("View diverged from authority:\n view:     %+v\n snapshot: %+v", view.Panels(), snapshot)
	}
}

func TestAddExistingUpdatesInPlace(t *testing.T) {
	view := NewPanelView()
	view.Add(proto.Panel{ID: "panel-1", Title: "Drums"})
	view.Add(proto.Panel{ID: "panel-1", Title: "Drums 2"})

	if view.Len() != 1 {
		t.Fatalf("Expected 1 panel, got %d", view.Len())
	}
	p, _ := view.Get("panel-1")
	if p.Title != "Drums 2" {
		t.Errorf("Expected updated title, got %s", p.Title)
	}
}

func TestPartialUpdates(t *testing.T) {
	view := NewPanelView()
	view.Add(proto.Panel{ID: "panel-1", Title: "Drums"})

	view.SetPlaying("panel-1", true)
	view.SetCode("panel-1", "s(\"hh\")")
	view.SetSlider("panel-1", "gain", 0.5)
	view.Rename("panel-1", "Percussion")

	p, ok := view.Get("panel-1")
	if !ok {
		t.Fatal("Panel vanished")
	}
	if !p.Playing || p.Code != "s(\"hh\")" || p.Title != "Percussion" {
		t.Errorf("Partial updates lost: %+v", p)
	}
	if p.Sliders["gain"] != 0.5 {
		t.Errorf("Expected slider gain 0.5, got %v", p.Sliders)
	}

	// Updates against unknown panels are ignored, not fatal.
	view.SetPlaying("panel-404", true)
	view.Rename("panel-404", "Nope")
	view.SetSlider("panel-404", "gain", 1)
	if view.Len() != 1 {
		t.Errorf("Unknown-panel updates changed the list: %d panels", view.Len())
	}
}

func TestRemoveKeepsOrder(t *testing.T) {
	view := NewPanelView()
	view.Rebuild(snapshotFixture())

	view.Remove("panel-2")

	panels := view.Panels()
	if len(panels) != 2 {
		t.Fatalf("Expected 2 panels, got %d", len(panels))
	}
	if panels[0].ID != "panel-1" || panels[1].ID != "panel-3" {
		t.Errorf("Order broken after remove: %s, %s", panels[0].ID, panels[1].ID)
	}
}
