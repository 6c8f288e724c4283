package model

import "testing"

func TestLocationLoadUnload(t *testing.T) {
	loc := Location{Code: "A-01-01", Kind: KindStorage}
	if loc.Loaded() {
		t.Fatalf("new location should be empty")
	}
	if err := loc.Load(); err != nil {
		t.Fatalf("load: %v", err)
	}
	if !loc.Loaded() || loc.Occupancy != 1 {
		t.Fatalf("expected occupancy 1 got %d", loc.Occupancy)
	}
	if err := loc.Unload(); err != nil {
		t.Fatalf("unload: %v", err)
	}
	if loc.Occupancy != 0 {
		t.Fatalf("expected occupancy 0 got %d", loc.Occupancy)
	}
}

func TestLocationUnloadEmptyFails(t *testing.T) {
	loc := Location{Code: "A-01-01", Kind: KindStorage}
	if err := loc.Unload(); err == nil {
		t.Fatalf("expected error unloading empty location")
	}
	if loc.Occupancy != 0 {
		t.Fatalf("occupancy must not wrap, got %d", loc.Occupancy)
	}
}

func TestPlaceholderNeverTracksOccupancy(t *testing.T) {
	loc := Location{Code: "VIRT-1", Kind: KindPlaceholder}
	if err := loc.Load(); err == nil {
		t.Fatalf("expected error loading placeholder")
	}
	if err := loc.Unload(); err == nil {
		t.Fatalf("expected error unloading placeholder")
	}
	if loc.Occupancy != 0 {
		t.Fatalf("placeholder occupancy must stay 0, got %d", loc.Occupancy)
	}
}

func TestKeyPointTracksOccupancy(t *testing.T) {
	loc := Location{Code: "ENT-1", Kind: KindKeyPoint}
	if err := loc.Load(); err != nil {
		t.Fatalf("load: %v", err)
	}
	if loc.Occupancy != 1 {
		t.Fatalf("expected occupancy 1 got %d", loc.Occupancy)
	}
}
