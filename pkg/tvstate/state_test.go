package tvstate

import (
	"bytes"
	"encoding/json"
	"testing"
)

// ====== Power ======

func TestPower_String(t *testing.T) {
	tests := []struct {
		power Power
		want  string
	}{
		{PowerUnknown, "unknown"},
		{PowerOn, "on"},
		{PowerOff, "off"},
		{Power(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.power.String(); got != tt.want {
			t.Errorf("Power(%d).String() = %q, want %q", tt.power, got, tt.want)
		}
	}
}

func TestPower_JSONRoundTrip(t *testing.T) {
	for _, p := range []Power{PowerUnknown, PowerOn, PowerOff} {
		data, err := json.Marshal(p)
		if err != nil {
			t.Fatalf("Marshal(%v) error: %v", p, err)
		}
		var got Power
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("Unmarshal(%s) error: %v", data, err)
		}
		if got != p {
			t.Errorf("round trip = %v, want %v", got, p)
		}
	}

	t.Run("unrecognized name maps to unknown", func(t *testing.T) {
		var p Power
		if err := json.Unmarshal([]byte(`"standby"`), &p); err != nil {
			t.Fatalf("Unmarshal error: %v", err)
		}
		if p != PowerUnknown {
			t.Errorf("Unmarshal standby = %v, want PowerUnknown", p)
		}
	})

	t.Run("non-string fails", func(t *testing.T) {
		var p Power
		if err := json.Unmarshal([]byte(`3`), &p); err == nil {
			t.Error("Unmarshal of a number should fail")
		}
	})
}

// ====== State ======

func TestState_Clone(t *testing.T) {
	s := State{
		Power:      PowerOn,
		ActiveApp:  "netflix",
		Screen:     "player",
		Volume:     35,
		NowPlaying: json.RawMessage(`{"title":"Dune"}`),
	}
	c := s.Clone()

	c.NowPlaying[2] = 'X'
	if !bytes.Equal(s.NowPlaying, []byte(`{"title":"Dune"}`)) {
		t.Error("Clone should not share the nowPlaying buffer")
	}
}

func TestState_JSON(t *testing.T) {
	s := State{Power: PowerOn, Screen: "home", Volume: 50}
	data, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}
	want := `{"power":"on","screen":"home","volume":50}`
	if string(data) != want {
		t.Errorf("Marshal = %s, want %s", data, want)
	}
}

// ====== Store ======

func TestStore_Defaults(t *testing.T) {
	s := NewStore().Snapshot()
	if s.Power != PowerUnknown {
		t.Errorf("default Power = %v, want PowerUnknown", s.Power)
	}
	if s.Screen != "home" {
		t.Errorf("default Screen = %q, want %q", s.Screen, "home")
	}
	if s.Volume != 50 {
		t.Errorf("default Volume = %d, want 50", s.Volume)
	}
	if s.NowPlaying != nil {
		t.Errorf("default NowPlaying = %s, want nil", s.NowPlaying)
	}
}

func ptr[T any](v T) *T { return &v }

func TestStore_Merge(t *testing.T) {
	store := NewStore()

	changed := store.Merge(Partial{
		Power:     ptr(PowerOn),
		ActiveApp: ptr("youtube"),
		Volume:    ptr(20),
	})
	if !changed {
		t.Fatal("Merge of new values should report changed")
	}

	got := store.Snapshot()
	if got.Power != PowerOn || got.ActiveApp != "youtube" || got.Volume != 20 {
		t.Errorf("Snapshot after merge = %+v", got)
	}
	if got.Screen != "home" {
		t.Errorf("absent field modified: Screen = %q, want %q", got.Screen, "home")
	}
}

func TestStore_Merge_Idempotent(t *testing.T) {
	store := NewStore()

	first := store.Merge(Partial{Volume: ptr(10)})
	second := store.Merge(Partial{Volume: ptr(10)})

	if !first {
		t.Error("first merge should change state")
	}
	if second {
		t.Error("repeated merge should not change state")
	}
	if v := store.Snapshot().Volume; v != 10 {
		t.Errorf("Volume = %d, want 10", v)
	}
	if store.Version() != 1 {
		t.Errorf("Version = %d, want 1", store.Version())
	}
}

func TestStore_Merge_VolumeClamped(t *testing.T) {
	tests := []struct {
		in   int
		want int
	}{
		{-5, 0},
		{0, 0},
		{100, 100},
		{130, 100},
	}
	for _, tt := range tests {
		store := NewStore()
		store.Merge(Partial{Volume: ptr(tt.in)})
		if got := store.Snapshot().Volume; got != tt.want {
			t.Errorf("Merge volume %d = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestStore_Merge_NowPlaying(t *testing.T) {
	store := NewStore()

	if !store.Merge(Partial{NowPlaying: json.RawMessage(`{"title":"Dune"}`)}) {
		t.Fatal("setting nowPlaying should change state")
	}
	if got := store.Snapshot().NowPlaying; !bytes.Equal(got, []byte(`{"title":"Dune"}`)) {
		t.Errorf("NowPlaying = %s", got)
	}

	// A partial descriptor replaces the whole value, it does not deep-merge.
	store.Merge(Partial{NowPlaying: json.RawMessage(`{"service":"max"}`)})
	if got := store.Snapshot().NowPlaying; !bytes.Equal(got, []byte(`{"service":"max"}`)) {
		t.Errorf("NowPlaying after replace = %s", got)
	}

	// Explicit null clears it.
	if !store.Merge(Partial{NowPlaying: json.RawMessage(`null`)}) {
		t.Error("clearing nowPlaying should change state")
	}
	if got := store.Snapshot().NowPlaying; got != nil {
		t.Errorf("NowPlaying after null = %s, want nil", got)
	}
}

func TestStore_Merge_FromWireJSON(t *testing.T) {
	store := NewStore()

	var partial Partial
	raw := []byte(`{"power":"on","volume":65,"nowPlaying":{"title":"Severance","service":"appletv"}}`)
	if err := json.Unmarshal(raw, &partial); err != nil {
		t.Fatalf("Unmarshal partial error: %v", err)
	}
	if !store.Merge(partial) {
		t.Fatal("wire merge should change state")
	}

	got := store.Snapshot()
	if got.Power != PowerOn || got.Volume != 65 {
		t.Errorf("Snapshot = %+v", got)
	}
	if !bytes.Contains(got.NowPlaying, []byte("Severance")) {
		t.Errorf("NowPlaying = %s", got.NowPlaying)
	}
}

func TestStore_Snapshot_Isolated(t *testing.T) {
	store := NewStore()
	store.Merge(Partial{NowPlaying: json.RawMessage(`{"title":"Dune"}`)})

	snap := store.Snapshot()
	snap.NowPlaying[2] = 'X'
	snap.Volume = 99

	fresh := store.Snapshot()
	if !bytes.Equal(fresh.NowPlaying, []byte(`{"title":"Dune"}`)) {
		t.Error("mutating a snapshot should not affect the store")
	}
	if fresh.Volume != 50 {
		t.Errorf("Volume = %d, want 50", fresh.Volume)
	}
}
