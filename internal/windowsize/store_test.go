package windowsize

import (
	"math/rand/v2"
	"sort"
	"testing"

	"go.yaml.in/yaml/v3"
)

func assertSorted(t *testing.T, records []Record) {
	t.Helper()
	if !sort.SliceIsSorted(records, func(i, j int) bool { return less(records[i], records[j]) }) {
		t.Fatalf("records not sorted by (name, title): %+v", records)
	}
}

func TestNewStoreSortsRecords(t *testing.T) {
	s := NewStore([]Record{
		{Name: "notepad.exe", Title: "b"},
		{Name: "calc.exe", Title: "*"},
		{Name: "notepad.exe", Title: "*"},
		{Name: "Zed.exe", Title: "x"},
	})

	got := s.Records()
	want := []string{"Zed.exe|x", "calc.exe|*", "notepad.exe|*", "notepad.exe|b"}
	if len(got) != len(want) {
		t.Fatalf("Len() = %d, want %d", len(got), len(want))
	}
	for i, r := range got {
		if key := r.Name + "|" + r.Title; key != want[i] {
			t.Errorf("record[%d] = %q, want %q", i, key, want[i])
		}
	}
}

func TestNewStoreCopiesInput(t *testing.T) {
	input := []Record{{Name: "a.exe", Title: "*"}}
	s := NewStore(input)
	input[0].Title = "changed"

	if got := s.Records()[0].Title; got != "*" {
		t.Fatalf("store record title = %q, want %q", got, "*")
	}
}

func TestStoreInsertPreservesOrder(t *testing.T) {
	keys := []Record{
		{Name: "a.exe", Title: "*"},
		{Name: "a.exe", Title: "Doc"},
		{Name: "a.exe", Title: "Doc*"},
		{Name: "b.exe", Title: ""},
		{Name: "b.exe", Title: "*"},
		{Name: "c.exe", Title: "*Settings"},
		{Name: "C.exe", Title: "x"},
	}
	rng := rand.New(rand.NewPCG(1, 2))
	for round := 0; round < 20; round++ {
		shuffled := append([]Record(nil), keys...)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

		s := NewStore(nil)
		for _, r := range shuffled {
			s.Insert(r)
		}
		if s.Len() != len(keys) {
			t.Fatalf("round %d: Len() = %d, want %d", round, s.Len(), len(keys))
		}
		assertSorted(t, s.Records())
	}
}

func TestStoreInsertReturnsLivePointer(t *testing.T) {
	s := NewStore([]Record{{Name: "b.exe", Title: "*"}})
	stored := s.Insert(Record{Name: "a.exe", Title: "*"})
	stored.Rect = Rect{Right: 10, Bottom: 10}

	if got := s.Records()[0].Rect; got != (Rect{Right: 10, Bottom: 10}) {
		t.Fatalf("Records()[0].Rect = %v, want updated rect", got)
	}
}

func TestStoreInsertEqualKeyGoesLast(t *testing.T) {
	s := NewStore([]Record{{Name: "a.exe", Title: "*", AutoResize: true}})
	s.Insert(Record{Name: "a.exe", Title: "*"})

	got := s.Records()
	if !got[0].AutoResize || got[1].AutoResize {
		t.Fatalf("equal keys reordered: %+v", got)
	}
}

func TestRectValid(t *testing.T) {
	tests := []struct {
		name string
		rect Rect
		want bool
	}{
		{name: "zero", rect: Rect{}, want: true},
		{name: "normal", rect: Rect{Left: 10, Top: 10, Right: 410, Bottom: 610}, want: true},
		{name: "negative origin", rect: Rect{Left: -1920, Top: 0, Right: -100, Bottom: 900}, want: true},
		{name: "inverted horizontally", rect: Rect{Left: 100, Right: 0, Bottom: 10}, want: false},
		{name: "inverted vertically", rect: Rect{Right: 10, Top: 50, Bottom: 0}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.rect.Valid(); got != tt.want {
				t.Fatalf("%v.Valid() = %v, want %v", tt.rect, got, tt.want)
			}
		})
	}
}

func TestParseState(t *testing.T) {
	tests := []struct {
		raw     string
		want    State
		wantErr bool
	}{
		{raw: "normal", want: StateNormal},
		{raw: "Maximized", want: StateMaximized},
		{raw: " MINIMIZED ", want: StateMinimized},
		{raw: "", want: StateNormal},
		{raw: "fullscreen", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseState(tt.raw)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseState(%q) expected error", tt.raw)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseState(%q) error = %v", tt.raw, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseState(%q) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}

func TestRecordYAMLUsesStateNames(t *testing.T) {
	raw, err := yaml.Marshal(Record{Name: "calc.exe", Title: "*", State: StateMaximized})
	if err != nil {
		t.Fatalf("yaml.Marshal error = %v", err)
	}
	var decoded map[string]any
	if err := yaml.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("yaml.Unmarshal error = %v", err)
	}
	if decoded["state"] != "maximized" {
		t.Fatalf("state = %v, want %q", decoded["state"], "maximized")
	}

	var r Record
	if err := yaml.Unmarshal([]byte("name: a.exe\ntitle: x\nstate: bogus\n"), &r); err == nil {
		t.Fatal("expected error for unknown state")
	}
}
