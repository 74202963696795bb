package index

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cbegin/kson-go/internal/ksonio"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "index.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSummarize(t *testing.T) {
	path := filepath.Join("testdata", "charts", "good.kson")
	c, err := ksonio.LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	e := Summarize(path, c)
	if e.Title != "Good" || e.Artist != "A" || e.ChartAuthor != "C" || e.Difficulty != 1 || e.Level != 9 {
		t.Fatalf("meta fields = %+v", e)
	}
	if e.MinBPM != 120 || e.MaxBPM != 180 {
		t.Fatalf("bpm range = %v..%v", e.MinBPM, e.MaxBPM)
	}
	if e.Notes != 2 || e.LaserSections != 1 || e.CurvedSegments != 3 {
		t.Fatalf("counts = notes %d lasers %d curves %d", e.Notes, e.LaserSections, e.CurvedSegments)
	}
	if e.LastPulse != 960 || math.Abs(e.DurationMs-2000) > 1e-9 {
		t.Fatalf("last pulse %d duration %v", e.LastPulse, e.DurationMs)
	}
}

func TestStorePutGetList(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	b := Entry{Path: "b.kson", Title: "B", Level: 3, MaxBPM: 200, DurationMs: 1234.5}
	a := Entry{Path: "a.kson", Title: "A", Level: 1}
	for _, e := range []Entry{b, a} {
		if err := s.Put(ctx, e); err != nil {
			t.Fatalf("Put: %v", err)
		}
	}
	got, err := s.Get(ctx, "b.kson")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != b {
		t.Fatalf("Get = %+v, want %+v", got, b)
	}

	b.Title = "B (revised)"
	b.CurvedSegments = 7
	if err := s.Put(ctx, b); err != nil {
		t.Fatalf("Put update: %v", err)
	}
	list, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 || list[0].Path != "a.kson" || list[1] != b {
		t.Fatalf("List = %+v", list)
	}

	if _, err := s.Get(ctx, "missing.kson"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing entry err = %v", err)
	}
}

func TestIndexDir(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	n, err := IndexDir(ctx, s, filepath.Join("testdata", "charts"))
	if n != 2 {
		t.Fatalf("indexed %d charts, want 2", n)
	}
	if !errors.Is(err, ksonio.ErrMissingFormatVersion) || !strings.Contains(err.Error(), "broken.kson") {
		t.Fatalf("err = %v", err)
	}

	list, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 || list[0].Title != "Good" || list[1].Title != "Second" {
		t.Fatalf("List = %+v", list)
	}
	if list[1].DurationMs != 0 {
		t.Fatalf("chart without tempo should have no duration, got %v", list[1].DurationMs)
	}
}

func TestIndexDirCancelled(t *testing.T) {
	s := openStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := IndexDir(ctx, s, filepath.Join("testdata", "charts")); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if _, err := IndexDir(context.Background(), s, filepath.Join("testdata", "nope")); err == nil {
		t.Fatalf("missing directory must fail")
	}
}
