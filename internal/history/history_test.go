package history

import (
	"fmt"
	"testing"

	"github.com/hallvard/steward/internal/cmdexec"
)

func res(id string, code int) *cmdexec.Result {
	return &cmdexec.Result{ID: id, Command: "cmd " + id, ExitCode: code}
}

func TestLog_AppendOrder(t *testing.T) {
	l := NewLog(0)
	for i := 0; i < 5; i++ {
		l.Record(res(fmt.Sprintf("r%d", i), 0))
	}
	if l.Len() != 5 {
		t.Fatalf("Len() = %d, want 5", l.Len())
	}
	snap := l.Snapshot()
	for i, r := range snap {
		if want := fmt.Sprintf("r%d", i); r.ID != want {
			t.Errorf("snapshot[%d].ID = %q, want %q", i, r.ID, want)
		}
	}
}

func TestLog_Last(t *testing.T) {
	l := NewLog(0)
	if _, ok := l.Last(); ok {
		t.Error("Last() on empty log reported a result")
	}
	l.Record(res("a", 0))
	l.Record(res("b", 1))
	last, ok := l.Last()
	if !ok || last.ID != "b" {
		t.Errorf("Last() = %v, %v, want result b", last, ok)
	}
}

func TestLog_RingEviction(t *testing.T) {
	l := NewLog(3)
	for i := 0; i < 5; i++ {
		l.Record(res(fmt.Sprintf("r%d", i), 0))
	}
	if l.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", l.Len())
	}
	snap := l.Snapshot()
	if snap[0].ID != "r2" || snap[2].ID != "r4" {
		t.Errorf("retained %q..%q, want r2..r4", snap[0].ID, snap[2].ID)
	}
}

func TestLog_Tail(t *testing.T) {
	l := NewLog(0)
	for i := 0; i < 4; i++ {
		l.Record(res(fmt.Sprintf("r%d", i), 0))
	}
	tail := l.Tail(2)
	if len(tail) != 2 || tail[0].ID != "r2" || tail[1].ID != "r3" {
		t.Errorf("Tail(2) = %v, want [r2 r3]", tail)
	}
	if got := l.Tail(0); len(got) != 4 {
		t.Errorf("Tail(0) length = %d, want 4", len(got))
	}
	if got := l.Tail(10); len(got) != 4 {
		t.Errorf("Tail(10) length = %d, want 4", len(got))
	}
}

func TestLog_SnapshotIsACopy(t *testing.T) {
	l := NewLog(0)
	l.Record(res("a", 0))
	snap := l.Snapshot()
	snap[0] = res("tampered", 1)
	if got := l.Snapshot()[0].ID; got != "a" {
		t.Errorf("log entry = %q after snapshot mutation, want 'a'", got)
	}
}

func TestLog_ClearAll(t *testing.T) {
	l := NewLog(0)
	l.Record(res("a", 0))
	l.Record(res("b", 0))
	if n := l.ClearAll(); n != 2 {
		t.Errorf("ClearAll() = %d, want 2", n)
	}
	if l.Len() != 0 {
		t.Errorf("Len() = %d after clear, want 0", l.Len())
	}
}

func TestLog_Find(t *testing.T) {
	l := NewLog(0)
	l.Record(res("a", 0))
	l.Record(res("b", 1))
	r, ok := l.Find("a")
	if !ok || r.ID != "a" {
		t.Errorf("Find(a) = %v, %v", r, ok)
	}
	if _, ok := l.Find("zzz"); ok {
		t.Error("Find(zzz) reported a result")
	}
}

func TestArchive_SaveLoad(t *testing.T) {
	a := NewArchive(t.TempDir())
	want := res("abc", 2)
	if err := a.Save(want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := a.Load("abc")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.ID != "abc" || got.ExitCode != 2 || got.Success() {
		t.Errorf("loaded %+v, want exit code 2 failure", got)
	}
}

func TestArchive_LoadMissing(t *testing.T) {
	a := NewArchive(t.TempDir())
	if _, err := a.Load("nope"); err == nil {
		t.Error("expected error for missing result")
	}
}

func TestLog_ArchiveReceivesRecords(t *testing.T) {
	a := NewArchive(t.TempDir())
	l := NewLog(1)
	l.SetArchive(a)
	l.Record(res("old", 0))
	l.Record(res("new", 0)) // evicts "old" from the ring

	if _, ok := l.Find("old"); ok {
		t.Fatal("evicted entry still in ring")
	}
	got, err := a.Load("old")
	if err != nil {
		t.Fatalf("evicted entry not in archive: %v", err)
	}
	if got.ID != "old" {
		t.Errorf("archive returned %q, want 'old'", got.ID)
	}
}

// countingStore wraps a Store and counts backing loads.
type countingStore struct {
	back  Store
	loads int
}

func (s *countingStore) Save(r *cmdexec.Result) error { return s.back.Save(r) }

func (s *countingStore) Load(id string) (*cmdexec.Result, error) {
	s.loads++
	return s.back.Load(id)
}

func TestCachedStore_HitAvoidsBackingLoad(t *testing.T) {
	counting := &countingStore{back: NewArchive(t.TempDir())}
	c := NewCachedStore(2, counting)

	if err := c.Save(res("a", 0)); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Load("a"); err != nil {
		t.Fatal(err)
	}
	if counting.loads != 0 {
		t.Errorf("backing loads = %d, want 0 (cache hit)", counting.loads)
	}
}

func TestCachedStore_EvictionFallsBackToStore(t *testing.T) {
	counting := &countingStore{back: NewArchive(t.TempDir())}
	c := NewCachedStore(1, counting)

	if err := c.Save(res("a", 0)); err != nil {
		t.Fatal(err)
	}
	if err := c.Save(res("b", 0)); err != nil { // evicts "a"
		t.Fatal(err)
	}
	got, err := c.Load("a")
	if err != nil {
		t.Fatalf("Load after eviction: %v", err)
	}
	if got.ID != "a" {
		t.Errorf("loaded %q, want 'a'", got.ID)
	}
	if counting.loads != 1 {
		t.Errorf("backing loads = %d, want 1", counting.loads)
	}
}
