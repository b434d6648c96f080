package todo

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"pgregory.net/rapid"

	"github.com/idilsaglam/tada/internal/model"
	"github.com/idilsaglam/tada/internal/store"
)

// =============================================================================
// Generators
// =============================================================================

// textGenerator mixes readable text, arbitrary runes and raw bytes that
// need not be valid UTF-8.
func textGenerator() *rapid.Generator[string] {
	return rapid.OneOf(
		rapid.StringMatching(`[A-Za-z0-9 .,!?]{0,40}`),
		rapid.StringN(0, 40, -1),
		rapid.Map(rapid.SliceOfN(rapid.Byte(), 0, 40), func(b []byte) string { return string(b) }),
	)
}

func blankGenerator() *rapid.Generator[string] {
	return rapid.StringMatching(`[ \t\n]{0,8}`)
}

// clockGenerator returns a clock that may stand still or jump backwards,
// which the id rule must survive.
func clockGenerator(t *rapid.T) func() time.Time {
	steps := rapid.SliceOfN(rapid.Int64Range(-5, 5), 1, 20).Draw(t, "clockSteps")
	now := epoch.UnixMilli()
	i := 0
	return func() time.Time {
		now += steps[i%len(steps)]
		i++
		return time.UnixMilli(now)
	}
}

// drive applies a random sequence of operations to s.
func drive(t *rapid.T, s *Store) {
	n := rapid.IntRange(0, 40).Draw(t, "ops")
	for i := 0; i < n; i++ {
		items := s.Items()
		pick := func() int64 {
			if len(items) == 0 || rapid.Bool().Draw(t, "stale") {
				return rapid.Int64().Draw(t, "staleID")
			}
			return items[rapid.IntRange(0, len(items)-1).Draw(t, "idx")].ID
		}
		switch rapid.IntRange(0, 5).Draw(t, "op") {
		case 0, 1:
			_ = s.Create(textGenerator().Draw(t, "text"))
		case 2:
			s.Toggle(pick())
		case 3:
			s.Delete(pick())
		case 4:
			id := pick()
			s.StartEdit(id, "")
			s.SetEditText(textGenerator().Draw(t, "edit"))
			_ = s.SaveEdit(id)
		case 5:
			s.CancelEdit("")
		}
	}
}

// =============================================================================
// Properties
// =============================================================================

func TestIDsUnique_Properties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s := New(store.NewMemory(), WithClock(clockGenerator(t)))
		drive(t, s)
		seen := map[int64]bool{}
		for _, it := range s.Items() {
			if seen[it.ID] {
				t.Fatalf("duplicate id %d in %#v", it.ID, s.Items())
			}
			seen[it.ID] = true
		}
	})
}

func TestNoBlankText_Properties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s := New(store.NewMemory(), WithClock(clockGenerator(t)))
		drive(t, s)
		for _, it := range s.Items() {
			if strings.TrimSpace(it.Text) == "" || it.Text != strings.TrimSpace(it.Text) {
				t.Fatalf("item %d has untrimmed or blank text %q", it.ID, it.Text)
			}
		}
	})
}

func TestBlankCreateRejected_Properties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s := New(store.NewMemory(), WithClock(clockGenerator(t)))
		drive(t, s)
		before := s.Items()
		err := s.Create(blankGenerator().Draw(t, "blank"))
		if !IsKind(err, EmptyCreateText) {
			t.Fatalf("got %v, want EmptyCreateText", err)
		}
		if len(s.Items()) != len(before) {
			t.Fatalf("length changed from %d to %d", len(before), len(s.Items()))
		}
	})
}

func TestTogglePair_Properties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s := New(store.NewMemory(), WithClock(clockGenerator(t)))
		drive(t, s)
		if s.Len() == 0 {
			mustCreateRapid(t, s, "seed")
		}
		items := s.Items()
		it := items[rapid.IntRange(0, len(items)-1).Draw(t, "idx")]
		s.Toggle(it.ID)
		s.Toggle(it.ID)
		got, _ := s.Find(it.ID)
		if got != it {
			t.Fatalf("toggle pair changed item: %#v -> %#v", it, got)
		}
	})
}

func TestDeleteExactlyOne_Properties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s := New(store.NewMemory(), WithClock(clockGenerator(t)))
		drive(t, s)
		if s.Len() == 0 {
			mustCreateRapid(t, s, "seed")
		}
		before := s.Items()
		i := rapid.IntRange(0, len(before)-1).Draw(t, "idx")
		s.Delete(before[i].ID)

		after := s.Items()
		want := append(append([]model.Item{}, before[:i]...), before[i+1:]...)
		if len(after) != len(want) {
			t.Fatalf("length %d, want %d", len(after), len(want))
		}
		for j := range want {
			if after[j] != want[j] {
				t.Fatalf("item %d: %#v, want %#v", j, after[j], want[j])
			}
		}
	})
}

func TestDeleteMissing_Properties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		slot := store.NewMemory()
		s := New(slot, WithClock(clockGenerator(t)))
		drive(t, s)
		id := rapid.Int64().Draw(t, "id")
		if _, ok := s.Find(id); ok {
			return
		}
		before, _ := s.Export()
		storedBefore, _, _ := slot.Get(DefaultKey)
		s.Delete(id)
		after, _ := s.Export()
		storedAfter, _, _ := slot.Get(DefaultKey)
		if !bytes.Equal(before, after) || !bytes.Equal(storedBefore, storedAfter) {
			t.Fatalf("delete of missing id %d changed state", id)
		}
	})
}

func TestRoundTrip_Properties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		slot := store.NewMemory()
		s := New(slot, WithClock(clockGenerator(t)))
		drive(t, s)

		fresh := New(slot)
		a, b := s.Items(), fresh.Items()
		if len(a) != len(b) {
			t.Fatalf("hydrated %d items, want %d", len(b), len(a))
		}
		for i := range a {
			if a[i] != b[i] {
				t.Fatalf("item %d: %#v, want %#v", i, b[i], a[i])
			}
		}
	})
}

func mustCreateRapid(t *rapid.T, s *Store, text string) {
	if err := s.Create(text); err != nil {
		t.Fatalf("Create(%q): %v", text, err)
	}
}
