package state

import (
	"errors"
	"reflect"
	"testing"

	"github.com/desertthunder/ytplay/internal/storage"
)

type sample struct {
	Name  string   `json:"name"`
	Count int      `json:"count"`
	Tags  []string `json:"tags"`
}

type samplePatch struct {
	Name  *string
	Count *int
	Tags  *[]string
}

func (p samplePatch) Apply(s sample) sample {
	if p.Name != nil {
		s.Name = *p.Name
	}
	if p.Count != nil {
		s.Count = *p.Count
	}
	if p.Tags != nil {
		s.Tags = *p.Tags
	}
	return s
}

func wholeSample(s sample) samplePatch {
	return samplePatch{Name: &s.Name, Count: &s.Count, Tags: &s.Tags}
}

func ptr[T any](v T) *T { return &v }

type failingStore struct{ getErr, setErr error }

func (f failingStore) Get(string) (string, bool, error) { return "", false, f.getErr }
func (f failingStore) Set(string, string) error         { return f.setErr }
func (f failingStore) Remove(string) error              { return f.setErr }

func newSample(store Store) *Container[sample, samplePatch] {
	return New(sample{Name: "init", Count: 1}, Options[sample, samplePatch]{
		Key:   "sample",
		Store: store,
		Whole: wholeSample,
	})
}

func TestContainer(t *testing.T) {
	t.Run("sequence of SetState equals shallow merge in order", func(t *testing.T) {
		c := newSample(nil)
		c.SetState(samplePatch{Name: ptr("a")})
		c.SetState(samplePatch{Count: ptr(5)})
		c.SetState(samplePatch{Name: ptr("b"), Tags: ptr([]string{"x"})})

		want := sample{Name: "b", Count: 5, Tags: []string{"x"}}
		if got := c.State(); !reflect.DeepEqual(got, want) {
			t.Errorf("State() = %+v, want %+v", got, want)
		}
	})

	t.Run("State returns a copy", func(t *testing.T) {
		c := newSample(nil)
		s := c.State()
		s.Name = "mutated"
		if c.State().Name != "init" {
			t.Error("mutating the returned value changed internal state")
		}
	})

	t.Run("StateChanged payload satisfies New == Apply(Old)", func(t *testing.T) {
		c := newSample(nil)
		var got []Change[sample, samplePatch]
		c.Subscribe(func(ch Change[sample, samplePatch]) { got = append(got, ch) })

		c.SetState(samplePatch{Count: ptr(9)})
		c.ReplaceState(sample{Name: "r", Count: 2})

		if len(got) != 2 {
			t.Fatalf("expected 2 events, got %d", len(got))
		}
		for i, ch := range got {
			if !reflect.DeepEqual(ch.New, ch.Changes.Apply(ch.Old)) {
				t.Errorf("event %d: New %+v != Apply(Old) %+v", i, ch.New, ch.Changes.Apply(ch.Old))
			}
		}
		if got[1].Changes.Name == nil || got[1].Changes.Count == nil || got[1].Changes.Tags == nil {
			t.Error("ReplaceState should report every field as changed")
		}
	})

	t.Run("unsubscribe stops delivery", func(t *testing.T) {
		c := newSample(nil)
		calls := 0
		unsubscribe := c.Subscribe(func(Change[sample, samplePatch]) { calls++ })

		c.SetState(samplePatch{Count: ptr(2)})
		unsubscribe()
		unsubscribe()
		c.SetState(samplePatch{Count: ptr(3)})
		c.ReplaceState(sample{})

		if calls != 1 {
			t.Errorf("expected 1 delivery before unsubscribe, got %d", calls)
		}
	})

	t.Run("persisted fields win over initial", func(t *testing.T) {
		store := storage.NewMemoryStore()
		if err := store.Set("sample", `{"name":"saved"}`); err != nil {
			t.Fatalf("Set() error = %v", err)
		}

		c := newSample(store)
		want := sample{Name: "saved", Count: 1}
		if got := c.State(); !reflect.DeepEqual(got, want) {
			t.Errorf("State() = %+v, want %+v", got, want)
		}
	})

	t.Run("malformed persisted data falls back to initial", func(t *testing.T) {
		store := storage.NewMemoryStore()
		store.Set("sample", `{"name":`)

		c := newSample(store)
		if got := c.State(); got.Name != "init" || got.Count != 1 {
			t.Errorf("expected initial value, got %+v", got)
		}
	})

	t.Run("a mistyped field keeps the rest of the persisted data", func(t *testing.T) {
		store := storage.NewMemoryStore()
		store.Set("sample", `{"name":"saved","count":"many"}`)

		c := newSample(store)
		if got := c.State(); got.Name != "saved" || got.Count != 1 {
			t.Errorf("expected saved name and initial count, got %+v", got)
		}
	})

	t.Run("Sanitize repairs loaded fields", func(t *testing.T) {
		store := storage.NewMemoryStore()
		store.Set("sample", `{"name":"saved","count":-4}`)

		c := New(sample{Name: "init", Count: 1}, Options[sample, samplePatch]{
			Key:   "sample",
			Store: store,
			Sanitize: func(loaded, initial sample) sample {
				if loaded.Count < 0 {
					loaded.Count = initial.Count
				}
				return loaded
			},
		})

		if got := c.State(); got.Name != "saved" || got.Count != 1 {
			t.Errorf("expected sanitized value, got %+v", got)
		}
	})

	t.Run("mutations are persisted", func(t *testing.T) {
		store := storage.NewMemoryStore()
		c := newSample(store)
		c.SetState(samplePatch{Name: ptr("next")})

		reloaded := newSample(store)
		if reloaded.State().Name != "next" {
			t.Errorf("expected reloaded name next, got %s", reloaded.State().Name)
		}

		c.Clear()
		if _, ok, _ := store.Get("sample"); ok {
			t.Error("expected Clear to remove the persisted copy")
		}
	})

	t.Run("storage failures never interrupt mutations", func(t *testing.T) {
		boom := errors.New("quota exceeded")
		c := newSample(failingStore{getErr: boom, setErr: boom})

		c.SetState(samplePatch{Count: ptr(7)})
		if c.State().Count != 7 {
			t.Errorf("expected in-memory mutation to succeed, got %+v", c.State())
		}
	})

	t.Run("panicking subscriber does not break SetState", func(t *testing.T) {
		c := newSample(nil)
		c.Subscribe(func(Change[sample, samplePatch]) { panic("render failed") })
		seen := false
		c.Subscribe(func(Change[sample, samplePatch]) { seen = true })

		c.SetState(samplePatch{Count: ptr(2)})
		if !seen || c.State().Count != 2 {
			t.Error("expected second subscriber and mutation to go through")
		}
	})
}
