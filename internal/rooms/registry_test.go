package rooms

import (
	"math/rand"
	"testing"
)

func TestRegistryCreateAndResolve(t *testing.T) {
	r := NewRegistry(rand.New(rand.NewSource(1)))

	code, err := r.Create("match-1")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(code) != 6 {
		t.Fatalf("code %q has length %d, want 6", code, len(code))
	}

	matchID, err := r.Resolve(code)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if matchID != "match-1" {
		t.Fatalf("Resolve = %q, want match-1", matchID)
	}
}

func TestRegistryResolveUnknownCode(t *testing.T) {
	r := NewRegistry(rand.New(rand.NewSource(1)))
	if _, err := r.Resolve("ZZZZZZ"); err != ErrRoomNotFound {
		t.Fatalf("err = %v, want %v", err, ErrRoomNotFound)
	}
}

func TestRegistryCodesAreUnique(t *testing.T) {
	r := NewRegistry(rand.New(rand.NewSource(1)))

	seen := make(map[string]struct{})
	for i := 0; i < 500; i++ {
		code, err := r.Create("match")
		if err != nil {
			t.Fatalf("Create %d: %v", i, err)
		}
		if _, dup := seen[code]; dup {
			t.Fatalf("duplicate code %q", code)
		}
		seen[code] = struct{}{}
	}
}

func TestRegistryBind(t *testing.T) {
	r := NewRegistry(rand.New(rand.NewSource(2)))

	code, err := r.Create("")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	// A reserved code with no match yet must not resolve.
	if _, err := r.Resolve(code); err != ErrRoomNotFound {
		t.Fatalf("err before bind = %v, want %v", err, ErrRoomNotFound)
	}

	if err := r.Bind(code, "match-9"); err != nil {
		t.Fatalf("Bind: %v", err)
	}
	matchID, err := r.Resolve(code)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if matchID != "match-9" {
		t.Fatalf("Resolve = %q, want match-9", matchID)
	}

	if err := r.Bind("NOPE99", "match-9"); err != ErrRoomNotFound {
		t.Fatalf("Bind unknown code err = %v, want %v", err, ErrRoomNotFound)
	}
}

func TestRegistryRemove(t *testing.T) {
	r := NewRegistry(rand.New(rand.NewSource(1)))

	code, err := r.Create("match-1")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	r.Remove(code)
	if _, err := r.Resolve(code); err != ErrRoomNotFound {
		t.Fatalf("err after remove = %v, want %v", err, ErrRoomNotFound)
	}
}

func TestRegistryListSorted(t *testing.T) {
	r := NewRegistry(rand.New(rand.NewSource(3)))

	for i := 0; i < 5; i++ {
		if _, err := r.Create("match"); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	list := r.List()
	if len(list) != 5 {
		t.Fatalf("len = %d, want 5", len(list))
	}
	for i := 1; i < len(list); i++ {
		if list[i-1].Code >= list[i].Code {
			t.Fatalf("list not sorted: %v", list)
		}
	}
}
