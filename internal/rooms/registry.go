// Package rooms maps human-friendly room codes onto backing match IDs. The
// registry is injected into every consumer so lookups never go through
// package-level state.
package rooms

import (
	"errors"
	"math/rand"
	"sort"
	"sync"
)

const codeLength = 6

const codeAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

var (
	ErrRoomNotFound   = errors.New("room code not found")
	ErrCodesExhausted = errors.New("could not allocate a unique room code")
)

// Room is one registry entry.
type Room struct {
	Code    string `json:"code"`
	MatchID string `json:"match_id"`
}

// Registry allocates room codes and resolves them to match IDs. Safe for
// concurrent use.
type Registry struct {
	mu    sync.Mutex
	rng   *rand.Rand
	rooms map[string]string // code -> match ID
}

// NewRegistry builds an empty registry drawing codes from rng.
func NewRegistry(rng *rand.Rand) *Registry {
	return &Registry{
		rng:   rng,
		rooms: make(map[string]string),
	}
}

// Create allocates a fresh code for the given match ID.
func (r *Registry) Create(matchID string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Collisions are rare at this scale; a bounded retry keeps allocation
	// simple without risking an unbounded loop on a full table.
	for attempt := 0; attempt < 64; attempt++ {
		code := r.randomCode()
		if _, taken := r.rooms[code]; taken {
			continue
		}
		r.rooms[code] = matchID
		return code, nil
	}
	return "", ErrCodesExhausted
}

// Bind points an already-allocated code at a match ID.
func (r *Registry) Bind(code, matchID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.rooms[code]; !ok {
		return ErrRoomNotFound
	}
	r.rooms[code] = matchID
	return nil
}

// Resolve returns the match ID registered under code.
func (r *Registry) Resolve(code string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Reserved codes with no match bound yet resolve as missing.
	matchID, ok := r.rooms[code]
	if !ok || matchID == "" {
		return "", ErrRoomNotFound
	}
	return matchID, nil
}

// Remove drops a code once its match has ended.
func (r *Registry) Remove(code string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rooms, code)
}

// List returns a snapshot of all registered rooms, sorted by code.
func (r *Registry) List() []Room {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Room, 0, len(r.rooms))
	for code, matchID := range r.rooms {
		out = append(out, Room{Code: code, MatchID: matchID})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

func (r *Registry) randomCode() string {
	buf := make([]byte, codeLength)
	for i := range buf {
		buf[i] = codeAlphabet[r.rng.Intn(len(codeAlphabet))]
	}
	return string(buf)
}
