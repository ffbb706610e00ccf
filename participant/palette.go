package participant

import (
	"fmt"
	"math/rand/v2"
	"sync"
)

// Palette is an ordered, fixed set of display colors.
type Palette []Color

// DefaultPalette holds the 11 colors assigned to participants.
var DefaultPalette = Palette{
	"#FFB6C1",
	"#87CEEB",
	"#7dd67d",
	"#FFD700",
	"#FFA07A",
	"#9370DB",
	"#3cfae7",
	"#FF4500",
	"#849324",
	"#FFB30F",
	"#820B8A",
}

// Validate reports an error for empty palettes, malformed colors or duplicates.
func (p Palette) Validate() error {
	if len(p) == 0 {
		return fmt.Errorf("participant: empty palette")
	}
	seen := make(map[Color]bool, len(p))
	for _, c := range p {
		if !c.Valid() {
			return fmt.Errorf("participant: invalid palette color %q", c)
		}
		if seen[c] {
			return fmt.Errorf("participant: duplicate palette color %q", c)
		}
		seen[c] = true
	}
	return nil
}

// Rand is the random source used to pick colors. *rand.Rand satisfies it.
type Rand interface {
	IntN(n int) int
}

// NewRand returns a Rand seeded with the given values.
func NewRand(seed1, seed2 uint64) Rand {
	return rand.New(rand.NewPCG(seed1, seed2))
}

// ColorAllocator hands out palette colors without repeating one until the
// whole palette has been used, at which point the used set is cleared.
//
// Colors are never returned to the pool when a participant is removed;
// only exhaustion recycles them.
type ColorAllocator struct {
	mu      sync.Mutex
	palette Palette
	used    map[Color]struct{}
	rnd     Rand
	cycle   int
}

// NewColorAllocator creates an allocator over palette. A nil rnd uses a
// randomly seeded source.
func NewColorAllocator(palette Palette, rnd Rand) *ColorAllocator {
	if rnd == nil {
		rnd = NewRand(rand.Uint64(), rand.Uint64())
	}
	return &ColorAllocator{
		palette: append(Palette(nil), palette...),
		used:    make(map[Color]struct{}, len(palette)),
		rnd:     rnd,
	}
}

// Allocate picks an unused color uniformly at random and marks it used.
func (a *ColorAllocator) Allocate() Color {
	a.mu.Lock()
	defer a.mu.Unlock()

	available := a.availableLocked()
	if len(available) == 0 {
		clear(a.used)
		a.cycle++
		available = a.palette
	}

	c := available[a.rnd.IntN(len(available))]
	a.used[c] = struct{}{}
	return c
}

// Available returns the colors not yet used in the current cycle, in
// palette order.
func (a *ColorAllocator) Available() []Color {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.availableLocked()
}

// Used returns the colors used in the current cycle, in palette order.
func (a *ColorAllocator) Used() []Color {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]Color, 0, len(a.used))
	for _, c := range a.palette {
		if _, ok := a.used[c]; ok {
			out = append(out, c)
		}
	}
	return out
}

// Cycle returns how many times the palette has been exhausted and reset.
func (a *ColorAllocator) Cycle() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cycle
}

func (a *ColorAllocator) availableLocked() []Color {
	out := make([]Color, 0, len(a.palette))
	for _, c := range a.palette {
		if _, ok := a.used[c]; !ok {
			out = append(out, c)
		}
	}
	return out
}
