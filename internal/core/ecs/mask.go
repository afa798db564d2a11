package ecs

import (
	"fmt"
	"strings"
)

const (
	bitsPerWord = 32
	// DefaultCapacity is the number of category bits a mask holds before growing.
	DefaultCapacity = 64
	defaultWords    = DefaultCapacity / bitsPerWord
)

// Mask is a set of category bits. Bit i set means category i is present.
// Words missing from the tail are treated as zero.
type Mask struct {
	words []uint32
}

// Categorized is anything that carries a category mask: kinds, component
// instances, entities and masks themselves.
type Categorized interface {
	Category() Mask
}

// NewMask returns an all-zero mask with the given bits set.
func NewMask(bits ...int) Mask {
	m := Mask{words: make([]uint32, defaultWords)}
	for _, b := range bits {
		m.set(b)
	}
	return m
}

// MaskOf folds the categories of items into one union mask.
func MaskOf[T Categorized](items ...T) Mask {
	m := NewMask()
	for _, it := range items {
		m.AddBits(it.Category())
	}
	return m
}

// Category lets a mask be folded by MaskOf like any other categorized value.
func (m Mask) Category() Mask { return m }

func (m *Mask) set(bit int) {
	if bit < 0 {
		panic(fmt.Sprintf("ecs: negative category bit %d", bit))
	}
	w := bit / bitsPerWord
	m.grow(w + 1)
	m.words[w] |= 1 << uint(bit%bitsPerWord)
}

func (m *Mask) grow(n int) {
	if len(m.words) >= n {
		return
	}
	nw := make([]uint32, n)
	copy(nw, m.words)
	m.words = nw
}

// AddBits ORs other into m.
func (m *Mask) AddBits(other Mask) *Mask {
	m.grow(len(other.words))
	for i, w := range other.words {
		m.words[i] |= w
	}
	return m
}

// RemoveBits clears every bit of other from m.
func (m *Mask) RemoveBits(other Mask) *Mask {
	n := min(len(m.words), len(other.words))
	for i := 0; i < n; i++ {
		m.words[i] &^= other.words[i]
	}
	return m
}

// HasBits reports whether every bit set in other is also set in m.
func (m Mask) HasBits(other Mask) bool {
	for i, w := range other.words {
		var mine uint32
		if i < len(m.words) {
			mine = m.words[i]
		}
		if mine&w != w {
			return false
		}
	}
	return true
}

// HasBit reports whether a single category bit is set.
func (m Mask) HasBit(bit int) bool {
	w := bit / bitsPerWord
	if bit < 0 || w >= len(m.words) {
		return false
	}
	return m.words[w]&(1<<uint(bit%bitsPerWord)) != 0
}

// IsZero reports whether no bit is set.
func (m Mask) IsZero() bool {
	for _, w := range m.words {
		if w != 0 {
			return false
		}
	}
	return true
}

// Equal compares bit patterns, ignoring trailing zero words.
func (m Mask) Equal(other Mask) bool {
	return m.HasBits(other) && other.HasBits(m)
}

// Clone returns an independent copy of m.
func (m Mask) Clone() Mask {
	c := Mask{words: make([]uint32, max(len(m.words), defaultWords))}
	copy(c.words, m.words)
	return c
}

// Bits lists the set bit indices in ascending order.
func (m Mask) Bits() []int {
	var out []int
	for i, w := range m.words {
		for b := 0; b < bitsPerWord; b++ {
			if w&(1<<uint(b)) != 0 {
				out = append(out, i*bitsPerWord+b)
			}
		}
	}
	return out
}

func (m Mask) String() string {
	var sb strings.Builder
	for i := len(m.words) - 1; i >= 0; i-- {
		fmt.Fprintf(&sb, "%032b", m.words[i])
		if i > 0 {
			sb.WriteByte('_')
		}
	}
	return sb.String()
}
