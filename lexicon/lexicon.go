// Package lexicon holds the fixed word lists players are dealt from.
package lexicon

import (
	"math/rand/v2"
	"slices"
	"sync"
)

// DefaultCategory is used whenever a requested category is unknown.
const DefaultCategory = "Hayvanlar"

var categories = map[string][]string{
	"Hayvanlar":  {"Aslan", "Kaplan", "Fil", "Zürafa", "Kartal", "Balık", "Kedi", "Köpek", "At", "İnek"},
	"Yiyecekler": {"Pizza", "Hamburger", "Döner", "Lahmacun", "Kebap", "Pasta", "Dondurma", "Çikolata", "Elma", "Muz"},
	"Meslekler":  {"Doktor", "Öğretmen", "Mühendis", "Avukat", "Hemşire", "Polis", "İtfaiyeci", "Pilot", "Şoför", "Aşçı"},
	"Eşyalar":    {"Masa", "Sandalye", "Telefon", "Bilgisayar", "Kitap", "Kalem", "Çanta", "Saat", "Ayna", "Lamba"},
}

// Lexicon picks words uniformly at random. *rand.Rand is not safe for
// concurrent use, so draws are serialized.
type Lexicon struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// New returns a Lexicon drawing from rng.
func New(rng *rand.Rand) *Lexicon {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Lexicon{rng: rng}
}

// WordFor returns a random word from category together with the category
// the word was actually drawn from.
func (l *Lexicon) WordFor(category string) (word, resolved string) {
	words, ok := categories[category]
	if !ok {
		category = DefaultCategory
		words = categories[DefaultCategory]
	}

	l.mu.Lock()
	idx := l.rng.IntN(len(words))
	l.mu.Unlock()

	return words[idx], category
}

// Words returns a copy of the word list for category, or nil if unknown.
func Words(category string) []string {
	words, ok := categories[category]
	if !ok {
		return nil
	}
	return slices.Clone(words)
}

// Categories lists the known category names in sorted order.
func Categories() []string {
	names := make([]string, 0, len(categories))
	for name := range categories {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
