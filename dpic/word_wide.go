//go:build difftest_wide

package dpic

// Word carries data and address arguments across the boundary.
type Word = uint64

// WordBits is the width of Word.
const WordBits = 64
