package utils

import "unicode"

// CapitalPositions returns the rune positions of upper case letters in s.
func CapitalPositions(s string) []int {
	var positions []int
	i := 0
	for _, r := range s {
		if unicode.IsUpper(r) {
			positions = append(positions, i)
		}
		i++
	}
	return positions
}

// ApplyCapitals upper cases word at the given rune positions.
// Positions past the end of word are ignored.
func ApplyCapitals(word string, positions []int) string {
	if len(positions) == 0 {
		return word
	}
	runes := []rune(word)
	for _, pos := range positions {
		if pos < len(runes) {
			runes[pos] = unicode.ToUpper(runes[pos])
		}
	}
	return string(runes)
}
