package engine

// CountFaceKeys returns how many cards carry each face key
func CountFaceKeys(cards []Card) map[int]int {
	counts := make(map[int]int, len(cards)/2)
	for _, c := range cards {
		counts[c.FaceKey]++
	}
	return counts
}

// RemainingPairs returns the number of pairs not yet found
func RemainingPairs(state *GameState) int {
	return state.TotalPairs - state.MatchedPairs
}

// FaceDownCards returns the ids of cards that can still be revealed
func FaceDownCards(state *GameState) []int {
	var ids []int
	for _, c := range state.Cards {
		if !c.Matched && !c.Revealed {
			ids = append(ids, c.ID)
		}
	}
	return ids
}

// BoardRows splits the deck into rows of the given width, in layout order
func BoardRows(cards []Card, columns int) [][]Card {
	if columns <= 0 {
		columns = len(cards)
	}
	var rows [][]Card
	for start := 0; start < len(cards); start += columns {
		end := start + columns
		if end > len(cards) {
			end = len(cards)
		}
		rows = append(rows, cards[start:end])
	}
	return rows
}

// CardPosition returns the row and column of a card in the layout
func CardPosition(state *GameState, id, columns int) (row, col int, ok bool) {
	if columns <= 0 {
		return 0, 0, false
	}
	idx := state.cardIndex(id)
	if idx < 0 {
		return 0, 0, false
	}
	return idx / columns, idx % columns, true
}
