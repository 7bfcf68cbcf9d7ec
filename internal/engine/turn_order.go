package engine

// nextTurn applies the pass rule after mover has played. It returns the
// player to move next, whether the opponent was skipped, and whether the game
// has ended. The checks run in this order on every accepted move.
func nextTurn(b *Board, mover Cell) (next Cell, passed, over bool) {
	opp := mover.Opposite()
	if b.CanPlay(opp) {
		return opp, false, false
	}
	if b.CanPlay(mover) {
		return mover, true, false
	}
	return Empty, false, true
}
