// internal/trivia/streak.go
package trivia

// NextStreak applies one answered event to a streak: a correct answer extends
// it, an incorrect one resets it. Best never decreases.
func NextStreak(current, best int, correct bool) (int, int) {
	next := 0
	if correct {
		next = current + 1
	}
	if next > best {
		best = next
	}
	return next, best
}
