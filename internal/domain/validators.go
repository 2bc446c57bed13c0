package domain

import "fmt"

// ValidatePositiveAmount checks that an amount is positive (minor units).
func ValidatePositiveAmount(amount int64) error {
	if amount <= 0 {
		return ErrValidation(fmt.Sprintf("amount must be positive, got %d", amount))
	}
	return nil
}

// ValidateSelections checks every selection against the game's board shape:
// exact cardinality, numbers within [1, MaxNumber], no duplicates within one
// selection. The returned error names the first offending selection.
func ValidateSelections(game *Game, selections [][]int32) error {
	if len(selections) == 0 {
		return ErrValidation("at least one selection is required")
	}
	for i, sel := range selections {
		if err := validateNumberSet(game, sel); err != nil {
			return ErrInvalidSelection(i, err.Error())
		}
	}
	return nil
}

// ValidateWinningNumbers checks a winning sequence against the same board
// shape rules as a selection.
func ValidateWinningNumbers(game *Game, numbers []int32) error {
	if err := validateNumberSet(game, numbers); err != nil {
		return ErrValidation(fmt.Sprintf("winning numbers: %s", err))
	}
	return nil
}

func validateNumberSet(game *Game, numbers []int32) error {
	if len(numbers) != game.NumbersPerBoard {
		return fmt.Errorf("expected %d numbers, got %d", game.NumbersPerBoard, len(numbers))
	}
	seen := make(map[int32]bool, len(numbers))
	for _, n := range numbers {
		if n < 1 || n > int32(game.MaxNumber) {
			return fmt.Errorf("number %d out of range [1, %d]", n, game.MaxNumber)
		}
		if seen[n] {
			return fmt.Errorf("duplicate number %d", n)
		}
		seen[n] = true
	}
	return nil
}
