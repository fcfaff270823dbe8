package domain

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

var (
	usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_.\-]+$`)
	giftCodeRegex = regexp.MustCompile(`^[A-HJ-NP-Z2-9]{12}$`)
)

// ValidateUsername checks a signup username. The caller passes the raw
// value; the returned string is the trimmed form to store.
func ValidateUsername(username string) (string, error) {
	u := strings.TrimSpace(username)
	if len(u) < 3 {
		return "", fmt.Errorf("username must be at least 3 characters")
	}
	if len(u) > 32 {
		return "", fmt.Errorf("username must be at most 32 characters")
	}
	if !usernameRegex.MatchString(u) {
		return "", fmt.Errorf("username may contain letters, digits, '_', '.', '-' only")
	}
	return u, nil
}

// NormalizeBetNums dedups and sorts a bet selection and validates the
// result: 4 to 8 distinct numbers, each in 1..20.
func NormalizeBetNums(nums []int32) ([]int32, error) {
	seen := make(map[int32]bool, len(nums))
	out := make([]int32, 0, len(nums))
	for _, n := range nums {
		if n < 1 || n > 20 {
			return nil, fmt.Errorf("numbers must be between 1 and 20, got %d", n)
		}
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	if len(out) < 4 || len(out) > 8 {
		return nil, fmt.Errorf("pick 4 to 8 distinct numbers, got %d", len(out))
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

// ValidateChance checks the chance number range.
func ValidateChance(chance int32) error {
	if chance < 1 || chance > 5 {
		return fmt.Errorf("chance must be between 1 and 5, got %d", chance)
	}
	return nil
}

// ValidateStake checks that a bet amount is a positive whole DOS value.
func ValidateStake(amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("amount must be positive, got %d", amount)
	}
	return nil
}

// ValidateGiftCodeFormat checks the plaintext gift code shape: exactly 12
// characters from the code alphabet (no O, 0, I, 1). Format failures are
// rejected before any database work.
func ValidateGiftCodeFormat(code string) error {
	if !giftCodeRegex.MatchString(code) {
		return fmt.Errorf("invalid code format")
	}
	return nil
}
