package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Validator Tests ---

func TestValidateUsername(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
		errMsg  string
	}{
		{"valid", "alice", "alice", false, ""},
		{"valid with digits", "bob99", "bob99", false, ""},
		{"valid with separators", "a_b.c-d", "a_b.c-d", false, ""},
		{"trims whitespace", "  carol  ", "carol", false, ""},
		{"minimum length", "abc", "abc", false, ""},
		{"empty", "", "", true, "at least 3"},
		{"too short", "ab", "", true, "at least 3"},
		{"whitespace only", "   ", "", true, "at least 3"},
		{"too short after trim", " ab ", "", true, "at least 3"},
		{"too long", "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", "", true, "at most 32"},
		{"inner space", "al ice", "", true, "letters, digits"},
		{"emoji", "alice🎰", "", true, "letters, digits"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateUsername(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestNormalizeBetNums(t *testing.T) {
	tests := []struct {
		name    string
		in      []int32
		want    []int32
		wantErr bool
		errMsg  string
	}{
		{"four ascending", []int32{1, 2, 3, 4}, []int32{1, 2, 3, 4}, false, ""},
		{"sorts", []int32{19, 3, 7, 12}, []int32{3, 7, 12, 19}, false, ""},
		{"dedups then sorts", []int32{5, 5, 9, 2, 9, 14}, []int32{2, 5, 9, 14}, false, ""},
		{"eight numbers ok", []int32{1, 2, 3, 4, 5, 6, 7, 8}, []int32{1, 2, 3, 4, 5, 6, 7, 8}, false, ""},
		{"boundaries", []int32{1, 20, 10, 2}, []int32{1, 2, 10, 20}, false, ""},
		{"empty", nil, nil, true, "4 to 8 distinct"},
		{"three after dedup", []int32{4, 4, 5, 6}, nil, true, "4 to 8 distinct"},
		{"nine distinct", []int32{1, 2, 3, 4, 5, 6, 7, 8, 9}, nil, true, "4 to 8 distinct"},
		{"zero", []int32{0, 2, 3, 4}, nil, true, "between 1 and 20"},
		{"over twenty", []int32{2, 3, 4, 21}, nil, true, "between 1 and 20"},
		{"negative", []int32{-3, 2, 3, 4}, nil, true, "between 1 and 20"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeBetNums(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestValidateChance(t *testing.T) {
	for c := int32(1); c <= 5; c++ {
		assert.NoError(t, ValidateChance(c))
	}
	assert.Error(t, ValidateChance(0))
	assert.Error(t, ValidateChance(6))
	assert.Error(t, ValidateChance(-1))
}

func TestValidateStake(t *testing.T) {
	assert.NoError(t, ValidateStake(1))
	assert.NoError(t, ValidateStake(999_999_999))
	assert.Error(t, ValidateStake(0))
	assert.Error(t, ValidateStake(-10))
}

func TestValidateGiftCodeFormat(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		wantErr bool
	}{
		{"valid", "ABCDEFGHJKLM", false},
		{"valid with digits", "A2B3C4D5E6F7", false},
		{"all digits", "234567892345", false},
		{"empty", "", true},
		{"too short", "ABCDEFGHJKL", true},
		{"too long", "ABCDEFGHJKLMN", true},
		{"lowercase", "abcdefghjklm", true},
		{"contains O", "OBCDEFGHJKLM", true},
		{"contains zero", "0BCDEFGHJKLM", true},
		{"contains I", "IBCDEFGHJKLM", true},
		{"contains one", "1BCDEFGHJKLM", true},
		{"contains dash", "ABCD-FGHJKLM", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateGiftCodeFormat(tt.code)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "invalid code format")
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestGiftCodeAlphabetMatchesFormat(t *testing.T) {
	require.Len(t, GiftCodeAlphabet, 32)
	for _, r := range GiftCodeAlphabet {
		code := ""
		for i := 0; i < GiftCodeLength; i++ {
			code += string(r)
		}
		assert.NoError(t, ValidateGiftCodeFormat(code), "alphabet char %c must be accepted", r)
	}
	for _, bad := range []string{"O", "0", "I", "1"} {
		assert.NotContains(t, GiftCodeAlphabet, bad)
	}
}

// --- Type Tests ---

func TestFormatChoice(t *testing.T) {
	assert.Equal(t, "3-7-12-19#5", FormatChoice([]int32{3, 7, 12, 19}, 5))
	assert.Equal(t, "1-2-3-4-5-6-7-8#1", FormatChoice([]int32{1, 2, 3, 4, 5, 6, 7, 8}, 1))
}

func TestValidPlayerStatus(t *testing.T) {
	assert.True(t, ValidPlayerStatus(PlayerActive))
	assert.True(t, ValidPlayerStatus(PlayerSuspended))
	assert.False(t, ValidPlayerStatus("BANNED"))
	assert.False(t, ValidPlayerStatus(""))
}

func TestGiftCodeExpired(t *testing.T) {
	now := time.Now()

	t.Run("no expiry never expires", func(t *testing.T) {
		g := &GiftCode{}
		assert.False(t, g.Expired(now))
	})

	t.Run("future expiry", func(t *testing.T) {
		exp := now.Add(time.Hour)
		g := &GiftCode{ExpiresAt: &exp}
		assert.False(t, g.Expired(now))
	})

	t.Run("past expiry", func(t *testing.T) {
		exp := now.Add(-time.Second)
		g := &GiftCode{ExpiresAt: &exp}
		assert.True(t, g.Expired(now))
	})

	t.Run("exact boundary counts as expired", func(t *testing.T) {
		exp := now
		g := &GiftCode{ExpiresAt: &exp}
		assert.True(t, g.Expired(now))
	})
}

// --- Error Tests ---

func TestAppErrorConstructors(t *testing.T) {
	tests := []struct {
		name       string
		err        *AppError
		wantCode   string
		wantStatus int
	}{
		{"ErrNotFound", ErrNotFound("player", "123"), "NOT_FOUND", 404},
		{"ErrConflict", ErrConflict("bets closed"), "CONFLICT", 409},
		{"ErrValidation", ErrValidation("bad input"), "VALIDATION_ERROR", 400},
		{"ErrUnauthorized", ErrUnauthorized("nope"), "UNAUTHORIZED", 401},
		{"ErrForbidden", ErrForbidden("Forbidden"), "FORBIDDEN", 403},
		{"ErrInsufficientBalance", ErrInsufficientBalance(10, 25), "INSUFFICIENT_BALANCE", 409},
		{"ErrTooManyRequests", ErrTooManyRequests(42), "RATE_LIMITED", 429},
		{"ErrConfig", ErrConfig("seed too short"), "CONFIG_ERROR", 500},
		{"ErrInternal", ErrInternal("boom", nil), "INTERNAL_ERROR", 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantCode, tt.err.Code)
			assert.Equal(t, tt.wantStatus, tt.err.Status)
			assert.NotEmpty(t, tt.err.Message)
		})
	}
}

func TestAppErrorDetails(t *testing.T) {
	err := ErrInsufficientBalance(10, 25)
	require.NotNil(t, err.Details)
	assert.Equal(t, int64(10), err.Details["balance"])
	assert.Equal(t, int64(25), err.Details["required"])

	rl := ErrTooManyRequests(17)
	assert.Equal(t, int64(17), rl.Details["retryAfterSec"])

	withExtra := ErrConflict("round not finished").WithDetails(map[string]any{"roundId": int64(9), "secondsLeft": int64(3)})
	assert.Equal(t, int64(9), withExtra.Details["roundId"])
}

func TestAppErrorUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := ErrInternal("query failed", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "INTERNAL_ERROR")
	assert.Contains(t, err.Error(), "connection refused")

	var appErr *AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, 500, appErr.Status)
}
