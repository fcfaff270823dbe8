package rounds

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"sort"
	"strconv"

	"github.com/dosdraw/platform/internal/domain"
)

// Draw derivation constants. The domain prefix separates round outcomes
// from every other use of the server seed.
const (
	drawDomain   = "ddj:round:"
	MinSeedBytes = 16

	// Substitute state when the HMAC prefix is all zeroes; xorshift32 has
	// a fixed point at zero.
	zeroStateSubst uint32 = 0x9E3779B9
)

// ValidateSeed checks that the server seed is usable for outcome derivation
// and gift-code hashing.
func ValidateSeed(seed string) error {
	if len(seed) < MinSeedBytes {
		return domain.ErrConfig("server seed missing or too short")
	}
	return nil
}

// xorshift32 is the 13/17/5 Marsaglia generator. Deterministic for a given
// state and cheap enough to reseed per round.
type xorshift32 struct {
	state uint32
}

func (x *xorshift32) next() uint32 {
	s := x.state
	s ^= s << 13
	s ^= s >> 17
	s ^= s << 5
	x.state = s
	return s
}

// float64 returns the next value mapped to [0, 1).
func (x *xorshift32) float64() float64 {
	return float64(x.next()) / (1 << 32)
}

// Draw derives the outcome for a round: HMAC-SHA256 of the domain-prefixed
// round id under the server seed keys a xorshift32 stream, which picks four
// distinct main numbers in 1..20 (rejection sampling, sorted ascending) and
// one chance number in 1..5. Same seed and round id always produce the same
// outcome; wall-clock time is never an input.
func Draw(seed string, roundID int64) (domain.Outcome, error) {
	if err := ValidateSeed(seed); err != nil {
		return domain.Outcome{}, err
	}

	mac := hmac.New(sha256.New, []byte(seed))
	mac.Write([]byte(drawDomain + strconv.FormatInt(roundID, 10)))
	sum := mac.Sum(nil)

	state := binary.BigEndian.Uint32(sum[:4])
	if state == 0 {
		state = zeroStateSubst
	}
	rng := &xorshift32{state: state}

	picked := make(map[int32]bool, 4)
	main := make([]int32, 0, 4)
	for len(main) < 4 {
		n := int32(1 + int(rng.float64()*20))
		if picked[n] {
			continue
		}
		picked[n] = true
		main = append(main, n)
	}
	sort.Slice(main, func(i, j int) bool { return main[i] < main[j] })

	chance := int32(1 + int(rng.float64()*5))

	return domain.Outcome{Main: main, Chance: chance}, nil
}
