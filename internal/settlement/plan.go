package settlement

import (
	"math/big"

	"github.com/dosdraw/platform/internal/domain"
)

// categoryWeightMillis allocates the win pool across the seven winning
// tiers. Weights are per-mille and sum to 1000; allocation uses integer
// floor so every fraction is accounted to carry, never lost.
var categoryWeightMillis = map[domain.Category]int64{
	domain.Cat4Plus1: 350,
	domain.Cat4Plus0: 150,
	domain.Cat3Plus1: 180,
	domain.Cat3Plus0: 100,
	domain.Cat2Plus1: 100,
	domain.Cat2Plus0: 70,
	domain.Cat1Plus1: 50,
}

// PotSplit is the integer division of a round's pot: 65% win pool, 10%
// carry base, 25% house take. The floor remainder rolls into carry.
type PotSplit struct {
	Pot          int64
	AdminTake    int64
	CarryBase    int64
	WinPool      int64
	RoundingLoss int64
}

// SplitPot divides the pot per the house rules.
func SplitPot(pot int64) PotSplit {
	adminTake := pot * 25 / 100
	carryBase := pot * 10 / 100
	winPool := pot * 65 / 100
	return PotSplit{
		Pot:          pot,
		AdminTake:    adminTake,
		CarryBase:    carryBase,
		WinPool:      winPool,
		RoundingLoss: pot - adminTake - carryBase - winPool,
	}
}

// Classify returns the winning tier for a selection against an outcome,
// or false when the selection loses. Matches are counted over the deduped
// selection; with a 4-element draw the count can never exceed 4, the cap
// is a guard.
func Classify(nums []int32, chance int32, outcome domain.Outcome) (domain.Category, bool) {
	drawn := make(map[int32]bool, len(outcome.Main))
	for _, n := range outcome.Main {
		drawn[n] = true
	}
	matched := 0
	for _, n := range nums {
		if drawn[n] {
			matched++
		}
	}
	if matched > 4 {
		matched = 4
	}
	hit := chance == outcome.Chance

	switch {
	case matched == 4 && hit:
		return domain.Cat4Plus1, true
	case matched == 4:
		return domain.Cat4Plus0, true
	case matched == 3 && hit:
		return domain.Cat3Plus1, true
	case matched == 3:
		return domain.Cat3Plus0, true
	case matched == 2 && hit:
		return domain.Cat2Plus1, true
	case matched == 2:
		return domain.Cat2Plus0, true
	case matched == 1 && hit:
		return domain.Cat1Plus1, true
	}
	return "", false
}

// Win is one winning bet with its computed payout.
type Win struct {
	Bet      domain.Bet
	Category domain.Category
	Payout   int64
}

// Plan is a fully computed settlement: every number the write phase needs,
// derived from the locked bets without touching the database again.
type Plan struct {
	Split       PotSplit
	AllocBase   int64
	Pools       map[domain.Category]int64
	Wins        []Win
	PayoutTotal int64
	CarryOut    int64
}

// BuildPlan classifies bets against the outcome, allocates the category
// pools from winPool+carryIn and prorates each pool by stake. Everything
// not paid out lands in CarryOut, so
//
//	adminTake + carryOut + Σ payouts == pot + carryIn
//
// holds exactly for any input.
func BuildPlan(bets []domain.Bet, outcome domain.Outcome, carryIn int64) Plan {
	var pot int64
	buckets := make(map[domain.Category][]domain.Bet)
	for _, b := range bets {
		pot += b.Amount
		if cat, won := Classify(b.Nums, b.Chance, outcome); won {
			buckets[cat] = append(buckets[cat], b)
		}
	}

	split := SplitPot(pot)
	allocBase := split.WinPool + carryIn
	carry := split.CarryBase + split.RoundingLoss

	plan := Plan{
		Split:     split,
		AllocBase: allocBase,
		Pools:     make(map[domain.Category]int64, len(domain.Categories)),
	}

	var allocated int64
	for _, cat := range domain.Categories {
		pool := allocBase * categoryWeightMillis[cat] / 1000
		plan.Pools[cat] = pool
		allocated += pool

		winners := buckets[cat]
		if len(winners) == 0 {
			carry += pool
			continue
		}

		var stakes int64
		for _, b := range winners {
			stakes += b.Amount
		}
		var paid int64
		for _, b := range winners {
			payout := mulDiv(pool, b.Amount, stakes)
			paid += payout
			plan.Wins = append(plan.Wins, Win{Bet: b, Category: cat, Payout: payout})
		}
		carry += pool - paid
		plan.PayoutTotal += paid
	}
	carry += allocBase - allocated

	plan.CarryOut = carry
	return plan
}

// mulDiv returns floor(a*b/den) with big-integer intermediates so large
// pools cannot overflow int64.
func mulDiv(a, b, den int64) int64 {
	if den == 0 {
		return 0
	}
	var x big.Int
	x.SetInt64(a)
	x.Mul(&x, big.NewInt(b))
	x.Div(&x, big.NewInt(den))
	return x.Int64()
}
