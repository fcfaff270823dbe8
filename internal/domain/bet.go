package domain

import (
	"time"

	"github.com/google/uuid"
)

// Category names a winning tier: "<matched main numbers>+<chance hit>".
type Category string

const (
	Cat4Plus1 Category = "4+1"
	Cat4Plus0 Category = "4+0"
	Cat3Plus1 Category = "3+1"
	Cat3Plus0 Category = "3+0"
	Cat2Plus1 Category = "2+1"
	Cat2Plus0 Category = "2+0"
	Cat1Plus1 Category = "1+1"
)

// Categories lists all winning tiers in payout precedence order.
var Categories = []Category{
	Cat4Plus1, Cat4Plus0, Cat3Plus1, Cat3Plus0, Cat2Plus1, Cat2Plus0, Cat1Plus1,
}

// Bet represents a bets row. Nums are deduped and sorted ascending before
// insert; Category and Payout are written at settlement.
type Bet struct {
	ID        int64     `json:"id"`
	PlayerID  uuid.UUID `json:"playerId"`
	RoundID   int64     `json:"roundId"`
	Nums      []int32   `json:"nums"`
	Chance    int32     `json:"chance"`
	Amount    int64     `json:"amount"`
	Payout    int64     `json:"payout"`
	Category  *Category `json:"category,omitempty"`
	Settled   bool      `json:"settled"`
	CreatedAt time.Time `json:"createdAt"`
}
