package domain

import (
	"strings"
	"time"
)

// Action represents the trade action carried by a decision.
type Action string

const (
	ActionBuy  Action = "buy"
	ActionSell Action = "sell"

	// ActionNone marks a decision whose raw action is neither buy nor sell.
	// Such decisions are inert: they never change position state.
	ActionNone Action = ""
)

// ParseAction normalizes a raw action string. Anything other than
// buy/sell (case-insensitive) maps to ActionNone.
func ParseAction(raw string) Action {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "buy":
		return ActionBuy
	case "sell":
		return ActionSell
	default:
		return ActionNone
	}
}

// IsValid reports whether the action is a state-changing one.
func (a Action) IsValid() bool {
	return a == ActionBuy || a == ActionSell
}

// String returns the string representation of Action.
func (a Action) String() string {
	return string(a)
}

// Decision is one buy/sell call emitted by a strategy for a ticker.
// Decisions are sparse relative to the return series and immutable inputs.
// Corresponds to the decisions table in PostgreSQL.
type Decision struct {
	Ticker   string
	Strategy string
	Date     time.Time // UTC midnight
	Action   Action
}
