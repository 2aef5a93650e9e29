// Package ws holds WebSocket message types and the Hub implementation.
// messages.go defines all message structs broadcast to connected clients.
package ws

import (
	"time"

	"github.com/oyku/yesno/internal/domain"
)

// MsgType identifies the kind of WS message so clients can switch on it.
type MsgType string

const (
	MsgTypeNewMarket      MsgType = "new_market"
	MsgTypeMarketUpdate   MsgType = "market_update"
	MsgTypeBettingClosed  MsgType = "betting_closed"
	MsgTypeMarketResolved MsgType = "market_resolved"
	MsgTypeError          MsgType = "error"
)

// MarketMessage is the broadcast envelope for every market lifecycle event:
// a new market opening, pool changes after a bet, close_time passing, and
// resolution. Clients switch on Type; the summary carries the full state so
// no follow-up fetch is needed.
type MarketMessage struct {
	Type      MsgType               `json:"type"`
	Market    *domain.MarketSummary `json:"market"`
	Timestamp time.Time             `json:"timestamp"`
}

// ErrorMessage is sent directly to one client (not broadcast).
type ErrorMessage struct {
	Type    MsgType `json:"type"`
	Code    string  `json:"code"`
	Message string  `json:"message"`
}
