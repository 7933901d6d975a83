// Package codec decodes exchange wire frames into a single tagged variant,
// InboundEvent, and builds outbound command envelopes. It performs no I/O.
//
// The wire protocol has two frame shapes: object frames carry an "event"
// field and decode by switching on its value; array frames are positional,
// with the channel name at index len-2 and the pair at len-1 (book, trade,
// ohlc, ticker, spread), except openOrders/ownTrades frames, which carry
// the channel name as their last element with no pair. A single Decode
// entry point handles both shapes so callers never branch on frame shape
// themselves (§9 design note: dynamic JSON fan-out becomes one decoder
// producing one tagged variant instead of scattered key-presence checks).
package codec

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"krakentrader/pkg/types"
)

// Kind tags the case an InboundEvent represents.
type Kind int

const (
	KindUnknown Kind = iota
	KindMalformed
	KindSystemStatus
	KindSubscriptionStatus
	KindHeartbeat
	KindPing
	KindPong
	KindNewOrderStatus
	KindEditOrderStatus
	KindCancelOrderStatus
	KindCancelAllStatus
	KindCancelAllAfterStatus
	KindBookSnapshot
	KindBookDelta
	KindTrade
	KindOhlc
	KindSpread
	KindTicker
	KindOpenOrders
	KindOwnTrades
)

// OrderStatus is the ack/reject payload shared by addOrderStatus,
// editOrderStatus, and cancelOrderStatus frames.
type OrderStatus struct {
	Event        string
	Status       string // "ok" or "error"
	ReqID        int64
	TxID         string
	OriginalTxID string
	Description  string
	ErrorMessage string
}

// Ok reports whether the exchange accepted the request.
func (s OrderStatus) Ok() bool { return s.Status == "ok" }

// CancelAllStatus is the cancelAllStatus payload.
type CancelAllStatus struct {
	Status       string
	ReqID        int64
	Count        int
	ErrorMessage string
}

func (s CancelAllStatus) Ok() bool { return s.Status == "ok" }

// CancelAllAfterStatus is the cancelAllAfterStatus payload.
type CancelAllAfterStatus struct {
	Status       string
	ReqID        int64
	CurrentTime  string
	TriggerTime  string
	ErrorMessage string
}

func (s CancelAllAfterStatus) Ok() bool { return s.Status == "ok" }

// SystemStatus mirrors the systemStatus object frame.
type SystemStatus struct {
	ConnectionID uint64
	Status       string
	Version      string
}

// SubscriptionStatus mirrors the subscriptionStatus object frame.
type SubscriptionStatus struct {
	ChannelName      string
	Event            string
	Pair             []string
	Status           string
	ChannelID        int
	ErrorMessage     string
	SubscriptionName string
}

// BookUpdate carries the decoded quotes for a book snapshot or delta,
// identified as one or the other by the presence of as/bs (snapshot) vs
// a/b (delta) keys — never both.
type BookUpdate struct {
	Symbol      string
	ChannelName string
	Bids        []types.Quote
	Asks        []types.Quote
}

// TradeEvent carries the decoded trade list from a trade channel frame.
type TradeEvent struct {
	Symbol string
	Trades []types.Trade
}

// OpenOrderEntry is one order embedded in an openOrders frame.
type OpenOrderEntry struct {
	OrderID     string
	Status      string // "pending", "open", "canceled"
	Symbol      string
	Side        types.Side
	OrderType   string
	Price       decimal.Decimal
	Volume      decimal.Decimal
	TimeInForce string
}

// OwnTradeEntry is one fill embedded in an ownTrades frame.
type OwnTradeEntry struct {
	TradeID string
	Fill    types.Fill
}

// InboundEvent is the single tagged variant every decoded frame is
// converted into. Only the field(s) matching Kind are populated.
type InboundEvent struct {
	Kind Kind
	Raw  []byte

	SystemStatus       *SystemStatus
	SubscriptionStatus *SubscriptionStatus
	OrderStatus        *OrderStatus
	CancelAllStatus    *CancelAllStatus
	CancelAllAfter     *CancelAllAfterStatus
	Book               *BookUpdate
	Trade              *TradeEvent
	OpenOrders         []OpenOrderEntry
	OwnTrades          []OwnTradeEntry
	ReqID              int64 // populated for ping/pong frames that carry one

	MalformedReason string
}

func malformed(raw []byte, reason string) InboundEvent {
	return InboundEvent{Kind: KindMalformed, Raw: raw, MalformedReason: reason}
}

// Decode converts one raw inbound frame into a tagged InboundEvent. It
// never panics and never silently drops a frame: unrecognized shapes
// become KindUnknown, and frames that fail to parse become KindMalformed
// carrying the raw bytes and a reason.
func Decode(raw []byte) InboundEvent {
	trimmed := bytesTrimSpace(raw)
	if len(trimmed) == 0 {
		return malformed(raw, "empty frame")
	}

	switch trimmed[0] {
	case '{':
		return decodeObjectFrame(raw)
	case '[':
		return decodeArrayFrame(raw)
	default:
		return malformed(raw, "frame is neither a JSON object nor array")
	}
}

func bytesTrimSpace(b []byte) []byte {
	start := 0
	for start < len(b) && isSpace(b[start]) {
		start++
	}
	end := len(b)
	for end > start && isSpace(b[end-1]) {
		end--
	}
	return b[start:end]
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func decodeObjectFrame(raw []byte) InboundEvent {
	var envelope struct {
		Event string `json:"event"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return malformed(raw, fmt.Sprintf("unmarshal object envelope: %v", err))
	}

	switch envelope.Event {
	case "systemStatus":
		var js struct {
			ConnectionID uint64 `json:"connectionID"`
			Status       string `json:"status"`
			Version      string `json:"version"`
		}
		if err := json.Unmarshal(raw, &js); err != nil {
			return malformed(raw, fmt.Sprintf("unmarshal systemStatus: %v", err))
		}
		return InboundEvent{Kind: KindSystemStatus, Raw: raw, SystemStatus: &SystemStatus{
			ConnectionID: js.ConnectionID, Status: js.Status, Version: js.Version,
		}}

	case "subscriptionStatus":
		var js struct {
			ChannelName  string `json:"channelName"`
			Event        string `json:"event"`
			Pair         []string `json:"pair"`
			Status       string `json:"status"`
			ChannelID    int    `json:"channelID"`
			ErrorMessage string `json:"errorMessage"`
			Subscription struct {
				Name string `json:"name"`
			} `json:"subscription"`
		}
		if err := json.Unmarshal(raw, &js); err != nil {
			return malformed(raw, fmt.Sprintf("unmarshal subscriptionStatus: %v", err))
		}
		return InboundEvent{Kind: KindSubscriptionStatus, Raw: raw, SubscriptionStatus: &SubscriptionStatus{
			ChannelName: js.ChannelName, Event: js.Event, Pair: js.Pair, Status: js.Status,
			ChannelID: js.ChannelID, ErrorMessage: js.ErrorMessage, SubscriptionName: js.Subscription.Name,
		}}

	case "heartbeat":
		return InboundEvent{Kind: KindHeartbeat, Raw: raw}

	case "ping":
		var js struct {
			ReqID int64 `json:"reqid"`
		}
		json.Unmarshal(raw, &js) //nolint:errcheck // reqid is optional on ping
		return InboundEvent{Kind: KindPing, Raw: raw, ReqID: js.ReqID}

	case "pong":
		var js struct {
			ReqID int64 `json:"reqid"`
		}
		json.Unmarshal(raw, &js) //nolint:errcheck // reqid is optional on pong
		return InboundEvent{Kind: KindPong, Raw: raw, ReqID: js.ReqID}

	case "addOrderStatus", "editOrderStatus", "cancelOrderStatus":
		status, err := decodeOrderStatus(raw)
		if err != nil {
			return malformed(raw, err.Error())
		}
		kind := KindNewOrderStatus
		if envelope.Event == "editOrderStatus" {
			kind = KindEditOrderStatus
		} else if envelope.Event == "cancelOrderStatus" {
			kind = KindCancelOrderStatus
		}
		return InboundEvent{Kind: kind, Raw: raw, OrderStatus: status}

	case "cancelAllStatus":
		var js struct {
			Status       string `json:"status"`
			ReqID        int64  `json:"reqid"`
			Count        int    `json:"count"`
			ErrorMessage string `json:"errorMessage"`
		}
		if err := json.Unmarshal(raw, &js); err != nil {
			return malformed(raw, fmt.Sprintf("unmarshal cancelAllStatus: %v", err))
		}
		return InboundEvent{Kind: KindCancelAllStatus, Raw: raw, CancelAllStatus: &CancelAllStatus{
			Status: js.Status, ReqID: js.ReqID, Count: js.Count, ErrorMessage: js.ErrorMessage,
		}}

	case "cancelAllAfterStatus":
		var js struct {
			Status       string `json:"status"`
			ReqID        int64  `json:"reqid"`
			CurrentTime  string `json:"currentTime"`
			TriggerTime  string `json:"triggerTime"`
			ErrorMessage string `json:"errorMessage"`
		}
		if err := json.Unmarshal(raw, &js); err != nil {
			return malformed(raw, fmt.Sprintf("unmarshal cancelAllAfterStatus: %v", err))
		}
		return InboundEvent{Kind: KindCancelAllAfterStatus, Raw: raw, CancelAllAfter: &CancelAllAfterStatus{
			Status: js.Status, ReqID: js.ReqID, CurrentTime: js.CurrentTime, TriggerTime: js.TriggerTime,
			ErrorMessage: js.ErrorMessage,
		}}

	default:
		return InboundEvent{Kind: KindUnknown, Raw: raw}
	}
}

func decodeOrderStatus(raw []byte) (*OrderStatus, error) {
	var js struct {
		Event        string `json:"event"`
		Status       string `json:"status"`
		ReqID        int64  `json:"reqid"`
		TxID         string `json:"txid"`
		OriginalTxID string `json:"originaltxid"`
		Descr        string `json:"descr"`
		ErrorMessage string `json:"errorMessage"`
	}
	if err := json.Unmarshal(raw, &js); err != nil {
		return nil, fmt.Errorf("unmarshal order status: %w", err)
	}
	return &OrderStatus{
		Event: js.Event, Status: js.Status, ReqID: js.ReqID, TxID: js.TxID,
		OriginalTxID: js.OriginalTxID, Description: js.Descr, ErrorMessage: js.ErrorMessage,
	}, nil
}

func decodeArrayFrame(raw []byte) InboundEvent {
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return malformed(raw, fmt.Sprintf("unmarshal array frame: %v", err))
	}
	if len(elems) < 2 {
		return malformed(raw, "array frame has fewer than 2 elements")
	}

	// openOrders / ownTrades: [[entries...], "openOrders"|"ownTrades", ...]
	var lastStr string
	if err := json.Unmarshal(elems[len(elems)-1], &lastStr); err == nil {
		switch lastStr {
		case "openOrders":
			entries, err := decodeOpenOrders(elems[0])
			if err != nil {
				return malformed(raw, err.Error())
			}
			return InboundEvent{Kind: KindOpenOrders, Raw: raw, OpenOrders: entries}
		case "ownTrades":
			entries, err := decodeOwnTrades(elems[0])
			if err != nil {
				return malformed(raw, err.Error())
			}
			return InboundEvent{Kind: KindOwnTrades, Raw: raw, OwnTrades: entries}
		}
	}

	if len(elems) < 4 {
		return InboundEvent{Kind: KindUnknown, Raw: raw}
	}

	var channelName string
	if err := json.Unmarshal(elems[len(elems)-2], &channelName); err != nil {
		return malformed(raw, fmt.Sprintf("unmarshal channel name: %v", err))
	}
	var pair string
	if err := json.Unmarshal(elems[len(elems)-1], &pair); err != nil {
		return malformed(raw, fmt.Sprintf("unmarshal pair: %v", err))
	}
	payload := elems[1]

	switch {
	case strings.HasPrefix(channelName, "book-"):
		return decodeBookPayload(raw, pair, channelName, payload)
	case channelName == "trade":
		trades, err := decodeTrades(payload)
		if err != nil {
			return malformed(raw, err.Error())
		}
		return InboundEvent{Kind: KindTrade, Raw: raw, Trade: &TradeEvent{Symbol: pair, Trades: trades}}
	case strings.HasPrefix(channelName, "ohlc-"):
		return InboundEvent{Kind: KindOhlc, Raw: raw}
	case channelName == "ticker":
		return InboundEvent{Kind: KindTicker, Raw: raw}
	case channelName == "spread":
		return InboundEvent{Kind: KindSpread, Raw: raw}
	default:
		return InboundEvent{Kind: KindUnknown, Raw: raw}
	}
}

func decodeBookPayload(raw []byte, pair, channelName string, payload json.RawMessage) InboundEvent {
	var structural struct {
		AS []json.RawMessage `json:"as"`
		BS []json.RawMessage `json:"bs"`
		A  []json.RawMessage `json:"a"`
		B  []json.RawMessage `json:"b"`
	}
	if err := json.Unmarshal(payload, &structural); err != nil {
		return malformed(raw, fmt.Sprintf("unmarshal book payload: %v", err))
	}

	isSnapshot := structural.AS != nil || structural.BS != nil
	isDelta := structural.A != nil || structural.B != nil

	if isSnapshot {
		asks, err := decodeQuotes(structural.AS)
		if err != nil {
			return malformed(raw, err.Error())
		}
		bids, err := decodeQuotes(structural.BS)
		if err != nil {
			return malformed(raw, err.Error())
		}
		return InboundEvent{Kind: KindBookSnapshot, Raw: raw, Book: &BookUpdate{
			Symbol: pair, ChannelName: channelName, Bids: bids, Asks: asks,
		}}
	}
	if isDelta {
		asks, err := decodeQuotes(structural.A)
		if err != nil {
			return malformed(raw, err.Error())
		}
		bids, err := decodeQuotes(structural.B)
		if err != nil {
			return malformed(raw, err.Error())
		}
		return InboundEvent{Kind: KindBookDelta, Raw: raw, Book: &BookUpdate{
			Symbol: pair, ChannelName: channelName, Bids: bids, Asks: asks,
		}}
	}
	return malformed(raw, "book payload has neither as/bs nor a/b keys")
}

func decodeQuotes(raw []json.RawMessage) ([]types.Quote, error) {
	quotes := make([]types.Quote, 0, len(raw))
	for _, r := range raw {
		var triple [3]string
		if err := json.Unmarshal(r, &triple); err != nil {
			return nil, fmt.Errorf("unmarshal quote triple: %w", err)
		}
		price, err := decimal.NewFromString(triple[0])
		if err != nil {
			return nil, fmt.Errorf("parse quote price %q: %w", triple[0], err)
		}
		volume, err := decimal.NewFromString(triple[1])
		if err != nil {
			return nil, fmt.Errorf("parse quote volume %q: %w", triple[1], err)
		}
		// A timestamp that is not a decimal number is kept as zero instead of
		// rejecting the whole frame.
		ts, err := decimal.NewFromString(triple[2])
		if err != nil {
			ts = decimal.Zero
		}
		quotes = append(quotes, types.Quote{Price: price, Volume: volume, Timestamp: ts})
	}
	return quotes, nil
}

func decodeTrades(raw json.RawMessage) ([]types.Trade, error) {
	var rows [][5]string
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("unmarshal trades: %w", err)
	}
	trades := make([]types.Trade, 0, len(rows))
	for _, r := range rows {
		price, err := decimal.NewFromString(r[0])
		if err != nil {
			return nil, fmt.Errorf("parse trade price: %w", err)
		}
		volume, err := decimal.NewFromString(r[1])
		if err != nil {
			return nil, fmt.Errorf("parse trade volume: %w", err)
		}
		tm, err := decimal.NewFromString(r[2])
		if err != nil {
			return nil, fmt.Errorf("parse trade time: %w", err)
		}
		side := types.BUY
		if r[3] == "s" || r[3] == "sell" {
			side = types.SELL
		}
		trades = append(trades, types.Trade{
			Price: price, Volume: volume, Time: tm, Side: side, OrderType: r[4],
		})
	}
	return trades, nil
}

func decodeOpenOrders(raw json.RawMessage) ([]OpenOrderEntry, error) {
	var rows []map[string]struct {
		Status      string `json:"status"`
		Vol         string `json:"vol"`
		TimeInForce string `json:"timeinforce"`
		Descr       struct {
			Pair      string `json:"pair"`
			Type      string `json:"type"`
			OrderType string `json:"ordertype"`
			Price     string `json:"price"`
		} `json:"descr"`
	}
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("unmarshal openOrders: %w", err)
	}

	entries := make([]OpenOrderEntry, 0, len(rows))
	for _, row := range rows {
		for orderID, o := range row {
			side := types.BUY
			if o.Descr.Type == "sell" {
				side = types.SELL
			}
			var price, vol decimal.Decimal
			if o.Descr.Price != "" {
				p, err := decimal.NewFromString(o.Descr.Price)
				if err != nil {
					return nil, fmt.Errorf("parse open order price: %w", err)
				}
				price = p
			}
			if o.Vol != "" {
				v, err := decimal.NewFromString(o.Vol)
				if err != nil {
					return nil, fmt.Errorf("parse open order volume: %w", err)
				}
				vol = v
			}
			entries = append(entries, OpenOrderEntry{
				OrderID: orderID, Status: o.Status, Symbol: o.Descr.Pair, Side: side,
				OrderType: o.Descr.OrderType, Price: price, Volume: vol, TimeInForce: o.TimeInForce,
			})
		}
	}
	return entries, nil
}

func decodeOwnTrades(raw json.RawMessage) ([]OwnTradeEntry, error) {
	var rows []map[string]struct {
		OrderTxID string `json:"ordertxid"`
		Pair      string `json:"pair"`
		Price     string `json:"price"`
		Vol       string `json:"vol"`
		Time      string `json:"time"`
		Type      string `json:"type"`
	}
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("unmarshal ownTrades: %w", err)
	}

	entries := make([]OwnTradeEntry, 0, len(rows))
	for _, row := range rows {
		for tradeID, t := range row {
			price, err := decimal.NewFromString(t.Price)
			if err != nil {
				return nil, fmt.Errorf("parse own trade price: %w", err)
			}
			vol, err := decimal.NewFromString(t.Vol)
			if err != nil {
				return nil, fmt.Errorf("parse own trade volume: %w", err)
			}
			tm, err := decimal.NewFromString(t.Time)
			if err != nil {
				return nil, fmt.Errorf("parse own trade time: %w", err)
			}
			side := types.BUY
			if t.Type == "sell" {
				side = types.SELL
			}
			entries = append(entries, OwnTradeEntry{
				TradeID: tradeID,
				Fill: types.Fill{
					OrderID: t.OrderTxID, Side: side, Qty: vol, Symbol: t.Pair, Price: price, Time: tm,
				},
			})
		}
	}
	return entries, nil
}
