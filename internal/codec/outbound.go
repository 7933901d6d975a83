package codec

import (
	"encoding/json"

	"krakentrader/pkg/types"
)

// Subscription names the channel to subscribe/unsubscribe from.
type Subscription struct {
	Name string // "book", "trade", "ohlc", "ticker", "spread", "openOrders", "ownTrades"
	// Depth is used for book subscriptions: one of 10, 25, 100, 500, 1000.
	Depth int
	// Interval is used for ohlc subscriptions: one of 1, 5, 15, 30, 60.
	Interval int
}

func (s Subscription) marshal(token string) map[string]interface{} {
	sub := map[string]interface{}{"name": s.Name}
	if s.Name == "book" && s.Depth != 0 {
		sub["depth"] = s.Depth
	}
	if s.Name == "ohlc" && s.Interval != 0 {
		sub["interval"] = s.Interval
	}
	if token != "" {
		sub["token"] = token
	}
	return sub
}

// SubscribeEnvelope builds a subscribe frame. Pair is omitted whenever the
// pair list is empty, as it is for private (token-bearing) subscriptions;
// a non-empty pair list is sent whether or not a token is present.
func SubscribeEnvelope(sub Subscription, pair []string, token string, reqID int64) ([]byte, error) {
	js := map[string]interface{}{
		"event":        "subscribe",
		"subscription": sub.marshal(token),
	}
	if len(pair) > 0 {
		js["pair"] = pair
	}
	if reqID != 0 {
		js["reqid"] = reqID
	}
	return json.Marshal(js)
}

// UnsubscribeEnvelope builds an unsubscribe frame.
func UnsubscribeEnvelope(sub Subscription, pair []string, token string) ([]byte, error) {
	js := map[string]interface{}{
		"event":        "unsubscribe",
		"subscription": sub.marshal(token),
	}
	if len(pair) > 0 {
		js["pair"] = pair
	}
	return json.Marshal(js)
}

// NewOrderEnvelope builds an addOrder frame for a new order.
func NewOrderEnvelope(order *types.Order, token string, reqID int64) ([]byte, error) {
	typ := "buy"
	if order.Side == types.SELL {
		typ = "sell"
	}
	js := map[string]interface{}{
		"event":       "addOrder",
		"pair":        order.Symbol,
		"type":        typ,
		"token":       token,
		"volume":      order.Qty.String(),
		"price":       order.Price.String(),
		"ordertype":   order.OrderType,
		"timeinforce": order.TimeInForce,
		"reqid":       reqID,
	}
	return json.Marshal(js)
}

// EditOrderEnvelope builds an editOrder frame for an in-place replace.
func EditOrderEnvelope(order *types.Order, price, qty string, token string, reqID int64) ([]byte, error) {
	js := map[string]interface{}{
		"event":   "editOrder",
		"pair":    order.Symbol,
		"token":   token,
		"orderid": order.OrderID,
		"price":   price,
		"volume":  qty,
		"reqid":   reqID,
	}
	return json.Marshal(js)
}

// CancelOrderEnvelope builds a cancelOrder frame.
func CancelOrderEnvelope(orderID string, token string, reqID int64) ([]byte, error) {
	js := map[string]interface{}{
		"event": "cancelOrder",
		"token": token,
		"txid":  []string{orderID},
		"reqid": reqID,
	}
	return json.Marshal(js)
}

// CancelAllEnvelope builds a cancelAll frame.
func CancelAllEnvelope(token string, reqID int64) ([]byte, error) {
	return json.Marshal(map[string]interface{}{
		"event": "cancelAll",
		"token": token,
		"reqid": reqID,
	})
}

// CancelAllAfterEnvelope builds a cancelAllOrdersAfter frame (dead man's
// switch): the exchange cancels all orders if no message arrives within
// timeoutSeconds.
func CancelAllAfterEnvelope(token string, timeoutSeconds int, reqID int64) ([]byte, error) {
	return json.Marshal(map[string]interface{}{
		"event":   "cancelAllOrdersAfter",
		"token":   token,
		"timeout": timeoutSeconds,
		"reqid":   reqID,
	})
}

// PingEnvelope builds a ping frame.
func PingEnvelope(reqID int64) ([]byte, error) {
	return json.Marshal(map[string]interface{}{
		"event": "ping",
		"reqid": reqID,
	})
}
