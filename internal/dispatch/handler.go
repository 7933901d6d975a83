package dispatch

import (
	"krakentrader/internal/book"
	"krakentrader/internal/codec"
	"krakentrader/pkg/types"
)

// RequiredEventHandler is the set of callbacks a caller must implement.
// Every wire event that changes observable state (a book, an order, a
// position) routes here; there is no no-op default because silently
// dropping one of these would hide a real state transition from the
// caller.
type RequiredEventHandler interface {
	OnBookSnapshot(symbol string, b *book.Book)
	OnBookDelta(symbol string, b *book.Book)
	OnCrossedBook(symbol string)
	OnTrade(symbol string, trades []types.Trade)
	OnFill(fill types.Fill, position types.Position)

	OnOpenOrderPending(order *types.Order)
	OnOpenOrderNew(orderID string)
	OnOpenOrderCancel(orderID string)

	OnNewOrderAck(order *types.Order)
	OnNewOrderReject(clOrderID int64, reason string)
	OnReplaceOrderAck(order *types.Order)
	OnReplaceOrderReject(clOrderID int64, reason string)
	OnCancelOrderAck(clOrderID int64)
	OnCancelOrderReject(clOrderID int64, reason string)
	OnCancelAll(count int)
	OnCancelAllReject(reason string)

	OnSystemStatus(status codec.SystemStatus)
	OnSubscriptionStatus(status codec.SubscriptionStatus)
	OnMalformedFrame(raw []byte, reason string)
	OnUnknownEvent(raw []byte)

	OnTransportFailure(stream string, err error)
}

// OptionalEventHandler covers callbacks that a caller may ignore: the
// original's "fire immediately on send" hooks, and wire events the
// Dispatcher itself never acts on. NoopOptionalEventHandler satisfies
// this so embedders only need to override what they care about.
type OptionalEventHandler interface {
	OnNewOrderSent(order *types.Order)
	OnReplaceOrderSent(order *types.Order)
	OnCancelOrderSent(orderID string)

	OnTicker()
	OnOhlc()
	OnSpread()
	OnHeartbeat()
	OnPing(reqID int64)
	OnPong(reqID int64)

	OnCancelAllAfterStatus(currentTime, triggerTime string)
	OnCancelAllAfterStatusReject(reason string)
}

// EventHandler is the full callback surface the Dispatcher drives.
type EventHandler interface {
	RequiredEventHandler
	OptionalEventHandler
}

// NoopOptionalEventHandler implements OptionalEventHandler with no-ops.
// Embed it in a concrete handler to pick up only the optional callbacks
// that matter and ignore the rest.
type NoopOptionalEventHandler struct{}

func (NoopOptionalEventHandler) OnNewOrderSent(*types.Order)     {}
func (NoopOptionalEventHandler) OnReplaceOrderSent(*types.Order) {}
func (NoopOptionalEventHandler) OnCancelOrderSent(string)        {}

func (NoopOptionalEventHandler) OnTicker()       {}
func (NoopOptionalEventHandler) OnOhlc()         {}
func (NoopOptionalEventHandler) OnSpread()       {}
func (NoopOptionalEventHandler) OnHeartbeat()    {}
func (NoopOptionalEventHandler) OnPing(int64)    {}
func (NoopOptionalEventHandler) OnPong(int64)    {}

func (NoopOptionalEventHandler) OnCancelAllAfterStatus(string, string) {}
func (NoopOptionalEventHandler) OnCancelAllAfterStatusReject(string)   {}
