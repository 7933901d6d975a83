package dispatch

import (
	"log/slog"

	"krakentrader/internal/book"
	"krakentrader/internal/codec"
	"krakentrader/pkg/types"
)

// LoggingHandler is a default EventHandler that logs every event at an
// appropriate level and otherwise does nothing. Embed it and override
// individual methods to build a real strategy on top of the Dispatcher.
type LoggingHandler struct {
	NoopOptionalEventHandler
	Logger *slog.Logger
}

// NewLoggingHandler builds a LoggingHandler bound to logger.
func NewLoggingHandler(logger *slog.Logger) *LoggingHandler {
	return &LoggingHandler{Logger: logger.With("component", "event_handler")}
}

func (h *LoggingHandler) OnBookSnapshot(symbol string, b *book.Book) {
	h.Logger.Debug("book snapshot", "symbol", symbol, "bids", len(b.Bids), "asks", len(b.Asks))
}

func (h *LoggingHandler) OnBookDelta(symbol string, b *book.Book) {
	h.Logger.Debug("book delta", "symbol", symbol, "bids", len(b.Bids), "asks", len(b.Asks))
}

func (h *LoggingHandler) OnCrossedBook(symbol string) {
	h.Logger.Warn("book crossed", "symbol", symbol)
}

func (h *LoggingHandler) OnTrade(symbol string, trades []types.Trade) {
	h.Logger.Debug("trade", "symbol", symbol, "count", len(trades))
}

func (h *LoggingHandler) OnFill(fill types.Fill, position types.Position) {
	h.Logger.Info("fill", "order_id", fill.OrderID, "side", fill.Side, "qty", fill.Qty, "price", fill.Price,
		"position_qty", position.Qty)
}

func (h *LoggingHandler) OnOpenOrderPending(order *types.Order) {
	h.Logger.Debug("open_order pending", "order_id", order.OrderID)
}

func (h *LoggingHandler) OnOpenOrderNew(orderID string) {
	h.Logger.Debug("open_order new", "order_id", orderID)
}

func (h *LoggingHandler) OnOpenOrderCancel(orderID string) {
	h.Logger.Debug("open_order canceled", "order_id", orderID)
}

func (h *LoggingHandler) OnNewOrderAck(order *types.Order) {
	h.Logger.Info("new_order ack", "order_id", order.OrderID, "clorder_id", order.ClOrderID)
}

func (h *LoggingHandler) OnNewOrderReject(clOrderID int64, reason string) {
	h.Logger.Warn("new_order rejected", "clorder_id", clOrderID, "reason", reason)
}

func (h *LoggingHandler) OnReplaceOrderAck(order *types.Order) {
	h.Logger.Info("replace_order ack", "order_id", order.OrderID, "clorder_id", order.ClOrderID)
}

func (h *LoggingHandler) OnReplaceOrderReject(clOrderID int64, reason string) {
	h.Logger.Warn("replace_order rejected", "clorder_id", clOrderID, "reason", reason)
}

func (h *LoggingHandler) OnCancelOrderAck(clOrderID int64) {
	h.Logger.Info("cancel_order ack", "clorder_id", clOrderID)
}

func (h *LoggingHandler) OnCancelOrderReject(clOrderID int64, reason string) {
	h.Logger.Warn("cancel_order rejected", "clorder_id", clOrderID, "reason", reason)
}

func (h *LoggingHandler) OnCancelAll(count int) {
	h.Logger.Info("cancel_all ack", "count", count)
}

func (h *LoggingHandler) OnCancelAllReject(reason string) {
	h.Logger.Warn("cancel_all rejected", "reason", reason)
}

func (h *LoggingHandler) OnSystemStatus(status codec.SystemStatus) {
	h.Logger.Info("system status", "status", status.Status, "version", status.Version, "connection_id", status.ConnectionID)
}

func (h *LoggingHandler) OnSubscriptionStatus(status codec.SubscriptionStatus) {
	if status.Status != "subscribed" && status.Status != "unsubscribed" {
		h.Logger.Warn("subscription status", "channel", status.ChannelName, "status", status.Status, "error", status.ErrorMessage)
		return
	}
	h.Logger.Info("subscription status", "channel", status.ChannelName, "status", status.Status)
}

func (h *LoggingHandler) OnMalformedFrame(raw []byte, reason string) {
	h.Logger.Warn("malformed frame", "reason", reason)
}

func (h *LoggingHandler) OnUnknownEvent(raw []byte) {
	h.Logger.Warn("unknown event")
}

func (h *LoggingHandler) OnTransportFailure(stream string, err error) {
	h.Logger.Error("transport failure", "stream", stream, "error", err)
}
