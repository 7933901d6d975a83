package dispatch

import (
	"krakentrader/internal/codec"
	"krakentrader/pkg/types"
)

// handleFrame decodes one raw frame and routes it by its Kind: book
// updates reach the Order Book, trades reach the Trade
// Monitor, own-trades flow through the Working-Order Book and Position
// Tracker, order-lifecycle acks/rejects drive the Working-Order Book's
// state machine, and everything else reaches the user callback directly.
func (d *Dispatcher) handleFrame(streamName string, raw []byte) {
	event := codec.Decode(raw)

	switch event.Kind {
	case codec.KindBookSnapshot:
		d.handleBookSnapshot(event)
	case codec.KindBookDelta:
		d.handleBookDelta(event)

	case codec.KindTrade:
		d.handleTrade(event)

	case codec.KindOpenOrders:
		d.handleOpenOrders(event)
	case codec.KindOwnTrades:
		d.handleOwnTrades(event)

	case codec.KindNewOrderStatus:
		d.handleOrderStatus(event, d.orders.NewOrderAck, d.handler.OnNewOrderAck, d.handler.OnNewOrderReject)
	case codec.KindEditOrderStatus:
		d.handleOrderStatus(event, d.orders.ReplaceOrderAck, d.handler.OnReplaceOrderAck, d.handler.OnReplaceOrderReject)
	case codec.KindCancelOrderStatus:
		d.handleCancelOrderStatus(event)

	case codec.KindCancelAllStatus:
		d.handleCancelAllStatus(event)
	case codec.KindCancelAllAfterStatus:
		d.handleCancelAllAfterStatus(event)

	case codec.KindSystemStatus:
		d.handler.OnSystemStatus(*event.SystemStatus)
	case codec.KindSubscriptionStatus:
		d.handler.OnSubscriptionStatus(*event.SubscriptionStatus)
	case codec.KindHeartbeat:
		d.handler.OnHeartbeat()
	case codec.KindPing:
		d.handler.OnPing(event.ReqID)
	case codec.KindPong:
		d.handler.OnPong(event.ReqID)
	case codec.KindTicker:
		d.handler.OnTicker()
	case codec.KindOhlc:
		d.handler.OnOhlc()
	case codec.KindSpread:
		d.handler.OnSpread()

	case codec.KindMalformed:
		d.logger.Warn("malformed frame", "stream", streamName, "reason", event.MalformedReason)
		d.handler.OnMalformedFrame(event.Raw, event.MalformedReason)

	default: // codec.KindUnknown
		d.logger.Warn("unknown event", "stream", streamName)
		d.handler.OnUnknownEvent(event.Raw)
	}
}

func (d *Dispatcher) handleBookSnapshot(event codec.InboundEvent) {
	b := d.bookFor(event.Book.Symbol)
	b.ApplySnapshot(event.Book.Bids, event.Book.Asks)
	if b.Crossed() {
		d.handler.OnCrossedBook(event.Book.Symbol)
	}
	d.handler.OnBookSnapshot(event.Book.Symbol, b)
}

func (d *Dispatcher) handleBookDelta(event codec.InboundEvent) {
	b := d.bookFor(event.Book.Symbol)
	for _, q := range event.Book.Bids {
		b.ApplyBidDelta(q)
	}
	for _, q := range event.Book.Asks {
		b.ApplyAskDelta(q)
	}
	if b.Crossed() {
		d.handler.OnCrossedBook(event.Book.Symbol)
	}
	d.handler.OnBookDelta(event.Book.Symbol, b)
}

func (d *Dispatcher) handleTrade(event codec.InboundEvent) {
	m := d.trademonFor(event.Trade.Symbol)
	for _, t := range event.Trade.Trades {
		m.Add(t)
	}
	d.handler.OnTrade(event.Trade.Symbol, event.Trade.Trades)
}

func (d *Dispatcher) handleOpenOrders(event codec.InboundEvent) {
	for _, entry := range event.OpenOrders {
		switch entry.Status {
		case "pending":
			order := &types.Order{
				OrderID:     entry.OrderID,
				Symbol:      entry.Symbol,
				Side:        entry.Side,
				OrderType:   entry.OrderType,
				Price:       entry.Price,
				Qty:         entry.Volume,
				OrigQty:     entry.Volume,
				TimeInForce: entry.TimeInForce,
				OrderStatus: entry.Status,
			}
			d.orders.OnOpenOrderPending(order)
			d.handler.OnOpenOrderPending(order)
		case "open":
			d.orders.OnOpenOrderNew(entry.OrderID)
			d.handler.OnOpenOrderNew(entry.OrderID)
		case "canceled":
			d.orders.OnOpenOrderCancel(entry.OrderID)
			d.handler.OnOpenOrderCancel(entry.OrderID)
		default:
			d.logger.Debug("openOrders: unhandled status", "order_id", entry.OrderID, "status", entry.Status)
		}
	}
}

func (d *Dispatcher) handleOwnTrades(event codec.InboundEvent) {
	for _, entry := range event.OwnTrades {
		d.orders.Fill(entry.Fill)
		pos := d.positions.AddFill(entry.Fill)
		d.handler.OnFill(entry.Fill, pos)
	}
}

// handleOrderStatus covers addOrderStatus/editOrderStatus, which share an
// ack(orderID, clOrderID)/reject(clOrderID, reason) shape.
func (d *Dispatcher) handleOrderStatus(
	event codec.InboundEvent,
	ack func(orderID string, clOrderID int64),
	onAck func(order *types.Order),
	onReject func(clOrderID int64, reason string),
) {
	status := event.OrderStatus
	if status.Ok() {
		ack(status.TxID, status.ReqID)
		order, ok := d.orders.GetOrder(status.TxID)
		if !ok {
			d.logger.Warn("order status ok but order not found after ack", "order_id", status.TxID)
			return
		}
		onAck(order)
		return
	}
	d.orders.RemovePending(status.ReqID)
	onReject(status.ReqID, status.ErrorMessage)
}

func (d *Dispatcher) handleCancelOrderStatus(event codec.InboundEvent) {
	status := event.OrderStatus
	if status.Ok() {
		d.orders.CancelOrderAck(status.ReqID)
		d.handler.OnCancelOrderAck(status.ReqID)
		return
	}
	d.orders.RemovePending(status.ReqID)
	d.handler.OnCancelOrderReject(status.ReqID, status.ErrorMessage)
}

func (d *Dispatcher) handleCancelAllStatus(event codec.InboundEvent) {
	status := event.CancelAllStatus
	if status.Ok() {
		d.orders.CancelAll()
		d.handler.OnCancelAll(status.Count)
		return
	}
	d.handler.OnCancelAllReject(status.ErrorMessage)
}

func (d *Dispatcher) handleCancelAllAfterStatus(event codec.InboundEvent) {
	status := event.CancelAllAfter
	if status.Ok() {
		d.handler.OnCancelAllAfterStatus(status.CurrentTime, status.TriggerTime)
		return
	}
	d.handler.OnCancelAllAfterStatusReject(status.ErrorMessage)
}
