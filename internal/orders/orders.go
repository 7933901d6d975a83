// Package orders implements the working-order book: the reconciliation
// core that maps client request ids and exchange order ids to order
// records through a state machine, keeping local intent in sync with
// exchange acknowledgements, rejections, and fills.
package orders

import (
	"log/slog"

	"krakentrader/pkg/types"
)

// Book tracks order lifecycle across two mappings — pending intent keyed
// by client-generated id, live orders keyed by exchange id — plus a set
// of exchange ids whose cancellation has already been applied, used to
// suppress duplicate cancel notifications arriving on the public
// openOrders stream.
//
// Two distinct "pending" maps exist because the exchange reports pending
// orders on the openOrders stream keyed by its own order id, while orders
// the client has just submitted are pending under the client's request
// id until the first ack attaches an order id.
type Book struct {
	orders map[string]*types.Order // by exchange order id

	pendingByClOrderID map[int64]*types.Order  // submitted locally, awaiting ack
	pendingByOrderID   map[string]*types.Order // reported "pending" on openOrders

	canceledOrderIDs map[string]struct{}

	logger *slog.Logger
}

// New creates an empty working-order book.
func New(logger *slog.Logger) *Book {
	return &Book{
		orders:             make(map[string]*types.Order),
		pendingByClOrderID: make(map[int64]*types.Order),
		pendingByOrderID:   make(map[string]*types.Order),
		canceledOrderIDs:   make(map[string]struct{}),
		logger:             logger,
	}
}

// GetOrder returns the live order for an exchange order id, if any.
func (b *Book) GetOrder(orderID string) (*types.Order, bool) {
	o, ok := b.orders[orderID]
	return o, ok
}

// OnOpenOrderPending records an order the openOrders stream reports as
// "pending", keyed by its exchange order id. It overwrites unconditionally
// — the stream is authoritative and there is no prior local record to
// reconcile against at this point.
func (b *Book) OnOpenOrderPending(order *types.Order) {
	if order.OrderID == "" {
		b.logger.Warn("open_order_pending: order has no order_id", "clorder_id", order.ClOrderID)
		return
	}
	b.pendingByOrderID[order.OrderID] = order
}

// OnOpenOrderNew moves an order from pendingByOrderID to orders when the
// openOrders stream reports it "open".
func (b *Book) OnOpenOrderNew(orderID string) {
	order, ok := b.pendingByOrderID[orderID]
	if !ok {
		b.logger.Warn("open_order_new: no pending order found", "order_id", orderID)
		return
	}
	delete(b.pendingByOrderID, orderID)
	b.orders[orderID] = order
}

// OnOpenOrderCancel applies a "canceled" notification from the openOrders
// stream. Idempotent: an order id already in canceledOrderIDs is silently
// ignored, since the stream may report the same cancellation more than
// once.
func (b *Book) OnOpenOrderCancel(orderID string) {
	if _, done := b.canceledOrderIDs[orderID]; done {
		return
	}
	if _, ok := b.orders[orderID]; !ok {
		b.logger.Warn("open_order_cancel: order not found", "order_id", orderID)
		return
	}
	delete(b.orders, orderID)
	b.canceledOrderIDs[orderID] = struct{}{}
}

// OnPending installs intent for a locally submitted order before its
// envelope is sent, keyed by the client-generated request id.
func (b *Book) OnPending(order *types.Order) {
	if order.ClOrderID == 0 {
		b.logger.Warn("on_pending: order has no clorder_id")
		return
	}
	b.pendingByClOrderID[order.ClOrderID] = order
}

// RemovePending discards a pending entry without converting it into a
// live order, e.g. when a send fails before the envelope reaches the
// wire.
func (b *Book) RemovePending(clOrderID int64) {
	if clOrderID == 0 {
		b.logger.Warn("remove_pending: called with zero clorder_id")
		return
	}
	if _, ok := b.pendingByClOrderID[clOrderID]; !ok {
		b.logger.Warn("remove_pending: no pending order found", "clorder_id", clOrderID)
		return
	}
	delete(b.pendingByClOrderID, clOrderID)
}

// NewOrderAck applies an addOrderStatus(ok) acknowledgement: the pending
// entry is popped by clOrderID and promoted into orders under orderID.
func (b *Book) NewOrderAck(orderID string, clOrderID int64) {
	pending, ok := b.pendingByClOrderID[clOrderID]
	if !ok {
		b.logger.Warn("new_order_ack: pending order not found", "clorder_id", clOrderID)
		return
	}
	delete(b.pendingByClOrderID, clOrderID)

	if orderID == "" {
		b.logger.Warn("new_order_ack: ack carried no order_id", "clorder_id", clOrderID)
		return
	}
	pending.OrderID = orderID
	b.orders[orderID] = pending
}

// ReplaceOrderAck applies an editOrderStatus(ok) acknowledgement. It finds
// the existing open order by the pending entry's prior order id, then
// overwrites order_status, order_id, clorder_id, qty, and price in place —
// cum_qty is left untouched, since a replace does not itself execute any
// quantity. Kraken routinely assigns a new txid on a successful edit, so the
// order is re-keyed in orders under the new id; callers must look it up by
// the id this ack carries, not the prior one.
func (b *Book) ReplaceOrderAck(orderID string, clOrderID int64) {
	pending, ok := b.pendingByClOrderID[clOrderID]
	if !ok {
		b.logger.Warn("replace_order_ack: pending order not found", "clorder_id", clOrderID)
		return
	}
	delete(b.pendingByClOrderID, clOrderID)

	if pending.OrderID == "" {
		b.logger.Warn("replace_order_ack: pending has no prior order_id", "clorder_id", clOrderID)
		return
	}
	order, ok := b.orders[pending.OrderID]
	if !ok {
		b.logger.Warn("replace_order_ack: failed to find replaced order", "order_id", pending.OrderID)
		return
	}
	if pending.OrderID != orderID {
		delete(b.orders, pending.OrderID)
	}
	order.OrderStatus = "replaced"
	order.OrderID = orderID
	order.ClOrderID = pending.ClOrderID
	order.Qty = pending.Qty
	order.Price = pending.Price
	b.orders[orderID] = order
}

// CancelOrderAck applies a cancelOrderStatus(ok) acknowledgement: the
// pending entry is popped by clOrderID, its order removed from orders,
// and its order id recorded in canceledOrderIDs so a later duplicate
// cancel notification on openOrders is ignored.
func (b *Book) CancelOrderAck(clOrderID int64) {
	pending, ok := b.pendingByClOrderID[clOrderID]
	if !ok {
		b.logger.Warn("cancel_order_ack: pending order not found", "clorder_id", clOrderID)
		return
	}
	delete(b.pendingByClOrderID, clOrderID)

	if pending.OrderID == "" {
		b.logger.Warn("cancel_order_ack: pending has no order_id", "clorder_id", clOrderID)
		return
	}
	if _, done := b.canceledOrderIDs[pending.OrderID]; done {
		return
	}
	if _, ok := b.orders[pending.OrderID]; !ok {
		b.logger.Warn("cancel_order_ack: failed to find canceled order", "order_id", pending.OrderID)
		return
	}
	delete(b.orders, pending.OrderID)
	b.canceledOrderIDs[pending.OrderID] = struct{}{}
}

// Fill applies an execution to its order: qty decreases, cum_qty
// increases. An order fully filled (qty == 0) is removed. A qty that goes
// negative indicates an exchange/client desync; it is flagged but does not
// panic.
func (b *Book) Fill(fill types.Fill) {
	if fill.OrderID == "" {
		b.logger.Warn("fill: received fill without an order id")
		return
	}
	order, ok := b.orders[fill.OrderID]
	if !ok {
		b.logger.Warn("fill: failed to find order", "order_id", fill.OrderID)
		return
	}

	order.Qty = order.Qty.Sub(fill.Qty)
	order.CumQty = order.CumQty.Add(fill.Qty)

	switch {
	case order.Qty.IsZero():
		delete(b.orders, fill.OrderID)
	case order.Qty.IsNegative():
		b.logger.Warn("fill: order qty went negative", "order_id", fill.OrderID, "qty", order.Qty)
	}
}

// CancelAll clears every live order. Unlike CancelOrderAck, it does not
// populate canceledOrderIDs: the cancelAllStatus event is authoritative,
// and the exchange is not expected to echo individual cancellations for
// orders cancel-all already removed.
func (b *Book) CancelAll() {
	b.orders = make(map[string]*types.Order)
}
