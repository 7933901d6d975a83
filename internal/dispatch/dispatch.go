// Package dispatch owns every stateful subsystem of the trading client —
// both stream connections, the wire codec, the order books, the
// working-order book, the position tracker, the trade monitors, and the
// throttle — and is the sole place that mutates any of them.
//
// All mutation happens on one goroutine (Run). The two stream read loops
// push raw frames onto an inbox channel instead of touching state
// directly; every command method (NewOrderSingle, CancelOrder, ...) packages
// its work as a closure and hands it to the same goroutine over cmdCh. This
// single-actor design is why the book, orders, position, and trademon
// packages carry no locks of their own — they are only ever touched from
// inside Run's select loop.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"krakentrader/internal/auth"
	"krakentrader/internal/book"
	"krakentrader/internal/codec"
	"krakentrader/internal/orders"
	"krakentrader/internal/position"
	"krakentrader/internal/stream"
	"krakentrader/internal/throttle"
	"krakentrader/internal/trademon"
	"krakentrader/pkg/types"
)

// firstReqID is the base of the monotonically increasing request-id
// counter. The first allocation returns firstReqID itself.
const firstReqID = 10_000_000_001

// ErrStopped is returned by any command method issued after Run has
// already exited (transport failure, context cancellation, or Close).
var ErrStopped = errors.New("dispatch: dispatcher is stopped")

// ErrNotAuthenticated is returned by private-stream commands issued
// before a session token has been minted.
var ErrNotAuthenticated = errors.New("dispatch: no session token minted yet")

type frameMsg struct {
	stream string
	frame  []byte
}

type transportErr struct {
	stream string
	err    error
}

type cmdResult struct {
	reqID int64
	err   error
}

type cmdRequest struct {
	run      func() (int64, error)
	resultCh chan cmdResult
}

// Dispatcher is the single-goroutine actor described in the package doc.
type Dispatcher struct {
	publicURL  string
	privateURL string
	public     *stream.Client
	private    *stream.Client

	minter   *auth.Minter
	token    string
	throttle *throttle.Throttle
	logger   *slog.Logger
	handler  EventHandler

	bookDepth        int
	trademonCapacity int

	books     map[string]*book.Book
	orders    *orders.Book
	positions *position.Tracker
	trademons map[string]*trademon.Monitor

	reqIDCounter int64

	inbox          chan frameMsg
	cmdCh          chan cmdRequest
	transportErrCh chan transportErr
	doneCh         chan struct{}
	closeOnce      sync.Once
}

// New builds a Dispatcher. minter may be nil if the caller never intends
// to use the private stream (public-only market data consumers).
func New(publicURL, privateURL string, minter *auth.Minter, handler EventHandler, logger *slog.Logger, bookDepth, trademonCapacity int, throttleRate float64) *Dispatcher {
	return &Dispatcher{
		publicURL:        publicURL,
		privateURL:       privateURL,
		public:           stream.NewClient(publicURL, logger.With("stream", "public")),
		private:          stream.NewClient(privateURL, logger.With("stream", "private")),
		minter:           minter,
		throttle:         throttle.New(throttleRate, logger.With("component", "throttle")),
		logger:           logger.With("component", "dispatch"),
		handler:          handler,
		bookDepth:        bookDepth,
		trademonCapacity: trademonCapacity,
		books:            make(map[string]*book.Book),
		orders:           orders.New(logger.With("component", "orders")),
		positions:        position.New(),
		trademons:        make(map[string]*trademon.Monitor),
		reqIDCounter:     firstReqID - 1,
		inbox:            make(chan frameMsg, 256),
		cmdCh:            make(chan cmdRequest),
		transportErrCh:   make(chan transportErr, 2),
		doneCh:           make(chan struct{}),
	}
}

// Start mints a session token (if a Minter was provided), dials both
// streams, and launches their read loops. Call Run afterward to drive
// the actor loop; Start itself does not block.
func (d *Dispatcher) Start(ctx context.Context) error {
	if d.minter != nil {
		token, err := d.minter.Mint(ctx)
		if err != nil {
			return fmt.Errorf("dispatch: mint session token: %w", err)
		}
		d.token = token
	}

	if err := d.public.Connect(ctx); err != nil {
		return fmt.Errorf("dispatch: connect public stream: %w", err)
	}
	if err := d.private.Connect(ctx); err != nil {
		return fmt.Errorf("dispatch: connect private stream: %w", err)
	}

	go d.pump(ctx, "public", d.public)
	go d.pump(ctx, "private", d.private)

	return nil
}

func (d *Dispatcher) pump(ctx context.Context, name string, client *stream.Client) {
	err := client.ReadUntilClose(ctx, func(frame []byte) {
		select {
		case d.inbox <- frameMsg{stream: name, frame: frame}:
		case <-ctx.Done():
		case <-d.doneCh:
		}
	})
	select {
	case d.transportErrCh <- transportErr{stream: name, err: err}:
	case <-ctx.Done():
	case <-d.doneCh:
	}
}

// Run is the actor loop: it owns every piece of mutable state and is the
// only goroutine that ever touches it. It returns when ctx is cancelled
// or either stream fails terminally.
func (d *Dispatcher) Run(ctx context.Context) error {
	defer d.closeOnce.Do(func() { close(d.doneCh) })

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case te := <-d.transportErrCh:
			d.handler.OnTransportFailure(te.stream, te.err)
			return te.err

		case fm := <-d.inbox:
			d.handleFrame(fm.stream, fm.frame)

		case cmd := <-d.cmdCh:
			reqID, err := cmd.run()
			cmd.resultCh <- cmdResult{reqID: reqID, err: err}
		}
	}
}

// Close tears down both stream connections. Safe to call more than once.
func (d *Dispatcher) Close() {
	d.public.Close()
	d.private.Close()
}

// execute hands run to the actor goroutine and blocks for its result.
// Every exported command method is a thin wrapper around this.
func (d *Dispatcher) execute(run func() (int64, error)) (int64, error) {
	req := cmdRequest{run: run, resultCh: make(chan cmdResult, 1)}
	select {
	case d.cmdCh <- req:
	case <-d.doneCh:
		return 0, ErrStopped
	}
	select {
	case res := <-req.resultCh:
		return res.reqID, res.err
	case <-d.doneCh:
		return 0, ErrStopped
	}
}

func (d *Dispatcher) nextReqID() int64 {
	d.reqIDCounter++
	return d.reqIDCounter
}

func (d *Dispatcher) correlationID() string {
	return uuid.New().String()
}

func (d *Dispatcher) bookFor(symbol string) *book.Book {
	b, ok := d.books[symbol]
	if !ok {
		b = book.New(symbol, d.bookDepth)
		d.books[symbol] = b
	}
	return b
}

func (d *Dispatcher) trademonFor(symbol string) *trademon.Monitor {
	m, ok := d.trademons[symbol]
	if !ok {
		m = trademon.New(d.trademonCapacity)
		d.trademons[symbol] = m
	}
	return m
}

// Subscribe sends a subscribe envelope on the public or private stream.
func (d *Dispatcher) Subscribe(sub codec.Subscription, isPrivate bool, pairs []string) (int64, error) {
	return d.execute(func() (int64, error) { return d.doSubscribe(sub, isPrivate, pairs) })
}

func (d *Dispatcher) doSubscribe(sub codec.Subscription, isPrivate bool, pairs []string) (int64, error) {
	client := d.public
	token := ""
	if isPrivate {
		if d.token == "" {
			return 0, ErrNotAuthenticated
		}
		client = d.private
		token = d.token
	}

	reqID := d.nextReqID()
	frame, err := codec.SubscribeEnvelope(sub, pairs, token, reqID)
	if err != nil {
		return reqID, fmt.Errorf("dispatch: build subscribe envelope: %w", err)
	}
	if err := client.Send(frame); err != nil {
		return reqID, fmt.Errorf("dispatch: send subscribe: %w", err)
	}
	return reqID, nil
}

// NewOrderSingle submits a new order. order.ClOrderID is stamped with the
// allocated reqid before the envelope is sent.
func (d *Dispatcher) NewOrderSingle(order *types.Order) (int64, error) {
	return d.execute(func() (int64, error) { return d.doNewOrderSingle(order) })
}

func (d *Dispatcher) doNewOrderSingle(order *types.Order) (int64, error) {
	if d.token == "" {
		return 0, ErrNotAuthenticated
	}

	reqID := d.nextReqID()
	order.ClOrderID = reqID
	order.OrderStatus = "pending"
	order.OrigQty = order.Qty
	order.CumQty = decimal.Zero

	// Install intent before the frame reaches the wire: an ack arriving
	// after an arbitrarily small delay must always find this entry.
	d.orders.OnPending(order)

	frame, err := codec.NewOrderEnvelope(order, d.token, reqID)
	if err != nil {
		d.orders.RemovePending(reqID)
		return reqID, fmt.Errorf("dispatch: build addOrder envelope: %w", err)
	}

	d.handler.OnNewOrderSent(order)
	d.logger.Debug("addOrder sent", "reqid", reqID, "correlation_id", d.correlationID(), "symbol", order.Symbol)

	if err := d.throttle.Do("new_order", func() error { return d.private.Send(frame) }); err != nil {
		d.orders.RemovePending(reqID)
		return reqID, fmt.Errorf("dispatch: send addOrder: %w", err)
	}
	return reqID, nil
}

// ReplaceOrder edits order's price and/or qty in place.
func (d *Dispatcher) ReplaceOrder(order *types.Order, price, qty decimal.Decimal) (int64, error) {
	return d.execute(func() (int64, error) { return d.doReplaceOrder(order, price, qty) })
}

func (d *Dispatcher) doReplaceOrder(order *types.Order, price, qty decimal.Decimal) (int64, error) {
	if d.token == "" {
		return 0, ErrNotAuthenticated
	}
	if order.OrderID == "" {
		return 0, fmt.Errorf("dispatch: cannot replace an order with no order_id")
	}

	reqID := d.nextReqID()
	pending := order.Clone()
	pending.ClOrderID = reqID
	pending.Price = price
	pending.Qty = qty
	d.orders.OnPending(pending)

	frame, err := codec.EditOrderEnvelope(order, price.String(), qty.String(), d.token, reqID)
	if err != nil {
		d.orders.RemovePending(reqID)
		return reqID, fmt.Errorf("dispatch: build editOrder envelope: %w", err)
	}

	d.handler.OnReplaceOrderSent(pending)

	if err := d.throttle.Do("replace_order", func() error { return d.private.Send(frame) }); err != nil {
		d.orders.RemovePending(reqID)
		return reqID, fmt.Errorf("dispatch: send editOrder: %w", err)
	}
	return reqID, nil
}

// CancelOrder cancels a single live order.
func (d *Dispatcher) CancelOrder(order *types.Order) (int64, error) {
	return d.execute(func() (int64, error) { return d.doCancelOrder(order) })
}

func (d *Dispatcher) doCancelOrder(order *types.Order) (int64, error) {
	if d.token == "" {
		return 0, ErrNotAuthenticated
	}
	if order.OrderID == "" {
		return 0, fmt.Errorf("dispatch: cannot cancel an order with no order_id")
	}

	reqID := d.nextReqID()
	pending := order.Clone()
	pending.ClOrderID = reqID
	d.orders.OnPending(pending)

	frame, err := codec.CancelOrderEnvelope(order.OrderID, d.token, reqID)
	if err != nil {
		d.orders.RemovePending(reqID)
		return reqID, fmt.Errorf("dispatch: build cancelOrder envelope: %w", err)
	}

	d.handler.OnCancelOrderSent(order.OrderID)

	if err := d.throttle.Do("cancel_order", func() error { return d.private.Send(frame) }); err != nil {
		d.orders.RemovePending(reqID)
		return reqID, fmt.Errorf("dispatch: send cancelOrder: %w", err)
	}
	return reqID, nil
}

// CancelAll cancels every live order. Unlike CancelOrder it installs no
// pending entry: the cancelAllStatus ack is authoritative and applies
// directly against the working-order book.
func (d *Dispatcher) CancelAll() (int64, error) {
	return d.execute(func() (int64, error) { return d.doCancelAll() })
}

func (d *Dispatcher) doCancelAll() (int64, error) {
	if d.token == "" {
		return 0, ErrNotAuthenticated
	}

	reqID := d.nextReqID()
	frame, err := codec.CancelAllEnvelope(d.token, reqID)
	if err != nil {
		return reqID, fmt.Errorf("dispatch: build cancelAll envelope: %w", err)
	}
	if err := d.throttle.Do("cancel_all", func() error { return d.private.Send(frame) }); err != nil {
		return reqID, fmt.Errorf("dispatch: send cancelAll: %w", err)
	}
	return reqID, nil
}

// CancelAllAfter arms the exchange-side dead man's switch: all orders are
// cancelled if no further message arrives within timeoutSeconds.
func (d *Dispatcher) CancelAllAfter(timeoutSeconds int) (int64, error) {
	return d.execute(func() (int64, error) { return d.doCancelAllAfter(timeoutSeconds) })
}

func (d *Dispatcher) doCancelAllAfter(timeoutSeconds int) (int64, error) {
	if d.token == "" {
		return 0, ErrNotAuthenticated
	}

	reqID := d.nextReqID()
	frame, err := codec.CancelAllAfterEnvelope(d.token, timeoutSeconds, reqID)
	if err != nil {
		return reqID, fmt.Errorf("dispatch: build cancelAllOrdersAfter envelope: %w", err)
	}
	if err := d.throttle.Do("cancel_all_after", func() error { return d.private.Send(frame) }); err != nil {
		return reqID, fmt.Errorf("dispatch: send cancelAllOrdersAfter: %w", err)
	}
	return reqID, nil
}

// Ping sends a ping frame on the public or private stream.
func (d *Dispatcher) Ping(isPrivate bool) (int64, error) {
	return d.execute(func() (int64, error) { return d.doPing(isPrivate) })
}

func (d *Dispatcher) doPing(isPrivate bool) (int64, error) {
	client := d.public
	if isPrivate {
		client = d.private
	}

	reqID := d.nextReqID()
	frame, err := codec.PingEnvelope(reqID)
	if err != nil {
		return reqID, fmt.Errorf("dispatch: build ping envelope: %w", err)
	}
	if err := client.Send(frame); err != nil {
		return reqID, fmt.Errorf("dispatch: send ping: %w", err)
	}
	d.handler.OnPing(reqID)
	return reqID, nil
}
