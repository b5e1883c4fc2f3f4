package tws

import (
	"bufio"
	"context"
	"encoding/binary"
	"errors"
	"io"
	"net"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/guttosm/tradebridge/internal/venue"
)

// fakeConn is the server side of one client session.
type fakeConn struct {
	conn net.Conn
	r    *bufio.Reader
	mu   sync.Mutex
}

func (f *fakeConn) send(fields ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, _ = f.conn.Write((&message{fields: fields}).encode())
}

// fakeTWS is a minimal TWS server speaking the handshake and routing
// post-startup frames to handle.
type fakeTWS struct {
	t        *testing.T
	ln       net.Listener
	version  int
	accepted atomic.Int32
	startAPI chan []string

	// onStart runs after START_API is read. The default announces id 100.
	onStart func(fc *fakeConn)
	// handle receives every later frame.
	handle func(fc *fakeConn, fields []string)

	mu    sync.Mutex
	conns []*fakeConn
}

// newFakeTWS starts the server after applying opts, so tests configure it
// before any session goroutine reads the fields.
func newFakeTWS(t *testing.T, opts ...func(*fakeTWS)) *fakeTWS {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	f := &fakeTWS{
		t:        t,
		ln:       ln,
		version:  serverVersion,
		startAPI: make(chan []string, 4),
		onStart: func(fc *fakeConn) {
			fc.send("4", "2", "-1", "2104", "Market data farm connection is OK:usfarm")
			fc.send("15", "1", "DU1234567")
			fc.send("9", "1", "100")
		},
		handle: func(*fakeConn, []string) {},
	}
	for _, opt := range opts {
		opt(f)
	}
	t.Cleanup(func() {
		_ = ln.Close()
		f.mu.Lock()
		for _, c := range f.conns {
			_ = c.conn.Close()
		}
		f.mu.Unlock()
	})
	go f.serve()
	return f
}

func (f *fakeTWS) endpoint() venue.Endpoint {
	host, port, _ := net.SplitHostPort(f.ln.Addr().String())
	p, _ := strconv.Atoi(port)
	return venue.Endpoint{Host: host, Port: p, ClientID: 7}
}

func (f *fakeTWS) serve() {
	for {
		conn, err := f.ln.Accept()
		if err != nil {
			return
		}
		f.accepted.Add(1)
		fc := &fakeConn{conn: conn, r: bufio.NewReader(conn)}
		f.mu.Lock()
		f.conns = append(f.conns, fc)
		f.mu.Unlock()
		go f.session(fc)
	}
}

func (f *fakeTWS) session(fc *fakeConn) {
	defer fc.conn.Close()

	prefix := make([]byte, 4)
	if _, err := io.ReadFull(fc.r, prefix); err != nil || string(prefix) != "API\x00" {
		return
	}
	var size [4]byte
	if _, err := io.ReadFull(fc.r, size[:]); err != nil {
		return
	}
	if _, err := io.ReadFull(fc.r, make([]byte, binary.BigEndian.Uint32(size[:]))); err != nil {
		return
	}
	fc.send(strconv.Itoa(f.version), "20261019 09:30:00 UTC")

	start, err := readFrame(fc.r)
	if err != nil {
		return
	}
	f.startAPI <- start
	f.onStart(fc)

	for {
		fields, err := readFrame(fc.r)
		if err != nil {
			return
		}
		f.handle(fc, fields)
	}
}

func (f *fakeTWS) lastConn() *fakeConn {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.conns[len(f.conns)-1]
}

func connect(t *testing.T, f *fakeTWS, opts ...Option) *Client {
	t.Helper()
	c := New(opts...)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := c.Connect(ctx, f.endpoint()); err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { _ = c.Disconnect() })
	return c
}

// waitFor polls cond until it holds or timeout elapses.
func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("condition not met within %v", timeout)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func apiCode(err error) int {
	var apiErr *venue.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return 0
}

var gbpusd = venue.ContractSpec{ConID: 230949810, Symbol: "GBP.USD", SecType: venue.SecTypeCFD, Exchange: venue.ExchangeSMART, Currency: "USD"}

func marketOrder(action string, qty int64, ref string) venue.OrderSpec {
	return venue.OrderSpec{Action: action, OrderType: venue.OrderTypeMKT, TotalQuantity: decimal.NewFromInt(qty), OrderRef: ref}
}

func TestConnect_HandshakeAndStartAPI(t *testing.T) {
	f := newFakeTWS(t)
	c := connect(t, f)

	if !c.IsConnected() {
		t.Fatalf("expected connected client")
	}
	start := <-f.startAPI
	if strings.Join(start, "|") != "71|2|7|" {
		t.Fatalf("START_API fields=%q", start)
	}

	// already connected: no second dial
	if err := c.Connect(context.Background(), f.endpoint()); err != nil {
		t.Fatalf("second connect: %v", err)
	}
	if n := f.accepted.Load(); n != 1 {
		t.Fatalf("accepted=%d, want 1", n)
	}
}

func TestConnect_Failures(t *testing.T) {
	cases := []struct {
		name     string
		opt      func(*fakeTWS)
		ctxLimit time.Duration
		wantText string
		wantCode int
		wantErr  error
	}{
		{
			name:     "old server",
			opt:      func(f *fakeTWS) { f.version = 100 },
			wantText: "not supported",
		},
		{
			name: "client id in use",
			opt: func(f *fakeTWS) {
				f.onStart = func(fc *fakeConn) {
					fc.send("4", "2", "-1", "326", "Unable to connect as the client id is already in use. Retry with a unique client id.")
				}
			},
			wantCode: 326,
		},
		{
			name:     "no NEXT_VALID_ID",
			opt:      func(f *fakeTWS) { f.onStart = func(*fakeConn) {} },
			ctxLimit: 50 * time.Millisecond,
			wantErr:  context.DeadlineExceeded,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFakeTWS(t, tc.opt)
			ctx := context.Background()
			if tc.ctxLimit > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, tc.ctxLimit)
				defer cancel()
			}

			c := New()
			err := c.Connect(ctx, f.endpoint())
			if err == nil {
				t.Fatalf("expected connect error")
			}
			if tc.wantText != "" && !strings.Contains(err.Error(), tc.wantText) {
				t.Fatalf("err=%v, want it to mention %q", err, tc.wantText)
			}
			if tc.wantCode != 0 && apiCode(err) != tc.wantCode {
				t.Fatalf("err=%v, want venue code %d", err, tc.wantCode)
			}
			if tc.wantErr != nil && !errors.Is(err, tc.wantErr) {
				t.Fatalf("err=%v, want %v", err, tc.wantErr)
			}
			if c.IsConnected() {
				t.Fatalf("failed connect must leave the client disconnected")
			}
		})
	}
}

func TestConnect_DialError(t *testing.T) {
	c := New(WithDialer(func(context.Context, string, string) (net.Conn, error) {
		return nil, errors.New("connection refused")
	}))
	err := c.Connect(context.Background(), venue.Endpoint{Host: "127.0.0.1", Port: 7497, ClientID: 1})
	if err == nil || !strings.Contains(err.Error(), "connection refused") {
		t.Fatalf("unexpected err: %v", err)
	}
}

func TestQualifyContract(t *testing.T) {
	cases := []struct {
		name     string
		reply    func(fc *fakeConn, reqID string)
		wantErr  error
		wantCode int
	}{
		{
			name: "single match keeps SMART routing",
			reply: func(fc *fakeConn, reqID string) {
				fc.send(contractDataFields(reqID, "230949810", "IBCFD")...)
				fc.send("52", "1", reqID)
			},
		},
		{
			name: "no match",
			reply: func(fc *fakeConn, reqID string) {
				fc.send("52", "1", reqID)
			},
			wantErr: venue.ErrContractNotFound,
		},
		{
			name: "no security definition",
			reply: func(fc *fakeConn, reqID string) {
				fc.send("4", "2", reqID, "200", "No security definition has been found for the request")
			},
			wantErr:  venue.ErrContractNotFound,
			wantCode: 200,
		},
		{
			name: "ambiguous",
			reply: func(fc *fakeConn, reqID string) {
				fc.send(contractDataFields(reqID, "1", "SMART")...)
				fc.send(contractDataFields(reqID, "2", "SMART")...)
				fc.send("52", "1", reqID)
			},
			wantErr: venue.ErrAmbiguousContract,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFakeTWS(t, func(f *fakeTWS) {
				f.handle = func(fc *fakeConn, fields []string) {
					if fields[0] == "9" {
						tc.reply(fc, fields[2])
					}
				}
			})
			c := connect(t, f)

			got, err := c.QualifyContract(context.Background(), gbpusd)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("err=%v, want %v", err, tc.wantErr)
				}
				if tc.wantCode != 0 && apiCode(err) != tc.wantCode {
					t.Fatalf("err=%v, want venue code %d", err, tc.wantCode)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected err: %v", err)
			}
			if got.ConID != 230949810 || got.Exchange != venue.ExchangeSMART || got.LocalSymbol != "GBP.USD" {
				t.Fatalf("unexpected contract %+v", got)
			}
		})
	}
}

func TestQualifyContract_RequestTimeout(t *testing.T) {
	f := newFakeTWS(t)
	c := connect(t, f, WithRequestTimeout(30*time.Millisecond))

	_, err := c.QualifyContract(context.Background(), gbpusd)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err=%v, want deadline exceeded", err)
	}
	if !c.IsConnected() {
		t.Fatalf("a slow request must not drop the session")
	}
}

func TestNotConnected(t *testing.T) {
	c := New()
	if _, err := c.QualifyContract(context.Background(), gbpusd); !errors.Is(err, venue.ErrNotConnected) {
		t.Fatalf("qualify err=%v", err)
	}
	if _, err := c.PlaceOrder(context.Background(), gbpusd, venue.OrderSpec{Action: "BUY"}); !errors.Is(err, venue.ErrNotConnected) {
		t.Fatalf("place err=%v", err)
	}
	if err := c.Disconnect(); err != nil {
		t.Fatalf("disconnect without session: %v", err)
	}
}

func TestPlaceOrder_TracksFirstStatus(t *testing.T) {
	placed := make(chan []string, 2)
	f := newFakeTWS(t, func(f *fakeTWS) {
		f.handle = func(fc *fakeConn, fields []string) {
			if fields[0] != "3" {
				return
			}
			placed <- fields
			fc.send("3", fields[1], "Submitted", "0", fields[17], "0", "555", "0", "0", "7", "", "0")
		}
	})
	c := connect(t, f)

	order := marketOrder("BUY", 10000, "req-1")
	trade, err := c.PlaceOrder(context.Background(), gbpusd, order)
	if err != nil {
		t.Fatalf("place: %v", err)
	}
	if trade.OrderID != 100 {
		t.Fatalf("order id=%d, want 100", trade.OrderID)
	}

	st, err := trade.WaitStatus(context.Background(), 2*time.Second)
	if err != nil {
		t.Fatalf("wait: %v", err)
	}
	if st.Status != venue.StatusSubmitted || !st.Remaining.Equal(decimal.NewFromInt(10000)) {
		t.Fatalf("unexpected status %+v", st)
	}

	fields := <-placed
	want := map[int]string{1: "100", 2: "230949810", 16: "BUY", 17: "10000", 18: "MKT", 26: "req-1"}
	for i, v := range want {
		if fields[i] != v {
			t.Fatalf("PLACE_ORDER field %d=%q, want %q", i, fields[i], v)
		}
	}

	next, err := c.PlaceOrder(context.Background(), gbpusd, order)
	if err != nil {
		t.Fatalf("second place: %v", err)
	}
	if next.OrderID != 101 {
		t.Fatalf("order id=%d, want 101", next.OrderID)
	}
}

func TestPlaceOrder_Rejected(t *testing.T) {
	f := newFakeTWS(t, func(f *fakeTWS) {
		f.handle = func(fc *fakeConn, fields []string) {
			if fields[0] == "3" {
				fc.send("4", "2", fields[1], "201", "Order rejected - reason: trading disabled")
			}
		}
	})
	c := connect(t, f)

	trade, err := c.PlaceOrder(context.Background(), gbpusd, marketOrder("SELL", 1, ""))
	if err != nil {
		t.Fatalf("place: %v", err)
	}
	st, err := trade.WaitStatus(context.Background(), 2*time.Second)
	if err != nil {
		t.Fatalf("wait: %v", err)
	}
	if st.Status != venue.StatusCancelled {
		t.Fatalf("status=%s, want %s", st.Status, venue.StatusCancelled)
	}
}

// A rejection for an order must reach that order even while a contract
// request is pending, with ids starting at 1.
func TestPlaceOrder_RejectionNotRoutedToPendingQualify(t *testing.T) {
	qualifyIDs := make(chan string, 1)
	f := newFakeTWS(t, func(f *fakeTWS) {
		f.onStart = func(fc *fakeConn) { fc.send("9", "1", "1") }
		f.handle = func(fc *fakeConn, fields []string) {
			switch fields[0] {
			case "9":
				// hold the contract request open
				qualifyIDs <- fields[2]
			case "3":
				fc.send("4", "2", fields[1], "201", "Order rejected - reason: margin")
			}
		}
	})
	c := connect(t, f)

	qualified := make(chan error, 1)
	go func() {
		_, err := c.QualifyContract(context.Background(), gbpusd)
		qualified <- err
	}()
	qualifyID := <-qualifyIDs

	trade, err := c.PlaceOrder(context.Background(), gbpusd, marketOrder("BUY", 10000, ""))
	if err != nil {
		t.Fatalf("place: %v", err)
	}
	if strconv.FormatInt(trade.OrderID, 10) == qualifyID {
		t.Fatalf("order id %d reuses the pending contract request id", trade.OrderID)
	}

	st, err := trade.WaitStatus(context.Background(), 2*time.Second)
	if err != nil {
		t.Fatalf("wait: %v", err)
	}
	if st.Status != venue.StatusCancelled {
		t.Fatalf("order status=%s after rejection, want %s", st.Status, venue.StatusCancelled)
	}

	select {
	case err := <-qualified:
		t.Fatalf("contract request finished early with %v", err)
	case <-time.After(50 * time.Millisecond):
	}

	f.lastConn().send("52", "1", qualifyID)
	if err := <-qualified; !errors.Is(err, venue.ErrContractNotFound) {
		t.Fatalf("qualify err=%v, want its own empty result", err)
	}
}

func TestSession_ConnectivityLostDropsSession(t *testing.T) {
	f := newFakeTWS(t)
	c := connect(t, f)

	f.lastConn().send("4", "2", "-1", "1100", "Connectivity between IB and Trader Workstation has been lost.")

	waitFor(t, 2*time.Second, func() bool { return !c.IsConnected() })
	if _, err := c.QualifyContract(context.Background(), gbpusd); !errors.Is(err, venue.ErrNotConnected) {
		t.Fatalf("qualify err=%v", err)
	}

	// a fresh connect opens a new session
	if err := c.Connect(context.Background(), f.endpoint()); err != nil {
		t.Fatalf("reconnect: %v", err)
	}
	if !c.IsConnected() || f.accepted.Load() != 2 {
		t.Fatalf("connected=%v accepted=%d", c.IsConnected(), f.accepted.Load())
	}
}

func TestSession_ServerCloseFailsPendingRequests(t *testing.T) {
	f := newFakeTWS(t, func(f *fakeTWS) {
		f.handle = func(fc *fakeConn, fields []string) {
			if fields[0] == "9" {
				_ = fc.conn.Close()
			}
		}
	})
	c := connect(t, f)

	if _, err := c.QualifyContract(context.Background(), gbpusd); !errors.Is(err, venue.ErrNotConnected) {
		t.Fatalf("qualify err=%v", err)
	}
	waitFor(t, 2*time.Second, func() bool { return !c.IsConnected() })
}

func TestDisconnect(t *testing.T) {
	f := newFakeTWS(t)
	c := connect(t, f)

	if err := c.Disconnect(); err != nil {
		t.Fatalf("disconnect: %v", err)
	}
	if c.IsConnected() {
		t.Fatalf("still connected")
	}
	if err := c.Disconnect(); err != nil {
		t.Fatalf("second disconnect: %v", err)
	}
}
