package tws

import (
	"bufio"
	"errors"
	"fmt"
	"net"
	"strconv"

	"github.com/guttosm/tradebridge/internal/venue"
)

func (c *Client) readLoop(s *session, r *bufio.Reader) {
	defer func() {
		s.alive.Store(false)
		s.failPending()
		close(s.done)
	}()

	for {
		fields, err := readFrame(r)
		if err != nil {
			if s.closing.Load() || errors.Is(err, net.ErrClosed) {
				s.setErr(errors.New("tws: session closed"))
			} else {
				s.setErr(fmt.Errorf("tws: read: %w", err))
				c.log.Warn().Err(err).Msg("tws session ended")
			}
			return
		}
		if len(fields) == 0 {
			continue
		}
		c.dispatch(s, fields)
	}
}

func (c *Client) dispatch(s *session, fields []string) {
	id, err := strconv.Atoi(fields[0])
	if err != nil {
		c.log.Warn().Str("msg_id", fields[0]).Msg("tws: unparseable message id")
		return
	}

	switch id {
	case inNextValidID:
		c.onNextValidID(s, fields)
	case inErrMsg:
		c.onError(s, fields)
	case inOrderStatus:
		c.onOrderStatus(s, fields)
	case inContractData:
		c.onContractData(s, fields)
	case inContractDataEnd:
		c.onContractDataEnd(s, fields)
	case inManagedAccts:
		if len(fields) > 2 {
			c.log.Debug().Str("accounts", fields[2]).Msg("tws managed accounts")
		}
	case inOpenOrder, inCurrentTime:
		// status is tracked through ORDER_STATUS
	default:
		c.log.Debug().Int("msg_id", id).Int("fields", len(fields)).Msg("tws: unhandled message")
	}
}

func (c *Client) onNextValidID(s *session, fields []string) {
	next, err := decodeNextValidID(fields)
	if err != nil {
		c.log.Warn().Err(err).Msg("tws: bad NEXT_VALID_ID")
		return
	}
	for {
		cur := s.nextID.Load()
		if next <= cur || s.nextID.CompareAndSwap(cur, next) {
			break
		}
	}
	s.readyOnce.Do(func() { close(s.ready) })
}

func (c *Client) onError(s *session, fields []string) {
	apiErr, err := decodeError(fields)
	if err != nil {
		c.log.Warn().Err(err).Msg("tws: bad ERR_MSG")
		return
	}

	ready := isClosed(s.ready)
	switch {
	case isInformational(apiErr.Code):
		c.log.Debug().Int("code", apiErr.Code).Str("msg", apiErr.Message).Msg("tws notice")
		return
	case apiErr.Code == codeConnectivityLost:
		c.log.Warn().Int("code", apiErr.Code).Str("msg", apiErr.Message).Msg("tws lost connectivity to IB; dropping session")
		s.setErr(apiErr)
		_ = s.conn.Close()
		return
	case apiErr.Code == codeConnectivityRestored:
		c.log.Info().Int("code", apiErr.Code).Str("msg", apiErr.Message).Msg("tws connectivity restored")
		return
	case !ready && isStartupFatal(apiErr.Code):
		c.log.Error().Int("code", apiErr.Code).Str("msg", apiErr.Message).Msg("tws rejected session")
		s.setErr(apiErr)
		_ = s.conn.Close()
		return
	}

	if apiErr.ReqID > 0 && c.failContractRequest(s, apiErr) {
		return
	}
	if apiErr.ReqID > 0 && c.rejectOrder(s, apiErr) {
		return
	}
	c.log.Warn().Int64("req_id", apiErr.ReqID).Int("code", apiErr.Code).Str("msg", apiErr.Message).Msg("tws error")
}

func (c *Client) failContractRequest(s *session, apiErr *venue.APIError) bool {
	s.pendingMu.Lock()
	req, ok := s.contracts[apiErr.ReqID]
	if ok {
		delete(s.contracts, apiErr.ReqID)
	}
	s.pendingMu.Unlock()
	if !ok {
		return false
	}

	if apiErr.Code == codeNoSecurityDefinition {
		req.err = fmt.Errorf("%w: %w", venue.ErrContractNotFound, apiErr)
	} else {
		req.err = apiErr
	}
	close(req.done)
	return true
}

func (c *Client) rejectOrder(s *session, apiErr *venue.APIError) bool {
	s.pendingMu.Lock()
	trade, ok := s.trades[apiErr.ReqID]
	if ok && (apiErr.Code == codeOrderRejected || apiErr.Code == codeOrderCancelled) {
		delete(s.trades, apiErr.ReqID)
	}
	s.pendingMu.Unlock()
	if !ok {
		return false
	}

	c.log.Warn().
		Int64("order_id", apiErr.ReqID).
		Int("code", apiErr.Code).
		Str("msg", apiErr.Message).
		Msg("tws order error")
	if apiErr.Code == codeOrderRejected || apiErr.Code == codeOrderCancelled {
		st := trade.Status()
		st.Status = venue.StatusCancelled
		trade.Update(st)
	}
	return true
}

func (c *Client) onOrderStatus(s *session, fields []string) {
	st, err := decodeOrderStatus(fields)
	if err != nil {
		c.log.Warn().Err(err).Msg("tws: bad ORDER_STATUS")
		return
	}

	s.pendingMu.Lock()
	trade, ok := s.trades[st.OrderID]
	if ok && venue.IsDone(st.Status) {
		delete(s.trades, st.OrderID)
	}
	s.pendingMu.Unlock()
	if !ok {
		return
	}

	trade.Update(st)
	c.log.Info().
		Int64("order_id", st.OrderID).
		Str("status", st.Status).
		Str("filled", st.Filled.String()).
		Str("remaining", st.Remaining.String()).
		Msg("order status")
}

func (c *Client) onContractData(s *session, fields []string) {
	reqID, contract, err := decodeContractData(fields)
	if err != nil {
		c.log.Warn().Err(err).Msg("tws: bad CONTRACT_DATA")
		return
	}
	s.pendingMu.Lock()
	if req, ok := s.contracts[reqID]; ok {
		req.results = append(req.results, contract)
	}
	s.pendingMu.Unlock()
}

func (c *Client) onContractDataEnd(s *session, fields []string) {
	reqID, err := decodeContractDataEnd(fields)
	if err != nil {
		c.log.Warn().Err(err).Msg("tws: bad CONTRACT_DATA_END")
		return
	}
	s.pendingMu.Lock()
	req, ok := s.contracts[reqID]
	if ok {
		delete(s.contracts, reqID)
	}
	s.pendingMu.Unlock()
	if ok {
		close(req.done)
	}
}

// failPending releases every caller still waiting on this session.
func (s *session) failPending() {
	s.pendingMu.Lock()
	defer s.pendingMu.Unlock()
	for id, req := range s.contracts {
		req.err = fmt.Errorf("%w: %v", venue.ErrNotConnected, s.cause())
		close(req.done)
		delete(s.contracts, id)
	}
	for id := range s.trades {
		delete(s.trades, id)
	}
}

func isClosed(ch chan struct{}) bool {
	select {
	case <-ch:
		return true
	default:
		return false
	}
}
