// Package tws implements venue.Gateway over the TWS / IB Gateway socket API.
//
// Only the subset needed to qualify a contract and place a market order is
// implemented. The client announces a fixed protocol version and refuses
// servers that cannot speak it, so every message has a single encoding.
package tws

// Protocol version negotiated with the server.
const (
	minClientVersion = 100
	maxClientVersion = 151

	// serverVersion is the only version the encoders below support.
	serverVersion = 151
)

// Outgoing message ids.
const (
	outPlaceOrder      = 3
	outReqContractData = 9
	outStartAPI        = 71
)

// Incoming message ids.
const (
	inOrderStatus     = 3
	inErrMsg          = 4
	inOpenOrder       = 5
	inNextValidID     = 9
	inContractData    = 10
	inManagedAccts    = 15
	inCurrentTime     = 49
	inContractDataEnd = 52
)

// Error codes with special handling.
const (
	codeNoSecurityDefinition = 200
	codeOrderRejected        = 201
	codeOrderCancelled       = 202
	codeClientIDInUse        = 326
	codeCouldNotConnect      = 502
	codeConnectivityLost     = 1100
	codeConnectivityRestored = 1102
)

// isInformational reports whether code is a status notice rather than an error
// (market data farm connection messages and similar).
func isInformational(code int) bool {
	return code >= 2100 && code < 2200
}

// isStartupFatal reports whether an error received before the session is
// ready should abort the connect attempt.
func isStartupFatal(code int) bool {
	switch code {
	case codeClientIDInUse, codeCouldNotConnect:
		return true
	}
	return false
}
