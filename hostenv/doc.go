// Package hostenv detects whether the client runs inside the Feishu host
// application and adapts the host SDK's callback handshake into a single
// blocking call.
//
// Detection is structural: a [Runtime] either exposes a [Bridge] or it does
// not. [RequestCode] resolves exactly once; the host may fire its callbacks
// in any order and any number of times.
package hostenv
