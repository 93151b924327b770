/*
Package socket implements the bidirectional message transport: a single
long-lived WebSocket connection per client, multiplexed into per-session
rooms. createContext, dataUpload, and closeContext arrive as client
messages and share the same admission.Controller code path as the HTTP
transport; dataRequest and the error/close events are pushed back to a
session's room.

The Hub's subscribe/unsubscribe/broadcast mechanics are the same shape as
a typical pub-sub event broker, scoped down to one room per session
instead of one global fan-out.
*/
package socket
