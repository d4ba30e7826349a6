// Copyright (c) 2026 ToeiRei
// sshlure - SSH credential-capture honeypot
// This source code is licensed under the MIT license found in the LICENSE file.

// Package honeypot implements the connection lifecycle of the honeypot.
//
// A Coordinator is created once per process. The transport asks it for a
// Session for every accepted connection; the coordinator records the
// connection event before the session is handed back. The transport then
// forwards each authentication callback to the session, which records the
// attempt and answers Deny. Storage errors are logged and counted but never
// returned to the transport, so an outage changes nothing a client can see.
//
// Live sessions register their handles in a shared Registry keyed by
// session and channel, which lets the coordinator address a session later
// (see Coordinator.Disconnect).
package honeypot // import "github.com/toeirei/sshlure/internal/honeypot"
