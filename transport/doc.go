// Package transport provides the link layer for NV200 controllers.
//
// A Transport unifies the two physical links an NV200 can be reached over: a
// Telnet-style TCP connection through the Lantronix XPort module, and a local
// RS-232/USB serial line through the controller's FTDI adapter. Both expose the
// same capability set — Connect, Write, ReadResponse, Close — and both can be
// probed for device identity with the shared Probe function.
//
// Transports carry no timeout policy of their own beyond honoring the deadline
// of the context passed to each call; the command client in package nv200 owns
// the response timeout policy.
package transport
