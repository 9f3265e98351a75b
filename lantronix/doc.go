// Package lantronix implements the Lantronix XPort UDP discovery protocol used to
// locate network-attached NV200 controllers without prior configuration.
//
// A discovery probe is a fixed 4-byte datagram (00 00 00 F6) broadcast to UDP port
// 30718 on every active network interface. Each XPort module answers with a 30-byte
// datagram that carries its MAC address; replies whose MAC does not start with the
// Lantronix OUI (00:80:A3) are ignored.
package lantronix
