// Package discovery locates NV200 controllers reachable from this machine.
//
// Two scans run concurrently and independently: a network scan using the
// Lantronix UDP discovery broadcast, and a serial scan probing every local
// FTDI adapter for the NV200 identity. Callers select any combination of the
// two via Flags, and may additionally request enrichment: a short-lived
// connect/identity-query/close round trip per candidate that fills in the
// actuator name and serial number and drops candidates that do not identify
// as NV200 controllers.
//
// Individual candidate failures never abort a scan; they only shrink the
// result set.
package discovery
