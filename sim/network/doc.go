// Package network provides Network implementations that route values
// along explicit couplings, and a static check of those couplings.
//
// Digraph couples (model, port) pairs and carries PortValue values.
// SimpleDigraph couples models directly and routes values unchanged.
// Both treat the network itself as the boundary: coupling from the
// network routes its input, coupling to the network emits its output.
package network
