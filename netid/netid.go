// Package netid defines the node identifier type shared by every packet,
// topology, and routing structure in the overlay.
package netid

import "strconv"

// NodeID identifies a drone, client, or server within the overlay. The
// network never grows past a handful of nodes in practice, so an 8-bit
// value is plenty of range and keeps routing headers small.
type NodeID uint8

// String renders the identifier in decimal, matching how node ids show up
// in logs and config files.
func (n NodeID) String() string {
	return strconv.Itoa(int(n))
}
