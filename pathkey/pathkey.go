// Package pathkey hashes edge-ID sequences into comparable keys, replacing
// the O(n^2) reflect.DeepEqual path-dedup scans the teacher package used
// for read-path matrices (constructdbg.go's addPathToPathMat) with a
// single xxhash digest per path.
package pathkey

import (
	"encoding/binary"

	"github.com/cespare/xxhash"
	"github.com/eernst/hetresolve/repeatgraph"
)

// Key is a 64-bit digest of an ordered edge-ID sequence.
type Key uint64

// Of hashes ids in order. Two sequences produce the same Key iff they are
// equal element-for-element (modulo hash collision, as with any digest).
func Of(ids []repeatgraph.EdgeID) Key {
	buf := make([]byte, 4*len(ids))
	for i, id := range ids {
		binary.LittleEndian.PutUint32(buf[i*4:], uint32(int32(id)))
	}
	return Key(xxhash.Sum64(buf))
}

// OfEdges hashes the ID sequence of edges.
func OfEdges(edges []*repeatgraph.Edge) Key {
	ids := make([]repeatgraph.EdgeID, len(edges))
	for i, e := range edges {
		ids[i] = e.ID
	}
	return Of(ids)
}
