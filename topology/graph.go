// Package topology maintains the node's view of the overlay as an
// undirected adjacency graph and computes shortest paths over it. The
// graph is owned exclusively by the node's event-loop goroutine, so no
// locking is required here.
package topology

import "github.com/routewise/contentserver/netid"

// Graph is an undirected adjacency-map graph over node identifiers.
type Graph struct {
	adj map[netid.NodeID]map[netid.NodeID]struct{}
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{adj: make(map[netid.NodeID]map[netid.NodeID]struct{})}
}

// AddNode ensures id is present in the graph, isolated if it has no edges
// yet. It is a no-op if id already exists.
func (g *Graph) AddNode(id netid.NodeID) {
	if _, ok := g.adj[id]; !ok {
		g.adj[id] = make(map[netid.NodeID]struct{})
	}
}

// RemoveNode deletes id and every edge touching it.
func (g *Graph) RemoveNode(id netid.NodeID) {
	for neighbor := range g.adj[id] {
		delete(g.adj[neighbor], id)
	}
	delete(g.adj, id)
}

// AddEdge inserts an undirected edge between a and b, creating either
// endpoint if it does not already exist.
func (g *Graph) AddEdge(a, b netid.NodeID) {
	g.AddNode(a)
	g.AddNode(b)
	g.adj[a][b] = struct{}{}
	g.adj[b][a] = struct{}{}
}

// RemoveEdge deletes the edge between a and b, if any. Neither node is
// removed, even if it becomes isolated.
func (g *Graph) RemoveEdge(a, b netid.NodeID) {
	delete(g.adj[a], b)
	delete(g.adj[b], a)
}

// HasNode reports whether id is present in the graph.
func (g *Graph) HasNode(id netid.NodeID) bool {
	_, ok := g.adj[id]
	return ok
}

// Nodes returns every node currently in the graph, in ascending id order.
func (g *Graph) Nodes() []netid.NodeID {
	ids := make([]netid.NodeID, 0, len(g.adj))
	for id := range g.adj {
		ids = append(ids, id)
	}
	sortNodeIDs(ids)
	return ids
}

// Edges returns a copy of the adjacency list, keyed by node and sorted by
// neighbor id, suitable for handing to a caller outside the owning
// goroutine (e.g. a topology snapshot response).
func (g *Graph) Edges() map[netid.NodeID][]netid.NodeID {
	out := make(map[netid.NodeID][]netid.NodeID, len(g.adj))
	for id, neighbors := range g.adj {
		list := make([]netid.NodeID, 0, len(neighbors))
		for n := range neighbors {
			list = append(list, n)
		}
		sortNodeIDs(list)
		out[id] = list
	}
	return out
}

func (g *Graph) sortedNeighbors(id netid.NodeID) []netid.NodeID {
	neighbors := g.adj[id]
	out := make([]netid.NodeID, 0, len(neighbors))
	for n := range neighbors {
		out = append(out, n)
	}
	sortNodeIDs(out)
	return out
}

func sortNodeIDs(ids []netid.NodeID) {
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && ids[j-1] > ids[j]; j-- {
			ids[j-1], ids[j] = ids[j], ids[j-1]
		}
	}
}

// ShortestPath returns the hop list from src to dst inclusive of both
// endpoints, or nil if dst is unreachable from src. Among paths of equal
// length, the path whose second hop (the neighbor src sends to first) has
// the smallest id wins; remaining ties are broken by preferring the
// smallest predecessor id at each step, so the result is fully
// deterministic.
func (g *Graph) ShortestPath(src, dst netid.NodeID) []netid.NodeID {
	if !g.HasNode(src) {
		return nil
	}
	if src == dst {
		return []netid.NodeID{src}
	}

	dist := map[netid.NodeID]int{src: 0}
	queue := []netid.NodeID{src}
	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]
		for _, v := range g.sortedNeighbors(u) {
			if _, seen := dist[v]; !seen {
				dist[v] = dist[u] + 1
				queue = append(queue, v)
			}
		}
	}

	d, reachable := dist[dst]
	if !reachable {
		return nil
	}

	layers := make([][]netid.NodeID, d+1)
	for id, dd := range dist {
		if dd <= d {
			layers[dd] = append(layers[dd], id)
		}
	}
	for _, layer := range layers {
		sortNodeIDs(layer)
	}

	firstHop := make(map[netid.NodeID]netid.NodeID)
	pred := make(map[netid.NodeID]netid.NodeID)
	for _, v := range layers[1] {
		firstHop[v] = v
		pred[v] = src
	}
	for layer := 2; layer <= d; layer++ {
		for _, v := range layers[layer] {
			var best, bestPred netid.NodeID
			found := false
			for _, u := range g.sortedNeighbors(v) {
				if dist[u] != layer-1 {
					continue
				}
				fh, ok := firstHop[u]
				if !ok {
					continue
				}
				if !found || fh < best || (fh == best && u < bestPred) {
					best, bestPred, found = fh, u, true
				}
			}
			firstHop[v] = best
			pred[v] = bestPred
		}
	}

	path := make([]netid.NodeID, d+1)
	cur := dst
	for i := d; i >= 0; i-- {
		path[i] = cur
		if cur == src {
			break
		}
		cur = pred[cur]
	}
	return path
}
