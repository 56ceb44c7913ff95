package server

import "github.com/xiaonanln/worldsync/engine/dispatch"

// pendingRequests remembers which peers wait for each key
type pendingRequests[K comparable] struct {
	waiting map[K][]dispatch.Peer
}

func newPendingRequests[K comparable]() *pendingRequests[K] {
	return &pendingRequests[K]{waiting: map[K][]dispatch.Peer{}}
}

// add makes peer wait for key, returns true if nobody was waiting for key before
func (pr *pendingRequests[K]) add(key K, peer dispatch.Peer) bool {
	peers, ok := pr.waiting[key]
	for _, p := range peers {
		if p == peer {
			return false
		}
	}
	pr.waiting[key] = append(peers, peer)
	return !ok
}

// take returns the peers waiting for key and forgets them
func (pr *pendingRequests[K]) take(key K) []dispatch.Peer {
	peers := pr.waiting[key]
	delete(pr.waiting, key)
	return peers
}

// dropPeer stops peer waiting for any key, keys stay pending for other peers
func (pr *pendingRequests[K]) dropPeer(peer dispatch.Peer) {
	for key, peers := range pr.waiting {
		for i, p := range peers {
			if p == peer {
				pr.waiting[key] = append(peers[:i:i], peers[i+1:]...)
				break
			}
		}
	}
}

func (pr *pendingRequests[K]) len() int {
	return len(pr.waiting)
}
