package stream

import "sync"

// globalStreamCap bounds concurrent overlay streams across all clients so a
// busy deployment cannot hold open an unbounded number of connections.
const globalStreamCap = 1000

// connLimiter admits stream connections subject to a per-IP cap and the
// global cap.
type connLimiter struct {
	mu    sync.Mutex
	perIP map[string]int
	total int
	ipCap int
}

func newConnLimiter(ipCap int) *connLimiter {
	return &connLimiter{
		perIP: make(map[string]int),
		ipCap: ipCap,
	}
}

// admit registers a connection for ip. It reports false when either cap is
// reached; rejected connections must not call done.
func (l *connLimiter) admit(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.total >= globalStreamCap || l.perIP[ip] >= l.ipCap {
		return false
	}
	l.perIP[ip]++
	l.total++
	return true
}

// done releases an admitted connection.
func (l *connLimiter) done(ip string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.total--
	if l.perIP[ip]--; l.perIP[ip] <= 0 {
		delete(l.perIP, ip)
	}
}

// active returns the admitted connection count for ip.
func (l *connLimiter) active(ip string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.perIP[ip]
}
