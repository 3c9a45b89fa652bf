package udisc

// Transport carries announcement datagrams to and from the discovery group.
// The default implementation is a UDP multicast socket; tests substitute an
// in-memory one.
type Transport interface {
	// Send transmits one datagram to the discovery group.
	Send(data []byte) error

	// Recv blocks until a datagram arrives, copying it into buf and
	// returning its length. After Close it returns an error satisfying
	// errors.Is(err, net.ErrClosed).
	Recv(buf []byte) (int, error)

	// Close releases the socket, unblocking any pending Recv.
	Close() error
}
