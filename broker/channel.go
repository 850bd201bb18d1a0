package broker

// Channel is one client's real-time connection as seen by the broker.
// Implementations must serialise their own writes so that messages sent
// to the same user arrive in submission order.
type Channel interface {
	Send(v any) error
	Close() error
}

// Pinger is implemented by channels that can be probed for liveness.
type Pinger interface {
	Ping() error
}

// Delivery is the outcome of a single send attempt.
type Delivery int

const (
	Delivered Delivery = iota
	PeerGone
)

func (d Delivery) String() string {
	switch d {
	case Delivered:
		return "delivered"
	case PeerGone:
		return "peer_gone"
	default:
		return "unknown"
	}
}

func deliver(ch Channel, v any) Delivery {
	if err := ch.Send(v); err != nil {
		return PeerGone
	}
	return Delivered
}

func probe(ch Channel) Delivery {
	p, ok := ch.(Pinger)
	if !ok {
		return Delivered
	}
	if err := p.Ping(); err != nil {
		return PeerGone
	}
	return Delivered
}
