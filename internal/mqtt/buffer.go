package mqtt

import "log/slog"

// bufferedMsg stores a serialized MQTT message for replay after reconnection.
type bufferedMsg struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// outbox holds messages published while disconnected, in publish order.
//
// A retained message supersedes the retained message already waiting on the
// same topic, so a replay carries only the newest display state and the newest
// lifecycle event. Non-retained messages queue up to capacity; past that the
// oldest non-retained message is dropped. Not safe for concurrent use; the
// caller synchronizes.
type outbox struct {
	msgs     []bufferedMsg
	capacity int  // limit on non-retained messages
	volatile int  // non-retained messages in msgs
	overflow bool // a message was dropped since the last drain
	logger   *slog.Logger
}

func newOutbox(capacity int, logger *slog.Logger) *outbox {
	if logger == nil {
		logger = slog.Default()
	}
	return &outbox{capacity: capacity, logger: logger}
}

func (o *outbox) push(msg bufferedMsg) {
	if msg.retained {
		o.remove(func(m bufferedMsg) bool { return m.retained && m.topic == msg.topic })
		o.msgs = append(o.msgs, msg)
		return
	}

	if o.volatile == o.capacity {
		if !o.overflow {
			o.logger.Warn("mqtt buffer full, dropping oldest", "capacity", o.capacity)
			o.overflow = true
		}
		o.remove(func(m bufferedMsg) bool { return !m.retained })
		o.volatile--
	}
	o.msgs = append(o.msgs, msg)
	o.volatile++
}

// remove deletes the first message matching fn.
func (o *outbox) remove(fn func(bufferedMsg) bool) {
	for i, m := range o.msgs {
		if fn(m) {
			o.msgs = append(o.msgs[:i], o.msgs[i+1:]...)
			return
		}
	}
}

func (o *outbox) drainAll() []bufferedMsg {
	if len(o.msgs) == 0 {
		return nil
	}
	out := o.msgs
	o.msgs = nil
	o.volatile = 0
	o.overflow = false
	return out
}

func (o *outbox) len() int {
	return len(o.msgs)
}
