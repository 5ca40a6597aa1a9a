// Package bus is the in-process pub/sub fabric: hierarchical topics with
// "+" (one level) and "#" (remaining levels) wildcards, retained messages,
// and request/reply over private reply topics.
package bus

import (
	"context"
	"reflect"
	"strconv"
	"sync"
	"sync/atomic"
)

const (
	wildOne  = "+"
	wildRest = "#"
)

// Topic is a sequence of comparable tokens (usually strings, sometimes ints).
type Topic []any

// T builds a topic and panics on a non-comparable token.
func T(tokens ...any) Topic {
	for _, tok := range tokens {
		if tok == nil || !reflect.TypeOf(tok).Comparable() {
			panic("bus: topic token must be comparable")
		}
	}
	return Topic(tokens)
}

func (t Topic) Len() int     { return len(t) }
func (t Topic) At(i int) any { return t[i] }

func (t Topic) Append(tokens ...any) Topic {
	out := make(Topic, 0, len(t)+len(tokens))
	out = append(out, t...)
	return append(out, T(tokens...)...)
}

// Message is the unit of delivery.
type Message struct {
	Topic    Topic
	Payload  any
	Retained bool
	ReplyTo  Topic
}

// CanReply reports whether the sender asked for a reply.
func (m *Message) CanReply() bool { return m != nil && len(m.ReplyTo) > 0 }

// Subscription is a buffered inbox for one topic filter.
type Subscription struct {
	filter Topic
	ch     chan *Message
	conn   *Connection
	once   sync.Once
}

func (s *Subscription) Topic() Topic             { return s.filter }
func (s *Subscription) Channel() <-chan *Message { return s.ch }

func (s *Subscription) deliver(m *Message) {
	select {
	case s.ch <- m:
	default:
		// drop oldest to keep the newest state
		select {
		case <-s.ch:
		default:
		}
		select {
		case s.ch <- m:
		default:
		}
	}
}

type node struct {
	children map[any]*node
	subs     []*Subscription
	retained *Message
}

func (n *node) child(tok any, create bool) *node {
	if c, ok := n.children[tok]; ok {
		return c
	}
	if !create {
		return nil
	}
	if n.children == nil {
		n.children = make(map[any]*node)
	}
	c := &node{}
	n.children[tok] = c
	return c
}

// Bus routes messages between connections.
type Bus struct {
	mu      sync.Mutex
	subs    *node // subscription filters
	store   *node // retained messages by concrete topic
	qLen    int
	replyID atomic.Uint32
}

// NewBus creates a bus with the given per-subscription queue length.
func NewBus(queueLen int) *Bus {
	if queueLen <= 0 {
		queueLen = 8
	}
	return &Bus{subs: &node{}, store: &node{}, qLen: queueLen}
}

// NewMessage is a convenience constructor.
func (b *Bus) NewMessage(topic Topic, payload any, retained bool) *Message {
	return &Message{Topic: topic, Payload: payload, Retained: retained}
}

// Publish stores retained state and fans out to matching subscriptions.
func (b *Bus) Publish(msg *Message) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if msg.Retained {
		n := b.store
		for _, tok := range msg.Topic {
			n = n.child(tok, true)
		}
		if msg.Payload == nil {
			n.retained = nil
		} else {
			n.retained = msg
		}
	}
	if msg.Retained && msg.Payload == nil {
		return
	}
	var hits []*Subscription
	collectSubs(b.subs, msg.Topic, &hits)
	// Delivery never blocks, so it stays under the lock; that keeps it
	// ordered with unsubscribe closing the channel.
	for _, s := range hits {
		s.deliver(msg)
	}
}

// collectSubs walks the filter trie against a concrete topic.
func collectSubs(n *node, topic Topic, out *[]*Subscription) {
	if n == nil {
		return
	}
	if c := n.children[wildRest]; c != nil {
		*out = append(*out, c.subs...)
	}
	if len(topic) == 0 {
		*out = append(*out, n.subs...)
		return
	}
	collectSubs(n.children[topic[0]], topic[1:], out)
	if topic[0] != wildOne {
		collectSubs(n.children[wildOne], topic[1:], out)
	}
}

// collectRetained walks the retained store against a filter.
func collectRetained(n *node, filter Topic, out *[]*Message) {
	if n == nil {
		return
	}
	if len(filter) == 0 {
		if n.retained != nil {
			*out = append(*out, n.retained)
		}
		return
	}
	switch filter[0] {
	case wildRest:
		var walk func(*node)
		walk = func(x *node) {
			if x.retained != nil {
				*out = append(*out, x.retained)
			}
			for _, c := range x.children {
				walk(c)
			}
		}
		walk(n)
	case wildOne:
		for _, c := range n.children {
			collectRetained(c, filter[1:], out)
		}
	default:
		collectRetained(n.children[filter[0]], filter[1:], out)
	}
}

func (b *Bus) subscribe(c *Connection, filter Topic) *Subscription {
	s := &Subscription{filter: filter, ch: make(chan *Message, b.qLen), conn: c}

	b.mu.Lock()
	n := b.subs
	for _, tok := range filter {
		n = n.child(tok, true)
	}
	n.subs = append(n.subs, s)
	var retained []*Message
	collectRetained(b.store, filter, &retained)
	for _, m := range retained {
		s.deliver(m)
	}
	b.mu.Unlock()
	return s
}

func (b *Bus) unsubscribe(s *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := b.subs
	path := []*node{n}
	for _, tok := range s.filter {
		n = n.child(tok, false)
		if n == nil {
			return
		}
		path = append(path, n)
	}
	for i, x := range n.subs {
		if x == s {
			n.subs = append(n.subs[:i], n.subs[i+1:]...)
			break
		}
	}
	// prune empty branches
	for i := len(s.filter) - 1; i >= 0; i-- {
		parent, cur := path[i], path[i+1]
		if len(cur.subs) > 0 || len(cur.children) > 0 {
			break
		}
		delete(parent.children, s.filter[i])
	}
}

// Connection groups subscriptions owned by one service.
type Connection struct {
	bus  *Bus
	id   string
	mu   sync.Mutex
	subs []*Subscription
}

// NewConnection creates a connection bound to this bus.
func (b *Bus) NewConnection(id string) *Connection {
	return &Connection{bus: b, id: id}
}

func (c *Connection) ID() string { return c.id }

func (c *Connection) NewMessage(topic Topic, payload any, retained bool) *Message {
	return c.bus.NewMessage(topic, payload, retained)
}

func (c *Connection) Publish(msg *Message) { c.bus.Publish(msg) }

// Subscribe registers a subscription owned by this connection.
func (c *Connection) Subscribe(filter Topic) *Subscription {
	s := c.bus.subscribe(c, filter)
	c.mu.Lock()
	c.subs = append(c.subs, s)
	c.mu.Unlock()
	return s
}

// Unsubscribe removes and closes a subscription.
func (c *Connection) Unsubscribe(s *Subscription) {
	if s == nil {
		return
	}
	s.once.Do(func() {
		c.bus.unsubscribe(s)
		c.mu.Lock()
		for i, x := range c.subs {
			if x == s {
				c.subs = append(c.subs[:i], c.subs[i+1:]...)
				break
			}
		}
		c.mu.Unlock()
		close(s.ch)
	})
}

// Disconnect closes every subscription of this connection.
func (c *Connection) Disconnect() {
	c.mu.Lock()
	subs := append([]*Subscription(nil), c.subs...)
	c.mu.Unlock()
	for _, s := range subs {
		c.Unsubscribe(s)
	}
}

// Reply answers a request on its ReplyTo topic. No-op if none was set.
func (c *Connection) Reply(req *Message, payload any, retained bool) {
	if !req.CanReply() {
		return
	}
	c.Publish(c.NewMessage(req.ReplyTo, payload, retained))
}

// Request assigns a private reply topic, subscribes to it and publishes req.
// The caller owns the returned subscription.
func (c *Connection) Request(req *Message) *Subscription {
	id := c.bus.replyID.Add(1)
	req.ReplyTo = T("_reply", c.id, strconv.FormatUint(uint64(id), 10))
	s := c.Subscribe(req.ReplyTo)
	c.Publish(req)
	return s
}

// RequestWait publishes req and blocks for the first reply or ctx expiry.
func (c *Connection) RequestWait(ctx context.Context, req *Message) (*Message, error) {
	s := c.Request(req)
	defer c.Unsubscribe(s)
	select {
	case m := <-s.Channel():
		return m, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
