package bus

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"
)

// state mimics the retained muic/state payload.
type state struct {
	Device string
	Path   string
}

func cableEvent(name string) Topic { return T("muic", "cable", name, "event") }

func recv(t *testing.T, s *Subscription) *Message {
	t.Helper()
	select {
	case m, ok := <-s.Channel():
		if !ok {
			t.Fatal("subscription closed")
		}
		return m
	case <-time.After(200 * time.Millisecond):
		t.Fatalf("nothing delivered on %v", s.Topic())
	}
	return nil
}

func quiet(t *testing.T, s *Subscription) {
	t.Helper()
	select {
	case m := <-s.Channel():
		t.Fatalf("unexpected delivery on %v: %v %v", s.Topic(), m.Topic, m.Payload)
	case <-time.After(20 * time.Millisecond):
	}
}

func TestFilterMatching(t *testing.T) {
	tests := []struct {
		name   string
		filter Topic
		topic  Topic
		match  bool
	}{
		{"exact", T("muic", "state"), T("muic", "state"), true},
		{"cable name level", T("muic", "cable", "+", "event"), cableEvent("HV-TA"), true},
		{"plus is one level", T("muic", "cable", "+"), cableEvent("TA"), false},
		{"hash takes the rest", T("muic", "#"), cableEvent("USB-Host"), true},
		{"hash at root", T("#"), T("config", "muic"), true},
		{"hash needs the prefix", T("muic", "#"), T("config", "muic"), false},
		{"longer topic", T("muic", "state"), T("muic", "state", "extra"), false},
		{"control verb", T("muic", "control", "+"), T("muic", "control", "afc_disabled"), true},
		{"int tokens", T("muic", "irq", 3), T("muic", "irq", 3), true},
		{"int vs string", T("muic", "irq", 3), T("muic", "irq", "3"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBus(4)
			c := b.NewConnection("svc")
			s := c.Subscribe(tt.filter)
			c.Publish(c.NewMessage(tt.topic, "x", false))
			if tt.match {
				if m := recv(t, s); m.Payload != "x" {
					t.Fatalf("payload %v", m.Payload)
				}
				return
			}
			quiet(t, s)
		})
	}
}

func TestRetainedStateReachesLateSubscriber(t *testing.T) {
	b := NewBus(4)
	muic := b.NewConnection("muic")
	muic.Publish(muic.NewMessage(T("muic", "state"), state{"No cable", "OPEN"}, true))
	muic.Publish(muic.NewMessage(T("muic", "state"), state{"TA", "OPEN"}, true))

	ui := b.NewConnection("ui")
	s := ui.Subscribe(T("muic", "state"))
	m := recv(t, s)
	if !m.Retained || m.Payload.(state).Device != "TA" {
		t.Fatalf("got %+v, want the latest retained state", m)
	}
	quiet(t, s)
}

func TestRetainedStoreIsSeparateFromFilters(t *testing.T) {
	b := NewBus(8)
	c := b.NewConnection("muic")
	// Retained on concrete topics with no subscriber yet.
	c.Publish(c.NewMessage(T("muic", "state"), state{Device: "OTG"}, true))
	c.Publish(c.NewMessage(T("muic", "jig"), false, true))
	c.Publish(c.NewMessage(cableEvent("TA"), "not retained", false))

	s := c.Subscribe(T("muic", "#"))
	got := []string{}
	for i := 0; i < 2; i++ {
		m := recv(t, s)
		got = append(got, m.Topic[1].(string))
	}
	sort.Strings(got)
	if got[0] != "jig" || got[1] != "state" {
		t.Fatalf("retained topics %v", got)
	}
	quiet(t, s)

	// A single-level filter walks the store too.
	one := c.Subscribe(T("muic", "+"))
	recv(t, one)
	recv(t, one)
	quiet(t, one)
}

func TestRetainedClear(t *testing.T) {
	b := NewBus(4)
	c := b.NewConnection("muic")
	live := c.Subscribe(T("muic", "jig"))
	c.Publish(c.NewMessage(T("muic", "jig"), true, true))
	recv(t, live)

	// A nil retained payload clears the entry and is not fanned out.
	c.Publish(c.NewMessage(T("muic", "jig"), nil, true))
	quiet(t, live)

	late := c.Subscribe(T("muic", "jig"))
	quiet(t, late)
}

func TestFullQueueKeepsNewest(t *testing.T) {
	b := NewBus(2)
	c := b.NewConnection("muic")
	s := c.Subscribe(T("muic", "cable", "+", "event"))
	for _, name := range []string{"USB", "TA", "HV-Prepare", "HV-TA"} {
		c.Publish(c.NewMessage(cableEvent(name), name, false))
	}
	if got := recv(t, s).Payload; got != "HV-Prepare" {
		t.Fatalf("first = %v, want HV-Prepare", got)
	}
	if got := recv(t, s).Payload; got != "HV-TA" {
		t.Fatalf("second = %v, want HV-TA", got)
	}
	quiet(t, s)
}

func TestCanReply(t *testing.T) {
	var nilMsg *Message
	if nilMsg.CanReply() {
		t.Fatal("nil message")
	}
	b := NewBus(4)
	c := b.NewConnection("muic")
	plain := c.NewMessage(T("muic", "control", "state"), nil, false)
	if plain.CanReply() {
		t.Fatal("plain publish has no reply topic")
	}
	// Reply on a message without ReplyTo publishes nothing.
	s := c.Subscribe(T("#"))
	c.Reply(plain, "ignored", false)
	quiet(t, s)

	c.Request(c.NewMessage(T("muic", "control", "state"), nil, false))
	m := recv(t, s)
	if !m.CanReply() || m.ReplyTo[0] != "_reply" || m.ReplyTo[1] != "muic" {
		t.Fatalf("request reply topic %v", m.ReplyTo)
	}
}

// serveControl answers every muic/control/<verb> request with the verb.
func serveControl(ctx context.Context, c *Connection) {
	s := c.Subscribe(T("muic", "control", "+"))
	go func() {
		defer c.Unsubscribe(s)
		for {
			select {
			case <-ctx.Done():
				return
			case m := <-s.Channel():
				c.Reply(m, m.Topic[2], false)
			}
		}
	}()
}

func TestRequestWaitGetsReply(t *testing.T) {
	b := NewBus(4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	serveControl(ctx, b.NewConnection("muic"))

	cli := b.NewConnection("console")
	rctx, rcancel := context.WithTimeout(ctx, time.Second)
	defer rcancel()
	for _, verb := range []string{"afc_disabled", "voltage_tier"} {
		m, err := cli.RequestWait(rctx, cli.NewMessage(T("muic", "control", verb), "1", false))
		if err != nil {
			t.Fatal(err)
		}
		if m.Payload != verb {
			t.Fatalf("reply %v, want %s", m.Payload, verb)
		}
	}
}

func TestRequestIDsAreDistinct(t *testing.T) {
	b := NewBus(4)
	c := b.NewConnection("console")
	r1 := c.NewMessage(T("muic", "control", "state"), nil, false)
	r2 := c.NewMessage(T("muic", "control", "state"), nil, false)
	s1, s2 := c.Request(r1), c.Request(r2)
	defer c.Unsubscribe(s1)
	defer c.Unsubscribe(s2)
	if r1.ReplyTo[2] == r2.ReplyTo[2] {
		t.Fatalf("reply topics collide: %v", r1.ReplyTo)
	}
	c.Reply(r2, "second", false)
	if recv(t, s2).Payload != "second" {
		t.Fatal("reply went astray")
	}
	quiet(t, s1)
}

func TestRequestWaitTimesOut(t *testing.T) {
	b := NewBus(4)
	c := b.NewConnection("console")
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := c.RequestWait(ctx, c.NewMessage(T("muic", "control", "state"), nil, false))
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v", err)
	}
}

func TestDisconnectClosesEverySubscription(t *testing.T) {
	b := NewBus(4)
	c := b.NewConnection("muic")
	subs := []*Subscription{
		c.Subscribe(T("config", "muic")),
		c.Subscribe(T("muic", "control", "+")),
	}
	other := b.NewConnection("ui").Subscribe(T("muic", "state"))

	c.Disconnect()
	for _, s := range subs {
		if _, ok := <-s.Channel(); ok {
			t.Fatalf("%v still open", s.Topic())
		}
	}
	// Later publishes neither panic on closed channels nor reach them.
	c.Publish(c.NewMessage(T("config", "muic"), "cfg", true))
	c.Publish(c.NewMessage(T("muic", "state"), state{Device: "TA"}, true))
	if recv(t, other).Payload.(state).Device != "TA" {
		t.Fatal("other connection lost delivery")
	}
	// Unsubscribing again is a no-op.
	c.Unsubscribe(subs[0])
	c.Disconnect()
}

func TestUnsubscribeThenResubscribe(t *testing.T) {
	b := NewBus(4)
	c := b.NewConnection("muic")
	s := c.Subscribe(T("muic", "cable", "+", "event"))
	c.Unsubscribe(s)
	c.Unsubscribe(nil)

	again := c.Subscribe(T("muic", "cable", "+", "event"))
	c.Publish(c.NewMessage(cableEvent("MHL"), "MHL", false))
	if recv(t, again).Payload != "MHL" {
		t.Fatal("pruned filter did not come back")
	}
}

func TestTopicTokens(t *testing.T) {
	base := T("muic", "cable")
	ev := base.Append("TA", "event")
	if ev.Len() != 4 || ev.At(2) != "TA" || base.Len() != 2 {
		t.Fatalf("append %v from %v", ev, base)
	}
	for _, bad := range []any{nil, []string{"x"}, map[string]int{}} {
		func() {
			defer func() {
				if recover() == nil {
					t.Fatalf("token %#v accepted", bad)
				}
			}()
			T("muic", bad)
		}()
	}
}
