package eventbus

import (
	"testing"
	"time"
)

func TestPublishFansOut(t *testing.T) {
	t.Parallel()

	b := New()
	ch1, un1 := b.Subscribe(4)
	ch2, un2 := b.Subscribe(4)
	defer un1()
	defer un2()

	b.Publish(Event{Type: "x", Data: 7})

	for _, ch := range []<-chan Event{ch1, ch2} {
		select {
		case e := <-ch:
			if e.Type != "x" || e.Data != 7 {
				t.Fatalf("event = %+v", e)
			}
			if e.Time.IsZero() {
				t.Fatal("timestamp not stamped")
			}
		case <-time.After(time.Second):
			t.Fatal("subscriber missed event")
		}
	}
}

func TestPublishNeverBlocksOnFullSubscriber(t *testing.T) {
	t.Parallel()

	b := New()
	_, unsub := b.Subscribe(1)
	defer unsub()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			b.Publish(Event{Type: "spam"})
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked on a full subscriber")
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	t.Parallel()

	b := New()
	ch, unsub := b.Subscribe(1)
	unsub()
	unsub() // idempotent

	if _, ok := <-ch; ok {
		t.Fatal("channel not closed after unsubscribe")
	}

	// Publishing after unsubscribe must not panic.
	b.Publish(Event{Type: "late"})
}
