package bus

import (
	"testing"
)

func TestPublishReachesSubscribers(t *testing.T) {
	b := New()

	got1, got2 := 0, 0
	b.Subscribe("panel/created", func(any) { got1++ })
	b.Subscribe("panel/created", func(any) { got2++ })
	b.Subscribe("panel/deleted", func(any) { t.Error("Wrong topic invoked") })

	b.Publish("panel/created", nil)

	if got1 != 1 || got2 != 1 {
		t.Errorf("Expected both handlers called once, got %d and %d", got1, got2)
	}
}

func TestPublishDeliversPayload(t *testing.T) {
	b := New()

	var got any
	b.Subscribe("clock/step", func(payload any) { got = payload })
	b.Publish("clock/step", 7)

	if got != 7 {
		t.Errorf("Expected payload 7, got %v", got)
	}
}

func TestPublishWithoutSubscribers(t *testing.T) {
	b := New()
	b.Publish("panel/created", nil) // must not panic
}

func TestUnsubscribe(t *testing.T) {
	b := New()

	calls := 0
	id := b.Subscribe("panel/created", func(any) { calls++ })
	b.Publish("panel/created", nil)
	b.Unsubscribe("panel/created", id)
	b.Publish("panel/created", nil)

	if calls != 1 {
		t.Errorf("Expected 1 call after unsubscribe, got %d", calls)
	}
}

func TestNestedPublish(t *testing.T) {
	b := New()

	var secondFired bool
	b.Subscribe("second", func(any) { secondFired = true })
	b.Subscribe("first", func(any) { b.Publish("second", nil) })

	b.Publish("first", nil)
	if !secondFired {
		t.Error("Publishing from inside a handler did not deliver")
	}
}
