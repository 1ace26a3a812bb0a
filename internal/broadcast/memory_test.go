package broadcast

import (
	"encoding/json"
	"testing"
)

func syncMsg(sender, payload string) Message {
	return Message{Type: SyncType, Sender: sender, Payload: json.RawMessage(payload)}
}

func TestMemoryBus_PublishReachesAllSubscribers(t *testing.T) {
	bus := NewMemoryBus()

	var got []string
	unsubA := bus.Subscribe("cart", func(m Message) { got = append(got, "a:"+m.Sender) })
	defer unsubA()
	unsubB := bus.Subscribe("cart", func(m Message) { got = append(got, "b:"+m.Sender) })
	defer unsubB()

	if err := bus.Publish("cart", syncMsg("x", "[]")); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("deliveries = %v; want 2", got)
	}
}

func TestMemoryBus_TopicsAreIsolated(t *testing.T) {
	bus := NewMemoryBus()

	delivered := 0
	unsub := bus.Subscribe("cart", func(Message) { delivered++ })
	defer unsub()

	_ = bus.Publish("other", syncMsg("x", "[]"))
	if delivered != 0 {
		t.Errorf("message leaked across topics: %d deliveries", delivered)
	}
}

func TestMemoryBus_UnsubscribeStopsDelivery(t *testing.T) {
	bus := NewMemoryBus()

	delivered := 0
	unsub := bus.Subscribe("cart", func(Message) { delivered++ })

	_ = bus.Publish("cart", syncMsg("x", "[]"))
	unsub()
	_ = bus.Publish("cart", syncMsg("x", "[]"))

	if delivered != 1 {
		t.Errorf("deliveries = %d; want 1", delivered)
	}
}

func TestMemoryBus_PublishWithoutSubscribers(t *testing.T) {
	bus := NewMemoryBus()
	if err := bus.Publish("cart", syncMsg("x", "[]")); err != nil {
		t.Errorf("Publish failed: %v", err)
	}
}
