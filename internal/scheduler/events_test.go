package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBusDeliversToSubscriber(t *testing.T) {
	bus := NewBus(4)
	ch := bus.Subscribe()

	bus.Publish(Event{Kind: EventJobStarted, JobID: "j1"})

	select {
	case e := <-ch:
		assert.Equal(t, "j1", e.JobID)
	case <-time.After(time.Second):
		t.Fatal("expected event not delivered")
	}
}

func TestBusDropsWhenSubscriberFull(t *testing.T) {
	bus := NewBus(1)
	ch := bus.Subscribe()

	bus.Publish(Event{Kind: EventJobStarted, JobID: "first"})
	bus.Publish(Event{Kind: EventJobStarted, JobID: "second"}) // dropped, buffer full

	e := <-ch
	assert.Equal(t, "first", e.JobID)

	select {
	case <-ch:
		t.Fatal("second event should have been dropped, not delivered")
	default:
	}
}
