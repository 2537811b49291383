package realtime

import (
	"testing"
	"time"

	"github.com/bassem-o/School/database"
)

var _ database.Sink = (*Hub)(nil)

func TestHub_PublishReachesSubscriber(t *testing.T) {
	hub := NewHub()
	ch, unsubscribe := hub.Subscribe("absence_requests")
	defer unsubscribe()

	hub.Publish("absence_requests")

	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("signal never arrived")
	}
}

func TestHub_TablesAreIsolated(t *testing.T) {
	hub := NewHub()
	ch, unsubscribe := hub.Subscribe("absence_requests")
	defer unsubscribe()

	hub.Publish("delay_requests")

	select {
	case <-ch:
		t.Fatal("received a signal for another table")
	default:
	}
}

func TestHub_BurstsCoalesce(t *testing.T) {
	hub := NewHub()
	ch, unsubscribe := hub.Subscribe("absence_requests")
	defer unsubscribe()

	for i := 0; i < 5; i++ {
		hub.Publish("absence_requests")
	}

	// one pending signal, not five
	<-ch
	select {
	case <-ch:
		t.Fatal("burst was queued instead of coalesced")
	default:
	}
}

func TestHub_UnsubscribeStopsDelivery(t *testing.T) {
	hub := NewHub()
	ch, unsubscribe := hub.Subscribe("absence_requests")
	unsubscribe()

	hub.Publish("absence_requests")

	select {
	case <-ch:
		t.Fatal("received a signal after unsubscribing")
	default:
	}
}

func TestHub_PublishWithoutSubscribersIsSafe(t *testing.T) {
	NewHub().Publish("absence_requests")
}
