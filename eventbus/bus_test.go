package eventbus_test

import (
	"testing"
	"time"

	"github.com/brindlehq/jobqueue/eventbus"
	"github.com/google/uuid"
)

func TestPublishDeliversToSubscriber(t *testing.T) {
	bus := eventbus.New()
	sub := bus.Subscribe(nil)
	defer sub.Close()

	jobId := uuid.New()
	bus.Publish(eventbus.Event{Type: eventbus.JobCompleted, JobId: jobId, TenantId: "t1"})

	select {
	case ev := <-sub.Events():
		if ev.JobId != jobId {
			t.Fatalf("expected job id %v, got %v", jobId, ev.JobId)
		}
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}
}

func TestPublishFiltersPerSubscription(t *testing.T) {
	bus := eventbus.New()
	sub := bus.Subscribe(func(ev eventbus.Event) bool {
		return ev.TenantId == "wanted"
	})
	defer sub.Close()

	bus.Publish(eventbus.Event{Type: eventbus.JobCompleted, TenantId: "unwanted"})
	bus.Publish(eventbus.Event{Type: eventbus.JobCompleted, TenantId: "wanted"})

	select {
	case ev := <-sub.Events():
		if ev.TenantId != "wanted" {
			t.Fatalf("expected filtered event, got tenant %q", ev.TenantId)
		}
	case <-time.After(time.Second):
		t.Fatal("filtered event not delivered")
	}

	select {
	case ev, ok := <-sub.Events():
		if ok {
			t.Fatalf("unexpected second event: %+v", ev)
		}
	default:
	}
}

func TestPublishDropsWhenSubscriberBufferFull(t *testing.T) {
	bus := eventbus.New()
	sub := bus.Subscribe(nil)
	defer sub.Close()

	for i := 0; i < 1000; i++ {
		bus.Publish(eventbus.Event{Type: eventbus.JobStarted})
	}
}

func TestCloseClosesSubscriptionChannel(t *testing.T) {
	bus := eventbus.New()
	sub := bus.Subscribe(nil)
	bus.Close()

	_, ok := <-sub.Events()
	if ok {
		t.Fatal("expected channel to be closed")
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	bus := eventbus.New()
	sub := bus.Subscribe(nil)
	sub.Close()

	bus.Publish(eventbus.Event{Type: eventbus.JobFailed})

	_, ok := <-sub.Events()
	if ok {
		t.Fatal("expected channel closed after unsubscribe")
	}
}
