package realtime

import "testing"

func TestBroadcastScopedToRoom(t *testing.T) {
	h := NewHub(4)
	a, chA := h.Register("doc-1")
	_, chB := h.Register("doc-1")
	_, chC := h.Register("doc-2")

	n := h.Broadcast(NewPreview("doc-1", a, "<p>hi</p>"))
	if n != 1 {
		t.Fatalf("expected 1 delivery, got %d", n)
	}

	select {
	case ev := <-chB:
		if ev.HTML != "<p>hi</p>" || ev.Type != "preview" {
			t.Fatalf("unexpected event %+v", ev)
		}
	default:
		t.Fatal("listener on the same room did not receive the event")
	}

	select {
	case ev := <-chA:
		t.Fatalf("source received its own event: %+v", ev)
	case ev := <-chC:
		t.Fatalf("other room received event: %+v", ev)
	default:
	}
}

func TestSlowListenerDrops(t *testing.T) {
	h := NewHub(1)
	_, ch := h.Register("r")

	h.Broadcast(NewPreview("r", 99, "one"))
	if n := h.Broadcast(NewPreview("r", 99, "two")); n != 0 {
		t.Fatalf("expected the second event to be dropped, delivered %d", n)
	}
	if ev := <-ch; ev.HTML != "one" {
		t.Fatalf("expected first event, got %q", ev.HTML)
	}
}

func TestUnregister(t *testing.T) {
	h := NewHub(0)
	id, ch := h.Register("r")
	if h.Size() != 1 || h.RoomSize("r") != 1 {
		t.Fatalf("unexpected sizes %d/%d", h.Size(), h.RoomSize("r"))
	}

	h.Unregister(id)
	h.Unregister(id)

	if _, ok := <-ch; ok {
		t.Fatal("channel should be closed")
	}
	if h.Size() != 0 {
		t.Fatalf("expected empty hub, got %d", h.Size())
	}
}
