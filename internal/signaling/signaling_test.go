package signaling

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

type recorder struct {
	registered chan struct{}
	offers     chan Message
	answers    chan Message
	hosts      chan []HostInfo
	gone       chan string
	errs       chan string
}

func newRecorder() *recorder {
	return &recorder{
		registered: make(chan struct{}, 4),
		offers:     make(chan Message, 4),
		answers:    make(chan Message, 4),
		hosts:      make(chan []HostInfo, 8),
		gone:       make(chan string, 4),
		errs:       make(chan string, 4),
	}
}

func (r *recorder) handler() Handler {
	return Handler{
		OnRegistered: func() { r.registered <- struct{}{} },
		OnOffer: func(from string, p json.RawMessage) {
			r.offers <- Message{From: from, Payload: p}
		},
		OnAnswer: func(from string, p json.RawMessage) {
			r.answers <- Message{From: from, Payload: p}
		},
		OnHostsUpdated:     func(h []HostInfo) { r.hosts <- h },
		OnHostDisconnected: func(id string) { r.gone <- id },
		OnError:            func(msg string) { r.errs <- msg },
	}
}

func wait[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for signaling message")
	}
	var zero T
	return zero
}

func startServer(t *testing.T) string {
	t.Helper()
	srv := httptest.NewServer(NewServer())
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func connect(t *testing.T, url, id, clientType string, r *recorder) *Client {
	t.Helper()
	c := NewClient(url, id, clientType, r.handler())
	if err := c.Connect(); err != nil {
		t.Fatalf("Connect(%s) failed: %v", id, err)
	}
	t.Cleanup(c.Close)
	wait(t, r.registered)
	return c
}

func TestRelayOfferAndAnswer(t *testing.T) {
	url := startServer(t)
	hr, vr := newRecorder(), newRecorder()
	host := connect(t, url, "dvs-host", ClientTypeHost, hr)
	viewer := connect(t, url, "viewer-1", ClientTypeViewer, vr)

	if err := viewer.SendOffer("dvs-host", json.RawMessage(`{"sdp":"o"}`)); err != nil {
		t.Fatalf("SendOffer failed: %v", err)
	}
	offer := wait(t, hr.offers)
	if offer.From != "viewer-1" || string(offer.Payload) != `{"sdp":"o"}` {
		t.Errorf("host got offer %+v", offer)
	}

	if err := host.SendAnswer("viewer-1", json.RawMessage(`{"sdp":"a"}`)); err != nil {
		t.Fatalf("SendAnswer failed: %v", err)
	}
	answer := wait(t, vr.answers)
	if answer.From != "dvs-host" {
		t.Errorf("viewer got answer from %q, want dvs-host", answer.From)
	}
}

func TestUnknownTarget(t *testing.T) {
	url := startServer(t)
	vr := newRecorder()
	viewer := connect(t, url, "viewer-1", ClientTypeViewer, vr)

	viewer.SendOffer("nobody", json.RawMessage(`{}`))
	if msg := wait(t, vr.errs); !strings.Contains(msg, "nobody") {
		t.Errorf("error = %q, want mention of the target", msg)
	}
}

func TestHostListAndDisconnect(t *testing.T) {
	url := startServer(t)
	vr := newRecorder()
	viewer := connect(t, url, "viewer-1", ClientTypeViewer, vr)

	hr := newRecorder()
	host := connect(t, url, "dvs-host", ClientTypeHost, hr)
	if list := wait(t, vr.hosts); len(list) != 1 || list[0].ID != "dvs-host" {
		t.Fatalf("hosts-updated = %+v", list)
	}

	viewer.RequestHostList()
	if list := wait(t, vr.hosts); len(list) != 1 || !list[0].Online {
		t.Fatalf("hosts = %+v", list)
	}

	host.Close()
	if id := wait(t, vr.gone); id != "dvs-host" {
		t.Errorf("host-disconnected = %q", id)
	}
	if list := wait(t, vr.hosts); len(list) != 0 {
		t.Errorf("hosts after disconnect = %+v", list)
	}
}

func TestSendBeforeConnect(t *testing.T) {
	c := NewClient("ws://unused", "x", ClientTypeViewer, Handler{})
	if err := c.SendOffer("y", nil); err != ErrNotConnected {
		t.Errorf("SendOffer() = %v, want ErrNotConnected", err)
	}
}
