// Package broker connects the control queue to an MQTT broker so that peers
// which cannot share a marker directory can still coordinate.
package broker

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/junsooki/dvsview/internal/config"
	"github.com/junsooki/dvsview/internal/control"
)

var ErrNotConnected = errors.New("mqtt not connected")

// Bridge subscribes to <topic>/request and publishes to <topic>/announce.
type Bridge struct {
	cfg    config.BrokerConfig
	queue  *control.Queue
	client mqtt.Client

	mu        sync.RWMutex
	connected bool

	received  atomic.Uint64
	rejected  atomic.Uint64
	announced atomic.Uint64
}

// NewBridge creates a bridge posting requests into q.
func NewBridge(cfg config.BrokerConfig, q *control.Queue) *Bridge {
	return &Bridge{cfg: cfg, queue: q}
}

func (b *Bridge) requestTopic() string  { return b.cfg.Topic + "/request" }
func (b *Bridge) announceTopic() string { return b.cfg.Topic + "/announce" }

func brokerURL(addr string) string {
	if strings.Contains(addr, "://") {
		return addr
	}
	return "tcp://" + addr
}

// Connect dials the broker and subscribes. The client reconnects on its own
// and resubscribes on every connect.
func (b *Bridge) Connect() error {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(brokerURL(b.cfg.Address))
	opts.SetClientID(b.cfg.ClientID)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(2 * time.Second)
	opts.SetMaxReconnectInterval(30 * time.Second)

	opts.OnConnect = func(c mqtt.Client) {
		b.setConnected(true)
		log.Printf("mqtt connected to %s as %s", b.cfg.Address, b.cfg.ClientID)
		token := c.Subscribe(b.requestTopic(), 1, func(_ mqtt.Client, msg mqtt.Message) {
			b.handle(msg.Payload())
		})
		go func() {
			if !token.WaitTimeout(5*time.Second) || token.Error() != nil {
				log.Printf("mqtt subscribe %s: %v", b.requestTopic(), token.Error())
			}
		}()
	}
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		b.setConnected(false)
		log.Printf("mqtt connection lost, will reconnect: %v", err)
	}

	b.client = mqtt.NewClient(opts)
	log.Printf("connecting to mqtt broker %s", b.cfg.Address)
	token := b.client.Connect()
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("mqtt connection timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt connection failed: %w", err)
	}
	return nil
}

func (b *Bridge) handle(payload []byte) {
	k, err := DecodeRequest(payload)
	if err != nil {
		b.rejected.Add(1)
		log.Printf("mqtt request rejected: %v", err)
		return
	}
	b.received.Add(1)
	b.queue.Post(control.Signal{Kind: k, Origin: control.Broker})
}

// Announce publishes that this process acted on a local request.
func (b *Bridge) Announce(k control.Kind) error {
	if !b.isConnected() {
		return ErrNotConnected
	}
	payload, err := EncodeAnnouncement(k, b.cfg.ClientID, time.Now())
	if err != nil {
		return err
	}
	token := b.client.Publish(b.announceTopic(), 1, false, payload)
	if !token.WaitTimeout(2 * time.Second) {
		return fmt.Errorf("publish timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish failed: %w", err)
	}
	b.announced.Add(1)
	return nil
}

// Close unsubscribes and disconnects.
func (b *Bridge) Close() {
	if b.client != nil && b.client.IsConnected() {
		b.client.Unsubscribe(b.requestTopic()).WaitTimeout(time.Second)
		b.client.Disconnect(250)
		log.Println("mqtt disconnected")
	}
	b.setConnected(false)
}

// Stats reports bridge counters.
type Stats struct {
	Connected bool
	Received  uint64
	Rejected  uint64
	Announced uint64
}

func (b *Bridge) Stats() Stats {
	return Stats{
		Connected: b.isConnected(),
		Received:  b.received.Load(),
		Rejected:  b.rejected.Load(),
		Announced: b.announced.Load(),
	}
}

func (b *Bridge) setConnected(v bool) {
	b.mu.Lock()
	b.connected = v
	b.mu.Unlock()
}

func (b *Bridge) isConnected() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.connected
}

var _ control.Announcer = (*Bridge)(nil)
