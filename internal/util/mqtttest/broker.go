// Package mqtttest runs an in-process MQTT broker for tests that need the real paho paths.
package mqtttest

import (
	"fmt"
	"log/slog"
	"net"
	"os"
	"sync"
	"testing"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/lmittmann/tint"
	mochi "github.com/mochi-mqtt/server/v2"
	"github.com/mochi-mqtt/server/v2/hooks/auth"
	"github.com/mochi-mqtt/server/v2/listeners"
	"github.com/stretchr/testify/require"
)

const (
	BROKER_HOST   = "127.0.0.1"
	CLIENT_WAIT   = 5 * time.Second
	BROKER_LISTEN = "laundrynet_test"
)

// Broker is a broker bound to a fixed local port, so clients can reconnect to it after Restart.
type Broker struct {
	t    testing.TB
	port int

	mu     sync.Mutex
	server *mochi.Server
}

// StartBroker starts a broker on a free port. It is closed when the test ends.
func StartBroker(t testing.TB) *Broker {
	t.Helper()
	b := &Broker{t: t, port: freePort(t)}
	b.start()
	t.Cleanup(b.Close)
	return b
}

func (b *Broker) Host() string {
	return BROKER_HOST
}

func (b *Broker) Port() int {
	return b.port
}

// Restart drops every client connection and session, then listens again on the same port.
func (b *Broker) Restart() {
	b.Close()
	b.start()
}

func (b *Broker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.server != nil {
		_ = b.server.Close()
		b.server = nil
	}
}

// Client returns a connected client, disconnected when the test ends.
func (b *Broker) Client() pahomqtt.Client {
	b.t.Helper()
	opts := pahomqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", BROKER_HOST, b.port))
	opts.SetClientID(fmt.Sprintf("test_%s", uuid.NewString()[:8]))
	client := pahomqtt.NewClient(opts)
	token := client.Connect()
	require.True(b.t, token.WaitTimeout(CLIENT_WAIT), "test client connect timeout")
	require.NoError(b.t, token.Error())
	b.t.Cleanup(func() { client.Disconnect(100) })
	return client
}

// Publish sends a message with qos 1 and waits for the broker ack.
func (b *Broker) Publish(client pahomqtt.Client, topic, payload string, retain bool) {
	b.t.Helper()
	token := client.Publish(topic, 1, retain, payload)
	require.True(b.t, token.WaitTimeout(CLIENT_WAIT), "publish timeout")
	require.NoError(b.t, token.Error())
}

// Subscribe records the last payload received on topic.
func (b *Broker) Subscribe(client pahomqtt.Client, topic string) *LastMessage {
	b.t.Helper()
	last := &LastMessage{}
	token := client.Subscribe(topic, 1, func(_ pahomqtt.Client, m pahomqtt.Message) {
		last.set(string(m.Payload()))
	})
	require.True(b.t, token.WaitTimeout(CLIENT_WAIT), "subscribe timeout")
	require.NoError(b.t, token.Error())
	return last
}

func (b *Broker) start() {
	b.t.Helper()
	server := mochi.New(&mochi.Options{
		Logger: slog.New(tint.NewHandler(os.Stderr, &tint.Options{Level: slog.LevelWarn})),
	})
	require.NoError(b.t, server.AddHook(new(auth.AllowHook), nil))
	tcp := listeners.NewTCP(listeners.Config{
		ID:      BROKER_LISTEN,
		Address: fmt.Sprintf("%s:%d", BROKER_HOST, b.port),
	})
	require.NoError(b.t, server.AddListener(tcp))
	require.NoError(b.t, server.Serve())

	b.mu.Lock()
	b.server = server
	b.mu.Unlock()
}

type LastMessage struct {
	mu      sync.Mutex
	payload string
	count   int
}

func (m *LastMessage) set(payload string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payload = payload
	m.count++
}

func (m *LastMessage) Payload() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.payload
}

func (m *LastMessage) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.count
}

func freePort(t testing.TB) int {
	t.Helper()
	l, err := net.Listen("tcp", fmt.Sprintf("%s:0", BROKER_HOST))
	require.NoError(t, err)
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}
