package washerdryer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
)

const (
	HUB_MAX_RECONNECT_INTERVAL = 30 * time.Second
	HUB_SUBSCRIBE_TIMEOUT      = 5 * time.Second
)

var (
	ErrNotConnected      = errors.New("gateway not connected")
	ErrUnexpectedPayload = errors.New("unexpected payload")
)

// Hub owns the connection to the broker where the appliance gateway pushes
// attribute updates. Every WasherDryer created by a Hub shares it.
type Hub struct {
	client mqtt.Client
	topic  string

	mu        sync.Mutex
	users     int
	appliance map[string]*WasherDryer
	onError   func(said string, err error)
}

func NewHub(host string, port int, username, password, topic string) *Hub {
	h := &Hub{
		topic:     topic,
		appliance: make(map[string]*WasherDryer),
	}
	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", host, port))
	opts.SetClientID(fmt.Sprintf("laundrynet_gateway_%s", uuid.NewString()[0:8]))
	if username != "" && password != "" {
		opts.SetUsername(username)
		opts.SetPassword(password)
	}
	opts.SetAutoReconnect(true)
	opts.SetMaxReconnectInterval(HUB_MAX_RECONNECT_INTERVAL)
	opts.SetCleanSession(true)
	// a clean session drops the subscriptions of every reconnect
	opts.SetOnConnectHandler(h.resubscribe)
	opts.SetConnectionLostHandler(h.connectionLost)
	h.client = mqtt.NewClient(opts)
	return h
}

// OnError sets the handler of gateway messages that could not be applied.
func (h *Hub) OnError(fn func(said string, err error)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onError = fn
}

func (h *Hub) WasherDryer(said string) *WasherDryer {
	return &WasherDryer{
		hub:       h,
		said:      said,
		attrs:     make(map[string]string),
		callbacks: make(map[CallbackId]func()),
	}
}

func (h *Hub) attributesTopic(said string) string {
	return fmt.Sprintf("%s/%s/attributes", h.topic, said)
}

func (h *Hub) onlineTopic(said string) string {
	return fmt.Sprintf("%s/%s/online", h.topic, said)
}

func (h *Hub) acquire(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.client.IsConnected() {
		if err := waitToken(ctx, h.client.Connect()); err != nil {
			return fmt.Errorf("gateway connect: %w", err)
		}
	}
	h.users++
	return nil
}

func (h *Hub) release() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.users == 0 {
		return
	}
	h.users--
	if h.users == 0 {
		h.client.Disconnect(250)
	}
}

func (h *Hub) register(wd *WasherDryer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.appliance[wd.said] = wd
}

func (h *Hub) unregister(wd *WasherDryer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.appliance[wd.said] == wd {
		delete(h.appliance, wd.said)
	}
}

func (h *Hub) registered() []*WasherDryer {
	h.mu.Lock()
	defer h.mu.Unlock()
	wds := make([]*WasherDryer, 0, len(h.appliance))
	for _, wd := range h.appliance {
		wds = append(wds, wd)
	}
	return wds
}

func (h *Hub) resubscribe(_ mqtt.Client) {
	for _, wd := range h.registered() {
		ctx, cancel := context.WithTimeout(context.Background(), HUB_SUBSCRIBE_TIMEOUT)
		err := wd.subscribe(ctx)
		cancel()
		if err != nil {
			h.reportError(wd.said, err)
		}
	}
}

// connectionLost marks every appliance offline until the gateway pushes again.
func (h *Hub) connectionLost(_ mqtt.Client, _ error) {
	for _, wd := range h.registered() {
		if wd.setOnline(false) {
			wd.notify()
		}
	}
}

func (h *Hub) reportError(said string, err error) {
	h.mu.Lock()
	fn := h.onError
	h.mu.Unlock()
	if fn != nil {
		fn(said, err)
	}
}

// WasherDryer mirrors the attributes of one appliance, identified by its SAID.
type WasherDryer struct {
	hub  *Hub
	said string

	mu        sync.RWMutex
	attrs     map[string]string
	online    bool
	connected bool
	nextId    CallbackId
	callbacks map[CallbackId]func()
}

func (wd *WasherDryer) SAID() string {
	return wd.said
}

func (wd *WasherDryer) Connect(ctx context.Context) error {
	wd.mu.Lock()
	if wd.connected {
		wd.mu.Unlock()
		return nil
	}
	wd.mu.Unlock()

	if err := wd.hub.acquire(ctx); err != nil {
		return err
	}
	if err := wd.subscribe(ctx); err != nil {
		wd.hub.release()
		return err
	}
	wd.hub.register(wd)

	wd.mu.Lock()
	wd.connected = true
	wd.mu.Unlock()
	return nil
}

func (wd *WasherDryer) subscribe(ctx context.Context) error {
	filters := map[string]byte{
		wd.hub.attributesTopic(wd.said): 1,
		wd.hub.onlineTopic(wd.said):     1,
	}
	if err := waitToken(ctx, wd.hub.client.SubscribeMultiple(filters, wd.onMessage)); err != nil {
		return fmt.Errorf("subscribe appliance %s: %w", wd.said, err)
	}
	return nil
}

func (wd *WasherDryer) Disconnect(ctx context.Context) error {
	wd.mu.Lock()
	if !wd.connected {
		wd.mu.Unlock()
		return nil
	}
	wd.connected = false
	wd.online = false
	wd.mu.Unlock()

	wd.hub.unregister(wd)
	defer wd.hub.release()
	if !wd.hub.client.IsConnected() {
		return nil
	}
	err := waitToken(ctx, wd.hub.client.Unsubscribe(wd.hub.attributesTopic(wd.said), wd.hub.onlineTopic(wd.said)))
	if err != nil {
		return fmt.Errorf("unsubscribe appliance %s: %w", wd.said, err)
	}
	return nil
}

func (wd *WasherDryer) GetOnline() bool {
	wd.mu.RLock()
	defer wd.mu.RUnlock()
	return wd.online
}

func (wd *WasherDryer) GetAttribute(name string) string {
	wd.mu.RLock()
	defer wd.mu.RUnlock()
	return wd.attrs[name]
}

func (wd *WasherDryer) GetMachineState() MachineState {
	return ParseMachineState(wd.GetAttribute(ATTR_MACHINE_STATE))
}

func (wd *WasherDryer) GetCycleStatusFilling() bool {
	return wd.GetAttribute(ATTR_CYCLE_STATUS_FILLING) == ATTR_VALUE_TRUE
}

func (wd *WasherDryer) GetCycleStatusRinsing() bool {
	return wd.GetAttribute(ATTR_CYCLE_STATUS_RINSING) == ATTR_VALUE_TRUE
}

func (wd *WasherDryer) GetCycleStatusSensing() bool {
	return wd.GetAttribute(ATTR_CYCLE_STATUS_SENSING) == ATTR_VALUE_TRUE
}

func (wd *WasherDryer) GetCycleStatusSoaking() bool {
	return wd.GetAttribute(ATTR_CYCLE_STATUS_SOAKING) == ATTR_VALUE_TRUE
}

func (wd *WasherDryer) GetCycleStatusSpinning() bool {
	return wd.GetAttribute(ATTR_CYCLE_STATUS_SPINNING) == ATTR_VALUE_TRUE
}

func (wd *WasherDryer) GetCycleStatusWashing() bool {
	return wd.GetAttribute(ATTR_CYCLE_STATUS_WASHING) == ATTR_VALUE_TRUE
}

func (wd *WasherDryer) RegisterAttrCallback(fn func()) CallbackId {
	wd.mu.Lock()
	defer wd.mu.Unlock()
	wd.nextId++
	wd.callbacks[wd.nextId] = fn
	return wd.nextId
}

func (wd *WasherDryer) UnregisterAttrCallback(id CallbackId) {
	wd.mu.Lock()
	defer wd.mu.Unlock()
	delete(wd.callbacks, id)
}

func (wd *WasherDryer) onMessage(_ mqtt.Client, msg mqtt.Message) {
	switch msg.Topic() {
	case wd.hub.attributesTopic(wd.said):
		if err := wd.handleAttributes(msg.Payload()); err != nil {
			wd.hub.reportError(wd.said, err)
			return
		}
	case wd.hub.onlineTopic(wd.said):
		if !wd.handleOnline(msg.Payload()) {
			wd.hub.reportError(wd.said, fmt.Errorf("online %q: %w", msg.Payload(), ErrUnexpectedPayload))
			return
		}
	default:
		return
	}
	wd.notify()
}

// handleAttributes merges a JSON object of attributes into the cache.
// Non string values are stored in their JSON text form.
func (wd *WasherDryer) handleAttributes(payload []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(payload, &raw); err != nil {
		return fmt.Errorf("decode attributes: %w", err)
	}
	wd.mu.Lock()
	defer wd.mu.Unlock()
	for name, value := range raw {
		switch v := value.(type) {
		case nil:
			delete(wd.attrs, name)
		case string:
			wd.attrs[name] = v
		case float64:
			wd.attrs[name] = strconv.FormatFloat(v, 'f', -1, 64)
		case bool:
			if v {
				wd.attrs[name] = "1"
			} else {
				wd.attrs[name] = "0"
			}
		default:
			wd.attrs[name] = fmt.Sprint(v)
		}
	}
	return nil
}

func (wd *WasherDryer) handleOnline(payload []byte) bool {
	wd.mu.Lock()
	defer wd.mu.Unlock()
	switch string(payload) {
	case ONLINE_PAYLOAD_ONLINE:
		wd.online = true
	case ONLINE_PAYLOAD_OFFLINE:
		wd.online = false
	default:
		return false
	}
	return true
}

// setOnline reports whether the flag changed.
func (wd *WasherDryer) setOnline(online bool) bool {
	wd.mu.Lock()
	defer wd.mu.Unlock()
	changed := wd.online != online
	wd.online = online
	return changed
}

func (wd *WasherDryer) notify() {
	wd.mu.RLock()
	callbacks := make([]func(), 0, len(wd.callbacks))
	for _, fn := range wd.callbacks {
		callbacks = append(callbacks, fn)
	}
	wd.mu.RUnlock()
	for _, fn := range callbacks {
		fn()
	}
}

func ParseMachineState(value string) MachineState {
	v, err := strconv.Atoi(value)
	if err != nil || v < int(MachineStateStandby) || v > int(MachineStateSystemInit) {
		return MachineStateUnknown
	}
	return MachineState(v)
}

func waitToken(ctx context.Context, token mqtt.Token) error {
	select {
	case <-token.Done():
		return token.Error()
	case <-ctx.Done():
		return ctx.Err()
	}
}
