package actor

import (
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/berfenger/laundrynet2mqtt/internal/config"
	"github.com/berfenger/laundrynet2mqtt/internal/core/domain"
	"github.com/berfenger/laundrynet2mqtt/internal/mqtt"
	"github.com/berfenger/laundrynet2mqtt/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

type MQTTActor struct {
	config       *config.Config
	behavior     actor.Behavior
	stash        *actorutil.Stash
	client       *mqtt.MQTTClient
	eventStream  *eventstream.EventStream
	subscription *eventstream.Subscription
	discovery    []domain.GenericSensor
	logger       *zap.Logger

	// test actor only
	mu        sync.Mutex
	published []domain.SensorUpdateEvent
}

type MQTTConnected struct {
}

type MQTTSubscribed struct {
}

type MQTTConnectionLost struct {
	Error error
}

type HAOnline struct {
}

type publishResult struct {
	ReplyTo  *actor.PID
	Error    error
	response func(error) domain.ActorResponse
}

type rawMessage struct {
	topic   string
	message string
	retain  bool
}

func NewMQTTActor(config *config.Config, eventStream *eventstream.EventStream, logger *zap.Logger) *MQTTActor {
	act := &MQTTActor{
		config:      config,
		behavior:    actor.NewBehavior(),
		stash:       &actorutil.Stash{},
		eventStream: eventStream,
		logger:      actorutil.ActorLogger(domain.ACTOR_ID_MQTT, logger),
	}
	act.behavior.Become(act.StartingReceive)
	return act
}

func (state *MQTTActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *MQTTActor) StartingReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("mqtt@starting started")

		self := ctx.Self()
		root := ctx.ActorSystem().Root

		// create MQTT client
		state.client = mqtt.CreateMQTTClient(state.config, mqtt.OptsFromConfig(state.config), func(_ pahomqtt.Client) {
		}, func(_ pahomqtt.Client, err error) {
			root.Send(self, MQTTConnectionLost{Error: err})
		})

		// connect to MQTT server
		state.client.Connect(func(err error) {
			if err != nil {
				root.Send(self, MQTTConnectionLost{Error: err})
			} else {
				root.Send(self, MQTTConnected{})
			}
		}, 10*time.Second)

	case MQTTConnected:
		state.logger.Debug("mqtt@starting connected")

		state.client.Publish(state.client.BridgeStateTopic(), mqtt.MQTT_PAYLOAD_ONLINE, 0, true, func(error) {}, 500*time.Millisecond)

		if !state.config.MQTT.HADiscoveryEnable {
			ctx.Send(ctx.Self(), MQTTSubscribed{})
			return
		}

		self := ctx.Self()
		root := ctx.ActorSystem().Root

		// subscribe to Home Assistant birth messages
		state.client.SubscribeToHAStatusTopic(func(c pahomqtt.Client, m pahomqtt.Message) {
			if mqtt.IsHAOnlineMessage(m) {
				root.Send(self, HAOnline{})
			}
		}, func(err error) {
			if err != nil {
				root.Send(self, MQTTConnectionLost{Error: err})
			} else {
				root.Send(self, MQTTSubscribed{})
			}
		}, 1*time.Second)
	case MQTTSubscribed:
		// init completed, transition to default state
		state.logger.Debug("mqtt@starting subscribed")
		state.subscribeEventStream(ctx)
		state.announceReady()
		state.behavior.Become(state.DefaultReceive)
		state.stash.UnstashAll(ctx)
	case MQTTConnectionLost:
		// if connection lost, stop actor and let supervisor decide
		state.logger.Error("mqtt@starting connection lost", zap.Error(msg.Error))
		panic(msg.Error)
	case *actor.Restarting:
		state.stop()
	case *actor.Stopping:
		state.stop()
	default:
		state.logger.Debug("mqtt@starting stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *MQTTActor) DefaultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Restarting:
		state.stop()
	case *actor.Stopping:
		state.stop()
	case domain.ActorHealthRequest:
		state.logger.Debug("mqtt@default ActorHealthRequest")
		// respond health check request
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_MQTT,
			Healthy: true,
			State:   "idle",
		})
	case HAOnline:
		state.logger.Info("mqtt@default homeassistant online, publishing discovery", zap.Int("sensors", len(state.discovery)))
		if err := state.PublishHomeAssistantDiscovery(state.discovery); err != nil {
			state.logger.Error("mqtt@default PublishHADiscovery error", zap.Error(err))
		}
	case domain.PublishMessageRequest:
		state.logger.Debug("mqtt@default PublishMessageRequest", zap.Any("message", msg))
		state.publishMessage(ctx, msg.Topic, msg.Payload, msg.Retain, actorutil.ForRequest(msg).ReplyTo(ctx))
	case domain.PublishSensorUpdateRequest:
		// receive message from event bus and publish to MQTT if needed
		state.logger.Debug("mqtt@default PublishSensorUpdateRequest", zap.String("type", fmt.Sprintf("%T", msg.Event)))
		state.publishSensorValue(ctx, msg.Event, msg.Retain, actorutil.ForRequest(msg).ReplyTo(ctx))
	case domain.PublishDiscoveryRequest:
		state.logger.Debug("mqtt@default PublishHADiscovery")
		state.discovery = msg.Sensors
		err := state.PublishHomeAssistantDiscovery(msg.Sensors)
		if err != nil {
			state.logger.Error("mqtt@default PublishHADiscovery error", zap.Error(err))
		}
		if msg.ReplyTo() != nil {
			ctx.Send(msg.ReplyTo().PID(), domain.PublishDiscoveryResponse{
				ActorResponseMixIn: domain.ActorResponseMixIn{
					ResponseError: err,
				},
			})
		}
	case MQTTConnectionLost:
		// if connection lost, stop actor and let supervisor decide
		state.logger.Error("mqtt@default connection lost", zap.Error(msg.Error))
		panic(msg.Error)
	default:
		state.logger.Debug("mqtt@default unhandled", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

func (state *MQTTActor) subscribeEventStream(ctx actor.Context) {
	if state.eventStream == nil || state.subscription != nil {
		return
	}
	self := ctx.Self()
	root := ctx.ActorSystem().Root
	state.subscription = state.eventStream.Subscribe(func(evt any) {
		if ev, ok := evt.(domain.SensorUpdateEvent); ok {
			root.Send(self, domain.PublishSensorUpdateRequest{
				Retain: true,
				Event:  ev,
			})
		}
	})
}

// announceReady asks the sensor owners for the state published before the subscription.
func (state *MQTTActor) announceReady() {
	if state.eventStream != nil {
		state.eventStream.Publish(domain.PublisherReadyEvent{})
	}
}

func (state *MQTTActor) event2MQTTMessage(event any) *rawMessage {
	switch msg := event.(type) {
	case domain.IntSensorUpdateEvent:
		return &rawMessage{
			topic:   state.client.SensorStateTopic(msg.DeviceId, msg.Id),
			message: strconv.Itoa(msg.Value),
		}
	case domain.TextSensorUpdateEvent:
		return &rawMessage{
			topic:   state.client.SensorStateTopic(msg.DeviceId, msg.Id),
			message: msg.Value,
		}
	case domain.TimestampSensorUpdateEvent:
		payload := mqtt.MQTT_PAYLOAD_NONE
		if msg.Value != nil {
			payload = msg.Value.UTC().Format(time.RFC3339)
		}
		return &rawMessage{
			topic:   state.client.SensorStateTopic(msg.DeviceId, msg.Id),
			message: payload,
			retain:  true,
		}
	case domain.AvailabilityUpdateEvent:
		return &rawMessage{
			topic:   state.client.SensorAvailabilityTopic(msg.DeviceId, msg.Id),
			message: availability2MQTTPayload(msg.Value),
			retain:  true,
		}
	case domain.BridgeStateUpdateEvent:
		return &rawMessage{
			topic:   state.client.BridgeStateTopic(),
			message: availability2MQTTPayload(msg.Value),
			retain:  true,
		}
	default:
		return nil
	}
}

func (state *MQTTActor) publishSensorValue(ctx actor.Context, event domain.SensorUpdateEvent, retain bool, replyTo *actor.PID) {
	msg := state.event2MQTTMessage(event)
	if msg == nil {
		return
	}
	state.logger.Sugar().Debugf("mqtt@publish: sensor publish %s => %s", msg.topic, msg.message)
	state.publish(ctx, msg.topic, msg.message, 1, msg.retain || retain, replyTo, func(err error) domain.ActorResponse {
		return domain.PublishSensorUpdateResponse{ActorResponseMixIn: domain.ActorResponseMixIn{ResponseError: err}}
	})
}

func (state *MQTTActor) publishMessage(ctx actor.Context, topic, payload string, retain bool, replyTo *actor.PID) {
	state.logger.Sugar().Debugf("mqtt@publish: message publish %s => %s", topic, payload)
	state.publish(ctx, topic, payload, 1, retain, replyTo, func(err error) domain.ActorResponse {
		return domain.PublishMessageResponse{ActorResponseMixIn: domain.ActorResponseMixIn{ResponseError: err}}
	})
}

// publish waits for the broker ack in PublishResultReceive so messages leave in order.
func (state *MQTTActor) publish(ctx actor.Context, topic, payload string, qos byte, retain bool, replyTo *actor.PID,
	response func(error) domain.ActorResponse) {
	self := ctx.Self()
	root := ctx.ActorSystem().Root
	state.client.Publish(topic, payload, qos, retain, func(err error) {
		root.Send(self, publishResult{ReplyTo: replyTo, Error: err, response: response})
	}, 5*time.Second)
	state.behavior.BecomeStacked(state.PublishResultReceive)
}

func (state *MQTTActor) PublishResultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case publishResult:
		if msg.Error != nil {
			state.logger.Error("mqtt@publishing could not publish a message", zap.Error(msg.Error))
		}
		if msg.ReplyTo != nil {
			ctx.Send(msg.ReplyTo, msg.response(msg.Error))
		}
		state.behavior.UnbecomeStacked()
		state.stash.UnstashOldest(ctx)
	case *actor.Stopping:
		state.stop()
	default:
		state.logger.Debug("mqtt@publishing stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *MQTTActor) PublishHomeAssistantDiscovery(sensors []domain.GenericSensor) error {
	for i := range sensors {
		msg := mqtt.GenericSensorToHADiscoveryMessage(state.client, sensors[i])
		payload, err := json.Marshal(msg)
		if err != nil {
			return err
		}
		topic := mqtt.HADiscoverySensorTopic(state.client, sensors[i])
		state.client.Publish(topic, payload, 0, true, func(error) {}, 1*time.Second)
	}
	return nil
}

func (state *MQTTActor) stop() {
	state.logger.Debug("mqtt: disconnect")
	if state.subscription != nil {
		state.eventStream.Unsubscribe(state.subscription)
		state.subscription = nil
	}
	if state.client != nil {
		state.client.Publish(state.client.BridgeStateTopic(), mqtt.MQTT_PAYLOAD_OFFLINE, 0, true, func(error) {}, 500*time.Millisecond)
		state.client.Disconnect(500 * time.Millisecond)
	}
}

func availability2MQTTPayload(value bool) string {
	if value {
		return mqtt.MQTT_PAYLOAD_ONLINE
	} else {
		return mqtt.MQTT_PAYLOAD_OFFLINE
	}
}

// Dummy actor
func NewTestMQTTActor(config *config.Config, eventStream *eventstream.EventStream, logger *zap.Logger) *MQTTActor {
	act := &MQTTActor{
		config:      config,
		behavior:    actor.NewBehavior(),
		stash:       &actorutil.Stash{},
		eventStream: eventStream,
		logger:      actorutil.ActorLogger(domain.ACTOR_ID_MQTT, logger),
	}
	act.behavior.Become(act.DummyReceive)
	return act
}

func (state *MQTTActor) DummyReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.client = mqtt.CreateMQTTClient(state.config, mqtt.OptsFromConfig(state.config), nil, nil)
		state.subscribeEventStream(ctx)
		state.announceReady()
	case *actor.Stopping:
		if state.subscription != nil {
			state.eventStream.Unsubscribe(state.subscription)
			state.subscription = nil
		}
	case domain.ActorHealthRequest:
		state.logger.Debug("mqtt@dummy ActorHealthRequest")
		// respond health check request
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_MQTT,
			Healthy: true,
			State:   "idle",
		})
	case domain.PublishSensorUpdateRequest:
		if state.event2MQTTMessage(msg.Event) != nil {
			state.mu.Lock()
			state.published = append(state.published, msg.Event)
			state.mu.Unlock()
		}
		if msg.ReplyToRef != nil {
			ctx.Send(msg.ReplyToRef.PID(), domain.PublishSensorUpdateResponse{})
		}
	case domain.PublishMessageRequest:
		if msg.ReplyToRef != nil {
			ctx.Send(msg.ReplyToRef.PID(), domain.PublishMessageResponse{})
		}
	case domain.PublishDiscoveryRequest:
		state.mu.Lock()
		state.discovery = msg.Sensors
		state.mu.Unlock()
		if msg.ReplyToRef != nil {
			ctx.Send(msg.ReplyToRef.PID(), domain.PublishDiscoveryResponse{})
		}
	}
}

// Published returns the sensor updates received by a test actor.
func (state *MQTTActor) Published() []domain.SensorUpdateEvent {
	state.mu.Lock()
	defer state.mu.Unlock()
	return append([]domain.SensorUpdateEvent{}, state.published...)
}

// Discovered returns the sensors of the last discovery received by a test actor.
func (state *MQTTActor) Discovered() []domain.GenericSensor {
	state.mu.Lock()
	defer state.mu.Unlock()
	return append([]domain.GenericSensor{}, state.discovery...)
}
