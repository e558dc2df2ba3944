package domain

import (
	"fmt"

	"github.com/berfenger/laundrynet2mqtt/pkg/plcnet"
)

const (
	ACTOR_ID_MASTER       = "master"
	ACTOR_ID_NETWORK      = "network"
	ACTOR_ID_NETWORK_POLL = "networkpoll"
	ACTOR_ID_MQTT         = "mqtt"
	ACTOR_ID_APPLIANCE    = "appliance"
	ACTOR_ID_HA_DISCOVERY = "hadiscovery"
	ACTOR_ID_STATE_CACHE  = "statecache"
)

func ApplianceActorId(said string) string {
	return fmt.Sprintf("%s_%s", ACTOR_ID_APPLIANCE, said)
}

type GetNetworkDeviceInfoRequest struct {
	ActorRequestMixIn
}

type GetNetworkDeviceInfoResponse struct {
	ActorResponseMixIn
	Info *plcnet.DeviceInfo
}

type GetLogicalNetworkRequest struct {
	ActorRequestMixIn
}

type GetLogicalNetworkResponse struct {
	ActorResponseMixIn
	Network *plcnet.LogicalNetwork
}

type GetConnectedStationsRequest struct {
	ActorRequestMixIn
}

type GetConnectedStationsResponse struct {
	ActorResponseMixIn
	Stations []plcnet.ConnectedStation
}

type GetNeighborAPsRequest struct {
	ActorRequestMixIn
}

type GetNeighborAPsResponse struct {
	ActorResponseMixIn
	Neighbors []plcnet.NeighborAP
}

type PublishMessageRequest struct {
	ActorRequestMixIn
	Topic   string
	Payload string
	Retain  bool
}

type PublishMessageResponse struct {
	ActorResponseMixIn
}

type PublishSensorUpdateRequest struct {
	ActorRequestMixIn
	Retain bool
	Event  SensorUpdateEvent
}

type PublishSensorUpdateResponse struct {
	ActorResponseMixIn
}

type PublishDiscoveryRequest struct {
	ActorRequestMixIn
	Sensors []GenericSensor
}

type PublishDiscoveryResponse struct {
	ActorResponseMixIn
}

type GetSensorStatesRequest struct {
	ActorRequestMixIn
}

type GetSensorStatesResponse struct {
	ActorResponseMixIn
	States []SensorState
}

type ActorHealthRequest struct {
	ActorRequestMixIn
}

type ActorHealthResponse struct {
	ActorResponseMixIn
	Id      string
	Healthy bool
	State   string
}
