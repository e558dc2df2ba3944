package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/berfenger/laundrynet2mqtt/internal/core/domain"
	"github.com/berfenger/laundrynet2mqtt/internal/util"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeMaster(healthy bool) func(ctx actor.Context) {
	return func(ctx actor.Context) {
		switch ctx.Message().(type) {
		case domain.ActorHealthRequest:
			ctx.Respond(domain.ActorHealthResponse{Id: domain.ACTOR_ID_MASTER, Healthy: healthy})
		case domain.GetSensorStatesRequest:
			ctx.Respond(domain.GetSensorStatesResponse{
				States: []domain.SensorState{
					{DeviceId: "WPR1", SensorId: "state", Value: "Standby", Available: true},
				},
			})
		}
	}
}

func TestHealthCheckHandler(t *testing.T) {

	as := actor.NewActorSystem()
	defer as.Shutdown()

	for _, healthy := range []bool{true, false} {
		pid := as.Root.Spawn(actor.PropsFromFunc(fakeMaster(healthy)))
		handler := (&Server{rootContext: as.Root, masterActor: pid}).RegisterRoutes()

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthcheck", nil))

		if healthy {
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, "health_check: OK", rec.Body.String())
		} else {
			assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		}
		as.Root.Stop(pid)
	}
}

func TestSensorsHandler(t *testing.T) {

	as := actor.NewActorSystem()
	defer as.Shutdown()

	pid := as.Root.Spawn(actor.PropsFromFunc(fakeMaster(true)))
	srv := NewServer(util.LoadTestConfig(), as.Root, pid)

	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sensors", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var states []domain.SensorState
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &states))
	assert.Len(t, states, 1)
	assert.Equal(t, "Standby", states[0].Value)
	assert.True(t, states[0].Available)
	assert.Equal(t, ":8080", srv.Addr)
}
