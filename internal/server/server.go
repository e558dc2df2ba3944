package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/berfenger/laundrynet2mqtt/internal/config"

	"github.com/asynkron/protoactor-go/actor"
	_ "github.com/joho/godotenv/autoload"
)

// Server answers HTTP requests by asking the master actor.
type Server struct {
	httpLog     bool
	rootContext *actor.RootContext
	masterActor *actor.PID
}

func NewServer(cfg config.Config, rootContext *actor.RootContext, masterActor *actor.PID) *http.Server {
	s := &Server{
		httpLog:     cfg.HttpLog,
		rootContext: rootContext,
		masterActor: masterActor,
	}

	return &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}
