package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	adactor "github.com/berfenger/laundrynet2mqtt/internal/adapter/actor"
	"github.com/berfenger/laundrynet2mqtt/internal/adapter/store"
	"github.com/berfenger/laundrynet2mqtt/internal/config"
	"github.com/berfenger/laundrynet2mqtt/internal/core/actor"
	"github.com/berfenger/laundrynet2mqtt/internal/core/port"
	"github.com/berfenger/laundrynet2mqtt/internal/server"
	"github.com/berfenger/laundrynet2mqtt/internal/statecache"
	"github.com/berfenger/laundrynet2mqtt/internal/util/actorutil"
	"github.com/berfenger/laundrynet2mqtt/pkg/plcnet"
	"github.com/berfenger/laundrynet2mqtt/pkg/washerdryer"

	pactor "github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/jessevdk/go-flags"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var opt struct {
	ConfigFile string `short:"c" long:"config" env:"CONFIG_FILE" description:"yaml config file"`
}

func gracefulShutdown(apiServer *http.Server, done chan bool) {
	// Create context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Listen for the interrupt signal.
	<-ctx.Done()

	log.Println("shutting down gracefully, press Ctrl+C again to force")

	// The context is used to inform the server it has 5 seconds to finish
	// the request it is currently handling
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown with error: %v", err)
	}

	log.Println("Server exiting")

	// Notify the main goroutine that the shutdown is complete
	done <- true
}

func main() {

	_, err := flags.ParseArgs(&opt, os.Args)
	if err != nil {
		log.Fatalf("error parsing flags: %v", err)
	}

	// load and print config
	cfg, err := initConfig(opt.ConfigFile)
	if err != nil {
		slog.Error("config errors", "error", err)
		return
	}
	safePrintConfig(*cfg)

	// zap logger
	zapCfg := zap.NewProductionConfig()
	zapCfg.Level = zap.NewAtomicLevelAt(cfg.LogLevel)

	logger := zap.Must(zapCfg.Build())

	defer logger.Sync()

	// restore store
	sensorStore, closeStore, err := sensorStateStore(cfg)
	if err != nil {
		logger.Error("could not open store", zap.Error(err))
		return
	}
	defer closeStore()

	providers := actor.ActorProviders{
		MQTT:            mqttActorProvider(cfg, logger),
		ApplianceClient: applianceClientProvider(cfg, logger),
	}
	if cfg.Network.Enable {
		providers.Network, err = networkActorProvider(cfg, logger)
		if err != nil {
			logger.Error("could not create network reader", zap.Error(err))
			return
		}
	}

	// init actor system
	as := actorutil.NewActorSystemWithZapLogger(logger)
	ctx := as.Root

	cache := statecache.New(time.Duration(cfg.StateCacheTTLSeconds) * time.Second)

	props := pactor.PropsFromProducer(func() pactor.Actor {
		return actor.NewMasterOfPuppetsActor(*cfg, cache, sensorStore, providers, logger)
	})
	pid, err := ctx.SpawnNamed(props, "master")
	if err != nil {
		return
	}

	server := server.NewServer(*cfg, ctx, pid)
	// Create a done channel to signal when the shutdown is complete
	done := make(chan bool, 1)

	// Run graceful shutdown in a separate goroutine
	go gracefulShutdown(server, done)

	err = server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		panic(fmt.Sprintf("http server error: %s", err))
	}

	// Wait for the graceful shutdown to complete
	<-done
	log.Println("Graceful shutdown complete.")

	if err := ctx.StopFuture(pid).Wait(); err != nil {
		logger.Warn("master stop", zap.Error(err))
	}
	as.Shutdown()
}

func initConfig(cfgFile string) (*config.Config, error) {

	// alias PORT => LAUNDRYNET_PORT
	if port := os.Getenv("PORT"); port != "" {
		os.Setenv("LAUNDRYNET_PORT", port)
	}

	setConfigDefaults()

	viper.SetEnvPrefix("laundrynet")
	viper.AutomaticEnv()

	// if defined, try to load config from yaml file
	if cfgFile != "" {
		if _, err := os.Stat(cfgFile); err == nil {
			slog.Info("Using config", "file", cfgFile)
			viper.SetConfigFile(cfgFile)

			err = viper.ReadInConfig()
			if err != nil {
				slog.Error("Error reading config file", "error", err)
			}
		}
	}

	var cfg config.Config

	err := viper.Unmarshal(&cfg)
	if err != nil {
		return nil, err
	}

	// parse log level
	switch viper.GetString("log_level") {
	case "trace":
		cfg.LogLevel = zap.DebugLevel
	case "debug":
		cfg.LogLevel = zap.DebugLevel
	case "info":
		cfg.LogLevel = zap.InfoLevel
	case "error":
		cfg.LogLevel = zap.ErrorLevel
	case "warn":
		cfg.LogLevel = zap.WarnLevel
	case "fatal":
		cfg.LogLevel = zap.FatalLevel
	default:
		cfg.LogLevel = zap.WarnLevel
	}

	// check and fix base topic
	baseTopic, err := config.CheckMQTTTopic(cfg.MQTT.BaseTopic)
	if err != nil {
		return nil, errors.New("invalid base topic. can only contain letters, numbers and underscores")
	}
	cfg.MQTT.BaseTopic = baseTopic

	// check and fix homeassistant discovery topic
	hadBaseTopic, err := config.CheckMQTTTopic(cfg.MQTT.HADiscoveryTopic)
	if err != nil {
		return nil, errors.New("invalid homeassistant discovery topic. can only contain letters, numbers and underscores")
	}
	cfg.MQTT.HADiscoveryTopic = hadBaseTopic

	// check and fix appliance gateway topic
	gatewayTopic, err := config.CheckMQTTTopic(cfg.Appliances.Gateway.Topic)
	if err != nil {
		return nil, errors.New("invalid appliance gateway topic. can only contain letters, numbers and underscores")
	}
	cfg.Appliances.Gateway.Topic = gatewayTopic

	// check bounds
	if cfg.Network.Enable && cfg.Network.PollIntervalMillis < 1000 {
		return nil, errors.New("config param network.poll_interval_millis should be >= 1000")
	}
	if err := config.CheckAppliances(cfg.Appliances.Devices); err != nil {
		return nil, fmt.Errorf("config param appliances.devices: %w", err)
	}

	return &cfg, nil
}

func sensorStateStore(cfg *config.Config) (port.SensorStateStore, func(), error) {
	if cfg.Store.Path == "" {
		return store.NewMemorySensorStateStore(), func() {}, nil
	}
	s, err := store.NewBoltSensorStateStore(cfg.Store.Path)
	if err != nil {
		return nil, nil, err
	}
	return s, func() {
		if err := s.Close(); err != nil {
			log.Printf("could not close store: %v", err)
		}
	}, nil
}

func networkActorProvider(cfg *config.Config, logger *zap.Logger) (actor.NetworkActorProvider, error) {

	timeout := time.Duration(cfg.Network.TimeoutMillis) * time.Millisecond
	reader, err := plcnet.CreateSNMPReader(cfg.Network.Host, cfg.Network.Port, cfg.Network.Community, timeout,
		plcnet.SNMPTables{
			PLCRateFromOID: cfg.Network.PLCRateFromOID,
			PLCRateToOID:   cfg.Network.PLCRateToOID,
			StationOID:     cfg.Network.StationOID,
			NeighborOID:    cfg.Network.NeighborOID,
		}, cfg.Network.Features)

	if err != nil {
		return nil, err
	}

	return func() *adactor.NetworkActor {
		return adactor.NewNetworkActor(reader, timeout, logger)
	}, nil
}

func applianceClientProvider(cfg *config.Config, logger *zap.Logger) actor.ApplianceClientProvider {
	gw := cfg.Appliances.Gateway
	hub := washerdryer.NewHub(gw.Host, gw.Port, gw.Username, gw.Password, gw.Topic)
	hub.OnError(func(said string, err error) {
		logger.Warn("gateway message dropped", zap.String("said", said), zap.Error(err))
	})
	return func(said string) port.WasherDryer {
		return hub.WasherDryer(said)
	}
}

func mqttActorProvider(cfg *config.Config, logger *zap.Logger) actor.MQTTActorProvider {
	return func(es *eventstream.EventStream) *adactor.MQTTActor {
		return adactor.NewMQTTActor(cfg, es, logger)
	}
}

func setConfigDefaults() {
	viper.SetDefault("log_level", "warn")
	viper.SetDefault("mqtt.port", 1883)
	viper.SetDefault("mqtt.ha_discovery_enable", false)
	viper.SetDefault("mqtt.base_topic", "laundrynet")
	viper.SetDefault("mqtt.ha_discovery_topic", "homeassistant")
	viper.SetDefault("network.enable", false)
	viper.SetDefault("network.port", 161)
	viper.SetDefault("network.community", "public")
	viper.SetDefault("network.timeout_millis", 2000)
	viper.SetDefault("network.poll_interval_millis", 30000)
	viper.SetDefault("appliances.gateway.port", 1883)
	viper.SetDefault("appliances.gateway.topic", "whirlpool")
	viper.SetDefault("store.path", "laundrynet.db")
	viper.SetDefault("state_cache_ttl_seconds", 3600)
	viper.SetDefault("port", 8080)
}

func safePrintConfig(cfg config.Config) {
	cfg.MQTT.Username = "*redacted*"
	cfg.MQTT.Password = "*redacted*"
	cfg.Appliances.Gateway.Username = "*redacted*"
	cfg.Appliances.Gateway.Password = "*redacted*"
	cfg.Network.Community = "*redacted*"
	slog.Info("Using", "config", cfg)
}
