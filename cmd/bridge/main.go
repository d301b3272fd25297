package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"floodlight-bridge/internal/adapters/input/http"
	inmqtt "floodlight-bridge/internal/adapters/input/mqtt"
	"floodlight-bridge/internal/adapters/input/ssdp"
	"floodlight-bridge/internal/adapters/output/foscam"
	outmqtt "floodlight-bridge/internal/adapters/output/mqtt"
	"floodlight-bridge/internal/adapters/output/notify"
	"floodlight-bridge/internal/adapters/output/persistence"
	"floodlight-bridge/internal/domain/service"
	"floodlight-bridge/internal/infrastructure/config"
	"floodlight-bridge/internal/infrastructure/database"
	"floodlight-bridge/internal/infrastructure/logging"
	"floodlight-bridge/internal/infrastructure/mqtt"
	"floodlight-bridge/internal/ports"
)

var version = "dev"

type repository interface {
	ports.SettingsRepository
	ports.DeviceManager
}

func main() {
	if err := run(); err != nil {
		logging.Default().Error("bridge stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		return err
	}
	logger := logging.New(cfg.Logging, version)

	ip := cfg.Bridge.LocalIP
	if ip == "" {
		ip = getLocalIP()
	}
	if ip == "" {
		return errors.New("could not determine local IP, set LOCAL_IP")
	}
	logger.Info("starting floodlight bridge", "ip", ip, "port", cfg.Bridge.HTTPPort)

	repo, closeRepo, err := openRepository(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	defer closeRepo()

	notifiers := notify.Multi{notify.NewLogNotifier(logger)}

	var broker *mqtt.Client
	if cfg.MQTT.Enabled {
		broker, err = mqtt.Connect(cfg.MQTT, logger)
		if err != nil {
			return err
		}
		defer broker.Close()
		notifiers = append(notifiers, outmqtt.NewNotifier(broker, broker.Topics(), byte(cfg.MQTT.QoS), logger))
	}

	opts := service.Options{
		PollInterval: cfg.Floodlight.PollInterval,
		ReapplyDelay: cfg.Floodlight.ReapplyDelay,
	}
	device := foscam.NewClient(cfg.Floodlight.RequestTimeout, logger)
	provider := service.NewProvider(repo, repo, device, notifiers, logger, opts)
	defer provider.Close()

	if err := provider.Restore(ctx); err != nil {
		return fmt.Errorf("restoring floodlights: %w", err)
	}

	bridge := service.NewBridgeService(provider, repo)

	if broker != nil {
		commands := inmqtt.NewCommandHandler(bridge, broker.Topics(), cfg.Floodlight.RequestTimeout, logger)
		if err := commands.Start(broker, byte(cfg.MQTT.QoS)); err != nil {
			return err
		}
		defer commands.Wait()
	}

	if cfg.Bridge.SSDP {
		responder := ssdp.NewServer(ip, cfg.Bridge.HTTPPort, logger)
		go func() {
			if err := responder.Start(ctx); err != nil {
				logger.Error("ssdp responder stopped", "error", err)
			}
		}()
	}

	return http.NewServer(bridge, ip, cfg.Bridge.HTTPPort, logger).ListenAndServe(ctx)
}

func openRepository(ctx context.Context, cfg config.StorageConfig) (repository, func(), error) {
	if strings.ToLower(cfg.Driver) == config.StorageSQLite {
		db, err := database.Open(database.Config{Path: cfg.Path, BusyTimeout: cfg.BusyTimeout})
		if err != nil {
			return nil, nil, err
		}
		if err := db.HealthCheck(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		repo, err := persistence.NewSQLiteRepository(ctx, db)
		if err != nil {
			db.Close()
			return nil, nil, err
		}
		return repo, func() { db.Close() }, nil
	}
	return persistence.NewJSONRepository(cfg.Path), func() {}, nil
}

func getLocalIP() string {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return ""
	}
	for _, address := range addrs {
		if ipnet, ok := address.(*net.IPNet); ok && !ipnet.IP.IsLoopback() {
			if ipnet.IP.To4() != nil {
				return ipnet.IP.String()
			}
		}
	}
	return ""
}
