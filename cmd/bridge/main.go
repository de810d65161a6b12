package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"

	"air-purifier-bridge/internal/adapters/input/http"
	"air-purifier-bridge/internal/adapters/input/ssdp"
	"air-purifier-bridge/internal/adapters/output/mqtt"
	"air-purifier-bridge/internal/adapters/output/persistence"
	"air-purifier-bridge/internal/config"
	"air-purifier-bridge/internal/domain/capability"
	"air-purifier-bridge/internal/domain/catalog"
	"air-purifier-bridge/internal/domain/service"
	"air-purifier-bridge/internal/logging"
)

func main() {
	cfg := config.Load()
	logger := logging.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)

	if err := run(cfg, logger); err != nil {
		logger.Error("bridge stopped", "err", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ip := cfg.LocalIP
	if ip == "" {
		ip = getLocalIP()
	}
	if ip == "" {
		return errors.New("could not determine local IP, set LOCAL_IP")
	}

	cat, err := catalog.Default()
	if err != nil {
		return err
	}
	resolver, err := capability.NewResolver(cat.Families, cat.Models)
	if err != nil {
		return err
	}

	configRepo := persistence.NewJSONConfigRepository(cfg.ConfigPath)

	connector, err := mqtt.Dial(mqtt.Options{
		Broker:         cfg.MQTTBroker,
		ClientID:       cfg.MQTTClientID,
		Username:       cfg.MQTTUsername,
		Password:       cfg.MQTTPassword,
		TopicPrefix:    cfg.MQTTTopicPrefix,
		QoS:            cfg.MQTTQoS,
		CommandTimeout: cfg.CommandTimeout,
	}, logger)
	if err != nil {
		return err
	}
	defer connector.Close()

	bridge := service.NewBridgeService(connector, configRepo, resolver, cat.Switches, service.Options{
		PollInterval:  cfg.PollInterval,
		RetryInterval: cfg.SetupRetryInterval,
	}, logger)
	if err := bridge.Start(ctx); err != nil {
		return err
	}

	port := cfg.HTTPPort()
	if cfg.SSDPEnabled {
		ssdpServer := ssdp.NewServer(ip, port, logger)
		go func() {
			if err := ssdpServer.Start(ctx); err != nil {
				logger.Error("ssdp server failed", "err", err)
			}
		}()
	}

	logger.Info("starting air purifier bridge", "ip", ip, "addr", cfg.HTTPAddr, "broker", cfg.MQTTBroker)
	return http.NewServer(bridge, ip, port, logger).ListenAndServe(ctx, cfg.HTTPAddr)
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
