package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	adactor "github.com/berfenger/taspromto/internal/adapter/actor"
	"github.com/berfenger/taspromto/internal/config"
	"github.com/berfenger/taspromto/internal/core/actor"
	"github.com/berfenger/taspromto/internal/core/domain"
	"github.com/berfenger/taspromto/internal/core/service"
	"github.com/berfenger/taspromto/internal/mqtt"
	"github.com/berfenger/taspromto/internal/server"
	"github.com/berfenger/taspromto/internal/util/actorutil"

	pactor "github.com/asynkron/protoactor-go/actor"
	"github.com/carlmjohnson/versioninfo"
	qlogger "github.com/reugn/go-quartz/logger"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {

	// load and print config
	cfg, err := initConfig(os.Args[1:])
	if err != nil {
		slog.Error("config errors", "error", err)
		os.Exit(1)
	}
	safePrintConfig(*cfg)

	bleNames, err := config.ParseBleNames(cfg.MiTempNames)
	if err != nil {
		slog.Error("invalid MITEMP_NAMES", "error", err)
		os.Exit(1)
	}
	rfNames, err := config.ParseRfNames(cfg.RfTempNames)
	if err != nil {
		slog.Error("invalid RF_TEMP_NAMES", "error", err)
		os.Exit(1)
	}

	// zap logger
	zapCfg := zap.NewProductionConfig()
	zapCfg.Level = zap.NewAtomicLevelAt(cfg.LogLevel)

	logger := zap.Must(zapCfg.Build())
	defer logger.Sync()
	qlogger.SetDefault(qlogger.NewSimpleLogger(zap.NewStdLog(logger.Named("mqtt")), qlogger.LevelError))

	logger.Info("starting taspromto", zap.String("version", versioninfo.Short()),
		zap.Int("mitemp_names", len(bleNames)), zap.Int("rf_names", len(rfNames)))

	// init actor system
	as := actorutil.NewActorSystemWithZapLogger(logger)
	root := as.Root

	registry := service.NewRegistry(logger)

	pid, err := root.SpawnNamed(actor.MasterProps(*cfg, registry, mqttActorProvider(cfg, logger), logger), domain.ACTOR_ID_MASTER)
	if err != nil {
		logger.Error("could not start master actor", zap.Error(err))
		return
	}

	srv := server.NewServer(*cfg, root, pid, service.NewMetricsExporter(registry, bleNames, rfNames))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		// restore default signal handling, a second Ctrl+C kills the process
		stop()
		logger.Info("shutting down gracefully, press Ctrl+C again to force")

		// The context is used to inform the server it has 5 seconds to finish
		// the request it is currently handling
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("shutdown", zap.Error(err))
	}

	if err := root.StopFuture(pid).Wait(); err != nil {
		logger.Warn("master actor did not stop cleanly", zap.Error(err))
	}
	as.Shutdown()
	logger.Info("graceful shutdown complete")
}

func initConfig(args []string) (*config.Config, error) {

	flags := pflag.NewFlagSet("taspromto", pflag.ContinueOnError)
	configFile := flags.String("config", "", "yaml config file (env CONFIG_FILE)")
	flags.Uint("port", 80, "http port serving /metrics (env PORT)")
	flags.String("log-level", "info", "trace|debug|info|warn|error|fatal (env LOG_LEVEL)")
	if err := flags.Parse(args); err != nil {
		return nil, err
	}

	v := viper.New()
	setConfigDefaults(v)

	if err := v.BindPFlag("port", flags.Lookup("port")); err != nil {
		return nil, err
	}
	if err := v.BindPFlag("log_level", flags.Lookup("log-level")); err != nil {
		return nil, err
	}

	// env names of existing deployments
	for key, env := range map[string]string{
		"mqtt.host":     "MQTT_HOSTNAME",
		"mqtt.port":     "MQTT_PORT",
		"mqtt.username": "MQTT_USERNAME",
		"mqtt.password": "MQTT_PASSWORD",
		"port":          "PORT",
		"log_level":     "LOG_LEVEL",
		"mitemp_names":  "MITEMP_NAMES",
		"rf_temp_names": "RF_TEMP_NAMES",
	} {
		if err := v.BindEnv(key, env); err != nil {
			return nil, err
		}
	}

	// everything else as TASPROMTO_SWEEP_INTERVAL_SECONDS etc.
	v.SetEnvPrefix("taspromto")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// if defined, try to load config from yaml file
	cfgFile := *configFile
	if cfgFile == "" {
		cfgFile = os.Getenv("CONFIG_FILE")
	}
	if cfgFile != "" {
		slog.Info("Using config", "file", cfgFile)
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg config.Config

	err := v.Unmarshal(&cfg)
	if err != nil {
		return nil, err
	}

	// parse log level
	switch v.GetString("log_level") {
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
		cfg.LogLevel = zap.InfoLevel
	}

	if cfg.MQTT.Host == "" {
		return nil, errors.New("MQTT_HOSTNAME not set")
	}
	if cfg.MQTT.Username != "" && cfg.MQTT.Password == "" {
		return nil, errors.New("MQTT_USERNAME set, but MQTT_PASSWORD not set")
	}
	if cfg.MQTT.ClientId == "" {
		cfg.MQTT.ClientId = mqtt.DefaultClientId()
	}

	rfTopic, err := config.CheckRfMessageTopic(cfg.MQTT.RfMessageTopic)
	if err != nil {
		return nil, err
	}
	cfg.MQTT.RfMessageTopic = rfTopic

	// check bounds
	if cfg.Sweep.PingAfterSeconds == 0 || cfg.Sweep.RemoveAfterSeconds == 0 {
		return nil, errors.New("config params sweep.ping_after_seconds and sweep.remove_after_seconds should be > 0")
	}
	if cfg.Sweep.RemoveAfterSeconds < cfg.Sweep.PingAfterSeconds {
		return nil, errors.New("config param sweep.remove_after_seconds should be >= sweep.ping_after_seconds")
	}

	return &cfg, nil
}

func mqttActorProvider(cfg *config.Config, logger *zap.Logger) actor.MQTTActorProvider {
	return func() pactor.Actor {
		return adactor.NewMQTTActor(cfg, logger)
	}
}

func setConfigDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")
	v.SetDefault("mqtt.host", "")
	v.SetDefault("mqtt.port", 1883)
	v.SetDefault("mqtt.username", "")
	v.SetDefault("mqtt.password", "")
	v.SetDefault("mqtt.client_id", "")
	v.SetDefault("mqtt.keep_alive_seconds", 5)
	v.SetDefault("mqtt.rf_message_topic", "rflink/msg")
	v.SetDefault("sweep.interval_seconds", 60)
	v.SetDefault("sweep.ping_after_seconds", 600)
	v.SetDefault("sweep.remove_after_seconds", 900)
	v.SetDefault("mitemp_names", "")
	v.SetDefault("rf_temp_names", "")
	v.SetDefault("http_log", false)
	v.SetDefault("port", 80)
}

func safePrintConfig(cfg config.Config) {
	cfg.MQTT.Username = "*redacted*"
	cfg.MQTT.Password = "*redacted*"
	slog.Info("Using", "config", cfg)
}
