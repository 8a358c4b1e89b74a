package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/berfenger/taspromto/internal/config"
	"github.com/berfenger/taspromto/internal/core/port"

	"github.com/asynkron/protoactor-go/actor"
	_ "github.com/joho/godotenv/autoload"
)

type Server struct {
	port        uint
	httpLog     bool
	rootContext *actor.RootContext
	masterActor *actor.PID
	metrics     port.MetricsSource
}

func NewServer(cfg config.Config, rootContext *actor.RootContext, masterActor *actor.PID, metrics port.MetricsSource) *http.Server {
	NewServer := &Server{
		port:        cfg.Port,
		rootContext: rootContext,
		masterActor: masterActor,
		httpLog:     cfg.HttpLog,
		metrics:     metrics,
	}

	// Declare Server config
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", NewServer.port),
		Handler:      NewServer.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	return server
}
