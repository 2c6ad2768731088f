package main

import (
	"fmt"
	"net/http"
	"time"

	"connectrpc.com/connect"
	"github.com/mcdev12/draftroom/go/internal/draft/rpc"
	"github.com/rs/cors"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

func setupServer(cfg Config, services *Services) *http.Server {
	mux := http.NewServeMux()

	c := cors.New(cors.Options{
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
		},
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{rpc.ErrorCodeHeader},
	})

	registerServices(mux, services)
	mux.Handle("GET /metrics", services.Metrics)
	mux.Handle("GET /health", services.Health)

	return &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           h2c.NewHandler(c.Handler(mux), &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

func registerServices(mux *http.ServeMux, services *Services) {
	// Websocket and REST state routes.
	services.Gateway.RegisterRoutes(mux)

	// Draft command service.
	mux.Handle(rpc.NewHandler(services.RPC, connect.WithInterceptors(rpc.NewAuthInterceptor(services.Auth))))
}
