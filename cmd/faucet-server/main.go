package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/nrednav/cuid2"

	"member-faucet/internal/alert"
	"member-faucet/internal/auth"
	"member-faucet/internal/boot"
	"member-faucet/internal/captcha"
	"member-faucet/internal/chain/substrate"
	"member-faucet/internal/handlers"
	"member-faucet/internal/ratelimit"
	"member-faucet/internal/service/register"
	"member-faucet/internal/store"
)

func newRegisterService(config *boot.Config) (handlers.RegisterService, *store.MemberStore) {
	node, err := substrate.Connect(
		config.Chain.Endpoint,
		config.Chain.InviterSeed,
		config.Chain.AddressPrefix,
		config.Chain.InvitingMemberID,
	)
	if err != nil {
		log.Fatalf("connecting to node at %s: %+v", config.Chain.Endpoint, err)
	}

	members, err := store.NewMemberStore(config.Store.DatabasePath)
	if err != nil {
		log.Fatalf("opening member store: %+v", err)
	}

	verifier := captcha.New(config.Captcha.Secret, config.Captcha.Endpoint, config.CaptchaTokenTTL())
	gate := auth.New(
		config.Auth.BypassKey,
		ratelimit.New(config.Throttle.AuthFailureMax, config.AuthFailureInterval()),
	)
	alerts := alert.New(
		config.Alerts.SendgridAPIKey,
		config.Alerts.FromEmail,
		config.Alerts.ToEmail,
		ratelimit.New(config.Alerts.MaxInInterval, config.AlertInterval()),
	)
	if config.Alerts.SendTestOnBoot {
		alerts.SendTest()
	}

	return register.New(config, node, verifier, gate, alerts, members), members
}

func main() {
	config, err := boot.Load()
	if err != nil {
		log.Fatalf("boot: %+v", err)
	}

	service, members := newRegisterService(config)
	defer members.Close()

	server := echo.New()
	server.Use(middleware.BodyLimit("64K"))
	server.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: func() string {
			return cuid2.Generate()
		},
	}))
	server.Use(echoprometheus.NewMiddleware("faucet"))
	server.Use(middleware.Recover())

	server.Logger.SetLevel(log.INFO)

	// one hop behind a reverse proxy
	server.IPExtractor = echo.ExtractIPFromXFFHeader()

	headers := []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization}
	server.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{config.Server.Origins},
		AllowHeaders:     headers,
		AllowCredentials: true,
	}))

	server.GET("/ip", handlers.IP())
	server.GET("/status", handlers.Status(service))
	server.POST("/register", handlers.Register(service))

	go func() {
		metrics := echo.New()
		metrics.GET("/metrics", echoprometheus.NewHandler())
		if err := metrics.Start(":" + config.Server.MetricsPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	go func() {
		if err := server.Start(":" + config.Server.Port); err != nil && err != http.ErrServerClosed {
			server.Logger.Fatal("shutting down the server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		server.Logger.Fatal(err)
	}
}
