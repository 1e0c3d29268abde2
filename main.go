package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/petuhovskiy/powerpick/internal/app"
	"github.com/petuhovskiy/powerpick/internal/display"
	"github.com/petuhovskiy/powerpick/internal/log"
	"github.com/petuhovskiy/powerpick/internal/web"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	defer log.DefaultGlobals()()
	ctx := context.Background()

	base, err := app.NewAppFromEnv()
	if err != nil {
		log.Fatal(ctx, "failed to init app", zap.Error(err))
	}

	base.StartPrometheus()

	err = base.Session.Start(ctx)
	if errors.Is(err, display.ErrConfiguration) {
		log.Fatal(ctx, "display is misconfigured", zap.Error(err))
	}
	if err != nil {
		log.Fatal(ctx, "failed to start session", zap.Error(err))
	}

	if base.Config.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	srv := &http.Server{
		Addr:    base.Config.HTTPBind,
		Handler: web.NewServer(base.Session, base.Board).Router(),
	}

	base.Register.Go(func() {
		log.Info(ctx, "serving widget", zap.String("bind", srv.Addr))
		err := srv.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			log.Fatal(ctx, "http server error", zap.Error(err))
		}
	})

	stopCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-stopCtx.Done()
	log.Info(ctx, "shutting down")

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "http server forced to shutdown", zap.Error(err))
	}

	base.Register.WaitAll(ctx)
}
