package main

import (
	"errors"
	"net/http"
	"time"

	"github.com/mbolis/qr-requests/app"
	"github.com/mbolis/qr-requests/config"
	"github.com/mbolis/qr-requests/database"
	"github.com/mbolis/qr-requests/httpx"
	"github.com/mbolis/qr-requests/log"
	"github.com/mbolis/qr-requests/routes"
	"github.com/mbolis/qr-requests/store"
)

func main() {
	cfg, err := config.Parse()
	if err != nil {
		log.Fatal("main.config:", err)
	}
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	}

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		log.Fatal("main.db.open:", err)
	}
	defer db.Close()

	st := store.New(db)

	bearerServer, err := httpx.NewBearerServer(st, cfg)
	if err != nil {
		log.Fatal("main.auth:", err)
	}

	app := app.App{
		Store:        st,
		BearerServer: bearerServer,
		Config:       cfg,
	}

	handler := routes.Wire(app)

	err = runServer(cfg, handler)
	if !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("main.server:", err)
	}
}

func runServer(cfg config.Config, handler http.Handler) error {
	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	log.Info("Listening on " + cfg.Url())
	return srv.ListenAndServe()
}
