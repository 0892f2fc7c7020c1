package app

import (
	"github.com/go-chi/oauth"

	"github.com/mbolis/qr-requests/config"
	"github.com/mbolis/qr-requests/store"
)

type App struct {
	*store.Store
	*oauth.BearerServer
	config.Config
}
