package routes

import (
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"

	"github.com/mbolis/qr-requests/app"
	"github.com/mbolis/qr-requests/routes/middlewares"
)

func Wire(app app.App) http.Handler {
	root := chi.NewRouter()
	root.Use(middleware.Logger, middleware.Recoverer)

	root.Mount("/api", apiRouter(app))

	root.
		With(middlewares.CookieAuth(app.BearerServer), middlewares.Admin(app.TokenSecret)).
		Mount("/admin", servePrivateFiles("/admin"))
	root.Mount("/", servePublicFiles(app))

	return root
}

func apiRouter(app app.App) http.Handler {
	api := chi.NewRouter()

	api.Get("/requests/{token}", PublicGetRequest(app))
	api.Post("/requests/{token}/submissions", PublicSubmitRequest(app))

	api.Route("/admin", func(r chi.Router) {
		r.Use(middlewares.Admin(app.TokenSecret))

		// request lifecycle
		r.Post("/requests", CreateRequest(app))
		r.Get("/requests", ListRequests(app))
		r.Get(`/requests/{id:^\d+$}`, GetRequest(app))
		r.Post(`/requests/{id:^\d+$}/close`, CloseRequest(app))
		r.Post(`/requests/{id:^\d+$}/reopen`, ReopenRequest(app))
		r.Delete(`/requests/{id:^\d+$}`, DeleteRequest(app))

		// submissions
		r.Get(`/requests/{id:^\d+$}/submissions`, GetRequestSubmissions(app))
		r.Get(`/requests/{id:^\d+$}/submissions.csv`, ExportRequestSubmissions(app))
		r.Get("/submissions", SearchSubmissions(app))

		// QR printing
		r.Get(`/requests/{id:^\d+$}/qr`, GetRequestQR(app))
		r.Post("/qr-sheet", CreateQRSheet(app))

		// rewards ledger
		r.Get("/rewards", GetRewardsSummary(app))
		r.Get("/rewards.csv", ExportRewardsSummary(app))
		r.Post("/rewards/adjustments", AddRewardAdjustment(app))
		r.Delete("/rewards/adjustments", ClearRewardAdjustments(app))
		r.Post("/rewards/payout", PayoutRewards(app))

		// settings and maintenance
		r.Get("/settings/{key}", GetSetting(app))
		r.Put("/settings/{key}", PutSetting(app))
		r.Delete("/database", WipeDatabase(app))
	})

	api.Post("/login", Login(app))
	api.Post("/refresh", Refresh(app))

	return api
}

func servePublicFiles(app app.App) http.Handler {
	files := http.FileServer(http.Dir("public"))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" {
			ViewIndex(app)(w, r)
			return
		}
		files.ServeHTTP(w, r)
	})
}

func servePrivateFiles(path string) http.Handler {
	return http.StripPrefix(path, http.FileServer(http.Dir("private")))
}
