package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/mbolis/qr-requests/app"
	"github.com/mbolis/qr-requests/httpx"
	"github.com/mbolis/qr-requests/log"
	"github.com/mbolis/qr-requests/model"
)

// PublicGetRequest resolves a scanned token for the public form page.
// Only presentation fields leak out, never the points or QR internals.
func PublicGetRequest(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := chi.URLParam(r, "token")

		req, err := app.GetRequestByToken(r.Context(), token)
		if err != nil {
			storeError(w, r, "db.get_request", token, err)
			return
		}

		render.JSON(w, r, map[string]any{
			"title":       req.Title,
			"description": req.Description,
			"status":      req.Status,
			"accepting":   req.Accepting(),
		})
	}
}

// PublicSubmitRequest accepts a viewer's form submission, as JSON or as a
// urlencoded form body.
func PublicSubmitRequest(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := chi.URLParam(r, "token")

		input := model.SubmissionInput{}
		err := render.Decode(r, &input)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		sub, err := app.AddSubmission(r.Context(), token, input)
		if err != nil {
			storeError(w, r, "db.insert_submission", token, err)
			return
		}

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, map[string]any{
			"id": sub.ID,
		})
	}
}
