package routes

import (
	"errors"
	"net/http"

	"github.com/go-chi/render"

	"github.com/mbolis/qr-requests/httpx"
	"github.com/mbolis/qr-requests/log"
	"github.com/mbolis/qr-requests/model"
	"github.com/mbolis/qr-requests/store"
)

// storeError translates store failures into HTTP responses: 404 unknown,
// 409 closed or duplicate, 410 exhausted one-time token, 422 with a field
// map for validation failures, 500 otherwise.
func storeError(w http.ResponseWriter, r *http.Request, code string, key any, err error) {
	var verr model.ValidationError
	switch {
	case errors.Is(err, store.ErrNotFound):
		httpx.LogNotFound(w, code, key)
	case errors.Is(err, store.ErrClosed):
		httpx.LogStatusMsg(w, http.StatusConflict, log.DebugLevel, code, "this form is currently closed")
	case errors.Is(err, store.ErrTokenUsed):
		httpx.LogStatusMsg(w, http.StatusGone, log.DebugLevel, code, "this QR code has already been used and has expired")
	case errors.Is(err, store.ErrDuplicatePhone):
		httpx.LogStatusMsg(w, http.StatusConflict, log.DebugLevel, code, store.ErrDuplicatePhone.Error())
	case errors.As(err, &verr):
		log.Debugf("%s: %s", code, verr)
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, map[string]any{
			"errors": verr,
		})
	default:
		httpx.LogInternalError(w, code, err)
	}
}
