package routes

import (
	"encoding/csv"
	"fmt"
	"image"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/mbolis/qr-requests/app"
	"github.com/mbolis/qr-requests/httpx"
	"github.com/mbolis/qr-requests/log"
	"github.com/mbolis/qr-requests/model"
	"github.com/mbolis/qr-requests/qr"
	"github.com/mbolis/qr-requests/store"
)

type createRequestBody struct {
	store.NewRequest
	Count int `json:"count"`
}

// CreateRequest creates one request, or a numbered batch when count > 1.
func CreateRequest(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body := createRequestBody{}
		err := render.DecodeJSON(r.Body, &body)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		if body.Count > 1 {
			reqs, err := app.CreateBatch(r.Context(), body.NewRequest, body.Count)
			if err != nil {
				storeError(w, r, "db.insert_request.batch", body.Title, err)
				return
			}
			w.WriteHeader(http.StatusCreated)
			render.JSON(w, r, map[string]any{
				"requests": reqs,
			})
			return
		}

		req, err := app.CreateRequest(r.Context(), body.NewRequest)
		if err != nil {
			storeError(w, r, "db.insert_request", body.Title, err)
			return
		}

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, req)
	}
}

func ListRequests(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := r.URL.Query().Get("status")
		switch status {
		case "", model.StatusOpen, model.StatusClosed:
		default:
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_query_param.status")
			return
		}

		reqs, err := app.Store.ListRequests(r.Context(), status)
		if err != nil {
			httpx.LogInternalError(w, "db.get_requests", err)
			return
		}

		render.JSON(w, r, map[string]any{
			"requests": reqs,
		})
	}
}

func GetRequest(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requestId, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		req, err := app.Store.GetRequest(r.Context(), requestId)
		if err != nil {
			storeError(w, r, "db.get_request", requestId, err)
			return
		}

		render.JSON(w, r, req)
	}
}

func CloseRequest(app app.App) http.HandlerFunc {
	return setRequestStatus(app, model.StatusClosed)
}

func ReopenRequest(app app.App) http.HandlerFunc {
	return setRequestStatus(app, model.StatusOpen)
}

func setRequestStatus(app app.App, status string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requestId, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		err = app.SetStatus(r.Context(), requestId, status)
		if err != nil {
			storeError(w, r, "db.update_request.status", requestId, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func DeleteRequest(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requestId, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		err = app.Store.DeleteRequest(r.Context(), requestId)
		if err != nil {
			storeError(w, r, "db.delete_request", requestId, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func GetRequestSubmissions(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requestId, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		_, err = app.Store.GetRequest(r.Context(), requestId)
		if err != nil {
			storeError(w, r, "db.get_request", requestId, err)
			return
		}

		subs, err := app.ListSubmissions(r.Context(), requestId)
		if err != nil {
			httpx.LogInternalError(w, "db.get_submissions", err)
			return
		}

		render.JSON(w, r, map[string]any{
			"submissions": subs,
		})
	}
}

func ExportRequestSubmissions(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requestId, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		req, err := app.Store.GetRequest(r.Context(), requestId)
		if err != nil {
			storeError(w, r, "db.get_request", requestId, err)
			return
		}

		subs, err := app.ListSubmissions(r.Context(), requestId)
		if err != nil {
			httpx.LogInternalError(w, "db.get_submissions", err)
			return
		}

		filename := strings.ReplaceAll(req.Title, " ", "_") + "_submissions.csv"
		w.Header().Set("content-type", "text/csv")
		w.Header().Set("content-disposition", `attachment; filename="`+filename+`"`)

		out := csv.NewWriter(w)
		out.Write([]string{"name", "phone", "email", "submitted_at"})
		for _, sub := range subs {
			out.Write([]string{sub.Name, sub.Phone, sub.Email, sub.CreatedAt.Format(time.RFC3339)})
		}
		out.Flush()
	}
}

// GetRequestQR renders the request's QR code as PNG. With ?box=N it is a
// screen preview at N pixels per module; otherwise it is print-sized
// according to ?size= (45x35 passport by default). The payload is the
// request's custom content when set, else the public form URL.
func GetRequestQR(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requestId, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		req, err := app.Store.GetRequest(r.Context(), requestId)
		if err != nil {
			storeError(w, r, "db.get_request", requestId, err)
			return
		}

		payload := req.QRContent
		if payload == "" {
			payload = qr.FormURL(formBaseURL(r, app), req.Token)
		}

		img, err := requestQRImage(r, payload)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "qr.generate")
			return
		}

		bytes, err := qr.PNG(img)
		if err != nil {
			httpx.LogInternalError(w, "qr.encode", err)
			return
		}

		w.Header().Set("content-type", "image/png")
		w.Write(bytes)
	}
}

func requestQRImage(r *http.Request, payload string) (image.Image, error) {
	q := r.URL.Query()
	if box := q.Get("box"); box != "" {
		boxSize, err := strconv.Atoi(box)
		if err != nil || boxSize < 1 || boxSize > 64 {
			return nil, fmt.Errorf("invalid box size %q", box)
		}
		return qr.Generate(payload, boxSize)
	}

	widthMM, heightMM, err := qr.ParseSize(q.Get("size"))
	if err != nil {
		return nil, err
	}
	return qr.Passport(payload, widthMM, heightMM)
}

type qrSheetBody struct {
	IDs  []int  `json:"ids"`
	Size string `json:"size"`
}

// CreateQRSheet composes an A4 print sheet from the QR codes of the given
// requests.
func CreateQRSheet(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body := qrSheetBody{}
		err := render.DecodeJSON(r.Body, &body)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}
		if len(body.IDs) == 0 {
			httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "request.qr_sheet", "no request ids given")
			return
		}

		widthMM, heightMM, err := qr.ParseSize(body.Size)
		if err != nil {
			httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "request.qr_sheet.size", "%s", err)
			return
		}

		base := formBaseURL(r, app)
		codes := make([]image.Image, 0, len(body.IDs))
		for _, id := range body.IDs {
			req, err := app.Store.GetRequest(r.Context(), id)
			if err != nil {
				storeError(w, r, "db.get_request", id, err)
				return
			}

			payload := req.QRContent
			if payload == "" {
				payload = qr.FormURL(base, req.Token)
			}
			code, err := qr.Passport(payload, widthMM, heightMM)
			if err != nil {
				httpx.LogInternalError(w, "qr.generate", err)
				return
			}
			codes = append(codes, code)
		}

		bytes, err := qr.PNG(qr.A4Sheet(codes, widthMM, heightMM))
		if err != nil {
			httpx.LogInternalError(w, "qr.encode", err)
			return
		}

		w.Header().Set("content-type", "image/png")
		w.Header().Set("content-disposition", fmt.Sprintf(`attachment; filename="qr_sheet_%d_codes.png"`, len(codes)))
		w.Write(bytes)
	}
}

func GetSetting(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := chi.URLParam(r, "key")

		value, err := app.Store.GetSetting(r.Context(), key)
		if err != nil {
			httpx.LogInternalError(w, "db.get_setting", err)
			return
		}

		render.JSON(w, r, map[string]any{
			"key":   key,
			"value": value,
		})
	}
}

func PutSetting(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := chi.URLParam(r, "key")

		body := struct {
			Value string `json:"value"`
		}{}
		err := render.DecodeJSON(r.Body, &body)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		err = app.SetSetting(r.Context(), key, strings.TrimSpace(body.Value))
		if err != nil {
			httpx.LogInternalError(w, "db.set_setting", err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// WipeDatabase deletes every request, submission, reward entry and
// setting. The danger-zone confirmation phrase is required.
func WipeDatabase(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("confirm") != "DELETE" {
			httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "request.wipe.confirm",
				"pass confirm=DELETE to wipe all data")
			return
		}

		err := app.Wipe(r.Context())
		if err != nil {
			httpx.LogInternalError(w, "db.wipe", err)
			return
		}

		log.Warn("database wiped by admin")
		w.WriteHeader(http.StatusNoContent)
	}
}

// formBaseURL gives the externally reachable address for QR payloads: the
// admin-saved base_url setting, falling back to the configured default.
func formBaseURL(r *http.Request, app app.App) string {
	base, err := app.Store.GetSetting(r.Context(), "base_url")
	if err != nil || base == "" {
		return app.ExternalBaseURL()
	}
	return base
}
