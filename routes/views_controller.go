package routes

import (
	"net/http"

	"github.com/mbolis/qr-requests/app"
)

// ViewIndex is the landing branch for every scanned or typed URL:
// ?view=form&token=T is the public submission form, ?view=review jumps
// into the dashboard review section, anything else is the admin dashboard.
func ViewIndex(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		switch {
		case q.Get("view") == "form" && q.Get("token") != "":
			http.ServeFile(w, r, "public/form.html")
		case q.Get("view") == "review":
			http.Redirect(w, r, "/admin/#review", http.StatusSeeOther)
		default:
			http.Redirect(w, r, "/admin/", http.StatusSeeOther)
		}
	}
}
