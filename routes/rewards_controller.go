package routes

import (
	"encoding/csv"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/render"

	"github.com/mbolis/qr-requests/app"
	"github.com/mbolis/qr-requests/httpx"
	"github.com/mbolis/qr-requests/log"
	"github.com/mbolis/qr-requests/store"
)

// submissionFilter reads the review filters from the query string:
// name and phone substrings, from/to dates (YYYY-MM-DD, both inclusive).
func submissionFilter(r *http.Request) (store.SubmissionFilter, error) {
	q := r.URL.Query()
	f := store.SubmissionFilter{
		Name:  strings.TrimSpace(q.Get("name")),
		Phone: strings.TrimSpace(q.Get("phone")),
	}

	if from := q.Get("from"); from != "" {
		t, err := time.Parse("2006-01-02", from)
		if err != nil {
			return f, err
		}
		f.From = &t
	}
	if to := q.Get("to"); to != "" {
		t, err := time.Parse("2006-01-02", to)
		if err != nil {
			return f, err
		}
		// inclusive end date
		end := t.Add(24 * time.Hour)
		f.To = &end
	}
	return f, nil
}

// SearchSubmissions powers the review page: submissions across every
// request, filtered by person and date range.
func SearchSubmissions(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter, err := submissionFilter(r)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_query_param.date")
			return
		}

		subs, err := app.Store.SearchSubmissions(r.Context(), filter)
		if err != nil {
			httpx.LogInternalError(w, "db.search_submissions", err)
			return
		}

		render.JSON(w, r, map[string]any{
			"submissions": subs,
			"total":       len(subs),
		})
	}
}

func GetRewardsSummary(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter, err := submissionFilter(r)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_query_param.date")
			return
		}

		balances, err := app.RewardsSummary(r.Context(), filter)
		if err != nil {
			httpx.LogInternalError(w, "db.rewards_summary", err)
			return
		}

		render.JSON(w, r, map[string]any{
			"rewards": balances,
		})
	}
}

func ExportRewardsSummary(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter, err := submissionFilter(r)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_query_param.date")
			return
		}

		balances, err := app.RewardsSummary(r.Context(), filter)
		if err != nil {
			httpx.LogInternalError(w, "db.rewards_summary", err)
			return
		}

		w.Header().Set("content-type", "text/csv")
		w.Header().Set("content-disposition", `attachment; filename="rewards_summary.csv"`)

		out := csv.NewWriter(w)
		out.Write([]string{"name", "phone", "submissions", "earned", "adjustments", "balance"})
		for _, b := range balances {
			out.Write([]string{
				b.Name,
				b.Phone,
				strconv.Itoa(b.Submissions),
				strconv.Itoa(b.Earned),
				strconv.Itoa(b.Adjustments),
				strconv.Itoa(b.Balance),
			})
		}
		out.Flush()
	}
}

type rewardActionBody struct {
	Name   string `json:"name"`
	Phone  string `json:"phone"`
	Points int    `json:"points"`
	Reason string `json:"reason"`
}

// AddRewardAdjustment appends a ledger entry; negative points deduct.
func AddRewardAdjustment(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body := rewardActionBody{}
		err := render.DecodeJSON(r.Body, &body)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		entry, err := app.AddRewardEntry(r.Context(), body.Name, body.Phone, body.Points, body.Reason)
		if err != nil {
			storeError(w, r, "db.insert_reward_entry", body.Name, err)
			return
		}

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, entry)
	}
}

// PayoutRewards zeroes a person's balance by writing a compensating
// negative adjustment marked "paid".
func PayoutRewards(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body := rewardActionBody{}
		err := render.DecodeJSON(r.Body, &body)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		name := strings.TrimSpace(body.Name)
		phone := strings.TrimSpace(body.Phone)
		if name == "" || phone == "" {
			httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "request.payout",
				"name and phone are required")
			return
		}

		earned, _, err := app.EarnedPoints(r.Context(), name, phone)
		if err != nil {
			httpx.LogInternalError(w, "db.earned_points", err)
			return
		}
		adjustments, err := app.AdjustmentSum(r.Context(), name, phone)
		if err != nil {
			httpx.LogInternalError(w, "db.adjustment_sum", err)
			return
		}

		balance := earned + adjustments
		if balance <= 0 {
			render.JSON(w, r, map[string]any{
				"paid":    0,
				"balance": 0,
			})
			return
		}

		_, err = app.AddRewardEntry(r.Context(), name, phone, -balance, "paid")
		if err != nil {
			storeError(w, r, "db.insert_reward_entry", name, err)
			return
		}

		render.JSON(w, r, map[string]any{
			"paid":    balance,
			"balance": 0,
		})
	}
}

func ClearRewardAdjustments(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		name := strings.TrimSpace(q.Get("name"))
		phone := strings.TrimSpace(q.Get("phone"))
		if name == "" || phone == "" {
			httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "request.clear_adjustments",
				"name and phone are required")
			return
		}

		deleted, err := app.ClearRewardEntries(r.Context(), name, phone)
		if err != nil {
			httpx.LogInternalError(w, "db.delete_reward_entries", err)
			return
		}

		render.JSON(w, r, map[string]any{
			"deleted": deleted,
		})
	}
}
