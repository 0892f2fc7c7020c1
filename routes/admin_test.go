package routes_test

import (
	"bytes"
	"image/png"
	"net/http"
	"strconv"
	"strings"
	"testing"

	"github.com/mbolis/qr-requests/model"
)

func TestRequestQR(t *testing.T) {
	h := newTestServer(t)
	pair := login(t, h)
	req := createRequest(t, h, pair.AccessToken, map[string]any{"title": "Scan me"})
	id := strconv.Itoa(req.ID)

	// screen preview
	w := do(t, h, "GET", "/api/admin/requests/"+id+"/qr?box=4", pair.AccessToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("qr preview failed with status %d: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("content-type"); ct != "image/png" {
		t.Errorf("expected image/png, got %q", ct)
	}
	img, err := png.Decode(bytes.NewReader(w.Body.Bytes()))
	if err != nil {
		t.Fatalf("failed to decode qr png: %v", err)
	}
	if img.Bounds().Dx() != img.Bounds().Dy() {
		t.Errorf("expected a square code, got %v", img.Bounds())
	}

	// print size
	w = do(t, h, "GET", "/api/admin/requests/"+id+"/qr?size=45x35", pair.AccessToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("print qr failed with status %d", w.Code)
	}
	img, err = png.Decode(bytes.NewReader(w.Body.Bytes()))
	if err != nil {
		t.Fatalf("failed to decode print png: %v", err)
	}
	if img.Bounds().Dx() != 531 || img.Bounds().Dy() != 413 {
		t.Errorf("expected 531x413 at 300dpi, got %v", img.Bounds())
	}

	w = do(t, h, "GET", "/api/admin/requests/"+id+"/qr?box=0", pair.AccessToken, nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for box=0, got %d", w.Code)
	}
	w = do(t, h, "GET", "/api/admin/requests/"+id+"/qr?size=huge", pair.AccessToken, nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for an unknown size, got %d", w.Code)
	}
}

func TestQRSheet(t *testing.T) {
	h := newTestServer(t)
	pair := login(t, h)

	w := do(t, h, "POST", "/api/admin/requests", pair.AccessToken, map[string]any{
		"title": "Raffle",
		"count": 4,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("batch create failed with status %d", w.Code)
	}
	var batch struct {
		Requests []model.Request `json:"requests"`
	}
	decode(t, w, &batch)

	ids := make([]int, len(batch.Requests))
	for i, req := range batch.Requests {
		ids[i] = req.ID
	}

	w = do(t, h, "POST", "/api/admin/qr-sheet", pair.AccessToken, map[string]any{
		"ids":  ids,
		"size": "passport",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("qr sheet failed with status %d: %s", w.Code, w.Body.String())
	}
	img, err := png.Decode(bytes.NewReader(w.Body.Bytes()))
	if err != nil {
		t.Fatalf("failed to decode sheet png: %v", err)
	}
	// A4 at 300dpi
	if img.Bounds().Dx() != 2480 || img.Bounds().Dy() != 3507 {
		t.Errorf("expected an A4 page, got %v", img.Bounds())
	}

	w = do(t, h, "POST", "/api/admin/qr-sheet", pair.AccessToken, map[string]any{"ids": []int{}})
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 without ids, got %d", w.Code)
	}
	w = do(t, h, "POST", "/api/admin/qr-sheet", pair.AccessToken, map[string]any{"ids": []int{99999}})
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 for an unknown id, got %d", w.Code)
	}
}

func TestSettings(t *testing.T) {
	h := newTestServer(t)
	pair := login(t, h)

	w := do(t, h, "GET", "/api/admin/settings/base_url", pair.AccessToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get setting failed with status %d", w.Code)
	}
	var setting struct {
		Key   string `json:"key"`
		Value string `json:"value"`
	}
	decode(t, w, &setting)
	if setting.Value != "" {
		t.Errorf("expected an unset setting to be empty, got %q", setting.Value)
	}

	w = do(t, h, "PUT", "/api/admin/settings/base_url", pair.AccessToken, map[string]any{
		"value": " https://forms.example.org ",
	})
	if w.Code != http.StatusNoContent {
		t.Fatalf("put setting failed with status %d", w.Code)
	}

	w = do(t, h, "GET", "/api/admin/settings/base_url", pair.AccessToken, nil)
	decode(t, w, &setting)
	if setting.Value != "https://forms.example.org" {
		t.Errorf("expected the trimmed value back, got %q", setting.Value)
	}
}

func TestExportSubmissionsCSV(t *testing.T) {
	h := newTestServer(t)
	pair := login(t, h)
	req := createRequest(t, h, pair.AccessToken, map[string]any{"title": "Fall Fundraiser"})

	w := do(t, h, "POST", "/api/requests/"+req.Token+"/submissions", "", map[string]any{
		"name":  "Alice Smith",
		"phone": "+1 555 0100",
		"email": "alice@example.com",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("submission failed with status %d", w.Code)
	}

	w = do(t, h, "GET", "/api/admin/requests/"+strconv.Itoa(req.ID)+"/submissions.csv", pair.AccessToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("csv export failed with status %d", w.Code)
	}
	if ct := w.Header().Get("content-type"); ct != "text/csv" {
		t.Errorf("expected text/csv, got %q", ct)
	}
	if cd := w.Header().Get("content-disposition"); !strings.Contains(cd, "Fall_Fundraiser_submissions.csv") {
		t.Errorf("unexpected content disposition %q", cd)
	}

	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected a header and one row, got %d lines", len(lines))
	}
	if lines[0] != "name,phone,email,submitted_at" {
		t.Errorf("unexpected header %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "Alice Smith,+1 555 0100,alice@example.com,") {
		t.Errorf("unexpected row %q", lines[1])
	}
}

func TestSearchSubmissions(t *testing.T) {
	h := newTestServer(t)
	pair := login(t, h)

	first := createRequest(t, h, pair.AccessToken, map[string]any{"title": "First", "points": 5})
	second := createRequest(t, h, pair.AccessToken, map[string]any{"title": "Second", "points": 3})

	for token, sub := range map[string]map[string]any{
		first.Token:  {"name": "Alice Smith", "phone": "+1 555 0100"},
		second.Token: {"name": "Bob Jones", "phone": "555 0101 22"},
	} {
		w := do(t, h, "POST", "/api/requests/"+token+"/submissions", "", sub)
		if w.Code != http.StatusCreated {
			t.Fatalf("submission failed with status %d", w.Code)
		}
	}

	w := do(t, h, "GET", "/api/admin/submissions?name=alice", pair.AccessToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("search failed with status %d", w.Code)
	}
	var body struct {
		Submissions []model.SubmissionDetail `json:"submissions"`
		Total       int                      `json:"total"`
	}
	decode(t, w, &body)
	if body.Total != 1 || len(body.Submissions) != 1 {
		t.Fatalf("expected a single match, got %+v", body)
	}
	if body.Submissions[0].RequestTitle != "First" || body.Submissions[0].Points != 5 {
		t.Errorf("expected the joined request fields, got %+v", body.Submissions[0])
	}

	w = do(t, h, "GET", "/api/admin/submissions?from=not-a-date", pair.AccessToken, nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for a malformed date, got %d", w.Code)
	}
}

func TestRewardsFlow(t *testing.T) {
	h := newTestServer(t)
	pair := login(t, h)

	req := createRequest(t, h, pair.AccessToken, map[string]any{"title": "Drive", "points": 10})
	w := do(t, h, "POST", "/api/requests/"+req.Token+"/submissions", "", map[string]any{
		"name":  "Alice Smith",
		"phone": "+1 555 0100",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("submission failed with status %d", w.Code)
	}

	w = do(t, h, "POST", "/api/admin/rewards/adjustments", pair.AccessToken, map[string]any{
		"name":   "Alice Smith",
		"phone":  "+1 555 0100",
		"points": -3,
		"reason": "late entry",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("adjustment failed with status %d: %s", w.Code, w.Body.String())
	}

	w = do(t, h, "GET", "/api/admin/rewards", pair.AccessToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("rewards summary failed with status %d", w.Code)
	}
	var summary struct {
		Rewards []model.RewardBalance `json:"rewards"`
	}
	decode(t, w, &summary)
	if len(summary.Rewards) != 1 {
		t.Fatalf("expected one balance, got %+v", summary.Rewards)
	}
	if b := summary.Rewards[0]; b.Earned != 10 || b.Adjustments != -3 || b.Balance != 7 {
		t.Errorf("unexpected balance %+v", b)
	}

	// payout zeroes the balance with a compensating entry
	w = do(t, h, "POST", "/api/admin/rewards/payout", pair.AccessToken, map[string]any{
		"name":  "Alice Smith",
		"phone": "+1 555 0100",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("payout failed with status %d: %s", w.Code, w.Body.String())
	}
	var payout struct {
		Paid    int `json:"paid"`
		Balance int `json:"balance"`
	}
	decode(t, w, &payout)
	if payout.Paid != 7 || payout.Balance != 0 {
		t.Errorf("expected to pay 7, got %+v", payout)
	}

	w = do(t, h, "GET", "/api/admin/rewards", pair.AccessToken, nil)
	decode(t, w, &summary)
	if len(summary.Rewards) != 1 || summary.Rewards[0].Balance != 0 {
		t.Errorf("expected a zero balance after payout, got %+v", summary.Rewards)
	}

	// paying again is a no-op
	w = do(t, h, "POST", "/api/admin/rewards/payout", pair.AccessToken, map[string]any{
		"name":  "Alice Smith",
		"phone": "+1 555 0100",
	})
	decode(t, w, &payout)
	if payout.Paid != 0 {
		t.Errorf("expected nothing left to pay, got %+v", payout)
	}

	// clearing the ledger restores the earned points
	w = do(t, h, "DELETE", "/api/admin/rewards/adjustments?name=Alice+Smith&phone=%2B1+555+0100", pair.AccessToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("clear failed with status %d: %s", w.Code, w.Body.String())
	}
	var cleared struct {
		Deleted int `json:"deleted"`
	}
	decode(t, w, &cleared)
	if cleared.Deleted != 2 {
		t.Errorf("expected 2 ledger entries cleared, got %d", cleared.Deleted)
	}

	w = do(t, h, "GET", "/api/admin/rewards", pair.AccessToken, nil)
	decode(t, w, &summary)
	if len(summary.Rewards) != 1 || summary.Rewards[0].Balance != 10 {
		t.Errorf("expected the earned balance back, got %+v", summary.Rewards)
	}

	w = do(t, h, "POST", "/api/admin/rewards/payout", pair.AccessToken, map[string]any{"name": "Alice Smith"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 without a phone, got %d", w.Code)
	}
}

func TestExportRewardsCSV(t *testing.T) {
	h := newTestServer(t)
	pair := login(t, h)

	req := createRequest(t, h, pair.AccessToken, map[string]any{"title": "Drive", "points": 4})
	w := do(t, h, "POST", "/api/requests/"+req.Token+"/submissions", "", map[string]any{
		"name":  "Alice Smith",
		"phone": "+1 555 0100",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("submission failed with status %d", w.Code)
	}

	w = do(t, h, "GET", "/api/admin/rewards.csv", pair.AccessToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("rewards export failed with status %d", w.Code)
	}
	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected a header and one row, got %d lines", len(lines))
	}
	if lines[0] != "name,phone,submissions,earned,adjustments,balance" {
		t.Errorf("unexpected header %q", lines[0])
	}
	if lines[1] != "Alice Smith,+1 555 0100,1,4,0,4" {
		t.Errorf("unexpected row %q", lines[1])
	}
}

func TestWipeDatabase(t *testing.T) {
	h := newTestServer(t)
	pair := login(t, h)
	req := createRequest(t, h, pair.AccessToken, map[string]any{"title": "Doomed"})

	w := do(t, h, "DELETE", "/api/admin/database", pair.AccessToken, nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 without the confirmation phrase, got %d", w.Code)
	}
	w = do(t, h, "DELETE", "/api/admin/database?confirm=yes", pair.AccessToken, nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for the wrong phrase, got %d", w.Code)
	}

	w = do(t, h, "DELETE", "/api/admin/database?confirm=DELETE", pair.AccessToken, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("wipe failed with status %d", w.Code)
	}

	w = do(t, h, "GET", "/api/requests/"+req.Token, "", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("expected the request to be gone, got %d", w.Code)
	}

	// the admin session survives the wipe
	w = do(t, h, "GET", "/api/admin/requests", pair.AccessToken, nil)
	if w.Code != http.StatusOK {
		t.Errorf("expected the session to survive, got %d", w.Code)
	}
}
