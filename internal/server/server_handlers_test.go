package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"party-pulse/internal/config"
	"party-pulse/internal/realtime"
	"party-pulse/internal/store"
)

func TestCreateEventRequiresActor(t *testing.T) {
	_, _, ts := newTestEnv(t)
	resp := doRequest(t, ts, http.MethodPost, "/api/events", "", map[string]string{"title": "No Auth"})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected status %d, got %d", http.StatusUnauthorized, resp.StatusCode)
	}
}

func TestCreateEventGeneratesSlugAndJoinCode(t *testing.T) {
	_, _, ts := newTestEnv(t)
	resp := doRequest(t, ts, http.MethodPost, "/api/events", testHostID, map[string]string{
		"title": "Novoročni Párty u Jirky",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected status %d, got %d", http.StatusCreated, resp.StatusCode)
	}
	body := decodeBody(t, resp)
	slug := body["slug"].(string)
	if !strings.HasPrefix(slug, "novoro-ni-p-rty-u-jirky") {
		t.Fatalf("unexpected slug %q", slug)
	}
	code := body["join_code"].(string)
	if len(code) != 6 {
		t.Fatalf("expected 6-char join code, got %q", code)
	}

	lookup := doRequest(t, ts, http.MethodGet, "/api/live/"+code, "", nil)
	if lookup.StatusCode != http.StatusOK {
		t.Fatalf("live lookup: expected status %d, got %d", http.StatusOK, lookup.StatusCode)
	}
	if id := decodeBody(t, lookup)["id"]; id != body["id"] {
		t.Fatalf("live lookup returned wrong event: %v", id)
	}

	bySlug := doRequest(t, ts, http.MethodGet, "/api/slugs/"+slug, "", nil)
	if bySlug.StatusCode != http.StatusOK {
		t.Fatalf("slug lookup: expected status %d, got %d", http.StatusOK, bySlug.StatusCode)
	}
}

func TestGetUnknownEventIs404(t *testing.T) {
	_, _, ts := newTestEnv(t)
	resp := doRequest(t, ts, http.MethodGet, "/api/events/nope", "", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, resp.StatusCode)
	}
}

func TestSelfJoinIsIdempotentOverHTTP(t *testing.T) {
	_, _, ts := newTestEnv(t)
	eventID := createEvent(t, ts, "Open Party")
	userID := "9b3f2a10-0000-4000-8000-0000000000bb"

	resp := doRequest(t, ts, http.MethodPost, "/api/events/"+eventID+"/attendees/join", userID, map[string]string{
		"display_name": "Ada",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("first join: expected status %d, got %d", http.StatusCreated, resp.StatusCode)
	}
	firstID := decodeBody(t, resp)["ID"].(string)

	resp = doRequest(t, ts, http.MethodPost, "/api/events/"+eventID+"/attendees/join", userID, map[string]string{
		"display_name": "Ada Again",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("second join: expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	if secondID := decodeBody(t, resp)["ID"].(string); secondID != firstID {
		t.Fatalf("expected same attendee row, got %q and %q", firstID, secondID)
	}

	resp = doRequest(t, ts, http.MethodGet, "/api/events/"+eventID+"/attendees", "", nil)
	attendees := decodeBody(t, resp)["attendees"].([]any)
	if len(attendees) != 1 {
		t.Fatalf("expected one attendee, got %d", len(attendees))
	}
}

func TestInviteRequiresCreator(t *testing.T) {
	_, _, ts := newTestEnv(t)
	eventID := createEvent(t, ts, "Invite Only")

	resp := doRequest(t, ts, http.MethodPost, "/api/events/"+eventID+"/attendees", "someone-else", map[string]string{
		"email": "ada@example.com", "display_name": "Ada",
	})
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected status %d, got %d", http.StatusForbidden, resp.StatusCode)
	}

	resp = doRequest(t, ts, http.MethodPost, "/api/events/"+eventID+"/attendees", testHostID, map[string]string{
		"email": "ada@example.com", "display_name": "Ada",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected status %d, got %d", http.StatusCreated, resp.StatusCode)
	}
	token := decodeBody(t, resp)["InviteToken"].(string)

	resp = doRequest(t, ts, http.MethodPost, "/api/invites/"+token+"/accept", "invited-user", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("accept: expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	if status := decodeBody(t, resp)["Status"]; status != "confirmed" {
		t.Fatalf("expected confirmed, got %v", status)
	}
}

func TestBlockMutationRequiresModerator(t *testing.T) {
	_, _, ts := newTestEnv(t)
	eventID := createEvent(t, ts, "Locked Down")

	resp := doRequest(t, ts, http.MethodPost, "/api/events/"+eventID+"/blocks", "stranger", map[string]any{
		"block_type": "custom", "title": "Hijack",
	})
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected status %d, got %d", http.StatusForbidden, resp.StatusCode)
	}

	resp = doRequest(t, ts, http.MethodPost, "/api/events/"+eventID+"/blocks", testHostID, map[string]any{
		"block_type": "karaoke", "title": "Bad Type",
	})
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected status %d, got %d", http.StatusUnprocessableEntity, resp.StatusCode)
	}
}

func TestAchievementsFeedAndTotal(t *testing.T) {
	_, _, ts := newTestEnv(t)
	eventID := createEvent(t, ts, "Legendary Night")

	for _, points := range []int{10, 25} {
		resp := doRequest(t, ts, http.MethodPost, "/api/events/"+eventID+"/achievements", testHostID, map[string]any{
			"achievement_type": "game_finished",
			"title":            "Game Finished",
			"points":           points,
		})
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("award: expected status %d, got %d", http.StatusCreated, resp.StatusCode)
		}
	}

	resp := doRequest(t, ts, http.MethodPost, "/api/events/"+eventID+"/achievements", "stranger", map[string]any{
		"achievement_type": "fake", "title": "Fake", "points": 1000,
	})
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected status %d, got %d", http.StatusForbidden, resp.StatusCode)
	}

	resp = doRequest(t, ts, http.MethodGet, "/api/events/"+eventID+"/achievements", "", nil)
	body := decodeBody(t, resp)
	if total := body["total_score"].(float64); total != 35 {
		t.Fatalf("expected total 35, got %v", total)
	}
	achievements := body["achievements"].([]any)
	if len(achievements) != 2 {
		t.Fatalf("expected 2 achievements, got %d", len(achievements))
	}
	row := achievements[0].(map[string]any)
	if row["achievement_type"] != "game_finished" {
		t.Fatalf("expected achievement_type in the feed row, got %v", row)
	}
	if awarded, _ := row["awarded_at"].(string); awarded == "" {
		t.Fatalf("expected awarded_at in the feed row, got %v", row)
	}
}

func TestPhotoPayloadSizeLimit(t *testing.T) {
	mem := store.NewMemory()
	hub, err := realtime.NewHub(realtime.NewMemoryBroker())
	if err != nil {
		t.Fatalf("hub: %v", err)
	}
	cfg := config.Default()
	cfg.MaxPhotoBytes = 256
	srv := New(mem, hub, cfg)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	t.Cleanup(srv.Stop)

	eventID := createEvent(t, ts, "Photo Wall")
	attendee := joinAttendee(t, ts, eventID, "9b3f2a10-0000-4000-8000-0000000000dd", "Ada")

	resp := doRequest(t, ts, http.MethodPost, "/api/events/"+eventID+"/photos", "", map[string]string{
		"attendee_id": attendee.ID,
		"url":         "data:image/png;base64," + strings.Repeat("A", 1024),
	})
	if resp.StatusCode != http.StatusRequestEntityTooLarge {
		t.Fatalf("oversized payload: expected status %d, got %d", http.StatusRequestEntityTooLarge, resp.StatusCode)
	}

	resp = doRequest(t, ts, http.MethodPost, "/api/events/"+eventID+"/photos", "", map[string]string{
		"attendee_id": attendee.ID,
		"url":         "https://cdn.example.com/p.jpg",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("small payload: expected status %d, got %d", http.StatusCreated, resp.StatusCode)
	}
}

func TestWallMessageValidation(t *testing.T) {
	_, _, ts := newTestEnv(t)
	eventID := createEvent(t, ts, "Message Wall")
	attendee := joinAttendee(t, ts, eventID, "9b3f2a10-0000-4000-8000-0000000000cc", "Ada")

	resp := doRequest(t, ts, http.MethodPost, "/api/events/"+eventID+"/messages", "", map[string]string{
		"attendee_id": attendee.ID, "content": "   ",
	})
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("empty content: expected status %d, got %d", http.StatusUnprocessableEntity, resp.StatusCode)
	}

	resp = doRequest(t, ts, http.MethodPost, "/api/events/"+eventID+"/messages", "", map[string]string{
		"attendee_id": attendee.ID, "content": strings.Repeat("x", 281),
	})
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("long content: expected status %d, got %d", http.StatusUnprocessableEntity, resp.StatusCode)
	}

	resp = doRequest(t, ts, http.MethodPost, "/api/events/"+eventID+"/messages", "", map[string]string{
		"attendee_id": "not-an-attendee", "content": "hello",
	})
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown attendee: expected status %d, got %d", http.StatusNotFound, resp.StatusCode)
	}

	resp = doRequest(t, ts, http.MethodPost, "/api/events/"+eventID+"/messages", "", map[string]string{
		"attendee_id": attendee.ID, "content": "Stastny novy rok!",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected status %d, got %d", http.StatusCreated, resp.StatusCode)
	}
	if name := decodeBody(t, resp)["DisplayName"]; name != "Ada" {
		t.Fatalf("expected author name resolved server-side, got %v", name)
	}

	resp = doRequest(t, ts, http.MethodGet, "/api/events/"+eventID+"/messages", "", nil)
	if messages := decodeBody(t, resp)["messages"].([]any); len(messages) != 1 {
		t.Fatalf("expected one message, got %d", len(messages))
	}
}

func TestResponsesRoundFilterOverHTTP(t *testing.T) {
	_, mem, ts := newTestEnv(t)
	eventID := createEvent(t, ts, "Quiz Night")
	gameID := gameIDBySlug(t, mem, "quiz")

	resp := doRequest(t, ts, http.MethodPost, "/api/events/"+eventID+"/program/games", testHostID, map[string]string{
		"game_id": gameID,
	})
	programID := decodeBody(t, resp)["program_id"].(string)

	for round := 1; round <= 2; round++ {
		resp = doRequest(t, ts, http.MethodPost, "/api/programs/"+programID+"/responses", "", map[string]any{
			"attendee_id":   "att-1",
			"response_type": "vote",
			"round_number":  round,
			"payload":       map[string]any{"voted_for": "att-2"},
		})
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("insert: expected status %d, got %d", http.StatusCreated, resp.StatusCode)
		}
	}

	resp = doRequest(t, ts, http.MethodGet, "/api/programs/"+programID+"/responses", "", nil)
	if responses := decodeBody(t, resp)["responses"].([]any); len(responses) != 2 {
		t.Fatalf("expected 2 responses, got %d", len(responses))
	}
	resp = doRequest(t, ts, http.MethodGet, "/api/programs/"+programID+"/responses?round=2", "", nil)
	if responses := decodeBody(t, resp)["responses"].([]any); len(responses) != 1 {
		t.Fatalf("expected 1 response for round 2, got %d", len(responses))
	}
	resp = doRequest(t, ts, http.MethodGet, "/api/programs/"+programID+"/responses?round=abc", "", nil)
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected status %d, got %d", http.StatusUnprocessableEntity, resp.StatusCode)
	}
}

func TestGameManifestEndpoint(t *testing.T) {
	_, _, ts := newTestEnv(t)
	resp := doRequest(t, ts, http.MethodGet, "/api/games/who-am-i/manifest", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	body := decodeBody(t, resp)
	if body["slug"] != "who-am-i" {
		t.Fatalf("unexpected manifest: %v", body)
	}
	if steps := body["moderation_steps"].([]any); len(steps) == 0 {
		t.Fatal("expected moderation steps")
	}

	resp = doRequest(t, ts, http.MethodGet, "/api/games/laser-tag/manifest", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("fallback manifest: expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	if body := decodeBody(t, resp); body["slug"] != "laser-tag" {
		t.Fatalf("fallback manifest must echo the slug, got %v", body)
	}
}
