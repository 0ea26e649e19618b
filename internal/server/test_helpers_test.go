package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"party-pulse/internal/config"
	"party-pulse/internal/db"
	"party-pulse/internal/realtime"
	"party-pulse/internal/store"
)

const testHostID = "9b3f2a10-0000-4000-8000-000000000001"

func newTestEnv(t *testing.T) (*Server, *store.Memory, *httptest.Server) {
	t.Helper()
	mem := store.NewMemory()
	for _, game := range []struct{ slug, name string }{
		{"bingo", "Party Bingo"},
		{"hot-take", "Hot Take"},
		{"who-am-i", "Who Am I?"},
		{"two-truths", "Two Truths and a Lie"},
		{"quiz", "Pub Quiz"},
		{"drawing-battle", "Drawing Battle"},
	} {
		mem.SeedGame(game.slug, game.name)
	}
	hub, err := realtime.NewHub(realtime.NewMemoryBroker())
	if err != nil {
		t.Fatalf("hub: %v", err)
	}
	srv := New(mem, hub, config.Default())
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	t.Cleanup(srv.Stop)
	return srv, mem, ts
}

func doRequest(t *testing.T, ts *httptest.Server, method, path, userID string, payload any) *http.Response {
	t.Helper()
	var body *bytes.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, ts.URL+path, body)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	t.Cleanup(func() {
		_ = resp.Body.Close()
	})
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return body
}

func createEvent(t *testing.T, ts *httptest.Server, title string) string {
	t.Helper()
	resp := doRequest(t, ts, http.MethodPost, "/api/events", testHostID, map[string]string{
		"title": title,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected status %d, got %d", http.StatusCreated, resp.StatusCode)
	}
	body := decodeBody(t, resp)
	return body["id"].(string)
}

func createBlock(t *testing.T, ts *httptest.Server, eventID, title string, minutes int) string {
	t.Helper()
	resp := doRequest(t, ts, http.MethodPost, "/api/events/"+eventID+"/blocks", testHostID, map[string]any{
		"block_type":       "custom",
		"title":            title,
		"duration_minutes": minutes,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected status %d, got %d", http.StatusCreated, resp.StatusCode)
	}
	body := decodeBody(t, resp)
	return body["ID"].(string)
}

func gameIDBySlug(t *testing.T, mem *store.Memory, slug string) string {
	t.Helper()
	resolved, err := mem.ResolveGameSlugs(context.Background(), []string{slug})
	if err != nil {
		t.Fatalf("resolve slug: %v", err)
	}
	id, ok := resolved[slug]
	if !ok {
		t.Fatalf("slug %q not seeded", slug)
	}
	return id
}

func joinAttendee(t *testing.T, ts *httptest.Server, eventID, userID, name string) db.Attendee {
	t.Helper()
	resp := doRequest(t, ts, http.MethodPost, "/api/events/"+eventID+"/attendees/join", userID, map[string]string{
		"display_name": name,
	})
	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		t.Fatalf("expected created or ok, got %d", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	return db.Attendee{ID: body["ID"].(string), EventID: eventID, DisplayName: body["DisplayName"].(string)}
}
