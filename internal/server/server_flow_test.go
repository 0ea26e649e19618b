package server

import (
	"net/http"
	"testing"
)

func TestProgramWalkThrough(t *testing.T) {
	_, _, ts := newTestEnv(t)
	eventID := createEvent(t, ts, "Silvestr 2026")
	createBlock(t, ts, eventID, "Welcome", 10)
	createBlock(t, ts, eventID, "Dinner", 10)
	createBlock(t, ts, eventID, "Midnight", 10)

	resp := doRequest(t, ts, http.MethodGet, "/api/events/"+eventID+"/program", "", nil)
	if state := decodeBody(t, resp)["program_state"]; state != "not_started" {
		t.Fatalf("expected not_started, got %v", state)
	}

	resp = doRequest(t, ts, http.MethodPost, "/api/events/"+eventID+"/program/start", testHostID, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("start: expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	block := decodeBody(t, resp)["block"].(map[string]any)
	if block["Title"] != "Welcome" {
		t.Fatalf("expected Welcome active, got %v", block["Title"])
	}

	resp = doRequest(t, ts, http.MethodGet, "/api/events/"+eventID+"/program", "", nil)
	body := decodeBody(t, resp)
	if body["program_state"] != "running" {
		t.Fatalf("expected running, got %v", body["program_state"])
	}
	active := body["active_block"].(map[string]any)
	if active["Title"] != "Welcome" {
		t.Fatalf("expected active Welcome, got %v", active["Title"])
	}

	resp = doRequest(t, ts, http.MethodPost, "/api/events/"+eventID+"/program/advance", testHostID, nil)
	block = decodeBody(t, resp)["block"].(map[string]any)
	if block["Title"] != "Dinner" {
		t.Fatalf("expected Dinner, got %v", block["Title"])
	}

	doRequest(t, ts, http.MethodPost, "/api/events/"+eventID+"/program/advance", testHostID, nil)
	resp = doRequest(t, ts, http.MethodPost, "/api/events/"+eventID+"/program/advance", testHostID, nil)
	body = decodeBody(t, resp)
	if body["finished"] != true {
		t.Fatalf("expected finished program, got %v", body)
	}

	resp = doRequest(t, ts, http.MethodGet, "/api/events/"+eventID+"/program", "", nil)
	if state := decodeBody(t, resp)["program_state"]; state != "finished" {
		t.Fatalf("expected finished, got %v", state)
	}
}

func TestActivateOutOfOrderOverHTTP(t *testing.T) {
	_, _, ts := newTestEnv(t)
	eventID := createEvent(t, ts, "Out of Order")
	createBlock(t, ts, eventID, "One", 10)
	createBlock(t, ts, eventID, "Two", 10)
	thirdID := createBlock(t, ts, eventID, "Three", 10)

	doRequest(t, ts, http.MethodPost, "/api/events/"+eventID+"/program/start", testHostID, nil)
	resp := doRequest(t, ts, http.MethodPost, "/api/events/"+eventID+"/blocks/"+thirdID+"/activate", testHostID, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("activate: expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	block := decodeBody(t, resp)["block"].(map[string]any)
	if block["Title"] != "Three" {
		t.Fatalf("expected Three active, got %v", block["Title"])
	}

	// Jumping back to the first, now completed, block is a conflict.
	resp = doRequest(t, ts, http.MethodGet, "/api/events/"+eventID+"/blocks", "", nil)
	blocks := decodeBody(t, resp)["blocks"].([]any)
	firstID := ""
	for _, raw := range blocks {
		b := raw.(map[string]any)
		if b["Title"] == "One" {
			firstID = b["ID"].(string)
			if b["Status"] != "completed" {
				t.Fatalf("expected One completed, got %v", b["Status"])
			}
		}
	}
	resp = doRequest(t, ts, http.MethodPost, "/api/events/"+eventID+"/blocks/"+firstID+"/activate", testHostID, nil)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected status %d, got %d", http.StatusConflict, resp.StatusCode)
	}
}

func TestDeactivatePausesOverHTTP(t *testing.T) {
	_, _, ts := newTestEnv(t)
	eventID := createEvent(t, ts, "Pause Party")
	createBlock(t, ts, eventID, "One", 10)
	createBlock(t, ts, eventID, "Two", 10)

	doRequest(t, ts, http.MethodPost, "/api/events/"+eventID+"/program/start", testHostID, nil)
	resp := doRequest(t, ts, http.MethodPost, "/api/events/"+eventID+"/program/deactivate", testHostID, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("deactivate: expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	resp = doRequest(t, ts, http.MethodGet, "/api/events/"+eventID+"/program", "", nil)
	body := decodeBody(t, resp)
	if body["program_state"] != "paused" {
		t.Fatalf("expected paused, got %v", body["program_state"])
	}
	if _, ok := body["active_block"]; ok {
		t.Fatalf("expected no active block, got %v", body["active_block"])
	}
}

func TestApplyTemplateOverHTTP(t *testing.T) {
	_, _, ts := newTestEnv(t)
	eventID := createEvent(t, ts, "Birthday Bash")
	resp := doRequest(t, ts, http.MethodPost, "/api/events/"+eventID+"/template", testHostID, map[string]string{
		"event_type": "birthday",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("template: expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	blocks := decodeBody(t, resp)["blocks"].([]any)
	if len(blocks) != 5 {
		t.Fatalf("expected 5 template blocks, got %d", len(blocks))
	}

	resp = doRequest(t, ts, http.MethodPost, "/api/events/"+eventID+"/template", testHostID, map[string]string{
		"event_type": "wedding",
	})
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected status %d, got %d", http.StatusUnprocessableEntity, resp.StatusCode)
	}
}

func TestStartGameReturnsProgramID(t *testing.T) {
	_, mem, ts := newTestEnv(t)
	eventID := createEvent(t, ts, "Game Night")
	gameID := gameIDBySlug(t, mem, "quiz")

	resp := doRequest(t, ts, http.MethodPost, "/api/events/"+eventID+"/program/games", testHostID, map[string]string{
		"game_id": gameID,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("start game: expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	body := decodeBody(t, resp)
	programID, ok := body["program_id"].(string)
	if !ok || programID == "" {
		t.Fatalf("expected a program id, got %v", body)
	}

	// The ad-hoc game is the active block now.
	resp = doRequest(t, ts, http.MethodGet, "/api/events/"+eventID+"/program", "", nil)
	active := decodeBody(t, resp)["active_block"].(map[string]any)
	if active["ID"] != programID {
		t.Fatalf("expected ad-hoc game active, got %v", active["ID"])
	}
}

func TestReorderAndMoveOverHTTP(t *testing.T) {
	_, _, ts := newTestEnv(t)
	eventID := createEvent(t, ts, "Shuffle")
	a := createBlock(t, ts, eventID, "A", 10)
	b := createBlock(t, ts, eventID, "B", 10)
	c := createBlock(t, ts, eventID, "C", 10)

	resp := doRequest(t, ts, http.MethodPost, "/api/events/"+eventID+"/blocks/reorder", testHostID, map[string]any{
		"ordered_block_ids": []string{c, a, b},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("reorder: expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}

	resp = doRequest(t, ts, http.MethodPost, "/api/events/"+eventID+"/blocks/reorder", testHostID, map[string]any{
		"ordered_block_ids": []string{c, a},
	})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("partial reorder: expected status %d, got %d", http.StatusConflict, resp.StatusCode)
	}

	resp = doRequest(t, ts, http.MethodPost, "/api/events/"+eventID+"/blocks/"+b+"/move", testHostID, map[string]string{
		"direction": "up",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("move: expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	resp = doRequest(t, ts, http.MethodGet, "/api/events/"+eventID+"/blocks", "", nil)
	blocks := decodeBody(t, resp)["blocks"].([]any)
	titles := make([]string, 0, len(blocks))
	for _, raw := range blocks {
		titles = append(titles, raw.(map[string]any)["Title"].(string))
	}
	if titles[0] != "C" || titles[1] != "B" || titles[2] != "A" {
		t.Fatalf("unexpected order: %v", titles)
	}
}
