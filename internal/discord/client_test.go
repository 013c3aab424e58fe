package discord

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/johncourpayton/hackCC/internal/model"
)

func newTestDiscord(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := New("bot-token", log.New(io.Discard, "", 0))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	client.baseURL = srv.URL
	return client
}

func TestNewRequiresToken(t *testing.T) {
	t.Parallel()
	if _, err := New("", log.New(io.Discard, "", 0)); err == nil {
		t.Fatal("expected ErrMissingToken")
	}
}

func TestSendReminderUsesCachedChannel(t *testing.T) {
	t.Parallel()

	channelCreations := 0
	messages := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/users/@me/channels", func(w http.ResponseWriter, r *http.Request) {
		channelCreations++
		if got := r.Header.Get("Authorization"); got != "Bot bot-token" {
			t.Errorf("missing bot auth header, got %q", got)
		}
		fmt.Fprint(w, `{"id": "chan-9"}`)
	})
	mux.HandleFunc("/channels/chan-9/messages", func(w http.ResponseWriter, r *http.Request) {
		messages++
		var payload struct {
			Embeds []Embed `json:"embeds"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		if len(payload.Embeds) != 1 {
			t.Errorf("expected one embed, got %d", len(payload.Embeds))
		}
		fmt.Fprint(w, `{}`)
	})

	client := newTestDiscord(t, mux)
	due := time.Date(2025, 11, 10, 20, 0, 0, 0, time.UTC)
	assignment := model.Assignment{ID: "1", Name: "WW2 Paper", DueAt: &due, CourseName: "History"}

	for i := 0; i < 2; i++ {
		delivered, err := client.SendReminder(context.Background(), "user-1", assignment, "15 minutes")
		if err != nil {
			t.Fatalf("send %d: %v", i, err)
		}
		if !delivered {
			t.Fatalf("send %d: expected delivery", i)
		}
	}

	if channelCreations != 1 {
		t.Errorf("DM channel should be created once, got %d", channelCreations)
	}
	if messages != 2 {
		t.Errorf("expected 2 messages, got %d", messages)
	}
}

func TestSendReminderDeliveryFailureIsNonFatal(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/users/@me/channels", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id": "chan-9"}`)
	})
	mux.HandleFunc("/channels/chan-9/messages", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message": "Cannot send messages to this user"}`, http.StatusForbidden)
	})

	client := newTestDiscord(t, mux)
	due := time.Now().UTC().Add(time.Hour)
	assignment := model.Assignment{ID: "1", Name: "WW2 Paper", DueAt: &due}

	delivered, err := client.SendReminder(context.Background(), "user-1", assignment, "1 hour")
	if err != nil {
		t.Fatalf("delivery failure must not surface as an error: %v", err)
	}
	if delivered {
		t.Fatal("expected delivered=false")
	}
}

func TestReminderEmbedContent(t *testing.T) {
	t.Parallel()

	due := time.Date(2025, 11, 10, 20, 0, 0, 0, time.UTC)
	assignment := model.Assignment{
		ID:          "1",
		Name:        "WW2 Paper",
		DueAt:       &due,
		CourseName:  "History",
		Description: "<p>Write <b>five</b> pages.</p>",
	}

	embed := reminderEmbed(assignment, "1 hour")
	if embed.Color != colorOrange {
		t.Errorf("hour-scale reminder should be orange, got %#x", embed.Color)
	}
	if !strings.Contains(embed.Description, "**WW2 Paper** is due in **1 hour**") {
		t.Errorf("description missing headline: %q", embed.Description)
	}
	if !strings.Contains(embed.Description, "November 10 at 08:00 PM UTC") {
		t.Errorf("description missing due time: %q", embed.Description)
	}
	if strings.Contains(embed.Description, "<p>") {
		t.Errorf("HTML not stripped: %q", embed.Description)
	}

	embed = reminderEmbed(assignment, "30 minutes")
	if embed.Color != colorRed {
		t.Errorf("30-minute reminder should be red, got %#x", embed.Color)
	}
	embed = reminderEmbed(assignment, "15 minutes")
	if embed.Color != colorDarkRed {
		t.Errorf("15-minute reminder should be dark red, got %#x", embed.Color)
	}
}
