package gcal

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

func TestClient_ListEvents(t *testing.T) {
	from := time.Date(2024, time.March, 11, 8, 0, 0, 0, time.UTC)
	to := from.Add(7 * 24 * time.Hour)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/calendars/cmu@group.calendar.google.com/events" {
			t.Errorf("path = %q", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("singleEvents") != "true" || q.Get("orderBy") != "startTime" {
			t.Errorf("query = %v, want single events ordered by start time", q)
		}
		if q.Get("timeMin") != "2024-03-11T08:00:00Z" || q.Get("timeMax") != "2024-03-18T08:00:00Z" {
			t.Errorf("window = %s - %s", q.Get("timeMin"), q.Get("timeMax"))
		}

		w.Header().Set("Content-Type", "application/json")
		if q.Get("pageToken") == "" {
			fmt.Fprint(w, `{"items":[{"summary":"Free lunch","location":"Cohon Center","htmlLink":"https://calendar.google.com/e/1","start":{"dateTime":"2024-03-12T12:00:00-04:00"}}],"nextPageToken":"p2"}`)
			return
		}
		fmt.Fprint(w, `{"items":[{"summary":"Spring Carnival","start":{"date":"2024-03-15"}}]}`)
	}))
	defer server.Close()

	ctx := context.Background()
	client, err := NewClient(ctx, server.Client(), option.WithEndpoint(server.URL+"/"))
	if err != nil {
		t.Fatalf("NewClient() error: %v", err)
	}

	records, err := client.ListEvents(ctx, "cmu@group.calendar.google.com", from, to)
	if err != nil {
		t.Fatalf("ListEvents() error: %v", err)
	}

	if len(records) != 2 {
		t.Fatalf("ListEvents() returned %d records, want 2 across pages", len(records))
	}
	if records[0].Summary != "Free lunch" || records[0].Start != "2024-03-12T12:00:00-04:00" {
		t.Errorf("records[0] = %+v", records[0])
	}
	if records[0].HTMLLink != "https://calendar.google.com/e/1" || records[0].Location != "Cohon Center" {
		t.Errorf("records[0] = %+v", records[0])
	}
	if records[1].Start != "2024-03-15" || records[1].Location != "" {
		t.Errorf("records[1] = %+v", records[1])
	}
}

func TestClient_ListEventsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":{"code":401,"message":"Invalid Credentials"}}`)
	}))
	defer server.Close()

	ctx := context.Background()
	client, err := NewClient(ctx, server.Client(), option.WithEndpoint(server.URL+"/"))
	if err != nil {
		t.Fatalf("NewClient() error: %v", err)
	}

	if _, err := client.ListEvents(ctx, "primary", time.Now(), time.Now().Add(time.Hour)); err == nil {
		t.Error("ListEvents() expected error")
	}
}

func TestToRecord(t *testing.T) {
	tests := []struct {
		name string
		item *calendar.Event
		want string
	}{
		{"timed", &calendar.Event{Start: &calendar.EventDateTime{DateTime: "2024-03-12T12:00:00Z"}}, "2024-03-12T12:00:00Z"},
		{"all day", &calendar.Event{Start: &calendar.EventDateTime{Date: "2024-03-12"}}, "2024-03-12"},
		{"no start", &calendar.Event{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := toRecord(tt.item).Start; got != tt.want {
				t.Errorf("Start = %q, want %q", got, tt.want)
			}
		})
	}
}
