package meeting

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"google.golang.org/api/option"
)

func TestGoogleMeetCreateMeeting(t *testing.T) {
	var body struct {
		Summary        string `json:"summary"`
		ConferenceData struct {
			CreateRequest struct {
				RequestID             string `json:"requestId"`
				ConferenceSolutionKey struct {
					Type string `json:"type"`
				} `json:"conferenceSolutionKey"`
			} `json:"createRequest"`
		} `json:"conferenceData"`
	}
	var version string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || !strings.HasSuffix(r.URL.Path, "/calendars/recruiting@example.com/events") {
			http.NotFound(w, r)
			return
		}
		version = r.URL.Query().Get("conferenceDataVersion")
		_ = json.NewDecoder(r.Body).Decode(&body)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"evt1","hangoutLink":"https://meet.google.com/abc-defg-hij"}`)
	}))
	defer srv.Close()

	gm, err := NewGoogleMeet(context.Background(), "recruiting@example.com", nil,
		option.WithEndpoint(srv.URL+"/"), option.WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	link, err := gm.CreateMeeting(context.Background(), "Interview: Backend Engineer", winStart, winEnd)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if link != "https://meet.google.com/abc-defg-hij" {
		t.Fatalf("unexpected link %q", link)
	}
	if version != "1" {
		t.Fatalf("expected conferenceDataVersion=1, got %q", version)
	}
	if body.ConferenceData.CreateRequest.ConferenceSolutionKey.Type != "hangoutsMeet" || body.ConferenceData.CreateRequest.RequestID == "" {
		t.Fatalf("conference request missing: %+v", body.ConferenceData)
	}
}

func TestGoogleMeetNoLinkIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"evt1","conferenceData":{"createRequest":{"status":{"statusCode":"pending"}}}}`)
	}))
	defer srv.Close()

	gm, err := NewGoogleMeet(context.Background(), "", nil, option.WithEndpoint(srv.URL+"/"), option.WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, err := gm.CreateMeeting(context.Background(), "Interview", winStart, winEnd); err == nil {
		t.Fatal("expected error when no link is issued")
	}
}
