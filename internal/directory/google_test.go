package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"google.golang.org/api/option"
)

func newTestGateway(t *testing.T, handler http.HandlerFunc) *GoogleGateway {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	london, err := time.LoadLocation("Europe/London")
	if err != nil {
		t.Fatalf("load tz: %v", err)
	}
	gw, err := NewGoogleGateway(context.Background(), GoogleConfig{
		Timezone: london,
		Interval: 30 * time.Minute,
		Timeout:  2 * time.Second,
	}, option.WithEndpoint(srv.URL+"/"), option.WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("new gateway: %v", err)
	}
	return gw
}

func TestListResourcesJoinsBuildings(t *testing.T) {
	gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasSuffix(r.URL.Path, "/resources/buildings"):
			fmt.Fprint(w, `{"buildings":[{"buildingId":"hq","buildingName":"HQ","address":{"regionCode":"GB","locality":"London"}}]}`)
		case strings.HasSuffix(r.URL.Path, "/resources/calendars"):
			fmt.Fprint(w, `{"items":[
				{"resourceId":"1","resourceName":"Blue","resourceEmail":"blue@resource.example.com","resourceCategory":"CONFERENCE_ROOM","buildingId":"hq","capacity":6},
				{"resourceId":"2","resourceName":"Van","resourceEmail":"van@resource.example.com","resourceCategory":"OTHER"}
			]}`)
		default:
			http.NotFound(w, r)
		}
	})

	got, err := gw.ListResources(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 resources, got %d", len(got))
	}
	blue := got[0]
	if blue.BuildingName != "HQ" || blue.Address.RegionCode != "GB" || blue.Category != CategoryRoom || blue.Capacity != 6 {
		t.Fatalf("unexpected resource: %+v", blue)
	}
	if got[1].BuildingName != "" {
		t.Fatalf("resource without building got %q", got[1].BuildingName)
	}
}

func TestFreeBusyParsesAndFlagsErrors(t *testing.T) {
	var gotReq struct {
		TimeMin string `json:"timeMin"`
		TimeMax string `json:"timeMax"`
		Items   []struct {
			ID string `json:"id"`
		} `json:"items"`
	}
	gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/freeBusy") {
			http.NotFound(w, r)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"calendars":{
			"a@resource.example.com":{"busy":[{"start":"2026-10-17T09:00:00Z","end":"2026-10-17T09:30:00Z"}]},
			"b@resource.example.com":{"busy":[]},
			"c@resource.example.com":{"errors":[{"domain":"global","reason":"notFound"}]}
		}}`)
	})

	start := time.Date(2026, 10, 17, 9, 10, 0, 0, time.UTC)
	end := time.Date(2026, 10, 17, 9, 50, 0, 0, time.UTC)
	emails := []string{"a@resource.example.com", "b@resource.example.com", "c@resource.example.com", "d@resource.example.com"}
	got, err := gw.FreeBusy(context.Background(), emails, start, end)
	if err != nil {
		t.Fatalf("freebusy: %v", err)
	}

	if len(gotReq.Items) != 4 {
		t.Fatalf("expected one batched query with 4 items, got %d", len(gotReq.Items))
	}
	lo, _ := time.Parse(time.RFC3339, gotReq.TimeMin)
	hi, _ := time.Parse(time.RFC3339, gotReq.TimeMax)
	if !lo.Equal(time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)) || !hi.Equal(time.Date(2026, 10, 17, 10, 0, 0, 0, time.UTC)) {
		t.Fatalf("window not aligned to interval: %s - %s", gotReq.TimeMin, gotReq.TimeMax)
	}

	if len(got["a@resource.example.com"]) != 1 || !got["a@resource.example.com"][0].Overlaps(start, end) {
		t.Fatalf("expected busy overlap for a, got %+v", got["a@resource.example.com"])
	}
	if len(got["b@resource.example.com"]) != 0 {
		t.Fatalf("expected b free, got %+v", got["b@resource.example.com"])
	}
	for _, e := range []string{"c@resource.example.com", "d@resource.example.com"} {
		if len(got[e]) != 1 || !got[e][0].Overlaps(start, end) {
			t.Fatalf("expected %s treated as busy, got %+v", e, got[e])
		}
	}
}

func TestFreeBusyBatchesLargeRequests(t *testing.T) {
	var queries int
	gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		queries++
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"calendars":{}}`)
	})
	emails := make([]string, 120)
	for i := range emails {
		emails[i] = fmt.Sprintf("room%d@resource.example.com", i)
	}
	start := time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)
	if _, err := gw.FreeBusy(context.Background(), emails, start, start.Add(time.Hour)); err != nil {
		t.Fatalf("freebusy: %v", err)
	}
	if queries != 3 {
		t.Fatalf("expected 3 batched queries, got %d", queries)
	}
}

func TestAlignWindow(t *testing.T) {
	tz, _ := time.LoadLocation("Asia/Kolkata")

	start := time.Date(2026, 10, 17, 3, 40, 0, 0, time.UTC) // 09:10 local
	end := time.Date(2026, 10, 17, 4, 30, 0, 0, time.UTC)   // 10:00 local
	from, to := alignWindow(start, end, time.Hour, tz)
	if got := from.In(tz).Format("15:04"); got != "09:00" {
		t.Fatalf("from = %s", got)
	}
	if got := to.In(tz).Format("15:04"); got != "10:00" {
		t.Fatalf("to = %s", got)
	}
}
