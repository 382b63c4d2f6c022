package meeting

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// GoogleMeet mints Meet links by creating a hold event with a conference
// request on the organizer's calendar.
type GoogleMeet struct {
	srv        *calendar.Service
	calendarID string
	tz         *time.Location
}

func NewGoogleMeet(ctx context.Context, calendarID string, tz *time.Location, opts ...option.ClientOption) (*GoogleMeet, error) {
	srv, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create calendar service: %w", err)
	}
	if calendarID == "" {
		calendarID = "primary"
	}
	if tz == nil {
		tz = time.UTC
	}
	return &GoogleMeet{srv: srv, calendarID: calendarID, tz: tz}, nil
}

func (g *GoogleMeet) CreateMeeting(ctx context.Context, subject string, start, end time.Time) (string, error) {
	ev := &calendar.Event{
		Summary:      subject,
		Start:        &calendar.EventDateTime{DateTime: start.In(g.tz).Format(time.RFC3339), TimeZone: g.tz.String()},
		End:          &calendar.EventDateTime{DateTime: end.In(g.tz).Format(time.RFC3339), TimeZone: g.tz.String()},
		Transparency: "transparent",
		ConferenceData: &calendar.ConferenceData{
			CreateRequest: &calendar.CreateConferenceRequest{
				RequestId:             uuid.NewString(),
				ConferenceSolutionKey: &calendar.ConferenceSolutionKey{Type: "hangoutsMeet"},
			},
		},
	}

	created, err := g.srv.Events.Insert(g.calendarID, ev).
		ConferenceDataVersion(1).
		SendUpdates("none").
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("create meet event: %w", err)
	}

	if created.HangoutLink != "" {
		return created.HangoutLink, nil
	}
	if created.ConferenceData != nil {
		for _, ep := range created.ConferenceData.EntryPoints {
			if ep.EntryPointType == "video" && ep.Uri != "" {
				return ep.Uri, nil
			}
		}
	}
	return "", fmt.Errorf("meet link not issued for event %s", created.Id)
}
