package directory

import (
	"context"
	"fmt"
	"log"
	"time"

	admin "google.golang.org/api/admin/directory/v1"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// freeBusyBatch is the provider's limit on calendars per freebusy.query.
const freeBusyBatch = 50

type GoogleConfig struct {
	CustomerID string
	Timezone   *time.Location
	Interval   time.Duration
	Timeout    time.Duration
	Logger     *log.Logger
}

// GoogleGateway reads rooms from the Admin SDK Directory API and free/busy
// from the Calendar API.
type GoogleGateway struct {
	admin    *admin.Service
	calendar *calendar.Service
	cfg      GoogleConfig
}

func NewGoogleGateway(ctx context.Context, cfg GoogleConfig, opts ...option.ClientOption) (*GoogleGateway, error) {
	if cfg.CustomerID == "" {
		cfg.CustomerID = "my_customer"
	}
	if cfg.Timezone == nil {
		cfg.Timezone = time.UTC
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Minute
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	adminSrv, err := admin.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create directory service: %w", err)
	}
	calSrv, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create calendar service: %w", err)
	}
	return &GoogleGateway{admin: adminSrv, calendar: calSrv, cfg: cfg}, nil
}

func (g *GoogleGateway) ListResources(ctx context.Context) ([]Resource, error) {
	ctx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	buildings := map[string]*admin.Building{}
	err := g.admin.Resources.Buildings.List(g.cfg.CustomerID).MaxResults(500).
		Pages(ctx, func(page *admin.Buildings) error {
			for _, b := range page.Buildings {
				buildings[b.BuildingId] = b
			}
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("list buildings: %w", err)
	}

	var out []Resource
	err = g.admin.Resources.Calendars.List(g.cfg.CustomerID).MaxResults(500).
		Pages(ctx, func(page *admin.CalendarResources) error {
			for _, item := range page.Items {
				out = append(out, toResource(item, buildings[item.BuildingId]))
			}
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("list calendar resources: %w", err)
	}
	return out, nil
}

func toResource(item *admin.CalendarResource, b *admin.Building) Resource {
	r := Resource{
		ID:           item.ResourceId,
		Name:         item.ResourceName,
		Email:        item.ResourceEmail,
		Category:     item.ResourceCategory,
		ResourceType: item.ResourceType,
		Capacity:     item.Capacity,
		BuildingID:   item.BuildingId,
	}
	if b != nil {
		r.BuildingName = b.BuildingName
		if b.Address != nil {
			r.Address = Address{
				RegionCode:         b.Address.RegionCode,
				Locality:           b.Address.Locality,
				AdministrativeArea: b.Address.AdministrativeArea,
				PostalCode:         b.Address.PostalCode,
				AddressLines:       b.Address.AddressLines,
			}
		}
	}
	return r
}

func (g *GoogleGateway) FreeBusy(ctx context.Context, emails []string, start, end time.Time) (map[string][]Busy, error) {
	ctx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	from, to := alignWindow(start, end, g.cfg.Interval, g.cfg.Timezone)
	out := make(map[string][]Busy, len(emails))

	for lo := 0; lo < len(emails); lo += freeBusyBatch {
		hi := lo + freeBusyBatch
		if hi > len(emails) {
			hi = len(emails)
		}
		batch := emails[lo:hi]

		req := &calendar.FreeBusyRequest{
			TimeMin:  from.Format(time.RFC3339),
			TimeMax:  to.Format(time.RFC3339),
			TimeZone: g.cfg.Timezone.String(),
		}
		for _, e := range batch {
			req.Items = append(req.Items, &calendar.FreeBusyRequestItem{Id: e})
		}

		resp, err := g.calendar.Freebusy.Query(req).Context(ctx).Do()
		if err != nil {
			return nil, fmt.Errorf("freebusy query: %w", err)
		}

		for _, e := range batch {
			cal, ok := resp.Calendars[e]
			if !ok || len(cal.Errors) > 0 {
				if g.cfg.Logger != nil {
					g.cfg.Logger.Printf("freebusy: no usable answer for %s, treating as busy", e)
				}
				out[e] = []Busy{{Start: from, End: to}}
				continue
			}
			periods := make([]Busy, 0, len(cal.Busy))
			for _, p := range cal.Busy {
				s, err1 := time.Parse(time.RFC3339, p.Start)
				f, err2 := time.Parse(time.RFC3339, p.End)
				if err1 != nil || err2 != nil {
					periods = append(periods, Busy{Start: from, End: to})
					continue
				}
				periods = append(periods, Busy{Start: s, End: f})
			}
			out[e] = periods
		}
	}
	return out, nil
}

// alignWindow widens [start, end) outward to whole intervals counted from
// local midnight in tz. Overlap checks still use the caller's exact window.
func alignWindow(start, end time.Time, interval time.Duration, tz *time.Location) (time.Time, time.Time) {
	floor := func(t time.Time) time.Time {
		local := t.In(tz)
		midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, tz)
		return midnight.Add(local.Sub(midnight).Truncate(interval))
	}
	from := floor(start)
	to := floor(end)
	if to.Before(end) {
		to = to.Add(interval)
	}
	return from, to
}
