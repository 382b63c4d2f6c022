package invite

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	ics "github.com/arran4/golang-ical"
)

const (
	productID = "-//interview-scheduler//Interview Invite//EN"
	crlf      = "\r\n"
	foldWidth = 75
)

// ICS renders the invite as an iCalendar REQUEST. Every line, including the
// last, ends in CRLF.
func (inv Invite) ICS() (string, error) {
	if inv.UID == "" || inv.Organizer.Email == "" {
		return "", fmt.Errorf("invite needs a uid and an organizer")
	}
	if !inv.Start.Before(inv.End) {
		return "", fmt.Errorf("invite %s: start must be before end", inv.UID)
	}

	cal := ics.NewCalendar()
	cal.SetProductId(productID)
	cal.SetMethod(ics.MethodRequest)

	ev := cal.AddEvent(inv.UID)
	ev.SetDtStampTime(inv.Stamp)
	ev.SetStartAt(inv.Start)
	ev.SetEndAt(inv.End)
	ev.SetSummary(inv.Summary)
	ev.SetDescription(inv.Description)
	ev.SetLocation(inv.Location)
	ev.SetStatus(ics.ObjectStatusConfirmed)
	ev.SetSequence(inv.Sequence)

	names := commonNames{}
	ev.SetOrganizer("mailto:"+inv.Organizer.Email, names.params(inv.Organizer.Name)...)
	for _, a := range inv.Attendees {
		ev.AddAttendee("mailto:"+a.Email, append(attendeeParams(a), names.params(a.Name)...)...)
	}

	// The library backslash-escapes parameter values, which RFC 5545 does not
	// allow, so CN goes out as a placeholder and is swapped for a quoted-string
	// before the lines are folded.
	raw := cal.Serialize(ics.WithNewLineWindows, ics.WithLineLength(1<<20))
	lines := strings.Split(strings.TrimSuffix(raw, crlf), crlf)
	for i, line := range lines {
		if strings.HasPrefix(line, "ORGANIZER") || strings.HasPrefix(line, "ATTENDEE") {
			line = names.restore(line)
		}
		lines[i] = fold(line)
	}
	return strings.Join(lines, crlf) + crlf, nil
}

// commonNames maps CN placeholders to their quoted values.
type commonNames map[string]string

func (n commonNames) params(name string) []ics.PropertyParameter {
	if name == "" {
		return nil
	}
	key := fmt.Sprintf("cn%d", len(n))
	n[key] = quoteParam(name)
	return []ics.PropertyParameter{ics.WithCN(key)}
}

func (n commonNames) restore(line string) string {
	i := strings.Index(line, ";CN=")
	if i < 0 {
		return line
	}
	start := i + len(";CN=")
	end := strings.IndexAny(line[start:], ";:")
	if end < 0 {
		return line
	}
	quoted, ok := n[line[start:start+end]]
	if !ok {
		return line
	}
	return line[:start] + quoted + line[start+end:]
}

// quoteParam renders a parameter value as a quoted-string. DQUOTE and control
// characters cannot appear inside one and are dropped.
func quoteParam(v string) string {
	v = strings.Map(func(r rune) rune {
		if r == '"' || (unicode.IsControl(r) && r != '\t') {
			return -1
		}
		return r
	}, v)
	return `"` + v + `"`
}

// fold splits a content line into 75-octet chunks without breaking a UTF-8
// sequence. Continuation lines start with a single space.
func fold(line string) string {
	if len(line) <= foldWidth {
		return line
	}
	var b strings.Builder
	width := foldWidth
	for len(line) > width {
		cut := width
		for cut > 0 && !utf8.RuneStart(line[cut]) {
			cut--
		}
		b.WriteString(line[:cut])
		b.WriteString(crlf + " ")
		line = line[cut:]
		width = foldWidth - 1
	}
	b.WriteString(line)
	return b.String()
}

func attendeeParams(a Attendee) []ics.PropertyParameter {
	params := []ics.PropertyParameter{
		ics.ParticipationStatusNeedsAction,
		rsvp(a.RSVP),
	}
	switch a.Kind {
	case KindRoom:
		params = append(params, ics.CalendarUserTypeRoom, ics.ParticipationRoleNonParticipant)
	default:
		params = append(params, ics.CalendarUserTypeIndividual, ics.ParticipationRoleReqParticipant)
	}
	return params
}

// rsvp spells the boolean the way RFC 5545 does; WithRSVP writes it lower-case.
func rsvp(b bool) ics.PropertyParameter {
	v := "FALSE"
	if b {
		v = "TRUE"
	}
	return &ics.KeyValues{Key: string(ics.ParameterRsvp), Value: []string{v}}
}
