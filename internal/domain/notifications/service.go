package notifications

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"text/template"
	"time"

	"github.com/Masterminds/sprig/v3"

	"leavestride/internal/domain/leave"
	"leavestride/internal/domain/users"
	"leavestride/internal/platform/email"
	"leavestride/internal/platform/events"
)

type Mailer interface {
	Send(ctx context.Context, msg email.Message) error
}

// Queue runs work off the request path.
type Queue interface {
	Enqueue(name string, run func(context.Context) error) bool
}

// Dispatcher renders and sends notification emails and publishes lifecycle events.
// Every failure is logged and swallowed.
type Dispatcher struct {
	Mailer   Mailer
	Events   events.Publisher
	Queue    Queue
	From     string
	AppURL   string
	ResetTTL time.Duration

	tmpl *template.Template
}

func New(mailer Mailer, publisher events.Publisher, queue Queue) (*Dispatcher, error) {
	tmpl, err := template.New("notifications").Funcs(sprig.TxtFuncMap()).Parse(templates)
	if err != nil {
		return nil, fmt.Errorf("parse notification templates: %w", err)
	}
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &Dispatcher{
		Mailer: mailer,
		Events: publisher,
		Queue:  queue,
		From:   "no-reply@leavestride.local",
		tmpl:   tmpl,
	}, nil
}

type templateData struct {
	Recipient    users.User
	Owner        users.User
	Request      leave.Request
	Comment      string
	TempPassword string
	Link         string
	ExpiresIn    string
	AppURL       string
}

// Render produces the subject and plain-text body of a named template.
func (d *Dispatcher) Render(name string, data templateData) (string, string, error) {
	data.AppURL = strings.TrimRight(d.AppURL, "/")
	var subject, body bytes.Buffer
	if err := d.tmpl.ExecuteTemplate(&subject, name+".subject", data); err != nil {
		return "", "", err
	}
	if err := d.tmpl.ExecuteTemplate(&body, name+".text", data); err != nil {
		return "", "", err
	}
	return strings.TrimSpace(subject.String()), body.String(), nil
}

func (d *Dispatcher) send(name string, to users.User, data templateData) {
	if d.Mailer == nil || to.Email == "" {
		return
	}
	data.Recipient = to
	subject, body, err := d.Render(name, data)
	if err != nil {
		slog.Warn("notification render failed", "template", name, "err", err)
		return
	}
	msg := email.Message{From: d.From, To: to.Email, Subject: subject, Text: body}
	d.run("email."+name, func(ctx context.Context) error {
		if err := d.Mailer.Send(ctx, msg); err != nil {
			slog.Warn("notification email send failed", "template", name, "to", to.ID, "err", err)
			return err
		}
		return nil
	})
}

func (d *Dispatcher) publish(event events.Event) {
	if d.Events == nil {
		return
	}
	d.run("event."+event.Type, func(ctx context.Context) error {
		if err := d.Events.Publish(ctx, event); err != nil {
			slog.Warn("event publish failed", "type", event.Type, "aggregate_id", event.AggregateID, "err", err)
			return err
		}
		return nil
	})
}

func (d *Dispatcher) run(name string, fn func(context.Context) error) {
	if d.Queue != nil {
		d.Queue.Enqueue(name, fn)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = fn(ctx)
}

func (d *Dispatcher) LeaveSubmitted(_ context.Context, r leave.Request, owner users.User, manager *users.User) {
	if manager != nil {
		d.send(TemplateLeaveRequest, *manager, templateData{Owner: owner, Request: r})
	}
	d.publish(events.New(EventLeaveSubmitted, r.ID, map[string]any{
		"userId":    r.UserID,
		"leaveType": r.LeaveType,
		"from":      r.From,
		"to":        r.To,
		"days":      r.Days,
	}))
}

func (d *Dispatcher) LeaveStatusChanged(_ context.Context, r leave.Request, owner users.User, actorID string) {
	comment := ""
	if n := len(r.History); n > 0 {
		comment = r.History[n-1].Comment
	}
	d.send(TemplateLeaveStatus, owner, templateData{Owner: owner, Request: r, Comment: comment})
	d.publish(events.New(EventLeaveStatusChanged, r.ID, map[string]any{
		"userId":  r.UserID,
		"status":  r.Status,
		"actorId": actorID,
		"days":    r.Days,
	}))
}

func (d *Dispatcher) LeaveDeleted(_ context.Context, r leave.Request, actorID string) {
	d.publish(events.New(EventLeaveDeleted, r.ID, map[string]any{
		"userId":  r.UserID,
		"status":  r.Status,
		"actorId": actorID,
	}))
}

func (d *Dispatcher) Welcome(_ context.Context, u users.User, tempPassword string) {
	d.send(TemplateWelcome, u, templateData{TempPassword: tempPassword})
	d.publish(events.New(EventUserCreated, u.ID, map[string]any{
		"email":      u.Email,
		"role":       u.Role,
		"department": u.Department,
	}))
}

func (d *Dispatcher) PasswordReset(_ context.Context, u users.User, link string) {
	expires := ""
	if d.ResetTTL > 0 {
		expires = d.ResetTTL.String()
	}
	d.send(TemplatePasswordReset, u, templateData{Link: link, ExpiresIn: expires})
}
