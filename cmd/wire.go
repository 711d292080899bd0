package cmd

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/bassamadnan/tripmail/compose"
	"github.com/bassamadnan/tripmail/config"
	"github.com/bassamadnan/tripmail/dispatch"
	"github.com/bassamadnan/tripmail/gmail"
	"github.com/bassamadnan/tripmail/llm"
	"github.com/bassamadnan/tripmail/mailer"
	"github.com/bassamadnan/tripmail/sheets"
)

var dialRedis = func(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{Addr: addr})
}

// services holds the collaborators built once at startup.
type services struct {
	settings   config.Settings
	dispatcher *dispatch.Dispatcher
	reminder   *dispatch.Reminder
	closers    []func() error
}

func (s *services) Close() {
	for _, c := range s.closers {
		if err := c(); err != nil {
			log.Printf("Shutdown: %v", err)
		}
	}
}

// jobs returns the enabled streams in the order they run each round.
func (s *services) jobs() []dispatch.Job {
	jobs := []dispatch.Job{s.dispatcher.RunCycle}
	if s.settings.FollowUp.Enabled {
		jobs = append(jobs, s.dispatcher.RunFollowUps)
	}
	if s.reminder != nil {
		jobs = append(jobs, s.reminder.Run)
	}
	return jobs
}

func newServices(ctx context.Context, st config.Settings) (*services, error) {
	httpClient, err := gmail.NewHTTPClient(ctx, st.Mail.CredentialsFile, st.Mail.TokenFile, sheets.Scope, gmail.SendScope)
	if err != nil {
		return nil, fmt.Errorf("failed to authorize Google APIs: %w", err)
	}
	log.Println("Google API client authorized.")
	return assemble(ctx, st, httpClient)
}

// assemble builds every collaborator on top of an authorized client. On
// error, whatever was already opened is closed again.
func assemble(ctx context.Context, st config.Settings, httpClient *http.Client) (_ *services, err error) {
	svc := &services{settings: st}
	defer func() {
		if err != nil {
			svc.Close()
		}
	}()

	sender, closers, err := newSender(ctx, st.Mail, httpClient)
	svc.closers = closers
	if err != nil {
		return nil, err
	}

	enquiries, err := sheets.NewClient(ctx, httpClient, st.EnquirySheetID)
	if err != nil {
		return nil, err
	}
	suppliers := enquiries
	if st.SupplierSheetID != enquiries.SpreadsheetID() {
		if suppliers, err = sheets.NewClient(ctx, httpClient, st.SupplierSheetID); err != nil {
			return nil, err
		}
	}

	composer, err := newComposer(ctx, st)
	if err != nil {
		return nil, err
	}
	log.Printf("Content mode %q.", composer.Mode())
	svc.dispatcher = dispatch.New(enquiries, suppliers, composer, sender, dispatcherConfig(st),
		dispatch.WithSendInterval(time.Duration(st.SendDelaySeconds)*time.Second))

	if st.Reminders.Enabled {
		reminderSheet := enquiries
		if st.Reminders.SheetID != enquiries.SpreadsheetID() {
			if reminderSheet, err = sheets.NewClient(ctx, httpClient, st.Reminders.SheetID); err != nil {
				return nil, err
			}
		}
		svc.reminder = dispatch.NewReminder(reminderSheet, sender, reminderConfig(st), nil)
	}
	return svc, nil
}

func dispatcherConfig(st config.Settings) dispatch.Config {
	return dispatch.Config{
		EnquiryRange:    st.EnquiryRange,
		SupplierRange:   st.SupplierRange,
		SupplierColumns: st.SupplierColumns,
		StatusColumn:    st.StatusColumn,
		TimestampColumn: st.TimestampColumn,
		SentMarker:      st.SentMarker,
		FollowUp: dispatch.FollowUpConfig{
			StatusColumn:    st.FollowUp.StatusColumn,
			TimestampColumn: st.FollowUp.TimestampColumn,
			DateColumn:      st.FollowUp.DateColumn,
			DateLayout:      st.FollowUp.DateLayout,
		},
		From:        st.Mail.From,
		Cc:          st.Mail.Cc,
		Attachments: st.Mail.Attachments,
		Company:     st.Company,
	}
}

func reminderConfig(st config.Settings) dispatch.ReminderConfig {
	r := st.Reminders
	return dispatch.ReminderConfig{
		Range:          r.Range,
		Recipient:      r.Recipient,
		From:           st.Mail.From,
		DaysBefore:     r.DaysBefore,
		DoneMarker:     r.DoneMarker,
		NameColumn:     r.NameColumn,
		DestColumn:     r.DestColumn,
		CheckinColumn:  r.CheckinColumn,
		StatusColumn:   r.StatusColumn,
		LastSentColumn: r.LastSentColumn,
		CheckinLayout:  r.CheckinLayout,
	}
}

// newSender builds the configured transports. More than one transport fans
// out through a CompositeSender. httpClient is only needed for gmail. The
// closers are returned even with an error and must be run by the caller.
func newSender(ctx context.Context, m config.Mail, httpClient *http.Client) (mailer.Sender, []func() error, error) {
	var (
		senders []mailer.Sender
		closers []func() error
	)
	for _, t := range m.Transports {
		switch t {
		case config.TransportGmail:
			if httpClient == nil {
				return nil, closers, fmt.Errorf("gmail transport needs an authorized client")
			}
			s, err := gmail.NewSender(ctx, httpClient, m.From)
			if err != nil {
				return nil, closers, err
			}
			senders = append(senders, s)
		case config.TransportSMTP:
			s, err := mailer.NewSMTPSender(m.SMTP)
			if err != nil {
				return nil, closers, err
			}
			senders = append(senders, s)
		case config.TransportFile:
			s, err := mailer.NewFileSender(m.OutboxFile)
			if err != nil {
				return nil, closers, err
			}
			senders = append(senders, s)
		case config.TransportRedis:
			client := dialRedis(m.RedisAddr)
			closers = append(closers, client.Close)
			ttl := time.Duration(m.RedisTTLMinutes) * time.Minute
			senders = append(senders, mailer.NewRedisSender(client, ttl))
		default:
			return nil, closers, fmt.Errorf("unknown mail transport %q", t)
		}
		log.Printf("Mail transport %q configured.", t)
	}
	switch len(senders) {
	case 0:
		return nil, closers, fmt.Errorf("no mail transport configured")
	case 1:
		return senders[0], closers, nil
	}
	return mailer.NewCompositeSender(senders...), closers, nil
}

func newComposer(ctx context.Context, st config.Settings) (*compose.Composer, error) {
	examples, err := compose.LoadExamples(st.ExamplesFile)
	if err != nil {
		return nil, err
	}
	var gen compose.Generator
	if st.Mode == compose.ModeLLM {
		g, err := llm.NewGenerator(ctx, st.LLM)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize text generator: %w", err)
		}
		gen = g
	}
	return compose.New(st.Mode, gen, st.Company, examples)
}
