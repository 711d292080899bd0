package gmail

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"net/http"

	"github.com/bassamadnan/tripmail/mailer"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

const user = "me"

// SendScope allows sending mail only.
const SendScope = gmail.GmailSendScope

// Sender delivers messages through the Gmail API as the authorized user.
type Sender struct {
	srv  *gmail.Service
	from string
}

func NewSender(ctx context.Context, httpClient *http.Client, from string, opts ...option.ClientOption) (*Sender, error) {
	opts = append([]option.ClientOption{option.WithHTTPClient(httpClient)}, opts...)
	srv, err := gmail.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to create Gmail service: %w", err)
	}
	return &Sender{srv: srv, from: from}, nil
}

func (s *Sender) Send(ctx context.Context, msg mailer.Message) error {
	if msg.From == "" {
		msg.From = s.from
	}
	raw, err := mailer.Build(msg)
	if err != nil {
		return err
	}
	sent, err := s.srv.Users.Messages.Send(user, &gmail.Message{
		Raw: base64.URLEncoding.EncodeToString(raw),
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("gmail send to %s: %w", msg.To, err)
	}
	log.Printf("Gmail: sent %q to %s (message ID %s)", msg.Subject, msg.To, sent.Id)
	return nil
}
