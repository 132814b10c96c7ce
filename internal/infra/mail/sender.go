package mail

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	gomail "github.com/wneessen/go-mail"

	"quiz-conductor/internal/app"
	"quiz-conductor/internal/domain"
)

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Sender delivers invitations over implicit-TLS SMTP.
type Sender struct {
	cfg Config
}

func NewSender(cfg Config) (*Sender, error) {
	if cfg.Host == "" || cfg.Username == "" || cfg.Password == "" {
		return nil, errors.New("smtp host and credentials are required")
	}
	if cfg.Port == 0 {
		cfg.Port = 465
	}
	if cfg.From == "" {
		cfg.From = cfg.Username
	}
	return &Sender{cfg: cfg}, nil
}

// Open dials and authenticates once; the session is reused for a whole batch.
func (s *Sender) Open(ctx context.Context) (app.MailSession, error) {
	client, err := gomail.NewClient(s.cfg.Host,
		gomail.WithPort(s.cfg.Port),
		gomail.WithSSL(),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(s.cfg.Username),
		gomail.WithPassword(s.cfg.Password),
		gomail.WithTimeout(15*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("create smtp client: %w", err)
	}
	if err := client.DialWithContext(ctx); err != nil {
		return nil, fmt.Errorf("dial smtp: %w", err)
	}
	slog.Debug("smtp session opened", "host", s.cfg.Host)
	return &session{client: client, from: s.cfg.From}, nil
}

type session struct {
	client *gomail.Client
	from   string
}

func (s *session) Send(_ context.Context, invite domain.Invitation) error {
	body, err := RenderInvitation(invite)
	if err != nil {
		return err
	}
	msg := gomail.NewMsg()
	if err := msg.From(s.from); err != nil {
		return fmt.Errorf("set sender: %w", err)
	}
	if err := msg.To(invite.To); err != nil {
		return fmt.Errorf("set recipient: %w", err)
	}
	msg.Subject(invite.Subject)
	msg.SetBodyString(gomail.TypeTextHTML, body)
	if err := s.client.Send(msg); err != nil {
		return fmt.Errorf("send to %s: %w", invite.To, err)
	}
	return nil
}

func (s *session) Close() error {
	return s.client.Close()
}
