package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"quiz-conductor/internal/domain"
)

// InvitationService emails quiz links to students on behalf of the quiz host.
type InvitationService struct {
	quizzes QuizRepository
	mailer  Mailer
	baseURL string
}

// NewInvitationService returns a service that rejects every call with
// domain.ErrInvitesDisabled when mailer is nil or baseURL is empty.
func NewInvitationService(quizzes QuizRepository, mailer Mailer, baseURL string) *InvitationService {
	return &InvitationService{quizzes: quizzes, mailer: mailer, baseURL: baseURL}
}

func (s *InvitationService) Invite(ctx context.Context, host, quizID, rawEmails string) (domain.InviteReport, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.InviteReport{}, err
	}
	if quiz.HostUsername != host {
		return domain.InviteReport{}, domain.ErrForbidden
	}

	recipients := ParseEmails(rawEmails)
	if len(recipients) == 0 {
		return domain.InviteReport{}, domain.ErrNoRecipients
	}
	if s.mailer == nil || strings.TrimSpace(s.baseURL) == "" {
		return domain.InviteReport{}, domain.ErrInvitesDisabled
	}

	session, err := s.mailer.Open(ctx)
	if err != nil {
		return domain.InviteReport{}, fmt.Errorf("open mail session: %w", err)
	}
	defer func() {
		if err := session.Close(); err != nil {
			slog.Warn("failed to close mail session", "error", err)
		}
	}()

	link := ShareLink(s.baseURL, quiz.ID)
	report := domain.InviteReport{QuizID: quiz.ID}
	for _, to := range recipients {
		err := session.Send(ctx, domain.Invitation{
			To:      to,
			QuizID:  quiz.ID,
			Topic:   quiz.Topic,
			Link:    link,
			Subject: "Quiz Invitation: " + quiz.Topic,
		})
		if err != nil {
			slog.Error("failed to send invitation", "quiz_id", quiz.ID, "to", to, "error", err)
			report.Failed = append(report.Failed, domain.FailedInvite{Address: to, Reason: err.Error()})
			continue
		}
		report.Sent++
	}
	slog.Info("invitations sent", "quiz_id", quiz.ID, "sent", report.Sent, "failed", len(report.Failed))
	return report, nil
}

// ParseEmails splits on commas and newlines and keeps trimmed entries that
// contain an @, dropping case-insensitive repeats.
func ParseEmails(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == '\n' || r == '\r'
	})
	seen := make(map[string]struct{}, len(fields))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		email := strings.TrimSpace(f)
		if email == "" || !strings.Contains(email, "@") {
			continue
		}
		key := strings.ToLower(email)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, email)
	}
	return out
}
