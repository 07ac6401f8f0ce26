package services

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/matchpoint-app/matchpoint/models"
	"github.com/matchpoint-app/matchpoint/repositories"
)

type SubmitMessageInput struct {
	SenderName  string
	SenderEmail string
	Subject     string
	Body        string
}

type InboxService interface {
	// Submit accepts a message from the public contact form.
	Submit(ctx context.Context, input SubmitMessageInput) (*models.InboxMessage, error)
	GetByID(ctx context.Context, id int) (*models.InboxMessage, error)
	List(ctx context.Context, status *models.MessageStatus, limit, offset int) ([]*models.InboxMessage, error)
	UnreadCount(ctx context.Context) (int, error)
	MarkRead(ctx context.Context, id int) error
	// Reply stores the reply text and emails it to the sender.
	Reply(ctx context.Context, id int, replyBody string) (*models.InboxMessage, error)
	Delete(ctx context.Context, id int) error
}

type inboxService struct {
	inboxRepo   repositories.InboxRepository
	emailSender EmailSender
	logger      *slog.Logger
}

func NewInboxService(inboxRepo repositories.InboxRepository, emailSender EmailSender, logger *slog.Logger) InboxService {
	return &inboxService{
		inboxRepo:   inboxRepo,
		emailSender: emailSender,
		logger:      logger,
	}
}

func (s *inboxService) Submit(ctx context.Context, input SubmitMessageInput) (*models.InboxMessage, error) {
	name := strings.TrimSpace(input.SenderName)
	email := strings.TrimSpace(input.SenderEmail)
	if name == "" || email == "" {
		return nil, ErrInboxSenderRequired
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, fmt.Errorf("%w: invalid sender email", ErrValidationFailed)
	}
	if strings.TrimSpace(input.Subject) == "" || strings.TrimSpace(input.Body) == "" {
		return nil, ErrInboxSubjectRequired
	}

	message := &models.InboxMessage{
		SenderName:  name,
		SenderEmail: email,
		Subject:     strings.TrimSpace(input.Subject),
		Body:        input.Body,
		Status:      models.MessageUnread,
	}
	if err := s.inboxRepo.Create(ctx, message); err != nil {
		return nil, err
	}

	s.logger.Info("inbox message received", slog.Int("message_id", message.ID))
	return message, nil
}

func (s *inboxService) GetByID(ctx context.Context, id int) (*models.InboxMessage, error) {
	return s.inboxRepo.GetByID(ctx, id)
}

func (s *inboxService) List(ctx context.Context, status *models.MessageStatus, limit, offset int) ([]*models.InboxMessage, error) {
	return s.inboxRepo.List(ctx, status, limit, offset)
}

func (s *inboxService) UnreadCount(ctx context.Context) (int, error) {
	return s.inboxRepo.CountUnread(ctx)
}

func (s *inboxService) MarkRead(ctx context.Context, id int) error {
	return s.inboxRepo.MarkRead(ctx, id)
}

func (s *inboxService) Reply(ctx context.Context, id int, replyBody string) (*models.InboxMessage, error) {
	if strings.TrimSpace(replyBody) == "" {
		return nil, fmt.Errorf("%w: reply body is required", ErrValidationFailed)
	}

	message, err := s.inboxRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if message.Status == models.MessageReplied {
		return nil, ErrInboxAlreadyReplied
	}

	now := time.Now()
	if err := s.inboxRepo.SaveReply(ctx, id, replyBody, now); err != nil {
		return nil, err
	}
	message.Status = models.MessageReplied
	message.ReplyBody = &replyBody
	message.RepliedAt = &now

	if s.emailSender != nil {
		subject := "Re: " + message.Subject
		if err := s.emailSender.SendEmail([]string{message.SenderEmail}, subject, replyBody); err != nil {
			// The reply is stored either way; delivery failure is logged,
			// not surfaced as a request error.
			s.logger.Error("failed to email inbox reply",
				slog.Int("message_id", id), slog.Any("error", err))
		}
	}

	return message, nil
}

func (s *inboxService) Delete(ctx context.Context, id int) error {
	return s.inboxRepo.Delete(ctx, id)
}
