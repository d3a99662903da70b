package services

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"

	"facematch/internal/config"
	"facematch/internal/logger"
)

// Notifier delivers push notifications; a nil *NotificationService is a
// valid no-op notifier so the server runs without Firebase configured.
type Notifier interface {
	Push(ctx context.Context, token, title, body string)
}

type NotificationService struct {
	client *messaging.Client
}

func NewNotificationService(ctx context.Context, cfg *config.Config) (*NotificationService, error) {
	if cfg.FirebaseProjectID == "" {
		return nil, nil
	}

	app, err := firebase.NewApp(ctx,
		&firebase.Config{ProjectID: cfg.FirebaseProjectID},
		option.WithCredentialsFile(cfg.FirebasePrivateKeyPath),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Firebase app: %w", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create messaging client: %w", err)
	}

	logger.L().Info("Firebase messaging initialized")
	return &NotificationService{client: client}, nil
}

// Push sends one notification, best effort. Delivery failures are
// logged and swallowed; pushes never fail the triggering request.
func (n *NotificationService) Push(ctx context.Context, token, title, body string) {
	if n == nil || token == "" {
		return
	}

	_, err := n.client.Send(ctx, &messaging.Message{
		Token: token,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
	})
	if err != nil {
		logger.L().WithError(err).Warn("Push notification failed")
	}
}
