package handler

import (
	"context"

	"spacerent/internal/dto"
	"spacerent/internal/models"
	"spacerent/internal/service"
)

// Presenter resolves the user names and roles shown next to messages and notifications.
type Presenter struct {
	users service.UserDirectory
}

func NewPresenter(users service.UserDirectory) *Presenter {
	return &Presenter{users: users}
}

func (p *Presenter) Messages(ctx context.Context, list []models.Message) ([]dto.MessageDTO, error) {
	users, err := p.users.GetByIDs(ctx, dto.MessageUserIDs(list))
	if err != nil {
		return nil, err
	}
	return dto.NewMessages(list, users), nil
}

func (p *Presenter) Message(ctx context.Context, m *models.Message) (dto.MessageDTO, error) {
	users, err := p.users.GetByIDs(ctx, []uint{m.SenderID, m.RecipientID})
	if err != nil {
		return dto.MessageDTO{}, err
	}
	return dto.NewMessage(m, users), nil
}

func (p *Presenter) Notifications(ctx context.Context, list []models.Notification) ([]dto.NotificationDTO, error) {
	users, err := p.users.GetByIDs(ctx, dto.NotificationUserIDs(list))
	if err != nil {
		return nil, err
	}
	return dto.NewNotifications(list, users), nil
}

func (p *Presenter) Notification(ctx context.Context, n *models.Notification) (dto.NotificationDTO, error) {
	users, err := p.users.GetByIDs(ctx, []uint{n.RecipientID})
	if err != nil {
		return dto.NotificationDTO{}, err
	}
	return dto.NewNotification(n, users), nil
}
