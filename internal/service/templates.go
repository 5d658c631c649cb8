package service

import (
	"context"
	"errors"
	"fmt"

	"spacerent/internal/domain"
)

func contractURL(contractID uint) string {
	return fmt.Sprintf("/contracts/%d", contractID)
}

// NotifyContractCreated tells the owner about the new contract and confirms it to the tenant.
// Both notifications are attempted even when the first one fails.
func (s *NotificationService) NotifyContractCreated(ctx context.Context, ownerID, tenantID, contractID uint, spaceName string) error {
	_, ownerErr := s.CreateNotification(ctx, CreateNotificationInput{
		RecipientID:       ownerID,
		Title:             "New Contract Created",
		Message:           "A new rental contract has been created for your space: " + spaceName,
		Type:              domain.NotificationContractCreated,
		ActionURL:         contractURL(contractID),
		RelatedContractID: &contractID,
		RelatedUserID:     &tenantID,
	})
	_, tenantErr := s.CreateNotification(ctx, CreateNotificationInput{
		RecipientID:       tenantID,
		Title:             "Contract Confirmed",
		Message:           fmt.Sprintf("Your rental contract for %s has been confirmed", spaceName),
		Type:              domain.NotificationContractCreated,
		ActionURL:         contractURL(contractID),
		RelatedContractID: &contractID,
		RelatedUserID:     &ownerID,
	})
	return errors.Join(ownerErr, tenantErr)
}

func (s *NotificationService) NotifyContractExpiring(ctx context.Context, tenantID, contractID uint, spaceName string, daysUntilExpiry int) error {
	_, err := s.CreateNotification(ctx, CreateNotificationInput{
		RecipientID:       tenantID,
		Title:             "Contract Expiring Soon",
		Message:           fmt.Sprintf("Your rental contract for %s will expire in %d days", spaceName, daysUntilExpiry),
		Type:              domain.NotificationContractExpiring,
		ActionURL:         contractURL(contractID),
		RelatedContractID: &contractID,
	})
	return err
}

func (s *NotificationService) NotifyContractTerminated(ctx context.Context, ownerID, tenantID, contractID uint, spaceName string) error {
	_, ownerErr := s.CreateNotification(ctx, CreateNotificationInput{
		RecipientID:       ownerID,
		Title:             "Contract Terminated",
		Message:           fmt.Sprintf("The rental contract for your space %s has been terminated", spaceName),
		Type:              domain.NotificationContractTerminated,
		ActionURL:         contractURL(contractID),
		RelatedContractID: &contractID,
		RelatedUserID:     &tenantID,
	})
	_, tenantErr := s.CreateNotification(ctx, CreateNotificationInput{
		RecipientID:       tenantID,
		Title:             "Contract Terminated",
		Message:           fmt.Sprintf("Your rental contract for %s has been terminated", spaceName),
		Type:              domain.NotificationContractTerminated,
		ActionURL:         contractURL(contractID),
		RelatedContractID: &contractID,
		RelatedUserID:     &ownerID,
	})
	return errors.Join(ownerErr, tenantErr)
}

// NotifyNewMessage is called by the send path after the message is stored.
// messageID is logged only; the notification links to the inbox.
func (s *NotificationService) NotifyNewMessage(ctx context.Context, recipientID uint, senderName string, messageID uint) error {
	n, err := s.CreateNotification(ctx, CreateNotificationInput{
		RecipientID: recipientID,
		Title:       "New Message",
		Message:     "You have received a new message from " + senderName,
		Type:        domain.NotificationMessageReceived,
		ActionURL:   "/messages",
	})
	if err != nil {
		return err
	}
	s.log.Debug("new message notification", "notification_id", n.ID, "message_id", messageID)
	return nil
}

func (s *NotificationService) NotifyPaymentDue(ctx context.Context, tenantID, contractID uint, spaceName string, amount float64) error {
	_, err := s.CreateNotification(ctx, CreateNotificationInput{
		RecipientID:       tenantID,
		Title:             "Payment Due",
		Message:           fmt.Sprintf("Your monthly rent of €%.2f for %s is due", amount, spaceName),
		Type:              domain.NotificationPaymentDue,
		ActionURL:         contractURL(contractID),
		RelatedContractID: &contractID,
	})
	return err
}
