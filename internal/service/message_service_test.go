package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"spacerent/internal/domain"
	"spacerent/internal/dto"
	"spacerent/internal/push"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestMessageService_HelloHiBack(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	f := newFixture(t)

	// Given the tenant says hello and the owner answers
	f.push.EXPECT().Publish(gomock.Any(), f.owner.ID, eventOf(domain.EventNewMessage)).
		DoAndReturn(func(_ context.Context, userID uint, ev push.Event) error {
			m, ok := ev.Message.(dto.MessageDTO)
			req.True(ok)
			req.Equal("Hello", m.Content)
			req.Equal("tina", m.SenderName)
			req.Equal(domain.RoleTenant, m.SenderRole)
			req.Equal(userID, ev.UserID)
			return nil
		})
	f.push.EXPECT().Publish(gomock.Any(), f.tenant.ID, eventOf(domain.EventNewMessage)).Return(nil)

	hello, err := f.messages.SendMessage(ctx, SendMessageInput{SenderID: f.tenant.ID, RecipientID: f.owner.ID, Content: "  Hello  "})
	req.NoError(err)
	req.Equal("Hello", hello.Content)
	req.Equal(f.tenant.ID, hello.Sender.ID)
	req.Equal("otto", hello.DTO().RecipientName)
	req.Equal(domain.MessageTypeText, hello.MessageType)
	req.False(hello.IsRead)
	_, err = f.messages.SendMessage(ctx, SendMessageInput{SenderID: f.owner.ID, RecipientID: f.tenant.ID, Content: "Hi back"})
	req.NoError(err)

	// Then the conversation reads the same from both sides, oldest first
	conv, err := f.messages.GetConversation(ctx, f.owner.ID, f.tenant.ID)
	req.NoError(err)
	req.Len(conv, 2)
	req.Equal("Hello", conv[0].Content)
	req.Equal("Hi back", conv[1].Content)

	// And the inbox holds one entry per counterparty with the latest message
	inbox, err := f.messages.GetRecentConversations(ctx, f.tenant.ID)
	req.NoError(err)
	req.Len(inbox, 1)
	req.Equal("Hi back", inbox[0].Content)

	n, err := f.messages.GetUnreadMessagesCount(ctx, f.owner.ID)
	req.NoError(err)
	req.EqualValues(1, n)

	// When the owner reads the tenant's messages, the tenant gets one receipt per call
	f.push.EXPECT().Publish(gomock.Any(), f.tenant.ID, eventOf(domain.EventMessagesRead)).
		DoAndReturn(func(_ context.Context, _ uint, ev push.Event) error {
			req.Equal(ReadReceipt{ReaderID: f.owner.ID, SenderID: f.tenant.ID}, ev.Data)
			return nil
		}).Times(2)
	req.NoError(f.messages.MarkMessagesAsRead(ctx, f.owner.ID, f.tenant.ID))
	req.NoError(f.messages.MarkMessagesAsRead(ctx, f.owner.ID, f.tenant.ID))

	n, err = f.messages.GetUnreadMessagesCount(ctx, f.owner.ID)
	req.NoError(err)
	req.Zero(n)
	unread, err := f.messages.GetUnreadMessages(ctx, f.tenant.ID)
	req.NoError(err)
	req.Len(unread, 1, "the reply stays unread for the tenant")
}

func TestMessageService_SendValidation(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		mutate  func(f *fixture, in *SendMessageInput)
		wantErr error
	}{
		{"blank content", func(_ *fixture, in *SendMessageInput) { in.Content = " \t\n" }, ErrInvalidInput},
		{"too long", func(_ *fixture, in *SendMessageInput) { in.Content = strings.Repeat("é", domain.MaxMessageLength+1) }, ErrInvalidInput},
		{"unknown type", func(_ *fixture, in *SendMessageInput) { in.MessageType = "VOICE" }, ErrInvalidInput},
		{"missing sender", func(_ *fixture, in *SendMessageInput) { in.SenderID = 999 }, ErrNotFound},
		{"missing recipient", func(_ *fixture, in *SendMessageInput) { in.RecipientID = 999 }, ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			f := newFixture(t)
			in := SendMessageInput{SenderID: f.tenant.ID, RecipientID: f.owner.ID, Content: "hi"}
			tt.mutate(f, &in)

			_, err := f.messages.SendMessage(ctx, in)
			req.ErrorIs(err, tt.wantErr)

			list, err := f.messages.GetUserMessages(ctx, f.tenant.ID)
			req.NoError(err)
			req.Empty(list, "nothing is persisted or pushed on rejection")
		})
	}
}

func TestMessageService_SendAcceptsLimits(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	f := newFixture(t)
	f.push.EXPECT().Publish(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	long := strings.Repeat("é", domain.MaxMessageLength)
	m, err := f.messages.SendMessage(ctx, SendMessageInput{SenderID: f.tenant.ID, RecipientID: f.owner.ID, Content: long})
	req.NoError(err)
	req.Equal(long, m.Content)

	contractID := uint(42)
	m, err = f.messages.SendMessage(ctx, SendMessageInput{
		SenderID:          f.tenant.ID,
		RecipientID:       f.owner.ID,
		Content:           "is the contract ready?",
		MessageType:       "contract_inquiry",
		RelatedContractID: &contractID,
	})
	req.NoError(err)
	req.Equal(domain.MessageTypeContractInquiry, m.MessageType)

	byContract, err := f.messages.GetMessagesByContract(ctx, contractID)
	req.NoError(err)
	req.Len(byContract, 1)
	req.Equal(m.ID, byContract[0].ID)
}

func TestMessageService_PushFailureDoesNotFailSend(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	f := newFixture(t)

	// Given a push channel that errors once and panics once
	gomock.InOrder(
		f.push.EXPECT().Publish(gomock.Any(), f.owner.ID, gomock.Any()).Return(errors.New("connection reset")),
		f.push.EXPECT().Publish(gomock.Any(), f.owner.ID, gomock.Any()).DoAndReturn(
			func(context.Context, uint, push.Event) error { panic("boom") }),
	)

	// When messages are sent, both still succeed
	_, err := f.messages.SendMessage(ctx, SendMessageInput{SenderID: f.tenant.ID, RecipientID: f.owner.ID, Content: "one"})
	req.NoError(err)
	_, err = f.messages.SendMessage(ctx, SendMessageInput{SenderID: f.tenant.ID, RecipientID: f.owner.ID, Content: "two"})
	req.NoError(err)

	// Then both are durable
	n, err := f.messages.GetUnreadMessagesCount(ctx, f.owner.ID)
	req.NoError(err)
	req.EqualValues(2, n)
}

func TestMessageService_MarkMessageAsReadIsIdempotent(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	f := newFixture(t)
	f.push.EXPECT().Publish(gomock.Any(), f.owner.ID, eventOf(domain.EventNewMessage)).Return(nil)

	m, err := f.messages.SendMessage(ctx, SendMessageInput{SenderID: f.tenant.ID, RecipientID: f.owner.ID, Content: "ping"})
	req.NoError(err)

	// Only the first transition emits a receipt
	f.push.EXPECT().Publish(gomock.Any(), f.tenant.ID, eventOf(domain.EventMessageRead)).
		DoAndReturn(func(_ context.Context, _ uint, ev push.Event) error {
			req.Equal(ReadReceipt{ReaderID: f.owner.ID, SenderID: f.tenant.ID, MessageID: m.ID}, ev.Data)
			return nil
		}).Times(1)
	req.NoError(f.messages.MarkMessageAsRead(ctx, m.ID))
	req.NoError(f.messages.MarkMessageAsRead(ctx, m.ID))

	got, err := f.messages.GetMessage(ctx, m.ID)
	req.NoError(err)
	req.True(got.IsRead)

	req.ErrorIs(f.messages.MarkMessageAsRead(ctx, 999), ErrNotFound)
}

func TestMessageService_DeleteMessage(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	f := newFixture(t)
	f.push.EXPECT().Publish(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	m, err := f.messages.SendMessage(ctx, SendMessageInput{SenderID: f.tenant.ID, RecipientID: f.owner.ID, Content: "to be removed"})
	req.NoError(err)

	req.ErrorIs(f.messages.DeleteMessage(ctx, m.ID, f.owner.ID), ErrPermissionDenied)
	req.ErrorIs(f.messages.DeleteMessage(ctx, 999, f.tenant.ID), ErrNotFound)
	req.NoError(f.messages.DeleteMessage(ctx, m.ID, f.tenant.ID))

	conv, err := f.messages.GetConversation(ctx, f.tenant.ID, f.owner.ID)
	req.NoError(err)
	req.Empty(conv)
	n, err := f.messages.GetUnreadMessagesCount(ctx, f.owner.ID)
	req.NoError(err)
	req.Zero(n)
	req.ErrorIs(f.messages.DeleteMessage(ctx, m.ID, f.tenant.ID), ErrNotFound)
}

func TestMessageService_QueriesRequireKnownUser(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.messages.GetUserMessages(ctx, 999)
	req.ErrorIs(err, ErrNotFound)
	_, err = f.messages.GetConversation(ctx, f.tenant.ID, 999)
	req.ErrorIs(err, ErrNotFound)
	_, err = f.messages.GetRecentConversations(ctx, 999)
	req.ErrorIs(err, ErrNotFound)
	req.ErrorIs(f.messages.MarkMessagesAsRead(ctx, f.owner.ID, 999), ErrNotFound)
}
