package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradeclub/escrow-backend/internal/pkg/apperror"
)

func TestMessageService_Send(t *testing.T) {
	f := newEscrowFixture(t)
	msgSvc := NewMessageService(f.deals, f.log)
	ctx := context.Background()
	sellerID := uuid.New()
	buyerID := uuid.New()

	deal := f.paidDeal(t, sellerID, buyerID, "100")

	msg, err := msgSvc.Send(ctx, buyerID, deal.ID, "Когда будет отправка?")
	require.NoError(t, err)
	assert.False(t, msg.IsSystem)
	require.NotNil(t, msg.AuthorID)
	assert.Equal(t, buyerID, *msg.AuthorID)

	_, err = msgSvc.Send(ctx, uuid.New(), deal.ID, "Я мимо проходил")
	assert.True(t, apperror.IsForbidden(err))

	_, err = msgSvc.Send(ctx, buyerID, deal.ID, "   ")
	assert.True(t, apperror.IsValidation(err))
}

func TestMessageService_Send_OpenDeal(t *testing.T) {
	f := newEscrowFixture(t)
	msgSvc := NewMessageService(f.deals, f.log)
	ctx := context.Background()
	sellerID := uuid.New()

	deal := f.openDeal(t, sellerID, "100")

	// Пока покупателя нет, писать в журнал нельзя даже продавцу.
	_, err := msgSvc.Send(ctx, sellerID, deal.ID, "Отвечу на вопросы по лоту")
	assert.True(t, apperror.Is(err, apperror.ErrCodeInvalidState))

	journal, err := msgSvc.List(ctx, sellerID, deal.ID, 50, 0)
	require.NoError(t, err)
	for _, entry := range journal {
		assert.True(t, entry.IsSystem)
	}
}

func TestMessageService_Send_ClosedDeal(t *testing.T) {
	f := newEscrowFixture(t)
	msgSvc := NewMessageService(f.deals, f.log)
	ctx := context.Background()
	sellerID := uuid.New()
	buyerID := uuid.New()

	deal := f.paidDeal(t, sellerID, buyerID, "100")
	_, err := f.svc.SellerMarkSent(ctx, sellerID, deal.ID)
	require.NoError(t, err)
	_, err = f.svc.BuyerConfirmReceipt(ctx, buyerID, deal.ID)
	require.NoError(t, err)

	_, err = msgSvc.Send(ctx, buyerID, deal.ID, "Спасибо за сделку!")
	assert.True(t, apperror.Is(err, apperror.ErrCodeInvalidState), "журнал закрытой сделки заморожен")
}

func TestMessageService_List(t *testing.T) {
	f := newEscrowFixture(t)
	msgSvc := NewMessageService(f.deals, f.log)
	ctx := context.Background()
	sellerID := uuid.New()
	buyerID := uuid.New()

	deal := f.paidDeal(t, sellerID, buyerID, "100")
	_, err := msgSvc.Send(ctx, buyerID, deal.ID, "Когда будет отправка?")
	require.NoError(t, err)
	_, err = msgSvc.Send(ctx, sellerID, deal.ID, "Сегодня вечером")
	require.NoError(t, err)

	messages, err := msgSvc.List(ctx, sellerID, deal.ID, 0, 0)
	require.NoError(t, err)
	// Системные записи и сообщения сторон в одном журнале, по порядку.
	require.Len(t, messages, 4)
	assert.Equal(t, "Сегодня вечером", messages[3].Content)

	_, err = msgSvc.List(ctx, uuid.New(), deal.ID, 0, 0)
	assert.True(t, apperror.IsForbidden(err))
}
