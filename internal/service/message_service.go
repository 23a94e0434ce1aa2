package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/tradeclub/escrow-backend/internal/models"
	"github.com/tradeclub/escrow-backend/internal/pkg/apperror"
	"github.com/tradeclub/escrow-backend/internal/repository"
	"github.com/tradeclub/escrow-backend/internal/validation"
)

func mapDealLookupError(err error) error {
	if errors.Is(err, repository.ErrDealNotFound) {
		return apperror.ErrDealNotFound
	}
	return apperror.Wrap(err, apperror.ErrCodeInternal, "ошибка хранилища сделок")
}

// MessageService — чат сделки поверх её журнала. Пользовательские сообщения
// идут в тот же append-only лог, что и системные записи машины состояний,
// поэтому лента спора читается одним запросом в хронологическом порядке.
type MessageService struct {
	deals    DealRepository
	messages MessageRepository
	hub      WSNotifier
}

// NewMessageService создаёт сервис чата сделки.
func NewMessageService(deals DealRepository, messages MessageRepository) *MessageService {
	return &MessageService{deals: deals, messages: messages}
}

// SetHub подключает websocket-хаб для пуша новых сообщений.
func (s *MessageService) SetHub(hub WSNotifier) {
	s.hub = hub
}

// Send добавляет сообщение участника в журнал сделки. После закрытия
// сделки журнал заморожен: он уже доказательная база, дописывать нельзя.
func (s *MessageService) Send(ctx context.Context, authorID, dealID uuid.UUID, content string) (*models.Message, error) {
	content, err := validation.MessageContent(content)
	if err != nil {
		return nil, err
	}

	deal, err := s.deals.GetByID(ctx, dealID)
	if err != nil {
		return nil, mapDealLookupError(err)
	}
	if !deal.IsParticipant(authorID) {
		return nil, apperror.New(apperror.ErrCodeForbidden, "писать в чат могут только стороны сделки")
	}
	if deal.IsTerminal() {
		return nil, apperror.New(apperror.ErrCodeInvalidState, "чат закрыт: сделка завершена")
	}
	// Переписка открывается только после оплаты: пока лот свободен,
	// второй стороны ещё нет.
	if deal.Status != models.DealStatusInProgress && deal.Status != models.DealStatusDisputed {
		return nil, apperror.New(apperror.ErrCodeInvalidState, "чат доступен только по активной сделке")
	}

	msg := &models.Message{
		DealID:   dealID,
		AuthorID: &authorID,
		Content:  content,
	}
	if err := s.messages.Append(ctx, msg); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось отправить сообщение")
	}

	if s.hub != nil {
		if deal.SellerID != authorID {
			_ = s.hub.BroadcastToUser(deal.SellerID, EventDealMessage, msg)
		}
		if deal.BuyerID != nil && *deal.BuyerID != authorID {
			_ = s.hub.BroadcastToUser(*deal.BuyerID, EventDealMessage, msg)
		}
	}
	return msg, nil
}

// List возвращает журнал сделки: системные записи и сообщения сторон вперемешку,
// в порядке добавления. Читать журнал может только участник.
func (s *MessageService) List(ctx context.Context, callerID, dealID uuid.UUID, limit, offset int) ([]models.Message, error) {
	deal, err := s.deals.GetByID(ctx, dealID)
	if err != nil {
		return nil, mapDealLookupError(err)
	}
	if !deal.IsParticipant(callerID) {
		return nil, apperror.New(apperror.ErrCodeForbidden, "журнал сделки доступен только её сторонам")
	}
	messages, err := s.messages.ListByDeal(ctx, dealID, limit, offset)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось прочитать журнал сделки")
	}
	return messages, nil
}
