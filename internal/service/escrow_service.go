package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/tradeclub/escrow-backend/internal/commission"
	"github.com/tradeclub/escrow-backend/internal/custody"
	"github.com/tradeclub/escrow-backend/internal/logger"
	"github.com/tradeclub/escrow-backend/internal/models"
	"github.com/tradeclub/escrow-backend/internal/pkg/apperror"
	"github.com/tradeclub/escrow-backend/internal/repository"
	"github.com/tradeclub/escrow-backend/internal/validation"
)

// DealRepository описывает взаимодействие машины состояний с хранилищем сделок.
type DealRepository interface {
	Insert(ctx context.Context, deal *models.Deal) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Deal, error)
	ListByStatus(ctx context.Context, status string, requester *uuid.UUID, limit, offset int) ([]models.Deal, error)
	UpdateTransition(ctx context.Context, dealID uuid.UUID, expectedVersion int64, tr repository.DealTransition) (*models.Deal, error)
}

// MessageRepository описывает журнал сделки. Только добавление и чтение.
type MessageRepository interface {
	Append(ctx context.Context, msg *models.Message) error
	ListByDeal(ctx context.Context, dealID uuid.UUID, limit, offset int) ([]models.Message, error)
}

// FundCustody — адаптер внешнего леджера балансов. Движок никогда не
// меняет балансы напрямую, только через Reserve/Release/Refund.
// Release и Refund терминальны по резерву: повторный вызов после успеха —
// безопасный no-op (ErrAlreadySettled), а не второе движение средств.
type FundCustody interface {
	Reserve(ctx context.Context, dealID, buyerID uuid.UUID, amount decimal.Decimal) (*models.Hold, error)
	Release(ctx context.Context, dealID, sellerID uuid.UUID, net decimal.Decimal, feeAccount uuid.UUID, fee decimal.Decimal) (*models.Hold, error)
	Refund(ctx context.Context, dealID uuid.UUID) (*models.Hold, error)
	GetHold(ctx context.Context, dealID uuid.UUID) (*models.Hold, error)
}

// WSNotifier отправляет событие пользователю (websocket + лента уведомлений).
type WSNotifier interface {
	BroadcastToUser(userID uuid.UUID, event string, data any) error
}

// Outcome — решение арбитра по спору. Ровно два варианта; строки из
// клиентских запросов валидируются до применения.
type Outcome string

const (
	OutcomeReleaseToSeller Outcome = "release_to_seller"
	OutcomeRefundToBuyer   Outcome = "refund_to_buyer"
)

// Valid проверяет, что значение — один из двух допустимых исходов.
func (o Outcome) Valid() bool {
	return o == OutcomeReleaseToSeller || o == OutcomeRefundToBuyer
}

// События для websocket и ленты уведомлений.
const (
	EventDealPaid      = "deal.paid"
	EventDealSent      = "deal.sent"
	EventDealCompleted = "deal.completed"
	EventDealDisputed  = "deal.disputed"
	EventDealResolved  = "deal.resolved"
	EventDealMessage   = "deal.message"
)

// EscrowService — машина состояний эскроу. Каждая мутирующая операция:
// загрузить сделку с версией, проверить легальность перехода и право
// вызывающего, выполнить не более одного обращения к леджеру, применить
// переход compare-and-swap'ом по версии, дописать системную запись в журнал.
// Единица сериализации — одна сделка; разные сделки полностью независимы.
type EscrowService struct {
	deals    DealRepository
	messages MessageRepository
	custody  FundCustody

	feeAccount     uuid.UUID
	commissionRate decimal.Decimal
	custodyTimeout time.Duration

	hub WSNotifier
}

// NewEscrowService создаёт машину состояний.
func NewEscrowService(deals DealRepository, messages MessageRepository, funds FundCustody, feeAccount uuid.UUID, commissionRate decimal.Decimal, custodyTimeout time.Duration) *EscrowService {
	if commissionRate.IsZero() {
		commissionRate = commission.DefaultRate
	}
	if custodyTimeout <= 0 {
		custodyTimeout = 5 * time.Second
	}
	return &EscrowService{
		deals:          deals,
		messages:       messages,
		custody:        funds,
		feeAccount:     feeAccount,
		commissionRate: commissionRate,
		custodyTimeout: custodyTimeout,
	}
}

// SetHub подключает websocket-хаб для пуша событий участникам.
func (s *EscrowService) SetHub(hub WSNotifier) {
	s.hub = hub
}

// CreateDeal создаёт лот продавца в статусе open.
func (s *EscrowService) CreateDeal(ctx context.Context, sellerID uuid.UUID, title, description string, price decimal.Decimal) (*models.Deal, error) {
	title, err := validation.DealTitle(title)
	if err != nil {
		return nil, err
	}
	description, err = validation.DealDescription(description)
	if err != nil {
		return nil, err
	}
	if !price.IsPositive() {
		return nil, apperror.New(apperror.ErrCodeValidation, "цена должна быть положительной")
	}

	deal := &models.Deal{
		SellerID:       sellerID,
		Title:          title,
		Description:    description,
		Price:          price.Round(2),
		CommissionRate: s.commissionRate,
		Status:         models.DealStatusOpen,
	}
	if err := s.deals.Insert(ctx, deal); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось создать сделку")
	}

	s.appendSystem(ctx, deal.ID, "лот создан, ожидается покупатель")
	return deal, nil
}

// JoinAndPay присоединяет покупателя к открытому лоту и резервирует его
// средства. Сначала атомарный захват лота (CAS по buyer_id/версии), затем
// резерв в леджере: проигравшие гонку получают AlreadyTaken, не сделав
// ни одного обращения к леджеру. Если резерв не удался, сделка
// возвращается в open в том виде, в каком была.
func (s *EscrowService) JoinAndPay(ctx context.Context, buyerID, dealID uuid.UUID) (*models.Deal, error) {
	deal, err := s.getDeal(ctx, dealID)
	if err != nil {
		return nil, err
	}

	// Ретрай победителя после таймаута сети: лот уже захвачен этим же
	// покупателем. Дожимаем резерв (идемпотентен по deal_id) и отвечаем
	// успехом — это точка восстановления после сбоя между захватом и
	// резервом.
	if deal.Status == models.DealStatusInProgress && deal.BuyerID != nil && *deal.BuyerID == buyerID {
		if _, err := s.reserve(ctx, dealID, buyerID, deal.Price); err != nil {
			return nil, err
		}
		return deal, nil
	}

	if deal.IsTerminal() {
		return nil, apperror.New(apperror.ErrCodeInvalidState, "сделка уже закрыта")
	}
	if deal.Status != models.DealStatusOpen || deal.BuyerID != nil {
		return nil, apperror.New(apperror.ErrCodeAlreadyTaken, "лот уже занят другим покупателем")
	}
	if deal.SellerID == buyerID {
		return nil, apperror.New(apperror.ErrCodeValidation, "нельзя купить собственный лот")
	}

	status := models.DealStatusInProgress
	step := models.DealStepSellerSending
	claimed, err := s.deals.UpdateTransition(ctx, dealID, deal.Version, repository.DealTransition{
		Status:               &status,
		Step:                 &step,
		BuyerID:              &buyerID,
		RequireOpenUnclaimed: true,
	})
	if err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			return nil, apperror.New(apperror.ErrCodeAlreadyTaken, "лот уже занят другим покупателем")
		}
		return nil, s.mapRepoError(err)
	}

	if _, err := s.reserve(ctx, dealID, buyerID, deal.Price); err != nil {
		// Определённый отказ леджера: возвращаем лот в открытое состояние.
		// Таймаут (исход неизвестен) захват не откатывает — ретрай дожмёт
		// резерв по идемпотентному пути выше.
		if !apperror.IsRetryable(err) {
			s.revertClaim(ctx, claimed)
		}
		return nil, err
	}

	s.appendSystem(ctx, dealID, "покупатель оплатил лот, продавец должен выполнить отправку")
	s.notify(deal.SellerID, EventDealPaid, claimed)
	return claimed, nil
}

// SellerMarkSent отмечает отправку товара продавцом. Идемпотентна:
// повторный вызов на шаге buyer_confirming — no-op успех (двойной сабмит
// из двух вкладок не ошибка).
func (s *EscrowService) SellerMarkSent(ctx context.Context, callerID, dealID uuid.UUID) (*models.Deal, error) {
	deal, err := s.getDeal(ctx, dealID)
	if err != nil {
		return nil, err
	}
	if deal.SellerID != callerID {
		return nil, apperror.New(apperror.ErrCodeForbidden, "отметить отправку может только продавец")
	}
	if deal.Status != models.DealStatusInProgress {
		return nil, apperror.New(apperror.ErrCodeInvalidState, "сделка не в активном состоянии")
	}
	if deal.StepIs(models.DealStepBuyerConfirming) {
		return deal, nil
	}
	if !deal.StepIs(models.DealStepSellerSending) {
		return nil, apperror.New(apperror.ErrCodeInvalidState, "отправку нельзя отметить на этом шаге")
	}

	step := models.DealStepBuyerConfirming
	updated, err := s.deals.UpdateTransition(ctx, dealID, deal.Version, repository.DealTransition{Step: &step})
	if err != nil {
		return nil, s.mapRepoError(err)
	}

	s.appendSystem(ctx, dealID, "продавец отметил отправку, покупатель должен подтвердить получение")
	if deal.BuyerID != nil {
		s.notify(*deal.BuyerID, EventDealSent, updated)
	}
	return updated, nil
}

// BuyerConfirmReceipt подтверждает получение и рассчитывает сделку:
// продавцу уходит цена за вычетом комиссии, комиссия — счёту площадки,
// одним атомарным движением леджера. Идемпотентна по терминальному
// состоянию резерва: ретрай после успеха не делает второй выплаты.
func (s *EscrowService) BuyerConfirmReceipt(ctx context.Context, callerID, dealID uuid.UUID) (*models.Deal, error) {
	deal, err := s.getDeal(ctx, dealID)
	if err != nil {
		return nil, err
	}

	// Ретрай после успешного завершения отвечает успехом.
	if deal.Status == models.DealStatusCompleted && deal.BuyerID != nil && *deal.BuyerID == callerID {
		return deal, nil
	}

	if deal.BuyerID == nil || *deal.BuyerID != callerID {
		return nil, apperror.New(apperror.ErrCodeForbidden, "подтвердить получение может только покупатель")
	}
	if deal.Status != models.DealStatusInProgress {
		return nil, apperror.New(apperror.ErrCodeInvalidState, "сделка не в активном состоянии")
	}
	if !deal.StepIs(models.DealStepBuyerConfirming) {
		return nil, apperror.New(apperror.ErrCodeInvalidState, "продавец ещё не отметил отправку")
	}

	if err := s.release(ctx, deal); err != nil {
		return nil, err
	}

	completed, err := s.completeDeal(ctx, deal, models.DealStatusCompleted)
	if err != nil {
		return nil, err
	}

	s.appendSystem(ctx, dealID, "покупатель подтвердил получение, сделка завершена")
	s.notify(deal.SellerID, EventDealCompleted, completed)
	return completed, nil
}

// OpenDispute переводит активную сделку в спор. Средства остаются
// замороженными, обращений к леджеру нет; журнал сделки с этого момента —
// доказательная база.
func (s *EscrowService) OpenDispute(ctx context.Context, callerID, dealID uuid.UUID, reason string) (*models.Deal, error) {
	deal, err := s.getDeal(ctx, dealID)
	if err != nil {
		return nil, err
	}
	if !deal.IsParticipant(callerID) {
		return nil, apperror.New(apperror.ErrCodeForbidden, "открыть спор может только сторона сделки")
	}
	reason, err = validation.DisputeReason(reason)
	if err != nil {
		return nil, err
	}
	if deal.Status == models.DealStatusDisputed {
		return nil, apperror.New(apperror.ErrCodeInvalidState, "спор уже открыт")
	}
	if deal.Status != models.DealStatusInProgress {
		return nil, apperror.New(apperror.ErrCodeInvalidState, "спор можно открыть только по активной сделке")
	}

	status := models.DealStatusDisputed
	updated, err := s.deals.UpdateTransition(ctx, dealID, deal.Version, repository.DealTransition{
		Status:          &status,
		DisputeReason:   &reason,
		DisputeOpenedBy: &callerID,
	})
	if err != nil {
		return nil, s.mapRepoError(err)
	}

	s.appendSystem(ctx, dealID, fmt.Sprintf("открыт спор: %s", reason))
	s.notifyCounterparty(deal, callerID, EventDealDisputed, updated)
	return updated, nil
}

// AdminResolveDispute — привилегированный переход арбитра. Права
// оператора проверяет middleware; adminID попадает в журнал. Гарантии по
// движению средств те же, что у автоматических переходов: идемпотентность
// по терминальному состоянию резерва, повторное решение спора не двигает
// деньги второй раз.
func (s *EscrowService) AdminResolveDispute(ctx context.Context, adminID, dealID uuid.UUID, outcome Outcome, note string) (*models.Deal, error) {
	if !outcome.Valid() {
		return nil, apperror.New(apperror.ErrCodeValidation, "недопустимый исход спора")
	}

	deal, err := s.getDeal(ctx, dealID)
	if err != nil {
		return nil, err
	}

	// Ретрай уже применённого решения: проверяем, что резерв лёг так, как
	// требует исход, и отвечаем успехом без движения средств.
	if deal.IsTerminal() {
		return s.verifyResolved(ctx, deal, outcome)
	}
	if deal.Status != models.DealStatusDisputed {
		return nil, apperror.New(apperror.ErrCodeInvalidState, "сделка не находится в споре")
	}

	var newStatus string
	switch outcome {
	case OutcomeReleaseToSeller:
		if err := s.release(ctx, deal); err != nil {
			return nil, err
		}
		newStatus = models.DealStatusCompleted
	case OutcomeRefundToBuyer:
		// Комиссия при возврате покупателю не взимается.
		if err := s.refund(ctx, deal); err != nil {
			return nil, err
		}
		newStatus = models.DealStatusCancelled
	}

	resolved, err := s.completeDeal(ctx, deal, newStatus)
	if err != nil {
		return nil, err
	}

	verdict := "средства переведены продавцу"
	if outcome == OutcomeRefundToBuyer {
		verdict = "средства возвращены покупателю"
	}
	if note != "" {
		s.appendSystem(ctx, dealID, fmt.Sprintf("спор разрешён арбитром: %s (%s)", verdict, note))
	} else {
		s.appendSystem(ctx, dealID, fmt.Sprintf("спор разрешён арбитром: %s", verdict))
	}

	logger.L().WithFields(logrus.Fields{
		"deal_id": dealID,
		"admin":   adminID,
		"outcome": outcome,
	}).Info("dispute resolved")

	s.notify(deal.SellerID, EventDealResolved, resolved)
	if deal.BuyerID != nil {
		s.notify(*deal.BuyerID, EventDealResolved, resolved)
	}
	return resolved, nil
}

// CancelOpenDeal снимает открытый лот с продажи. Покупателя и резерва ещё
// нет, поэтому леджер не участвует.
func (s *EscrowService) CancelOpenDeal(ctx context.Context, sellerID, dealID uuid.UUID) (*models.Deal, error) {
	deal, err := s.getDeal(ctx, dealID)
	if err != nil {
		return nil, err
	}
	if deal.SellerID != sellerID {
		return nil, apperror.New(apperror.ErrCodeForbidden, "снять лот может только продавец")
	}
	if deal.Status != models.DealStatusOpen {
		return nil, apperror.New(apperror.ErrCodeInvalidState, "снять можно только открытый лот")
	}

	cancelled, err := s.completeDeal(ctx, deal, models.DealStatusCancelled)
	if err != nil {
		return nil, err
	}

	s.appendSystem(ctx, dealID, "лот снят с продажи продавцом")
	return cancelled, nil
}

// GetDeal возвращает сделку вместе с её журналом.
func (s *EscrowService) GetDeal(ctx context.Context, dealID uuid.UUID) (*models.Deal, []models.Message, error) {
	deal, err := s.getDeal(ctx, dealID)
	if err != nil {
		return nil, nil, err
	}
	messages, err := s.messages.ListByDeal(ctx, dealID, 0, 0)
	if err != nil {
		return nil, nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось прочитать журнал сделки")
	}
	return deal, messages, nil
}

// ListDeals возвращает сделки по статусу; requester включает режим
// "мои сделки" (обе стороны, любой статус при пустом фильтре).
func (s *EscrowService) ListDeals(ctx context.Context, status string, requester *uuid.UUID, limit, offset int) ([]models.Deal, error) {
	if status != "" {
		if _, ok := models.ValidDealStatuses[status]; !ok {
			return nil, apperror.New(apperror.ErrCodeValidation, "неизвестный статус сделки")
		}
	}
	deals, err := s.deals.ListByStatus(ctx, status, requester, limit, offset)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось получить список сделок")
	}
	return deals, nil
}

// reserve вызывает леджер с таймаутом и переводит его ошибки в таксономию
// движка. Таймаут — ConflictRetry: исход неизвестен, но Reserve идемпотентен
// по deal_id и ретрай безопасен.
func (s *EscrowService) reserve(ctx context.Context, dealID, buyerID uuid.UUID, amount decimal.Decimal) (*models.Hold, error) {
	cctx, cancel := context.WithTimeout(ctx, s.custodyTimeout)
	defer cancel()

	hold, err := s.custody.Reserve(cctx, dealID, buyerID, amount)
	if err != nil {
		switch {
		case errors.Is(err, custody.ErrInsufficientFunds):
			// Текст ответа зафиксирован контрактом старых клиентов.
			return nil, apperror.New(apperror.ErrCodeInsufficientFunds, "Insufficient balance")
		case errors.Is(err, context.DeadlineExceeded):
			return nil, apperror.Wrap(err, apperror.ErrCodeConflictRetry, "кошелёк не ответил, повторите запрос")
		default:
			return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "ошибка кошелька при резерве средств")
		}
	}
	return hold, nil
}

// release рассчитывает комиссию и переводит резерв продавцу. Уже решённый
// резерв считается успехом, если он лёг выплатой продавцу.
func (s *EscrowService) release(ctx context.Context, deal *models.Deal) error {
	fee := commission.Fee(deal.Price, deal.CommissionRate)
	net := deal.Price.Sub(fee)

	cctx, cancel := context.WithTimeout(ctx, s.custodyTimeout)
	defer cancel()

	_, err := s.custody.Release(cctx, deal.ID, deal.SellerID, net, s.feeAccount, fee)
	if err != nil {
		switch {
		case errors.Is(err, custody.ErrAlreadySettled):
			return s.requireHoldStatus(ctx, deal.ID, models.HoldStatusReleased)
		case errors.Is(err, context.DeadlineExceeded):
			return apperror.Wrap(err, apperror.ErrCodeConflictRetry, "кошелёк не ответил, повторите запрос")
		default:
			return apperror.Wrap(err, apperror.ErrCodeInternal, "ошибка кошелька при выплате")
		}
	}
	return nil
}

// refund возвращает резерв покупателю. Симметричен release.
func (s *EscrowService) refund(ctx context.Context, deal *models.Deal) error {
	cctx, cancel := context.WithTimeout(ctx, s.custodyTimeout)
	defer cancel()

	_, err := s.custody.Refund(cctx, deal.ID)
	if err != nil {
		switch {
		case errors.Is(err, custody.ErrAlreadySettled):
			return s.requireHoldStatus(ctx, deal.ID, models.HoldStatusRefunded)
		case errors.Is(err, context.DeadlineExceeded):
			return apperror.Wrap(err, apperror.ErrCodeConflictRetry, "кошелёк не ответил, повторите запрос")
		default:
			return apperror.Wrap(err, apperror.ErrCodeInternal, "ошибка кошелька при возврате")
		}
	}
	return nil
}

// requireHoldStatus убеждается, что терминальное состояние резерва
// совпадает с требуемым исходом. Расхождение — нарушение инварианта,
// его нельзя маскировать под успех.
func (s *EscrowService) requireHoldStatus(ctx context.Context, dealID uuid.UUID, want string) error {
	hold, err := s.custody.GetHold(ctx, dealID)
	if err != nil {
		return apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось проверить состояние резерва")
	}
	if hold.Status != want {
		logger.L().WithFields(logrus.Fields{
			"deal_id": dealID,
			"want":    want,
			"got":     hold.Status,
		}).Error("hold settled with conflicting disposition")
		return apperror.New(apperror.ErrCodeInternal, "резерв по сделке урегулирован иначе")
	}
	return nil
}

// verifyResolved обрабатывает ретрай решения по уже закрытой сделке.
func (s *EscrowService) verifyResolved(ctx context.Context, deal *models.Deal, outcome Outcome) (*models.Deal, error) {
	wantStatus := models.DealStatusCompleted
	wantHold := models.HoldStatusReleased
	if outcome == OutcomeRefundToBuyer {
		wantStatus = models.DealStatusCancelled
		wantHold = models.HoldStatusRefunded
	}
	if deal.Status != wantStatus {
		return nil, apperror.New(apperror.ErrCodeInvalidState, "сделка уже закрыта с другим исходом")
	}
	if err := s.requireHoldStatus(ctx, deal.ID, wantHold); err != nil {
		return nil, err
	}
	return deal, nil
}

// completeDeal переводит сделку в терминальный статус CAS'ом по версии.
func (s *EscrowService) completeDeal(ctx context.Context, deal *models.Deal, status string) (*models.Deal, error) {
	now := time.Now()
	updated, err := s.deals.UpdateTransition(ctx, deal.ID, deal.Version, repository.DealTransition{
		Status:      &status,
		ClearStep:   true,
		CompletedAt: &now,
	})
	if err != nil {
		return nil, s.mapRepoError(err)
	}
	return updated, nil
}

// revertClaim возвращает лот в открытое состояние после отказа леджера.
// Ошибку отката только логируем: исходная ошибка резерва важнее.
func (s *EscrowService) revertClaim(ctx context.Context, claimed *models.Deal) {
	status := models.DealStatusOpen
	_, err := s.deals.UpdateTransition(ctx, claimed.ID, claimed.Version, repository.DealTransition{
		Status:     &status,
		ClearStep:  true,
		ClearBuyer: true,
	})
	if err != nil {
		logger.L().WithFields(logrus.Fields{
			"deal_id": claimed.ID,
			"error":   err,
		}).Error("failed to revert deal claim")
	}
}

func (s *EscrowService) getDeal(ctx context.Context, dealID uuid.UUID) (*models.Deal, error) {
	deal, err := s.deals.GetByID(ctx, dealID)
	if err != nil {
		return nil, s.mapRepoError(err)
	}
	return deal, nil
}

func (s *EscrowService) mapRepoError(err error) error {
	switch {
	case errors.Is(err, repository.ErrDealNotFound):
		return apperror.ErrDealNotFound
	case errors.Is(err, repository.ErrVersionConflict):
		return apperror.Wrap(err, apperror.ErrCodeConflictRetry, "сделку изменил параллельный запрос, повторите")
	default:
		return apperror.Wrap(err, apperror.ErrCodeInternal, "ошибка хранилища сделок")
	}
}

// appendSystem дописывает системную запись в журнал сделки. Переход уже
// зафиксирован, поэтому сбой журнала не валит операцию, а только логируется.
func (s *EscrowService) appendSystem(ctx context.Context, dealID uuid.UUID, content string) {
	msg := &models.Message{
		DealID:   dealID,
		IsSystem: true,
		Content:  content,
	}
	if err := s.messages.Append(ctx, msg); err != nil {
		logger.L().WithFields(logrus.Fields{
			"deal_id": dealID,
			"error":   err,
		}).Error("failed to append system message")
	}
}

func (s *EscrowService) notify(userID uuid.UUID, event string, data any) {
	if s.hub == nil {
		return
	}
	if err := s.hub.BroadcastToUser(userID, event, data); err != nil {
		logger.L().WithFields(logrus.Fields{
			"user_id": userID,
			"event":   event,
			"error":   err,
		}).Warn("failed to notify user")
	}
}

func (s *EscrowService) notifyCounterparty(deal *models.Deal, actorID uuid.UUID, event string, data any) {
	if deal.SellerID != actorID {
		s.notify(deal.SellerID, event, data)
	}
	if deal.BuyerID != nil && *deal.BuyerID != actorID {
		s.notify(*deal.BuyerID, event, data)
	}
}
