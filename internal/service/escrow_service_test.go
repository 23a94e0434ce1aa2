package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradeclub/escrow-backend/internal/custody"
	"github.com/tradeclub/escrow-backend/internal/models"
	"github.com/tradeclub/escrow-backend/internal/pkg/apperror"
	"github.com/tradeclub/escrow-backend/internal/repository"
)

// memDealStore — хранилище сделок в памяти с тем же контрактом CAS, что и
// SQL-репозиторий: версия охраняет каждый переход, RequireOpenUnclaimed
// пропускает ровно одного победителя гонки.
type memDealStore struct {
	mu    sync.Mutex
	deals map[uuid.UUID]*models.Deal
}

func newMemDealStore() *memDealStore {
	return &memDealStore{deals: make(map[uuid.UUID]*models.Deal)}
}

func (s *memDealStore) Insert(ctx context.Context, deal *models.Deal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	deal.ID = uuid.New()
	deal.CreatedAt = now
	deal.UpdatedAt = now
	deal.Version = 1

	copied := *deal
	s.deals[deal.ID] = &copied
	return nil
}

func (s *memDealStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Deal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.deals[id]
	if !ok {
		return nil, repository.ErrDealNotFound
	}
	copied := *d
	return &copied, nil
}

func (s *memDealStore) ListByStatus(ctx context.Context, status string, requester *uuid.UUID, limit, offset int) ([]models.Deal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.Deal
	for _, d := range s.deals {
		if status != "" && d.Status != status {
			continue
		}
		if requester != nil && !d.IsParticipant(*requester) {
			continue
		}
		out = append(out, *d)
	}
	return out, nil
}

func (s *memDealStore) UpdateTransition(ctx context.Context, dealID uuid.UUID, expectedVersion int64, tr repository.DealTransition) (*models.Deal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.deals[dealID]
	if !ok {
		return nil, repository.ErrDealNotFound
	}
	if d.Version != expectedVersion {
		return nil, repository.ErrVersionConflict
	}
	if tr.RequireOpenUnclaimed && (d.Status != models.DealStatusOpen || d.BuyerID != nil) {
		return nil, repository.ErrVersionConflict
	}

	if tr.Status != nil {
		d.Status = *tr.Status
	}
	if tr.ClearStep {
		d.Step = nil
	} else if tr.Step != nil {
		step := *tr.Step
		d.Step = &step
	}
	if tr.ClearBuyer {
		d.BuyerID = nil
	} else if tr.BuyerID != nil {
		buyer := *tr.BuyerID
		d.BuyerID = &buyer
	}
	if tr.DisputeReason != nil {
		reason := *tr.DisputeReason
		d.DisputeReason = &reason
	}
	if tr.DisputeOpenedBy != nil {
		opener := *tr.DisputeOpenedBy
		d.DisputeOpenedBy = &opener
	}
	if tr.CompletedAt != nil {
		at := *tr.CompletedAt
		d.CompletedAt = &at
	}
	d.UpdatedAt = time.Now()
	d.Version++

	copied := *d
	return &copied, nil
}

// memMessageLog — журнал сделок в памяти, только добавление.
type memMessageLog struct {
	mu       sync.Mutex
	messages []models.Message
}

func (l *memMessageLog) Append(ctx context.Context, msg *models.Message) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	msg.ID = uuid.New()
	msg.CreatedAt = time.Now()
	l.messages = append(l.messages, *msg)
	return nil
}

func (l *memMessageLog) ListByDeal(ctx context.Context, dealID uuid.UUID, limit, offset int) ([]models.Message, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var out []models.Message
	for _, m := range l.messages {
		if m.DealID == dealID {
			out = append(out, m)
		}
	}
	return out, nil
}

// flakyCustody симулирует обрыв сети до кошелька: первые failures вызовов
// Reserve падают с DeadlineExceeded, дальше всё идёт во вложенный леджер.
type flakyCustody struct {
	*custody.MemoryLedger

	mu       sync.Mutex
	failures int
}

func (f *flakyCustody) Reserve(ctx context.Context, dealID, buyerID uuid.UUID, amount decimal.Decimal) (*models.Hold, error) {
	f.mu.Lock()
	fail := f.failures > 0
	if fail {
		f.failures--
	}
	f.mu.Unlock()

	if fail {
		return nil, context.DeadlineExceeded
	}
	return f.MemoryLedger.Reserve(ctx, dealID, buyerID, amount)
}

type escrowFixture struct {
	svc        *EscrowService
	deals      *memDealStore
	log        *memMessageLog
	ledger     *custody.MemoryLedger
	feeAccount uuid.UUID
}

func newEscrowFixture(t *testing.T) *escrowFixture {
	t.Helper()
	deals := newMemDealStore()
	log := &memMessageLog{}
	ledger := custody.NewMemoryLedger()
	feeAccount := uuid.New()
	svc := NewEscrowService(deals, log, ledger, feeAccount, decimal.RequireFromString("0.03"), 2*time.Second)
	return &escrowFixture{svc: svc, deals: deals, log: log, ledger: ledger, feeAccount: feeAccount}
}

func (f *escrowFixture) openDeal(t *testing.T, sellerID uuid.UUID, price string) *models.Deal {
	t.Helper()
	deal, err := f.svc.CreateDeal(context.Background(), sellerID, "Аккаунт с прокачкой", "Передаю аккаунт после оплаты, все данные в чате", decimal.RequireFromString(price))
	require.NoError(t, err)
	return deal
}

func (f *escrowFixture) paidDeal(t *testing.T, sellerID, buyerID uuid.UUID, price string) *models.Deal {
	t.Helper()
	ctx := context.Background()
	deal := f.openDeal(t, sellerID, price)
	require.NoError(t, f.ledger.Deposit(ctx, buyerID, decimal.RequireFromString(price)))
	deal, err := f.svc.JoinAndPay(ctx, buyerID, deal.ID)
	require.NoError(t, err)
	return deal
}

func TestEscrowService_CreateDeal_Validation(t *testing.T) {
	f := newEscrowFixture(t)
	ctx := context.Background()
	sellerID := uuid.New()

	_, err := f.svc.CreateDeal(ctx, sellerID, "", "Описание достаточной длины для проверки", decimal.NewFromInt(100))
	assert.True(t, apperror.IsValidation(err))

	_, err = f.svc.CreateDeal(ctx, sellerID, "Лот", "коротко", decimal.NewFromInt(100))
	assert.True(t, apperror.IsValidation(err))

	_, err = f.svc.CreateDeal(ctx, sellerID, "Лот на продажу", "Описание достаточной длины для проверки", decimal.Zero)
	assert.True(t, apperror.IsValidation(err))

	_, err = f.svc.CreateDeal(ctx, sellerID, "Лот на продажу", "Описание достаточной длины для проверки", decimal.NewFromInt(-5))
	assert.True(t, apperror.IsValidation(err))
}

func TestEscrowService_CreateDeal_Success(t *testing.T) {
	f := newEscrowFixture(t)
	sellerID := uuid.New()

	deal := f.openDeal(t, sellerID, "199.999")

	assert.Equal(t, models.DealStatusOpen, deal.Status)
	assert.Equal(t, sellerID, deal.SellerID)
	assert.Nil(t, deal.BuyerID)
	assert.True(t, deal.Price.Equal(decimal.RequireFromString("200.00")), "цена округляется до копеек")
	assert.True(t, deal.CommissionRate.Equal(decimal.RequireFromString("0.03")))

	messages, err := f.log.ListByDeal(context.Background(), deal.ID, 0, 0)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.True(t, messages[0].IsSystem)
}

func TestEscrowService_JoinAndPay_Success(t *testing.T) {
	f := newEscrowFixture(t)
	ctx := context.Background()
	sellerID := uuid.New()
	buyerID := uuid.New()

	deal := f.openDeal(t, sellerID, "100")
	require.NoError(t, f.ledger.Deposit(ctx, buyerID, decimal.NewFromInt(150)))

	updated, err := f.svc.JoinAndPay(ctx, buyerID, deal.ID)
	require.NoError(t, err)

	assert.Equal(t, models.DealStatusInProgress, updated.Status)
	assert.True(t, updated.StepIs(models.DealStepSellerSending))
	require.NotNil(t, updated.BuyerID)
	assert.Equal(t, buyerID, *updated.BuyerID)

	balance, err := f.ledger.GetBalance(ctx, buyerID)
	require.NoError(t, err)
	assert.True(t, balance.Available.Equal(decimal.NewFromInt(50)))
	assert.True(t, balance.Frozen.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, 1, f.ledger.ReserveCalls())
}

func TestEscrowService_JoinAndPay_OwnDeal(t *testing.T) {
	f := newEscrowFixture(t)
	ctx := context.Background()
	sellerID := uuid.New()

	deal := f.openDeal(t, sellerID, "100")
	require.NoError(t, f.ledger.Deposit(ctx, sellerID, decimal.NewFromInt(100)))

	_, err := f.svc.JoinAndPay(ctx, sellerID, deal.ID)
	assert.True(t, apperror.IsValidation(err))
	assert.Equal(t, 0, f.ledger.ReserveCalls())
}

func TestEscrowService_JoinAndPay_InsufficientFunds(t *testing.T) {
	f := newEscrowFixture(t)
	ctx := context.Background()
	sellerID := uuid.New()
	buyerID := uuid.New()

	deal := f.openDeal(t, sellerID, "100")
	require.NoError(t, f.ledger.Deposit(ctx, buyerID, decimal.NewFromInt(40)))

	_, err := f.svc.JoinAndPay(ctx, buyerID, deal.ID)
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.ErrCodeInsufficientFunds))
	assert.Contains(t, err.Error(), "Insufficient balance")

	// Отказ леджера возвращает лот в открытое состояние без следов захвата.
	reloaded, err := f.deals.GetByID(ctx, deal.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DealStatusOpen, reloaded.Status)
	assert.Nil(t, reloaded.BuyerID)
	assert.Nil(t, reloaded.Step)

	balance, err := f.ledger.GetBalance(ctx, buyerID)
	require.NoError(t, err)
	assert.True(t, balance.Available.Equal(decimal.NewFromInt(40)))
	assert.True(t, balance.Frozen.IsZero())
}

func TestEscrowService_JoinAndPay_NotFound(t *testing.T) {
	f := newEscrowFixture(t)

	_, err := f.svc.JoinAndPay(context.Background(), uuid.New(), uuid.New())
	assert.True(t, apperror.IsNotFound(err))
}

func TestEscrowService_JoinAndPay_Race(t *testing.T) {
	f := newEscrowFixture(t)
	ctx := context.Background()
	sellerID := uuid.New()

	deal := f.openDeal(t, sellerID, "200")

	const buyers = 16
	buyerIDs := make([]uuid.UUID, buyers)
	for i := range buyerIDs {
		buyerIDs[i] = uuid.New()
		require.NoError(t, f.ledger.Deposit(ctx, buyerIDs[i], decimal.NewFromInt(200)))
	}

	var wg sync.WaitGroup
	results := make([]error, buyers)
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = f.svc.JoinAndPay(ctx, buyerIDs[i], deal.ID)
		}(i)
	}
	wg.Wait()

	var wins, taken int
	var winner uuid.UUID
	for i, err := range results {
		switch {
		case err == nil:
			wins++
			winner = buyerIDs[i]
		case apperror.Is(err, apperror.ErrCodeAlreadyTaken):
			taken++
		default:
			t.Fatalf("неожиданная ошибка гонки: %v", err)
		}
	}
	assert.Equal(t, 1, wins, "лот достаётся ровно одному покупателю")
	assert.Equal(t, buyers-1, taken)
	assert.Equal(t, 1, f.ledger.ReserveCalls(), "проигравшие не дёргают леджер")

	reloaded, err := f.deals.GetByID(ctx, deal.ID)
	require.NoError(t, err)
	require.NotNil(t, reloaded.BuyerID)
	assert.Equal(t, winner, *reloaded.BuyerID)

	// Резерв лёг ровно у победителя, остальные балансы нетронуты.
	for _, id := range buyerIDs {
		balance, err := f.ledger.GetBalance(ctx, id)
		require.NoError(t, err)
		if id == winner {
			assert.True(t, balance.Frozen.Equal(decimal.NewFromInt(200)))
		} else {
			assert.True(t, balance.Frozen.IsZero())
			assert.True(t, balance.Available.Equal(decimal.NewFromInt(200)))
		}
	}
}

func TestEscrowService_JoinAndPay_TimeoutThenRetry(t *testing.T) {
	deals := newMemDealStore()
	log := &memMessageLog{}
	flaky := &flakyCustody{MemoryLedger: custody.NewMemoryLedger(), failures: 1}
	svc := NewEscrowService(deals, log, flaky, uuid.New(), decimal.RequireFromString("0.03"), 2*time.Second)
	ctx := context.Background()

	sellerID := uuid.New()
	buyerID := uuid.New()
	deal, err := svc.CreateDeal(ctx, sellerID, "Лот с таймаутом", "Проверяем восстановление после обрыва до кошелька", decimal.NewFromInt(100))
	require.NoError(t, err)
	require.NoError(t, flaky.Deposit(ctx, buyerID, decimal.NewFromInt(100)))

	_, err = svc.JoinAndPay(ctx, buyerID, deal.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsRetryable(err), "исход резерва неизвестен, клиенту предлагается повтор")

	// Захват не откатывается: лот остаётся за этим покупателем.
	claimed, err := deals.GetByID(ctx, deal.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DealStatusInProgress, claimed.Status)
	require.NotNil(t, claimed.BuyerID)
	assert.Equal(t, buyerID, *claimed.BuyerID)

	// Повтор того же покупателя дожимает резерв по идемпотентному пути.
	retried, err := svc.JoinAndPay(ctx, buyerID, deal.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DealStatusInProgress, retried.Status)

	balance, err := flaky.GetBalance(ctx, buyerID)
	require.NoError(t, err)
	assert.True(t, balance.Frozen.Equal(decimal.NewFromInt(100)))
}

func TestEscrowService_SellerMarkSent(t *testing.T) {
	f := newEscrowFixture(t)
	ctx := context.Background()
	sellerID := uuid.New()
	buyerID := uuid.New()

	deal := f.paidDeal(t, sellerID, buyerID, "100")

	_, err := f.svc.SellerMarkSent(ctx, buyerID, deal.ID)
	assert.True(t, apperror.IsForbidden(err), "покупатель не может отметить отправку")

	updated, err := f.svc.SellerMarkSent(ctx, sellerID, deal.ID)
	require.NoError(t, err)
	assert.True(t, updated.StepIs(models.DealStepBuyerConfirming))

	// Двойной сабмит из двух вкладок — no-op успех.
	again, err := f.svc.SellerMarkSent(ctx, sellerID, deal.ID)
	require.NoError(t, err)
	assert.True(t, again.StepIs(models.DealStepBuyerConfirming))
}

func TestEscrowService_SellerMarkSent_OpenDeal(t *testing.T) {
	f := newEscrowFixture(t)
	sellerID := uuid.New()

	deal := f.openDeal(t, sellerID, "100")

	_, err := f.svc.SellerMarkSent(context.Background(), sellerID, deal.ID)
	assert.True(t, apperror.Is(err, apperror.ErrCodeInvalidState))
}

func TestEscrowService_BuyerConfirmReceipt_FeeSplit(t *testing.T) {
	f := newEscrowFixture(t)
	ctx := context.Background()
	sellerID := uuid.New()
	buyerID := uuid.New()

	deal := f.paidDeal(t, sellerID, buyerID, "100")
	_, err := f.svc.SellerMarkSent(ctx, sellerID, deal.ID)
	require.NoError(t, err)

	completed, err := f.svc.BuyerConfirmReceipt(ctx, buyerID, deal.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DealStatusCompleted, completed.Status)
	assert.Nil(t, completed.Step)
	assert.NotNil(t, completed.CompletedAt)

	seller, err := f.ledger.GetBalance(ctx, sellerID)
	require.NoError(t, err)
	assert.True(t, seller.Available.Equal(decimal.RequireFromString("97.00")), "продавцу достаётся цена минус комиссия")

	platform, err := f.ledger.GetBalance(ctx, f.feeAccount)
	require.NoError(t, err)
	assert.True(t, platform.Available.Equal(decimal.RequireFromString("3.00")))

	buyer, err := f.ledger.GetBalance(ctx, buyerID)
	require.NoError(t, err)
	assert.True(t, buyer.Available.IsZero())
	assert.True(t, buyer.Frozen.IsZero())

	// Ретрай подтверждения после успеха не делает второй выплаты.
	again, err := f.svc.BuyerConfirmReceipt(ctx, buyerID, deal.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DealStatusCompleted, again.Status)
	assert.Equal(t, 1, f.ledger.ReleaseCalls())
}

func TestEscrowService_BuyerConfirmReceipt_Forbidden(t *testing.T) {
	f := newEscrowFixture(t)
	ctx := context.Background()
	sellerID := uuid.New()
	buyerID := uuid.New()

	deal := f.paidDeal(t, sellerID, buyerID, "100")
	_, err := f.svc.SellerMarkSent(ctx, sellerID, deal.ID)
	require.NoError(t, err)

	_, err = f.svc.BuyerConfirmReceipt(ctx, sellerID, deal.ID)
	assert.True(t, apperror.IsForbidden(err), "продавец не может подтвердить получение за покупателя")

	_, err = f.svc.BuyerConfirmReceipt(ctx, uuid.New(), deal.ID)
	assert.True(t, apperror.IsForbidden(err))
}

func TestEscrowService_BuyerConfirmReceipt_BeforeSent(t *testing.T) {
	f := newEscrowFixture(t)
	sellerID := uuid.New()
	buyerID := uuid.New()

	deal := f.paidDeal(t, sellerID, buyerID, "100")

	_, err := f.svc.BuyerConfirmReceipt(context.Background(), buyerID, deal.ID)
	assert.True(t, apperror.Is(err, apperror.ErrCodeInvalidState))
	assert.Equal(t, 0, f.ledger.ReleaseCalls())
}

func TestEscrowService_OpenDispute(t *testing.T) {
	f := newEscrowFixture(t)
	ctx := context.Background()
	sellerID := uuid.New()
	buyerID := uuid.New()

	deal := f.paidDeal(t, sellerID, buyerID, "100")
	callsBefore := f.ledger.ReserveCalls() + f.ledger.ReleaseCalls() + f.ledger.RefundCalls()

	_, err := f.svc.OpenDispute(ctx, uuid.New(), deal.ID, "Товар не соответствует описанию")
	assert.True(t, apperror.IsForbidden(err), "посторонний не может открыть спор")

	_, err = f.svc.OpenDispute(ctx, buyerID, deal.ID, "коротко")
	assert.True(t, apperror.IsValidation(err))

	disputed, err := f.svc.OpenDispute(ctx, buyerID, deal.ID, "Товар не соответствует описанию")
	require.NoError(t, err)
	assert.Equal(t, models.DealStatusDisputed, disputed.Status)
	require.NotNil(t, disputed.DisputeOpenedBy)
	assert.Equal(t, buyerID, *disputed.DisputeOpenedBy)

	_, err = f.svc.OpenDispute(ctx, sellerID, deal.ID, "Покупатель не выходит на связь давно")
	assert.True(t, apperror.Is(err, apperror.ErrCodeInvalidState), "второй спор по той же сделке не открывается")

	// Спор не двигает деньги: резерв остаётся замороженным.
	callsAfter := f.ledger.ReserveCalls() + f.ledger.ReleaseCalls() + f.ledger.RefundCalls()
	assert.Equal(t, callsBefore, callsAfter)

	buyer, err := f.ledger.GetBalance(ctx, buyerID)
	require.NoError(t, err)
	assert.True(t, buyer.Frozen.Equal(decimal.NewFromInt(100)))
}

func TestEscrowService_OpenDispute_OpenDeal(t *testing.T) {
	f := newEscrowFixture(t)
	sellerID := uuid.New()

	deal := f.openDeal(t, sellerID, "100")

	_, err := f.svc.OpenDispute(context.Background(), sellerID, deal.ID, "Хочу открыть спор по открытому лоту")
	assert.True(t, apperror.Is(err, apperror.ErrCodeInvalidState))
}

func disputedDeal(t *testing.T, f *escrowFixture, sellerID, buyerID uuid.UUID, price string) *models.Deal {
	t.Helper()
	deal := f.paidDeal(t, sellerID, buyerID, price)
	disputed, err := f.svc.OpenDispute(context.Background(), buyerID, deal.ID, "Товар не соответствует описанию")
	require.NoError(t, err)
	return disputed
}

func TestEscrowService_AdminResolveDispute_RefundToBuyer(t *testing.T) {
	f := newEscrowFixture(t)
	ctx := context.Background()
	sellerID := uuid.New()
	buyerID := uuid.New()
	adminID := uuid.New()

	deal := disputedDeal(t, f, sellerID, buyerID, "100")

	resolved, err := f.svc.AdminResolveDispute(ctx, adminID, deal.ID, OutcomeRefundToBuyer, "продавец не предоставил доказательств")
	require.NoError(t, err)
	assert.Equal(t, models.DealStatusCancelled, resolved.Status)

	// Возврат целиком, комиссия не взимается.
	buyer, err := f.ledger.GetBalance(ctx, buyerID)
	require.NoError(t, err)
	assert.True(t, buyer.Available.Equal(decimal.NewFromInt(100)))
	assert.True(t, buyer.Frozen.IsZero())

	platform, err := f.ledger.GetBalance(ctx, f.feeAccount)
	require.NoError(t, err)
	assert.True(t, platform.Available.IsZero())

	// Ретрай того же решения — успех без второго движения средств.
	again, err := f.svc.AdminResolveDispute(ctx, adminID, deal.ID, OutcomeRefundToBuyer, "")
	require.NoError(t, err)
	assert.Equal(t, models.DealStatusCancelled, again.Status)
	assert.Equal(t, 1, f.ledger.RefundCalls())

	// Противоположное решение по закрытой сделке — конфликт состояния.
	_, err = f.svc.AdminResolveDispute(ctx, adminID, deal.ID, OutcomeReleaseToSeller, "")
	assert.True(t, apperror.Is(err, apperror.ErrCodeInvalidState))
}

func TestEscrowService_AdminResolveDispute_ReleaseToSeller(t *testing.T) {
	f := newEscrowFixture(t)
	ctx := context.Background()
	sellerID := uuid.New()
	buyerID := uuid.New()

	deal := disputedDeal(t, f, sellerID, buyerID, "100")

	resolved, err := f.svc.AdminResolveDispute(ctx, uuid.New(), deal.ID, OutcomeReleaseToSeller, "")
	require.NoError(t, err)
	assert.Equal(t, models.DealStatusCompleted, resolved.Status)

	seller, err := f.ledger.GetBalance(ctx, sellerID)
	require.NoError(t, err)
	assert.True(t, seller.Available.Equal(decimal.RequireFromString("97.00")))

	platform, err := f.ledger.GetBalance(ctx, f.feeAccount)
	require.NoError(t, err)
	assert.True(t, platform.Available.Equal(decimal.RequireFromString("3.00")))
}

func TestEscrowService_AdminResolveDispute_InvalidOutcome(t *testing.T) {
	f := newEscrowFixture(t)
	sellerID := uuid.New()
	buyerID := uuid.New()

	deal := disputedDeal(t, f, sellerID, buyerID, "100")

	_, err := f.svc.AdminResolveDispute(context.Background(), uuid.New(), deal.ID, Outcome("split_even"), "")
	assert.True(t, apperror.IsValidation(err))
}

func TestEscrowService_AdminResolveDispute_NotDisputed(t *testing.T) {
	f := newEscrowFixture(t)
	sellerID := uuid.New()
	buyerID := uuid.New()

	deal := f.paidDeal(t, sellerID, buyerID, "100")

	_, err := f.svc.AdminResolveDispute(context.Background(), uuid.New(), deal.ID, OutcomeRefundToBuyer, "")
	assert.True(t, apperror.Is(err, apperror.ErrCodeInvalidState))
	assert.Equal(t, 0, f.ledger.RefundCalls())
}

func TestEscrowService_CancelOpenDeal(t *testing.T) {
	f := newEscrowFixture(t)
	ctx := context.Background()
	sellerID := uuid.New()

	deal := f.openDeal(t, sellerID, "100")

	_, err := f.svc.CancelOpenDeal(ctx, uuid.New(), deal.ID)
	assert.True(t, apperror.IsForbidden(err))

	cancelled, err := f.svc.CancelOpenDeal(ctx, sellerID, deal.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DealStatusCancelled, cancelled.Status)

	// Покупателя не было, леджер не участвует.
	assert.Equal(t, 0, f.ledger.RefundCalls())
}

func TestEscrowService_CancelOpenDeal_AfterJoin(t *testing.T) {
	f := newEscrowFixture(t)
	sellerID := uuid.New()
	buyerID := uuid.New()

	deal := f.paidDeal(t, sellerID, buyerID, "100")

	_, err := f.svc.CancelOpenDeal(context.Background(), sellerID, deal.ID)
	assert.True(t, apperror.Is(err, apperror.ErrCodeInvalidState), "оплаченную сделку нельзя снять с продажи")
}

func TestEscrowService_GetDeal_WithJournal(t *testing.T) {
	f := newEscrowFixture(t)
	ctx := context.Background()
	sellerID := uuid.New()
	buyerID := uuid.New()

	deal := f.paidDeal(t, sellerID, buyerID, "100")
	_, err := f.svc.SellerMarkSent(ctx, sellerID, deal.ID)
	require.NoError(t, err)
	_, err = f.svc.BuyerConfirmReceipt(ctx, buyerID, deal.ID)
	require.NoError(t, err)

	loaded, messages, err := f.svc.GetDeal(ctx, deal.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DealStatusCompleted, loaded.Status)

	// Журнал хранит весь жизненный цикл: создание, оплата, отправка, завершение.
	require.Len(t, messages, 4)
	for _, m := range messages {
		assert.True(t, m.IsSystem)
	}
	assert.True(t, strings.Contains(messages[len(messages)-1].Content, "завершена"))
}

func TestEscrowService_ListDeals_UnknownStatus(t *testing.T) {
	f := newEscrowFixture(t)

	_, err := f.svc.ListDeals(context.Background(), "frozen", nil, 20, 0)
	assert.True(t, apperror.IsValidation(err))
}

func TestEscrowService_ListDeals_Mine(t *testing.T) {
	f := newEscrowFixture(t)
	ctx := context.Background()
	sellerID := uuid.New()
	buyerID := uuid.New()

	f.openDeal(t, sellerID, "100")
	f.paidDeal(t, sellerID, buyerID, "50")
	f.openDeal(t, uuid.New(), "70")

	mine, err := f.svc.ListDeals(ctx, "", &buyerID, 20, 0)
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	open, err := f.svc.ListDeals(ctx, models.DealStatusOpen, nil, 20, 0)
	require.NoError(t, err)
	assert.Len(t, open, 2)
}
