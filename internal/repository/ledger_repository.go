package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/tradeclub/escrow-backend/internal/custody"
	"github.com/tradeclub/escrow-backend/internal/models"
	"github.com/tradeclub/escrow-backend/internal/repository/common"
)

// LedgerRepository — кастодиальный адаптер поверх Postgres. Владеет
// таблицами user_balances, holds и журналом transactions. Сериализация
// по пользователю обеспечивается блокировкой строки баланса FOR UPDATE;
// резерв ключуется deal_id и потому идемпотентен к ретраям.
type LedgerRepository struct {
	db *sqlx.DB
}

func NewLedgerRepository(db *sqlx.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// GetBalance возвращает баланс пользователя, создаёт если не существует.
func (r *LedgerRepository) GetBalance(ctx context.Context, userID uuid.UUID) (*models.UserBalance, error) {
	var balance models.UserBalance
	query := `
		INSERT INTO user_balances (user_id, available, frozen)
		VALUES ($1, 0, 0)
		ON CONFLICT (user_id) DO UPDATE SET updated_at = NOW()
		RETURNING user_id, available, frozen, updated_at
	`
	if err := r.db.GetContext(ctx, &balance, query, userID); err != nil {
		return nil, fmt.Errorf("ledger repository: get balance %w", err)
	}
	return &balance, nil
}

// Deposit пополняет баланс пользователя.
func (r *LedgerRepository) Deposit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) error {
	return common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO user_balances (user_id, available, frozen)
			VALUES ($1, $2, 0)
			ON CONFLICT (user_id) DO UPDATE SET available = user_balances.available + $2, updated_at = NOW()
		`, userID, amount)
		if err != nil {
			return fmt.Errorf("ledger repository: deposit update balance %w", err)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO transactions (user_id, type, amount, status, description, completed_at)
			VALUES ($1, 'deposit', $2, 'completed', 'Пополнение баланса', NOW())
		`, userID, amount)
		if err != nil {
			return fmt.Errorf("ledger repository: deposit create transaction %w", err)
		}
		return nil
	})
}

// Reserve замораживает средства покупателя под сделку. Проверка баланса и
// заморозка атомарны: строка баланса блокируется FOR UPDATE, поэтому
// овердрафт невозможен и при конкурентных резервах по разным сделкам.
// Повторный вызов с тем же deal_id возвращает уже существующий резерв.
func (r *LedgerRepository) Reserve(ctx context.Context, dealID, buyerID uuid.UUID, amount decimal.Decimal) (*models.Hold, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	// Ретрай после таймаута: резерв по этой сделке уже мог быть создан.
	var existing models.Hold
	err = tx.GetContext(ctx, &existing, `SELECT * FROM holds WHERE deal_id = $1 FOR UPDATE`, dealID)
	if err == nil {
		if existing.Status == models.HoldStatusHeld && existing.BuyerID == buyerID {
			return &existing, tx.Commit()
		}
		return nil, custody.ErrAlreadySettled
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("ledger repository: reserve lookup hold %w", err)
	}

	var balance models.UserBalance
	err = tx.GetContext(ctx, &balance, `SELECT user_id, available, frozen FROM user_balances WHERE user_id = $1 FOR UPDATE`, buyerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, custody.ErrInsufficientFunds
		}
		return nil, fmt.Errorf("ledger repository: reserve lock balance %w", err)
	}
	if balance.Available.LessThan(amount) {
		return nil, custody.ErrInsufficientFunds
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE user_balances SET available = available - $2, frozen = frozen + $2, updated_at = NOW()
		WHERE user_id = $1
	`, buyerID, amount)
	if err != nil {
		return nil, fmt.Errorf("ledger repository: reserve freeze %w", err)
	}

	var hold models.Hold
	err = tx.GetContext(ctx, &hold, `
		INSERT INTO holds (deal_id, buyer_id, amount, status)
		VALUES ($1, $2, $3, 'held')
		RETURNING *
	`, dealID, buyerID, amount)
	if err != nil {
		return nil, fmt.Errorf("ledger repository: reserve create hold %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO transactions (user_id, deal_id, type, amount, status, description, completed_at)
		VALUES ($1, $2, 'hold', $3, 'completed', 'Заморозка средств по сделке', NOW())
	`, buyerID, dealID, amount)
	if err != nil {
		return nil, fmt.Errorf("ledger repository: reserve journal %w", err)
	}

	return &hold, tx.Commit()
}

// Release одним атомарным движением переводит резерв: продавцу — сумму за
// вычетом комиссии, счёту площадки — комиссию. Охраняется status='held':
// повторный вызов по решённому резерву не двигает средства второй раз.
func (r *LedgerRepository) Release(ctx context.Context, dealID, sellerID uuid.UUID, net decimal.Decimal, feeAccount uuid.UUID, fee decimal.Decimal) (*models.Hold, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	hold, err := r.lockHeldHold(ctx, tx, dealID)
	if err != nil {
		return nil, err
	}

	// Снимаем заморозку у покупателя.
	_, err = tx.ExecContext(ctx, `
		UPDATE user_balances SET frozen = frozen - $2, updated_at = NOW()
		WHERE user_id = $1
	`, hold.BuyerID, hold.Amount)
	if err != nil {
		return nil, fmt.Errorf("ledger repository: release unfreeze %w", err)
	}

	// Начисляем продавцу.
	_, err = tx.ExecContext(ctx, `
		INSERT INTO user_balances (user_id, available, frozen)
		VALUES ($1, $2, 0)
		ON CONFLICT (user_id) DO UPDATE SET available = user_balances.available + $2, updated_at = NOW()
	`, sellerID, net)
	if err != nil {
		return nil, fmt.Errorf("ledger repository: release pay seller %w", err)
	}

	// Начисляем комиссию счёту площадки.
	_, err = tx.ExecContext(ctx, `
		INSERT INTO user_balances (user_id, available, frozen)
		VALUES ($1, $2, 0)
		ON CONFLICT (user_id) DO UPDATE SET available = user_balances.available + $2, updated_at = NOW()
	`, feeAccount, fee)
	if err != nil {
		return nil, fmt.Errorf("ledger repository: release pay fee %w", err)
	}

	now := time.Now()
	_, err = tx.ExecContext(ctx, `UPDATE holds SET status = 'released', released_at = $2 WHERE id = $1`, hold.ID, now)
	if err != nil {
		return nil, fmt.Errorf("ledger repository: release update hold %w", err)
	}
	hold.Status = models.HoldStatusReleased
	hold.ReleasedAt = &now

	_, err = tx.ExecContext(ctx, `
		INSERT INTO transactions (user_id, deal_id, type, amount, status, description, completed_at)
		VALUES ($1, $4, 'release', $2, 'completed', 'Выплата по сделке', NOW()),
		       ($3, $4, 'fee', $5, 'completed', 'Комиссия площадки', NOW())
	`, sellerID, net, feeAccount, dealID, fee)
	if err != nil {
		return nil, fmt.Errorf("ledger repository: release journal %w", err)
	}

	return hold, tx.Commit()
}

// Refund возвращает резерв покупателю целиком. Комиссия не взимается.
func (r *LedgerRepository) Refund(ctx context.Context, dealID uuid.UUID) (*models.Hold, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	hold, err := r.lockHeldHold(ctx, tx, dealID)
	if err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE user_balances SET available = available + $2, frozen = frozen - $2, updated_at = NOW()
		WHERE user_id = $1
	`, hold.BuyerID, hold.Amount)
	if err != nil {
		return nil, fmt.Errorf("ledger repository: refund restore balance %w", err)
	}

	now := time.Now()
	_, err = tx.ExecContext(ctx, `UPDATE holds SET status = 'refunded', released_at = $2 WHERE id = $1`, hold.ID, now)
	if err != nil {
		return nil, fmt.Errorf("ledger repository: refund update hold %w", err)
	}
	hold.Status = models.HoldStatusRefunded
	hold.ReleasedAt = &now

	_, err = tx.ExecContext(ctx, `
		INSERT INTO transactions (user_id, deal_id, type, amount, status, description, completed_at)
		VALUES ($1, $2, 'refund', $3, 'completed', 'Возврат средств по сделке', NOW())
	`, hold.BuyerID, dealID, hold.Amount)
	if err != nil {
		return nil, fmt.Errorf("ledger repository: refund journal %w", err)
	}

	return hold, tx.Commit()
}

// GetHold возвращает резерв по сделке.
func (r *LedgerRepository) GetHold(ctx context.Context, dealID uuid.UUID) (*models.Hold, error) {
	return common.GetByField[models.Hold](ctx, r.db, "holds", "deal_id", dealID, custody.ErrHoldNotFound)
}

// ListTransactions возвращает историю движений средств пользователя.
func (r *LedgerRepository) ListTransactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Transaction, error) {
	var transactions []models.Transaction
	err := r.db.SelectContext(ctx, &transactions, `
		SELECT * FROM transactions WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("ledger repository: list transactions %w", err)
	}
	return transactions, nil
}

// lockHeldHold блокирует активный резерв сделки. Для уже решённого резерва
// возвращает ErrAlreadySettled — вызывающий трактует это как идемпотентный
// no-op, а не как ошибку.
func (r *LedgerRepository) lockHeldHold(ctx context.Context, tx *sqlx.Tx, dealID uuid.UUID) (*models.Hold, error) {
	var hold models.Hold
	err := tx.GetContext(ctx, &hold, `SELECT * FROM holds WHERE deal_id = $1 FOR UPDATE`, dealID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, custody.ErrHoldNotFound
		}
		return nil, fmt.Errorf("ledger repository: lock hold %w", err)
	}
	if hold.Status != models.HoldStatusHeld {
		return nil, custody.ErrAlreadySettled
	}
	return &hold, nil
}
