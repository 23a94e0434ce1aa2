package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/tradeclub/escrow-backend/internal/models"
	"github.com/tradeclub/escrow-backend/internal/repository/common"
)

var (
	ErrDealNotFound = errors.New("deal not found")
	// ErrVersionConflict возвращается, когда compare-and-swap по версии не
	// прошёл: сделку успел изменить конкурентный вызов. Репозиторий сам
	// НЕ повторяет операцию — политика ретраев принадлежит вызывающему.
	ErrVersionConflict = errors.New("deal version conflict")
)

type DealRepository struct {
	db *sqlx.DB
}

func NewDealRepository(db *sqlx.DB) *DealRepository {
	return &DealRepository{db: db}
}

// Insert создаёт новую сделку в статусе open.
func (r *DealRepository) Insert(ctx context.Context, deal *models.Deal) error {
	query := `
		INSERT INTO deals (seller_id, title, description, price, commission_rate, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at, version
	`
	if err := r.db.QueryRowxContext(
		ctx,
		query,
		deal.SellerID,
		deal.Title,
		deal.Description,
		deal.Price,
		deal.CommissionRate,
		deal.Status,
	).Scan(&deal.ID, &deal.CreatedAt, &deal.UpdatedAt, &deal.Version); err != nil {
		return fmt.Errorf("deal repository: insert %w", err)
	}
	return nil
}

// GetByID возвращает сделку вместе с её версией.
func (r *DealRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Deal, error) {
	return common.GetByID[models.Deal](ctx, r.db, "deals", id, ErrDealNotFound)
}

// ListByStatus возвращает сделки по статусу. Если задан requester,
// выборка ограничивается сделками, где он продавец или покупатель
// (режим "мои сделки"); пустой статус тогда означает все статусы.
func (r *DealRepository) ListByStatus(ctx context.Context, status string, requester *uuid.UUID, limit, offset int) ([]models.Deal, error) {
	query := `SELECT * FROM deals WHERE 1=1`
	args := []interface{}{}
	argIndex := 1

	if status != "" {
		query += fmt.Sprintf(" AND status = $%d", argIndex)
		args = append(args, status)
		argIndex++
	}

	if requester != nil {
		query += fmt.Sprintf(" AND (seller_id = $%d OR buyer_id = $%d)", argIndex, argIndex)
		args = append(args, *requester)
		argIndex++
	}

	query += " ORDER BY created_at DESC"

	if limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIndex)
		args = append(args, limit)
		argIndex++
	}
	if offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argIndex)
		args = append(args, offset)
	}

	var deals []models.Deal
	if err := r.db.SelectContext(ctx, &deals, query, args...); err != nil {
		return nil, fmt.Errorf("deal repository: list %w", err)
	}
	return deals, nil
}

// DealTransition описывает поля, изменяемые одним легальным переходом.
// nil означает "не трогать"; Clear* выставляют колонку в NULL.
type DealTransition struct {
	Status          *string
	Step            *string
	ClearStep       bool
	BuyerID         *uuid.UUID
	ClearBuyer      bool
	DisputeReason   *string
	DisputeOpenedBy *uuid.UUID
	CompletedAt     *time.Time

	// RequireOpenUnclaimed добавляет SQL-охрану status='open' AND
	// buyer_id IS NULL: на гонке JoinAndPay выигрывает ровно один вызов,
	// проигравшие не производят никаких побочных эффектов.
	RequireOpenUnclaimed bool
}

// UpdateTransition атомарно применяет переход состояния, охраняемый
// версией сделки. Возвращает ErrVersionConflict, если версия устарела.
func (r *DealRepository) UpdateTransition(ctx context.Context, dealID uuid.UUID, expectedVersion int64, tr DealTransition) (*models.Deal, error) {
	query := `UPDATE deals SET updated_at = NOW(), version = version + 1`
	args := []interface{}{}
	argIndex := 1

	appendSet := func(column string, value interface{}) {
		query += fmt.Sprintf(", %s = $%d", column, argIndex)
		args = append(args, value)
		argIndex++
	}

	if tr.Status != nil {
		appendSet("status", *tr.Status)
	}
	if tr.ClearStep {
		query += ", step = NULL"
	} else if tr.Step != nil {
		appendSet("step", *tr.Step)
	}
	if tr.ClearBuyer {
		query += ", buyer_id = NULL"
	} else if tr.BuyerID != nil {
		appendSet("buyer_id", *tr.BuyerID)
	}
	if tr.DisputeReason != nil {
		appendSet("dispute_reason", *tr.DisputeReason)
	}
	if tr.DisputeOpenedBy != nil {
		appendSet("dispute_opened_by", *tr.DisputeOpenedBy)
	}
	if tr.CompletedAt != nil {
		appendSet("completed_at", *tr.CompletedAt)
	}

	query += fmt.Sprintf(" WHERE id = $%d AND version = $%d", argIndex, argIndex+1)
	args = append(args, dealID, expectedVersion)
	if tr.RequireOpenUnclaimed {
		query += " AND status = 'open' AND buyer_id IS NULL"
	}
	query += " RETURNING *"

	var deal models.Deal
	if err := r.db.GetContext(ctx, &deal, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Разделяем "нет такой сделки" и "версия устарела".
			if _, getErr := r.GetByID(ctx, dealID); getErr != nil {
				return nil, getErr
			}
			return nil, ErrVersionConflict
		}
		return nil, fmt.Errorf("deal repository: update transition %w", err)
	}
	return &deal, nil
}
