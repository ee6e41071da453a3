package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hpyride/hpyride/internal/domain/models"
)

// ChatRepo stores booking threads in chat_messages.
type ChatRepo struct {
	db *pgxpool.Pool
}

func NewChatRepo(db *pgxpool.Pool) *ChatRepo {
	return &ChatRepo{db: db}
}

func (r *ChatRepo) Create(ctx context.Context, m *models.ChatMessage) error {
	const q = `
		INSERT INTO chat_messages (booking_id, sender_id, text)
		VALUES ($1, $2, $3)
		RETURNING id, created_at;`

	if err := TxorDB(ctx, r.db).QueryRow(ctx, q, m.BookingID, m.SenderID, m.Text).Scan(&m.ID, &m.CreatedAt); err != nil {
		return fmt.Errorf("chat repo: Create: %w", err)
	}
	return nil
}

// ListByBooking returns messages oldest first.
func (r *ChatRepo) ListByBooking(ctx context.Context, bookingID uuid.UUID, filters models.Filters) ([]models.ChatMessage, models.Metadata, error) {
	const q = `
		SELECT count(*) OVER(), id, booking_id, sender_id, text, created_at
		FROM chat_messages
		WHERE booking_id = $1
		ORDER BY created_at ASC, id ASC
		LIMIT $2 OFFSET $3`

	rows, err := TxorDB(ctx, r.db).Query(ctx, q, bookingID, filters.Limit(), filters.Offset())
	if err != nil {
		return nil, models.Metadata{}, fmt.Errorf("chat repo: ListByBooking: %w", err)
	}
	defer rows.Close()

	var (
		total int
		list  = []models.ChatMessage{}
	)
	for rows.Next() {
		var m models.ChatMessage
		if err := rows.Scan(&total, &m.ID, &m.BookingID, &m.SenderID, &m.Text, &m.CreatedAt); err != nil {
			return nil, models.Metadata{}, fmt.Errorf("chat repo: ListByBooking: %w", err)
		}
		list = append(list, m)
	}
	if err := rows.Err(); err != nil {
		return nil, models.Metadata{}, fmt.Errorf("chat repo: ListByBooking: %w", err)
	}

	return list, models.CalculateMetadata(total, filters.Page, filters.PageSize), nil
}

// CarChatRepo stores listing threads in car_chats.
type CarChatRepo struct {
	db *pgxpool.Pool
}

func NewCarChatRepo(db *pgxpool.Pool) *CarChatRepo {
	return &CarChatRepo{db: db}
}

func (r *CarChatRepo) Create(ctx context.Context, m *models.CarChatMessage) error {
	const q = `
		INSERT INTO car_chats (listing_id, sender_id, recipient_id, text)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at;`

	err := TxorDB(ctx, r.db).QueryRow(ctx, q, m.ListingID, m.SenderID, m.RecipientID, m.Text).Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		return fmt.Errorf("car chat repo: Create: %w", err)
	}
	return nil
}

func (r *CarChatRepo) ListByListing(ctx context.Context, listingID, userID uuid.UUID, filters models.Filters) ([]models.CarChatMessage, models.Metadata, error) {
	const q = `
		SELECT count(*) OVER(), id, listing_id, sender_id, recipient_id, text, created_at
		FROM car_chats
		WHERE listing_id = $1 AND (sender_id = $2 OR recipient_id = $2)
		ORDER BY created_at ASC, id ASC
		LIMIT $3 OFFSET $4`

	rows, err := TxorDB(ctx, r.db).Query(ctx, q, listingID, userID, filters.Limit(), filters.Offset())
	if err != nil {
		return nil, models.Metadata{}, fmt.Errorf("car chat repo: ListByListing: %w", err)
	}
	defer rows.Close()

	var (
		total int
		list  = []models.CarChatMessage{}
	)
	for rows.Next() {
		var m models.CarChatMessage
		if err := rows.Scan(&total, &m.ID, &m.ListingID, &m.SenderID, &m.RecipientID, &m.Text, &m.CreatedAt); err != nil {
			return nil, models.Metadata{}, fmt.Errorf("car chat repo: ListByListing: %w", err)
		}
		list = append(list, m)
	}
	if err := rows.Err(); err != nil {
		return nil, models.Metadata{}, fmt.Errorf("car chat repo: ListByListing: %w", err)
	}

	return list, models.CalculateMetadata(total, filters.Page, filters.PageSize), nil
}
