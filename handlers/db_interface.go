package handlers

import (
	"context"

	"venue-manager/chat"
	"venue-manager/models"
	"venue-manager/persistence"
	"venue-manager/reports"
)

// Store is the persistence the HTTP layer needs. *db.Manager implements it.
type Store interface {
	chat.Store
	reports.Store

	Ping(ctx context.Context) error

	CreateUser(ctx context.Context, u *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	ListUsers(ctx context.Context) ([]*models.User, error)
	UpdateUser(ctx context.Context, u *models.User) error
	DeleteUser(ctx context.Context, id int64) error

	CreateEvent(ctx context.Context, e *models.Event) error
	ListEvents(ctx context.Context, skip, limit int) ([]*models.Event, int, error)
	UpdateEvent(ctx context.Context, e *models.Event) error
	DeleteEvent(ctx context.Context, id int64) error

	CreateCost(ctx context.Context, c *models.Cost) error
	GetCost(ctx context.Context, id int64) (*models.Cost, error)
	ListCosts(ctx context.Context, eventID *int64) ([]*models.Cost, error)
	UpdateCost(ctx context.Context, c *models.Cost) error
	DeleteCost(ctx context.Context, id int64) error

	CreateRevenue(ctx context.Context, r *models.Revenue) error
	GetRevenue(ctx context.Context, id int64) (*models.Revenue, error)
	ListRevenue(ctx context.Context, eventID *int64) ([]*models.Revenue, error)
	UpdateRevenue(ctx context.Context, r *models.Revenue) error
	DeleteRevenue(ctx context.Context, id int64) error

	CreateStaff(ctx context.Context, a *models.StaffAssignment) error
	GetStaff(ctx context.Context, id int64) (*models.StaffAssignment, error)
	ListStaff(ctx context.Context, eventID int64) ([]*models.StaffAssignment, error)
	UpdateStaff(ctx context.Context, a *models.StaffAssignment) error
	DeleteStaff(ctx context.Context, id int64) error

	CreateReceipt(ctx context.Context, r *models.Receipt) error
	GetReceipt(ctx context.Context, id int64) (*models.Receipt, error)
	ListReceipts(ctx context.Context, status models.ReceiptStatus, skip, limit int) ([]*models.Receipt, int, error)
	UpdateReceipt(ctx context.Context, r *models.Receipt) error
	DeleteReceipt(ctx context.Context, id int64) error
	BookReceipt(ctx context.Context, id int64, c *models.Cost) error

	ListPublicMessages(ctx context.Context, limit int) ([]*models.ChatMessage, error)
	ListConversation(ctx context.Context, userA, userB int64, limit int) ([]*models.ChatMessage, error)
	MarkRead(ctx context.Context, messageID, recipientID int64) error
	MarkConversationRead(ctx context.Context, senderID, recipientID int64) error
	UnreadCounts(ctx context.Context, userID int64) ([]models.UnreadCount, error)
}

// ImageStore keeps uploaded receipt images.
type ImageStore interface {
	Put(img *persistence.Image) (string, error)
	Get(key string) (*persistence.Image, error)
	Delete(key string) error
}
