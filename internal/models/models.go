package models

import (
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// Role is one of the fixed user roles
type Role struct {
	ID   uint   `gorm:"primaryKey" json:"role_id"`
	Name string `gorm:"not null;uniqueIndex" json:"role_name"`
}

// Role names used by the access policy
const (
	RoleAdmin      = "admin"
	RoleDispatcher = "dispatcher"
	RoleTeamLeader = "team_leader"
)

// User represents an application user
type User struct {
	ID           uint      `gorm:"primaryKey" json:"user_id"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"-"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"-"`
	FullName     string    `gorm:"not null" json:"full_name"`
	Email        string    `gorm:"not null;uniqueIndex" json:"email"`
	PasswordHash string    `gorm:"not null" json:"-"`
	RoleID       uint      `gorm:"not null" json:"-"`
	Role         Role      `gorm:"foreignKey:RoleID" json:"-"`
}

// Client is a customer that owns one or more stores
type Client struct {
	ID        uint      `gorm:"primaryKey;column:client_id" json:"client_id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"-"`
	Name      string    `gorm:"column:client_name;not null" json:"client_name"`
}

// Store is a client location that work orders are raised against
type Store struct {
	ID        uint      `gorm:"primaryKey;column:store_id" json:"store_id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"-"`
	ClientID  uint      `gorm:"not null" json:"client_id"`
	Name      string    `gorm:"column:store_name;not null" json:"store_name"`
	Client    Client    `gorm:"foreignKey:ClientID" json:"-"`
}

// StoreRow is a store joined with its client's display name
type StoreRow struct {
	Store
	ClientName string `json:"client_name"`
}

// WorkOrder is a unit of field-service work tied to a store. It is
// addressable by its surrogate id or by its business number.
type WorkOrder struct {
	ID                 uint      `gorm:"primaryKey;column:work_order_id" json:"work_order_id"`
	CreatedAt          time.Time `gorm:"autoCreateTime" json:"-"`
	UpdatedAt          time.Time `gorm:"autoUpdateTime" json:"-"`
	Number             string    `gorm:"column:work_order_number;not null;uniqueIndex;size:50" json:"work_order_number"`
	StoreID            uint      `gorm:"not null" json:"store_id"`
	AddressLine        string    `gorm:"not null" json:"address_line"`
	City               *string   `json:"city"`
	State              *string   `json:"state"`
	ZipCode            *string   `json:"zip_code"`
	Description        *string   `json:"description"`
	AssignedDispatcher uint      `gorm:"not null" json:"assigned_dispatcher"`
	NTE                *float64  `gorm:"column:nte" json:"nte"`
	ETADate            *string   `gorm:"column:eta_date;size:10" json:"eta_date"`
	CurrentStatus      string    `gorm:"not null" json:"current_status"`
	Store              Store     `gorm:"foreignKey:StoreID" json:"-"`
	Dispatcher         User      `gorm:"foreignKey:AssignedDispatcher" json:"-"`
	Notes              []Note    `gorm:"foreignKey:WorkOrderID" json:"-"`
}

// WorkOrderRow is a work order joined with its display context
type WorkOrderRow struct {
	WorkOrder
	StoreName      string  `json:"store_name"`
	ClientID       uint    `json:"client_id"`
	ClientName     string  `json:"client_name"`
	DispatcherName *string `json:"dispatcher_name"`
}

// Note is an append-only free-text entry on a work order
type Note struct {
	ID          uint      `gorm:"primaryKey;column:note_id" json:"note_id"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	WorkOrderID uint      `gorm:"not null;index" json:"work_order_id"`
	UserID      uint      `gorm:"not null" json:"user_id"`
	Text        string    `gorm:"column:note_text;not null" json:"note_text"`
	User        User      `gorm:"foreignKey:UserID" json:"-"`
}

// NoteRow is a note joined with its author's display name
type NoteRow struct {
	Note
	FullName *string `json:"full_name"`
}

// Attachment categories. Uploads in any of the four are accepted;
// the grouped listing only returns the first three.
const (
	CategoryBefore   = "before"
	CategoryAfter    = "after"
	CategorySignoff  = "signoff"
	CategoryDocument = "document"
)

// AttachmentCategories is the closed set of recognized upload categories
var AttachmentCategories = []string{CategoryBefore, CategoryAfter, CategorySignoff, CategoryDocument}

// IsValidCategory reports whether cat names a recognized attachment category
func IsValidCategory(cat string) bool {
	for _, c := range AttachmentCategories {
		if c == cat {
			return true
		}
	}
	return false
}

// FileAttachment is an append-only file record on a work order. Path is
// relative to the upload root and partitioned per order and category.
type FileAttachment struct {
	ID          uint      `gorm:"primaryKey;column:file_id" json:"file_id"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"-"`
	WorkOrderID uint      `gorm:"not null;index" json:"work_order_id"`
	Category    string    `gorm:"column:file_type;not null" json:"file_type"`
	Path        string    `gorm:"column:file_name;not null" json:"file_name"`
}

// Technician is a field worker directory entry, not linked to work orders
type Technician struct {
	ID          uint      `gorm:"primaryKey;column:technician_id" json:"technician_id"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"-"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"-"`
	FullName    string    `gorm:"not null" json:"full_name"`
	Trade       *string   `json:"trade"`
	Phone       *string   `json:"phone"`
	City        *string   `json:"city"`
	State       *string   `json:"state"`
	PaymentInfo *string   `json:"payment_info"`
}

// SetupModels configures GORM models and runs migrations
func SetupModels(db *gorm.DB) error {
	err := db.AutoMigrate(
		&Role{},
		&User{},
		&Client{},
		&Store{},
		&WorkOrder{},
		&Note{},
		&FileAttachment{},
		&Technician{},
	)
	if err != nil {
		return errors.Wrap(err, "failed to run auto migrations")
	}

	return nil
}

// SeedRoles inserts the fixed role vocabulary if missing
func SeedRoles(db *gorm.DB) error {
	for _, name := range []string{RoleAdmin, RoleDispatcher, RoleTeamLeader} {
		role := Role{Name: name}
		if err := db.Where("name = ?", name).FirstOrCreate(&role).Error; err != nil {
			return errors.Wrapf(err, "failed to seed role %s", name)
		}
	}
	return nil
}
