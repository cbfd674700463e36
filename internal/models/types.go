package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type UserType string

const (
	UserAdmin      UserType = "admin"
	UserManager    UserType = "manager"
	UserAccounting UserType = "accounting"
	UserWorker     UserType = "worker"
	UserClient     UserType = "client"
)

type KeyType string

const (
	KeySetup  KeyType = "setup"
	KeyForgot KeyType = "forgot"
	KeyVerify KeyType = "verify"
)

type AdditionalType string

const (
	AdditionalCost     AdditionalType = "cost"
	AdditionalDiscount AdditionalType = "discount"
)

type Address struct {
	Address1   *string `json:"address1,omitempty" db:"address1"`
	Address2   *string `json:"address2,omitempty" db:"address2"`
	City       *string `json:"city,omitempty" db:"city"`
	Division   *string `json:"division,omitempty" db:"division"`
	Country    *string `json:"country,omitempty" db:"country"`
	PostalCode *string `json:"postal_code,omitempty" db:"postal_code"`
}

type Client struct {
	ID           string          `json:"id" db:"id"`
	Name         string          `json:"name" db:"name" validate:"required,max=64"`
	Rate         decimal.Decimal `json:"rate" db:"rate" validate:"gte=0"`
	TaskMinimum  int64           `json:"task_minimum" db:"task_minimum" validate:"gte=1"`
	TaskOverflow int64           `json:"task_overflow" db:"task_overflow" validate:"gte=0"`
	Due          int64           `json:"due" db:"due" validate:"gte=0"`
	Taxes        bool            `json:"taxes" db:"taxes"`
	Address
	Archived bool  `json:"archived" db:"archived"`
	Created  int64 `json:"created" db:"created"`
	Updated  int64 `json:"updated" db:"updated"`
}

type Project struct {
	ID          string  `json:"id" db:"id"`
	ClientID    string  `json:"client_id" db:"client_id" validate:"required"`
	Name        string  `json:"name" db:"name" validate:"required,max=64"`
	Description *string `json:"description,omitempty" db:"description"`
	Archived    bool    `json:"archived" db:"archived"`
	Created     int64   `json:"created" db:"created"`
	Updated     int64   `json:"updated" db:"updated"`
}

type Task struct {
	ID          string  `json:"id" db:"id"`
	ProjectID   string  `json:"project_id" db:"project_id" validate:"required"`
	Name        string  `json:"name" db:"name" validate:"required,max=64"`
	Description *string `json:"description,omitempty" db:"description"`
	Archived    bool    `json:"archived" db:"archived"`
	Created     int64   `json:"created" db:"created"`
	Updated     int64   `json:"updated" db:"updated"`
}

// WorkPeriod is open while End is nil.
type WorkPeriod struct {
	ID          string `json:"id" db:"id"`
	ProjectID   string `json:"project_id" db:"project_id" validate:"required"`
	TaskID      string `json:"task_id" db:"task_id" validate:"required"`
	UserID      string `json:"user_id" db:"user_id" validate:"required"`
	Start       int64  `json:"start" db:"start_at" validate:"gt=0"`
	End         *int64 `json:"end,omitempty" db:"end_at"`
	Description string `json:"description" db:"description" validate:"max=255"`
	Created     int64  `json:"created" db:"created"`
	Updated     int64  `json:"updated" db:"updated"`
}

func (w *WorkPeriod) Elapsed() int64 {
	if w.End == nil {
		return 0
	}
	return *w.End - w.Start
}

type WorkDetail struct {
	WorkPeriod
	ClientID    string `json:"client_id" db:"client_id"`
	ClientName  string `json:"client_name" db:"client_name"`
	ProjectName string `json:"project_name" db:"project_name"`
	TaskName    string `json:"task_name" db:"task_name"`
	UserName    string `json:"user_name" db:"user_name"`
}

// TaskTotal is the elapsed time of every period logged against one task.
type TaskTotal struct {
	TaskID      string `json:"task_id" db:"task_id"`
	TaskName    string `json:"task_name" db:"task_name"`
	ProjectID   string `json:"project_id" db:"project_id"`
	ProjectName string `json:"project_name" db:"project_name"`
	Elapsed     int64  `json:"elapsed" db:"elapsed"`
}

type Company struct {
	ID   string `json:"id" db:"id"`
	Name string `json:"name" db:"name" validate:"required,max=64"`
	Address
	Taxes   []CompanyTax `json:"taxes" db:"-"`
	Created int64        `json:"created" db:"created"`
	Updated int64        `json:"updated" db:"updated"`
}

type CompanyTax struct {
	ID         string          `json:"id" db:"id"`
	CompanyID  string          `json:"company_id" db:"company_id"`
	SortOrder  int             `json:"sort_order" db:"sort_order"`
	Name       string          `json:"name" db:"name" validate:"required,max=32"`
	Percentage decimal.Decimal `json:"percentage" db:"percentage" validate:"gte=0,lte=100"`
}

type TaxAmount struct {
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
}

// TaxList is stored as a JSON column on the invoice.
type TaxList []TaxAmount

func (t TaxList) Value() (driver.Value, error) {
	if t == nil {
		t = TaxList{}
	}
	b, err := json.Marshal(t)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (t *TaxList) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*t = TaxList{}
		return nil
	case string:
		return json.Unmarshal([]byte(v), t)
	case []byte:
		return json.Unmarshal(v, t)
	default:
		return fmt.Errorf("cannot scan %T into TaxList", src)
	}
}

type Invoice struct {
	ID         string          `json:"id" db:"id"`
	ClientID   string          `json:"client_id" db:"client_id"`
	Identifier string          `json:"identifier" db:"identifier"`
	Start      int64           `json:"start" db:"start_at"`
	End        int64           `json:"end" db:"end_at"`
	Subtotal   decimal.Decimal `json:"subtotal" db:"subtotal"`
	Total      decimal.Decimal `json:"total" db:"total"`
	Taxes      TaxList         `json:"taxes" db:"taxes"`
	Created    int64           `json:"created" db:"created"`
	Updated    int64           `json:"updated" db:"updated"`
}

type InvoiceItem struct {
	ID          string          `json:"id" db:"id"`
	InvoiceID   string          `json:"invoice_id" db:"invoice_id"`
	ProjectID   string          `json:"project_id" db:"project_id"`
	ProjectName string          `json:"project_name,omitempty" db:"project_name"`
	Minutes     int64           `json:"minutes" db:"minutes"`
	Amount      decimal.Decimal `json:"amount" db:"amount"`
	Created     int64           `json:"created" db:"created"`
}

type InvoiceAdditional struct {
	ID        string          `json:"id,omitempty" db:"id"`
	InvoiceID string          `json:"invoice_id,omitempty" db:"invoice_id"`
	Text      string          `json:"text" db:"text" validate:"required,max=255"`
	Type      AdditionalType  `json:"type" db:"type" validate:"required,oneof=cost discount"`
	Amount    decimal.Decimal `json:"amount" db:"amount" validate:"gt=0"`
	Created   int64           `json:"created,omitempty" db:"created"`
}

// InvoiceDetail is an invoice with its lines. Previews share the shape but
// carry no ID.
type InvoiceDetail struct {
	Invoice
	Items      []InvoiceItem       `json:"items"`
	Additional []InvoiceAdditional `json:"additional"`
	Minutes    int64               `json:"minutes"`
	Client     *Client             `json:"client,omitempty"`
	Company    *Company            `json:"company,omitempty"`
}

type Payment struct {
	ID          string          `json:"id" db:"id"`
	ClientID    string          `json:"client_id" db:"client_id" validate:"required"`
	Transaction string          `json:"transaction" db:"transaction_ref" validate:"required,max=64"`
	Amount      decimal.Decimal `json:"amount" db:"amount" validate:"gt=0"`
	PaidAt      int64           `json:"paid_at" db:"paid_at" validate:"gt=0"`
	Created     int64           `json:"created" db:"created"`
}

type User struct {
	ID       string   `json:"id" db:"id"`
	Email    string   `json:"email" db:"email" validate:"required,email,max=127"`
	Passwd   string   `json:"-" db:"passwd"`
	Name     string   `json:"name" db:"name" validate:"max=64"`
	Locale   string   `json:"locale" db:"locale" validate:"required,max=5"`
	Type     UserType `json:"type" db:"type" validate:"required,oneof=admin manager accounting worker client"`
	Verified bool     `json:"verified" db:"verified"`
	Archived bool     `json:"archived" db:"archived"`
	Created  int64    `json:"created" db:"created"`
	Updated  int64    `json:"updated" db:"updated"`
}

type Access struct {
	ID         string `json:"id" db:"id"`
	UserID     string `json:"user_id" db:"user_id"`
	ClientID   string `json:"client_id" db:"client_id"`
	ClientName string `json:"client_name,omitempty" db:"client_name"`
	Created    int64  `json:"created" db:"created"`
}

type Key struct {
	ID      string  `json:"id" db:"id"`
	UserID  string  `json:"user_id" db:"user_id"`
	Type    KeyType `json:"type" db:"type"`
	Created int64   `json:"created" db:"created"`
}

// CachedUser is the projection of a user kept in the user cache. A nil
// Access means the user is not restricted to specific clients.
type CachedUser struct {
	ID       string   `json:"id"`
	Email    string   `json:"email"`
	Name     string   `json:"name"`
	Locale   string   `json:"locale"`
	Type     UserType `json:"type"`
	Verified bool     `json:"verified"`
	Archived bool     `json:"archived"`
	Access   []string `json:"access"`
}

func (u *CachedUser) CanAccess(clientID string) bool {
	if u.Type == UserAdmin {
		return true
	}
	if u.Access == nil {
		return u.Type != UserClient
	}
	return slices.Contains(u.Access, clientID)
}

func NewUUID() string {
	return uuid.Must(uuid.NewV7()).String()
}
