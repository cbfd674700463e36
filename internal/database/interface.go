package database

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jesses-code-adventures/tims/internal/models"
)

var (
	ErrNoRows          = sql.ErrNoRows
	ErrUniqueViolation = errors.New("unique constraint violated")
)

// Range is a half-open [Start, End) interval of epoch seconds. A zero End
// means no upper bound.
type Range struct {
	Start int64
	End   int64
}

type WorkFilter struct {
	Range
	// ClientIDs restricts results to the given clients; nil means all.
	ClientIDs []string
	UserID    string
}

type InvoiceFilter struct {
	Range     *Range
	ClientIDs []string
}

type PaymentFilter struct {
	Range     *Range
	ClientIDs []string
}

type DB interface {
	Close() error
	WithTx(ctx context.Context, fn func(tx DB) error) error

	CreateClient(ctx context.Context, c *models.Client) error
	GetClient(ctx context.Context, id string) (*models.Client, error)
	GetClientByName(ctx context.Context, name string) (*models.Client, error)
	ListClients(ctx context.Context, ids []string, archived bool) ([]*models.Client, error)
	UpdateClient(ctx context.Context, c *models.Client) error

	CreateProject(ctx context.Context, p *models.Project) error
	GetProject(ctx context.Context, id string) (*models.Project, error)
	ListProjects(ctx context.Context, clientID string, archived bool) ([]*models.Project, error)
	UpdateProject(ctx context.Context, p *models.Project) error

	CreateTask(ctx context.Context, t *models.Task) error
	GetTask(ctx context.Context, id string) (*models.Task, error)
	ListTasks(ctx context.Context, projectID string, archived bool) ([]*models.Task, error)
	UpdateTask(ctx context.Context, t *models.Task) error

	CreateWorkPeriod(ctx context.Context, w *models.WorkPeriod) error
	GetWorkPeriod(ctx context.Context, id string) (*models.WorkPeriod, error)
	GetOpenWorkPeriod(ctx context.Context, userID string) (*models.WorkDetail, error)
	UpdateWorkPeriod(ctx context.Context, w *models.WorkPeriod) error
	DeleteWorkPeriod(ctx context.Context, id string) error
	ListWorkPeriods(ctx context.Context, filter WorkFilter) ([]*models.WorkDetail, error)
	ListTaskTotals(ctx context.Context, filter WorkFilter) ([]*models.TaskTotal, error)

	GetCompany(ctx context.Context) (*models.Company, error)
	CreateCompany(ctx context.Context, c *models.Company) error
	UpdateCompany(ctx context.Context, c *models.Company) error
	ListCompanyTaxes(ctx context.Context, companyID string) ([]models.CompanyTax, error)
	ReplaceCompanyTaxes(ctx context.Context, companyID string, taxes []models.CompanyTax) error

	CreateInvoice(ctx context.Context, inv *models.Invoice) error
	GetInvoice(ctx context.Context, id string) (*models.Invoice, error)
	ListInvoices(ctx context.Context, filter InvoiceFilter) ([]*models.Invoice, error)
	DeleteInvoice(ctx context.Context, id string) error
	CreateInvoiceItem(ctx context.Context, item *models.InvoiceItem) error
	ListInvoiceItems(ctx context.Context, invoiceID string) ([]models.InvoiceItem, error)
	CreateInvoiceAdditional(ctx context.Context, a *models.InvoiceAdditional) error
	ListInvoiceAdditional(ctx context.Context, invoiceID string) ([]models.InvoiceAdditional, error)

	CreatePayment(ctx context.Context, p *models.Payment) error
	ListPayments(ctx context.Context, filter PaymentFilter) ([]*models.Payment, error)

	CreateUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	ListUsers(ctx context.Context, archived bool) ([]*models.User, error)
	UpdateUser(ctx context.Context, u *models.User) error
	CountUsers(ctx context.Context) (int, error)

	CreateAccess(ctx context.Context, a *models.Access) error
	GetAccess(ctx context.Context, id string) (*models.Access, error)
	ListAccess(ctx context.Context, userID string) ([]*models.Access, error)
	DeleteAccess(ctx context.Context, userID, clientID string) error

	CreateKey(ctx context.Context, k *models.Key) error
	GetKey(ctx context.Context, id string) (*models.Key, error)
	GetKeyByUser(ctx context.Context, userID string, keyType models.KeyType) (*models.Key, error)
	DeleteKey(ctx context.Context, id string) error
}
