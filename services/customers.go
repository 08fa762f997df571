package services

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/IkingariSolorzano/cinepoints-be/models"
	"github.com/IkingariSolorzano/cinepoints-be/repository"
)

const (
	defaultCustomerLimit  = 50
	customerRecentTxLimit = 10
)

type CustomerParams struct {
	Name  string `json:"name" validate:"required,max=120"`
	Phone string `json:"phone" validate:"required,min=8,max=20"`
	Email string `json:"email" validate:"omitempty,email"`
}

type CustomerService struct {
	store    *repository.Store
	tiers    *TierService
	validate *validator.Validate
	now      func() time.Time
}

func NewCustomerService(store *repository.Store, tiers *TierService) *CustomerService {
	return &CustomerService{
		store:    store,
		tiers:    tiers,
		validate: validator.New(),
		now:      time.Now,
	}
}

// Create registers a customer at BRONZE and opens its first tier interval
// in the same transaction.
func (s *CustomerService) Create(ctx context.Context, params CustomerParams) (*models.Customer, error) {
	params.Name = strings.TrimSpace(params.Name)
	params.Phone = strings.TrimSpace(params.Phone)
	params.Email = strings.TrimSpace(params.Email)
	if err := s.validate.Struct(params); err != nil {
		return nil, invalidInput("customer: %v", err)
	}

	customer := &models.Customer{
		Name:  params.Name,
		Phone: params.Phone,
		Email: params.Email,
		Tier:  models.TierBronze,
	}
	now := s.now().UTC()
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		if err := tx.CreateCustomer(customer); err != nil {
			return err
		}
		return s.tiers.open(tx, customer.ID, models.TierBronze, now)
	})
	if err != nil {
		if repository.IsDuplicate(err) {
			return nil, invalidInput("phone %s is already registered", params.Phone)
		}
		return nil, storageError("create customer", err)
	}
	return customer, nil
}

func (s *CustomerService) List(ctx context.Context, query string, limit int) ([]models.Customer, error) {
	if limit <= 0 || limit > defaultCustomerLimit {
		limit = defaultCustomerLimit
	}
	customers, err := s.store.WithContext(ctx).SearchCustomers(query, limit)
	if err != nil {
		return nil, storageError("list customers", err)
	}
	return customers, nil
}

// Get returns the customer with its ten most recent transactions.
func (s *CustomerService) Get(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	customer, err := s.store.WithContext(ctx).CustomerWithTransactions(id, customerRecentTxLimit)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, notFound("customer")
		}
		return nil, storageError("load customer", err)
	}
	return customer, nil
}

type CustomerUpdate struct {
	Name  *string `json:"name" validate:"omitempty,min=1,max=120"`
	Email *string `json:"email" validate:"omitempty,email"`
}

// Update changes contact details. Points and tier are owned by the
// loyalty engine and cannot be set here.
func (s *CustomerService) Update(ctx context.Context, id uuid.UUID, params CustomerUpdate) (*models.Customer, error) {
	if err := s.validate.Struct(params); err != nil {
		return nil, invalidInput("customer: %v", err)
	}
	fields := map[string]interface{}{}
	if params.Name != nil {
		fields["name"] = strings.TrimSpace(*params.Name)
	}
	if params.Email != nil {
		fields["email"] = strings.TrimSpace(*params.Email)
	}

	st := s.store.WithContext(ctx)
	if len(fields) > 0 {
		rows, err := st.UpdateCustomer(id, fields)
		if err != nil {
			return nil, storageError("update customer", err)
		}
		if rows == 0 {
			return nil, notFound("customer")
		}
	}
	customer, err := st.FindCustomer(id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, notFound("customer")
		}
		return nil, storageError("load customer", err)
	}
	return customer, nil
}
