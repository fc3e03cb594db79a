package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Abdojk/AK-RetrieveCustomerfromF-O/internal/domain"
)

const CustomerEntity = "CustomersV2"

// CustomerColumns is the $select list used when listing customers.
var CustomerColumns = []string{
	domain.FieldCustomerAccount,
	domain.FieldCustomerGroupID,
	domain.FieldOrganizationName,
	"NameAlias",
	domain.FieldSalesCurrency,
	"PaymentTerms",
	"InvoiceAccount",
	"PrimaryContactEmail",
	"PrimaryContactPhone",
	"AddressDescription",
}

const DefaultCurrency = "USD"

type ListOptions struct {
	CrossCompany bool
	MaxRecords   int
	// AllColumns drops the $select list so the server returns every field.
	AllColumns bool
}

type CustomerService struct {
	tokens   TokenProvider
	connect  StoreFactory
	currency string
	logger   *slog.Logger
}

func NewCustomerService(tokens TokenProvider, connect StoreFactory, currency string, logger *slog.Logger) *CustomerService {
	if currency == "" {
		currency = DefaultCurrency
	}
	return &CustomerService{
		tokens:   tokens,
		connect:  connect,
		currency: currency,
		logger:   logger,
	}
}

// Connect acquires a token and returns a store bound to it. Tokens are
// requested on every call; the provider's cache decides whether that
// reaches the identity provider.
func (s *CustomerService) Connect(ctx context.Context) (RecordStore, error) {
	token, err := s.tokens.AccessToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquiring access token: %w", err)
	}
	return s.connect(token), nil
}

func (s *CustomerService) Query(opts ListOptions) domain.EntityQuery {
	q := domain.EntityQuery{
		Entity:       CustomerEntity,
		CrossCompany: opts.CrossCompany,
		MaxRecords:   opts.MaxRecords,
	}
	if !opts.AllColumns {
		q.Select = CustomerColumns
		if opts.CrossCompany {
			q.Select = append(append([]string{}, CustomerColumns...), domain.FieldDataAreaID)
		}
	}
	return q
}

func (s *CustomerService) List(ctx context.Context, store RecordStore, opts ListOptions) ([]domain.Record, error) {
	q := s.Query(opts)
	s.logger.Info("retrieving customers",
		"entity", q.Entity,
		"fields", strings.Join(q.Select, ","),
		"cross_company", q.CrossCompany,
	)

	records, err := store.FetchAll(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("retrieving customers: %w", err)
	}

	s.logger.Info("customers retrieved", "count", len(records))
	return records, nil
}

// Payload builds the CustomersV2 create body.
func (s *CustomerService) Payload(fields domain.CustomerFields) map[string]any {
	return map[string]any{
		domain.FieldCustomerAccount:  fields.Account,
		domain.FieldOrganizationName: fields.Name,
		domain.FieldCustomerGroupID:  fields.Group,
		domain.FieldSalesCurrency:    s.currency,
	}
}

// Create posts a new customer and returns the record the server stored.
func (s *CustomerService) Create(ctx context.Context, store RecordStore, fields domain.CustomerFields) (domain.Record, error) {
	if missing := fields.Missing(); len(missing) > 0 {
		return nil, &domain.ValidationError{Reason: "missing " + strings.Join(missing, ", ")}
	}

	s.logger.Info("creating customer",
		"entity", CustomerEntity,
		"account", fields.Account,
		"group", fields.Group,
	)

	rec, err := store.CreateRecord(ctx, CustomerEntity, s.Payload(fields))
	if err != nil {
		return nil, fmt.Errorf("creating customer %s: %w", fields.Account, err)
	}

	s.logger.Info("customer created", "account", valueOr(rec, domain.FieldCustomerAccount, fields.Account))
	return rec, nil
}

// Confirmed returns the fields as stored by the server, falling back to the
// submitted values for anything the server did not echo.
func Confirmed(fields domain.CustomerFields, rec domain.Record) domain.CustomerFields {
	return domain.CustomerFields{
		Account: valueOr(rec, domain.FieldCustomerAccount, fields.Account),
		Name:    valueOr(rec, domain.FieldOrganizationName, fields.Name),
		Group:   valueOr(rec, domain.FieldCustomerGroupID, fields.Group),
	}
}

func valueOr(rec domain.Record, key, fallback string) string {
	if v := rec.String(key); v != "" {
		return v
	}
	return fallback
}
