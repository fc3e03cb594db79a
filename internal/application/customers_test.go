package application_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Abdojk/AK-RetrieveCustomerfromF-O/internal/application"
	"github.com/Abdojk/AK-RetrieveCustomerfromF-O/internal/domain"
)

func TestCustomerService_ConnectBindsToken(t *testing.T) {
	tokens := &fakeTokens{token: "tok"}
	store := &fakeStore{}
	svc := application.NewCustomerService(tokens, store.factory(), "", discardLogger())

	got, err := svc.Connect(context.Background())
	require.NoError(t, err)
	assert.Same(t, store, got)
	assert.Equal(t, "tok", store.token)
}

func TestCustomerService_ConnectAuthFailure(t *testing.T) {
	tokens := &fakeTokens{err: &domain.AuthError{Code: "invalid_client"}}
	store := &fakeStore{}
	svc := application.NewCustomerService(tokens, store.factory(), "", discardLogger())

	_, err := svc.Connect(context.Background())

	var authErr *domain.AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, "invalid_client", authErr.Code)
}

func TestCustomerService_Query(t *testing.T) {
	svc := application.NewCustomerService(&fakeTokens{}, nil, "", discardLogger())

	q := svc.Query(application.ListOptions{MaxRecords: 10})
	assert.Equal(t, application.CustomerEntity, q.Entity)
	assert.Equal(t, application.CustomerColumns, q.Select)
	assert.Equal(t, 10, q.MaxRecords)
	assert.False(t, q.CrossCompany)

	q = svc.Query(application.ListOptions{CrossCompany: true})
	assert.True(t, q.CrossCompany)
	assert.Equal(t, domain.FieldDataAreaID, q.Select[len(q.Select)-1])
	assert.Len(t, application.CustomerColumns, 10, "base column list is not mutated")

	q = svc.Query(application.ListOptions{AllColumns: true})
	assert.Empty(t, q.Select)
}

func TestCustomerService_List(t *testing.T) {
	store := &fakeStore{records: []domain.Record{{"CustomerAccount": "AK001"}}}
	svc := application.NewCustomerService(&fakeTokens{}, store.factory(), "", discardLogger())

	recs, err := svc.List(context.Background(), store, application.ListOptions{MaxRecords: 5})
	require.NoError(t, err)
	assert.Len(t, recs, 1)
	require.Len(t, store.queries, 1)
	assert.Equal(t, 5, store.queries[0].MaxRecords)
}

func TestCustomerService_CreatePayload(t *testing.T) {
	store := &fakeStore{created: domain.Record{"CustomerAccount": "AK005"}}
	svc := application.NewCustomerService(&fakeTokens{}, store.factory(), "EUR", discardLogger())

	rec, err := svc.Create(context.Background(), store, domain.CustomerFields{Account: "AK005", Name: "Abdo Khoury", Group: "80"})
	require.NoError(t, err)
	assert.Equal(t, "AK005", rec.String("CustomerAccount"))

	require.Len(t, store.payloads, 1)
	assert.Equal(t, map[string]any{
		"CustomerAccount":   "AK005",
		"OrganizationName":  "Abdo Khoury",
		"CustomerGroupId":   "80",
		"SalesCurrencyCode": "EUR",
	}, store.payloads[0])
}

func TestCustomerService_CreateDefaultsCurrency(t *testing.T) {
	svc := application.NewCustomerService(&fakeTokens{}, nil, "", discardLogger())
	assert.Equal(t, "USD", svc.Payload(domain.CustomerFields{})["SalesCurrencyCode"])
}

func TestCustomerService_CreateRejectsIncompleteFields(t *testing.T) {
	store := &fakeStore{}
	svc := application.NewCustomerService(&fakeTokens{}, store.factory(), "", discardLogger())

	_, err := svc.Create(context.Background(), store, domain.CustomerFields{Account: "AK005"})

	var valErr *domain.ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Contains(t, valErr.Reason, "OrganizationName")
	assert.Empty(t, store.payloads)
}

func TestConfirmed(t *testing.T) {
	fields := domain.CustomerFields{Account: "ak005", Name: "Abdo Khoury", Group: "80"}

	got := application.Confirmed(fields, domain.Record{"CustomerAccount": "AK005", "CustomerGroupId": nil})
	assert.Equal(t, domain.CustomerFields{Account: "AK005", Name: "Abdo Khoury", Group: "80"}, got)

	assert.Equal(t, fields, application.Confirmed(fields, nil))
}
