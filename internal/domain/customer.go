package domain

import (
	"encoding/json"
	"fmt"
)

// OData field names of the CustomersV2 entity used by the create path.
const (
	FieldCustomerAccount  = "CustomerAccount"
	FieldOrganizationName = "OrganizationName"
	FieldCustomerGroupID  = "CustomerGroupId"
	FieldSalesCurrency    = "SalesCurrencyCode"
	FieldDataAreaID       = "DataAreaId"
)

// CustomerFields are the three values needed to create a customer.
// Extraction either fills all three or fails.
type CustomerFields struct {
	Account string
	Name    string
	Group   string
}

// Missing returns the OData names of the fields that are still empty.
func (f CustomerFields) Missing() []string {
	var missing []string
	if f.Account == "" {
		missing = append(missing, FieldCustomerAccount)
	}
	if f.Name == "" {
		missing = append(missing, FieldOrganizationName)
	}
	if f.Group == "" {
		missing = append(missing, FieldCustomerGroupID)
	}
	return missing
}

func (f CustomerFields) Complete() bool {
	return len(f.Missing()) == 0
}

// Record is one OData entity as returned by the server.
type Record map[string]any

// String renders a field for display. Missing and null values render as "".
func (r Record) String(key string) string {
	v, ok := r[key]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}

// Credentials identify the ERP application registration.
type Credentials struct {
	TenantID     string
	ClientID     string
	ClientSecret string
	BaseURL      string
}
