package main

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/Abdojk/AK-RetrieveCustomerfromF-O/internal/domain"
)

const maxCellWidth = 30

var displayColumns = []struct {
	field  string
	header string
}{
	{domain.FieldCustomerAccount, "Account"},
	{domain.FieldOrganizationName, "Name"},
	{domain.FieldCustomerGroupID, "Group"},
	{domain.FieldSalesCurrency, "Currency"},
	{"PrimaryContactEmail", "Email"},
	{domain.FieldDataAreaID, "Company"},
}

func displayCustomers(w io.Writer, records []domain.Record, allColumns bool) {
	if len(records) == 0 {
		fmt.Fprintln(w, "\nNo customers found.")
		return
	}

	var fields, headers []string
	if allColumns {
		fields = recordKeys(records[0])
		headers = fields
	} else {
		for _, col := range displayColumns {
			fields = append(fields, col.field)
			headers = append(headers, col.header)
		}
	}

	rule := strings.Repeat("=", 80)
	fmt.Fprintf(w, "\n%s\n  D365 F&O CUSTOMERS - %d records\n%s\n\n", rule, len(records), rule)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(headers, "\t"))
	for _, rec := range records {
		cells := make([]string, len(fields))
		for i, f := range fields {
			cells[i] = clip(rec.String(f))
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	tw.Flush()

	fmt.Fprintf(w, "\n  Total: %d customers\n", len(records))
}

var priorityFields = []string{
	domain.FieldCustomerAccount,
	domain.FieldOrganizationName,
	domain.FieldCustomerGroupID,
	domain.FieldSalesCurrency,
	domain.FieldDataAreaID,
}

func displayCreated(w io.Writer, rec domain.Record) {
	if len(rec) == 0 {
		fmt.Fprintln(w, "\n[WARNING] No customer data returned from API.")
		return
	}

	rule := strings.Repeat("=", 60)
	fmt.Fprintf(w, "\n%s\n  CUSTOMER CREATED SUCCESSFULLY\n%s\n\n", rule, rule)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Field\tValue")

	shown := make(map[string]bool, len(priorityFields))
	for _, f := range priorityFields {
		if _, ok := rec[f]; ok {
			fmt.Fprintf(tw, "%s\t%s\n", f, rec.String(f))
			shown[f] = true
		}
	}
	for _, k := range recordKeys(rec) {
		if shown[k] || strings.HasPrefix(k, "@") {
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\n", k, rec.String(k))
	}
	tw.Flush()
}

// recordKeys returns the record's fields in a stable order, skipping
// OData annotations.
func recordKeys(rec domain.Record) []string {
	keys := make([]string, 0, len(rec))
	for k := range rec {
		if strings.HasPrefix(k, "@") {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func clip(s string) string {
	if r := []rune(s); len(r) > maxCellWidth {
		return string(r[:maxCellWidth-3]) + "..."
	}
	return s
}
