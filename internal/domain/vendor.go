package domain

import (
	"errors"
	"strings"
	"time"
)

// Vendor is a payee record owned by the user that created it.
type Vendor struct {
	ID            string
	Name          string
	BankAccountNo string
	BankName      string
	AddressLine1  string
	AddressLine2  string
	City          string
	Country       string
	ZipCode       string
	CreatedBy     string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// VendorPatch carries a partial update. Nil fields are left unchanged.
type VendorPatch struct {
	Name          *string
	BankAccountNo *string
	BankName      *string
	AddressLine1  *string
	AddressLine2  *string
	City          *string
	Country       *string
	ZipCode       *string
}

type FieldError struct {
	Field   string
	Message string
}

// ValidationErrors lists every failing field in a fixed order.
type ValidationErrors []FieldError

func (e ValidationErrors) Error() string {
	msgs := make([]string, 0, len(e))
	for _, fe := range e {
		msgs = append(msgs, fe.Message)
	}
	return strings.Join(msgs, ", ")
}

type requiredField struct {
	name    string
	message string
	value   func(Vendor) string
	patched func(VendorPatch) *string
}

var requiredFields = []requiredField{
	{
		name:    "name",
		message: "Vendor name is required",
		value:   func(v Vendor) string { return v.Name },
		patched: func(p VendorPatch) *string { return p.Name },
	},
	{
		name:    "bankAccountNo",
		message: "Bank account number is required",
		value:   func(v Vendor) string { return v.BankAccountNo },
		patched: func(p VendorPatch) *string { return p.BankAccountNo },
	},
	{
		name:    "bankName",
		message: "Bank name is required",
		value:   func(v Vendor) string { return v.BankName },
		patched: func(p VendorPatch) *string { return p.BankName },
	},
	{
		name:    "addressLine2",
		message: "Address line 2 is required",
		value:   func(v Vendor) string { return v.AddressLine2 },
		patched: func(p VendorPatch) *string { return p.AddressLine2 },
	},
}

// ValidateFields checks only the user-editable required fields. It is what
// create runs before an id or owner exist.
func (v Vendor) ValidateFields() error {
	var errs ValidationErrors
	for _, f := range requiredFields {
		if strings.TrimSpace(f.value(v)) == "" {
			errs = append(errs, FieldError{Field: f.name, Message: f.message})
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Validate checks a record about to be persisted.
func (v Vendor) Validate() error {
	if strings.TrimSpace(v.ID) == "" {
		return errors.New("vendor id is required")
	}
	if strings.TrimSpace(v.CreatedBy) == "" {
		return errors.New("creator id is required")
	}
	return v.ValidateFields()
}

// Validate rejects a patch that would blank out a required field.
func (p VendorPatch) Validate() error {
	var errs ValidationErrors
	for _, f := range requiredFields {
		if value := f.patched(p); value != nil && strings.TrimSpace(*value) == "" {
			errs = append(errs, FieldError{Field: f.name, Message: f.message})
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Apply returns v with the supplied fields replaced. ID, CreatedBy and the
// timestamps are never touched.
func (p VendorPatch) Apply(v Vendor) Vendor {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&v.Name, p.Name)
	set(&v.BankAccountNo, p.BankAccountNo)
	set(&v.BankName, p.BankName)
	set(&v.AddressLine1, p.AddressLine1)
	set(&v.AddressLine2, p.AddressLine2)
	set(&v.City, p.City)
	set(&v.Country, p.Country)
	set(&v.ZipCode, p.ZipCode)
	return v
}
