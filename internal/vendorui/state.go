// Package vendorui holds the view model behind the vendor list and form
// screens. State transitions are pure; Controller performs the API calls.
package vendorui

import (
	"errors"

	"github.com/vendorbook/vendorbook/internal/domain"
	"github.com/vendorbook/vendorbook/pkg/vendorclient"
)

type ListEventKind int

const (
	ListRequested ListEventKind = iota
	ListLoaded
	ListFailed
	DeleteRequested
	DeleteCancelled
	DeleteConfirmed
	DeleteSucceeded
	DeleteFailed
)

type ListEvent struct {
	Kind   ListEventKind
	PageNo int
	Page   vendorclient.Page
	ID     string
	Err    error
}

type ListState struct {
	Vendors          []vendorclient.Vendor
	Pagination       vendorclient.Pagination
	PageNo           int
	Loading          bool
	Error            string
	PendingDeleteID  string
	ConfirmOpen      bool
	RedirectToSignIn bool
}

// Apply returns the state after ev. The receiver is not modified.
func (s ListState) Apply(ev ListEvent) ListState {
	switch ev.Kind {
	case ListRequested:
		s.Loading = true
		s.Error = ""
		if ev.PageNo > 0 {
			s.PageNo = ev.PageNo
		}
		if s.PageNo < 1 {
			s.PageNo = 1
		}
	case ListLoaded:
		s.Loading = false
		s.Error = ""
		s.Vendors = append([]vendorclient.Vendor(nil), ev.Page.Vendors...)
		s.Pagination = ev.Page.Pagination
		if ev.Page.Pagination.Page > 0 {
			s.PageNo = ev.Page.Pagination.Page
		}
	case ListFailed:
		s.Loading = false
		s = s.failed(ev.Err, "Failed to fetch vendors")
	case DeleteRequested:
		if ev.ID == "" || s.Loading {
			return s
		}
		s.PendingDeleteID = ev.ID
		s.ConfirmOpen = true
		s.Error = ""
	case DeleteCancelled:
		s.PendingDeleteID = ""
		s.ConfirmOpen = false
	case DeleteConfirmed:
		if s.PendingDeleteID == "" {
			return s
		}
		s.ConfirmOpen = false
		s.Loading = true
	case DeleteSucceeded:
		s.Loading = false
		s.PendingDeleteID = ""
	case DeleteFailed:
		s.Loading = false
		s.PendingDeleteID = ""
		s.ConfirmOpen = false
		s = s.failed(ev.Err, "Failed to delete vendor")
	}
	return s
}

func (s ListState) failed(err error, fallback string) ListState {
	s.Error = errorMessage(err, fallback)
	if isAuthRequired(err) {
		s.RedirectToSignIn = true
	}
	return s
}

// Field names match the API's JSON names.
const (
	FieldName          = "name"
	FieldBankAccountNo = "bankAccountNo"
	FieldBankName      = "bankName"
	FieldAddressLine1  = "addressLine1"
	FieldAddressLine2  = "addressLine2"
	FieldCity          = "city"
	FieldCountry       = "country"
	FieldZipCode       = "zipCode"
)

type FormValues struct {
	Name          string
	BankAccountNo string
	BankName      string
	AddressLine1  string
	AddressLine2  string
	City          string
	Country       string
	ZipCode       string
}

func (v FormValues) set(field, value string) (FormValues, bool) {
	switch field {
	case FieldName:
		v.Name = value
	case FieldBankAccountNo:
		v.BankAccountNo = value
	case FieldBankName:
		v.BankName = value
	case FieldAddressLine1:
		v.AddressLine1 = value
	case FieldAddressLine2:
		v.AddressLine2 = value
	case FieldCity:
		v.City = value
	case FieldCountry:
		v.Country = value
	case FieldZipCode:
		v.ZipCode = value
	default:
		return v, false
	}
	return v, true
}

// Validate runs the same required-field checks as the server.
func (v FormValues) Validate() error {
	return domain.Vendor{
		Name:          v.Name,
		BankAccountNo: v.BankAccountNo,
		BankName:      v.BankName,
		AddressLine1:  v.AddressLine1,
		AddressLine2:  v.AddressLine2,
		City:          v.City,
		Country:       v.Country,
		ZipCode:       v.ZipCode,
	}.ValidateFields()
}

// Fields sends every value, so an edit form overwrites all editable fields.
func (v FormValues) Fields() vendorclient.Fields {
	return vendorclient.Fields{
		Name:          vendorclient.String(v.Name),
		BankAccountNo: vendorclient.String(v.BankAccountNo),
		BankName:      vendorclient.String(v.BankName),
		AddressLine1:  vendorclient.String(v.AddressLine1),
		AddressLine2:  vendorclient.String(v.AddressLine2),
		City:          vendorclient.String(v.City),
		Country:       vendorclient.String(v.Country),
		ZipCode:       vendorclient.String(v.ZipCode),
	}
}

func valuesFromVendor(v vendorclient.Vendor) FormValues {
	return FormValues{
		Name:          v.Name,
		BankAccountNo: v.BankAccountNo,
		BankName:      v.BankName,
		AddressLine1:  v.AddressLine1,
		AddressLine2:  v.AddressLine2,
		City:          v.City,
		Country:       v.Country,
		ZipCode:       v.ZipCode,
	}
}

type FormEventKind int

const (
	FormOpened FormEventKind = iota
	FormLoaded
	FormEdited
	FormSubmitted
	FormSaved
	FormFailed
)

type FormEvent struct {
	Kind   FormEventKind
	Vendor vendorclient.Vendor
	Field  string
	Value  string
	Err    error
}

type FormState struct {
	// VendorID is empty for a create form.
	VendorID         string
	Values           FormValues
	Loading          bool
	Error            string
	Done             bool
	RedirectToSignIn bool
}

func (s FormState) Apply(ev FormEvent) FormState {
	switch ev.Kind {
	case FormOpened:
		return FormState{VendorID: ev.Vendor.ID, Loading: ev.Vendor.ID != ""}
	case FormLoaded:
		s.VendorID = ev.Vendor.ID
		s.Values = valuesFromVendor(ev.Vendor)
		s.Loading = false
		s.Error = ""
	case FormEdited:
		if s.Loading {
			return s
		}
		if values, ok := s.Values.set(ev.Field, ev.Value); ok {
			s.Values = values
			s.Done = false
		}
	case FormSubmitted:
		s.Loading = true
		s.Error = ""
		s.Done = false
	case FormSaved:
		s.Loading = false
		s.Done = true
		s.Error = ""
		s.VendorID = ev.Vendor.ID
		s.Values = valuesFromVendor(ev.Vendor)
	case FormFailed:
		s.Loading = false
		s.Done = false
		fallback := "Failed to create vendor"
		if s.VendorID != "" {
			fallback = "Failed to update vendor"
		}
		s.Error = errorMessage(ev.Err, fallback)
		if isAuthRequired(ev.Err) {
			s.RedirectToSignIn = true
		}
	}
	return s
}

func errorMessage(err error, fallback string) string {
	if err == nil {
		return fallback
	}
	if apiErr, ok := vendorclient.AsAPIError(err); ok && apiErr.Message != "" {
		return apiErr.Message
	}
	var verr domain.ValidationErrors
	if errors.As(err, &verr) {
		return verr.Error()
	}
	return fallback
}

func isAuthRequired(err error) bool {
	apiErr, ok := vendorclient.AsAPIError(err)
	return ok && apiErr.IsAuthRequired()
}
