package vendorui

import (
	"context"
	"sync"

	"github.com/vendorbook/vendorbook/pkg/vendorclient"
)

// API is the subset of *vendorclient.Client the screens need.
type API interface {
	List(ctx context.Context, page, limit int) (vendorclient.Page, error)
	Get(ctx context.Context, id string) (vendorclient.Vendor, error)
	Create(ctx context.Context, fields vendorclient.Fields) (vendorclient.Vendor, error)
	Update(ctx context.Context, id string, fields vendorclient.Fields) (vendorclient.Vendor, error)
	Delete(ctx context.Context, id string) error
}

// Controller drives ListState and FormState through the API. The list is
// always re-read from the server after a mutation.
type Controller struct {
	api   API
	limit int

	mu   sync.Mutex
	list ListState
	form FormState
}

func NewController(api API, limit int) *Controller {
	if limit < 1 {
		limit = 10
	}
	return &Controller{api: api, limit: limit, list: ListState{PageNo: 1}}
}

func (c *Controller) List() ListState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.list
}

func (c *Controller) Form() FormState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.form
}

func (c *Controller) applyList(ev ListEvent) ListState {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.list = c.list.Apply(ev)
	return c.list
}

func (c *Controller) applyForm(ev FormEvent) FormState {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.form = c.form.Apply(ev)
	return c.form
}

// Load fetches page (or the current page when page < 1).
func (c *Controller) Load(ctx context.Context, page int) ListState {
	state := c.applyList(ListEvent{Kind: ListRequested, PageNo: page})
	res, err := c.api.List(ctx, state.PageNo, c.limit)
	if err != nil {
		return c.applyList(ListEvent{Kind: ListFailed, Err: err})
	}
	return c.applyList(ListEvent{Kind: ListLoaded, Page: res})
}

func (c *Controller) RequestDelete(id string) ListState {
	return c.applyList(ListEvent{Kind: DeleteRequested, ID: id})
}

func (c *Controller) CancelDelete() ListState {
	return c.applyList(ListEvent{Kind: DeleteCancelled})
}

// ConfirmDelete deletes the pending vendor. On failure the list is left
// as it was and the error is recorded.
func (c *Controller) ConfirmDelete(ctx context.Context) ListState {
	c.mu.Lock()
	id := c.list.PendingDeleteID
	c.mu.Unlock()
	if id == "" {
		return c.List()
	}

	c.applyList(ListEvent{Kind: DeleteConfirmed})
	if err := c.api.Delete(ctx, id); err != nil {
		return c.applyList(ListEvent{Kind: DeleteFailed, Err: err})
	}
	c.applyList(ListEvent{Kind: DeleteSucceeded})
	return c.Load(ctx, 0)
}

// OpenCreate resets the form for a new vendor.
func (c *Controller) OpenCreate() FormState {
	return c.applyForm(FormEvent{Kind: FormOpened})
}

// OpenEdit loads the vendor into the form.
func (c *Controller) OpenEdit(ctx context.Context, id string) FormState {
	c.applyForm(FormEvent{Kind: FormOpened, Vendor: vendorclient.Vendor{ID: id}})
	v, err := c.api.Get(ctx, id)
	if err != nil {
		return c.applyForm(FormEvent{Kind: FormFailed, Err: err})
	}
	return c.applyForm(FormEvent{Kind: FormLoaded, Vendor: v})
}

func (c *Controller) Edit(field, value string) FormState {
	return c.applyForm(FormEvent{Kind: FormEdited, Field: field, Value: value})
}

// Submit validates locally, then creates or updates and refreshes the list.
func (c *Controller) Submit(ctx context.Context) FormState {
	state := c.Form()
	if state.Loading {
		return state
	}
	if err := state.Values.Validate(); err != nil {
		return c.applyForm(FormEvent{Kind: FormFailed, Err: err})
	}

	c.applyForm(FormEvent{Kind: FormSubmitted})
	var (
		saved vendorclient.Vendor
		err   error
	)
	if state.VendorID == "" {
		saved, err = c.api.Create(ctx, state.Values.Fields())
	} else {
		saved, err = c.api.Update(ctx, state.VendorID, state.Values.Fields())
	}
	if err != nil {
		return c.applyForm(FormEvent{Kind: FormFailed, Err: err})
	}
	form := c.applyForm(FormEvent{Kind: FormSaved, Vendor: saved})
	c.Load(ctx, 0)
	return form
}
