package server

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/danielgtaylor/huma/v2"

	"github.com/jpalmerr/contactbook/internal/store"
)

type handler[I, O any] = func(context.Context, *I) (*O, error)

func handlerWithErrorHandler[I, O any](handler handler[I, O], do func(context.Context, error)) handler[I, O] {
	if do == nil {
		return handler
	}

	return func(ctx context.Context, i *I) (*O, error) {
		o, err := handler(ctx, i)
		if err != nil {
			do(ctx, err)
		}
		return o, err
	}
}

func opErrors(codes ...int) func(*huma.Operation) {
	return func(o *huma.Operation) { o.Errors = codes }
}

func (s *Server) logError(ctx context.Context, err error) {
	var se huma.StatusError
	if errors.As(err, &se) && se.GetStatus() < http.StatusInternalServerError {
		s.logger.DebugContext(ctx, "request rejected", "error", err)
		return
	}
	s.logger.ErrorContext(ctx, "request failed", "error", err)
}

type contactsHandler struct {
	store        store.Store
	errorHandler func(context.Context, error)
}

// ContactModel is the API representation of a contact.
type ContactModel struct {
	Name  string `json:"name"  example:"Alice" doc:"Unique contact name"`
	Phone string `json:"phone" example:"111"`
	Email string `json:"email" example:"a@b.com"`
}

// ContactInput is the request body for creating a contact.
type ContactInput struct {
	Name  string `json:"name"            example:"Alice" minLength:"1" doc:"Unique contact name, compared exactly"`
	Phone string `json:"phone,omitempty" example:"111"`
	Email string `json:"email,omitempty" example:"a@b.com"`
}

func toModel(r store.Record) ContactModel {
	return ContactModel{Name: r.Name, Phone: r.Phone, Email: r.Email}
}

func (h *contactsHandler) register(api huma.API) {
	huma.Get(api, "/contacts",
		handlerWithErrorHandler(h.list, h.errorHandler),
		opErrors(http.StatusInternalServerError),
	)
	huma.Get(api, "/contacts/{name}",
		handlerWithErrorHandler(h.get, h.errorHandler),
		opErrors(http.StatusNotFound),
	)
	huma.Post(api, "/contacts",
		handlerWithErrorHandler(h.add, h.errorHandler),
		func(o *huma.Operation) {
			o.DefaultStatus = http.StatusCreated
			o.Errors = []int{http.StatusConflict, http.StatusUnprocessableEntity, http.StatusInternalServerError}
		},
	)
	huma.Delete(api, "/contacts/{name}",
		handlerWithErrorHandler(h.del, h.errorHandler),
		opErrors(http.StatusNotFound, http.StatusInternalServerError),
	)
}

type ContactsListOutput struct {
	Body []ContactModel
}

func (h *contactsHandler) list(_ context.Context, _ *struct{}) (*ContactsListOutput, error) {
	records := h.store.List()
	body := make([]ContactModel, 0, len(records))
	for _, r := range records {
		body = append(body, toModel(r))
	}
	return &ContactsListOutput{Body: body}, nil
}

type ContactsGetOutput struct {
	Body ContactModel
}

type ContactsAddOutput struct {
	Location string `header:"Location"`
	Body     ContactModel
}

func (h *contactsHandler) get(_ context.Context, input *struct {
	Name string `path:"name" doc:"Name to search for, ignoring case"`
}) (*ContactsGetOutput, error) {
	r, ok := h.store.Search(input.Name)
	if !ok {
		return nil, huma.Error404NotFound("no contact found with that name")
	}
	return &ContactsGetOutput{Body: toModel(r)}, nil
}

func (h *contactsHandler) add(ctx context.Context, input *struct {
	Body ContactInput
}) (*ContactsAddOutput, error) {
	r := store.Record{Name: input.Body.Name, Phone: input.Body.Phone, Email: input.Body.Email}

	err := h.store.Add(ctx, r)
	switch {
	case err == nil:
		return &ContactsAddOutput{
			Location: "/api/contacts/" + url.PathEscape(r.Name),
			Body:     toModel(r),
		}, nil

	case errors.Is(err, store.ErrNameConflict):
		return nil, huma.Error409Conflict("a contact with that name already exists", err)

	case errors.Is(err, store.ErrEmptyName):
		return nil, huma.Error422UnprocessableEntity("name cannot be empty", err)

	default:
		return nil, huma.Error500InternalServerError("failed to save contacts", err)
	}
}

func (h *contactsHandler) del(ctx context.Context, input *struct {
	Name string `path:"name" doc:"Exact name of the contact to delete"`
}) (*struct{}, error) {
	err := h.store.Delete(ctx, input.Name)
	switch {
	case err == nil:
		return nil, nil

	case errors.Is(err, store.ErrNotFound):
		return nil, huma.Error404NotFound("no contact found with that name", err)

	default:
		return nil, huma.Error500InternalServerError("failed to save contacts", err)
	}
}
