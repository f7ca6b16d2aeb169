package http

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"

	"github.com/amandhiraj/financetracker/internal/backend"
	"github.com/amandhiraj/financetracker/internal/core"
	"github.com/amandhiraj/financetracker/internal/log"
	"github.com/amandhiraj/financetracker/internal/services"
	"github.com/amandhiraj/financetracker/internal/session"
)

const (
	invalidAmountMessage = "Invalid amount"
	unknownTxMessage     = "No transaction found with that ID."
	staleListMessage     = "Saved, but the list could not be refreshed."
)

// changes records which parts of a workspace were replaced while a
// mutation ran, so the response only re-renders what actually changed.
type changes struct {
	transactions atomic.Bool
	summary      atomic.Bool
}

// watch runs fn with a subscription on ws.
func watch(ws *services.Workspace, fn func() error) (*changes, error) {
	c := &changes{}
	unsubscribe := ws.Subscribe(func(ev services.Event) {
		switch ev.Kind {
		case services.EventTransactionsChanged:
			c.transactions.Store(true)
		case services.EventSummaryChanged:
			c.summary.Store(true)
		}
	})
	defer unsubscribe()
	return c, fn()
}

func (c *changes) apply(b *HTMXResponseBuilder) *HTMXResponseBuilder {
	if c.transactions.Load() {
		b.TriggerTransactionsChanged()
	}
	if c.summary.Load() {
		b.TriggerSummaryChanged()
	}
	return b
}

// upstreamStatus maps a backend failure onto the status returned to the page.
func upstreamStatus(err error) int {
	switch {
	case errors.Is(err, backend.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

// validationMessage turns a rejected transaction into text for the form.
func validationMessage(ve *services.ValidationError) string {
	switch {
	case errors.Is(ve, core.ErrInvalidAmount):
		return invalidAmountMessage
	case errors.Is(ve, core.ErrEmptyDescription):
		return "Please enter a description."
	case errors.Is(ve, core.ErrEmptyCategory):
		return "Please choose a category."
	default:
		return ve.Message
	}
}

// handleWorkspace renders the transaction page. Mounting the page refreshes
// the list and summary for the session user.
func (s *Server) handleWorkspace(w http.ResponseWriter, r *http.Request, sess session.Session, ws *services.Workspace) {
	if err := ws.Refresh(r.Context()); err != nil {
		s.requestLogger(r).WarnContext(r.Context(), "Workspace refresh failed",
			log.NewFields().WithUser(sess.Username).WithError(err).WithOperation(log.OpRefresh).ToSlice()...)
	}
	snap := ws.Snapshot()
	s.render(w, r, http.StatusOK, "transactions.html", workspacePageView{
		Title:   "Transactions",
		User:    sess.Username,
		Form:    defaultEntryForm(),
		Summary: newSummaryView(snap.Summary),
		List:    newListView(snap.Groups()),
	})
}

// handleListPartial renders the grouped list from the workspace without
// fetching.
func (s *Server) handleListPartial(w http.ResponseWriter, r *http.Request, _ session.Session, ws *services.Workspace) {
	s.render(w, r, http.StatusOK, "transaction_list", newListView(ws.Snapshot().Groups()))
}

// handleSummaryPartial renders the summary panel from the workspace without
// fetching.
func (s *Server) handleSummaryPartial(w http.ResponseWriter, r *http.Request, _ session.Session, ws *services.Workspace) {
	s.render(w, r, http.StatusOK, "summary", newSummaryView(ws.Snapshot().Summary))
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request, _ session.Session, ws *services.Workspace) {
	in, err := ParseTransactionInput(w, r)
	if err != nil {
		BadRequestError("Invalid request format").Write(w)
		return
	}

	form := defaultEntryForm()
	form.Amount = in.Amount
	form.Category = core.ParseCategory(in.Category)
	form.Description = in.Description

	amount, err := core.ParseAmount(in.Amount)
	if err != nil {
		form.Error = invalidAmountMessage
		s.respond(w, r, NewHTMXResponse().
			Status(http.StatusUnprocessableEntity).
			TriggerErrorNotification(invalidAmountMessage), "entry_form", form)
		return
	}

	tx := core.Transaction{
		Amount:      amount,
		Category:    form.Category,
		Description: in.Description,
	}
	changed, err := watch(ws, func() error { return ws.AddTransaction(r.Context(), tx) })

	var ve *services.ValidationError
	switch {
	case errors.As(err, &ve):
		form.Error = validationMessage(ve)
		s.respond(w, r, NewHTMXResponse().
			Status(http.StatusUnprocessableEntity).
			TriggerErrorNotification(form.Error), "entry_form", form)
	case errors.Is(err, services.ErrNoSession):
		redirect(w, r, "/login")
	case err != nil && !errors.Is(err, services.ErrRefresh):
		NotifyError(upstreamStatus(err), backend.UserMessage(err, "Failed to add transaction.")).Write(w)
	default:
		b := changed.apply(NewHTMXResponse().TriggerFormReset())
		if err != nil {
			b.TriggerWarningNotification(staleListMessage)
		} else {
			b.TriggerSuccessNotification("Transaction added.")
		}
		s.respond(w, r, b, "entry_form", defaultEntryForm())
	}
}

func (s *Server) handleEditDialog(w http.ResponseWriter, r *http.Request, _ session.Session, ws *services.Workspace) {
	id := r.PathValue("id")
	t, ok := ws.Transaction(id)
	if !ok {
		NotifyError(http.StatusNotFound, unknownTxMessage).Write(w)
		return
	}
	s.render(w, r, http.StatusOK, "edit_dialog", editDialogView{
		ID:          t.ID,
		Amount:      t.Amount.Fixed(),
		Description: t.Description,
	})
}

// handleEditTransaction submits the edit dialog. A rejected amount or
// description re-renders the dialog and sends nothing to the backend.
func (s *Server) handleEditTransaction(w http.ResponseWriter, r *http.Request, _ session.Session, ws *services.Workspace) {
	id := r.PathValue("id")
	in, err := ParseTransactionInput(w, r)
	if err != nil {
		BadRequestError("Invalid request format").Write(w)
		return
	}

	changed, err := watch(ws, func() error { return ws.EditTransaction(r.Context(), id, in.Amount, in.Description) })

	var ve *services.ValidationError
	switch {
	case errors.As(err, &ve):
		s.respond(w, r, NewHTMXResponse().
			Status(http.StatusUnprocessableEntity).
			TriggerErrorNotification(ve.Message), "edit_dialog", editDialogView{
			ID:          id,
			Amount:      in.Amount,
			Description: in.Description,
			Error:       ve.Message,
		})
	case errors.Is(err, services.ErrUnknownTransaction):
		NotifyError(http.StatusNotFound, unknownTxMessage).TriggerDialogClose().Write(w)
	case errors.Is(err, services.ErrNoSession):
		redirect(w, r, "/login")
	case err != nil && !errors.Is(err, services.ErrRefresh):
		NotifyError(upstreamStatus(err), backend.UserMessage(err, "Failed to update transaction.")).Write(w)
	default:
		b := changed.apply(NewHTMXResponse().TriggerDialogClose())
		if err != nil {
			b.TriggerWarningNotification(staleListMessage)
		} else {
			b.TriggerSuccessNotification("Transaction updated.")
		}
		b.Write(w)
	}
}

func (s *Server) handleDeleteDialog(w http.ResponseWriter, r *http.Request, _ session.Session, ws *services.Workspace) {
	id := r.PathValue("id")
	t, ok := ws.Transaction(id)
	if !ok {
		NotifyError(http.StatusNotFound, unknownTxMessage).Write(w)
		return
	}
	s.render(w, r, http.StatusOK, "delete_dialog", deleteDialogView{
		ID:          t.ID,
		Description: t.Description,
		Amount:      core.FormatDollars(t.Amount),
	})
}

// handleDeleteTransaction deletes only when the form carries confirm=yes;
// anything else closes the dialog without a request.
func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request, _ session.Session, ws *services.Workspace) {
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}
	id := r.PathValue("id")
	confirmed := r.PostForm.Get("confirm") == "yes"

	changed, err := watch(ws, func() error { return ws.DeleteTransaction(r.Context(), id, confirmed) })

	switch {
	case errors.Is(err, services.ErrNotConfirmed):
		NewHTMXResponse().TriggerDialogClose().Write(w)
	case errors.Is(err, services.ErrNoSession):
		redirect(w, r, "/login")
	case err != nil && !errors.Is(err, services.ErrRefresh):
		NotifyError(upstreamStatus(err), backend.UserMessage(err, "Failed to delete transaction.")).Write(w)
	default:
		b := changed.apply(NewHTMXResponse().TriggerDialogClose())
		if err != nil {
			b.TriggerWarningNotification(staleListMessage)
		} else {
			b.TriggerSuccessNotification("Transaction deleted.")
		}
		b.Write(w)
	}
}
