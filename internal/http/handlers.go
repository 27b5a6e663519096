package http

import (
	"net/http"

	applog "fintrack/internal/log"
)

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	fields, err := DecodeTransactionFields(w, r)
	if err != nil {
		writeError(w, r, applog.OpCreate, err)
		return
	}

	t, err := s.transactions.Create(r.Context(), ownerOf(r), fields)
	if err != nil {
		writeError(w, r, applog.OpCreate, err)
		return
	}
	s.appMetrics.transactionsCreated.Add(1)

	applog.FromContext(r.Context()).InfoContext(r.Context(), "Transaction created",
		applog.NewFields().WithOperation(applog.OpCreate).WithTransaction(t.ID).ToSlice()...)

	NewJSONResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/transactions/"+t.ID).
		Body(t).
		Write(w)
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	page := ParsePageNumber(r.URL.Query())

	result, err := s.transactions.List(r.Context(), ownerOf(r), page)
	if err != nil {
		writeError(w, r, applog.OpList, err)
		return
	}

	NewJSONResponse().Body(result).Write(w)
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	t, err := s.transactions.GetByID(r.Context(), ownerOf(r), r.PathValue("id"))
	if err != nil {
		writeError(w, r, applog.OpRead, err)
		return
	}

	NewJSONResponse().Body(t).Write(w)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	fields, err := DecodeTransactionFields(w, r)
	if err != nil {
		writeError(w, r, applog.OpUpdate, err)
		return
	}

	t, err := s.transactions.Update(r.Context(), ownerOf(r), r.PathValue("id"), fields)
	if err != nil {
		writeError(w, r, applog.OpUpdate, err)
		return
	}
	s.appMetrics.transactionsUpdated.Add(1)

	NewJSONResponse().Body(t).Write(w)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.transactions.Delete(r.Context(), ownerOf(r), id); err != nil {
		writeError(w, r, applog.OpDelete, err)
		return
	}
	s.appMetrics.transactionsDeleted.Add(1)

	applog.FromContext(r.Context()).InfoContext(r.Context(), "Transaction deleted",
		applog.NewFields().WithOperation(applog.OpDelete).WithTransaction(id).ToSlice()...)

	MessageResponse("Transaction deleted successfully").Write(w)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	start, end := q.Get("startDate"), q.Get("endDate")

	report, err := s.reports.Generate(r.Context(), ownerOf(r), start, end)
	if err != nil {
		resp := errorResponseFor(err)
		if resp.statusCode >= 500 {
			applog.FromContext(r.Context()).ErrorContext(r.Context(), "Error generating report",
				applog.NewFields().
					WithOperation(applog.OpReport).
					With(applog.FieldStartDate, start).
					With(applog.FieldEndDate, end).
					WithError(err).
					ToSlice()...)
			NewJSONResponse().
				Status(http.StatusInternalServerError).
				Body(messageBody{Message: "Error generating report", Error: err.Error()}).
				Write(w)
			return
		}
		writeError(w, r, applog.OpReport, err)
		return
	}
	s.appMetrics.reportsGenerated.Add(1)

	NewJSONResponse().Body(report).Write(w)
}
