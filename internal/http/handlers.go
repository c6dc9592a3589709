package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"gastos/internal/core"
	"gastos/internal/log"
	"gastos/internal/services"
)

// transactionDTO is the wire shape of a stored transaction. Amounts travel as
// decimal numbers even though storage keeps integer cents.
type transactionDTO struct {
	ID            int64   `json:"id"`
	Descricao     string  `json:"descricao"`
	Valor         float64 `json:"valor"`
	Tipo          string  `json:"tipo"`
	DataTransacao string  `json:"data_transacao"`
	Categoria     string  `json:"categoria"`
}

type summaryDTO struct {
	TotalEntradas float64 `json:"totalEntradas"`
	TotalSaidas   float64 `json:"totalSaidas"`
	Balanco       float64 `json:"balanco"`
}

type categoryTotalDTO struct {
	Categoria string  `json:"categoria"`
	Total     float64 `json:"total"`
}

func toTransactionDTO(t core.Transaction) transactionDTO {
	return transactionDTO{
		ID:            t.ID,
		Descricao:     t.Descricao,
		Valor:         t.Valor.Decimal(),
		Tipo:          string(t.Tipo),
		DataTransacao: t.Data.String(),
		Categoria:     t.Categoria,
	}
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, map[string]string{
		"message": "API do Gerenciador de Gastos está funcionando!",
	})
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	body, err := decodeBody(r)
	if err != nil {
		respondJSON(w, r, http.StatusBadRequest, map[string]string{"error": "Corpo da requisição inválido."})
		return
	}

	in := services.TransactionInput{
		Descricao:     stringValue(body["descricao"]),
		Valor:         stringValue(body["valor"]),
		Tipo:          stringValue(body["tipo"]),
		DataTransacao: stringValue(body["data_transacao"]),
		Categoria:     stringValue(body["categoria"]),
	}

	id, err := s.transactions.Create(r.Context(), in)
	if err != nil {
		respondError(w, r, err)
		return
	}

	s.invalidateAggregates()
	respondJSON(w, r, http.StatusCreated, map[string]any{
		"message":              "Transação salva com sucesso!",
		"id_da_nova_transacao": id,
	})
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	list, err := s.transactions.List(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}

	dtos := make([]transactionDTO, 0, len(list))
	for _, t := range list {
		dtos = append(dtos, toTransactionDTO(t))
	}
	respondJSON(w, r, http.StatusOK, dtos)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	body, err := decodeBody(r)
	if err != nil {
		respondJSON(w, r, http.StatusBadRequest, map[string]string{"error": "Corpo da requisição inválido."})
		return
	}

	fields := make(map[string]string, len(body))
	for name, value := range body {
		fields[name] = stringValue(value)
	}

	if err := s.transactions.Update(r.Context(), id, fields); err != nil {
		respondError(w, r, err)
		return
	}

	s.invalidateAggregates()
	respondJSON(w, r, http.StatusOK, map[string]string{"message": "Transação atualizada com sucesso!"})
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	if err := s.transactions.Delete(r.Context(), id); err != nil {
		respondError(w, r, err)
		return
	}

	s.invalidateAggregates()
	respondJSON(w, r, http.StatusOK, map[string]string{"message": "Transação deletada com sucesso!"})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	summary, found := s.summaryCache.Get(summaryCacheKey)
	if !found {
		var err error
		summary, err = s.reports.Summarize(r.Context())
		if err != nil {
			respondError(w, r, err)
			return
		}
		s.summaryCache.Set(summaryCacheKey, summary)
	} else {
		log.FromContext(r.Context()).DebugContext(r.Context(), "Summary cache hit")
	}

	respondJSON(w, r, http.StatusOK, summaryDTO{
		TotalEntradas: summary.TotalEntradas.Decimal(),
		TotalSaidas:   summary.TotalSaidas.Decimal(),
		Balanco:       summary.Balanco().Decimal(),
	})
}

func (s *Server) handleCategoryBreakdown(w http.ResponseWriter, r *http.Request) {
	breakdown, found := s.breakdownCache.Get(breakdownCacheKey)
	if !found {
		var err error
		breakdown, err = s.reports.CategoryBreakdown(r.Context())
		if err != nil {
			respondError(w, r, err)
			return
		}
		s.breakdownCache.Set(breakdownCacheKey, breakdown)
	} else {
		log.FromContext(r.Context()).DebugContext(r.Context(), "Breakdown cache hit")
	}

	dtos := make([]categoryTotalDTO, 0, len(breakdown))
	for _, c := range breakdown {
		dtos = append(dtos, categoryTotalDTO{Categoria: c.Categoria, Total: c.Total.Decimal()})
	}
	respondJSON(w, r, http.StatusOK, dtos)
}

// pathID parses the {id} path segment. Non-numeric ids never reach storage.
func pathID(r *http.Request) (int64, error) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid transaction id %q", core.ErrValidation, raw)
	}
	return id, nil
}

// decodeBody reads a flat JSON object, keeping numbers as json.Number so
// clients may send valor either as a number or a string.
func decodeBody(r *http.Request) (map[string]any, error) {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20))
	dec.UseNumber()

	var body map[string]any
	if err := dec.Decode(&body); err != nil {
		return nil, err
	}
	return body, nil
}

// stringValue normalizes a decoded JSON value to its string form.
func stringValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprintf("%v", t)
	}
}
