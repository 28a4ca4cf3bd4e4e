package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/demo-api/internal/domain"
	"github.com/MrSnakeDoc/demo-api/internal/httpserver/deps"
)

const maxBodyBytes = 1 << 20

const msgIntParsing = "Input should be a valid integer, unable to parse string as an integer"

// ListItems serves GET /items?skip=&limit=.
func ListItems(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p := domain.DefaultListParams()
		var fields []domain.FieldError

		q := r.URL.Query()
		if v, ok, fe := queryInt(q.Get("skip"), "skip"); fe != nil {
			fields = append(fields, *fe)
		} else if ok {
			p.Offset = v
		}
		if v, ok, fe := queryInt(q.Get("limit"), "limit"); fe != nil {
			fields = append(fields, *fe)
		} else if ok {
			p.Limit = v
		}
		if len(fields) > 0 {
			writeError(w, r, d.Logger, &domain.ValidationError{Fields: fields})
			return
		}

		items, err := d.Items.ListItems(r.Context(), p)
		if err != nil {
			writeError(w, r, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, items)
	}
}

// CreateItem serves POST /items. The created item is returned with 200.
func CreateItem(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		in, err := decodeNewItem(w, r)
		if err != nil {
			writeError(w, r, d.Logger, err)
			return
		}

		item, err := d.Items.CreateItem(r.Context(), in)
		if err != nil {
			writeError(w, r, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, item)
	}
}

// GetItem serves GET /items/{item_id}.
func GetItem(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := chi.URLParam(r, "item_id")
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeError(w, r, d.Logger, domain.NewFieldError([]string{"path", "item_id"}, msgIntParsing, "int_parsing"))
			return
		}

		item, err := d.Items.GetItem(r.Context(), id)
		if err != nil {
			writeError(w, r, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, item)
	}
}

// queryInt parses an optional integer query value. ok is false when the
// parameter is absent or empty.
func queryInt(raw, name string) (v int, ok bool, fe *domain.FieldError) {
	if raw == "" {
		return 0, false, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false, &domain.FieldError{Loc: []string{"query", name}, Msg: msgIntParsing, Type: "int_parsing"}
	}
	return n, true, nil
}

func decodeNewItem(w http.ResponseWriter, r *http.Request) (domain.NewItem, error) {
	var in *domain.NewItem
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))

	if err := dec.Decode(&in); err != nil {
		return domain.NewItem{}, decodeError(err)
	}
	if dec.More() {
		return domain.NewItem{}, domain.NewFieldError([]string{"body"}, "JSON decode error: trailing data", "json_invalid")
	}
	if in == nil {
		return domain.NewItem{}, domain.NewFieldError([]string{"body"}, "Field required", "missing")
	}
	return *in, nil
}

func decodeError(err error) error {
	var (
		typeErr  *json.UnmarshalTypeError
		syntaxEr *json.SyntaxError
		sizeErr  *http.MaxBytesError
	)
	switch {
	case errors.Is(err, io.EOF):
		return domain.NewFieldError([]string{"body"}, "Field required", "missing")
	case errors.As(err, &typeErr):
		if typeErr.Field == "" {
			return domain.NewFieldError([]string{"body"}, "Input should be a valid dictionary or object", "model_attributes_type")
		}
		kind := typeErr.Type.Kind().String()
		return domain.NewFieldError([]string{"body", typeErr.Field}, "Input should be a valid "+kind, kind+"_type")
	case errors.As(err, &syntaxEr):
		return domain.NewFieldError([]string{"body", strconv.FormatInt(syntaxEr.Offset, 10)}, "JSON decode error", "json_invalid")
	case errors.As(err, &sizeErr):
		return domain.NewFieldError([]string{"body"}, "Request body too large", "too_large")
	default:
		return domain.NewFieldError([]string{"body"}, "JSON decode error", "json_invalid")
	}
}
