package httpx

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Decode reads a JSON body into dst and runs struct-tag validation on it.
// On failure it writes the 4xx response itself and returns false so callers
// can simply `if !httpx.Decode(w, r, &req) { return }`.
func Decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if ct := r.Header.Get("Content-Type"); ct != "" && !strings.Contains(ct, "application/json") {
		JSONError(w, http.StatusUnsupportedMediaType, "json_body_required", nil)
		return false
	}
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return false
	}
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			details := make(map[string]string, len(verrs))
			for _, fe := range verrs {
				details[strings.ToLower(fe.Field())] = fe.Tag()
			}
			JSONError(w, http.StatusBadRequest, "validation_failed", details)
			return false
		}
		JSONError(w, http.StatusBadRequest, "validation_failed", nil)
		return false
	}
	return true
}

// QueryID parses the numeric id query parameter shared by the action routes.
func QueryID(r *http.Request) (uint, bool) {
	v := strings.TrimSpace(r.URL.Query().Get("id"))
	if v == "" {
		return 0, false
	}
	var id uint64
	for _, c := range v {
		if c < '0' || c > '9' {
			return 0, false
		}
		id = id*10 + uint64(c-'0')
		if id > 1<<31 {
			return 0, false
		}
	}
	if id == 0 {
		return 0, false
	}
	return uint(id), true
}
