package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/hams/portal-server-go/internal/config"
	apperrors "github.com/hams/portal-server-go/internal/errors"
	"github.com/hams/portal-server-go/internal/httputil"
)

func writeJSON(w http.ResponseWriter, status int, data any) {
	httputil.WriteJSON(w, status, data)
}

func writeError(w http.ResponseWriter, err error) {
	httputil.WriteError(w, err)
}

// dateRangeParams reads the optional startDate/endDate filter pair.
// The pair comes whole or not at all; a lone half is an error rather
// than a silently ignored filter.
func dateRangeParams(r *http.Request) (from, to string, err error) {
	from = r.URL.Query().Get("startDate")
	to = r.URL.Query().Get("endDate")
	if from == "" && to == "" {
		return "", "", nil
	}
	if from == "" || to == "" {
		return "", "", apperrors.MissingRequired("both startDate and endDate")
	}
	if _, perr := time.Parse(config.DateFormat, from); perr != nil {
		return "", "", apperrors.InvalidInput("startDate", "must be yyyy-MM-dd")
	}
	if _, perr := time.Parse(config.DateFormat, to); perr != nil {
		return "", "", apperrors.InvalidInput("endDate", "must be yyyy-MM-dd")
	}
	return from, to, nil
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return apperrors.InvalidInput("body", "malformed JSON")
	}
	return nil
}
