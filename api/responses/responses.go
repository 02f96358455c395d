package responses

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	pkgerrors "github.com/angelmondragon/addonhub-backend/pkg/errors"
	"github.com/angelmondragon/addonhub-backend/pkg/logger"
	"github.com/angelmondragon/addonhub-backend/pkg/types"
)

// WriteJSON writes payload with status 200.
func WriteJSON(w http.ResponseWriter, payload any) {
	WriteJSONStatus(w, http.StatusOK, payload)
}

// WriteCreated writes payload with status 201.
func WriteCreated(w http.ResponseWriter, payload any) {
	WriteJSONStatus(w, http.StatusCreated, payload)
}

// WriteMessage writes {"message": msg} with status 200.
func WriteMessage(w http.ResponseWriter, msg string) {
	WriteJSONStatus(w, http.StatusOK, types.MessageEnvelope{Message: msg})
}

func WriteJSONStatus(w http.ResponseWriter, status int, payload any) {
	writeJSON(w, status, payload)
}

// WriteError maps err to its HTTP status and public message. Untyped errors
// become opaque internal errors; the full chain only goes to the log.
func WriteError(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, err error) {
	if err == nil {
		err = errors.New("unknown error")
	}

	typed := pkgerrors.As(err)
	if typed == nil {
		typed = pkgerrors.Wrap(pkgerrors.CodeInternal, err, "unexpected error")
	}
	meta := pkgerrors.MetadataFor(typed.Code())

	payload := types.ErrorEnvelope{
		Error: meta.PublicMessage,
		Code:  string(typed.Code()),
	}
	if meta.ClientFacing && typed.Message() != "" {
		payload.Error = typed.Message()
	}
	if meta.DetailsAllowed {
		payload.Details = typed.Details()
	}

	if logg != nil {
		ctx = logg.WithFields(ctx, pkgerrors.Dump(err).Fields())
		if meta.HTTPStatus >= http.StatusInternalServerError {
			logg.Error(ctx, "request.error", err)
		} else {
			logg.Warn(ctx, "request.rejected")
		}
	}

	writeJSON(w, meta.HTTPStatus, payload)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf(`{"level":"error","msg":"failed to encode response","err":"%v"}`, err)
	}
}
