package httpapi

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/mesh-intelligence/canvas/internal/service"
	"github.com/mesh-intelligence/canvas/pkg/types"
)

// handler bundles the widget endpoints.
type handler struct {
	svc *service.Service
}

func (h *handler) list(w http.ResponseWriter, r *http.Request) {
	limit, err := optionalInt(r, "limit")
	if err != nil {
		writeError(w, r, err)
		return
	}
	offset, err := optionalInt(r, "offset")
	if err != nil {
		writeError(w, r, err)
		return
	}

	widgets, err := h.svc.List(r.Context(), types.NewPage(limit, offset))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, widgets)
}

func (h *handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	widget, err := h.svc.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, widget)
}

func (h *handler) create(w http.ResponseWriter, r *http.Request) {
	var in types.WidgetInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	// IDs are always assigned by the store.
	in.ID = 0

	widget, err := h.svc.Create(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, widget)
}

// update handles PUT on the collection (ID in the body) and on a single
// widget (ID in the path, which must agree with any ID in the body).
func (h *handler) update(w http.ResponseWriter, r *http.Request) {
	var in types.WidgetInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}

	if _, ok := mux.Vars(r)["id"]; ok {
		id, err := pathID(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		if in.ID != 0 && in.ID != id {
			writeError(w, r, fmt.Errorf("%w: body id %d does not match path id %d", types.ErrInvalidInput, in.ID, id))
			return
		}
		in.ID = id
	}

	widget, err := h.svc.Update(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, widget)
}

func (h *handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.svc.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func pathID(r *http.Request) (int64, error) {
	raw := mux.Vars(r)["id"]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: id %q is not an integer", errMalformed, raw)
	}
	return id, nil
}
