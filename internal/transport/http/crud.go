package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// resource serves list/create/read/update/delete of one entity type T, edited through
// input In. Each operation receives the request so it can read the caller and the
// parent ids from the path.
type resource[T any, In any] struct {
	idParam string
	list    func(r *http.Request) ([]T, error)
	create  func(r *http.Request, in In) (T, error)
	get     func(r *http.Request, id int64) (T, error)
	update  func(r *http.Request, id int64, in In) (T, error)
	remove  func(r *http.Request, id int64) error
}

// mount registers the collection on r. extra adds routes below /{id}.
func (res resource[T, In]) mount(r chi.Router, extra func(r chi.Router)) {
	r.Get("/", res.handleList)
	r.Post("/", res.handleCreate)
	r.Route("/{"+res.idParam+"}", func(r chi.Router) {
		r.Get("/", res.handleGet)
		r.Put("/", res.handleUpdate)
		r.Delete("/", res.handleDelete)
		if extra != nil {
			extra(r)
		}
	})
}

func (res resource[T, In]) handleList(w http.ResponseWriter, r *http.Request) {
	items, err := res.list(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if items == nil {
		items = []T{}
	}
	writeJSON(w, http.StatusOK, items)
}

func (res resource[T, In]) handleCreate(w http.ResponseWriter, r *http.Request) {
	var in In
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	item, err := res.create(r, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (res resource[T, In]) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, res.idParam)
	if err != nil {
		writeError(w, r, err)
		return
	}
	item, err := res.get(r, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (res resource[T, In]) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, res.idParam)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in In
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	item, err := res.update(r, id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (res resource[T, In]) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, res.idParam)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := res.remove(r, id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
