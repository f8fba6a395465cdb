package gateway

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-faster/errors"

	"github.com/sal-retail/backoffice/internal/domain/directory"
	"github.com/sal-retail/backoffice/internal/resource"
)

// errUnknownEntity marks a request for an entity type with no schema.
var errUnknownEntity = errors.New("unknown entity type")

func (g *Gateway) lookup(r *http.Request) (resource.Resource, error) {
	name := r.PathValue("name")
	res, ok := g.registry[name]
	if !ok {
		return nil, errors.Wrapf(errUnknownEntity, "%q", name)
	}
	return res, nil
}

func (g *Gateway) handleEntityList(w http.ResponseWriter, r *http.Request) {
	res, err := g.lookup(r)
	if err != nil {
		g.writeError(r.Context(), w, err)
		return
	}

	raw, err := res.ListJSON(r.Context())
	if err != nil {
		g.writeError(r.Context(), w, err)
		return
	}
	writeRawList(w, raw)
}

func (g *Gateway) handleEntityCreate(w http.ResponseWriter, r *http.Request) {
	res, err := g.lookup(r)
	if err != nil {
		g.writeError(r.Context(), w, err)
		return
	}

	fields, err := decodeFields(r)
	if err != nil {
		g.writeError(r.Context(), w, err)
		return
	}
	g.applyBranchScope(res.Name(), fields)

	if err := res.Create(r.Context(), fields); err != nil {
		g.writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"status": "created"})
}

func (g *Gateway) handleEntityUpdate(w http.ResponseWriter, r *http.Request) {
	res, err := g.lookup(r)
	if err != nil {
		g.writeError(r.Context(), w, err)
		return
	}
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		g.writeError(r.Context(), w, errors.Wrap(errBadRequest, "entity id must be numeric"))
		return
	}

	fields, err := decodeFields(r)
	if err != nil {
		g.writeError(r.Context(), w, err)
		return
	}

	if err := res.Update(r.Context(), id, fields); err != nil {
		g.writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (g *Gateway) handleEntityDelete(w http.ResponseWriter, r *http.Request) {
	res, err := g.lookup(r)
	if err != nil {
		g.writeError(r.Context(), w, err)
		return
	}
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		g.writeError(r.Context(), w, errors.Wrap(errBadRequest, "entity id must be numeric"))
		return
	}

	if err := res.Delete(r.Context(), id); err != nil {
		g.writeError(r.Context(), w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// applyBranchScope defaults branch_id for branch-scoped records created by
// a branch admin. Full admins and explicit branch choices pass through.
func (g *Gateway) applyBranchScope(entity string, fields map[string]any) {
	if entity != "outlets" && entity != "users" {
		return
	}
	if _, ok := fields["branch_id"]; ok {
		return
	}

	user, err := g.sessions.Current()
	if err != nil {
		return
	}
	if user.Segment == directory.SegmentAdminBranch && user.BranchID != nil {
		fields["branch_id"] = *user.BranchID
	}
}

func decodeFields(r *http.Request) (map[string]any, error) {
	var fields map[string]any
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		return nil, errors.Wrap(errBadRequest, "decode entity fields")
	}
	return fields, nil
}
