package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/Chesten223/SoRight3/internal/api/shared"
	"github.com/Chesten223/SoRight3/internal/domain"
	"github.com/Chesten223/SoRight3/internal/platform/logger"
	"github.com/Chesten223/SoRight3/internal/service/tree"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// TreeHandler serves one tree kind. It is instantiated once for notes and
// once for notebooks.
type TreeHandler[P any] struct {
	service tree.Service[P]
	logger  *slog.Logger
}

// NewTreeHandler creates a TreeHandler; kind only labels its logs.
func NewTreeHandler[P any](service tree.Service[P], kind domain.TreeKind, logger *slog.Logger) *TreeHandler[P] {
	if service == nil || logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("service and logger cannot be nil for TreeHandler")
	}
	return &TreeHandler[P]{
		service: service,
		logger:  logger.With(slog.String("component", "tree_handler"), slog.String("tree", string(kind))),
	}
}

// Routes registers the tree endpoints on r.
func (h *TreeHandler[P]) Routes(r chi.Router) {
	r.Get("/root", h.Root)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
	r.Delete("/{id}", h.Delete)
	r.Get("/{id}/children", h.Children)
	r.Get("/{id}/breadcrumbs", h.Breadcrumbs)
	r.Get("/{id}/subtree", h.Subtree)
	r.Post("/{id}/move", h.Move)
	r.Put("/{id}/name", h.Rename)
	r.Put("/{id}/payload", h.SetPayload)
	r.Put("/{id}/order", h.Reorder)
	r.Post("/{id}/sort", h.Sort)
}

// Root handles GET /root, creating the root on first use.
func (h *TreeHandler[P]) Root(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	userID, ok := requireUser(w, r, log)
	if !ok {
		return
	}

	root, err := h.service.Root(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to load root")
		return
	}
	shared.RespondWithData(w, r, http.StatusOK, nodeToResponse(root))
}

// Get handles GET /{id}.
func (h *TreeHandler[P]) Get(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	userID, id, ok := handleUserIDAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	node, err := h.service.Get(r.Context(), userID, id)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to load node")
		return
	}
	shared.RespondWithData(w, r, http.StatusOK, nodeToResponse(node))
}

// Children handles GET /{id}/children.
func (h *TreeHandler[P]) Children(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.service.Children, "Failed to list children")
}

// Breadcrumbs handles GET /{id}/breadcrumbs.
func (h *TreeHandler[P]) Breadcrumbs(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.service.Breadcrumbs, "Failed to load breadcrumbs")
}

// Subtree handles GET /{id}/subtree.
func (h *TreeHandler[P]) Subtree(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.service.Subtree, "Failed to load subtree")
}

type listFn[P any] func(ctx context.Context, userID, id uuid.UUID) ([]*domain.TreeNode[P], error)

func (h *TreeHandler[P]) list(w http.ResponseWriter, r *http.Request, fn listFn[P], fallback string) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	userID, id, ok := handleUserIDAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	nodes, err := fn(r.Context(), userID, id)
	if err != nil {
		HandleAPIError(w, r, err, fallback)
		return
	}
	shared.RespondWithData(w, r, http.StatusOK, nodesToResponse(nodes))
}

// Create handles POST /.
func (h *TreeHandler[P]) Create(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	userID, ok := requireUser(w, r, log)
	if !ok {
		return
	}

	var req CreateNodeRequest[P]
	if !decodeAndValidate(w, r, &req) {
		return
	}

	node, err := h.service.Create(r.Context(), userID, req.Name, req.ParentID, req.Payload)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create node")
		return
	}

	log.Debug("node created", slog.String("node_id", node.ID.String()))
	shared.RespondWithData(w, r, http.StatusCreated, nodeToResponse(node))
}

// Move handles POST /{id}/move.
func (h *TreeHandler[P]) Move(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	userID, id, ok := handleUserIDAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	var req MoveNodeRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	node, err := h.service.Move(r.Context(), userID, id, req.ParentID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to move node")
		return
	}
	shared.RespondWithData(w, r, http.StatusOK, nodeToResponse(node))
}

// Rename handles PUT /{id}/name.
func (h *TreeHandler[P]) Rename(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	userID, id, ok := handleUserIDAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	var req RenameNodeRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	node, err := h.service.Rename(r.Context(), userID, id, req.Name)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to rename node")
		return
	}
	shared.RespondWithData(w, r, http.StatusOK, nodeToResponse(node))
}

// SetPayload handles PUT /{id}/payload.
func (h *TreeHandler[P]) SetPayload(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	userID, id, ok := handleUserIDAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	var req SetPayloadRequest[P]
	if !decodeAndValidate(w, r, &req) {
		return
	}

	node, err := h.service.SetPayload(r.Context(), userID, id, req.Payload)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to update node")
		return
	}
	shared.RespondWithData(w, r, http.StatusOK, nodeToResponse(node))
}

// Delete handles DELETE /{id}, removing the whole subtree.
func (h *TreeHandler[P]) Delete(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	userID, id, ok := handleUserIDAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	deleted, err := h.service.Delete(r.Context(), userID, id)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to delete node")
		return
	}

	log.Debug("subtree deleted",
		slog.String("node_id", id.String()),
		slog.Int("deleted", len(deleted)))
	shared.RespondWithData(w, r, http.StatusOK, DeleteNodeResponse{Deleted: deleted})
}

// Reorder handles PUT /{id}/order.
func (h *TreeHandler[P]) Reorder(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	userID, id, ok := handleUserIDAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	var req ReorderRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	children, err := h.service.Reorder(r.Context(), userID, id, req.IDs)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to reorder children")
		return
	}
	shared.RespondWithData(w, r, http.StatusOK, nodesToResponse(children))
}

// Sort handles POST /{id}/sort.
func (h *TreeHandler[P]) Sort(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	userID, id, ok := handleUserIDAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	var req SortRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	children, err := h.service.Sort(r.Context(), userID, id, tree.SortKey(req.Key))
	if err != nil {
		HandleAPIError(w, r, err, "Failed to sort children")
		return
	}
	shared.RespondWithData(w, r, http.StatusOK, nodesToResponse(children))
}
