package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/Bessima/orderflow/internal/customerror"
	"github.com/Bessima/orderflow/internal/handlers/schemas"
	"github.com/Bessima/orderflow/internal/importer"
	"github.com/Bessima/orderflow/internal/models"
)

type ProductCatalog interface {
	ListActive(ctx context.Context, userID int) ([]models.Product, error)
	Create(ctx context.Context, product models.Product) (*models.Product, error)
}

// ProductsHandler ведёт каталог, по которому сверяются строки импорта.
type ProductsHandler struct {
	catalog ProductCatalog
}

func NewProductsHandler(catalog ProductCatalog) *ProductsHandler {
	return &ProductsHandler{catalog: catalog}
}

func (h *ProductsHandler) List(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		Unauthorized(w, "user was not got")
		return
	}

	products, err := h.catalog.ListActive(r.Context(), user.ID)
	if err != nil {
		writeError(w, customerror.NewCommonPGError(err))
		return
	}
	writeJSON(w, http.StatusOK, Notice{Level: LevelInfo, Message: fmt.Sprintf("%d products", len(products))}, products)
}

func (h *ProductsHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		Unauthorized(w, "user was not got")
		return
	}

	var req schemas.ProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "Invalid request body")
		return
	}
	if err := schemas.Validate(req); err != nil {
		writeError(w, err)
		return
	}
	normalized := importer.Normalize(req.Name)
	if normalized == "" {
		writeError(w, customerror.NewValidationError("name: required"))
		return
	}
	if req.Price.IsNegative() {
		writeError(w, customerror.NewValidationError("price must not be negative"))
		return
	}

	product, err := h.catalog.Create(r.Context(), models.Product{
		UserID:         user.ID,
		Name:           req.Name,
		NormalizedName: normalized,
		Price:          req.Price,
	})
	if err != nil {
		writeError(w, customerror.NewCommonPGError(err))
		return
	}
	writeJSON(w, http.StatusCreated, Notice{Level: LevelSuccess, Message: fmt.Sprintf("product %s saved", product.Name)}, product)
}
