package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/linemk/storefront/internal/domain/models"
	"github.com/linemk/storefront/internal/service"
)

// ProductRequest: тело создания и редактирования товара
type ProductRequest struct {
	Name         string          `json:"name" validate:"required,max=100"`
	CategoryID   int64           `json:"category_id" validate:"required,gt=0"`
	Price        decimal.Decimal `json:"price"`
	ImageName    string          `json:"image_name" validate:"max=255"`
	Description  string          `json:"description"`
	IsGenuine    bool            `json:"is_genuine"`
	IsFastShip   bool            `json:"is_fast_ship"`
	HintText     string          `json:"hint_text" validate:"max=255"`
	StorageShort string          `json:"storage_short" validate:"max=255"`
	ReturnPolicy string          `json:"return_policy" validate:"max=255"`
	StorageGuide string          `json:"storage_guide"`
}

func (p ProductRequest) input() service.ProductInput {
	return service.ProductInput{
		Name:         p.Name,
		CategoryID:   p.CategoryID,
		Price:        p.Price,
		ImageName:    p.ImageName,
		Description:  p.Description,
		IsGenuine:    p.IsGenuine,
		IsFastShip:   p.IsFastShip,
		HintText:     p.HintText,
		StorageShort: p.StorageShort,
		ReturnPolicy: p.ReturnPolicy,
		StorageGuide: p.StorageGuide,
	}
}

type CategoryRequest struct {
	Name string `json:"name" validate:"required,max=50"`
}

type OrderStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// UserRequest: пустой пароль при редактировании оставляет прежний
type UserRequest struct {
	Username string `json:"username" validate:"required,min=3,max=20"`
	Password string `json:"password"`
	Role     string `json:"role"`
	Status   string `json:"status"`
}

func (u UserRequest) input() service.UserInput {
	return service.UserInput{Username: u.Username, Password: u.Password, Role: u.Role, Status: u.Status}
}

// AdminHandlers собирает обработчики /api/admin
type AdminHandlers struct {
	log     *slog.Logger
	catalog service.AdminCatalogService
	orders  service.AdminOrderService
	users   service.AdminUserService
}

func NewAdminHandlers(log *slog.Logger, catalog service.AdminCatalogService, orders service.AdminOrderService, users service.AdminUserService) *AdminHandlers {
	return &AdminHandlers{log: log, catalog: catalog, orders: orders, users: users}
}

// ListProducts: GET /api/admin/products?q=&category=&sort=&page=
func (h *AdminHandlers) ListProducts(w http.ResponseWriter, r *http.Request) {
	logger := h.log.With(slog.String("op", "handlers.AdminHandlers.ListProducts"))

	query := r.URL.Query()
	filter := models.ProductFilter{Query: query.Get("q"), Sort: query.Get("sort")}
	if c := query.Get("category"); c != "" {
		categoryID, err := strconv.ParseInt(c, 10, 64)
		if err != nil {
			badRequest(w, logger, "invalid category", err)
			return
		}
		filter.CategoryID = categoryID
	}

	page, err := h.catalog.ListProducts(r.Context(), filter, pageParam(r))
	if err != nil {
		writeError(w, logger, err)
		return
	}
	writeJSON(w, logger, http.StatusOK, page)
}

func (h *AdminHandlers) CreateProduct(w http.ResponseWriter, r *http.Request) {
	logger := h.log.With(slog.String("op", "handlers.AdminHandlers.CreateProduct"))

	var req ProductRequest
	if !decodeRequest(w, r, logger, &req) {
		return
	}

	product, err := h.catalog.CreateProduct(r.Context(), req.input())
	if err != nil {
		writeError(w, logger, err)
		return
	}
	writeJSON(w, logger, http.StatusCreated, product)
}

func (h *AdminHandlers) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	logger := h.log.With(slog.String("op", "handlers.AdminHandlers.UpdateProduct"))

	id, ok := idParam(w, r, logger, "id")
	if !ok {
		return
	}
	var req ProductRequest
	if !decodeRequest(w, r, logger, &req) {
		return
	}

	product, err := h.catalog.UpdateProduct(r.Context(), id, req.input())
	if err != nil {
		writeError(w, logger, err)
		return
	}
	writeJSON(w, logger, http.StatusOK, product)
}

func (h *AdminHandlers) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	logger := h.log.With(slog.String("op", "handlers.AdminHandlers.DeleteProduct"))

	id, ok := idParam(w, r, logger, "id")
	if !ok {
		return
	}
	if err := h.catalog.DeleteProduct(r.Context(), id); err != nil {
		writeError(w, logger, err)
		return
	}
	writeJSON(w, logger, http.StatusOK, MessageResponse{Message: "product deleted"})
}

func (h *AdminHandlers) ListCategories(w http.ResponseWriter, r *http.Request) {
	logger := h.log.With(slog.String("op", "handlers.AdminHandlers.ListCategories"))

	categories, err := h.catalog.ListCategories(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, logger, err)
		return
	}
	writeJSON(w, logger, http.StatusOK, categories)
}

func (h *AdminHandlers) CreateCategory(w http.ResponseWriter, r *http.Request) {
	logger := h.log.With(slog.String("op", "handlers.AdminHandlers.CreateCategory"))

	var req CategoryRequest
	if !decodeRequest(w, r, logger, &req) {
		return
	}

	category, err := h.catalog.CreateCategory(r.Context(), req.Name)
	if err != nil {
		writeError(w, logger, err)
		return
	}
	writeJSON(w, logger, http.StatusCreated, category)
}

func (h *AdminHandlers) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	logger := h.log.With(slog.String("op", "handlers.AdminHandlers.UpdateCategory"))

	id, ok := idParam(w, r, logger, "id")
	if !ok {
		return
	}
	var req CategoryRequest
	if !decodeRequest(w, r, logger, &req) {
		return
	}

	category, err := h.catalog.UpdateCategory(r.Context(), id, req.Name)
	if err != nil {
		writeError(w, logger, err)
		return
	}
	writeJSON(w, logger, http.StatusOK, category)
}

func (h *AdminHandlers) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	logger := h.log.With(slog.String("op", "handlers.AdminHandlers.DeleteCategory"))

	id, ok := idParam(w, r, logger, "id")
	if !ok {
		return
	}
	if err := h.catalog.DeleteCategory(r.Context(), id); err != nil {
		writeError(w, logger, err)
		return
	}
	writeJSON(w, logger, http.StatusOK, MessageResponse{Message: "category deleted"})
}

func (h *AdminHandlers) ListOrders(w http.ResponseWriter, r *http.Request) {
	logger := h.log.With(slog.String("op", "handlers.AdminHandlers.ListOrders"))

	orders, err := h.orders.ListOrders(r.Context(), pageParam(r))
	if err != nil {
		writeError(w, logger, err)
		return
	}
	writeJSON(w, logger, http.StatusOK, orders)
}

func (h *AdminHandlers) GetOrder(w http.ResponseWriter, r *http.Request) {
	logger := h.log.With(slog.String("op", "handlers.AdminHandlers.GetOrder"))

	id, ok := idParam(w, r, logger, "id")
	if !ok {
		return
	}
	view, err := h.orders.GetOrder(r.Context(), id)
	if err != nil {
		writeError(w, logger, err)
		return
	}
	writeJSON(w, logger, http.StatusOK, view)
}

// UpdateOrderStatus: POST /api/admin/orders/{id}/status
func (h *AdminHandlers) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	logger := h.log.With(slog.String("op", "handlers.AdminHandlers.UpdateOrderStatus"))

	id, ok := idParam(w, r, logger, "id")
	if !ok {
		return
	}
	var req OrderStatusRequest
	if !decodeRequest(w, r, logger, &req) {
		return
	}

	order, err := h.orders.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		writeError(w, logger, err)
		return
	}
	writeJSON(w, logger, http.StatusOK, order)
}

func (h *AdminHandlers) ListUsers(w http.ResponseWriter, r *http.Request) {
	logger := h.log.With(slog.String("op", "handlers.AdminHandlers.ListUsers"))

	users, err := h.users.ListUsers(r.Context(), r.URL.Query().Get("q"), pageParam(r))
	if err != nil {
		writeError(w, logger, err)
		return
	}
	writeJSON(w, logger, http.StatusOK, users)
}

func (h *AdminHandlers) CreateUser(w http.ResponseWriter, r *http.Request) {
	logger := h.log.With(slog.String("op", "handlers.AdminHandlers.CreateUser"))

	var req UserRequest
	if !decodeRequest(w, r, logger, &req) {
		return
	}

	account, err := h.users.CreateUser(r.Context(), req.input())
	if err != nil {
		writeError(w, logger, err)
		return
	}
	writeJSON(w, logger, http.StatusCreated, account)
}

func (h *AdminHandlers) UpdateUser(w http.ResponseWriter, r *http.Request) {
	logger := h.log.With(slog.String("op", "handlers.AdminHandlers.UpdateUser"))

	actorID, ok := accountID(w, r, logger)
	if !ok {
		return
	}
	id, ok := idParam(w, r, logger, "id")
	if !ok {
		return
	}
	var req UserRequest
	if !decodeRequest(w, r, logger, &req) {
		return
	}

	account, err := h.users.UpdateUser(r.Context(), actorID, id, req.input())
	if err != nil {
		writeError(w, logger, err)
		return
	}
	writeJSON(w, logger, http.StatusOK, account)
}

// ToggleUser: POST /api/admin/users/{id}/toggle, normal <-> locked
func (h *AdminHandlers) ToggleUser(w http.ResponseWriter, r *http.Request) {
	logger := h.log.With(slog.String("op", "handlers.AdminHandlers.ToggleUser"))

	actorID, ok := accountID(w, r, logger)
	if !ok {
		return
	}
	id, ok := idParam(w, r, logger, "id")
	if !ok {
		return
	}

	account, err := h.users.ToggleUser(r.Context(), actorID, id)
	if err != nil {
		writeError(w, logger, err)
		return
	}
	writeJSON(w, logger, http.StatusOK, account)
}

func (h *AdminHandlers) DeleteUser(w http.ResponseWriter, r *http.Request) {
	logger := h.log.With(slog.String("op", "handlers.AdminHandlers.DeleteUser"))

	actorID, ok := accountID(w, r, logger)
	if !ok {
		return
	}
	id, ok := idParam(w, r, logger, "id")
	if !ok {
		return
	}

	if err := h.users.DeleteUser(r.Context(), actorID, id); err != nil {
		writeError(w, logger, err)
		return
	}
	writeJSON(w, logger, http.StatusOK, MessageResponse{Message: "user deleted"})
}
