// Package httpapi exposes the shop, catalog, and order operations over REST.
// Ownership-gated routes read the acting principal from the X-Principal
// header; order placement is open to customers.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	appingredient "github.com/chowline/chowline/internal/application/ingredient"
	appmenu "github.com/chowline/chowline/internal/application/menu"
	apporder "github.com/chowline/chowline/internal/application/order"
	domingredient "github.com/chowline/chowline/internal/domain/ingredient"
	dommenu "github.com/chowline/chowline/internal/domain/menu"
	domorder "github.com/chowline/chowline/internal/domain/order"
	domshop "github.com/chowline/chowline/internal/domain/shop"
	"github.com/chowline/chowline/internal/observability"
)

const (
	componentHTTPHandler = "http_server"
	headerPrincipal      = "X-Principal"
)

type Handler struct {
	ingredients *appingredient.Service
	menu        *appmenu.Service
	placeOrder  *apporder.PlaceOrderUseCase
	orders      *apporder.Service
	log         observability.Logger
	tel         observability.Observability
}

func NewHandler(
	ingredients *appingredient.Service,
	menuSvc *appmenu.Service,
	placeOrder *apporder.PlaceOrderUseCase,
	orders *apporder.Service,
	tel observability.Observability,
) *Handler {
	if tel == nil {
		tel = observability.Nop()
	}
	return &Handler{
		ingredients: ingredients,
		menu:        menuSvc,
		placeOrder:  placeOrder,
		orders:      orders,
		log:         tel.Logger().With(observability.F("component", componentHTTPHandler)),
		tel:         tel,
	}
}

func (h *Handler) Router() http.Handler {
	r := mux.NewRouter()
	r.Use(ObservabilityMiddleware(h.log, h.tel))

	r.HandleFunc("/health", h.handleHealth).Methods(http.MethodGet)

	s := r.PathPrefix("/shops/{shopID}").Subrouter()
	s.HandleFunc("/ingredients", h.handleCreateIngredient).Methods(http.MethodPost)
	s.HandleFunc("/ingredients", h.handleListIngredients).Methods(http.MethodGet)
	s.HandleFunc("/ingredients/{id}", h.handleGetIngredient).Methods(http.MethodGet)
	s.HandleFunc("/ingredients/{id}", h.handleUpdateIngredient).Methods(http.MethodPatch)
	s.HandleFunc("/ingredients/{id}", h.handleDeleteIngredient).Methods(http.MethodDelete)
	s.HandleFunc("/ingredients/{id}/stock", h.handleAdjustStock).Methods(http.MethodPost)

	s.HandleFunc("/menu", h.handleCreateMenuItem).Methods(http.MethodPost)
	s.HandleFunc("/menu", h.handleListMenu).Methods(http.MethodGet)
	s.HandleFunc("/menu/{id}", h.handleGetMenuItem).Methods(http.MethodGet)
	s.HandleFunc("/menu/{id}", h.handleUpdateMenuItem).Methods(http.MethodPatch)
	s.HandleFunc("/menu/{id}", h.handleDeleteMenuItem).Methods(http.MethodDelete)
	s.HandleFunc("/menu/{id}/availability", h.handleSetAvailability).Methods(http.MethodPatch)

	s.HandleFunc("/orders", h.handlePlaceOrder).Methods(http.MethodPost)
	s.HandleFunc("/orders", h.handleListOrders).Methods(http.MethodGet)

	r.HandleFunc("/orders/{id}", h.handleGetOrder).Methods(http.MethodGet)
	r.HandleFunc("/orders/{id}/status", h.handleUpdateOrderStatus).Methods(http.MethodPatch)

	return r
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// --- ingredients

type ingredientResponse struct {
	ID                string  `json:"id"`
	ShopID            string  `json:"shop_id"`
	Name              string  `json:"name"`
	Stock             float64 `json:"stock"`
	Unit              string  `json:"unit"`
	LowStockThreshold float64 `json:"low_stock_threshold"`
	Available         bool    `json:"available"`
	LowStock          bool    `json:"low_stock"`
	CreatedAt         string  `json:"created_at"`
	UpdatedAt         string  `json:"updated_at"`
}

func toIngredientResponse(ing *domingredient.Ingredient) ingredientResponse {
	return ingredientResponse{
		ID:                ing.ID,
		ShopID:            ing.ShopID,
		Name:              ing.Name,
		Stock:             ing.Stock,
		Unit:              string(ing.Unit),
		LowStockThreshold: ing.LowStockThreshold,
		Available:         ing.Available,
		LowStock:          ing.LowStock(),
		CreatedAt:         ing.CreatedAt.Format(time.RFC3339),
		UpdatedAt:         ing.UpdatedAt.Format(time.RFC3339),
	}
}

type createIngredientRequest struct {
	Name              string  `json:"name"`
	Stock             float64 `json:"stock"`
	Unit              string  `json:"unit"`
	LowStockThreshold float64 `json:"low_stock_threshold"`
}

func (h *Handler) handleCreateIngredient(w http.ResponseWriter, r *http.Request) {
	var req createIngredientRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	ing, err := h.ingredients.Create(r.Context(), principal(r), appingredient.CreateInput{
		ShopID:            mux.Vars(r)["shopID"],
		Name:              req.Name,
		Stock:             req.Stock,
		Unit:              domingredient.Unit(req.Unit),
		LowStockThreshold: req.LowStockThreshold,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toIngredientResponse(ing))
}

func (h *Handler) handleListIngredients(w http.ResponseWriter, r *http.Request) {
	list, err := h.ingredients.ListByShop(r.Context(), mux.Vars(r)["shopID"])
	if err != nil {
		writeDomainError(w, err)
		return
	}
	out := make([]ingredientResponse, 0, len(list))
	for _, ing := range list {
		out = append(out, toIngredientResponse(ing))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) handleGetIngredient(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	ing, err := h.ingredients.Get(r.Context(), vars["shopID"], vars["id"])
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toIngredientResponse(ing))
}

type updateIngredientRequest struct {
	Name              *string  `json:"name"`
	Stock             *float64 `json:"stock"`
	Unit              *string  `json:"unit"`
	LowStockThreshold *float64 `json:"low_stock_threshold"`
}

func (h *Handler) handleUpdateIngredient(w http.ResponseWriter, r *http.Request) {
	var req updateIngredientRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	patch := appingredient.UpdatePatch{
		Name:              req.Name,
		Stock:             req.Stock,
		LowStockThreshold: req.LowStockThreshold,
	}
	if req.Unit != nil {
		u := domingredient.Unit(*req.Unit)
		patch.Unit = &u
	}
	vars := mux.Vars(r)
	ing, err := h.ingredients.Update(r.Context(), principal(r), vars["shopID"], vars["id"], patch)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toIngredientResponse(ing))
}

type adjustStockRequest struct {
	Operation string  `json:"operation"`
	Amount    float64 `json:"amount"`
}

func (h *Handler) handleAdjustStock(w http.ResponseWriter, r *http.Request) {
	var req adjustStockRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	vars := mux.Vars(r)
	ing, err := h.ingredients.AdjustStock(r.Context(), principal(r), vars["shopID"], vars["id"],
		domingredient.Op(req.Operation), req.Amount)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toIngredientResponse(ing))
}

func (h *Handler) handleDeleteIngredient(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := h.ingredients.Delete(r.Context(), principal(r), vars["shopID"], vars["id"]); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- menu

type menuItemResponse struct {
	ID                string   `json:"id"`
	ShopID            string   `json:"shop_id"`
	Name              string   `json:"name"`
	Price             float64  `json:"price"`
	Category          string   `json:"category"`
	Description       string   `json:"description,omitempty"`
	IngredientIDs     []string `json:"ingredient_ids"`
	Available         bool     `json:"available"`
	UnavailableReason string   `json:"unavailable_reason,omitempty"`
	CreatedAt         string   `json:"created_at"`
	UpdatedAt         string   `json:"updated_at"`
}

func toMenuItemResponse(item *dommenu.Item) menuItemResponse {
	ids := item.IngredientIDs
	if ids == nil {
		ids = []string{}
	}
	return menuItemResponse{
		ID:                item.ID,
		ShopID:            item.ShopID,
		Name:              item.Name,
		Price:             item.Price,
		Category:          string(item.Category),
		Description:       item.Description,
		IngredientIDs:     ids,
		Available:         item.Available,
		UnavailableReason: item.UnavailableReason,
		CreatedAt:         item.CreatedAt.Format(time.RFC3339),
		UpdatedAt:         item.UpdatedAt.Format(time.RFC3339),
	}
}

type createMenuItemRequest struct {
	Name          string   `json:"name"`
	Price         float64  `json:"price"`
	Category      string   `json:"category"`
	Description   string   `json:"description"`
	IngredientIDs []string `json:"ingredient_ids"`
}

func (h *Handler) handleCreateMenuItem(w http.ResponseWriter, r *http.Request) {
	var req createMenuItemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	item, err := h.menu.Create(r.Context(), principal(r), appmenu.CreateInput{
		ShopID:        mux.Vars(r)["shopID"],
		Name:          req.Name,
		Price:         req.Price,
		Category:      dommenu.Category(req.Category),
		Description:   req.Description,
		IngredientIDs: req.IngredientIDs,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toMenuItemResponse(item))
}

func (h *Handler) handleListMenu(w http.ResponseWriter, r *http.Request) {
	list, err := h.menu.ListByShop(r.Context(), mux.Vars(r)["shopID"])
	if err != nil {
		writeDomainError(w, err)
		return
	}
	out := make([]menuItemResponse, 0, len(list))
	for _, item := range list {
		out = append(out, toMenuItemResponse(item))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) handleGetMenuItem(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	item, err := h.menu.Get(r.Context(), vars["shopID"], vars["id"])
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toMenuItemResponse(item))
}

type updateMenuItemRequest struct {
	Name          *string   `json:"name"`
	Price         *float64  `json:"price"`
	Category      *string   `json:"category"`
	Description   *string   `json:"description"`
	IngredientIDs *[]string `json:"ingredient_ids"`
}

func (h *Handler) handleUpdateMenuItem(w http.ResponseWriter, r *http.Request) {
	var req updateMenuItemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	patch := appmenu.UpdatePatch{
		Name:          req.Name,
		Price:         req.Price,
		Description:   req.Description,
		IngredientIDs: req.IngredientIDs,
	}
	if req.Category != nil {
		c := dommenu.Category(*req.Category)
		patch.Category = &c
	}
	vars := mux.Vars(r)
	item, err := h.menu.Update(r.Context(), principal(r), vars["shopID"], vars["id"], patch)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toMenuItemResponse(item))
}

type setAvailabilityRequest struct {
	Available bool `json:"available"`
}

func (h *Handler) handleSetAvailability(w http.ResponseWriter, r *http.Request) {
	var req setAvailabilityRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	vars := mux.Vars(r)
	item, err := h.menu.SetManualAvailability(r.Context(), principal(r), vars["shopID"], vars["id"], req.Available)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toMenuItemResponse(item))
}

func (h *Handler) handleDeleteMenuItem(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := h.menu.Delete(r.Context(), principal(r), vars["shopID"], vars["id"]); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- orders

type orderLineResponse struct {
	MenuItemID string  `json:"menu_item_id"`
	Name       string  `json:"name"`
	Price      float64 `json:"price"`
	Quantity   int     `json:"quantity"`
	LineTotal  float64 `json:"line_total"`
}

type orderResponse struct {
	ID              string              `json:"id"`
	ShopID          string              `json:"shop_id"`
	Lines           []orderLineResponse `json:"lines"`
	Subtotal        float64             `json:"subtotal"`
	DeliveryFee     float64             `json:"delivery_fee"`
	Total           float64             `json:"total"`
	Status          string              `json:"status"`
	PaymentStatus   string              `json:"payment_status"`
	DeliveryAddress string              `json:"delivery_address,omitempty"`
	PaymentMethod   string              `json:"payment_method,omitempty"`
	Notes           string              `json:"notes,omitempty"`
	CreatedAt       string              `json:"created_at"`
	UpdatedAt       string              `json:"updated_at"`
}

func toOrderResponse(o *domorder.Order) orderResponse {
	lines := make([]orderLineResponse, 0, len(o.Lines))
	for _, l := range o.Lines {
		lines = append(lines, orderLineResponse{
			MenuItemID: l.MenuItemID,
			Name:       l.Name,
			Price:      l.Price,
			Quantity:   l.Quantity,
			LineTotal:  l.LineTotal,
		})
	}
	return orderResponse{
		ID:              o.ID,
		ShopID:          o.ShopID,
		Lines:           lines,
		Subtotal:        o.Subtotal,
		DeliveryFee:     o.DeliveryFee,
		Total:           o.Total,
		Status:          string(o.Status),
		PaymentStatus:   string(o.PaymentStatus),
		DeliveryAddress: o.DeliveryAddress,
		PaymentMethod:   o.PaymentMethod,
		Notes:           o.Notes,
		CreatedAt:       o.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       o.UpdatedAt.Format(time.RFC3339),
	}
}

type placeOrderLineRequest struct {
	MenuItemID string `json:"menu_item_id"`
	Quantity   int    `json:"quantity"`
}

type placeOrderRequest struct {
	Lines           []placeOrderLineRequest `json:"lines"`
	DeliveryFee     *float64                `json:"delivery_fee"`
	DeliveryAddress string                  `json:"delivery_address"`
	PaymentMethod   string                  `json:"payment_method"`
	Notes           string                  `json:"notes"`
}

type placeOrderResponse struct {
	OrderID  string  `json:"order_id"`
	Status   string  `json:"status"`
	Subtotal float64 `json:"subtotal"`
	Total    float64 `json:"total"`
}

func (h *Handler) handlePlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req placeOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	lines := make([]apporder.LineInput, 0, len(req.Lines))
	for _, l := range req.Lines {
		lines = append(lines, apporder.LineInput{MenuItemID: l.MenuItemID, Quantity: l.Quantity})
	}
	result, err := h.placeOrder.Execute(r.Context(), apporder.PlaceOrderInput{
		ShopID:          mux.Vars(r)["shopID"],
		Lines:           lines,
		DeliveryFee:     req.DeliveryFee,
		DeliveryAddress: req.DeliveryAddress,
		PaymentMethod:   req.PaymentMethod,
		Notes:           req.Notes,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, placeOrderResponse{
		OrderID:  result.OrderID,
		Status:   string(result.Status),
		Subtotal: result.Subtotal,
		Total:    result.Total,
	})
}

func (h *Handler) handleListOrders(w http.ResponseWriter, r *http.Request) {
	list, err := h.orders.ListByShop(r.Context(), mux.Vars(r)["shopID"])
	if err != nil {
		writeDomainError(w, err)
		return
	}
	out := make([]orderResponse, 0, len(list))
	for _, o := range list {
		out = append(out, toOrderResponse(o))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.orders.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(o))
}

type updateOrderStatusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) handleUpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req updateOrderStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	o, err := h.orders.UpdateStatus(r.Context(), principal(r), mux.Vars(r)["id"], domorder.Status(req.Status))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(o))
}

// --- plumbing

func principal(r *http.Request) string {
	return r.Header.Get(headerPrincipal)
}

func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// writeDomainError maps the domain error taxonomy onto HTTP statuses.
// Conflict-class errors carry structured bodies so callers can act on them.
func writeDomainError(w http.ResponseWriter, err error) {
	var inUse *domingredient.InUseError
	var unavailable *dommenu.UnavailableError
	var badTransition *domorder.InvalidTransitionError

	switch {
	case errors.As(err, &inUse):
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":         inUse.Error(),
			"ingredient_id": inUse.IngredientID,
			"menu_item_ids": inUse.MenuItemIDs,
			"count":         inUse.Count(),
		})
	case errors.As(err, &unavailable):
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":        unavailable.Error(),
			"menu_item_id": unavailable.MenuItemID,
			"name":         unavailable.Name,
			"reason":       unavailable.Reason,
		})
	case errors.As(err, &badTransition):
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":    badTransition.Error(),
			"order_id": badTransition.OrderID,
			"from":     string(badTransition.From),
			"to":       string(badTransition.To),
		})
	case errors.Is(err, domshop.ErrNotOwner):
		writeError(w, http.StatusForbidden, err)
	case errors.Is(err, domshop.ErrNotFound),
		errors.Is(err, domingredient.ErrNotFound),
		errors.Is(err, dommenu.ErrNotFound),
		errors.Is(err, domorder.ErrNotFound):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, domingredient.ErrNameRequired),
		errors.Is(err, domingredient.ErrInvalidUnit),
		errors.Is(err, domingredient.ErrNegativeStock),
		errors.Is(err, domingredient.ErrNegativeThreshold),
		errors.Is(err, domingredient.ErrInvalidAdjustment),
		errors.Is(err, dommenu.ErrNameRequired),
		errors.Is(err, dommenu.ErrInvalidPrice),
		errors.Is(err, dommenu.ErrInvalidCategory),
		errors.Is(err, dommenu.ErrManualOverride),
		errors.Is(err, domorder.ErrNoLines),
		errors.Is(err, domorder.ErrInvalidQuantity),
		errors.Is(err, domorder.ErrNegativeFee):
		writeError(w, http.StatusBadRequest, err)
	default:
		writeError(w, http.StatusInternalServerError, err)
	}
}
