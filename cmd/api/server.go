package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"sufikitchen/pkg/cart"
	"sufikitchen/pkg/catalog"
	"sufikitchen/pkg/content"
	"sufikitchen/pkg/logger"
	"sufikitchen/pkg/order"
	"sufikitchen/pkg/otel"
)

const sessionCookie = "session_id"

type sessionKey struct{}

// Server holds the HTTP handlers and their dependencies.
type Server struct {
	menu     *catalog.Catalog
	sessions *cart.Sessions
	orders   order.Submitter
	content  *content.Generator // nil when no model is configured
	metrics  http.Handler
	tracer   trace.Tracer
	log      *zap.Logger
}

// Router builds the route table.
func (s *Server) Router() http.Handler {
	r := mux.NewRouter()
	r.Use(s.traceMiddleware)

	r.HandleFunc("/menu", s.menuHandler).Methods(http.MethodGet)
	r.HandleFunc("/menu/{slug}", s.dishHandler).Methods(http.MethodGet)

	api := r.NewRoute().Subrouter()
	api.Use(s.sessionMiddleware)
	api.HandleFunc("/cart", s.getCartHandler).Methods(http.MethodGet)
	api.HandleFunc("/cart", s.clearCartHandler).Methods(http.MethodDelete)
	api.HandleFunc("/cart/items", s.addItemHandler).Methods(http.MethodPost)
	api.HandleFunc("/cart/items/{id}", s.updateItemHandler).Methods(http.MethodPut)
	api.HandleFunc("/cart/items/{id}", s.removeItemHandler).Methods(http.MethodDelete)
	api.HandleFunc("/cart/ws", s.cartSocketHandler).Methods(http.MethodGet)
	api.HandleFunc("/checkout", s.checkoutHandler).Methods(http.MethodPost)

	ai := r.PathPrefix("/ai").Subrouter()
	ai.HandleFunc("/recipe", s.recipeHandler).Methods(http.MethodPost)
	ai.HandleFunc("/description", s.descriptionHandler).Methods(http.MethodPost)
	ai.HandleFunc("/tags", s.tagsHandler).Methods(http.MethodPost)
	ai.HandleFunc("/blog-intro", s.blogIntroHandler).Methods(http.MethodPost)
	ai.HandleFunc("/poem", s.poemHandler).Methods(http.MethodPost)

	if s.metrics != nil {
		r.Handle("/metrics", s.metrics).Methods(http.MethodGet)
	}
	r.PathPrefix("/swagger/").Handler(httpSwagger.WrapHandler)
	return r
}

func (s *Server) traceMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := otel.InjectTracing(r.Context(), s.tracer)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// sessionMiddleware assigns an anonymous session id cookie when the
// request has none.
func (s *Server) sessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var sid string
		if c, err := r.Cookie(sessionCookie); err == nil {
			if _, err := uuid.Parse(c.Value); err == nil {
				sid = c.Value
			}
		}
		if sid == "" {
			sid = uuid.NewString()
			http.SetCookie(w, &http.Cookie{
				Name:     sessionCookie,
				Value:    sid,
				Path:     "/",
				Expires:  time.Now().Add(30 * 24 * time.Hour),
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}
		ctx := context.WithValue(r.Context(), sessionKey{}, sid)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) store(r *http.Request) *cart.Store {
	sid, _ := r.Context().Value(sessionKey{}).(string)
	return s.sessions.Get(r.Context(), sid)
}

func (s *Server) logFor(ctx context.Context) *zap.Logger {
	return logger.WithTrace(ctx, s.log, otel.GetTraceID)
}

// menuHandler lists the menu.
// @Summary List menu
// @Produce json
// @Success 200 {array} catalog.Category
// @Router /menu [get]
func (s *Server) menuHandler(w http.ResponseWriter, r *http.Request) {
	_, span := otel.AddSpan(r.Context(), "menuHandler")
	defer span.End()

	writeJSON(w, http.StatusOK, s.menu.Categories())
}

// dishHandler returns one dish.
// @Summary Get dish
// @Produce json
// @Param slug path string true "Dish slug"
// @Success 200 {object} catalog.Dish
// @Router /menu/{slug} [get]
func (s *Server) dishHandler(w http.ResponseWriter, r *http.Request) {
	_, span := otel.AddSpan(r.Context(), "dishHandler")
	defer span.End()

	d, err := s.menu.BySlug(mux.Vars(r)["slug"])
	if err != nil {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// getCartHandler returns the session cart.
// @Summary Get cart
// @Produce json
// @Success 200 {object} cart.State
// @Router /cart [get]
func (s *Server) getCartHandler(w http.ResponseWriter, r *http.Request) {
	_, span := otel.AddSpan(r.Context(), "getCartHandler")
	defer span.End()

	writeJSON(w, http.StatusOK, s.store(r).Snapshot())
}

// addItemHandler adds one unit of a dish.
// @Summary Add item
// @Accept json
// @Produce json
// @Param item body addItemRequest true "Dish"
// @Success 200 {object} cart.State
// @Router /cart/items [post]
func (s *Server) addItemHandler(w http.ResponseWriter, r *http.Request) {
	_, span := otel.AddSpan(r.Context(), "addItemHandler")
	defer span.End()

	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	d, err := s.menu.Dish(req.DishID)
	if err != nil {
		http.Error(w, "unknown dish", http.StatusNotFound)
		return
	}
	st := s.store(r)
	st.AddItem(d)
	writeJSON(w, http.StatusOK, st.Snapshot())
}

// updateItemHandler sets an item quantity; zero or less removes it.
// @Summary Update item quantity
// @Accept json
// @Produce json
// @Param id path int true "Dish ID"
// @Param item body quantityRequest true "Quantity"
// @Success 200 {object} cart.State
// @Router /cart/items/{id} [put]
func (s *Server) updateItemHandler(w http.ResponseWriter, r *http.Request) {
	_, span := otel.AddSpan(r.Context(), "updateItemHandler")
	defer span.End()

	id, err := itemID(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	var req quantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		verr := &cart.ValidationError{Field: "quantity", Reason: "must be a whole number"}
		http.Error(w, verr.Error(), http.StatusBadRequest)
		return
	}
	if req.Quantity > cart.MaxQuantity {
		verr := &cart.ValidationError{Field: "quantity", Reason: fmt.Sprintf("must not exceed %d", cart.MaxQuantity)}
		http.Error(w, verr.Error(), http.StatusBadRequest)
		return
	}
	st := s.store(r)
	st.UpdateItemQuantity(id, req.Quantity)
	writeJSON(w, http.StatusOK, st.Snapshot())
}

// removeItemHandler removes an item.
// @Summary Remove item
// @Produce json
// @Param id path int true "Dish ID"
// @Success 200 {object} cart.State
// @Router /cart/items/{id} [delete]
func (s *Server) removeItemHandler(w http.ResponseWriter, r *http.Request) {
	_, span := otel.AddSpan(r.Context(), "removeItemHandler")
	defer span.End()

	id, err := itemID(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	st := s.store(r)
	st.RemoveItem(id)
	writeJSON(w, http.StatusOK, st.Snapshot())
}

// clearCartHandler empties the cart.
// @Summary Clear cart
// @Success 204
// @Router /cart [delete]
func (s *Server) clearCartHandler(w http.ResponseWriter, r *http.Request) {
	_, span := otel.AddSpan(r.Context(), "clearCartHandler")
	defer span.End()

	s.store(r).ClearCart()
	w.WriteHeader(http.StatusNoContent)
}

// checkoutHandler places an order for the cart contents.
// @Summary Checkout
// @Accept json
// @Produce json
// @Param checkout body checkoutRequest true "Customer and payment"
// @Success 201 {object} order.Confirmation
// @Router /checkout [post]
func (s *Server) checkoutHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "checkoutHandler")
	defer span.End()

	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	conf, err := order.Checkout(ctx, s.orders, s.store(r), req.Customer, req.PaymentMethod)
	switch {
	case errors.Is(err, order.ErrEmptyCart):
		http.Error(w, err.Error(), http.StatusConflict)
		return
	case errors.Is(err, order.ErrInvalid):
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	case err != nil:
		s.logFor(ctx).Error("checkout", zap.Error(err))
		http.Error(w, "could not place order, please try again", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, conf)
}

// recipeHandler generates a recipe.
// @Summary Generate recipe
// @Accept json
// @Produce json
// @Param recipe body recipeRequest true "Dish and style"
// @Success 200 {object} content.Recipe
// @Router /ai/recipe [post]
func (s *Server) recipeHandler(w http.ResponseWriter, r *http.Request) {
	var req recipeRequest
	s.generate(w, r, "recipeHandler", &req, func(ctx context.Context) (any, error) {
		return s.content.GenerateRecipe(ctx, req.RecipeName, req.RecipeStyle)
	})
}

// descriptionHandler writes a recipe description.
// @Summary Describe recipe
// @Accept json
// @Produce json
// @Param recipe body descriptionRequest true "Recipe"
// @Success 200 {object} content.Description
// @Router /ai/description [post]
func (s *Server) descriptionHandler(w http.ResponseWriter, r *http.Request) {
	var req descriptionRequest
	s.generate(w, r, "descriptionHandler", &req, func(ctx context.Context) (any, error) {
		return s.content.DescribeRecipe(ctx, req.RecipeName, req.Cuisine, req.Ingredients, req.Instructions)
	})
}

// tagsHandler suggests recipe tags.
// @Summary Suggest tags
// @Accept json
// @Produce json
// @Param recipe body tagsRequest true "Recipe"
// @Success 200 {object} tagsResponse
// @Router /ai/tags [post]
func (s *Server) tagsHandler(w http.ResponseWriter, r *http.Request) {
	var req tagsRequest
	s.generate(w, r, "tagsHandler", &req, func(ctx context.Context) (any, error) {
		tags, err := s.content.SuggestTags(ctx, req.RecipeName, req.Ingredients, req.CuisineType, req.DietaryRestrictions)
		return tagsResponse{Tags: tags}, err
	})
}

// blogIntroHandler writes a blog post introduction.
// @Summary Blog introduction
// @Accept json
// @Produce json
// @Param topic body blogIntroRequest true "Topic"
// @Success 200 {object} blogIntroResponse
// @Router /ai/blog-intro [post]
func (s *Server) blogIntroHandler(w http.ResponseWriter, r *http.Request) {
	var req blogIntroRequest
	s.generate(w, r, "blogIntroHandler", &req, func(ctx context.Context) (any, error) {
		intro, err := s.content.BlogIntroduction(ctx, req.BlogPostTopic)
		return blogIntroResponse{Introduction: intro}, err
	})
}

// poemHandler writes a short poem.
// @Summary Poem
// @Accept json
// @Produce json
// @Param topic body poemRequest true "Topic"
// @Success 200 {object} poemResponse
// @Router /ai/poem [post]
func (s *Server) poemHandler(w http.ResponseWriter, r *http.Request) {
	var req poemRequest
	s.generate(w, r, "poemHandler", &req, func(ctx context.Context) (any, error) {
		poem, err := s.content.Poem(ctx, req.Topic)
		return poemResponse{Poem: poem}, err
	})
}

func (s *Server) generate(w http.ResponseWriter, r *http.Request, name string, req any, run func(context.Context) (any, error)) {
	ctx, span := otel.AddSpan(r.Context(), name)
	defer span.End()

	if s.content == nil {
		http.Error(w, "content generation is not configured", http.StatusServiceUnavailable)
		return
	}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	out, err := run(ctx)
	switch {
	case errors.Is(err, content.ErrEmptyInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	case err != nil:
		s.logFor(ctx).Error("generate content", zap.String("handler", name), zap.Error(err))
		http.Error(w, "content generation failed", http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func itemID(r *http.Request) (int, error) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		return 0, &cart.ValidationError{Field: "id", Reason: "must be an integer"}
	}
	return id, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

type addItemRequest struct {
	DishID int `json:"dishId"`
}

type quantityRequest struct {
	Quantity int `json:"quantity"`
}

type checkoutRequest struct {
	Customer      order.Customer      `json:"customer"`
	PaymentMethod order.PaymentMethod `json:"paymentMethod"`
}

type recipeRequest struct {
	RecipeName  string `json:"recipeName"`
	RecipeStyle string `json:"recipeStyle"`
}

type descriptionRequest struct {
	RecipeName   string `json:"recipeName"`
	Ingredients  string `json:"ingredients"`
	Cuisine      string `json:"cuisine"`
	Instructions string `json:"instructions"`
}

type tagsRequest struct {
	RecipeName          string `json:"recipeName"`
	Ingredients         string `json:"ingredients"`
	CuisineType         string `json:"cuisineType"`
	DietaryRestrictions string `json:"dietaryRestrictions"`
}

type tagsResponse struct {
	Tags []string `json:"tags"`
}

type blogIntroRequest struct {
	BlogPostTopic string `json:"blogPostTopic"`
}

type blogIntroResponse struct {
	Introduction string `json:"introduction"`
}

type poemRequest struct {
	Topic string `json:"topic"`
}

type poemResponse struct {
	Poem string `json:"poem"`
}
