package apitest

import (
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/pkg/httputil"
)

const lowStockThreshold = 10

// AddCategory stores c with a fresh id.
func (s *Server) AddCategory(c domain.Category) domain.Category {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	c.ID = s.nextID
	c.CreatedAt = now()
	s.Categories = append(s.Categories, c)
	return c
}

// AddProduct stores p with a fresh id.
func (s *Server) AddProduct(p domain.Product) domain.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	p.ID = s.nextID
	s.Products = append(s.Products, p)
	return p
}

// AddOrder stores o with a fresh id, keeping its status and creation date
// when set.
func (s *Server) AddOrder(o domain.Order) domain.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	o.ID = s.nextID
	if o.Statut == "" {
		o.Statut = domain.OrderStatusEnPreparation
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = now()
	}
	s.Orders = append(s.Orders, o)
	return o
}

// AddPayment stores p with a fresh id.
func (s *Server) AddPayment(p domain.Payment) domain.Payment {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	p.ID = s.nextID
	s.Payments = append(s.Payments, p)
	return p
}

// AddDelivery stores d with a fresh id.
func (s *Server) AddDelivery(d domain.Delivery) domain.Delivery {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	d.ID = s.nextID
	s.Deliveries = append(s.Deliveries, d)
	return d
}

// AddMessage stores m with a fresh id.
func (s *Server) AddMessage(m domain.ChatMessage) domain.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	m.ID = s.nextID
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now()
	}
	s.Messages = append(s.Messages, m)
	return m
}

func now() domain.Timestamp {
	return domain.Timestamp{Time: time.Now().UTC().Truncate(time.Second)}
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	return httputil.ParseID(w, chi.URLParam(r, name))
}

// --- auth ---

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var in domain.Credentials
	if !decode(w, r, &in) {
		return
	}
	s.mu.Lock()
	acc, ok := s.accounts[strings.ToLower(in.Email)]
	if !ok || acc.password != in.Password {
		s.mu.Unlock()
		httputil.WriteMessage(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	user := acc.user
	token := s.issueLocked(user, s.tokenTTL)
	s.mu.Unlock()

	httputil.WriteJSON(w, http.StatusOK, domain.TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   int(s.tokenTTL.Seconds()),
		User:        &user,
	})
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var in domain.Registration
	if !decode(w, r, &in) {
		return
	}
	if in.Password != in.PasswordConfirmation {
		invalid(w, r, "password", "The password field confirmation does not match.")
		return
	}
	s.mu.Lock()
	if _, exists := s.accounts[strings.ToLower(in.Email)]; exists {
		s.mu.Unlock()
		invalid(w, r, "email", "The email has already been taken.")
		return
	}
	user := s.addUserLocked(in.NomComplet, in.Email, in.Password, domain.RoleClient)
	token := s.issueLocked(user, s.tokenTTL)
	s.mu.Unlock()

	httputil.WriteJSON(w, http.StatusCreated, domain.TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		User:        &user,
	})
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.revoked[bearer(r)] = true
	s.mu.Unlock()
	httputil.WriteMessage(w, http.StatusOK, "Successfully logged out")
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	c := claims(r)
	s.mu.Lock()
	acc := s.accounts[strings.ToLower(c.Email)]
	user := acc.user
	s.mu.Unlock()
	httputil.WriteJSON(w, http.StatusOK, user)
}

func (s *Server) listUsers(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	users := make([]domain.User, 0, len(s.accounts))
	for _, acc := range s.accounts {
		users = append(users, acc.user)
	}
	s.mu.Unlock()
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	httputil.WriteJSON(w, http.StatusOK, users)
}

func (s *Server) userByID(id int64) *domain.User {
	for _, acc := range s.accounts {
		if acc.user.ID == id {
			u := acc.user
			return &u
		}
	}
	return nil
}

// --- catalog ---

func (s *Server) listCategories(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	out := append([]domain.Category(nil), s.Categories...)
	s.mu.Unlock()
	httputil.WriteJSON(w, http.StatusOK, out)
}

func (s *Server) getCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.Categories {
		if c.ID == id {
			httputil.WriteJSON(w, http.StatusOK, c)
			return
		}
	}
	notFound(w)
}

func (s *Server) createCategory(w http.ResponseWriter, r *http.Request) {
	var in domain.CategoryInput
	if !decode(w, r, &in) {
		return
	}
	if len(in.Nom) < 2 {
		invalid(w, r, "nom", "The nom field must be at least 2 characters.")
		return
	}
	c := s.AddCategory(domain.Category{Nom: in.Nom, Description: in.Description})
	httputil.WriteJSON(w, http.StatusCreated, c)
}

func (s *Server) updateCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var in domain.CategoryInput
	if !decode(w, r, &in) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.Categories {
		if s.Categories[i].ID == id {
			s.Categories[i].Nom = in.Nom
			s.Categories[i].Description = in.Description
			s.Categories[i].UpdatedAt = now()
			httputil.WriteJSON(w, http.StatusOK, s.Categories[i])
			return
		}
	}
	notFound(w)
}

func (s *Server) deleteCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.Categories {
		if s.Categories[i].ID == id {
			s.Categories = append(s.Categories[:i], s.Categories[i+1:]...)
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	notFound(w)
}

func stockStatus(stock int) string {
	switch {
	case stock <= 2:
		return domain.StockCritique
	case stock <= 5:
		return domain.StockFaible
	case stock <= lowStockThreshold:
		return domain.StockMoyen
	default:
		return domain.StockBon
	}
}

func decorate(p domain.Product) domain.Product {
	p.StockStatus = stockStatus(p.Stock)
	p.NeedRestocking = p.Stock <= lowStockThreshold
	if p.NeedRestocking {
		p.StockAlertMessage = fmt.Sprintf("Stock bas: %d unités restantes", p.Stock)
	}
	return p
}

func (s *Server) listProducts(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	out := make([]domain.Product, 0, len(s.Products))
	for _, p := range s.Products {
		out = append(out, decorate(p))
	}
	s.mu.Unlock()
	httputil.WriteJSON(w, http.StatusOK, out)
}

func (s *Server) lowStock(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	out := []domain.Product{}
	for _, p := range s.Products {
		if p.Stock <= lowStockThreshold {
			out = append(out, decorate(p))
		}
	}
	s.mu.Unlock()
	httputil.WriteJSON(w, http.StatusOK, out)
}

func (s *Server) stockStatistics(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stats := map[string]int{"total_produits": len(s.Products)}
	for _, p := range s.Products {
		stats[stockStatus(p.Stock)]++
		if p.Stock == 0 {
			stats["rupture"]++
		}
	}
	httputil.WriteJSON(w, http.StatusOK, stats)
}

func (s *Server) getProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.productIndex(id); i >= 0 {
		httputil.WriteJSON(w, http.StatusOK, decorate(s.Products[i]))
		return
	}
	notFound(w)
}

func (s *Server) productIndex(id int64) int {
	for i := range s.Products {
		if s.Products[i].ID == id {
			return i
		}
	}
	return -1
}

// productFromForm reads the multipart product form. It answers 422 and
// returns false when a field is missing or malformed.
func productFromForm(w http.ResponseWriter, r *http.Request) (domain.Product, bool) {
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		httputil.WriteMessage(w, http.StatusBadRequest, "expected multipart/form-data")
		return domain.Product{}, false
	}
	var p domain.Product
	p.Nom = r.FormValue("nom")
	p.Description = r.FormValue("description")
	prix, err := decimal.NewFromString(r.FormValue("prix"))
	if err != nil {
		invalid(w, r, "prix", "The prix field must be a number.")
		return p, false
	}
	p.Prix = prix
	if p.Stock, err = strconv.Atoi(r.FormValue("stock")); err != nil {
		invalid(w, r, "stock", "The stock field must be an integer.")
		return p, false
	}
	if p.CategorieID, err = strconv.ParseInt(r.FormValue("categorie_id"), 10, 64); err != nil {
		invalid(w, r, "categorie_id", "The categorie id field is required.")
		return p, false
	}
	if _, header, err := r.FormFile("image"); err == nil {
		p.Image = "produits/" + header.Filename
	}
	return p, true
}

func (s *Server) createProduct(w http.ResponseWriter, r *http.Request) {
	p, ok := productFromForm(w, r)
	if !ok {
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, decorate(s.AddProduct(p)))
}

func (s *Server) updateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if r.URL.Query().Get("_method") != http.MethodPut {
		httputil.WriteMessage(w, http.StatusMethodNotAllowed, "The POST method is not supported for this route.")
		return
	}
	p, ok := productFromForm(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.productIndex(id)
	if i < 0 {
		notFound(w)
		return
	}
	p.ID = id
	if p.Image == "" {
		p.Image = s.Products[i].Image
	}
	s.Products[i] = p
	httputil.WriteJSON(w, http.StatusOK, decorate(p))
}

func (s *Server) deleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.productIndex(id)
	if i < 0 {
		notFound(w)
		return
	}
	s.Products = append(s.Products[:i], s.Products[i+1:]...)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) restock(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var in domain.RestockInput
	if !decode(w, r, &in) {
		return
	}
	if in.Quantite <= 0 {
		invalid(w, r, "quantite", "The quantite field must be at least 1.")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.productIndex(id)
	if i < 0 {
		notFound(w)
		return
	}
	s.Products[i].Stock += in.Quantite
	httputil.WriteJSON(w, http.StatusOK, decorate(s.Products[i]))
}

// --- promotions ---

func (s *Server) listPromotions(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	out := append([]domain.Promotion(nil), s.Promotions...)
	s.mu.Unlock()
	httputil.WriteJSON(w, http.StatusOK, out)
}

func (s *Server) createPromotion(w http.ResponseWriter, r *http.Request) {
	var in domain.PromotionInput
	if !decode(w, r, &in) {
		return
	}
	debut, err1 := time.Parse("2006-01-02", in.DateDebut)
	fin, err2 := time.Parse("2006-01-02", in.DateFin)
	if err1 != nil || err2 != nil || fin.Before(debut) {
		invalid(w, r, "dateFin", "The date fin field must be a date after or equal to date debut.")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	p := domain.Promotion{
		ID:          s.nextID,
		Nom:         in.Nom,
		Description: in.Description,
		Reduction:   in.Reduction,
		DateDebut:   domain.Timestamp{Time: debut},
		DateFin:     domain.Timestamp{Time: fin},
		Actif:       in.Actif,
		CreatedAt:   now(),
	}
	s.Promotions = append(s.Promotions, p)
	httputil.WriteJSON(w, http.StatusCreated, p)
}

func (s *Server) attachProduct(w http.ResponseWriter, r *http.Request) {
	promoID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var in domain.AttachProductInput
	if !decode(w, r, &in) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.Promotions {
		if s.Promotions[i].ID != promoID {
			continue
		}
		pi := s.productIndex(in.ProduitID)
		if pi < 0 {
			invalid(w, r, "produit_id", "The selected produit id is invalid.")
			return
		}
		s.Promotions[i].Produits = append(s.Promotions[i].Produits, s.Products[pi])
		s.nextID++
		httputil.WriteJSON(w, http.StatusCreated, domain.PromotionProduct{
			ID:               s.nextID,
			PromoID:          promoID,
			ProduitID:        in.ProduitID,
			MontantReduction: in.MontantReduction,
		})
		return
	}
	notFound(w)
}

// --- orders ---

func (s *Server) listOrders(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	out := append([]domain.Order(nil), s.Orders...)
	s.mu.Unlock()
	httputil.WriteJSON(w, http.StatusOK, out)
}

func (s *Server) myOrders(w http.ResponseWriter, r *http.Request) {
	c := claims(r)
	s.mu.Lock()
	out := []domain.Order{}
	for _, o := range s.Orders {
		if o.ClientID == c.UserID {
			out = append(out, o)
		}
	}
	s.mu.Unlock()
	httputil.WriteJSON(w, http.StatusOK, out)
}

func (s *Server) createOrder(w http.ResponseWriter, r *http.Request) {
	var in domain.OrderInput
	if !decode(w, r, &in) {
		return
	}
	if len(in.Produits) == 0 {
		invalid(w, r, "produits", "The produits field is required.")
		return
	}
	c := claims(r)

	s.mu.Lock()
	defer s.mu.Unlock()

	total := decimal.Zero
	lines := make([]domain.OrderLine, 0, len(in.Produits))
	for n, item := range in.Produits {
		i := s.productIndex(item.ProduitID)
		if i < 0 {
			invalid(w, r, fmt.Sprintf("produits.%d.produit_id", n), "The selected produit id is invalid.")
			return
		}
		if s.Products[i].Stock < item.Quantite {
			invalid(w, r, fmt.Sprintf("produits.%d.quantite", n),
				fmt.Sprintf("Stock insuffisant pour %s", s.Products[i].Nom))
			return
		}
		amount := s.Products[i].Prix.Mul(decimal.NewFromInt(int64(item.Quantite)))
		total = total.Add(amount)
		lines = append(lines, domain.OrderLine{
			ProduitID:    item.ProduitID,
			Quantite:     item.Quantite,
			PrixU:        s.Products[i].Prix,
			MontantTotal: amount,
		})
	}
	for _, item := range in.Produits {
		s.Products[s.productIndex(item.ProduitID)].Stock -= item.Quantite
	}

	s.nextID++
	order := domain.Order{
		ID:               s.nextID,
		ClientID:         c.UserID,
		MontantTotal:     total,
		Statut:           domain.OrderStatusEnPreparation,
		CreatedAt:        now(),
		ProduitCommander: lines,
	}
	for i := range order.ProduitCommander {
		order.ProduitCommander[i].CommandeID = order.ID
	}
	s.nextID++
	payment := domain.Payment{
		ID:           s.nextID,
		CommandeID:   order.ID,
		Statut:       domain.PaymentStatusEnAttente,
		ModePaiement: in.ModePaiement,
		MontantPaye:  decimal.Zero,
		CreatedAt:    now(),
	}
	s.Payments = append(s.Payments, payment)
	order.Paiement = &payment
	s.Orders = append(s.Orders, order)
	httputil.WriteJSON(w, http.StatusCreated, order)
}

func (s *Server) updateOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var in domain.OrderStatusInput
	if !decode(w, r, &in) {
		return
	}
	if !domain.IsValidOrderStatus(in.Statut) {
		invalid(w, r, "statut", "The selected statut is invalid.")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.Orders {
		if s.Orders[i].ID == id {
			s.Orders[i].Statut = in.Statut
			s.Orders[i].UpdatedAt = now()
			httputil.WriteJSON(w, http.StatusOK, s.Orders[i])
			return
		}
	}
	notFound(w)
}

func (s *Server) listPayments(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	out := append([]domain.Payment(nil), s.Payments...)
	s.mu.Unlock()
	httputil.WriteJSON(w, http.StatusOK, out)
}

func (s *Server) listDeliveries(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	out := append([]domain.Delivery(nil), s.Deliveries...)
	s.mu.Unlock()
	httputil.WriteJSON(w, http.StatusOK, out)
}

// --- chat ---

func (s *Server) visible(c *claimsView, m domain.ChatMessage) bool {
	if c.role == domain.RoleClient {
		return m.ClientID == c.id
	}
	return true
}

type claimsView struct {
	id   int64
	role domain.Role
}

func view(r *http.Request) *claimsView {
	c := claims(r)
	return &claimsView{id: c.UserID, role: domain.Role(c.Role)}
}

func (s *Server) conversations(w http.ResponseWriter, r *http.Request) {
	c := view(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	byClient := map[int64]*domain.Conversation{}
	var order []int64
	for i := range s.Messages {
		m := s.Messages[i]
		if !s.visible(c, m) {
			continue
		}
		conv, ok := byClient[m.ClientID]
		if !ok {
			conv = &domain.Conversation{ClientID: m.ClientID, Client: s.userByID(m.ClientID)}
			if emp, assigned := s.Assigned[m.ClientID]; assigned {
				conv.EmployeID = &emp
			}
			byClient[m.ClientID] = conv
			order = append(order, m.ClientID)
		}
		conv.LastMessage = &m
		if !m.EstLu && m.EmeteurID != c.id {
			conv.UnreadCount++
		}
	}
	out := make([]domain.Conversation, 0, len(order))
	for _, id := range order {
		out = append(out, *byClient[id])
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func (s *Server) unreadCount(w http.ResponseWriter, r *http.Request) {
	c := view(r)
	s.mu.Lock()
	n := 0
	for _, m := range s.Messages {
		if s.visible(c, m) && !m.EstLu && m.EmeteurID != c.id {
			n++
		}
	}
	s.mu.Unlock()
	httputil.WriteJSON(w, http.StatusOK, domain.UnreadCount{Count: n})
}

func (s *Server) conversationMessages(w http.ResponseWriter, r *http.Request) {
	clientID, ok := pathID(w, r, "clientId")
	if !ok {
		return
	}
	c := view(r)
	if c.role == domain.RoleClient && c.id != clientID {
		httputil.WriteMessage(w, http.StatusForbidden, "This action is unauthorized.")
		return
	}
	s.mu.Lock()
	out := []domain.ChatMessage{}
	for _, m := range s.Messages {
		if m.ClientID == clientID {
			m.Sender = s.userByID(m.EmeteurID)
			out = append(out, m)
		}
	}
	s.mu.Unlock()
	httputil.WriteJSON(w, http.StatusOK, out)
}

func (s *Server) sendMessage(w http.ResponseWriter, r *http.Request) {
	var in domain.SendMessageInput
	if !decode(w, r, &in) {
		return
	}
	c := view(r)
	if in.ClientID != c.id || in.EmeteurID != c.id {
		httputil.WriteMessage(w, http.StatusForbidden, "This action is unauthorized.")
		return
	}
	if strings.TrimSpace(in.Message) == "" {
		invalid(w, r, "message", "The message field is required.")
		return
	}
	m := s.AddMessage(domain.ChatMessage{
		ClientID:    in.ClientID,
		EmployeID:   in.EmployeID,
		Message:     in.Message,
		EmeteurType: in.EmeteurType,
		EmeteurID:   in.EmeteurID,
	})
	httputil.WriteJSON(w, http.StatusCreated, m)
}

func (s *Server) reply(w http.ResponseWriter, r *http.Request) {
	var in domain.ReplyInput
	if !decode(w, r, &in) {
		return
	}
	c := view(r)
	employe := c.id
	m := s.AddMessage(domain.ChatMessage{
		ClientID:    in.ClientID,
		EmployeID:   &employe,
		Message:     in.Message,
		EmeteurType: c.role,
		EmeteurID:   c.id,
	})
	httputil.WriteJSON(w, http.StatusCreated, m)
}

func (s *Server) deleteMessage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	c := view(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, m := range s.Messages {
		if m.ID != id {
			continue
		}
		if m.EmeteurID != c.id && c.role != domain.RoleAdmin {
			httputil.WriteMessage(w, http.StatusForbidden, "This action is unauthorized.")
			return
		}
		s.Messages = append(s.Messages[:i], s.Messages[i+1:]...)
		w.WriteHeader(http.StatusNoContent)
		return
	}
	notFound(w)
}

func (s *Server) markRead(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.Messages {
		if s.Messages[i].ID == id {
			s.Messages[i].EstLu = true
			httputil.WriteJSON(w, http.StatusOK, s.Messages[i])
			return
		}
	}
	notFound(w)
}

func (s *Server) markConversationRead(w http.ResponseWriter, r *http.Request) {
	clientID, ok := pathID(w, r, "clientId")
	if !ok {
		return
	}
	c := view(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.Messages {
		if s.Messages[i].ClientID == clientID && s.Messages[i].EmeteurID != c.id {
			s.Messages[i].EstLu = true
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) assign(w http.ResponseWriter, r *http.Request) {
	var in domain.AssignInput
	if !decode(w, r, &in) {
		return
	}
	s.mu.Lock()
	s.Assigned[in.ClientID] = in.EmployeID
	s.mu.Unlock()
	httputil.WriteMessage(w, http.StatusOK, "Employé assigné")
}

func (s *Server) getOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	c := view(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.Orders {
		if o.ID != id {
			continue
		}
		if c.role == domain.RoleClient && o.ClientID != c.id {
			httputil.WriteMessage(w, http.StatusForbidden, "This action is unauthorized.")
			return
		}
		httputil.WriteJSON(w, http.StatusOK, o)
		return
	}
	notFound(w)
}

func (s *Server) detachProduct(w http.ResponseWriter, r *http.Request) {
	promoID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	productID, ok := pathID(w, r, "produitId")
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.Promotions {
		if s.Promotions[i].ID != promoID {
			continue
		}
		kept := s.Promotions[i].Produits[:0]
		for _, p := range s.Promotions[i].Produits {
			if p.ID != productID {
				kept = append(kept, p)
			}
		}
		s.Promotions[i].Produits = kept
		w.WriteHeader(http.StatusNoContent)
		return
	}
	notFound(w)
}
