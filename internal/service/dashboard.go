package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/utafrali/storefront/internal/domain"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

// Number of recent orders shown per dashboard.
const (
	recentOrdersLimit      = 5
	employeRecentOrdersMax = 10
)

// DashboardSources are the collections the dashboards aggregate.
type DashboardSources struct {
	Orders     OrderLister
	Payments   Lister[domain.Payment]
	Deliveries Lister[domain.Delivery]
	Products   Lister[domain.Product]
	Users      Lister[domain.User]
}

// DashboardStats is the home page summary of one role. Fields that do not
// apply to the role are left zero.
type DashboardStats struct {
	Role domain.Role `json:"role"`

	TotalOrders     int `json:"total_commandes"`
	TotalPayments   int `json:"total_paiements,omitempty"`
	TotalDeliveries int `json:"total_livraisons,omitempty"`
	TotalProducts   int `json:"total_produits,omitempty"`
	TotalUsers      int `json:"total_utilisateurs,omitempty"`

	Revenue          decimal.Decimal `json:"chiffre_affaires"`
	OrdersToday      int             `json:"commandes_du_jour"`
	OrderAmountTotal decimal.Decimal `json:"montant_total_commandes"`

	OrdersByStatus     map[string]int `json:"commandes_statut"`
	PaymentsByStatus   map[string]int `json:"paiements_statut,omitempty"`
	DeliveriesByStatus map[string]int `json:"livraisons_statut,omitempty"`

	RecentOrders []domain.Order `json:"commandes_recentes"`
}

// Dashboard computes the per-role statistics from concurrently loaded lists.
type Dashboard struct {
	src    DashboardSources
	logger *slog.Logger
	now    func() time.Time
	loc    *time.Location
}

// NewDashboard creates a Dashboard that counts days in the local zone.
func NewDashboard(src DashboardSources, logger *slog.Logger) *Dashboard {
	return &Dashboard{src: src, logger: logger, now: time.Now, loc: time.Local}
}

// WithLocation sets the zone whose calendar day "today" refers to.
func (d *Dashboard) WithLocation(loc *time.Location) *Dashboard {
	if loc != nil {
		d.loc = loc
	}
	return d
}

// Load computes the dashboard of user's role. Any failing list fails the
// whole dashboard.
func (d *Dashboard) Load(ctx context.Context, user *domain.User) (*DashboardStats, error) {
	if user == nil {
		return nil, apperrors.Unauthorized("not signed in")
	}

	var (
		stats *DashboardStats
		err   error
	)
	switch user.Role {
	case domain.RoleAdmin:
		stats, err = d.admin(ctx)
	case domain.RoleEmploye:
		stats, err = d.employe(ctx)
	case domain.RoleClient:
		stats, err = d.client(ctx)
	default:
		return nil, apperrors.Forbidden(fmt.Sprintf("no dashboard for role %q", user.Role))
	}
	if err != nil {
		d.logger.WarnContext(ctx, "failed to load dashboard",
			slog.String("role", string(user.Role)),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("load dashboard: %w", err)
	}
	stats.Role = user.Role
	return stats, nil
}

type staffLists struct {
	orders     []domain.Order
	payments   []domain.Payment
	deliveries []domain.Delivery
	products   []domain.Product
	users      []domain.User
}

func (d *Dashboard) fetch(ctx context.Context, withCatalog bool) (*staffLists, error) {
	var l staffLists
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		l.orders, err = d.src.Orders.List(gctx)
		return err
	})
	g.Go(func() (err error) {
		l.payments, err = d.src.Payments.List(gctx)
		return err
	})
	g.Go(func() (err error) {
		l.deliveries, err = d.src.Deliveries.List(gctx)
		return err
	})
	if withCatalog {
		g.Go(func() (err error) {
			l.products, err = d.src.Products.List(gctx)
			return err
		})
		g.Go(func() (err error) {
			l.users, err = d.src.Users.List(gctx)
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &l, nil
}

func (d *Dashboard) admin(ctx context.Context) (*DashboardStats, error) {
	l, err := d.fetch(ctx, true)
	if err != nil {
		return nil, err
	}
	stats := d.staffStats(l)
	stats.TotalProducts = len(l.products)
	stats.TotalUsers = len(l.users)
	stats.Revenue = revenue(l.payments)
	stats.RecentOrders = mostRecent(l.orders, recentOrdersLimit, nil)
	return stats, nil
}

func (d *Dashboard) employe(ctx context.Context) (*DashboardStats, error) {
	l, err := d.fetch(ctx, false)
	if err != nil {
		return nil, err
	}
	stats := d.staffStats(l)
	stats.RecentOrders = mostRecent(l.orders, employeRecentOrdersMax, func(o domain.Order) bool {
		return o.Statut == domain.OrderStatusEnPreparation || o.Statut == domain.OrderStatusPrete
	})
	return stats, nil
}

func (d *Dashboard) client(ctx context.Context) (*DashboardStats, error) {
	orders, err := d.src.Orders.ListMine(ctx)
	if err != nil {
		return nil, err
	}
	total := decimal.Zero
	for _, o := range orders {
		total = total.Add(o.MontantTotal)
	}
	return &DashboardStats{
		TotalOrders:      len(orders),
		Revenue:          decimal.Zero,
		OrderAmountTotal: total,
		OrdersToday:      d.ordersToday(orders),
		OrdersByStatus:   orderStatusCounts(orders),
		RecentOrders:     mostRecent(orders, recentOrdersLimit, nil),
	}, nil
}

func (d *Dashboard) staffStats(l *staffLists) *DashboardStats {
	payments := make(map[string]int)
	for _, s := range []string{domain.PaymentStatusPayee, domain.PaymentStatusEnAttente, domain.PaymentStatusEchoue} {
		payments[s] = 0
	}
	for _, p := range l.payments {
		payments[p.Statut]++
	}

	deliveries := make(map[string]int)
	for _, s := range []string{domain.DeliveryStatusLivree, domain.DeliveryStatusEnCours, domain.DeliveryStatusEnAttente, domain.DeliveryStatusEchouee} {
		deliveries[s] = 0
	}
	for _, dl := range l.deliveries {
		deliveries[dl.Statut]++
	}

	return &DashboardStats{
		TotalOrders:        len(l.orders),
		TotalPayments:      len(l.payments),
		TotalDeliveries:    len(l.deliveries),
		Revenue:            decimal.Zero,
		OrderAmountTotal:   decimal.Zero,
		OrdersToday:        d.ordersToday(l.orders),
		OrdersByStatus:     orderStatusCounts(l.orders),
		PaymentsByStatus:   payments,
		DeliveriesByStatus: deliveries,
	}
}

// ordersToday counts orders created on the current day of d.loc.
func (d *Dashboard) ordersToday(orders []domain.Order) int {
	today := d.now().In(d.loc)
	n := 0
	for _, o := range orders {
		if o.CreatedAt.SameDay(today) {
			n++
		}
	}
	return n
}

// revenue sums the amount paid over payments whose status is payée.
func revenue(payments []domain.Payment) decimal.Decimal {
	total := decimal.Zero
	for _, p := range payments {
		if p.Statut == domain.PaymentStatusPayee {
			total = total.Add(p.MontantPaye)
		}
	}
	return total
}

func orderStatusCounts(orders []domain.Order) map[string]int {
	counts := make(map[string]int, len(domain.ValidOrderStatuses()))
	for _, s := range domain.ValidOrderStatuses() {
		counts[s] = 0
	}
	for _, o := range orders {
		counts[o.Statut]++
	}
	return counts
}

// mostRecent returns up to limit orders matching keep, newest first. The
// input slice is not reordered.
func mostRecent(orders []domain.Order, limit int, keep func(domain.Order) bool) []domain.Order {
	out := make([]domain.Order, 0, len(orders))
	for _, o := range orders {
		if keep == nil || keep(o) {
			out = append(out, o)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt.Time)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
