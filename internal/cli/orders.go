package cli

import (
	"github.com/spf13/cobra"

	"github.com/utafrali/storefront/internal/domain"
)

var (
	// orderPages lists the order views of admin, employe and client.
	orderPages = []string{"admin/commande", "employe/commande", "client/commande"}
	staffHome  = []string{"admin", "employe"}
)

func (c *cli) ordersCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "orders",
		Aliases: []string{"commande", "commandes"},
		Short:   "Track orders",
	}

	var page pageFlags
	list := &cobra.Command{
		Use:         "list",
		Short:       "List all orders (staff) or your own orders (client)",
		Args:        cobra.NoArgs,
		Annotations: view(orderPages...),
		RunE: func(cmd *cobra.Command, _ []string) error {
			var (
				orders []domain.Order
				err    error
			)
			if c.app.Session.HasRole(domain.RoleClient) {
				orders, err = c.app.API.Orders.ListMine(cmd.Context())
			} else {
				orders, err = c.app.API.Orders.List(cmd.Context())
			}
			if err != nil {
				return err
			}
			return printPage(c, orders, page)
		},
	}
	page.bind(list)

	get := &cobra.Command{
		Use:         "get ID",
		Short:       "Show one order",
		Args:        cobra.ExactArgs(1),
		Annotations: view(orderPages...),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			order, err := c.app.API.Orders.Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			return c.print(order)
		},
	}

	status := &cobra.Command{
		Use:         "status ID STATUT",
		Short:       "Change an order status (staff)",
		Args:        cobra.ExactArgs(2),
		Annotations: view(orderPages[:2]...),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			order, err := c.app.API.Orders.UpdateStatus(cmd.Context(), id, domain.OrderStatusInput{Statut: args[1]})
			if err != nil {
				return err
			}
			return c.print(order)
		},
	}

	cmd.AddCommand(list, get, status)
	return cmd
}

func (c *cli) paymentsCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "payments",
		Aliases:     []string{"paiements"},
		Short:       "List payments (staff)",
		Args:        cobra.NoArgs,
		Annotations: view(staffHome...),
		RunE: func(cmd *cobra.Command, _ []string) error {
			items, err := c.app.API.Payments.List(cmd.Context())
			if err != nil {
				return err
			}
			return c.print(items)
		},
	}
}

func (c *cli) deliveriesCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "deliveries",
		Aliases:     []string{"livraisons"},
		Short:       "List deliveries (staff)",
		Args:        cobra.NoArgs,
		Annotations: view(staffHome...),
		RunE: func(cmd *cobra.Command, _ []string) error {
			items, err := c.app.API.Deliveries.List(cmd.Context())
			if err != nil {
				return err
			}
			return c.print(items)
		},
	}
}

func (c *cli) usersCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "users",
		Short:       "List user accounts (admin)",
		Args:        cobra.NoArgs,
		Annotations: view("admin"),
		RunE: func(cmd *cobra.Command, _ []string) error {
			items, err := c.app.API.Users.List(cmd.Context())
			if err != nil {
				return err
			}
			return c.print(items)
		},
	}
}

func (c *cli) dashboardCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "dashboard",
		Aliases:     []string{"accueil"},
		Short:       "Show the home page statistics of your role",
		Args:        cobra.NoArgs,
		Annotations: view("admin", "employe", "client"),
		RunE: func(cmd *cobra.Command, _ []string) error {
			stats, err := c.app.Dashboard.Load(cmd.Context(), c.app.Session.CurrentIdentity())
			if err != nil {
				return err
			}
			return c.print(stats)
		},
	}
}
