package cli

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/utafrali/storefront/internal/domain"
)

// Navigation paths of the client cart views.
const (
	cartPath     = "client/panier"
	checkoutPath = "client/validerCommande"
)

// cartView is the printed shape of the cart.
type cartView struct {
	Lines domain.CartLines `json:"lines"`
	Count int              `json:"count"`
	Total decimal.Decimal  `json:"total"`
}

func (c *cli) printCart() error {
	return c.print(cartView{
		Lines: c.app.Cart.Lines(),
		Count: c.app.Cart.Count(),
		Total: c.app.Cart.Total(),
	})
}

// lookupProduct returns the catalog snapshot of id, falling back to the
// product endpoint when the catalog listing does not carry it.
func (c *cli) lookupProduct(ctx context.Context, id int64) (domain.Product, error) {
	if _, err := c.app.Catalog.Refresh(ctx); err != nil {
		return domain.Product{}, err
	}
	if p, ok := c.app.Catalog.Find(id); ok {
		return p, nil
	}
	p, err := c.app.API.Products.Get(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}
	return *p, nil
}

func (c *cli) cartCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "cart",
		Aliases: []string{"panier"},
		Short:   "Manage the cart of this session",
	}

	show := &cobra.Command{
		Use:         "show",
		Short:       "Show the cart lines, item count and total",
		Args:        cobra.NoArgs,
		Annotations: view(cartPath),
		RunE: func(*cobra.Command, []string) error {
			return c.printCart()
		},
	}

	add := &cobra.Command{
		Use:         "add PRODUCT_ID [QUANTITY]",
		Short:       "Add a product to the cart",
		Args:        cobra.RangeArgs(1, 2),
		Annotations: view(cartPath),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			qty := 1
			if len(args) == 2 {
				if qty, err = parsePositiveQuantity(args[1]); err != nil {
					return err
				}
			}
			p, err := c.lookupProduct(cmd.Context(), id)
			if err != nil {
				return err
			}
			c.app.Cart.Add(cmd.Context(), p, qty)
			return c.printCart()
		},
	}

	remove := &cobra.Command{
		Use:         "remove PRODUCT_ID",
		Short:       "Remove a product from the cart",
		Args:        cobra.ExactArgs(1),
		Annotations: view(cartPath),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			c.app.Cart.Remove(cmd.Context(), id)
			return c.printCart()
		},
	}

	set := &cobra.Command{
		Use:         "set PRODUCT_ID QUANTITY",
		Short:       "Set the quantity of a cart line; 0 or less removes it",
		Args:        cobra.ExactArgs(2),
		Annotations: view(cartPath),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			qty, err := parseQuantity(args[1])
			if err != nil {
				return err
			}
			c.app.Cart.SetQuantity(cmd.Context(), id, qty)
			return c.printCart()
		},
	}

	clearCart := &cobra.Command{
		Use:         "clear",
		Short:       "Empty the cart",
		Args:        cobra.NoArgs,
		Annotations: view(cartPath),
		RunE: func(cmd *cobra.Command, _ []string) error {
			c.app.Cart.Clear(cmd.Context())
			return c.printCart()
		},
	}

	cmd.AddCommand(show, add, remove, set, clearCart)
	return cmd
}

func (c *cli) checkoutCommand() *cobra.Command {
	var mode string
	cmd := &cobra.Command{
		Use:         "checkout",
		Aliases:     []string{"validerCommande"},
		Short:       "Place an order for the cart contents (client)",
		Args:        cobra.NoArgs,
		Annotations: view(checkoutPath),
		RunE: func(cmd *cobra.Command, _ []string) error {
			order, err := c.app.Checkout.PlaceOrder(cmd.Context(), mode)
			if err != nil {
				return err
			}
			return c.print(order)
		},
	}
	cmd.Flags().StringVar(&mode, "mode", "à_la_livraison", "payment mode: en_ligne or à_la_livraison")
	return cmd
}
