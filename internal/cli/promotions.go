package cli

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/utafrali/storefront/internal/domain"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

const promotionsPath = "admin/promotion"

func (c *cli) promotionsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "promotions",
		Aliases: []string{"promotion"},
		Short:   "Manage promotions (admin)",
	}

	list := &cobra.Command{
		Use:         "list",
		Short:       "List promotions",
		Args:        cobra.NoArgs,
		Annotations: view(promotionsPath),
		RunE: func(cmd *cobra.Command, _ []string) error {
			items, err := c.app.API.Promotions.List(cmd.Context())
			if err != nil {
				return err
			}
			return c.print(items)
		},
	}

	var (
		in        domain.PromotionInput
		reduction string
	)
	create := &cobra.Command{
		Use:         "create",
		Short:       "Create a promotion",
		Args:        cobra.NoArgs,
		Annotations: view(promotionsPath),
		RunE: func(cmd *cobra.Command, _ []string) error {
			r, err := decimal.NewFromString(reduction)
			if err != nil {
				return apperrors.Validation(fmt.Sprintf("invalid reduction %q", reduction),
					map[string]string{"reduction": "must be a number"})
			}
			in.Reduction = r
			item, err := c.app.API.Promotions.Create(cmd.Context(), in)
			if err != nil {
				return err
			}
			return c.print(item)
		},
	}
	f := create.Flags()
	f.StringVar(&in.Nom, "nom", "", "promotion name")
	f.StringVar(&in.Description, "description", "", "description")
	f.StringVar(&reduction, "reduction", "", "reduction percentage, in (0, 100]")
	f.StringVar(&in.DateDebut, "debut", "", "start date, YYYY-MM-DD")
	f.StringVar(&in.DateFin, "fin", "", "end date, YYYY-MM-DD")
	f.BoolVar(&in.Actif, "actif", true, "whether the promotion is active")

	var amount string
	attach := &cobra.Command{
		Use:         "attach PROMOTION_ID PRODUCT_ID",
		Short:       "Apply a promotion to a product",
		Args:        cobra.ExactArgs(2),
		Annotations: view(promotionsPath),
		RunE: func(cmd *cobra.Command, args []string) error {
			promoID, err := parseID(args[0])
			if err != nil {
				return err
			}
			productID, err := parseID(args[1])
			if err != nil {
				return err
			}
			link := domain.AttachProductInput{ProduitID: productID}
			if amount != "" {
				m, err := decimal.NewFromString(amount)
				if err != nil {
					return apperrors.Validation(fmt.Sprintf("invalid montant %q", amount),
						map[string]string{"montant_reduction": "must be a number"})
				}
				link.MontantReduction = &m
			}
			out, err := c.app.API.Promotions.AttachProduct(cmd.Context(), promoID, link)
			if err != nil {
				return err
			}
			return c.print(out)
		},
	}
	attach.Flags().StringVar(&amount, "montant", "", "fixed reduction amount")

	detach := &cobra.Command{
		Use:         "detach PROMOTION_ID PRODUCT_ID",
		Short:       "Remove a promotion from a product",
		Args:        cobra.ExactArgs(2),
		Annotations: view(promotionsPath),
		RunE: func(cmd *cobra.Command, args []string) error {
			promoID, err := parseID(args[0])
			if err != nil {
				return err
			}
			productID, err := parseID(args[1])
			if err != nil {
				return err
			}
			if err := c.app.API.Promotions.DetachProduct(cmd.Context(), promoID, productID); err != nil {
				return err
			}
			c.printf("product %d detached from promotion %d\n", productID, promoID)
			return nil
		},
	}

	del := &cobra.Command{
		Use:         "delete ID",
		Short:       "Delete a promotion",
		Args:        cobra.ExactArgs(1),
		Annotations: view(promotionsPath),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := c.app.API.Promotions.Delete(cmd.Context(), id); err != nil {
				return err
			}
			c.printf("promotion %d deleted\n", id)
			return nil
		},
	}

	cmd.AddCommand(list, create, attach, detach, del)
	return cmd
}
