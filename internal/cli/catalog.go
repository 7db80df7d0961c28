package cli

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/service"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

func (c *cli) productsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "products",
		Aliases: []string{"produits"},
		Short:   "Browse and manage the product catalog",
	}

	var (
		filter service.CatalogFilter
		page   pageFlags
	)
	list := &cobra.Command{
		Use:   "list",
		Short: "List the catalog visible to the current role",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := c.app.Catalog.Refresh(cmd.Context()); err != nil {
				return err
			}
			return printPage(c, c.app.Catalog.Filter(filter), page)
		},
	}
	page.bind(list)
	list.Flags().StringVar(&filter.StockStatus, "status", service.StockFilterAll, "stock status: tous, critique, faible, moyen, bon")
	list.Flags().Int64Var(&filter.CategoryID, "category", 0, "category id")
	list.Flags().StringVar(&filter.Query, "query", "", "name contains")

	get := &cobra.Command{
		Use:   "get ID",
		Short: "Show one product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			p, err := c.app.API.Products.Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			return c.print(p)
		},
	}

	var in productFlags
	create := &cobra.Command{
		Use:         "create",
		Short:       "Create a product (admin)",
		Args:        cobra.NoArgs,
		Annotations: view("admin/addProduit"),
		RunE: func(cmd *cobra.Command, _ []string) error {
			input, err := in.input()
			if err != nil {
				return err
			}
			p, err := c.app.API.Products.Create(cmd.Context(), input)
			if err != nil {
				return err
			}
			return c.print(p)
		},
	}
	in.bind(create)

	var up productFlags
	update := &cobra.Command{
		Use:         "update ID",
		Short:       "Replace a product (admin)",
		Args:        cobra.ExactArgs(1),
		Annotations: view("admin/updateProduit/{id}"),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			input, err := up.input()
			if err != nil {
				return err
			}
			p, err := c.app.API.Products.Update(cmd.Context(), id, input)
			if err != nil {
				return err
			}
			return c.print(p)
		},
	}
	up.bind(update)

	del := &cobra.Command{
		Use:         "delete ID",
		Short:       "Delete a product (admin)",
		Args:        cobra.ExactArgs(1),
		Annotations: view("admin/produit"),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := c.app.API.Products.Delete(cmd.Context(), id); err != nil {
				return err
			}
			c.printf("product %d deleted\n", id)
			return nil
		},
	}

	restock := &cobra.Command{
		Use:         "restock ID QUANTITY",
		Short:       "Add stock to a product (admin)",
		Args:        cobra.ExactArgs(2),
		Annotations: view("admin/produit"),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			qty, err := parseQuantity(args[1])
			if err != nil {
				return err
			}
			if err := c.app.API.Products.Restock(cmd.Context(), id, qty); err != nil {
				return err
			}
			c.printf("product %d restocked by %d\n", id, qty)
			return nil
		},
	}

	lowStock := &cobra.Command{
		Use:         "low-stock",
		Short:       "List products that need restocking (admin)",
		Args:        cobra.NoArgs,
		Annotations: view("admin/produit"),
		RunE: func(cmd *cobra.Command, _ []string) error {
			items, err := c.app.API.Products.LowStock(cmd.Context())
			if err != nil {
				return err
			}
			return c.print(items)
		},
	}

	stats := &cobra.Command{
		Use:         "stats",
		Short:       "Show stock statistics (admin)",
		Args:        cobra.NoArgs,
		Annotations: view("admin/produit"),
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := c.app.API.Products.StockStatistics(cmd.Context())
			if err != nil {
				return err
			}
			return c.print(s)
		},
	}

	cmd.AddCommand(list, get, create, update, del, restock, lowStock, stats)
	return cmd
}

type productFlags struct {
	nom         string
	description string
	prix        string
	stock       int
	categorieID int64
	image       string
}

func (f *productFlags) bind(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&f.nom, "nom", "", "product name")
	fl.StringVar(&f.description, "description", "", "description")
	fl.StringVar(&f.prix, "prix", "", "unit price")
	fl.IntVar(&f.stock, "stock", 0, "stock quantity")
	fl.Int64Var(&f.categorieID, "categorie", 0, "category id")
	fl.StringVar(&f.image, "image", "", "image file to upload")
}

func (f *productFlags) input() (domain.ProductInput, error) {
	prix, err := decimal.NewFromString(f.prix)
	if err != nil {
		return domain.ProductInput{}, apperrors.Validation(fmt.Sprintf("invalid prix %q", f.prix),
			map[string]string{"prix": "must be a number"})
	}
	return domain.ProductInput{
		Nom:         f.nom,
		Description: f.description,
		Prix:        prix,
		Stock:       f.stock,
		CategorieID: f.categorieID,
		ImagePath:   f.image,
	}, nil
}

func (c *cli) categoriesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "categories",
		Aliases: []string{"categorie"},
		Short:   "Browse and manage product categories",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			items, err := c.app.API.Categories.List(cmd.Context())
			if err != nil {
				return err
			}
			return c.print(items)
		},
	}

	get := &cobra.Command{
		Use:   "get ID",
		Short: "Show one category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			item, err := c.app.API.Categories.Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			return c.print(item)
		},
	}

	var in domain.CategoryInput
	create := &cobra.Command{
		Use:         "create",
		Short:       "Create a category (admin)",
		Args:        cobra.NoArgs,
		Annotations: view("admin/addCategorie"),
		RunE: func(cmd *cobra.Command, _ []string) error {
			item, err := c.app.API.Categories.Create(cmd.Context(), in)
			if err != nil {
				return err
			}
			return c.print(item)
		},
	}
	create.Flags().StringVar(&in.Nom, "nom", "", "category name")
	create.Flags().StringVar(&in.Description, "description", "", "description")

	var up domain.CategoryInput
	update := &cobra.Command{
		Use:         "update ID",
		Short:       "Replace a category (admin)",
		Args:        cobra.ExactArgs(1),
		Annotations: view("admin/updateCategorie/{id}"),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			item, err := c.app.API.Categories.Update(cmd.Context(), id, up)
			if err != nil {
				return err
			}
			return c.print(item)
		},
	}
	update.Flags().StringVar(&up.Nom, "nom", "", "category name")
	update.Flags().StringVar(&up.Description, "description", "", "description")

	del := &cobra.Command{
		Use:         "delete ID",
		Short:       "Delete a category (admin)",
		Args:        cobra.ExactArgs(1),
		Annotations: view("admin/categorie"),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := c.app.API.Categories.Delete(cmd.Context(), id); err != nil {
				return err
			}
			c.printf("category %d deleted\n", id)
			return nil
		},
	}

	cmd.AddCommand(list, get, create, update, del)
	return cmd
}
