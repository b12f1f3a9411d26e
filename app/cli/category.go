package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/datumcontrole/category-store/models"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

func newCategoryCommand(rt *runEnv) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "category",
		Aliases: []string{"categories"},
		Short:   "Add, inspect and delete categories",
	}
	cmd.AddCommand(
		newCategorySizeCommand(rt),
		newCategoryAddCommand(rt),
		newCategoryGetCommand(rt),
		newCategoryListCommand(rt),
		newCategoryUpdateCommand(rt),
		newCategoryDeleteCommand(rt),
	)
	return cmd
}

func newCategorySizeCommand(rt *runEnv) *cobra.Command {
	return &cobra.Command{
		Use:   "size",
		Short: "Print the number of categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return rt.withRepository(cmd.Context(), func(_ *gorm.DB, repo *models.CategoriesRepository) error {
				size, err := repo.Size(cmd.Context())
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), size)
				return err
			})
		},
	}
}

func newCategoryAddCommand(rt *runEnv) *cobra.Command {
	var category models.Category

	cmd := &cobra.Command{
		Use:   "add NAME",
		Short: "Add a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			category.Name = args[0]
			return rt.withRepository(cmd.Context(), func(_ *gorm.DB, repo *models.CategoriesRepository) error {
				if err := repo.AddCategory(cmd.Context(), &category); err != nil {
					return err
				}
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "added %s\n", category.Name)
				return err
			})
		},
	}
	cmd.Flags().IntVar(&category.Sublocations, "sublocations", 0, "number of sublocations")
	cmd.Flags().StringVar(&category.Color, "color", "", "display color, a name or hex code")
	return cmd
}

func newCategoryGetCommand(rt *runEnv) *cobra.Command {
	return &cobra.Command{
		Use:   "get NAME",
		Short: "Show one category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.withRepository(cmd.Context(), func(_ *gorm.DB, repo *models.CategoriesRepository) error {
				category, err := repo.GetCategory(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return printCategories(cmd, []models.Category{*category})
			})
		},
	}
}

func newCategoryListCommand(rt *runEnv) *cobra.Command {
	var filters models.CategoryFilters

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List categories",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return rt.withRepository(cmd.Context(), func(_ *gorm.DB, repo *models.CategoriesRepository) error {
				var (
					categories []models.Category
					err        error
				)
				if filters == (models.CategoryFilters{}) {
					categories, err = repo.GetAllCategories(cmd.Context())
				} else {
					categories, _, err = repo.ListCategories(cmd.Context(), 0, 0, filters)
				}
				if err != nil {
					return err
				}
				return printCategories(cmd, categories)
			})
		},
	}
	cmd.Flags().StringVar(&filters.Color, "color", "", "only categories with this color")
	cmd.Flags().StringVar(&filters.NamePrefix, "prefix", "", "only categories whose name starts with this prefix")
	return cmd
}

func newCategoryUpdateCommand(rt *runEnv) *cobra.Command {
	var category models.Category

	cmd := &cobra.Command{
		Use:   "update NAME",
		Short: "Update a category (not supported)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			category.Name = args[0]
			return rt.withRepository(cmd.Context(), func(_ *gorm.DB, repo *models.CategoriesRepository) error {
				return repo.UpdateCategory(cmd.Context(), &category)
			})
		},
	}
	cmd.Flags().IntVar(&category.Sublocations, "sublocations", 0, "number of sublocations")
	cmd.Flags().StringVar(&category.Color, "color", "", "display color, a name or hex code")
	return cmd
}

func newCategoryDeleteCommand(rt *runEnv) *cobra.Command {
	return &cobra.Command{
		Use:     "delete NAME",
		Aliases: []string{"rm"},
		Short:   "Delete a category",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.withRepository(cmd.Context(), func(_ *gorm.DB, repo *models.CategoriesRepository) error {
				if err := repo.DeleteCategory(cmd.Context(), args[0]); err != nil {
					return err
				}
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
				return err
			})
		},
	}
}

func printCategories(cmd *cobra.Command, categories []models.Category) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tSUBLOCATIONS\tCOLOR")
	for _, c := range categories {
		fmt.Fprintf(w, "%s\t%d\t%s\n", c.Name, c.Sublocations, c.Color)
	}
	return w.Flush()
}
