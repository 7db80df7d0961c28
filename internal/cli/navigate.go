package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/utafrali/storefront/internal/guard"
	"github.com/utafrali/storefront/pkg/health"
)

func (c *cli) navigateCommand() *cobra.Command {
	var list bool
	cmd := &cobra.Command{
		Use:         "navigate [PATH]",
		Short:       "Check whether the signed in user may open a page",
		Args:        cobra.MaximumNArgs(1),
		Annotations: noRestore(),
		RunE: func(cmd *cobra.Command, args []string) error {
			if list {
				for _, r := range c.app.Guard.Routes() {
					c.printf("%-32s %s\n", r.Pattern, describeRoute(r))
				}
				return nil
			}
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			d, err := c.app.Guard.Resolve(cmd.Context(), path)
			if err != nil {
				return err
			}
			return c.print(d)
		},
	}
	cmd.Flags().BoolVar(&list, "list", false, "list the navigation table")
	return cmd
}

func describeRoute(r guard.Route) string {
	switch {
	case r.RedirectTo != "":
		return "-> " + r.RedirectTo
	case r.Public:
		return "public"
	default:
		roles := make([]string, len(r.Roles))
		for i, role := range r.Roles {
			roles[i] = string(role)
		}
		return strings.Join(roles, ",")
	}
}

func (c *cli) doctorCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "doctor",
		Short:       "Check API reachability and local state stores",
		Args:        cobra.NoArgs,
		Annotations: noRestore(),
		RunE: func(cmd *cobra.Command, _ []string) error {
			resp := c.app.Health.Run(cmd.Context())
			for _, name := range resp.Names() {
				check := resp.Checks[name]
				line := fmt.Sprintf("%-16s %s", name, check.Status)
				if check.Error != "" {
					line += "  " + check.Error
				}
				c.printf("%s\n", line)
			}
			if resp.Status != health.StatusUp {
				return fmt.Errorf("doctor: %d check(s) failed", failed(resp))
			}
			return nil
		},
	}
}

func failed(resp health.Response) int {
	n := 0
	for _, check := range resp.Checks {
		if check.Status == health.StatusDown {
			n++
		}
	}
	return n
}
