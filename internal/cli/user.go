package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"ppms/internal/app"
	"ppms/internal/auth"
	"ppms/internal/models"
	"ppms/internal/session"

	"github.com/spf13/cobra"
)

const passwordEnv = "PPMS_PASSWORD"

var (
	userAddRole  string
	userListRole string
	userPassword string
	userSearch   string
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage user accounts",
}

var userAddCmd = &cobra.Command{
	Use:   "add <username>",
	Short: "Create a user",
	Long: `Create a user. The password comes from --password or, when that
is empty, from the PPMS_PASSWORD environment variable.`,
	Args: cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, a *app.App, args []string) error {
		password, err := passwordFromFlags()
		if err != nil {
			return err
		}
		id, err := a.Users.Create(cmd.Context(), session.System, args[0], password, models.UserRole(userAddRole))
		if err != nil {
			return err
		}
		if jsonOutput {
			return outputJSON(cmd.OutOrStdout(), map[string]any{"id": id, "username": args[0]})
		}
		fmt.Fprintf(cmd.OutOrStdout(), "created user %s (#%d), password strength %s\n", args[0], id, auth.PasswordStrength(password))
		return nil
	}),
}

var userListCmd = &cobra.Command{
	Use:   "list",
	Short: "List users",
	Args:  cobra.NoArgs,
	RunE: withApp(func(cmd *cobra.Command, a *app.App, _ []string) error {
		users, err := a.Users.List(cmd.Context(), auth.UserFilter{Role: models.UserRole(userListRole), Search: userSearch})
		if err != nil {
			return err
		}
		if jsonOutput {
			return outputJSON(cmd.OutOrStdout(), users)
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tUSERNAME\tROLE\tCREATED")
		for _, u := range users {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", u.ID, u.Username, u.Role, u.CreatedAt.Format("2006-01-02"))
		}
		return tw.Flush()
	}),
}

var userPasswdCmd = &cobra.Command{
	Use:   "passwd <username>",
	Short: "Set a user's password",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, a *app.App, args []string) error {
		password, err := passwordFromFlags()
		if err != nil {
			return err
		}
		u, err := a.Users.GetByUsername(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if err := a.Users.ChangePassword(cmd.Context(), session.System, u.ID, password); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "password updated for %s\n", u.Username)
		return nil
	}),
}

func passwordFromFlags() (string, error) {
	if userPassword != "" {
		return userPassword, nil
	}
	if p := os.Getenv(passwordEnv); p != "" {
		return p, nil
	}
	return "", fmt.Errorf("password required: pass --password or set %s", passwordEnv)
}

func init() {
	userAddCmd.Flags().StringVar(&userAddRole, "role", string(models.RoleOperator), "Admin, Project Manager or Operator")
	userAddCmd.Flags().StringVar(&userPassword, "password", "", "initial password")
	userPasswdCmd.Flags().StringVar(&userPassword, "password", "", "new password")
	userListCmd.Flags().StringVar(&userListRole, "role", "", "only users with this role")
	userListCmd.Flags().StringVar(&userSearch, "search", "", "username substring")

	userCmd.AddCommand(userAddCmd, userListCmd, userPasswdCmd)
	rootCmd.AddCommand(userCmd)
}
