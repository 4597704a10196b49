package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/AlecAivazis/survey/v2"
	"github.com/invopop/jsonschema"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/tidewave-cli/tidewave/color"
	"github.com/tidewave-cli/tidewave/icon"
	"github.com/tidewave-cli/tidewave/session"
	"github.com/tidewave-cli/tidewave/style"
	"github.com/tidewave-cli/tidewave/where"
)

func loadStore() *session.Store {
	store, err := session.Load(where.Sessions())
	handleErr(err)
	return store
}

func completionSessionNames(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	store, err := session.Load(where.Sessions())
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return store.Names(), cobra.ShellCompDirectiveNoFileComp
}

func init() {
	rootCmd.AddCommand(sessionsCmd)
}

// sessionsCmd serves as the parent command for managing stored accounts.
var sessionsCmd = &cobra.Command{
	Use:     "sessions",
	Short:   "Manage stored streaming accounts",
	Aliases: []string{"accounts"},
}

func init() {
	sessionsCmd.AddCommand(sessionsAddCmd)

	sessionsAddCmd.Flags().StringP("kind", "k", string(session.KindTV), "Device type to authorize as")
	sessionsAddCmd.Flags().StringP("name", "n", "", "Name to store the session under (defaults to the account username)")
	sessionsAddCmd.Flags().StringP("username", "u", "", "Account username (legacy device types only)")
	lo.Must0(sessionsAddCmd.RegisterFlagCompletionFunc("kind", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return lo.Map(session.Kinds(), func(k session.Kind, _ int) string {
			return string(k)
		}), cobra.ShellCompDirectiveNoFileComp
	}))
}

// sessionsAddCmd authorizes a new account and persists it in the store.
var sessionsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Authorize a new account and store its session",
	Run: func(cmd *cobra.Command, args []string) {
		var (
			kind     = session.Kind(lo.Must(cmd.Flags().GetString("kind")))
			name     = lo.Must(cmd.Flags().GetString("name"))
			username = lo.Must(cmd.Flags().GetString("username"))
			password string
		)

		if !lo.Contains(session.Kinds(), kind) {
			handleErr(fmt.Errorf("unknown device type %q", kind))
		}

		// Legacy device types authenticate with credentials up front.
		if kind == session.KindDesktop || kind == session.KindMobile {
			if username == "" {
				handleErr(survey.AskOne(&survey.Input{Message: "Username:"}, &username, survey.WithValidator(survey.Required)))
			}
			handleErr(survey.AskOne(&survey.Password{Message: "Password:"}, &password, survey.WithValidator(survey.Required)))
		}

		sess, err := session.NewAuthorizer(kind, username, password).Authorize(cmd.Context())
		handleErr(err)

		store := loadStore()
		if name == "" {
			name = sess.Username
		}
		handleErr(store.Add(name, sess))

		fmt.Printf(
			"%s stored %s session %s (%s)\n",
			style.Fg(color.Green)(icon.Get(icon.Success)),
			sess.Kind,
			style.Fg(color.Purple)(name),
			sess.CountryCode,
		)
	},
}

func init() {
	sessionsCmd.AddCommand(sessionsListCmd)
	sessionsListCmd.SetOut(os.Stdout)
}

// sessionsListCmd prints the stored sessions and marks the default.
var sessionsListCmd = &cobra.Command{
	Use:     "list",
	Short:   "List stored sessions",
	Aliases: []string{"ls"},
	Run: func(cmd *cobra.Command, args []string) {
		store := loadStore()
		if store.Len() == 0 {
			cmd.Println("no sessions stored, add one with `tidewave sessions add`")
			return
		}

		for _, name := range store.Names() {
			sess := lo.Must(store.Peek(name))

			marker := " "
			if name == store.Default() {
				marker = style.Fg(color.Green)("*")
			}
			cmd.Printf("%s %s\t%s\t%s\t%s\n",
				marker,
				style.Bold(name),
				sess.Kind,
				sess.CountryCode,
				style.Faint(sess.Username),
			)
		}
	},
}

func init() {
	sessionsCmd.AddCommand(sessionsRemoveCmd)
}

// sessionsRemoveCmd deletes a stored session.
var sessionsRemoveCmd = &cobra.Command{
	Use:               "remove <name>",
	Short:             "Remove a stored session",
	Aliases:           []string{"rm"},
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completionSessionNames,
	Run: func(cmd *cobra.Command, args []string) {
		handleErr(loadStore().Remove(args[0]))
		fmt.Printf("%s removed session %s\n", style.Fg(color.Green)(icon.Get(icon.Success)), args[0])
	},
}

func init() {
	sessionsCmd.AddCommand(sessionsDefaultCmd)
}

// sessionsDefaultCmd marks a session as the default after validating it.
var sessionsDefaultCmd = &cobra.Command{
	Use:               "default <name>",
	Short:             "Mark a stored session as the default",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completionSessionNames,
	Run: func(cmd *cobra.Command, args []string) {
		handleErr(loadStore().SetDefault(cmd.Context(), args[0]))
		fmt.Printf("%s %s is now the default session\n", style.Fg(color.Green)(icon.Get(icon.Success)), args[0])
	},
}

func init() {
	sessionsCmd.AddCommand(sessionsSchemaCmd)
	sessionsSchemaCmd.SetOut(os.Stdout)
}

// sessionsSchemaCmd prints the JSON schema of a stored session record, for
// external tooling that reads the session store.
var sessionsSchemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON schema of a stored session record",
	Run: func(cmd *cobra.Command, args []string) {
		schema := jsonschema.Reflect(&session.Session{})
		out, err := json.MarshalIndent(schema, "", "  ")
		handleErr(err)
		cmd.Println(string(out))
	},
}
