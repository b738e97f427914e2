package cli

import (
	"github.com/spf13/cobra"
)

// completionCmd prints shell completion scripts.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var completionCmd = &cobra.Command{
	Use:   "completion <bash|zsh|fish|powershell>",
	Short: "Generate shell completion script",
	Long: `Print a completion script for your shell. Completion covers commands, flags
and the values of enum flags such as 'settings set --frequency'.

Load it for the current session:

  bash:        source <(marksafe completion bash)
  zsh:         source <(marksafe completion zsh)
  fish:        marksafe completion fish | source
  powershell:  marksafe completion powershell | Out-String | Invoke-Expression

To load it in every session, write the script to your shell's completion
directory, for example:

  marksafe completion bash > ~/.local/share/bash-completion/completions/marksafe
  marksafe completion zsh > "${fpath[1]}/_marksafe"
  marksafe completion fish > ~/.config/fish/completions/marksafe.fish`,
	DisableFlagsInUseLine: true,
	ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
	Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		w := cmd.OutOrStdout()
		switch args[0] {
		case "zsh":
			return cmd.Root().GenZshCompletion(w)
		case "fish":
			return cmd.Root().GenFishCompletion(w, true)
		case "powershell":
			return cmd.Root().GenPowerShellCompletionWithDesc(w)
		default:
			return cmd.Root().GenBashCompletionV2(w, true)
		}
	},
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	completionCmd.GroupID = groupSetup
	rootCmd.AddCommand(completionCmd)
}
