package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// Help groups for the top-level commands.
const (
	groupBackups = "backups"
	groupFiles   = "files"
	groupSetup   = "setup"
)

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddGroup(
		&cobra.Group{ID: groupBackups, Title: "Backups and scheduling:"},
		&cobra.Group{ID: groupFiles, Title: "Backup history and files:"},
		&cobra.Group{ID: groupSetup, Title: "Setup:"},
	)
	rootCmd.SetHelpCommandGroupID(groupSetup)
	rootCmd.SetCompletionCommandGroupID(groupSetup)
}

// walkCommands visits cmd and every command below it, parents first.
func walkCommands(cmd *cobra.Command, fn func(*cobra.Command)) {
	fn(cmd)
	for _, sub := range cmd.Commands() {
		walkCommands(sub, fn)
	}
}

// enrichParentLong lists the visible subcommands at the end of a parent's
// Long text, so 'marksafe history --help' shows what it can do.
func enrichParentLong(cmd *cobra.Command) {
	if !cmd.HasSubCommands() || cmd == rootCmd {
		return
	}

	var sb strings.Builder
	sb.WriteString(strings.TrimRight(cmd.Long, "\n"))
	if sb.Len() > 0 {
		sb.WriteString("\n\n")
	}
	sb.WriteString("Subcommands:\n")
	for _, sub := range cmd.Commands() {
		if sub.IsAvailableCommand() {
			fmt.Fprintf(&sb, "  %-10s %s\n", sub.Name(), sub.Short)
		}
	}
	cmd.Long = sb.String()
}
