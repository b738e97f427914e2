package cli

import (
	"github.com/spf13/cobra"

	"github.com/mrz1836/marksafe/internal/output"
	"github.com/mrz1836/marksafe/internal/settings"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var directoryCmd = &cobra.Command{
	Use:   "directory",
	Short: "Choose a directory for backup files",
	Long: `Backups in download storage mode can be written to a directory you grant
instead of the downloads folder. When the directory becomes unusable, backups
fall back to the downloads folder.`,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var directoryGrantCmd = &cobra.Command{
	Use:   "grant [path]",
	Short: "Use a directory for backup files",
	Long: `Grant a directory for backup files and turn on useCustomDirectory.
Without a path you are asked for one; an empty answer changes nothing.

Example:
  marksafe directory grant ~/Dropbox/bookmarks`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDirectoryGrant,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var directoryRevokeCmd = &cobra.Command{
	Use:   "revoke",
	Short: "Stop using the granted directory",
	Args:  cobra.NoArgs,
	RunE:  runDirectoryRevoke,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var directoryStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the granted directory and whether it is usable",
	Args:  cobra.NoArgs,
	RunE:  runDirectoryStatus,
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	directoryCmd.GroupID = groupSetup
	rootCmd.AddCommand(directoryCmd)
	directoryCmd.AddCommand(directoryGrantCmd, directoryRevokeCmd, directoryStatusCmd)
}

func runDirectoryGrant(cmd *cobra.Command, args []string) error {
	var dir string
	if len(args) == 1 {
		dir = args[0]
	} else {
		answer, err := promptLineFn("Directory for backups (empty to cancel): ")
		if err != nil {
			return err
		}
		dir = answer
	}

	a, err := app()
	if err != nil {
		return err
	}
	h, err := a.Service.GrantDirectory(dir)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if h == nil {
		if formatter.IsJSON() {
			return writeJSON(w, map[string]bool{"cancelled": true})
		}
		outln(w, "No directory selected; nothing changed.")
		return nil
	}
	if formatter.IsJSON() {
		return writeJSON(w, h)
	}
	output.Successf(w, "Backups will be written to %s", h.Path)
	st, err := a.Service.Settings()
	if err == nil && st.StorageMode != settings.StorageDownload {
		output.Infof(w, "storageMode is %s; run 'marksafe settings set storageMode download' to write files", st.StorageMode)
	}
	return nil
}

func runDirectoryRevoke(cmd *cobra.Command, _ []string) error {
	a, err := app()
	if err != nil {
		return err
	}
	if err := a.Service.RevokeDirectory(); err != nil {
		return err
	}
	return output.FormatSuccess(cmd.OutOrStdout(), "Custom directory revoked; backups go to the downloads folder", formatter.Format())
}

func runDirectoryStatus(cmd *cobra.Command, _ []string) error {
	a, err := app()
	if err != nil {
		return err
	}
	status, err := a.Service.DirectoryStatus()
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if formatter.IsJSON() {
		return writeJSON(w, status)
	}
	if status.Handle == nil {
		outln(w, "No directory granted.")
		return nil
	}
	out(w, "Directory:  %s\n", status.Handle.Path)
	out(w, "Granted:    %s\n", status.Handle.GrantedAt.Local().Format("2006-01-02 15:04"))
	out(w, "Permission: %s\n", status.Permission)
	out(w, "In use:     %t\n", status.InUse)
	return nil
}
