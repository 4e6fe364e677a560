package cmd

import (
	"github.com/spf13/cobra"

	"github.com/msalah0e/pdbview/internal/store"
)

// completionCmd generates shell completion scripts.
func completionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate completion scripts for your shell.

  # Bash (add to ~/.bashrc)
  eval "$(pdbview completion bash)"

  # Zsh (add to ~/.zshrc)
  eval "$(pdbview completion zsh)"

  # Fish
  pdbview completion fish | source

  # PowerShell
  pdbview completion powershell | Out-String | Invoke-Expression`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
		Run: func(cmd *cobra.Command, args []string) {
			switch args[0] {
			case "bash":
				_ = rootCmd.GenBashCompletion(cmd.OutOrStdout())
			case "zsh":
				_ = rootCmd.GenZshCompletion(cmd.OutOrStdout())
			case "fish":
				_ = rootCmd.GenFishCompletion(cmd.OutOrStdout(), true)
			case "powershell":
				_ = rootCmd.GenPowerShellCompletionWithDesc(cmd.OutOrStdout())
			}
		},
	}

	return cmd
}

// sessionCompletionFunc completes stored session ids.
func sessionCompletionFunc(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	sessions, _ := store.Sessions()
	var completions []string
	for _, s := range sessions {
		completions = append(completions, s.ID+"\t"+s.FileName)
	}
	return completions, cobra.ShellCompDirectiveNoFileComp
}
