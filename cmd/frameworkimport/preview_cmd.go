package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	frameworksmod "github.com/yungbote/neurobridge-frameworks/internal/modules/frameworks"
	"github.com/yungbote/neurobridge-frameworks/internal/modules/frameworks/profiles"
	"github.com/yungbote/neurobridge-frameworks/internal/platform/logger"
)

func newPreviewCmd() *cobra.Command {
	var (
		profile string
		asJSON  bool
	)

	cmd := &cobra.Command{
		Use:   "preview FILE",
		Short: "Print the sanitised hierarchy of a document without writing anything",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			uc := frameworksmod.New(frameworksmod.UsecasesDeps{
				Log:      logger.Nop(),
				Profiles: profiles.Default(nil),
			})
			out, err := uc.Preview(cmd.Context(), frameworksmod.PreviewInput{Document: f, Profile: profile})
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), out)
			}
			return printTree(cmd.OutOrStdout(), out)
		},
	}

	cmd.Flags().StringVar(&profile, "profile", "", "Import profile (default from profiles.yaml)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the tree as JSON")
	return cmd
}

func printTree(w io.Writer, out frameworksmod.PreviewOutput) error {
	if _, err := fmt.Fprintf(w, "profile=%s records=%d nodes=%d skipped=%d depth=%d\n",
		out.Profile, out.Records, out.Nodes, out.Skipped, out.MaxDepth); err != nil {
		return err
	}
	var walk func(nodes []frameworksmod.TreeNode, depth int) error
	walk = func(nodes []frameworksmod.TreeNode, depth int) error {
		for _, n := range nodes {
			line := strings.Repeat("  ", depth) + n.Name + " [" + n.Identifier + "]"
			if len(n.Related) > 0 {
				line += " related: " + strings.Join(n.Related, ", ")
			}
			if _, err := fmt.Fprintln(w, line); err != nil {
				return err
			}
			if err := walk(n.Children, depth+1); err != nil {
				return err
			}
		}
		return nil
	}
	return walk(out.Roots, 0)
}
