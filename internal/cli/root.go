// Package cli implements the volleyer command line client.
package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/adamwoolhether/volleyer/request"
)

var version = "0.1.0"

// NewRootCmd builds the volleyer command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:     "volleyer",
		Short:   "Issue HTTP requests through the volleyer pipeline",
		Version: version,
		Long: `volleyer sends a request through the request queue, decodes the response
with the parser registered for its content type and prints the result.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	root.PersistentFlags().StringArrayP("header", "H", []string{}, "HTTP headers to include as key:value (can be used multiple times)")
	root.PersistentFlags().DurationP("timeout", "t", request.DefaultRetryPolicy().Timeout, "Per-attempt timeout")
	root.PersistentFlags().IntP("retries", "r", 0, "Retries after the first attempt")
	root.PersistentFlags().BoolP("verbose", "v", false, "Log request dispatch and retries")
	root.PersistentFlags().Bool("no-color", false, "Disable colored output")

	for _, m := range []request.Method{request.GET, request.DELETE, request.HEAD, request.OPTIONS} {
		root.AddCommand(newRequestCmd(m))
	}
	for _, m := range []request.Method{request.POST, request.PUT, request.PATCH} {
		cmd := newRequestCmd(m)
		cmd.Flags().StringArrayP("form", "F", []string{}, "URL-encoded form field as key=value (can be used multiple times)")
		cmd.Flags().StringArray("part", []string{}, "Multipart text field as name=value (can be used multiple times)")
		cmd.Flags().StringArray("file", []string{}, "Multipart file as name=path (can be used multiple times)")
		cmd.Flags().StringP("data", "d", "", "Raw request body")
		cmd.Flags().String("content-type", "application/json", "Content type of --data")
		root.AddCommand(cmd)
	}

	return root
}

// Execute runs the command tree with args, writing to out and errOut.
func Execute(args []string, out, errOut io.Writer) error {
	root := NewRootCmd()
	root.SetArgs(args)
	root.SetOut(out)
	root.SetErr(errOut)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(errOut, "Error:", err)
		return err
	}
	return nil
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
