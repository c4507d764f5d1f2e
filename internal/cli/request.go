package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/beevik/etree"
	"github.com/fatih/color"
	jsonv2 "github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
	"github.com/spf13/cobra"

	"github.com/adamwoolhether/volleyer"
	"github.com/adamwoolhether/volleyer/config"
	"github.com/adamwoolhether/volleyer/parser"
	"github.com/adamwoolhether/volleyer/request"
)

// result is what the command prints for one response.
type result struct {
	status int
	header string
	body   any
}

func newRequestCmd(m request.Method) *cobra.Command {
	name := strings.ToLower(m.String())

	return &cobra.Command{
		Use:   name + " URL",
		Short: fmt.Sprintf("Make a %s request to the specified URL", m),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, m, args[0])
		},
	}
}

func run(cmd *cobra.Command, m request.Method, rawURL string) error {
	flags := cmd.Flags()
	headers, _ := flags.GetStringArray("header")
	timeout, _ := flags.GetDuration("timeout")
	retries, _ := flags.GetInt("retries")
	verbose, _ := flags.GetBool("verbose")
	noColor, _ := flags.GetBool("no-color")

	if noColor {
		color.NoColor = true
	}
	if retries < 0 {
		return fmt.Errorf("retries[%d] must not be negative", retries)
	}

	logger := newLogger(cmd.ErrOrStderr(), verbose)

	q, err := volleyer.NewRequestQueue(volleyer.WithLogger(logger))
	if err != nil {
		return err
	}
	defer q.Shutdown()

	policy := request.DefaultRetryPolicy()
	policy.Timeout = timeout
	policy.MaxAttempts = retries + 1

	cfg, err := config.New(config.WithLogger(logger), config.WithRetryPolicy(policy))
	if err != nil {
		return err
	}

	v, err := volleyer.New(q, volleyer.WithConfiguration(cfg))
	if err != nil {
		return err
	}

	b, err := v.Request(m, rawURL)
	if err != nil {
		return err
	}

	for _, h := range headers {
		k, val, ok := strings.Cut(h, ":")
		if !ok {
			return fmt.Errorf("header %q: expected key:value", h)
		}
		if _, err := b.AddHeader(strings.TrimSpace(k), strings.TrimSpace(val)); err != nil {
			return err
		}
	}

	if m.AllowsBody() {
		if err := addBody(cmd, b); err != nil {
			return err
		}
	}

	rb, err := volleyer.WithBlockingTarget[result](b)
	if err != nil {
		return err
	}
	if _, err := rb.WithResponseParser(render(parser.Default())); err != nil {
		return err
	}

	res, _, err := rb.Execute(cmd.Context())
	if err != nil {
		var statusErr *volleyer.UnexpectedStatusError
		if errors.As(err, &statusErr) {
			printStatus(cmd.OutOrStdout(), statusErr.StatusCode, statusErr.Response.ContentType())
			fmt.Fprintln(cmd.OutOrStdout(), statusErr.Body)
		}
		return err
	}

	printStatus(cmd.OutOrStdout(), res.status, res.header)
	return printBody(cmd.OutOrStdout(), res.body)
}

func addBody(cmd *cobra.Command, b *volleyer.RequestBuilder) error {
	flags := cmd.Flags()
	form, _ := flags.GetStringArray("form")
	parts, _ := flags.GetStringArray("part")
	files, _ := flags.GetStringArray("file")
	data, _ := flags.GetString("data")
	contentType, _ := flags.GetString("content-type")

	for _, f := range form {
		k, val, ok := strings.Cut(f, "=")
		if !ok {
			return fmt.Errorf("form field %q: expected key=value", f)
		}
		if _, err := b.AddFormField(k, val); err != nil {
			return err
		}
	}

	for _, p := range parts {
		k, val, ok := strings.Cut(p, "=")
		if !ok {
			return fmt.Errorf("part %q: expected name=value", p)
		}
		if _, err := b.AddStringPart(k, val); err != nil {
			return err
		}
	}

	for _, f := range files {
		k, path, ok := strings.Cut(f, "=")
		if !ok {
			return fmt.Errorf("file %q: expected name=path", f)
		}
		if _, err := b.AddFilePart(k, path, ""); err != nil {
			return err
		}
	}

	if data != "" {
		if _, err := b.SetStringBody(contentType, data); err != nil {
			return err
		}
	}

	return nil
}

// render decodes through reg into a printable value: text as a string, XML
// as a document, everything else as a generic value.
func render(reg *parser.Registry) parser.Func {
	return func(resp *request.NetworkResponse, v any) error {
		res := v.(*result)
		res.status, res.header = resp.StatusCode, resp.ContentType()

		mt := parser.MediaType(resp.ContentType())
		switch {
		case len(resp.Body) == 0:
			return nil
		case mt == "" || strings.HasPrefix(mt, "text/") && !strings.HasSuffix(mt, "xml"):
			s, err := parser.Parse[string](parser.StringParser{}, resp)
			res.body = s
			return err
		case strings.HasSuffix(mt, "xml"):
			doc := etree.NewDocument()
			if err := reg.Parse(resp, doc); err != nil {
				return err
			}
			res.body = doc
			return nil
		default:
			var out any
			if err := reg.Parse(resp, &out); err != nil {
				return err
			}
			res.body = out
			return nil
		}
	}
}

func printStatus(w io.Writer, status int, contentType string) {
	c := color.New(color.FgGreen, color.Bold)
	switch {
	case status >= 400:
		c = color.New(color.FgRed, color.Bold)
	case status >= 300:
		c = color.New(color.FgYellow, color.Bold)
	}

	c.Fprintf(w, "%d", status)
	if contentType != "" {
		fmt.Fprintf(w, " %s", color.CyanString(contentType))
	}
	fmt.Fprintln(w)
}

func printBody(w io.Writer, body any) error {
	switch b := body.(type) {
	case nil:
		return nil
	case string:
		_, err := fmt.Fprintln(w, b)
		return err
	case *etree.Document:
		b.Indent(2)
		_, err := b.WriteTo(w)
		return err
	}

	if err := jsonv2.MarshalWrite(w, body, jsonv2.Deterministic(true), jsontext.WithIndent("  ")); err != nil {
		// CBOR maps keyed by non-strings have no JSON form.
		_, err = fmt.Fprintf(w, "%v\n", body)
		return err
	}
	_, err := fmt.Fprintln(w)
	return err
}
