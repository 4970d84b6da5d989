// Command inquiry sends one contact inquiry from the command line.
//
//	inquiry --endpoint https://example.com --name Alice \
//	    --email alice@example.com --message "Hi"
//
// The endpoint may also come from INQUIRY_CONTACT_ENDPOINT. A message of
// "-" is read from stdin.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dalemusser/inquiry/client"
	"github.com/dalemusser/inquiry/config"
	"github.com/dalemusser/inquiry/contact"
	"github.com/dalemusser/inquiry/logging"
	"github.com/dalemusser/inquiry/pantry/version"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Exit codes.
const (
	exitOK      = 0
	exitFailed  = 1 // the endpoint did not accept the inquiry
	exitInvalid = 2 // bad flags or input rejected before sending
)

const maxStdinMessage = 64 << 10

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

type options struct {
	endpoint string
	name     string
	email    string
	message  string
	output   string
	timeout  time.Duration
	verbose  bool
}

func parseArgs(args []string, stderr io.Writer) (options, bool, error) {
	fs := pflag.NewFlagSet("inquiry", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.String("endpoint", "", "Contact endpoint URL (env INQUIRY_CONTACT_ENDPOINT)")
	fs.String("name", "", "Your name")
	fs.String("email", "", "Your email address")
	fs.String("message", "", `Message text, or "-" to read stdin`)
	fs.StringP("output", "o", "text", "Output format: text, json or yaml")
	fs.Duration("timeout", client.DefaultTransportConfig().Timeout, "HTTP client timeout")
	fs.BoolP("verbose", "v", false, "Log request diagnostics to stderr")
	showVersion := fs.Bool("version", false, "Print version and exit")

	if err := fs.Parse(args); err != nil {
		return options{}, false, err
	}
	if *showVersion {
		return options{}, true, nil
	}

	v := viper.New()
	v.SetEnvPrefix(config.EnvPrefix)
	_ = v.BindEnv("contact_endpoint")
	if f := fs.Lookup("endpoint"); f.Changed {
		_ = v.BindPFlag("contact_endpoint", f)
	}

	opts := options{endpoint: v.GetString("contact_endpoint")}
	opts.name, _ = fs.GetString("name")
	opts.email, _ = fs.GetString("email")
	opts.message, _ = fs.GetString("message")
	opts.output, _ = fs.GetString("output")
	opts.timeout, _ = fs.GetDuration("timeout")
	opts.verbose, _ = fs.GetBool("verbose")

	if opts.endpoint == "" {
		return opts, false, errors.New("--endpoint (or INQUIRY_CONTACT_ENDPOINT) is required")
	}
	switch opts.output {
	case "text", "json", "yaml":
	default:
		return opts, false, fmt.Errorf("unknown --output %q (want text, json or yaml)", opts.output)
	}
	return opts, false, nil
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	opts, showVersion, err := parseArgs(args, stderr)
	if err != nil {
		if !errors.Is(err, pflag.ErrHelp) {
			fmt.Fprintln(stderr, "inquiry:", err)
		}
		return exitInvalid
	}
	if showVersion {
		fmt.Fprintln(stdout, "inquiry", version.String())
		return exitOK
	}

	if opts.message == "-" {
		b, err := io.ReadAll(io.LimitReader(stdin, maxStdinMessage))
		if err != nil {
			fmt.Fprintln(stderr, "inquiry: read message:", err)
			return exitInvalid
		}
		opts.message = strings.TrimRight(string(b), "\r\n")
	}

	logger := zap.NewNop()
	if opts.verbose {
		if logger, err = logging.BuildLogger("debug", "dev"); err != nil {
			fmt.Fprintln(stderr, "inquiry:", err)
			return exitInvalid
		}
		defer func() { _ = logger.Sync() }()
	}

	c, err := client.New(opts.endpoint,
		client.WithHTTPClient(client.NewHTTPClient(client.TransportConfig{Timeout: opts.timeout})),
		client.WithUserAgent("inquiry-cli/"+version.Version),
		client.WithLogger(logger),
	)
	if err != nil {
		fmt.Fprintln(stderr, "inquiry:", err)
		return exitInvalid
	}

	var formOpts []contact.FormOption
	formOpts = append(formOpts, contact.WithLogger(logger))
	if opts.output == "text" {
		formOpts = append(formOpts, contact.WithObserver(func(v contact.View) {
			if v.State == contact.StateSubmitting {
				fmt.Fprintln(stderr, "Sending…")
			}
		}))
	}
	form := contact.NewForm(c, formOpts...)

	err = form.Submit(ctx, contact.FieldMap{
		contact.FieldName:    opts.name,
		contact.FieldEmail:   opts.email,
		contact.FieldMessage: opts.message,
	})
	if perr := printView(stdout, opts.output, form.View()); perr != nil {
		fmt.Fprintln(stderr, "inquiry:", perr)
	}

	var verr *contact.ValidationError
	switch {
	case errors.As(err, &verr):
		return exitInvalid
	case err != nil:
		logger.Debug("submission failed", zap.Error(err))
		return exitFailed
	}
	return exitOK
}

func printView(w io.Writer, format string, v contact.View) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(v)
	}

	switch {
	case v.Success != "":
		_, err := fmt.Fprintln(w, v.Success)
		if err == nil && v.AckID != "" {
			_, err = fmt.Fprintln(w, "id:", v.AckID)
		}
		return err
	case v.Error != "":
		_, err := fmt.Fprintln(w, v.Error)
		return err
	}
	_, err := fmt.Fprintln(w, v.State)
	return err
}
