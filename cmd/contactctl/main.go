// Command contactctl registers, edits, looks up and exports contacts in the
// configured document store.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/google/uuid"
	"github.com/mattn/go-isatty"

	apperr "github.com/vortex-fintech/contacts/foundation/errors"
	"github.com/vortex-fintech/contacts/foundation/logger"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Globals are flags shared by every command.
type Globals struct {
	Config []string `help:"YAML config files, applied in order; missing files are skipped." short:"c" default:"contacts.yaml" env:"CONTACTS_CONFIG"`
	Format string   `help:"Output format." enum:"auto,pretty,compact" default:"auto"`
}

// CLI is the top-level command structure for contactctl.
type CLI struct {
	Globals

	Version  kong.VersionFlag `help:"Show version." short:"V"`
	Register RegisterCmd      `cmd:"" help:"Validate and insert a new contact."`
	Edit     EditCmd          `cmd:"" help:"Replace the fields of an existing contact."`
	Get      GetCmd           `cmd:"" help:"Print one contact."`
	List     ListCmd          `cmd:"" help:"Print all contacts, newest first."`
	Delete   DeleteCmd        `cmd:"" help:"Remove a contact and print it."`
	Export   ExportCmd        `cmd:"" help:"Write a JSON snapshot of all contacts to S3."`
	Schema   SchemaCmd        `cmd:"" help:"Create the store table and index when missing."`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], &App{stdin: os.Stdin, stdout: os.Stdout, stderr: os.Stderr})
	stop()
	os.Exit(code)
}

// run parses args, executes the selected command and returns the exit status.
func run(ctx context.Context, args []string, app *App, opts ...kong.Option) int {
	var cli CLI
	base := []kong.Option{
		kong.Name("contactctl"),
		kong.Description("Manage contacts in the configured document store."),
		kong.Vars{"version": version + " " + commit + " " + date},
		kong.Writers(app.stdout, app.stderr),
		kong.UsageOnError(),
		kong.Bind(&cli.Globals, app),
	}
	parser, err := kong.New(&cli, append(base, opts...)...)
	if err != nil {
		fmt.Fprintf(app.stderr, "error: %s\n", err)
		return 1
	}

	kctx, err := parser.Parse(args)
	if err != nil {
		fmt.Fprintf(app.stderr, "contactctl: %s\n", err)
		return 2
	}
	app.pretty = prettyOutput(cli.Format, app.stdout)
	kctx.BindTo(logger.ContextWithRun(ctx, kctx.Command(), uuid.NewString()), (*context.Context)(nil))

	if err := kctx.Run(); err != nil {
		return app.report(err)
	}
	return 0
}

// report prints err as an error response on stderr and maps it to an exit code.
func (a *App) report(err error) int {
	resp := apperr.ToErrorResponse(err)
	var (
		typed apperr.ErrorResponse
		known apperr.Responder
	)
	if !errors.As(err, &typed) && !errors.As(err, &known) && !errors.Is(err, context.Canceled) {
		resp = resp.WithDetail("cause", err.Error())
	}
	_, _ = a.stderr.Write(append(resp.ToJSON(a.pretty), '\n'))
	return apperr.ExitCode(resp.Code)
}

func prettyOutput(format string, w io.Writer) bool {
	switch format {
	case "pretty":
		return true
	case "compact":
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
