package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/vortex-fintech/contacts/contact"
	"github.com/vortex-fintech/contacts/export"
	apperr "github.com/vortex-fintech/contacts/foundation/errors"
)

// InputFlags carry the raw contact fields of register and edit.
type InputFlags struct {
	Field []string `help:"Contact field as key=value (firstName, lastName, email, phone). Repeatable." short:"f" placeholder:"KEY=VALUE"`
	JSON  string   `help:"Contact fields as a JSON object, or - to read it from stdin. --field values win." name:"json" placeholder:"OBJECT"`
}

func (f InputFlags) input(stdin io.Reader) (contact.Input, error) {
	in := contact.Input{}

	if f.JSON != "" {
		var r io.Reader = strings.NewReader(f.JSON)
		if f.JSON == "-" {
			r = stdin
		}
		if err := json.NewDecoder(r).Decode(&in); err != nil {
			return nil, badInput("--json must be a JSON object: " + err.Error())
		}
		if in == nil {
			in = contact.Input{}
		}
	}

	for _, kv := range f.Field {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || strings.TrimSpace(k) == "" {
			return nil, badInput(fmt.Sprintf("--field %q is not key=value", kv))
		}
		in[strings.TrimSpace(k)] = v
	}
	return in, nil
}

func badInput(msg string) error {
	return apperr.InvalidArgument().WithReason("bad_input").WithMessage(msg)
}

func notFound(id string) error {
	return apperr.NotFoundID("contact", id)
}

func (a *App) print(v any) error {
	enc := json.NewEncoder(a.stdout)
	if a.pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}

type RegisterCmd struct {
	InputFlags `embed:""`
}

func (c *RegisterCmd) Run(ctx context.Context, g *Globals, app *App) error {
	in, err := c.input(app.stdin)
	if err != nil {
		return err
	}
	s, err := app.open(ctx, g)
	if err != nil {
		return err
	}
	defer s.Close()

	m := contact.NewManager(s.svc, in)
	if err := m.Register(ctx); err != nil {
		return err
	}
	if !m.Valid() {
		return m.Errors().Err()
	}
	return app.print(m.Result())
}

type EditCmd struct {
	ID         string `arg:"" help:"Contact id."`
	InputFlags `embed:""`
}

// Run replaces all writable fields: fields left out are cleared.
func (c *EditCmd) Run(ctx context.Context, g *Globals, app *App) error {
	in, err := c.input(app.stdin)
	if err != nil {
		return err
	}
	s, err := app.open(ctx, g)
	if err != nil {
		return err
	}
	defer s.Close()

	m := contact.NewManager(s.svc, in)
	if err := m.Edit(ctx, c.ID); err != nil {
		return err
	}
	if !m.Valid() {
		return m.Errors().Err()
	}
	if m.Result() == nil {
		return notFound(c.ID)
	}
	return app.print(m.Result())
}

type GetCmd struct {
	ID string `arg:"" help:"Contact id."`
}

func (c *GetCmd) Run(ctx context.Context, g *Globals, app *App) error {
	s, err := app.open(ctx, g)
	if err != nil {
		return err
	}
	defer s.Close()

	found, err := s.svc.FindByID(ctx, c.ID)
	if err != nil {
		return err
	}
	if found == nil {
		return notFound(c.ID)
	}
	return app.print(found)
}

type ListCmd struct{}

func (c *ListCmd) Run(ctx context.Context, g *Globals, app *App) error {
	s, err := app.open(ctx, g)
	if err != nil {
		return err
	}
	defer s.Close()

	list, err := s.svc.ListAll(ctx)
	if err != nil {
		return err
	}
	if list == nil {
		list = []contact.Contact{}
	}
	return app.print(list)
}

type DeleteCmd struct {
	ID string `arg:"" help:"Contact id."`
}

func (c *DeleteCmd) Run(ctx context.Context, g *Globals, app *App) error {
	s, err := app.open(ctx, g)
	if err != nil {
		return err
	}
	defer s.Close()

	removed, err := s.svc.Delete(ctx, c.ID)
	if err != nil {
		return err
	}
	if removed == nil {
		return notFound(c.ID)
	}
	return app.print(removed)
}

type ExportCmd struct {
	Bucket string `help:"Overrides export.bucket."`
	Prefix string `help:"Overrides export.prefix."`
}

func (c *ExportCmd) Run(ctx context.Context, g *Globals, app *App) error {
	s, err := app.open(ctx, g)
	if err != nil {
		return err
	}
	defer s.Close()

	cfg := s.cfg.Export
	if c.Bucket != "" {
		cfg.Bucket = c.Bucket
	}
	if c.Prefix != "" {
		cfg.Prefix = c.Prefix
	}
	if err := cfg.Validate(); err != nil {
		return badInput(err.Error())
	}

	dst := app.s3
	if dst == nil {
		client, err := export.NewS3Client(ctx, cfg)
		if err != nil {
			return err
		}
		dst = client
	}

	res, err := export.New(s.svc, dst, cfg.Bucket, cfg.Prefix, export.WithLogger(s.log)).Snapshot(ctx)
	if err != nil {
		return err
	}
	return app.print(res)
}

type SchemaCmd struct {
	Print bool `help:"Print the DDL instead of applying it (postgres only)."`
}

type ddlPrinter interface {
	Schema() []string
}

func (c *SchemaCmd) Run(ctx context.Context, g *Globals, app *App) error {
	s, err := app.open(ctx, g)
	if err != nil {
		return err
	}
	defer s.Close()

	driver := s.cfg.Store.DriverName()
	if c.Print {
		p, ok := s.schema.(ddlPrinter)
		if !ok {
			return badInput("--print is only supported by the postgres store")
		}
		for _, stmt := range p.Schema() {
			if _, err := fmt.Fprintf(app.stdout, "%s;\n", stmt); err != nil {
				return err
			}
		}
		return nil
	}

	if s.schema == nil {
		return app.print(map[string]any{"driver": driver, "applied": false})
	}
	if err := s.schema.EnsureSchema(ctx); err != nil {
		return err
	}
	return app.print(map[string]any{"driver": driver, "applied": true})
}
