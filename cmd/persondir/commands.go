package main

import (
	"context"
	"fmt"
	"io"

	"persondir.systems/persondir/internal/attributes"
	"persondir.systems/persondir/internal/persondir"
)

type lookupOptions struct {
	uid    string
	attrs  []string
	single bool
	format string
	source string
}

// daoFor returns the whole directory, or one of its sources when name is set.
func daoFor(p *persondir.PersonDir, name string) (attributes.Dao, error) {
	if name == "" {
		return p, nil
	}
	s, ok := p.Source(name)
	if !ok {
		return nil, fmt.Errorf("no attribute source named %v, have %v", name, p.SourceNames())
	}
	return attributes.NewDao(s, p.DefaultAttribute()), nil
}

func lookupCommand(ctx context.Context, w io.Writer, p *persondir.PersonDir, o lookupOptions) error {
	dao, err := daoFor(p, o.source)
	if err != nil {
		return err
	}
	seed, err := persondir.ParseSeed(o.attrs)
	if err != nil {
		return err
	}
	if o.uid != "" {
		seed[p.DefaultAttribute()] = append([]any{o.uid}, seed[p.DefaultAttribute()]...)
	}
	if len(seed) == 0 {
		return fmt.Errorf("need a person identifier or at least one --attr")
	}

	var result any
	var text string
	if o.single {
		attrs, err := dao.Attributes(ctx, attributes.Collapse(seed))
		if err != nil {
			return err
		}
		result, text = attrs, persondir.RenderSingle(attrs)
	} else {
		attrs, err := dao.MultivaluedAttributes(ctx, seed)
		if err != nil {
			return err
		}
		result, text = attrs, persondir.RenderText(attrs)
	}

	switch o.format {
	case "", "text":
		_, err = io.WriteString(w, text)
		return err
	case "json":
		data, err := persondir.RenderJSON(result)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	default:
		return fmt.Errorf("unsupported output format %q", o.format)
	}
}

func namesCommand(w io.Writer, p *persondir.PersonDir, source string) error {
	dao, err := daoFor(p, source)
	if err != nil {
		return err
	}
	names := dao.PossibleAttributeNames()
	if names == nil {
		_, err := fmt.Fprintln(w, "attribute names are not known ahead of time")
		return err
	}
	for _, n := range names {
		if _, err := fmt.Fprintln(w, n); err != nil {
			return err
		}
	}
	return nil
}

func diffCommand(ctx context.Context, w io.Writer, p *persondir.PersonDir, uid, left, right string) error {
	l, err := daoFor(p, left)
	if err != nil {
		return err
	}
	r, err := daoFor(p, right)
	if err != nil {
		return err
	}
	la, err := l.MultivaluedAttributesFor(ctx, uid)
	if err != nil {
		return err
	}
	ra, err := r.MultivaluedAttributesFor(ctx, uid)
	if err != nil {
		return err
	}
	diff, changed := persondir.Diff(la, ra)
	if !changed {
		_, err := fmt.Fprintf(w, "%v and %v agree on %v\n", left, right, uid)
		return err
	}
	_, err = io.WriteString(w, diff)
	return err
}
