package main

import (
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/c360studio/mvdkit/assertion"
	"github.com/c360studio/mvdkit/concept"
	"github.com/c360studio/mvdkit/config"
	"github.com/c360studio/mvdkit/docs"
	"github.com/c360studio/mvdkit/mvdxml"
	"github.com/c360studio/mvdkit/project"
	"github.com/c360studio/mvdkit/template"
)

func checkCmd(a *app) *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "check <glob>...",
		Short: "Decode documents and report diagnostics",
		Long: `Decode every document matching the given patterns and report the
references that were dropped while loading. Patterns support ** wildcards.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := expandGlobs(args)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			var failed, diagnosed int
			for _, f := range files {
				res, err := a.decode(f)
				if err != nil {
					fmt.Fprintf(out, "%s: %v\n", f, err)
					failed++
					continue
				}
				for _, d := range res.Diagnostics {
					fmt.Fprintf(out, "%s: %s\n", f, d)
				}
				if len(res.Diagnostics) > 0 {
					diagnosed++
				}
			}
			fmt.Fprintf(out, "%d documents checked, %d failed, %d with diagnostics\n", len(files), failed, diagnosed)

			if failed > 0 {
				return fmt.Errorf("%d documents failed to decode", failed)
			}
			if strict && diagnosed > 0 {
				return fmt.Errorf("%d documents have diagnostics", diagnosed)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "Fail when any document has diagnostics")
	return cmd
}

// expandGlobs resolves patterns to a sorted list of files. A pattern
// without matches is an error.
func expandGlobs(patterns []string) ([]string, error) {
	var files []string
	for _, pattern := range patterns {
		matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("no files match %q", pattern)
		}
		files = append(files, matches...)
	}
	slices.Sort(files)
	return slices.Compact(files), nil
}

func showCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <file> <template>",
		Short: "Print a template's rule tree",
		Long: `Print the rule tree of a template, found by UUID or name. Nodes
inherited from the base template are marked [locked]; referenced templates
are expanded in place.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.decode(args[0])
			if err != nil {
				return err
			}
			t := findTemplate(res.Project, args[1])
			if t == nil {
				return fmt.Errorf("template %q: %w", args[1], project.ErrNotFound)
			}
			return printTemplate(cmd.OutOrStdout(), t, docs.NewConverter())
		},
	}
}

func printTemplate(w io.Writer, t *template.Template, conv *docs.Converter) error {
	fmt.Fprintf(w, "%s (%s)\n", t.Name, t.ID)
	fmt.Fprintf(w, "  entity: %s\n", t.Type)
	if t.Schema != "" {
		fmt.Fprintf(w, "  schema: %s\n", t.Schema)
	}
	if base := t.Parent(); base != nil {
		fmt.Fprintf(w, "  base:   %s\n", base.Name)
	}

	if t.Documentation != "" {
		text, err := conv.Markdown(t.Documentation)
		if err != nil {
			text = docs.PlainText(t.Documentation)
		}
		fmt.Fprintf(w, "\n%s\n", text)
	}

	fmt.Fprintln(w, "\nrules:")
	template.Walk(t, func(p template.Path, s template.Step) {
		indent := strings.Repeat("  ", len(p))
		var label string
		switch {
		case s.Reference != nil:
			label = "-> " + s.Reference.Name
		case s.Rule.Kind == template.KindConstraint:
			label = "where " + s.Rule.Expression
		default:
			label = s.Rule.Name
			if s.Rule.Identification != "" {
				label += " [" + s.Rule.Identification + "]"
			}
			if s.Rule.Condition {
				label += " (condition)"
			}
		}
		if template.IsLocked(t, p) {
			label += " [locked]"
		}
		fmt.Fprintf(w, "%s%s\n", indent, label)
	})

	if len(t.Templates) > 0 {
		fmt.Fprintln(w, "\nsub-templates:")
		for _, sub := range t.Templates {
			fmt.Fprintf(w, "  %s (%s)\n", sub.Name, sub.ID)
		}
	}
	return nil
}

func inheritCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "inherit <file> <view> <entity>",
		Short: "List the concepts a view applies to an entity",
		Long: `List every template applying to an entity within a view, including
those inherited from base views and supertypes, with the view and entity that
introduced each one.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.decode(args[0])
			if err != nil {
				return err
			}
			p := res.Project
			v := findView(p, args[1])
			if v == nil {
				return fmt.Errorf("view %q: %w", args[1], project.ErrNotFound)
			}

			root := p.Root(v, args[2])
			if root == nil {
				root = concept.NewRoot(args[2])
			}
			var lookup concept.SchemaLookup
			if a.schema != nil {
				lookup = a.schema
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "STATE\tTEMPLATE\tENTITY\tVIEW\tLOCAL")
			for _, in := range concept.Resolve(root, v, p, lookup) {
				local := ""
				if in.Local {
					local = "yes"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", in.State, in.Template.Name, in.Entity, in.View.Name, local)
			}
			return tw.Flush()
		},
	}
}

func normalizeCmd(a *app) *cobra.Command {
	var drop []string

	cmd := &cobra.Command{
		Use:   "normalize <in> <out>",
		Short: "Rewrite a document as canonical mvdXML 1.1",
		Long: `Decode a document in any supported mvdXML namespace and write it back
as mvdXML 1.1. Dropped references are not carried over.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.decode(args[0])
			if err != nil {
				return err
			}

			opts := a.codecOptions()
			if len(drop) > 0 {
				dropped := make(map[uuid.UUID]bool, len(drop))
				for _, s := range drop {
					id, err := uuid.Parse(s)
					if err != nil {
						return fmt.Errorf("invalid --drop UUID %q: %w", s, err)
					}
					dropped[id] = true
				}
				opts = append(opts, mvdxml.WithFilter(func(id uuid.UUID) bool {
					return !dropped[id]
				}))
			}

			if err := mvdxml.EncodeFile(args[1], res.Project, opts...); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d diagnostics)\n", args[1], len(res.Diagnostics))
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&drop, "drop", nil, "UUIDs of templates or views to leave out")
	return cmd
}

func assertCmd(a *app) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "assert <file> <view> [entity]",
		Short: "Derive Schematron checks from a view",
		Long: `Derive Schematron patterns from the concept usages of a view. Each
exchange becomes a phase activating the concepts mandatory on export. With an
entity, only the roots bound to it are used.`,
		Args: cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.decode(args[0])
			if err != nil {
				return err
			}
			v := findView(res.Project, args[1])
			if v == nil {
				return fmt.Errorf("view %q: %w", args[1], project.ErrNotFound)
			}
			if len(args) == 3 {
				roots := v.RootsFor(args[2])
				if len(roots) == 0 {
					return fmt.Errorf("no concept root for %s in view %q", args[2], v.Name)
				}
				v = &concept.View{Identity: v.Identity, Schema: v.Schema, Exchanges: v.Exchanges, Roots: roots}
			}

			w := cmd.OutOrStdout()
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("create output: %w", err)
				}
				defer f.Close()
				w = f
			}
			return assertion.WriteSchematron(w, assertion.BuildView(v))
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to file instead of stdout")
	return cmd
}

func initCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write the default user config if none exists",
		RunE: func(cmd *cobra.Command, args []string) error {
			return config.NewLoader(a.logger).EnsureUserConfig()
		},
	}
}

// findTemplate looks a template up by UUID, then by name.
func findTemplate(p *project.Project, ref string) *template.Template {
	if id, err := uuid.Parse(ref); err == nil {
		if t := p.Template(id); t != nil {
			return t
		}
	}
	return p.TemplateByName(ref)
}

// findView looks a view up by UUID, then by name.
func findView(p *project.Project, ref string) *concept.View {
	if id, err := uuid.Parse(ref); err == nil {
		if v := p.View(id); v != nil {
			return v
		}
	}
	return p.ViewByName(ref)
}
