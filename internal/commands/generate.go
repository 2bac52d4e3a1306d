package commands

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/simonhull/firebird-suite/hatch/internal/blueprints"
	"github.com/simonhull/firebird-suite/hatch/internal/config"
	"github.com/simonhull/firebird-suite/hatch/internal/errs"
	"github.com/simonhull/firebird-suite/hatch/internal/exec"
	"github.com/simonhull/firebird-suite/hatch/internal/input"
	"github.com/simonhull/firebird-suite/hatch/internal/output"
	"github.com/simonhull/firebird-suite/hatch/internal/params"
	"github.com/simonhull/firebird-suite/hatch/internal/pipeline"
	"github.com/simonhull/firebird-suite/hatch/internal/project"
	"github.com/simonhull/firebird-suite/hatch/internal/vtree"
	"github.com/spf13/cobra"
)

// Terminal access, replaced in tests.
var (
	isInteractive = input.IsInteractive
	prompter      = input.Stdio
)

// generateOptions holds the flags shared by every generate subcommand.
type generateOptions struct {
	dir         string
	path        string
	module      string
	project     string
	spec        bool
	templates   string
	set         []string
	dryRun      bool
	force       bool
	skip        bool
	diff        bool
	interactive bool
	skipInstall bool
}

// GenerateCmd creates and returns the 'generate' command
func GenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "generate",
		Aliases: []string{"g"},
		Short:   "Generate code from a blueprint",
		Long: `Generate code from a built-in blueprint.

Available blueprints:
  component  - UI component: Go type, HTML partial, stylesheet, test
  empty      - Renders nothing and leaves the project unchanged

Examples:
  hatch generate component user-profile
  hatch generate component nav-bar --path web/ui --spec=false
  hatch generate component footer --module web/layout --dry-run
  hatch g component card --set title="Card"`,
	}

	cmd.AddCommand(blueprintCmd("component", "Generate a UI component", true))
	cmd.AddCommand(blueprintCmd("empty", "Run the generator without rendering or changing anything", false))
	return cmd
}

func blueprintCmd(blueprint, short string, needsName bool) *cobra.Command {
	opts := &generateOptions{}

	use := blueprint
	args := cobra.NoArgs
	if needsName {
		use = blueprint + " [name]"
		args = cobra.MaximumNArgs(1)
	}

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) > 0 {
				name = args[0]
			}
			if needsName && name == "" && isInteractive() {
				name = prompter().Prompt("Component name", "")
			}
			if !needsName {
				name = blueprint
			}
			return runGenerate(cmd.Context(), blueprint, name, cmd.Flags().Changed("spec"), opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.dir, "dir", "", "Project root (default: nearest directory with hatch.yml or go.mod)")
	f.StringVar(&opts.path, "path", "", "Directory to generate into, relative to the project root")
	f.StringVar(&opts.module, "module", "", "Go file to register the component in (default: registry.file)")
	f.StringVar(&opts.project, "project", "", "Build configuration project (default: the document's defaultProject)")
	f.BoolVar(&opts.spec, "spec", true, "Generate test files")
	f.StringVar(&opts.templates, "templates", "", "Directory of templates replacing the built-in blueprint")
	f.StringArrayVar(&opts.set, "set", nil, "Extra template value as key=value (repeatable)")
	f.BoolVar(&opts.dryRun, "dry-run", false, "Show what would change without writing")
	f.BoolVar(&opts.force, "force", false, "Overwrite existing files")
	f.BoolVar(&opts.skip, "skip", false, "Keep existing files")
	f.BoolVar(&opts.diff, "diff", false, "Show a diff for existing files, then ask")
	f.BoolVarP(&opts.interactive, "interactive", "i", false, "Ask what to do with each existing file")
	f.BoolVar(&opts.skipInstall, "skip-install", false, "Do not run the install command after adding dependencies")

	return cmd
}

func runGenerate(ctx context.Context, blueprint, name string, specChanged bool, opts *generateOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}

	root := opts.dir
	if root == "" {
		var err error
		if root, err = project.FindRoot("."); err != nil {
			return err
		}
	}
	output.Verbose("project root: " + root)

	overrides := map[string]any{}
	if opts.templates != "" {
		overrides["templates"] = opts.templates
	}
	cfg, err := config.Load(root, overrides)
	if err != nil {
		return err
	}
	if cfg.File != "" {
		output.Verbose("config: " + cfg.File)
	}

	raw, err := rawParams(name, specChanged, opts)
	if err != nil {
		return err
	}
	set, err := params.Parse(raw)
	if err != nil {
		return err
	}

	templates := cfg.Templates
	if templates != "" && !filepath.IsAbs(templates) {
		templates = filepath.Join(root, templates)
	}
	fsys, err := blueprints.Load(blueprint, templates)
	if err != nil {
		return err
	}

	strategy, err := vtree.NewStrategy(opts.force, opts.skip, opts.diff, opts.interactive)
	if err != nil {
		return errs.Wrap(errs.KindValidation, "flags", err)
	}

	tree := vtree.New(vtree.NewDiskStore(root))
	output.Verbose(fmt.Sprintf("Generating %s: %s (dry-run=%v, force=%v)", blueprint, set.Name, opts.dryRun, opts.force))

	if opts.dryRun {
		return dryRun(ctx, tree, set, cfg, fsys, strategy, opts.diff)
	}

	result, err := pipeline.Generate(ctx, tree, set, cfg, fsys, vtree.CommitOptions{Strategy: strategy})
	if err != nil {
		return err
	}

	for _, c := range result.Changes {
		output.Step(c.Description())
	}
	reportConflicts(result)

	if len(result.Files) == 0 {
		output.Success("Nothing to generate")
	} else {
		output.Success("Generated " + result.Exported)
	}

	if !result.NeedsInstall || len(cfg.Manifest.Install) == 0 {
		return nil
	}
	install := strings.Join(cfg.Manifest.Install, " ")
	interactive := isInteractive()
	if opts.skipInstall || (interactive && !prompter().Confirm("Run "+install+" now?", true)) {
		output.Info("New dependencies were added. Next steps:")
		output.Step(install)
		return nil
	}

	executor := exec.NewExecutor(&exec.Options{Dir: root})
	if err := executor.Install(ctx, cfg.Manifest.Install, interactive); err != nil {
		return fmt.Errorf("files were generated, but %s failed: %w", install, err)
	}
	return nil
}

// rawParams collects the option map params.Parse expects.
func rawParams(name string, specChanged bool, opts *generateOptions) (map[string]string, error) {
	raw := map[string]string{"name": name}
	for _, kv := range opts.set {
		key, value, ok := strings.Cut(kv, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, errs.New(errs.KindValidation, "--set", "%q is not key=value", kv)
		}
		raw[key] = value
	}
	if opts.path != "" {
		raw["path"] = opts.path
	}
	if opts.module != "" {
		raw["module"] = opts.module
	}
	if opts.project != "" {
		raw["project"] = opts.project
	}
	if specChanged {
		raw["spec"] = strconv.FormatBool(opts.spec)
	}
	return raw, nil
}

func dryRun(ctx context.Context, tree *vtree.Tree, set params.Set, cfg *config.Config, fsys fs.FS, strategy vtree.ConflictStrategy, showDiff bool) error {
	result, err := pipeline.Run(ctx, tree, set, cfg, fsys)
	if err != nil {
		return err
	}
	changes, err := tree.Changes(strategy)
	if err != nil {
		return err
	}

	for _, c := range changes {
		output.Step(c.Description())
		if showDiff && c.Action != vtree.ActionDelete {
			output.Plain(vtree.Diff(c.Path, c.Before, c.After))
		}
	}
	reportConflicts(result)
	output.Info(fmt.Sprintf("Dry run: %d file(s) would change, nothing was written", len(changes)))
	return nil
}

func reportConflicts(result *pipeline.Result) {
	for _, c := range result.Conflicts {
		output.Warn("Dependency conflict: " + c.String())
	}
}
