package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"gup/pkg/compiler"
	"gup/pkg/mach"
	"gup/pkg/utils"
)

const version = "0.0.3"

type options struct {
	asmOnly bool
	format  string
	target  string
	out     string
	jobs    int
	debug   bool
	tokens  bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "gup [flags] <file>...",
		Short: "the gup compiler - gup!",
		Long: `gup compiles each source file to assembly and, unless --asm-only is
given, runs the target's assembler on it and removes the intermediate
assembly.`,
		Version:      version,
		Args:         cobra.MinimumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, args)
		},
	}
	cmd.SetVersionTemplate("gup version {{.Version}}\n")

	f := cmd.Flags()
	f.BoolVarP(&opts.asmOnly, "asm-only", "a", false, "stop after emitting assembly")
	f.StringVarP(&opts.format, "format", "f", "elf64", "object format passed to the assembler")
	f.StringVarP(&opts.target, "target", "t", compiler.DefaultTarget,
		"target architecture ("+strings.Join(mach.Names(), ", ")+")")
	f.StringVarP(&opts.out, "out", "o", "", "output file, only with a single input")
	f.IntVarP(&opts.jobs, "jobs", "j", runtime.NumCPU(), "files compiled in parallel")
	f.BoolVarP(&opts.debug, "debug", "d", false, "log tokens, generated nodes and the symbol table")
	f.BoolVar(&opts.tokens, "tokens", false, "print the token stream of each file and stop")
	return cmd
}

// driver compiles the files named on the command line.
type driver struct {
	opts   *options
	target *mach.Target
	log    *slog.Logger

	mu     sync.Mutex // guards stdout
	stdout io.Writer
}

func run(cmd *cobra.Command, opts *options, args []string) error {
	if opts.out != "" && len(args) > 1 {
		return fmt.Errorf("--out needs exactly one input, got %d", len(args))
	}
	if opts.jobs < 1 {
		return fmt.Errorf("--jobs must be at least 1, got %d", opts.jobs)
	}
	tgt, err := mach.Lookup(opts.target)
	if err != nil {
		return err
	}

	level := slog.LevelWarn
	if opts.debug {
		level = slog.LevelDebug
	}
	d := &driver{
		opts:   opts,
		target: tgt,
		log:    slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})),
		stdout: cmd.OutOrStdout(),
	}

	if opts.tokens {
		for _, path := range args {
			if err := d.dumpTokens(path); err != nil {
				return err
			}
		}
		return nil
	}

	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(opts.jobs)
	for _, path := range args {
		g.Go(func() error {
			return d.compile(ctx, path)
		})
	}
	return g.Wait()
}

func (d *driver) printf(format string, args ...any) {
	d.mu.Lock()
	defer d.mu.Unlock()
	fmt.Fprintf(d.stdout, format, args...)
}

// compile runs one file through the compiler and, unless asm-only, the
// assembler.
func (d *driver) compile(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	full, _, err := utils.GetPathInfo(path)
	if err != nil {
		return err
	}
	asmPath, objPath, err := utils.OutputPaths(full, d.opts.out, d.opts.asmOnly)
	if err != nil {
		return err
	}

	st, err := compiler.Open(full, compiler.Config{
		Target: d.target.Name,
		Output: asmPath,
		Logger: d.log.With("file", path),
	})
	if err != nil {
		return fmt.Errorf("failed to open %q: %w", path, err)
	}

	start := time.Now()
	err = st.Parse()
	elapsed := time.Since(start)
	if cerr := st.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("failed to parse %q: %w", path, err)
	}
	d.printf("%s: compiled in %.2fms [%dns]\n", path, float64(elapsed.Nanoseconds())/1e6, elapsed.Nanoseconds())

	if d.opts.asmOnly {
		return nil
	}
	argv := d.target.Assemble(asmPath, objPath, d.opts.format)
	out, err := exec.CommandContext(ctx, argv[0], argv[1:]...).CombinedOutput()
	if len(out) > 0 {
		d.printf("%s", out)
	}
	if err != nil {
		return fmt.Errorf("%s %q: %w", argv[0], asmPath, err)
	}
	return os.Remove(asmPath)
}

func (d *driver) dumpTokens(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	tokens, err := compiler.Lex(f)
	d.printf("Tokens %s (%d)\n", path, len(tokens))
	for _, tok := range tokens {
		d.printf("  %s\n", tok)
	}
	return err
}
