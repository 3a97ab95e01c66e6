package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"library-catalog/internal/config"
	"library-catalog/internal/logger"
	"library-catalog/library"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// app is the state shared by every command: configuration, logger, the
// catalog and where it is stored.
type app struct {
	cfg   *config.Config
	log   *logger.Logger
	mgr   *library.LibraryManager
	store library.Store
	in    io.Reader
	out   io.Writer
}

func main() {
	if err := newRootCmd(os.Stdin, os.Stdout).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "operation failed, check inputs: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd(in io.Reader, out io.Writer) *cobra.Command {
	a := &app{in: in, out: out}

	root := &cobra.Command{
		Use:           "library",
		Short:         "Library catalog manager",
		Long:          "Manage books, users, shelves, loans and reservations of a library catalog.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.open(cmd)
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return a.close()
		},
		RunE: func(*cobra.Command, []string) error {
			return a.runShell()
		},
	}
	config.RegisterFlags(root.PersistentFlags())
	root.SetIn(in)
	root.SetOut(out)

	root.AddCommand(
		newShellCmd(a),
		newImportCmd(a),
		newReportCmd(a),
		newRiskyCmd(a),
		newOptimalCmd(a),
		newAuthorCmd(a),
	)

	return root
}

func (a *app) open(cmd *cobra.Command) error {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return err
	}
	a.cfg = cfg

	a.log = logger.New(logger.Config{
		Writer:      os.Stderr,
		Format:      cfg.Logger.Format,
		Environment: cfg.App.Environment,
		Level:       logger.ParseLevel(cfg.Logger.Level),
		NoColor:     !term.IsTerminal(int(os.Stderr.Fd())),
	})
	a.mgr = library.NewLibraryManager(library.WithLogger(a.log.Logger))

	a.store, err = library.OpenStore(cfg.Storage.Backend, cfg.Storage.DataDir, cfg.Storage.DBPath)
	if err != nil {
		a.log.WithError(err).Error("open storage failed", "backend", cfg.Storage.Backend)
		return err
	}
	if err := a.store.Load(a.mgr); err != nil {
		a.log.WithError(err).Error("load catalog failed", "location", a.store.Location())
		return err
	}
	return nil
}

func (a *app) close() error {
	if a.store == nil {
		return nil
	}
	return a.store.Close()
}

func (a *app) save() error {
	if err := a.store.Save(a.mgr); err != nil {
		return fmt.Errorf("save catalog: %w", err)
	}
	return nil
}

func newShellCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Interactive catalog shell (default)",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			return a.runShell()
		},
	}
}

func (a *app) runShell() error {
	interactive := false
	if f, ok := a.in.(*os.File); ok {
		interactive = term.IsTerminal(int(f.Fd()))
	}
	return newShell(a, a.in, a.out, interactive).run()
}

func newImportCmd(a *app) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Bulk-load books from a CSV or JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			f := library.Format(strings.ToLower(format))
			if format == "" {
				f = library.FormatFromPath(args[0])
			}
			n, err := a.mgr.LoadInitialInventory(args[0], f)
			if err != nil {
				return err
			}
			if err := a.save(); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Loaded %d books.\n", n)
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "", "File format (csv, json); guessed from the extension when empty")
	return cmd
}

func newReportCmd(a *app) *cobra.Command {
	var save bool
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print the global inventory report sorted by value",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			fmt.Fprint(a.out, a.mgr.GenerateGlobalInventoryReport())
			if !save {
				return nil
			}
			if err := a.mgr.SaveGlobalReport(a.cfg.Storage.ReportPath); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Report saved to %s\n", a.cfg.Storage.ReportPath)
			return nil
		},
	}
	cmd.Flags().BoolVar(&save, "save", false, "Also write the report to the configured report path")
	return cmd
}

func newRiskyCmd(a *app) *cobra.Command {
	var threshold float64
	cmd := &cobra.Command{
		Use:   "risky",
		Short: "List every four-book group heavier than the threshold",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			printRisky(a.out, a.mgr.RiskyShelfCombinations(threshold), threshold)
			return nil
		},
	}
	cmd.Flags().Float64Var(&threshold, "threshold", 8.0, "Weight threshold in kg")
	return cmd
}

func newOptimalCmd(a *app) *cobra.Command {
	var capacity float64
	cmd := &cobra.Command{
		Use:   "optimal",
		Short: "Find the most valuable set of books that fits on one shelf",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			printSelection(a.out, a.mgr.OptimalShelfAssignment(capacity), capacity)
			return nil
		},
	}
	cmd.Flags().Float64Var(&capacity, "capacity", 8.0, "Shelf capacity in kg")
	return cmd
}

func newAuthorCmd(a *app) *cobra.Command {
	var average bool
	cmd := &cobra.Command{
		Use:   "author NAME",
		Short: "Total value (or average weight) of an author's titles",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			author := strings.Join(args, " ")
			if average {
				fmt.Fprintf(a.out, "Average weight of %s's books: %s kg\n", author,
					strconv.FormatFloat(a.mgr.AuthorAverageWeight(author), 'f', 2, 64))
				return nil
			}
			fmt.Fprintf(a.out, "Total value of %s's books: %s\n", author, library.FormatMoney(a.mgr.AuthorTotalValue(author)))
			return nil
		},
	}
	cmd.Flags().BoolVar(&average, "average", false, "Report the average weight instead of the total value")
	return cmd
}
