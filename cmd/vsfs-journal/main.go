package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rodaine/table"
	"github.com/urfave/cli/v2"

	"github.com/mit-pdos/vsfs-journal/config"
	"github.com/mit-pdos/vsfs-journal/disk"
	"github.com/mit-pdos/vsfs-journal/fs"
	"github.com/mit-pdos/vsfs-journal/util"
	"github.com/mit-pdos/vsfs-journal/util/timed_disk"
	"github.com/mit-pdos/vsfs-journal/wal"
)

const (
	exitFailure     = 1
	exitJournalFull = 2
	exitNoInode     = 3
	exitDirFull     = 4
	exitUsage       = 5
)

var errUsage = errors.New("usage")

func usageErrorf(format string, a ...interface{}) error {
	return fmt.Errorf("%w: %s", errUsage, fmt.Sprintf(format, a...))
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errUsage), errors.Is(err, fs.ErrInvalidName):
		return exitUsage
	case errors.Is(err, wal.ErrJournalFull):
		return exitJournalFull
	case errors.Is(err, fs.ErrNoFreeInode):
		return exitNoInode
	case errors.Is(err, fs.ErrDirFull):
		return exitDirFull
	default:
		return exitFailure
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "vsfs-journal: %v\n", err)
		os.Exit(exitUsage)
	}
	app := newApp(cfg, os.Stdout, os.Stderr)
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "vsfs-journal: %v\n", err)
		os.Exit(exitCode(err))
	}
}

func onUsageError(ctx *cli.Context, err error, isSubcommand bool) error {
	return usageErrorf("%v", err)
}

func newApp(cfg *config.Config, stdout io.Writer, stderr io.Writer) *cli.App {
	return &cli.App{
		Name:      "vsfs-journal",
		Usage:     "journaled metadata updates for a vsfs image",
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "image",
				Aliases: []string{"i"},
				Usage:   "path of the disk image (VSFS_IMAGE)",
				Value:   cfg.Image,
			},
			&cli.StringFlag{
				Name:  "layout",
				Usage: "YAML file describing the image geometry (VSFS_LAYOUT)",
				Value: cfg.Layout,
			},
			&cli.Uint64Flag{
				Name:  "debug",
				Usage: "debug print level (VSFS_DEBUG)",
				Value: cfg.Debug,
			},
			&cli.BoolFlag{
				Name:  "stats",
				Usage: "print disk operation counts to stderr",
			},
		},
		Before: func(ctx *cli.Context) error {
			util.Debug = ctx.Uint64("debug")
			return nil
		},
		OnUsageError:   onUsageError,
		ExitErrHandler: func(*cli.Context, error) {},
		Action: func(ctx *cli.Context) error {
			if ctx.Args().Present() {
				return usageErrorf("unknown command %q", ctx.Args().First())
			}
			_ = cli.ShowAppHelp(ctx)
			return usageErrorf("no command given")
		},
		Commands: []*cli.Command{{
			Name:         "create",
			Usage:        "log the creation of a file in the root directory",
			ArgsUsage:    "<name>",
			OnUsageError: onUsageError,
			Action: func(ctx *cli.Context) error {
				if ctx.NArg() != 1 {
					return usageErrorf("create takes exactly one file name")
				}
				name := ctx.Args().First()
				return withFs(func(fsys *fs.Fs, ctx *cli.Context) error {
					inum, err := fsys.Create(name)
					if err != nil {
						return fmt.Errorf("creating %s: %w", name, err)
					}
					util.DPrintf(1, "create %s: inode %d\n", name, inum)
					fmt.Fprintf(ctx.App.Writer, "Logged creation of %s to journal.\n", name)
					return nil
				})(ctx)
			},
		}, {
			Name:         "install",
			Usage:        "replay committed transactions to their home blocks",
			OnUsageError: onUsageError,
			Action: func(ctx *cli.Context) error {
				if ctx.NArg() != 0 {
					return usageErrorf("install takes no arguments")
				}
				return withFs(func(fsys *fs.Fs, ctx *cli.Context) error {
					n, err := fsys.Install()
					if err != nil {
						return fmt.Errorf("installing journal: %w", err)
					}
					util.DPrintf(1, "installed %d transactions\n", n)
					fmt.Fprintln(ctx.App.Writer, "Journal installed")
					return nil
				})(ctx)
			},
		}, {
			Name:         "status",
			Usage:        "show journal usage and free inodes",
			OnUsageError: onUsageError,
			Action: func(ctx *cli.Context) error {
				if ctx.NArg() != 0 {
					return usageErrorf("status takes no arguments")
				}
				return withFs(func(fsys *fs.Fs, ctx *cli.Context) error {
					st, err := fsys.Status()
					if err != nil {
						return err
					}
					writeStatus(st, ctx.App.Writer)
					return nil
				})(ctx)
			},
		}},
	}
}

// withFs opens the image for the duration of one command.
func withFs(f func(*fs.Fs, *cli.Context) error) cli.ActionFunc {
	return func(ctx *cli.Context) error {
		cfg := config.Config{Layout: ctx.String("layout")}
		l, err := cfg.LoadLayout()
		if err != nil {
			return err
		}
		d, err := disk.OpenFileDisk(ctx.String("image"))
		if err != nil {
			return fmt.Errorf("opening image: %w", err)
		}
		td := timed_disk.New(d)
		defer td.Close()

		fsys, err := fs.MkFs(td, l)
		if err != nil {
			return fmt.Errorf("opening image %s: %w", ctx.String("image"), err)
		}
		err = f(fsys, ctx)
		if ctx.Bool("stats") {
			td.WriteStats(ctx.App.ErrWriter)
		}
		return err
	}
}

func writeStatus(st fs.Status, w io.Writer) {
	tbl := table.New("", "used", "free", "total").WithWriter(w)
	tbl.AddRow("journal bytes", st.Journal.Used, st.Journal.Free(), st.Journal.Capacity)
	tbl.AddRow("journal blocks", st.Journal.Blocks, "", "")
	tbl.AddRow("inodes", st.NInode-st.FreeInodes, st.FreeInodes, st.NInode)
	tbl.AddRow("root slots", "", st.FreeSlots, "")
	tbl.Print()

	fmt.Fprintf(w, "committed transactions: %d\n", st.Journal.Txns)
	if st.Journal.Torn {
		fmt.Fprintln(w, "incomplete tail will be discarded on install")
	}
}
