// Command nachosfs drives a filesystem stored in a disk-image file.
package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ilms49898723/NachOS-MP4/disk"
	"github.com/ilms49898723/NachOS-MP4/fs"
)

var (
	diskPath   string
	numSectors int
)

// mount opens the disk image and the filesystem on it.
func mount(format bool) (*fs.FileSystem, disk.Disk, error) {
	d, err := disk.NewFileDisk(diskPath, numSectors)
	if err != nil {
		return nil, nil, fmt.Errorf("open disk image %s: %w", diskPath, err)
	}
	return fs.MkFileSystem(d, format), d, nil
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "nachosfs",
		Short:         "Operate on a sector-addressed filesystem image",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVarP(&diskPath, "disk", "d", "nachos.img", "disk image file")
	root.PersistentFlags().IntVarP(&numSectors, "sectors", "n", 128, "disk size in sectors")

	root.AddCommand(newFormatCmd())
	root.AddCommand(newLsCmd())
	root.AddCommand(newTreeCmd())
	root.AddCommand(newMkdirCmd())
	root.AddCommand(newCreateCmd())
	root.AddCommand(newRmCmd())
	root.AddCommand(newCpCmd())
	root.AddCommand(newCatCmd())
	root.AddCommand(newInfoCmd())
	return root
}

func newFormatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "format",
		Short: "Write an empty filesystem to the image",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, d, err := mount(true)
			if err != nil {
				return err
			}
			defer d.Close()
			d.Barrier()
			fmt.Printf("formatted %s: %d sectors of %d bytes\n",
				diskPath, numSectors, disk.SectorSize)
			return nil
		},
	}
}

func newLsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ls [path]",
		Short: "List a directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/"
			if len(args) == 1 {
				path = args[0]
			}
			fsys, d, err := mount(false)
			if err != nil {
				return err
			}
			defer d.Close()
			if fsys.OpenDir(path) == nil {
				return fmt.Errorf("directory %s not found", path)
			}
			fsys.List(path)
			return nil
		},
	}
}

func newTreeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tree [path]",
		Short: "List a directory recursively",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/"
			if len(args) == 1 {
				path = args[0]
			}
			fsys, d, err := mount(false)
			if err != nil {
				return err
			}
			defer d.Close()
			if fsys.OpenDir(path) == nil {
				return fmt.Errorf("directory %s not found", path)
			}
			fsys.RecursiveList(path)
			return nil
		},
	}
}

func newMkdirCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mkdir <path>",
		Short: "Create a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fsys, d, err := mount(false)
			if err != nil {
				return err
			}
			defer d.Close()
			parent, name := fs.SplitPath(args[0])
			if !fsys.CreateDirectory(name, parent) {
				return fmt.Errorf("mkdir %s failed", args[0])
			}
			d.Barrier()
			return nil
		},
	}
}

func newCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create <path> <size>",
		Short: "Create an empty file of a fixed size",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			size, err := strconv.Atoi(args[1])
			if err != nil || size < 0 {
				return fmt.Errorf("bad size %q", args[1])
			}
			fsys, d, err := mount(false)
			if err != nil {
				return err
			}
			defer d.Close()
			if !fsys.Create(args[0], size) {
				return fmt.Errorf("create %s failed", args[0])
			}
			d.Barrier()
			return nil
		},
	}
}

func newRmCmd() *cobra.Command {
	var recursive bool
	cmd := &cobra.Command{
		Use:   "rm <path>",
		Short: "Remove a file or directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fsys, d, err := mount(false)
			if err != nil {
				return err
			}
			defer d.Close()
			if !fsys.Remove(args[0], recursive) {
				return fmt.Errorf("rm %s failed", args[0])
			}
			d.Barrier()
			return nil
		},
	}
	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false,
		"remove directories and their contents")
	return cmd
}

func newCpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cp <hostfile> <path>",
		Short: "Copy a host file into the filesystem",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			fsys, d, err := mount(false)
			if err != nil {
				return err
			}
			defer d.Close()
			if !fsys.Create(args[1], len(data)) {
				return fmt.Errorf("create %s failed", args[1])
			}
			id := fsys.OpenFd(args[1])
			if id == -1 {
				return fmt.Errorf("open %s failed", args[1])
			}
			defer fsys.CloseFd(id)
			if n := fsys.WriteFd(data, id); n != len(data) {
				return fmt.Errorf("short write to %s: %d of %d bytes", args[1], n, len(data))
			}
			d.Barrier()
			return nil
		},
	}
}

func newCatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cat <path>",
		Short: "Print a file's contents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fsys, d, err := mount(false)
			if err != nil {
				return err
			}
			defer d.Close()
			fp := fsys.Open(args[0])
			if fp == nil {
				return fmt.Errorf("file %s not found", args[0])
			}
			data := make([]byte, fp.Length())
			fp.ReadAt(data, 0)
			_, err = os.Stdout.Write(data)
			return err
		},
	}
}

func newInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Dump filesystem bookkeeping",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fsys, d, err := mount(false)
			if err != nil {
				return err
			}
			defer d.Close()
			fsys.Print()
			return nil
		},
	}
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
