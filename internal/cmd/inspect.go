package cmd

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/aligator/gojfs"
	"github.com/aligator/gojfs/internal/dump"
)

func newLsCommand(s *state) *cobra.Command {
	return &cobra.Command{
		Use:   "ls <image> [path]",
		Short: "Print the directory tree with coordinates and block chains",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			img, err := s.loadImage(args[0])
			if err != nil {
				return err
			}

			dir := img.Root()
			if len(args) == 2 {
				if dir, err = gojfs.NewFs(img).Entry(args[1]); err != nil {
					return err
				}
			}
			return dump.Tree(cmd.OutOrStdout(), dir)
		},
	}
}

func newFatCommand(s *state) *cobra.Command {
	return &cobra.Command{
		Use:   "fat <image>",
		Short: "Print the free list head and all FAT slots",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			img, err := s.loadImage(args[0])
			if err != nil {
				return err
			}
			return dump.FAT(cmd.OutOrStdout(), img)
		},
	}
}

func newCatCommand(s *state) *cobra.Command {
	return &cobra.Command{
		Use:   "cat <image> <path>",
		Short: "Print the content of a file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			img, err := s.loadImage(args[0])
			if err != nil {
				return err
			}
			data, err := afero.ReadFile(gojfs.NewFs(img), args[1])
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}

func newInfoCommand(s *state) *cobra.Command {
	return &cobra.Command{
		Use:   "info <image>",
		Short: "Print the geometry and usage of an image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			img, err := s.loadImage(args[0])
			if err != nil {
				return err
			}
			free, err := img.FreeBlocks()
			if err != nil {
				return err
			}

			blockSize := uint64(img.BlockSize())
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "label:             %s\n", img.Root().Name())
			fmt.Fprintf(out, "block size:        %s\n", humanize.IBytes(blockSize))
			fmt.Fprintf(out, "blocks:            %d (%d free)\n", img.BlocksCount(), free)
			fmt.Fprintf(out, "entries per block: %d\n", img.EntriesPerBlock())
			fmt.Fprintf(out, "capacity:          %s\n", humanize.IBytes(blockSize*uint64(img.BlocksCount())))
			fmt.Fprintf(out, "free:              %s\n", humanize.IBytes(blockSize*uint64(free)))
			fmt.Fprintf(out, "image size:        %s\n", humanize.IBytes(uint64(img.TotalBytes())))
			return nil
		},
	}
}

func newCheckCommand(s *state) *cobra.Command {
	return &cobra.Command{
		Use:   "check <image>",
		Short: "Verify the structural consistency of an image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			img, err := s.loadImage(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			err = img.Check()
			if err == nil {
				fmt.Fprintln(out, "ok")
				return nil
			}

			lines := gojfs.CheckReport(err)
			for _, line := range lines {
				fmt.Fprintln(out, line)
			}
			return fmt.Errorf("%w: %d problems found", gojfs.ErrInconsistent, len(lines))
		},
	}
}
