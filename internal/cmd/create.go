package cmd

import (
	"github.com/apex/log"
	"github.com/spf13/cobra"

	"github.com/aligator/gojfs"
	"github.com/aligator/gojfs/internal/importer"
)

type createArgs struct {
	Source      string
	BlockSize   uint32
	BlocksCount uint32
	Label       string
}

func newCreateCommand(s *state) *cobra.Command {
	args := &createArgs{}
	command := &cobra.Command{
		Use:   "create <image>",
		Short: "Format a new image, optionally filled with the content of a host directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, a []string) error {
			return s.create(cmd, a[0], args)
		},
	}

	command.Flags().StringVar(&args.Source, "src", "", "directory whose content is copied into the image")
	command.Flags().Uint32Var(&args.BlockSize, "block-size", 0, "bytes per data block (overrides the configuration)")
	command.Flags().Uint32Var(&args.BlocksCount, "blocks", 0, "number of data blocks (overrides the configuration)")
	command.Flags().StringVar(&args.Label, "label", "", "name of the root directory (overrides the configuration)")
	return command
}

func (s *state) create(cmd *cobra.Command, path string, args *createArgs) error {
	opts := gojfs.Options{
		BlockSize:   s.config.Image.BlockSize,
		BlocksCount: s.config.Image.BlocksCount,
		Label:       s.config.Image.Label,
		Logger:      log.Log,
	}
	flags := cmd.Flags()
	if flags.Changed("block-size") {
		opts.BlockSize = args.BlockSize
	}
	if flags.Changed("blocks") {
		opts.BlocksCount = args.BlocksCount
	}
	if flags.Changed("label") {
		opts.Label = args.Label
	}

	importOpts := importer.Options{
		PreserveCase: s.config.Import.PreserveCase,
		SkipSpecial:  s.config.Import.SkipSpecial,
		Logger:       log.Log,
	}

	if args.Source != "" {
		stats, err := importer.Estimate(s.fs, args.Source, opts.BlockSize, importOpts)
		if err != nil {
			return err
		}
		logger := log.WithFields(log.Fields{
			"files":  stats.Files,
			"dirs":   stats.Dirs,
			"blocks": stats.Blocks(),
		})
		if stats.Blocks() > opts.BlocksCount {
			logger.WithField("available", opts.BlocksCount).Warn("source does not fit into the image")
		} else {
			logger.Info("estimated source")
		}
	}

	img, err := gojfs.New(opts)
	if err != nil {
		return err
	}

	if args.Source != "" {
		if err := importer.Import(s.fs, args.Source, img.Root(), importOpts); err != nil {
			return err
		}
	}

	if err := img.Check(); err != nil {
		return err
	}

	if err := s.saveImage(path, img); err != nil {
		return err
	}
	log.WithField("image", path).Info("created image")
	return nil
}
