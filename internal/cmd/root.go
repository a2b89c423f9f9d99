// Package cmd implements the jfs command line tool.
package cmd

import (
	"github.com/apex/log"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/aligator/gojfs"
	"github.com/aligator/gojfs/internal/config"
	"github.com/aligator/gojfs/internal/logger"
)

// state is shared by all subcommands of one root command.
type state struct {
	fs afero.Fs

	configPath string
	debug      bool
	config     *config.Configuration
}

// NewRootCmd builds the jfs command. Images and configuration files are read
// from and written to hostFs.
func NewRootCmd(hostFs afero.Fs) *cobra.Command {
	s := &state{fs: hostFs}

	root := &cobra.Command{
		Use:           "jfs",
		Short:         "Create and inspect JFS filesystem images",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return s.init(cmd)
		},
	}

	root.PersistentFlags().StringVar(&s.configPath, "config", "", "set the location of the configuration file")
	root.PersistentFlags().BoolVar(&s.debug, "debug", false, "pass in order to log every block operation")

	root.AddCommand(
		newCreateCommand(s),
		newLsCommand(s),
		newFatCommand(s),
		newCatCommand(s),
		newInfoCommand(s),
		newCheckCommand(s),
		newRmCommand(s),
		newMvCommand(s),
	)
	return root
}

func (s *state) init(cmd *cobra.Command) error {
	var err error
	if s.configPath == "" {
		s.config, err = config.New()
	} else {
		s.config, err = config.ReadConfiguration(s.fs, s.configPath)
	}
	if err != nil {
		return err
	}

	logger.Setup(cmd.ErrOrStderr(), s.debug || s.config.Debug)
	log.WithField("config", s.configPath).Debug("loaded configuration")
	return nil
}

func (s *state) loadImage(path string) (*gojfs.Image, error) {
	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		return nil, err
	}
	img, err := gojfs.Load(data, log.Log)
	if err != nil {
		return nil, err
	}
	log.WithField("image", path).Debug("loaded image")
	return img, nil
}

func (s *state) saveImage(path string, img *gojfs.Image) error {
	if err := afero.WriteFile(s.fs, path, img.Bytes(), 0644); err != nil {
		return err
	}
	log.WithFields(log.Fields{
		"image": path,
		"bytes": img.TotalBytes(),
	}).Debug("saved image")
	return nil
}

// modify loads the image at path, applies fn and saves the image again
// after fn succeeded.
func (s *state) modify(path string, fn func(fs *gojfs.Fs) error) error {
	img, err := s.loadImage(path)
	if err != nil {
		return err
	}
	if err := fn(gojfs.NewFs(img)); err != nil {
		return err
	}
	return s.saveImage(path, img)
}
