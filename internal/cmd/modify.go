package cmd

import (
	"github.com/apex/log"
	"github.com/spf13/cobra"

	"github.com/aligator/gojfs"
)

func newRmCommand(s *state) *cobra.Command {
	var recursive bool
	command := &cobra.Command{
		Use:   "rm <image> <path>",
		Short: "Remove a file or directory from an image",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.modify(args[0], func(fs *gojfs.Fs) error {
				var err error
				if recursive {
					err = fs.RemoveAll(args[1])
				} else {
					err = fs.Remove(args[1])
				}
				if err != nil {
					return err
				}
				log.WithField("path", args[1]).Info("removed")
				return nil
			})
		},
	}

	command.Flags().BoolVarP(&recursive, "recursive", "r", false, "remove directories and their content")
	return command
}

func newMvCommand(s *state) *cobra.Command {
	return &cobra.Command{
		Use:   "mv <image> <old> <new>",
		Short: "Move or rename a file or directory inside an image",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.modify(args[0], func(fs *gojfs.Fs) error {
				if err := fs.Rename(args[1], args[2]); err != nil {
					return err
				}
				log.WithFields(log.Fields{
					"from": args[1],
					"to":   args[2],
				}).Info("moved")
				return nil
			})
		},
	}
}
