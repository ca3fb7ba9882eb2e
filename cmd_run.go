package main

import (
	"fmt"
	"io/ioutil"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/mogaika/frametree/scriptlang"
	"github.com/mogaika/frametree/utils"
)

var runCmd = &cobra.Command{
	Use:   "run SCRIPT",
	Short: "Execute a scene script and print the labelled poses",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dump, _ := cmd.Flags().GetBool("dump")
		out, _ := cmd.Flags().GetString("out")
		rootName, _ := cmd.Flags().GetString("root")

		text, err := ioutil.ReadFile(args[0])
		if err != nil {
			return errors.Wrapf(err, "Cannot read script")
		}

		scene := scriptlang.NewScene()
		if err := scene.Run(text); err != nil {
			return errors.Wrapf(err, "Script %s", args[0])
		}

		w := cmd.OutOrStdout()
		for _, label := range scene.Labels() {
			p, _ := scene.Pose(label)
			fmt.Fprintf(w, "$%s = %v\n", label, p)
		}

		if dump {
			for _, root := range scene.Roots() {
				utils.Dump(w, root.Snapshot())
			}
		}

		if out != "" {
			roots := scene.Roots()
			if len(roots) == 0 {
				return errors.Errorf("Script created no trees")
			}
			root := roots[0]
			if rootName != "" {
				var ok bool
				if root, ok = scene.Root(rootName); !ok {
					return errors.Errorf("Script has no root %q", rootName)
				}
			}
			opts, err := encodeOptions("quaternion", 0)
			if err != nil {
				return err
			}
			if err := saveTree(out, root, opts); err != nil {
				return err
			}
			log.Info().Str("root", root.Name()).Str("out", out).Msg("Saved tree")
		}
		return nil
	},
}

func init() {
	runCmd.Flags().Bool("dump", false, "Dump the resulting trees")
	runCmd.Flags().String("out", "", "Save a tree to json, yaml, gltf, glb or a .frames script")
	runCmd.Flags().String("root", "", "Tree saved with --out, the first one by default")

	rootCmd.AddCommand(runCmd)
}
