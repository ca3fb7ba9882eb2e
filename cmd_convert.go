package main

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/mogaika/frametree/utils"
)

var convertCmd = &cobra.Command{
	Use:   "convert IN OUT",
	Short: "Convert a tree between json, yaml, gltf, glb and .frames scripts",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		angles, _ := cmd.Flags().GetString("angles")
		precision, _ := cmd.Flags().GetInt("precision")
		opts, err := encodeOptions(angles, precision)
		if err != nil {
			return err
		}

		root, err := loadTree(args[0])
		if err != nil {
			return err
		}
		if err := saveTree(args[1], root, opts); err != nil {
			return err
		}
		log.Info().Str("in", args[0]).Str("out", args[1]).Msg("Converted")
		return nil
	},
}

var genCmd = &cobra.Command{
	Use:   "gen OUT",
	Short: "Generate a random tree",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		depth, _ := cmd.Flags().GetInt("depth")
		fanout, _ := cmd.Flags().GetInt("fanout")
		seed, _ := cmd.Flags().GetInt64("seed")
		name, _ := cmd.Flags().GetString("root")
		angles, _ := cmd.Flags().GetString("angles")
		precision, _ := cmd.Flags().GetInt("precision")

		opts, err := encodeOptions(angles, precision)
		if err != nil {
			return err
		}
		root := utils.RandomTree(name, depth, fanout, seed)
		if err := saveTree(args[0], root, opts); err != nil {
			return err
		}
		log.Info().Str("out", args[0]).Int("depth", depth).Int("fanout", fanout).Msg("Generated")
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{convertCmd, genCmd} {
		c.Flags().String("angles", "quaternion", "Orientation format: quaternion or rpy")
		c.Flags().Int("precision", 0, "Decimal places to keep, 0 keeps everything")
	}
	genCmd.Flags().Int("depth", 3, "Tree depth")
	genCmd.Flags().Int("fanout", 2, "Children per frame")
	genCmd.Flags().Int64("seed", 0, "Random seed")
	genCmd.Flags().String("root", "world", "Root frame name")

	rootCmd.AddCommand(convertCmd, genCmd)
}
