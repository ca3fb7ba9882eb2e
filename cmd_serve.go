package main

import (
	"io/ioutil"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/mogaika/frametree/config"
	"github.com/mogaika/frametree/scriptlang"
	"github.com/mogaika/frametree/status"
	"github.com/mogaika/frametree/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve a scene over http",
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")
		settings, err := config.LoadSettings(configPath)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("listen") {
			settings.Listen, _ = cmd.Flags().GetString("listen")
		}
		if cmd.Flags().Changed("tree") {
			settings.TreeFile, _ = cmd.Flags().GetString("tree")
		}
		if cmd.Flags().Changed("script") {
			settings.ScriptFile, _ = cmd.Flags().GetString("script")
		}

		scene, err := loadScene(settings)
		if err != nil {
			return err
		}

		opts, err := settings.EncodeOptions()
		if err != nil {
			return err
		}

		hub := status.NewHub()
		defer hub.Close()

		srv := web.NewServer(scene, hub)
		srv.DumpOptions = opts
		return srv.ListenAndServe(settings.Listen)
	},
}

func loadScene(settings config.Settings) (*scriptlang.Scene, error) {
	scene := scriptlang.NewScene()

	if settings.TreeFile != "" {
		root, err := loadTree(settings.TreeFile)
		if err != nil {
			return nil, err
		}
		if err := scene.AdoptRoot(root); err != nil {
			return nil, err
		}
		log.Info().Str("file", settings.TreeFile).Str("root", root.Name()).Msg("Loaded tree")
	}

	if settings.ScriptFile != "" {
		text, err := ioutil.ReadFile(settings.ScriptFile)
		if err != nil {
			return nil, errors.Wrapf(err, "Cannot read script")
		}
		if err := scene.Run(text); err != nil {
			return nil, errors.Wrapf(err, "Script %s", settings.ScriptFile)
		}
		log.Info().Str("file", settings.ScriptFile).Int("poses", len(scene.Labels())).Msg("Executed script")
	}
	return scene, nil
}

func init() {
	serveCmd.Flags().String("config", "", "Settings file, ./frametree.yaml is used when present")
	serveCmd.Flags().String("listen", ":8000", "Address of server")
	serveCmd.Flags().String("tree", "", "Tree file to load")
	serveCmd.Flags().String("script", "", "Script to run before serving")

	rootCmd.AddCommand(serveCmd)
}
