package main

import (
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/teslashibe/go-follow/internal/config"
	"github.com/teslashibe/go-follow/pkg/app"
	"github.com/teslashibe/go-follow/pkg/tracking/recognition"
)

var runFlags struct {
	faces     string
	source    string
	drone     string
	telloAddr string
	variant   string
	backend   string
	port      string
	db        string
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Recognize faces on the camera stream and pursue the locked target",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := applyRunFlags(cmd, &cfg); err != nil {
			return err
		}

		a, err := app.New(cfg)
		if err != nil {
			return fmt.Errorf("configuration error: %w", err)
		}
		defer a.Shutdown()

		bar := newLoadBar("Loading faces")
		a.LoadProgress = bar.update
		if err := a.Init(cmd.Context()); err != nil {
			return fmt.Errorf("initialization failed: %w", err)
		}
		bar.finish()

		return a.Run(cmd.Context())
	},
}

// applyRunFlags overrides configuration with the flags that were set.
func applyRunFlags(cmd *cobra.Command, c *config.Config) error {
	f := cmd.Flags()
	if f.Changed("variant") {
		if err := c.SetVariant(runFlags.variant); err != nil {
			return err
		}
	}
	if f.Changed("faces") {
		c.Gallery.Dir = runFlags.faces
	}
	if f.Changed("source") {
		c.Camera.Source = runFlags.source
	}
	if f.Changed("drone") {
		c.Drone.Kind = runFlags.drone
	}
	if f.Changed("tello-addr") {
		c.Drone.Tello.Address = runFlags.telloAddr
	}
	if f.Changed("backend") {
		c.Recognizer.Backend = recognition.Backend(runFlags.backend)
	}
	if f.Changed("port") {
		c.Web.Port = runFlags.port
	}
	if f.Changed("db") {
		c.Gallery.DatabaseURL = runFlags.db
	}
	return nil
}

// loadBar draws gallery load progress once the total is known.
type loadBar struct {
	desc string
	bar  *progressbar.ProgressBar
}

func newLoadBar(desc string) *loadBar {
	return &loadBar{desc: desc}
}

func (l *loadBar) update(done, total int) {
	if l.bar == nil {
		l.bar = progressbar.NewOptions(total,
			progressbar.OptionSetDescription(l.desc),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionShowCount(),
		)
	}
	l.bar.Set(done)
}

func (l *loadBar) finish() {
	if l.bar != nil {
		l.bar.Finish()
		fmt.Fprintln(os.Stderr)
	}
}

func init() {
	f := runCmd.Flags()
	f.StringVar(&runFlags.faces, "faces", "", "directory of reference images, one per identity")
	f.StringVar(&runFlags.source, "source", "", `camera source: device index ("0") or stream URL`)
	f.StringVar(&runFlags.drone, "drone", "", "command sink: tello, log or mock")
	f.StringVar(&runFlags.telloAddr, "tello-addr", "", "Tello SDK address (host:port)")
	f.StringVar(&runFlags.variant, "variant", "", "tracking preset: default, loose or first-person")
	f.StringVar(&runFlags.backend, "backend", "", "recognizer backend: dlib or sface")
	f.StringVar(&runFlags.port, "port", "", "control surface port")
	f.StringVar(&runFlags.db, "db", "", "PostgreSQL URL to load the gallery from instead of --faces")
	rootCmd.AddCommand(runCmd)
}
