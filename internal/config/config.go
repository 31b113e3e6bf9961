// Package config loads cellframe settings from a YAML file, CELLFRAME_*
// environment variables and command-line overrides.
package config

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/junsooki/cellframe/internal/dimensions"
)

const (
	// EnvPrefix prefixes every environment override, e.g. CELLFRAME_FPS.
	EnvPrefix = "CELLFRAME"
	// FileName is the config file looked up when no path is given.
	FileName = "cellframe"
)

// Surface sources.
const (
	SourceLayers = "layers"
	SourceScreen = "screen"
)

// Transport kinds.
const (
	TransportWebSocket = "websocket"
	TransportWebRTC    = "webrtc"
)

// Config holds all runtime configuration.
type Config struct {
	HTTPServerMode bool       `mapstructure:"http-server-mode"`
	HTTPServer     HTTPServer `mapstructure:"http-server"`
	Surface        Surface    `mapstructure:"surface"`
	Region         Region     `mapstructure:"region"`
	Cell           Cell       `mapstructure:"cell"`
	Transport      Transport  `mapstructure:"transport"`
	Signaling      Signaling  `mapstructure:"signaling"`
	Viewer         Viewer     `mapstructure:"viewer"`
	FPS            int        `mapstructure:"fps"`
	SkipUnchanged  bool       `mapstructure:"skip-unchanged"`
	Log            Log        `mapstructure:"log"`
}

// HTTPServer holds the settings used when running behind the http server.
type HTTPServer struct {
	JPEGCompression float64 `mapstructure:"jpeg_compression"`
	// RenderDelay is in milliseconds.
	RenderDelay int `mapstructure:"render_delay"`
}

// Surface selects what is captured.
type Surface struct {
	Source     string `mapstructure:"source"`
	Background string `mapstructure:"background"`
	Text       string `mapstructure:"text"`
	Display    int    `mapstructure:"display"`
	Width      int    `mapstructure:"width"`
	Height     int    `mapstructure:"height"`
}

// Region is the captured sub-region. A zero width or height means the whole
// surface in that direction.
type Region struct {
	Top    int `mapstructure:"top"`
	Left   int `mapstructure:"left"`
	Width  int `mapstructure:"width"`
	Height int `mapstructure:"height"`
}

// Cell is the size of one terminal cell in surface pixels.
type Cell struct {
	Width  int `mapstructure:"width"`
	Height int `mapstructure:"height"`
}

type Transport struct {
	Kind    string `mapstructure:"kind"`
	URL     string `mapstructure:"url"`
	Channel string `mapstructure:"channel"`
}

type Signaling struct {
	URL string `mapstructure:"url"`
	ID  string `mapstructure:"id"`
}

type Viewer struct {
	Listen string `mapstructure:"listen"`
}

type Log struct {
	Level string `mapstructure:"level"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		HTTPServer: HTTPServer{JPEGCompression: 0.9, RenderDelay: 400},
		Surface:    Surface{Source: SourceLayers},
		Cell:       Cell{Width: 8, Height: 16},
		Transport: Transport{
			Kind:    TransportWebSocket,
			URL:     "ws://localhost:4444/frames",
			Channel: "1",
		},
		Signaling: Signaling{URL: "ws://localhost:8080"},
		Viewer:    Viewer{Listen: "localhost:4444"},
		FPS:       10,
		Log:       Log{Level: "info"},
	}
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("http-server-mode", d.HTTPServerMode)
	v.SetDefault("http-server.jpeg_compression", d.HTTPServer.JPEGCompression)
	v.SetDefault("http-server.render_delay", d.HTTPServer.RenderDelay)
	v.SetDefault("surface.source", d.Surface.Source)
	v.SetDefault("surface.background", d.Surface.Background)
	v.SetDefault("surface.text", d.Surface.Text)
	v.SetDefault("surface.display", d.Surface.Display)
	v.SetDefault("surface.width", d.Surface.Width)
	v.SetDefault("surface.height", d.Surface.Height)
	v.SetDefault("region.top", d.Region.Top)
	v.SetDefault("region.left", d.Region.Left)
	v.SetDefault("region.width", d.Region.Width)
	v.SetDefault("region.height", d.Region.Height)
	v.SetDefault("cell.width", d.Cell.Width)
	v.SetDefault("cell.height", d.Cell.Height)
	v.SetDefault("transport.kind", d.Transport.Kind)
	v.SetDefault("transport.url", d.Transport.URL)
	v.SetDefault("transport.channel", d.Transport.Channel)
	v.SetDefault("signaling.url", d.Signaling.URL)
	v.SetDefault("signaling.id", d.Signaling.ID)
	v.SetDefault("viewer.listen", d.Viewer.Listen)
	v.SetDefault("fps", d.FPS)
	v.SetDefault("skip-unchanged", d.SkipUnchanged)
	v.SetDefault("log.level", d.Log.Level)
}

// Load reads cfgFile (or cellframe.yaml in the working directory when empty),
// applies CELLFRAME_* environment variables and then overrides, which are
// keyed like the file ("region.top").
func Load(cfgFile string, overrides map[string]any) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, "read config")
		}
	}
	for key, val := range overrides {
		v.Set(key, val)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}
	if cfg.Signaling.ID == "" {
		cfg.Signaling.ID = "capturer-" + randomID()
	}
	return cfg, nil
}

// Validate checks the config and returns every problem found.
func (c *Config) Validate() []error {
	var errs []error

	if c.FPS < 1 || c.FPS > 60 {
		errs = append(errs, errors.Errorf("fps %d is outside 1-60", c.FPS))
	}
	if c.HTTPServer.JPEGCompression < 0 || c.HTTPServer.JPEGCompression > 1 {
		errs = append(errs, errors.Errorf("http-server.jpeg_compression %g is outside 0-1", c.HTTPServer.JPEGCompression))
	}
	if c.HTTPServer.RenderDelay < 0 {
		errs = append(errs, errors.Errorf("http-server.render_delay %d is negative", c.HTTPServer.RenderDelay))
	}
	errs = append(errs, c.validateCell()...)

	switch c.Surface.Source {
	case SourceLayers:
		if c.Surface.Background == "" {
			errs = append(errs, errors.New("surface.background is required for the layers source"))
		}
	case SourceScreen:
		if c.Surface.Display < 0 {
			errs = append(errs, errors.Errorf("surface.display %d is negative", c.Surface.Display))
		}
	default:
		errs = append(errs, errors.Errorf("surface.source %q is not valid (use layers or screen)", c.Surface.Source))
	}

	switch c.Transport.Kind {
	case TransportWebSocket:
		if c.Transport.URL == "" {
			errs = append(errs, errors.New("transport.url is required for the websocket transport"))
		}
	case TransportWebRTC:
		errs = append(errs, c.validateSignaling()...)
	default:
		errs = append(errs, c.invalidTransport())
	}

	return errs
}

// ValidateViewer checks the settings cellframe-viewer reads. Capture
// settings are ignored.
func (c *Config) ValidateViewer() []error {
	errs := c.validateCell()

	switch c.Transport.Kind {
	case TransportWebSocket:
		if c.Viewer.Listen == "" {
			errs = append(errs, errors.New("viewer.listen is required for the websocket transport"))
		}
	case TransportWebRTC:
		errs = append(errs, c.validateSignaling()...)
	default:
		errs = append(errs, c.invalidTransport())
	}

	return errs
}

func (c *Config) validateCell() []error {
	if c.Cell.Width < 1 || c.Cell.Height < 2 {
		return []error{errors.Errorf("cell %dx%d is too small", c.Cell.Width, c.Cell.Height)}
	}
	return nil
}

func (c *Config) validateSignaling() []error {
	if c.Signaling.URL == "" {
		return []error{errors.New("signaling.url is required for the webrtc transport")}
	}
	return nil
}

func (c *Config) invalidTransport() error {
	return errors.Errorf("transport.kind %q is not valid (use websocket or webrtc)", c.Transport.Kind)
}

// RenderDelay returns the settle delay as a duration.
func (c *Config) RenderDelay() time.Duration {
	return time.Duration(c.HTTPServer.RenderDelay) * time.Millisecond
}

// CellSize returns the terminal cell size.
func (c *Config) CellSize() dimensions.Size {
	return dimensions.Size{Width: c.Cell.Width, Height: c.Cell.Height}
}

// SubRegion resolves the configured region against a surface of size total.
func (c *Config) SubRegion(total dimensions.Size) dimensions.Rect {
	r := dimensions.Rect{
		Top:    c.Region.Top,
		Left:   c.Region.Left,
		Width:  c.Region.Width,
		Height: c.Region.Height,
	}
	if r.Width == 0 {
		r.Width = total.Width - r.Left
	}
	if r.Height == 0 {
		r.Height = total.Height - r.Top
	}
	return r
}

// NewPeerID returns a random id with the given prefix.
func NewPeerID(prefix string) string {
	return prefix + "-" + randomID()
}

func randomID() string {
	b := make([]byte, 4)
	rand.Read(b)
	return hex.EncodeToString(b)
}
