//    Copyright 2017 Ewout Prangsma
//
//    Licensed under the Apache License, Version 2.0 (the "License");
//    you may not use this file except in compliance with the License.
//    You may obtain a copy of the License at
//
//        http://www.apache.org/licenses/LICENSE-2.0
//
//    Unless required by applicable law or agreed to in writing, software
//    distributed under the License is distributed on an "AS IS" BASIS,
//    WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
//    See the License for the specific language governing permissions and
//    limitations under the License.

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	terminate "github.com/pulcy/go-terminate"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/binkynet/RadioWorker/pkg/config"
	"github.com/binkynet/RadioWorker/pkg/environment"
	"github.com/binkynet/RadioWorker/pkg/logging"
	"github.com/binkynet/RadioWorker/pkg/server"
	"github.com/binkynet/RadioWorker/pkg/service"
	"github.com/binkynet/RadioWorker/pkg/service/bridge"
	"github.com/binkynet/RadioWorker/pkg/service/netlink"
	"github.com/binkynet/RadioWorker/pkg/service/output"
	"github.com/binkynet/RadioWorker/pkg/ui"
)

const (
	projectName = "RadioWorker"
)

var (
	projectVersion = "dev"
	projectBuild   = "dev"
	maskAny        = errors.WithStack
)

var (
	rootCmd = &cobra.Command{
		Use:          "radioworker",
		Short:        "Plays an HTTP audio stream on a WiFi connected board",
		SilenceUsage: true,
		RunE:         runRadio,
	}
	runCmd = &cobra.Command{
		Use:   "run",
		Short: "Connect to WiFi and play the configured stream",
		RunE:  runRadio,
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s version %s build %s\n", projectName, projectVersion, projectBuild)
		},
	}
	rootArgs struct {
		configFile string
		profile    string
		hostID     string
		nullAudio  bool
	}
	settings = viper.New()
)

// flagBindings maps flag names to configuration keys.
var flagBindings = map[string]string{
	"level":       "logging.level",
	"log-format":  "logging.format",
	"bridge":      "bridge",
	"link":        "wifi.link",
	"ssid":        "wifi.ssid",
	"interface":   "wifi.interface",
	"stream-url":  "stream.url",
	"volume":      "audio.volume",
	"host":        "server.host",
	"http-port":   "server.http_port",
	"grpc-port":   "server.grpc_port",
	"ssh-port":    "server.ssh_port",
	"mqtt-broker": "mqtt.broker",
}

func init() {
	f := rootCmd.PersistentFlags()
	f.StringVarP(&rootArgs.configFile, "config", "c", "", "Path of a configuration file")
	f.StringVarP(&rootArgs.profile, "profile", "p", "", "Name of a built-in device profile or path of a profile file")
	f.StringVar(&rootArgs.hostID, "host-id", "", "Host ID (derived from the machine ID if empty)")
	f.BoolVar(&rootArgs.nullAudio, "null-audio", false, "Discard audio instead of opening the audio device")
	f.StringP("level", "l", "", "Set log level")
	f.String("log-format", "", "Log format (console|json)")
	f.StringP("bridge", "b", "", "Type of bridge to use (rpi|virtual|auto)")
	f.String("link", "", "WiFi link implementation (nmcli|virtual)")
	f.String("ssid", "", "WiFi SSID")
	f.String("interface", "", "WiFi interface")
	f.String("stream-url", "", "URL of the audio stream")
	f.Int("volume", 0, "Initial volume in percent")
	f.String("host", "", "Host address the servers will listen on")
	f.Int("http-port", 0, "Port the HTTP server will listen on")
	f.Int("grpc-port", 0, "Port the GRPC server will listen on")
	f.Int("ssh-port", 0, "Port the SSH server will listen on")
	f.String("mqtt-broker", "", "MQTT broker URL (e.g. tcp://host:1883)")
	if err := bindFlags(settings, f, flagBindings); err != nil {
		panic(err)
	}

	rootCmd.AddCommand(runCmd, versionCmd, configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// bindFlags binds the given flags to their configuration keys.
func bindFlags(v *viper.Viper, fs *pflag.FlagSet, bindings map[string]string) error {
	for name, key := range bindings {
		flag := fs.Lookup(name)
		if flag == nil {
			return errors.Errorf("unknown flag '%s'", name)
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return errors.Wrapf(err, "failed to bind flag '%s'", name)
		}
	}
	return nil
}

// loadConfig loads the configuration from all sources.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(settings, config.LoadOptions{
		Profile:    rootArgs.profile,
		ConfigFile: rootArgs.configFile,
	})
	if err != nil {
		return config.Config{}, maskAny(err)
	}
	return cfg, nil
}

func runRadio(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return errors.Wrap(err, "invalid configuration")
	}
	if err := cfg.ValidateCredentials(); err != nil {
		return errors.Wrap(err, "invalid configuration")
	}

	// Prepare to shutdown in a controlled manor
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mqttWriter logging.MQTTWriter
	if cfg.MQTT.Broker != "" && cfg.MQTT.Logs {
		mqttWriter = logging.NewMQTTWriter(ctx)
	}
	logger, err := newLogger(cfg.Logging, mqttWriter)
	if err != nil {
		return err
	}

	br, err := newBridge(cfg.Bridge, logger)
	if err != nil {
		return err
	}
	var sink output.Sink
	if rootArgs.nullAudio {
		sink = output.NewNullSink()
	} else {
		sink = output.NewSpeakerSink()
	}

	svc, err := service.NewService(service.Config{
		ProgramVersion: projectVersion,
		HostID:         rootArgs.hostID,
		Radio:          cfg,
	}, service.Dependencies{
		Logger:    logger,
		Bridge:    br,
		Link:      newLink(cfg.WiFi.Link, logger),
		Sink:      sink,
		LogWriter: mqttWriter,
	})
	if err != nil {
		br.Close()
		return errors.Wrap(err, "Failed to initialize Service")
	}

	srv, err := server.New(server.Config{
		Host:     cfg.Server.Host,
		HTTPPort: cfg.Server.HTTPPort,
		GRPCPort: cfg.Server.GRPCPort,
		SSHPort:  cfg.Server.SSHPort,
	}, logger, ui.New(svc), svc)
	if err != nil {
		br.Close()
		return errors.Wrap(err, "Failed to initialize Server")
	}

	t := terminate.NewTerminator(func(template string, args ...interface{}) {
		logger.Info().Msgf(template, args...)
	}, cancel)
	go t.ListenSignals()

	logger.Info().Msgf("Starting %s (version %s build %s)", projectName, projectVersion, projectBuild)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return svc.Run(ctx) })
	g.Go(func() error { return srv.Run(ctx) })
	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("Radio failed")
		return err
	}
	return nil
}

// newLogger creates the root logger.
func newLogger(cfg config.LoggingConfig, mqttWriter logging.MQTTWriter) (zerolog.Logger, error) {
	level := zerolog.InfoLevel
	if cfg.Level != "" {
		var err error
		level, err = zerolog.ParseLevel(strings.ToLower(cfg.Level))
		if err != nil {
			return zerolog.Logger{}, errors.Wrapf(err, "invalid log level '%s'", cfg.Level)
		}
	}
	var out io.Writer = os.Stderr
	if !strings.EqualFold(cfg.Format, "json") {
		out = zerolog.ConsoleWriter{Out: os.Stderr}
	}
	if mqttWriter != nil {
		out = logging.NewMultiWriter(out, mqttWriter)
	}
	return zerolog.New(out).Level(level).With().Timestamp().Logger(), nil
}

// newBridge creates the bridge for the given (or detected) bridge type.
func newBridge(bridgeType string, logger zerolog.Logger) (bridge.API, error) {
	resolved := environment.ResolveBridgeType(bridgeType, func() string {
		return environment.AutoDetectBridgeType(logger)
	})
	switch resolved {
	case config.BridgeRaspberryPi:
		br, err := bridge.NewRaspberryPiBridge()
		if err == nil {
			return br, nil
		}
		if bridgeType != config.BridgeAuto {
			return nil, errors.Wrap(err, "Failed to initialize Raspberry Pi Bridge")
		}
		logger.Warn().Err(err).Msg("Failed to initialize Raspberry Pi Bridge, using virtual bridge")
		return bridge.NewVirtualBridge(), nil
	case config.BridgeVirtual:
		return bridge.NewVirtualBridge(), nil
	default:
		return nil, errors.Errorf("Unknown bridge type '%s' (rpi|virtual|auto)", bridgeType)
	}
}

// newLink creates the WiFi link implementation.
func newLink(linkType string, logger zerolog.Logger) netlink.Link {
	if linkType == config.LinkVirtual {
		return netlink.NewVirtualLink()
	}
	return netlink.NewNMCLILink(logger)
}
