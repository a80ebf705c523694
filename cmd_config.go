//    Copyright 2026 Ewout Prangsma
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
	"fmt"
	"io"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/binkynet/RadioWorker/pkg/config"
)

const (
	maskedValue = "***"
)

var (
	configCmd = &cobra.Command{
		Use:   "config",
		Short: "Configuration management commands",
	}
	configValidateCmd = &cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration",
		RunE:  runConfigValidate,
	}
	configShowCmd = &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		RunE:  runConfigShow,
	}
	configProfilesCmd = &cobra.Command{
		Use:   "profiles",
		Short: "List the built-in device profiles",
		Run: func(cmd *cobra.Command, args []string) {
			for _, name := range config.Profiles() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
		},
	}
)

func init() {
	configCmd.AddCommand(configValidateCmd, configShowCmd, configProfilesCmd)
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return errors.Wrap(err, "configuration is invalid")
	}
	if err := cfg.ValidateCredentials(); err != nil {
		return errors.Wrap(err, "configuration is invalid")
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Configuration is valid (%s output)\n", cfg.Audio.Mode())
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	if _, err := loadConfig(); err != nil {
		return err
	}
	return writeSettings(cmd.OutOrStdout(), settings.AllSettings())
}

// writeSettings writes the given settings as YAML with secrets masked.
func writeSettings(w io.Writer, all map[string]interface{}) error {
	maskSetting(all, "wifi", "password")
	maskSetting(all, "mqtt", "password")
	data, err := yaml.Marshal(all)
	if err != nil {
		return maskAny(err)
	}
	_, err = w.Write(data)
	return maskAny(err)
}

func maskSetting(all map[string]interface{}, section, key string) {
	if m, ok := all[section].(map[string]interface{}); ok {
		if v, ok := m[key].(string); ok && v != "" {
			m[key] = maskedValue
		}
	}
}
