package prefs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jvegaf/FlatCAM/internal/consts"
	"github.com/jvegaf/FlatCAM/internal/i18n"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/ubuntu/decorate"
)

func initViperConfig(name string, cmd *cobra.Command, vip *viper.Viper) (err error) {
	defer decorate.OnError(&err, "can't load configuration")

	// Use command-line flag for verbosity until configuration is parsed
	v, err := cmd.Flags().GetCount("verbosity")
	if err != nil {
		return fmt.Errorf("internal error: no persistent verbosity flags installed on cmd: %w", err)
	}
	setVerboseMode(v)

	// Find a valid configuration file
	if v, err := cmd.Flags().GetString("config"); err == nil && v != "" {
		vip.SetConfigFile(v)
	} else {
		vip.SetConfigName(name)
		vip.AddConfigPath("./")
		if confDir, err := os.UserConfigDir(); err != nil {
			log.Warningf("Failed to get the user configuration directory, not adding it as a config dir: %v", err)
		} else {
			vip.AddConfigPath(confDir)
		}
		if binPath, err := os.Executable(); err != nil {
			log.Warningf("Failed to get the current executable path, not adding it as a config dir: %v", err)
		} else {
			vip.AddConfigPath(filepath.Dir(binPath))
		}
	}

	// Load the config
	if err := vip.ReadInConfig(); err != nil {
		var e viper.ConfigFileNotFoundError
		if errors.As(err, &e) {
			log.Infof("No configuration file: %v", e)
		} else {
			return fmt.Errorf("invalid configuration file: %v", err)
		}
	} else {
		log.Infof("Using configuration file: %v", vip.ConfigFileUsed())
	}

	// Parse environment variables
	vip.SetEnvPrefix("FLATCAM")
	vip.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	vip.AutomaticEnv()

	return nil
}

// installVerbosityFlag adds the -v and -vv options and returns the reference to it.
func installVerbosityFlag(cmd *cobra.Command, viper *viper.Viper) *int {
	r := cmd.PersistentFlags().CountP("verbosity", "v", i18n.G("issue INFO (-v), DEBUG (-vv) or DEBUG with caller (-vvv) output"))
	if err := viper.BindPFlag("verbosity", cmd.PersistentFlags().Lookup("verbosity")); err != nil {
		log.Warning(err)
	}
	return r
}

// installConfigFlag adds the --config flag to allow for custom config paths.
func installConfigFlag(cmd *cobra.Command) *string {
	return cmd.PersistentFlags().StringP("config", "c", "", i18n.G("configuration file path"))
}

// installStoreFlags adds the options selecting where settings and translation
// catalogs are looked up.
func (a *App) installStoreFlags() {
	a.rootCmd.PersistentFlags().String("store-file", "", i18n.G("path of an INI settings file overriding the platform store"))
	if err := a.viper.BindPFlag("store-file", a.rootCmd.PersistentFlags().Lookup("store-file")); err != nil {
		log.Warning(err)
	}

	a.rootCmd.PersistentFlags().String("locale-dir", "", i18n.G("directory the translation catalogs are looked up in"))
	if err := a.viper.BindPFlag("locale-dir", a.rootCmd.PersistentFlags().Lookup("locale-dir")); err != nil {
		log.Warning(err)
	}
}

// setVerboseMode changes the log output between very, middly and non verbose.
func setVerboseMode(level int) {
	var reportCaller bool
	switch level {
	case 0:
		log.SetLevel(consts.DefaultLogLevel)
	case 1:
		log.SetLevel(log.InfoLevel)
	case 3:
		reportCaller = true
		fallthrough
	default:
		log.SetLevel(log.DebugLevel)
	}
	log.SetReportCaller(reportCaller)
}
