package cmd

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/lonesomestranger/3x-ui-manager/api"
	"github.com/lonesomestranger/3x-ui-manager/api/xui"
	"github.com/lonesomestranger/3x-ui-manager/config"
	"github.com/lonesomestranger/3x-ui-manager/logger"
	"github.com/lonesomestranger/3x-ui-manager/service"
	"github.com/lonesomestranger/3x-ui-manager/service/profile"
	"github.com/lonesomestranger/3x-ui-manager/service/tgbot"
)

var (
	cfgFile string

	rootCmd = &cobra.Command{
		Use: "xui-manager",
		Run: func(_ *cobra.Command, _ []string) {
			if err := run(); err != nil {
				log.Fatal(err)
			}
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Config file for xui-manager.")
}

func getConfig() (*viper.Viper, error) {
	configReader := viper.New()

	if cfgFile != "" {
		configReader.SetConfigFile(cfgFile)
	} else {
		configReader.SetConfigName("config")
		configReader.SetConfigType("yml")
		configReader.AddConfigPath(".")
	}

	if err := configReader.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config file error: %w", err)
	}

	configReader.WatchConfig()
	return configReader, nil
}

func loadConfig(configReader *viper.Viper) (*config.Config, error) {
	appConfig := &config.Config{}
	if err := configReader.Unmarshal(appConfig); err != nil {
		return nil, fmt.Errorf("parse config file %v failed: %w", cfgFile, err)
	}
	if err := appConfig.ApplyDefaults(); err != nil {
		return nil, fmt.Errorf("apply config defaults failed: %w", err)
	}
	if err := appConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return appConfig, nil
}

// buildServices wires the panel session factory, the orchestrator and the
// bot surface for one config generation.
func buildServices(appConfig *config.Config) []service.Service {
	logger.InitLogger(logger.ParseLevel(appConfig.Log.Level))

	newPanel := func() api.Panel {
		return xui.New(&appConfig.Panel)
	}
	profiles := profile.New(&appConfig.Profile, newPanel)

	return []service.Service{
		tgbot.New(&appConfig.Bot, profiles),
	}
}

func startServices(services []service.Service) error {
	for _, s := range services {
		if err := s.Start(); err != nil {
			return err
		}
	}
	return nil
}

func closeServices(services []service.Service) {
	for _, s := range services {
		if err := s.Close(); err != nil {
			logger.Error("service shutdown failed:", err)
		}
	}
}

func run() error {
	showVersion()

	configReader, err := getConfig()
	if err != nil {
		return err
	}

	appConfig, err := loadConfig(configReader)
	if err != nil {
		return err
	}

	services := buildServices(appConfig)
	if err := startServices(services); err != nil {
		return err
	}

	lastTime := time.Now()
	configReader.OnConfigChange(func(e fsnotify.Event) {
		// Some editors fire several write events per save.
		if time.Now().After(lastTime.Add(3 * time.Second)) {
			lastTime = time.Now()
			logger.Info("config file changed:", e.Name)

			newConfig, err := loadConfig(configReader)
			if err != nil {
				logger.Error("config reload rejected:", err)
				return
			}

			closeServices(services)
			services = buildServices(newConfig)
			if err := startServices(services); err != nil {
				logger.Error("service restart failed:", err)
			}
		}
	})

	defer func() {
		closeServices(services)
	}()

	osSignals := make(chan os.Signal, 1)
	signal.Notify(osSignals, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	<-osSignals
	return nil
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
