// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"dockermirror/internal/types"
	"dockermirror/pkg/utils"
)

const (
	// Defaults
	DefaultLogLevel   = "info"
	DefaultImagesFile = "images.txt"
	DefaultEnvFile    = ".env"
	DefaultRuntime    = "cli"
	DefaultRuntimeBin = "docker"
	DefaultRetention  = 30

	// Environment variables
	EnvPrefix     = "DOCKER_MIRROR_"
	EnvLogLevel   = EnvPrefix + "LOG_LEVEL"
	EnvImagesFile = EnvPrefix + "FILE"
	EnvRuntime    = EnvPrefix + "RUNTIME"
	EnvRuntimeBin = EnvPrefix + "RUNTIME_BIN"
	EnvDbPath     = EnvPrefix + "DB"
	EnvAppriseURL = EnvPrefix + "APPRISE_URL"
	EnvRetention  = EnvPrefix + "RETENTION"

	// Registry settings (.env ou environnement)
	EnvRegistry  = "ALIYUN_REGISTRY"
	EnvNamespace = "ALIYUN_NAME_SPACE"
	EnvUsername  = "ALIYUN_REGISTRY_USER"
	EnvPassword  = "ALIYUN_REGISTRY_PASSWORD"
)

// Config représente la configuration de l'outil (flags et environnement)
type Config struct {
	// Paramètres généraux
	LogLevel   string
	ImagesFile string // Liste des images à mirrorer
	EnvFile    string // Fichier .env des paramètres du registry

	// Runtime de conteneurs
	Runtime    string // cli | engine
	RuntimeBin string // Binaire utilisé en mode cli (docker, podman, nerdctl)

	// Historique et notifications
	DbPath     string // Vide: historique désactivé
	AppriseURL string
	Retention  int // Nombre d'exécutions conservées dans l'historique

	// Logger configuré
	Logger *logrus.Logger
}

// NewConfig crée une nouvelle configuration avec les valeurs par défaut
func NewConfig() *Config {
	return &Config{
		LogLevel:   DefaultLogLevel,
		ImagesFile: DefaultImagesFile,
		EnvFile:    DefaultEnvFile,
		Runtime:    DefaultRuntime,
		RuntimeBin: DefaultRuntimeBin,
		Retention:  DefaultRetention,
		Logger:     newLogger(DefaultLogLevel),
	}
}

// LoadFromEnv charge la configuration depuis les variables d'environnement.
// Les flags explicitement positionnés restent prioritaires.
func (c *Config) LoadFromEnv(flags *pflag.FlagSet) error {
	bindings := []struct {
		env    string
		flag   string
		target *string
	}{
		{EnvLogLevel, "log-level", &c.LogLevel},
		{EnvImagesFile, "file", &c.ImagesFile},
		{EnvRuntime, "runtime", &c.Runtime},
		{EnvRuntimeBin, "runtime-bin", &c.RuntimeBin},
		{EnvDbPath, "db", &c.DbPath},
		{EnvAppriseURL, "apprise-url", &c.AppriseURL},
	}

	for _, b := range bindings {
		if flags != nil && flags.Changed(b.flag) {
			continue
		}
		if value := os.Getenv(b.env); value != "" {
			*b.target = value
		}
	}

	if ret := os.Getenv(EnvRetention); ret != "" && (flags == nil || !flags.Changed("retention")) {
		retention, err := strconv.Atoi(ret)
		if err != nil {
			return fmt.Errorf("invalid retention value: %w", err)
		}
		c.Retention = retention
	}

	if err := c.SetLogLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	return nil
}

// Validate vérifie la validité de la configuration
func (c *Config) Validate() error {
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log level '%s': %w", c.LogLevel, err)
	}

	if c.ImagesFile == "" {
		return fmt.Errorf("image list file cannot be empty")
	}

	switch c.Runtime {
	case "cli":
		if c.RuntimeBin == "" {
			return fmt.Errorf("runtime binary cannot be empty")
		}
	case "engine":
	default:
		return fmt.Errorf("invalid runtime '%s': must be 'cli' or 'engine'", c.Runtime)
	}

	if c.Retention < 1 {
		return fmt.Errorf("retention must be at least 1")
	}

	return nil
}

// SetLogLevel configure le niveau de log
func (c *Config) SetLogLevel(level string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	c.LogLevel = level
	c.Logger.SetLevel(lvl)
	return nil
}

// newLogger crée un nouveau logger configuré
func newLogger(level string) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)

	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	if lvl, err := logrus.ParseLevel(level); err == nil {
		logger.SetLevel(lvl)
	} else {
		logger.SetLevel(logrus.InfoLevel)
	}

	return logger
}

// Target est le registry et le namespace de destination
type Target struct {
	Registry  string
	Namespace string
}

func (t Target) String() string {
	return t.Registry + "/" + t.Namespace
}

// Credentials sont transmis tels quels au login du runtime
type Credentials struct {
	Username string
	Password string
}

func (c Credentials) String() string {
	return fmt.Sprintf("%s:%s", c.Username, utils.MaskSecret(c.Password))
}

// Settings regroupe les paramètres du registry de destination.
// Construit une seule fois au démarrage puis passé par valeur.
type Settings struct {
	Target      Target
	Credentials Credentials
}

// LoadSettings lit les paramètres depuis le fichier .env (s'il existe) puis
// l'environnement, qui reste prioritaire. Tous les paramètres manquants sont
// listés dans une seule erreur de configuration.
func LoadSettings(envFile string, requireCredentials bool, logger *logrus.Logger) (Settings, error) {
	v := viper.New()

	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			logger.Infof("Loading settings from %s", envFile)
			v.SetConfigFile(envFile)
			v.SetConfigType("env")
			if err := v.ReadInConfig(); err != nil {
				return Settings{}, types.NewConfigurationError(
					fmt.Sprintf("failed to read settings file %s", envFile), nil, err)
			}
		} else if !errors.Is(err, fs.ErrNotExist) {
			return Settings{}, types.NewConfigurationError(
				fmt.Sprintf("cannot access settings file %s", envFile), nil, err)
		}
	}
	v.AutomaticEnv()

	var missing []string
	get := func(key string, required bool) string {
		value := v.GetString(key)
		if value == "" && required {
			missing = append(missing, key)
		}
		return value
	}

	settings := Settings{
		Target: Target{
			Registry:  get(EnvRegistry, true),
			Namespace: get(EnvNamespace, true),
		},
		Credentials: Credentials{
			Username: get(EnvUsername, requireCredentials),
			Password: get(EnvPassword, requireCredentials),
		},
	}

	if len(missing) > 0 {
		return Settings{}, types.NewConfigurationError(
			"missing required settings (set them in the settings file or the environment)",
			missing, nil)
	}

	logger.Debugf("Destination: %s, credentials: %s", settings.Target, settings.Credentials)
	return settings, nil
}
