package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"
)

// configFileName is the name of the TOML configuration file.
const configFileName = "config.toml"

// FileConfig holds persistent defaults read from the configuration file.
// Every field is optional; flags and environment variables win over the file.
type FileConfig struct {
	TableBits uint32   `toml:"table_bits"`
	Tolerance float64  `toml:"tolerance"`
	Formats   []string `toml:"formats"`

	Redis RedisFileConfig `toml:"redis"`
	Mongo MongoFileConfig `toml:"mongo"`
	Serve ServeFileConfig `toml:"serve"`
}

// RedisFileConfig configures the shared Redis result cache.
type RedisFileConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

// MongoFileConfig configures run persistence for the API server.
type MongoFileConfig struct {
	URI      string `toml:"uri"`
	Database string `toml:"database"`
}

// ServeFileConfig configures the API server.
type ServeFileConfig struct {
	Addr string `toml:"addr"`
}

// defaultFileConfig is what an absent or empty config file means.
func defaultFileConfig() FileConfig {
	return FileConfig{
		Serve: ServeFileConfig{Addr: ":8080"},
	}
}

// configPath returns the location of the configuration file.
func configPath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFileName), nil
}

// loadFileConfig reads the configuration file, returning defaults when the
// file does not exist or cannot be read. Commands treat the file as a source
// of flag defaults, so a broken file must not make the CLI unusable.
func loadFileConfig() FileConfig {
	cfg := defaultFileConfig()
	path, err := configPath()
	if err != nil {
		return cfg
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return defaultFileConfig()
	}
	return cfg
}

// configTemplate is written by "config init".
const configTemplate = `# edgemark configuration

# Default log2 of the coverage bitmap size (0 = built-in default).
# table_bits = 16

# Fraction of multi-predecessor blocks a search pass may leave unsolved.
# tolerance = 0.0

# Default output formats for the assign command.
# formats = ["json"]

# [redis]
# addr = "localhost:6379"
# password = ""
# db = 0

# [mongo]
# uri = "mongodb://localhost:27017"
# database = "edgemark"

[serve]
addr = ":8080"
`

// configCommand creates the config management command.
func (c *CLI) configCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the edgemark configuration file",
	}

	cmd.AddCommand(c.configInitCommand())
	cmd.AddCommand(c.configShowCommand())
	cmd.AddCommand(c.configPathCommand())

	return cmd
}

// configInitCommand creates the "config init" subcommand.
func (c *CLI) configInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a commented configuration file template",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := configPath()
			if err != nil {
				return err
			}
			if _, err := os.Stat(path); err == nil && !force {
				printWarning("Config already exists: %s", path)
				printDetail("use --force to overwrite")
				return nil
			}
			if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
				return err
			}
			if err := os.WriteFile(path, []byte(configTemplate), 0644); err != nil {
				return err
			}
			printSuccess("Wrote %s", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config file")
	return cmd
}

// configShowCommand creates the "config show" subcommand.
func (c *CLI) configShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadFileConfig()
			printKeyValue("table_bits", fmt.Sprintf("%d", cfg.TableBits))
			printKeyValue("tolerance", fmt.Sprintf("%g", cfg.Tolerance))
			printKeyValue("formats", fmt.Sprintf("%v", cfg.Formats))
			printKeyValue("redis.addr", cfg.Redis.Addr)
			printKeyValue("mongo.uri", cfg.Mongo.URI)
			printKeyValue("serve.addr", cfg.Serve.Addr)
			return nil
		},
	}
}

// configPathCommand creates the "config path" subcommand.
func (c *CLI) configPathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the configuration file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := configPath()
			if err != nil {
				return err
			}
			fmt.Println(path)
			return nil
		},
	}
}
