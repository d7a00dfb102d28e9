// Package config loads the organization manager configuration tree.
package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	AWS           AWSConfig           `mapstructure:"aws"`
	Organizations OrganizationsConfig `mapstructure:"organizations"`
	Provisioning  ProvisioningConfig  `mapstructure:"provisioning"`
	Manifest      ManifestConfig      `mapstructure:"manifest"`
	Logging       LoggingConfig       `mapstructure:"logging"`
}

type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type AWSConfig struct {
	Region string      `mapstructure:"region"`
	Table  TableConfig `mapstructure:"table"`
}

type TableConfig struct {
	Name             string `mapstructure:"name"`
	ByParentIndex    string `mapstructure:"by_parent_index"`
	ByAccountIDIndex string `mapstructure:"by_account_id_index"`
	ByKindIndex      string `mapstructure:"by_kind_index"`
}

type OrganizationsConfig struct {
	// CreateOuEnabled delegates organizational unit creation and deletion
	// to the organizations service. When false, units are assumed to exist
	// externally and only their metadata is registered locally.
	CreateOuEnabled bool `mapstructure:"create_ou_enabled"`

	// SuspendedOuID is the parent that deleted accounts are moved under.
	// Empty disables the move.
	SuspendedOuID string `mapstructure:"suspended_ou_id"`
}

type ProvisioningConfig struct {
	// Enabled selects account creation through the provisioning product.
	// When false, accounts must arrive with an externally assigned id.
	Enabled bool `mapstructure:"enabled"`

	ProductOwner string `mapstructure:"product_owner"`
	ProductName  string `mapstructure:"product_name"`
}

type ManifestConfig struct {
	Bucket   string `mapstructure:"bucket"`
	Prefix   string `mapstructure:"prefix"`
	Filename string `mapstructure:"filename"`

	// Region is the publishing region written into the manifest document.
	Region string `mapstructure:"region"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func Load(path string) (*Config, error) {
	viper.SetConfigFile(path)
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}
