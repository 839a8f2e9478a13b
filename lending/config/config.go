package config

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/lendhub/lending-service/pkg/kafka"
	"github.com/lendhub/lending-service/pkg/logger"
	"github.com/lendhub/lending-service/pkg/postgres"

	"github.com/kelseyhightower/envconfig"
)

type HTTPServer struct {
	Host         string        `yaml:"host" envconfig:"LENDING_HTTP_HOST" default:"0.0.0.0"`
	Port         string        `yaml:"port" envconfig:"LENDING_HTTP_PORT" default:"8080"`
	ReadTimeout  time.Duration `yaml:"readTimeout" envconfig:"HTTP_READ" default:"30s"`
	WriteTimeout time.Duration
}

// Lending carries the business policy knobs. FinePerDay is parsed to
// a decimal once at startup.
type Lending struct {
	FinePerDay string `yaml:"finePerDay" envconfig:"LENDING_FINE_PER_DAY" default:"0.50"`
}

type Config struct {
	Server   HTTPServer `yaml:"server"`
	Database postgres.Config
	Kafka    kafka.Config
	Lending  Lending    `yaml:"lending"`
	Log      logger.Log `yaml:"log"`
}

var (
	once sync.Once
	cfg  Config
)

// NewConfig reads config from environment.
func NewConfig(ops ...Option) *Config {
	once.Do(func() {
		var config Config
		for _, op := range ops {
			op(&config)
		}
		err := envconfig.Process("", &config)
		if err != nil {
			log.Fatal("NewConfig ", err)
		}
		cfg = config
		printConfig(cfg)
	})

	return &cfg
}

func printConfig(cfg Config) {
	jscfg, _ := json.MarshalIndent(cfg, "", "	") //nolint:errcheck
	fmt.Println(string(jscfg))
}
