package config

import (
	"flag"
)

const (
	defaultDBDNS        = ""
	defaultDocumentsDir = "./data/documents"
	defaultImportChunk  = 100
	defaultImportTTL    = 24 * 60 * 60
	defaultJWTSecret    = "orderflow-dev-secret"
	defaultKafkaTopic   = "order-events"
	defaultLogLevel     = "info"
	defaultRunAddress   = ":8080"
)

type Flags struct {
	address string

	dbDNS        string
	redisAddress string
	kafkaBrokers string
	documentsDir string
	logLevel     string
}

func (flags *Flags) Init() {
	flags.InitWith(flag.CommandLine)
	flag.Parse()
}

func (flags *Flags) InitWith(fs *flag.FlagSet) {
	fs.StringVar(&flags.address, "a", defaultRunAddress, "Address and port to run server")

	fs.StringVar(&flags.dbDNS, "d", defaultDBDNS, "db dns")
	fs.StringVar(&flags.redisAddress, "r", "", "redis address for import sessions")
	fs.StringVar(&flags.kafkaBrokers, "k", "", "kafka brokers for order change notifications")
	fs.StringVar(&flags.documentsDir, "s", defaultDocumentsDir, "directory for rendered invoice documents")
	fs.StringVar(&flags.logLevel, "l", defaultLogLevel, "log level")
}
