package config

import (
	"flag"
	"io"
	"time"

	"github.com/dmitrijs2005/eatsauth/internal/flagx"
)

// knownFlags lists every flag handled by parseFlags.
var knownFlags = []string{
	"-a", "-m", "-d", "-s", "-t", "-k", "-l", "-log-backend", "-mail",
	"-u", "-p", "-b", "-g", "-e", "-otlp",
}

// parseFlags populates Config fields from command-line flags.
//
// Supported flags:
//
//	-a string         gRPC bind address (e.g., ":50051")
//	-m string         metrics bind address, empty disables
//	-d string         PostgreSQL DSN
//	-s string         JWT HMAC secret key
//	-t int            token validity, minutes (0 = no expiry)
//	-k int            bcrypt cost
//	-l string         log level
//	-log-backend str  slog or zap
//	-mail string      mail sender: log or s3
//	-u string         S3 root user
//	-p string         S3 root password
//	-b string         S3 bucket name
//	-g string         S3 region
//	-e string         S3 base endpoint (e.g., "http://127.0.0.1:9000/")
//	-otlp string      OTLP/HTTP collector URL
//
// Args are filtered with flagx.FilterArgs first so flags owned by other
// components (-c/-config) do not cause parse errors.
func parseFlags(config *Config, args []string) error {
	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.EndpointAddrGRPC, "a", config.EndpointAddrGRPC, "address and port to run server")
	fs.StringVar(&config.MetricsAddr, "m", config.MetricsAddr, "address and port to expose metrics")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	tokenValidity := fs.Int("t", int(config.TokenValidityDuration.Minutes()), "token validity duration (in minutes, 0 = no expiry)")

	fs.IntVar(&config.BcryptCost, "k", config.BcryptCost, "bcrypt cost")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")
	fs.StringVar(&config.LogBackend, "log-backend", config.LogBackend, "log backend (slog, zap)")
	fs.StringVar(&config.MailSender, "mail", config.MailSender, "mail sender (log, s3)")

	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 outbox bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&config.OTLPEndpoint, "otlp", config.OTLPEndpoint, "OTLP/HTTP collector URL")

	if err := fs.Parse(flagx.FilterArgs(args, knownFlags)); err != nil {
		return err
	}

	// Only touch the duration when -t was given, so sub-minute values coming
	// from JSON or env survive.
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "t" {
			config.TokenValidityDuration = time.Duration(*tokenValidity) * time.Minute
		}
	})
	return nil
}
