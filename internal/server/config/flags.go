package config

import (
	"flag"
	"os"

	"github.com/gridfts/submitd/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8446")
//	-d string   PostgreSQL DSN
//	-s string   bearer-token HMAC secret key
//
// Everything else is JSON-file only; the flag surface stays small on
// purpose. Arguments are filtered with flagx.FilterArgs first so flags of
// other components do not collide.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-s"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddr, "a", config.EndpointAddr, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
