/*
Sqserver starts a sequitur grammar server and begins listening for new
connections.

Usage:

	sqserver [flags]
	sqserver [flags] -l [[ADDRESS]:PORT]

Once started, the sequitur server will listen for HTTP requests and respond
to them using REST protocol. By default, it will listen on localhost:8080.
This can be changed with the --listen/-l flag (or config via environment
var). The flag argument must be either a full address with port, such as
"192.168.0.2:6001", or just the IP address preceeded by a colon, such as
":6001".

If a JWT token secret is not given, one will be automatically generated and
seeded with random bytes. As a consequence, in this mode of operation all
tokens are rendered invalid as soon as the server shuts down. This is
suitable for testing, but must be given via either CLI flags or environment
variable if running in production.

The flags are:

	-v, --version
		Give the current version of the sequitur server and then exit.

	-l, --listen LISTEN_ADDRESS
		Listen on the given address. Must be in BIND_ADDRESS:PORT or :PORT
		format. If not given, will default to the value of environment
		variable SEQUITUR_LISTEN_ADDRESS, and if that is not given, will
		default to localhost:8080.

	-s, --secret TOKEN_SECRET
		Use the provided secret for signing JWT tokens. If there are less
		than 32 bytes in the secret, it will be repeated until it is. The
		maximum size is 64 bytes. If not given, will default to the value of
		environment variable SEQUITUR_TOKEN_SECRET. If no secret is
		specified or an empty secret is given, a random secret will be
		automatically generated. Note that any tokens issued with a random
		secret will become invalid as soon as the server shuts down.

	--db DRIVER[:PARAMS]
		Use the given DB connection string. DRIVER must be one of the
		following: inmem, sqlite. inmem has no further params. sqlite needs
		the path to the data directory, such as sqlite:path/to/db_dir. If
		not given, will default to the value of environment variable
		SEQUITUR_DATABASE. If no DB driver is specified or an empty one is
		given, an in-memory database is automatically selected. Note that
		regardless of driver, grammar sessions themselves are never
		persisted; the DB holds only the operator audit trail.

	--operator-user USERNAME
		Set the username of the single operator account. If not given,
		will default to the value of environment variable
		SEQUITUR_OPERATOR_USER, and if that is not given, defaults to
		"operator".

	--operator-pass PASSWORD
		Set the password of the single operator account. If not given,
		will default to the value of environment variable
		SEQUITUR_OPERATOR_PASS. If neither is given, a random password is
		generated and printed once at startup.

	--max-rules N
		Cap the number of live rules any one grammar session may hold. If
		not given, will default to the value of environment variable
		SEQUITUR_MAX_RULES, and if that is not given, defaults to 100000.

	-c, --config FILE
		Load a TOML configuration file before applying any other flags or
		environment variables, which take precedence over values it sets.
*/
package main

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/dekarrin/sequitur/internal/grammar"
	"github.com/dekarrin/sequitur/internal/version"
	"github.com/dekarrin/sequitur/server"
	"github.com/spf13/pflag"
	"golang.org/x/crypto/bcrypt"
)

const (
	EnvListen       = "SEQUITUR_LISTEN_ADDRESS"
	EnvSecret       = "SEQUITUR_TOKEN_SECRET"
	EnvDB           = "SEQUITUR_DATABASE"
	EnvOperatorUser = "SEQUITUR_OPERATOR_USER"
	EnvOperatorPass = "SEQUITUR_OPERATOR_PASS"
	EnvMaxRules     = "SEQUITUR_MAX_RULES"
)

var (
	flagVersion      = pflag.BoolP("version", "v", false, "Give the current version of sequitur server and then exit.")
	flagConfig       = pflag.StringP("config", "c", "", "Load a TOML configuration file.")
	flagListen       = pflag.StringP("listen", "l", "", "Listen on the given address.")
	flagSecret       = pflag.StringP("secret", "s", "", "Use the given secret for token generation.")
	flagDB           = pflag.String("db", "", "Use the given DB connection string.")
	flagOperatorUser = pflag.String("operator-user", "", "Set the operator account's username.")
	flagOperatorPass = pflag.String("operator-pass", "", "Set the operator account's password.")
	flagMaxRules     = pflag.Int("max-rules", 0, "Cap the number of live rules a session may hold.")
)

func main() {
	pflag.Parse()

	if *flagVersion {
		fmt.Printf("%s (sequitur v%s)\n", version.ServerCurrent, version.Current)
		return
	}

	args := pflag.Args()
	if len(args) > 0 {
		fmt.Fprintf(os.Stderr, "Too many arguments\nDo -h for help.\n")
		os.Exit(1)
	}

	// load a config file first, if given; everything else below layers on
	// top of it, flags and env vars taking precedence over its values.
	var fileCfg server.Config
	var fileListenAddr string
	if pflag.Lookup("config").Changed {
		var err error
		fileCfg, fileListenAddr, err = server.LoadConfigFile(*flagConfig)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s\n", err.Error())
			os.Exit(1)
		}
	}

	// get address info
	listenAddr := fileListenAddr
	if envVal := os.Getenv(EnvListen); envVal != "" {
		listenAddr = envVal
	}
	if pflag.Lookup("listen").Changed {
		listenAddr = *flagListen
	}
	if listenAddr == "" {
		listenAddr = "localhost:8080"
	}

	// look at db connection string
	db := fileCfg.DB
	dbConnStr := os.Getenv(EnvDB)
	if pflag.Lookup("db").Changed {
		dbConnStr = *flagDB
	}
	if dbConnStr != "" {
		var err error
		db, err = server.ParseDBConnString(dbConnStr)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s\nDo -h for help.\n", err.Error())
			os.Exit(1)
		}
	}

	// get token secret
	tokSecret := fileCfg.TokenSecret
	tokSecStr := os.Getenv(EnvSecret)
	if pflag.Lookup("secret").Changed {
		tokSecStr = *flagSecret
	}
	if tokSecStr != "" {
		tokSecret = []byte(tokSecStr)

		for len(tokSecret) < server.MinSecretSize {
			doubled := make([]byte, len(tokSecret)*2)
			copy(doubled, tokSecret)
			copy(doubled[len(tokSecret):], tokSecret)
			tokSecret = doubled
		}

		if len(tokSecret) > server.MaxSecretSize {
			fmt.Fprintf(os.Stderr, "Token secret is %d bytes, but it must be <= %d bytes\nDo -h for help.\n", len(tokSecret), server.MaxSecretSize)
			os.Exit(1)
		}
	} else if len(tokSecret) == 0 {
		tokSecret = make([]byte, server.MaxSecretSize)
		if _, err := rand.Read(tokSecret); err != nil {
			fmt.Fprintf(os.Stderr, "Could not generate token secret: %s\n", err.Error())
			os.Exit(1)
		}
		log.Printf("WARN  Using generated token secret; all tokens issued will become invalid at shutdown")
	}

	// get operator username
	operatorUser := fileCfg.OperatorUsername
	if envVal := os.Getenv(EnvOperatorUser); envVal != "" {
		operatorUser = envVal
	}
	if pflag.Lookup("operator-user").Changed {
		operatorUser = *flagOperatorUser
	}

	// get operator password, generating one if neither it nor an
	// already-hashed password came from the config file
	operatorPass := os.Getenv(EnvOperatorPass)
	if pflag.Lookup("operator-pass").Changed {
		operatorPass = *flagOperatorPass
	}

	passHash := fileCfg.OperatorPasswordHash
	if operatorPass != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(operatorPass), bcrypt.DefaultCost)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Could not hash operator password: %s\n", err.Error())
			os.Exit(1)
		}
		passHash = string(hash)
	} else if passHash == "" {
		randBytes := make([]byte, 18)
		if _, err := rand.Read(randBytes); err != nil {
			fmt.Fprintf(os.Stderr, "Could not generate operator password: %s\n", err.Error())
			os.Exit(1)
		}
		operatorPass = base64.RawURLEncoding.EncodeToString(randBytes)
		log.Printf("INFO  Generated operator password (will not be shown again): %s", operatorPass)

		hash, err := bcrypt.GenerateFromPassword([]byte(operatorPass), bcrypt.DefaultCost)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Could not hash operator password: %s\n", err.Error())
			os.Exit(1)
		}
		passHash = string(hash)
	}

	// get max-rules limit
	maxRules := fileCfg.Limits.MaxRules
	if envVal := os.Getenv(EnvMaxRules); envVal != "" {
		parsed, err := strconv.Atoi(envVal)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s is not a valid integer for %s\nDo -h for help.\n", envVal, EnvMaxRules)
			os.Exit(1)
		}
		maxRules = parsed
	}
	if pflag.Lookup("max-rules").Changed {
		maxRules = *flagMaxRules
	}

	cfg := server.Config{
		TokenSecret:          tokSecret,
		OperatorUsername:     operatorUser,
		OperatorPasswordHash: passHash,
		DB:                   db,
		Limits:               grammar.Limits{MaxRules: maxRules},
	}.FillDefaults()

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %s\nDo -h for help.\n", err.Error())
		os.Exit(1)
	}

	addrParts := strings.SplitN(listenAddr, ":", 2)
	if len(addrParts) != 2 {
		fmt.Fprintf(os.Stderr, "Listen address is not in ADDRESS:PORT or :PORT format.\nDo -h for help.\n")
		os.Exit(1)
	}

	srv, err := server.New(cfg)
	if err != nil {
		log.Fatalf("FATAL could not start server: %s", err.Error())
	}
	log.Printf("DEBUG Server initialized")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Printf("INFO  Shutting down...")
		if err := srv.Shutdown(10 * time.Second); err != nil {
			log.Printf("ERROR error during shutdown: %s", err.Error())
		}
	}()

	log.Printf("INFO  Starting sequitur server %s on %s...", version.ServerCurrent, listenAddr)
	if err := srv.ListenAndServe(listenAddr); err != nil && err != http.ErrServerClosed {
		log.Printf("ERROR server stopped: %s", err.Error())
	}
}
