package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/localnerve/testcasedb/internal/testutil"
)

func main() {
	var showHelp bool
	flag.BoolVar(&showHelp, "h", false, "show help")
	var envFilename string
	flag.StringVar(&envFilename, "f", "", "path to the .env file")
	var dbTypes string
	flag.StringVar(&dbTypes, "db", "mysql,postgres", "comma separated database types to start")
	flag.Parse()

	usage := `
Run the testcasedb database containers with the environment variables from the .env file.
DB_IMAGE selects the MySQL/MariaDB image, POSTGRES_IMAGE the Postgres image.

Usage:

testcontainers [-h] [-f ENV_FILE_PATH] [-db TYPES]

ENV_FILE_PATH: path to the .env file
TYPES: comma separated list of mysql, mariadb, postgres

example
  testcontainers -f /path/to/something/.env -db postgres
`
	// if -h flag print usage and return
	if showHelp {
		fmt.Println(usage)
		return
	}

	if envFilename != "" {
		log.Printf("Loading environment variables from %s\n", envFilename)
		if err := godotenv.Load(envFilename); err != nil {
			log.Fatalf("Failed to load environment variables: %v\n", err)
		}
	} else {
		log.Printf("No environment file specified, using current environment variables\n")
	}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGTSTP, syscall.SIGQUIT)

	started := make(chan *testutil.DBContainer)
	go func() {
		defer close(started)
		for _, dbType := range strings.Split(dbTypes, ",") {
			dbType = strings.TrimSpace(dbType)
			if dbType == "" {
				continue
			}
			c, err := testutil.StartDatabase(context.Background(), nil, dbType)
			if err != nil {
				log.Printf("Failed to start %s container: %v\n", dbType, err)
				continue
			}
			cfg := c.Config
			log.Printf("DB_TYPE=%s DB_HOST=%s DB_PORT=%s DB_DATABASE=%s DB_USER=%s DB_PASSWORD=%s\n",
				cfg.DBType, cfg.DBHost, cfg.DBPort, cfg.DBDatabase, cfg.DBUser, cfg.DBPassword)
			started <- c
		}
	}()

	var containers []*testutil.DBContainer
	for {
		select {
		case c, ok := <-started:
			if !ok {
				started = nil
				log.Printf("Containers ready, waiting for a signal\n")
				continue
			}
			containers = append(containers, c)
		case sig := <-sigs:
			log.Printf("\nReceived signal: %v, terminating test containers...\n", sig)
			for _, c := range containers {
				c.Terminate(nil)
			}
			return
		}
	}
}
