// Command importroster copies a servers.json roster into the SQLite roster
// database used by ROSTER_DRIVER=sqlite.
package main

import (
	"context"
	"flag"

	"cs2-tracker/internal/config"
	"cs2-tracker/internal/constants"
	"cs2-tracker/internal/logger"
	"cs2-tracker/internal/repository"
)

func main() {
	log := logger.New()

	from := flag.String("from", config.GetEnv("SERVERS_FILE", "servers.json"), "JSON roster to read")
	to := flag.String("to", config.GetEnv("ROSTER_DB_PATH", "roster.db"), "SQLite roster database to write")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), constants.ImportTimeout)
	defer cancel()

	endpoints, err := repository.NewJSONEndpointSource(*from, log).Load(ctx)
	if err != nil {
		log.Fatal().Err(err).Str("from", *from).Msg("failed to read roster")
	}

	db := repository.NewSQLiteEndpointSource(*to, log)
	defer db.Close()

	n, err := db.Import(ctx, endpoints)
	if err != nil {
		log.Fatal().Err(err).Str("to", *to).Msg("failed to import roster")
	}

	log.Info().Int("imported", n).Str("from", *from).Str("to", *to).Msg("roster import complete")
}
