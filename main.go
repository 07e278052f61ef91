package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"gorm.io/gorm"

	"github.com/customeros/cardstack/config"
	"github.com/customeros/cardstack/internal/database"
	"github.com/customeros/cardstack/internal/logger"
	"github.com/customeros/cardstack/internal/repository"
	"github.com/customeros/cardstack/internal/utils"
	"github.com/customeros/cardstack/server"
	"github.com/customeros/cardstack/services"
)

func main() {
	app := &cli.App{
		Name:  "cardstack",
		Usage: "contact ingestion and outreach dispatch",
		Commands: []*cli.Command{
			{
				Name:   "migrate",
				Usage:  "Run database migrations",
				Action: migrate,
			},
			{
				Name:   "server",
				Usage:  "Start the application server",
				Action: runServer,
			},
			{
				Name:  "import",
				Usage: "Import a contact spreadsheet for a tenant",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "tenant", Required: true},
					&cli.StringFlag{Name: "file", Required: true, Usage: "path to the CSV export"},
				},
				Action: importFile,
			},
			{
				Name:  "dispatch",
				Usage: "Generate and send outreach emails to the given contacts",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "tenant", Required: true},
					&cli.StringSliceFlag{Name: "ids", Required: true, Usage: "contact ids, comma separated or repeated"},
				},
				Action: dispatch,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("cardstack: %v", err)
	}
}

func loadDatabase() (*config.Config, *gorm.DB, error) {
	cfg, err := config.InitConfig()
	if err != nil {
		return nil, nil, errors.Wrap(err, "config initialization failed")
	}

	cardstackDB, err := database.InitCardstackDatabase(cfg.CardstackDatabaseConfig)
	if err != nil {
		return nil, nil, errors.Wrap(err, "cardstack database initialization failed")
	}
	return cfg, cardstackDB, nil
}

func migrate(_ *cli.Context) error {
	cfg, cardstackDB, err := loadDatabase()
	if err != nil {
		return err
	}
	if err = repository.MigrateCardstackDB(cfg.CardstackDatabaseConfig, cardstackDB); err != nil {
		return errors.Wrap(err, "database migration failed")
	}
	log.Println("Database migration completed successfully")
	return nil
}

func runServer(_ *cli.Context) error {
	cfg, cardstackDB, err := loadDatabase()
	if err != nil {
		return err
	}

	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.Println("Cardstack starting up...")

	srv, err := server.NewServer(cfg, cardstackDB)
	if err != nil {
		return errors.Wrap(err, "server setup failed")
	}
	if err = srv.Run(); err != nil {
		return errors.Wrap(err, "server startup failed")
	}

	log.Println("Shutdown complete")
	return nil
}

// commandServices wires the same services the server uses, for one-shot commands.
func commandServices() (*services.Services, logger.Logger, error) {
	cfg, cardstackDB, err := loadDatabase()
	if err != nil {
		return nil, nil, err
	}

	appLogger := logger.NewAppLogger(cfg.Logger)
	appLogger.InitLogger()

	svcs, err := services.InitServices(cfg, appLogger, repository.InitRepositories(cardstackDB))
	if err != nil {
		return nil, nil, err
	}
	return svcs, appLogger, nil
}

func commandContext(tenant string) context.Context {
	ctx := utils.SetTenantInContext(context.Background(), tenant)
	return utils.SetAppSourceInContext(ctx, "cardstack-cli")
}

func importFile(c *cli.Context) error {
	path := c.String("file")
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "read %s", path)
	}

	svcs, appLogger, err := commandServices()
	if err != nil {
		return err
	}
	defer svcs.EventsService.Close()
	defer appLogger.Sync()

	tenant := c.String("tenant")
	result, err := svcs.ImportService.Import(commandContext(tenant), tenant, filepath.Base(path), data)
	if err != nil {
		return err
	}
	return printJSON(result)
}

func dispatch(c *cli.Context) error {
	var ids []string
	for _, value := range c.StringSlice("ids") {
		for _, id := range strings.Split(value, ",") {
			if id = strings.TrimSpace(id); id != "" {
				ids = append(ids, id)
			}
		}
	}

	svcs, appLogger, err := commandServices()
	if err != nil {
		return err
	}
	defer svcs.EventsService.Close()
	defer appLogger.Sync()

	tenant := c.String("tenant")
	result, err := svcs.OutreachService.DispatchBatch(commandContext(tenant), tenant, ids)
	if err != nil {
		return err
	}
	return printJSON(result)
}

func printJSON(v interface{}) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
