package cli

import (
	"context"
	"errors"
	"log"

	"classroom-service/internal/app"
	"classroom-service/internal/config"
	"classroom-service/internal/domain"
	"classroom-service/internal/infra/memory"
	"classroom-service/internal/infra/sqlstore"
	"github.com/spf13/cobra"
)

// NewSeedCmd creates the subjects listed under seed.subjects.
func NewSeedCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create the configured subjects",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			db, err := openDatabase(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer db.Close()
			store := sqlstore.NewStore(db)
			authoring := app.NewAuthoringService(store, memory.NewQuizRepository(store, 0))
			return seedSubjects(cmd.Context(), authoring, cfg.Seed.Subjects)
		},
	}
}

// seedSubjects creates each subject once; names that already exist are skipped.
func seedSubjects(ctx context.Context, authoring *app.AuthoringService, names []string) error {
	created := 0
	for _, name := range names {
		_, err := authoring.CreateSubject(ctx, app.SubjectInput{Name: name})
		switch {
		case err == nil:
			created++
		case errors.Is(err, domain.ErrConflict):
			log.Printf("subject %q already exists", name)
		default:
			return err
		}
	}
	log.Printf("seeded %d of %d subjects", created, len(names))
	return nil
}
