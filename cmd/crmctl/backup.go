package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jhoicas/training-crm-api/internal/backup"
)

func newBackupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backup",
		Short: "Copia supabase/schema.sql al histórico y conserva las 10 copias más recientes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := loadEnv()
			if err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), "cargar configuración:", err)
				return err
			}
			res, err := backup.NewRunner(nil, backup.Config{
				TemplatePath: cfg.Backup.TemplatePath,
				HistoryDir:   cfg.Backup.HistoryDir,
				Keep:         cfg.Backup.Keep,
			}).Run()
			if err != nil {
				log.Error().Err(err).Msg("respaldo fallido")
				return err
			}
			for _, p := range res.Pruned {
				log.Info().Str("file", p).Msg("copia antigua eliminada")
			}
			log.Info().Str("file", res.Created).Msg("respaldo creado")
			fmt.Fprintln(cmd.OutOrStdout(), res.Created)
			return nil
		},
	}
}
