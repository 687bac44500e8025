/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"errors"
	"fmt"

	"github.com/accountsvc/apiserver/internal/archive"
	"github.com/accountsvc/apiserver/internal/mq"
	"github.com/accountsvc/apiserver/internal/storage"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// archiverCmd represents the archiver command
var archiverCmd = &cobra.Command{
	Use:   "archiver",
	Short: "Copies account events from the broker into object storage",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := bootstrap()
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		ctx := cmd.Context()
		broker, err := mq.Open(ctx, cfg)
		if err != nil {
			return fmt.Errorf("open mq: %w", err)
		}
		if broker == nil {
			return errors.New("MQ_BACKEND is required for the archiver")
		}
		defer func() { _ = broker.Close() }()

		store, err := storage.Open(ctx, cfg)
		if err != nil {
			return fmt.Errorf("open storage: %w", err)
		}
		defer func() { _ = store.Close() }()

		archiver := archive.New(store, cfg.Storage.Prefix, logger.Named("archiver"))
		if err := archiver.Run(ctx, broker, cfg.MQ.Channel); err != nil {
			logger.Error("archiver stopped", zap.Error(err))
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(archiverCmd)
}
