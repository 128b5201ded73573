package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kuotechnology-ui/kindworld-backend/config"
	"github.com/kuotechnology-ui/kindworld-backend/internal/app"
	"github.com/kuotechnology-ui/kindworld-backend/internal/app/model"
	"github.com/kuotechnology-ui/kindworld-backend/internal/db"
	"github.com/kuotechnology-ui/kindworld-backend/internal/scheduler"
	"github.com/kuotechnology-ui/kindworld-backend/pkg/logger"
)

func main() {
	logger.Initialize(logger.Config{
		Level:   "info",
		Format:  "console",
		Service: "kindworld-ctl",
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	root := &cobra.Command{
		Use:           "kindworldctl",
		Short:         "KindWorld 운영 도구",
		Long:          "발송 큐 수동 처리, 실패 건 조회/취소, 관리자 계정 일괄 등록",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(queueCommand(), usersCommand())

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// openContainer 설정 로드 + DB 연결 + 서비스 조립
func openContainer(ctx context.Context) (*app.Container, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if err := db.Initialize(&cfg.Database); err != nil {
		return nil, nil, fmt.Errorf("connect database: %w", err)
	}
	closeFn := func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database connection", err)
		}
	}
	return app.NewContainer(ctx, cfg, db.GetDB()), closeFn, nil
}

func queueCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "queue",
		Short: "이메일 발송 큐 관리",
	}

	processCmd := &cobra.Command{
		Use:   "process",
		Short: "대기 중인 발송 건을 즉시 1회 처리",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, closeFn, err := openContainer(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			s := scheduler.NewDeliveryScheduler(c.Queue, c.Config.Queue.Schedule)
			summary, err := s.RunOnce(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "released=%d due=%d claimed=%d sent=%d retried=%d failed=%d\n",
				summary.Released, summary.Due, summary.Claimed, summary.Sent, summary.Retried, summary.Failed)
			return nil
		},
	}

	var status string
	var limit int
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "상태별 발송 건 조회",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, closeFn, err := openContainer(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			items, err := c.Queue.ListByStatus(cmd.Context(), model.DeliveryStatus(status), limit)
			if err != nil {
				return err
			}
			writeDeliveries(cmd.OutOrStdout(), items)
			return nil
		},
	}
	listCmd.Flags().StringVar(&status, "status", string(model.DeliveryStatusFailed), "pending, in_flight, sent, failed, cancelled")
	listCmd.Flags().IntVar(&limit, "limit", 50, "최대 조회 개수")

	cancelCmd := &cobra.Command{
		Use:   "cancel <delivery-id>",
		Short: "발송 건 취소",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, closeFn, err := openContainer(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			item, err := c.Queue.Cancel(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", item.ID, item.Status)
			return nil
		},
	}

	cmd.AddCommand(processCmd, listCmd, cancelCmd)
	return cmd
}

func usersCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "사용자 계정 관리",
	}

	var yes bool
	importCmd := &cobra.Command{
		Use:   "import <xlsx-file>",
		Short: "엑셀 파일의 계정을 일괄 등록 (email, name, role)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			rows, err := readUsersFromXLSX(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Total users to import: %d (skipped %d)\n", len(rows.Users), rows.Skipped)

			if !yes {
				fmt.Fprint(out, "Do you want to proceed with the import? (yes/no): ")
				var confirm string
				fmt.Fscanln(cmd.InOrStdin(), &confirm)
				if confirm != "yes" && confirm != "y" {
					fmt.Fprintln(out, "Import cancelled.")
					return nil
				}
			}

			c, closeFn, err := openContainer(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			created, existing, err := importUsers(cmd.Context(), c.Users, rows.Users)
			if err != nil && !errors.Is(err, errPartialImport) {
				return err
			}
			fmt.Fprintf(out, "Import completed: created=%d existing=%d\n", created, existing)
			return err
		},
	}
	importCmd.Flags().BoolVarP(&yes, "yes", "y", false, "확인 없이 진행")

	cmd.AddCommand(importCmd)
	return cmd
}
