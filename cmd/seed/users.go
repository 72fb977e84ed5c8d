package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ikkim/shopauth-backend/config"
	"github.com/ikkim/shopauth-backend/internal/app/repository"
	"github.com/ikkim/shopauth-backend/internal/app/service"
	"github.com/ikkim/shopauth-backend/internal/db"
	"github.com/ikkim/shopauth-backend/pkg/logger"
	"github.com/ikkim/shopauth-backend/pkg/mailer"
	"github.com/ikkim/shopauth-backend/pkg/util"
	"github.com/spf13/cobra"
	"github.com/xuri/excelize/v2"
)

// userRow is one account read from the sheet. Line is the 1-based sheet row.
type userRow struct {
	Line     int
	Email    string
	Password string
}

type importSummary struct {
	Created    int
	Duplicates int
	Invalid    int
	Failed     int
}

type signupFunc func(ctx context.Context, email, password, confirmPassword string) (*service.SignupResult, error)

func newUsersCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "users <file.xlsx>",
		Short: "Import accounts from an XLSX file",
		Long: `Import accounts from the first sheet of an XLSX file.

The first row is a header and must contain "email" and "password" columns.
Every row goes through signup, so duplicates are skipped and invalid rows are
reported with the reason. Each created account receives the usual
confirmation email from the configured mail provider.

Examples:
  seed users accounts.xlsx
  seed users accounts.xlsx --dry-run`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rows, err := readUsersFromXLSX(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Total users to import: %d\n", len(rows))
			if dryRun {
				return nil
			}

			signup, closeDB, err := connect()
			if err != nil {
				return err
			}
			defer closeDB()

			summary := importUsers(cmd.Context(), signup, rows, out)
			fmt.Fprintf(out, "\nSummary:\n")
			fmt.Fprintf(out, "  Created: %d\n", summary.Created)
			fmt.Fprintf(out, "  Duplicates skipped: %d\n", summary.Duplicates)
			fmt.Fprintf(out, "  Invalid rows: %d\n", summary.Invalid)
			fmt.Fprintf(out, "  Failed: %d\n", summary.Failed)
			if summary.Failed > 0 {
				return fmt.Errorf("%d rows failed to import", summary.Failed)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "parse the file and report the row count without importing")
	return cmd
}

func connect() (signupFunc, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger.Initialize(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})

	if err := db.Initialize(&cfg.Database); err != nil {
		return nil, nil, err
	}
	if err := db.Migrate(); err != nil {
		_ = db.Close()
		return nil, nil, err
	}

	sender, err := mailer.New(&cfg.Mail, nil)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}

	svc := service.NewAuthService(
		repository.NewUserRepository(db.GetDB()),
		util.NewBcryptHasher(),
		util.NewRandomTokenGenerator(),
		sender,
		service.AuthOptions{
			BaseURL:           cfg.Server.BaseURL,
			ResetTokenTTL:     cfg.Auth.ResetTokenTTL,
			MinPasswordLength: cfg.Auth.MinPasswordLength,
		},
	)
	return svc.Signup, func() { _ = db.Close() }, nil
}

func readUsersFromXLSX(filePath string) ([]userRow, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open XLSX file: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, fmt.Errorf("no sheets found in XLSX file")
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("no data found in XLSX file")
	}

	emailCol, passwordCol := -1, -1
	for i, h := range rows[0] {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "email":
			emailCol = i
		case "password":
			passwordCol = i
		}
	}
	if emailCol < 0 || passwordCol < 0 {
		return nil, fmt.Errorf("header must contain email and password columns, got %v", rows[0])
	}

	users := make([]userRow, 0, len(rows)-1)
	for i, row := range rows[1:] {
		email := cell(row, emailCol)
		password := cell(row, passwordCol)
		if email == "" && password == "" {
			continue
		}
		users = append(users, userRow{Line: i + 2, Email: email, Password: password})
	}
	return users, nil
}

// cell returns the trimmed value at col. GetRows drops trailing empty cells,
// so short rows are normal.
func cell(row []string, col int) string {
	if col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}

func importUsers(ctx context.Context, signup signupFunc, rows []userRow, out io.Writer) importSummary {
	var summary importSummary
	for _, row := range rows {
		_, err := signup(ctx, row.Email, row.Password, row.Password)
		var verr *service.ValidationError
		switch {
		case err == nil:
			summary.Created++
		case errors.Is(err, service.ErrEmailAlreadyExists):
			summary.Duplicates++
			fmt.Fprintf(out, "row %d: %s already exists, skipped\n", row.Line, row.Email)
		case errors.As(err, &verr):
			summary.Invalid++
			msgs := make([]string, 0, len(verr.Violations))
			for _, v := range verr.Violations {
				msgs = append(msgs, v.Field+" "+v.Message)
			}
			fmt.Fprintf(out, "row %d: %q invalid: %s\n", row.Line, row.Email, strings.Join(msgs, "; "))
		default:
			summary.Failed++
			fmt.Fprintf(out, "row %d: %s failed: %v\n", row.Line, row.Email, err)
		}
	}
	return summary
}
