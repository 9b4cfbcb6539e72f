package commands

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/doeshing/snapask/internal/app"
	"github.com/doeshing/snapask/internal/application/doctor"
	"github.com/doeshing/snapask/internal/domain"
	"github.com/doeshing/snapask/internal/infrastructure/transport"
)

// NewDoctorCommand creates the doctor command
func NewDoctorCommand(container *app.Container) *cobra.Command {
	var daemonAddr string

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Diagnose settings, history and daemon setup",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := &doctor.Service{
				Settings:  container.Settings,
				History:   container.History,
				Clipboard: container.Clipboard,
			}
			if daemonAddr != "" {
				svc.Daemon = transport.NewClient(daemonAddr, nil)
				svc.DaemonAddr = daemonAddr
			}
			return runDoctorDiagnostics(cmd, cmd.OutOrStdout(), svc)
		},
	}

	cmd.Flags().StringVar(&daemonAddr, "daemon", "", "Also probe a running `snapask serve` at this address")
	return cmd
}

// runDoctorDiagnostics runs environment diagnostics
func runDoctorDiagnostics(cmd *cobra.Command, out io.Writer, svc *doctor.Service) error {
	report, err := svc.Run(cmd.Context())

	// Display report even if there were errors
	displayDoctorReport(out, report)

	if err != nil {
		return fmt.Errorf("diagnostics completed with errors: %w", err)
	}
	if report.Failed() {
		return errors.New("diagnostics found errors")
	}
	return nil
}

// displayDoctorReport displays the health check report
func displayDoctorReport(out io.Writer, report domain.HealthReport) {
	for _, check := range report.Checks {
		fmt.Fprintf(out, "[%s] %s - %s\n",
			strings.ToUpper(string(check.Status)),
			check.Name,
			check.Details)
	}
}
