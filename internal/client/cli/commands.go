package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/fieldsync/fieldsync/internal/buildinfo"
	"github.com/fieldsync/fieldsync/internal/client/models"
	"github.com/spf13/cobra"
)

func (r *runner) loginCmd() *cobra.Command {
	var user, exchange string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the access token",
		Args:  cobra.NoArgs,
		RunE: r.run(func(ctx context.Context, a *App, cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			if exchange != "" {
				if err := a.auth.ExchangeToken(ctx, exchange); err != nil {
					return err
				}
				fmt.Fprintln(out, "logged in")
				return nil
			}
			user, pw, err := promptCredentials(r.reader(), out, user)
			if err != nil {
				return err
			}
			defer wipe(pw)
			if err := a.auth.Login(ctx, user, pw); err != nil {
				return err
			}
			fmt.Fprintln(out, "logged in as", user)
			return nil
		}),
	}
	cmd.Flags().StringVarP(&user, "user", "u", "", "username")
	cmd.Flags().StringVar(&exchange, "exchange-token", "", "external identity token to exchange instead of a password")
	return cmd
}

func (r *runner) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored access token",
		Args:  cobra.NoArgs,
		RunE: r.run(func(ctx context.Context, a *App, cmd *cobra.Command, _ []string) error {
			a.auth.Logout(ctx)
			fmt.Fprintln(cmd.OutOrStdout(), "logged out")
			return nil
		}),
	}
}

func (r *runner) statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show connectivity, pending changes and last sync",
		Args:  cobra.NoArgs,
		RunE: r.run(func(ctx context.Context, a *App, cmd *cobra.Command, _ []string) error {
			a.monitor.RefreshStatus(ctx)
			st, err := a.sync.Status(ctx)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintf(tw, "server:\t%s\n", a.config.ServerBaseURL)
			fmt.Fprintf(tw, "connected:\t%s\n", yesNo(st.Connected))
			fmt.Fprintf(tw, "pending:\t%d\n", st.Pending)
			fmt.Fprintf(tw, "last sync:\t%s\n", formatTime(st.LastFullSync))
			login := yesNo(a.auth.LoggedIn())
			if exp, ok := a.tokens.ExpiresAt(); ok && a.auth.LoggedIn() {
				login += " (expires " + formatTime(exp) + ")"
			}
			fmt.Fprintf(tw, "logged in:\t%s\n", login)
			return tw.Flush()
		}),
	}
}

func (r *runner) templatesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "templates",
		Short: "List risk templates",
		Args:  cobra.NoArgs,
		RunE: r.run(func(ctx context.Context, a *App, cmd *cobra.Command, _ []string) error {
			a.refresh(ctx)
			return printNamed(cmd.OutOrStdout(), a.surveys.RiskTemplates(ctx))
		}),
	}
}

func (r *runner) templateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "template <template-id>",
		Short: "Show one risk template",
		Args:  cobra.ExactArgs(1),
		RunE: r.run(func(ctx context.Context, a *App, cmd *cobra.Command, args []string) error {
			a.refresh(ctx)
			return printJSON(cmd.OutOrStdout(), a.surveys.RiskTemplate(ctx, args[0]))
		}),
	}
}

func (r *runner) sectionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sections <template-id>",
		Short: "List the sections of a template",
		Args:  cobra.ExactArgs(1),
		RunE: r.run(func(ctx context.Context, a *App, cmd *cobra.Command, args []string) error {
			a.refresh(ctx)
			return printNamed(cmd.OutOrStdout(), a.surveys.TemplateSections(ctx, args[0]))
		}),
	}
}

func (r *runner) categoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "categories <template-id> <section-id>",
		Short: "List the categories of a section",
		Args:  cobra.ExactArgs(2),
		RunE: r.run(func(ctx context.Context, a *App, cmd *cobra.Command, args []string) error {
			a.refresh(ctx)
			return printNamed(cmd.OutOrStdout(), a.surveys.SectionCategories(ctx, args[0], args[1]))
		}),
	}
}

func (r *runner) itemsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "items <template-id> <section-id> <category-id>",
		Short: "List the items of a category",
		Args:  cobra.ExactArgs(3),
		RunE: r.run(func(ctx context.Context, a *App, cmd *cobra.Command, args []string) error {
			a.refresh(ctx)
			return printNamed(cmd.OutOrStdout(), a.surveys.CategoryItems(ctx, args[0], args[1], args[2]))
		}),
	}
}

func (r *runner) appointmentsCmd() *cobra.Command {
	var req models.PageRequest
	cmd := &cobra.Command{
		Use:   "appointments",
		Short: "List appointments",
		Args:  cobra.NoArgs,
		RunE: r.run(func(ctx context.Context, a *App, cmd *cobra.Command, _ []string) error {
			a.refresh(ctx)
			return printAppointments(cmd.OutOrStdout(), a.surveys.Appointments(ctx, req))
		}),
	}
	f := cmd.Flags()
	f.IntVar(&req.Page, "page", 0, "page number")
	f.IntVar(&req.PageSize, "page-size", 0, "page size")
	f.StringVar(&req.Status, "status", "", "filter by status")
	f.StringVar(&req.Surveyor, "surveyor", "", "filter by surveyor")
	f.StringVar(&req.StartDateFrom, "from", "", "earliest start date (YYYY-MM-DD)")
	f.StringVar(&req.StartDateTo, "to", "", "latest start date (YYYY-MM-DD)")
	return cmd
}

func (r *runner) appointmentCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "appointment <appointment-id>",
		Short: "Show one appointment",
		Args:  cobra.ExactArgs(1),
		RunE: r.run(func(ctx context.Context, a *App, cmd *cobra.Command, args []string) error {
			a.refresh(ctx)
			return printJSON(cmd.OutOrStdout(), a.surveys.Appointment(ctx, args[0]))
		}),
	}
}

func (r *runner) surveysCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "surveys",
		Short: "List surveys",
		Args:  cobra.NoArgs,
		RunE: r.run(func(ctx context.Context, a *App, cmd *cobra.Command, _ []string) error {
			a.refresh(ctx)
			return printSurveys(cmd.OutOrStdout(), a.surveys.Surveys(ctx))
		}),
	}
}

func (r *runner) surveyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "survey <survey-id>",
		Short: "Show one survey",
		Args:  cobra.ExactArgs(1),
		RunE: r.run(func(ctx context.Context, a *App, cmd *cobra.Command, args []string) error {
			a.refresh(ctx)
			return printJSON(cmd.OutOrStdout(), a.surveys.Survey(ctx, args[0]))
		}),
	}
}

func (r *runner) saveSurveyCmd() *cobra.Command {
	var (
		file     string
		recordID string
		attach   []string
		deferred bool
	)
	cmd := &cobra.Command{
		Use:   "save-survey",
		Short: "Save a survey (JSON) and submit it, or queue it when offline",
		Args:  cobra.NoArgs,
		RunE: r.run(func(ctx context.Context, a *App, cmd *cobra.Command, _ []string) error {
			body, err := r.readBody(file)
			if err != nil {
				return err
			}
			atts := make([]models.Attachment, 0, len(attach))
			for _, p := range attach {
				abs, err := filepath.Abs(p)
				if err != nil {
					return err
				}
				if _, err := os.Stat(abs); err != nil {
					return fmt.Errorf("attachment: %w", err)
				}
				atts = append(atts, models.Attachment{LocalPath: abs, FileName: filepath.Base(abs)})
			}
			if !deferred {
				a.refresh(ctx)
			}

			res, err := a.surveys.SaveSurvey(ctx, recordID, body, atts, deferred)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if res.Queued {
				fmt.Fprintf(out, "queued %s", res.RecordID)
				if res.Message != "" {
					fmt.Fprintf(out, ": %s", res.Message)
				}
				fmt.Fprintln(out)
				return nil
			}
			fmt.Fprintf(out, "submitted %s as %s\n", res.RecordID, res.RemoteID)
			return nil
		}),
	}
	cmd.Flags().StringVarP(&file, "file", "f", "-", "survey JSON file, - for stdin")
	cmd.Flags().StringVarP(&recordID, "record", "r", "", "local record id of a saved survey to edit")
	cmd.Flags().StringArrayVarP(&attach, "attach", "a", nil, "attachment file (repeatable)")
	cmd.Flags().BoolVar(&deferred, "defer", false, "only queue, submit on the next sync")
	return cmd
}

func (r *runner) readBody(file string) (json.RawMessage, error) {
	var (
		data []byte
		err  error
	)
	if file == "-" {
		data, err = io.ReadAll(r.stdin)
	} else {
		data, err = os.ReadFile(file)
	}
	if err != nil {
		return nil, err
	}
	if !json.Valid(data) {
		return nil, errors.New("survey body is not valid JSON")
	}
	return data, nil
}

func (r *runner) pendingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pending",
		Short: "List records waiting to be uploaded",
		Args:  cobra.NoArgs,
		RunE: r.run(func(ctx context.Context, a *App, cmd *cobra.Command, _ []string) error {
			recs, err := a.store.Pending(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(recs) == 0 {
				fmt.Fprintln(out, "nothing pending")
				return nil
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tRESOURCE\tREMOTE ID\tATTACHMENTS\tUPDATED")
			for _, rec := range recs {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d/%d\t%s\n", rec.ID, rec.Resource, rec.RemoteID,
					len(rec.Attachments)-len(rec.PendingAttachments()), len(rec.Attachments),
					formatTime(rec.UpdatedAt))
			}
			return tw.Flush()
		}),
	}
}

func (r *runner) syncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Upload pending changes and refresh local data",
		Args:  cobra.NoArgs,
		RunE: r.run(func(ctx context.Context, a *App, cmd *cobra.Command, _ []string) error {
			res := a.sync.PerformFullSync(ctx)
			printSyncResult(cmd.OutOrStdout(), res)
			if !res.Success {
				return errSyncIncomplete
			}
			return nil
		}),
	}
}

var errSyncIncomplete = errors.New("sync incomplete")

func (r *runner) watchCmd() *cobra.Command {
	var (
		syncOnReconnect bool
		duration        time.Duration
	)
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Poll connectivity and report online/offline changes",
		Args:  cobra.NoArgs,
		RunE: r.run(func(ctx context.Context, a *App, cmd *cobra.Command, _ []string) error {
			if duration > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, duration)
				defer cancel()
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s: %s\n", time.Now().Format(time.TimeOnly), onlineOffline(a.monitor.RefreshStatus(ctx)))

			a.monitor.Watch(ctx, a.config.OnlineCheckInterval, func(connected bool) {
				fmt.Fprintf(out, "%s: %s\n", time.Now().Format(time.TimeOnly), onlineOffline(connected))
				if connected && syncOnReconnect {
					printSyncResult(out, a.sync.PerformFullSync(ctx))
				}
			})
			return nil
		}),
	}
	cmd.Flags().BoolVar(&syncOnReconnect, "sync", false, "run a full sync whenever the connection comes back")
	cmd.Flags().DurationVar(&duration, "for", 0, "stop after this long (default: until interrupted)")
	return cmd
}

func (r *runner) clearCacheCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear-cache",
		Short: "Remove cached templates, sections, categories and items",
		Args:  cobra.NoArgs,
		RunE: r.run(func(ctx context.Context, a *App, cmd *cobra.Command, _ []string) error {
			res := a.surveys.ClearTemplateCache(ctx)
			if !res.OK() {
				return res.Err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d cached entries\n", res.Removed)
			return nil
		}),
	}
}

func (r *runner) metricsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "metrics",
		Short: "Probe connectivity and print client metrics",
		Args:  cobra.NoArgs,
		RunE: r.run(func(ctx context.Context, a *App, cmd *cobra.Command, _ []string) error {
			a.monitor.RefreshStatus(ctx)
			return a.metrics.WriteText(cmd.OutOrStdout())
		}),
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			buildinfo.PrintBuildData(cmd.OutOrStdout())
		},
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func onlineOffline(b bool) string {
	if b {
		return "online"
	}
	return "offline"
}
