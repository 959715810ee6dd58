package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/fieldsync/fieldsync/internal/client/models"
	"github.com/fieldsync/fieldsync/internal/client/services"
)

// cacheNote marks output served from the local store.
func cacheNote(w io.Writer, env models.Envelope) {
	if !env.FromCache {
		return
	}
	if env.Message != "" {
		fmt.Fprintf(w, "(cached; server said: %s)\n", env.Message)
		return
	}
	fmt.Fprintln(w, "(cached)")
}

// printJSON pretty-prints a single resource.
func printJSON(w io.Writer, env models.Envelope) error {
	if !env.Success {
		return env.Err()
	}
	cacheNote(w, env)
	var buf bytes.Buffer
	if err := json.Indent(&buf, env.Data, "", "  "); err != nil {
		return err
	}
	buf.WriteByte('\n')
	_, err := buf.WriteTo(w)
	return err
}

type named struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// printNamed lists id/name pairs: templates, sections, categories, items.
func printNamed(w io.Writer, env models.Envelope) error {
	page, err := services.DecodePage[named](env)
	if err != nil {
		return err
	}
	cacheNote(w, env)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME")
	for _, n := range page.Data {
		fmt.Fprintf(tw, "%s\t%s\n", n.ID, n.Name)
	}
	return tw.Flush()
}

func printAppointments(w io.Writer, env models.Envelope) error {
	page, err := services.DecodePage[models.Appointment](env)
	if err != nil {
		return err
	}
	cacheNote(w, env)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tSTART\tSURVEYOR\tADDRESS")
	for _, a := range page.Data {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", a.ID, a.Status, a.StartDate, a.Surveyor, a.Address)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	p := page.Pagination
	fmt.Fprintf(w, "page %d/%d, %d total\n", p.Page, p.TotalPages, p.TotalItems)
	return nil
}

func printSurveys(w io.Writer, env models.Envelope) error {
	page, err := services.DecodePage[models.Survey](env)
	if err != nil {
		return err
	}
	cacheNote(w, env)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tAPPOINTMENT\tTEMPLATE")
	for _, s := range page.Data {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", s.ID, s.Status, s.AppointmentID, s.TemplateID)
	}
	return tw.Flush()
}

func printSyncResult(w io.Writer, res models.SyncResult) {
	if res.Message == services.MsgAlreadySyncing || res.Message == services.MsgOffline {
		fmt.Fprintf(w, "sync skipped: %s\n", res.Message)
		return
	}
	fmt.Fprintf(w, "upload:   %d attempted, %d succeeded, %d failed\n",
		res.Upload.Attempted, res.Upload.Succeeded, res.Upload.Failed)
	for _, r := range res.Upload.Records {
		if !r.Success {
			fmt.Fprintf(w, "  %s: %s\n", r.RecordID, r.Message)
		}
	}
	if res.State == models.SyncFailed {
		fmt.Fprintf(w, "sync failed: %s\n", res.Message)
		return
	}
	fmt.Fprintf(w, "download: %d records", res.Download.Records)
	if res.Download.Message != "" {
		fmt.Fprintf(w, " (%s)", res.Download.Message)
	}
	fmt.Fprintln(w)
	if res.Success {
		fmt.Fprintf(w, "sync complete at %s\n", res.Timestamp.Format(time.RFC3339))
	} else {
		fmt.Fprintln(w, "sync completed with errors")
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return t.Local().Format(time.RFC3339)
}
