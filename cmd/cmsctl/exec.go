package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/plaenen/cmscore/pkg/commandbus"
	"github.com/plaenen/cmscore/pkg/config"
	"github.com/plaenen/cmscore/pkg/domain"
	"github.com/plaenen/cmscore/pkg/middleware"
	"github.com/plaenen/cmscore/pkg/password"
	"github.com/plaenen/cmscore/pkg/store/memory"
)

// eventView is the JSON shape printed for each event.
type eventView struct {
	ID          string         `json:"id"`
	Type        string         `json:"type"`
	AggregateID string         `json:"aggregateId"`
	SiteID      string         `json:"siteId"`
	Version     int64          `json:"version"`
	Timestamp   time.Time      `json:"timestamp"`
	Data        map[string]any `json:"data"`
}

func viewOf(e domain.Event) eventView {
	return eventView{
		ID:          e.ID,
		Type:        e.Type(),
		AggregateID: e.AggregateID.String(),
		SiteID:      e.SiteID.String(),
		Version:     e.Version,
		Timestamp:   e.Timestamp,
		Data:        e.Data,
	}
}

func runExec(ctx context.Context, cfg *config.Config, logger *slog.Logger, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("exec", flag.ContinueOnError)
	var (
		commandType = fs.String("type", "", "command type, see 'cmsctl types' (required)")
		payload     = fs.String("json", "{}", "command payload as JSON")
		principal   = fs.String("principal", "cmsctl", "principal recorded in logs")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *commandType == "" {
		return errors.New("-type is required")
	}

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx = middleware.WithPrincipal(ctx, *principal)
	events, sendErr := a.bus.SendJSON(ctx, *commandType, []byte(*payload))

	views := make([]eventView, 0, len(events))
	for _, e := range events {
		views = append(views, viewOf(e))
	}
	if len(views) > 0 || sendErr == nil {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(views); err != nil {
			return errors.Join(sendErr, err)
		}
	}
	return sendErr
}

func runTypes(stdout io.Writer) error {
	b := commandbus.New()
	commandbus.RegisterAll(b, memory.New(), password.NewHasher())
	for _, t := range b.CommandTypes() {
		fmt.Fprintln(stdout, t)
	}
	return nil
}
