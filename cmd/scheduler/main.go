package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/uuid"
	enumspb "go.temporal.io/api/enums/v1"
	"go.temporal.io/sdk/client"

	"NewsGenerator/internal/app"
	"NewsGenerator/internal/config"
	"NewsGenerator/internal/domain"
	"NewsGenerator/internal/logging"
	"NewsGenerator/internal/workflow"
)

const defaultCron = "0 9 * * *"

func main() {
	trigger := flag.String("trigger", "", "start one run for the given domain immediately instead of managing schedules")
	flag.Parse()

	ctx := context.Background()
	cfg := config.Load()
	logger := logging.New(cfg.Logging.Level, cfg.Logging.Format)

	c, err := app.Connect(cfg.Temporal, logger)
	if err != nil {
		logger.Error("connect temporal", "error", err)
		os.Exit(1)
	}
	defer c.Close()

	if *trigger != "" {
		if err := triggerRun(ctx, c, cfg, *trigger); err != nil {
			logger.Error("trigger run", "domain", *trigger, "error", err)
			os.Exit(1)
		}
		logger.Info("run started", "domain", *trigger)
		return
	}

	failures := 0
	for _, d := range cfg.Domains {
		if err := ensureSchedule(ctx, c, cfg, d); err != nil {
			logger.Error("ensure schedule", "domain", d.ID, "error", err)
			failures++
			continue
		}
		logger.Info("schedule ready", "domain", d.ID, "cron", cronFor(d))
	}

	if failures > 0 {
		os.Exit(1)
	}
}

func runInput(d config.DomainConfig, cfg config.Config) domain.RunInput {
	return domain.RunInput{
		DomainConfigID:        d.ID,
		MinRelevanceScore:     d.MinRelevanceScore,
		AutoCreate:            d.AutoCreate,
		MaxArticlesToCreate:   d.MaxArticlesToCreate,
		LookbackDays:          d.LookbackDays,
		MaxCost:               cfg.Assessor.MaxRunCost,
		AssessBatchSize:       cfg.Assessor.BatchSize,
		EstimatedCostPerStory: cfg.Assessor.EstimatedCostPerStory,
	}
}

func cronFor(d config.DomainConfig) string {
	if d.Cron != "" {
		return d.Cron
	}
	return defaultCron
}

// ensureSchedule creates the domain's daily schedule if it does not already
// exist. Existing schedules are left untouched so manual edits survive.
func ensureSchedule(ctx context.Context, c client.Client, cfg config.Config, d config.DomainConfig) error {
	scheduleID := "news-monitor-" + d.ID

	handle := c.ScheduleClient().GetHandle(ctx, scheduleID)
	if _, err := handle.Describe(ctx); err == nil {
		return nil
	}

	_, err := c.ScheduleClient().Create(ctx, client.ScheduleOptions{
		ID: scheduleID,
		Spec: client.ScheduleSpec{
			CronExpressions: []string{cronFor(d)},
		},
		Action: &client.ScheduleWorkflowAction{
			ID:        scheduleID + "-run",
			Workflow:  workflow.NewsCreationWorkflowName,
			TaskQueue: cfg.Temporal.TaskQueue,
			Args:      []interface{}{runInput(d, cfg)},
		},
		Overlap: enumspb.SCHEDULE_OVERLAP_POLICY_SKIP,
	})
	if err != nil {
		return fmt.Errorf("create schedule %s: %w", scheduleID, err)
	}
	return nil
}

// triggerRun starts one ad-hoc workflow execution outside the schedule.
func triggerRun(ctx context.Context, c client.Client, cfg config.Config, domainID string) error {
	d, ok := cfg.Domain(domainID)
	if !ok {
		return fmt.Errorf("unknown domain %q", domainID)
	}

	_, err := c.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:        fmt.Sprintf("news-manual-%s-%s", d.ID, uuid.NewString()),
		TaskQueue: cfg.Temporal.TaskQueue,
	}, workflow.NewsCreationWorkflowName, runInput(d, cfg))
	if err != nil {
		return fmt.Errorf("start workflow: %w", err)
	}
	return nil
}
