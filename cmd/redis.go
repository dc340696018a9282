package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/spotifie/internal/cache"
	"github.com/desertthunder/spotifie/internal/shared"
	"github.com/desertthunder/spotifie/internal/ui"
	"github.com/urfave/cli/v3"
)

func (r *Runner) diagnostics(cmd *cli.Command) (*cache.Diagnostics, *shared.Config, func(), error) {
	config, err := r.loadConfig(cmd)
	if err != nil {
		return nil, nil, nil, err
	}

	store, release := r.cacheStore(config)
	return cache.NewDiagnostics(store, r.logger), config, release, nil
}

// RedisPing checks connectivity to the configured Redis server.
func (r *Runner) RedisPing(ctx context.Context, cmd *cli.Command) error {
	diag, config, release, err := r.diagnostics(cmd)
	if err != nil {
		return err
	}
	defer release()

	pong, err := diag.Ping(ctx)
	if cmd.Bool("json") {
		out := map[string]any{"host": config.Redis.Host, "port": config.Redis.Port, "database": config.Redis.Database}
		if err != nil {
			out["error"] = err.Error()
		} else {
			out["ping_result"] = pong
		}
		if werr := r.writeJSON(out, true); werr != nil {
			return werr
		}
		return err
	}

	r.writePlain("%s\n", ui.Styles.Title("Redis "+config.Redis.Addr()))
	if err != nil {
		r.writePlain("%s\n", ui.Styles.Err("No se pudo conectar a Redis"))
		return err
	}

	return r.writePlain("%s\n", ui.Styles.Step("ping", true, pong))
}

// RedisWriteRead writes a test key with a one minute TTL and reads it back.
func (r *Runner) RedisWriteRead(ctx context.Context, cmd *cli.Command) error {
	diag, _, release, err := r.diagnostics(cmd)
	if err != nil {
		return err
	}
	defer release()

	res, err := diag.WriteRead(ctx)
	if cmd.Bool("json") {
		out := map[string]any{
			"key":             res.Key,
			"written_value":   res.Written,
			"retrieved_value": res.Retrieved,
			"values_match":    res.Matched(),
		}
		if err != nil {
			out["error"] = err.Error()
		}
		if werr := r.writeJSON(out, true); werr != nil {
			return werr
		}
		return err
	}

	r.writePlain("%s\n", ui.Styles.Title("Redis write/read"))
	if err != nil {
		r.writePlain("%s\n", ui.Styles.Err("Error en operación Redis"))
		return err
	}

	r.writePlain("%s", ui.Styles.Fields(
		[]string{"key", "written", "retrieved"},
		map[string]any{"key": res.Key, "written": res.Written, "retrieved": res.Retrieved},
	))
	return r.writePlain("%s\n", ui.Styles.Step("match", res.Matched(), ""))
}

// RedisFullTest runs ping, write, read and delete in order and reports each step.
func (r *Runner) RedisFullTest(ctx context.Context, cmd *cli.Command) error {
	diag, _, release, err := r.diagnostics(cmd)
	if err != nil {
		return err
	}
	defer release()

	report := diag.FullLifecycleTest(ctx)

	var result error
	if !report.OK() {
		result = fmt.Errorf("full test failed at %s: %w", report.FailedAt, report.Err)
	}

	if cmd.Bool("json") {
		out := map[string]any{
			"test_key":        report.Key,
			"test_value":      report.Written,
			"retrieved_value": report.Retrieved,
			"values_matched":  report.Matched(),
			"stage":           report.Stage.String(),
		}
		if !report.OK() {
			out["failed_at"] = report.FailedAt.String()
			out["error"] = report.Err.Error()
		}
		if err := r.writeJSON(out, true); err != nil {
			return err
		}
		return result
	}

	r.writePlain("%s\n", ui.Styles.Title("Redis full test "+report.Key))
	steps := []struct {
		name  string
		stage cache.Stage
	}{
		{"ping", cache.StagePinged},
		{"write", cache.StageWritten},
		{"read", cache.StageRead},
		{"delete", cache.StageDeleted},
	}
	for _, s := range steps {
		switch {
		case report.OK() || s.stage < report.FailedAt:
			detail := ""
			if s.stage == cache.StageDeleted {
				detail = fmt.Sprintf("(%d keys deleted)", report.Deleted)
			}
			r.writePlain("%s\n", ui.Styles.Step(s.name, true, detail))
		case s.stage == report.FailedAt:
			r.writePlain("%s\n", ui.Styles.Step(s.name, false, ""))
		default:
			r.writePlain("%s\n", ui.Styles.Help("  "+s.name+" skipped"))
		}
	}

	if report.OK() {
		r.writePlain("%s\n", ui.Styles.Step("match", report.Matched(), ""))
	}
	return result
}
