// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"crossforge-cli/internal/container"
	"crossforge-cli/internal/platform"
)

// StepProvisioner provisions by executing each step in a scratch container
// and committing the result. Each step gets individual error attribution,
// and the index refresh gets its single automatic retry.
type StepProvisioner struct {
	engine container.Engine
	cfg    *Config

	// refreshBackoff is the wait before the index refresh retry.
	refreshBackoff time.Duration
}

var _ Provisioner = (*StepProvisioner)(nil)

// NewStepProvisioner creates a StepProvisioner.
func NewStepProvisioner(engine container.Engine, cfg *Config) *StepProvisioner {
	return &StepProvisioner{
		engine:         engine,
		cfg:            cfg,
		refreshBackoff: 2 * time.Second,
	}
}

// Provision implements Provisioner.
func (p *StepProvisioner) Provision(ctx context.Context, desc *platform.PlatformDescriptor) (*Result, error) {
	if err := desc.Validate(); err != nil {
		return nil, err
	}

	tag := CacheTag(p.cfg, desc)
	logger := p.cfg.Logger

	if !p.cfg.ForceRebuild {
		exists, err := p.engine.ImageExists(ctx, tag)
		if err == nil && exists {
			logger.Debug("environment already provisioned", "image", tag)
			return &Result{Success: true, ImageTag: tag, Cached: true}, nil
		}
	}

	var tee io.Writer
	if p.cfg.Verbose {
		tee = os.Stderr
	}
	logs := newLogBuffer(tee)

	sm := &runStateMachine{}

	fail := func(kind Kind, pkg platform.PackageName, err error) (*Result, error) {
		sm.fail()
		return &Result{Logs: logs.String(), FailedPackage: pkg}, &EnvironmentError{
			Kind:    classifyKind(ctx, err, kind),
			Image:   container.ImageTag(desc.BaseImage),
			Package: pkg,
			Err:     err,
		}
	}

	// Step 1: resolve the base image.
	logger.Debug("pulling base image", "image", desc.BaseImage)
	if err := p.engine.Pull(ctx, container.ImageTag(desc.BaseImage), logs); err != nil {
		return fail(KindBaseImageUnavailable, "", err)
	}

	// Step 2: start the scratch container the steps run in. The blocking
	// command keeps it alive between Exec calls.
	id, err := p.engine.StartDetached(ctx, container.StartOptions{
		Image:   container.ImageTag(desc.BaseImage),
		Command: []string{"sleep", "infinity"},
	})
	if err != nil {
		return fail(KindBaseImageUnavailable, "", err)
	}
	sm.advance(stateBaseImageSelected)

	// The scratch container is always discarded, success or not. A
	// canceled run therefore never leaves a reusable half-provisioned
	// environment behind.
	defer func() {
		if rmErr := p.engine.Remove(context.WithoutCancel(ctx), id, true); rmErr != nil {
			logger.Warn("failed to remove scratch container", "container", id, "error", rmErr)
		}
	}()

	// Step 3: refresh the package index. Refresh failures are commonly
	// transient (mirror sync, flaky network), so this step gets exactly
	// one automatic retry.
	env := aptEnv(desc)
	refreshErr := container.RetryWithBackoff(ctx, 2, p.refreshBackoff, func(attempt int) (bool, error) {
		if attempt > 0 {
			logger.Warn("package index refresh failed, retrying once")
		}
		execErr := p.engine.Exec(ctx, id, container.ExecOptions{
			Command: indexRefreshCommand(),
			Env:     env,
			Stdout:  logs,
			Stderr:  logs,
		})
		if execErr != nil && ctx.Err() == nil {
			return true, execErr
		}
		return false, execErr
	})
	if refreshErr != nil {
		return fail(KindIndexRefreshFailed, "", refreshErr)
	}
	sm.advance(stateIndexRefreshed)

	// Step 4: install every package in one atomic request. Never retried:
	// install failures indicate missing packages or dependency conflicts,
	// not transience.
	logger.Debug("installing packages", "count", len(desc.Packages))
	installStart := logs.buf.Len()
	if err := p.engine.Exec(ctx, id, container.ExecOptions{
		Command: installCommand(desc),
		Env:     env,
		Stdout:  logs,
		Stderr:  logs,
	}); err != nil {
		pkg := firstFailedPackage(logs.String()[installStart:])
		return fail(KindPackageInstallFailed, pkg, err)
	}
	sm.advance(statePackagesInstalled)

	// Step 5: snapshot the provisioned filesystem under the cache tag so
	// the next run with the same descriptor reuses it.
	changes := []string{fmt.Sprintf("LABEL %s=%q", tripleLabel, desc.TargetTriple)}
	if desc.NonInteractive {
		changes = append(changes, "ENV DEBIAN_FRONTEND=noninteractive")
	}
	if err := p.engine.Commit(ctx, id, tag, changes); err != nil {
		sm.fail()
		// Commit failures outside a context expiry are engine trouble, not
		// one of the classified step failures.
		if kind := classifyKind(ctx, err, ""); kind != "" {
			return &Result{Logs: logs.String()}, &EnvironmentError{Kind: kind, Image: tag, Err: err}
		}
		return &Result{Logs: logs.String()}, fmt.Errorf("failed to commit provisioned environment %q: %w", tag, err)
	}

	logger.Info("environment provisioned", "image", tag, "state", sm.state())
	return &Result{Success: true, ImageTag: tag, Logs: logs.String()}, nil
}
