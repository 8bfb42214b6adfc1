// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"crossforge-cli/internal/config"
	"crossforge-cli/internal/container"
	"crossforge-cli/internal/issue"
	"crossforge-cli/internal/platform"
	"crossforge-cli/internal/provision"
)

// engineFactory creates the container engine. Tests replace it to inject
// mock engines without a daemon.
var engineFactory = func(preferred config.ContainerEngine) (container.Engine, error) {
	if preferred == "" {
		return container.AutoDetectEngine()
	}
	return container.NewEngine(container.EngineType(preferred))
}

// resolveEngine creates the configured container engine, rendering the
// engine help catalog entry when none is available.
func resolveEngine(stderr io.Writer) (container.Engine, error) {
	engine, err := engineFactory(appCfg.ContainerEngine)
	if err != nil {
		var notAvail *container.ErrEngineNotAvailable
		if errors.As(err, &notAvail) {
			renderIssue(stderr, issue.EngineNotFoundId)
		}
		return nil, err
	}
	return engine, nil
}

// resolveForgefile loads the forgefile: the --file flag wins, then the
// configured path, then forgefile.cue in the current directory.
func resolveForgefile(flagPath string, stderr io.Writer) (*platform.Forgefile, error) {
	path := flagPath
	if path == "" {
		path = string(appCfg.Forgefile)
	}
	if path == "" {
		path = platform.DefaultForgefileName
	}

	if _, err := os.Stat(path); err != nil {
		renderIssue(stderr, issue.ForgefileNotFoundId)
		return nil, issue.NewErrorContext().
			WithOperation("load forgefile").
			WithResource(path).
			WithSuggestion("Run 'crossforge init' to create one").
			Wrap(err).
			Build()
	}

	ff, err := platform.LoadForgefile(path)
	if err != nil {
		renderIssue(stderr, issue.ForgefileParseErrorId)
		return nil, err
	}
	return ff, nil
}

// renderIssue prints an issue catalog entry to stderr. Rendering failures
// are logged, never fatal; the underlying error still reaches the user.
func renderIssue(stderr io.Writer, id issue.Id) {
	entry := issue.Get(id)
	if entry == nil {
		return
	}

	rendered, err := entry.Render(glamourStyle())
	if err != nil {
		slog.Warn("failed to render issue catalog entry", "issueID", id, "error", err)
		return
	}
	fmt.Fprint(stderr, rendered)
}

// glamourStyle maps the configured color scheme to a glamour style name.
func glamourStyle() string {
	switch appCfg.UI.ColorScheme {
	case config.ColorSchemeLight:
		return "light"
	default:
		return "dark"
	}
}

// issueIDFor maps a provisioning failure to its help catalog entry.
func issueIDFor(err error) issue.Id {
	switch {
	case errors.Is(err, provision.ErrBaseImageUnavailable):
		return issue.BaseImageUnavailableId
	case errors.Is(err, provision.ErrIndexRefreshFailed):
		return issue.IndexRefreshFailedId
	case errors.Is(err, provision.ErrPackageInstallFailed):
		return issue.PackageInstallFailedId
	case errors.Is(err, provision.ErrTimeout):
		return issue.ProvisionTimeoutId
	default:
		return 0
	}
}
