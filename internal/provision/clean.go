// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"context"
	"errors"

	"crossforge-cli/internal/container"
)

// ListEnvironments returns every provisioned environment image under the
// configured tag prefix.
func ListEnvironments(ctx context.Context, engine container.Engine, cfg *Config) ([]container.ImageTag, error) {
	return engine.ListImages(ctx, cfg.TagPrefix+"/*")
}

// RemoveEnvironments removes the given provisioned images, continuing past
// individual failures and reporting them together. It returns the tags
// that were actually removed.
func RemoveEnvironments(ctx context.Context, engine container.Engine, tags []container.ImageTag) ([]container.ImageTag, error) {
	var (
		removed []container.ImageTag
		errs    []error
	)
	for _, tag := range tags {
		if err := engine.RemoveImage(ctx, tag, false); err != nil {
			errs = append(errs, err)
			continue
		}
		removed = append(removed, tag)
	}
	return removed, errors.Join(errs...)
}
