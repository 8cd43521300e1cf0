package version

import (
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/rxtech-lab/argo-ta/pkg/errors"
)

// CheckRequirement reports whether toolVersion satisfies the semver
// constraint a config declares, such as "~0.2" or ">= 0.2, < 1.0".
// Development builds ("main") satisfy every constraint, and an empty
// constraint accepts every version.
func CheckRequirement(toolVersion, constraint string) error {
	toolVersion = strings.TrimPrefix(toolVersion, "v")
	constraint = strings.TrimSpace(constraint)

	if toolVersion == "main" || constraint == "" {
		return nil
	}

	current, err := semver.NewVersion(toolVersion)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidParameter, err, "invalid argo-ta version '%s'", toolVersion)
	}

	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "invalid version requirement '%s'", constraint)
	}

	if ok, reasons := c.Validate(current); !ok {
		msg := make([]string, 0, len(reasons))
		for _, r := range reasons {
			msg = append(msg, r.Error())
		}

		return errors.Newf(errors.ErrCodeInvalidConfiguration,
			"argo-ta %s does not satisfy requirement '%s': %s", current, constraint, strings.Join(msg, "; "))
	}

	return nil
}
