package deps

import (
	"fmt"
	"strings"
)

// Requirement names an external tool a corpus build shells out to.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status is the outcome of locating one Requirement. Command holds the
// resolved executable when Available is true.
type Status struct {
	Requirement
	Available bool
	Detail    string
}

// CheckBinaries locates each requirement, looking in sidecarDir before PATH.
// Missing optional tools are reported with a note on what the build skips.
func CheckBinaries(requirements []Requirement, sidecarDir string) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		req.Command = strings.TrimSpace(req.Command)
		req.Description = strings.TrimSpace(req.Description)
		status := Status{Requirement: req}
		switch resolved, ok := ResolveBinary(req.Command, sidecarDir); {
		case req.Command == "":
			status.Detail = "no command configured"
		case !ok:
			status.Detail = missingDetail(req, sidecarDir)
		default:
			status.Command = resolved
			status.Available = true
		}
		results = append(results, status)
	}
	return results
}

func missingDetail(req Requirement, sidecarDir string) string {
	where := "PATH"
	if sidecarDir != "" {
		where = sidecarDir + " or PATH"
	}
	detail := fmt.Sprintf("%q not found in %s", req.Command, where)
	if req.Optional {
		detail += " (build continues without it)"
	}
	return detail
}
