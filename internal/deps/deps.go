package deps

import (
	"fmt"
	"os/exec"
	"strings"
)

// Requirement defines an external dependency o2rconv relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Path        string
	Detail      string
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		results = append(results, checkBinary(req))
	}
	return results
}

func checkBinary(req Requirement) Status {
	cmd := strings.TrimSpace(req.Command)
	status := Status{
		Name:        req.Name,
		Command:     cmd,
		Description: strings.TrimSpace(req.Description),
		Optional:    req.Optional,
	}
	if cmd == "" {
		status.Detail = "command not configured"
		return status
	}
	resolved, err := exec.LookPath(cmd)
	if err != nil {
		status.Detail = fmt.Sprintf("binary %q not found", cmd)
		return status
	}
	status.Available = true
	status.Path = resolved
	return status
}

// TorchRequirement describes the conversion engine binary.
func TorchRequirement(binary string) Requirement {
	return Requirement{
		Name:        "Torch",
		Command:     binary,
		Description: "Required for ROM asset extraction and archive generation",
	}
}

// ResolveTorch returns the absolute path of the engine binary.
func ResolveTorch(binary string) (string, error) {
	status := checkBinary(TorchRequirement(binary))
	if !status.Available {
		return "", fmt.Errorf("torch: %s", status.Detail)
	}
	return status.Path, nil
}
