package media

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// CommandRunner executes external commands and returns stdout bytes.
type CommandRunner func(ctx context.Context, binary string, args ...string) ([]byte, error)

// DurationProber reports the playback length of a local video file.
type DurationProber interface {
	Probe(ctx context.Context, localPath string) (float64, error)
}

// FFProbe measures video duration using the ffprobe CLI tool.
type FFProbe struct {
	Binary  string
	Args    []string
	Run     CommandRunner
	Timeout time.Duration
}

// NewFFProbe constructs a DurationProber that shells out to ffprobe.
func NewFFProbe(binary string, timeout time.Duration) *FFProbe {
	if strings.TrimSpace(binary) == "" {
		binary = "ffprobe"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &FFProbe{
		Binary:  binary,
		Args:    []string{"-v", "error", "-show_entries", "format=duration", "-of", "json"},
		Run:     defaultCommandRunner,
		Timeout: timeout,
	}
}

// Probe executes ffprobe for the provided file and parses the JSON response.
func (p *FFProbe) Probe(ctx context.Context, localPath string) (float64, error) {
	if p == nil {
		return 0, errors.New("ffprobe not configured")
	}
	if p.Run == nil {
		p.Run = defaultCommandRunner
	}

	execCtx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()

	args := append([]string{}, p.Args...)
	args = append(args, localPath)

	out, err := p.Run(execCtx, p.Binary, args...)
	if err != nil {
		return 0, fmt.Errorf("ffprobe: %w", err)
	}

	var payload struct {
		Format struct {
			Duration string `json:"duration"`
		} `json:"format"`
	}
	if err := json.Unmarshal(out, &payload); err != nil {
		return 0, fmt.Errorf("parse ffprobe response: %w", err)
	}
	if payload.Format.Duration == "" {
		return 0, errors.New("ffprobe returned no duration")
	}

	duration, err := strconv.ParseFloat(payload.Format.Duration, 64)
	if err != nil || duration < 0 {
		return 0, fmt.Errorf("ffprobe returned invalid duration %q", payload.Format.Duration)
	}
	return duration, nil
}

func defaultCommandRunner(ctx context.Context, binary string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, binary, args...)
	return cmd.Output()
}
