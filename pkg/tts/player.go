package tts

import (
	"context"
	"errors"
	"os/exec"
	"strings"
)

// ErrNoPlayerCommand is returned by CommandPlayer when no command is set.
var ErrNoPlayerCommand = errors.New("no audio player command configured")

// CommandPlayer plays audio by running an external program with the audio
// URL appended as the last argument, e.g. "ffplay -nodisp -autoexit".
type CommandPlayer struct {
	Command string
}

// Play runs the command and waits for it to exit.
func (p CommandPlayer) Play(ctx context.Context, audioURL string) error {
	fields := strings.Fields(p.Command)
	if len(fields) == 0 {
		return ErrNoPlayerCommand
	}

	args := append(fields[1:], audioURL)
	return exec.CommandContext(ctx, fields[0], args...).Run()
}
