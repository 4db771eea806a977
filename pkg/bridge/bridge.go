// Package bridge runs the external helper process that translates
// between the YAML on-disk format and the canonical plist
// intermediate. Each call spawns one short-lived process; a
// fixed-size pool bounds how many run at once, and every call carries
// a deadline and a payload size gate checked before the spawn.
package bridge

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/repoform/repoform/pkg/errors"
	"github.com/repoform/repoform/pkg/logging"
)

// Mode selects the direction of a bridge invocation.
type Mode string

const (
	// ModeDecode turns YAML text into the canonical intermediate.
	ModeDecode Mode = "decode"
	// ModeEncode turns the canonical intermediate into YAML text.
	ModeEncode Mode = "encode"
)

// Defaults used when Options leaves a field zero.
const (
	DefaultPoolSize   = 3
	DefaultTimeout    = 10 * time.Second
	DefaultMaxPayload = 5 * 1024 * 1024 // matches the helper's own gate

	// stderr is trimmed to this many bytes in diagnostics.
	maxDiagnostic = 2048
)

// Options configures a Bridge.
type Options struct {
	// Executable is the helper binary or script to invoke.
	Executable string
	// PoolSize bounds concurrent helper processes.
	PoolSize int
	// Timeout is the per-invocation deadline.
	Timeout time.Duration
	// MaxPayload is the largest input, in bytes, handed to the helper.
	MaxPayload int64

	// Logger overrides the component logger. Nil means default; a
	// caller that wants silence passes zerolog.Nop().
	Logger *zerolog.Logger
}

// Bridge invokes the helper process with bounded concurrency.
// It is safe for concurrent use.
type Bridge struct {
	executable string
	timeout    time.Duration
	maxPayload int64
	slots      chan struct{}
	logger     zerolog.Logger
}

// New creates a Bridge from opts, applying defaults for zero fields.
func New(opts Options) *Bridge {
	logger := logging.GetLogger("bridge")
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	poolSize := opts.PoolSize
	if poolSize <= 0 {
		poolSize = DefaultPoolSize
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	maxPayload := opts.MaxPayload
	if maxPayload <= 0 {
		maxPayload = DefaultMaxPayload
	}
	return &Bridge{
		executable: opts.Executable,
		timeout:    timeout,
		maxPayload: maxPayload,
		slots:      make(chan struct{}, poolSize),
		logger:     logger,
	}
}

// Decode runs the helper over YAML content and returns the canonical
// intermediate (an XML plist) from its stdout.
func (b *Bridge) Decode(ctx context.Context, content []byte) ([]byte, error) {
	return b.stageAndInvoke(ctx, content, "repoform-decode-*.yaml", ModeDecode)
}

// Encode runs the helper over a canonical intermediate payload and
// returns YAML text from its stdout.
func (b *Bridge) Encode(ctx context.Context, intermediate []byte) ([]byte, error) {
	return b.stageAndInvoke(ctx, intermediate, "repoform-encode-*.plist", ModeEncode)
}

// stageAndInvoke writes the payload to a temporary file, hands its
// path to the helper, and removes it when the call finishes. The size
// gate runs before anything touches the disk.
func (b *Bridge) stageAndInvoke(ctx context.Context, payload []byte, pattern string, mode Mode) ([]byte, error) {
	if int64(len(payload)) > b.maxPayload {
		return nil, errors.Newf(errors.ErrSizeExceeded,
			"payload %d bytes exceeds bridge limit %d", len(payload), b.maxPayload)
	}
	tmp, err := os.CreateTemp("", pattern)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrBridgeProcessFailed, "cannot stage bridge payload")
	}
	tmpName := tmp.Name()
	defer func() {
		_ = os.Remove(tmpName)
	}()
	if _, err := tmp.Write(payload); err != nil {
		_ = tmp.Close()
		return nil, errors.Wrap(err, errors.ErrBridgeProcessFailed, "cannot stage bridge payload")
	}
	if err := tmp.Close(); err != nil {
		return nil, errors.Wrap(err, errors.ErrBridgeProcessFailed, "cannot stage bridge payload")
	}
	return b.invoke(ctx, tmpName, mode)
}

// invoke acquires a pool slot, spawns the helper and collects its
// output. The configured timeout starts after the slot is acquired so
// queueing under load does not eat into the helper's run time.
func (b *Bridge) invoke(ctx context.Context, input string, mode Mode) ([]byte, error) {
	if err := b.checkExecutable(); err != nil {
		return nil, err
	}

	select {
	case b.slots <- struct{}{}:
	case <-ctx.Done():
		return nil, errors.Wrap(ctx.Err(), errors.ErrBridgeTimeout, "canceled while waiting for a bridge slot")
	}
	defer func() { <-b.slots }()

	// The run deadline is deliberately detached from the caller's
	// context: a caller that gives up mid-call discards the result,
	// but the helper is allowed to run to completion or timeout
	// rather than being killed mid-write with half-consumed pipes.
	runCtx, cancel := context.WithTimeout(context.Background(), b.timeout)
	defer cancel()

	start := time.Now()
	cmd := exec.CommandContext(runCtx, b.executable, input, string(mode))
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	b.logger.Debug().
		Str("mode", string(mode)).
		Str("input", input).
		Dur("duration", time.Since(start)).
		Bool("ok", err == nil).
		Msg("Bridge invocation finished")

	if runCtx.Err() == context.DeadlineExceeded {
		return nil, errors.Newf(errors.ErrBridgeTimeout,
			"helper exceeded %s deadline", b.timeout).
			WithDetail("mode", string(mode)).
			WithDetail("input", input)
	}
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrBridgeProcessFailed,
			"helper failed: %s", trimDiagnostic(stderr.Bytes())).
			WithDetail("mode", string(mode)).
			WithDetail("input", input)
	}
	if stdout.Len() == 0 {
		return nil, errors.New(errors.ErrBridgeProcessFailed, "helper produced no output").
			WithDetail("mode", string(mode))
	}
	if stderr.Len() > 0 {
		b.logger.Warn().
			Str("mode", string(mode)).
			Str("diagnostic", trimDiagnostic(stderr.Bytes())).
			Msg("Bridge helper reported warnings")
	}
	return stdout.Bytes(), nil
}

// checkExecutable verifies the helper exists and is runnable without
// spawning it.
func (b *Bridge) checkExecutable() error {
	if b.executable == "" {
		return errors.New(errors.ErrBridgeMissingExecutable, "no bridge executable configured")
	}
	if strings.ContainsRune(b.executable, os.PathSeparator) {
		info, err := os.Stat(b.executable)
		if err != nil {
			return errors.Wrapf(err, errors.ErrBridgeMissingExecutable,
				"bridge executable %s not found", b.executable)
		}
		if info.Mode()&0111 == 0 {
			return errors.Newf(errors.ErrBridgeMissingExecutable,
				"bridge executable %s is not executable", b.executable)
		}
		return nil
	}
	if _, err := exec.LookPath(b.executable); err != nil {
		return errors.Wrapf(err, errors.ErrBridgeMissingExecutable,
			"bridge executable %s not found in PATH", b.executable)
	}
	return nil
}

func trimDiagnostic(stderr []byte) string {
	s := strings.TrimSpace(string(stderr))
	if len(s) > maxDiagnostic {
		s = s[:maxDiagnostic] + "..."
	}
	return s
}
