// Package diag formats and reports developer-facing error diagnostics.
package diag

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/IMakeBotsForYou/yomitan/internal/logging"
	"github.com/IMakeBotsForYou/yomitan/internal/message"
)

// Alerter surfaces a short human-readable summary to the user. The original
// implementation blocks on a prompt; implementations here may do whatever is
// appropriate for the host.
type Alerter interface {
	Alert(summary string)
}

// Reporter writes multi-line error diagnostics identifying the application.
type Reporter struct {
	app     string
	version string
	origin  func() string
	log     *slog.Logger
	alerter Alerter
}

// ReporterOption configures a Reporter.
type ReporterOption func(*Reporter)

// WithOrigin sets the provider of the originating location included in
// reports.
func WithOrigin(fn func() string) ReporterOption {
	return func(r *Reporter) {
		r.origin = fn
	}
}

// WithAlerter sets the user-facing alert sink.
func WithAlerter(a Alerter) ReporterOption {
	return func(r *Reporter) {
		r.alerter = a
	}
}

// WithLogger overrides the reporter's log sink.
func WithLogger(log *slog.Logger) ReporterOption {
	return func(r *Reporter) {
		r.log = log
	}
}

// NewReporter creates a Reporter for the named application version.
func NewReporter(app, version string, opts ...ReporterOption) *Reporter {
	r := &Reporter{
		app:     app,
		version: version,
		log:     logging.ForComponent(logging.CompDiag),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// LogError writes a multi-line diagnostic for err to the log sink. When
// alert is true, a short summary is additionally surfaced through the
// alerter.
func (r *Reporter) LogError(err error, alert bool) {
	r.log.Error("unexpected_error", slog.String("report", r.Format(err)))

	if alert && r.alerter != nil {
		r.alerter.Alert(fmt.Sprintf("%s v%s has encountered a problem. See the log for details.", r.app, r.version))
	}
}

// Format renders the diagnostic: an application line with the originating
// location, the error's string form, and its stack trace. A stack that
// already begins with the error string is deduplicated.
func (r *Reporter) Format(err error) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s v%s", r.app, r.version)
	if r.origin != nil {
		if o := r.origin(); o != "" {
			fmt.Fprintf(&b, " (%s)", o)
		}
	}
	b.WriteByte('\n')

	errStr := err.Error()
	b.WriteString(errStr)

	if stack := errorStack(err); stack != "" {
		if rest, found := strings.CutPrefix(stack, errStr); found {
			stack = strings.TrimLeft(rest, "\n")
		}
		if stack != "" {
			b.WriteByte('\n')
			b.WriteString(stack)
		}
	}
	return b.String()
}

// errorStack extracts a stack trace when err carries one.
func errorStack(err error) string {
	var me *message.Error
	if errors.As(err, &me) {
		return me.Stack
	}
	return ""
}
