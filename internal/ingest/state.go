package ingest

import (
	"time"

	"github.com/feichai0017/meeting-ingest/internal/models"
)

// State is a step of the per-artifact state machine:
// Received -> Validated -> FormatDetected -> Extracted -> Succeeded,
// with any step able to move to Failed.
type State string

const (
	StateReceived       State = "received"
	StateValidated      State = "validated"
	StateFormatDetected State = "format_detected"
	StateExtracted      State = "extracted"
	StateSucceeded      State = "succeeded"
	StateFailed         State = "failed"
)

// Outcome is either a result or an error, never both.
type Outcome struct {
	state    State
	failedAt State
	format   models.Format
	result   *models.ExtractionResult
	err      error
	elapsed  time.Duration
}

func succeeded(result *models.ExtractionResult, elapsed time.Duration) Outcome {
	return Outcome{state: StateSucceeded, format: result.Format, result: result, elapsed: elapsed}
}

func failed(at State, format models.Format, err error, elapsed time.Duration) Outcome {
	return Outcome{state: StateFailed, failedAt: at, format: format, err: err, elapsed: elapsed}
}

func (o Outcome) Succeeded() bool { return o.state == StateSucceeded }
func (o Outcome) Failed() bool    { return o.state == StateFailed }

// State is the terminal state, StateSucceeded or StateFailed.
func (o Outcome) State() State { return o.state }

// FailedAt is the last state reached before the failure. It is empty for
// successful outcomes.
func (o Outcome) FailedAt() State { return o.failedAt }

// Format is the detected format, empty when detection did not happen.
func (o Outcome) Format() models.Format { return o.format }

// Elapsed is the wall time spent in the pipeline.
func (o Outcome) Elapsed() time.Duration { return o.elapsed }

// Result returns the extraction result or the failure.
func (o Outcome) Result() (*models.ExtractionResult, error) {
	return o.result, o.err
}

// Err returns the failure, or nil.
func (o Outcome) Err() error { return o.err }
