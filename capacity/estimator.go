package capacity

import "math"

// Estimator tuning. The gain schedule ramps from 0 to maxGain over the first
// three observations after a reset, so the filter is prediction-dominated
// right after a discontinuity and measurement-responsive soon afterwards.
const (
	// InitialGuess is the keypoint count assumed before any measurement.
	InitialGuess = 600

	// MaxGrowth is the slack factor applied to estimates when sizing the
	// encoder: predicted count * MaxGrowth keypoints are provisioned, trading
	// wasted texture space for fewer resizes and tolerance to sudden bursts.
	MaxGrowth = 1.5

	maxGain  = 0.85
	gainStep = 0.30
)

// CountEstimator predicts the next frame's keypoint count from per-frame
// measurements. It is a double (linear-trend) exponential filter: each call
// extrapolates the recent trend, then blends in the fresh measurement with
// an adaptive gain.
//
// A CountEstimator is owned by a single downloader and must not be shared
// between pipelines or called concurrently.
type CountEstimator struct {
	gain      float64
	state     float64
	prevState float64
}

// NewCountEstimator returns an estimator primed with InitialGuess and a
// zero gain, as if Reset had just been called.
func NewCountEstimator() *CountEstimator {
	e := &CountEstimator{}
	e.Reset()
	return e
}

// Estimate feeds one measured keypoint count and returns the predicted
// count for the next frame.
func (e *CountEstimator) Estimate(measurement int) int {
	// Linear extrapolation from the last two states.
	prediction := e.state + (e.state - e.prevState)
	if prediction < 0 {
		prediction = 0
	}

	// Ramp the gain, then blend prediction and measurement; gain is the
	// trust in the measurement. Ramping first keeps the first post-reset
	// estimate between the initial guess and the measurement instead of
	// ignoring the measurement outright.
	e.gain = math.Min(maxGain, e.gain+gainStep)
	newState := prediction + e.gain*(float64(measurement)-prediction)

	e.prevState = e.state
	e.state = newState

	return int(math.Round(e.state))
}

// Reset discards all history and forces the gain back to zero. Call it when
// the caller signals a discontinuity, such as a resolution change.
func (e *CountEstimator) Reset() {
	e.gain = 0
	e.state = InitialGuess
	e.prevState = InitialGuess
}
