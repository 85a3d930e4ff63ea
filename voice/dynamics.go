package voice

import "math"

// Limiter settings shared by every recipe
const (
	LimiterThreshold = -10.0 // dB
	LimiterKnee      = 40.0  // dB
	LimiterRatio     = 12.0
	limiterAttack    = 0.003 // seconds
	limiterRelease   = 0.25
	ceiling          = 1.0
)

// limiter is a feed-forward soft-knee compressor with a hard ceiling after it.
type limiter struct {
	threshold, knee, ratio float64
	attackCoef, releaseCoef float64
	reduction               float64 // current gain reduction in dB, >= 0
}

func newLimiter(sampleRate int) *limiter {
	sr := float64(sampleRate)
	return &limiter{
		threshold:   LimiterThreshold,
		knee:        LimiterKnee,
		ratio:       LimiterRatio,
		attackCoef:  math.Exp(-1 / (limiterAttack * sr)),
		releaseCoef: math.Exp(-1 / (limiterRelease * sr)),
	}
}

// curve is the static gain computer: input level in dB to output level in dB.
func (l *limiter) curve(in float64) float64 {
	over := in - l.threshold
	switch {
	case 2*over < -l.knee:
		return in
	case 2*math.Abs(over) <= l.knee:
		k := over + l.knee/2
		return in + (1/l.ratio-1)*k*k/(2*l.knee)
	default:
		return l.threshold + over/l.ratio
	}
}

func (l *limiter) process(x float64) float64 {
	level := math.Abs(x)
	target := 0.0
	if level > 1e-9 {
		in := 20 * math.Log10(level)
		target = in - l.curve(in)
	}
	coef := l.releaseCoef
	if target > l.reduction {
		coef = l.attackCoef
	}
	l.reduction = coef*l.reduction + (1-coef)*target

	y := x * math.Pow(10, -l.reduction/20)
	if y > ceiling {
		y = ceiling
	} else if y < -ceiling {
		y = -ceiling
	}
	return y
}
