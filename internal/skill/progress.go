package skill

// CompletionThreshold is the number of on-target frames that completes a
// session.
const CompletionThreshold = 180

// Progress counts on-target frames towards a threshold. The counter never
// decreases.
type Progress struct {
	Counter   int `json:"counter"`
	Threshold int `json:"threshold"`
}

// NewProgress returns a tracker for threshold, or CompletionThreshold when
// threshold is not positive.
func NewProgress(threshold int) Progress {
	if threshold <= 0 {
		threshold = CompletionThreshold
	}
	return Progress{Threshold: threshold}
}

// Advance counts one on-target frame and reports whether the threshold has
// been reached.
func (p *Progress) Advance() bool {
	if !p.Complete() {
		p.Counter++
	}
	return p.Complete()
}

// Complete reports whether the threshold has been reached.
func (p Progress) Complete() bool {
	return p.Counter >= p.Threshold
}

// Fraction is the completed share in [0, 1].
func (p Progress) Fraction() float64 {
	if p.Threshold <= 0 {
		return 0
	}
	f := float64(p.Counter) / float64(p.Threshold)
	if f > 1 {
		return 1
	}
	return f
}
