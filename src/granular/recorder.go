package granular

// ----- Recorder ----- //

// recorder captures the audio input into a tape it owns. The tape is
// reused between captures and only reallocated when it is too small.
type recorder struct {
	tape           *sampleBuffer
	head           int
	wrapped        bool
	active         bool
	gateHigh       bool
	captureSeconds float64
	minSamples     int
}

// gate follows the record gate and reports its edges. A falling edge
// only stops an active capture.
func (r *recorder) gate(high bool) (started, stopped bool) {
	started = high && !r.gateHigh
	stopped = !high && r.gateHigh && r.active
	r.gateHigh = high
	return started, stopped
}

func (r *recorder) capacity(sampleRate float64) int {
	n := int(r.captureSeconds * sampleRate)
	if n < 1 {
		n = 1
	}
	return n
}

func (r *recorder) start(sampleRate float64) *sampleBuffer {
	n := r.capacity(sampleRate)
	if r.tape == nil {
		r.tape = &sampleBuffer{}
	}
	if cap(r.tape.samples) < n {
		r.tape.samples = make([]float32, n)
	} else {
		r.tape.samples = r.tape.samples[:n]
		clear(r.tape.samples)
	}
	r.tape.length = 0
	r.tape.sampleRate = sampleRate
	r.tape.rawVoltage = true
	r.head = 0
	r.wrapped = false
	r.active = true
	return r.tape
}

func (r *recorder) write(v float64) {
	r.tape.samples[r.head] = float32(v)
	r.head++
	if r.head >= len(r.tape.samples) {
		r.head = 0
		r.wrapped = true
	}
}

func (r *recorder) stop() {
	r.active = false
	r.tape.length = r.finalLength()
}

// finalLength is the full tape once it has wrapped, otherwise the
// recorded span floored to minSamples.
func (r *recorder) finalLength() int {
	size := len(r.tape.samples)
	if r.wrapped {
		return size
	}
	n := r.head
	if n < r.minSamples {
		n = r.minSamples
	}
	if n > size {
		n = size
	}
	return n
}

// cancel drops capture without finalizing the tape. The gate level is
// kept so a held gate does not restart capture.
func (r *recorder) cancel() {
	r.active = false
}
