package granular

// ----- Grain Scheduler ----- //

// minLoopWidth is the loop width below which wrapped heads snap to the
// loop start instead of taking a modulo.
const minLoopWidth = 1e-5

// scheduler owns the grain pool. grains never grows past its initial
// capacity, so a full pool skips spawns instead of allocating.
type scheduler struct {
	grains        []Grain
	spawnTimer    float64
	spawnPosition float64
}

func newScheduler(maxGrains int) scheduler {
	return scheduler{grains: make([]Grain, 0, maxGrains)}
}

func (s *scheduler) clear() {
	s.grains = s.grains[:0]
}

// spawnRequest carries the per-tick values a new grain is built from.
type spawnRequest struct {
	values      *modulated
	controls    *Controls
	pitchOffset float64
	region      loopRegion
}

// step runs one tick: spawn if due, render every grain, reap the dead.
func (s *scheduler) step(buf *sampleBuffer, req *spawnRequest, tempo *tempoQuantizer, rnd randomizer, sampleTime float64) float64 {
	s.spawnPosition = req.values.position
	s.spawnTimer -= sampleTime
	if s.spawnTimer <= 0 {
		density := rnd.spread(req.values.density, req.controls.RandomDensity)
		s.spawnTimer = tempo.spawnPeriod(density)
		if len(s.grains) < cap(s.grains) {
			s.grains = append(s.grains, s.spawn(buf, req, tempo, rnd))
		}
	}

	sum := 0.0
	for i := range s.grains {
		g := &s.grains[i]
		sum += buf.at(g.Position) * g.Envelope()
		g.Advance(req.region.start, req.region.end)
	}
	// n counts every grain rendered above, including the ones about to be
	// reaped, so an empty pool mixes to exactly 0
	sounding := len(s.grains)
	s.reap()
	return mixdown(sum, sounding)
}

func (s *scheduler) spawn(buf *sampleBuffer, req *spawnRequest, tempo *tempoQuantizer, rnd randomizer) Grain {
	c := req.controls
	v := req.values
	position := rnd.spread(v.position, c.RandomPosition)
	position = clamp(position, req.region.startNorm, req.region.endNorm)
	octaves := pitchOctaves(v.pitch) + req.pitchOffset + rnd.bipolar()*c.RandomPitch
	seconds := tempo.grainDuration(rnd.spread(v.size, c.RandomSize))
	shape := rnd.spread(v.shape, c.RandomShape)
	return newGrain(
		position*float64(buf.length-1),
		seconds,
		buf.sampleRate,
		octaves,
		shape,
	)
}

// reap compacts live grains to the front, keeping their order.
func (s *scheduler) reap() {
	live := s.grains[:0]
	for _, g := range s.grains {
		if g.Alive() {
			live = append(live, g)
		}
	}
	s.grains = live
}
