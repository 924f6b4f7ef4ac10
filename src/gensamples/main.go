package main

import (
	"context"
	"flag"
	"log"
	"math"
	"math/rand"
	"path/filepath"

	"github.com/jinjor/desktop-granular/src/sample"
	"golang.org/x/sync/errgroup"
)

const sampleRate = 48000
const seconds = 4
const fundamental = 110.0

func main() {
	flag.Parse()
	dir := flag.Arg(0)
	if dir == "" {
		panic("dir is not passed")
	}
	log.SetFlags(log.Lshortfile)

	ctx := context.Background()
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		return generate(filepath.Join(dir, "sine.wav"), sineAt)
	})
	g.Go(func() error {
		return generate(filepath.Join(dir, "saw.wav"), sawAt)
	})
	g.Go(func() error {
		rng := rand.New(rand.NewSource(1))
		return generate(filepath.Join(dir, "noise.wav"), func(float64) float64 {
			return rng.Float64()*2 - 1
		})
	})
	err := g.Wait()
	if err != nil {
		log.Fatalf("error: %v\n", err)
	}
	log.Println("Successfully generated samples.")
}

func generate(path string, f func(t float64) float64) error {
	samples := make([]float32, sampleRate*seconds)
	for i := range samples {
		samples[i] = float32(0.5 * f(float64(i)/sampleRate))
	}
	log.Printf("generated %s\n", path)
	return sample.WriteFile(path, sampleRate, samples)
}

func sineAt(t float64) float64 {
	return math.Sin(2 * math.Pi * fundamental * t)
}

// sawAt sums partials up to nyquist so the file does not alias.
func sawAt(t float64) float64 {
	phase := 2 * math.Pi * fundamental * t
	sum := 0.0
	for n := 1; float64(n)*fundamental < sampleRate/2; n++ {
		x := float64(n)
		sum += math.Sin(x*phase) / x
	}
	return sum * 2 / math.Pi
}
