package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net"
	"net/url"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/jinjor/desktop-granular/src/audio"
	"github.com/jinjor/desktop-granular/src/granular"
	"golang.org/x/sync/errgroup"
)

var errDisconnected = errors.New("client disconnected")

var (
	sockFileName   = flag.String("socket", "/tmp/desktop-granular.sock", "IPC socket path")
	oscAddr        = flag.String("osc", "", "UDP address for OSC control, e.g. :9000 (disabled when empty)")
	midiPort       = flag.String("midi", "", "MIDI input port name (substring match, first port when empty)")
	noMidi         = flag.Bool("no-midi", false, "disable MIDI input")
	initialFile    = flag.String("load", "", "audio file to load on start")
	seed           = flag.Int64("seed", 0, "random seed (0 seeds from the clock)")
	maxGrains      = flag.Int("max-grains", 128, "grain pool size")
	captureSeconds = flag.Float64("capture-seconds", 10, "live capture length in seconds")
)

func main() {
	flag.Parse()
	log.SetFlags(log.Lshortfile)
	log.Printf("NumCPU: %v\n", runtime.NumCPU())

	ctx := context.Background()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	cfg := granular.DefaultConfig()
	cfg.Seed = *seed
	cfg.MaxGrains = *maxGrains
	cfg.CaptureSeconds = *captureSeconds
	a, err := audio.NewAudio(cfg)
	if err != nil {
		log.Fatalf("error: %v\n", err)
	}
	defer a.Close()
	if *initialFile != "" {
		a.CommandCh <- []string{"load", *initialFile}
	}

	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, os.Interrupt, syscall.SIGTERM)
	defer func() {
		signal.Stop(signalCh)
		cancel()
	}()
	go func() {
		sig := <-signalCh
		log.Printf("Caught signal %s: shutting down...\n", sig)
		cancel()
	}()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.Start(ctx)
	})
	if *oscAddr != "" {
		g.Go(func() error {
			return audio.ServeOSC(ctx, *oscAddr, a.CommandCh)
		})
	}
	if !*noMidi {
		g.Go(func() error {
			for data := range audio.ListenToMidiIn(ctx, *midiPort) {
				a.AddMidiEvent(data)
			}
			return nil
		})
	}
	g.Go(func() error {
		return withIPCConnection(ctx, func(ctx context.Context, conn net.Conn) error {
			g, ctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				return receiveCommands(ctx, conn, a.CommandCh)
			})
			g.Go(func() error {
				return sendReports(ctx, conn, a)
			})
			if err := g.Wait(); err != errDisconnected {
				return err
			}
			return nil
		})
	})
	if err := g.Wait(); err != nil {
		log.Fatalf("error: %v\n", err)
	}
	log.Println("main() ended.")
}

// withIPCConnection serves one client at a time until ctx is done.
func withIPCConnection(ctx context.Context, f func(context.Context, net.Conn) error) error {
	os.Remove(*sockFileName)
	listener, err := new(net.ListenConfig).Listen(ctx, "unix", *sockFileName)
	if err != nil {
		return err
	}
	defer func() {
		log.Println("Closing IPC...")
		os.Remove(*sockFileName)
	}()
	go func() {
		<-ctx.Done()
		err := listener.Close()
		if err != nil {
			log.Printf("error while closing listener: %v", err)
		}
	}()
	for {
		log.Printf("start listening...\n")
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		err = serveConnection(ctx, conn, f)
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

func serveConnection(ctx context.Context, conn net.Conn, f func(context.Context, net.Conn) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		<-ctx.Done()
		err := conn.Close()
		if err != nil && !strings.Contains(err.Error(), "use of closed") {
			log.Printf("error while closing connection: %v", err)
		}
	}()
	log.Println("client connected")
	err := f(ctx, conn)
	log.Println("client disconnected")
	return err
}

// receiveCommands returns when the client hangs up, which also stops the
// report loop for this connection.
func receiveCommands(ctx context.Context, conn net.Conn, commandCh chan<- []string) error {
	reader := bufio.NewReader(conn)
	var line []byte
loop:
	for {
		select {
		case <-ctx.Done():
			log.Println("Connection interrupted")
			break loop
		default:
		}
		next, isPrefix, err := reader.ReadLine()
		if err == io.EOF {
			return errDisconnected
		}
		if err != nil {
			if ctx.Err() != nil {
				break loop
			}
			return err
		}
		line = append(line, next...)
		if isPrefix {
			continue
		}
		command, err := parseCommand(string(line))
		line = []byte{}
		if err != nil {
			log.Printf("invalid command: %v\n", err)
			continue
		}
		select {
		case commandCh <- command:
		case <-ctx.Done():
			break loop
		}
		log.Printf("received: %v\n", command)
	}
	log.Println("receiveCommands() ended.")
	return nil
}

func parseCommand(line string) ([]string, error) {
	lineStr := strings.Split(line, " ")
	for i, item := range lineStr {
		escaped, err := url.QueryUnescape(item)
		if err != nil {
			return nil, err
		}
		lineStr[i] = escaped
	}
	return lineStr, nil
}

func sendReports(ctx context.Context, conn net.Conn, audio *audio.Audio) error {
	t := time.NewTicker(time.Second / 60)
	defer t.Stop()
	w := bufio.NewWriter(conn)
	wasRecording := false
loop:
	for {
		select {
		case <-ctx.Done():
			log.Println("sendReports() interrupted")
			break loop
		case <-t.C:
			w.WriteString(fftReport(audio.GetFFT()))
			snap := audio.Snapshot()
			w.WriteString(grainsReport(&snap))
			w.WriteString(statusReport(&snap))
			if audio.Changes.Has("status") || snap.Recording || wasRecording {
				audio.Changes.Delete("status")
				w.WriteString(waveformReport(audio.Waveform()))
			}
			wasRecording = snap.Recording
			if audio.Changes.Has("data") {
				audio.Changes.Delete("data")
				w.WriteString("state " + string(audio.ToJSON()) + "\n")
			}
			if err := w.Flush(); err != nil {
				if ctx.Err() != nil {
					break loop
				}
				return err
			}
		}
	}
	log.Println("sendReports() ended.")
	return nil
}

func fftReport(result []float64) string {
	var b strings.Builder
	b.WriteString("fft")
	for _, value := range result {
		b.WriteString(" " + strconv.FormatFloat(value, 'f', 6, 64))
	}
	b.WriteString("\n")
	return b.String()
}

func grainsReport(s *granular.Snapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "grains %.4f %.4f %.4f", s.LoopStart, s.LoopEnd, s.SpawnPosition)
	for _, g := range s.Grains {
		fmt.Fprintf(&b, " %.4f:%.3f:%.3f", g.Position, g.Shape, g.Life)
	}
	b.WriteString("\n")
	return b.String()
}

func statusReport(s *granular.Snapshot) string {
	return fmt.Sprintf("status %t %t %d %g %t\n", s.Loading, s.Recording, s.Length, s.SampleRate, s.RawVoltage)
}

func waveformReport(peaks []granular.Peak) string {
	var b strings.Builder
	b.WriteString("waveform")
	for _, p := range peaks {
		fmt.Fprintf(&b, " %.4f:%.4f", p.Min, p.Max)
	}
	b.WriteString("\n")
	return b.String()
}
