package main

import (
	"bufio"
	"context"
	"flag"
	"io"
	"log"
	"net"
	"net/url"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/jinjor/subsynth/src/audio"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

var (
	sockFileName = flag.String("socket", "/tmp/subsynth.sock", "unix socket for commands and reports (empty: disabled)")
	useMidi      = flag.Bool("midi", true, "forward the first MIDI input port")
	useKeyboard  = flag.Bool("keyboard", false, "play notes from the computer keyboard")
	paramsFile   = flag.String("params", "", "JSON file with initial sound parameters")
	presetDir    = flag.String("presets", "", "preset directory containing _list.json")
	presetName   = flag.String("preset", "", "preset to load at startup")
	wavetableDir = flag.String("wavetables", "", "directory written by gentables (empty: build in memory)")
	polyphony    = flag.Int("polyphony", 0, "number of voices (0: keep the default)")
)

func main() {
	flag.Parse()
	log.SetFlags(log.Lshortfile)
	log.Printf("NumCPU: %v\n", runtime.NumCPU())

	ctx := context.Background()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	config := audio.DefaultConfig()
	config.WavetableDir = *wavetableDir
	synth, err := audio.NewSynth(config)
	if err != nil {
		log.Fatalf("error: %v\n", err)
	}
	var presets *presetManager
	if *presetDir != "" {
		presets = newPresetManager(*presetDir)
	}
	if err := initParams(synth, presets); err != nil {
		log.Fatalf("error: %v\n", err)
	}

	host, err := audio.NewAudio(synth)
	if err != nil {
		log.Fatalf("error: %v\n", err)
	}
	defer host.Close()

	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, os.Interrupt, syscall.SIGTERM)
	defer func() {
		signal.Stop(signalCh)
		cancel()
	}()
	done := ctx.Done()
	go func() {
		select {
		case sig := <-signalCh:
			log.Printf("Caught signal %s: shutting down...\n", sig)
			cancel()
		case <-done:
		}
	}()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return host.Start(ctx)
	})
	g.Go(func() error {
		return logStatus(ctx, synth)
	})
	if *useMidi {
		g.Go(func() error {
			return forwardMidi(ctx, host)
		})
	}
	if *useKeyboard {
		g.Go(func() error {
			return runKeyboard(ctx, synth, cancel)
		})
	}
	if *sockFileName != "" {
		g.Go(func() error {
			err := withIPCConnection(ctx, *sockFileName, func(conn net.Conn) error {
				out := &reportWriter{conn: conn}
				g, ctx := errgroup.WithContext(ctx)
				g.Go(func() error {
					return receiveCommands(ctx, conn, out, host, presets)
				})
				g.Go(func() error {
					return sendReports(ctx, out, host)
				})
				return g.Wait()
			})
			// the client going away ends the session
			cancel()
			return err
		})
	}
	if err := g.Wait(); err != nil {
		log.Fatalf("error: %v\n", err)
	}
	log.Println("main() ended.")
}

func initParams(synth *audio.Synth, presets *presetManager) error {
	if *paramsFile != "" {
		if err := loadParamsFile(synth, *paramsFile); err != nil {
			return err
		}
	}
	if *presetName != "" {
		if presets == nil {
			return errors.New("-preset needs -presets")
		}
		if err := presets.apply(synth, *presetName); err != nil {
			return err
		}
	}
	if *polyphony > 0 {
		return synth.Set([]string{"polyphony"}, strconv.Itoa(*polyphony))
	}
	return nil
}

func forwardMidi(ctx context.Context, host *audio.Audio) error {
	for data := range audio.ListenToMidiIn(ctx) {
		host.AddMidiEvent(data)
	}
	log.Println("forwardMidi() ended.")
	return nil
}

func logStatus(ctx context.Context, synth *audio.Synth) error {
	t := time.NewTicker(5 * time.Second)
	defer t.Stop()
	var dropped int64
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			status := synth.Status()
			if status.DroppedEvents != dropped {
				log.Printf("[WARN] %d events dropped so far\n", status.DroppedEvents)
				dropped = status.DroppedEvents
			}
		}
	}
}

// ----- IPC ----- //

func withIPCConnection(ctx context.Context, path string, f func(net.Conn) error) error {
	os.Remove(path)
	listener, err := new(net.ListenConfig).Listen(ctx, "unix", path)
	if err != nil {
		return errors.Wrap(err, "listen")
	}
	stop := context.AfterFunc(ctx, func() {
		listener.Close()
	})
	defer stop()
	defer func() {
		log.Println("Closing IPC...")
		err := listener.Close()
		if err != nil && !errors.Is(err, net.ErrClosed) {
			log.Printf("error while closing listener: %v", err)
		}
		os.Remove(path)
	}()
	log.Printf("start listening on %s...\n", path)
	conn, err := listener.Accept()
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return errors.Wrap(err, "accept")
	}
	stopConn := context.AfterFunc(ctx, func() {
		conn.Close()
	})
	defer stopConn()
	defer func() {
		err := conn.Close()
		if err != nil && !errors.Is(err, net.ErrClosed) {
			log.Printf("error while closing connection: %v", err)
		}
	}()
	return f(conn)
}

// reportWriter serializes lines written by the command and report loops.
type reportWriter struct {
	mu   sync.Mutex
	conn net.Conn
}

func (w *reportWriter) writeLine(s string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, err := w.conn.Write([]byte(s + "\n"))
	return err
}

func receiveCommands(ctx context.Context, conn net.Conn, out *reportWriter, host *audio.Audio, presets *presetManager) error {
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
			break loop
		}
		if err != nil {
			if ctx.Err() != nil {
				break loop
			}
			return errors.Wrap(err, "read command")
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
		if handled, err := handlePresetCommand(command, out, host.Synth(), presets); handled {
			if err != nil {
				log.Printf("failed to apply command %v: %v\n", command, err)
			}
			continue
		}
		host.CommandCh <- command
	}
	log.Println("receiveCommands() ended.")
	return nil
}

func parseCommand(line string) ([]string, error) {
	lineStr := strings.Split(strings.TrimSpace(line), " ")
	for i, item := range lineStr {
		escaped, err := url.QueryUnescape(item)
		if err != nil {
			return nil, err
		}
		lineStr[i] = escaped
	}
	return lineStr, nil
}

// handlePresetCommand answers "presets" with the preset list and applies
// "preset <name>". Other commands go to the synth.
func handlePresetCommand(command []string, out *reportWriter, synth *audio.Synth, presets *presetManager) (bool, error) {
	switch command[0] {
	case "presets":
		if presets == nil {
			return true, errors.New("no preset directory")
		}
		names, err := presets.getList()
		if err != nil {
			return true, err
		}
		escaped := make([]string, len(names))
		for i, name := range names {
			escaped[i] = url.QueryEscape(name)
		}
		return true, out.writeLine(strings.Join(append([]string{"presets"}, escaped...), " "))
	case "preset":
		if presets == nil {
			return true, errors.New("no preset directory")
		}
		if len(command) != 2 {
			return true, errors.Errorf("invalid preset %v", command)
		}
		return true, presets.apply(synth, command[1])
	}
	return false, nil
}

func sendReports(ctx context.Context, out *reportWriter, host *audio.Audio) error {
	t := time.NewTicker(time.Second / 60)
	defer t.Stop()
	frames := 0
loop:
	for {
		select {
		case <-ctx.Done():
			log.Println("sendReports() interrupted")
			break loop
		case <-t.C:
			frames++
			if frames%60 == 0 {
				status := host.Status()
				s := "status " + strconv.Itoa(status.ActiveVoices) +
					" " + strconv.Itoa(status.SoundingVoices) +
					" " + strconv.FormatInt(status.DroppedEvents, 10)
				if err := out.writeLine(s); err != nil {
					return errors.Wrap(err, "send status")
				}
			}
			result := host.GetFFT()
			if result == nil {
				continue
			}
			var sb strings.Builder
			sb.WriteString("fft")
			for _, value := range result {
				sb.WriteString(" ")
				sb.WriteString(strconv.FormatFloat(value, 'f', 6, 64))
			}
			if err := out.writeLine(sb.String()); err != nil {
				if ctx.Err() != nil {
					break loop
				}
				return errors.Wrap(err, "send fft")
			}
		}
	}
	log.Println("sendReports() ended.")
	return nil
}
