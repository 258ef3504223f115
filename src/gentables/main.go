package main

import (
	"flag"
	"log"
	"os"

	"github.com/jinjor/subsynth/src/audio"
)

func main() {
	sampleRate := flag.Float64("samplerate", 48000, "sample rate the host will run at")
	flag.Parse()
	dir := flag.Arg(0)
	log.SetFlags(log.Lshortfile)
	if dir == "" {
		log.Fatalln("dir is not passed")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		log.Fatalf("error: %v\n", err)
	}
	tables, err := audio.BuildWavetables(*sampleRate)
	if err != nil {
		log.Fatalf("error: %v\n", err)
	}
	log.Println("generated saw and square waves")
	if err := tables.Save(dir); err != nil {
		log.Fatalf("error: %v\n", err)
	}
	log.Printf("saved %s and %s\n", audio.WavetableFiles.Saw, audio.WavetableFiles.Square)
	log.Println("Successfully generated wavetables.")
}
