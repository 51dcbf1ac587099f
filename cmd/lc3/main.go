// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"

	"github.com/ezrec/lc3/cpu"
	"github.com/ezrec/lc3/emulator"
	lc3io "github.com/ezrec/lc3/io"
)

func usage() {
	fmt.Fprintf(os.Stderr, "usage: %v [-v] [-c prog.asm [-o out.obj]] image-file ...\n", os.Args[0])
	flag.PrintDefaults()
}

func main() {
	var compile string
	var output string
	var verbose bool

	flag.StringVar(&compile, "c", "", ".asm file to assemble")
	flag.StringVar(&output, "o", "", "write assembled image to file, do not execute")
	flag.BoolVar(&verbose, "v", false, "Verbose mode")
	flag.Usage = usage

	flag.Parse()

	if compile == "" && flag.NArg() < 1 {
		usage()
		os.Exit(2)
	}

	emu := emulator.NewEmulator()
	emu.Verbose = verbose

	// Assemble a new program.
	if len(compile) != 0 {
		inf, err := os.Open(compile)
		if err != nil {
			log.Fatalf("%v: %v", compile, err)
		}

		asm := &cpu.Assembler{Verbose: verbose}
		for name, value := range emu.Defines() {
			asm.Predefine(name, value)
		}

		prog, err := asm.Parse(inf)
		inf.Close()
		if err != nil {
			log.Fatalf("%v: %v", compile, err)
		}

		if len(output) != 0 {
			err = os.WriteFile(output, prog.Image().Bytes(), 0o644)
			if err != nil {
				log.Fatalf("%v: %v", output, err)
			}
			return
		}

		emu.Program = prog
	}

	// Read every image before anything executes; a bad image means no
	// partial execution at all.
	var images []*cpu.Image
	for _, name := range flag.Args() {
		img, err := cpu.ReadImageFile(name)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v: failed to load image: %v: %v\n", os.Args[0], name, err)
			os.Exit(1)
		}
		images = append(images, img)
	}

	term := lc3io.NewTerminal()
	restore, err := term.Raw()
	if err != nil {
		log.Fatalf("%v: terminal: %v", os.Args[0], err)
	}
	defer restore()
	term.Start()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	emu.Console = term
	emu.Reset()
	for _, img := range images {
		emu.Load(img)
	}

	for {
		select {
		case <-ctx.Done():
			restore()
			os.Exit(130)
		default:
		}

		done, err := emu.Tick()
		if err != nil {
			restore()
			log.Fatal(err)
		}
		if done {
			break
		}
	}
}
