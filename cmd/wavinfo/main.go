package main

import (
	"flag"
	"fmt"
	"os"
)

func main() {
	check := flag.Bool("check", false, "Fail unless the header sizes match the file")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: wavinfo [options] file.wav...\n\nPrints format, length and peak level of WAV recordings.\n\nOptions:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  wavinfo recording-1760000000.wav\n")
		fmt.Fprintf(os.Stderr, "  wavinfo -check recordings/*.wav\n")
	}
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(1)
	}

	failed := 0
	for _, path := range flag.Args() {
		info, err := Inspect(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			failed++
			continue
		}
		fmt.Println(info)
		if *check {
			if err := checkLayout(info); err != nil {
				fmt.Fprintf(os.Stderr, "%s: check failed: %v\n", path, err)
				failed++
			}
		}
	}
	if failed > 0 {
		os.Exit(1)
	}
}
