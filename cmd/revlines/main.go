package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"syscall"

	"golang.org/x/crypto/ssh/terminal"

	"github.com/ltroja/revlines"
)

const version = "revlines <unversioned>"

func main() {
	var logfile string
	var encodingName string
	var blockSize int
	var maxLines int
	flag.StringVar(&logfile, "debug-logfile", "", "debug logfile")
	flag.StringVar(&encodingName, "encoding", "", "character encoding of the input (default utf-8)")
	flag.IntVar(&blockSize, "block-size", 0, "bytes loaded per read (default 4096)")
	flag.IntVar(&maxLines, "n", 0, "maximum number of lines to print (0 means all)")
	forward := flag.Bool("forward", false, "print lines first to last instead of last to first")
	vFlag := flag.Bool("version", false, "version")
	flag.Parse()

	if *vFlag {
		fmt.Println(version)
		return
	}

	logger := revlines.Logger(revlines.NullLogger{})
	if logfile != "" {
		lg, err := revlines.FileLogger(logfile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Could not open debug logfile %q: %s\n", logfile, err)
			os.Exit(1)
		}
		logger = lg
	}

	var src revlines.Source
	switch len(flag.Args()) {
	case 0:
		if terminal.IsTerminal(syscall.Stdin) {
			fmt.Fprintf(os.Stderr, "Missing filename (use \"revlines --help\" for usage)\n")
			os.Exit(1)
		}
		buff := revlines.NewBufferSource()
		if _, err := buff.Spool(os.Stdin); err != nil {
			fmt.Fprintf(os.Stderr, "Could not read stdin: %s\n", err)
			os.Exit(1)
		}
		src = buff
	case 1:
		var err error
		src, err = revlines.NewFileSource(flag.Args()[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Could not open file: %s\n", err)
			os.Exit(1)
		}
	default:
		flag.Usage()
		os.Exit(1)
	}

	config := revlines.Config{BlockSize: blockSize, Encoding: encodingName, Logger: logger}
	var reader revlines.LineReader
	var err error
	if *forward {
		reader, err = revlines.NewForwardLineReader(src, config)
	} else {
		reader, err = revlines.NewBackwardLineReader(src, config)
	}
	if err != nil {
		src.Close()
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}

	out := bufio.NewWriter(os.Stdout)
	for n := 0; maxLines == 0 || n < maxLines; n++ {
		line, err := reader.ReadLine()
		if err == io.EOF {
			break
		}
		if err != nil {
			out.Flush()
			reader.Close()
			fmt.Fprintf(os.Stderr, "%s\n", err)
			os.Exit(1)
		}
		fmt.Fprintln(out, line)
	}
	out.Flush()
	reader.Close()
}
