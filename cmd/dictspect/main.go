// Command dictspect is a dictionary inspector running against the reference
// engine. It executes small scripts of container commands, or drives them
// interactively through a TUI, and reports which engine capabilities each
// command exercised. It exists to answer "what does this binding call do on
// the wire" without attaching a debugger to a real engine.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/kestrel-engine/kestrel-go/enginetest"
	"github.com/kestrel-engine/kestrel-go/ffi"
)

func main() {
	var (
		script      = flag.String("script", "", "File of commands to execute, one per line")
		native      = flag.Bool("native", true, "Expose the native dictionary get-or-add capability")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
	)
	flag.Parse()

	eng := enginetest.New(enginetest.WithNativeGetOrAdd(*native))
	ffi.Load(eng.Table())

	if *interactive {
		if !term.IsTerminal(int(os.Stdin.Fd())) {
			fmt.Fprintln(os.Stderr, "Error: interactive mode needs a terminal")
			os.Exit(1)
		}
		if err := runInteractive(eng); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := runScript(eng, *script); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runScript(eng *enginetest.Engine, script string) error {
	in := os.Stdin
	if script != "" {
		f, err := os.Open(script)
		if err != nil {
			return fmt.Errorf("open script: %w", err)
		}
		defer f.Close()
		in = f
	}

	s := newSession(eng)
	defer s.Close()

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out, err := s.Eval(line)
		if err != nil {
			fmt.Printf("! %s: %v\n", line, err)
			continue
		}
		fmt.Printf("> %s\n%s\n", line, out)
	}
	return scanner.Err()
}
