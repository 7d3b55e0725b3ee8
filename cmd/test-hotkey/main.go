// Command test-hotkey prints global hotkey events so a combo can be checked
// without starting SpeakFlow. Ctrl+C exits.
//
// Usage:
//
//	test-hotkey [--combo "<ctrl>+<space>"] [--mode toggle|hold]
package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	cli "github.com/spf13/pflag"

	"github.com/fedoraxfce/deskbin/internal/hotkey"
)

func main() {
	combo := cli.String("combo", "<ctrl>+<space>", "hotkey combo, pynput or plain notation")
	mode := cli.String("mode", hotkey.ModeToggle, "hotkey mode: toggle or hold")
	cli.Parse()

	keys, err := hotkey.ParseCombo(*combo)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	fmt.Printf("Listening for %s in %q mode. Ctrl+C to exit.\n", strings.Join(keys, "+"), *mode)

	listener := hotkey.NewListener(keys, *mode)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		fmt.Println("\nShutting down...")
		listener.Stop()
	}()

	go func() {
		n := 0
		for ev := range listener.Events() {
			n++
			switch ev.Type {
			case hotkey.EventStart:
				fmt.Printf("#%d start (would begin recording)\n", n)
			case hotkey.EventStop:
				fmt.Printf("#%d stop  (would transcribe)\n", n)
			}
		}
	}()

	// Blocks until stopped.
	listener.Start()
	// gohook's C cleanup can crash on a normal return.
	os.Exit(0)
}
