// Command test-inject pastes or types a sample sentence after a countdown,
// for checking the injection method against a real window.
//
// Usage:
//
//	test-inject [--method paste|type|xdotool] [--text "..."] [--restore]
package main

import (
	"fmt"
	"os"
	"time"

	cli "github.com/spf13/pflag"

	"github.com/fedoraxfce/deskbin/internal/inject"
	"github.com/fedoraxfce/deskbin/internal/logging"
)

func main() {
	method := cli.StringP("method", "m", "paste", "inject method: paste, type or xdotool")
	text := cli.StringP("text", "t", "Привет from SpeakFlow!", "text to inject")
	restore := cli.Bool("restore", false, "restore the previous clipboard afterwards")
	delay := cli.Int("delay", 3, "seconds to wait before injecting")
	cli.Parse()

	logging.Setup("debug")

	fmt.Printf("Will inject %q with %q in %d seconds. Focus a text field now!\n", *text, *method, *delay)
	for i := *delay; i > 0; i-- {
		fmt.Printf("%d...\n", i)
		time.Sleep(time.Second)
	}

	inj := inject.NewInjector(inject.Options{Method: *method, RestoreClipboard: *restore})
	if err := inj.Inject(*text); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("Done.")
}
