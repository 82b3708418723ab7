// ABOUTME: Lists output devices of a playback backend
// ABOUTME: Prints index, name and channel count, marking the default and stereo-capable devices
package main

import (
	"fmt"
	"log"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/Soundboard/soundboard-go/pkg/audio/output"
	"github.com/spf13/pflag"
)

var (
	backendName = pflag.String("backend", "malgo", "Output backend ("+strings.Join(output.Names(), ", ")+")")
	all         = pflag.Bool("all", false, "Include devices with fewer than two output channels")
)

func main() {
	pflag.Parse()
	log.SetFlags(0)

	backend, err := output.New(*backendName)
	if err != nil {
		log.Fatalf("Failed to open backend: %v", err)
	}
	defer backend.Close()

	devices, err := backend.Devices()
	if err != nil {
		log.Fatalf("Failed to list devices: %v", err)
	}
	if !*all {
		devices = output.StereoDevices(devices)
	}
	if len(devices) == 0 {
		log.Fatalf("No output devices found on %s", backend.Name())
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "INDEX\tNAME\tCHANNELS\tDEFAULT")
	for _, d := range devices {
		def := ""
		if d.Default {
			def = "*"
		}
		fmt.Fprintf(w, "%d\t%s\t%d\t%s\n", d.Index, d.Name, d.OutputChannels, def)
	}
	w.Flush()
}
