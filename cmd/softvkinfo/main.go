// Command softvkinfo inspects the softvk runtime: its extensions, the
// physical device it exposes, the entry points visible from each scope,
// and a headless present of a solid frame.
package main

import "os"

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
