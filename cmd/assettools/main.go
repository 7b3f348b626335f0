package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"

	"spritesync/internal/character"
	"spritesync/internal/maps"
	"spritesync/internal/sheet"
	"spritesync/internal/snapshot"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		printUsage(stderr)
		return 1
	}

	cmd, args := args[0], args[1:]
	switch cmd {
	case "maps":
		if len(args) != 1 {
			fmt.Fprintln(stderr, "Usage: assettools maps <maps-dir>")
			return 1
		}
		return runMaps(args[0], stdout, stderr)
	case "sheets":
		if len(args) != 1 {
			fmt.Fprintln(stderr, "Usage: assettools sheets <sheets-dir>")
			return 1
		}
		return runSheets(args[0], stdout, stderr)
	case "geometry":
		if len(args) != 2 && len(args) != 4 {
			fmt.Fprintln(stderr, "Usage: assettools geometry <sheets-dir> <graphic> [hitbox-w hitbox-h]")
			return 1
		}
		return runGeometry(args, stdout, stderr)
	case "schema":
		return runSchema(stdout, stderr)
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n", cmd)
		printUsage(stderr)
		return 1
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, `Usage: assettools <command> [args]

Commands:
  maps     <maps-dir>                 Validate all maps in directory
  sheets   <sheets-dir>               Load every spritesheet and list its clips
  geometry <sheets-dir> <graphic> [w h]
                                      Show anchor and overlay offset for a graphic
  schema                              Print the JSON schema of an entity snapshot`)
}

// --- maps ---

func runMaps(dir string, stdout, stderr io.Writer) int {
	allMaps, err := maps.LoadMaps(dir)
	if err != nil {
		fmt.Fprintf(stderr, "FAIL: %v\n", err)
		return 1
	}

	errs := maps.Validate(allMaps)
	for _, err := range errs {
		fmt.Fprintf(stdout, "  ERROR: %v\n", err)
	}
	if len(errs) > 0 {
		fmt.Fprintf(stdout, "\n%d error(s) found\n", len(errs))
		return 1
	}
	for name, m := range allMaps {
		fmt.Fprintf(stdout, "%q OK (%dx%d, %d portals, %d events)\n", name, m.Width, m.Height, len(m.Portals), len(m.Events))
	}
	fmt.Fprintf(stdout, "\nAll %d maps valid\n", len(allMaps))
	return 0
}

// --- sheets ---

func runSheets(dir string, stdout, stderr io.Writer) int {
	reg, err := sheet.LoadRegistry(dir)
	if err != nil {
		fmt.Fprintf(stderr, "FAIL: %v\n", err)
		return 1
	}
	defer reg.Close()

	for _, name := range reg.Names() {
		d, _ := reg.Get(name)
		fmt.Fprintf(stdout, "%s (%gx%g)\n", name, d.SpriteWidth, d.SpriteHeight)
		for _, clip := range sortedClips(d) {
			loop := ""
			if clip.Loop {
				loop = ", loops"
			}
			hook := ""
			if _, ok := d.Hook(clip.Name); ok {
				hook = ", hook " + sheet.HookName(clip.Name)
			}
			fmt.Fprintf(stdout, "  %-8s %d directions, %d ticks/frame%s%s\n",
				clip.Name, len(clip.Frames), clip.FrameTicks, loop, hook)
		}
	}
	fmt.Fprintf(stdout, "\n%d sheets loaded\n", len(reg.Names()))
	return 0
}

func sortedClips(d *sheet.Descriptor) []*sheet.Clip {
	clips := make([]*sheet.Clip, 0, len(d.Clips))
	for _, c := range d.Clips {
		clips = append(clips, c)
	}
	slices.SortFunc(clips, func(a, b *sheet.Clip) int { return strings.Compare(a.Name, b.Name) })
	return clips
}

// --- geometry ---

func runGeometry(args []string, stdout, stderr io.Writer) int {
	reg, err := sheet.LoadRegistry(args[0])
	if err != nil {
		fmt.Fprintf(stderr, "FAIL: %v\n", err)
		return 1
	}
	defer reg.Close()

	d, ok := reg.Get(args[1])
	if !ok {
		fmt.Fprintf(stderr, "FAIL: no sheet named %q\n", args[1])
		return 1
	}

	var hitbox *snapshot.Hitbox
	if len(args) == 4 {
		w, errW := strconv.ParseFloat(args[2], 64)
		h, errH := strconv.ParseFloat(args[3], 64)
		if errW != nil || errH != nil {
			fmt.Fprintf(stderr, "FAIL: hitbox must be two numbers, got %q %q\n", args[2], args[3])
			return 1
		}
		hitbox = &snapshot.Hitbox{W: w, H: h}
	}

	anchor, shape := character.ResolveGeometry(d, hitbox)
	fmt.Fprintf(stdout, "%s\n  anchor  (%g, %g)\n  offset  (%g, %g)\n  tiles   %dx%d\n",
		d.Name, anchor.X(), anchor.Y(), shape.Offset.X(), shape.Offset.Y(), shape.SizeTiles[0], shape.SizeTiles[1])
	return 0
}

// --- schema ---

func runSchema(stdout, stderr io.Writer) int {
	out, err := json.MarshalIndent(snapshot.Schema(), "", "  ")
	if err != nil {
		fmt.Fprintf(stderr, "FAIL: %v\n", err)
		return 1
	}
	fmt.Fprintln(stdout, string(out))
	return 0
}
