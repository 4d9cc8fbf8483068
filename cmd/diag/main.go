// Command diag predicts passes offline: it reads a three-line element
// set file (or falls back to a built-in ISS sample) and prints the
// upcoming passes for an observer as a table. Useful for checking the
// pipeline without any upstream feed.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/kemski/iss-position-checker/internal/passes"
	"github.com/kemski/iss-position-checker/internal/tle"
	"github.com/kemski/iss-position-checker/internal/transform"
)

const sampleTLE = `ISS (ZARYA)
1 25544U 98067A   25045.18032407  .00016717  00000+0  30099-3 0  9996
2 25544  51.6412 193.5765 0003457 126.2851 233.8519 15.49874301495057`

func main() {
	var (
		lat       = flag.Float64("lat", 52.158026399080114, "observer latitude in degrees")
		lon       = flag.Float64("lon", 21.55857732726421, "observer longitude in degrees")
		altM      = flag.Float64("alt", 0, "observer altitude in meters")
		minElev   = flag.Float64("min-elev", 10, "visibility threshold in degrees")
		hours     = flag.Int("hours", 48, "prediction horizon in hours")
		maxN      = flag.Int("max", 10, "maximum passes to print (0 = all)")
		zone      = flag.String("zone", "Europe/Warsaw", "display time zone")
		fromEpoch = flag.Bool("from-epoch", false, "predict from the element set epoch instead of now")
	)
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	var src io.Reader = strings.NewReader(sampleTLE)
	name := "built-in sample"
	if flag.NArg() > 0 {
		f, err := os.Open(flag.Arg(0))
		if err != nil {
			fmt.Fprintln(os.Stderr, "ERROR:", err)
			os.Exit(1)
		}
		defer f.Close()
		src = f
		name = flag.Arg(0)
	}

	t, err := tle.ReadSet(src)
	if err != nil {
		fmt.Fprintln(os.Stderr, "ERROR parsing element set:", err)
		os.Exit(1)
	}
	fmt.Printf("%s: %s (catalog %d), epoch %s\n",
		name, t.Name, t.CatalogNumber, t.Epoch.Format(time.RFC3339))

	loc, err := time.LoadLocation(*zone)
	if err != nil {
		fmt.Fprintln(os.Stderr, "ERROR loading zone:", err)
		os.Exit(1)
	}

	store := tle.NewStore()
	store.Put(&tle.Set{TLE: t, Source: name, FetchedAt: time.Now().UTC()})

	observer := transform.NewObserver(*lat, *lon, *altM)
	predictor := passes.NewPredictor(store, observer, passes.Config{
		MinElevationDeg: *minElev,
		Horizon:         time.Duration(*hours) * time.Hour,
		MaxPasses:       *maxN,
		Location:        loc,
	}, logger)

	start := time.Now().UTC()
	if *fromEpoch {
		start = t.Epoch
	}
	fmt.Printf("Observer %.4f, %.4f; horizon %dh; threshold %.1f°; start %s\n\n",
		*lat, *lon, *hours, *minElev, start.Format(time.RFC3339))

	found, err := predictor.Predict(context.Background(), start)
	if err != nil {
		fmt.Fprintln(os.Stderr, "ERROR predicting passes:", err)
		os.Exit(1)
	}
	if len(found) == 0 {
		fmt.Println("No passes above the threshold in the window.")
		return
	}

	fmt.Printf("%-7s %-7s %-7s %-18s %9s %6s\n", "DATE", "FROM", "TO", "DIRECTION", "MAX ELEV", "DUR")
	for _, s := range predictor.Summaries(found) {
		fmt.Printf("%-7s %-7s %-7s %-18s %8.1f° %5ds\n",
			s.Date, s.From, s.To, s.Direction, s.MaxElevation, s.DurationSec)
	}
}
