// Profiling:
// go build ./cmd/simbench
// ./simbench -mode mem
// go tool pprof -http=":8000" -nodefraction=0.001 ./simbench mem.pprof

package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/pkg/profile"

	"github.com/l1jgo/stagecraft/internal/component"
	"github.com/l1jgo/stagecraft/internal/config"
	"github.com/l1jgo/stagecraft/internal/core/ecs"
	"github.com/l1jgo/stagecraft/internal/director"
	"github.com/l1jgo/stagecraft/internal/system"
)

func main() {
	mode := flag.String("mode", "mem", "profile kind: mem, cpu or none")
	rounds := flag.Int("rounds", 20, "number of fresh directors")
	frames := flag.Int("frames", 600, "frames stepped per round")
	entities := flag.Int("entities", 2000, "entities spawned per round")
	flag.Parse()

	var p interface{ Stop() }
	switch *mode {
	case "mem":
		p = profile.Start(profile.MemProfileAllocs, profile.ProfilePath("."), profile.NoShutdownHook)
	case "cpu":
		p = profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook)
	case "none":
	default:
		fmt.Fprintf(os.Stderr, "unknown profile mode %q\n", *mode)
		os.Exit(2)
	}

	start := time.Now()
	updates := run(*rounds, *frames, *entities)
	if p != nil {
		p.Stop()
	}
	fmt.Printf("%d rounds, %d updates in %s\n", *rounds, updates, time.Since(start))
}

func run(rounds, frames, numEntities int) int {
	cfg := config.Defaults().Director
	cfg.FixedStep = true
	cfg.Step = config.Duration{Duration: 16 * time.Millisecond}

	updates := 0
	for r := 0; r < rounds; r++ {
		sched := director.NewManualScheduler()
		d := director.New(director.Options{
			Config:      cfg,
			Scheduler:   sched,
			AfterUpdate: func(time.Duration) { updates++ },
		})
		d.Systems().Add(system.MovementKind)
		d.Systems().Add(system.LifetimeKind)

		for i := 0; i < numEntities; i++ {
			e := d.Entities().Add("mover")
			e.Add(component.Position, nil)
			e.Add(component.Velocity, ecs.Options{"dx": float64(i % 7), "dy": 1.0})
			if i%3 == 0 {
				e.Add(component.Lifetime, ecs.Options{"remaining": float64(i%5 + 1)})
			}
		}

		d.Start(nil, true)
		for f := 0; f < frames; f++ {
			sched.Advance(time.Duration(f) * 16 * time.Millisecond)
		}
		d.Destroy()
	}
	return updates
}
