// Command simulate runs a scenario headlessly and reports conservation
// drift, optionally recording diagnostics to Postgres.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math"
	"os"

	"github.com/joho/godotenv"

	"github.com/onnwee/nbody-sim/internal/config"
	"github.com/onnwee/nbody-sim/internal/db"
	"github.com/onnwee/nbody-sim/internal/logger"
	"github.com/onnwee/nbody-sim/internal/physics"
	"github.com/onnwee/nbody-sim/internal/scenario"
	"github.com/onnwee/nbody-sim/internal/sim"
)

func main() {
	scenarioName := flag.String("scenario", "central-mass", "scenario to run")
	steps := flag.Int("steps", 10000, "number of frames to step")
	reportEvery := flag.Int("report-every", 1000, "print drift every N frames")
	integrator := flag.String("integrator", "", "override integrator: euler or verlet")
	collision := flag.String("collision", "", "override collision mode: merge or elastic")
	record := flag.Bool("record", false, "record diagnostics to DATABASE_URL")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load()
	logger.Init(cfg.LogLevel)

	w := sim.NewWorld()
	p := sim.DefaultStepParams()
	if err := scenario.Apply(*scenarioName, w, &p); err != nil {
		log.Fatalf("failed to load scenario: %v", err)
	}
	if *integrator != "" {
		p.Integrator = sim.Integrator(*integrator)
	}
	if *collision != "" {
		p.Collision = sim.CollisionMode(*collision)
	}
	if err := p.Validate(); err != nil {
		log.Fatalf("invalid parameters: %v", err)
	}

	var recorder *db.Recorder
	if *record {
		if cfg.DatabaseURL == "" {
			log.Fatal("-record requires DATABASE_URL")
		}
		conn, err := db.Open(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("failed to open database: %v", err)
		}
		defer conn.Close()
		recorder = db.NewRecorder(conn, cfg.DBStatementTimeout)
	}

	ctx := context.Background()
	sessionID := fmt.Sprintf("simulate-%s", *scenarioName)
	initial := physics.Compute(w, p.G, p.Eps2())
	fmt.Printf("scenario %s: %d bodies, integrator=%s collision=%s dt=%g\n",
		*scenarioName, w.Len(), p.Integrator, p.Collision, p.DT)
	fmt.Printf("initial: E=%.6e px=%.3e py=%.3e\n",
		initial.Energy, initial.Momentum.X, initial.Momentum.Y)

	for i := 1; i <= *steps; i++ {
		physics.Step(w, p)

		if i%*reportEvery != 0 && i != *steps {
			continue
		}
		diag := physics.Compute(w, p.G, p.Eps2())
		if !diag.OK {
			fmt.Printf("step %d: state is no longer finite, aborting\n", i)
			os.Exit(1)
		}
		fmt.Printf("step %6d: bodies=%d E=%.6e dE=%.3e dpx=%.3e dpy=%.3e\n",
			i, w.Len(), diag.Energy,
			relativeDrift(diag.Energy, initial.Energy),
			diag.Momentum.X-initial.Momentum.X,
			diag.Momentum.Y-initial.Momentum.Y)
		if recorder != nil {
			if err := recorder.RecordDiagnostics(ctx, sessionID, uint64(i), p, diag); err != nil {
				logger.Warn("failed to record diagnostics", "step", i, "error", err)
			}
		}
	}
}

func relativeDrift(now, initial float64) float64 {
	if initial == 0 {
		return now
	}
	return math.Abs((now - initial) / initial)
}
