package session

import (
	"crypto/rand"
	"errors"
	"math"
	"testing"

	"github.com/onnwee/nbody-sim/internal/sim"
	"github.com/onnwee/nbody-sim/internal/vec"
)

func testManager(maxSessions, maxBodies int) *Manager {
	p := sim.DefaultStepParams()
	p.G = 1.0
	p.Softening = 0
	return NewManager(ManagerConfig{
		MaxSessions: maxSessions,
		MaxBodies:   maxBodies,
		Defaults:    p,
	})
}

func TestCreateAndGet(t *testing.T) {
	m := testManager(4, 100)

	s, err := m.Create()
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if s.ID == "" {
		t.Fatal("expected non-empty session ID")
	}

	got, err := m.Get(s.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != s {
		t.Error("Get returned a different session")
	}

	if _, err := m.Get("nope"); err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSessionLimit(t *testing.T) {
	m := testManager(2, 100)
	if _, err := m.Create(); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Create(); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Create(); err != ErrSessionLimit {
		t.Errorf("expected ErrSessionLimit, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	m := testManager(4, 100)
	s, _ := m.Create()
	if err := m.Delete(s.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := m.Delete(s.ID); err != ErrNotFound {
		t.Errorf("expected ErrNotFound on double delete, got %v", err)
	}
}

func TestBodyCRUD(t *testing.T) {
	m := testManager(4, 100)
	s, _ := m.Create()

	id, err := s.AddBody(BodySpec{Pos: vec.V2{X: 1, Y: 2}, Mass: 5})
	if err != nil {
		t.Fatalf("AddBody: %v", err)
	}

	b, err := s.Body(id)
	if err != nil {
		t.Fatalf("Body: %v", err)
	}
	if b.Pos.X != 1 || b.Pos.Y != 2 || b.Mass != 5 {
		t.Errorf("unexpected body: %+v", b)
	}

	if err := s.UpdateBody(id, BodySpec{Pos: vec.V2{X: 3}, Mass: 7, Pinned: true}); err != nil {
		t.Fatalf("UpdateBody: %v", err)
	}
	b, _ = s.Body(id)
	if b.Pos.X != 3 || b.Mass != 7 || !b.Pinned {
		t.Errorf("update not applied: %+v", b)
	}

	if err := s.RemoveBody(id); err != nil {
		t.Fatalf("RemoveBody: %v", err)
	}
	if _, err := s.Body(id); err != ErrBodyNotFound {
		t.Errorf("expected ErrBodyNotFound, got %v", err)
	}
	if err := s.UpdateBody(id, BodySpec{}); err != ErrBodyNotFound {
		t.Errorf("expected ErrBodyNotFound on update, got %v", err)
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("entropy exhausted")
}

func TestGenerateSessionIDPanicsWithoutEntropy(t *testing.T) {
	orig := rand.Reader
	rand.Reader = failingReader{}
	defer func() { rand.Reader = orig }()

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic when random source fails")
		}
	}()
	generateSessionID()
}

func TestGenerateSessionIDUnique(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := generateSessionID()
		if id == "" {
			t.Fatal("empty session ID")
		}
		if seen[id] {
			t.Fatalf("duplicate session ID %q", id)
		}
		seen[id] = true
	}
}

func TestAddBodyAssignsDistinctIDs(t *testing.T) {
	m := testManager(4, 100)
	s, _ := m.Create()

	seen := map[sim.BodyID]bool{}
	for i := 0; i < 5; i++ {
		id, err := s.AddBody(BodySpec{Pos: vec.V2{X: float64(i)}, Mass: 1})
		if err != nil {
			t.Fatalf("AddBody %d: %v", i, err)
		}
		if id == 0 {
			t.Fatalf("AddBody %d returned zero ID", i)
		}
		if seen[id] {
			t.Fatalf("AddBody %d returned duplicate ID %d", i, id)
		}
		seen[id] = true
		if _, err := s.Body(id); err != nil {
			t.Fatalf("Body(%d): %v", id, err)
		}
	}
}

func TestBodyLimit(t *testing.T) {
	m := testManager(4, 2)
	s, _ := m.Create()
	s.AddBody(BodySpec{Mass: 1})
	s.AddBody(BodySpec{Mass: 1})
	if _, err := s.AddBody(BodySpec{Mass: 1}); err != ErrBodyLimit {
		t.Errorf("expected ErrBodyLimit, got %v", err)
	}
}

func TestStepAdvancesCount(t *testing.T) {
	m := testManager(4, 100)
	s, _ := m.Create()
	s.AddBody(BodySpec{Pos: vec.V2{X: -1}, Mass: 1})
	s.AddBody(BodySpec{Pos: vec.V2{X: 1}, Mass: 1})

	info := s.Step()
	if info.StepCount != 1 {
		t.Errorf("expected step count 1, got %d", info.StepCount)
	}
	s.Step()
	if s.StepCount() != 2 {
		t.Errorf("expected step count 2, got %d", s.StepCount())
	}
}

func TestAutoPauseOnNonFinite(t *testing.T) {
	m := testManager(4, 100)
	s, _ := m.Create()
	s.Run()
	if !s.Running() {
		t.Fatal("expected session to be running")
	}

	// Poison the state with a NaN position.
	s.AddBody(BodySpec{Pos: vec.V2{X: math.NaN()}, Mass: 1})
	s.Step()

	if s.Running() {
		t.Error("expected session to auto-pause on non-finite state")
	}
}

func TestSetParamsValidation(t *testing.T) {
	m := testManager(4, 100)
	s, _ := m.Create()

	p := s.Params()
	p.Integrator = "rk4"
	if err := s.SetParams(p); err == nil {
		t.Error("expected error for unknown integrator")
	}

	p = s.Params()
	p.DT = -1
	if err := s.SetParams(p); err == nil {
		t.Error("expected error for negative dt")
	}

	p = s.Params()
	p.BHTheta = 0.5
	if err := s.SetParams(p); err != nil {
		t.Errorf("valid params rejected: %v", err)
	}
	if s.Params().BHTheta != 0.5 {
		t.Error("params not applied")
	}
}

func TestResetClearsWorld(t *testing.T) {
	m := testManager(4, 100)
	s, _ := m.Create()
	s.AddBody(BodySpec{Mass: 1})
	s.Run()
	s.Step()

	s.Reset()
	info := s.Info()
	if info.Bodies != 0 || info.StepCount != 0 || info.Running {
		t.Errorf("reset did not clear state: %+v", info)
	}
}

func TestForces(t *testing.T) {
	m := testManager(4, 100)
	s, _ := m.Create()
	s.AddBody(BodySpec{Pos: vec.V2{X: -1}, Mass: 1})
	s.AddBody(BodySpec{Pos: vec.V2{X: 1}, Mass: 1})

	forces := s.Forces()
	if len(forces) != 2 {
		t.Fatalf("expected 2 force entries, got %d", len(forces))
	}
	// Equal masses at +-1: accelerations are equal magnitude, opposite sign.
	if forces[0].Acc.X <= 0 {
		t.Errorf("body at -1 should accelerate toward +x, got %v", forces[0].Acc.X)
	}
	if forces[1].Acc.X >= 0 {
		t.Errorf("body at +1 should accelerate toward -x, got %v", forces[1].Acc.X)
	}
	if math.Abs(forces[0].Acc.X+forces[1].Acc.X) > 1e-12 {
		t.Errorf("accelerations not symmetric: %v vs %v", forces[0].Acc.X, forces[1].Acc.X)
	}
}

func TestListSortedByCreation(t *testing.T) {
	m := testManager(8, 100)
	var ids []string
	for i := 0; i < 3; i++ {
		s, _ := m.Create()
		ids = append(ids, s.ID)
	}
	infos := m.List()
	if len(infos) != 3 {
		t.Fatalf("expected 3 sessions, got %d", len(infos))
	}
}

func TestSessionStats(t *testing.T) {
	m := testManager(8, 100)
	s, _ := m.Create()
	s.AddBody(BodySpec{Mass: 1})
	s.AddBody(BodySpec{Mass: 1})

	stats := m.SessionStats()
	if len(stats) != 1 {
		t.Fatalf("expected 1 stat entry, got %d", len(stats))
	}
	if stats[0].ID != s.ID || stats[0].Bodies != 2 {
		t.Errorf("unexpected stats: %+v", stats[0])
	}
}
