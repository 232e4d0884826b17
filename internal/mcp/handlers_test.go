package mcp

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/mossline/gardenseer/internal/config"
	"github.com/mossline/gardenseer/internal/garden"
	"github.com/mossline/gardenseer/internal/store"
)

func setupTestServer(t *testing.T) (*Server, string) {
	t.Helper()
	tmpDir := t.TempDir()

	runtime := config.Default()
	runtime.Logging.TraceRuns = false
	runtime.Simulation.Seed = 42

	server, err := NewServer(&Config{
		Name:    "test-server",
		Version: "v1.0.0",
		Root:    tmpDir,
		DataDir: tmpDir,
		Runtime: runtime,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}
	t.Cleanup(func() { server.Close() })

	return server, tmpDir
}

// seedGarden records a short growth timeline and a starting state.
func seedGarden(t *testing.T, dir string) {
	t.Helper()
	ts, err := store.OpenTimeline(dir)
	if err != nil {
		t.Fatalf("OpenTimeline: %v", err)
	}
	defer ts.Close()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	counts := []float64{2, 4, 8}
	for i, c := range counts {
		p := garden.TimelinePoint{
			Timestamp: base.Add(time.Duration(i) * time.Hour),
			Events:    []garden.Event{{Type: "birth", Description: "Sprouted glyph", Impact: 0.4}},
			Metrics:   map[string]float64{garden.MetricGlyphCount: c, garden.MetricTotalLove: c / 2},
		}
		if err := ts.AppendPoint(context.Background(), p); err != nil {
			t.Fatalf("AppendPoint: %v", err)
		}
	}

	snap := garden.Snapshot{
		Glyphs: []garden.Glyph{
			{ID: "g1", Type: garden.GlyphSeed, Genetics: garden.Genetics{LoveFactor: 0.6, ResonanceFreq: 432}},
			{ID: "g2", Type: garden.GlyphEntity, Genetics: garden.Genetics{LoveFactor: 0.8}},
		},
		Connections: []garden.Connection{{Source: "g1", Target: "g2", Strength: 0.5}},
	}
	if err := store.NewStateStore(dir).Save(snap); err != nil {
		t.Fatalf("save state: %v", err)
	}
}

func TestHandleTrain(t *testing.T) {
	server, dir := setupTestServer(t)
	seedGarden(t, dir)

	_, out, err := server.handleTrain(context.Background(), &sdk.CallToolRequest{}, GardenTrainInput{})
	if err != nil {
		t.Fatalf("handleTrain: %v", err)
	}
	if out.TimelinePoints != 3 {
		t.Errorf("TimelinePoints = %d, want 3", out.TimelinePoints)
	}
	if out.GrowthCurves == 0 {
		t.Error("no growth curves trained")
	}
	if out.Warning != "" {
		t.Errorf("unexpected warning %q", out.Warning)
	}

	// Model artifact must now be loadable.
	if _, err := store.NewModelStore(dir).Load(); err != nil {
		t.Errorf("model artifact not saved: %v", err)
	}
}

func TestHandleTrain_ShortTimelineWarns(t *testing.T) {
	server, _ := setupTestServer(t)

	_, out, err := server.handleTrain(context.Background(), &sdk.CallToolRequest{}, GardenTrainInput{})
	if err != nil {
		t.Fatalf("handleTrain: %v", err)
	}
	if out.Warning == "" {
		t.Error("expected advisory warning for empty timeline")
	}
}

func TestHandleSimulate(t *testing.T) {
	server, dir := setupTestServer(t)
	seedGarden(t, dir)
	if _, _, err := server.handleTrain(context.Background(), &sdk.CallToolRequest{}, GardenTrainInput{}); err != nil {
		t.Fatalf("handleTrain: %v", err)
	}

	_, out, err := server.handleSimulate(context.Background(), &sdk.CallToolRequest{}, GardenSimulateInput{
		Hypothesis: "plant and nurture",
		Actions:    []ActionSpec{{Type: "plant"}, {Type: "nurture"}},
		Horizon:    "30m",
		Runs:       4,
		Seed:       7,
	})
	if err != nil {
		t.Fatalf("handleSimulate: %v", err)
	}
	b := out.Branch
	if b.ID == "" {
		t.Error("branch has no ID")
	}
	if b.Hypothesis != "plant and nurture" {
		t.Errorf("Hypothesis = %q", b.Hypothesis)
	}
	if b.Probability < 0 || b.Probability > 1 {
		t.Errorf("Probability = %v outside [0,1]", b.Probability)
	}
	if b.Desirability < -1 || b.Desirability > 1 {
		t.Errorf("Desirability = %v outside [-1,1]", b.Desirability)
	}
	if b.Outcomes == 0 {
		t.Error("branch has no outcomes")
	}
}

func TestHandleSimulate_UnknownAction(t *testing.T) {
	server, dir := setupTestServer(t)
	seedGarden(t, dir)
	if _, _, err := server.handleTrain(context.Background(), &sdk.CallToolRequest{}, GardenTrainInput{}); err != nil {
		t.Fatalf("handleTrain: %v", err)
	}

	_, _, err := server.handleSimulate(context.Background(), &sdk.CallToolRequest{}, GardenSimulateInput{
		Hypothesis: "bad",
		Actions:    []ActionSpec{{Type: "uproot"}},
	})
	if err == nil {
		t.Error("unknown action type accepted")
	}
}

func TestHandleSimulate_MissingModel(t *testing.T) {
	server, _ := setupTestServer(t)

	_, _, err := server.handleSimulate(context.Background(), &sdk.CallToolRequest{}, GardenSimulateInput{
		Hypothesis: "no model yet",
	})
	if err == nil {
		t.Error("simulate without trained model succeeded")
	}
}

func TestHandleAlternatives(t *testing.T) {
	server, dir := setupTestServer(t)
	seedGarden(t, dir)
	if _, _, err := server.handleTrain(context.Background(), &sdk.CallToolRequest{}, GardenTrainInput{}); err != nil {
		t.Fatalf("handleTrain: %v", err)
	}

	_, out, err := server.handleAlternatives(context.Background(), &sdk.CallToolRequest{}, GardenAlternativesInput{
		Horizon: "30m",
		Runs:    2,
		Seed:    7,
	})
	if err != nil {
		t.Fatalf("handleAlternatives: %v", err)
	}
	if out.Count != 3 || len(out.Branches) != 3 {
		t.Fatalf("Count = %d, len = %d, want 3", out.Count, len(out.Branches))
	}
	if out.Branches[0].Hypothesis != "aggressive growth" {
		t.Errorf("first alternative = %q, want aggressive growth", out.Branches[0].Hypothesis)
	}
}

func TestHandleNextEvent_Default(t *testing.T) {
	server, dir := setupTestServer(t)
	seedGarden(t, dir)
	if _, _, err := server.handleTrain(context.Background(), &sdk.CallToolRequest{}, GardenTrainInput{}); err != nil {
		t.Fatalf("handleTrain: %v", err)
	}

	_, out, err := server.handleNextEvent(context.Background(), &sdk.CallToolRequest{}, GardenNextEventInput{})
	if err != nil {
		t.Fatalf("handleNextEvent: %v", err)
	}
	if out.Event == "" {
		t.Error("empty prediction")
	}
	if out.Probability <= 0 || out.Probability > 1 {
		t.Errorf("Probability = %v", out.Probability)
	}
}

func TestHandleTrajectory(t *testing.T) {
	server, dir := setupTestServer(t)
	seedGarden(t, dir)
	if _, _, err := server.handleTrain(context.Background(), &sdk.CallToolRequest{}, GardenTrainInput{}); err != nil {
		t.Fatalf("handleTrain: %v", err)
	}

	_, out, err := server.handleTrajectory(context.Background(), &sdk.CallToolRequest{}, GardenTrajectoryInput{
		Horizon: "2h",
	})
	if err != nil {
		t.Fatalf("handleTrajectory: %v", err)
	}
	if out.Metric != garden.MetricGlyphCount {
		t.Errorf("Metric = %q, want default %q", out.Metric, garden.MetricGlyphCount)
	}
	if len(out.Values) != 10 {
		t.Errorf("len(Values) = %d, want 10", len(out.Values))
	}
}

func TestHandleTrajectory_UnknownMetric(t *testing.T) {
	server, dir := setupTestServer(t)
	seedGarden(t, dir)
	if _, _, err := server.handleTrain(context.Background(), &sdk.CallToolRequest{}, GardenTrainInput{}); err != nil {
		t.Fatalf("handleTrain: %v", err)
	}

	_, out, err := server.handleTrajectory(context.Background(), &sdk.CallToolRequest{}, GardenTrajectoryInput{
		Metric: "moonPhase",
	})
	if err != nil {
		t.Fatalf("handleTrajectory: %v", err)
	}
	if len(out.Values) != 0 {
		t.Errorf("len(Values) = %d, want 0 for untrained metric", len(out.Values))
	}
}
