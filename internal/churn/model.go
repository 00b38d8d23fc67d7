// PlayMetric - Game Telemetry Analytics and Churn Risk Scoring
// Copyright 2026 vishnugarg323
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vishnugarg323/PlayMetric

// Package churn scores each player's risk of leaving the game.
//
// A Model starts in rule-based mode, which maps inactivity and session
// counts to fixed probabilities. Once a random forest is trained or a
// trained artifact is loaded, the model switches to trained mode for the
// rest of its lifetime; later failures to train or load never revert it.
//
// Prediction takes the read lock and training swaps parameters under the
// write lock, so predictions never observe a half-trained model.
package churn

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/vishnugarg323/PlayMetric/internal/metrics"
	"github.com/vishnugarg323/PlayMetric/internal/models"
	"github.com/vishnugarg323/PlayMetric/internal/stats"
)

// Sentinel errors.
var (
	ErrInsufficientData   = errors.New("insufficient training data")
	ErrSingleClass        = errors.New("training labels contain a single class")
	ErrTrainingInProgress = errors.New("training already in progress")
	ErrNotTrained         = errors.New("model is not trained")
	ErrInvalidArtifact    = errors.New("invalid model artifact")
)

// artifactVersion is bumped when the artifact layout changes.
const artifactVersion = 1

// Rule-based probabilities.
const (
	ruleProbDormant     = 0.9
	ruleProbInactive    = 0.7
	ruleProbCooling     = 0.4
	ruleProbFewSessions = 0.5
	ruleProbActive      = 0.2
	ruleConfidence      = 0.7
)

// ArtifactStore persists opaque model blobs.
type ArtifactStore interface {
	LoadArtifact(ctx context.Context, name string) ([]byte, error)
	SaveArtifact(ctx context.Context, name string, data []byte) error
}

// TrainingSample is one labeled user.
type TrainingSample struct {
	Profile models.UserProfile
	Events  []models.Event
	Churned bool
}

// Model is the churn predictor. The zero value is not usable; call NewModel.
type Model struct {
	cfg    *Config
	logger zerolog.Logger

	mu        sync.RWMutex
	mode      models.ChurnMode
	forest    *Forest
	scaler    stats.StandardScaler
	trainedAt time.Time
	accuracy  float64

	training atomic.Bool
}

// NewModel creates a rule-based model.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewModel(cfg *Config, logger zerolog.Logger) (*Model, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	metrics.SetChurnModelTrained(false)
	return &Model{
		cfg:    cfg,
		logger: logger.With().Str("component", "churn").Logger(),
		mode:   models.ModeRuleBased,
	}, nil
}

// Mode reports the current prediction mode.
func (m *Model) Mode() models.ChurnMode {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.mode
}

// TrainedAt returns when the active forest was fit, zero in rule-based mode.
func (m *Model) TrainedAt() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.trainedAt
}

// Train fits a new forest and switches the model to trained mode. It returns
// the training-set accuracy. On error the previous state is kept.
func (m *Model) Train(samples []TrainingSample, now time.Time) (float64, error) {
	if !m.training.CompareAndSwap(false, true) {
		return 0, ErrTrainingInProgress
	}
	defer m.training.Store(false)

	accuracy, err := m.train(samples, now)
	metrics.RecordChurnTraining(accuracy, err)
	if err != nil {
		m.logger.Warn().Err(err).Int("samples", len(samples)).Msg("churn training failed")
		return 0, err
	}
	m.logger.Info().
		Int("samples", len(samples)).
		Float64("accuracy", accuracy).
		Msg("churn model trained")
	return accuracy, nil
}

func (m *Model) train(samples []TrainingSample, now time.Time) (float64, error) {
	if len(samples) < m.cfg.MinTrainingSamples {
		return 0, fmt.Errorf("%w: %d samples, need %d", ErrInsufficientData, len(samples), m.cfg.MinTrainingSamples)
	}

	X := make([][]float64, len(samples))
	y := make([]int, len(samples))
	positives := 0
	for i, s := range samples {
		X[i] = ExtractFeatures(s.Profile, s.Events, now).Slice()
		if s.Churned {
			y[i] = 1
			positives++
		}
	}
	if positives == 0 || positives == len(samples) {
		return 0, ErrSingleClass
	}

	var scaler stats.StandardScaler
	scaled := scaler.FitTransform(X)
	forest, err := FitForest(scaled, y, m.cfg.Forest)
	if err != nil {
		return 0, err
	}
	accuracy := forest.Accuracy(scaled, y)

	m.mu.Lock()
	m.forest = forest
	m.scaler = scaler
	m.mode = models.ModeTrained
	m.trainedAt = now
	m.accuracy = accuracy
	m.mu.Unlock()

	metrics.SetChurnModelTrained(true)
	return accuracy, nil
}

// Predict scores one user.
func (m *Model) Predict(u models.UserProfile, events []models.Event, now time.Time) models.ChurnPrediction {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.predictLocked(u, events, now)
}

// predictLocked requires m.mu to be held.
func (m *Model) predictLocked(u models.UserProfile, events []models.Event, now time.Time) models.ChurnPrediction {
	var p models.ChurnPrediction
	if m.mode == models.ModeTrained {
		p = m.predictTrained(u, events, now)
	} else {
		p = predictRules(u, now)
	}
	p.UserID = u.UserID
	p.TotalSessions = u.TotalSessions
	p.DaysInactive = max(wholeDays(orNow(u.LastSeen, now), now), 0)
	p.Recommendations = Recommendations(p.RiskFactors)
	metrics.RecordChurnPrediction(string(p.RiskLevel), string(p.Mode))
	return p
}

func (m *Model) predictTrained(u models.UserProfile, events []models.Event, now time.Time) models.ChurnPrediction {
	f := ExtractFeatures(u, events, now)
	prob := stats.Clamp(m.forest.PredictProba(m.scaler.Transform(f.Slice())), 0, 1)

	return models.ChurnPrediction{
		ChurnProbability: stats.Round(prob, 3),
		RiskLevel:        TrainedBand(prob),
		RiskFactors:      trainedRiskFactors(f),
		Confidence:       stats.Round(max(prob, 1-prob), 3),
		Mode:             models.ModeTrained,
	}
}

func predictRules(u models.UserProfile, now time.Time) models.ChurnPrediction {
	days := wholeDays(orNow(u.LastSeen, now), now)
	prob := RuleProbability(days, u.TotalSessions)
	return models.ChurnPrediction{
		ChurnProbability: prob,
		RiskLevel:        RuleBand(prob),
		RiskFactors:      ruleRiskFactors(days, u.TotalSessions),
		Confidence:       ruleConfidence,
		Mode:             models.ModeRuleBased,
	}
}

// RuleProbability is the fallback churn probability.
func RuleProbability(daysInactive, sessions int) float64 {
	switch {
	case daysInactive > 14:
		return ruleProbDormant
	case daysInactive > 7:
		return ruleProbInactive
	case daysInactive > 3:
		return ruleProbCooling
	case sessions < 3:
		return ruleProbFewSessions
	default:
		return ruleProbActive
	}
}

// RuleBand maps a fallback probability to a band. Rule-based mode never
// reports critical.
func RuleBand(prob float64) models.RiskBand {
	switch {
	case prob > 0.6:
		return models.RiskHigh
	case prob > 0.3:
		return models.RiskMedium
	default:
		return models.RiskLow
	}
}

// TrainedBand maps a forest probability to a band.
func TrainedBand(prob float64) models.RiskBand {
	switch {
	case prob < 0.25:
		return models.RiskLow
	case prob < 0.5:
		return models.RiskMedium
	case prob < 0.75:
		return models.RiskHigh
	default:
		return models.RiskCritical
	}
}

// Analyze scores every user in the snapshot, sorted by descending
// probability (ties by user ID). A positive limit truncates the prediction
// list; the distribution and averages always cover every user. The whole
// run holds the model's read lock, so a concurrent retrain cannot mix modes.
func (m *Model) Analyze(snap models.Snapshot, limit int, now time.Time) models.ChurnAnalysis {
	byUser := snap.EventsByUser()
	preds := make([]models.ChurnPrediction, 0, len(snap.Users))

	m.mu.RLock()
	mode := m.mode
	for _, u := range snap.Users {
		preds = append(preds, m.predictLocked(u, byUser[u.UserID], now))
	}
	m.mu.RUnlock()

	sort.Slice(preds, func(i, j int) bool {
		if preds[i].ChurnProbability != preds[j].ChurnProbability {
			return preds[i].ChurnProbability > preds[j].ChurnProbability
		}
		return preds[i].UserID < preds[j].UserID
	})

	a := models.ChurnAnalysis{
		TotalUsersAnalyzed: len(preds),
		ModelMode:          mode,
		RiskDistribution:   make(map[models.RiskBand]int, len(models.AllRiskBands)),
		GeneratedAt:        now,
	}
	for _, b := range models.AllRiskBands {
		a.RiskDistribution[b] = 0
	}
	var sum float64
	for _, p := range preds {
		a.RiskDistribution[p.RiskLevel]++
		sum += p.ChurnProbability
	}
	a.AtRiskCount = a.RiskDistribution[models.RiskHigh] + a.RiskDistribution[models.RiskCritical]
	a.AvgChurnProbability = stats.Round(stats.SafeDiv(sum, float64(len(preds))), 3)

	if limit > 0 && len(preds) > limit {
		preds = preds[:limit]
	}
	a.Predictions = preds
	return a
}

// LabelByInactivity builds training samples, labeling users inactive for
// more than days as churned.
func LabelByInactivity(snap models.Snapshot, days int, now time.Time) []TrainingSample {
	byUser := snap.EventsByUser()
	out := make([]TrainingSample, 0, len(snap.Users))
	for _, u := range snap.Users {
		out = append(out, TrainingSample{
			Profile: u,
			Events:  byUser[u.UserID],
			Churned: wholeDays(orNow(u.LastSeen, now), now) > days,
		})
	}
	return out
}

// TrainFromSnapshot labels the snapshot by inactivity and trains on it.
func (m *Model) TrainFromSnapshot(snap models.Snapshot, now time.Time) (float64, error) {
	return m.Train(LabelByInactivity(snap, m.cfg.ChurnAfterDays, now), now)
}

type artifact struct {
	Version      int                  `json:"version"`
	Trained      bool                 `json:"trained"`
	FeatureNames []string             `json:"feature_names"`
	Scaler       stats.StandardScaler `json:"scaler"`
	Forest       *Forest              `json:"forest"`
	TrainedAt    time.Time            `json:"trained_at"`
	Accuracy     float64              `json:"accuracy"`
}

// MarshalArtifact serializes the trained parameters.
func (m *Model) MarshalArtifact() ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.mode != models.ModeTrained {
		return nil, ErrNotTrained
	}
	return json.Marshal(artifact{
		Version:      artifactVersion,
		Trained:      true,
		FeatureNames: FeatureNames[:],
		Scaler:       m.scaler,
		Forest:       m.forest,
		TrainedAt:    m.trainedAt,
		Accuracy:     m.accuracy,
	})
}

// UnmarshalArtifact installs parameters produced by MarshalArtifact and
// switches to trained mode. An invalid blob leaves the model unchanged.
func (m *Model) UnmarshalArtifact(data []byte) error {
	var a artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArtifact, err)
	}
	if err := a.validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArtifact, err)
	}

	m.mu.Lock()
	m.forest = a.Forest
	m.scaler = a.Scaler
	m.trainedAt = a.TrainedAt
	m.accuracy = a.Accuracy
	m.mode = models.ModeTrained
	m.mu.Unlock()

	metrics.SetChurnModelTrained(true)
	return nil
}

func (a *artifact) validate() error {
	if a.Version != artifactVersion {
		return fmt.Errorf("unsupported version %d", a.Version)
	}
	if !a.Trained {
		return errors.New("artifact is not trained")
	}
	if len(a.FeatureNames) != NumFeatures {
		return fmt.Errorf("expected %d features, got %d", NumFeatures, len(a.FeatureNames))
	}
	for i, name := range a.FeatureNames {
		if name != FeatureNames[i] {
			return fmt.Errorf("feature %d is %q, want %q", i, name, FeatureNames[i])
		}
	}
	if len(a.Scaler.Mean) != NumFeatures || len(a.Scaler.Scale) != NumFeatures {
		return errors.New("scaler dimension mismatch")
	}
	for _, s := range a.Scaler.Scale {
		if s == 0 {
			return errors.New("scaler has zero scale")
		}
	}
	return a.Forest.validate(NumFeatures)
}

// LoadFrom restores a trained model from store. Any failure is logged and
// leaves the model in its current mode; it reports whether a model loaded.
func (m *Model) LoadFrom(ctx context.Context, store ArtifactStore) bool {
	data, err := store.LoadArtifact(ctx, m.cfg.ArtifactName)
	if err == nil {
		err = m.UnmarshalArtifact(data)
	}
	if err != nil {
		m.logger.Warn().Err(err).Str("mode", string(m.Mode())).Msg("churn model artifact not loaded")
		return false
	}
	m.logger.Info().Time("trained_at", m.TrainedAt()).Msg("churn model artifact loaded")
	return true
}

// SaveTo persists the trained model.
func (m *Model) SaveTo(ctx context.Context, store ArtifactStore) error {
	data, err := m.MarshalArtifact()
	if err != nil {
		return err
	}
	if err := store.SaveArtifact(ctx, m.cfg.ArtifactName, data); err != nil {
		return fmt.Errorf("save churn artifact: %w", err)
	}
	return nil
}
