// Command nirs-train runs the NIRS regression pipeline end to end: it loads
// spectral CSV tables, standardizes and augments the training split, trains
// the 1D convolutional network, reports held-out RMSE, and writes plots, an
// HTML report and the trained weights. Runs are recorded in a sqlite
// experiment store.
package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/vapodymov/1D-CNN-Improvement/internal/cnn"
	"github.com/vapodymov/1D-CNN-Improvement/internal/preprocess"
	"github.com/vapodymov/1D-CNN-Improvement/internal/report"
	"github.com/vapodymov/1D-CNN-Improvement/internal/rundb"
	"github.com/vapodymov/1D-CNN-Improvement/internal/spectra"
	"github.com/vapodymov/1D-CNN-Improvement/internal/version"
)

var (
	configPath    = flag.String("config", "config/pipeline.defaults.json", "Pipeline config file (JSON)")
	dbPath        = flag.String("db", "runs.db", "Sqlite experiment store; empty disables run recording")
	migrationsDir = flag.String("migrations", "migrations", "Directory with experiment-store migrations")
	outDir        = flag.String("out", "out", "Output directory for plots, report and weights")
	listRuns      = flag.Bool("list-runs", false, "List stored runs and exit")
	showVersion   = flag.Bool("version", false, "Print build version and exit")
	weightsPath   = flag.String("weights", "", "Predict with saved weights instead of training")
	predictInput  = flag.String("input", "", "CSV table to predict on (requires -weights)")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println("nirs-train", version.String())
		return
	}

	if *listRuns {
		if err := printRuns(*dbPath, *migrationsDir); err != nil {
			log.Fatalf("failed to list runs: %v", err)
		}
		return
	}

	cfg, err := LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if *weightsPath != "" {
		if *predictInput == "" {
			log.Fatal("-weights requires -input")
		}
		if err := runPredict(cfg, *weightsPath, *predictInput); err != nil {
			log.Fatalf("prediction failed: %v", err)
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := runTraining(ctx, cfg); err != nil {
		log.Fatalf("training failed: %v", err)
	}
}

func runTraining(ctx context.Context, cfg *Config) error {
	train, err := loadSplit(cfg, cfg.TrainFiles)
	if err != nil {
		return fmt.Errorf("training split: %w", err)
	}
	val, err := loadSplit(cfg, cfg.ValFiles)
	if err != nil {
		return fmt.Errorf("validation split: %w", err)
	}
	test, err := loadSplit(cfg, cfg.TestFiles)
	if err != nil {
		return fmt.Errorf("test split: %w", err)
	}
	log.Printf("Loaded %d train / %d val / %d test samples, %d channels",
		train.NumSamples(), val.NumSamples(), test.NumSamples(), train.NumChannels())

	// Standardize features and target on training statistics only.
	var std preprocess.Standardizer
	std.Fit(train.X)
	trainX, err := std.Transform(train.X)
	if err != nil {
		return err
	}
	valX, err := std.Transform(val.X)
	if err != nil {
		return err
	}
	testX, err := std.Transform(test.X)
	if err != nil {
		return err
	}

	var scaler preprocess.TargetScaler
	scaler.Fit(train.Y)
	trainY := scaler.Transform(train.Y)
	valY := scaler.Transform(val.Y)

	// Expand the small training set with randomized affine perturbations.
	aug := preprocess.NewAugmenter(cfg.BetaShift, cfg.SlopeShift, cfg.MultiShift, cfg.AugmentSeed)
	augX, err := aug.Augment(trainX, cfg.AugmentRepeats)
	if err != nil {
		return err
	}
	augY := preprocess.RepeatTargets(trainY, cfg.AugmentRepeats)
	log.Printf("Augmented training set to %d samples (x%d)", len(augY), cfg.AugmentRepeats)

	net, err := cnn.NewSpectralNet(train.NumChannels(), cfg.Net)
	if err != nil {
		return err
	}

	db, runID := openRunStore(*dbPath, *migrationsDir, cfg)
	if db != nil {
		defer db.Close()
	}

	trainer := cnn.NewTrainer(net, cfg.Train)
	trainer.OnEpoch = func(es cnn.EpochStats) {
		log.Printf("epoch %3d: train_loss=%.6f val_loss=%.6f lr=%.2e",
			es.Epoch, es.TrainLoss, es.ValLoss, es.LR)
		if db != nil {
			if err := db.RecordEpoch(runID, es); err != nil {
				log.Printf("failed to record epoch: %v", err)
			}
		}
	}

	stats, err := trainer.Fit(ctx, augX, augY, valX, valY)
	if err != nil {
		return err
	}

	// Evaluate in original concentration units.
	scaled, err := net.Predict(testX)
	if err != nil {
		return err
	}
	preds := scaler.Inverse(scaled)

	rmse, err := cnn.RMSE(test.Y, preds)
	if err != nil {
		return err
	}
	mae, err := cnn.MAE(test.Y, preds)
	if err != nil {
		return err
	}
	r2, err := cnn.R2(test.Y, preds)
	if err != nil {
		return err
	}

	fmt.Printf("RMSE: %.4f\n", rmse)
	log.Printf("held-out metrics: rmse=%.4f mae=%.4f r2=%.4f", rmse, mae, r2)

	if err := writeArtifacts(&std, &scaler, net, stats, test.Y, preds, runID, rmse, mae, r2); err != nil {
		return err
	}

	if db != nil {
		if err := db.FinishRun(runID, rmse, mae, r2); err != nil {
			log.Printf("failed to finish run: %v", err)
		}
	}
	return nil
}

func loadSplit(cfg *Config, paths []string) (*spectra.Dataset, error) {
	table, err := spectra.LoadTables(paths...)
	if err != nil {
		return nil, err
	}
	return table.Slice(cfg.Band, cfg.TargetColumn)
}

// openRunStore opens the experiment store and registers a run. Storage is
// best effort: on any failure it logs a warning and training continues
// without persistence.
func openRunStore(path, migrationsDir string, cfg *Config) (*rundb.DB, string) {
	if path == "" {
		return nil, ""
	}

	db, err := rundb.Open(path)
	if err != nil {
		log.Printf("run store disabled: %v", err)
		return nil, ""
	}
	if err := db.MigrateUp(migrationsDir); err != nil {
		log.Printf("run store disabled: %v", err)
		db.Close()
		return nil, ""
	}

	cfgJSON, err := json.Marshal(cfg)
	if err != nil {
		log.Printf("run store disabled: %v", err)
		db.Close()
		return nil, ""
	}
	runID, err := db.CreateRun(string(cfgJSON))
	if err != nil {
		log.Printf("run store disabled: %v", err)
		db.Close()
		return nil, ""
	}

	log.Printf("recording run %s in %s", runID, path)
	return db, runID
}

// preprocessParams captures the fitted scalers so saved weights can be
// reused for prediction on new tables.
type preprocessParams struct {
	FeatureMean []float64 `json:"feature_mean"`
	FeatureStd  []float64 `json:"feature_std"`
	TargetMean  float64   `json:"target_mean"`
	TargetStd   float64   `json:"target_std"`
}

func writeArtifacts(std *preprocess.Standardizer, scaler *preprocess.TargetScaler,
	net *cnn.Network, stats []cnn.EpochStats, yTrue, yPred []float64,
	runID string, rmse, mae, r2 float64) error {

	if err := os.MkdirAll(*outDir, 0755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}

	if err := report.LossCurve(stats, filepath.Join(*outDir, "loss.png")); err != nil {
		return err
	}
	if err := report.PredictedVsActual(yTrue, yPred, filepath.Join(*outDir, "predictions.png")); err != nil {
		return err
	}

	sum := report.Summary{RunID: runID, RMSE: rmse, MAE: mae, R2: r2}
	if err := report.WriteHTML(sum, stats, yTrue, yPred, filepath.Join(*outDir, "report.html")); err != nil {
		return err
	}

	if err := net.SaveWeights(filepath.Join(*outDir, "weights.json")); err != nil {
		return err
	}

	params := preprocessParams{
		FeatureMean: std.Mean,
		FeatureStd:  std.Std,
		TargetMean:  scaler.Mean,
		TargetStd:   scaler.Std,
	}
	data, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("failed to encode preprocess params: %w", err)
	}
	if err := os.WriteFile(filepath.Join(*outDir, "preprocess.json"), data, 0644); err != nil {
		return fmt.Errorf("failed to write preprocess params: %w", err)
	}

	log.Printf("artifacts written to %s", *outDir)
	return nil
}

// runPredict loads saved weights plus the fitted scalers from the weights
// file's directory and prints predictions for every row of the input table.
func runPredict(cfg *Config, weightsFile, inputCSV string) error {
	table, err := spectra.LoadTables(inputCSV)
	if err != nil {
		return err
	}
	ds, err := table.Slice(cfg.Band, cfg.TargetColumn)
	if err != nil {
		return err
	}

	paramsPath := filepath.Join(filepath.Dir(weightsFile), "preprocess.json")
	data, err := os.ReadFile(paramsPath)
	if err != nil {
		return fmt.Errorf("failed to read preprocess params: %w", err)
	}
	var params preprocessParams
	if err := json.Unmarshal(data, &params); err != nil {
		return fmt.Errorf("failed to parse preprocess params: %w", err)
	}

	std := preprocess.Standardizer{Mean: params.FeatureMean, Std: params.FeatureStd}
	scaler := preprocess.TargetScaler{Mean: params.TargetMean, Std: params.TargetStd}

	x, err := std.Transform(ds.X)
	if err != nil {
		return err
	}

	net, err := cnn.NewSpectralNet(ds.NumChannels(), cfg.Net)
	if err != nil {
		return err
	}
	if err := net.LoadWeights(weightsFile); err != nil {
		return err
	}

	scaled, err := net.Predict(x)
	if err != nil {
		return err
	}
	preds := scaler.Inverse(scaled)

	for i, p := range preds {
		fmt.Printf("%d,%.4f,%.4f\n", i, ds.Y[i], p)
	}

	rmse, err := cnn.RMSE(ds.Y, preds)
	if err != nil {
		return err
	}
	log.Printf("rmse on %s: %.4f", inputCSV, rmse)
	return nil
}

func printRuns(path, migrationsDir string) error {
	if path == "" {
		return fmt.Errorf("-db is required")
	}
	db, err := rundb.Open(path)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := db.MigrateUp(migrationsDir); err != nil {
		return err
	}

	runs, err := db.ListRuns()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs recorded")
		return nil
	}

	for _, r := range runs {
		status := "running"
		if r.FinishedAt.Valid {
			status = r.FinishedAt.Time.Format("2006-01-02 15:04:05")
		}
		fmt.Printf("%s  started=%s finished=%s rmse=%s\n",
			r.ID, r.StartedAt.Format("2006-01-02 15:04:05"), status, formatNullFloat(r.TestRMSE))
	}
	return nil
}

func formatNullFloat(v sql.NullFloat64) string {
	if !v.Valid {
		return "n/a"
	}
	return fmt.Sprintf("%.4f", v.Float64)
}
