package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/hertta/internal/model"
	"github.com/sells-group/hertta/internal/pipeline"
	"github.com/sells-group/hertta/internal/resultextract"
	"github.com/sells-group/hertta/internal/store"
)

var optimizeModelPath string

// jobRequestBody is the wire shape accepted by both the optimize subcommand
// (read from a file) and the serve subcommand's POST /jobs handler
// (spec §6.1). Scenarios and an optional start instant are carried
// alongside the contract's named fields since the base model itself has no
// home for either.
type jobRequestBody struct {
	BaseInputData    model.BaseInputData    `json:"base_input_data"`
	TimeLineSettings model.TimeLineSettings `json:"time_line_settings"`
	Location         *jobLocation           `json:"location,omitempty"`
	Scenarios        []model.Scenario       `json:"scenarios"`
	Start            *time.Time             `json:"start,omitempty"`
}

type jobLocation struct {
	Country string `json:"country"`
	Place   string `json:"place"`
}

func (b jobRequestBody) toRequest() pipeline.Request {
	start := time.Now().UTC()
	if b.Start != nil {
		start = *b.Start
	}
	req := pipeline.Request{
		Base:         b.BaseInputData,
		Start:        start,
		TimeSettings: b.TimeLineSettings,
		Scenarios:    b.Scenarios,
	}
	if b.Location != nil {
		req.Country = b.Location.Country
		req.Place = b.Location.Place
	}
	return req
}

var optimizeCmd = &cobra.Command{
	Use:   "optimize",
	Short: "Run one optimization job against a model file",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := settings.Validate("optimize"); err != nil {
			return err
		}

		raw, err := os.ReadFile(optimizeModelPath)
		if err != nil {
			return eris.Wrap(err, "optimize: read model file")
		}
		var body jobRequestBody
		if err := json.Unmarshal(raw, &body); err != nil {
			return eris.Wrap(err, "optimize: parse model file")
		}

		st := store.New()
		p := pipeline.New(settings, st)
		jobID := st.CreateJob()

		p.Run(ctx, jobID, body.toRequest())

		job, err := st.Get(jobID)
		if err != nil {
			return eris.Wrap(err, "optimize: read job result")
		}

		switch job.State {
		case store.JobFinished:
			zap.L().Info("optimize: job finished", zap.Int64("job_id", jobID))
			return writeOutcome(os.Stdout, job.Outcome)
		case store.JobFailed:
			return eris.New(fmt.Sprintf("optimize: job failed: %s", job.Message))
		default:
			return eris.Errorf("optimize: job ended in unexpected state %s", job.State)
		}
	},
}

func writeOutcome(w *os.File, outcome *resultextract.Outcome) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(outcome)
}

func init() {
	optimizeCmd.Flags().StringVar(&optimizeModelPath, "model", "", "path to a JSON job request file (required)")
	_ = optimizeCmd.MarkFlagRequired("model")
	rootCmd.AddCommand(optimizeCmd)
}
