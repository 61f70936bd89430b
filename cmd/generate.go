package cmd

import (
	"bytes"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"example.com/backstage/services/orders/internal/generator"
)

var (
	generateURL      string
	generateCount    int
	generateInterval time.Duration
	generateSeed     uint64
	generateInvalid  bool
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Send synthetic order events to an ingest endpoint",
	Long: `Generate synthetic order events and post them to a running ingest
server, for local testing and load generation.`,
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringVar(&generateURL, "url", "http://127.0.0.1:8080/ingest", "ingest endpoint URL")
	generateCmd.Flags().IntVar(&generateCount, "count", 100, "number of events to send")
	generateCmd.Flags().DurationVar(&generateInterval, "interval", 250*time.Millisecond, "delay between events")
	generateCmd.Flags().Uint64Var(&generateSeed, "seed", 0, "seed for reproducible event streams (0 = random)")
	generateCmd.Flags().BoolVar(&generateInvalid, "invalid", false, "occasionally send contract-violating events")
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	gen := generator.NewGenerator(generateSeed)
	client := &http.Client{Timeout: 10 * time.Second}

	var sent, accepted, failed int
	for i := 0; i < generateCount; i++ {
		var payload []byte
		var err error

		// One in ten events violates the contract when enabled, to keep
		// the rejection path warm.
		if generateInvalid && i%10 == 9 {
			payload, err = gen.InvalidEvent()
		} else {
			payload, err = gen.RawEvent()
		}
		if err != nil {
			return err
		}

		resp, err := client.Post(generateURL, "application/json", bytes.NewReader(payload))
		if err != nil {
			log.Error().Err(err).Int("event", i).Msg("Failed to send event")
			failed++
			time.Sleep(generateInterval)
			continue
		}
		resp.Body.Close()

		sent++
		if resp.StatusCode == http.StatusOK {
			accepted++
		} else {
			log.Warn().Int("status", resp.StatusCode).Int("event", i).Msg("Event not accepted")
		}

		time.Sleep(generateInterval)
	}

	log.Info().
		Int("sent", sent).
		Int("accepted", accepted).
		Int("failed", failed).
		Msg("Generation complete")

	return nil
}
