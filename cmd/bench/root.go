package bench

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/ValentinKolb/grl/cmd/util"
	"github.com/ValentinKolb/grl/rpc/factory"
	"github.com/ValentinKolb/grl/rpc/registration"
	gometrics "github.com/rcrowley/go-metrics"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// BenchCmd benchmarks the registered formats
	BenchCmd = &cobra.Command{
		Use:   "bench",
		Short: "Benchmark every serialization format",
		Long: `Encodes and decodes a sample record with every registered generic format and
every specialized benchmark codec, and prints the time per operation and the
payload size of each.`,
		PreRunE: processBenchConfig,
		RunE:    run,
	}
	benchThreads     = 1
	benchPayloadSize = 256
	benchRounds      = 3
	benchSkip        = make([]string, 0)
)

func init() {
	// add flags
	key := "skip"
	BenchCmd.Flags().String(key, "", util.WrapString("Formats to skip (comma separated - e.g. binary,proto)"))
	key = "threads"
	BenchCmd.Flags().Int(key, 1, util.WrapString("Number of goroutines per CPU used by each benchmark"))
	key = "payload-size"
	BenchCmd.Flags().Int(key, 256, util.WrapString("Size of the bytes field of the record (in bytes)"))
	key = "rounds"
	BenchCmd.Flags().Int(key, 3, util.WrapString("How often every benchmark is repeated"))
	key = "csv"
	BenchCmd.Flags().String(key, "", util.WrapString("Optional path to save benchmark results as CSV"))
	key = "prometheus"
	BenchCmd.Flags().Bool(key, false, util.WrapString("Print the dispatch metrics of the factory in Prometheus text format"))
}

func processBenchConfig(cmd *cobra.Command, _ []string) error {
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	// Read the configuration from the command line flags and environment variables
	benchThreads = viper.GetInt("threads")
	benchPayloadSize = viper.GetInt("payload-size")
	benchRounds = viper.GetInt("rounds")
	benchSkip = strings.Split(viper.GetString("skip"), ",")

	if benchRounds < 1 {
		return fmt.Errorf("rounds must be at least 1")
	}
	if benchPayloadSize < 0 {
		return fmt.Errorf("payload-size must not be negative")
	}
	return nil
}

// result is the outcome of all rounds of one format
type result struct {
	Format      string
	Path        factory.Path
	Serialize   gometrics.Timer
	Deserialize gometrics.Timer
	Payload     gometrics.Histogram
}

func run(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()

	r, err := util.NewRegistrar()
	if err != nil {
		return err
	}
	conf := r.Config()

	fmt.Fprintln(out, "Serialization benchmark")

	// Print configuration
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Configuration:")
	fmt.Fprint(out, conf.String())
	fmt.Fprintf(out, "Threads: %d\n", benchThreads)
	fmt.Fprintf(out, "Payload: %d bytes\n", benchPayloadSize)
	fmt.Fprintf(out, "Rounds:  %d\n", benchRounds)
	fmt.Fprintln(out)

	rec := newRecord(benchPayloadSize)
	reg := gometrics.NewRegistry()

	var results []result
	for _, format := range formats(r) {
		if shouldSkip(format) {
			printSkipped(out, format)
			continue
		}
		if err := verify(r.Factory(), format, rec); err != nil {
			return err
		}
		res, err := benchmark(r.Factory(), format, rec, reg)
		if err != nil {
			return err
		}
		results = append(results, res)
		printResult(out, res)
	}

	// Write results to csv is specified
	if csvPath := viper.GetString("csv"); csvPath != "" {
		fmt.Fprintf(out, "\nExporting results to CSV: %s\n", csvPath)
		file, err := os.Create(csvPath)
		if err != nil {
			return fmt.Errorf("failed to create CSV file: %v", err)
		}
		defer file.Close()
		if err := writeResultsToCSV(file, results); err != nil {
			return fmt.Errorf("failed to export results to CSV: %v", err)
		}
		fmt.Fprintln(out, "Export complete")
	}

	if viper.GetBool("prometheus") {
		fmt.Fprintln(out)
		r.Factory().WritePrometheus(out)
	}

	return nil
}

// --------------------------------------------------------------------------
// Benchmarks
// --------------------------------------------------------------------------

// benchmark runs the serialize and deserialize benchmarks of format benchRounds
// times and records ns/op and payload sizes in reg
func benchmark(f *factory.Factory, format string, rec *Record, reg gometrics.Registry) (result, error) {
	res := result{
		Format:      format,
		Path:        factory.Route(f, rec, format),
		Serialize:   gometrics.GetOrRegisterTimer(format+".serialize", reg),
		Deserialize: gometrics.GetOrRegisterTimer(format+".deserialize", reg),
		Payload:     gometrics.GetOrRegisterHistogram(format+".payload", reg, gometrics.NewUniformSample(1028)),
	}

	data, err := factory.Serialize(f, rec, format)
	if err != nil {
		return res, fmt.Errorf("(%s) - error serializing: %w", format, err)
	}
	res.Payload.Update(int64(len(data)))

	for i := 0; i < benchRounds; i++ {
		ser := testing.Benchmark(func(b *testing.B) {
			b.SetParallelism(benchThreads)
			b.ResetTimer()
			b.RunParallel(func(pb *testing.PB) {
				for pb.Next() {
					data, err := factory.Serialize(f, rec, format)
					if err != nil {
						b.Errorf("(%s) - error serializing: %v", format, err)
						return
					}
					res.Payload.Update(int64(len(data)))
				}
			})
		})
		res.Serialize.Update(time.Duration(ser.NsPerOp()))

		de := testing.Benchmark(func(b *testing.B) {
			b.SetParallelism(benchThreads)
			b.ResetTimer()
			b.RunParallel(func(pb *testing.PB) {
				for pb.Next() {
					var out *Record
					if err := factory.Deserialize(f, data, format, &out); err != nil {
						b.Errorf("(%s) - error deserializing: %v", format, err)
						return
					}
				}
			})
		})
		res.Deserialize.Update(time.Duration(de.NsPerOp()))
	}

	return res, nil
}

// verify checks that rec survives a round trip in format
func verify(f *factory.Factory, format string, rec *Record) error {
	data, err := factory.Serialize(f, rec, format)
	if err != nil {
		return fmt.Errorf("(%s) - error serializing: %w", format, err)
	}
	var out *Record
	if err := factory.Deserialize(f, data, format, &out); err != nil {
		return fmt.Errorf("(%s) - error deserializing: %w", format, err)
	}
	if !equalRecord(rec, out) {
		return fmt.Errorf("(%s) - round trip changed the record: %+v != %+v", format, rec, out)
	}
	return nil
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// formats returns every generic format followed by every specialized benchmark format
func formats(r *registration.Registrar) []string {
	all := r.Serializers.Formats()
	var specialized []string
	for format := range typedFormats {
		specialized = append(specialized, format)
	}
	sort.Strings(specialized)
	return append(all, specialized...)
}

func shouldSkip(format string) bool {
	// Check if the format is in the skip list
	for _, skip := range benchSkip {
		if format == strings.TrimSpace(skip) {
			return true
		}
	}
	return false
}

func equalRecord(a, b *Record) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.ID != b.ID || a.Name != b.Name || a.Score != b.Score || a.Active != b.Active {
		return false
	}
	if !bytes.Equal(a.Payload, b.Payload) {
		return false
	}
	if a.Origin == nil || b.Origin == nil {
		return a.Origin == b.Origin
	}
	return *a.Origin == *b.Origin
}

func opsPerSec(nsPerOp float64) float64 {
	nsPerOp = math.Max(nsPerOp, 1) // prevent division by zero
	return 1.0 / (nsPerOp / 1e9)
}

func printSkipped(w io.Writer, format string) {
	fmt.Fprintf(w, "%-16sskipped\n", format)
}

// printResult prints the result of a benchmark in a formatted way
func printResult(w io.Writer, res result) {
	ser := res.Serialize.Mean()
	de := res.Deserialize.Mean()
	fmt.Fprintf(w, "%-16s%-8s ser %8.0fns/op (%6.0f ops/sec)  de %8.0fns/op (%6.0f ops/sec)  %6.0f bytes\n",
		res.Format, res.Path, ser, opsPerSec(ser), de, opsPerSec(de), res.Payload.Mean())
}

// writeResultsToCSV writes benchmark results as CSV to w
func writeResultsToCSV(w io.Writer, results []result) error {
	writer := csv.NewWriter(w)

	// Write header
	header := []string{
		"Format", "Path",
		"SerializeNsPerOp", "SerializeMinNs", "SerializeMaxNs", "SerializeOpsPerSec",
		"DeserializeNsPerOp", "DeserializeMinNs", "DeserializeMaxNs", "DeserializeOpsPerSec",
		"PayloadBytes", "Rounds", "Threads",
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %v", err)
	}

	// Write results
	for _, res := range results {
		ser, de := res.Serialize.Snapshot(), res.Deserialize.Snapshot()
		row := []string{
			res.Format,
			string(res.Path),
			fmt.Sprintf("%.0f", ser.Mean()),
			strconv.FormatInt(ser.Min(), 10),
			strconv.FormatInt(ser.Max(), 10),
			fmt.Sprintf("%.0f", opsPerSec(ser.Mean())),
			fmt.Sprintf("%.0f", de.Mean()),
			strconv.FormatInt(de.Min(), 10),
			strconv.FormatInt(de.Max(), 10),
			fmt.Sprintf("%.0f", opsPerSec(de.Mean())),
			fmt.Sprintf("%.0f", res.Payload.Mean()),
			strconv.FormatInt(ser.Count(), 10),
			strconv.Itoa(benchThreads),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row for format %s: %v", res.Format, err)
		}
	}

	writer.Flush()
	return writer.Error()
}
